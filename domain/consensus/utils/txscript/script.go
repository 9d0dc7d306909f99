// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrMalformedPush is returned when a push opcode runs past the end of the
// script.
var ErrMalformedPush = errors.New("opcode requires more bytes than are available")

// parsedOpcode represents an opcode that has been parsed and includes any
// potential data associated with it.
type parsedOpcode struct {
	opcode byte
	data   []byte
}

// parseScript parses script into opcodes. On malformed input it returns the
// opcodes parsed so far together with the error.
func parseScript(script []byte) ([]parsedOpcode, error) {
	var opcodes []parsedOpcode
	for i := 0; i < len(script); {
		op := script[i]
		i++

		var dataLen int
		switch {
		case op >= OpData1 && op <= OpData75:
			dataLen = int(op)
		case op == OpPushData1:
			if len(script)-i < 1 {
				return opcodes, ErrMalformedPush
			}
			dataLen = int(script[i])
			i++
		case op == OpPushData2:
			if len(script)-i < 2 {
				return opcodes, ErrMalformedPush
			}
			dataLen = int(binary.LittleEndian.Uint16(script[i:]))
			i += 2
		case op == OpPushData4:
			if len(script)-i < 4 {
				return opcodes, ErrMalformedPush
			}
			dataLen = int(binary.LittleEndian.Uint32(script[i:]))
			i += 4
		}

		if dataLen < 0 || len(script)-i < dataLen {
			return opcodes, ErrMalformedPush
		}
		var data []byte
		if dataLen > 0 {
			data = script[i : i+dataLen]
			i += dataLen
		}
		opcodes = append(opcodes, parsedOpcode{opcode: op, data: data})
	}
	return opcodes, nil
}

// isPushOnly returns true if the script only pushes data.
func isPushOnly(pops []parsedOpcode) bool {
	for _, pop := range pops {
		// OpReserved is considered a push by the consensus rules even
		// though it fails when executed.
		if pop.opcode > Op16 {
			return false
		}
	}
	return true
}

// IsPushOnlyScript returns whether or not the passed script only pushes data.
// Malformed scripts are not push only.
func IsPushOnlyScript(script []byte) bool {
	pops, err := parseScript(script)
	if err != nil {
		return false
	}
	return isPushOnly(pops)
}

// PushedData returns the data pushed by script, in order. Small integer
// opcodes push nothing.
func PushedData(script []byte) ([][]byte, error) {
	pops, err := parseScript(script)
	if err != nil {
		return nil, err
	}
	var data [][]byte
	for _, pop := range pops {
		if pop.data != nil {
			data = append(data, pop.data)
		} else if pop.opcode == Op0 {
			data = append(data, nil)
		}
	}
	return data, nil
}

// lastPush returns the data of the last push of a push only script.
func lastPush(script []byte) ([]byte, bool) {
	pops, err := parseScript(script)
	if err != nil || len(pops) == 0 || !isPushOnly(pops) {
		return nil, false
	}
	return pops[len(pops)-1].data, true
}
