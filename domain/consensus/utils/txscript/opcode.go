// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

// These constants are the values of the opcodes the consensus rules need to
// recognize. The script interpreter itself lives outside this package.
const (
	Op0                     = 0x00 // 0
	OpFalse                 = 0x00 // 0 - AKA Op0
	OpData1                 = 0x01 // 1
	OpData20                = 0x14 // 20
	OpData32                = 0x20 // 32
	OpData33                = 0x21 // 33
	OpData36                = 0x24 // 36
	OpData40                = 0x28 // 40
	OpData65                = 0x41 // 65
	OpData75                = 0x4b // 75
	OpPushData1             = 0x4c // 76
	OpPushData2             = 0x4d // 77
	OpPushData4             = 0x4e // 78
	Op1Negate               = 0x4f // 79
	OpReserved              = 0x50 // 80
	Op1                     = 0x51 // 81 - AKA OpTrue
	OpTrue                  = 0x51 // 81
	Op16                    = 0x60 // 96
	OpNop                   = 0x61 // 97
	OpIf                    = 0x63 // 99
	OpElse                  = 0x67 // 103
	OpEndIf                 = 0x68 // 104
	OpVerify                = 0x69 // 105
	OpReturn                = 0x6a // 106
	OpDrop                  = 0x75 // 117
	OpDup                   = 0x76 // 118
	OpRot                   = 0x7b // 123
	OpEqual                 = 0x87 // 135
	OpEqualVerify           = 0x88 // 136
	OpHash160               = 0xa9 // 169
	OpCheckSig              = 0xac // 172
	OpCheckSigVerify        = 0xad // 173
	OpCheckMultiSig         = 0xae // 174
	OpCheckMultiSigVerify   = 0xaf // 175
	OpCheckLockTimeVerify   = 0xb1 // 177 - AKA OpNop2
	OpCheckSequenceVerify   = 0xb2 // 178 - AKA OpNop3
	OpCheckColdStakeVerify  = 0xb9 // 185 - AKA OpNop10
	OpInvalidOpCode         = 0xff // 255
	MaxPubKeysPerMultiSig   = 20
	MaxScriptElementSize    = 520
	witnessV0PubKeyHashLen  = 20
	witnessV0ScriptHashLen  = 32
	minWitnessProgramLength = 2
	maxWitnessProgramLength = 40
)

// isSmallInt returns whether or not the opcode is considered a small integer,
// which is an Op0, or Op1 through Op16.
func isSmallInt(op byte) bool {
	return op == Op0 || (op >= Op1 && op <= Op16)
}

// asSmallInt returns the passed opcode, which must be true according to
// isSmallInt(), as an integer.
func asSmallInt(op byte) int {
	if op == Op0 {
		return 0
	}
	return int(op - (Op1 - 1))
}
