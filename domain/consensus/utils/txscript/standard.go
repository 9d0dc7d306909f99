// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"

	"github.com/hybridchain/hcd/domain/consensus/utils/hashes"
	"github.com/pkg/errors"
)

const (
	// payToPubKeyHashScriptLen is OP_DUP OP_HASH160 <20> OP_EQUALVERIFY OP_CHECKSIG.
	payToPubKeyHashScriptLen = 25

	// payToScriptHashScriptLen is OP_HASH160 <20> OP_EQUAL.
	payToScriptHashScriptLen = 23

	// coldStakingScriptLen is OP_DUP OP_HASH160 OP_ROT OP_IF
	// OP_CHECKCOLDSTAKEVERIFY <20> OP_ELSE <20> OP_ENDIF OP_EQUALVERIFY
	// OP_CHECKSIG.
	coldStakingScriptLen = 51

	// WitnessCommitmentScriptLen is the length of the witness commitment
	// output script: OP_RETURN <36: 0xaa21a9ed || commitment>.
	WitnessCommitmentScriptLen = 38
)

// WitnessCommitmentHeader is the prefix identifying a witness commitment.
var WitnessCommitmentHeader = []byte{OpReturn, OpData36, 0xaa, 0x21, 0xa9, 0xed}

// IsPayToPubKeyHash returns whether script is a standard pay-to-pubkey-hash
// script.
func IsPayToPubKeyHash(script []byte) bool {
	return len(script) == payToPubKeyHashScriptLen &&
		script[0] == OpDup &&
		script[1] == OpHash160 &&
		script[2] == OpData20 &&
		script[23] == OpEqualVerify &&
		script[24] == OpCheckSig
}

// ExtractPubKeyHash returns the key hash of a pay-to-pubkey-hash script.
func ExtractPubKeyHash(script []byte) ([]byte, bool) {
	if !IsPayToPubKeyHash(script) {
		return nil, false
	}
	return script[3:23], true
}

// ExtractPubKey returns the public key of a pay-to-pubkey script, which is a
// single compressed or uncompressed key push followed by OP_CHECKSIG.
func ExtractPubKey(script []byte) ([]byte, bool) {
	switch {
	case len(script) == 35 && script[0] == OpData33 && script[34] == OpCheckSig &&
		(script[1] == 0x02 || script[1] == 0x03):
		return script[1:34], true
	case len(script) == 67 && script[0] == OpData65 && script[66] == OpCheckSig &&
		script[1] == 0x04:
		return script[1:66], true
	}
	return nil, false
}

// IsPayToScriptHash returns true if the script is in the standard
// pay-to-script-hash (P2SH) format, false otherwise.
func IsPayToScriptHash(script []byte) bool {
	return len(script) == payToScriptHashScriptLen &&
		script[0] == OpHash160 &&
		script[1] == OpData20 &&
		script[22] == OpEqual
}

// ExtractWitnessProgram returns the version and program of a witness program
// script: a small integer followed by a single 2 to 40 byte push.
func ExtractWitnessProgram(script []byte) (version int, program []byte, ok bool) {
	if len(script) < 4 || len(script) > 42 {
		return 0, nil, false
	}
	if !isSmallInt(script[0]) {
		return 0, nil, false
	}
	pushLen := int(script[1])
	if pushLen < minWitnessProgramLength || pushLen > maxWitnessProgramLength ||
		pushLen+2 != len(script) {
		return 0, nil, false
	}
	return asSmallInt(script[0]), script[2:], true
}

// IsWitnessProgram returns whether script is a witness program.
func IsWitnessProgram(script []byte) bool {
	_, _, ok := ExtractWitnessProgram(script)
	return ok
}

// IsNullData returns whether script is an OP_RETURN script followed only by
// pushes.
func IsNullData(script []byte) bool {
	if len(script) == 0 || script[0] != OpReturn {
		return false
	}
	return IsPushOnlyScript(script[1:])
}

// NullDataPushes returns the data pushed after OP_RETURN.
func NullDataPushes(script []byte) ([][]byte, error) {
	if !IsNullData(script) {
		return nil, errors.New("script is not a null data script")
	}
	return PushedData(script[1:])
}

// IsColdStakingScript returns whether script is a cold staking script.
func IsColdStakingScript(script []byte) bool {
	return len(script) == coldStakingScriptLen &&
		script[0] == OpDup &&
		script[1] == OpHash160 &&
		script[2] == OpRot &&
		script[3] == OpIf &&
		script[4] == OpCheckColdStakeVerify &&
		script[5] == OpData20 &&
		script[26] == OpElse &&
		script[27] == OpData20 &&
		script[48] == OpEndIf &&
		script[49] == OpEqualVerify &&
		script[50] == OpCheckSig
}

// ExtractColdStakingKeyHashes returns the hot and cold key hashes of a cold
// staking script.
func ExtractColdStakingKeyHashes(script []byte) (hotKeyHash, coldKeyHash []byte, ok bool) {
	if !IsColdStakingScript(script) {
		return nil, nil, false
	}
	return script[6:26], script[28:48], true
}

// ExtractWitnessCommitment returns the commitment of a witness commitment
// output script.
func ExtractWitnessCommitment(script []byte) ([]byte, bool) {
	if len(script) < WitnessCommitmentScriptLen || !bytes.HasPrefix(script, WitnessCommitmentHeader) {
		return nil, false
	}
	return script[len(WitnessCommitmentHeader):WitnessCommitmentScriptLen], true
}

// FindWitnessCommitmentInScript returns the commitment following the last
// witness commitment header embedded anywhere in script.
func FindWitnessCommitmentInScript(script []byte) ([]byte, bool) {
	for end := len(script); end > 0; {
		index := bytes.LastIndex(script[:end], WitnessCommitmentHeader)
		if index < 0 {
			return nil, false
		}
		if len(script)-index >= WitnessCommitmentScriptLen {
			return script[index+len(WitnessCommitmentHeader) : index+WitnessCommitmentScriptLen], true
		}
		end = index + len(WitnessCommitmentHeader) - 1
	}
	return nil, false
}

// PayToPubKeyHashScript creates a new script to pay a transaction
// output to a 20-byte pubkey hash.
func PayToPubKeyHashScript(pubKeyHash []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OpDup).AddOp(OpHash160).
		AddData(pubKeyHash).AddOp(OpEqualVerify).AddOp(OpCheckSig).
		Script()
}

// PayToPubKeyScript creates a new script to pay a transaction output to a
// public key.
func PayToPubKeyScript(pubKey []byte) ([]byte, error) {
	return NewScriptBuilder().AddData(pubKey).AddOp(OpCheckSig).Script()
}

// PayToScriptHashScript creates a new script to pay a transaction output to a
// script hash.
func PayToScriptHashScript(redeemScript []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OpHash160).AddData(hashes.Hash160(redeemScript)).
		AddOp(OpEqual).Script()
}

// ColdStakingScript creates a script spendable by the hot key through a
// coinstake and by the cold key otherwise.
func ColdStakingScript(hotKeyHash, coldKeyHash []byte) ([]byte, error) {
	if len(hotKeyHash) != 20 || len(coldKeyHash) != 20 {
		return nil, errors.Errorf("cold staking key hashes must be 20 bytes, got %d and %d",
			len(hotKeyHash), len(coldKeyHash))
	}
	return NewScriptBuilder().AddOps(OpDup, OpHash160, OpRot, OpIf, OpCheckColdStakeVerify).
		AddData(hotKeyHash).AddOp(OpElse).AddData(coldKeyHash).
		AddOps(OpEndIf, OpEqualVerify, OpCheckSig).Script()
}

// NullDataScript creates an OP_RETURN script pushing each of data.
func NullDataScript(data ...[]byte) ([]byte, error) {
	builder := NewScriptBuilder().AddOp(OpReturn)
	for _, d := range data {
		builder.AddData(d)
	}
	return builder.Script()
}

// WitnessCommitmentScript creates the output script committing to
// commitment.
func WitnessCommitmentScript(commitment []byte) []byte {
	script := make([]byte, 0, WitnessCommitmentScriptLen)
	script = append(script, WitnessCommitmentHeader...)
	return append(script, commitment...)
}

// CoinbaseHeightPrefix returns the serialized height every coinbase script
// must start with once BIP34 is active.
func CoinbaseHeightPrefix(height uint64) []byte {
	// AddInt64 only fails for pushes above MaxScriptElementSize.
	script, _ := NewScriptBuilder().AddInt64(int64(height)).Script()
	return script
}
