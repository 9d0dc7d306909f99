// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
)

// getSigOpCount counts signature operations in parsed opcodes. When precise
// is set, multisig operations preceded by a small integer count that many
// keys; otherwise they count the maximum number of keys.
func getSigOpCount(pops []parsedOpcode, precise bool) int {
	nSigs := 0
	for i, pop := range pops {
		switch pop.opcode {
		case OpCheckSig, OpCheckSigVerify:
			nSigs++
		case OpCheckMultiSig, OpCheckMultiSigVerify:
			// If we are being precise then look for familiar
			// patterns for multisig, for now all we recognize is
			// OP_1 - OP_16 to signify the number of pubkeys.
			// Otherwise, we use the max of 20.
			if precise && i > 0 &&
				pops[i-1].opcode >= Op1 &&
				pops[i-1].opcode <= Op16 {
				nSigs += asSmallInt(pops[i-1].opcode)
			} else {
				nSigs += MaxPubKeysPerMultiSig
			}
		}
	}
	return nSigs
}

// GetSigOpCount provides a quick count of the number of signature operations
// in a script. a CHECKSIG operations counts for 1, and a CHECK_MULTISIG for 20.
// If the script fails to parse, then the count up to the point of failure is
// returned.
func GetSigOpCount(script []byte) int {
	// Don't check error since parseScript returns the parsed-up-to-error
	// list of pops.
	pops, _ := parseScript(script)
	return getSigOpCount(pops, false)
}

// GetPreciseSigOpCount returns the number of signature operations in
// the redeem script of a pay-to-script-hash input. scriptPubKey must be a
// P2SH script and scriptSig must be push only, otherwise zero is returned.
func GetPreciseSigOpCount(scriptSig, scriptPubKey []byte) int {
	if !IsPayToScriptHash(scriptPubKey) {
		return 0
	}
	redeemScript, ok := lastPush(scriptSig)
	if !ok {
		return 0
	}
	pops, _ := parseScript(redeemScript)
	return getSigOpCount(pops, true)
}

// GetWitnessSigOpCount returns the number of signature operations of a witness
// input, either a native witness program or one nested in a P2SH script.
func GetWitnessSigOpCount(scriptSig, scriptPubKey []byte, witness [][]byte, flags externalapi.ScriptFlags) int {
	if !flags.HasFlag(externalapi.ScriptVerifyWitness) {
		return 0
	}

	if version, program, ok := ExtractWitnessProgram(scriptPubKey); ok {
		return witnessProgramSigOps(version, program, witness)
	}

	if IsPayToScriptHash(scriptPubKey) {
		redeemScript, ok := lastPush(scriptSig)
		if ok {
			if version, program, ok := ExtractWitnessProgram(redeemScript); ok {
				return witnessProgramSigOps(version, program, witness)
			}
		}
	}
	return 0
}

func witnessProgramSigOps(version int, program []byte, witness [][]byte) int {
	if version != 0 {
		return 0
	}
	switch len(program) {
	case witnessV0PubKeyHashLen:
		return 1
	case witnessV0ScriptHashLen:
		if len(witness) == 0 {
			return 0
		}
		pops, _ := parseScript(witness[len(witness)-1])
		return getSigOpCount(pops, true)
	}
	return 0
}

// GetLegacySigOpCount returns the number of signature operations in all the
// input and output scripts of tx.
func GetLegacySigOpCount(tx *externalapi.DomainTransaction) int {
	count := 0
	for _, input := range tx.Inputs {
		count += GetSigOpCount(input.SignatureScript)
	}
	for _, output := range tx.Outputs {
		count += GetSigOpCount(output.ScriptPublicKey)
	}
	return count
}

// PrevOutputFetcher returns the output spent by an input.
type PrevOutputFetcher func(input *externalapi.DomainTransactionInput) *externalapi.DomainTransactionOutput

// GetTransactionSigOpCost returns the weighted signature operation cost of tx:
// legacy and P2SH operations count witnessScaleFactor each, witness
// operations count one.
func GetTransactionSigOpCost(tx *externalapi.DomainTransaction, prevOutput PrevOutputFetcher,
	flags externalapi.ScriptFlags, witnessScaleFactor int) int64 {

	cost := int64(GetLegacySigOpCount(tx) * witnessScaleFactor)
	if tx.IsCoinBase() {
		return cost
	}

	for _, input := range tx.Inputs {
		spent := prevOutput(input)
		if spent == nil {
			continue
		}
		if flags.HasFlag(externalapi.ScriptVerifyP2SH) {
			cost += int64(GetPreciseSigOpCount(input.SignatureScript, spent.ScriptPublicKey) * witnessScaleFactor)
		}
		cost += int64(GetWitnessSigOpCount(input.SignatureScript, spent.ScriptPublicKey, input.Witness, flags))
	}
	return cost
}
