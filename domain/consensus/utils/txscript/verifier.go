package txscript

import (
	"bytes"
	"crypto/sha256"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/hashes"
	"github.com/pkg/errors"
)

// ErrUnsupportedScript is returned by AnyoneCanSpendVerifier for scripts that
// need a full interpreter.
var ErrUnsupportedScript = errors.New("script is not anyone-can-spend")

var opTrueScript = []byte{OpTrue}

// AnyoneCanSpendVerifier verifies only outputs that anyone can spend: a bare
// OP_TRUE, a P2SH script whose redeem script is OP_TRUE, and a v0 witness
// script hash whose witness script is OP_TRUE. Everything else fails with
// ErrUnsupportedScript.
type AnyoneCanSpendVerifier struct{}

// Verify implements model.ScriptVerifier.
func (AnyoneCanSpendVerifier) Verify(scriptSig, scriptPubKey []byte, witness [][]byte,
	_ *externalapi.DomainTransaction, inputIndex int, _ int64, flags externalapi.ScriptFlags) error {

	if bytes.Equal(scriptPubKey, opTrueScript) {
		return nil
	}

	if flags.HasFlag(externalapi.ScriptVerifyP2SH) && IsPayToScriptHash(scriptPubKey) {
		redeemScript, ok := lastPush(scriptSig)
		if !ok || !bytes.Equal(redeemScript, opTrueScript) {
			return errors.Wrapf(ErrUnsupportedScript, "input %d: redeem script is not OP_TRUE", inputIndex)
		}
		if !bytes.Equal(hashes.Hash160(redeemScript), scriptPubKey[2:22]) {
			return errors.Errorf("input %d: redeem script hash mismatch", inputIndex)
		}
		return nil
	}

	if version, program, ok := ExtractWitnessProgram(scriptPubKey); ok && version == 0 &&
		len(program) == witnessV0ScriptHashLen && flags.HasFlag(externalapi.ScriptVerifyWitness) {

		if len(witness) == 0 || !bytes.Equal(witness[len(witness)-1], opTrueScript) {
			return errors.Wrapf(ErrUnsupportedScript, "input %d: witness script is not OP_TRUE", inputIndex)
		}
		scriptHash := sha256.Sum256(witness[len(witness)-1])
		if !bytes.Equal(scriptHash[:], program) {
			return errors.Errorf("input %d: witness script hash mismatch", inputIndex)
		}
		return nil
	}

	return errors.Wrapf(ErrUnsupportedScript, "input %d", inputIndex)
}

// OpTrueScript returns a P2SH script paying to an anyone-can-spend redeem
// script, and the signature script spending it.
func OpTrueScript() (scriptPubKey, scriptSig []byte) {
	scriptPubKey, err := PayToScriptHashScript(opTrueScript)
	if err != nil {
		panic(errors.Wrapf(err, "Couldn't build the OP_TRUE script. This should never happen"))
	}
	scriptSig, err = NewScriptBuilder().AddData(opTrueScript).Script()
	if err != nil {
		panic(errors.Wrapf(err, "Couldn't build the OP_TRUE signature script. This should never happen"))
	}
	return scriptPubKey, scriptSig
}
