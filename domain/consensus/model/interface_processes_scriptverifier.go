package model

import "github.com/hybridchain/hcd/domain/consensus/model/externalapi"

// ScriptVerifier evaluates the scripts of one transaction input. A non-nil
// error means the input doesn't verify.
type ScriptVerifier interface {
	Verify(scriptSig, scriptPubKey []byte, witness [][]byte, tx *externalapi.DomainTransaction,
		inputIndex int, amount int64, flags externalapi.ScriptFlags) error
}
