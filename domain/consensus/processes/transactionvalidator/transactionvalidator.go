package transactionvalidator

import (
	"github.com/hybridchain/hcd/domain/consensus/model"
)

// transactionValidator exposes a set of validation classes, after which
// it's possible to determine whether either a transaction is valid
type transactionValidator struct {
	maxMoney             int64
	maxBlockBaseSize     uint64
	minCoinbaseScriptLen int
	maxCoinbaseScriptLen int
	rejectEmptyOutputs   bool
}

// New instantiates a new TransactionValidator. With rejectEmptyOutputs set,
// ordinary transactions may not carry empty outputs, which are reserved for
// coinbase and coinstake markers.
func New(maxMoney int64,
	maxBlockBaseSize uint64,
	minCoinbaseScriptLen int,
	maxCoinbaseScriptLen int,
	rejectEmptyOutputs bool) model.TransactionValidator {

	return &transactionValidator{
		maxMoney:             maxMoney,
		maxBlockBaseSize:     maxBlockBaseSize,
		minCoinbaseScriptLen: minCoinbaseScriptLen,
		maxCoinbaseScriptLen: maxCoinbaseScriptLen,
		rejectEmptyOutputs:   rejectEmptyOutputs,
	}
}

func (v *transactionValidator) moneyRange(value int64) bool {
	return value >= 0 && value <= v.maxMoney
}
