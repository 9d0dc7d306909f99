package externalapi

import "fmt"

// CoinSetStats summarizes a full scan of the unspent output set.
type CoinSetStats struct {
	Tip          DomainHash
	Transactions uint64
	Outputs      uint64
	TotalValue   int64
	Commitment   DomainHash
}

func (s *CoinSetStats) String() string {
	return fmt.Sprintf("tip %s, %d transactions, %d outputs, total value %d, commitment %s",
		s.Tip, s.Transactions, s.Outputs, s.TotalValue, s.Commitment)
}
