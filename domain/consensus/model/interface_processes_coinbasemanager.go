package model

// CoinbaseManager computes the subsidy a block may claim
type CoinbaseManager interface {
	ProofOfWorkReward(height uint64) int64
	ProofOfStakeReward(height uint64) int64
}
