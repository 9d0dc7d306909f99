package model

import "github.com/hybridchain/hcd/domain/consensus/model/externalapi"

// DifficultyManager provides a method to resolve the proof-of-work
// difficulty value of a block
type DifficultyManager interface {
	RequiredDifficulty(prev *externalapi.ChainedHeader, newBlockTime uint32) uint32
}
