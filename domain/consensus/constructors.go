package consensus

import (
	"math/big"
	"time"

	"github.com/hybridchain/hcd/domain/consensus/model"
)

// DifficultyManagerConstructor is the function signature for a constructor of a type implementing model.DifficultyManager
type DifficultyManagerConstructor func(powLimit *big.Int, targetTimespan, targetSpacing time.Duration,
	allowMinDifficultyBlocks, noRetargeting bool) model.DifficultyManager

// StakeValidatorConstructor is the function signature for a constructor of a type implementing model.StakeValidator
type StakeValidatorConstructor func(powLimit, posLimit *big.Int, targetSpacing, targetTimespan time.Duration,
	powNoRetargeting, posNoRetargeting bool, stakeMinConfirmations uint64, stakeChain model.StakeChain,
	checkpoints model.CheckpointsProvider, scriptVerifier model.ScriptVerifier) model.StakeValidator
