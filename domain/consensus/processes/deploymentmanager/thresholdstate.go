package deploymentmanager

import (
	"sync"

	"github.com/hybridchain/hcd/domain/chaincfg"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/constants"
)

// ThresholdState define the various threshold states used when voting on
// consensus changes.
type ThresholdState byte

// These constants are used to identify specific threshold states.
const (
	// ThresholdDefined is the first state for each deployment and is the
	// state for the genesis block has by definition for all deployments.
	ThresholdDefined ThresholdState = iota

	// ThresholdStarted is the state for a deployment once its start time
	// has been reached.
	ThresholdStarted

	// ThresholdLockedIn is the state for a deployment during the retarget
	// period which is after the ThresholdStarted state period and the
	// number of blocks that have voted for the deployment equal or exceed
	// the required number of votes for the deployment.
	ThresholdLockedIn

	// ThresholdActive is the state for a deployment for all blocks after a
	// retarget period in which the deployment was in the ThresholdLockedIn
	// state.
	ThresholdActive

	// ThresholdFailed is the state for a deployment once its expiration
	// time has been reached and it did not reach the ThresholdLockedIn
	// state.
	ThresholdFailed
)

var thresholdStateStrings = map[ThresholdState]string{
	ThresholdDefined:  "ThresholdDefined",
	ThresholdStarted:  "ThresholdStarted",
	ThresholdLockedIn: "ThresholdLockedIn",
	ThresholdActive:   "ThresholdActive",
	ThresholdFailed:   "ThresholdFailed",
}

func (t ThresholdState) String() string {
	if s, ok := thresholdStateStrings[t]; ok {
		return s
	}
	return "Unknown ThresholdState"
}

// thresholdStateCache provides a type to cache the threshold states of each
// threshold window for a set of IDs.
type thresholdStateCache struct {
	mtx     sync.Mutex
	entries map[externalapi.DomainHash]ThresholdState
}

func newThresholdCaches(numCaches int) []*thresholdStateCache {
	caches := make([]*thresholdStateCache, numCaches)
	for i := range caches {
		caches[i] = &thresholdStateCache{
			entries: make(map[externalapi.DomainHash]ThresholdState),
		}
	}
	return caches
}

// deploymentChecker decides whether a block voted for a deployment.
type deploymentChecker struct {
	deployment *chaincfg.ConsensusDeployment
}

func (c deploymentChecker) condition(header *externalapi.DomainBlockHeader) bool {
	conditionMask := uint32(1) << c.deployment.BitNumber
	version := uint32(header.Version)
	return version&constants.VersionBitsTopMask == constants.VersionBitsTopBits &&
		version&conditionMask != 0
}

// thresholdState returns the state of a deployment for the block following
// prev. The state only changes on window boundaries, so it is computed from
// the last block of the window before the block and cached by that block's
// hash.
func (dm *deploymentManager) thresholdState(prev *externalapi.ChainedHeader, deploymentID int) ThresholdState {
	deployment := &dm.deployments[deploymentID]
	switch deployment.StartTime {
	case chaincfg.DeploymentAlwaysActive:
		return ThresholdActive
	case chaincfg.DeploymentNeverActive:
		return ThresholdFailed
	}

	window := dm.minerConfirmationWindow
	prev = windowEnd(prev, window)

	cache := dm.caches[deploymentID]
	cache.mtx.Lock()
	defer cache.mtx.Unlock()

	// Walk backwards one window at a time until a known state is found.
	var toCompute []*externalapi.ChainedHeader
	state := ThresholdDefined
	for prev != nil {
		if cached, ok := cache.entries[prev.Hash]; ok {
			state = cached
			break
		}

		// Every window before the start time is defined.
		if uint64(prev.PastMedianTime()) < deployment.StartTime {
			cache.entries[prev.Hash] = ThresholdDefined
			break
		}

		toCompute = append(toCompute, prev)
		if prev.Height < window {
			prev = nil
			break
		}
		prev = prev.Ancestor(prev.Height - window)
	}

	// Walk forward computing the state of each window.
	checker := deploymentChecker{deployment: deployment}
	for i := len(toCompute) - 1; i >= 0; i-- {
		current := toCompute[i]
		medianTime := uint64(current.PastMedianTime())

		switch state {
		case ThresholdDefined:
			if medianTime >= deployment.ExpireTime {
				state = ThresholdFailed
			} else if medianTime >= deployment.StartTime {
				state = ThresholdStarted
			}

		case ThresholdStarted:
			if medianTime >= deployment.ExpireTime {
				state = ThresholdFailed
				break
			}

			count := uint64(0)
			countNode := current
			for j := uint64(0); j < window && countNode != nil; j++ {
				if checker.condition(countNode.Header) {
					count++
				}
				countNode = countNode.Previous
			}
			if count >= dm.ruleChangeActivationThreshold {
				state = ThresholdLockedIn
			}

		case ThresholdLockedIn:
			state = ThresholdActive
		}

		cache.entries[current.Hash] = state
	}
	return state
}

// windowEnd returns the last block of the window preceding the block after
// prev, or nil when that block is in the first window.
func windowEnd(prev *externalapi.ChainedHeader, window uint64) *externalapi.ChainedHeader {
	if prev == nil {
		return nil
	}
	offset := (prev.Height + 1) % window
	if offset > prev.Height {
		return nil
	}
	return prev.Ancestor(prev.Height - offset)
}
