package testutils

import (
	"testing"

	"github.com/hybridchain/hcd/domain/chaincfg"
)

// ForAllNets runs the passed testFunc with all available networks. Each run
// gets its own copy of the network parameters.
func ForAllNets(t *testing.T, testFunc func(*testing.T, *chaincfg.Params)) {
	forNets(t, chaincfg.AllParams, testFunc)
}

// ForProofOfStakeNets is like ForAllNets, restricted to proof-of-stake
// networks.
func ForProofOfStakeNets(t *testing.T, testFunc func(*testing.T, *chaincfg.Params)) {
	var posParams []*chaincfg.Params
	for _, params := range chaincfg.AllParams {
		if params.IsProofOfStake {
			posParams = append(posParams, params)
		}
	}
	forNets(t, posParams, testFunc)
}

func forNets(t *testing.T, allParams []*chaincfg.Params, testFunc func(*testing.T, *chaincfg.Params)) {
	for _, params := range allParams {
		paramsCopy := *params
		t.Run(paramsCopy.Name, func(t *testing.T) {
			t.Parallel()
			t.Logf("Running test for %s", paramsCopy.Name)
			testFunc(t, &paramsCopy)
		})
	}
}
