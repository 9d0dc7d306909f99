package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hybridchain/hcd/domain/chaincfg"
	"github.com/stretchr/testify/require"
)

func TestResolveNetwork(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		expectedName string
	}{
		{name: "default", args: nil, expectedName: chaincfg.PowMainnetParams.Name},
		{name: "regtest", args: []string{"--regtest"}, expectedName: chaincfg.PowRegtestParams.Name},
		{name: "pos", args: []string{"--pos"}, expectedName: chaincfg.PosMainnetParams.Name},
		{name: "pos regtest", args: []string{"--pos", "--regtest"}, expectedName: chaincfg.PosRegtestParams.Name},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, _, err := LoadConfig(append(test.args, "--datadir", t.TempDir()))
			require.NoError(t, err)
			require.Equal(t, test.expectedName, cfg.NetParams().Name)
			require.Equal(t, test.expectedName, filepath.Base(cfg.DataDir))
		})
	}
}

func TestConsensusConfig(t *testing.T) {
	hash := "000000000000000000000000000000000000000000000000000000000000abcd"
	cfg, remaining, err := LoadConfig([]string{"--regtest", "--nocheckpoints", "--scriptthreads=3",
		"--coincache-maxsize=10", "--coincache-maxdirty=5", "--coincache-flushinterval=30s",
		"--assumevalid=" + hash, "blocks.hex"})
	require.NoError(t, err)
	require.Equal(t, []string{"blocks.hex"}, remaining)

	consensusConfig := cfg.ConsensusConfig()
	require.Equal(t, chaincfg.PowRegtestParams.Name, consensusConfig.Name)
	require.True(t, consensusConfig.DisableCheckpoints)
	require.Equal(t, 3, consensusConfig.ScriptThreads)
	require.Equal(t, 10, consensusConfig.CoinCacheSize)
	require.Equal(t, 5, consensusConfig.CoinCacheMaxDirty)
	require.Equal(t, 30*time.Second, consensusConfig.CoinCacheFlushInterval)
	require.NotNil(t, consensusConfig.AssumeValid)
	require.Equal(t, hash, consensusConfig.AssumeValid.String())
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"--no-such-flag"}},
		{name: "bad assumevalid", args: []string{"--assumevalid=zz"}},
		{name: "negative script threads", args: []string{"--scriptthreads=-1"}},
		{name: "bad log level", args: []string{"--loglevel=loud"}},
		{name: "override outside regtest", args: []string{"--override-params-file=params.json"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := LoadConfig(test.args)
			require.Error(t, err)
		})
	}
}

func TestOverrideParams(t *testing.T) {
	paramsFile := filepath.Join(t.TempDir(), "params.json")
	err := os.WriteFile(paramsFile, []byte(`{"coinbaseMaturity": 3, "stakeMinConfirmations": 2, "lastPowBlock": 20}`), 0600)
	require.NoError(t, err)

	cfg, _, err := LoadConfig([]string{"--pos", "--regtest", "--override-params-file", paramsFile})
	require.NoError(t, err)

	params := cfg.NetParams()
	require.Equal(t, uint64(3), params.CoinbaseMaturity)
	require.Equal(t, uint64(2), params.StakeMinConfirmations)
	require.Equal(t, uint64(20), params.LastPOWBlock)
	require.NotEqual(t, uint64(3), chaincfg.PosRegtestParams.CoinbaseMaturity)

	err = os.WriteFile(paramsFile, []byte(`{"k": 18}`), 0600)
	require.NoError(t, err)
	_, _, err = LoadConfig([]string{"--pos", "--regtest", "--override-params-file", paramsFile})
	require.Error(t, err)
}

func TestLoadConfigWithCommandOptions(t *testing.T) {
	options := &struct {
		InFile string `short:"i" long:"infile"`
	}{}
	cfg, _, err := LoadConfig([]string{"--regtest", "-i", "blocks.hex"}, options)
	require.NoError(t, err)
	require.Equal(t, "blocks.hex", options.InFile)
	require.Equal(t, chaincfg.PowRegtestParams.Name, cfg.NetParams().Name)
}
