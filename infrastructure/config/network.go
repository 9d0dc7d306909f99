package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hybridchain/hcd/domain/chaincfg"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	ProofOfStake       bool   `long:"pos" description:"Use the hybrid proof-of-work/proof-of-stake network"`
	Regtest            bool   `long:"regtest" description:"Use the regression test network"`
	OverrideParamsFile string `long:"override-params-file" description:"Overrides network params (allowed only on regtest)"`

	ActiveNetParams *chaincfg.Params
}

type overrideParamsConfig struct {
	CoinbaseMaturity       *uint64 `json:"coinbaseMaturity"`
	CoinstakeMaturity      *uint64 `json:"coinstakeMaturity"`
	StakeMinConfirmations  *uint64 `json:"stakeMinConfirmations"`
	LastPOWBlock           *uint64 `json:"lastPowBlock"`
	SubsidyHalvingInterval *uint64 `json:"subsidyHalvingInterval"`
	PowTargetSpacingInSecs *int64  `json:"powTargetSpacingInSecs"`
	PosTargetSpacingInSecs *int64  `json:"posTargetSpacingInSecs"`
	PowNoRetargeting       *bool   `json:"powNoRetargeting"`
	PosNoRetargeting       *bool   `json:"posNoRetargeting"`
}

// ResolveNetwork parses the network command line argument and sets ActiveNetParams accordingly.
// The selected params are copied so overrides never leak into the package level values.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	var params chaincfg.Params
	switch {
	case networkFlags.ProofOfStake && networkFlags.Regtest:
		params = chaincfg.PosRegtestParams
	case networkFlags.ProofOfStake:
		params = chaincfg.PosMainnetParams
	case networkFlags.Regtest:
		params = chaincfg.PowRegtestParams
	default:
		params = chaincfg.PowMainnetParams
	}
	networkFlags.ActiveNetParams = &params

	err := networkFlags.overrideParams()
	if err != nil {
		if parser != nil {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
		}
		return err
	}
	return nil
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *chaincfg.Params {
	return networkFlags.ActiveNetParams
}

func (networkFlags *NetworkFlags) overrideParams() error {
	if networkFlags.OverrideParamsFile == "" {
		return nil
	}

	if !networkFlags.Regtest {
		return errors.Errorf("override-params-file is allowed only when using regtest")
	}

	overrideParamsFile, err := os.Open(networkFlags.OverrideParamsFile)
	if err != nil {
		return errors.WithStack(err)
	}
	defer overrideParamsFile.Close()

	decoder := json.NewDecoder(overrideParamsFile)
	decoder.DisallowUnknownFields()
	config := &overrideParamsConfig{}
	err = decoder.Decode(config)
	if err != nil {
		return errors.Wrapf(err, "couldn't parse %s", networkFlags.OverrideParamsFile)
	}

	params := networkFlags.ActiveNetParams
	if config.CoinbaseMaturity != nil {
		params.CoinbaseMaturity = *config.CoinbaseMaturity
	}
	if config.CoinstakeMaturity != nil {
		params.CoinstakeMaturity = *config.CoinstakeMaturity
	}
	if config.StakeMinConfirmations != nil {
		params.StakeMinConfirmations = *config.StakeMinConfirmations
	}
	if config.LastPOWBlock != nil {
		params.LastPOWBlock = *config.LastPOWBlock
	}
	if config.SubsidyHalvingInterval != nil {
		params.SubsidyHalvingInterval = *config.SubsidyHalvingInterval
	}
	if config.PowTargetSpacingInSecs != nil {
		params.PowTargetSpacing = time.Duration(*config.PowTargetSpacingInSecs) * time.Second
	}
	if config.PosTargetSpacingInSecs != nil {
		params.PosTargetSpacing = time.Duration(*config.PosTargetSpacingInSecs) * time.Second
	}
	if config.PowNoRetargeting != nil {
		params.PowNoRetargeting = *config.PowNoRetargeting
	}
	if config.PosNoRetargeting != nil {
		params.PosNoRetargeting = *config.PosNoRetargeting
	}

	return nil
}
