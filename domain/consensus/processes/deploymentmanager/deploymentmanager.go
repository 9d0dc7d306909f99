package deploymentmanager

import (
	"github.com/hybridchain/hcd/domain/chaincfg"
	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/constants"
)

type deploymentManager struct {
	deployments                   [chaincfg.DefinedDeployments]chaincfg.ConsensusDeployment
	ruleChangeActivationThreshold uint64
	minerConfirmationWindow       uint64
	buriedDeployments             chaincfg.BuriedDeployments
	bip30Exceptions               []chaincfg.Checkpoint

	caches []*thresholdStateCache
}

// New instantiates a new DeploymentFlagsProvider
func New(deployments [chaincfg.DefinedDeployments]chaincfg.ConsensusDeployment,
	ruleChangeActivationThreshold uint64,
	minerConfirmationWindow uint64,
	buriedDeployments chaincfg.BuriedDeployments,
	bip30Exceptions []chaincfg.Checkpoint) model.DeploymentFlagsProvider {

	return &deploymentManager{
		deployments:                   deployments,
		ruleChangeActivationThreshold: ruleChangeActivationThreshold,
		minerConfirmationWindow:       minerConfirmationWindow,
		buriedDeployments:             buriedDeployments,
		bip30Exceptions:               bip30Exceptions,
		caches:                        newThresholdCaches(chaincfg.DefinedDeployments),
	}
}

// FlagsFor returns the soft-fork rules that apply to the block at
// chainedHeader. Version bits deployments are evaluated on its parent.
func (dm *deploymentManager) FlagsFor(chainedHeader *externalapi.ChainedHeader) (*externalapi.DeploymentFlags, error) {
	prev := chainedHeader.Previous
	height := chainedHeader.Height
	flags := &externalapi.DeploymentFlags{}

	// Pay-to-script-hash is enforced by block time.
	if chainedHeader.Timestamp() >= dm.buriedDeployments.BIP16Time {
		flags.ScriptFlags |= externalapi.ScriptVerifyP2SH
	}
	if height >= dm.buriedDeployments.BIP66Height {
		flags.ScriptFlags |= externalapi.ScriptVerifyDERSig
	}
	if height >= dm.buriedDeployments.BIP65Height {
		flags.ScriptFlags |= externalapi.ScriptVerifyCheckLockTimeVerify
	}
	flags.EnforceBIP34 = height >= dm.buriedDeployments.BIP34Height

	if dm.thresholdState(prev, chaincfg.DeploymentCSV) == ThresholdActive {
		flags.ScriptFlags |= externalapi.ScriptVerifyCheckSequenceVerify
		flags.LockTimeFlags |= externalapi.LockTimeVerifySequence | externalapi.LockTimeMedianTimePast
	}
	if dm.thresholdState(prev, chaincfg.DeploymentSegwit) == ThresholdActive {
		flags.ScriptFlags |= externalapi.ScriptVerifyWitness | externalapi.ScriptVerifyNullDummy
		flags.Witness = true
	}
	if dm.thresholdState(prev, chaincfg.DeploymentColdStaking) == ThresholdActive {
		flags.ScriptFlags |= externalapi.ScriptVerifyCheckColdStakeVerify
		flags.ColdStaking = true
	}

	flags.EnforceBIP30 = dm.enforceBIP30(chainedHeader)
	return flags, nil
}

// enforceBIP30 returns whether transactions of the block at chainedHeader may
// not overwrite unspent transactions. Two historical blocks are exempt, and a
// chain through the BIP34 activation block can't produce duplicates anymore.
func (dm *deploymentManager) enforceBIP30(chainedHeader *externalapi.ChainedHeader) bool {
	for _, exception := range dm.bip30Exceptions {
		if chainedHeader.Height == exception.Height && chainedHeader.Hash == *exception.Hash {
			log.Debugf("Block %s at height %d is exempt from BIP30", chainedHeader.Hash, chainedHeader.Height)
			return false
		}
	}

	if dm.buriedDeployments.BIP34Hash == nil {
		return true
	}
	bip34Header := chainedHeader.Ancestor(dm.buriedDeployments.BIP34Height)
	return bip34Header == nil || bip34Header.Hash != *dm.buriedDeployments.BIP34Hash
}

// ComputeBlockVersion returns the version a block built on prev should carry
// to signal every started or locked in deployment.
func (dm *deploymentManager) ComputeBlockVersion(prev *externalapi.ChainedHeader) (int32, error) {
	version := uint32(constants.VersionBitsTopBits)
	for id := range dm.deployments {
		state := dm.thresholdState(prev, id)
		if state == ThresholdStarted || state == ThresholdLockedIn {
			version |= uint32(1) << dm.deployments[id].BitNumber
		}
	}
	return int32(version), nil
}
