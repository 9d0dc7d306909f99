package blockrules

import (
	"time"

	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/processes/ruleengine"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/constants"
	"github.com/pkg/errors"
)

// HeaderTipRule checks that a header links to the chained header it was
// put after.
type HeaderTipRule struct{}

// NewHeaderTipRule creates a HeaderTipRule.
func NewHeaderTipRule() *HeaderTipRule {
	return &HeaderTipRule{}
}

// Name implements ruleengine.Rule.
func (r *HeaderTipRule) Name() string { return "HeaderTipRule" }

// ValidateHeader implements ruleengine.HeaderRule.
func (r *HeaderTipRule) ValidateHeader(vc *ruleengine.ValidationContext) error {
	prev := vc.ChainedHeader.Previous
	if prev == nil {
		return errors.Wrapf(ruleerrors.ErrInvalidPrevTip, "block %s has no previous block", vc.ChainedHeader.Hash)
	}
	if vc.Header().PrevBlockHash != prev.Hash {
		return errors.Wrapf(ruleerrors.ErrInvalidPrevTip, "block %s points to %s instead of %s",
			vc.ChainedHeader.Hash, vc.Header().PrevBlockHash, prev.Hash)
	}
	return nil
}

// CheckpointsRule rejects headers contradicting a hardened checkpoint and
// marks blocks below the last checkpoint for skipped validation.
type CheckpointsRule struct {
	checkpoints model.CheckpointsProvider
}

// NewCheckpointsRule creates a CheckpointsRule.
func NewCheckpointsRule(checkpoints model.CheckpointsProvider) *CheckpointsRule {
	return &CheckpointsRule{checkpoints: checkpoints}
}

// Name implements ruleengine.Rule.
func (r *CheckpointsRule) Name() string { return "CheckpointsRule" }

// CoversHeight returns whether a block at height is at or below the last
// hardened checkpoint.
func (r *CheckpointsRule) CoversHeight(height uint64) bool {
	last := r.checkpoints.LastCheckpointHeight()
	return last > 0 && height <= last
}

// ValidateHeader implements ruleengine.HeaderRule.
func (r *CheckpointsRule) ValidateHeader(vc *ruleengine.ValidationContext) error {
	height := vc.ChainedHeader.Height
	if !r.checkpoints.CheckHardened(height, &vc.ChainedHeader.Hash) {
		expected, _ := r.checkpoints.HardenedHash(height)
		return errors.Wrapf(ruleerrors.ErrCheckpointViolation, "block %s at height %d doesn't match "+
			"checkpoint %s", vc.ChainedHeader.Hash, height, expected)
	}

	if r.CoversHeight(height) {
		vc.SkipValidation = true
	}
	return nil
}

// AssumeValidRule marks the ancestors of the assume-valid block for skipped
// validation once the assume-valid block is known.
type AssumeValidRule struct {
	assumeValid     *externalapi.DomainHash
	chainIndex      model.ChainIndex
	checkpointsRule *CheckpointsRule
}

// NewAssumeValidRule creates an AssumeValidRule. A nil assumeValid or a nil
// chainIndex disables it, since the assume-valid block can't be resolved
// without a chain index.
func NewAssumeValidRule(assumeValid *externalapi.DomainHash, chainIndex model.ChainIndex) *AssumeValidRule {
	if assumeValid != nil && chainIndex == nil {
		log.Infof("Ignoring assume-valid block %s: there is no chain index to resolve it", assumeValid)
		assumeValid = nil
	}
	return &AssumeValidRule{assumeValid: assumeValid, chainIndex: chainIndex}
}

// Enabled returns whether the rule can mark blocks for skipped validation.
func (r *AssumeValidRule) Enabled() bool {
	return r.assumeValid != nil
}

// Name implements ruleengine.Rule.
func (r *AssumeValidRule) Name() string { return "AssumeValidRule" }

// Initialize implements ruleengine.Initializer.
func (r *AssumeValidRule) Initialize(registry *ruleengine.Registry) error {
	checkpointsRule, err := ruleengine.MustFindRule[*CheckpointsRule](registry)
	if err != nil {
		return err
	}
	r.checkpointsRule = checkpointsRule
	return nil
}

// ValidateHeader implements ruleengine.HeaderRule.
func (r *AssumeValidRule) ValidateHeader(vc *ruleengine.ValidationContext) error {
	if !r.Enabled() || r.checkpointsRule.CoversHeight(vc.ChainedHeader.Height) {
		return nil
	}

	assumeValidHeader, ok := r.chainIndex.GetHeader(r.assumeValid)
	if !ok {
		return nil
	}
	if vc.ChainedHeader.IsOnChainOf(assumeValidHeader) {
		vc.SkipValidation = true
	}
	return nil
}

// SetActivationDeploymentsRule computes the deployment flags of the block.
// It registers in every category so that flags are available whichever
// category runs first, and computes them only once.
type SetActivationDeploymentsRule struct {
	deploymentFlags model.DeploymentFlagsProvider
}

// NewSetActivationDeploymentsRule creates a SetActivationDeploymentsRule.
func NewSetActivationDeploymentsRule(deploymentFlags model.DeploymentFlagsProvider) *SetActivationDeploymentsRule {
	return &SetActivationDeploymentsRule{deploymentFlags: deploymentFlags}
}

// Name implements ruleengine.Rule.
func (r *SetActivationDeploymentsRule) Name() string { return "SetActivationDeploymentsRule" }

func (r *SetActivationDeploymentsRule) setFlags(vc *ruleengine.ValidationContext) error {
	if vc.Flags != nil {
		return nil
	}
	flags, err := r.deploymentFlags.FlagsFor(vc.ChainedHeader)
	if err != nil {
		return err
	}
	vc.Flags = flags
	return nil
}

// ValidateHeader implements ruleengine.HeaderRule.
func (r *SetActivationDeploymentsRule) ValidateHeader(vc *ruleengine.ValidationContext) error {
	return r.setFlags(vc)
}

// ValidatePartial implements ruleengine.PartialRule.
func (r *SetActivationDeploymentsRule) ValidatePartial(vc *ruleengine.ValidationContext) error {
	return r.setFlags(vc)
}

// ValidateFull implements ruleengine.FullRule.
func (r *SetActivationDeploymentsRule) ValidateFull(vc *ruleengine.ValidationContext) error {
	return r.setFlags(vc)
}

// HeaderVersionRule rejects header versions made obsolete by buried
// deployments, and versions newer than this software understands.
type HeaderVersionRule struct {
	minVersion  int32
	maxVersion  int32
	bip34Height uint64
	bip65Height uint64
	bip66Height uint64
}

// NewHeaderVersionRule creates a HeaderVersionRule. A zero maxVersion accepts
// every version.
func NewHeaderVersionRule(minVersion, maxVersion int32, bip34Height, bip65Height, bip66Height uint64) *HeaderVersionRule {
	return &HeaderVersionRule{
		minVersion:  minVersion,
		maxVersion:  maxVersion,
		bip34Height: bip34Height,
		bip65Height: bip65Height,
		bip66Height: bip66Height,
	}
}

// Name implements ruleengine.Rule.
func (r *HeaderVersionRule) Name() string { return "HeaderVersionRule" }

// CanSkipValidation implements ruleengine.SkippableRule.
func (r *HeaderVersionRule) CanSkipValidation() bool { return true }

// ValidateHeader implements ruleengine.HeaderRule.
func (r *HeaderVersionRule) ValidateHeader(vc *ruleengine.ValidationContext) error {
	version := vc.Header().Version
	height := vc.ChainedHeader.Height

	if version < r.minVersion {
		return errors.Wrapf(ruleerrors.ErrBadVersion, "block version %d is below the minimum %d",
			version, r.minVersion)
	}

	// Buried deployments retire the versions that preceded them.
	if (version < 2 && height >= r.bip34Height) ||
		(version < 3 && height >= r.bip66Height) ||
		(version < 4 && height >= r.bip65Height) {
		return errors.Wrapf(ruleerrors.ErrBadVersion, "block version %d is obsolete at height %d",
			version, height)
	}

	isVersionBits := uint32(version)&constants.VersionBitsTopMask == constants.VersionBitsTopBits
	if r.maxVersion != 0 && version > r.maxVersion && !isVersionBits {
		return errors.Wrapf(ruleerrors.ErrClientVersionTooOld, "block version %d is newer than the "+
			"highest known version %d", version, r.maxVersion)
	}
	return nil
}

// HeaderTimeChecksRule checks a proof-of-work header timestamp against the
// median time past and the adjusted time.
type HeaderTimeChecksRule struct {
	maxTimeOffset time.Duration
}

// NewHeaderTimeChecksRule creates a HeaderTimeChecksRule.
func NewHeaderTimeChecksRule(maxTimeOffset time.Duration) *HeaderTimeChecksRule {
	return &HeaderTimeChecksRule{maxTimeOffset: maxTimeOffset}
}

// Name implements ruleengine.Rule.
func (r *HeaderTimeChecksRule) Name() string { return "HeaderTimeChecksRule" }

// ValidateHeader implements ruleengine.HeaderRule.
func (r *HeaderTimeChecksRule) ValidateHeader(vc *ruleengine.ValidationContext) error {
	err := CheckPastMedianTime(vc)
	if err != nil {
		return err
	}

	maxTimestamp := vc.Time.Add(r.maxTimeOffset).Unix()
	if int64(vc.Header().Timestamp) > maxTimestamp {
		return errors.Wrapf(ruleerrors.ErrTimeTooNew, "block timestamp %d is more than %s ahead of "+
			"the adjusted time %d", vc.Header().Timestamp, r.maxTimeOffset, vc.Time.Unix())
	}
	return nil
}

// CheckPastMedianTime checks that the header timestamp is after the median
// time past of the previous block.
func CheckPastMedianTime(vc *ruleengine.ValidationContext) error {
	pastMedianTime := vc.ChainedHeader.Previous.PastMedianTime()
	if vc.Header().Timestamp <= pastMedianTime {
		return errors.Wrapf(ruleerrors.ErrTimeTooOld, "block timestamp %d is not after the median "+
			"time past %d", vc.Header().Timestamp, pastMedianTime)
	}
	return nil
}
