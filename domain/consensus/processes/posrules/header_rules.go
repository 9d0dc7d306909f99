package posrules

import (
	"time"

	"github.com/hybridchain/hcd/domain/consensus/processes/blockrules"
	"github.com/hybridchain/hcd/domain/consensus/processes/ruleengine"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

const (
	// driftBeforeFix is the future drift allowed before the drifting bug fix.
	driftBeforeFix = 128 * time.Hour

	// driftAfterFix is the future drift allowed after the drifting bug fix.
	driftAfterFix = 15 * time.Second
)

// PosFutureDriftRule checks a header timestamp against the median time past
// and the future drift allowed at the adjusted time.
type PosFutureDriftRule struct {
	driftingBugFixTimestamp uint32
}

// NewPosFutureDriftRule creates a PosFutureDriftRule.
func NewPosFutureDriftRule(driftingBugFixTimestamp uint32) *PosFutureDriftRule {
	return &PosFutureDriftRule{driftingBugFixTimestamp: driftingBugFixTimestamp}
}

// Name implements ruleengine.Rule.
func (r *PosFutureDriftRule) Name() string { return "PosFutureDriftRule" }

// FutureDrift returns the drift allowed for a block validated at adjustedTime.
func (r *PosFutureDriftRule) FutureDrift(adjustedTime time.Time) time.Duration {
	if adjustedTime.Unix() > int64(r.driftingBugFixTimestamp) {
		return driftAfterFix
	}
	return driftBeforeFix
}

// ValidateHeader implements ruleengine.HeaderRule.
func (r *PosFutureDriftRule) ValidateHeader(vc *ruleengine.ValidationContext) error {
	err := blockrules.CheckPastMedianTime(vc)
	if err != nil {
		return err
	}

	drift := r.FutureDrift(vc.Time)
	if int64(vc.Header().Timestamp) > vc.Time.Add(drift).Unix() {
		return errors.Wrapf(ruleerrors.ErrTimeTooNew, "block timestamp %d is more than %s ahead of "+
			"the adjusted time %d", vc.Header().Timestamp, drift, vc.Time.Unix())
	}
	return nil
}
