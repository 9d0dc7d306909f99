package ruleerrors

import (
	"errors"
	"testing"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	pkgerrors "github.com/pkg/errors"
)

func TestNewErrMissingTxOut(t *testing.T) {
	outer := NewErrMissingTxOut([]*externalapi.DomainOutpoint{{TransactionID: externalapi.DomainHash{255, 255, 255}, Index: 5}})
	expectedOuterErr := "ErrBadTransactionMissingInput: missing the following outpoint: " +
		"[(0000000000000000000000000000000000000000000000000000000000ffffff: 5)]"
	inner := &ErrMissingTxOut{}
	if !errors.As(outer, inner) {
		t.Fatal("TestNewErrMissingTxOut: Outer should contain ErrMissingTxOut in it")
	}

	if len(inner.MissingOutpoints) != 1 {
		t.Fatalf("TestNewErrMissingTxOut: Expected len(inner.MissingOutpoints) 1, found: %d", len(inner.MissingOutpoints))
	}
	if inner.MissingOutpoints[0].Index != 5 {
		t.Fatalf("TestNewErrMissingTxOut: Expected 5. found: %d", inner.MissingOutpoints[0].Index)
	}

	rule := &RuleError{}
	if !errors.As(outer, rule) {
		t.Fatal("TestNewErrMissingTxOut: Outer should contain RuleError in it")
	}
	if rule.message != "ErrBadTransactionMissingInput" {
		t.Fatalf("TestNewErrMissingTxOut: Expected message = 'ErrBadTransactionMissingInput', found: '%s'", rule.message)
	}

	if outer.Error() != expectedOuterErr {
		t.Fatalf("TestNewErrMissingTxOut: Expected %s. found: %s", expectedOuterErr, outer.Error())
	}
}

func TestIsRuleError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		isRuleError  bool
		expectedName string
	}{
		{
			name:         "bare",
			err:          ErrBadMerkleRoot,
			isRuleError:  true,
			expectedName: "ErrBadMerkleRoot",
		},
		{
			name:         "wrapped",
			err:          pkgerrors.Wrapf(ErrBadBlockSigOps, "cost %d", 80001),
			isRuleError:  true,
			expectedName: "ErrBadBlockSigOps",
		},
		{
			name: "script failure",
			err: NewErrScriptFailure(&externalapi.DomainHash{1}, 2,
				pkgerrors.New("signature mismatch")),
			isRuleError:  true,
			expectedName: "ErrBadTransactionScriptError",
		},
		{
			name:         "storage",
			err:          pkgerrors.Wrap(errors.New("disk full"), "failed fetching coins"),
			isRuleError:  false,
			expectedName: "",
		},
	}

	for _, test := range tests {
		if IsRuleError(test.err) != test.isRuleError {
			t.Errorf("%s: expected IsRuleError %t", test.name, test.isRuleError)
		}
		if name := RuleErrorName(test.err); name != test.expectedName {
			t.Errorf("%s: expected name %q, got %q", test.name, test.expectedName, name)
		}
	}

	if !errors.Is(pkgerrors.Wrapf(ErrHighHash, "hash above target"), ErrHighHash) {
		t.Errorf("wrapped rule error should match its sentinel")
	}
	if errors.Is(pkgerrors.Wrapf(ErrHighHash, "hash above target"), ErrBadDiffBits) {
		t.Errorf("wrapped rule error should not match a different sentinel")
	}
}

func TestDetailedRuleErrorMatchesSentinel(t *testing.T) {
	scriptErr := NewErrScriptFailure(&externalapi.DomainHash{1}, 0, pkgerrors.New("bad signature"))
	if !errors.Is(scriptErr, ErrBadTransactionScriptError) {
		t.Errorf("a script failure should match ErrBadTransactionScriptError")
	}
	missingErr := NewErrMissingTxOut([]*externalapi.DomainOutpoint{{Index: 1}})
	if !errors.Is(missingErr, ErrBadTransactionMissingInput) {
		t.Errorf("a missing output error should match ErrBadTransactionMissingInput")
	}
	if errors.Is(missingErr, ErrBadTransactionScriptError) {
		t.Errorf("a missing output error should not match ErrBadTransactionScriptError")
	}
}
