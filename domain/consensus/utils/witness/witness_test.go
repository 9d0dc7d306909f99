package witness_test

import (
	"testing"

	"github.com/hybridchain/hcd/domain/chaincfg"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/testutils"
	"github.com/hybridchain/hcd/domain/consensus/utils/witness"
	"github.com/pkg/errors"
)

func blockWithWitness(params *chaincfg.Params) *externalapi.DomainBlock {
	genesis := testutils.GenesisChainedHeader(params)
	coinbase := testutils.Coinbase(params, 1, 0, genesis.Header.Timestamp+1, testutils.OpTrueOutput(50))
	spend := testutils.Spend(params, 10, genesis.Header.Timestamp+1,
		externalapi.NewDomainOutpoint(&externalapi.DomainHash{7}, 0))
	spend.Inputs[0].Witness = [][]byte{{0x51}}
	return testutils.NewBlock(params, genesis, genesis.Header.Timestamp+1, params.PowLimitBits, coinbase, spend)
}

func TestCommitmentRoundTrip(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, params *chaincfg.Params) {
		block := blockWithWitness(params)
		err := testutils.AddWitnessCommitment(params, block)
		if err != nil {
			t.Fatalf("AddWitnessCommitment: %+v", err)
		}

		commitment, found := witness.FindCommitment(block, params.WitnessCommitmentInCoinbaseScript)
		if !found {
			t.Fatalf("commitment not found")
		}
		if len(commitment) != externalapi.DomainHashSize {
			t.Fatalf("unexpected commitment length %d", len(commitment))
		}

		err = witness.Validate(block, true, params.WitnessCommitmentInCoinbaseScript)
		if err != nil {
			t.Fatalf("Validate: %+v", err)
		}
	})
}

func TestValidateRejections(t *testing.T) {
	params := &chaincfg.PowRegtestParams

	tests := []struct {
		name          string
		witnessActive bool
		commit        bool
		mutate        func(block *externalapi.DomainBlock)
		expectedErr   error
	}{
		{
			name:          "valid",
			witnessActive: true,
			commit:        true,
			mutate:        func(*externalapi.DomainBlock) {},
		},
		{
			name:          "flipped commitment byte",
			witnessActive: true,
			commit:        true,
			mutate: func(block *externalapi.DomainBlock) {
				outputs := block.Transactions[0].Outputs
				outputs[len(outputs)-1].ScriptPublicKey[10] ^= 0xff
			},
			expectedErr: ruleerrors.ErrBadWitnessMerkleMatch,
		},
		{
			name:          "flipped witness data",
			witnessActive: true,
			commit:        true,
			mutate: func(block *externalapi.DomainBlock) {
				block.Transactions[1].Inputs[0].Witness[0][0] ^= 0xff
			},
			expectedErr: ruleerrors.ErrBadWitnessMerkleMatch,
		},
		{
			name:          "nonce too short",
			witnessActive: true,
			commit:        true,
			mutate: func(block *externalapi.DomainBlock) {
				block.Transactions[0].Inputs[0].Witness = [][]byte{{1, 2, 3}}
			},
			expectedErr: ruleerrors.ErrBadWitnessNonceSize,
		},
		{
			name:          "two nonce items",
			witnessActive: true,
			commit:        true,
			mutate: func(block *externalapi.DomainBlock) {
				nonce := block.Transactions[0].Inputs[0].Witness[0]
				block.Transactions[0].Inputs[0].Witness = [][]byte{nonce, nonce}
			},
			expectedErr: ruleerrors.ErrBadWitnessNonceSize,
		},
		{
			name:          "witness without commitment",
			witnessActive: true,
			commit:        false,
			mutate:        func(*externalapi.DomainBlock) {},
			expectedErr:   ruleerrors.ErrUnexpectedWitness,
		},
		{
			name:          "witness while inactive",
			witnessActive: false,
			commit:        true,
			mutate:        func(*externalapi.DomainBlock) {},
			expectedErr:   ruleerrors.ErrUnexpectedWitness,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			block := blockWithWitness(params)
			if test.commit {
				err := testutils.AddWitnessCommitment(params, block)
				if err != nil {
					t.Fatalf("AddWitnessCommitment: %+v", err)
				}
			}
			test.mutate(block)

			err := witness.Validate(block, test.witnessActive, false)
			if test.expectedErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %+v", err)
				}
				return
			}
			if !errors.Is(err, test.expectedErr) {
				t.Fatalf("expected %s, got %v", test.expectedErr, err)
			}
		})
	}
}

func TestNoWitnessNoCommitment(t *testing.T) {
	params := &chaincfg.PowRegtestParams
	block := blockWithWitness(params)
	block.Transactions[1].Inputs[0].Witness = nil

	for _, active := range []bool{true, false} {
		err := witness.Validate(block, active, false)
		if err != nil {
			t.Fatalf("witness active %t: unexpected error: %+v", active, err)
		}
	}
}

func TestCreateCommitmentRequiresCoinbase(t *testing.T) {
	block := &externalapi.DomainBlock{Header: &externalapi.DomainBlockHeader{}}
	_, err := witness.CreateCommitment(block, make([]byte, witness.NonceSize), false)
	if err == nil {
		t.Fatalf("expected an error for a block without a coinbase")
	}

	block = blockWithWitness(&chaincfg.PowRegtestParams)
	_, err = witness.CreateCommitment(block, []byte{1}, false)
	if err == nil {
		t.Fatalf("expected an error for a short nonce")
	}
}
