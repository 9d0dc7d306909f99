package testutils

import (
	"github.com/hybridchain/hcd/domain/chaincfg"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/blocksignature"
	"github.com/hybridchain/hcd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hcd/domain/consensus/utils/merkle"
	"github.com/hybridchain/hcd/domain/consensus/utils/transactionhelper"
	"github.com/hybridchain/hcd/domain/consensus/utils/txscript"
	"github.com/hybridchain/hcd/domain/consensus/utils/witness"
	"github.com/pkg/errors"
)

// OpTrueScript is a bare OP_TRUE output script. txscript.AnyoneCanSpendVerifier
// accepts any spend of it regardless of the script flags.
var OpTrueScript = []byte{txscript.OpTrue}

// OpTrueOutput returns an output of value paying to OpTrueScript.
func OpTrueOutput(value int64) *externalapi.DomainTransactionOutput {
	return &externalapi.DomainTransactionOutput{Value: value, ScriptPublicKey: OpTrueScript}
}

// Coinbase returns a coinbase for height whose script starts with the BIP34
// height push. extraNonce keeps coinbases at equal heights distinct.
func Coinbase(params *chaincfg.Params, height uint64, extraNonce uint32, timestamp uint32,
	outputs ...*externalapi.DomainTransactionOutput) *externalapi.DomainTransaction {

	// AddInt64 never fails for values of this size.
	extra, _ := txscript.NewScriptBuilder().AddInt64(int64(extraNonce)).AddData([]byte("hcd")).Script()
	signatureScript := append(txscript.CoinbaseHeightPrefix(height), extra...)
	return transactionhelper.NewTransaction([]*externalapi.DomainTransactionInput{
		transactionhelper.NewCoinbaseInput(signatureScript),
	}, outputs, params.TransactionsHaveTimestamp, timestamp)
}

// Spend returns a transaction spending the OpTrueScript outputs at outpoints
// into a single OpTrueScript output of value.
func Spend(params *chaincfg.Params, value int64, timestamp uint32,
	outpoints ...*externalapi.DomainOutpoint) *externalapi.DomainTransaction {

	inputs := make([]*externalapi.DomainTransactionInput, len(outpoints))
	for i, outpoint := range outpoints {
		inputs[i] = transactionhelper.NewSpendInput(outpoint, nil)
	}
	return transactionhelper.NewTransaction(inputs, []*externalapi.DomainTransactionOutput{OpTrueOutput(value)},
		params.TransactionsHaveTimestamp, timestamp)
}

// Coinstake returns a coinstake spending stake and paying value to
// scriptPublicKey.
func Coinstake(params *chaincfg.Params, stake *externalapi.DomainOutpoint, value int64, timestamp uint32,
	scriptPublicKey []byte) *externalapi.DomainTransaction {

	return transactionhelper.NewTransaction(
		[]*externalapi.DomainTransactionInput{transactionhelper.NewSpendInput(stake, nil)},
		[]*externalapi.DomainTransactionOutput{
			{Value: 0, ScriptPublicKey: nil},
			{Value: value, ScriptPublicKey: scriptPublicKey},
		},
		params.TransactionsHaveTimestamp, timestamp)
}

// NewBlock returns a block on top of prev holding transactions, with its
// merkle root set. The header version is the lowest the network accepts.
func NewBlock(params *chaincfg.Params, prev *externalapi.ChainedHeader, timestamp uint32, bits uint32,
	transactions ...*externalapi.DomainTransaction) *externalapi.DomainBlock {

	block := &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:       params.MinBlockVersion,
			PrevBlockHash: prev.Hash,
			Timestamp:     timestamp,
			Bits:          bits,
		},
		Transactions: transactions,
	}
	UpdateMerkleRoot(block)
	return block
}

// UpdateMerkleRoot recomputes the header merkle root after the transactions
// of block were modified.
func UpdateMerkleRoot(block *externalapi.DomainBlock) {
	root, _ := merkle.BlockMerkleRoot(block)
	block.Header.MerkleRoot = *root
}

// AddWitnessCommitment commits block to its witness data the way params
// expects it, and updates the merkle root.
func AddWitnessCommitment(params *chaincfg.Params, block *externalapi.DomainBlock) error {
	_, err := witness.CreateCommitment(block, make([]byte, witness.NonceSize),
		params.WitnessCommitmentInCoinbaseScript)
	if err != nil {
		return err
	}
	UpdateMerkleRoot(block)
	return nil
}

// SignBlock sets the block signature of a proof-of-stake block.
func SignBlock(block *externalapi.DomainBlock, privateKey []byte) error {
	signature, err := blocksignature.Sign(privateKey, consensushashing.BlockHash(block))
	if err != nil {
		return errors.Wrap(err, "failed signing block")
	}
	block.Signature = signature
	return nil
}

// ChainBlock links the header of block after prev.
func ChainBlock(block *externalapi.DomainBlock, prev *externalapi.ChainedHeader) *externalapi.ChainedHeader {
	return externalapi.NewChainedHeader(block.Header, consensushashing.BlockHash(block), prev)
}

// GenesisChainedHeader returns the chained header of the network's genesis.
func GenesisChainedHeader(params *chaincfg.Params) *externalapi.ChainedHeader {
	return externalapi.NewChainedHeader(params.GenesisBlock.Header, params.GenesisHash, nil)
}

// HeaderChain returns a chain of length bare headers on top of genesis, one
// every spacing seconds, and its tip.
func HeaderChain(params *chaincfg.Params, length int, spacing uint32) *externalapi.ChainedHeader {
	tip := GenesisChainedHeader(params)
	for i := 0; i < length; i++ {
		header := &externalapi.DomainBlockHeader{
			Version:       params.MinBlockVersion,
			PrevBlockHash: tip.Hash,
			Timestamp:     tip.Header.Timestamp + spacing,
			Bits:          params.PowLimitBits,
			Nonce:         uint32(i),
		}
		tip = externalapi.NewChainedHeader(header, consensushashing.HeaderHash(header), tip)
	}
	return tip
}
