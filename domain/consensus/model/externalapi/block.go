package externalapi

// DomainBlock represents a block.
type DomainBlock struct {
	Header       *DomainBlockHeader
	Transactions []*DomainTransaction

	// Signature is the block signature of proof-of-stake blocks. It is empty
	// for proof-of-work blocks.
	Signature []byte
}

// Clone returns a deep copy of the block.
func (block *DomainBlock) Clone() *DomainBlock {
	transactionClone := make([]*DomainTransaction, len(block.Transactions))
	for i, tx := range block.Transactions {
		transactionClone[i] = tx.Clone()
	}
	return &DomainBlock{
		Header:       block.Header.Clone(),
		Transactions: transactionClone,
		Signature:    append([]byte(nil), block.Signature...),
	}
}

// IsProofOfStake returns whether the block's second transaction is a coinstake.
func (block *DomainBlock) IsProofOfStake() bool {
	return len(block.Transactions) > 1 && block.Transactions[1].IsCoinStake()
}

// IsProofOfWork returns the negation of IsProofOfStake.
func (block *DomainBlock) IsProofOfWork() bool {
	return !block.IsProofOfStake()
}

// DomainBlockHeader represents the header part of a block.
type DomainBlockHeader struct {
	Version       int32
	PrevBlockHash DomainHash
	MerkleRoot    DomainHash
	Timestamp     uint32
	Bits          uint32
	Nonce         uint32
}

// Clone returns a copy of the header.
func (header *DomainBlockHeader) Clone() *DomainBlockHeader {
	clone := *header
	return &clone
}
