package serialization

import (
	"io"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// HeaderSize is the size of a serialized block header.
const HeaderSize = 80

// maxBlockSignatureSize bounds the DER encoded block signature.
const maxBlockSignatureSize = 80

// SerializeHeader writes the 80 byte block header.
func SerializeHeader(w io.Writer, header *externalapi.DomainBlockHeader) error {
	return WriteElements(w, header.Version, header.PrevBlockHash, header.MerkleRoot,
		header.Timestamp, header.Bits, header.Nonce)
}

// DeserializeHeader reads an 80 byte block header.
func DeserializeHeader(r io.Reader) (*externalapi.DomainBlockHeader, error) {
	header := &externalapi.DomainBlockHeader{}
	err := ReadElements(r, &header.Version, &header.PrevBlockHash, &header.MerkleRoot,
		&header.Timestamp, &header.Bits, &header.Nonce)
	if err != nil {
		return nil, err
	}
	return header, nil
}

// SerializeBlock writes block in wire format.
func SerializeBlock(w io.Writer, block *externalapi.DomainBlock, withWitness bool, options *Options) error {
	if err := SerializeHeader(w, block.Header); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(block.Transactions))); err != nil {
		return err
	}
	for _, tx := range block.Transactions {
		if err := SerializeTransaction(w, tx, withWitness); err != nil {
			return err
		}
	}
	if options.BlocksHaveSignature {
		return WriteVarBytes(w, block.Signature)
	}
	return nil
}

// DeserializeBlock reads a block in wire format.
func DeserializeBlock(r io.Reader, options *Options) (*externalapi.DomainBlock, error) {
	header, err := DeserializeHeader(r)
	if err != nil {
		return nil, err
	}

	txCount, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	// The smallest transaction is 10 bytes.
	if txCount > MaxVarBytesLength/10 {
		return nil, errors.Wrapf(errMalformed, "too many transactions to fit into a block "+
			"[count %d]", txCount)
	}

	block := &externalapi.DomainBlock{
		Header:       header,
		Transactions: make([]*externalapi.DomainTransaction, txCount),
	}
	for i := range block.Transactions {
		block.Transactions[i], err = DeserializeTransaction(r, options)
		if err != nil {
			return nil, err
		}
	}

	if options.BlocksHaveSignature {
		block.Signature, err = ReadVarBytes(r, maxBlockSignatureSize, "block signature")
		if err != nil {
			return nil, err
		}
	}
	return block, nil
}

// BlockSerializeSize returns the number of bytes SerializeBlock writes.
func BlockSerializeSize(block *externalapi.DomainBlock, withWitness bool, options *Options) int {
	size := HeaderSize + VarIntSerializeSize(uint64(len(block.Transactions)))
	for _, tx := range block.Transactions {
		size += TransactionSerializeSize(tx, withWitness)
	}
	if options.BlocksHaveSignature {
		size += VarBytesSerializeSize(block.Signature)
	}
	return size
}

// BlockWeight returns the block weight: the stripped size scaled by
// witnessScaleFactor-1 plus the full size.
func BlockWeight(block *externalapi.DomainBlock, witnessScaleFactor int, options *Options) int {
	baseSize := BlockSerializeSize(block, false, options)
	totalSize := BlockSerializeSize(block, true, options)
	return baseSize*(witnessScaleFactor-1) + totalSize
}

// TransactionWeight is BlockWeight for a single transaction.
func TransactionWeight(tx *externalapi.DomainTransaction, witnessScaleFactor int) int {
	baseSize := TransactionSerializeSize(tx, false)
	totalSize := TransactionSerializeSize(tx, true)
	return baseSize*(witnessScaleFactor-1) + totalSize
}
