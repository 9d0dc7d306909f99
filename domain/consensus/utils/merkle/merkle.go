package merkle

import (
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hcd/domain/consensus/utils/hashes"
)

// maxLevels is the number of inner hashes kept while computing a root. It
// bounds the number of leaves at 2^32.
const maxLevels = 32

func hashMerkleBranches(left, right *externalapi.DomainHash) *externalapi.DomainHash {
	return hashes.DoubleHash(left[:], right[:])
}

// ComputeMerkleRoot computes the merkle root of leaves in constant space.
// Odd nodes are paired with themselves. mutated reports whether two equal
// hashes were ever combined at the same level, which allows two different
// leaf lists (for example [A B] and [A B A B]) to share a root.
func ComputeMerkleRoot(leaves []*externalapi.DomainHash) (root *externalapi.DomainHash, mutated bool) {
	if len(leaves) == 0 {
		return &externalapi.DomainHash{}, false
	}

	var inner [maxLevels]*externalapi.DomainHash
	var count uint32

	for _, leaf := range leaves {
		h := leaf
		count++
		level := 0
		// Merge with every stored subtree of the same size, lowest first.
		for ; count&(uint32(1)<<level) == 0; level++ {
			if *inner[level] == *h {
				mutated = true
			}
			h = hashMerkleBranches(inner[level], h)
		}
		inner[level] = h
	}

	// Sweep the rightmost branch, hashing odd subtrees with themselves.
	level := 0
	for count&(uint32(1)<<level) == 0 {
		level++
	}
	h := inner[level]
	for count != uint32(1)<<level {
		h = hashMerkleBranches(h, h)
		count += uint32(1) << level
		level++
		for count&(uint32(1)<<level) == 0 {
			h = hashMerkleBranches(inner[level], h)
			level++
		}
	}
	return h, mutated
}

// BlockMerkleRoot computes the merkle root over the block's transaction ids.
func BlockMerkleRoot(block *externalapi.DomainBlock) (root *externalapi.DomainHash, mutated bool) {
	return ComputeMerkleRoot(consensushashing.TransactionIDs(block.Transactions))
}

// BlockWitnessMerkleRoot computes the merkle root over the block's witness
// hashes. The coinbase contributes the zero hash.
func BlockWitnessMerkleRoot(block *externalapi.DomainBlock) (root *externalapi.DomainHash, mutated bool) {
	leaves := make([]*externalapi.DomainHash, len(block.Transactions))
	for i, tx := range block.Transactions {
		if i == 0 {
			leaves[i] = &externalapi.DomainHash{}
			continue
		}
		leaves[i] = consensushashing.TransactionWitnessHash(tx)
	}
	return ComputeMerkleRoot(leaves)
}
