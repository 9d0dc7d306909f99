package externalapi

// BlockStakeFlag is a bit set on a BlockStake record.
type BlockStakeFlag uint32

// BlockStake flags
const (
	BlockStakeFlagProofOfStake BlockStakeFlag = 1 << iota
	BlockStakeFlagStakeEntropy
)

// BlockStake is the proof-of-stake metadata recorded for every block on a
// proof-of-stake network.
type BlockStake struct {
	Flags           BlockStakeFlag
	HashProof       DomainHash
	StakeModifierV2 DomainHash
	StakeTime       uint32
	PrevoutStake    DomainOutpoint
}

// IsProofOfStake returns whether the record belongs to a proof-of-stake block.
func (bs *BlockStake) IsProofOfStake() bool {
	return bs.Flags&BlockStakeFlagProofOfStake != 0
}

// IsProofOfWork returns whether the record belongs to a proof-of-work block.
func (bs *BlockStake) IsProofOfWork() bool {
	return !bs.IsProofOfStake()
}

// SetStakeEntropyBit sets the entropy bit from the low bit of the block hash.
func (bs *BlockStake) SetStakeEntropyBit(blockHash *DomainHash) {
	if blockHash[0]&1 == 1 {
		bs.Flags |= BlockStakeFlagStakeEntropy
	} else {
		bs.Flags &^= BlockStakeFlagStakeEntropy
	}
}

// Clone returns a copy.
func (bs *BlockStake) Clone() *BlockStake {
	clone := *bs
	return &clone
}
