package mining

import (
	"math"
	"math/rand"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hcd/domain/consensus/utils/difficulty"
	"github.com/pkg/errors"
)

// SolveBlock increments the header nonce, starting at a random value, until
// the block hash meets the target of its bits.
func SolveBlock(block *externalapi.DomainBlock, rd *rand.Rand) {
	targetDifficulty := difficulty.CompactToBig(block.Header.Bits)

	start := rd.Uint32()
	for i := uint64(0); i <= math.MaxUint32; i++ {
		block.Header.Nonce = start + uint32(i)
		hash := consensushashing.BlockHash(block)
		if difficulty.HashToBig(hash).Cmp(targetDifficulty) <= 0 {
			return
		}
	}

	panic(errors.New("went over all the nonce space and couldn't find a single one that gives a valid block"))
}
