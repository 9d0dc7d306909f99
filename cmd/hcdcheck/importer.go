package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"strings"
	"time"

	"github.com/hybridchain/hcd/domain/consensus"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hcd/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
)

// maxLineSize bounds a single hex encoded block.
const maxLineSize = 2 * serialization.MaxVarBytesLength

// importResult describes how far an import got.
type importResult struct {
	skipped   int
	connected int
	tip       *externalapi.ChainedHeader
}

// blockImporter reads hex encoded blocks, one per line, and connects them to
// the engine in order.
type blockImporter struct {
	engine   *consensus.Engine
	progress time.Duration

	tip         *externalapi.ChainedHeader
	storedTip   *externalapi.DomainHash
	skipping    bool
	result      importResult
	lastLogTime time.Time
	lastLogged  int
}

// newBlockImporter returns an importer starting at the genesis of the engine's
// network. Blocks up to the coin store tip are only chained, not validated,
// so an interrupted import resumes where it stopped.
func newBlockImporter(ctx context.Context, engine *consensus.Engine, progress time.Duration) (*blockImporter, error) {
	params := engine.Params()
	storedTip, err := engine.CoinStore().TipHash(ctx)
	if err != nil {
		return nil, err
	}
	return &blockImporter{
		engine:      engine,
		progress:    progress,
		tip:         externalapi.NewChainedHeader(params.GenesisBlock.Header, params.GenesisHash, nil),
		storedTip:   storedTip,
		skipping:    !storedTip.Equal(params.GenesisHash),
		lastLogTime: time.Now(),
	}, nil
}

// Import processes every block in r. It stops at the first invalid block.
func (bi *blockImporter) Import(ctx context.Context, r io.Reader) (*importResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), maxLineSize)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		block, err := bi.readBlock(line)
		if err != nil {
			return &bi.result, errors.Wrapf(err, "line %d", lineNumber)
		}
		err = bi.processBlock(ctx, block)
		if err != nil {
			return &bi.result, err
		}
	}
	err := scanner.Err()
	if err != nil {
		return &bi.result, errors.WithStack(err)
	}

	if bi.skipping {
		return &bi.result, errors.Errorf("the coin store tip %s is not in the block file", bi.storedTip)
	}
	bi.result.tip = bi.tip
	return &bi.result, nil
}

func (bi *blockImporter) readBlock(line string) (*externalapi.DomainBlock, error) {
	serializedBlock, err := hex.DecodeString(line)
	if err != nil {
		return nil, errors.Wrap(err, "block is not hex encoded")
	}
	reader := bytes.NewReader(serializedBlock)
	block, err := serialization.DeserializeBlock(reader, bi.engine.Params().SerializationOptions())
	if err != nil {
		return nil, errors.Wrap(err, "failed deserializing block")
	}
	if reader.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after block", reader.Len())
	}
	return block, nil
}

func (bi *blockImporter) processBlock(ctx context.Context, block *externalapi.DomainBlock) error {
	blockHash := consensushashing.BlockHash(block)
	if !block.Header.PrevBlockHash.Equal(&bi.tip.Hash) {
		return errors.Errorf("block %s builds on %s instead of the tip %s at height %d",
			blockHash, block.Header.PrevBlockHash, bi.tip.Hash, bi.tip.Height)
	}
	chainedHeader := externalapi.NewChainedHeader(block.Header, blockHash, bi.tip)

	if bi.skipping {
		bi.tip = chainedHeader
		bi.result.skipped++
		if chainedHeader.Hash.Equal(bi.storedTip) {
			bi.skipping = false
			log.Infof("Resuming after block %s at height %d", chainedHeader.Hash, chainedHeader.Height)
		}
		return nil
	}

	delta, err := bi.engine.ValidateAndConnect(ctx, block, chainedHeader, nil)
	if err != nil {
		if ruleerrors.IsRuleError(err) {
			return errors.Wrapf(err, "block %s at height %d is invalid (%s)", chainedHeader.Hash,
				chainedHeader.Height, ruleerrors.RuleErrorName(err))
		}
		return errors.Wrapf(err, "storage failure while validating block %s at height %d",
			chainedHeader.Hash, chainedHeader.Height)
	}
	err = bi.engine.Commit(ctx, delta)
	if err != nil {
		return errors.Wrapf(err, "failed committing block %s at height %d", chainedHeader.Hash,
			chainedHeader.Height)
	}

	bi.tip = chainedHeader
	bi.result.connected++
	bi.logProgress()
	return nil
}

func (bi *blockImporter) logProgress() {
	if bi.progress <= 0 {
		return
	}
	now := time.Now()
	duration := now.Sub(bi.lastLogTime)
	if duration < bi.progress {
		return
	}

	blocks := bi.result.connected - bi.lastLogged
	blockStr := "blocks"
	if blocks == 1 {
		blockStr = "block"
	}
	log.Infof("Processed %d %s in the last %s (height %d, %s)", blocks, blockStr,
		duration.Truncate(10*time.Millisecond), bi.tip.Height, time.Unix(int64(bi.tip.Timestamp()), 0).UTC())

	bi.lastLogged = bi.result.connected
	bi.lastLogTime = now
}
