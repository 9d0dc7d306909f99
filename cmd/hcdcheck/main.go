package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hybridchain/hcd/domain/consensus"
	"github.com/hybridchain/hcd/infrastructure/config"
	"github.com/hybridchain/hcd/infrastructure/db/database/ldb"
	"github.com/hybridchain/hcd/infrastructure/logger"
	"github.com/hybridchain/hcd/infrastructure/os/execenv"
	"github.com/hybridchain/hcd/infrastructure/os/signal"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultProgress = 10 * time.Second

// checkOptions are the options specific to hcdcheck.
type checkOptions struct {
	InFile        string        `short:"i" long:"infile" description:"File containing hex encoded blocks, one per line"`
	VerifyCoins   bool          `long:"verifycoins" description:"Rescan the coin store and check it against its commitment after the import, if any"`
	Progress      time.Duration `short:"p" long:"progress" description:"Interval between progress messages -- Use 0 to disable progress announcements"`
	MetricsListen string        `long:"metricslisten" description:"Serve prometheus metrics on this address (eg. localhost:9090)"`
}

func main() {
	execenv.Initialize()

	err := run(os.Args[1:])
	logger.BackendLog.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	options := &checkOptions{Progress: defaultProgress}
	cfg, _, err := config.LoadConfig(args, options)
	if err != nil {
		return err
	}
	err = cfg.InitLog()
	if err != nil {
		return err
	}

	ctx, cancel := signal.ContextWithInterrupt(context.Background())
	defer cancel()

	if options.MetricsListen != "" {
		server := serveMetrics(options.MetricsListen)
		defer server.Close()
	}

	if options.InFile == "" && !options.VerifyCoins {
		return errors.New("nothing to do: specify --infile, --verifycoins or both")
	}

	db, err := ldb.NewLevelDB(filepath.Join(cfg.DataDir, "coins"), cfg.DBCacheSizeMiB)
	if err != nil {
		return err
	}
	defer func() {
		err := db.Close()
		if err != nil {
			log.Errorf("Error closing the database: %s", err)
		}
	}()

	engine, err := consensus.NewFactory().NewConsensus(ctx, cfg.ConsensusConfig(), db)
	if err != nil {
		return err
	}

	if options.InFile != "" {
		err = importBlocks(ctx, engine, options)
		if err != nil {
			return err
		}
	}
	if options.VerifyCoins {
		_, err = engine.VerifyCoinStore(ctx)
		if err != nil {
			return errors.Wrap(err, "coin store verification failed")
		}
	}
	return nil
}

func importBlocks(ctx context.Context, engine *consensus.Engine, options *checkOptions) error {
	blockFile, err := os.Open(options.InFile)
	if err != nil {
		return errors.WithStack(err)
	}
	defer blockFile.Close()

	importer, err := newBlockImporter(ctx, engine, options.Progress)
	if err != nil {
		return err
	}
	log.Infof("Checking blocks of %s from %s", engine.Params().Name, options.InFile)
	result, importErr := importer.Import(ctx, blockFile)

	// Connected blocks are flushed even when the import failed part way.
	err = engine.Flush(context.Background())
	if err != nil {
		return errors.Wrap(err, "failed flushing the coin store")
	}

	log.Infof("Skipped %d already connected blocks and connected %d new ones", result.skipped, result.connected)
	if importErr != nil {
		log.Errorf("%s", importErr)
		return importErr
	}
	log.Infof("The chain is valid up to block %s at height %d", result.tip.Hash, result.tip.Height)
	return nil
}

func serveMetrics(address string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server stopped: %s", err)
		}
	}()
	log.Infof("Prometheus metrics available at http://%s/metrics", address)
	return server
}
