package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hybridchain/hcd/domain/consensus"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/infrastructure/logger"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	defaultDataDirname            = "data"
	defaultLogLevel               = "info"
	defaultLogDirname             = "logs"
	defaultLogFilename            = "hcd.log"
	defaultErrLogFilename         = "hcd_err.log"
	defaultDBCacheSizeMiB         = 64
	defaultCoinCacheMaxSize       = 100000
	defaultCoinCacheMaxDirty      = 50000
	defaultCoinCacheFlushInterval = time.Minute
)

var (
	// DefaultHomeDir is the default home directory for hcd.
	DefaultHomeDir = defaultHomeDir()

	defaultDataDir = filepath.Join(DefaultHomeDir, defaultDataDirname)
	defaultLogDir  = filepath.Join(DefaultHomeDir, defaultLogDirname)
)

func defaultHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".hcd"
	}
	return filepath.Join(homeDir, ".hcd")
}

// Flags defines the configuration options of the consensus engine.
//
// See LoadConfig for details on the configuration load process.
type Flags struct {
	DataDir                string        `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir                 string        `long:"logdir" description:"Directory to log output."`
	NoLogFiles             bool          `long:"nologfiles" description:"Log to stdout only"`
	LogLevel               string        `short:"d" long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	AssumeValid            string        `long:"assumevalid" description:"Skip script and stake validation of the ancestors of this block (default: the network's assume-valid block)"`
	NoCheckpoints          bool          `long:"nocheckpoints" description:"Disable built-in checkpoints."`
	ScriptThreads          int           `long:"scriptthreads" description:"Number of concurrent script checks (default: one per CPU)"`
	DBCacheSizeMiB         int           `long:"dbcachesize" description:"Size of the database block cache in MiB"`
	CoinCacheMaxSize       int           `long:"coincache-maxsize" description:"Number of coin entries cached in memory, 0 disables the cache"`
	CoinCacheMaxDirty      int           `long:"coincache-maxdirty" description:"Number of modified coin entries after which the cache is flushed"`
	CoinCacheFlushInterval time.Duration `long:"coincache-flushinterval" description:"Longest time modified coin entries stay in memory. Valid time units are {s, m, h}"`
	NetworkFlags
}

// Config defines the configuration options of the consensus engine once
// they were validated.
type Config struct {
	*Flags

	// AssumeValidHash is the parsed --assumevalid flag, nil when unset.
	AssumeValidHash *externalapi.DomainHash
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

func defaultFlags() *Flags {
	return &Flags{
		DataDir:                defaultDataDir,
		LogDir:                 defaultLogDir,
		LogLevel:               defaultLogLevel,
		DBCacheSizeMiB:         defaultDBCacheSizeMiB,
		CoinCacheMaxSize:       defaultCoinCacheMaxSize,
		CoinCacheMaxDirty:      defaultCoinCacheMaxDirty,
		CoinCacheFlushInterval: defaultCoinCacheFlushInterval,
	}
}

// LoadConfig parses args on top of the default configuration, validates the
// result and returns it along with the remaining positional arguments.
// Every value in appOptions is registered as an extra option group, so
// commands can add their own flags.
//
// The data and log directories get the network name appended, so every
// network keeps its own database and logs.
func LoadConfig(args []string, appOptions ...interface{}) (*Config, []string, error) {
	cfgFlags := defaultFlags()
	parser := flags.NewParser(cfgFlags, flags.HelpFlag|flags.PassDoubleDash)
	for _, options := range appOptions {
		_, err := parser.AddGroup("Command Options", "", options)
		if err != nil {
			return nil, nil, errors.WithStack(err)
		}
	}
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); !ok || flagsErr.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, "")
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	err = cfgFlags.ResolveNetwork(parser)
	if err != nil {
		return nil, nil, err
	}

	cfg := &Config{Flags: cfgFlags}

	if cfg.LogLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}
	err = logger.ParseAndSetLogLevels(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	if cfg.ScriptThreads < 0 {
		return nil, nil, errors.Errorf("scriptthreads must not be negative, got %d", cfg.ScriptThreads)
	}
	if cfg.DBCacheSizeMiB <= 0 {
		return nil, nil, errors.Errorf("dbcachesize must be positive, got %d", cfg.DBCacheSizeMiB)
	}
	if cfg.CoinCacheMaxSize < 0 || cfg.CoinCacheMaxDirty < 0 {
		return nil, nil, errors.Errorf("coin cache sizes must not be negative")
	}
	if cfg.CoinCacheFlushInterval < 0 {
		return nil, nil, errors.Errorf("coincache-flushinterval must not be negative")
	}

	if cfg.AssumeValid != "" {
		cfg.AssumeValidHash, err = externalapi.NewDomainHashFromString(cfg.AssumeValid)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "invalid assumevalid %s", cfg.AssumeValid)
		}
	}

	netName := cfg.NetParams().Name
	cfg.DataDir = filepath.Join(cleanAndExpandPath(cfg.DataDir), netName)
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), netName)

	return cfg, remainingArgs, nil
}

// InitLog directs the log output to the log directory of cfg, or to stdout
// only when log files are disabled.
func (cfg *Config) InitLog() error {
	if cfg.NoLogFiles {
		logger.InitLogStdout(logger.LevelTrace)
		return nil
	}
	logFile := filepath.Join(cfg.LogDir, defaultLogFilename)
	errLogFile := filepath.Join(cfg.LogDir, defaultErrLogFilename)
	return logger.InitLog(logFile, errLogFile)
}

// ConsensusConfig returns the consensus engine configuration cfg describes.
func (cfg *Config) ConsensusConfig() *consensus.Config {
	consensusConfig := consensus.NewConfig(cfg.NetParams())
	consensusConfig.DisableCheckpoints = cfg.NoCheckpoints
	consensusConfig.AssumeValid = cfg.AssumeValidHash
	consensusConfig.ScriptThreads = cfg.ScriptThreads
	consensusConfig.CoinCacheSize = cfg.CoinCacheMaxSize
	consensusConfig.CoinCacheMaxDirty = cfg.CoinCacheMaxDirty
	consensusConfig.CoinCacheFlushInterval = cfg.CoinCacheFlushInterval
	return consensusConfig
}
