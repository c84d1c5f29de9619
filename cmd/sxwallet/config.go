// Copyright (c) 2013-2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"
	"github.com/sxwallet/sxwallet/internal/cfgutil"
	"github.com/sxwallet/sxwallet/ledger"
	"github.com/sxwallet/sxwallet/netparams"
)

const (
	defaultConfigFilename = "sxwallet.conf"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "sxwallet.log"
	defaultMaxLogFiles    = 3
	defaultMaxLogFileSize = 10
)

var (
	sxwalletHomeDir   = btcutil.AppDataDir("sxwallet", false)
	defaultConfigFile = filepath.Join(sxwalletHomeDir, defaultConfigFilename)
	defaultDataDir    = sxwalletHomeDir
	defaultLogDir     = filepath.Join(sxwalletHomeDir, defaultLogDirname)
)

type config struct {
	// General application behavior
	ConfigFile     *cfgutil.ExplicitPath `short:"C" long:"configfile" description:"Path to configuration file"`
	ShowVersion    bool                  `short:"V" long:"version" description:"Display version information and exit"`
	DataDir        string                `short:"b" long:"datadir" description:"Directory to store the wallet"`
	LogDir         string                `long:"logdir" description:"Directory to log output."`
	DebugLevel     string                `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set log levels for individual subsystems -- Use show to list available subsystems"`
	MaxLogFiles    int                   `long:"maxlogfiles" description:"Maximum logfiles to keep (0 for no rotation)"`
	MaxLogFileSize int                   `long:"maxlogfilesize" description:"Maximum logfile size in MB"`
	TestNet3       bool                  `long:"testnet" description:"Use the test Bitcoin network (version 3) (default mainnet)"`
	SimNet         bool                  `long:"simnet" description:"Use the simulation test network (default mainnet)"`
	RegTest        bool                  `long:"regtest" description:"Use the regression test network (default mainnet)"`

	// Wallet options
	PayTxFee          *cfgutil.AmountFlag `long:"paytxfee" description:"The fee rate per kilobyte paid by sent transactions"`
	ConfirmFeeAbove   *cfgutil.AmountFlag `long:"confirmfeeabove" description:"Ask before sending transactions paying more than this fee (default: the network's default fee rate)"`
	UnlockStakingOnly bool                `long:"unlockstakingonly" description:"Unlock the wallet for staking only when the passphrase is entered at startup"`
	DBTimeout         time.Duration       `long:"dbtimeout" description:"The timeout value to use when opening the wallet database."`
	NoFreelistSync    bool                `long:"nofreelistsync" description:"Do not sync the database freelist to disk"`
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace":
		fallthrough
	case "debug":
		fallthrough
	case "info":
		fallthrough
	case "warn":
		fallthrough
	case "error":
		fallthrough
	case "critical":
		return true
	}
	return false
}

// supportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func supportedSubsystems() []string {
	// Convert the subsystemLoggers map keys to a slice.
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}

	// Sort the subsytems for stable display.
	sort.Strings(subsystems)
	return subsystems
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		// Validate debug log level.
		if !validLogLevel(debugLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, debugLevel)
		}

		// Change the logging level for all subsystems.
		setLogLevels(debugLevel)

		return nil
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "the specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return fmt.Errorf(str, logLevelPair)
		}

		// Extract the specified subsystem and log level.
		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		// Validate subsystem.
		if _, exists := subsystemLoggers[subsysID]; !exists {
			str := "the specified subsystem [%v] is invalid -- " +
				"supported subsytems %v"
			return fmt.Errorf(str, subsysID, supportedSubsystems())
		}

		// Validate log level.
		if !validLogLevel(logLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, logLevel)
		}

		setLogLevel(subsysID, logLevel)
	}

	return nil
}

// activeNetwork selects the network parameters of the parsed options.
// Multiple networks can't be selected simultaneously.
func (cfg *config) activeNetwork() (*netparams.Params, error) {
	activeNet := &netparams.MainNetParams
	numNets := 0
	if cfg.TestNet3 {
		activeNet = &netparams.TestNet3Params
		numNets++
	}
	if cfg.SimNet {
		activeNet = &netparams.SimNetParams
		numNets++
	}
	if cfg.RegTest {
		activeNet = &netparams.RegressionNetParams
		numNets++
	}
	if numNets > 1 {
		return nil, errors.New("the testnet, regtest and simnet params " +
			"can't be used together -- choose one")
	}

	return activeNet, nil
}

// ledgerConfig returns the ledger options of the parsed configuration.
func (cfg *config) ledgerConfig(params *netparams.Params) ledger.Config {
	return ledger.Config{
		DBDir:          filepath.Join(cfg.DataDir, params.Name),
		ChainParams:    params,
		DBTimeout:      cfg.DBTimeout,
		NoFreelistSync: cfg.NoFreelistSync,
	}
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in sxwallet functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options.  Command line options always take
// precedence.
func loadConfig(args []string) (*config, *netparams.Params, []string,
	error) {

	// Default config.
	cfg := config{
		ConfigFile:      cfgutil.NewExplicitPath(defaultConfigFile),
		DataDir:         defaultDataDir,
		LogDir:          defaultLogDir,
		DebugLevel:      defaultLogLevel,
		MaxLogFiles:     defaultMaxLogFiles,
		MaxLogFileSize:  defaultMaxLogFileSize,
		PayTxFee:        cfgutil.NewAmountFlag(0),
		ConfirmFeeAbove: cfgutil.NewAmountFlag(0),
		DBTimeout:       ledger.DefaultDBTimeout,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var e *flags.Error
		if !errors.As(err, &e) || e.Type != flags.ErrHelp {
			preParser.WriteHelp(os.Stderr)
		}
		return nil, nil, nil, err
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version())
		os.Exit(0)
	}

	// Load additional config from file.  A missing file is only an error
	// when it was named explicitly.
	var configFileError error
	parser := flags.NewParser(&cfg, flags.Default)
	configFilePath := preCfg.ConfigFile.Expand(
		filepath.Dir(sxwalletHomeDir),
	)
	err = flags.NewIniParser(parser).ParseFile(configFilePath)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) || preCfg.ConfigFile.ExplicitlySet() {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
			return nil, nil, nil, err
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		var e *flags.Error
		if !errors.As(err, &e) || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, nil, err
	}

	activeNet, err := cfg.activeNetwork()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, nil, err
	}

	homeDir := filepath.Dir(sxwalletHomeDir)
	cfg.DataDir = cfgutil.CleanAndExpandPath(cfg.DataDir, homeDir)

	// Append the network type to the log directory so it is "namespaced"
	// per network.
	cfg.LogDir = cfgutil.CleanAndExpandPath(cfg.LogDir, homeDir)
	cfg.LogDir = filepath.Join(cfg.LogDir, activeNet.Name)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Initialize log rotation.  After log rotation has been initialized,
	// the logger variables may be used.
	if cfg.MaxLogFiles > 0 {
		err = initLogRotator(
			filepath.Join(cfg.LogDir, defaultLogFilename),
			cfg.MaxLogFileSize, cfg.MaxLogFiles,
		)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, nil, err
		}
	}

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("loadConfig: %w", err)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, nil, err
	}

	// Warn about missing config file after the final command line parse
	// succeeds.  This prevents the warning on help messages and invalid
	// options.
	if configFileError != nil {
		log.Warnf("%v", configFileError)
	}

	if cfg.PayTxFee.Amount == 0 {
		cfg.PayTxFee.Amount = activeNet.DefaultPayTxFee
	}
	if cfg.ConfirmFeeAbove.Amount == 0 {
		cfg.ConfirmFeeAbove.Amount = activeNet.DefaultPayTxFee
	}

	return &cfg, activeNet, remainingArgs, nil
}
