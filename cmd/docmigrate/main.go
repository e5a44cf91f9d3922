package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mgt2e/docmigrate/bolt"
	"github.com/mgt2e/docmigrate/kit/cli"
	"github.com/mgt2e/docmigrate/kv"
	"github.com/mgt2e/docmigrate/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// envPrefix prefixes the environment variables of every command.
const envPrefix = "docmigrate"

func main() {
	cmd, err := NewRootCommand(os.Stdout, os.Stderr)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand returns the docmigrate command with every subcommand
// attached. Command output goes to stdout, logs to stderr.
func NewRootCommand(stdout, stderr io.Writer) (*cobra.Command, error) {
	root := &cobra.Command{
		Use:          "docmigrate",
		Short:        "Schema migrations for Traveller world documents",
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	for _, build := range []func(io.Writer, io.Writer) (*cobra.Command, error){
		newMigrateCommand,
		newInfoCommand,
		newImportCommand,
		newExportCommand,
	} {
		cmd, err := build(stdout, stderr)
		if err != nil {
			return nil, err
		}
		root.AddCommand(cmd)
	}
	return root, nil
}

// storeOptions are the options shared by every command that opens the world
// store.
type storeOptions struct {
	boltPath   string
	configPath string
	logLevel   cli.LevelFlag
	logFormat  string
}

func (o *storeOptions) opts() []cli.Opt {
	dir, err := docmigrateDir()
	if err != nil {
		dir = "."
	}
	return []cli.Opt{
		{
			DestP:   &o.boltPath,
			Flag:    "bolt-path",
			Default: filepath.Join(dir, "world.bolt"),
			Desc:    "path to the boltdb world store",
		},
		{
			DestP: &o.configPath,
			Flag:  "config",
			Desc:  "path to a TOML configuration file",
		},
		{
			DestP: &o.logLevel,
			Flag:  "log-level",
			Desc:  "log level, overrides the configuration file (debug, info, warn, error)",
		},
		{
			DestP: &o.logFormat,
			Flag:  "log-format",
			Desc:  "log format, overrides the configuration file (auto, console, json, logfmt)",
		},
	}
}

// session is an open world store with its configuration and logger.
type session struct {
	config Config
	log    *zap.Logger
	store  *bolt.KVStore
	svc    *kv.Service
}

// open loads the configuration, builds the logger and opens the store.
func (o *storeOptions) open(ctx context.Context, stderr io.Writer) (*session, error) {
	config, err := LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel.IsSet {
		config.Logging.Level = o.logLevel.Level
	}
	if o.logFormat != "" {
		config.Logging.Format = o.logFormat
	}

	log, err := logger.New(stderr, config.Logging)
	if err != nil {
		return nil, err
	}

	store := bolt.NewKVStore(log.With(zap.String("service", "bolt")), o.boltPath)
	if err := store.Open(ctx); err != nil {
		return nil, err
	}

	svc := kv.NewService(log.With(zap.String("service", "kv")), store)
	if err := svc.Initialize(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	return &session{
		config: config,
		log:    log,
		store:  store,
		svc:    svc,
	}, nil
}

func (s *session) Close() error {
	_ = s.log.Sync()
	return s.store.Close()
}

func newCommand(p *cli.Program) (*cobra.Command, error) {
	p.EnvPrefix = envPrefix
	return cli.NewCommand(viper.New(), p)
}
