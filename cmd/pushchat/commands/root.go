package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pushchat/internal/app"
	"pushchat/internal/config"
	"pushchat/internal/secrets"
	"pushchat/internal/store"
)

// logEnv names the environment variable consulted when --log-level is unset.
const logEnv = "PUSHCHAT_LOG"

var (
	home            string
	configPath      string
	relayURL        string
	logLevel        string
	passphrase      string
	passphraseParam string

	appCfg  app.Config
	appWire *app.Wire
)

// Execute runs the CLI with ctx as the base context of every command.
func Execute(ctx context.Context) error {
	root := &cobra.Command{
		Use:           "pushchat",
		Short:         "Interactive push-notification messaging client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogging(); err != nil {
				return err
			}
			cfg, err := buildConfig(cmd.Context())
			if err != nil {
				return err
			}
			w, err := app.NewWire(cfg)
			if err != nil {
				return err
			}
			appCfg, appWire = cfg, w
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "state dir (default ~/.pushchat)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <home>/"+config.Filename+")")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default $"+logEnv+" or debug)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase sealing the session state")
	root.PersistentFlags().StringVar(&passphraseParam, "passphrase-param", "", "SSM parameter holding the state passphrase")

	root.AddCommand(runCmd(), fingerprintCmd(), rotateCmd())

	err := root.ExecuteContext(ctx)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Execute",
			"error":    err,
		}).Error("pushchat failed")
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func setupLogging() error {
	level := logLevel
	if level == "" {
		level = os.Getenv(logEnv)
	}
	if level == "" {
		level = "debug"
	}
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return err
	}
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(lvl)
	return nil
}

func buildConfig(ctx context.Context) (app.Config, error) {
	if home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return app.Config{}, err
		}
		home = filepath.Join(dir, ".pushchat")
	}
	if err := os.MkdirAll(home, 0o700); err != nil {
		return app.Config{}, err
	}

	var (
		settings config.Config
		err      error
	)
	if configPath != "" {
		settings, err = config.Load(configPath)
	} else {
		settings, err = config.LoadOptional(filepath.Join(home, config.Filename))
	}
	if err != nil {
		return app.Config{}, err
	}
	if relayURL != "" {
		settings.RelayURL = relayURL
	}
	if passphraseParam != "" {
		settings.PassphraseParam = passphraseParam
	}

	cfg := app.Config{
		Home:       home,
		RelayURL:   settings.RelayURL,
		Passphrase: passphrase,
		Settings:   settings,
	}

	var awsCfg *aws.Config
	loadAWS := func() (aws.Config, error) {
		if awsCfg == nil {
			c, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return aws.Config{}, fmt.Errorf("load aws config: %w", err)
			}
			awsCfg = &c
		}
		return *awsCfg, nil
	}

	if cfg.Passphrase == "" && settings.PassphraseParam != "" {
		c, err := loadAWS()
		if err != nil {
			return app.Config{}, err
		}
		ps, err := secrets.New(ssm.NewFromConfig(c))
		if err != nil {
			return app.Config{}, err
		}
		if cfg.Passphrase, err = ps.GetParameter(ctx, settings.PassphraseParam); err != nil {
			return app.Config{}, err
		}
	}

	if settings.StateBackend == config.BackendDynamoDB {
		c, err := loadAWS()
		if err != nil {
			return app.Config{}, err
		}
		sink, err := store.NewDynamoStateStore(dynamodb.NewFromConfig(c), settings.StateTable, settings.StateProfile, cfg.Passphrase)
		if err != nil {
			return app.Config{}, err
		}
		cfg.Sink = sink
	}
	return cfg, nil
}

// errNoSession is returned by commands that need a saved session.
var errNoSession = errors.New("no saved session; run `pushchat run` first")
