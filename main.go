package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/xeptore/beatportdl/beatport/apierr"
	"github.com/xeptore/beatportdl/beatport/session"
	"github.com/xeptore/beatportdl/config"
	"github.com/xeptore/beatportdl/constant"
	"github.com/xeptore/beatportdl/log"
)

func main() {
	logger := log.NewDefault()

	//nolint:exhaustruct
	app := &cli.Command{
		Name:    "beatportdl",
		Version: constant.Version,
		Metadata: map[string]any{
			"compiled_at": constant.CompileTime,
		},
		Suggest:                    true,
		Usage:                      "Beatport catalog browser and downloader",
		EnableShellCompletion:      true,
		ShellCompletionCommandName: "shell-completion",
		AllowExtFlags:              false,
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:     "config",
				Usage:    "Config file path",
				Required: false,
			},
		},
		Commands: []*cli.Command{
			//nolint:exhaustruct
			{
				Name:   "login",
				Usage:  "Login to Beatport with username and password",
				Action: login,
			},
			//nolint:exhaustruct
			{
				Name:   "logout",
				Usage:  "Forget the stored Beatport session",
				Action: logout,
			},
			//nolint:exhaustruct
			{
				Name:      "search",
				Usage:     "Search the Beatport catalog",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					//nolint:exhaustruct
					&cli.StringFlag{
						Name:  "kind",
						Usage: "One of track, album, playlist, artist, label",
						Value: "track",
					},
					//nolint:exhaustruct
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 20,
					},
				},
				Action: search,
			},
			//nolint:exhaustruct
			{
				Name:      "info",
				Usage:     "Print metadata of a Beatport link as JSON",
				ArgsUsage: "<link>",
				Action:    info,
			},
			//nolint:exhaustruct
			{
				Name:      "download",
				Usage:     "Download tracks of one or more Beatport links",
				ArgsUsage: "<link>...",
				Flags: []cli.Flag{
					//nolint:exhaustruct
					&cli.StringFlag{
						Name:  "quality",
						Usage: "Override the configured download quality",
					},
				},
				Action: download,
			},
			//nolint:exhaustruct
			{
				Name:      "cover",
				Usage:     "Download the artwork of a Beatport track link",
				ArgsUsage: "<link>",
				Flags: []cli.Flag{
					//nolint:exhaustruct
					&cli.IntFlag{
						Name:  "size",
						Usage: "Artwork edge length in pixels, at most 1400",
						Value: 1400,
					},
				},
				Action: cover,
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); nil != err {
		if errors.Is(err, context.Canceled) {
			logger.Trace().Msg("Application was canceled")
			os.Exit(1)
		}

		var exitCode exitCodeError
		if errors.As(err, &exitCode) {
			os.Exit(int(exitCode))
		}

		logger.Error().Err(err).Msg("Application exited with error")
		os.Exit(10)
	}
}

type exitCodeError int

func (e exitCodeError) Error() string {
	return "error with exit code: " + strconv.Itoa(int(e))
}

func setup(cmd *cli.Command) (zerolog.Logger, *config.Config, error) {
	logger := log.NewDefault()

	if err := godotenv.Load(); nil != err {
		if !errors.Is(err, os.ErrNotExist) {
			return logger, nil, fmt.Errorf("load .env file: %v", err)
		}
		logger.Debug().Msg(".env file was not found")
	} else {
		logger.Debug().Msg(".env file was loaded")
	}

	conf, err := config.Load(cmd.String("config"))
	if nil != err {
		return logger, nil, fmt.Errorf("load config: %v", err)
	}

	logger = log.FromConfig(conf.Log)

	logger.Debug().Dict("config", conf.ToDict()).Msg("Config loaded")

	return logger, conf, nil
}

func openStore(conf config.Session) (session.Store, func() error, error) {
	switch conf.Backend {
	case "file":
		return session.FileStore(conf.Path), func() error { return nil }, nil
	case "bolt":
		store, err := session.NewBoltStore(conf.Path)
		if nil != err {
			return nil, nil, fmt.Errorf("open session database: %v", err)
		}

		return store, store.Close, nil
	default:
		panic("invalid session backend: " + conf.Backend)
	}
}

// exitCode maps errors the user can act on to a distinct exit code.
func exitCode(logger zerolog.Logger, err error) error {
	switch apierr.KindOf(err) {
	case apierr.KindConfiguration:
		logger.Error().Err(err).Msg("Beatport is not configured properly. Please check your credentials.")
		return exitCodeError(2)
	case apierr.KindSubscriptionRequired:
		logger.Error().Err(err).Msg("Beatport account does not have an active subscription.")
		return exitCodeError(3)
	case apierr.KindUnauthorized:
		logger.Error().Err(err).Msg("Beatport session is not authorized. Please login again.")
		return exitCodeError(4)
	default:
		return err
	}
}

func logout(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, conf, err := setup(cmd)
	if nil != err {
		return err
	}

	store, closeStore, err := openStore(conf.Session)
	if nil != err {
		return err
	}
	defer func() {
		if err := closeStore(); nil != err {
			logger.Error().Err(err).Msg("Failed to close session store")
		}
	}()

	if err := store.Delete(ctx); nil != err {
		return fmt.Errorf("delete session: %w", err)
	}
	logger.Info().Msg("Beatport session removed")

	return nil
}
