package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/xeptore/beatportdl/beatport"
	"github.com/xeptore/beatportdl/beatport/auth"
	"github.com/xeptore/beatportdl/beatport/types"
	"github.com/xeptore/beatportdl/config"
)

// withClient runs fn with a bootstrapped Beatport client and closes the
// session store afterwards.
func withClient(
	ctx context.Context,
	logger zerolog.Logger,
	conf *config.Config,
	opts beatport.Options,
	fn func(c *beatport.Client) error,
) (err error) {
	store, closeStore, err := openStore(conf.Session)
	if nil != err {
		return err
	}
	defer func() {
		if closeErr := closeStore(); nil != closeErr {
			logger.Error().Err(closeErr).Msg("Failed to close session store")
			err = errors.Join(err, fmt.Errorf("close session store: %v", closeErr))
		}
	}()

	c, err := beatport.New(ctx, logger, store, opts)
	if nil != err {
		return exitCode(logger, fmt.Errorf("create beatport client: %w", err))
	}
	logger.Debug().Bool("anonymous", c.Session().IsAnonymous()).Msg("Beatport client created")

	if err := fn(c); nil != err {
		return exitCode(logger, err)
	}

	return nil
}

func login(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, conf, err := setup(cmd)
	if nil != err {
		return err
	}

	creds := auth.Credentials{
		Username: conf.Beatport.Username,
		Password: conf.Beatport.Password,
	}
	if creds.Blank() {
		if err := promptCredentials(&creds); nil != err {
			if errors.Is(err, syscall.ENOTTY) {
				logger.Error().Msg("No TTY detected. Please set beatport.username and BEATPORT_PASSWORD, or run the container with `--tty`.")
				return exitCodeError(1)
			}

			return fmt.Errorf("prompt credentials: %w", err)
		}
	}

	store, closeStore, err := openStore(conf.Session)
	if nil != err {
		return err
	}
	// Dropping the old session forces a credential login on bootstrap.
	if err := store.Delete(ctx); nil != err {
		_ = closeStore()
		return fmt.Errorf("delete session: %w", err)
	}
	if err := closeStore(); nil != err {
		return fmt.Errorf("close session store: %v", err)
	}

	opts := beatport.OptionsFromConfig(conf.Beatport)
	opts.Credentials = creds
	opts.Anonymous = false

	return withClient(ctx, logger, conf, opts, func(*beatport.Client) error {
		logger.Info().Str("username", creds.Username).Msg("Logged in to Beatport")
		return nil
	})
}

func promptCredentials(creds *auth.Credentials) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return syscall.ENOTTY
	}

	stdio := survey.WithStdio(os.Stdin, os.Stdout, os.Stdout)

	if strings.TrimSpace(creds.Username) == "" {
		prompt := &survey.Input{ //nolint:exhaustruct
			Message: "Beatport username:",
		}
		if err := survey.AskOne(prompt, &creds.Username, survey.WithValidator(survey.Required), stdio); nil != err {
			return fmt.Errorf("failed to ask for username: %v", err)
		}
	}

	if strings.TrimSpace(creds.Password) == "" {
		prompt := &survey.Password{ //nolint:exhaustruct
			Message: "Beatport password:",
		}
		askOpts := []survey.AskOpt{
			survey.WithValidator(survey.Required),
			survey.WithHideCharacter('*'),
			stdio,
			survey.WithShowCursor(true),
		}
		if err := survey.AskOne(prompt, &creds.Password, askOpts...); nil != err {
			return fmt.Errorf("failed to ask for password: %v", err)
		}
	}

	return nil
}

func search(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, conf, err := setup(cmd)
	if nil != err {
		return err
	}

	query := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("search query is required")
	}

	kind, ok := types.ParseLinkKind(cmd.String("kind"))
	if !ok {
		return fmt.Errorf("invalid search kind: %s", cmd.String("kind"))
	}

	return withClient(ctx, logger, conf, beatport.OptionsFromConfig(conf.Beatport), func(c *beatport.Client) error {
		results, err := c.Search(ctx, logger, kind, query, int(cmd.Int("limit")))
		if nil != err {
			return fmt.Errorf("search %s: %w", kind, err)
		}

		printSearchResults(results)

		return nil
	})
}

func printSearchResults(results []types.SearchResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "ID", "Name", "Artists", "Year", "Duration", "Additional"})

	for i, r := range results {
		var year, duration string
		if r.Year != 0 {
			year = fmt.Sprint(r.Year)
		}
		if r.Duration != 0 {
			duration = (time.Duration(r.Duration) * time.Second).String()
		}

		t.AppendRow(table.Row{
			i + 1,
			r.ID,
			r.Name,
			strings.Join(r.Artists, ", "),
			year,
			duration,
			strings.Join(r.Additional, ", "),
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

func info(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, conf, err := setup(cmd)
	if nil != err {
		return err
	}

	link, err := beatport.ParseLink(cmd.Args().First())
	if nil != err {
		return err
	}

	quality, err := types.ParseQuality(conf.Download.Quality)
	if nil != err {
		return err
	}

	return withClient(ctx, logger, conf, beatport.OptionsFromConfig(conf.Beatport), func(c *beatport.Client) error {
		var v any
		switch link.Kind {
		case types.LinkKindTrack:
			v, err = c.TrackInfo(ctx, logger, link.ID, quality)
		case types.LinkKindAlbum:
			v, err = c.AlbumInfo(ctx, logger, link.ID)
		case types.LinkKindPlaylist:
			v, err = c.PlaylistInfo(ctx, logger, link.ID, link.IsChart)
		case types.LinkKindArtist:
			v, err = c.ArtistInfo(ctx, logger, link.ID)
		case types.LinkKindLabel:
			v, err = c.LabelInfo(ctx, logger, link.ID)
		default:
			panic("unexpected link kind: " + link.Kind.String())
		}
		if nil != err {
			return fmt.Errorf("get %s info: %w", link.Kind, err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); nil != err {
			return fmt.Errorf("encode %s info: %v", link.Kind, err)
		}

		return nil
	})
}

func cover(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, conf, err := setup(cmd)
	if nil != err {
		return err
	}

	link, err := beatport.ParseLink(cmd.Args().First())
	if nil != err {
		return err
	}

	if link.Kind != types.LinkKindTrack {
		return fmt.Errorf("cover is only supported for track links, got: %s", link.Kind)
	}

	return withClient(ctx, logger, conf, beatport.OptionsFromConfig(conf.Beatport), func(c *beatport.Client) error {
		d, err := newDownloads(conf, c)
		if nil != err {
			return err
		}

		info, err := c.TrackCover(ctx, logger, link.ID, int(cmd.Int("size")))
		if nil != err {
			return fmt.Errorf("get track cover: %w", err)
		}

		path, err := d.dl.Cover(ctx, logger, info, d.dir.Single(link.ID).Cover)
		if nil != err {
			return err
		}
		logger.Info().Str("path", path).Msg("Cover downloaded")

		return nil
	})
}

func download(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, conf, err := setup(cmd)
	if nil != err {
		return err
	}

	if q := cmd.String("quality"); q != "" {
		conf.Download.Quality = q
	}

	quality, err := types.ParseQuality(conf.Download.Quality)
	if nil != err {
		return err
	}

	links := make([]types.Link, 0, cmd.Args().Len())
	for _, arg := range cmd.Args().Slice() {
		link, err := beatport.ParseLink(arg)
		if nil != err {
			return fmt.Errorf("%w: %s", err, arg)
		}
		links = append(links, link)
	}
	if len(links) == 0 {
		return errors.New("at least one link is required")
	}

	return withClient(ctx, logger, conf, beatport.OptionsFromConfig(conf.Beatport), func(c *beatport.Client) error {
		d, err := newDownloads(conf, c)
		if nil != err {
			return err
		}

		for _, link := range links {
			logger := logger.With().Str("link_kind", link.Kind.String()).Str("link_id", link.ID).Logger()
			if err := d.link(ctx, logger, link, quality); nil != err {
				return fmt.Errorf("download %s %s: %w", link.Kind, link.ID, err)
			}
		}

		return nil
	})
}
