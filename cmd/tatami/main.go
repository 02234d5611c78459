package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/tatami/internal/api"
	"github.com/abelbrown/tatami/internal/config"
	"github.com/abelbrown/tatami/internal/feed"
	"github.com/abelbrown/tatami/internal/logging"
	"github.com/abelbrown/tatami/internal/otel"
	"github.com/abelbrown/tatami/internal/status"
	"github.com/abelbrown/tatami/internal/ui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tatami: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	configPath   string
	url          string
	token        string
	context      string
	pollInterval time.Duration
	logLevel     string
}

func parseFlags(args []string) (*flags, *pflag.FlagSet, error) {
	var f flags
	flagSet := pflag.NewFlagSet("tatami", pflag.ContinueOnError)
	flagSet.StringVar(&f.configPath, "config", "", "config file (default ~/.tatami/config.json)")
	flagSet.StringVar(&f.url, "url", "", "Tatami server URL")
	flagSet.StringVar(&f.token, "token", "", "auth token sent as x-auth-token")
	flagSet.StringVar(&f.context, "context", "", "start feed: home, mentions, company, tag:<t>, group:<id>, user:<name>")
	flagSet.DurationVar(&f.pollInterval, "poll-interval", 0, "delay between polls for new statuses (default 20s)")
	flagSet.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		return nil, flagSet, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return nil, flagSet, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return &f, flagSet, nil
}

// apply layers explicitly set flags over the loaded config.
func (f *flags) apply(cfg *config.Config, flagSet *pflag.FlagSet) {
	if flagSet.Changed("url") {
		cfg.Server.URL = f.url
	}
	if flagSet.Changed("token") {
		cfg.Server.Token = f.token
	}
	if flagSet.Changed("context") {
		cfg.Feed.StartContext = f.context
	}
	if flagSet.Changed("poll-interval") {
		cfg.SetPollInterval(f.pollInterval)
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
}

func run(args []string) error {
	f, flagSet, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	f.apply(cfg, flagSet)
	if err := cfg.Validate(); err != nil {
		return err
	}
	start, err := feed.ParseContext(cfg.Feed.StartContext)
	if err != nil {
		return fmt.Errorf("start context: %w", err)
	}

	// Data directory: ~/.tatami/
	dataDir := config.Dir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := logging.Init(dataDir, cfg.LogLevel); err != nil {
		return err
	}
	defer logging.Close()

	eventsFile, err := os.OpenFile(filepath.Join(dataDir, "tatami.events.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	events := otel.NewLogger(eventsFile)
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)
	defer func() {
		events.Close()
		eventsFile.Close()
	}()
	events.Info(otel.KindStartup, "main", "tatami starting")
	logging.Info("starting", "server", cfg.Server.URL, "context", start, "session", events.SessionID())

	client, err := api.New(api.Options{
		BaseURL:           cfg.Server.URL,
		Token:             cfg.Server.Token,
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		Timeout:           cfg.RequestTimeout(),
	})
	if err != nil {
		return err
	}
	svc := client.Services()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Profile and first page load concurrently; either failing aborts.
	var (
		profile status.Profile
		first   []status.Status
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := client.Profile(gctx)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		items, err := firstPage(gctx, svc, start, cfg.Feed.PageSize, cfg.RequestTimeout())
		if err != nil {
			return err
		}
		first = items
		return nil
	})
	if err := g.Wait(); err != nil {
		events.Error(otel.KindError, "main", err)
		if api.IsUnauthorized(err) {
			return fmt.Errorf("%w (check the token)", err)
		}
		return err
	}

	feedCfg := feed.Config{
		PollInterval:   cfg.PollInterval(),
		RequestTimeout: cfg.RequestTimeout(),
		PageSize:       cfg.Feed.PageSize,
	}
	newFeed := func(fc feed.Context, items []status.Status) (*feed.Controller, error) {
		return feed.New(ctx, fc, items, svc, feedCfg, events)
	}
	controller, err := newFeed(start, first)
	if err != nil {
		return err
	}

	app := ui.NewApp(ui.Options{
		Load: func(fc feed.Context) ([]status.Status, error) {
			return loadPage(ctx, svc, fc, cfg.Feed.PageSize, cfg.RequestTimeout())
		},
		NewFeed:   newFeed,
		Profile:   profile,
		Ring:      ring,
		Events:    events,
		Theme:     cfg.UI.Theme,
		TimeBands: cfg.UI.TimeBands,
	}, controller)

	program := tea.NewProgram(app, tea.WithAltScreen())
	_, err = program.Run()

	// Stops polling and any request still in flight.
	cancel()
	events.Info(otel.KindShutdown, "main", "tatami exiting")
	logging.Info("exiting")
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `tatami: terminal client for a Tatami timeline.

Settings come from ~/.tatami/config.json (comments allowed), then
TATAMI_URL, TATAMI_TOKEN, TATAMI_CONTEXT and TATAMI_LOG_LEVEL, then flags.

Usage:
  tatami [flags]

Examples:
  tatami --url https://tatami.example.com --token $TOKEN
  tatami --context tag:golang --poll-interval 10s

Flags:
`)
	flagSet.PrintDefaults()
}
