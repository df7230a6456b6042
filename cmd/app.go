package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/coopcal/internal/calendar"
	"github.com/teemow/coopcal/internal/config"
	"github.com/teemow/coopcal/internal/google"
	"github.com/teemow/coopcal/internal/instrumentation"
	"github.com/teemow/coopcal/internal/logging"
)

// app bundles what every command needs once flags are parsed: the merged
// configuration, a logger and the instrumentation provider.
type app struct {
	cfg      *config.Config
	loc      *time.Location
	logger   *slog.Logger
	provider *instrumentation.Provider
	// prompt receives login instructions.
	prompt io.Writer
}

// loadConfig merges defaults, the YAML file, the environment (including
// .env) and finally the command-line flags.
func loadConfig(opts *rootOptions, getenv func(string) string) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	path := opts.configPath
	if path == "" {
		if p, err := config.DefaultPath(); err == nil {
			path = p
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(getenv)

	override := func(field *string, value string) {
		if value != "" {
			*field = value
		}
	}
	override(&cfg.CalendarID, opts.calendarID)
	override(&cfg.Timezone, opts.timezone)
	override(&cfg.CredentialsFile, opts.credentialsFile)
	override(&cfg.TokenFile, opts.tokenFile)
	override(&cfg.LogLevel, opts.logLevel)
	override(&cfg.LogFormat, opts.logFormat)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(opts, os.Getenv)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	return &app{
		cfg:      cfg,
		loc:      loc,
		logger:   logger,
		provider: provider,
		prompt:   cmd.ErrOrStderr(),
	}, nil
}

// close flushes telemetry. It uses a fresh context so that metrics are
// still pushed after an interrupt.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), instrumentation.DefaultShutdownTimeout)
	defer cancel()
	if err := a.provider.Shutdown(ctx); err != nil {
		a.logger.Warn("error during instrumentation shutdown", logging.Err(err))
	}
}

func (a *app) source() calendar.Source {
	return calendar.Source{CalendarID: a.cfg.CalendarID, Location: a.loc}
}

func (a *app) tokenStore() (*google.FileTokenStore, error) {
	path := a.cfg.TokenFile
	if path == "" {
		var err error
		if path, err = google.DefaultTokenPath(); err != nil {
			return nil, err
		}
	}
	return google.NewFileTokenStore(path), nil
}

func (a *app) authenticator(store google.TokenStore) (*google.Authenticator, error) {
	oauthConfig, err := google.LoadOAuthConfig(a.cfg.CredentialsFile, google.DefaultScopes)
	if err != nil {
		return nil, err
	}

	login := &google.LoopbackLogin{
		Out:         a.prompt,
		OpenBrowser: true,
		Logger:      a.logger,
	}
	return &google.Authenticator{
		Config:  oauthConfig,
		Store:   store,
		Login:   login.Login,
		Metrics: a.provider.Metrics(),
		Logger:  a.logger,
	}, nil
}

// calendarClient authenticates (logging in interactively when needed) and
// returns a Calendar API client.
func (a *app) calendarClient(ctx context.Context) (*calendar.Client, error) {
	store, err := a.tokenStore()
	if err != nil {
		return nil, err
	}
	auth, err := a.authenticator(store)
	if err != nil {
		return nil, err
	}

	ts, err := auth.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	return calendar.NewClient(ctx, google.HTTPClient(ctx, ts),
		calendar.WithMetrics(a.provider.Metrics()),
		calendar.WithLogger(a.logger),
	)
}
