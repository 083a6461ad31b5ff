package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fileflow/fileflow/internal/auth"
	"github.com/fileflow/fileflow/internal/config"
	"github.com/fileflow/fileflow/internal/logging"
	"github.com/fileflow/fileflow/internal/metrics"
	"github.com/fileflow/fileflow/internal/navigator"
	"github.com/fileflow/fileflow/internal/prefs"
	"github.com/fileflow/fileflow/pkg/client"
	"github.com/fileflow/fileflow/pkg/retry"
)

// app carries what every command needs. It is populated by setup before
// any command runs.
type app struct {
	in  io.Reader
	out io.Writer

	// flags
	output  string
	apiURL  string
	verbose bool
	all     bool

	cfg       *config.Config
	log       *zap.Logger
	client    *client.Client
	store     *navigator.Store
	prefs     prefs.Prefs
	prefsPath string
	metrics   *http.Server
}

// run executes the CLI with args and releases everything setup acquired.
func run(ctx context.Context, in io.Reader, out io.Writer, args []string) error {
	a := &app{in: in, out: out}
	root := a.rootCmd()
	root.SetArgs(args)
	defer a.teardown()
	return root.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fileflow",
		Short:         "FileFlow drive client",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.SetOut(a.out)
	root.SetIn(a.in)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.output, "output", "o", "table", "Output format: table, json or yaml")
	pf.StringVar(&a.apiURL, "api-url", "", "API base URL (overrides FILEFLOW_API_URL)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		a.lsCmd(),
		a.cdPathCmd(),
		a.mkdirCmd(),
		a.renameCmd(),
		a.mvCmd(),
		a.rmCmd(),
		a.restoreCmd(),
		a.restoreAllCmd(),
		a.emptyTrashCmd(),
		a.starCmd(),
		a.unstarCmd(),
		a.listingCmd("starred", "List starred items", (*client.Client).Starred),
		a.listingCmd("recent", "List recently modified items", (*client.Client).Recent),
		a.listingCmd("trash", "List items in the trash", (*client.Client).Trash),
		a.usageCmd(),
		a.statusCmd(),
		a.downloadCmd(),
		a.uploadCmd(),
		a.viewCmd(),
		a.loginCmd(),
		a.logoutCmd(),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	switch a.output {
	case outputTable, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", a.output)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	a.cfg = cfg

	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	a.log = logging.Named("cli")

	a.client = client.New(client.Config{
		BaseURL:     cfg.APIURL,
		Timeout:     cfg.Timeout,
		RetryConfig: retry.WithRetries(cfg.MaxRetries, cfg.RetryDelay),
		TokenSource: a.tokenSource(ctx),
		Logger:      logging.Named("client"),
	})
	a.store = navigator.New(a.client, navigator.WithLogger(logging.Named("navigator")))

	a.prefsPath = prefs.DefaultPath()
	a.prefs, err = prefs.Load(a.prefsPath)
	if err != nil {
		a.log.Warn("ignoring unreadable preferences", logging.Err(err))
	}

	if cfg.MetricsAddr != "" {
		if err := a.serveMetrics(cfg.MetricsAddr); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) teardown() {
	if a.store != nil {
		a.store.Close()
	}
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		a.metrics.Shutdown(ctx)
		a.metrics = nil
	}
	_ = logging.Sync()
}

// tokenSource resolves credentials in order: FILEFLOW_TOKEN, the token
// saved by login, then the client credentials flow when configured.
func (a *app) tokenSource(ctx context.Context) client.TokenSource {
	var sources []client.TokenSource
	if a.cfg.Token != "" {
		sources = append(sources, auth.Static(a.cfg.Token))
	}
	sources = append(sources, &auth.FileSource{Path: auth.DefaultTokenPath(), Logger: a.log})

	if a.cfg.HasClientCredentials() {
		oc := auth.OIDCConfig{
			Domain:       a.cfg.AuthDomain,
			ClientID:     a.cfg.AuthClientID,
			ClientSecret: a.cfg.AuthClientSecret,
			Audience:     a.cfg.AuthAudience,
			Scopes:       a.cfg.Scopes(),
		}
		sources = append(sources, auth.Lazy(func(context.Context) (client.TokenSource, error) {
			return auth.NewOIDCSource(ctx, oc)
		}))
	}
	return auth.Chain(sources...)
}

func (a *app) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	a.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.log.Info("metrics server listening", zap.String("addr", ln.Addr().String()))
		if err := a.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server error", logging.Err(err))
		}
	}()
	return nil
}

func (a *app) savePrefs() {
	if err := prefs.Save(a.prefsPath, a.prefs); err != nil {
		a.log.Warn("failed to save preferences", logging.Err(err))
	}
}

// navError prefers the store's user-facing message for a failed navigation.
func (a *app) navError(err error) error {
	if msg := a.store.Snapshot().LastError; msg != "" {
		return &displayError{msg: msg, err: err}
	}
	return err
}

// displayError carries text meant for the user alongside the cause.
type displayError struct {
	msg string
	err error
}

func (e *displayError) Error() string { return e.msg }
func (e *displayError) Unwrap() error { return e.err }

// errorText renders err for the terminal.
func errorText(err error) string {
	var de *displayError
	if errors.As(err, &de) {
		return de.msg
	}
	if _, ok := client.AsAPIError(err); ok {
		return client.UserMessage(err)
	}
	return err.Error()
}
