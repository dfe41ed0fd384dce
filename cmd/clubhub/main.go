// Command clubhub is a terminal notification center for the club backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/nhle/clubhub/internal/app"
	"github.com/nhle/clubhub/internal/backend"
	"github.com/nhle/clubhub/internal/credential"
	"github.com/nhle/clubhub/internal/logger"
	"github.com/nhle/clubhub/internal/metrics"
	"github.com/nhle/clubhub/internal/model"
	"github.com/nhle/clubhub/internal/notify"
	"github.com/nhle/clubhub/internal/readstate"
	appsync "github.com/nhle/clubhub/internal/sync"
	configview "github.com/nhle/clubhub/internal/ui/config"
)

const whoAmITimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the YAML config file")
	envFile := flag.String("env", ".env", "dotenv file loaded before the config, if present")
	once := flag.Bool("once", false, "print the notification list once and exit")
	flag.Parse()

	if err := run(*configPath, *envFile, *once); err != nil {
		fmt.Fprintln(os.Stderr, "clubhub:", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string, once bool) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", envFile, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A saved connection form asks for a fresh session with the new settings.
	for {
		reconnect, err := session(ctx, configPath, once)
		if err != nil || !reconnect {
			return err
		}
	}
}

// session wires one backend connection and runs the UI (or the one-shot
// printer) on top of it.
func session(ctx context.Context, configPath string, once bool) (bool, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return false, err
	}

	log, err := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return false, fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	pipeline := metrics.NewPipeline()
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, pipeline, log)
		defer srv.Shutdown(context.Background()) //nolint:errcheck
	}

	opts := app.Options{
		Config:     cfg,
		ConfigPath: configPath,
		Validate:   validator(cfg),
		Logger:     log,
	}

	token, err := credential.SessionToken()
	switch {
	case errors.Is(err, credential.ErrNotFound):
		if once {
			return false, fmt.Errorf("no session token: set %s or run clubhub to sign in", credential.SessionTokenEnv)
		}
		log.Info("no session token, starting connection setup", nil)
		return runProgram(app.New(opts), nil)
	case err != nil:
		return false, err
	}
	opts.HasToken = true

	client := backend.NewClient(cfg.Backend.BaseURL, token, backend.Options{
		Timeout:    time.Duration(cfg.Backend.TimeoutSec) * time.Second,
		MaxRetries: cfg.Backend.MaxRetries,
		OnBreakerChange: func(from, to string) {
			log.Warn("backend circuit breaker changed state", map[string]interface{}{
				"from": from,
				"to":   to,
			})
		},
	})

	whoCtx, cancel := context.WithTimeout(ctx, whoAmITimeout)
	principal, err := client.WhoAmI(whoCtx)
	cancel()
	switch {
	case backend.IsAuthError(err):
		if once {
			return false, err
		}
		log.WithError(err).Warn("stored session rejected, starting connection setup", nil)
		return runProgram(app.New(opts), nil)
	case err != nil:
		// Keep going offline; the poller reports the failure and retries.
		log.WithError(err).Warn("could not resolve principal", nil)
	}

	reads, err := readstate.Open(ctx, cfg.ReadState, readstate.ScopedKey(cfg.ReadState.Key, principal))
	if err != nil {
		return false, fmt.Errorf("opening read-state: %w", err)
	}
	defer reads.Close()

	feed := notify.NewFeed(client, reads, log, pipeline)

	if once {
		return false, printOnce(ctx, os.Stdout, feed, cfg.FetchTimeout())
	}

	poller := appsync.New(feed, appsync.Options{
		Interval:     cfg.PollInterval(),
		FetchTimeout: cfg.FetchTimeout(),
		Logger:       log,
		Metrics:      pipeline,
	})
	defer poller.Stop()

	opts.Feed = feed
	opts.Poller = poller
	opts.Principal = principal
	return runProgram(app.New(opts), log)
}

func runProgram(m app.Model, log logger.Logger) (bool, error) {
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		if log != nil {
			log.WithError(err).Error("terminal program failed", nil)
		}
		return false, err
	}
	if fm, ok := final.(app.Model); ok {
		return fm.Reconnect(), nil
	}
	return false, nil
}

// validator checks candidate connection settings with a throwaway client.
func validator(cfg *model.AppConfig) configview.Validator {
	timeout := time.Duration(cfg.Backend.TimeoutSec) * time.Second
	return func(ctx context.Context, baseURL, token string) (string, error) {
		c := backend.NewClient(baseURL, token, backend.Options{
			Timeout:    timeout,
			MaxRetries: cfg.Backend.MaxRetries,
		})
		return c.WhoAmI(ctx)
	}
}

func serveMetrics(addr string, p *metrics.Pipeline, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("serving metrics", map[string]interface{}{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped", nil)
		}
	}()
	return srv
}

// printOnce runs the pipeline a single time and writes a plain listing.
func printOnce(ctx context.Context, w io.Writer, feed *notify.Feed, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	list, err := feed.List(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%d notification(s), %d unread\n\n", len(list), notify.UnreadCount(list))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, n := range list {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			marker,
			n.CreatedAt().Format("2006-01-02 15:04"),
			strings.ToUpper(string(n.Type)),
			n.Title,
		)
		fmt.Fprintf(tw, "\t\t\t%s\n", n.Message)
	}
	return tw.Flush()
}
