package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"bankledger/internal/config"
	"bankledger/internal/datasource"
	"bankledger/internal/datasource/file"
	"bankledger/internal/datasource/remote"
	"bankledger/internal/ingest"
	"bankledger/internal/ledger"
	"bankledger/internal/metrics"
	"bankledger/internal/metrics/datadog"
	"bankledger/internal/metrics/prompush"
	"bankledger/internal/store"
	"bankledger/internal/webui"
)

// main is the entry point for the bankledger binary. It loads the config,
// optionally initializes a metrics backend, and dispatches to one of the
// commands: import, list, summary, or serve.
func main() {
	var (
		cfgPath           string
		importPath        string
		metricsBackendFlg string
		pushGatewayURLFlg string
		statsdAddrFlg     string
		validate          bool
		list              bool
		summary           bool
		serve             bool
	)

	flag.StringVar(&cfgPath, "config", "configs/ledger.json", "config JSON path")
	flag.StringVar(&importPath, "import", "", "import a CSV statement (local path or http(s) URL) and exit")
	flag.BoolVar(&list, "list", false, "print the persisted ledger and exit")
	flag.BoolVar(&summary, "summary", false, "print credit/debit totals and exit")
	flag.BoolVar(&serve, "serve", false, "start the HTTP server")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (prometheus, datadog, none); overrides config")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&statsdAddrFlg, "statsd-addr", "", "DogStatsD address (overrides env STATSD_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	// Validate config.
	issues := config.ValidateConfig(cfg)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Error().Str("config", cfgPath).Msg("configuration is invalid")
		os.Exit(1)
	}

	// If validate flag is set, only validate the configuration and exit.
	if validate {
		log.Info().Str("config", cfgPath).Msg("configuration is valid")
		os.Exit(0)
	}

	setupMetrics(cfg, metricsBackendFlg, pushGatewayURLFlg, statsdAddrFlg, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Debug().Err(err).Msg("metrics flush")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobStore, err := store.OpenBlob(ctx, store.BlobConfig{
		Kind:     cfg.Store.Kind,
		Path:     cfg.Store.Path,
		DSN:      cfg.Store.DSN,
		MaxBytes: cfg.Store.MaxBytes,
	})
	if err != nil {
		fatalf("open store backend: %v", err)
	}

	st, err := store.Open(ctx, blobStore)
	if err != nil {
		fatalf("open store: %v", err)
	}
	defer st.Close()

	imp := ingest.New(st, ingest.Options{
		ChunkSize:     cfg.Ingest.Int("chunk_size", ingest.DefaultChunkSize),
		FlushTrailing: cfg.Ingest.Bool("flush_trailing", false),
		Job:           cfg.Job,
	})

	switch {
	case importPath != "":
		if err := runImport(ctx, imp, importPath); err != nil {
			log.Fatal().Err(err).Msg("import failed")
		}
	case list:
		renderLedger(st.Snapshot())
	case summary:
		renderSummary(ledger.Summarize(st.Snapshot()))
	case serve:
		if err := runServe(ctx, cfg, st, imp); err != nil {
			log.Fatal().Err(err).Msg("server failed")
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// setupMetrics decides the metrics backend: flag → config → env → nop.
func setupMetrics(cfg config.Config, backendFlg, gwFlg, statsdFlg string, verbose bool) {
	backendName := backendFlg
	if backendName == "" {
		backendName = cfg.Metrics.Backend
	}
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}

	jobName := cfg.Job
	if jobName == "" {
		jobName = "bankledger"
	}

	switch backendName {
	case "prometheus", "pushgateway":
		gwURL := gwFlg
		if gwURL == "" {
			gwURL = cfg.Metrics.PushgatewayURL
		}
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		b, err := prompush.NewBackend(jobName, gwURL)
		if err != nil {
			log.Warn().Err(err).Msg("metrics: failed to init prom push backend; using nop")
			return
		}
		log.Info().Str("url", gwURL).Str("backend", backendName).Str("job", jobName).Msg("metrics enabled")
		metrics.SetBackend(b)

	case "datadog":
		addr := statsdFlg
		if addr == "" {
			addr = cfg.Metrics.StatsdAddr
		}
		if addr == "" {
			addr = os.Getenv("STATSD_ADDR")
		}

		b, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "bankledger.",
			GlobalTags: []string{"job:" + jobName},
		})
		if err != nil {
			log.Warn().Err(err).Msg("metrics: failed to init datadog backend; using nop")
			return
		}
		log.Info().Str("addr", addr).Str("backend", backendName).Str("job", jobName).Msg("metrics enabled")
		metrics.SetBackend(b)

	case "", "none":
		// metrics disabled; nop backend remains
		if verbose {
			log.Debug().Str("backend", backendName).Msg("metrics disabled")
		}

	default:
		log.Warn().Str("backend", backendName).Msg("metrics: unknown backend; metrics disabled")
	}
}

// runImport streams one CSV statement into the store, logging progress as it
// goes. The statement may be a local file or an http(s) URL; local files are
// gated on the .csv extension, remote statements on the declared Content-Type.
func runImport(ctx context.Context, imp *ingest.Importer, path string) error {
	var src datasource.Source
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		src = remote.New(path, remote.Config{})
	} else {
		if !strings.EqualFold(filepath.Ext(path), ".csv") {
			return ingest.ErrUnsupportedFormat
		}
		src = file.NewLocal(path)
	}

	start := time.Now()
	for e := range imp.Run(ctx, src) {
		switch {
		case e.Err != nil:
			return e.Err
		case e.Terminal():
			for _, sample := range e.RejectSamples {
				log.Warn().Str("reason", sample).Msg("row rejected")
			}
			log.Info().
				Str("file", path).
				Int("imported", len(e.Transactions)).
				Int("rejected", e.Rejected).
				Dur("elapsed", time.Since(start).Truncate(time.Millisecond)).
				Msg("import finished")
		default:
			log.Debug().Int("progress", e.Progress).Msg("importing")
		}
	}
	return nil
}

// renderLedger prints the persisted transactions as a table.
func renderLedger(txs []ledger.Transaction) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Date", "Description", "Amount", "Type", "Account"})
	for _, tx := range txs {
		t.AppendRow(table.Row{tx.ID, tx.Date, tx.Description, fmt.Sprintf("%.2f", tx.Amount), tx.Type, tx.AccountNumber})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", fmt.Sprintf("%d rows", len(txs))})
	t.Render()
}

// renderSummary prints credit/debit totals and the balance.
func renderSummary(sum ledger.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Transactions", "Credits", "Debits", "Balance"})
	t.AppendRow(table.Row{
		sum.TotalTransactions,
		fmt.Sprintf("%.2f", sum.TotalCredits),
		fmt.Sprintf("%.2f", sum.TotalDebits),
		fmt.Sprintf("%.2f", sum.Balance),
	})
	t.Render()
}

// runServe starts the HTTP server and shuts it down cleanly on SIGINT/SIGTERM.
func runServe(ctx context.Context, cfg config.Config, st *store.Store, imp *ingest.Importer) error {
	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}

	srv := webui.NewServer(webui.Config{Addr: addr}, st, imp)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
