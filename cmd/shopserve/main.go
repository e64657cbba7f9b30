// Copyright 2025 The ShopServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main runs the shopserve product discovery backend.

ShopServe answers the questions a storefront asks while a shopper browses:
what to suggest for a typed prefix, which products match a set of facets,
which facet values are available in a category, what the cart costs, and
what was searched recently. It runs as a MessagePack IPC server, an HTTP
API, or an interactive CLI for trying searches by hand.

# Usage

Start the IPC server against a JSON catalog:

	shopserve --catalog products.json

Serve the HTTP API from a SQLite catalog with debug logging:

	shopserve --db catalog.db --http :8080 -d

Import a catalog file into SQLite and exit:

	shopserve --catalog products.json --db catalog.db --import

Try suggestions and searches interactively:

	shopserve --catalog products.json -c

Catalog files are JSON arrays of products or msgpack snapshots written by
catalog.SaveSnapshot; the format is picked from the file extension.

# Configuration

Runtime configuration lives in a TOML file under the user config dir
($XDG_CONFIG_HOME/shopserve/config.toml on Linux):

	[search]
	max_product_matches = 5
	predictions_file = "predictions.toml"

	[history]
	backend = "redis"
	redis_url = "redis://localhost:6379/0"

	[cart]
	free_shipping_threshold = 50.0
	shipping_fee = 5.99
	tax_rate = 0.08

	[[coupons]]
	code = "WELCOME10"
	kind = "percent"
	value = 10.0

The file is created with defaults if it doesn't exist. A .env file in the
working directory is loaded first, so SHOPSERVE_REDIS_URL and
SHOPSERVE_HTTP_ADDR can override it. The IPC server re-reads the file
periodically without a restart.

# IPC Protocol

Requests and responses are MessagePack maps on stdin/stdout. Every request
carries an id and an op:

	{"id": "1", "op": "suggest", "q": "ip"}
	{"id": "1", "s": ["iPhone", "iPhone 15", "iPad"], "c": 3, "t": 42}

Failures come back as {"id": "1", "e": "message", "c": 400}. Logs always go
to stderr.

# Command Line Flags

	--catalog string   catalog file (JSON or msgpack)
	--db string        SQLite catalog database
	--config string    custom config file
	-d, --debug        debug logging
	-c, --cli          interactive CLI
	--http string      serve the HTTP API on this address
	--import           copy --catalog into --db and exit
	--version          show the version
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bastiangx/shopserve/internal/cli"
	"github.com/bastiangx/shopserve/internal/logger"
	"github.com/bastiangx/shopserve/internal/utils"
	"github.com/bastiangx/shopserve/pkg/api"
	"github.com/bastiangx/shopserve/pkg/catalog"
	"github.com/bastiangx/shopserve/pkg/config"
	"github.com/bastiangx/shopserve/pkg/history"
	"github.com/bastiangx/shopserve/pkg/pricefeed"
	"github.com/bastiangx/shopserve/pkg/server"
	"github.com/bastiangx/shopserve/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
)

const (
	Version = "0.3.0-beta"
	AppName = "shopserve"
	gh      = "https://github.com/bastiangx/shopserve"
)

// main parses flags, wires the packages together and hands off to one of
// the run modes. It does not implement logic for them.
func main() {
	showVersion := flag.Bool("version", false, "Show current version")
	catalogPath := flag.String("catalog", "", "Catalog file (JSON or msgpack snapshot)")
	dbPath := flag.String("db", "", "SQLite catalog database")
	configPath := flag.String("config", "", "Custom config file path")
	debugMode := flag.BoolP("debug", "d", false, "Toggle debug mode")
	cliMode := flag.BoolP("cli", "c", false, "Run CLI -- useful for testing and debugging")
	httpAddr := flag.String("http", "", "Serve the HTTP API on this address (e.g. :8080)")
	importMode := flag.Bool("import", false, "Load --catalog into --db and exit")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to read .env: %v", err)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *importMode {
		if err := runImport(ctx, *catalogPath, *dbPath); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		return
	}

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}
	log.Debugf("Config dir: %s", pathResolver.GetConfigDir())

	appConfig, activeConfigPath, err := config.LoadConfigWithPriority(*configPath, pathResolver)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appConfig.ApplyEnv(os.Getenv)
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(activeConfigPath))

	products, closeSource, err := openCatalog(ctx, pathResolver, *catalogPath, *dbPath)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	defer closeSource()

	manager, err := openHistory(ctx, pathResolver, appConfig.History)
	if err != nil {
		log.Fatalf("Failed to open search history: %v", err)
	}

	suggester, err := newSuggester(appConfig.Search)
	if err != nil {
		log.Fatalf("Failed to init suggestions: %v", err)
	}

	switch {
	case *cliMode:
		log.SetReportTimestamp(false)
		handler := cli.NewInputHandler(cli.Options{
			Catalog:     products,
			Suggester:   suggester,
			History:     manager,
			Limit:       appConfig.Server.MaxLimit,
			DefaultSort: appConfig.Filter.DefaultSort,
			Logger:      log.Default(),
		})
		if err := untilDone(ctx, handler.Start); err != nil {
			log.Fatalf("CLI error: %v", err)
		}

	case *httpAddr != "" || os.Getenv("SHOPSERVE_HTTP_ADDR") != "":
		addr := *httpAddr
		if addr == "" {
			addr = appConfig.HTTP.Addr
		}
		if err := runHTTP(ctx, addr, api.Options{
			Catalog:   products,
			Suggester: suggester,
			History:   manager,
			Prices:    pricefeed.New(nil, appConfig.PriceFeedOptions()),
			Config:    appConfig,
			Logger:    logger.New("http"),
		}); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}

	default:
		srv := server.NewServer(server.Options{
			Catalog:    products,
			Suggester:  suggester,
			History:    manager,
			Config:     appConfig,
			ConfigPath: activeConfigPath,
		})
		showStartupInfo(products)
		if err := untilDone(ctx, srv.Start); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}
	fmt.Fprintf(os.Stderr, "\nExiting...\n")
}

// untilDone runs fn and returns early once ctx is cancelled, since fn may be
// blocked reading stdin.
func untilDone(ctx context.Context, fn func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn(ctx)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	case <-ctx.Done():
		return nil
	}
}

// openCatalog picks the SQLite database when --db is given, the catalog
// file otherwise, and loads the first snapshot.
func openCatalog(ctx context.Context, pr *utils.PathResolver, catalogPath, dbPath string) (*catalog.Catalog, func(), error) {
	closeFn := func() {}

	var source catalog.Source
	switch {
	case dbPath != "":
		db, err := catalog.OpenSQLite(ctx, dbPath)
		if err != nil {
			return nil, closeFn, err
		}
		source = db
		closeFn = func() {
			if err := db.Close(); err != nil {
				log.Warnf("Closing catalog db: %v", err)
			}
		}
	case catalogPath != "":
		resolved, err := pr.ResolveCatalogPath(catalogPath)
		if err != nil {
			return nil, closeFn, errors.Wrapf(err, "find catalog %s", catalogPath)
		}
		log.Debugf("Using catalog file at: %s", resolved)
		source = catalog.NewFileSource(resolved)
	default:
		log.Warn("No catalog specified, running with an empty catalog...")
		return catalog.NewStatic(nil), closeFn, nil
	}

	products := catalog.New(source)
	if err := products.Reload(ctx); err != nil {
		closeFn()
		return nil, func() {}, err
	}
	log.Debugf("Catalog loaded: %d products", products.Len())
	return products, closeFn, nil
}

// openHistory builds the store for the configured backend and loads the saved list.
func openHistory(ctx context.Context, pr *utils.PathResolver, cfg config.HistoryConfig) (*history.Manager, error) {
	var store history.Store
	switch cfg.Backend {
	case "redis":
		client, err := history.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		store = history.NewRedisStore(client)
	case "memory":
		store = history.NewMemoryStore()
	default:
		dir := cfg.Dir
		if dir == "" {
			var err error
			if dir, err = pr.GetDataDir("history"); err != nil {
				return nil, errors.Wrap(err, "history dir")
			}
		}
		fileStore, err := history.NewFileStore(dir)
		if err != nil {
			return nil, err
		}
		store = fileStore
	}

	manager := history.NewManager(store, cfg.Key, cfg.MaxEntries)
	if err := manager.Load(ctx); err != nil {
		log.Warnf("Starting with empty search history: %v", err)
	}
	return manager, nil
}

func newSuggester(cfg config.SearchConfig) (*suggest.Engine, error) {
	table := suggest.DefaultTable()
	if cfg.PredictionsFile != "" {
		loaded, err := suggest.LoadTable(cfg.PredictionsFile)
		if err != nil {
			return nil, err
		}
		table = loaded
	}

	var opts []suggest.Option
	if len(cfg.CommonTerms) > 0 {
		opts = append(opts, suggest.WithCommonTerms(cfg.CommonTerms))
	}
	if cfg.MaxProductMatches > 0 {
		opts = append(opts, suggest.WithMaxProducts(cfg.MaxProductMatches))
	}
	return suggest.NewEngine(table, opts...), nil
}

func runHTTP(ctx context.Context, addr string, opts api.Options) error {
	if log.GetLevel() > log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	opts.Logger.Infof("Listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func runImport(ctx context.Context, catalogPath, dbPath string) error {
	if catalogPath == "" || dbPath == "" {
		return errors.New("--import needs both --catalog and --db")
	}

	products, err := catalog.NewFileSource(catalogPath).Products(ctx)
	if err != nil {
		return err
	}

	db, err := catalog.OpenSQLite(ctx, dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Upsert(ctx, products); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Imported %d products into %s\n", len(products), dbPath)
	return nil
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ ShopServe ] product discovery backend")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(products *catalog.Catalog) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, " ShopServe ")
	fmt.Fprintln(os.Stderr, "===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("products: %d", products.Len())
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
