package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-catalog-client/applock"
	"github.com/jrsteele09/go-catalog-client/auth"
	"github.com/jrsteele09/go-catalog-client/catalog"
	"github.com/jrsteele09/go-catalog-client/client"
	"github.com/jrsteele09/go-catalog-client/internal/config"
	"github.com/jrsteele09/go-catalog-client/querycache"
	"github.com/jrsteele09/go-catalog-client/sessions"
	"github.com/jrsteele09/go-catalog-client/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `usage: catalog [flags] <command> [args]

commands:
  login -u <username> -p <password>
  logout
  me
  products [-page N] [-all]
  categories
  category <slug>
  delete <id>
  sync
  passcode set <code> | passcode clear
  lock enable | lock disable | lock status
  shell

flags:
`

type app struct {
	cfg      config.Config
	store    storage.Store
	sessions *sessions.Manager
	cache    *querycache.Cache
	auth     *auth.Service
	catalog  *catalog.Service
	passcode *applock.PasscodeAuthenticator
	lock     *applock.Lock
	in       *bufio.Reader
	out      io.Writer
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %s\n", describe(err))
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ContinueOnError)
	configPath := fs.String("config", envOr("CATALOG_CONFIG", "catalog.yaml"), "path to the YAML config file")
	offline := fs.Bool("offline", false, "serve from the local cache without touching the network")
	banner := fs.Bool("banner", false, "print the app banner")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return flag.ErrHelp
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	setupLogger(cfg.GetLogLevel())
	if *banner {
		displayAppname(cfg.GetAppName())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log.Logger)
	if err != nil {
		return err
	}
	defer a.close()
	a.cache.SetOnline(!*offline)

	return a.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
}

func newApp(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*app, error) {
	store := storage.Open(cfg, logger)
	sm := sessions.NewManager(store, logger)
	if _, err := sm.Restore(ctx); err != nil {
		logger.Warn().Err(err).Msg("could not restore session")
	}

	httpClient := client.New(cfg, sm, nil, logger)
	cache := querycache.New(store, querycache.OptionsFromConfig(cfg), logger)
	if err := cache.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("could not load query cache")
	}

	a := &app{
		cfg:      cfg,
		store:    store,
		sessions: sm,
		cache:    cache,
		auth:     auth.NewService(auth.NewAPI(httpClient), sm, cfg, logger),
		catalog:  catalog.NewService(catalog.NewAPI(httpClient), cache, sm, cfg, logger),
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
	a.passcode = applock.NewPasscodeAuthenticator(store, a.promptLine)
	a.lock = applock.New(store, a.passcode, sm, cfg, logger, applock.WithOnLock(func() {
		fmt.Fprintln(a.out, "\nApp locked. Type 'unlock' to continue.")
	}))
	if err := a.lock.Restore(ctx); err != nil {
		logger.Warn().Err(err).Msg("could not restore app lock settings")
	}
	a.lock.CheckSupport(ctx)
	return a, nil
}

func (a *app) close() {
	a.lock.Stop()
	if err := a.store.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close storage")
	}
}

func (a *app) promptLine(_ context.Context, prompt string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// describe renders errors the way the API reports them.
func describe(err error) string {
	var apiErr *client.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
