package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/waabox/shopdeck/internal/apiclient"
	"github.com/waabox/shopdeck/internal/auth"
	"github.com/waabox/shopdeck/internal/config"
	"github.com/waabox/shopdeck/internal/domain"
	"github.com/waabox/shopdeck/internal/locale"
	"github.com/waabox/shopdeck/internal/metrics"
	"github.com/waabox/shopdeck/internal/session"
	"github.com/waabox/shopdeck/internal/shop"
	"github.com/waabox/shopdeck/internal/tui"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

const commandTimeout = 30 * time.Second

func main() {
	versionFlag := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", config.DefaultConfigPath(), "path to the config file")
	debug := flag.Bool("debug", false, "verbose development logging")
	metricsAddr := flag.String("metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")
	langFlag := flag.String("lang", "", "language for this run (saved as the new preference)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: shopdeck [flags] [login <email> | logout]\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if *versionFlag {
		fmt.Println("shopdeck", version)
		os.Exit(0)
	}

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.API.URL == "" {
		fmt.Fprintf(os.Stderr, "api.url is not set: add it to %s or export SHOPDECK_API_URL\n", *configPath)
		os.Exit(1)
	}

	logger, err := newLogger(cfg, *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	refreshPath := cfg.RefreshPathOrDefault()
	base, err := url.Parse(cfg.API.URL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error parsing api.url: %v\n", err)
		os.Exit(1)
	}
	cookies, err := auth.NewCookieStore(cfg.CookieFileOrDefault(), cfg.API.URL, base.JoinPath(refreshPath).Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating cookie store: %v\n", err)
		os.Exit(1)
	}
	if err := cookies.Load(); err != nil {
		logger.Warn("could not restore session cookies", zap.Error(err))
	}

	broadcaster := session.NewBroadcaster()
	broadcaster.OnPublish(func(s session.Signal) {
		metrics.BroadcastCount.WithLabelValues(string(s)).Inc()
		logger.Info("session signal", zap.String("signal", string(s)))
	})
	state := session.NewState()
	stopWatching := state.Watch(broadcaster)
	defer stopWatching()

	lang := locale.NewSetting(cfg.LangOrDefault(), config.LangSaver(*configPath))
	if *langFlag != "" {
		if err := lang.Set(*langFlag); err != nil {
			fmt.Fprintf(os.Stderr, "error setting language: %v\n", err)
			os.Exit(1)
		}
	}

	exclusions := apiclient.DefaultExclusions().
		With(cfg.Exclusions.Extra...).
		Without(cfg.Exclusions.Removed...)

	var svc *shop.Service
	client, err := apiclient.New(
		apiclient.Options{
			BaseURL:     cfg.API.URL,
			Timeout:     cfg.TimeoutOrDefault(),
			RefreshPath: refreshPath,
			HTTP2:       cfg.API.HTTP2,
			Exclusions:  &exclusions,
		},
		apiclient.WithLogger(logger.Named("apiclient")),
		apiclient.WithLanguage(lang),
		apiclient.WithPublisher(broadcaster),
		apiclient.WithCookieJar(cookies.Jar()),
		apiclient.WithOnRefreshed(func() { svc.SaveCookies() }),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating api client: %v\n", err)
		os.Exit(1)
	}
	svc = shop.NewService(client, state, broadcaster, cookies, logger.Named("shop"))

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, logger)
	}

	switch flag.Arg(0) {
	case "login":
		if err := runLogin(svc, flag.Arg(1)); err != nil {
			fmt.Fprintf(os.Stderr, "login failed: %s\n", apiclient.ErrorText(err))
			os.Exit(1)
		}
		return
	case "logout":
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := svc.Logout(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: server logout failed: %s\n", apiclient.ErrorText(err))
		}
		fmt.Fprintln(os.Stderr, "Logged out.")
		return
	case "":
	default:
		flag.Usage()
		os.Exit(2)
	}

	user, err := whoAmI(svc)
	if err != nil && !errors.Is(err, domain.ErrSessionExpired) && !errors.Is(err, domain.ErrUnauthorized) {
		logger.Warn("could not load the current user", zap.Error(err))
	}

	app := tui.NewAppModel(svc, lang, cfg.SupportedOrDefault(), user)
	if err := tui.Run(app, broadcaster); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds a zap logger that writes to the log file, never to the
// terminal the TUI draws on.
func newLogger(cfg config.Config, debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if debug {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Log.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	file := cfg.Log.File
	if file == "" {
		file = filepath.Join(filepath.Dir(config.DefaultConfigPath()), "shopdeck.log")
	}
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	zc.OutputPaths = []string{file}
	zc.ErrorOutputPaths = []string{file}
	return zc.Build()
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}

// runLogin reads the password from SHOPDECK_PASSWORD or the first line of stdin.
// Prompts go to stderr so stdout remains clean for piping.
func runLogin(svc *shop.Service, email string) error {
	if email == "" {
		return fmt.Errorf("usage: shopdeck login <email>")
	}
	password := os.Getenv("SHOPDECK_PASSWORD")
	if password == "" {
		fmt.Fprintf(os.Stderr, "Password for %s: ", email)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	user, err := svc.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Logged in as %s. Session saved.\n", user.Email)
	return nil
}

func whoAmI(svc *shop.Service) (domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return svc.Me(ctx)
}
