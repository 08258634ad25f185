// Package main is the entry point for the innermost extension host.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dshills/innermost/internal/config"
	"github.com/dshills/innermost/internal/ctxlog"
	"github.com/dshills/innermost/internal/event"
	"github.com/dshills/innermost/internal/extension"
	"github.com/dshills/innermost/internal/i18n"
	"github.com/dshills/innermost/internal/identity"
	"github.com/dshills/innermost/internal/menu"
	"github.com/dshills/innermost/internal/runtime"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	// Env holds the environment values, overridden by flags.
	Env     config.Env
	Open    string
	Enable  string
	Disable string
}

func main() {
	os.Exit(run())
}

func run() int {
	env, err := config.ParseEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	opts := parseFlags(env)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ctxlog.ParseLevel(opts.Env.LogLevel),
	}))
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = ctxlog.WithLogger(ctx, logger)

	if err := host(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func host(ctx context.Context, opts options) error {
	log := ctxlog.FromContext(ctx)

	global, err := config.LoadGlobal(opts.Env.ConfigPath)
	if err != nil {
		return err
	}
	global.ApplyEnv(opts.Env)

	user, err := config.LoadUser(global.Extension.User)
	if err != nil {
		return err
	}
	extConfig, err := config.LoadExtensions(global.Extension.Config)
	if err != nil {
		return err
	}
	ids, err := identity.New(extConfig)
	if err != nil {
		return err
	}

	bundle := i18n.NewBundle()
	if err := bundle.LoadFS(os.DirFS(global.Extension.Locales)); err != nil {
		log.Warn("load host catalogs", slog.String("dir", global.Extension.Locales), slog.Any("err", err))
	}
	tr := bundle.Translator(global.Locale)

	rt := runtime.New(ids,
		runtime.WithLoader(extension.NewLoader(extension.WithBaseDir(global.Dir()))),
		runtime.WithOverrides(user),
		runtime.WithConfig(extConfig),
		runtime.WithTranslator(tr),
		runtime.WithCatalogs(bundle),
	)
	defer func() {
		if err := rt.Close(); err != nil {
			log.Warn("close extensions", slog.Any("err", err))
		}
	}()

	if _, err := rt.Bus().SubscribeFunc("extension.*", func(_ context.Context, ev event.Envelope) error {
		fmt.Println(renderOpen(ev))
		return nil
	}, event.WithPriority(event.PriorityLow)); err != nil {
		return err
	}

	packages := make([]runtime.Package, len(global.Extension.Packages))
	for i, p := range global.Extension.Packages {
		packages[i] = runtime.Package{Path: p.Path, Name: p.Name}
	}
	report, err := rt.Compose(ctx, packages)
	if err != nil {
		return err
	}
	log.Info("composed extensions",
		slog.Int("modules", len(report.Modules)),
		slog.Int("failures", len(report.Failures)),
		slog.String("locale", tr.Locale()),
	)

	switch {
	case opts.Enable != "":
		return rt.SetEnabled(opts.Enable, true)
	case opts.Disable != "":
		return rt.SetEnabled(opts.Disable, false)
	case opts.Open != "":
		return open(ctx, rt, opts.Open)
	}

	fmt.Println(renderSummary(rt, report, user.DisabledNames()))
	return nil
}

// open activates a menu dispatch id, or opens an extension by name.
func open(ctx context.Context, rt *runtime.Runtime, target string) error {
	if strings.HasPrefix(target, menu.Prefix) {
		return rt.Activate(ctx, target)
	}
	s, ok := rt.Surface(target)
	if !ok {
		return fmt.Errorf("%w: %s", runtime.ErrUnknownExtension, target)
	}
	return s.OpenExtension(ctx)
}

func parseFlags(env config.Env) options {
	opts := options{Env: env}
	var showVersion bool

	flag.StringVar(&opts.Env.ConfigPath, "config", env.ConfigPath, "Path to the global configuration file")
	flag.StringVar(&opts.Env.ConfigPath, "c", env.ConfigPath, "Path to the global configuration file (shorthand)")
	flag.StringVar(&opts.Env.LogLevel, "log-level", env.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.Env.Locale, "locale", env.Locale, "Override the configured locale")
	flag.StringVar(&opts.Open, "open", "", "Activate a menu dispatch id or open an extension by name")
	flag.StringVar(&opts.Enable, "enable", "", "Enable an extension by name")
	flag.StringVar(&opts.Disable, "disable", "", "Disable an extension by name")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "innermost - extension host\n\n")
		fmt.Fprintf(os.Stderr, "Usage: innermost [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  innermost                       Compose and print the registries\n")
		fmt.Fprintf(os.Stderr, "  innermost -open clock-ab12cd34ef  Open an extension\n")
		fmt.Fprintf(os.Stderr, "  innermost -disable clock-ab12cd34ef\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("innermost %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.Env.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.Env.LogLevel)
		os.Exit(1)
	}
	if opts.Enable != "" && opts.Disable != "" {
		fmt.Fprintln(os.Stderr, "Error: -enable and -disable are mutually exclusive")
		os.Exit(1)
	}

	return opts
}
