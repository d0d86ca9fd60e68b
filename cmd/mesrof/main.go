package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"mesrof/internal/analytics"
	"mesrof/internal/cli"
	"mesrof/internal/config"
	applog "mesrof/internal/log"
	"mesrof/internal/notify"
	"mesrof/internal/storage"
)

// app carries what every command needs.
type app struct {
	cfg      *config.Config
	logger   *applog.Logger
	store    *storage.Store
	notifier notify.Notifier
	reports  *analytics.Service
	out      io.Writer
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"migrate":     {"migrate [-clear-legacy]", runMigrate},
	"export":      {"export [-o file]", runExport},
	"import":      {"import -i file", runImport},
	"export-xlsx": {"export-xlsx -o file [-month YYYY-MM]", runExportXLSX},
	"stats":       {"stats [-month YYYY-MM]", runStats},
	"health":      {"health [-month YYYY-MM]", runHealth},
	"snapshot":    {"snapshot [-month YYYY-MM]", runSnapshot},
	"add":         {"add -amount N -category C [-mood M] [-date D] [-note T]", runAdd},
	"contribute":  {"contribute -goal ID -amount N", runContribute},
	"remind":      {"remind", runRemind},
	"clear":       {"clear -yes", runClear},
}

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: mesrof <command> [flags]")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}

	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, os.Stderr).With(applog.FieldCommand, os.Args[1])

	ctx, cancel := cli.InterruptContext(logger)
	err = run(ctx, cfg, logger, cmd, os.Args[1], os.Args[2:])
	cancel()

	if errors.Is(err, errUsage) {
		fmt.Fprintf(os.Stderr, "usage: mesrof %s\n", cmd.usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Failure(ctx, "Command failed", os.Args[1], err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger, cmd command, name string, args []string) error {
	store, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// Every command starts from migrated data; the migrate command reports
	// its own failures.
	if name != "migrate" {
		if _, err := cli.MigrateLegacy(ctx, logger, cfg, store); err != nil {
			logger.WarnContext(ctx, "Legacy migration failed, will retry on next start", "error", err)
		}
	}

	notifier, err := notify.New(ctx, cfg, logger.WithComponent(applog.ComponentNotify).Logger)
	if err != nil {
		return err
	}
	defer notifier.Close()

	reports, stop := cli.NewReportService(store, cfg)
	defer stop()

	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		notifier: notifier,
		reports:  reports,
		out:      os.Stdout,
	}
	return cmd.run(applog.NewContext(ctx, logger), a, args)
}
