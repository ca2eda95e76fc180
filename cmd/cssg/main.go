package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssg/config"
	"cssg/misc"
	"cssg/render"
	"cssg/state"
)

// setupAppContext runs after command line parsing and before command
// execution, everything commands share is prepared here.
func setupAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// help or version request, not worth spinning up environment
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to load configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to create debug report: %w", err)
		}
		if len(configFile) > 0 {
			// keep effective values rather than the file itself
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData(fmt.Sprintf("config/%s", filepath.Base(configFile)), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to set up logging: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started",
		zap.Strings("args", os.Args),
		zap.String("version", misc.GetVersion()),
		zap.String("go", runtime.Version()),
		zap.String("commit", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Collecting debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 && env.Log != nil {
		env.Log.Info("No configuration file, using defaults")
	}
	return ctx, nil
}

func teardownAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()))
	}

	// sync and detach logging first so the log file lands in the report
	// complete, whatever fails after this point goes to stderr
	env.RestoreStdLog()

	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	err = multierr.Append(err, dropEmptyPanicLog(env))
	return
}

// dropEmptyPanicLog removes the crash capture file when nothing crashed. Has
// to wait until the report is closed since the report keeps the non-empty one.
func dropEmptyPanicLog(env *state.LocalEnv) error {
	if env.Cfg == nil || len(env.Cfg.Logging.FileLogger.Destination) == 0 {
		return nil
	}
	debug.SetCrashOutput(nil, debug.CrashOptions{})

	fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
	if fi, err := os.Stat(fname); err != nil || fi.Size() > 0 {
		return nil
	}
	if err := os.Remove(fname); err != nil {
		return fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, err)
	}
	return nil
}

// cli.Exit() obscures control flow, commands here return plain errors
// instead and this flag keeps track of whether the error made it to the log.
var errLogged bool

// runs while appContext is still alive, the only place where subcommand
// errors can be logged properly
func exitErrorHandler(ctx context.Context, _ *cli.Command, err error) {

	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errLogged = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// pass through, exitErrorHandler or final stderr print will take care of
	// the reporting
	return err
}

func unknownCommandHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func main() {

	// interrupts cancel the context instead of killing the process midway,
	// rendering checks it between recipes
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "rendering engine for stylesheet recipe (YAML) files",
		Version:         fmt.Sprintf("%s (%s) : %s", misc.GetVersion(), runtime.Version(), misc.GetGitHash()),
		HideHelpCommand: true,
		Before:          setupAppContext,
		After:           teardownAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrorHandler,
		CommandNotFound: unknownCommandHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "read configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "troubleshooting mode, collects run details into report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "render",
				Usage:        "Renders stylesheet recipe(s) to specified format",
				OnUsageError: usageErrorHandler,
				Action:       render.Run,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Value: config.OutputFmtCSS.String(),
						Usage: "rendering output `TYPE` (supported types: " + strings.Join(config.OutputFmtNames(), ", ") + ")"},
					&cli.BoolFlag{Name: "nodirs", Aliases: []string{"nd"}, Usage: "flatten output, do not recreate input directory structure"},
					&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "replace existing output files instead of failing"},
					&cli.StringFlag{Name: "force-zip-cp",
						Usage: "assume `ENCODING` for ALL non UTF-8 file names in processed bundles (see IANA.org for character set names)"},
				},
				ArgsUsage: "SOURCE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    what to render, one of:
        single recipe: "[path]recipe.yaml"
        directory: "[path]dir" - every recipe under it, recursively (symbolic links are not followed)
        recipe in a bundle: "[path]bundle.zip[path inside]/recipe.yaml"
        part of a bundle: "[path]bundle.zip[path inside]" - every recipe under that path

	Recursive walks pick up recipe files only and skip everything else,
	bundles inside bundles are not processed.

DESTINATION:
    directory to put results into, file names and extensions are derived
    from recipe metadata and the requested type
    if absent - current working directory
`, cli.CommandHelpTemplate),
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       dumpConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    where to write the configuration, if absent - STDOUT

Without flags prints the configuration the current run would use, which is
defaults with the configuration file applied on top. With --default prints
the embedded defaults alone.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// os.Exit at the end of main sets the exit code, nothing may be deferred
	// after this point
	defer func() {
		stop()
		if err != nil {
			// depending on where we failed log may not exist yet or may be
			// closed already
			if !errLogged {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func dumpConfiguration(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var (
		err   error
		data  []byte
		which string
	)

	if cmd.Bool("default") {
		which = "default"
		data, err = config.Prepare()
	} else {
		which = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	out := os.Stdout
	fname := cmd.Args().Get(0)
	if len(fname) > 0 {
		if out, err = os.Create(fname); err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()
	} else {
		fname = "STDOUT"
	}
	env.Log.Info("Writing configuration", zap.String("which", which), zap.String("file", fname))

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
