// Command tsvr drives the compile/render pipeline from the command line: it
// loads a laid-out document, runs it through the incremental builder and
// compile actor, and emits SVG, the §6 module-stream wire format, or a
// zip bundle of the stream plus its referenced assets.
package main

import (
	stdzip "archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"tsvr/archive"
	"tsvr/compile"
	"tsvr/config"
	"tsvr/incremental"
	"tsvr/render/svg"
	"tsvr/state"
	"tsvr/watch"
	"tsvr/wire"
)

const version = "0.1.0"

// initializeAppContext prepares application context before command
// execution but after the command line has been parsed.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		if len(configFile) > 0 {
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData(fmt.Sprintf("config/%s", filepath.Base(configFile)), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("program started", zap.Strings("args", os.Args), zap.String("ver", version), zap.String("runtime", runtime.Version()))

	if env.Rpt != nil {
		env.Log.Info("creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 {
		env.Log.Info("using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	env.RestoreStdLog()

	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), "tsvr-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file %q: %w", fname, er))
			}
		}
	}
	return
}

var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := state.EnvFromContext(ctx)
	if env.Log != nil {
		env.Log.Error("program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("unknown command, nothing to do", zap.String("command", name))
}

func main() {
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            "tsvr",
		Usage:           "vector IR compile/render pipeline",
		Version:         version + " (" + runtime.Version() + ")",
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "produce a debug report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "compile",
				Usage:        "compiles a document (or every document inside a zip archive) into module wire streams",
				OnUsageError: usageErrorHandler,
				Action:       runCompile,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write the module stream to `FILE`; for a zip input, the directory to write one stream per entry into"},
					&cli.StringFlag{Name: "bundle", Usage: "also write a zip bundle (module stream + assets) to `FILE`; ignored for a zip input"},
				},
				ArgsUsage: "DOCUMENT.json | ARCHIVE.zip",
			},
			{
				Name:         "render",
				Usage:        "compiles a document and renders one page as SVG",
				OnUsageError: usageErrorHandler,
				Action:       runRender,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 0, Usage: "zero-based `INDEX` of the page to render"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write SVG to `FILE` instead of stdout"},
				},
				ArgsUsage: "DOCUMENT.json",
			},
			{
				Name:         "watch",
				Usage:        "recompiles a document whenever its declared watch paths change",
				OnUsageError: usageErrorHandler,
				Action:       runWatch,
				ArgsUsage:    "DOCUMENT.json",
			},
			{
				Name:         "dumpconfig",
				Usage:        "dumps either default or actual configuration (YAML)",
				OnUsageError: usageErrorHandler,
				Action:       runDumpConfig,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default configuration instead of the loaded one"},
				},
				ArgsUsage: "DESTINATION",
			},
		},
	}

	var err error
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func runCompile(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("missing DOCUMENT argument")
	}
	path := cmd.Args().Get(0)

	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return runCompileArchive(ctx, env, cmd, path)
	}

	dc := &documentCompiler{path: path}
	mod, err := dc.Compile(ctx, 1, compile.CompileReasons{ByEntry: true})
	if err != nil {
		return fmt.Errorf("unable to compile %q: %w", path, err)
	}
	if err := mod.Verify(); err != nil {
		return fmt.Errorf("compiled module failed verification: %w", err)
	}

	out := os.Stdout
	if fname := cmd.String("out"); len(fname) > 0 {
		f, err := os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create %q: %w", fname, err)
		}
		defer f.Close()
		out = f
	}
	if err := wire.WriteModule(out, wire.BuildVersionInfo{Version: version, Compiler: runtime.Version()}, mod); err != nil {
		return fmt.Errorf("unable to write module stream: %w", err)
	}
	env.Log.Info("compiled document", zap.String("path", path), zap.Int("pages", len(mod.Pages)), zap.Int("items", mod.Items.Len()))

	if bname := cmd.String("bundle"); len(bname) > 0 {
		var buf bytes.Buffer
		if err := wire.WriteModule(&buf, wire.BuildVersionInfo{Version: version, Compiler: runtime.Version()}, mod); err != nil {
			return fmt.Errorf("unable to encode module stream for bundling: %w", err)
		}
		bf, err := os.Create(bname)
		if err != nil {
			return fmt.Errorf("unable to create %q: %w", bname, err)
		}
		defer bf.Close()
		if err := archive.WriteBundle(bf, buf.Bytes(), nil); err != nil {
			return fmt.Errorf("unable to write bundle: %w", err)
		}
		env.Log.Info("wrote bundle", zap.String("path", bname))
	}
	return nil
}

// runCompileArchive recursively discovers *.json documents inside a zip
// input tree (archive.Walk) and compiles each independently, writing one
// module stream per entry into the --out directory (or alongside the
// archive when --out is unset). Each entry gets its own incremental
// builder: nothing in a bundled archive is assumed to share state with
// anything else in it.
func runCompileArchive(ctx context.Context, env *state.LocalEnv, cmd *cli.Command, archivePath string) error {
	outDir := cmd.String("out")
	if outDir == "" {
		outDir = filepath.Dir(archivePath)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("unable to create output directory %q: %w", outDir, err)
	}

	compiled := 0
	walkErr := archive.Walk(archivePath, "", func(_ string, f *stdzip.File) error {
		if !strings.EqualFold(filepath.Ext(f.Name), ".json") {
			return nil
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("opening archive entry %q: %w", f.Name, err)
		}
		defer rc.Close()

		d, err := loadDocumentFromReader(rc)
		if err != nil {
			return fmt.Errorf("loading archive entry %q: %w", f.Name, err)
		}

		mod, err := incremental.New().Lower(ctx, d)
		if err != nil {
			return fmt.Errorf("lowering archive entry %q: %w", f.Name, err)
		}
		if err := mod.Verify(); err != nil {
			return fmt.Errorf("archive entry %q failed verification: %w", f.Name, err)
		}

		outName := filepath.Join(outDir, strings.TrimSuffix(path.Base(f.Name), filepath.Ext(f.Name))+".wire")
		out, err := os.Create(outName)
		if err != nil {
			return fmt.Errorf("unable to create %q: %w", outName, err)
		}
		defer out.Close()
		if err := wire.WriteModule(out, wire.BuildVersionInfo{Version: version, Compiler: runtime.Version()}, mod); err != nil {
			return fmt.Errorf("unable to write module stream for %q: %w", f.Name, err)
		}
		compiled++
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walking archive %q: %w", archivePath, walkErr)
	}
	env.Log.Info("compiled archive", zap.String("path", archivePath), zap.Int("documents", compiled), zap.String("out", outDir))
	return nil
}

func runRender(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("missing DOCUMENT argument")
	}
	path := cmd.Args().Get(0)
	pageIdx := int(cmd.Int("page"))

	dc := &documentCompiler{path: path}
	mod, err := dc.Compile(ctx, 1, compile.CompileReasons{ByEntry: true})
	if err != nil {
		return fmt.Errorf("unable to compile %q: %w", path, err)
	}
	if pageIdx < 0 || pageIdx >= len(mod.Pages) {
		return fmt.Errorf("page index %d out of range (document has %d pages)", pageIdx, len(mod.Pages))
	}

	svgDoc, err := svg.Render(mod, mod.Pages[pageIdx])
	if err != nil {
		return fmt.Errorf("unable to render page %d: %w", pageIdx, err)
	}

	out := os.Stdout
	if fname := cmd.String("out"); len(fname) > 0 {
		f, err := os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create %q: %w", fname, err)
		}
		defer f.Close()
		out = f
	}
	if _, err := out.WriteString(svgDoc); err != nil {
		return fmt.Errorf("unable to write SVG: %w", err)
	}
	env.Log.Info("rendered page", zap.String("path", path), zap.Int("page", pageIdx))
	return nil
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("missing DOCUMENT argument")
	}
	path := cmd.Args().Get(0)

	dc := &documentCompiler{path: path, builder: env.Builder}
	env.Actor = compile.NewActor(env.Log.Named("compile"), dc)

	w, err := watch.New(env.Log.Named("watch"), env.Actor)
	if err != nil {
		return fmt.Errorf("unable to start watcher: %w", err)
	}
	env.Watcher = w
	defer w.Close()

	watchPaths := env.Cfg.Watch.Paths
	if len(watchPaths) == 0 {
		watchPaths = []string{filepath.Dir(path)}
	}
	for _, p := range watchPaths {
		if err := w.Add(p); err != nil {
			return fmt.Errorf("unable to watch %q: %w", p, err)
		}
	}

	go w.Run()
	go env.Actor.Run(ctx)

	env.Actor.Send(compile.Interrupt{Kind: compile.IKCompile})
	env.Log.Info("watching for changes", zap.Strings("paths", watchPaths))

	<-ctx.Done()
	return nil
}

func runDumpConfig(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	fname := cmd.Args().Get(0)

	var (
		cfg    *config.Config
		source string
	)
	if cmd.Bool("default") || env.Cfg == nil {
		source = "default"
		cfg = config.Default()
	} else {
		source = "actual"
		cfg = env.Cfg
	}

	data, err := config.Dump(cfg)
	if err != nil {
		return fmt.Errorf("unable to marshal configuration: %w", err)
	}

	out := os.Stdout
	if len(fname) > 0 {
		f, err := os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create %q: %w", fname, err)
		}
		defer f.Close()
		out = f
	} else {
		fname = "STDOUT"
	}
	if env.Log != nil {
		env.Log.Info("outputting configuration", zap.String("state", source), zap.String("file", fname))
	}
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
