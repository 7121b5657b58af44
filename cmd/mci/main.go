package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/mci-runtime/driver"
	"github.com/wippyai/mci-runtime/driver/luadrv"
	"github.com/wippyai/mci-runtime/driver/wasmdrv"
	"github.com/wippyai/mci-runtime/errors"
	"github.com/wippyai/mci-runtime/runtime"
)

// listFlag collects every occurrence of a repeatable flag.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	var drivers, exts, commands listFlag
	flag.Var(&drivers, "driver", "Install a driver: type=file.lua or type=file.wasm (repeatable)")
	flag.Var(&exts, "ext", "Map a file extension to a device type: wav=waveaudio (repeatable)")
	flag.Var(&commands, "c", "Command to run (repeatable); commands are read from stdin otherwise")
	var (
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Log engine activity to stderr")
		retSize     = flag.Uint("size", 0, "Return buffer size in bytes (0 for the default)")
		memPages    = flag.Uint("pages", 0, "Memory limit for wasm drivers in 64KiB pages (0 for no limit)")
	)
	flag.Parse()

	if len(drivers) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: mci -driver type=file.lua [-ext wav=type] [-c command ...]")
		fmt.Fprintln(os.Stderr, "       mci -driver type=file.wasm -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       mci -driver type=file.lua < script.mci")
		os.Exit(1)
	}

	ctx := context.Background()
	sys, cleanup, err := setup(ctx, options{
		drivers:  drivers,
		exts:     exts,
		verbose:  *verbose,
		memPages: uint32(*memPages),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if *interactive {
		if err := runInteractive(sys, uint32(*retSize)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var failed bool
	if len(commands) > 0 {
		for _, c := range commands {
			failed = execute(ctx, sys, c, uint32(*retSize), os.Stdout, os.Stderr) || failed
		}
	} else {
		failed = runScript(ctx, sys, os.Stdin, uint32(*retSize))
	}
	if failed {
		cleanup()
		os.Exit(2)
	}
}

type options struct {
	drivers  []string
	exts     []string
	verbose  bool
	memPages uint32
}

// setup installs the requested drivers and creates the engine. cleanup
// closes every session and compiled driver module.
func setup(ctx context.Context, opts options) (*runtime.System, func(), error) {
	cat := driver.NewCatalog()
	var modules []*wasmdrv.Module
	closeModules := func() {
		for _, m := range modules {
			m.Close(ctx)
		}
	}

	for _, arg := range opts.drivers {
		deviceType, path, ok := strings.Cut(arg, "=")
		if !ok || deviceType == "" || path == "" {
			closeModules()
			return nil, nil, fmt.Errorf("driver %q: want type=file", arg)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".lua":
			script, err := luadrv.Load(path)
			if err != nil {
				closeModules()
				return nil, nil, err
			}
			cat.Register(deviceType, luadrv.Factory(script))
		case ".wasm":
			m, err := wasmdrv.LoadFile(ctx, path, &wasmdrv.Config{MemoryLimitPages: opts.memPages})
			if err != nil {
				closeModules()
				return nil, nil, err
			}
			modules = append(modules, m)
			cat.Register(deviceType, m.Factory())
		default:
			closeModules()
			return nil, nil, fmt.Errorf("driver %q: unknown driver kind %q", arg, filepath.Ext(path))
		}
	}
	for _, arg := range opts.exts {
		ext, deviceType, ok := strings.Cut(arg, "=")
		if !ok || ext == "" || deviceType == "" {
			closeModules()
			return nil, nil, fmt.Errorf("extension %q: want ext=type", arg)
		}
		cat.RegisterExtension(ext, deviceType)
	}

	cfg := runtime.Config{Catalog: cat}
	if opts.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			closeModules()
			return nil, nil, err
		}
		cfg.Logger = l
	}
	sys, err := runtime.New(cfg)
	if err != nil {
		closeModules()
		return nil, nil, err
	}

	var done bool
	return sys, func() {
		if done {
			return
		}
		done = true
		if err := sys.Close(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		closeModules()
		if cfg.Logger != nil {
			cfg.Logger.Sync()
		}
	}, nil
}

// runScript runs one command per line of r. Blank lines and lines starting
// with # are skipped. A prompt is shown when r is a terminal.
func runScript(ctx context.Context, sys *runtime.System, r io.Reader, retSize uint32) bool {
	prompt := false
	if f, ok := r.(*os.File); ok {
		prompt = term.IsTerminal(int(f.Fd()))
	}

	var failed bool
	sc := bufio.NewScanner(r)
	for {
		if prompt {
			fmt.Print("mci> ")
		}
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if prompt && (line == "quit" || line == "exit") {
			break
		}
		failed = execute(ctx, sys, line, retSize, os.Stdout, os.Stderr) || failed
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		failed = true
	}
	return failed
}

// execute runs one command and prints its result. It reports whether the
// command failed.
func execute(ctx context.Context, sys *runtime.System, command string, retSize uint32, out, errOut io.Writer) bool {
	res, err := sys.SendString(ctx, command, retSize)
	if err != nil {
		fmt.Fprintln(errOut, describe(err))
		return true
	}
	if res != "" {
		fmt.Fprintln(out, res)
	}
	return false
}

func describe(err error) string {
	code := errors.CodeOf(err)
	return fmt.Sprintf("error %d: %s (%v)", code, errors.Text(code), err)
}
