// Package main is the entry point for the termtask console task
// manager.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"termtask/internal/app"
	"termtask/internal/config"
	"termtask/internal/input"
	"termtask/internal/render"
	"termtask/internal/store"
	"termtask/internal/store/jsonfile"
	"termtask/internal/store/watch"
	"termtask/internal/term"
	"termtask/internal/viewer"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

const collection = "tasks"

func main() {
	os.Exit(run())
}

type options struct {
	configPath string
	dataPath   string
	logPath    string
	logLevel   string
}

func run() int {
	opts := parseFlags()

	logger, closeLog, err := buildLogger(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.dataPath != "" {
		cfg.Store.Path = opts.dataPath
	}

	bindings, err := cfg.Bindings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	theme, err := cfg.Styles()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// A load failure here is fatal: starting over an unreadable data
	// file would present empty state and overwrite it on first save.
	st, err := store.New(
		jsonfile.New(cfg.Store.Path),
		map[string]store.Rules{collection: taskRules()},
		store.WithLogger(logger),
		store.WithAutoSave(cfg.Store.AutoSave),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: open data file %s: %v\n", cfg.Store.Path, err)
		return 1
	}

	grid, err := viewer.New(st, collection, taskColumns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	terminal, err := term.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: open terminal: %v\n", err)
		return 1
	}
	defer terminal.Restore()

	w, h, err := terminal.Size()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: terminal size: %v\n", err)
		return 1
	}

	watcher := watch.New(st, cfg.Store.Path, watch.WithLogger(logger))
	if err := watcher.Start(); err != nil {
		logger.Warn("data file watching disabled: %v", err)
	} else {
		defer watcher.Stop()
	}

	controller, err := app.New(app.Options{
		Renderer:   render.New(terminal.Writer(), w, h),
		Viewer:     grid,
		Store:      st,
		Collection: collection,
		Events:     input.NewDecoder(terminal),
		Sizes:      terminal,
		Bindings:   bindings,
		Theme:      theme,
		Layout:     cfg.Layout,
		Debounce:   cfg.Debounce(),
		Executor:   commandExecutor(st, grid, logger),
		Completer:  commandCompleter,
		Logger:     logger,
		Metrics:    app.NewMetrics(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Restore the terminal on SIGINT/SIGTERM before the process dies.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		terminal.Restore()
		os.Exit(130)
	}()

	if err := controller.Run(); err != nil {
		terminal.Restore()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := st.Flush(); err != nil {
		logger.Error("final flush failed: %v", err)
	}
	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "termtask.toml", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "termtask.toml", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.dataPath, "data", "", "Path to the data file (overrides config)")
	flag.StringVar(&opts.logPath, "log", "", "Log file path (default: logging off)")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "termtask - console task manager\n\n")
		fmt.Fprintf(os.Stderr, "Usage: termtask [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("termtask %s (%s)\n", version, commit)
		os.Exit(0)
	}
	return opts
}

// buildLogger opens the log file when one is requested. Logging to the
// terminal itself would corrupt the frame, so the default is off.
func buildLogger(opts options) (*app.Logger, func(), error) {
	if opts.logPath == "" {
		return app.NullLogger, func() {}, nil
	}
	f, err := os.OpenFile(opts.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := app.NewLogger(f, app.ParseLogLevel(opts.logLevel), "termtask")
	return logger, func() { f.Close() }, nil
}

func taskRules() store.Rules {
	return store.Rules{
		Required: []string{"title"},
		Types: map[string]store.FieldType{
			"title": store.FieldTypeString,
			"done":  store.FieldTypeBoolean,
			"due":   store.FieldTypeTimestamp,
			"tags":  store.FieldTypeList,
		},
	}
}

func taskColumns(string) []viewer.Column {
	return []viewer.Column{
		{Name: "title", Label: "Title", Width: 40},
		{Name: "done", Label: "Done", Width: 5},
		{Name: "due", Label: "Due", Width: 20},
		{Name: "tags", Label: "Tags", Width: 20},
	}
}

// commandExecutor interprets the small command language of the command
// line. Unknown commands are logged and otherwise ignored; the grid
// refreshes after every submission regardless.
func commandExecutor(st *store.Store, grid *viewer.Viewer, logger *app.Logger) app.Executor {
	return func(line string) {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return
		}
		switch fields[0] {
		case "add", "a":
			title := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
			if title == "" {
				return
			}
			if _, err := st.Add(collection, store.Record{"title": title, "done": false}); err != nil {
				logger.Warn("add failed: %v", err)
			}
		case "filter", "f":
			if len(fields) >= 3 {
				grid.SetFilter(fields[1], strings.Join(fields[2:], " "))
			} else if len(fields) == 2 {
				grid.SetFilter("title", fields[1])
			} else {
				grid.ClearFilters()
			}
		case "sort", "s":
			if len(fields) >= 2 {
				grid.SetSort(fields[1], len(fields) < 3 || fields[2] != "desc")
			} else {
				grid.SetSort("", true)
			}
		case "save", "w":
			if err := st.Flush(); err != nil {
				logger.Error("save failed: %v", err)
			}
		case "reload", "e":
			if err := st.Load(); err != nil {
				logger.Error("reload failed: %v", err)
			}
		default:
			logger.Warn("unknown command %q", fields[0])
		}
	}
}

var commandNames = []string{"add", "filter", "sort", "save", "reload"}

// commandCompleter completes the command word.
func commandCompleter(line string, cursor int) []string {
	word := strings.TrimSpace(line)
	if word == "" || strings.ContainsRune(word, ' ') {
		return nil
	}
	var out []string
	for _, name := range commandNames {
		if strings.HasPrefix(name, word) {
			out = append(out, name)
		}
	}
	return out
}
