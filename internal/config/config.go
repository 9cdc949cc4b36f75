// Package config loads the TOML configuration file. Absent file or
// absent keys fall back to defaults; values that are present must be
// valid. Key chords and theme colors are validated at load time so a
// typo fails at startup instead of deep inside the event loop.
package config

import (
	"fmt"
	"io/fs"
	"os"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"

	"termtask/internal/input/key"
	"termtask/internal/screen"
)

// FileSystem abstracts file reads for testing with in-memory files.
type FileSystem interface {
	fs.FS
	ReadFile(path string) ([]byte, error)
}

// OSFS reads from the real file system.
type OSFS struct{}

func (OSFS) Open(name string) (fs.File, error)    { return os.Open(name) }
func (OSFS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Config is the full configuration tree.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Keys   KeysConfig   `toml:"keys"`
	Theme  ThemeConfig  `toml:"theme"`
	Store  StoreConfig  `toml:"store"`
	Resize ResizeConfig `toml:"resize"`
}

// LayoutConfig sets the fixed band heights around the content region.
type LayoutConfig struct {
	HeaderHeight  int `toml:"header_height"`
	StatusHeight  int `toml:"status_height"`
	CommandHeight int `toml:"command_height"`
}

// KeysConfig holds key chord specs in either "Ctrl+G" or "<C-g>" form.
type KeysConfig struct {
	Toggle   string `toml:"toggle"`
	Quit     string `toml:"quit"`
	Edit     string `toml:"edit"`
	Complete string `toml:"complete"`
}

// ThemeConfig holds hex colors for the chrome elements.
type ThemeConfig struct {
	Header   string `toml:"header"`
	Selected string `toml:"selected"`
	Status   string `toml:"status"`
	Command  string `toml:"command"`
}

// StoreConfig locates the data file.
type StoreConfig struct {
	Path     string `toml:"path"`
	AutoSave bool   `toml:"autosave"`
}

// ResizeConfig tunes the resize debounce window.
type ResizeConfig struct {
	DebounceMS int `toml:"debounce_ms"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout: LayoutConfig{
			HeaderHeight:  1,
			StatusHeight:  1,
			CommandHeight: 1,
		},
		Keys: KeysConfig{
			Toggle:   "Ctrl+G",
			Quit:     "Ctrl+Q",
			Edit:     "F2",
			Complete: "Tab",
		},
		Theme: ThemeConfig{
			Header:   "#87d7ff",
			Selected: "#ffd787",
			Status:   "#9e9e9e",
			Command:  "#d7d7d7",
		},
		Store: StoreConfig{
			Path:     "termtask.json",
			AutoSave: true,
		},
		Resize: ResizeConfig{
			DebounceMS: 150,
		},
	}
}

// Load reads the config file, overlaying it onto the defaults. A
// missing file is not an error.
func Load(path string) (Config, error) {
	return LoadFS(OSFS{}, path)
}

// LoadFS is Load with an injectable file system.
func LoadFS(fsys FileSystem, path string) (Config, error) {
	cfg := Default()

	data, err := fsys.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every value that has a parse step.
func (c Config) Validate() error {
	if c.Layout.HeaderHeight < 0 || c.Layout.StatusHeight < 0 || c.Layout.CommandHeight < 0 {
		return fmt.Errorf("layout heights must not be negative")
	}
	if c.Resize.DebounceMS < 0 {
		return fmt.Errorf("resize debounce_ms must not be negative")
	}

	chords := map[string]string{
		"keys.toggle":   c.Keys.Toggle,
		"keys.quit":     c.Keys.Quit,
		"keys.edit":     c.Keys.Edit,
		"keys.complete": c.Keys.Complete,
	}
	for name, spec := range chords {
		if _, err := key.Parse(spec); err != nil {
			return fmt.Errorf("%s %q: %w", name, spec, err)
		}
	}

	colors := map[string]string{
		"theme.header":   c.Theme.Header,
		"theme.selected": c.Theme.Selected,
		"theme.status":   c.Theme.Status,
		"theme.command":  c.Theme.Command,
	}
	for name, hex := range colors {
		if _, err := colorful.Hex(hex); err != nil {
			return fmt.Errorf("%s %q: %w", name, hex, err)
		}
	}
	return nil
}

// Bindings are the parsed key chords.
type Bindings struct {
	Toggle   key.Event
	Quit     key.Event
	Edit     key.Event
	Complete key.Event
}

// Bindings parses the configured chords. Call Validate (or Load,
// which validates) first; parse errors here mean an unvalidated
// Config was constructed by hand.
func (c Config) Bindings() (Bindings, error) {
	var b Bindings
	var err error
	if b.Toggle, err = key.Parse(c.Keys.Toggle); err != nil {
		return b, fmt.Errorf("keys.toggle: %w", err)
	}
	if b.Quit, err = key.Parse(c.Keys.Quit); err != nil {
		return b, fmt.Errorf("keys.quit: %w", err)
	}
	if b.Edit, err = key.Parse(c.Keys.Edit); err != nil {
		return b, fmt.Errorf("keys.edit: %w", err)
	}
	if b.Complete, err = key.Parse(c.Keys.Complete); err != nil {
		return b, fmt.Errorf("keys.complete: %w", err)
	}
	return b, nil
}

// Theme holds the resolved chrome styles.
type Theme struct {
	Header   screen.Style
	Selected screen.Style
	Status   screen.Style
	Command  screen.Style
}

// Styles resolves the hex theme into screen styles. Header is bold
// and Selected reversed so the grid reads at a glance even on
// terminals that approximate the colors.
func (c Config) Styles() (Theme, error) {
	var t Theme
	header, err := hexColor(c.Theme.Header)
	if err != nil {
		return t, fmt.Errorf("theme.header: %w", err)
	}
	selected, err := hexColor(c.Theme.Selected)
	if err != nil {
		return t, fmt.Errorf("theme.selected: %w", err)
	}
	status, err := hexColor(c.Theme.Status)
	if err != nil {
		return t, fmt.Errorf("theme.status: %w", err)
	}
	command, err := hexColor(c.Theme.Command)
	if err != nil {
		return t, fmt.Errorf("theme.command: %w", err)
	}

	t.Header = screen.Style{}.WithForeground(header).Bold()
	t.Selected = screen.Style{}.WithForeground(selected).Reverse()
	t.Status = screen.Style{}.WithForeground(status)
	t.Command = screen.Style{}.WithForeground(command)
	return t, nil
}

// Debounce returns the resize debounce window.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.Resize.DebounceMS) * time.Millisecond
}

// hexColor converts "#rrggbb" into a 24-bit screen color.
func hexColor(hex string) (screen.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return screen.Color{}, err
	}
	r, g, b := c.RGB255()
	return screen.RGB(r, g, b), nil
}
