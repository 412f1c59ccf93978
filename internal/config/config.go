// Package config handles configuration management using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Input   InputConfig   `mapstructure:"input"`
	Waybar  WaybarConfig  `mapstructure:"waybar"`
	Output  map[string]OutputRule `mapstructure:"output"`
	Window  WindowConfig  `mapstructure:"window"`
	Logging LoggingConfig `mapstructure:"logging"`

	// Keybindings maps a modifier combination ("super", "super+shift",
	// "none") to key -> action. The action value is a string or a list of
	// strings; internal/binds parses it.
	Keybindings map[string]map[string]interface{} `mapstructure:"keybindings"`
}

// InputConfig groups input device settings.
type InputConfig struct {
	Keyboard KeyboardConfig `mapstructure:"keyboard"`
}

// KeyboardConfig carries xkb rule names forwarded to the compositor.
type KeyboardConfig struct {
	Layout  string `mapstructure:"layout"`
	Variant string `mapstructure:"variant"`
	Options string `mapstructure:"options"`
	Model   string `mapstructure:"model"`
	Numlock bool   `mapstructure:"numlock"`
}

// WaybarConfig controls the status broadcast sent to bars.
type WaybarConfig struct {
	TagIcons      []string `mapstructure:"tag_icons"`
	FocusedStyle  string   `mapstructure:"focused_style"`
	OccupiedStyle string   `mapstructure:"occupied_style"`
	EmptyStyle    string   `mapstructure:"empty_style"`
}

// OutputRule configures one output by name.
type OutputRule struct {
	FocusAtStartup bool    `mapstructure:"focus_at_startup"`
	Mode           string  `mapstructure:"mode"`     // "2560x1440@144", refresh optional
	Scale          float64 `mapstructure:"scale"`    // 0 means 1.0
	Transform      string  `mapstructure:"transform"` // "90", "270", "flipped-90", ...
	Position       string  `mapstructure:"position"` // "x,y"; empty means auto left-to-right
}

// WindowConfig controls tiling appearance.
type WindowConfig struct {
	SmartBorders bool         `mapstructure:"smart_borders"`
	Gaps         int          `mapstructure:"gaps"`
	Active       ActiveWindow `mapstructure:"active"`
}

// ActiveWindow holds the focused-window style.
type ActiveWindow struct {
	Border BorderConfig `mapstructure:"border"`
}

// BorderConfig is a border width and color.
type BorderConfig struct {
	Width int    `mapstructure:"width"`
	Color string `mapstructure:"color"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Input: InputConfig{
			Keyboard: KeyboardConfig{Layout: "us"},
		},
		Waybar: WaybarConfig{
			FocusedStyle:  "focused",
			OccupiedStyle: "occupied",
			EmptyStyle:    "empty",
		},
		Window: WindowConfig{
			SmartBorders: true,
			Gaps:         4,
			Active: ActiveWindow{
				Border: BorderConfig{Width: 2, Color: "#bd93f9"},
			},
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("riverbsp")
	v.SetConfigType("toml")

	if configPathOverride != "" {
		v.SetConfigFile(configPathOverride)
	} else {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "riverbsp"))
		} else if home := os.Getenv("HOME"); home != "" {
			v.AddConfigPath(filepath.Join(home, ".config", "riverbsp"))
		}
		v.AddConfigPath(".") // Current directory (lowest priority)
	}

	v.SetDefault("input.keyboard.layout", DefaultConfig.Input.Keyboard.Layout)
	v.SetDefault("input.keyboard.variant", "")
	v.SetDefault("input.keyboard.options", "")
	v.SetDefault("input.keyboard.model", "")
	v.SetDefault("input.keyboard.numlock", false)

	v.SetDefault("waybar.tag_icons", []string{})
	v.SetDefault("waybar.focused_style", DefaultConfig.Waybar.FocusedStyle)
	v.SetDefault("waybar.occupied_style", DefaultConfig.Waybar.OccupiedStyle)
	v.SetDefault("waybar.empty_style", DefaultConfig.Waybar.EmptyStyle)

	v.SetDefault("window.smart_borders", DefaultConfig.Window.SmartBorders)
	v.SetDefault("window.gaps", DefaultConfig.Window.Gaps)
	v.SetDefault("window.active.border.width", DefaultConfig.Window.Active.Border.Width)
	v.SetDefault("window.active.border.color", DefaultConfig.Window.Active.Border.Color)

	v.SetDefault("logging.log_level", "")

	return v
}

// Load reads and validates a fresh configuration. Nothing global changes on
// failure, which makes reload all-or-nothing.
func Load() (*Config, error) {
	v := newViper()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file is fine; defaults apply.
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Init loads the configuration into the global instance.
func Init() error {
	c, err := Load()
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Get returns the current configuration, initializing defaults if needed.
func Get() *Config {
	if cfg == nil {
		c := DefaultConfig
		cfg = &c
	}
	return cfg
}

// Set replaces the global configuration, used after a successful reload.
func Set(c *Config) {
	cfg = c
}

// ConfigFilePath returns the file a watcher should follow: the explicit
// override, or the first candidate in the search path.
func ConfigFilePath() string {
	if configPathOverride != "" {
		return configPathOverride
	}
	v := newViper()
	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}
	return ""
}

// RuleFor returns the output rule matching the given output name. Viper
// lowercases TOML table keys, so the match is case-insensitive.
func (c *Config) RuleFor(name string) (OutputRule, bool) {
	for key, rule := range c.Output {
		if strings.EqualFold(key, name) {
			return rule, true
		}
	}
	return OutputRule{}, false
}

// Validate rejects configurations that cannot be applied.
func (c *Config) Validate() error {
	if c.Window.Gaps < 0 {
		return fmt.Errorf("window.gaps must not be negative, got %d", c.Window.Gaps)
	}
	if c.Window.Active.Border.Width < 0 {
		return fmt.Errorf("window.active.border.width must not be negative, got %d", c.Window.Active.Border.Width)
	}
	if len(c.Waybar.TagIcons) > 32 {
		return fmt.Errorf("waybar.tag_icons lists %d icons, at most 32 tags exist", len(c.Waybar.TagIcons))
	}
	for name, rule := range c.Output {
		if rule.Scale < 0 {
			return fmt.Errorf("output.%s.scale must not be negative", name)
		}
	}
	return nil
}
