package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

const appName = "headlines"

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Database DatabaseConfig `mapstructure:"database"`
	UI       UIConfig       `mapstructure:"ui"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
}

// APIConfig describes the upstream top-headlines endpoint.
type APIConfig struct {
	Key         string        `mapstructure:"key"`
	BaseURL     string        `mapstructure:"base_url"`
	Country     string        `mapstructure:"country"`
	PageSize    int           `mapstructure:"page_size"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
}

type FeedConfig struct {
	DefaultCategory   string `mapstructure:"default_category"`
	PrefetchThreshold int    `mapstructure:"prefetch_threshold"`
	Dedupe            bool   `mapstructure:"dedupe"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

type UIConfig struct {
	Colors UIColors     `mapstructure:"colors"`
	Card   CardConfig   `mapstructure:"card"`
	Reader ReaderConfig `mapstructure:"reader"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Surface   string `mapstructure:"surface"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
	Progress  string `mapstructure:"progress"`
}

// CardConfig controls how a single headline is presented.
type CardConfig struct {
	TitleLength       int    `mapstructure:"title_length"`
	DescriptionLength int    `mapstructure:"description_length"`
	PlaceholderImage  string `mapstructure:"placeholder_image"`
	UnknownAuthor     string `mapstructure:"unknown_author"`
}

type ReaderConfig struct {
	WordWrapMaxWidth int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth int `mapstructure:"word_wrap_min_width"`
}

type BrowserConfig struct {
	Darwin        Openers `mapstructure:"darwin"`
	Linux         Openers `mapstructure:"linux"`
	Windows       Openers `mapstructure:"windows"`
	DefaultOpener string  `mapstructure:"default_opener"`
}

type Openers struct {
	Web   []string `mapstructure:"web"`
	Image []string `mapstructure:"image"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit      string `mapstructure:"quit"`
	Search    string `mapstructure:"search"`
	Saved     string `mapstructure:"saved"`
	Bookmark  string `mapstructure:"bookmark"`
	Retry     string `mapstructure:"retry"`
	Open      string `mapstructure:"open"`
	OpenImage string `mapstructure:"open_image"`
	Back      string `mapstructure:"back"`
	Help      string `mapstructure:"help"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "https://newsapi.org/v2",
			Country:     "us",
			PageSize:    6,
			HTTPTimeout: 30 * time.Second,
			UserAgent:   "headlines/1.0 (https://github.com/pders01/headlines)",
		},
		Feed: FeedConfig{
			DefaultCategory:   "general",
			PrefetchThreshold: 2,
		},
		Database: DatabaseConfig{
			Path:        filepath.Join(xdg.DataHome, appName, "headlines.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(xdg.DataHome, appName, "index.bleve"),
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#F11946",
				Secondary: "#4ECDC4",
				Accent:    "#95E1D3",
				Surface:   "#16213E",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Error:     "#F87171",
				Success:   "#4ADE80",
				Progress:  "#F11946",
			},
			Card: CardConfig{
				TitleLength:       45,
				DescriptionLength: 88,
				PlaceholderImage:  "https://placehold.co/600x400?text=No+Image",
				UnknownAuthor:     "Unknown",
			},
			Reader: ReaderConfig{
				WordWrapMaxWidth: 120,
				WordWrapMinWidth: 40,
			},
		},
		Browser: BrowserConfig{
			Darwin: Openers{
				Web:   []string{"open"},
				Image: []string{"preview", "open"},
			},
			Linux: Openers{
				Web:   []string{"xdg-open", "sensible-browser", "firefox"},
				Image: []string{"sxiv", "feh", "eog", "xdg-open"},
			},
			Windows: Openers{
				Web:   []string{"rundll32"},
				Image: []string{"rundll32"},
			},
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:      "q",
				Search:    "s",
				Saved:     "b",
				Bookmark:  "b",
				Retry:     "r",
				Open:      "o",
				OpenImage: "i",
				Back:      "esc",
				Help:      "?",
			},
		},
		Log: LogConfig{
			Level: "off",
			Path:  filepath.Join(xdg.StateHome, appName, "headlines.log"),
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "rundll32"
	default:
		return "xdg-open"
	}
}

// DefaultConfigPath is where GenerateDefaultConfig writes when no path is given.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// setDefaults registers every leaf key so that a partial config file or a
// single environment variable only overrides what it names.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.key", cfg.API.Key)
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.country", cfg.API.Country)
	v.SetDefault("api.page_size", cfg.API.PageSize)
	v.SetDefault("api.http_timeout", cfg.API.HTTPTimeout)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)

	v.SetDefault("feed.default_category", cfg.Feed.DefaultCategory)
	v.SetDefault("feed.prefetch_threshold", cfg.Feed.PrefetchThreshold)
	v.SetDefault("feed.dedupe", cfg.Feed.Dedupe)

	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)
	v.SetDefault("database.search_index", cfg.Database.SearchIndex)

	c := cfg.UI.Colors
	v.SetDefault("ui.colors.primary", c.Primary)
	v.SetDefault("ui.colors.secondary", c.Secondary)
	v.SetDefault("ui.colors.accent", c.Accent)
	v.SetDefault("ui.colors.surface", c.Surface)
	v.SetDefault("ui.colors.text", c.Text)
	v.SetDefault("ui.colors.muted", c.Muted)
	v.SetDefault("ui.colors.error", c.Error)
	v.SetDefault("ui.colors.success", c.Success)
	v.SetDefault("ui.colors.progress", c.Progress)
	v.SetDefault("ui.card.title_length", cfg.UI.Card.TitleLength)
	v.SetDefault("ui.card.description_length", cfg.UI.Card.DescriptionLength)
	v.SetDefault("ui.card.placeholder_image", cfg.UI.Card.PlaceholderImage)
	v.SetDefault("ui.card.unknown_author", cfg.UI.Card.UnknownAuthor)
	v.SetDefault("ui.reader.word_wrap_max_width", cfg.UI.Reader.WordWrapMaxWidth)
	v.SetDefault("ui.reader.word_wrap_min_width", cfg.UI.Reader.WordWrapMinWidth)

	v.SetDefault("browser.darwin.web", cfg.Browser.Darwin.Web)
	v.SetDefault("browser.darwin.image", cfg.Browser.Darwin.Image)
	v.SetDefault("browser.linux.web", cfg.Browser.Linux.Web)
	v.SetDefault("browser.linux.image", cfg.Browser.Linux.Image)
	v.SetDefault("browser.windows.web", cfg.Browser.Windows.Web)
	v.SetDefault("browser.windows.image", cfg.Browser.Windows.Image)
	v.SetDefault("browser.default_opener", cfg.Browser.DefaultOpener)

	v.SetDefault("keys.modifier", cfg.Keys.Modifier)
	b := cfg.Keys.Bindings
	v.SetDefault("keys.bindings.quit", b.Quit)
	v.SetDefault("keys.bindings.search", b.Search)
	v.SetDefault("keys.bindings.saved", b.Saved)
	v.SetDefault("keys.bindings.bookmark", b.Bookmark)
	v.SetDefault("keys.bindings.retry", b.Retry)
	v.SetDefault("keys.bindings.open", b.Open)
	v.SetDefault("keys.bindings.open_image", b.OpenImage)
	v.SetDefault("keys.bindings.back", b.Back)
	v.SetDefault("keys.bindings.help", b.Help)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.path", cfg.Log.Path)
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, appName))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("HEADLINES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api.key", "HEADLINES_API_KEY", "NEWS_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding api key env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.Path = expandPath(cfg.Log.Path)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations are written as strings for TOML readability
	apiCfg := map[string]interface{}{
		"key":          config.API.Key,
		"base_url":     config.API.BaseURL,
		"country":      config.API.Country,
		"page_size":    config.API.PageSize,
		"http_timeout": config.API.HTTPTimeout.String(),
		"user_agent":   config.API.UserAgent,
	}

	dbCfg := map[string]interface{}{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	}

	feedCfg := map[string]interface{}{
		"default_category":   config.Feed.DefaultCategory,
		"prefetch_threshold": config.Feed.PrefetchThreshold,
		"dedupe":             config.Feed.Dedupe,
	}

	c := config.UI.Colors
	uiCfg := map[string]interface{}{
		"colors": map[string]interface{}{
			"primary":   c.Primary,
			"secondary": c.Secondary,
			"accent":    c.Accent,
			"surface":   c.Surface,
			"text":      c.Text,
			"muted":     c.Muted,
			"error":     c.Error,
			"success":   c.Success,
			"progress":  c.Progress,
		},
		"card": map[string]interface{}{
			"title_length":       config.UI.Card.TitleLength,
			"description_length": config.UI.Card.DescriptionLength,
			"placeholder_image":  config.UI.Card.PlaceholderImage,
			"unknown_author":     config.UI.Card.UnknownAuthor,
		},
		"reader": map[string]interface{}{
			"word_wrap_max_width": config.UI.Reader.WordWrapMaxWidth,
			"word_wrap_min_width": config.UI.Reader.WordWrapMinWidth,
		},
	}

	openers := func(o Openers) map[string]interface{} {
		return map[string]interface{}{"web": o.Web, "image": o.Image}
	}
	browserCfg := map[string]interface{}{
		"darwin":         openers(config.Browser.Darwin),
		"linux":          openers(config.Browser.Linux),
		"windows":        openers(config.Browser.Windows),
		"default_opener": config.Browser.DefaultOpener,
	}

	b := config.Keys.Bindings
	keysCfg := map[string]interface{}{
		"modifier": config.Keys.Modifier,
		"bindings": map[string]interface{}{
			"quit":       b.Quit,
			"search":     b.Search,
			"saved":      b.Saved,
			"bookmark":   b.Bookmark,
			"retry":      b.Retry,
			"open":       b.Open,
			"open_image": b.OpenImage,
			"back":       b.Back,
			"help":       b.Help,
		},
	}

	logCfg := map[string]interface{}{
		"level": config.Log.Level,
		"path":  config.Log.Path,
	}

	v.Set("api", apiCfg)
	v.Set("feed", feedCfg)
	v.Set("database", dbCfg)
	v.Set("ui", uiCfg)
	v.Set("browser", browserCfg)
	v.Set("keys", keysCfg)
	v.Set("log", logCfg)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
