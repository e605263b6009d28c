package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/newsapi"
	"github.com/pders01/headlines/internal/tui"
	"github.com/pders01/headlines/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	flagConfig   string
	flagRoute    string
	flagCategory string
	flagDB       string
	flagLogLevel string
	flagQuiet    bool
)

// cfg is loaded once per invocation by the root's pre-run hook.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "headlines",
	Short: "Top headlines in your terminal",
	Long: "headlines pages through the NewsAPI top-headlines endpoint by category, " +
		"with infinite scroll, bookmarks and search over saved stories.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runTUI,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "path to config file")
	pf.StringVar(&flagRoute, "route", "", "route to open, e.g. /science")
	pf.StringVar(&flagCategory, "category", "", "category to open, e.g. technology")
	pf.StringVar(&flagDB, "db", "", "path to database file (overrides config)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error, off")
	rootCmd.Flags().BoolVar(&flagQuiet, "quiet", false, "skip startup banner")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(fetchCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "headlines %s\n", Version)
		fmt.Fprintln(out, "Terminal news reader")
		fmt.Fprintln(out, "github.com/pders01/headlines")
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads .env, the config file and flag overrides, then starts
// the file logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading .env: %w", err)
	}

	loaded, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagDB != "" {
		loaded.Database.Path = flagDB
	}
	if flagLogLevel != "" {
		loaded.Log.Level = flagLogLevel
	}
	cfg = loaded

	level := debuglog.ParseLogLevel(cfg.Log.Level)
	if level == debuglog.LevelOff {
		return debuglog.Setup(level)
	}
	logPath, err := pathValidator(false).PrepareFile(cfg.Log.Path)
	if err != nil {
		return fmt.Errorf("log path: %w", err)
	}
	if err := debuglog.Setup(level, logPath); err != nil {
		return err
	}
	debuglog.Infof("headlines %s starting", Version)
	return nil
}

// selectedRoute returns the route or category requested on the command line.
func selectedRoute() (string, error) {
	name := flagRoute
	if name == "" {
		name = flagCategory
	}
	if name == "" {
		return "", nil
	}
	routes, err := tui.Routes()
	if err != nil {
		return "", err
	}
	if _, ok := tui.FindRoute(routes, name); !ok {
		return "", fmt.Errorf("unknown route %q (see `headlines categories`)", name)
	}
	return name, nil
}

func requireAPIKey(c *config.Config) error {
	if strings.TrimSpace(c.API.Key) == "" {
		return fmt.Errorf("no API key: set HEADLINES_API_KEY or NEWS_API_KEY, or api.key in %s", config.DefaultConfigPath())
	}
	return nil
}

// newClient validates the base URL and builds the API client. Loopback hosts
// may use plain http so tests and local mocks work.
func newClient(c *config.Config) (*newsapi.Client, error) {
	if err := requireAPIKey(c); err != nil {
		return nil, err
	}
	v := validation.NewURLValidator()
	if u, err := url.Parse(c.API.BaseURL); err == nil && isLoopback(u.Hostname()) {
		v = validation.NewPermissiveURLValidator()
	}
	base, err := v.ValidateBaseURL(c.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("api.base_url: %w", err)
	}
	api := c.API
	api.BaseURL = base
	return newsapi.NewClient(api), nil
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// pathValidator confines data paths to the XDG homes and $HOME. Paths given
// on the command line are trusted.
func pathValidator(fromFlag bool) *validation.PathValidator {
	if fromFlag {
		return validation.NewPermissivePathValidator()
	}
	v := validation.NewPathValidator("headlines")
	if home, err := os.UserHomeDir(); err == nil {
		v.AllowedBaseDirs = append(v.AllowedBaseDirs, home)
	}
	return v
}
