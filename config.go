package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/wricardo/gamemaps/catalog/loader"
)

// Config is read from the environment first; command-line flags override it.
type Config struct {
	Host string `env:"HOST" envDefault:"localhost"`
	Port int    `env:"PORT" envDefault:"8080"`

	// DataDir holds a catalog manifest and its dataset files. When empty the
	// catalog compiled into the binary is served and never reloaded.
	DataDir        string        `env:"DATA_DIR"`
	Manifest       string        `env:"MANIFEST" envDefault:"catalog.yaml"`
	ReloadInterval time.Duration `env:"RELOAD_INTERVAL" envDefault:"5s"`

	LogFile  string `env:"LOG_FILE"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Ngrok NgrokConfig `envPrefix:"NGROK_"`
}

// NgrokConfig controls the optional public tunnel.
type NgrokConfig struct {
	Enabled   bool   `env:"ENABLED"`
	AuthToken string `env:"AUTHTOKEN"`
	// Also accepted under the underscore spelling.
	AuthTokenAlt string `env:"AUTH_TOKEN"`
	Domain       string `env:"DOMAIN"`
}

// Token returns whichever auth token variable was set.
func (n NgrokConfig) Token() string {
	if n.AuthToken != "" {
		return n.AuthToken
	}
	return n.AuthTokenAlt
}

// Addr is the host:port the HTTP server binds.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// options are the flag-only settings that are not part of Config.
type options struct {
	mode    string
	version bool
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.Manifest == "" {
		cfg.Manifest = loader.DefaultManifest
	}
	return cfg, nil
}

// parseFlags applies command-line overrides to cfg. The first positional
// argument selects the mode.
func parseFlags(cfg *Config, args []string, output io.Writer) (options, error) {
	fs := flag.NewFlagSet(AppName, flag.ContinueOnError)
	fs.SetOutput(output)

	var debug bool
	var opts options
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "HTTP server host")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory containing a catalog manifest (default: built-in catalog)")
	fs.StringVar(&cfg.Manifest, "manifest", cfg.Manifest, "Manifest file name inside the data directory")
	fs.DurationVar(&cfg.ReloadInterval, "reload-interval", cfg.ReloadInterval, "How often a data directory is re-read")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Also write JSON logs to this rotating file")
	fs.BoolVar(&debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&opts.version, "version", false, "Show version information")
	fs.BoolVar(&cfg.Ngrok.Enabled, "ngrok", cfg.Ngrok.Enabled, "Enable ngrok tunnel")
	fs.StringVar(&cfg.Ngrok.AuthToken, "ngrok-auth", cfg.Ngrok.AuthToken, "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	fs.StringVar(&cfg.Ngrok.Domain, "ngrok-domain", cfg.Ngrok.Domain, "Custom ngrok domain (optional)")

	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: %s [OPTIONS] [MODE]\n\n", AppName)
		fmt.Fprintf(output, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(output, "Available modes:\n")
		fmt.Fprintf(output, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(output, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(output, "  mcp-stdio, mcp   Aliases for stdio-mcp\n")
		fmt.Fprintf(output, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if debug {
		cfg.LogLevel = "debug"
	}

	opts.mode = "server"
	if fs.NArg() > 0 {
		opts.mode = fs.Arg(0)
	}
	return opts, nil
}
