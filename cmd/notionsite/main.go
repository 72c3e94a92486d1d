package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/eringen/notionsite"
	"github.com/eringen/notionsite/internal/logfields"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultConfigPath = "site.yaml"

// CLI is the root command. Global flags apply to every subcommand.
type CLI struct {
	Config  string           `short:"c" help:"Site configuration file" default:"site.yaml"`
	Verbose bool             `short:"v" help:"Enable debug logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve  ServeCmd  `cmd:"" default:"1" help:"Serve the site over HTTP"`
	Render RenderCmd `cmd:"" help:"Render one page to static HTML"`
	Init   InitCmd   `cmd:"" help:"Create a new notionsite project"`
}

// AfterApply sets up logging once flags are parsed.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig reads the configuration file. A missing default file is not an
// error: the site is then configured from the environment alone.
func (c *CLI) loadConfig() (notionsite.SiteConfig, error) {
	path := c.Config
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath {
		slog.Debug("no config file, using environment", logfields.Path(path))
		path = ""
	}
	return notionsite.LoadConfig(path)
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("notionsite"),
		kong.Description("Serve a website from public Notion pages."),
		kong.UsageOnError(),
		kong.Vars{"version": "notionsite " + version},
	)
	if err := ctx.Run(&cli); err != nil {
		slog.Error("command failed", slog.String("command", ctx.Command()), logfields.Error(err))
		os.Exit(1)
	}
}
