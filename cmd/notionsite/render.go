package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/eringen/notionsite"
	"github.com/eringen/notionsite/internal/logfields"
	"github.com/eringen/notionsite/page"
)

// RenderCmd writes the HTML document of one page.
type RenderCmd struct {
	Page   string `arg:"" optional:"" help:"Page id or URL path (default: the root page)"`
	Output string `short:"o" help:"Output file (default: stdout)"`
	Lite   bool   `help:"Render the lite variant"`
}

func (r *RenderCmd) Run(root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	pageID := r.Page
	if pageID == "" {
		pageID = cfg.Site.RootNotionPageID
	}

	var w io.Writer = os.Stdout
	if r.Output != "" {
		if err := os.MkdirAll(filepath.Dir(r.Output), 0o755); err != nil {
			return err
		}
		f, err := os.Create(r.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)

	query := url.Values{}
	if r.Lite {
		query.Set("lite", "true")
	}

	app := notionsite.New(cfg, notionsite.ViewFuncs{})
	state, err := app.RenderPage(context.Background(), pageID, query, bw)
	if err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if state != page.StateReady {
		return fmt.Errorf("page %s is %s", pageID, state)
	}
	if r.Output != "" {
		slog.Info("page rendered", logfields.PageID(pageID), logfields.Path(r.Output))
	}
	return nil
}
