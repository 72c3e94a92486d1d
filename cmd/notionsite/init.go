package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/eringen/notionsite/internal/logfields"
	"github.com/eringen/notionsite/notion"
	"github.com/eringen/notionsite/scaffold"
)

// InitCmd creates a project that embeds notionsite.
type InitCmd struct {
	Name     string `arg:"" help:"Project directory or Go module path"`
	RootPage string `help:"Notion root page id or URL" placeholder:"ID"`
	Domain   string `help:"Public domain of the site" default:"localhost:3000"`
	SkipTidy bool   `help:"Do not run go mod tidy in the new project"`
}

// scaffoldData holds the template variables passed to every scaffold template.
type scaffoldData struct {
	ProjectName string
	ModuleName  string
	SiteName    string
	Domain      string
	RootPageID  string
	Version     string
}

func (i *InitCmd) Run(_ *CLI) error {
	// Derive project directory name from the last path segment.
	dirName := i.Name
	if idx := strings.LastIndex(i.Name, "/"); idx >= 0 {
		dirName = i.Name[idx+1:]
	}
	if dirName == "" {
		return fmt.Errorf("invalid project name %q", i.Name)
	}
	if _, err := os.Stat(dirName); err == nil {
		return fmt.Errorf("directory %q already exists", dirName)
	}

	rootID := ""
	if i.RootPage != "" {
		if rootID = notion.ParsePageID(i.RootPage); rootID == "" {
			return fmt.Errorf("invalid Notion page %q", i.RootPage)
		}
		rootID = notion.NormalizeID(rootID)
	}

	data := scaffoldData{
		ProjectName: dirName,
		ModuleName:  i.Name,
		SiteName:    toTitle(dirName),
		Domain:      i.Domain,
		RootPageID:  rootID,
		Version:     version,
	}

	slog.Info("creating project", logfields.Path(dirName))
	if err := writeScaffold(dirName, data); err != nil {
		return err
	}

	if !i.SkipTidy {
		tidy := exec.Command("go", "mod", "tidy")
		tidy.Dir = dirName
		tidy.Stdout = os.Stdout
		tidy.Stderr = os.Stderr
		if err := tidy.Run(); err != nil {
			slog.Warn("go mod tidy failed; run it manually", logfields.Path(dirName), logfields.Error(err))
		}
	}

	fmt.Println()
	fmt.Println("Done! Next steps:")
	fmt.Println()
	fmt.Printf("  cd %s\n", dirName)
	fmt.Println("  cp .env.example .env")
	fmt.Println("  go run .")
	fmt.Println()
	if rootID == "" {
		fmt.Println("Set site.root_notion_page_id in site.yaml to your public Notion page.")
	}
	fmt.Println("Set ADMIN_PASSWORD and ADMIN_SESSION_SECRET in .env for production.")
	return nil
}

// writeScaffold executes every scaffold template into dir. The .tmpl suffix
// is stripped and dotenv becomes .env.example.
func writeScaffold(dir string, data scaffoldData) error {
	const root = "templates"
	return fs.WalkDir(scaffold.Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		outPath := strings.TrimSuffix(filepath.Join(dir, relPath), ".tmpl")
		if filepath.Base(outPath) == "dotenv" {
			outPath = filepath.Join(filepath.Dir(outPath), ".env.example")
		}
		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}

		content, err := scaffold.Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}
		slog.Debug("created", logfields.Path(outPath))
		return nil
	})
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-site" -> "My Site", "mysite" -> "Mysite"
func toTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
