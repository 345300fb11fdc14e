package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"github.com/goliatone/go-reportgen"
	"github.com/goliatone/go-reportgen/internal/store/memory"
	"github.com/goliatone/go-reportgen/internal/store/sqlstore"
	"github.com/goliatone/go-reportgen/pkg/config"
	"github.com/goliatone/go-reportgen/pkg/layout"
	pkgloader "github.com/goliatone/go-reportgen/pkg/loader"
	"github.com/goliatone/go-reportgen/pkg/orchestrator"
	"github.com/goliatone/go-reportgen/pkg/schema"
	"github.com/goliatone/go-reportgen/pkg/store"
)

// environment holds what every command shares. The store is opened lazily
// so file-only commands never touch the database.
type environment struct {
	cfg    config.Config
	stdout io.Writer
	stdin  io.Reader
	db     store.Store
}

func newEnvironment(configPath string) (*environment, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return &environment{cfg: cfg, stdout: os.Stdout, stdin: os.Stdin}, nil
}

func (e *environment) Close() {
	if e.db == nil {
		return
	}
	if err := e.db.Close(); err != nil {
		klog.Errorf("close store: %v", err)
	}
}

func (e *environment) store() (store.Store, error) {
	if e.db != nil {
		return e.db, nil
	}
	switch strings.ToLower(e.cfg.Database.Type) {
	case "memory":
		e.db = memory.New()
	default:
		if e.cfg.Database.Type == "sqlite" {
			if err := ensureDir(e.cfg.Database.DSN); err != nil {
				return nil, err
			}
		}
		db, err := sqlstore.Open(e.cfg.Database.Type, e.cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		e.db = db
	}
	return e.db, nil
}

func (e *environment) loaderOptions() []pkgloader.Option {
	if e.cfg.Loader.AllowHTTP {
		return []pkgloader.Option{pkgloader.WithHTTP(e.cfg.Loader.Timeout)}
	}
	return nil
}

func (e *environment) layoutOptions() []layout.Option {
	return []layout.Option{
		layout.WithPhotoColumns(e.cfg.Layout.PhotoColumns),
		layout.WithSignatureTitle(e.cfg.Layout.SignatureTitle),
	}
}

func (e *environment) orchestrator(extra ...orchestrator.Option) *orchestrator.Orchestrator {
	opts := []orchestrator.Option{
		orchestrator.WithLoader(reportgen.NewLoader(e.loaderOptions()...)),
		orchestrator.WithLayoutOptions(e.layoutOptions()...),
		orchestrator.WithThemeSelector(orchestrator.DefaultThemes(), e.cfg.Theme.Name, e.cfg.Theme.Variant),
	}
	return orchestrator.New(append(opts, extra...)...)
}

func (e *environment) source(raw string) (pkgloader.Source, error) {
	location := strings.TrimSpace(raw)
	if location == "" {
		return nil, fmt.Errorf("template path is required")
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		if !e.cfg.Loader.AllowHTTP {
			return nil, fmt.Errorf("remote templates are disabled; set loader.allow_http")
		}
		return pkgloader.SourceFromURL(location), nil
	}
	return pkgloader.SourceFromFile(location), nil
}

func (e *environment) loadTemplate(ctx context.Context, raw string) (schema.Template, error) {
	src, err := e.source(raw)
	if err != nil {
		return schema.Template{}, err
	}
	return reportgen.LoadTemplate(ctx, src, e.loaderOptions()...)
}

// readData decodes a JSON or YAML captured data file. "-" reads stdin and an
// empty path yields no data.
func (e *environment) readData(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(e.stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read data %s: %w", path, err)
	}
	data := make(map[string]any)
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse data %s: %w", path, err)
	}
	return data, nil
}

func (e *environment) write(path string, out []byte) error {
	if path == "" {
		_, err := e.stdout.Write(out)
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(e.stdout, "Written to %s\n", path)
	return nil
}

func ensureDir(dsn string) error {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
