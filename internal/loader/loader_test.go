package loader_test

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportgen/internal/loader"
	pkgloader "github.com/goliatone/go-reportgen/pkg/loader"
)

const doc = `template_name: Handover
version: 1
fields_schema:
  sections:
    - section_id: main
      name: Main
      fields:
        - field_id: signer
          type: signature
`

func TestLoadSources(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "handover.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ".yaml") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(doc))
	}))
	t.Cleanup(srv.Close)

	l := loader.New(pkgloader.NewOptions(
		pkgloader.WithFileSystem(fstest.MapFS{"templates/handover.yml": {Data: []byte(doc)}}),
		pkgloader.WithHTTPClient(srv.Client()),
	))

	sources := []pkgloader.Source{
		pkgloader.SourceFromFile(path),
		pkgloader.SourceFromFS("templates/handover.yml"),
		pkgloader.SourceFromURL(srv.URL + "/handover.yaml"),
	}
	var first any
	for _, src := range sources {
		tpl, err := l.LoadTemplate(ctx, src)
		if err != nil {
			t.Fatalf("LoadTemplate(%s): %v", src.Location(), err)
		}
		if tpl.Name != "Handover" || len(tpl.Sections) != 1 {
			t.Fatalf("unexpected template from %s: %+v", src.Location(), tpl)
		}
		if first == nil {
			first = tpl
			continue
		}
		if diff := cmp.Diff(first, any(tpl)); diff != "" {
			t.Fatalf("%s differs (-first +got):\n%s", src.Location(), diff)
		}
	}

	if _, err := l.Load(ctx, pkgloader.SourceFromURL(srv.URL+"/missing")); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestHTTPDisabledByDefault(t *testing.T) {
	t.Parallel()
	l := loader.New(pkgloader.NewOptions())
	_, err := l.Load(context.Background(), pkgloader.SourceFromURL("https://example.invalid/t.json"))
	if err == nil || !strings.Contains(err.Error(), "http support disabled") {
		t.Fatalf("expected disabled error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	l := loader.New(pkgloader.NewOptions())
	_, err := l.Load(context.Background(), pkgloader.SourceFromFile(filepath.Join(t.TempDir(), "nope.json")))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
