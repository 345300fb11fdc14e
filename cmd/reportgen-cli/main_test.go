package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-reportgen/internal/store/memory"
	"github.com/goliatone/go-reportgen/pkg/config"
)

const inspectionYAML = `
id: inspection
template_name: Inspection
industry: construction
fields_schema:
  sections:
    - section_id: main
      name: Main
      fields:
        - field_id: hours
          name: Hours
          type: number
        - field_id: rate
          name: Rate
          type: number
        - field_id: total
          name: Total
          type: number
          auto_calculate: true
          formula: main.hours * main.rate
`

func testEnv(t *testing.T) (*environment, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Database = config.DatabaseConfig{Type: "memory"}
	var out bytes.Buffer
	return &environment{cfg: cfg, stdout: &out, stdin: strings.NewReader("")}, &out
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestValidateCommand(t *testing.T) {
	env, out := testEnv(t)
	good := writeFile(t, "good.yaml", inspectionYAML)
	bad := writeFile(t, "bad.yaml", strings.Replace(inspectionYAML, "main.hours * main.rate", "main.missing * 2", 1))

	if err := runValidate(context.Background(), env, []string{good}); err != nil {
		t.Fatalf("validate good: %v", err)
	}
	if !strings.Contains(out.String(), "good.yaml: ok") {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := runValidate(context.Background(), env, []string{bad}); !errors.Is(err, errInvalid) {
		t.Fatalf("expected errInvalid, got %v", err)
	}
	if !strings.Contains(out.String(), "main.missing") {
		t.Fatalf("issue not reported: %q", out.String())
	}
}

func TestStateCommand(t *testing.T) {
	env, out := testEnv(t)
	tpl := writeFile(t, "inspection.yaml", inspectionYAML)
	data := writeFile(t, "data.json", `{"main.hours": 2, "main.rate": 30}`)

	if err := runState(context.Background(), env, []string{"-data", data, tpl}); err != nil {
		t.Fatalf("state: %v", err)
	}
	var got struct {
		Valid bool           `json:"valid"`
		Data  map[string]any `json:"data"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	if !got.Valid || got.Data["main.total"] != float64(60) {
		t.Fatalf("unexpected state %#v", got)
	}
}

func TestImportCloneAndCatalog(t *testing.T) {
	env, out := testEnv(t)
	ctx := context.Background()
	tpl := writeFile(t, "inspection.yaml", inspectionYAML)

	if err := runImport(ctx, env, []string{tpl}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := runClone(ctx, env, []string{"-name", "Inspection B", "inspection"}); err != nil {
		t.Fatalf("clone: %v", err)
	}

	out.Reset()
	if err := runCatalog(ctx, env, []string{"-industry", "construction", "inspection"}); err != nil {
		t.Fatalf("catalog: %v", err)
	}
	listing := out.String()
	if !strings.Contains(listing, "Inspection B") || !strings.Contains(listing, "inspection") {
		t.Fatalf("catalog listing incomplete:\n%s", listing)
	}
}

func TestPreviewCommandWritesFile(t *testing.T) {
	env, _ := testEnv(t)
	tpl := writeFile(t, "inspection.yaml", inspectionYAML)
	target := filepath.Join(t.TempDir(), "preview.html")

	if err := runPreview(context.Background(), env, []string{"-o", target, "-variant", "dark", tpl}); err != nil {
		t.Fatalf("preview: %v", err)
	}
	html, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read preview: %v", err)
	}
	if !strings.Contains(string(html), "<title>Inspection</title>") {
		t.Fatalf("unexpected preview:\n%s", html)
	}
}

func TestSourceRejectsRemoteWhenDisabled(t *testing.T) {
	env, _ := testEnv(t)
	if _, err := env.source("https://example.com/t.yaml"); err == nil {
		t.Fatal("expected remote sources to be refused")
	}
}

func TestPreviewCommandRendersForm(t *testing.T) {
	env, out := testEnv(t)
	tpl := writeFile(t, "inspection.yaml", inspectionYAML)

	if err := runPreview(context.Background(), env, []string{"-renderer", "vanilla", tpl}); err != nil {
		t.Fatalf("preview: %v", err)
	}
	html := out.String()
	if !strings.Contains(html, `name="main.hours"`) || !strings.Contains(html, `name="main.total" readonly`) {
		t.Fatalf("unexpected form:\n%s", html)
	}
}

type closeCounter struct {
	*memory.Store
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return c.Store.Close()
}

func TestRunClosesEnvironmentOnFailure(t *testing.T) {
	env, _ := testEnv(t)
	db := &closeCounter{Store: memory.New()}
	env.db = db
	open := func() (*environment, error) { return env, nil }

	var stderr bytes.Buffer
	if code := run(context.Background(), []string{"clone", "missing"}, open, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if db.closed != 1 {
		t.Fatalf("store closed %d times, want 1", db.closed)
	}
	if !strings.Contains(stderr.String(), "reportgen clone:") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
}

func TestRunExitCodes(t *testing.T) {
	env, _ := testEnv(t)
	open := func() (*environment, error) { return env, nil }
	good := writeFile(t, "good.yaml", inspectionYAML)

	var stderr bytes.Buffer
	if code := run(context.Background(), []string{"validate", good}, open, &stderr); code != 0 {
		t.Fatalf("validate exit code = %d, stderr %q", code, stderr.String())
	}
	if code := run(context.Background(), []string{"bogus"}, open, &stderr); code != 2 {
		t.Fatalf("unknown command exit code = %d, want 2", code)
	}

	failing := func() (*environment, error) { return nil, errors.New("bad config") }
	if code := run(context.Background(), []string{"validate", good}, failing, &stderr); code != 1 {
		t.Fatalf("config failure exit code = %d, want 1", code)
	}
}
