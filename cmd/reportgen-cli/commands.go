package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-reportgen/pkg/catalog"
	"github.com/goliatone/go-reportgen/pkg/interpreter"
	"github.com/goliatone/go-reportgen/pkg/lifecycle"
	"github.com/goliatone/go-reportgen/pkg/openapi"
	"github.com/goliatone/go-reportgen/pkg/orchestrator"
	"github.com/goliatone/go-reportgen/pkg/render"
	"github.com/goliatone/go-reportgen/pkg/renderers/tui"
	"github.com/goliatone/go-reportgen/pkg/store"
	"github.com/goliatone/go-reportgen/pkg/validation"
)

var errInvalid = errors.New("one or more templates are invalid")

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func runValidate(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("validate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("at least one template path is required")
	}

	failed := false
	for _, path := range fs.Args() {
		t, err := env.loadTemplate(ctx, path)
		if err != nil {
			failed = true
			fmt.Fprintf(env.stdout, "%s: %v\n", path, err)
			continue
		}
		var schemaErr *validation.SchemaError
		switch err := validation.Validate(&t).Err(); {
		case err == nil:
			fmt.Fprintf(env.stdout, "%s: ok\n", path)
		case errors.As(err, &schemaErr):
			failed = true
			for _, issue := range schemaErr.Issues {
				fmt.Fprintf(env.stdout, "%s: %s\n", path, issue.String())
			}
		default:
			failed = true
			fmt.Fprintf(env.stdout, "%s: %v\n", path, err)
		}
	}
	if failed {
		return errInvalid
	}
	return nil
}

func runLayout(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("layout")
	output := fs.String("o", "", "output file (stdout if empty)")
	asYAML := fs.Bool("yaml", false, "emit YAML instead of JSON")
	save := fs.Bool("save", false, "store the layout for the template id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one template path is required")
	}
	src, err := env.source(fs.Arg(0))
	if err != nil {
		return err
	}

	var extra []orchestrator.Option
	if *save {
		db, err := env.store()
		if err != nil {
			return err
		}
		extra = append(extra, orchestrator.WithLayoutStore(db))
	}
	l, _, err := env.orchestrator(extra...).Layout(ctx, orchestrator.Request{Source: src})
	if err != nil {
		return err
	}
	out, err := encode(l, *asYAML)
	if err != nil {
		return err
	}
	return env.write(*output, out)
}

func runState(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("state")
	dataPath := fs.String("data", "", "captured data file, JSON or YAML (- for stdin)")
	subject := fs.String("subject", "", "contract id whose stored attributes pre-fill fields")
	asYAML := fs.Bool("yaml", false, "emit YAML instead of JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one template path is required")
	}
	src, err := env.source(fs.Arg(0))
	if err != nil {
		return err
	}
	data, err := env.readData(*dataPath)
	if err != nil {
		return err
	}
	req := orchestrator.Request{Source: src, Data: data}
	if *subject != "" {
		db, err := env.store()
		if err != nil {
			return err
		}
		req.Attributes = store.AttributeResolver(db, *subject)
	}

	result, err := env.orchestrator().Prepare(ctx, req)
	if err != nil {
		return err
	}
	fields := make([]interpreter.FieldState, 0, len(result.Paths))
	for _, path := range result.Paths {
		fields = append(fields, result.State[path])
	}
	out, err := encode(struct {
		Valid  bool                     `json:"valid" yaml:"valid"`
		Fields []interpreter.FieldState `json:"fields" yaml:"fields"`
		Data   map[string]any           `json:"data" yaml:"data"`
	}{result.Valid(), fields, result.Data}, *asYAML)
	if err != nil {
		return err
	}
	return env.write("", out)
}

func runFill(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("fill")
	dataPath := fs.String("data", "", "seed data file, JSON or YAML")
	format := fs.String("format", string(tui.OutputFormatJSON), "output format: json, yaml, or pretty")
	output := fs.String("o", "", "output file (stdout if empty)")
	subject := fs.String("subject", "", "contract id whose stored attributes pre-fill fields")
	record := fs.String("save", "", "store the captured data under this template id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one template path is required")
	}
	t, err := env.loadTemplate(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if err := validation.Validate(&t).Err(); err != nil {
		return err
	}
	seed, err := env.readData(*dataPath)
	if err != nil {
		return err
	}

	var opts []interpreter.Option
	if *subject != "" {
		db, err := env.store()
		if err != nil {
			return err
		}
		opts = append(opts, interpreter.WithAttributeResolver(store.AttributeResolver(db, *subject)))
	}
	session, err := interpreter.NewSession(ctx, interpreter.New(opts...), t, seed)
	if err != nil {
		return err
	}

	filler := tui.New(tui.WithOutputFormat(tui.OutputFormat(*format)))
	values, fillErr := filler.Fill(ctx, session)
	if fillErr != nil && !errors.Is(fillErr, tui.ErrIncomplete) {
		return fillErr
	}

	if *record != "" {
		db, err := env.store()
		if err != nil {
			return err
		}
		saved, err := db.SaveData(ctx, store.CapturedRecord{
			TemplateID:      *record,
			TemplateVersion: t.Version,
			Subject:         *subject,
			Data:            values,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(env.stdout, "Saved captured data %s\n", saved.ID)
	}

	out, err := filler.Serialize(session)
	if err != nil {
		return err
	}
	if err := env.write(*output, out); err != nil {
		return err
	}
	return fillErr
}

func runPreview(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("preview")
	dataPath := fs.String("data", "", "captured data file, JSON or YAML (- for stdin)")
	output := fs.String("o", "", "output file (stdout if empty)")
	themeName := fs.String("theme", "", "theme name (config default if empty)")
	variant := fs.String("variant", "", "theme variant (config default if empty)")
	sections := fs.String("sections", "", "comma separated block ids to render")
	showEmpty := fs.Bool("show-empty", false, "keep blocks without visible entries")
	renderer := fs.String("renderer", "", "renderer name: preview (default) or vanilla for a data-entry form")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one template path is required")
	}
	src, err := env.source(fs.Arg(0))
	if err != nil {
		return err
	}
	data, err := env.readData(*dataPath)
	if err != nil {
		return err
	}

	req := orchestrator.Request{
		Source:       src,
		Data:         data,
		Renderer:     *renderer,
		ThemeName:    *themeName,
		ThemeVariant: *variant,
		RenderOptions: render.RenderOptions{
			ShowEmpty: *showEmpty,
			Subset:    render.BlockSubset{Sections: splitList(*sections)},
		},
	}
	out, err := env.orchestrator().Generate(ctx, req)
	if err != nil {
		return err
	}
	return env.write(*output, out)
}

func runOpenAPI(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("openapi")
	server := fs.String("server", "", "server URL added to the document")
	base := fs.String("base", "", "base path of the captured data endpoints")
	asYAML := fs.Bool("yaml", false, "emit YAML instead of JSON")
	output := fs.String("o", "", "output file (stdout if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one template path is required")
	}
	t, err := env.loadTemplate(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	var opts []openapi.Option
	if *server != "" {
		opts = append(opts, openapi.WithServer(*server))
	}
	if *base != "" {
		opts = append(opts, openapi.WithBasePath(*base))
	}
	doc, err := openapi.Export(ctx, t, opts...)
	if err != nil {
		return err
	}
	out, err := openapi.Marshal(doc, *asYAML)
	if err != nil {
		return err
	}
	return env.write(*output, out)
}

func runImport(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("import")
	public := fs.Bool("public", false, "publish the template")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("at least one template path is required")
	}
	manager, err := env.lifecycle()
	if err != nil {
		return err
	}
	for _, path := range fs.Args() {
		t, err := env.loadTemplate(ctx, path)
		if err != nil {
			return err
		}
		entry, err := manager.Create(ctx, t)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if *public {
			if entry, err = manager.Publish(ctx, entry.Template.ID, true); err != nil {
				return err
			}
		}
		fmt.Fprintf(env.stdout, "%s -> %s (v%d)\n", path, entry.Template.ID, entry.Template.Version)
	}
	return nil
}

func runClone(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("clone")
	name := fs.String("name", "", "name of the copy (defaults to \"<name> (copy)\")")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one template id is required")
	}
	manager, err := env.lifecycle()
	if err != nil {
		return err
	}
	entry, err := manager.Clone(ctx, fs.Arg(0), *name)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "%s -> %s %q\n", fs.Arg(0), entry.Template.ID, entry.Template.Name)
	return nil
}

func runCatalog(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("catalog")
	industry := fs.String("industry", "", "only templates of this industry")
	category := fs.String("category", "", "only templates of this contract category")
	public := fs.Bool("public", false, "only published templates")
	limit := fs.Int("limit", 20, "maximum number of results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	db, err := env.store()
	if err != nil {
		return err
	}
	hits, err := catalog.New(db).Search(ctx, catalog.Query{
		Text:       strings.Join(fs.Args(), " "),
		Industry:   *industry,
		Category:   *category,
		PublicOnly: *public,
		Limit:      *limit,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(env.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVERSION\tINDUSTRY\tCATEGORY\tLOCKED")
	for _, hit := range hits {
		t := hit.Entry.Template
		fmt.Fprintf(w, "%s\t%s\tv%d\t%s\t%s\t%t\n", t.ID, t.Name, t.Version, t.Industry, t.Category, t.IsLocked)
	}
	return w.Flush()
}

func (e *environment) lifecycle() (*lifecycle.Manager, error) {
	db, err := e.store()
	if err != nil {
		return nil, err
	}
	return lifecycle.New(db, db), nil
}

func encode(v any, asYAML bool) ([]byte, error) {
	if asYAML {
		return yaml.Marshal(v)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
