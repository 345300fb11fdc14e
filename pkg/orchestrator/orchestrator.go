package orchestrator

import (
	"context"
	"errors"
	"fmt"

	theme "github.com/goliatone/go-theme"
	"k8s.io/klog/v2"

	internalloader "github.com/goliatone/go-reportgen/internal/loader"
	"github.com/goliatone/go-reportgen/pkg/interpreter"
	"github.com/goliatone/go-reportgen/pkg/layout"
	pkgloader "github.com/goliatone/go-reportgen/pkg/loader"
	"github.com/goliatone/go-reportgen/pkg/render"
	"github.com/goliatone/go-reportgen/pkg/renderers/preview"
	"github.com/goliatone/go-reportgen/pkg/renderers/vanilla"
	"github.com/goliatone/go-reportgen/pkg/schema"
	"github.com/goliatone/go-reportgen/pkg/store"
	"github.com/goliatone/go-reportgen/pkg/validation"
)

const defaultRendererName = preview.Name

// Option customises the orchestrator.
type Option func(*Orchestrator)

// WithLoader replaces the default file/fs loader.
func WithLoader(loader pkgloader.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithInterpreterOptions configures the interpreter built for every request.
func WithInterpreterOptions(opts ...interpreter.Option) Option {
	return func(o *Orchestrator) {
		o.interpreterOpts = append(o.interpreterOpts, opts...)
	}
}

// WithLayoutOptions configures layout generation.
func WithLayoutOptions(opts ...layout.Option) Option {
	return func(o *Orchestrator) {
		o.layoutOpts = append(o.layoutOpts, opts...)
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer names the renderer used when a request leaves
// Renderer empty.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithTemplateStore lets requests refer to templates by id.
func WithTemplateStore(templates store.TemplateStore) Option {
	return func(o *Orchestrator) {
		o.templates = templates
	}
}

// WithLayoutStore reuses stored layouts that match the template version and
// saves freshly generated ones.
func WithLayoutStore(layouts store.LayoutStore) Option {
	return func(o *Orchestrator) {
		o.layouts = layouts
	}
}

// WithTransformers registers layout transformers, applied in order.
func WithTransformers(transformers ...Transformer) Option {
	return func(o *Orchestrator) {
		for _, t := range transformers {
			if t != nil {
				o.transformers = append(o.transformers, t)
			}
		}
	}
}

// WithThemeSelector resolves themes through selector. defaultTheme and
// defaultVariant apply when a request names none.
func WithThemeSelector(selector theme.ThemeSelector, defaultTheme, defaultVariant string) Option {
	return func(o *Orchestrator) {
		o.themes = selector
		o.themeName = defaultTheme
		o.themeVariant = defaultVariant
	}
}

// Orchestrator runs the report pipeline.
type Orchestrator struct {
	loader          pkgloader.Loader
	interpreterOpts []interpreter.Option
	layoutOpts      []layout.Option
	registry        *render.Registry
	defaultRenderer string
	templates       store.TemplateStore
	layouts         store.LayoutStore
	transformers    []Transformer
	themes          theme.ThemeSelector
	themeName       string
	themeVariant    string
	initialiseErr   error
}

// New constructs an Orchestrator. Without options it loads templates from
// files and renders HTML previews.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{defaultRenderer: defaultRendererName}
	for _, opt := range options {
		if opt != nil {
			opt(o)
		}
	}
	o.applyDefaults()
	return o
}

// Request names a template and the data to interpret against it. Exactly one
// of Template, TemplateID, or Source is consulted, in that order.
type Request struct {
	Template   *schema.Template
	TemplateID string
	Source     pkgloader.Source

	// Data is the captured data. It is never modified.
	Data map[string]any
	// Attributes resolves pre-fill references for this request only.
	Attributes interpreter.AttributeResolver
	// Layout skips generation, for example to render a hand-edited layout.
	Layout *layout.Layout

	Renderer      string
	ThemeName     string
	ThemeVariant  string
	RenderOptions render.RenderOptions
}

// Result carries every derived artifact of a request.
type Result struct {
	Template    schema.Template
	Layout      layout.Layout
	State       interpreter.State
	Data        map[string]any
	Paths       []string
	Output      []byte
	ContentType string
}

// Valid reports whether every visible field passed validation.
func (r *Result) Valid() bool {
	return r != nil && r.State.Valid()
}

// ResolveTemplate returns the validated template named by req.
func (o *Orchestrator) ResolveTemplate(ctx context.Context, req Request) (schema.Template, error) {
	if err := o.ready(ctx); err != nil {
		return schema.Template{}, err
	}

	var t schema.Template
	switch {
	case req.Template != nil:
		t = req.Template.Clone()
	case req.TemplateID != "":
		if o.templates == nil {
			return schema.Template{}, errors.New("orchestrator: template store is not configured")
		}
		entry, err := o.templates.GetTemplate(ctx, req.TemplateID)
		if err != nil {
			return schema.Template{}, fmt.Errorf("orchestrator: get template %s: %w", req.TemplateID, err)
		}
		t = entry.Template
	case req.Source != nil:
		doc, err := o.loader.Load(ctx, req.Source)
		if err != nil {
			return schema.Template{}, fmt.Errorf("orchestrator: load template: %w", err)
		}
		t, err = pkgloader.Decode(doc)
		if err != nil {
			return schema.Template{}, fmt.Errorf("orchestrator: %s: %w", doc.Location(), err)
		}
	default:
		return schema.Template{}, errors.New("orchestrator: template, template id, or source is required")
	}

	if err := validation.Validate(&t).Err(); err != nil {
		return schema.Template{}, fmt.Errorf("orchestrator: template %s: %w", t.ID, err)
	}
	return t, nil
}

// Layout returns the layout for req's template: req.Layout, a stored layout
// generated from the same template version, or a fresh one. Fresh layouts are
// saved when a layout store is configured. Transformers run last.
func (o *Orchestrator) Layout(ctx context.Context, req Request) (layout.Layout, schema.Template, error) {
	t, err := o.ResolveTemplate(ctx, req)
	if err != nil {
		return layout.Layout{}, schema.Template{}, err
	}
	l, err := o.layoutFor(ctx, req, &t)
	if err != nil {
		return layout.Layout{}, schema.Template{}, err
	}
	return l, t, nil
}

func (o *Orchestrator) layoutFor(ctx context.Context, req Request, t *schema.Template) (layout.Layout, error) {
	var (
		l     layout.Layout
		found bool
	)
	switch {
	case req.Layout != nil:
		l, found = *req.Layout, true
	case o.layouts != nil && t.ID != "":
		stored, err := o.layouts.LoadLayout(ctx, t.ID)
		switch {
		case err == nil && stored.Meta.TemplateVersion == t.Version:
			l, found = stored, true
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return layout.Layout{}, fmt.Errorf("orchestrator: load layout %s: %w", t.ID, err)
		}
	}

	if !found {
		generated, err := layout.Generate(t, o.layoutOpts...)
		if err != nil {
			return layout.Layout{}, fmt.Errorf("orchestrator: generate layout: %w", err)
		}
		l = generated
		if o.layouts != nil && t.ID != "" {
			if err := o.layouts.SaveLayout(ctx, t.ID, l); err != nil {
				return layout.Layout{}, fmt.Errorf("orchestrator: save layout %s: %w", t.ID, err)
			}
			klog.V(4).Infof("orchestrator: stored layout for %s v%d", t.ID, t.Version)
		}
	}

	l = l.Clone()
	for _, transformer := range o.transformers {
		if err := transformer.Transform(ctx, t, &l); err != nil {
			return layout.Layout{}, fmt.Errorf("orchestrator: transform layout: %w", err)
		}
	}
	return l, nil
}

// Prepare resolves the template, interprets the data, and builds the layout
// without rendering.
func (o *Orchestrator) Prepare(ctx context.Context, req Request) (*Result, error) {
	t, err := o.ResolveTemplate(ctx, req)
	if err != nil {
		return nil, err
	}

	opts := o.interpreterOpts
	if req.Attributes != nil {
		opts = append(append([]interpreter.Option(nil), opts...), interpreter.WithAttributeResolver(req.Attributes))
	}
	computation, err := interpreter.New(opts...).Compute(ctx, &t, req.Data)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: compute field state: %w", err)
	}

	l, err := o.layoutFor(ctx, req, &t)
	if err != nil {
		return nil, err
	}

	return &Result{
		Template: t,
		Layout:   l,
		State:    computation.Fields,
		Data:     computation.Data,
		Paths:    computation.Paths,
	}, nil
}

// Render runs the full pipeline and returns every artifact including the
// rendered output.
func (o *Orchestrator) Render(ctx context.Context, req Request) (*Result, error) {
	result, err := o.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	options := req.RenderOptions
	if options.Theme == nil {
		cfg, err := o.themeConfig(req.ThemeName, req.ThemeVariant)
		if err != nil {
			return nil, err
		}
		options.Theme = cfg
	}

	doc := render.Document{
		Template: &result.Template,
		Layout:   result.Layout,
		Data:     result.Data,
		State:    result.State,
	}
	output, err := renderer.Render(ctx, doc, options)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	result.Output = output
	result.ContentType = renderer.ContentType()
	return result, nil
}

// Generate is Render returning only the output bytes.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	result, err := o.Render(ctx, req)
	if err != nil {
		return nil, err
	}
	return result.Output, nil
}

func (o *Orchestrator) ready(ctx context.Context) error {
	if ctx == nil {
		return errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return o.initialiseErr
}

func (o *Orchestrator) themeConfig(name, variant string) (*theme.RendererConfig, error) {
	if o.themes == nil {
		return nil, nil
	}
	if name == "" {
		name = o.themeName
	}
	if variant == "" {
		variant = o.themeVariant
	}
	selection, err := o.themes.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: select theme %q: %w", name, err)
	}
	return RendererConfig(selection), nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}
	target := name
	if target == "" {
		target = o.defaultRenderer
	}
	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}
	return o.registry.Get(names[0])
}

func (o *Orchestrator) applyDefaults() {
	if o.loader == nil {
		o.loader = internalloader.New(pkgloader.NewOptions())
	}
	if o.registry == nil {
		o.registry = render.NewRegistry()
		previewRenderer, err := preview.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
			return
		}
		o.registry.MustRegister(previewRenderer)
		formRenderer, err := vanilla.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: form renderer: %w", err)
			return
		}
		o.registry.MustRegister(formRenderer)
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
}
