// Package vanilla renders a template as a plain HTML data-entry form. The
// interpreter state drives which fields are shown, their current values,
// read-only computed fields and the messages printed next to each control.
package vanilla

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"k8s.io/klog/v2"

	"github.com/goliatone/go-reportgen/pkg/interpreter"
	"github.com/goliatone/go-reportgen/pkg/render"
	rendertemplate "github.com/goliatone/go-reportgen/pkg/render/template"
	gotemplate "github.com/goliatone/go-reportgen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-reportgen/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-reportgen/pkg/schema"
)

const (
	// Name is the registry name of the form renderer.
	Name = "vanilla"

	formTemplate       = "form"
	defaultSubmitLabel = "Save"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	components       *components.Registry
	overrides        map[string]string
	action           string
	method           string
	submitLabel      string
	inlineStyle      bool
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponentRegistry replaces the built-in component registry.
func WithComponentRegistry(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.components = registry
		}
	}
}

// WithComponentOverrides forces a component per field. Keys are field paths
// or bare field ids.
func WithComponentOverrides(overrides map[string]string) Option {
	return func(cfg *config) {
		if len(overrides) == 0 {
			return
		}
		if cfg.overrides == nil {
			cfg.overrides = make(map[string]string, len(overrides))
		}
		for key, name := range overrides {
			cfg.overrides[key] = name
		}
	}
}

// WithAction sets the form action and method. An empty method means POST.
func WithAction(action, method string) Option {
	return func(cfg *config) {
		cfg.action = strings.TrimSpace(action)
		if method = strings.TrimSpace(method); method != "" {
			cfg.method = strings.ToLower(method)
		}
	}
}

// WithSubmitLabel sets the text of the submit button.
func WithSubmitLabel(label string) Option {
	return func(cfg *config) {
		if label = strings.TrimSpace(label); label != "" {
			cfg.submitLabel = label
		}
	}
}

// WithInlineStylesheet toggles inlining of the embedded stylesheet.
func WithInlineStylesheet(enabled bool) Option {
	return func(cfg *config) {
		cfg.inlineStyle = enabled
	}
}

type Renderer struct {
	templates   rendertemplate.TemplateRenderer
	components  *components.Registry
	overrides   map[string]string
	action      string
	method      string
	submitLabel string
	stylesheet  string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS:  TemplatesFS(),
		method:      "post",
		submitLabel: defaultSubmitLabel,
		inlineStyle: true,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.components == nil {
		cfg.components = components.NewDefaultRegistry()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(cfg.templateFS))
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	r := &Renderer{
		templates:   renderer,
		components:  cfg.components,
		overrides:   cfg.overrides,
		action:      cfg.action,
		method:      cfg.method,
		submitLabel: cfg.submitLabel,
	}
	if cfg.inlineStyle {
		r.stylesheet = defaultStylesheet()
	}
	return r, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render emits the data-entry form for doc.Template. Field errors from the
// state are printed only once data has been captured, so a blank form does
// not open covered in required-field messages. Errors passed in options are
// always printed.
func (r *Renderer) Render(ctx context.Context, doc render.Document, opts render.RenderOptions) ([]byte, error) {
	if r == nil || r.templates == nil {
		return nil, errors.New("vanilla renderer: template renderer is nil")
	}
	if doc.Template == nil {
		return nil, errors.New("vanilla renderer: template is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state := doc.State
	if state == nil {
		computed, err := interpreter.ComputeFieldState(ctx, doc.Template, doc.Data)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: compute state: %w", err)
		}
		state = computed
	}

	stateErrors := state
	if len(doc.Data) == 0 {
		stateErrors = nil
	}
	fieldErrors := render.FieldErrors(stateErrors, opts.Errors)

	view := formView{
		Title:           titleOf(doc.Template),
		TemplateID:      doc.Template.ID,
		TemplateVersion: doc.Template.Version,
		Action:          r.action,
		Method:          r.method,
		SubmitLabel:     r.submitLabel,
		Stylesheet:      r.stylesheet,
		FormErrors:      render.MergeFormErrors(nil, opts.FormErrors...),
		Theme:           themeViewOf(opts),
	}

	used := make(map[string]struct{})
	for _, section := range doc.Template.Sections {
		sv := sectionView{
			ID:          section.ID,
			Title:       section.Label(),
			Description: sanitizeMarkup(section.Description),
		}
		for _, field := range section.Fields {
			path := section.ID + "." + field.ID
			fs, ok := state[path]
			if ok && fs.Degraded != nil {
				klog.V(4).Infof("vanilla renderer: skipping degraded field %s: %v", path, fs.Degraded)
				continue
			}
			fv, err := r.fieldView(path, field, fs, doc.Data[path], fieldErrors[path])
			if err != nil {
				return nil, fmt.Errorf("vanilla renderer: %w", err)
			}
			used[fv.Component] = struct{}{}
			sv.Fields = append(sv.Fields, fv)
		}
		view.Sections = append(view.Sections, sv)
	}
	view.Stylesheets = r.components.Stylesheets(sortedKeys(used))

	out, err := r.templates.RenderTemplate(formTemplate, view)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(out), nil
}

func (r *Renderer) fieldView(path string, field schema.Field, fs interpreter.FieldState, captured any, messages []string) (fieldView, error) {
	name := r.overrideFor(path, field.ID)
	if name == "" {
		name = componentFor(field)
	}
	descriptor, ok := r.components.Descriptor(name)
	if !ok {
		return fieldView{}, fmt.Errorf("component %q not registered for field %q", name, path)
	}

	current := captured
	if fs.Value != nil || fs.Computed {
		current = fs.Value
	}
	hidden := fs.Path != "" && !fs.Visible

	control := controlFor(path, field, current)
	control.Readonly = field.AutoCalculate
	if hidden {
		// hidden controls must not block submission
		control.Field.Required = false
	}

	var buf bytes.Buffer
	if err := descriptor.Renderer(&buf, control); err != nil {
		return fieldView{}, fmt.Errorf("render component %q for field %q: %w", name, path, err)
	}

	fv := fieldView{
		Path:      path,
		ControlID: control.ID(),
		Label:     field.Label(),
		Type:      string(field.Type),
		Component: descriptor.Name,
		Control:   buf.String(),
		Required:  field.Required,
		Computed:  field.AutoCalculate,
		Hidden:    hidden,
		Errors:    messages,
	}
	if field.AutoCalculate {
		fv.Formula = field.Formula
	}
	if field.ShowIf != nil {
		fv.ShowIfField = field.ShowIf.Field
		fv.ShowIfValue = formatValue(field.ShowIf.Value)
	}
	return fv, nil
}

func (r *Renderer) overrideFor(path, id string) string {
	if len(r.overrides) == 0 {
		return ""
	}
	if value := r.overrides[path]; value != "" {
		return value
	}
	return r.overrides[id]
}

type formView struct {
	Title           string        `json:"title"`
	TemplateID      string        `json:"template_id"`
	TemplateVersion int           `json:"template_version"`
	Action          string        `json:"action,omitempty"`
	Method          string        `json:"method"`
	SubmitLabel     string        `json:"submit_label"`
	Stylesheet      string        `json:"stylesheet,omitempty"`
	Stylesheets     []string      `json:"stylesheets,omitempty"`
	FormErrors      []string      `json:"form_errors,omitempty"`
	Theme           themeView     `json:"theme"`
	Sections        []sectionView `json:"sections"`
}

type sectionView struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Fields      []fieldView `json:"fields"`
}

type fieldView struct {
	Path        string   `json:"path"`
	ControlID   string   `json:"control_id"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Component   string   `json:"component"`
	Control     string   `json:"control"`
	Required    bool     `json:"required"`
	Computed    bool     `json:"computed"`
	Hidden      bool     `json:"hidden"`
	Formula     string   `json:"formula,omitempty"`
	ShowIfField string   `json:"show_if_field,omitempty"`
	ShowIfValue string   `json:"show_if_value,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

type themeView struct {
	Name    string `json:"name,omitempty"`
	Variant string `json:"variant,omitempty"`
	Style   string `json:"style,omitempty"`
}

func titleOf(t *schema.Template) string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}

func themeViewOf(opts render.RenderOptions) themeView {
	cfg := opts.Theme
	if cfg == nil {
		return themeView{}
	}
	return themeView{Name: cfg.Theme, Variant: cfg.Variant, Style: render.CSSVarsStyle(cfg.CSSVars)}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	slices.Sort(out)
	return out
}
