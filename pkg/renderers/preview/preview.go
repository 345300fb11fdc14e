// Package preview renders a layout and its captured data as a single HTML
// page. It is a visual check of what a document renderer will receive, not a
// paginated report.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"k8s.io/klog/v2"

	"github.com/goliatone/go-reportgen/pkg/layout"
	"github.com/goliatone/go-reportgen/pkg/render"
	"github.com/goliatone/go-reportgen/pkg/render/template"
	"github.com/goliatone/go-reportgen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-reportgen/pkg/schema"
	"github.com/goliatone/go-reportgen/pkg/widgets"
)

const (
	// Name is the registry name of the preview renderer.
	Name = "preview"
	// StylesheetAsset is the theme asset key looked up for an external
	// stylesheet.
	StylesheetAsset = "preview.stylesheet"

	defaultEmptyText = "Not provided"
	reportTemplate   = "report"
)

// Option configures the preview renderer.
type Option func(*config)

type config struct {
	templateFS  fs.FS
	templates   template.TemplateRenderer
	emptyText   string
	inlineStyle bool
	widgets     *widgets.Registry
}

// WithTemplatesFS replaces the embedded templates. The FS must provide
// report.tmpl and the partials it includes.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templateFS = files
		}
	}
}

// WithTemplateRenderer supplies a ready engine instead of building one.
func WithTemplateRenderer(renderer template.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templates = renderer
		}
	}
}

// WithEmptyText sets the placeholder printed for fields without a value.
func WithEmptyText(text string) Option {
	return func(cfg *config) {
		cfg.emptyText = text
	}
}

// WithWidgets replaces the registry that picks the display widget of each
// entry.
func WithWidgets(reg *widgets.Registry) Option {
	return func(cfg *config) {
		if reg != nil {
			cfg.widgets = reg
		}
	}
}

// WithInlineStylesheet toggles inlining of the embedded stylesheet.
func WithInlineStylesheet(enabled bool) Option {
	return func(cfg *config) {
		cfg.inlineStyle = enabled
	}
}

// Renderer produces HTML previews.
type Renderer struct {
	templates  template.TemplateRenderer
	emptyText  string
	stylesheet string
	widgets    *widgets.Registry
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a Renderer backed by the embedded templates.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS:  TemplatesFS(),
		emptyText:   defaultEmptyText,
		inlineStyle: true,
		widgets:     widgets.NewRegistry(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	engine := cfg.templates
	if engine == nil {
		built, err := gotemplate.New(gotemplate.WithFS(cfg.templateFS))
		if err != nil {
			return nil, fmt.Errorf("preview: configure templates: %w", err)
		}
		engine = built
	}

	r := &Renderer{templates: engine, emptyText: cfg.emptyText, widgets: cfg.widgets}
	if cfg.inlineStyle {
		r.stylesheet = defaultStylesheet()
	}
	return r, nil
}

// Name implements render.Renderer.
func (r *Renderer) Name() string { return Name }

// ContentType implements render.Renderer.
func (r *Renderer) ContentType() string { return "text/html; charset=utf-8" }

// Render binds the layout to the data and executes the report template.
func (r *Renderer) Render(ctx context.Context, doc render.Document, opts render.RenderOptions) ([]byte, error) {
	if r == nil || r.templates == nil {
		return nil, errors.New("preview: renderer is not configured")
	}
	if doc.Template == nil {
		return nil, errors.New("preview: template is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bound := layout.Bind(doc.Layout, doc.Template, documentValues(doc), doc.State)
	bound = render.ApplySubset(bound, opts.Subset)
	fieldErrors := render.FieldErrors(doc.State, opts.Errors)
	displayed := r.widgets.Annotate(doc.Template)

	view := reportView{
		Title:      sanitizeText(titleOf(doc)),
		Meta:       doc.Layout.Meta,
		FormErrors: render.MergeFormErrors(nil, opts.FormErrors...),
		Theme:      themeViewOf(opts),
		Stylesheet: r.stylesheet,
		EmptyText:  r.emptyText,
	}
	for _, b := range bound {
		block := blockViewOf(b, fieldErrors, displayed)
		if !opts.ShowEmpty && block.Type != string(layout.BlockHeader) && len(b.Entries) == 0 {
			continue
		}
		view.Blocks = append(view.Blocks, block)
	}

	out, err := r.templates.RenderTemplate(reportTemplate, view)
	if err != nil {
		return nil, fmt.Errorf("preview: render %s: %w", doc.Template.ID, err)
	}
	klog.V(4).Infof("preview: rendered template %s with %d blocks", doc.Template.ID, len(view.Blocks))
	return []byte(out), nil
}

// documentValues overlays computed, pre-filled and default values from
// the state on top of the captured data.
func documentValues(doc render.Document) map[string]any {
	values := schema.CloneData(doc.Data)
	if values == nil {
		values = make(map[string]any)
	}
	for path, st := range doc.State {
		if st.Value != nil || st.Computed {
			values[path] = st.Value
		}
	}
	return values
}

func titleOf(doc render.Document) string {
	switch {
	case doc.Layout.Meta.TemplateName != "":
		return doc.Layout.Meta.TemplateName
	case doc.Template.Name != "":
		return doc.Template.Name
	default:
		return doc.Template.ID
	}
}

type reportView struct {
	Title      string      `json:"title"`
	Meta       layout.Meta `json:"meta"`
	Blocks     []blockView `json:"blocks"`
	FormErrors []string    `json:"form_errors,omitempty"`
	Theme      themeView   `json:"theme"`
	Stylesheet string      `json:"stylesheet,omitempty"`
	EmptyText  string      `json:"empty_text"`
}

type blockView struct {
	ID          string             `json:"id"`
	Type        string             `json:"type"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Columns     int                `json:"columns"`
	Header      *layout.HeaderInfo `json:"header,omitempty"`
	Entries     []entryView        `json:"entries,omitempty"`
	Signers     []signerView       `json:"signers,omitempty"`
}

type entryView struct {
	Path   string    `json:"path"`
	Label  string    `json:"label"`
	Type   string    `json:"type"`
	Widget string    `json:"widget"`
	Text   string    `json:"text"`
	Empty  bool      `json:"empty"`
	Refs   []refView `json:"refs,omitempty"`
	Errors []string  `json:"errors,omitempty"`
}

type refView struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

type signerView struct {
	Path   string `json:"path"`
	Label  string `json:"label"`
	Ref    string `json:"ref,omitempty"`
	URL    string `json:"url,omitempty"`
	Signed bool   `json:"signed"`
}

type themeView struct {
	Name          string `json:"name,omitempty"`
	Variant       string `json:"variant,omitempty"`
	Style         string `json:"style,omitempty"`
	StylesheetURL string `json:"stylesheet_url,omitempty"`
}

func blockViewOf(b layout.BoundBlock, fieldErrors map[string][]string, displayed map[string]string) blockView {
	view := blockView{
		ID:          b.Block.SectionID,
		Type:        string(b.Block.BlockType),
		Title:       sanitizeText(b.Block.Content.Title),
		Description: sanitizeMarkup(b.Block.Content.Description),
		Columns:     b.Block.Options.Columns,
		Header:      b.Block.Options.Header,
	}
	if view.Columns <= 0 {
		view.Columns = 1
	}

	byPath := make(map[string]layout.BoundEntry, len(b.Entries))
	for _, entry := range b.Entries {
		byPath[entry.Path] = entry
		ev := entryView{
			Path:   entry.Path,
			Label:  sanitizeText(entry.Label),
			Type:   string(entry.Type),
			Widget: widgetOf(displayed, entry.Path),
			Text:   sanitizeText(entry.Text),
			Empty:  strings.TrimSpace(entry.Text) == "",
			Errors: fieldErrors[entry.Path],
		}
		for _, ref := range entry.Refs {
			ev.Refs = append(ev.Refs, refView{ID: ref, URL: imageURL(ref)})
		}
		view.Entries = append(view.Entries, ev)
	}

	if b.Block.BlockType == layout.BlockSignatureBox {
		for _, signer := range b.Block.Options.Signers {
			entry, ok := byPath[signer.Path]
			if !ok {
				// hidden signers are left out of the document
				continue
			}
			sv := signerView{Path: signer.Path, Label: sanitizeText(signer.Label)}
			if len(entry.Refs) > 0 {
				sv.Ref = entry.Refs[0]
				sv.URL = imageURL(sv.Ref)
				sv.Signed = true
			}
			view.Signers = append(view.Signers, sv)
		}
	}
	return view
}

func widgetOf(displayed map[string]string, path string) string {
	if name, ok := displayed[path]; ok {
		return name
	}
	return widgets.WidgetText
}

// imageURL returns ref when it is an http(s) or root-relative URL that can
// be used as an image source.
func imageURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func themeViewOf(opts render.RenderOptions) themeView {
	cfg := opts.Theme
	if cfg == nil {
		return themeView{}
	}
	view := themeView{
		Name:    cfg.Theme,
		Variant: cfg.Variant,
		Style:   render.CSSVarsStyle(cfg.CSSVars),
	}
	if cfg.AssetURL != nil {
		view.StylesheetURL = cfg.AssetURL(StylesheetAsset)
	}
	return view
}
