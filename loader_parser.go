package reportgen

import (
	"context"

	internalloader "github.com/goliatone/go-reportgen/internal/loader"
	pkgloader "github.com/goliatone/go-reportgen/pkg/loader"
	"github.com/goliatone/go-reportgen/pkg/schema"
)

// NewLoader constructs a loader using the internal implementation while
// keeping the concrete type hidden from consumers.
func NewLoader(options ...pkgloader.Option) pkgloader.Loader {
	return internalloader.New(pkgloader.NewOptions(options...))
}

// LoadTemplate loads and decodes the template at src.
func LoadTemplate(ctx context.Context, src pkgloader.Source, options ...pkgloader.Option) (schema.Template, error) {
	return internalloader.New(pkgloader.NewOptions(options...)).LoadTemplate(ctx, src)
}
