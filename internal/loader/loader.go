// Package loader implements pkg/loader.Loader over files, an fs.FS, and HTTP.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"k8s.io/klog/v2"

	pkgloader "github.com/goliatone/go-reportgen/pkg/loader"
	"github.com/goliatone/go-reportgen/pkg/schema"
)

// Loader dispatches on the source kind.
type Loader struct {
	fs        fs.FS
	http      *http.Client
	allowHTTP bool
	timeout   time.Duration
}

var _ pkgloader.Loader = (*Loader)(nil)

// New constructs a Loader from resolved options.
func New(options pkgloader.Options) *Loader {
	timeout := options.RequestTimeout

	var client *http.Client
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		client = &clone
	case options.AllowHTTP:
		client = &http.Client{Timeout: timeout}
	}

	return &Loader{
		fs:        options.FileSystem,
		http:      client,
		allowHTTP: client != nil,
		timeout:   timeout,
	}
}

// Load fetches the raw document.
func (l *Loader) Load(ctx context.Context, src pkgloader.Source) (pkgloader.Document, error) {
	if src == nil {
		return pkgloader.Document{}, errors.New("loader: source is nil")
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case pkgloader.SourceKindFile:
		data, err = loadFile(ctx, src.Location())
	case pkgloader.SourceKindFS:
		data, err = loadFromFS(ctx, l.fs, src.Location())
	case pkgloader.SourceKindURL:
		if !l.allowHTTP {
			return pkgloader.Document{}, errors.New("loader: http support disabled")
		}
		data, err = loadHTTP(ctx, l.http, src.Location(), l.timeout)
	default:
		err = fmt.Errorf("loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return pkgloader.Document{}, fmt.Errorf("loader: %s: %w", src.Location(), err)
	}
	klog.V(4).Infof("loader: read %d bytes from %s %s", len(data), src.Kind(), src.Location())
	return pkgloader.NewDocument(src, data)
}

// LoadTemplate loads and decodes a template document.
func (l *Loader) LoadTemplate(ctx context.Context, src pkgloader.Source) (schema.Template, error) {
	doc, err := l.Load(ctx, src)
	if err != nil {
		return schema.Template{}, err
	}
	return pkgloader.Decode(doc)
}
