package loader

import (
	"context"
	"io/fs"
	"net/http"
	"time"
)

// Loader fetches template documents from files, an fs.FS, or HTTP.
type Loader interface {
	Load(ctx context.Context, src Source) (Document, error)
}

// Options configures how a Loader resolves sources. HTTP is off unless a
// client is supplied or AllowHTTP is set.
type Options struct {
	FileSystem     fs.FS
	HTTPClient     *http.Client
	AllowHTTP      bool
	RequestTimeout time.Duration
}

// Option mutates Options.
type Option func(*Options)

// WithFileSystem resolves SourceKindFS locations against files.
func WithFileSystem(files fs.FS) Option {
	return func(opts *Options) {
		opts.FileSystem = files
	}
}

// WithHTTPClient enables URL sources through client.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *Options) {
		opts.HTTPClient = client
	}
}

// WithHTTP enables URL sources with a default client and timeout.
func WithHTTP(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.AllowHTTP = true
		opts.RequestTimeout = timeout
	}
}

// NewOptions applies opts in order.
func NewOptions(opts ...Option) Options {
	cfg := Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
