package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-reportgen/pkg/interpreter"
	"github.com/goliatone/go-reportgen/pkg/schema"
)

// AttributeResolver adapts an AttributeStore into the interpreter's pre-fill
// resolver for one subject. Attributes are fetched once per resolver.
func AttributeResolver(src AttributeStore, subject string) interpreter.AttributeResolver {
	r := &attributeResolver{src: src, subject: subject}
	return r
}

type attributeResolver struct {
	src     AttributeStore
	subject string
	cache   map[string]any
	loaded  bool
}

func (r *attributeResolver) Resolve(ctx context.Context, ref schema.AttributeRef) (any, bool, error) {
	if r.src == nil || r.subject == "" {
		return nil, false, nil
	}
	if !r.loaded {
		attrs, err := r.src.Attributes(ctx, r.subject)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, false, fmt.Errorf("store: attributes of %s: %w", r.subject, err)
		}
		r.cache = attrs
		r.loaded = true
	}
	v, ok := LookupAttribute(r.cache, string(ref))
	return v, ok, nil
}

// LookupAttribute finds ref in attrs. A flat key wins; otherwise the ref is
// treated as a dotted path into nested maps.
func LookupAttribute(attrs map[string]any, ref string) (any, bool) {
	if attrs == nil || ref == "" {
		return nil, false
	}
	if v, ok := attrs[ref]; ok {
		return v, v != nil
	}
	var current any = attrs
	for _, part := range strings.Split(ref, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, current != nil
}
