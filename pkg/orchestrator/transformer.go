package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-reportgen/pkg/layout"
	"github.com/goliatone/go-reportgen/pkg/schema"
)

// Transformer adjusts a generated layout before rendering, the programmatic
// counterpart of a person editing the layout by hand. Transformers must not
// touch the template.
type Transformer interface {
	Transform(ctx context.Context, t *schema.Template, l *layout.Layout) error
}

// TransformerFunc adapts a function to Transformer.
type TransformerFunc func(ctx context.Context, t *schema.Template, l *layout.Layout) error

// Transform calls fn when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, t *schema.Template, l *layout.Layout) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, t, l)
}

// PresetTransformer applies declarative block overrides read from a YAML or
// JSON document:
//
//	blocks:
//	  sec1:
//	    title: Site details
//	    columns: 1
//	  photos.sec1.roof:
//	    hide: true
//	signature_title: Sign-off
//
// Block keys are layout section ids. A key that matches no block is an
// error so presets do not silently rot when a template changes.
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Blocks         map[string]blockPatch `yaml:"blocks" json:"blocks"`
	SignatureTitle string                `yaml:"signature_title" json:"signature_title"`
}

type blockPatch struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Columns     int    `yaml:"columns" json:"columns"`
	Hide        bool   `yaml:"hide" json:"hide"`
}

// NewPresetTransformer parses a preset document.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS reads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the overrides to l.
func (p *PresetTransformer) Transform(ctx context.Context, _ *schema.Template, l *layout.Layout) error {
	if l == nil {
		return errors.New("preset transformer: layout is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(p.document.Blocks))
	kept := l.Sections[:0]
	for _, block := range l.Sections {
		if block.BlockType == layout.BlockSignatureBox && p.document.SignatureTitle != "" {
			block.Content.Title = p.document.SignatureTitle
		}
		patch, ok := p.document.Blocks[block.SectionID]
		if !ok {
			kept = append(kept, block)
			continue
		}
		seen[block.SectionID] = true
		if patch.Hide {
			continue
		}
		if patch.Title != "" {
			block.Content.Title = patch.Title
		}
		if patch.Description != "" {
			block.Content.Description = patch.Description
		}
		if patch.Columns > 0 {
			block.Options.Columns = patch.Columns
		}
		kept = append(kept, block)
	}
	l.Sections = kept

	for id := range p.document.Blocks {
		if !seen[id] {
			return fmt.Errorf("preset transformer: block %q not found", id)
		}
	}
	return nil
}
