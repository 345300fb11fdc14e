// Package tui drives an interactive data-entry session in the terminal. The
// interpreter decides what is asked: hidden and computed fields are skipped,
// and every answer is applied before the next prompt so show-if rules and
// formulas react immediately.
package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-reportgen/pkg/interpreter"
	"github.com/goliatone/go-reportgen/pkg/schema"
	"github.com/goliatone/go-reportgen/pkg/value"
)

const noneOption = "(none)"

// Filler prompts for the fields of an interpreter session.
type Filler struct {
	driver       PromptDriver
	outputFormat OutputFormat
	theme        Theme
	maxAttempts  int
}

// New constructs a Filler with the survey driver and JSON output.
func New(options ...Option) *Filler {
	f := &Filler{
		outputFormat: OutputFormatJSON,
		maxAttempts:  3,
		theme:        Theme{ErrorPrefix: "! "},
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver(nil)
	}
	return f
}

// ContentType reports the media type produced by Serialize.
func (f *Filler) ContentType() string {
	switch f.outputFormat {
	case OutputFormatYAML:
		return "application/yaml"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Fill prompts for every visible, user-editable field in rendering order.
// Fields revealed by a later answer are prompted in a further pass. The
// returned map is the session's captured data; it is returned alongside
// ErrIncomplete when validation still fails at the end.
func (f *Filler) Fill(ctx context.Context, session *interpreter.Session) (map[string]any, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if session == nil {
		return nil, errors.New("tui: session is required")
	}

	tpl := session.Template()
	paths := session.Paths()
	prompted := make(map[string]bool, len(paths))

	for pass := 0; pass <= len(paths); pass++ {
		progressed := false
		for _, path := range paths {
			if prompted[path] {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !session.State()[path].Visible {
				continue
			}
			ref, ok := tpl.Lookup(path)
			if !ok {
				continue
			}
			prompted[path] = true
			if ref.Field.AutoCalculate {
				continue
			}
			if err := f.promptField(ctx, session, path, *ref.Field); err != nil {
				return nil, err
			}
			progressed = true
		}
		if !progressed {
			break
		}
	}

	state := session.State()
	for _, path := range state.Visible(paths) {
		if state[path].Computed {
			ref, _ := tpl.Lookup(path)
			_ = f.info(ctx, fmt.Sprintf("%s%s = %s", f.theme.InfoPrefix, ref.Field.Label(), value.String(state[path].Value)))
		}
	}

	if !session.Valid() {
		errs := state.Errors()
		keys := make([]string, 0, len(errs))
		for path := range errs {
			keys = append(keys, path)
		}
		sort.Strings(keys)
		details := make([]string, 0, len(keys))
		for _, path := range keys {
			details = append(details, path+": "+strings.Join(errs[path], "; "))
		}
		return session.Values(), fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(details, ", "))
	}
	return session.Values(), nil
}

func (f *Filler) promptField(ctx context.Context, session *interpreter.Session, path string, field schema.Field) error {
	for attempt := 1; ; attempt++ {
		current := session.State()[path].Value
		answer, empty, err := f.ask(ctx, path, field, current)
		if err != nil {
			return err
		}

		var state interpreter.State
		if empty {
			state, err = session.Unset(ctx, path)
		} else {
			state, err = session.Set(ctx, path, answer)
		}
		if err != nil {
			return err
		}

		fs := state[path]
		if fs.Valid || !fs.Visible {
			return nil
		}
		_ = f.info(ctx, fmt.Sprintf("%s%s: %s", f.theme.ErrorPrefix, field.Label(), strings.Join(fs.Errors, "; ")))
		if f.maxAttempts > 0 && attempt >= f.maxAttempts {
			return nil
		}
	}
}

// ask prompts once. empty reports that the user left the field blank.
func (f *Filler) ask(ctx context.Context, path string, field schema.Field, current any) (answer any, empty bool, err error) {
	q := Question{
		Path:    path,
		Label:   field.Label(),
		Hint:    strings.TrimSpace(strings.Join([]string{field.Description, field.Placeholder}, " ")),
		Default: value.String(current),
	}
	if field.Required {
		q.Label += " *"
	}

	switch field.Type {
	case schema.FieldTypeTextarea:
		out, err := f.driver.AskParagraph(ctx, q)
		if err != nil {
			return nil, false, err
		}
		return out, strings.TrimSpace(out) == "", nil

	case schema.FieldTypeNumber, schema.FieldTypeDate, schema.FieldTypeDateTime:
		out, err := f.driver.Ask(ctx, q, typeValidator(field))
		if err != nil {
			return nil, false, err
		}
		if strings.TrimSpace(out) == "" {
			return nil, true, nil
		}
		if field.Type == schema.FieldTypeNumber {
			if n, ok := value.Number(out); ok {
				return n, false, nil
			}
		}
		return strings.TrimSpace(out), false, nil

	case schema.FieldTypeCheckbox:
		if len(field.Options) == 0 {
			checked, _ := value.Bool(current)
			out, err := f.driver.AskYesNo(ctx, q, checked)
			if err != nil {
				return nil, false, err
			}
			return out, false, nil
		}
		picked, err := f.driver.ChooseMany(ctx, q, field.Options, selectedOptions(current))
		if err != nil {
			return nil, false, err
		}
		list := make([]any, 0, len(picked))
		for _, item := range picked {
			if slices.Contains(field.Options, item) {
				list = append(list, item)
			}
		}
		if len(list) == 0 {
			return nil, true, nil
		}
		return list, false, nil

	case schema.FieldTypeSelect, schema.FieldTypeRadio:
		options := field.Options
		if !field.Required {
			options = append([]string{noneOption}, field.Options...)
		}
		choice, err := f.driver.Choose(ctx, q, options)
		if err != nil {
			return nil, false, err
		}
		if choice == noneOption || !slices.Contains(field.Options, choice) {
			return nil, true, nil
		}
		return choice, false, nil

	default:
		// text, photo and signature references
		out, err := f.driver.Ask(ctx, q, nil)
		if err != nil {
			return nil, false, err
		}
		if strings.TrimSpace(out) == "" {
			return nil, true, nil
		}
		return out, false, nil
	}
}

func typeValidator(field schema.Field) func(string) error {
	return func(raw string) error {
		if strings.TrimSpace(raw) == "" {
			return nil
		}
		_, err := value.For(field, raw)
		return err
	}
}

func selectedOptions(current any) []string {
	switch list := current.(type) {
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, value.String(item))
		}
		return out
	case []string:
		return list
	}
	return nil
}

func (f *Filler) info(ctx context.Context, msg string) error {
	return f.driver.Notify(ctx, msg)
}

// Serialize renders the session's captured data in the configured format.
func (f *Filler) Serialize(session *interpreter.Session) ([]byte, error) {
	values := session.Values()
	switch f.outputFormat {
	case OutputFormatYAML:
		return yaml.Marshal(values)
	case OutputFormatPrettyText:
		tpl := session.Template()
		state := session.State()
		var b strings.Builder
		for _, path := range state.Visible(session.Paths()) {
			ref, _ := tpl.Lookup(path)
			fmt.Fprintf(&b, "%s: %s\n", ref.Field.Label(), value.String(values[path]))
		}
		return []byte(b.String()), nil
	default:
		return json.MarshalIndent(values, "", "  ")
	}
}
