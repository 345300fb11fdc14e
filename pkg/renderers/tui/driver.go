package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// Question is one field prompt. Hint holds the field description and
// placeholder and is shown when the user asks for help with '?'. Default is
// the current value rendered as text.
type Question struct {
	Path    string
	Label   string
	Hint    string
	Default string
}

// PromptDriver abstracts the terminal so fill sessions can be scripted in
// tests. Choice prompts answer with the chosen option text.
type PromptDriver interface {
	Ask(ctx context.Context, q Question, check func(string) error) (string, error)
	AskParagraph(ctx context.Context, q Question) (string, error)
	AskYesNo(ctx context.Context, q Question, checked bool) (bool, error)
	Choose(ctx context.Context, q Question, options []string) (string, error)
	ChooseMany(ctx context.Context, q Question, options, selected []string) ([]string, error)
	Notify(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns the interactive driver backed by survey. Notices
// go to out, or stdout when nil.
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out}
}

func (d *surveyDriver) Ask(ctx context.Context, q Question, check func(string) error) (string, error) {
	var opts []survey.AskOpt
	if check != nil {
		opts = append(opts, survey.WithValidator(func(ans any) error {
			text, _ := ans.(string)
			return check(text)
		}))
	}
	var out string
	err := askOne(ctx, &survey.Input{Message: q.Label, Help: q.Hint, Default: q.Default}, &out, opts...)
	return out, err
}

func (d *surveyDriver) AskParagraph(ctx context.Context, q Question) (string, error) {
	var out string
	err := askOne(ctx, &survey.Multiline{Message: q.Label, Help: q.Hint, Default: q.Default}, &out)
	return out, err
}

func (d *surveyDriver) AskYesNo(ctx context.Context, q Question, checked bool) (bool, error) {
	var out bool
	err := askOne(ctx, &survey.Confirm{Message: q.Label, Help: q.Hint, Default: checked}, &out)
	return out, err
}

func (d *surveyDriver) Choose(ctx context.Context, q Question, options []string) (string, error) {
	prompt := &survey.Select{Message: q.Label, Help: q.Hint, Options: options}
	if slices.Contains(options, q.Default) {
		prompt.Default = q.Default
	}
	var out string
	err := askOne(ctx, prompt, &out)
	return out, err
}

func (d *surveyDriver) ChooseMany(ctx context.Context, q Question, options, selected []string) ([]string, error) {
	prompt := &survey.MultiSelect{Message: q.Label, Help: q.Hint, Options: options}
	var defaults []string
	for _, item := range selected {
		if slices.Contains(options, item) {
			defaults = append(defaults, item)
		}
	}
	if len(defaults) > 0 {
		prompt.Default = defaults
	}
	var out []string
	err := askOne(ctx, prompt, &out)
	return out, err
}

func (d *surveyDriver) Notify(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

func askOne(ctx context.Context, prompt survey.Prompt, out any, opts ...survey.AskOpt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := survey.AskOne(prompt, out, opts...); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return ErrAborted
		}
		return err
	}
	return nil
}
