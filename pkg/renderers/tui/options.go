package tui

// OutputFormat controls how collected values are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits the CapturedData map as indented JSON.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML emits the CapturedData map as YAML.
	OutputFormatYAML OutputFormat = "yaml"
	// OutputFormatPrettyText emits "Label: value" lines in field order.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme holds message prefixes the filler puts in front of Info lines.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures the Filler.
type Option func(*Filler)

// WithPromptDriver overrides the survey driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithOutputFormat selects the serialization used by Serialize.
func WithOutputFormat(format OutputFormat) Option {
	return func(f *Filler) {
		if format != "" {
			f.outputFormat = format
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(f *Filler) {
		f.theme = theme
	}
}

// WithMaxAttempts bounds how many times one field is re-prompted after an
// invalid answer. Zero means unlimited.
func WithMaxAttempts(n int) Option {
	return func(f *Filler) {
		if n >= 0 {
			f.maxAttempts = n
		}
	}
}
