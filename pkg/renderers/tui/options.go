package tui

import (
	"log/slog"
)

// Theme holds the message prefixes the runner prints.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
	// NoneOption labels the empty choice of optional selects.
	NoneOption string
}

// DefaultTheme returns the built-in prefixes.
func DefaultTheme() Theme {
	return Theme{InfoPrefix: "-", ErrorPrefix: "!", NoneOption: "(none)"}
}

// Option configures the runner.
type Option func(*Runner)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithTheme applies message prefixes. Empty entries keep the defaults.
func WithTheme(theme Theme) Option {
	return func(r *Runner) {
		if theme.InfoPrefix != "" {
			r.theme.InfoPrefix = theme.InfoPrefix
		}
		if theme.ErrorPrefix != "" {
			r.theme.ErrorPrefix = theme.ErrorPrefix
		}
		if theme.NoneOption != "" {
			r.theme.NoneOption = theme.NoneOption
		}
	}
}

// WithPageSize caps the visible rows of select prompts.
func WithPageSize(size int) Option {
	return func(r *Runner) {
		if size > 0 {
			r.pageSize = size
		}
	}
}

// WithLogger routes runner diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}
