package ui

import (
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// Spinner wraps pterm spinner with convenience methods.
type Spinner struct {
	spinner *pterm.SpinnerPrinter
	message string
}

// NewSpinner creates and starts a new spinner with the given message.
// Spinners are inert in tests and fall back to plain status lines.
func NewSpinner(message string) *Spinner {
	if isTestMode() {
		return &Spinner{message: message}
	}

	s, _ := pterm.DefaultSpinner.
		WithRemoveWhenDone(false).
		WithWriter(Output).
		Start(message)

	return &Spinner{
		spinner: s,
		message: message,
	}
}

// UpdateText updates the spinner message.
func (s *Spinner) UpdateText(message string) {
	s.message = message

	if s.spinner != nil {
		s.spinner.UpdateText(message)
	}
}

// Success stops the spinner with a success message.
func (s *Spinner) Success(message string) {
	if message == "" {
		message = s.message
	}

	if s.spinner != nil {
		s.spinner.Success(message)

		return
	}

	Success(message)
}

// Fail stops the spinner with an error message.
func (s *Spinner) Fail(message string) {
	if message == "" {
		message = s.message
	}

	if s.spinner != nil {
		s.spinner.Fail(message)

		return
	}

	Error(message)
}

// Stop stops the spinner without a message.
func (s *Spinner) Stop() error {
	if s.spinner != nil {
		return s.spinner.Stop()
	}

	return nil
}

// WithSpinner executes a function with a spinner.
// If the function returns an error, spinner fails; otherwise succeeds.
func WithSpinner(message string, fn func() error) error {
	s := NewSpinner(message)

	err := fn()
	if err != nil {
		s.Fail(message)

		return err
	}

	s.Success(message)

	return nil
}

// isTestMode checks if we're running in test mode by examining os.Args and environment.
func isTestMode() bool {
	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "-test.") {
			return true
		}
	}

	return os.Getenv("AUTOREL_TEST_MODE") == "true"
}
