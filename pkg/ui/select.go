package ui

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
)

// ErrPromptCancelled is returned when the user cancels a prompt.
var ErrPromptCancelled = errors.New("prompt cancelled")

// Confirm displays a yes/no confirmation prompt.
// Returns true if user confirms, false otherwise.
func Confirm(message string) (bool, error) {
	return ConfirmWithDefault(message, false)
}

// ConfirmWithDefault displays a confirmation with a default value.
func ConfirmWithDefault(message string, defaultYes bool) (bool, error) {
	result, err := pterm.DefaultInteractiveConfirm.
		WithDefaultText(message).
		WithDefaultValue(defaultYes).
		Show()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPromptCancelled, err)
	}

	return result, nil
}
