// Package shared provides common domain types used across multiple domain packages.
package shared

import "errors"

// ErrEmptyCommand indicates the command configuration is empty.
// This error is returned when a command is required but not provided.
var ErrEmptyCommand error = errors.New("empty command")
