// Package sanitize guards text that arrives from outside the process
// (HTTP bodies, MCP arguments, CLI stdin) before it reaches the engine.
package sanitize

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize is 256KB. Raw model outputs and long templates
	// are far larger than interactive input.
	DefaultMaxInputSize = 256 * 1024
	// EnvMaxInputSize overrides the default limit.
	EnvMaxInputSize = "FABLE_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Text enforces the configured size limit, validates UTF-8 and strips
// control characters other than newline, tab and carriage return.
func Text(input string) (string, error) {
	return TextWithLimit(input, MaxInputSize())
}

// TextWithLimit is Text with an explicit byte limit.
// Oversized input is rejected, never truncated.
func TextWithLimit(input string, limit int) (string, error) {
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// MaxInputSize returns the limit from the environment or the default.
func MaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
