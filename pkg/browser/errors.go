package browser

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrElementNotFound is wrapped by every lookup failure
	ErrElementNotFound = errors.New("element not found")

	// ErrTimeout is returned when a spin-wait gives up
	ErrTimeout = errors.New("timed out")

	// ErrDriverUnsupported is returned when the session lacks a required capability
	ErrDriverUnsupported = errors.New("driver unsupported")
)

// ElementNotFoundError describes a failed lookup.
// Type is what was looked for ("text", "element"), Selector the locator language
// ("css", "xpath", or a named selector such as "id|title|alt|text") and Locator
// the searched value.
type ElementNotFoundError struct {
	Type     string
	Selector string
	Locator  string
}

func (e *ElementNotFoundError) Error() string {
	msg := "Tag"
	if e.Type != "" {
		msg = upperFirst(e.Type)
	}
	if e.Locator != "" {
		// Query languages read "matching css", named selectors read "with id|name"
		switch e.Selector {
		case "":
			msg += " matching locator"
		case "css", "xpath":
			msg += " matching " + e.Selector
		default:
			msg += " with " + e.Selector
		}
		msg += fmt.Sprintf(" \"%s\"", e.Locator)
	}
	return msg + " not found."
}

func (e *ElementNotFoundError) Unwrap() error {
	return ErrElementNotFound
}

// NotFound builds an ElementNotFoundError
func NotFound(typ, selector, locator string) error {
	return &ElementNotFoundError{Type: typ, Selector: selector, Locator: locator}
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
