// Package fault defines the error taxonomy used across the conversion
// pipeline. Every fatal error carries a category, a stable code string, a
// human-readable message, and a small set of deterministic context scalars,
// so that callers (such as a CLI) can map failures to fixed exit codes
// without parsing message text.
package fault

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Category classifies a fatal error by its propagation policy.
type Category int

const (
	// General is any unclassified failure. Treated as a bug.
	General Category = iota

	// Config covers malformed configuration, out-of-domain values,
	// invalid caption weights, and invalid user regexes. Config errors
	// abort before any span is processed.
	Config

	// IO covers unreadable input or unwritable output. These originate
	// in external collaborators and surface to the core as a hard stop.
	IO

	// Parse covers mid-pipeline structural failures: unresolvable slug
	// collisions, noise over-removal, hash computation failures, and
	// strict-mode numbering violations. The first Parse error wins.
	Parse
)

// String returns the category name used in logs and CLI output.
func (c Category) String() string {
	switch c {
	case Config:
		return "CONFIG"
	case IO:
		return "IO"
	case Parse:
		return "PARSE"
	default:
		return "GENERAL"
	}
}

// ExitCode returns the fixed process exit code for this category.
func (c Category) ExitCode() int {
	switch c {
	case Config:
		return 2
	case IO:
		return 3
	case Parse:
		return 4
	default:
		return 1
	}
}

// Stable error codes. These strings are part of the output contract and
// must never change between releases.
const (
	CodeConfigInvalidValue    = "config_invalid_value"
	CodeConfigWeightSum       = "config_weight_sum_invalid"
	CodeConfigRegexInvalid    = "config_regex_invalid"
	CodeInputUnreadable       = "input_unreadable"
	CodeOutputUnwritable      = "output_path_unwritable"
	CodeSlugCollision         = "unresolvable_slug_collision"
	CodeDuplicateSlug         = "duplicate_slug_detected"
	CodeOverRemoval           = "over_removal_abort"
	CodeStructuralHashFailure = "structural_hash_failure"
	CodeNumberingStrict       = "numbering_strict_violation"
	CodeUnhandled             = "unhandled_exception"
)

// Error is a classified pipeline error.
type Error struct {
	Category Category
	Code     string
	Message  string

	// Context holds deterministic scalars describing the failure.
	// Never timestamps, pointers, or other nondeterministic values.
	Context map[string]any
}

// Error renders the category, code, message, and sorted context.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Category.String())
	sb.WriteString("/")
	sb.WriteString(e.Code)
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, e.Context[k])
		}
		sb.WriteString(")")
	}
	return sb.String()
}

// New creates a classified error.
func New(cat Category, code, message string, context map[string]any) *Error {
	return &Error{Category: cat, Code: code, Message: message, Context: context}
}

// ConfigErr creates a CONFIG-category error.
func ConfigErr(code, message string, context map[string]any) *Error {
	return New(Config, code, message, context)
}

// IOErr creates an IO-category error.
func IOErr(code, message string, context map[string]any) *Error {
	return New(IO, code, message, context)
}

// ParseErr creates a PARSE-category error.
func ParseErr(code, message string, context map[string]any) *Error {
	return New(Parse, code, message, context)
}

// CategoryOf returns the category of err, unwrapping %w chains, or General
// when no classified *Error is found.
func CategoryOf(err error) Category {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Category
	}
	return General
}

// ExitCode returns the process exit code for err (0 for nil).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return CategoryOf(err).ExitCode()
}
