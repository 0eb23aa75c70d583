// SPDX-License-Identifier: MPL-2.0

package romsource

import (
	"errors"
	"fmt"
)

const (
	// BaseSet holds original CHIP-8 programs. It is rendered first and has no
	// separator heading.
	BaseSet DialectGroup = iota
	// ExtendedSet holds SUPER-CHIP programs.
	ExtendedSet
	// CommunityExamples holds community-contributed examples (Octo and friends).
	CommunityExamples
)

// ErrInvalidDialectGroup is returned when a DialectGroup value is not recognized.
var ErrInvalidDialectGroup = errors.New("invalid dialect group")

type (
	// DialectGroup is one of the ROM classification categories. The numeric
	// order is the catalog render order.
	DialectGroup int

	// InvalidDialectGroupError is returned when a DialectGroup value is not recognized.
	// It wraps ErrInvalidDialectGroup for errors.Is() compatibility.
	InvalidDialectGroupError struct {
		Value DialectGroup
	}
)

// Groups returns every dialect group in render order.
func Groups() []DialectGroup {
	return []DialectGroup{BaseSet, ExtendedSet, CommunityExamples}
}

// String returns the config-facing name of the group.
func (g DialectGroup) String() string {
	switch g {
	case BaseSet:
		return "base_set"
	case ExtendedSet:
		return "extended_set"
	case CommunityExamples:
		return "community"
	default:
		return fmt.Sprintf("DialectGroup(%d)", int(g))
	}
}

// Heading returns the catalog section label for the group. BaseSet has no
// heading because it is the default section.
func (g DialectGroup) Heading() string {
	switch g {
	case ExtendedSet:
		return "SCHIP Games"
	case CommunityExamples:
		return "Octo Examples"
	default:
		return ""
	}
}

// IsValid returns whether the DialectGroup is one of the defined groups,
// and a list of validation errors if it is not.
func (g DialectGroup) IsValid() (bool, []error) {
	switch g {
	case BaseSet, ExtendedSet, CommunityExamples:
		return true, nil
	default:
		return false, []error{&InvalidDialectGroupError{Value: g}}
	}
}

// Error implements the error interface for InvalidDialectGroupError.
func (e *InvalidDialectGroupError) Error() string {
	return fmt.Sprintf("invalid dialect group %d (valid: 0-2)", int(e.Value))
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidDialectGroupError) Unwrap() error {
	return ErrInvalidDialectGroup
}
