package registry

import (
	"errors"
	"strings"
)

var (
	// ErrMissingIdentityName marks an override whose identity block carries no
	// usable name.
	ErrMissingIdentityName = errors.New("missing identity override name")
	// ErrMissingObtainCommand marks an entry without an obtain argv. The base
	// catalog should always supply one, but it is loaded data and gets
	// checked like any other input.
	ErrMissingObtainCommand = errors.New("missing obtain command")
)

// ValidateOverride checks whether a configured entry is well-formed enough to
// enter the pipeline. It never mutates the entry; a failure means the entry
// is logged, counted as skipped, and processing continues with the next one.
func ValidateOverride(entry Entry) error {
	named := false
	if entry.Override != nil {
		for _, id := range entry.Override.Identities {
			if strings.TrimSpace(id.Name) != "" {
				named = true
				break
			}
		}
	}
	if !named {
		return ErrMissingIdentityName
	}

	if len(entry.Obtain) == 0 || strings.TrimSpace(entry.Obtain[0]) == "" {
		return ErrMissingObtainCommand
	}

	return nil
}
