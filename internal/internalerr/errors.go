package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes of a coding run
var (
	// ErrConfiguration is fatal for the whole run: bad rule tables, missing
	// solution hooks, runaway recursion, concepts outside every sentence.
	ErrConfiguration = errors.New("configuration error")

	// ErrService is fatal for one document: the tagger failed or answered badly.
	ErrService = errors.New("service error")

	// ErrServiceUnavailable is the ErrService case where the tagger could not be reached in time.
	ErrServiceUnavailable = fmt.Errorf("%w: service unavailable", ErrService)

	ErrNoSentence      = fmt.Errorf("%w: concept outside every sentence", ErrConfiguration)
	ErrRecursionDepth  = fmt.Errorf("%w: recursion depth exceeded", ErrConfiguration)
	ErrUnknownSolution = fmt.Errorf("%w: unknown solution", ErrConfiguration)
	ErrNotFound        = errors.New("not found")
)

// Configf returns an ErrConfiguration carrying a formatted detail
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Servicef returns an ErrService carrying a formatted detail
func Servicef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrService, fmt.Sprintf(format, args...))
}

// IsConfiguration reports whether err aborts the whole run
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsService reports whether err only aborts the current document
func IsService(err error) bool {
	return errors.Is(err, ErrService)
}
