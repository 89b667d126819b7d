// Package synerr provides categorized errors for the sync engine.
//
// Errors the engine raises for the failure cases named by Kind (spec.md
// §7) carry that Kind and a Required flag so callers can decide, without
// string matching, whether a failure should abort the whole run or merely
// skip one optional source. Other failures (for example I/O errors while
// writing the lockfile or cache index) are plain errors, which IsRequired
// treats as fatal.
package synerr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a sync error.
type Kind string

const (
	KindInvalidConfig         Kind = "InvalidConfig"
	KindInvalidSourceID       Kind = "InvalidSourceID"
	KindUnsupportedRepoURL    Kind = "UnsupportedRepoUrl"
	KindHostNotAllowed        Kind = "HostNotAllowed"
	KindRefUnresolved         Kind = "RefUnresolved"
	KindCommitMissingOffline  Kind = "CommitMissingOffline"
	KindCachePartialOffline   Kind = "CachePartialOffline"
	KindCacheMissingOffline   Kind = "CacheMissingOffline"
	KindFrozenSyncFailed      Kind = "FrozenSyncFailed"
	KindMissingRequiredSource Kind = "MissingRequiredSource"
	KindLimitExceeded         Kind = "LimitExceeded"
	KindPathTraversal         Kind = "PathTraversal"
	KindBraceExpansionExceed  Kind = "BraceExpansionExceeded"
	KindLockTimeout           Kind = "LockTimeout"
	KindGitCommandFailed      Kind = "GitCommandFailed"
)

// Error is a categorized, source-scoped error.
type Error struct {
	Kind     Kind
	SourceID string
	Required bool
	Err      error
}

func (e *Error) Error() string {
	if e.SourceID != "" {
		return fmt.Sprintf("%s[%s]: %v", e.Kind, e.SourceID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a Kind-tagged error for sourceID (empty for run-level errors).
func New(kind Kind, sourceID string, required bool, err error) *Error {
	return &Error{Kind: kind, SourceID: sourceID, Required: required, Err: err}
}

// Newf is a convenience constructor building Err from a format string.
func Newf(kind Kind, sourceID string, required bool, format string, args ...any) *Error {
	return New(kind, sourceID, required, fmt.Errorf(format, args...))
}

// KindOf returns the Kind of err, or "" if err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err (or any error it wraps) is a *Error of kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsRequired reports whether err is a *Error marked Required.
func IsRequired(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Required
	}
	return true // untyped errors are treated as fatal, the safest default
}
