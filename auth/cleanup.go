package auth

import (
	"path/filepath"
	"strings"
)

// CleanupDecision says what stale-state cleanup does for a state path.
type CleanupDecision string

const (
	// CleanupRemove deletes the first path segment recursively.
	CleanupRemove CleanupDecision = "remove"
	// CleanupSkipAbsolute leaves absolute paths alone.
	CleanupSkipAbsolute CleanupDecision = "skip_absolute"
	// CleanupSkipTraversal leaves paths whose first segment is "." or starts with "..".
	CleanupSkipTraversal CleanupDecision = "skip_traversal"
	// CleanupSkipEmpty applies when no first segment remains.
	CleanupSkipEmpty CleanupDecision = "skip_empty"
	// CleanupDisabled applies when Options.SkipStateCleanup is set.
	CleanupDisabled CleanupDecision = "disabled"
)

// CleanupTarget returns the top-level entry that cleanup would remove for statePath.
//
// Only relative paths qualify. Leading "./" prefixes are stripped, then the first segment
// must be non-empty, not ".", and must not start with "..". Anything else yields an empty
// target and a skip decision.
func CleanupTarget(statePath string) (string, CleanupDecision) {
	if filepath.IsAbs(statePath) || strings.HasPrefix(statePath, "/") {
		return "", CleanupSkipAbsolute
	}

	p := filepath.ToSlash(statePath)
	for strings.HasPrefix(p, "./") {
		p = strings.TrimLeft(strings.TrimPrefix(p, "./"), "/")
	}

	first, _, _ := strings.Cut(p, "/")
	switch {
	case first == "":
		return "", CleanupSkipEmpty
	case first == "." || strings.HasPrefix(first, ".."):
		return "", CleanupSkipTraversal
	}
	return first, CleanupRemove
}

// CleanupOutcome records what stale-state cleanup did. Removal errors are kept here
// instead of failing the run.
type CleanupOutcome struct {
	Decision CleanupDecision
	Target   string
	Err      error
}

// Removed reports whether the target was deleted without error.
func (o CleanupOutcome) Removed() bool {
	return o.Decision == CleanupRemove && o.Err == nil
}

func cleanStaleState(statePath string, enabled bool, removeAll func(string) error) CleanupOutcome {
	if !enabled {
		return CleanupOutcome{Decision: CleanupDisabled}
	}
	target, decision := CleanupTarget(statePath)
	out := CleanupOutcome{Decision: decision, Target: target}
	if decision == CleanupRemove {
		out.Err = removeAll(target)
	}
	return out
}
