package apiclient

import (
	"regexp"
	"strings"
)

// PathMatcher matches request paths against one exclusion entry.
// Entries containing '*' are matched as a regex where '*' stands for any
// run of characters; all others by substring containment.
type PathMatcher struct {
	entry string
	re    *regexp.Regexp
}

// NewPathMatcher compiles entry into a matcher.
func NewPathMatcher(entry string) PathMatcher {
	m := PathMatcher{entry: entry}
	if strings.Contains(entry, "*") {
		parts := strings.Split(entry, "*")
		for i, p := range parts {
			parts[i] = regexp.QuoteMeta(p)
		}
		m.re = regexp.MustCompile(strings.Join(parts, ".*"))
	}
	return m
}

// Entry returns the source entry.
func (m PathMatcher) Entry() string {
	return m.entry
}

// Match reports whether path is covered by the entry.
func (m PathMatcher) Match(path string) bool {
	if m.re != nil {
		return m.re.MatchString(path)
	}
	return strings.Contains(path, m.entry)
}

// ExclusionSet lists the paths that never receive the lang query parameter.
// It is immutable: With and Without return new sets.
type ExclusionSet struct {
	matchers []PathMatcher
}

// NewExclusionSet builds a set from entries, skipping empty ones.
func NewExclusionSet(entries ...string) ExclusionSet {
	s := ExclusionSet{matchers: make([]PathMatcher, 0, len(entries))}
	for _, e := range entries {
		if e == "" {
			continue
		}
		s.matchers = append(s.matchers, NewPathMatcher(e))
	}
	return s
}

// DefaultExclusions returns the stock exclusion list.
func DefaultExclusions() ExclusionSet {
	return NewExclusionSet(
		// auth
		"/auth/",
		// admin management
		"/admin/products",
		"/admin/categories",
		"/admin/orders",
		"/admin/users",
		"/admin/notifications",
		// uploads
		"/upload",
		"/files",
		// health and status
		"/health",
		"/status",
		// cart mutations
		"/cart/add",
		"/cart/update",
		"/cart/remove",
		"/cart/clear",
		// payments
		"/payment",
		"/checkout",
		// realtime
		"/socket",
		"/chat",
		// search suggestions
		"/search/suggestions",
		// settings
		"/settings",
	)
}

// Excludes reports whether path matches any entry. First match wins.
func (s ExclusionSet) Excludes(path string) bool {
	for _, m := range s.matchers {
		if m.Match(path) {
			return true
		}
	}
	return false
}

// Entries returns the source entries in order.
func (s ExclusionSet) Entries() []string {
	out := make([]string, len(s.matchers))
	for i, m := range s.matchers {
		out[i] = m.entry
	}
	return out
}

// With returns a copy of s with entries appended. Entries already present are skipped.
func (s ExclusionSet) With(entries ...string) ExclusionSet {
	current := s.Entries()
	seen := make(map[string]bool, len(current))
	for _, e := range current {
		seen[e] = true
	}
	for _, e := range entries {
		if !seen[e] {
			current = append(current, e)
			seen[e] = true
		}
	}
	return NewExclusionSet(current...)
}

// Without returns a copy of s with the given entries removed.
func (s ExclusionSet) Without(entries ...string) ExclusionSet {
	drop := make(map[string]bool, len(entries))
	for _, e := range entries {
		drop[e] = true
	}
	kept := make([]string, 0, len(s.matchers))
	for _, e := range s.Entries() {
		if !drop[e] {
			kept = append(kept, e)
		}
	}
	return NewExclusionSet(kept...)
}
