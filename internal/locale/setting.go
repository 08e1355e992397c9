// Package locale holds the process-wide language preference sent to the API.
package locale

import (
	"fmt"
	"sync"

	"golang.org/x/text/language"
)

// DefaultLang is used until a preference is loaded or set.
const DefaultLang = "en"

// Setting is the current language. Reads happen on every dispatch, so the
// value is never cached by callers.
type Setting struct {
	mu      sync.RWMutex
	code    string
	persist func(string) error
}

// NewSetting creates a Setting. An empty or invalid initial code falls back to DefaultLang.
// persist, when non-nil, is called by Set to store the new preference.
func NewSetting(initial string, persist func(string) error) *Setting {
	code, err := Normalize(initial)
	if err != nil {
		code = DefaultLang
	}
	return &Setting{code: code, persist: persist}
}

// Get returns the current language code.
func (s *Setting) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.code
}

// Set validates code, makes it current and persists it.
// The in-memory value is updated even when persisting fails.
func (s *Setting) Set(code string) error {
	normalized, err := Normalize(code)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.code = normalized
	persist := s.persist
	s.mu.Unlock()

	if persist != nil {
		if err := persist(normalized); err != nil {
			return fmt.Errorf("saving language preference: %w", err)
		}
	}
	return nil
}

// Normalize parses code as a BCP 47 tag and returns its canonical form.
func Normalize(code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("empty language code")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}
	return tag.String(), nil
}

// Next returns the language following current in supported, wrapping around.
// If current is not in supported the first entry is returned.
func Next(current string, supported []string) string {
	if len(supported) == 0 {
		return current
	}
	for i, code := range supported {
		if code == current {
			return supported[(i+1)%len(supported)]
		}
	}
	return supported[0]
}
