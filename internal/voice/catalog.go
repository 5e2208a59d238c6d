// Package voice caches available synthesis voices and resolves a best-effort
// voice for a target language.
package voice

import (
	"strings"
	"sync"

	"github.com/speakly/speakly/internal/langcode"
)

// Voice is an opaque synthesis voice handle: a display name plus its locale.
type Voice struct {
	Name string
	Lang string
}

// Catalog holds the current voice snapshot. The platform enumerates voices
// asynchronously and may report none at any time; callers must tolerate an
// empty catalog.
type Catalog struct {
	mu     sync.RWMutex
	voices []Voice
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Refresh replaces the cached snapshot wholesale. The platform is the source
// of truth; snapshots are never merged, last one wins.
func (c *Catalog) Refresh(voices []Voice) {
	snapshot := make([]Voice, len(voices))
	copy(snapshot, voices)

	c.mu.Lock()
	c.voices = snapshot
	c.mu.Unlock()
}

// Snapshot returns a copy of the current voice list.
func (c *Catalog) Snapshot() []Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Voice, len(c.voices))
	copy(out, c.voices)
	return out
}

// Select resolves the best available voice for a target base language.
//
// The preferred-locale chain degrades gracefully for languages with limited
// synthesis support: Marathi tries mr, then hi, then en. The first voice whose
// locale prefix matches a chain entry wins. No match means the caller should
// fall back to text-only output; it is never a hard failure.
func (c *Catalog) Select(targetBase string) (Voice, bool) {
	chain := fallbackChain(langcode.Base(targetBase))

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, candidate := range chain {
		candidate = strings.ToLower(candidate)
		for _, v := range c.voices {
			if strings.HasPrefix(strings.ToLower(v.Lang), candidate) {
				return v, true
			}
		}
	}
	return Voice{}, false
}

func fallbackChain(base string) []string {
	switch base {
	case "mr":
		return []string{"mr", "hi", "en"}
	case "hi":
		return []string{"hi", "en"}
	case "en":
		return []string{"en"}
	default:
		return []string{base, "en"}
	}
}
