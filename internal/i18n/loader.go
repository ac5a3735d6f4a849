// Localized API messages loaded from embedded JSON packs.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed en/*.json tr/*.json
var fs embed.FS

const (
	LangEN = "en"
	LangTR = "tr"

	DefaultLang = LangTR
)

var Supported = []string{LangTR, LangEN}

var (
	mu    sync.RWMutex
	packs = make(map[string]map[string]string)
)

// Load reads every supported language pack; a missing or broken pack is an error.
func Load() error {
	mu.Lock()
	defer mu.Unlock()
	for _, lang := range Supported {
		data, err := fs.ReadFile(lang + "/messages.json")
		if err != nil {
			return fmt.Errorf("i18n %s: %w", lang, err)
		}
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("i18n %s: %w", lang, err)
		}
		packs[lang] = m
	}
	return nil
}

// IsSupported reports whether a pack exists for lang.
func IsSupported(lang string) bool {
	for _, l := range Supported {
		if l == lang {
			return true
		}
	}
	return false
}

// T returns the message for key in lang, falling back to English and then to the key itself.
func T(lang, key string) string {
	mu.RLock()
	defer mu.RUnlock()
	if m, ok := packs[lang]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	if m, ok := packs[LangEN]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	return key
}

// Keys lists the keys of one language pack.
func Keys(lang string) []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(packs[lang]))
	for k := range packs[lang] {
		out = append(out, k)
	}
	return out
}
