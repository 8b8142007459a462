// Package i18n translates user-facing text into the tenant or user language.
//
// Messages are looked up by key (e.g. "deal_status.E", "empty.customers") in
// a golang.org/x/text catalog; Russian is the source language and the
// fallback for keys missing in another language.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Translator resolves languages and formats catalog messages
type Translator struct {
	defaultLang string
	supported   []string
	matcher     language.Matcher
	printers    map[string]*message.Printer
}

// New builds a translator for the supported language codes. The default
// language must be one of them.
func New(defaultLang string, supported []string) (*Translator, error) {
	if len(supported) == 0 {
		return nil, fmt.Errorf("i18n: no supported languages")
	}

	tags := make([]language.Tag, 0, len(supported))
	codes := make([]string, 0, len(supported))
	defaultIdx := -1
	for _, code := range supported {
		tag, err := language.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("i18n: invalid language %q: %w", code, err)
		}
		if code == defaultLang {
			defaultIdx = len(tags)
		}
		tags = append(tags, tag)
		codes = append(codes, code)
	}
	if defaultIdx < 0 {
		return nil, fmt.Errorf("i18n: default language %q is not supported", defaultLang)
	}
	// The matcher falls back to its first tag
	tags[0], tags[defaultIdx] = tags[defaultIdx], tags[0]
	codes[0], codes[defaultIdx] = codes[defaultIdx], codes[0]

	cat, err := buildCatalog()
	if err != nil {
		return nil, err
	}

	printers := make(map[string]*message.Printer, len(codes))
	for i, code := range codes {
		printers[code] = message.NewPrinter(tags[i], message.Catalog(cat))
	}

	return &Translator{
		defaultLang: defaultLang,
		supported:   codes,
		matcher:     language.NewMatcher(tags),
		printers:    printers,
	}, nil
}

// MustNew is New for package-level setup and tests
func MustNew(defaultLang string, supported []string) *Translator {
	t, err := New(defaultLang, supported)
	if err != nil {
		panic(err)
	}
	return t
}

func buildCatalog() (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.Russian))
	for key, texts := range messages {
		if err := b.SetString(language.Russian, key, texts.ru); err != nil {
			return nil, fmt.Errorf("i18n: %s: %w", key, err)
		}
		en := texts.en
		if en == "" {
			en = texts.ru
		}
		if err := b.SetString(language.English, key, en); err != nil {
			return nil, fmt.Errorf("i18n: %s: %w", key, err)
		}
	}
	return b, nil
}

// Default returns the default language code
func (t *Translator) Default() string {
	return t.defaultLang
}

// Supported reports whether lang is one of the configured languages
func (t *Translator) Supported(lang string) bool {
	_, ok := t.printers[lang]
	return ok
}

// Normalize returns lang when supported, otherwise the default language
func (t *Translator) Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if t.Supported(lang) {
		return lang
	}
	return t.defaultLang
}

// Match picks the best supported language for an Accept-Language header
func (t *Translator) Match(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return t.defaultLang
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.defaultLang
	}
	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return t.defaultLang
	}
	return t.supported[idx]
}

// T formats the message key in lang. Unknown keys are returned unchanged.
func (t *Translator) T(lang, key string, args ...any) string {
	if _, ok := messages[key]; !ok {
		return key
	}
	return t.printers[t.Normalize(lang)].Sprintf(key, args...)
}

// Has reports whether the catalog defines key
func (t *Translator) Has(key string) bool {
	_, ok := messages[key]
	return ok
}

// Section translates every key under prefix, keyed by the rest of the key.
// Section(lang, "page.login.") returns {"title": ..., "username": ...}.
func (t *Translator) Section(lang, prefix string) map[string]string {
	out := make(map[string]string)
	for key := range messages {
		if rest, ok := strings.CutPrefix(key, prefix); ok && rest != "" {
			out[rest] = t.T(lang, key)
		}
	}
	return out
}
