package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Locale is a BCP 47 tag such as "en-US" or "kn-IN".
type Locale string

const (
	LocaleEnglishUS Locale = "en-US"
	LocaleKannadaIN Locale = "kn-IN"
)

// ParseLocale validates s and returns it in canonical form.
func ParseLocale(s string) (Locale, error) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("parsing locale %q: %w", s, err)
	}
	return Locale(tag.String()), nil
}

func (l Locale) Tag() language.Tag {
	return language.Make(string(l))
}

// Language returns the ISO 639 base language ("kn" for "kn-IN").
func (l Locale) Language() string {
	base, _ := l.Tag().Base()
	return base.String()
}

// DisplayName returns the language name written in that language.
func (l Locale) DisplayName() string {
	name := display.Self.Name(language.Make(l.Language()))
	if name == "" {
		return string(l)
	}
	return name
}

func (l Locale) String() string {
	return string(l)
}

// LocaleSet is the ordered set of locales a session may switch between.
type LocaleSet struct {
	locales []Locale
}

func NewLocaleSet(values ...string) (LocaleSet, error) {
	seen := make(map[Locale]bool, len(values))
	var locales []Locale
	for _, v := range values {
		l, err := ParseLocale(v)
		if err != nil {
			return LocaleSet{}, err
		}
		if seen[l] {
			continue
		}
		seen[l] = true
		locales = append(locales, l)
	}
	if len(locales) == 0 {
		return LocaleSet{}, fmt.Errorf("locale set is empty")
	}
	return LocaleSet{locales: locales}, nil
}

// DefaultLocaleSet mirrors the English/Kannada toggle.
func DefaultLocaleSet() LocaleSet {
	return LocaleSet{locales: []Locale{LocaleEnglishUS, LocaleKannadaIN}}
}

func (s LocaleSet) Contains(l Locale) bool {
	for _, candidate := range s.locales {
		if candidate == l {
			return true
		}
	}
	return false
}

// Default is the first configured locale.
func (s LocaleSet) Default() Locale {
	if len(s.locales) == 0 {
		return LocaleEnglishUS
	}
	return s.locales[0]
}

// Next returns the locale after current, wrapping around. Unknown locales
// map to the default.
func (s LocaleSet) Next(current Locale) Locale {
	for i, candidate := range s.locales {
		if candidate == current {
			return s.locales[(i+1)%len(s.locales)]
		}
	}
	return s.Default()
}

func (s LocaleSet) All() []Locale {
	out := make([]Locale, len(s.locales))
	copy(out, s.locales)
	return out
}
