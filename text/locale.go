package text

import (
	gotextlang "github.com/go-text/typesetting/language"
	"golang.org/x/text/language"
)

// DefaultLocale is used when a request carries no locale or an unparsable
// one.
const DefaultLocale = "en-US"

// canonicalLocale returns the BCP 47 form of tag, or DefaultLocale.
func canonicalLocale(tag string) string {
	if tag == "" {
		return DefaultLocale
	}
	t, err := language.Parse(tag)
	if err != nil || t == language.Und {
		return DefaultLocale
	}
	return t.String()
}

// shapingLanguage converts a canonical locale into the go-text language
// used by the shaper.
func shapingLanguage(locale string) gotextlang.Language {
	return gotextlang.NewLanguage(locale)
}
