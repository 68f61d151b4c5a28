package utils

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var strictPolicy = bluemonday.StrictPolicy()

// plainEntities are the escapes bluemonday adds to plain text. Angle brackets
// stay encoded.
var plainEntities = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&#34;", `"`)

const maxEntityPasses = 4

// CleanUTF8 removes or replaces invalid UTF8 characters from a string
// Returns the cleaned string and a boolean indicating if cleaning was needed
func CleanUTF8(input string) (string, bool) {
	needsCleaning := strings.Contains(input, "\x00") || !utf8.ValidString(input)

	if !needsCleaning {
		return input, false
	}

	cleaned := strings.ToValidUTF8(input, "")
	cleaned = strings.ReplaceAll(cleaned, "\x00", "")

	return cleaned, true
}

// SanitizeText strips all markup from free text. Contract terms end up in the
// HTML the PDF is rendered from.
func SanitizeText(input string) string {
	cleaned, _ := CleanUTF8(input)

	// Entities are decoded before sanitizing so encoded markup is stripped too.
	for range maxEntityPasses {
		decoded := html.UnescapeString(cleaned)
		if decoded == cleaned {
			break
		}
		cleaned = decoded
	}

	return strings.TrimSpace(plainEntities.Replace(strictPolicy.Sanitize(cleaned)))
}

// DigitsOnly drops every non-digit rune, e.g. "(11) 99999-0000" -> "11999990000".
func DigitsOnly(input string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r <= unicode.MaxASCII {
			return r
		}
		return -1
	}, input)
}

// TitleCase normalizes names and city names the Brazilian Portuguese way.
func TitleCase(input string) string {
	collapsed := strings.Join(strings.Fields(SanitizeText(input)), " ")
	return cases.Title(language.BrazilianPortuguese).String(collapsed)
}

func NormalizeState(input string) string {
	return strings.ToUpper(strings.TrimSpace(input))
}
