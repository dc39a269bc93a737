package indexer

import (
	"strings"
	"unicode"

	"github.com/hyperjump/omomi/internal/schema"
)

// Preprocess normalizes a non-payload field value for the keyword index.
// Keyword fields are only trimmed. Text fields also collapse whitespace and
// treat underscores as spaces, since the standard analyzer keeps
// "q3_sales_report" as one token.
func Preprocess(fieldType, text string) string {
	text = strings.TrimSpace(text)
	if strings.EqualFold(fieldType, schema.TypeKeyword) {
		return text
	}
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) || r == '_' {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		wasSpace = false
	}
	return b.String()
}
