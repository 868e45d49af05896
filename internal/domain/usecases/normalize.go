// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
package usecases

import (
	"regexp"
	"strings"
)

var (
	whitespaceRE  = regexp.MustCompile(`\s+`)
	punctuationRE = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// NormalizeQuery cleans user input before embedding and recording:
// lowercase, punctuation stripped, whitespace collapsed.
func NormalizeQuery(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = punctuationRE.ReplaceAllString(text, "")
	text = whitespaceRE.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
