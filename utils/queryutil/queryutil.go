// Package queryutil normalizes search terms before they are handed to
// provider query builders.
package queryutil

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Normalize folds a search term to ASCII and strips characters the indexing
// sites choke on. Parentheses in particular break several sites' search
// forms. Whitespace is collapsed to single spaces.
func Normalize(term string) string {
	ascii := unidecode.Unidecode(term)
	ascii = strings.NewReplacer("(", "", ")", "").Replace(ascii)
	return strings.Join(strings.Fields(ascii), " ")
}
