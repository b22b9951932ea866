package extraction

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// pronouns is the closed set of English and Spanish personal, object and
// possessive pronouns considered for coreference rewriting.
var pronouns = toSet(
	// English
	"i", "me", "my", "mine", "you", "your", "yours", "he", "him", "his", "she", "her", "hers",
	"it", "its", "we", "us", "our", "ours", "they", "them", "their", "theirs",
	// Spanish
	"yo", "tú", "él", "ella", "ello", "usted", "ustedes", "nosotros", "nosotras", "vosotros", "vosotras",
	"ellos", "ellas", "mí", "ti", "conmigo", "contigo", "suyo", "suya", "suyos", "suyas",
	"nuestro", "nuestra", "nuestros", "nuestras", "le", "les", "lo",
)

var stopwords = toSet(
	"el", "la", "los", "las", "un", "una", "unos", "unas",
	"y", "o", "a", "de", "del", "en", "que", "por", "con", "para",
	"al", "mi", "tu", "su", "este", "esta", "estos", "estas",
	"ese", "esa", "esos", "esas", "aquel", "aquella", "aquellos", "aquellas",
	"sí", "no", "como", "cuando", "donde", "quien", "cuanto", "cuanta",
	"the", "an", "and", "or", "of", "in", "on", "at", "to", "for", "with", "by", "from",
	"this", "that", "these", "those", "is", "are", "was", "were", "be", "been", "as",
	"who", "what", "which", "when", "where", "there", "here",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsPronoun reports whether word is in the closed pronoun set.
func IsPronoun(word string) bool {
	_, ok := pronouns[strings.ToLower(strings.TrimSpace(word))]
	return ok
}

// IsStopword reports whether word is a function word.
func IsStopword(word string) bool {
	_, ok := stopwords[strings.ToLower(strings.TrimSpace(word))]
	return ok
}

// IsNumeric reports whether word consists of digits only.
func IsNumeric(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// IsSubstantive reports whether word can be a relationship endpoint:
// not a stopword, longer than one character and not purely numeric.
func IsSubstantive(word string) bool {
	word = strings.TrimSpace(word)
	return !IsStopword(word) && utf8.RuneCountInString(word) > 1 && !IsNumeric(word)
}
