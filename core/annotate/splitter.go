package annotate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Span is a piece of text with its byte offsets in the annotated text.
type Span struct {
	Text  string
	Start int
	End   int
}

// SplitSentences splits text at '.', '!' and '?' followed by whitespace and
// an upper case letter or digit, and at blank lines.
func SplitSentences(text string) []Span {
	var sentences []Span
	start := 0

	emit := func(end int) {
		raw := text[start:end]
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			offset := start + strings.Index(raw, trimmed)
			sentences = append(sentences, Span{Text: trimmed, Start: offset, End: offset + len(trimmed)})
		}
		start = end
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		next := i + size

		switch {
		case r == '\n' && strings.HasPrefix(strings.TrimLeft(text[next:], " \t\r"), "\n"):
			emit(next)
		case (r == '.' || r == '!' || r == '?') && endsSentence(text[next:]):
			emit(next)
		}
		i = next
	}
	emit(len(text))

	return sentences
}

func endsSentence(rest string) bool {
	trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
	if trimmed == "" {
		return true
	}
	if len(trimmed) == len(rest) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(trimmed)
	return unicode.IsUpper(r) || unicode.IsDigit(r) || r == '"' || r == '¿' || r == '¡'
}

// Tokenize splits a sentence into words and punctuation. Word characters are
// letters, digits, apostrophes inside words and hyphens inside words.
// Offsets are relative to the text the sentence was taken from.
func Tokenize(sentence Span) []Span {
	var tokens []Span
	text := sentence.Text
	start := -1

	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, Span{Text: text[start:end], Start: sentence.Start + start, End: sentence.Start + end})
		}
		start = -1
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])

		switch {
		case unicode.IsSpace(r):
			flush(i)
		case isWordRune(r) || (start >= 0 && isJoiner(r) && nextIsWord(text[i+size:])):
			if start < 0 {
				start = i
			}
		default:
			flush(i)
			tokens = append(tokens, Span{Text: text[i : i+size], Start: sentence.Start + i, End: sentence.Start + i + size})
		}
		i += size
	}
	flush(len(text))

	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func isJoiner(r rune) bool {
	return r == '\'' || r == '’' || r == '-' || r == '.' || r == ','
}

func nextIsWord(rest string) bool {
	r, _ := utf8.DecodeRuneInString(rest)
	return rest != "" && isWordRune(r)
}
