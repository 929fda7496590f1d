package analyzer

import (
	"strings"
	"unicode"
)

// abbreviations never end a sentence when followed by a period.
var abbreviations = map[string]bool{
	"inc": true, "corp": true, "ltd": true, "co": true, "no": true,
	"mr": true, "mrs": true, "ms": true, "dr": true, "jr": true, "sr": true,
	"st": true, "vs": true, "etc": true, "art": true, "sec": true,
	"para": true, "e.g": true, "i.e": true, "u.s": true, "u.k": true,
}

// SplitSentences breaks text into trimmed sentences. A boundary is a run of
// terminal punctuation followed by whitespace and an upper-case letter, digit,
// quote or opening bracket, unless the word before a period is a known
// abbreviation or a single-letter initial. Blank lines always end a sentence.
func SplitSentences(text string) []string {
	var sentences []string
	for _, para := range strings.Split(text, "\n\n") {
		sentences = append(sentences, splitParagraph(para)...)
	}
	return sentences
}

func splitParagraph(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0

	emit := func(end int) {
		s := strings.TrimSpace(string(runes[start:end]))
		if s != "" {
			out = append(out, s)
		}
		start = end
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		end := i + 1
		for end < len(runes) && strings.ContainsRune(`.!?"')]`, runes[end]) {
			end++
		}
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			continue
		}

		next := end
		for next < len(runes) && unicode.IsSpace(runes[next]) {
			next++
		}
		if next < len(runes) && !opensSentence(runes[next]) {
			continue
		}
		if r == '.' && isAbbreviation(runes[start:i]) && next < len(runes) {
			continue
		}

		emit(end)
		i = end - 1
	}
	emit(len(runes))
	return out
}

func opensSentence(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsDigit(r) || strings.ContainsRune(`"'([`, r)
}

// isAbbreviation inspects the last word of prefix.
func isAbbreviation(prefix []rune) bool {
	j := len(prefix)
	for j > 0 && !unicode.IsSpace(prefix[j-1]) {
		j--
	}
	word := strings.Trim(string(prefix[j:]), `"'(`)
	if word == "" {
		return false
	}
	if len([]rune(word)) == 1 && unicode.IsUpper([]rune(word)[0]) {
		return true
	}
	return abbreviations[strings.ToLower(word)]
}
