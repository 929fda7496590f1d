package analyzer

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/AnTengye/clausewise/backend/model"
)

var (
	typographic = strings.NewReplacer(
		"\r\n", "\n",
		"\r", "\n",
		"“", `"`, "”", `"`,
		"‘", "'", "’", "'",
		"–", "-", "—", "-",
		"\u00a0", " ",
		"\u2022", " ",
	)
	disallowedChars = regexp.MustCompile(`[^\p{L}\p{N}\s.,;:!?()\[\]"'\-$€£¥%&/@#§*+=]`)
	horizontalSpace = regexp.MustCompile(`[^\S\n]+`)
	extraBlankLines = regexp.MustCompile(`\n{3,}`)
)

// Normalize canonicalizes whitespace and punctuation while keeping line and
// paragraph structure, which the clause segmenter relies on. Text is composed
// to NFC first so decomposed accents survive the character filter.
func Normalize(raw string) model.Document {
	text := typographic.Replace(norm.NFC.String(raw))
	text = disallowedChars.ReplaceAllString(text, " ")
	text = horizontalSpace.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = extraBlankLines.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	return model.Document{
		Text:      text,
		WordCount: len(strings.Fields(text)),
	}
}
