// Package normalize turns raw article text into sentences of words.
//
// The cleaning steps are order-sensitive; each one assumes the output of the
// previous step.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// flashBoilerplate is injected by the legacy article viewer into every body.
const flashBoilerplate = "// flash 오류를 우회하기 위한 함수 추가 function _flash_removeCallback() {}"

var (
	emailExpr        = regexp.MustCompile(`[0-9A-Za-z_.+\-]+@[0-9A-Za-z.\-]+\.[0-9A-Za-z.\-]+`)
	disallowedExpr   = regexp.MustCompile(`[^0-9A-Za-z가-힣. ]`)
	whitespaceExpr   = regexp.MustCompile(`\s+`)
	leadingSpaceExpr = regexp.MustCompile(`^\s`)
	periodRunExpr    = regexp.MustCompile(`\.{2,}`)
	sentenceEndExpr  = regexp.MustCompile(`([가-힣])\.\s*`)
	fragmentExpr     = regexp.MustCompile(`\n.*[^.]\n`)
	breakRunExpr     = regexp.MustCompile(`\n+`)
	trailingExpr     = regexp.MustCompile(`[\n ]$`)
	titleExpr        = regexp.MustCompile(`[^0-9A-Za-z가-힣]`)
)

// Clean applies the cleaning pipeline and returns newline-separated sentences.
func Clean(raw string) string {
	text := norm.NFC.String(raw)

	text = strings.NewReplacer("\n", " ", "\t", " ", flashBoilerplate, " ").Replace(text)
	text = emailExpr.ReplaceAllString(text, " ")
	text = disallowedExpr.ReplaceAllString(text, " ")
	text = whitespaceExpr.ReplaceAllString(text, " ")
	text = leadingSpaceExpr.ReplaceAllString(text, "")
	text = periodRunExpr.ReplaceAllString(text, ".")
	text = sentenceEndExpr.ReplaceAllString(text, "${1}.\n")
	text = fragmentExpr.ReplaceAllString(text, "\n")
	text = breakRunExpr.ReplaceAllString(text, "\n")
	text = strings.ReplaceAll(text, ".", "")
	text = trailingExpr.ReplaceAllString(text, "")

	return text
}

// Sentences cleans raw text and splits it into sentences of words.
// Empty input yields an empty (nil) list.
func Sentences(raw string) [][]string {
	cleaned := Clean(raw)
	if cleaned == "" {
		return nil
	}

	var sentences [][]string
	for _, line := range strings.Split(cleaned, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}
		sentences = append(sentences, words)
	}
	return sentences
}

// TitleWords strips everything except ASCII alphanumerics and Hangul
// syllables from a title and splits it into words.
func TitleWords(title string) []string {
	return strings.Fields(titleExpr.ReplaceAllString(norm.NFC.String(title), " "))
}
