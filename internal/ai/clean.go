package ai

import (
	"regexp"
	"strings"
)

var (
	zeroWidthRe   = regexp.MustCompile(`[\x{200B}\x{200C}\x{200D}\x{FEFF}]`)
	controlRe     = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	quizHeadingRe = regexp.MustCompile(`(?i)<h[1-6][^>]*>\s*(?:kuis|quiz)[^<]*</h[1-6]>`)
	quizParaRe    = regexp.MustCompile(`(?i)<p[^>]*>[^<]*(?:kuis|quiz)[^<]*(?:tersedia|available|below|berikut)[^<]*</p>`)
	quizMarkRe    = regexp.MustCompile(`(?im)^#{1,6}\s*(?:kuis|quiz)\b.*$`)
	spaceRunRe    = regexp.MustCompile(`[ \t]{2,}`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
)

// CleanContent normalizes generated lesson text: zero-width and control
// characters are dropped, leftover quiz headings are removed (the quiz is
// rendered separately from its own payload), and whitespace runs collapse.
func CleanContent(s string) string {
	s = zeroWidthRe.ReplaceAllString(s, "")
	s = controlRe.ReplaceAllString(s, "")
	s = quizHeadingRe.ReplaceAllString(s, "")
	s = quizParaRe.ReplaceAllString(s, "")
	s = quizMarkRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
