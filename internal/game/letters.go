package game

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

// stripMarks decomposes to NFD and drops combining marks, which folds
// Vietnamese tone and vowel diacritics onto their base letters.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeAnswer reduces an answer to bare uppercase letters and digits.
// Diacritics are stripped, including the stroke letter đ which NFD does
// not decompose, and whitespace and punctuation are removed entirely, so
// "DẦU KHÍ" normalizes to "DAUKHI".
func NormalizeAnswer(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch r {
		case 'đ':
			r = 'd'
		case 'Đ':
			r = 'D'
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// LetterCount counts the letters of the normalized form. This is the
// publicly displayed length hint for the hidden keyword.
func LetterCount(answer string) int {
	return len([]rune(NormalizeAnswer(answer)))
}

// AnswersMatch reports whether a submitted answer matches the official
// answer or any accepted alternative after normalization.
func AnswersMatch(q *models.Question, submitted string) bool {
	got := NormalizeAnswer(submitted)
	if got == "" {
		return false
	}
	if got == NormalizeAnswer(q.AnswerText) {
		return true
	}
	for _, alt := range q.AcceptedAnswers {
		if got == NormalizeAnswer(alt) {
			return true
		}
	}
	return false
}
