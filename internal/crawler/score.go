package crawler

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const longSummaryRunes = 80

var keywords = []string{"futsal", "football", "jersey", "sportswear", "kit", "training"}

// Score rates how relevant an article is to the store. Base 1, +2 for a
// keyword in the title, +1 for an image, +1 for a summary of 80+ characters.
// Keywords match whole words only, so "kit" does not count for "kitchen".
func Score(a Article) int {
	score := 1
	if hasKeyword(a.Title) {
		score += 2
	}
	if a.ImageURL != "" {
		score++
	}
	if utf8.RuneCountInString(a.Summary) >= longSummaryRunes {
		score++
	}
	return score
}

func hasKeyword(title string) bool {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range words {
		for _, keyword := range keywords {
			if word == keyword {
				return true
			}
		}
	}
	return false
}
