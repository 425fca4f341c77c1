package puzzle

import (
	"strings"

	"github.com/gosimple/unidecode"
)

// WordEntry is a dictionary word plus its clue/definition text.
type WordEntry struct {
	Word string `json:"word"`
	Clue string `json:"clue"`
}

// Fold strips diacritics and uppercases, so "coração" and "CORACAO" compare
// equal at placement-conflict checks. Both engines use this single policy.
func Fold(s string) string {
	return strings.ToUpper(unidecode.Unidecode(strings.TrimSpace(s)))
}

// foldRunes returns the folded word as a rune slice for cell-wise placement.
func foldRunes(s string) []rune {
	return []rune(Fold(s))
}

// letterPool is a Portuguese-frequency-weighted alphabet used to fill empty
// word-search cells. Vowels and common consonants are overweighted.
const letterPool = "AAAAAAAAEEEEEEEOOOOOOSSSSSRRRRIIIINNNNDDDMMMUUUTTTCCCLLLPPPGGVVHHQQBBFFZJX"

func randomLetter(intn func(int) int) string {
	return string(letterPool[intn(len(letterPool))])
}
