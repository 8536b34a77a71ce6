package templater

import (
	"strconv"
	"strings"
)

// alphabet is the placeholder order: X, Y, Z first, then A through W.
const alphabet = "XYZABCDEFGHIJKLMNOPQRSTUVW"

// Placeholder returns the marker for the i-th (0-based) substituted quantity.
// Past the alphabet a round number is appended: index 26 is {X2}.
func Placeholder(i int) string {
	if i < 0 {
		i = 0
	}
	sym := string(alphabet[i%len(alphabet)])
	if round := i / len(alphabet); round > 0 {
		sym += strconv.Itoa(round + 1)
	}
	return "{" + sym + "}"
}

// parsePlaceholder reads a marker of the form {L} or {Ln} at s[0].
// It returns the byte length of the marker and its sequence index.
func parsePlaceholder(s string) (size, index int, ok bool) {
	if len(s) < 3 || s[0] != '{' {
		return 0, 0, false
	}
	pos := strings.IndexByte(alphabet, s[1])
	if pos < 0 {
		return 0, 0, false
	}
	j := 2
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j >= len(s) || s[j] != '}' {
		return 0, 0, false
	}
	round := 1
	if j > 2 {
		if n, err := strconv.Atoi(s[2:j]); err == nil && n > 1 {
			round = n
		}
	}
	return j + 1, (round-1)*len(alphabet) + pos, true
}
