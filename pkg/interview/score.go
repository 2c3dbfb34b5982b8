package interview

import (
	"regexp"
	"strconv"
)

// scorePattern matches the interviewer directive's score marker. The digit
// class is bound to 0-5, so an out-of-range marker like "Score: 6/5" is
// simply not a match.
var scorePattern = regexp.MustCompile(`Score:\s*([0-5])\s*/\s*5`)

// ExtractScore finds the score marker in an assistant reply. A missing or
// malformed marker is not an error; the turn is just recorded unscored.
func ExtractScore(text string) (score int, ok bool) {
	match := scorePattern.FindStringSubmatch(text)
	if match == nil {
		return score, ok
	}

	score, _ = strconv.Atoi(match[1])
	ok = true

	return score, ok
}
