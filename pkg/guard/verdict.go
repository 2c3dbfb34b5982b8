package guard

import "strings"

// verdictToken is the exact accepting prefix of the guard model's reply.
// The match is case-sensitive and positional, not semantic: "VALID" at the
// start accepts, everything else rejects.
const verdictToken = "VALID"

// Verdict is the typed result of parsing the guard model's reply. The rest
// of the system matches on this struct, never on raw reply strings.
type Verdict struct {
	Valid  bool
	Reason string
}

// ParseVerdict interprets the input-guard reply. Replies of the form
// "INVALID: <reason>" surface the reason; a bare "INVALID" or any other
// text rejects without one.
func ParseVerdict(text string) (verdict Verdict) {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, verdictToken) {
		verdict.Valid = true
		return verdict
	}

	if rest, found := strings.CutPrefix(trimmed, "INVALID:"); found {
		verdict.Reason = strings.TrimSpace(rest)
	}

	return verdict
}
