package domain

import "github.com/kapu/kdp-keyword-go/internal/util"

// Keyword is a normalized search phrase: lowercase, trimmed, single-spaced.
// Two keywords are the same candidate iff their Keyword values are equal.
type Keyword string

func NewKeyword(raw string) Keyword {
	return Keyword(util.NormalizeSpaces(raw))
}

func (k Keyword) String() string {
	return string(k)
}

func (k Keyword) IsEmpty() bool {
	return k == ""
}

// Candidate is a keyword produced by expansion and pending scoring.
type Candidate struct {
	Keyword Keyword  `json:"keyword"`
	Seed    Keyword  `json:"seed"`
	Sources []string `json:"sources,omitempty"`
}

// IsSeed reports whether the candidate is one of the user supplied seeds.
func (c Candidate) IsSeed() bool {
	return c.Keyword == c.Seed
}
