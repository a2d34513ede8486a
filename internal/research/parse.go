package research

import (
	"github.com/kapu/kdp-keyword-go/internal/constants"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/internal/util"
)

// ParseSeeds splits raw user input into seed keywords. Bulk input holds one
// keyword per line, single input is comma separated. Pieces are normalized,
// blanks dropped, duplicates removed keeping the first occurrence, and the
// result capped at maxSeeds (constants.ResearchLimits.MaxSeeds when <= 0).
func ParseSeeds(raw string, bulk bool, maxSeeds int) []domain.Keyword {
	if maxSeeds <= 0 {
		maxSeeds = constants.ResearchLimits.MaxSeeds
	}

	sep := ","
	if bulk {
		sep = "\n"
	}

	seen := make(map[domain.Keyword]bool)
	seeds := make([]domain.Keyword, 0)
	for _, piece := range util.SplitNonEmpty(raw, sep) {
		kw := domain.NewKeyword(piece)
		if kw.IsEmpty() || seen[kw] {
			continue
		}
		seen[kw] = true
		seeds = append(seeds, kw)
		if len(seeds) == maxSeeds {
			break
		}
	}
	return seeds
}
