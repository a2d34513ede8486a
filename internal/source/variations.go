package source

import (
	"context"
	"strings"
)

const variationsName = "variations"

var (
	variationPrefixes = []string{
		"how to", "guide to", "complete guide", "beginner guide",
		"step by step", "ultimate guide", "easy", "simple",
	}
	variationSuffixes = []string{
		"for beginners", "guide", "handbook", "manual",
		"tips", "strategies", "techniques", "workbook",
	}
)

// Variations builds book-title style phrasings of the seed locally: common
// prefixes, common suffixes, and the word bigrams of multi-word seeds.
// It never touches the network and never fails.
type Variations struct{}

func NewVariations() *Variations {
	return &Variations{}
}

func (v *Variations) Name() string { return variationsName }

func (v *Variations) Kind() Kind { return KindIdeas }

func (v *Variations) Suggest(_ context.Context, seed string) ([]string, error) {
	seed = strings.Join(strings.Fields(seed), " ")
	if seed == "" {
		return nil, nil
	}

	out := make([]string, 0, len(variationPrefixes)+len(variationSuffixes)+4)
	for _, prefix := range variationPrefixes {
		out = append(out, prefix+" "+seed)
	}
	for _, suffix := range variationSuffixes {
		out = append(out, seed+" "+suffix)
	}

	words := strings.Fields(seed)
	if len(words) > 2 {
		for i := 0; i+1 < len(words); i++ {
			out = append(out, words[i]+" "+words[i+1])
		}
	}
	return out, nil
}
