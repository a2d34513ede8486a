package domain

// Stage names of a research run, in the order they are reported.
const (
	StageExpanded  = "expanded"
	StageCollected = "collected"
	StageScored    = "scored"
)

// Progress is one step of a research run. Done counts finished keywords of
// Total during collection; the other stages report Done == Total.
type Progress struct {
	Stage   string  `json:"stage"`
	Done    int     `json:"done"`
	Total   int     `json:"total"`
	Keyword Keyword `json:"keyword,omitempty"`
}

// ProgressFunc receives progress events. Calls never overlap but may come
// from different goroutines.
type ProgressFunc func(Progress)
