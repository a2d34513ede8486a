package domain

import "math"

type SignalName string

const (
	SignalSearchVolume     SignalName = "search_volume"
	SignalCompetitionCount SignalName = "competition_count"
	SignalTrendMomentum    SignalName = "trend_momentum"
	SignalReviewCount      SignalName = "review_count"

	SignalAvgPrice  SignalName = "avg_price"
	SignalAvgRating SignalName = "avg_rating"
)

// AllSignals lists every signal the scorer understands.
var AllSignals = []SignalName{
	SignalSearchVolume,
	SignalCompetitionCount,
	SignalTrendMomentum,
	SignalReviewCount,
}

// DetailSignals are reported with results but never scored, so their absence
// is not listed as missing.
var DetailSignals = []SignalName{
	SignalAvgPrice,
	SignalAvgRating,
}

var knownSignals = append(append([]SignalName{}, AllSignals...), DetailSignals...)

func (s SignalName) String() string {
	return string(s)
}

func (s SignalName) IsValid() bool {
	switch s {
	case SignalSearchVolume, SignalCompetitionCount, SignalTrendMomentum, SignalReviewCount,
		SignalAvgPrice, SignalAvgRating:
		return true
	default:
		return false
	}
}

// SignalSet holds the measurements known for one keyword. An absent key means
// the signal is missing, which is not the same thing as zero.
type SignalSet map[SignalName]float64

func NewSignalSet() SignalSet {
	return make(SignalSet, len(knownSignals))
}

// Set stores value under name. Unknown names and malformed values
// (NaN, ±Inf, negative) are dropped so they read back as missing.
func (s SignalSet) Set(name SignalName, value float64) {
	if s == nil || !name.IsValid() || !ValidSignalValue(value) {
		return
	}
	s[name] = value
}

func (s SignalSet) Get(name SignalName) (float64, bool) {
	if s == nil {
		return 0, false
	}
	value, ok := s[name]
	if !ok || !ValidSignalValue(value) {
		return 0, false
	}
	return value, true
}

func (s SignalSet) Has(name SignalName) bool {
	_, ok := s.Get(name)
	return ok
}

// Merge copies signals from other that s does not already hold and returns
// the names it copied. The receiver keeps precedence: first non-missing value
// wins.
func (s SignalSet) Merge(other SignalSet) []SignalName {
	if s == nil {
		return nil
	}
	var added []SignalName
	for _, name := range knownSignals {
		if s.Has(name) {
			continue
		}
		if value, ok := other.Get(name); ok {
			s[name] = value
			added = append(added, name)
		}
	}
	return added
}

// Missing returns the signal names without a usable value, in AllSignals order.
func (s SignalSet) Missing() []string {
	missing := make([]string, 0, len(AllSignals))
	for _, name := range AllSignals {
		if !s.Has(name) {
			missing = append(missing, name.String())
		}
	}
	return missing
}

// Measurement is the merged SignalSet of one keyword plus the source kind
// that supplied each signal.
type Measurement struct {
	Signals SignalSet
	Origins map[SignalName]string
}

func NewMeasurement() Measurement {
	return Measurement{
		Signals: NewSignalSet(),
		Origins: make(map[SignalName]string, len(knownSignals)),
	}
}

// Merge adds the signals of set that m does not hold yet, crediting origin.
func (m *Measurement) Merge(set SignalSet, origin string) {
	if m.Signals == nil {
		m.Signals = NewSignalSet()
	}
	if m.Origins == nil {
		m.Origins = make(map[SignalName]string, len(knownSignals))
	}
	for _, name := range m.Signals.Merge(set) {
		m.Origins[name] = origin
	}
}

// Origin returns the source kind that supplied name, or "" when the signal is
// missing.
func (m Measurement) Origin(name SignalName) string {
	if !m.Signals.Has(name) {
		return ""
	}
	return m.Origins[name]
}

func ValidSignalValue(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0) && value >= 0
}
