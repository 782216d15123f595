package domain

import "time"

// Market is a two-option betting proposition carrying two parallel stake
// pools: the token pools (one total per option) and the legacy points/stars
// "pot" kept for backward compatibility.
//
// A market is created by the betting subsystem and mutated exactly once by
// the resolution coordinator (Resolved false -> true). Resolution is terminal.
type Market struct {
	ID       string
	Question string
	Options  []string // ordered option labels, >= 2

	// TokenPools holds the aggregate token stake per option, indexed in
	// parallel with Options.
	TokenPools []float64

	// Pot is the aggregate legacy stake (stars and points collapsed).
	Pot int64

	Resolved      bool
	WinningOption string
	ResolvedAt    *time.Time

	// AutoOutcome, when non-empty, lets the settlement scanner resolve the
	// market to this option once ClosesAt has passed.
	AutoOutcome string

	ClosesAt  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasOption reports whether label is one of the market's declared options.
func (m Market) HasOption(label string) bool {
	for _, o := range m.Options {
		if o == label {
			return true
		}
	}
	return false
}

// OptionIndex returns the position of label in Options, or -1.
func (m Market) OptionIndex(label string) int {
	for i, o := range m.Options {
		if o == label {
			return i
		}
	}
	return -1
}

// TokenPool returns the aggregate token stake for the given option label.
// Unknown labels return 0.
func (m Market) TokenPool(label string) float64 {
	i := m.OptionIndex(label)
	if i < 0 || i >= len(m.TokenPools) {
		return 0
	}
	return m.TokenPools[i]
}

// Resolvable reports whether the resolution engine accepts this market.
// Only two-option markets are settled here; anything else is rejected at
// validation time.
func (m Market) Resolvable() bool {
	return len(m.Options) == 2
}
