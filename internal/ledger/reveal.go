package ledger

// RevealStep is how many rows each sentinel trigger adds.
const RevealStep = 5

// Pager implements incremental reveal: only the first N filtered rows
// are displayed, and N grows by RevealStep each time the sentinel
// scrolls into view while more rows remain.
type Pager struct {
	limit int
}

// NewPager returns a pager showing the initial RevealStep rows.
func NewPager() *Pager {
	return &Pager{limit: RevealStep}
}

// Visible returns how many of total filtered rows should be shown.
func (p *Pager) Visible(total int) int {
	if total < p.limit {
		return total
	}
	return p.limit
}

// CanReveal reports whether more filtered rows remain hidden.
func (p *Pager) CanReveal(total int) bool {
	return p.limit < total
}

// Reveal advances the limit by RevealStep if more rows remain,
// reporting whether anything changed. Once every row is visible,
// further sentinel triggers are no-ops.
func (p *Pager) Reveal(total int) bool {
	if !p.CanReveal(total) {
		return false
	}
	p.limit += RevealStep
	return true
}

// Reset returns to the initial reveal count. Called whenever the
// filter changes.
func (p *Pager) Reset() {
	p.limit = RevealStep
}
