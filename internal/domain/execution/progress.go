package execution

// Progress tracks how many registered steps the pipeline has reached.
// The current position only grows and never exceeds the total.
type Progress struct {
	total   int
	current int
}

// NewProgress creates a Progress for total steps.
func NewProgress(total int) *Progress {
	if total < 0 {
		total = 0
	}
	return &Progress{total: total}
}

// Advance moves to the next step and returns its 1-based position.
// Calls past the last step keep returning (total, total).
func (p *Progress) Advance() (index, total int) {
	if p.current < p.total {
		p.current++
	}
	return p.current, p.total
}

// Current returns the 1-based position of the last step reached.
func (p Progress) Current() int {
	return p.current
}

// Total returns the number of registered steps.
func (p Progress) Total() int {
	return p.total
}

// Done returns true once every step has been reached.
func (p Progress) Done() bool {
	return p.current == p.total
}
