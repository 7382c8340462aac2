package core

// progressTracker maps pipeline work onto a single percentage: 0-50 while rows
// are validated and checked for duplicates, 50-100 while chunks are persisted.
// Reported values never decrease. A nil tracker or nil callback is a no-op.
type progressTracker struct {
	fn    ProgressFunc
	phase ImportPhase
	last  int
}

// scanEvery throttles validation updates for large files.
const scanEvery = 100

func newProgressTracker(fn ProgressFunc) *progressTracker {
	return &progressTracker{fn: fn, last: -1}
}

func (p *progressTracker) report(phase ImportPhase, pct int) {
	if p == nil || p.fn == nil {
		return
	}
	pct = max(0, min(pct, 100))
	if pct < p.last {
		pct = p.last
	}
	if pct == p.last && phase == p.phase {
		return
	}
	p.last, p.phase = pct, phase
	p.fn(phase, pct)
}

// scan reports validation progress after done of total rows.
func (p *progressTracker) scan(done, total int) {
	if total <= 0 {
		p.report(PhaseValidating, 50)
		return
	}
	if done%scanEvery != 0 && done != total {
		return
	}
	p.report(PhaseValidating, done*50/total)
}

// persist reports persistence progress after done of total rows.
func (p *progressTracker) persist(done, total int) {
	if total <= 0 {
		p.report(PhaseInserting, 100)
		return
	}
	p.report(PhaseInserting, 50+done*50/total)
}

func (p *progressTracker) complete() {
	p.report(PhaseComplete, 100)
}
