package pipeline

import (
	"sync/atomic"
)

// Profiler aggregates counters and timers across multiple documents.
type Profiler struct {
	PagesTimeNs    atomic.Int64
	SectionsTimeNs atomic.Int64
	Documents      atomic.Int64
	Pages          atomic.Int64
	Sections       atomic.Int64
	FailedChecks   atomic.Int64
}

// Record adds one structured document to the totals. Results without
// debug timings only contribute counts.
func (p *Profiler) Record(res *Result) {
	if res == nil {
		return
	}
	p.Documents.Add(1)
	p.Pages.Add(int64(res.Meta.Pages))
	p.Sections.Add(int64(len(res.Sections)))
	p.FailedChecks.Add(int64(res.FailedChecks()))
	if res.Debug != nil {
		p.PagesTimeNs.Add(res.Debug.Processing.PagesNs)
		p.SectionsTimeNs.Add(res.Debug.Processing.SectionsNs)
	}
}

// Snapshot returns cumulative metrics in milliseconds for readability.
func (p *Profiler) Snapshot() map[string]any {
	docs := p.Documents.Load()
	pagesNs := p.PagesTimeNs.Load()
	secNs := p.SectionsTimeNs.Load()
	out := map[string]any{
		"documents":         docs,
		"pages":             p.Pages.Load(),
		"sections":          p.Sections.Load(),
		"failed_checks":     p.FailedChecks.Load(),
		"pages_ms_total":    pagesNs / 1_000_000,
		"sections_ms_total": secNs / 1_000_000,
	}
	if docs > 0 {
		out["pages_ms_per_doc"] = float64(pagesNs) / 1_000_000.0 / float64(docs)
		out["sections_ms_per_doc"] = float64(secNs) / 1_000_000.0 / float64(docs)
	}
	return out
}
