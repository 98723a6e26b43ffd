package paginate

import (
	"context"
	"sync"

	"github.com/graphbind/graphbind/model"
)

// DataSource is the backing-store capability the executor windows over: a
// filtered, scoped query that can fetch a window and count its full result.
type DataSource interface {
	Fetch(ctx context.Context, limit, offset int) ([]model.Record, error)
	Count(ctx context.Context) (int, error)
}

// Page is one window of records plus pagination metadata. The total count
// runs lazily on first access and is cached for the page's lifetime.
type Page struct {
	Records     []model.Record
	PerPage     int
	CurrentPage int // 1-based
	Offset      int

	hasMore bool
	source  DataSource
	// countCtx is detached from request cancellation so a total requested
	// after sibling fields finish still completes.
	countCtx context.Context

	totalVal *int
	totalMu  sync.Mutex
}

func newPage(ctx context.Context, src DataSource, records []model.Record, perPage, currentPage, offset int, hasMore bool) *Page {
	if records == nil {
		records = []model.Record{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &Page{
		Records:     records,
		PerPage:     perPage,
		CurrentPage: currentPage,
		Offset:      offset,
		hasMore:     hasMore,
		source:      src,
		countCtx:    context.WithoutCancel(ctx),
	}
}

// Count returns the number of records in this window.
func (p *Page) Count() int {
	return len(p.Records)
}

// HasMore reports whether rows exist beyond this window, learned from the
// one-extra-row probe rather than a count query.
func (p *Page) HasMore() bool {
	return p.hasMore
}

// FirstItem returns the 1-based position of the window's first record, or
// nil for an empty window.
func (p *Page) FirstItem() interface{} {
	if len(p.Records) == 0 {
		return nil
	}
	return p.Offset + 1
}

// LastItem returns the 1-based position of the window's last record, or nil
// for an empty window.
func (p *Page) LastItem() interface{} {
	if len(p.Records) == 0 {
		return nil
	}
	return p.Offset + len(p.Records)
}

// Total returns the full result count, running the count query at most once.
func (p *Page) Total() (int, error) {
	p.totalMu.Lock()
	defer p.totalMu.Unlock()

	if p.totalVal != nil {
		return *p.totalVal, nil
	}
	if p.source == nil {
		zero := 0
		p.totalVal = &zero
		return 0, nil
	}

	total, err := p.source.Count(p.countCtx)
	if err != nil {
		return 0, err
	}
	p.totalVal = &total
	return total, nil
}

// LastPage returns the highest page number, at least 1.
func (p *Page) LastPage() (int, error) {
	total, err := p.Total()
	if err != nil {
		return 0, err
	}
	if p.PerPage <= 0 || total <= 0 {
		return 1, nil
	}
	last := (total + p.PerPage - 1) / p.PerPage
	if last < 1 {
		last = 1
	}
	return last, nil
}
