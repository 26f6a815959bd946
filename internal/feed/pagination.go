package feed

import "sync"

// DefaultLimit is the page size the service serves.
const DefaultLimit = 10

// Params addresses one page. Offset is always a non-negative multiple of Limit.
type Params struct {
	Offset int
	Limit  int
}

// Page returns the 1-based page number.
func (p Params) Page() int {
	if p.Limit <= 0 {
		return 1
	}
	return p.Offset/p.Limit + 1
}

// Pagination is the shared offset/limit state. The intent methods are its
// only mutators; subscribers hear about every change.
type Pagination struct {
	mu        sync.Mutex
	params    Params
	subs      map[int]func(Params)
	nextSubID int
}

func NewPagination(limit int) *Pagination {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Pagination{
		params: Params{Limit: limit},
		subs:   make(map[int]func(Params)),
	}
}

func (p *Pagination) Params() Params {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params
}

func (p *Pagination) Next() Params {
	return p.update(func(cur Params) int { return cur.Offset + cur.Limit })
}

// Prev moves back one page and clamps at zero.
func (p *Pagination) Prev() Params {
	return p.update(func(cur Params) int { return cur.Offset - cur.Limit })
}

// SetOffset jumps to the page containing offset.
func (p *Pagination) SetOffset(offset int) Params {
	return p.update(func(Params) int { return offset })
}

func (p *Pagination) Reset() Params {
	return p.update(func(Params) int { return 0 })
}

// Subscribe registers fn for changes and returns a function that removes it.
func (p *Pagination) Subscribe(fn func(Params)) func() {
	p.mu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subs[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *Pagination) update(next func(Params) int) Params {
	p.mu.Lock()
	cur := p.params
	offset := next(cur)
	if offset < 0 {
		offset = 0
	}
	offset -= offset % cur.Limit
	if offset == cur.Offset {
		p.mu.Unlock()
		return cur
	}
	p.params.Offset = offset
	updated := p.params
	subs := make([]func(Params), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(updated)
	}
	return updated
}
