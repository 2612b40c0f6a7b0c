package ir

// poolPageSize mirrors the teacher's ssa.pool paging constant: small enough
// to keep the per-page backing array cheap to zero on reset, large enough
// that steady-state allocation almost never touches the page-growth path.
const poolPageSize = 128

// pool is a generic paged arena. Every IR entity (Instruction,
// RegisterOperand, ArrayVariable) is allocated from a shader-owned pool so
// that freeing a shader is a single bulk reset rather than a graph walk,
// per spec.md §3.3's lifecycle description. Pointers handed out by
// allocate remain valid for the pool's lifetime because growth only
// appends new pages; existing pages, and the elements inside them, never
// move.
type pool[T any] struct {
	pages     []*[poolPageSize]T
	allocated int
	index     int
}

func newPool[T any]() pool[T] {
	var p pool[T]
	p.index = poolPageSize
	return p
}

func (p *pool[T]) allocate() *T {
	if p.index == poolPageSize {
		if n := len(p.pages); n < cap(p.pages) && p.pages[:n+1][n] != nil {
			p.pages = p.pages[:n+1] // reuse a page kept (zeroed) by reset.
		} else {
			p.pages = append(p.pages, new([poolPageSize]T))
		}
		p.index = 0
	}
	ret := &p.pages[len(p.pages)-1][p.index]
	p.index++
	p.allocated++
	return ret
}

// view returns the i-th allocated element, in allocation order.
func (p *pool[T]) view(i int) *T {
	page, idx := i/poolPageSize, i%poolPageSize
	return &p.pages[page][idx]
}

// reset zeroes every page and empties the pool, for reuse across shader
// compiles without re-allocating the backing pages.
func (p *pool[T]) reset() {
	for _, page := range p.pages {
		var zero [poolPageSize]T
		*page = zero
	}
	p.pages = p.pages[:0]
	p.index = poolPageSize
	p.allocated = 0
}
