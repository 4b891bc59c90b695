// Package pager implements fixed-size page arithmetic over in-memory lists.
// Pages are 1-indexed.
package pager

// DefaultSize is the page size used when none is configured.
const DefaultSize = 5

// Pager slices lists into pages of a fixed size.
type Pager struct {
	size int
}

// New returns a Pager; sizes below one fall back to DefaultSize.
func New(size int) Pager {
	if size <= 0 {
		size = DefaultSize
	}
	return Pager{size: size}
}

// Size returns the page size.
func (p Pager) Size() int {
	if p.size <= 0 {
		return DefaultSize
	}
	return p.size
}

// TotalPages is max(1, ceil(count/size)).
func (p Pager) TotalPages(count int) int {
	if count <= 0 {
		return 1
	}
	size := p.Size()
	return (count + size - 1) / size
}

// Bounds returns the half-open index range of page within count items.
// Pages outside the list yield an empty range; it never clamps.
func (p Pager) Bounds(page, count int) (start, end int) {
	if page < 1 || count <= 0 {
		return 0, 0
	}
	size := p.Size()
	start = (page - 1) * size
	if start >= count {
		return count, count
	}
	end = start + size
	if end > count {
		end = count
	}
	return start, end
}

// Prev is max(1, page-1).
func (p Pager) Prev(page int) int {
	if page <= 1 {
		return 1
	}
	return page - 1
}

// Next is min(totalPages, page+1).
func (p Pager) Next(page, count int) int {
	total := p.TotalPages(count)
	if page >= total {
		return total
	}
	if page < 1 {
		return 1
	}
	return page + 1
}

// Clamp pins page into [1, TotalPages(count)].
func (p Pager) Clamp(page, count int) int {
	if page < 1 {
		return 1
	}
	if total := p.TotalPages(count); page > total {
		return total
	}
	return page
}

// Slice returns a copy of the items on page. Out-of-range pages return an
// empty, non-nil slice.
func Slice[T any](p Pager, items []T, page int) []T {
	start, end := p.Bounds(page, len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}
