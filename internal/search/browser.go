package search

import (
	"slices"

	"github.com/ramops/bagdesk/internal/api"
	"github.com/ramops/bagdesk/internal/pager"
)

// RefreshPolicy decides what happens to the current page when a refresh
// shrinks the filtered listing below it.
type RefreshPolicy int

const (
	// ClampOnRefresh moves to the last valid page.
	ClampOnRefresh RefreshPolicy = iota
	// KeepOnRefresh leaves the page as is; it renders empty until the user
	// moves or the listing grows back.
	KeepOnRefresh
)

// Browser owns the raw voyage listing, the filter state and the current
// page. It is not safe for concurrent use; the UI drives it from a single
// goroutine.
type Browser struct {
	pager  pager.Pager
	policy RefreshPolicy

	raw      []api.Voyage
	filtered []api.Voyage
	query    string
	fields   Fields
	page     int
	err      error
	loaded   bool
}

// BrowserOption customises a Browser.
type BrowserOption func(*Browser)

// WithRefreshPolicy selects the out-of-range page behaviour.
func WithRefreshPolicy(p RefreshPolicy) BrowserOption {
	return func(b *Browser) { b.policy = p }
}

// NewBrowser returns an empty, unloaded Browser on page 1.
func NewBrowser(p pager.Pager, opts ...BrowserOption) *Browser {
	b := &Browser{pager: p, page: 1, filtered: []api.Voyage{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetQuery changes the free-text query and returns to page 1.
func (b *Browser) SetQuery(query string) {
	b.query = query
	b.refilter()
	b.page = 1
}

// SetField changes one field constraint and returns to page 1.
func (b *Browser) SetField(f Field, value string) {
	b.fields.Set(f, value)
	b.refilter()
	b.page = 1
}

// SetFields replaces every field constraint and returns to page 1.
func (b *Browser) SetFields(fields Fields) {
	b.fields = fields
	b.refilter()
	b.page = 1
}

// ClearFilters drops the query and all constraints.
func (b *Browser) ClearFilters() {
	b.query = ""
	b.fields = Fields{}
	b.refilter()
	b.page = 1
}

// Replace swaps in a freshly fetched listing. Filters are kept and the page
// only moves if the refresh policy requires it.
func (b *Browser) Replace(records []api.Voyage) {
	b.raw = slices.Clone(records)
	b.err = nil
	b.loaded = true
	b.refilter()
	b.applyPolicy()
}

// Fail records a load error and empties the listing.
func (b *Browser) Fail(err error) {
	b.raw = nil
	b.err = err
	b.loaded = true
	b.refilter()
	b.applyPolicy()
}

// Unload discards the listing when its poller is torn down. Query, fields
// and page survive so the view comes back where the user left it.
func (b *Browser) Unload() {
	b.raw = nil
	b.filtered = []api.Voyage{}
	b.err = nil
	b.loaded = false
}

// SetPage jumps to page, clamped into range.
func (b *Browser) SetPage(page int) {
	b.page = b.pager.Clamp(page, len(b.filtered))
}

// NextPage advances one page unless already on the last.
func (b *Browser) NextPage() {
	b.page = b.pager.Next(b.page, len(b.filtered))
}

// PrevPage goes back one page unless already on the first.
func (b *Browser) PrevPage() {
	b.page = b.pager.Prev(b.page)
}

// Visible returns the voyages on the current page.
func (b *Browser) Visible() []api.Voyage {
	return pager.Slice(b.pager, b.filtered, b.page)
}

// Filtered returns a copy of the whole filtered listing.
func (b *Browser) Filtered() []api.Voyage {
	return slices.Clone(b.filtered)
}

// Count is the number of voyages passing the filter.
func (b *Browser) Count() int { return len(b.filtered) }

// Total is the number of voyages in the raw listing.
func (b *Browser) Total() int { return len(b.raw) }

// Page is the current 1-indexed page.
func (b *Browser) Page() int { return b.page }

// TotalPages is the page count of the filtered listing.
func (b *Browser) TotalPages() int { return b.pager.TotalPages(len(b.filtered)) }

// Query returns the free-text query.
func (b *Browser) Query() string { return b.query }

// Fields returns the field constraints.
func (b *Browser) Fields() Fields { return b.fields }

// Err returns the last load error, cleared by a successful Replace.
func (b *Browser) Err() error { return b.err }

// Loaded reports whether any fetch has completed.
func (b *Browser) Loaded() bool { return b.loaded }

func (b *Browser) refilter() {
	b.filtered = Apply(b.raw, b.query, b.fields)
}

func (b *Browser) applyPolicy() {
	if b.policy == ClampOnRefresh {
		b.page = b.pager.Clamp(b.page, len(b.filtered))
	}
}
