package site

import (
	"sort"
	"time"

	"git.home.luguber.info/inful/sitepipe/internal/content"
	"git.home.luguber.info/inful/sitepipe/internal/render"
)

// IndexEntry is one listed item.
type IndexEntry struct {
	Item  *content.Item
	Date  time.Time
	Entry render.Entry
}

// Index is the ordered site listing: date descending, ties broken by source
// path ascending. Every listable item appears exactly once.
type Index []*IndexEntry

// Sort orders the index in place.
func (ix Index) Sort() {
	sort.SliceStable(ix, func(i, j int) bool {
		if !ix[i].Date.Equal(ix[j].Date) {
			return ix[i].Date.After(ix[j].Date)
		}
		return ix[i].Item.Path < ix[j].Item.Path
	})
}

// Paths returns the source paths in index order.
func (ix Index) Paths() []string {
	out := make([]string, len(ix))
	for i, e := range ix {
		out[i] = e.Item.Path
	}
	return out
}

// Entries returns the listing lines in index order.
func (ix Index) Entries() []render.Entry {
	out := make([]render.Entry, len(ix))
	for i, e := range ix {
		out[i] = e.Entry
	}
	return out
}

// Newest returns the date of the first entry, or the zero time.
func (ix Index) Newest() time.Time {
	if len(ix) == 0 {
		return time.Time{}
	}
	return ix[0].Date
}

// BuildIndex selects the listable items and sorts them. Items that are not
// listable are returned with the reason, keyed by path.
func BuildIndex(items []*content.Item, dateFormat string) (Index, map[string]error) {
	ix := make(Index, 0, len(items))
	excluded := make(map[string]error)
	for _, it := range items {
		date, err := it.Listable()
		if err != nil {
			excluded[it.Path] = err
			continue
		}
		ix = append(ix, &IndexEntry{
			Item: it,
			Date: date,
			Entry: render.Entry{
				Title:         it.Title(),
				URL:           it.Permalink(),
				Path:          it.Path,
				Date:          date,
				DateFormatted: date.Format(dateFormat),
				Summary:       it.Description(),
			},
		})
	}
	ix.Sort()
	return ix, excluded
}
