package site

import (
	"path"
	"sort"

	"git.home.luguber.info/inful/sitepipe/internal/render"
)

const tagsDir = "tags"

// TagGroup is the listing of one tag.
type TagGroup struct {
	Name    string
	Slug    string
	Entries []*IndexEntry
}

// URL is the site-relative URL of the tag page.
func (g *TagGroup) URL() string { return "/" + tagsDir + "/" + g.Slug + "/" }

// OutputPath is the artifact path of the tag page.
func (g *TagGroup) OutputPath() string { return path.Join(tagsDir, g.Slug, "index.html") }

// GroupTags collects indexed entries per tag slug, in index order. Tags that
// slugify to the same value share one page named after the first spelling
// seen.
func GroupTags(ix Index) map[string]*TagGroup {
	groups := make(map[string]*TagGroup)
	for _, e := range ix {
		for _, tag := range e.Item.Tags() {
			slug := Slugify(tag)
			if slug == "" {
				continue
			}
			g, ok := groups[slug]
			if !ok {
				g = &TagGroup{Name: tag, Slug: slug}
				groups[slug] = g
			}
			if n := len(g.Entries); n > 0 && g.Entries[n-1] == e {
				continue
			}
			g.Entries = append(g.Entries, e)
		}
	}
	return groups
}

// sortedSlugs returns the group keys in order.
func sortedSlugs(groups map[string]*TagGroup) []string {
	slugs := make([]string, 0, len(groups))
	for s := range groups {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}

// tagLinks resolves tags to pages that exist.
func tagLinks(tags []string, groups map[string]*TagGroup) []render.TagLink {
	var links []render.TagLink
	for _, tag := range tags {
		if g, ok := groups[Slugify(tag)]; ok {
			links = append(links, render.TagLink{Name: tag, URL: g.URL()})
		}
	}
	return links
}
