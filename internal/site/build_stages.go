package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitepipe/internal/content"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/manifest"
	"git.home.luguber.info/inful/sitepipe/internal/render"
)

const (
	indexLayout = "index"
	tagLayout   = "tag"
	indexOutput = "index.html"
	feedOutput  = "feed.xml"
	mapOutput   = "sitemap.xml"
)

func defaultStages() []namedStage {
	return []namedStage{
		{StageDiscover, stageDiscover},
		{StageParse, stageParse},
		{StageLayouts, stageLayouts},
		{StageRenderItems, stageRenderItems},
		{StageRenderIndex, stageRenderIndex},
		{StageRenderTags, stageRenderTags},
		{StageFeeds, stageFeeds},
		{StageCopyAssets, stageCopyAssets},
		{StageManifest, stageManifest},
	}
}

func stageDiscover(_ context.Context, bs *buildState) error {
	tree, err := content.Discover(bs.root, bs.b.cfg.Source.Extension,
		bs.layoutsDir(), bs.output, bs.stageDir, backupDir(bs.output))
	if err != nil {
		return fmt.Errorf("discover content: %w", err)
	}
	bs.tree = tree
	bs.report.Discovered = len(tree.Content)
	slog.Debug("Discovered source files", "content", len(tree.Content), "assets", len(tree.Assets))
	return nil
}

func (bs *buildState) layoutsDir() string {
	return filepath.Join(bs.root, filepath.FromSlash(bs.b.cfg.Source.LayoutsDir))
}

// stageParse reads every content file. Malformed front matter skips the file
// and the build goes on.
func stageParse(ctx context.Context, bs *buildState) error {
	for _, rel := range bs.tree.Content {
		if err := ctx.Err(); err != nil {
			return newCanceledStageError(StageParse, err)
		}
		raw, err := os.ReadFile(filepath.Join(bs.root, filepath.FromSlash(rel))) // #nosec G304 -- discovered under source root
		if err != nil {
			slog.Warn("Skipping unreadable content file", logfields.File(rel), logfields.Error(err))
			bs.report.addIssue(IssueReadFailure, rel, err)
			bs.report.Skipped++
			continue
		}
		it, err := content.Parse(rel, raw)
		if err != nil {
			slog.Warn("Skipping content file with malformed front matter", logfields.File(rel), logfields.Error(err))
			bs.report.addIssue(IssueFrontMatter, rel, err)
			bs.report.Skipped++
			continue
		}
		bs.report.Fingerprints[rel] = it.Fingerprint
		if isIndexSource(rel) {
			if bs.indexPage != nil {
				err := fmt.Errorf("%s already provides the site index", bs.indexPage.Path)
				slog.Warn("Skipping duplicate site index source", logfields.File(rel), logfields.Error(err))
				bs.report.addIssue(IssueOutputConflict, rel, err)
				bs.report.Skipped++
				continue
			}
			bs.indexPage = it
			continue
		}
		bs.items = append(bs.items, it)
	}

	// The index source alone is a listing of nothing.
	if len(bs.items) == 0 {
		return newFatalStageError(StageParse, fmt.Errorf("%w: %d discovered, %d skipped", ErrEmptyBuild, bs.report.Discovered, bs.report.Skipped))
	}

	ix, excluded := BuildIndex(bs.items, bs.b.cfg.Site.DateFormat)
	for _, it := range bs.items {
		err, ok := excluded[it.Path]
		if !ok {
			continue
		}
		if errors.Is(err, content.ErrInvalidDate) {
			slog.Warn("Unparseable date, item not indexed", logfields.File(it.Path), logfields.Error(err))
			bs.report.addIssue(IssueInvalidDate, it.Path, err)
			continue
		}
		slog.Debug("Item not indexed", logfields.File(it.Path), "reason", err.Error())
	}
	bs.index = ix
	bs.tags = GroupTags(ix)
	bs.report.Indexed = len(ix)
	return nil
}

// isIndexSource reports whether rel is the root index.md that feeds the
// listing page instead of being a page of its own.
func isIndexSource(rel string) bool {
	if strings.Contains(rel, "/") {
		return false
	}
	return strings.EqualFold(strings.TrimSuffix(rel, path.Ext(rel)), "index")
}

func stageLayouts(_ context.Context, bs *buildState) error {
	reg, err := render.NewRegistry()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	dir := bs.layoutsDir()
	if err := reg.LoadDir(dir); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	bs.registry = reg
	slog.Debug("Layouts loaded", "layouts", strings.Join(reg.Names(), ","))
	return nil
}

func stageRenderItems(ctx context.Context, bs *buildState) error {
	entries := make(map[string]*IndexEntry, len(bs.index))
	for _, e := range bs.index {
		entries[e.Item.Path] = e
	}

	for _, it := range bs.items {
		if err := ctx.Err(); err != nil {
			return newCanceledStageError(StageRenderItems, err)
		}
		out := it.OutputPath()
		if owner, taken := bs.written[out]; taken {
			err := fmt.Errorf("output %s already produced by %s", out, owner)
			slog.Warn("Skipping content item with conflicting output", logfields.File(it.Path), logfields.Error(err))
			bs.report.addIssue(IssueOutputConflict, it.Path, err)
			bs.report.Skipped++
			if e, ok := entries[it.Path]; ok {
				bs.dropFromIndex(e)
			}
			continue
		}

		html, err := bs.b.markdown.Render(it.Body)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrRender, it.Path, err)
		}
		page := bs.pageFor(it, html)
		if err := bs.renderPage(it.Path, it.Layout(), out, page); err != nil {
			return err
		}
		if e, ok := entries[it.Path]; ok && e.Entry.Summary == "" {
			e.Entry.Summary = render.Summary(string(html), summaryLength)
		}
		bs.report.Items++
	}
	return nil
}

// dropFromIndex removes an entry whose page could not be written.
func (bs *buildState) dropFromIndex(e *IndexEntry) {
	kept := bs.index[:0]
	for _, x := range bs.index {
		if x != e {
			kept = append(kept, x)
		}
	}
	bs.index = kept
	bs.tags = GroupTags(bs.index)
	bs.report.Indexed = len(bs.index)
}

func (bs *buildState) pageFor(it *content.Item, html template.HTML) *render.Page {
	p := &render.Page{
		Kind:      render.KindPage,
		Site:      bs.b.site(),
		Title:     it.Title(),
		Image:     it.Image(),
		Permalink: it.Permalink(),
		Content:   html,
		Params:    it.Params(),
		Tags:      tagLinks(it.Tags(), bs.tags),
	}
	if d, err := it.Date(); err == nil {
		p.Date = d
		p.HasDate = true
		p.DateFormatted = d.Format(bs.b.cfg.Site.DateFormat)
	}
	return p
}

// renderPage executes the layout and writes the result under the stage dir.
// An unknown layout name falls back to the default layout with a warning.
func (bs *buildState) renderPage(source, layout, out string, page *render.Page) error {
	fn, resolved, fellBack := bs.registry.Lookup(layout)
	if fellBack {
		err := fmt.Errorf("layout %q not found, using %q", layout, resolved)
		slog.Warn("Unknown layout", logfields.File(source), logfields.Layout(layout))
		bs.report.addIssue(IssueUnknownLayout, source, err)
	}
	var buf bytes.Buffer
	if err := fn(&buf, page); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, source, err)
	}
	if err := bs.writeOutput(out, source, buf.Bytes()); err != nil {
		return err
	}
	bs.report.Layouts[resolved]++
	return nil
}

func (bs *buildState) writeOutput(rel, producer string, data []byte) error {
	dst := filepath.Join(bs.stageDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	// #nosec G306 -- published site content
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	bs.written[rel] = producer
	return nil
}

func stageRenderIndex(_ context.Context, bs *buildState) error {
	site := bs.b.site()
	page := &render.Page{
		Kind:      render.KindIndex,
		Site:      site,
		Title:     site.Title,
		Permalink: "/",
		Entries:   bs.index.Entries(),
	}
	layout := indexLayout
	source := indexOutput
	if ip := bs.indexPage; ip != nil {
		source = ip.Path
		if t := ip.Title(); t != "" {
			page.Title = t
		}
		if l := ip.Layout(); l != "" {
			layout = l
		}
		html, err := bs.b.markdown.Render(ip.Body)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrRender, ip.Path, err)
		}
		page.Content = html
		page.Params = ip.Params()
		page.Image = ip.Image()
		bs.report.Items++
	}
	return bs.renderPage(source, layout, indexOutput, page)
}

func stageRenderTags(_ context.Context, bs *buildState) error {
	for _, slug := range sortedSlugs(bs.tags) {
		g := bs.tags[slug]
		out := g.OutputPath()
		if owner, taken := bs.written[out]; taken {
			err := fmt.Errorf("tag page %s collides with %s", out, owner)
			slog.Warn("Skipping tag page", "tag", g.Name, logfields.Error(err))
			bs.report.addIssue(IssueOutputConflict, out, err)
			continue
		}
		entries := make([]render.Entry, len(g.Entries))
		for i, e := range g.Entries {
			entries[i] = e.Entry
		}
		page := &render.Page{
			Kind:      render.KindTag,
			Site:      bs.b.site(),
			Title:     g.Name,
			Permalink: g.URL(),
			Entries:   entries,
		}
		if err := bs.renderPage("tag:"+g.Name, tagLayout, out, page); err != nil {
			return err
		}
		bs.report.Tags++
	}
	return nil
}

// stageFeeds writes feed.xml and sitemap.xml. Both need absolute URLs, so
// they are skipped without a base URL.
func stageFeeds(_ context.Context, bs *buildState) error {
	site := bs.b.site()
	if site.BaseURL == "" {
		slog.Debug("No base URL configured, skipping feeds")
		return nil
	}
	feed, err := renderFeed(site, bs.index)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	if err := bs.writeOutput(feedOutput, "feed", feed); err != nil {
		return err
	}
	sm, err := renderSitemap(site, bs.index)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return bs.writeOutput(mapOutput, "sitemap", sm)
}

// stageCopyAssets copies every non-content file byte for byte. Generated
// pages win over assets with the same output path.
func stageCopyAssets(ctx context.Context, bs *buildState) error {
	for _, rel := range bs.tree.Assets {
		if err := ctx.Err(); err != nil {
			return newCanceledStageError(StageCopyAssets, err)
		}
		if owner, taken := bs.written[rel]; taken {
			err := fmt.Errorf("asset %s shadowed by %s", rel, owner)
			slog.Warn("Skipping asset", logfields.File(rel), logfields.Error(err))
			bs.report.addIssue(IssueOutputConflict, rel, err)
			continue
		}
		if err := copyFile(filepath.Join(bs.root, filepath.FromSlash(rel)), filepath.Join(bs.stageDir, filepath.FromSlash(rel))); err != nil {
			return fmt.Errorf("%w: copy asset %s: %w", ErrOutput, rel, err)
		}
		bs.written[rel] = rel
		bs.report.Assets++
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 -- discovered under source root
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	// #nosec G302 -- published site content
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func stageManifest(_ context.Context, bs *buildState) error {
	m, err := manifest.Compute(bs.stageDir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	bs.manifest = m
	return nil
}
