package site

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"git.home.luguber.info/inful/sitepipe/internal/render"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description,omitempty"`
	PubDate     string  `xml:"pubDate"`
	GUID        rssGUID `xml:"guid"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// renderFeed encodes the index as RSS 2.0. lastBuildDate is the newest entry
// date so identical input yields identical bytes.
func renderFeed(site render.Site, ix Index) ([]byte, error) {
	items := make([]rssItem, 0, len(ix))
	for _, e := range ix {
		link := render.AbsURL(site.BaseURL, e.Entry.URL)
		items = append(items, rssItem{
			Title:       e.Entry.Title,
			Link:        link,
			Description: e.Entry.Summary,
			PubDate:     e.Date.Format(time.RFC1123Z),
			GUID:        rssGUID{IsPermaLink: true, Value: link},
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       site.Title,
			Link:        render.AbsURL(site.BaseURL, "/"),
			Description: site.Description,
			Language:    site.Language,
			Items:       items,
		},
	}
	if newest := ix.Newest(); !newest.IsZero() {
		feed.Channel.LastBuildDate = newest.Format(time.RFC1123Z)
	}
	return encodeXML(feed)
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func renderSitemap(site render.Site, ix Index) ([]byte, error) {
	urls := []sitemapURL{{Loc: render.AbsURL(site.BaseURL, "/")}}
	if newest := ix.Newest(); !newest.IsZero() {
		urls[0].LastMod = newest.Format("2006-01-02")
	}
	for _, e := range ix {
		urls = append(urls, sitemapURL{
			Loc:     render.AbsURL(site.BaseURL, e.Entry.URL),
			LastMod: e.Date.Format("2006-01-02"),
		})
	}
	return encodeXML(sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	})
}

func encodeXML(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
