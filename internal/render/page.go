package render

import (
	"html/template"
	"time"
)

// Page kinds.
const (
	KindPage  = "page"
	KindIndex = "index"
	KindTag   = "tag"
)

// Site carries the site-wide values every layout can reach as .Site.
type Site struct {
	Title       string
	Description string
	BaseURL     string
	Author      string
	Language    string
}

// TagLink is a tag name with the URL of its listing page.
type TagLink struct {
	Name string
	URL  string
}

// Entry is one line of a listing page.
type Entry struct {
	Title         string
	URL           string
	Path          string
	Date          time.Time
	DateFormatted string
	Summary       string
}

// Page is the data passed to a layout.
type Page struct {
	Kind          string
	Site          Site
	Title         string
	Date          time.Time
	HasDate       bool
	DateFormatted string
	Tags          []TagLink
	Image         string
	Permalink     string
	Content       template.HTML
	Params        map[string]any
	Entries       []Entry
}
