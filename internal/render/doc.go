// Package render turns Markdown bodies into HTML and HTML into pages.
//
// Layouts are looked up by name in a Registry. Built-in layouts are embedded
// in the binary; templates found in the source tree's layouts directory
// override or extend them by file stem. Unknown layout names resolve to the
// default layout.
package render
