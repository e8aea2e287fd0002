package source

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractMainText reduces a full HTML page to the plain text of its main
// content: script/style/chrome elements dropped, <main> preferred over
// <body>, whitespace collapsed.
func extractMainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, header, footer").Remove()

	sel := doc.Find("main")
	if sel.Length() == 0 {
		sel = doc.Find("body")
	}
	if sel.Length() == 0 {
		return ""
	}
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// stripHTML converts an HTML fragment (e.g. a description field) to
// whitespace-normalized plain text.
func stripHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
