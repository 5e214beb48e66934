// internal/snapshot/snapshot.go
package snapshot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Snapshot is a static parse of a page's HTML source taken at one fetch.
// It is never refreshed; a new fetch produces a new Snapshot.
type Snapshot struct {
	document  *goquery.Document
	url       string
	fetchedAt time.Time
}

// Element is one node of a snapshot.
type Element struct {
	selection *goquery.Selection
}

// Table describes the declared width of one table in document order.
type Table struct {
	Index    int
	Width    string
	HasWidth bool
}

// Parse builds a snapshot of html as fetched from url.
func Parse(url, html string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return &Snapshot{
		document:  doc,
		url:       url,
		fetchedAt: time.Now(),
	}, nil
}

// URL returns the location the snapshot was fetched from.
func (s *Snapshot) URL() string {
	return s.url
}

// FetchedAt returns when the snapshot was taken.
func (s *Snapshot) FetchedAt() time.Time {
	return s.fetchedAt
}

// Title returns the text of the document's title element.
func (s *Snapshot) Title() string {
	return strings.TrimSpace(s.document.Find("title").First().Text())
}

// FindByID returns the element with the given id.
func (s *Snapshot) FindByID(id string) (Element, bool) {
	sel := s.document.Find("[id=" + strconv.Quote(id) + "]").First()
	if sel.Length() == 0 {
		return Element{}, false
	}
	return Element{selection: sel}, true
}

// FindAllByTag returns every element with the given tag name in document order.
func (s *Snapshot) FindAllByTag(tag string) []Element {
	var elements []Element
	s.document.Find(tag).Each(func(i int, sel *goquery.Selection) {
		elements = append(elements, Element{selection: sel})
	})
	return elements
}

// Nested checks that each selector matches inside the match of the previous
// one. It returns the first selector that could not be found.
func (s *Snapshot) Nested(selectors ...string) (string, bool) {
	current := s.document.Selection
	for _, selector := range selectors {
		current = current.Find(selector)
		if current.Length() == 0 {
			return selector, false
		}
	}
	return "", true
}

// Tables returns the declared width of every table.
func (s *Snapshot) Tables() []Table {
	var tables []Table
	for i, el := range s.FindAllByTag("table") {
		width, ok := el.Attr("width")
		tables = append(tables, Table{Index: i, Width: width, HasWidth: ok})
	}
	return tables
}

// LinksTo counts the anchors whose href attribute equals href exactly.
func (s *Snapshot) LinksTo(href string) int {
	count := 0
	for _, a := range s.FindAllByTag("a") {
		if v, ok := a.Attr("href"); ok && v == href {
			count++
		}
	}
	return count
}

// Tag returns the element's tag name.
func (e Element) Tag() string {
	return goquery.NodeName(e.selection)
}

// Text returns the trimmed text content.
func (e Element) Text() string {
	return strings.TrimSpace(e.selection.Text())
}

// HasAttr reports whether the attribute is present.
func (e Element) HasAttr(name string) bool {
	_, ok := e.selection.Attr(name)
	return ok
}

// Attr returns the attribute value.
func (e Element) Attr(name string) (string, bool) {
	return e.selection.Attr(name)
}
