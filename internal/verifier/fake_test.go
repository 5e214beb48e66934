package verifier

import (
	"context"
	"fmt"
	"time"

	"github.com/valpere/PageProbe/internal/browser"
	"github.com/valpere/PageProbe/internal/utils"
)

const (
	homeURL  = "https://xkcd.com/"
	aboutURL = "https://xkcd.com/about"
)

const homeHTML = `<html><head><title>xkcd: Replica</title></head><body>
<div id="topContainer"><div id="topLeft"><ul>
<li><a href="/archive">Archive</a></li>
<li><a href="/about">About</a></li>
</ul></div></div></body></html>`

const aboutHTML = `<html><head><title>xkcd - A webcomic</title></head><body>
<div><table width="500"><tr><td>a</td></tr></table>
<table width="300"><tr><td>b</td></tr></table>
<a href="/">Back</a></div></body></html>`

// fakePage is what the fake browser renders for one URL.
type fakePage struct {
	html    string
	title   string
	styles  map[string][]map[string]string
	sizes   map[string][]browser.Size
	links   map[string][]fakeLink
	scrollH float64
}

type fakeLink struct {
	text string
	href string
}

// fakeSession is a scripted browser. Navigations to a key of redirects land
// on the mapped URL instead.
type fakeSession struct {
	pages     map[string]*fakePage
	redirects map[string]string
	viewport  float64

	location    string
	offset      float64
	navigations []string
	htmlReads   int
	styleReads  int
	waits       int
	clicks      int
	closed      int

	locationErr error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		pages: map[string]*fakePage{
			homeURL: {
				html:  homeHTML,
				title: "xkcd: Replica",
				links: map[string][]fakeLink{
					"#topContainer #topLeft a": {
						{text: "Archive", href: "https://xkcd.com/archive/"},
						{text: "About", href: "https://xkcd.com/about"},
					},
				},
			},
			"https://xkcd.com/about/": {
				html:  aboutHTML,
				title: "xkcd - A webcomic",
				styles: map[string][]map[string]string{
					"body": {{"background-color": "rgb(150, 168, 200)", "unrelated": "x"}},
					"div": {{
						"border-left-width": "1px", "border-right-width": "1px",
						"border-top-width": "1px", "border-bottom-width": "1px",
						"border-left-color": "rgb(0, 0, 0)", "border-right-color": "rgb(0, 0, 0)",
						"border-top-color": "rgb(0, 0, 0)", "border-bottom-color": "rgb(0, 0, 0)",
						"padding-left": "10px", "padding-right": "10px",
						"padding-top": "10px", "padding-bottom": "10px",
						"margin-left": "5px", "margin-right": "5px", "margin-bottom": "5px",
					}},
				},
				sizes: map[string][]browser.Size{
					"table": {{Width: 500, Height: 40}, {Width: 300, Height: 20}},
					"html":  {{Width: 1280, Height: 2600}},
				},
				scrollH: 2600,
			},
		},
		redirects: map[string]string{aboutURL: "https://xkcd.com/about/"},
		viewport:  800,
	}
}

func (f *fakeSession) page() (*fakePage, error) {
	p, ok := f.pages[f.location]
	if !ok {
		return nil, utils.NewErrorf(utils.ErrCodeBrowserFailed, "nothing loaded at %q", f.location).Build()
	}
	return p, nil
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	f.navigations = append(f.navigations, url)
	if to, ok := f.redirects[url]; ok {
		url = to
	}
	f.location = url
	f.offset = 0
	return nil
}

func (f *fakeSession) Location(ctx context.Context) (string, error) {
	if f.locationErr != nil {
		return "", f.locationErr
	}
	return f.location, nil
}

func (f *fakeSession) Title(ctx context.Context) (string, error) {
	p, err := f.page()
	if err != nil {
		return "", err
	}
	return p.title, nil
}

func (f *fakeSession) HTML(ctx context.Context) (string, error) {
	p, err := f.page()
	if err != nil {
		return "", err
	}
	f.htmlReads++
	return p.html, nil
}

func (f *fakeSession) Count(ctx context.Context, selector string) (int, error) {
	p, err := f.page()
	if err != nil {
		return 0, err
	}
	return len(p.sizes[selector]), nil
}

func (f *fakeSession) ComputedStyle(ctx context.Context, selector string, index int) (map[string]string, error) {
	p, err := f.page()
	if err != nil {
		return nil, err
	}
	styles := p.styles[selector]
	if index >= len(styles) {
		return nil, utils.NewErrorf(utils.ErrCodeElementNotFound, "no element %q at index %d", selector, index).Build()
	}
	f.styleReads++
	return styles[index], nil
}

func (f *fakeSession) Size(ctx context.Context, selector string, index int) (browser.Size, error) {
	p, err := f.page()
	if err != nil {
		return browser.Size{}, err
	}
	sizes := p.sizes[selector]
	if index >= len(sizes) {
		return browser.Size{}, utils.NewErrorf(utils.ErrCodeElementNotFound, "no element %q at index %d", selector, index).Build()
	}
	return sizes[index], nil
}

func (f *fakeSession) Texts(ctx context.Context, selector string) ([]string, error) {
	p, err := f.page()
	if err != nil {
		return nil, err
	}
	var texts []string
	for _, l := range p.links[selector] {
		texts = append(texts, l.text)
	}
	return texts, nil
}

func (f *fakeSession) Click(ctx context.Context, selector string, index int) error {
	p, err := f.page()
	if err != nil {
		return err
	}
	links := p.links[selector]
	if index >= len(links) {
		return utils.NewErrorf(utils.ErrCodeElementNotFound, "no element %q at index %d", selector, index).Build()
	}
	f.clicks++
	target := links[index].href
	if to, ok := f.redirects[target]; ok {
		target = to
	}
	f.location = target
	f.offset = 0
	return nil
}

func (f *fakeSession) Evaluate(ctx context.Context, script string, res interface{}) error {
	p, err := f.page()
	if err != nil {
		return err
	}
	var value float64
	switch script {
	case viewportScript:
		value = f.viewport
	case scrollOffsetScript:
		value = f.offset
	case scrollToEndScript:
		f.offset = p.scrollH - f.viewport
		if f.offset < 0 {
			f.offset = 0
		}
		return nil
	case scrollToTopScript:
		f.offset = 0
		return nil
	default:
		return fmt.Errorf("unexpected script %q", script)
	}
	if out, ok := res.(*float64); ok {
		*out = value
	}
	return nil
}

func (f *fakeSession) WaitLoad(ctx context.Context, previous string, timeout time.Duration) bool {
	f.waits++
	return f.location != previous
}

func (f *fakeSession) Close() error {
	f.closed++
	return nil
}

func newTestVerifier(s browser.Session) *Verifier {
	return New(s, Options{
		Targets:     Targets{Home: homeURL, About: aboutURL},
		WaitTimeout: time.Second,
	})
}
