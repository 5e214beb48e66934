package verifier

import (
	"context"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/valpere/PageProbe/internal/utils"
)

const (
	scrollOffsetScript = `(document.scrollingElement || document.documentElement).scrollTop`
	scrollToEndScript  = `window.scrollTo(0, (document.scrollingElement || document.documentElement).scrollHeight)`
	scrollToTopScript  = `window.scrollTo(0, 0)`
	viewportScript     = `window.innerHeight`
)

func assertionf(format string, args ...interface{}) *utils.ErrorBuilder {
	return utils.NewErrorf(utils.ErrCodeAssertionFailed, format, args...)
}

// VerifyNavigationLink clicks the home page link whose visible text is
// anchorText and checks the browser ends up on expectedURL.
func (v *Verifier) VerifyNavigationLink(ctx context.Context, anchorText, expectedURL string) error {
	snap, err := v.EnsurePage(ctx, PageHome)
	if err != nil {
		return err
	}

	if missing, ok := snap.Nested(v.containers...); !ok {
		return utils.NewError(utils.ErrCodePreconditionNotMet, "home page lacks the navigation container").
			WithContext("container", missing).
			WithContext("chain", strings.Join(v.containers, " > ")).
			Build()
	}

	selector := strings.Join(v.containers, " ") + " a"
	texts, err := v.session.Texts(ctx, selector)
	if err != nil {
		return err
	}
	before, err := v.session.Location(ctx)
	if err != nil {
		return err
	}

	clicked := false
	for i, text := range texts {
		if sameText(text, anchorText) {
			if err := v.session.Click(ctx, selector, i); err != nil {
				return err
			}
			clicked = true
			break
		}
	}

	if clicked {
		if !v.session.WaitLoad(ctx, before, v.waitTimeout) {
			v.metrics.RecordWaitElapsed()
		}
	} else {
		v.logger.Debug("no navigation link matched", zap.String("text", anchorText), zap.Int("links", len(texts)))
	}

	location, err := v.session.Location(ctx)
	if err != nil {
		return err
	}
	if location != expectedURL {
		return assertionf("Cannot open link to %s page", anchorText).
			WithContext("expected", expectedURL).
			WithContext("actual", location).
			Build()
	}
	return nil
}

// sameText compares visible link text the way a reader would see it.
func sameText(a, b string) bool {
	return norm.NFC.String(strings.TrimSpace(a)) == norm.NFC.String(strings.TrimSpace(b))
}

// VerifyTitle checks the about page's document title.
func (v *Verifier) VerifyTitle(ctx context.Context, expected string) error {
	if _, err := v.EnsurePage(ctx, PageAbout); err != nil {
		return err
	}

	title, err := v.session.Title(ctx)
	if err != nil {
		return err
	}
	if title != expected {
		return assertionf("Wrong page title").
			WithContext("expected", expected).
			WithContext("actual", title).
			Build()
	}
	return nil
}

// VerifyComputedStyle resolves the computed style of the first element
// matching selector once and checks every expectation against it, stopping
// at the first mismatch.
func (v *Verifier) VerifyComputedStyle(ctx context.Context, selector string, expectations []StyleExpectation) error {
	for _, e := range expectations {
		if _, err := ParseStyleProperty(string(e.Property)); err != nil {
			return err
		}
	}

	if _, err := v.EnsurePage(ctx, PageAbout); err != nil {
		return err
	}

	raw, err := v.session.ComputedStyle(ctx, selector, 0)
	if err != nil {
		return err
	}
	style := NewStyleMap(raw)

	for _, e := range expectations {
		got, ok := style.Get(e.Property)
		if !ok {
			return utils.NewErrorf(utils.ErrCodeAttributeMissing, "property %s was not resolved", e.Property).
				WithContext("selector", selector).
				Build()
		}
		if got != e.Value {
			message := e.Message
			if message == "" {
				message = "Wrong " + string(e.Property)
			}
			return assertionf("%s", message).
				WithContext("selector", selector).
				WithContext("property", string(e.Property)).
				WithContext("expected", e.Value).
				WithContext("actual", got).
				Build()
		}
	}
	return nil
}

// VerifyTableWidths checks that each listed table declares a width in the
// page source equal to its rendered width in pixels.
func (v *Verifier) VerifyTableWidths(ctx context.Context, indices []int) error {
	snap, err := v.EnsurePage(ctx, PageAbout)
	if err != nil {
		return err
	}
	tables := snap.Tables()

	for _, idx := range indices {
		if idx < 0 || idx >= len(tables) {
			return utils.NewErrorf(utils.ErrCodeElementNotFound, "table %d missing from page source", idx).
				WithContext("tables", len(tables)).
				Build()
		}
		table := tables[idx]
		if !table.HasWidth {
			return assertionf("table %d declares no width", idx).Build()
		}
		declared, err := strconv.Atoi(strings.TrimSpace(table.Width))
		if err != nil {
			return utils.NewErrorf(utils.ErrCodeParsingError, "table %d width %q is not an integer", idx, table.Width).
				WithCause(err).Build()
		}

		size, err := v.session.Size(ctx, "table", idx)
		if err != nil {
			return err
		}
		if int64(declared) != size.Width {
			return assertionf("table %d width mismatch", idx).
				WithContext("declared", declared).
				WithContext("rendered", size.Width).
				Build()
		}
	}
	return nil
}

// VerifyScrollable checks the about page starts at the top and can be
// scrolled to its full height, within tolerance pixels. The page is
// scrolled back to the top afterwards.
func (v *Verifier) VerifyScrollable(ctx context.Context, tolerance float64) error {
	if _, err := v.EnsurePage(ctx, PageAbout); err != nil {
		return err
	}

	doc, err := v.session.Size(ctx, "html", 0)
	if err != nil {
		return err
	}

	var viewport float64
	if err := v.session.Evaluate(ctx, viewportScript, &viewport); err != nil {
		return err
	}

	var initial float64
	if err := v.session.Evaluate(ctx, scrollOffsetScript, &initial); err != nil {
		return err
	}
	if initial != 0 {
		return assertionf("page is not scrolled to the top").
			WithContext("offset", initial).
			Build()
	}

	if err := v.session.Evaluate(ctx, scrollToEndScript, nil); err != nil {
		return err
	}
	defer func() {
		if err := v.session.Evaluate(ctx, scrollToTopScript, nil); err != nil {
			v.logger.Warn("failed to restore scroll position", zap.Error(err))
		}
	}()

	var offset float64
	if err := v.session.Evaluate(ctx, scrollOffsetScript, &offset); err != nil {
		return err
	}

	reached := math.Trunc(offset) + math.Trunc(viewport)
	if math.Abs(float64(doc.Height)-reached) > tolerance {
		return assertionf("Cannot scroll to max height").
			WithContext("document_height", doc.Height).
			WithContext("offset", offset).
			WithContext("viewport", viewport).
			Build()
	}
	return nil
}

// VerifyBackLink checks the about page source links to href.
func (v *Verifier) VerifyBackLink(ctx context.Context, href string) error {
	snap, err := v.EnsurePage(ctx, PageAbout)
	if err != nil {
		return err
	}
	if snap.LinksTo(href) == 0 {
		return assertionf("Cannot found link to back menu").
			WithContext("href", href).
			Build()
	}
	return nil
}
