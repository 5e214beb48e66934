package verifier

import (
	"sort"

	"github.com/valpere/PageProbe/internal/utils"
)

// StyleProperty is a computed CSS property the suite knows how to check.
type StyleProperty string

const (
	BackgroundColor   StyleProperty = "background-color"
	Color             StyleProperty = "color"
	BorderTopWidth    StyleProperty = "border-top-width"
	BorderRightWidth  StyleProperty = "border-right-width"
	BorderBottomWidth StyleProperty = "border-bottom-width"
	BorderLeftWidth   StyleProperty = "border-left-width"
	BorderTopColor    StyleProperty = "border-top-color"
	BorderRightColor  StyleProperty = "border-right-color"
	BorderBottomColor StyleProperty = "border-bottom-color"
	BorderLeftColor   StyleProperty = "border-left-color"
	BorderTopStyle    StyleProperty = "border-top-style"
	BorderRightStyle  StyleProperty = "border-right-style"
	BorderBottomStyle StyleProperty = "border-bottom-style"
	BorderLeftStyle   StyleProperty = "border-left-style"
	PaddingTop        StyleProperty = "padding-top"
	PaddingRight      StyleProperty = "padding-right"
	PaddingBottom     StyleProperty = "padding-bottom"
	PaddingLeft       StyleProperty = "padding-left"
	MarginTop         StyleProperty = "margin-top"
	MarginRight       StyleProperty = "margin-right"
	MarginBottom      StyleProperty = "margin-bottom"
	MarginLeft        StyleProperty = "margin-left"
	Width             StyleProperty = "width"
	Height            StyleProperty = "height"
	Display           StyleProperty = "display"
	FontFamily        StyleProperty = "font-family"
	FontSize          StyleProperty = "font-size"
	TextAlign         StyleProperty = "text-align"
)

var knownProperties = map[StyleProperty]bool{
	BackgroundColor: true, Color: true,
	BorderTopWidth: true, BorderRightWidth: true, BorderBottomWidth: true, BorderLeftWidth: true,
	BorderTopColor: true, BorderRightColor: true, BorderBottomColor: true, BorderLeftColor: true,
	BorderTopStyle: true, BorderRightStyle: true, BorderBottomStyle: true, BorderLeftStyle: true,
	PaddingTop: true, PaddingRight: true, PaddingBottom: true, PaddingLeft: true,
	MarginTop: true, MarginRight: true, MarginBottom: true, MarginLeft: true,
	Width: true, Height: true, Display: true,
	FontFamily: true, FontSize: true, TextAlign: true,
}

// KnownProperties lists every recognized property, sorted.
func KnownProperties() []StyleProperty {
	props := make([]StyleProperty, 0, len(knownProperties))
	for p := range knownProperties {
		props = append(props, p)
	}
	sort.Slice(props, func(i, j int) bool { return props[i] < props[j] })
	return props
}

// ParseStyleProperty validates a property name.
func ParseStyleProperty(name string) (StyleProperty, error) {
	p := StyleProperty(name)
	if !knownProperties[p] {
		return "", utils.NewErrorf(utils.ErrCodeUnknownProperty, "unknown style property %q", name).Build()
	}
	return p, nil
}

// StyleMap is one computed-style resolution restricted to the recognized
// properties. It is never cached across queries.
type StyleMap struct {
	values map[StyleProperty]string
}

// NewStyleMap keeps the recognized properties of a raw resolution.
func NewStyleMap(raw map[string]string) StyleMap {
	values := make(map[StyleProperty]string, len(knownProperties))
	for name, value := range raw {
		if p := StyleProperty(name); knownProperties[p] {
			values[p] = value
		}
	}
	return StyleMap{values: values}
}

// Get returns the resolved value of p.
func (m StyleMap) Get(p StyleProperty) (string, bool) {
	v, ok := m.values[p]
	return v, ok
}

// Len returns how many recognized properties were resolved.
func (m StyleMap) Len() int {
	return len(m.values)
}

// StyleExpectation is one property check.
type StyleExpectation struct {
	Property StyleProperty
	Value    string
	// Message overrides the default failure message.
	Message string
}

// BoxExpectations expands the same value over the four sides of a box
// property family, in top, right, bottom, left order.
func BoxExpectations(family string, value string) []StyleExpectation {
	sides := []string{"top", "right", "bottom", "left"}
	var out []StyleExpectation
	for _, side := range sides {
		var name string
		switch family {
		case "border-width":
			name = "border-" + side + "-width"
		case "border-color":
			name = "border-" + side + "-color"
		case "border-style":
			name = "border-" + side + "-style"
		default:
			name = family + "-" + side
		}
		out = append(out, StyleExpectation{Property: StyleProperty(name), Value: value})
	}
	return out
}
