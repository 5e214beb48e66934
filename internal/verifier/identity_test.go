package verifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestTargets_Classify(t *testing.T) {
	targets := Targets{Home: "https://xkcd.com/", About: "https://xkcd.com/about"}

	tests := []struct {
		location string
		want     PageIdentity
	}{
		{"https://xkcd.com/", PageHome},
		{"https://xkcd.com", PageHome},
		{"HTTPS://XKCD.com:443/", PageHome},
		{"https://xkcd.com/about", PageAbout},
		{"https://xkcd.com/about/", PageAbout},
		{"https://xkcd.com/about/#top", PageAbout},
		{"http://xkcd.com/about/", PageUnknown},
		{"https://xkcd.com/archive/", PageUnknown},
		{"https://xkcd.com/about?lang=de", PageUnknown},
		{"about:blank", PageUnknown},
		{"", PageUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, targets.Classify(tt.location))
		})
	}
}

func TestTargets_URL(t *testing.T) {
	targets := Targets{Home: "https://xkcd.com/"}

	u, ok := targets.URL(PageHome)
	assert.True(t, ok)
	assert.Equal(t, "https://xkcd.com/", u)

	_, ok = targets.URL(PageAbout)
	assert.False(t, ok)
	_, ok = targets.URL(PageUnknown)
	assert.False(t, ok)
}

func TestPageIdentity_String(t *testing.T) {
	assert.Equal(t, "home", PageHome.String())
	assert.Equal(t, "about", PageAbout.String())
	assert.Equal(t, "unknown", PageIdentity(42).String())
}

func TestClassify_TrailingSlashInsensitive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		segments := rapid.SliceOfN(rapid.StringMatching(`[a-z0-9]{1,8}`), 1, 4).Draw(t, "segments")
		path := "/"
		for i, s := range segments {
			if i > 0 {
				path += "/"
			}
			path += s
		}
		slashes := rapid.IntRange(0, 3).Draw(t, "slashes")

		targets := Targets{Home: "https://example.test/", About: "https://example.test" + path}
		location := "https://example.test" + path
		for i := 0; i < slashes; i++ {
			location += "/"
		}
		if got := targets.Classify(location); got != PageAbout {
			t.Fatalf("Classify(%q) = %s, want about", location, got)
		}
	})
}
