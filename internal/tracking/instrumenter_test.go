package tracking

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackedFromBody persists-like helper: extracts links and assigns row IDs.
func trackedFromBody(body string) []TrackedLink {
	extracted := ExtractLinks(body)
	tracked := make([]TrackedLink, len(extracted))
	for i, l := range extracted {
		tracked[i] = TrackedLink{
			ID:       fmt.Sprintf("link-%d", i),
			URL:      l.URL,
			Position: l.Position,
		}
	}
	return tracked
}

func TestInstrumentRewritesClicks(t *testing.T) {
	ins := NewInstrumenter("https://track.leadwire.test")

	body := `<p><a href="https://example.com/offer">Offer</a> and ` +
		`<a href="https://example.com/docs">Docs</a></p>`

	out := ins.Instrument(body, "msg-1", trackedFromBody(body), false, true)

	assert.Contains(t, out, `href="https://track.leadwire.test/t/c/link-0"`)
	assert.Contains(t, out, `href="https://track.leadwire.test/t/c/link-1"`)
	assert.NotContains(t, out, `href="https://example.com/offer"`)
	assert.NotContains(t, out, `href="https://example.com/docs"`)
	// Labels and surrounding markup survive untouched.
	assert.Contains(t, out, ">Offer</a>")
	assert.Contains(t, out, ">Docs</a>")
}

func TestInstrumentSharedDestinationsGetDistinctURLs(t *testing.T) {
	ins := NewInstrumenter("https://track.leadwire.test")

	body := `<a href="https://example.com/p">header</a>` +
		`<a href="https://example.com/p">footer</a>`

	out := ins.Instrument(body, "msg-1", trackedFromBody(body), false, true)

	assert.Contains(t, out, "/t/c/link-0")
	assert.Contains(t, out, "/t/c/link-1")
	assert.NotContains(t, out, `href="https://example.com/p"`)
}

func TestInstrumentSkipsNonTrackableAnchors(t *testing.T) {
	ins := NewInstrumenter("https://track.leadwire.test")

	body := `<a href="mailto:a@b.c">mail</a><a href="https://example.com/x">x</a>`

	out := ins.Instrument(body, "msg-1", trackedFromBody(body), false, true)

	assert.Contains(t, out, `href="mailto:a@b.c"`)
	assert.Contains(t, out, "/t/c/link-0")
}

func TestInstrumentMismatchedRowsLeaveAnchorUntouched(t *testing.T) {
	ins := NewInstrumenter("https://track.leadwire.test")

	body := `<a href="https://example.com/x">x</a><a href="https://example.com/y">y</a>`

	// Row for position 1 carries a stale destination.
	links := []TrackedLink{
		{ID: "link-0", URL: "https://example.com/x", Position: 0},
		{ID: "link-1", URL: "https://example.com/stale", Position: 1},
	}

	out := ins.Instrument(body, "msg-1", links, false, true)

	assert.Contains(t, out, "/t/c/link-0")
	assert.Contains(t, out, `href="https://example.com/y"`)
	assert.NotContains(t, out, "/t/c/link-1")
}

func TestInstrumentPixelPlacement(t *testing.T) {
	ins := NewInstrumenter("https://track.leadwire.test")

	t.Run("before closing body tag", func(t *testing.T) {
		out := ins.Instrument("<html><body><p>Hi</p></body></html>", "msg-1", nil, true, false)

		assert.Contains(t, out, `<img src="https://track.leadwire.test/t/p/msg-1.png"`)
		pixelAt := strings.Index(out, "<img")
		closeAt := strings.Index(out, "</body>")
		require.GreaterOrEqual(t, closeAt, 0)
		assert.Less(t, pixelAt, closeAt)
	})

	t.Run("uppercase closing tag", func(t *testing.T) {
		out := ins.Instrument("<HTML><BODY><p>Hi</p></BODY></HTML>", "msg-1", nil, true, false)
		assert.Less(t, strings.Index(out, "<img"), strings.Index(out, "</BODY>"))
	})

	t.Run("no body tag appends", func(t *testing.T) {
		out := ins.Instrument("<p>Hi</p>", "msg-1", nil, true, false)
		assert.True(t, strings.HasSuffix(out, `alt=""/>`))
		assert.True(t, strings.HasPrefix(out, "<p>Hi</p>"))
	})
}

func TestInstrumentFlagsIndependent(t *testing.T) {
	ins := NewInstrumenter("https://track.leadwire.test")
	body := `<p><a href="https://example.com/x">x</a></p>`
	links := trackedFromBody(body)

	t.Run("opens only", func(t *testing.T) {
		out := ins.Instrument(body, "msg-1", links, true, false)
		assert.Contains(t, out, "/t/p/msg-1.png")
		assert.Contains(t, out, `href="https://example.com/x"`)
	})

	t.Run("clicks only", func(t *testing.T) {
		out := ins.Instrument(body, "msg-1", links, false, true)
		assert.NotContains(t, out, "/t/p/")
		assert.Contains(t, out, "/t/c/link-0")
	})

	t.Run("neither", func(t *testing.T) {
		out := ins.Instrument(body, "msg-1", links, false, false)
		assert.Equal(t, body, out)
	})
}

func TestInstrumentDisabledWithoutBase(t *testing.T) {
	ins := NewInstrumenter("")
	require.False(t, ins.Enabled())

	body := `<p><a href="https://example.com/x">x</a></p>`
	out := ins.Instrument(body, "msg-1", trackedFromBody(body), true, true)
	assert.Equal(t, body, out)
}

func TestInstrumenterTrimsTrailingSlash(t *testing.T) {
	ins := NewInstrumenter("https://track.leadwire.test/")

	assert.Equal(t, "https://track.leadwire.test/t/c/abc", ins.ClickURL("abc"))
	assert.Equal(t, "https://track.leadwire.test/t/p/m.png", ins.PixelURL("m"))
}
