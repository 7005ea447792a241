package tracking

import (
	"fmt"
	"strings"
)

// TrackedLink pairs a persisted link row with its body position. The row
// identifier must exist before the body referencing it is rewritten.
type TrackedLink struct {
	ID       string
	URL      string
	Position int
}

// Instrumenter rewrites message bodies against a tracking collector base URL.
// A zero-value base disables all rewriting: a missing collector must never
// fail a send.
type Instrumenter struct {
	baseURL string
}

// NewInstrumenter creates an Instrumenter for the given tracking base URL.
// The base may be empty, in which case instrumentation is a no-op.
func NewInstrumenter(baseURL string) *Instrumenter {
	return &Instrumenter{baseURL: strings.TrimRight(baseURL, "/")}
}

// Enabled reports whether a tracking base is configured.
func (i *Instrumenter) Enabled() bool {
	return i.baseURL != ""
}

// ClickURL returns the redirect URL for a persisted link.
func (i *Instrumenter) ClickURL(linkID string) string {
	return fmt.Sprintf("%s/t/c/%s", i.baseURL, linkID)
}

// PixelURL returns the open-tracking pixel URL for a message.
func (i *Instrumenter) PixelURL(messageID string) string {
	return fmt.Sprintf("%s/t/p/%s.png", i.baseURL, messageID)
}

// Instrument produces the transmitted body: click destinations rewritten to
// their per-link redirect URLs and, when requested, an invisible open pixel
// appended. Both behaviors are no-ops when no tracking base is configured.
func (i *Instrumenter) Instrument(body, messageID string, links []TrackedLink, trackOpens, trackClicks bool) string {
	if !i.Enabled() {
		return body
	}

	out := body
	if trackClicks && len(links) > 0 {
		out = i.rewriteLinks(out, links)
	}
	if trackOpens {
		out = i.injectPixel(out, messageID)
	}
	return out
}

// rewriteLinks replaces each qualifying anchor's href value with that link's
// redirect URL. The walk is position-aware: the Nth qualifying anchor is
// rewritten with the row persisted for position N, so two anchors sharing a
// destination still get distinct tracking URLs.
func (i *Instrumenter) rewriteLinks(body string, links []TrackedLink) string {
	byPosition := make(map[int]TrackedLink, len(links))
	for _, l := range links {
		byPosition[l.Position] = l
	}

	matches := anchorPattern.FindAllStringSubmatchIndex(body, -1)
	var b strings.Builder
	b.Grow(len(body) + len(links)*32)

	last := 0
	position := 0
	for _, m := range matches {
		// m[2], m[3] bound the href attribute value.
		urlStart, urlEnd := m[2], m[3]
		url := strings.TrimSpace(body[urlStart:urlEnd])
		if !isTrackable(url) {
			continue
		}

		link, ok := byPosition[position]
		position++
		if !ok || link.URL != url {
			// The persisted rows no longer line up with the body; leave the
			// anchor untouched rather than mislabel a click.
			continue
		}

		b.WriteString(body[last:urlStart])
		b.WriteString(i.ClickURL(link.ID))
		last = urlEnd
	}
	b.WriteString(body[last:])
	return b.String()
}

// injectPixel appends the 1x1 open-tracking image, immediately before the
// closing body tag when one exists, otherwise at the end of the body.
func (i *Instrumenter) injectPixel(body, messageID string) string {
	pixel := fmt.Sprintf(`<img src="%s" width="1" height="1" style="display:none" alt=""/>`, i.PixelURL(messageID))

	if idx := strings.LastIndex(strings.ToLower(body), "</body>"); idx >= 0 {
		return body[:idx] + pixel + body[idx:]
	}
	return body + pixel
}
