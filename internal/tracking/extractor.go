// Package tracking rewrites outbound message bodies to carry open and click
// telemetry and extracts the links the telemetry is keyed on.
package tracking

import (
	"regexp"
	"strings"
)

// Link is one qualifying anchor found in a message body, in document order.
type Link struct {
	URL      string
	Label    string
	Position int
}

// anchorPattern matches anchor tags with an href attribute in any position.
// Bodies are internally generated, so a tolerant regex is sufficient here;
// the extractor interface isolates it so a real HTML parser could replace it.
var anchorPattern = regexp.MustCompile(`(?is)<a\s[^>]*?href\s*=\s*["']([^"']+)["'][^>]*>(.*?)</a>`)

// tagPattern strips nested markup out of anchor inner text.
var tagPattern = regexp.MustCompile(`(?s)<[^>]*>`)

// spacePattern collapses runs of whitespace in labels.
var spacePattern = regexp.MustCompile(`\s+`)

// ExtractLinks returns the qualifying anchors of an HTML body in document
// order. Anchors targeting mailto:, tel:, in-page fragments or script URIs
// are skipped entirely and do not consume a position. Malformed anchors that
// do not match the pattern are silently omitted.
func ExtractLinks(body string) []Link {
	matches := anchorPattern.FindAllStringSubmatch(body, -1)
	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		url := strings.TrimSpace(m[1])
		if !isTrackable(url) {
			continue
		}
		links = append(links, Link{
			URL:      url,
			Label:    cleanLabel(m[2]),
			Position: len(links),
		})
	}
	return links
}

// isTrackable reports whether a destination can carry click telemetry.
// Only absolute http/https destinations qualify.
func isTrackable(url string) bool {
	lower := strings.ToLower(url)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// cleanLabel strips nested markup and collapses whitespace in an anchor's
// inner text. An empty label is valid.
func cleanLabel(inner string) string {
	label := tagPattern.ReplaceAllString(inner, "")
	label = spacePattern.ReplaceAllString(label, " ")
	return strings.TrimSpace(label)
}
