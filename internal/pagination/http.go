package pagination

import (
	"net/http"
	"net/url"
	"strconv"
)

// ParsePageRequest reads pagination parameters from the request query string.
// Unparseable or out-of-range values fall back to the defaults. "per_page" is
// an accepted alias for "limit", and "offset" an alternative to "page".
func ParsePageRequest(r *http.Request) PageRequest {
	req := DefaultPageRequest()
	q := r.URL.Query()

	if p, ok := intParam(q, "page"); ok && p > 0 {
		req.Page = p
	}

	if l, ok := intParam(q, "limit"); ok && l >= MinLimit && l <= MaxLimit {
		req.Limit = l
	}
	if q.Get("limit") == "" {
		if l, ok := intParam(q, "per_page"); ok && l >= MinLimit && l <= MaxLimit {
			req.Limit = l
		}
	}

	if o, ok := intParam(q, "offset"); ok && o >= 0 {
		req.Page = (o / req.Limit) + 1
	}

	req.Validate()
	return req
}

func intParam(q url.Values, name string) (int, bool) {
	raw := q.Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
