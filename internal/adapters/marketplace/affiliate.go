package marketplace

import "net/url"

// RewriteAffiliate appends the partner tag to a listing URL. It is a pure
// string transform applied after tier selection; an empty tag or an
// unparseable URL leaves the input unchanged.
func RewriteAffiliate(raw, tag string) string {
	if tag == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("tag", tag)
	u.RawQuery = q.Encode()
	return u.String()
}
