package crawler

import (
	"errors"
	"net/url"
	"strings"

	"sjsage522/leadworker/helpers"
)

// reviewsMarker is the detail-page subsection that card links sometimes
// point into. It is stripped so that a listing and its reviews page
// canonicalize to the same value.
const reviewsMarker = "/reviews"

// CanonicalLink normalizes a card href into the listing's canonical
// detail-page URL: the reviews subsection and anything after it is dropped,
// then the path is resolved against the provider base. The result is the
// de-duplication key for the listing, both within a session and durably.
func CanonicalLink(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", errors.New("empty href")
	}
	if strings.Contains(href, reviewsMarker) {
		stripped, err := helpers.GetSplitPart(href, reviewsMarker, 0)
		if err != nil {
			return "", err
		}
		href = stripped
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
