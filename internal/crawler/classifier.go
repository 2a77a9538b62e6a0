package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// outboundLinkSelector matches every absolute http(s) link on a detail page.
const outboundLinkSelector = `a[href^="http"]`

// Classifier decides whether a business already has its own website based on
// the outbound links of its detail page. The deny-list of known non-business
// hosts (the provider itself, social and messaging platforms) is the single
// source of truth for the decision: to tune the heuristic, list more domains.
type Classifier struct {
	denied []string
}

// NewClassifier creates a classifier with the given deny-list entries.
// Matching is by substring against the full link, as entries like "yandex"
// are meant to cover every subdomain and TLD variant of the provider.
func NewClassifier(denied []string) *Classifier {
	return &Classifier{denied: denied}
}

// HasWebsite scans outbound links in document order and returns true at the
// first link not covered by the deny-list. False negatives are accepted: a
// site hosted on an unlisted non-business domain still counts as a website.
func (c *Classifier) HasWebsite(doc *goquery.Document) bool {
	return c.Website(doc) != ""
}

// Website returns the first qualifying outbound link, or "" when the
// business has none.
func (c *Classifier) Website(doc *goquery.Document) string {
	website := ""
	doc.Find(outboundLinkSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		if c.isDenied(href) {
			return true
		}
		website = href
		return false
	})
	return website
}

func (c *Classifier) isDenied(href string) bool {
	for _, domain := range c.denied {
		if strings.Contains(href, domain) {
			return true
		}
	}
	return false
}
