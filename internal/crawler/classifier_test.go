package crawler

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
)

var testDenied = []string{"yandex", "ya.ru", "vk.com", "t.me", "instagram", "wa.me", "facebook"}

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	assert.NoError(t, err)
	return doc
}

func TestClassifierHasWebsite(t *testing.T) {
	classifier := NewClassifier(testDenied)

	tests := []struct {
		name string
		html string
		want bool
	}{
		{
			name: "no links at all",
			html: `<html><body><h1>Кафе</h1></body></html>`,
			want: false,
		},
		{
			name: "only provider and social links",
			html: `<html><body>
				<a href="https://yandex.ru/maps/org/1/reviews">reviews</a>
				<a href="https://vk.com/cafe">vk</a>
				<a href="https://t.me/cafe">telegram</a>
			</body></html>`,
			want: false,
		},
		{
			name: "independent site among social links",
			html: `<html><body>
				<a href="https://vk.com/cafe">vk</a>
				<a href="https://moe-kafe.example">site</a>
			</body></html>`,
			want: true,
		},
		{
			name: "relative links ignored",
			html: `<html><body><a href="/maps/org/1">card</a></body></html>`,
			want: false,
		},
		{
			name: "unlisted social platform counts as website",
			html: `<html><body><a href="https://ok.example/cafe">profile</a></body></html>`,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := docFromHTML(t, tt.html)
			assert.Equal(t, tt.want, classifier.HasWebsite(doc))
		})
	}
}

func TestClassifierWebsiteFirstQualifying(t *testing.T) {
	// Document order decides: the first non-denied link wins.
	classifier := NewClassifier(testDenied)

	doc := docFromHTML(t, `<html><body>
		<a href="https://yandex.ru/maps">maps</a>
		<a href="https://first.example">first</a>
		<a href="https://second.example">second</a>
	</body></html>`)

	assert.Equal(t, "https://first.example", classifier.Website(doc))
}

func TestClassifierEmptyHrefSkipped(t *testing.T) {
	classifier := NewClassifier(testDenied)

	doc := docFromHTML(t, `<html><body><a href="">empty</a></body></html>`)
	assert.False(t, classifier.HasWebsite(doc))
}
