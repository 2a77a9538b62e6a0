package crawler

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalLink(t *testing.T) {
	base, err := url.Parse("https://yandex.ru")
	assert.NoError(t, err)

	tests := []struct {
		name string
		href string
		want string
	}{
		{
			name: "relative path resolved against base",
			href: "/maps/org/cafe/123",
			want: "https://yandex.ru/maps/org/cafe/123",
		},
		{
			name: "reviews suffix stripped",
			href: "/maps/org/cafe/123/reviews",
			want: "https://yandex.ru/maps/org/cafe/123",
		},
		{
			name: "reviews subsection with trailing path stripped",
			href: "/maps/org/cafe/123/reviews?ll=37.6%2C55.7",
			want: "https://yandex.ru/maps/org/cafe/123",
		},
		{
			name: "absolute url kept",
			href: "https://yandex.ru/maps/org/bar/456",
			want: "https://yandex.ru/maps/org/bar/456",
		},
		{
			name: "whitespace trimmed",
			href: "  /maps/org/cafe/123  ",
			want: "https://yandex.ru/maps/org/cafe/123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalLink(base, tt.href)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalLinkStable(t *testing.T) {
	// A card link and its reviews variant identify the same listing.
	base, _ := url.Parse("https://yandex.ru")

	plain, err := CanonicalLink(base, "/maps/org/cafe/123")
	assert.NoError(t, err)
	reviews, err := CanonicalLink(base, "/maps/org/cafe/123/reviews")
	assert.NoError(t, err)

	assert.Equal(t, plain, reviews)
}

func TestCanonicalLinkEmpty(t *testing.T) {
	base, _ := url.Parse("https://yandex.ru")

	_, err := CanonicalLink(base, "")
	assert.Error(t, err)

	_, err = CanonicalLink(base, "   ")
	assert.Error(t, err)
}
