package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Placeholders substituted when a detail page lacks a field. Every field is
// individually optional: a missing phone never drops the record.
const (
	TitlePlaceholder   = "Без названия"
	AddressPlaceholder = "Адрес не найден"
	PhonePlaceholder   = "Не указан"
)

// Detail-page selectors. The provider renders two phone layouts depending on
// the organization page variant, so the phone is looked up twice.
const (
	titleSelector    = "h1"
	addressSelector  = `div[class*="address"]`
	phoneSelector    = ".card-phones-view__phone-number"
	phoneAltSelector = ".orgpage-phones-view__phone-number"
)

// ExtractDetails reads title, address and phone from a listing's detail
// document. Fields that cannot be located fall back to their placeholder.
// City and Link are filled by the caller.
func ExtractDetails(doc *goquery.Document) Organization {
	org := Organization{
		Title:   TitlePlaceholder,
		Address: AddressPlaceholder,
		Phone:   PhonePlaceholder,
	}

	if title := textOf(doc.Find(titleSelector).First()); title != "" {
		org.Title = title
	}
	if address := textOf(doc.Find(addressSelector).First()); address != "" {
		org.Address = address
	}
	phone := textOf(doc.Find(phoneSelector).First())
	if phone == "" {
		phone = textOf(doc.Find(phoneAltSelector).First())
	}
	if phone != "" {
		org.Phone = phone
	}

	return org
}

func textOf(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(s.Text())
}
