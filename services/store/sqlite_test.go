package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"sjsage522/leadworker/internal/crawler"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testOrg(city, link string) crawler.Organization {
	return crawler.Organization{
		City:    city,
		Title:   "Кафе",
		Address: "ул. Ленина, 1",
		Phone:   "+7 900 000 00 00",
		Link:    link,
	}
}

func TestSaveOrganizationAndIsKnown(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	link := "https://yandex.ru/maps/org/cafe/1"

	known, err := s.IsKnown(ctx, link)
	assert.NoError(t, err)
	assert.False(t, known)

	inserted, err := s.SaveOrganization(ctx, testOrg("Москва", link))
	assert.NoError(t, err)
	assert.True(t, inserted)

	known, err = s.IsKnown(ctx, link)
	assert.NoError(t, err)
	assert.True(t, known)
}

func TestSaveOrganizationIgnoresDuplicateLink(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	link := "https://yandex.ru/maps/org/cafe/1"

	inserted, err := s.SaveOrganization(ctx, testOrg("Москва", link))
	assert.NoError(t, err)
	assert.True(t, inserted)

	// Same link again, even with different fields, is a no-op.
	dup := testOrg("Казань", link)
	dup.Title = "Другое название"
	inserted, err = s.SaveOrganization(ctx, dup)
	assert.NoError(t, err)
	assert.False(t, inserted)

	count, err := s.CountOrganizations(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRandomByCity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, link := range []string{
		"https://yandex.ru/maps/org/cafe/1",
		"https://yandex.ru/maps/org/cafe/2",
		"https://yandex.ru/maps/org/cafe/3",
	} {
		org := testOrg("Москва", link)
		org.Title = string(rune('А' + i))
		_, err := s.SaveOrganization(ctx, org)
		assert.NoError(t, err)
	}
	_, err := s.SaveOrganization(ctx, testOrg("Казань", "https://yandex.ru/maps/org/bar/1"))
	assert.NoError(t, err)

	orgs, err := s.RandomByCity(ctx, "Москва", 2)
	assert.NoError(t, err)
	assert.Len(t, orgs, 2)
	for _, org := range orgs {
		assert.Equal(t, "Москва", org.City)
	}

	orgs, err = s.RandomByCity(ctx, "Москва", 10)
	assert.NoError(t, err)
	assert.Len(t, orgs, 3)

	orgs, err = s.RandomByCity(ctx, "Новосибирск", 5)
	assert.NoError(t, err)
	assert.Empty(t, orgs)
}

func TestCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.CountOrganizations(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = s.SaveOrganization(ctx, testOrg("Москва", "https://yandex.ru/maps/org/1"))
	assert.NoError(t, err)
	_, err = s.SaveOrganization(ctx, testOrg("Москва", "https://yandex.ru/maps/org/2"))
	assert.NoError(t, err)
	_, err = s.SaveOrganization(ctx, testOrg("Казань", "https://yandex.ru/maps/org/3"))
	assert.NoError(t, err)

	count, err = s.CountOrganizations(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 3, count)

	cities, err := s.CountCities(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, cities)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, s.SaveUser(ctx, 100))
	assert.NoError(t, s.SaveUser(ctx, 200))
	assert.NoError(t, s.SaveUser(ctx, 100))

	count, err := s.CountUsers(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSchemaSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	assert.NoError(t, err)
	_, err = s.SaveOrganization(ctx, testOrg("Москва", "https://yandex.ru/maps/org/1"))
	assert.NoError(t, err)
	assert.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	assert.NoError(t, err)
	defer s.Close()

	known, err := s.IsKnown(ctx, "https://yandex.ru/maps/org/1")
	assert.NoError(t, err)
	assert.True(t, known)
}
