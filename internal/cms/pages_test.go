package cms

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writePage(t *testing.T, dir, lang, slug, body string) {
	t.Helper()
	path := filepath.Join(dir, lang)
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, slug+".md"), []byte(body), 0o644))
}

func TestStoreRendersMarkdownWithFrontMatter(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "ru", "privacy", `---
title: Политика конфиденциальности
summary: Как мы обращаемся с данными
effective_date: 2024-05-01
seo:
  description: Обработка персональных данных
---
# Общие положения

Мы храним **только** то, что вы отправили через форму.

<script>alert(1)</script>
`)

	store := NewStore(dir, "ru", 0)
	page, err := store.Get("privacy", "ru")
	require.NoError(t, err)
	require.Equal(t, "Политика конфиденциальности", page.Title)
	require.Equal(t, "Как мы обращаемся с данными", page.Summary)
	require.Equal(t, "Обработка персональных данных", page.SEO.Description)
	require.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), page.EffectiveDate)
	require.False(t, page.UpdatedAt.IsZero())

	body := string(page.Body)
	require.Contains(t, body, "<h1")
	require.Contains(t, body, "<strong>только</strong>")
	require.NotContains(t, body, "<script")
}

func TestStoreFallsBackToDefaultLanguage(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "ru", "offer", "Текст оферты")

	store := NewStore(dir, "ru", time.Minute)
	page, err := store.Get("offer", "en")
	require.NoError(t, err)
	require.Equal(t, "ru", page.Lang)
	require.Equal(t, "Offer", page.Title)
	require.Contains(t, string(page.Body), "Текст оферты")
}

func TestStoreRejectsTraversalAndMissing(t *testing.T) {
	store := NewStore(t.TempDir(), "ru", 0)

	for _, slug := range []string{"", "../secret", "a/b", `a\b`} {
		_, err := store.Get(slug, "ru")
		require.ErrorIs(t, err, ErrNotFound, slug)
	}
	_, err := store.Get("absent", "ru")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreReportsBrokenFrontMatter(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "ru", "broken", "---\ntitle: [unclosed\n---\nbody")

	_, err := NewStore(dir, "ru", 0).Get("broken", "ru")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
	require.True(t, strings.Contains(err.Error(), "front matter"))
}

func TestStoreCachesWithinTTL(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "ru", "consent", "first")

	store := NewStore(dir, "ru", time.Hour)
	page, err := store.Get("consent", "ru")
	require.NoError(t, err)
	require.Contains(t, string(page.Body), "first")

	writePage(t, dir, "ru", "consent", "second")
	page, err = store.Get("consent", "ru")
	require.NoError(t, err)
	require.Contains(t, string(page.Body), "first")

	uncached := NewStore(dir, "ru", 0)
	page, err = uncached.Get("consent", "ru")
	require.NoError(t, err)
	require.Contains(t, string(page.Body), "second")
}

func TestSplitFrontMatterWithoutHeader(t *testing.T) {
	fm, body := splitFrontMatter("plain text\n---\nmore")
	require.Empty(t, fm)
	require.Equal(t, "plain text\n---\nmore", body)
}
