package handlers

import (
	"laserwave.studio/web/internal/content"
	"laserwave.studio/web/internal/placeholder"
)

// Analytics holds the client counter ids surfaced to templates. Placeholder
// ids render no counter snippet.
type Analytics struct {
	MetrikaID string // Yandex Metrika counter
	VKPixelID string // VK pixel
}

// Enabled reports whether any counter snippet renders.
func (a Analytics) Enabled() bool { return a.MetrikaID != "" || a.VKPixelID != "" }

// AnalyticsFrom reads the counter ids from the content document.
func AnalyticsFrom(doc *content.Document) Analytics {
	if doc == nil {
		return Analytics{}
	}
	return Analytics{
		MetrikaID: placeholder.Clean(doc.Analytics.YandexMetrikaID),
		VKPixelID: placeholder.Clean(doc.Analytics.VKPixelID),
	}
}
