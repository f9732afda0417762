package handlers

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"laserwave.studio/web/internal/attribution"
	"laserwave.studio/web/internal/content"
	"laserwave.studio/web/internal/listing"
	"laserwave.studio/web/internal/site"
	"laserwave.studio/web/internal/widgets"
)

func sampleDoc() *content.Document {
	doc := &content.Document{
		Brand: content.Brand{Name: "Laser Wave", City: "Москва"},
		Contacts: content.Contacts{
			AddressLine:  "ул. Примерная, 1",
			Hours:        "10:00–21:00",
			PhoneDisplay: "+7 (900) 000-00-00",
			PhoneE164:    "+79000000000",
			Links: content.Links{
				VK:       "https://vk.com/laserwave",
				Telegram: "https://t.me/laserwave",
				WhatsApp: "[УТОЧНИТЬ]",
				Max:      "",
				YClients: "https://n1.yclients.com/company/1",
			},
			HowToFind: []string{"Выход 3", "[УТОЧНИТЬ: подъезд]"},
			MapEmbed:  `<iframe src="https://yandex.ru/map-widget/v1/?um=abc"></iframe>`,
		},
		Trust: content.Trust{
			Yandex:    content.TrustYandex{Text: "4.9 на Яндексе"},
			VK:        content.TrustVK{RatingText: "5.0", ReviewsCountText: ""},
			ReplyTime: "15 минут",
		},
		Legal: content.Legal{PrivacyPolicyURL: "/p/privacy", OfferURL: "[УТОЧНИТЬ]"},
		Pricing: content.Pricing{
			Gender: map[string]content.Audience{
				"women": {Label: "Девушки", Multiplier: content.Num(1)},
				"men":   {Label: "Мужчины", Multiplier: content.Num(1.3), Note: "Для мужчин"},
			},
			PackagesOneTime: []content.Package{{Key: "classic", Label: "Классика", Price: content.Num(2000)}},
			PackagesAbonements: []content.Abonement{
				{Key: "classic", PriceFrom: content.Num(5400), PriceTo: content.Num(15300)},
			},
		},
		FAQ:       []content.FAQItem{{Question: "Больно?", Answer: "Почти нет."}},
		Analytics: content.Analytics{YandexMetrikaID: "12345", VKPixelID: "[VK_PIXEL_ID]"},
		Reviews:   content.Reviews{VKWidget: "[УТОЧНИТЬ]"},
	}
	for i := 0; i < 6; i++ {
		doc.Promos = append(doc.Promos, content.Promo{ID: "p" + string(rune('a'+i)), Active: true, Title: "Акция"})
		doc.Masters = append(doc.Masters, content.Master{Name: "Мастер"})
	}
	return doc
}

func TestChromeHidesPlaceholders(t *testing.T) {
	t.Parallel()

	ch := ChromeFrom(sampleDoc())
	require.Equal(t, "Laser Wave", ch.BrandName)
	require.Equal(t, "/go/phone", ch.Phone.Href)
	require.Equal(t, "/go/booking", ch.Booking.Href)

	byKey := map[string]Link{}
	for _, l := range ch.Messengers {
		byKey[l.Key] = l
	}
	require.Equal(t, "/go/vk", byKey[ChannelVK].Href)
	require.True(t, byKey[ChannelWhatsApp].Disabled)
	require.Equal(t, "#", byKey[ChannelWhatsApp].Href)
	require.True(t, byKey[ChannelMax].Hidden)

	require.False(t, ch.Trust.VKVisible)
	require.True(t, ch.Trust.ReplyVisible)
	require.Equal(t, "4.9 на Яндексе", ch.Trust.YandexText)

	require.Equal(t, "/p/privacy", ch.Legal[0].Href)
	require.False(t, ch.Legal[0].Disabled)
	require.Equal(t, "#", ch.Legal[1].Href)
	require.True(t, ch.Legal[1].Disabled)
	require.True(t, ch.Legal[2].Disabled)
}

func TestTrustVKBadgeNeedsBothParts(t *testing.T) {
	t.Parallel()

	tr := trustFrom(content.Trust{VK: content.TrustVK{RatingText: "4.8", ReviewsCountText: "120 отзывов"}})
	require.True(t, tr.VKVisible)
	require.Equal(t, "VK: 4.8, 120 отзывов", tr.VKText)
	require.False(t, tr.ReplyVisible)
}

func TestTarget(t *testing.T) {
	t.Parallel()

	doc := sampleDoc()
	tests := []struct {
		channel string
		want    string
		ok      bool
	}{
		{channel: ChannelVK, want: "https://vk.com/laserwave", ok: true},
		{channel: ChannelTelegram, want: "https://t.me/laserwave", ok: true},
		{channel: ChannelWhatsApp, ok: false},
		{channel: ChannelMax, ok: false},
		{channel: ChannelPhone, want: "tel:+79000000000", ok: true},
		{channel: "booking", want: "https://n1.yclients.com/company/1", ok: true},
		{channel: "ok", ok: false},
	}
	for _, tt := range tests {
		got, ok := Target(doc, tt.channel)
		require.Equal(t, tt.ok, ok, tt.channel)
		require.Equal(t, tt.want, got, tt.channel)
	}
	_, ok := Target(nil, ChannelVK)
	require.False(t, ok)
}

func TestAnalyticsFromSkipsPlaceholderIDs(t *testing.T) {
	t.Parallel()

	a := AnalyticsFrom(sampleDoc())
	require.Equal(t, "12345", a.MetrikaID)
	require.Empty(t, a.VKPixelID)
	require.True(t, a.Enabled())
	require.False(t, AnalyticsFrom(nil).Enabled())
}

func TestHomeCapsListsAndBuildsSchemas(t *testing.T) {
	t.Parallel()

	doc := sampleDoc()
	v, err := site.NewVisit(doc, nil, nil)
	require.NoError(t, err)

	base := Base(doc, Request{Path: "/", Lang: "ru", SiteURL: "https://laserwave.example"})
	d := Home(v, widgets.NewSanitizer(), base)

	require.Len(t, d.Promos, listing.HomeLimit)
	require.True(t, d.MorePromos)
	require.Len(t, d.Masters, listing.HomeLimit)
	require.True(t, d.MoreMasters)
	require.Equal(t, []string{"Выход 3"}, d.HowToFind)
	require.True(t, d.Map.Visible)
	require.False(t, d.VKWidget.Visible)
	require.NotNil(t, d.Pricing)
	require.Len(t, d.Pricing.Controls, 2)
	require.NotNil(t, d.Calculator)
	require.Equal(t, "3 сеанса", d.Calculator.SessionsLabel)
	require.Equal(t, "https://laserwave.example/", d.SEO.Canonical)

	require.Len(t, d.JSONLD, 2)
	require.True(t, strings.Contains(string(d.JSONLD[0]), `"BeautySalon"`))
	require.True(t, strings.Contains(string(d.JSONLD[1]), `"FAQPage"`))
}

func TestBaseAddsBreadcrumbSchemaBelowHome(t *testing.T) {
	t.Parallel()

	tr := func(key string) string {
		return map[string]string{"nav.home": "Главная", "nav.prices": "Цены"}[key]
	}
	d := Base(sampleDoc(), Request{Path: "/prices", Title: "Цены", SiteURL: "https://laserwave.example", T: tr})
	require.Len(t, d.JSONLD, 1)
	js := string(d.JSONLD[0])
	require.Contains(t, js, `"BreadcrumbList"`)
	require.Contains(t, js, `"Главная"`)
	require.Contains(t, js, `"https://laserwave.example/prices"`)
	require.Equal(t, "Цены | Laser Wave", d.SEO.Title)
}

func TestPromosPageShowsAll(t *testing.T) {
	t.Parallel()

	v, err := site.NewVisit(sampleDoc(), nil, nil)
	require.NoError(t, err)
	d := Promos(v, PageData{})
	require.Len(t, d.Promos, 6)
	require.Len(t, Masters(v, PageData{}).Masters, 6)
}

func TestFormViewAndSubmission(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/forms/question", NewFormView(FormQuestion, FormOK).Action)
	require.True(t, NewFormView(FormQuestion, FormOK).OK())
	require.Empty(t, NewFormView(FormLead, "weird").Status)
	require.Equal(t, FormLead, NewFormView("unknown", "").Type)

	form := url.Values{
		"name":    {"  Анна "},
		"phone":   {"+79001112233"},
		"comment": {""},
		"secret":  {"drop me"},
	}
	sub := SubmissionFrom(FormLead, form, "/prices", attribution.Tags{"utm_source": "vk"})
	require.Equal(t, map[string]string{"name": "Анна", "phone": "+79001112233"}, sub.Fields)
	require.Equal(t, "/prices", sub.Page)
	require.Equal(t, "vk", sub.UTM["utm_source"])

	long := strings.Repeat("я", maxFieldLen+10)
	sub = SubmissionFrom(FormQuestion, url.Values{"question": {long}}, "", nil)
	require.Len(t, []rune(sub.Fields["question"]), maxFieldLen)
	require.Equal(t, "/", sub.Page)
}

func TestSafeReturnPath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/prices":              "/prices",
		"/prices?x=1":          "/prices",
		"":                     "/",
		"https://evil.example": "/",
		"//evil.example":       "/",
		"/\\evil.example":      "/",
		"prices":               "/",
	}
	for in, want := range cases {
		require.Equal(t, want, SafeReturnPath(in), in)
	}
}

func TestPageDataFormDefaults(t *testing.T) {
	t.Parallel()

	d := Base(sampleDoc(), Request{Path: "/", Lang: "en", CSRFToken: "tok", FormStatus: map[string]string{FormLead: FormFail}})
	require.True(t, d.Form(FormLead).Failed())
	require.Equal(t, "/", d.Form(FormLead).Page)
	require.Equal(t, "en", d.Form(FormQuestion).Lang)
	require.Equal(t, "tok", d.Form(FormQuestion).CSRFToken)
	require.Empty(t, d.Form(FormQuestion).Status)
	require.Equal(t, FormLead, PageData{}.Form("nope").Type)
}
