package main

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"laserwave.studio/web/internal/analytics"
	"laserwave.studio/web/internal/attribution"
	"laserwave.studio/web/internal/calculator"
	handlersPkg "laserwave.studio/web/internal/handlers"
	"laserwave.studio/web/internal/leads"
	mw "laserwave.studio/web/internal/middleware"
	"laserwave.studio/web/internal/observability"
)

// Client events fired after htmx swaps.
const (
	eventAudienceChanged = "audience-changed"
	eventFormSubmitted   = "form-submitted"
)

var channelGoals = map[string]string{
	handlersPkg.ChannelVK:       analytics.GoalMessengerVK,
	handlersPkg.ChannelTelegram: analytics.GoalMessengerTelegram,
	handlersPkg.ChannelWhatsApp: analytics.GoalMessengerWhatsApp,
	handlersPkg.ChannelPhone:    analytics.GoalPhoneClick,
	handlersPkg.ChannelMax:      "",
}

// returnPath is where a plain form post sends the visitor back to: the
// posted "page" field, then the Referer path, then "/".
func returnPath(r *http.Request) string {
	if p := r.PostFormValue("page"); p != "" {
		return handlersPkg.SafeReturnPath(p)
	}
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" {
		if ref.Host == "" || ref.Host == r.Host {
			return handlersPkg.SafeReturnPath(ref.Path)
		}
	}
	return "/"
}

// AudienceHandler selects the pricing audience. htmx requests get the
// pricing partial and an audience-changed event so the calculator and promo
// prices refresh; plain posts redirect back.
func (a *app) AudienceHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visit(w, r)
	if v == nil {
		return
	}
	profile := v.Audience.Select(r.PostFormValue("audience"))
	observability.FromContext(r.Context()).Debug("audience selected", zap.String("audience", profile.Key))

	back := returnPath(r)
	if !mw.IsHTMX(r.Context()) {
		mw.Redirect(w, r, back+"#prices")
		return
	}
	req := a.request(r, "", "")
	req.Path = back
	vm := handlersPkg.Prices(v, handlersPkg.Base(v.Doc, req))
	mw.TriggerEvent(w, eventAudienceChanged)
	a.renderFragment(w, r, "frag_pricing", vm)
}

// CalculatorHandler applies ?package=&sessions= and renders the calculator
// partial, or the prices page for non-htmx requests.
func (a *app) CalculatorHandler(w http.ResponseWriter, r *http.Request) {
	v := a.visit(w, r)
	if v == nil {
		return
	}
	q := r.URL.Query()
	sel := v.Calculator.Selection()
	next := calculator.Selection{Package: strings.TrimSpace(q.Get("package")), Sessions: sel.Sessions}
	if raw := strings.TrimSpace(q.Get("sessions")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			n = 0
		}
		next.Sessions = n
	}
	v.Calculator.Select(r.Context(), next)

	if !mw.IsHTMX(r.Context()) {
		req := a.request(r, "prices.title", "prices.description")
		req.Path = "/prices"
		a.renderPage(w, r, "prices", http.StatusOK, handlersPkg.Prices(v, handlersPkg.Base(v.Doc, req)))
		return
	}
	vm := handlersPkg.Base(v.Doc, a.request(r, "", ""))
	vm.Calculator = handlersPkg.CalculatorFrom(v)
	a.renderFragment(w, r, "frag_calculator", vm)
}

// ThemeHandler flips between the dark and light theme.
func (a *app) ThemeHandler(w http.ResponseWriter, r *http.Request) {
	mw.GetPrefs(r).ToggleTheme()
	mw.Redirect(w, r, returnPath(r))
}

// FormHandler delivers a lead or question form. htmx gets the status
// partial; plain posts are redirected back with the status in the query,
// or straight to the mail draft.
func (a *app) FormHandler(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "type")
	if !handlersPkg.KnownForm(kind) {
		a.NotFoundHandler(w, r)
		return
	}
	if !a.store.Ready() {
		a.FallbackHandler(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	logger := observability.FromContext(r.Context())
	back := returnPath(r)
	sub := handlersPkg.SubmissionFrom(kind, r.PostForm, back, mw.GetPrefs(r).Attribution())

	status := handlersPkg.FormOK
	out, err := a.submitter.Submit(r.Context(), sub)
	if err != nil {
		status = handlersPkg.FormFail
		switch {
		case errors.Is(err, leads.ErrEmpty), errors.Is(err, leads.ErrNoEndpoint):
			logger.Warn("lead not delivered", zap.String("formType", kind), zap.Error(err))
		default:
			logger.Error("lead not delivered", zap.String("formType", kind), zap.Error(err))
		}
	}

	if !mw.IsHTMX(r.Context()) {
		if status == handlersPkg.FormOK && out.MailtoURL != "" {
			http.Redirect(w, r, out.MailtoURL, http.StatusSeeOther)
			return
		}
		q := url.Values{"form": {kind}, "status": {status}}
		mw.Redirect(w, r, back+"?"+q.Encode()+"#form-"+kind)
		return
	}
	form := handlersPkg.NewFormView(kind, status)
	form.MailtoURL = out.MailtoURL
	form.Page, form.Lang, form.CSRFToken = back, mw.Lang(r), mw.CSRFToken(r)
	if status == handlersPkg.FormOK {
		mw.TriggerEvent(w, eventFormSubmitted)
	}
	a.renderFragment(w, r, "frag_form_status", form)
}

// BookingHandler counts the booking click and redirects to the booking
// widget with the visitor's attribution tags.
func (a *app) BookingHandler(w http.ResponseWriter, r *http.Request) {
	if !a.store.Ready() {
		a.FallbackHandler(w, r)
		return
	}
	target, ok := handlersPkg.Target(a.store.Document(), "booking")
	if !ok {
		http.Redirect(w, r, "/#contacts", http.StatusFound)
		return
	}
	if promo := strings.TrimSpace(r.URL.Query().Get("promo")); promo != "" {
		a.tracker.Track(r.Context(), analytics.GoalPromoBookClick, map[string]string{"promo": promo})
	} else {
		a.tracker.Track(r.Context(), analytics.GoalBookClick, nil)
	}
	http.Redirect(w, r, attribution.Decorate(target, mw.GetPrefs(r).Attribution()), http.StatusFound)
}

// ChannelHandler counts a messenger or phone click and redirects to it.
func (a *app) ChannelHandler(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	goal, known := channelGoals[channel]
	if !known {
		a.NotFoundHandler(w, r)
		return
	}
	if !a.store.Ready() {
		a.FallbackHandler(w, r)
		return
	}
	target, ok := handlersPkg.Target(a.store.Document(), channel)
	if !ok {
		a.NotFoundHandler(w, r)
		return
	}
	if goal != "" {
		a.tracker.Track(r.Context(), goal, nil)
	}
	http.Redirect(w, r, target, http.StatusFound)
}
