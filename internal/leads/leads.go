// Package leads delivers lead and question form submissions to the salon's
// webhook, falling back to mail when the webhook cannot take them.
package leads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"laserwave.studio/web/internal/analytics"
	"laserwave.studio/web/internal/attribution"
	"laserwave.studio/web/internal/content"
	"laserwave.studio/web/internal/placeholder"
)

const (
	defaultTimeout    = 8 * time.Second
	idempotencyHeader = "Idempotency-Key"
	defaultSubject    = "Заявка с сайта"
	// FormLead is the booking request form; every other type is a question.
	FormLead = "lead"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrNoEndpoint is returned when neither the webhook nor a mail path is usable.
	ErrNoEndpoint = errors.New("leads: no delivery endpoint configured")
	// ErrUndelivered is returned when every configured path failed.
	ErrUndelivered = errors.New("leads: submission not delivered")
	// ErrEmpty is returned for submissions without any filled field.
	ErrEmpty = errors.New("leads: empty submission")
)

// Channel names the path a submission took.
type Channel string

const (
	ChannelWebhook Channel = "webhook"
	ChannelRelay   Channel = "relay"
	ChannelMailto  Channel = "mailto"
)

// Submission is one form post.
type Submission struct {
	FormType string
	Page     string
	Fields   map[string]string
	UTM      attribution.Tags
}

// Outcome reports how a submission was delivered. MailtoURL is set for the
// mailto channel; the visitor's browser opens it as a draft.
type Outcome struct {
	ID        string
	Channel   Channel
	MailtoURL string
}

// Relay sends mail. *gomail.Dialer implements it.
type Relay interface {
	DialAndSend(m ...*gomail.Message) error
}

// Submitter posts submissions. A zero webhook or placeholder value disables
// that path.
type Submitter struct {
	webhook string
	mailto  string
	relay   Relay
	from    string
	to      string
	http    *http.Client
	tracker analytics.Tracker
	logger  *zap.Logger
	newID   func() string
}

// Option customises a Submitter.
type Option func(*Submitter)

// WithHTTPClient overrides the webhook client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Submitter) {
		if c != nil {
			s.http = c
		}
	}
}

// WithRelay enables SMTP delivery from the given sender. The recipient is
// the mailto fallback address unless to is set.
func WithRelay(r Relay, from, to string) Option {
	return func(s *Submitter) {
		s.relay = r
		s.from = strings.TrimSpace(from)
		if strings.TrimSpace(to) != "" {
			s.to = strings.TrimSpace(to)
		}
	}
}

// WithTracker fires form goals on successful delivery.
func WithTracker(t analytics.Tracker) Option {
	return func(s *Submitter) {
		if t != nil {
			s.tracker = t
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Submitter) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSubmitter builds a submitter for the forms section of the content.
func NewSubmitter(forms content.Forms, opts ...Option) *Submitter {
	s := &Submitter{
		webhook: placeholder.Clean(strings.TrimSpace(forms.WebhookURL)),
		mailto:  placeholder.Clean(strings.TrimSpace(forms.MailtoFallback)),
		http:    &http.Client{Timeout: defaultTimeout},
		tracker: analytics.Nop{},
		logger:  zap.NewNop(),
		newID:   func() string { return ulid.Make().String() },
	}
	if addr, _ := parseMailto(s.mailto); addr != "" {
		s.to = addr
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit delivers sub once: webhook first, then relay, then a mailto
// draft. The network call is never retried.
func (s *Submitter) Submit(ctx context.Context, sub Submission) (Outcome, error) {
	if !sub.hasFields() {
		return Outcome{}, ErrEmpty
	}
	out := Outcome{ID: s.newID()}
	payload := sub.Payload()
	logger := s.logger.With(zap.String("submissionId", out.ID), zap.String("formType", sub.formType()))

	var lastErr error
	if s.webhook != "" {
		err := s.post(ctx, out.ID, payload)
		if err == nil {
			out.Channel = ChannelWebhook
			s.delivered(ctx, sub, out)
			return out, nil
		}
		logger.Warn("lead webhook failed, falling back to mail", zap.Error(err))
		lastErr = err
	}

	pretty, err := jsonAPI.MarshalIndent(payload, "", "  ")
	if err != nil {
		return Outcome{}, fmt.Errorf("leads: encode payload: %w", err)
	}

	if s.relayUsable() {
		err := s.relay.DialAndSend(s.message(out.ID, pretty))
		if err == nil {
			out.Channel = ChannelRelay
			s.delivered(ctx, sub, out)
			return out, nil
		}
		logger.Warn("lead relay failed", zap.Error(err))
		lastErr = err
	}

	if s.mailto != "" {
		out.Channel = ChannelMailto
		out.MailtoURL = MailtoDraft(s.mailto, string(pretty))
		s.delivered(ctx, sub, out)
		return out, nil
	}

	if lastErr != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrUndelivered, lastErr)
	}
	return Outcome{}, ErrNoEndpoint
}

// Usable reports whether any delivery path is configured.
func (s *Submitter) Usable() bool {
	return s.webhook != "" || s.relayUsable() || s.mailto != ""
}

func (s *Submitter) relayUsable() bool {
	return s.relay != nil && s.from != "" && s.to != ""
}

func (s *Submitter) post(ctx context.Context, id string, payload map[string]any) error {
	body, err := jsonAPI.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhook, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(idempotencyHeader, id)

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("leads: webhook status %d: %s", resp.StatusCode, drainError(resp.Body))
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return nil
}

func (s *Submitter) message(id string, body []byte) *gomail.Message {
	_, subject := parseMailto(s.mailto)
	if subject == "" {
		subject = defaultSubject
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to)
	m.SetHeader("Subject", subject)
	m.SetHeader("X-Submission-Id", id)
	m.SetBody("text/plain", string(body))
	return m
}

func (s *Submitter) delivered(ctx context.Context, sub Submission, out Outcome) {
	goal := analytics.GoalFormSubmitQuestion
	if sub.formType() == FormLead {
		goal = analytics.GoalFormSubmitLead
	}
	s.tracker.Track(ctx, goal, nil)
	s.logger.Info("lead delivered",
		zap.String("submissionId", out.ID),
		zap.String("formType", sub.formType()),
		zap.String("channel", string(out.Channel)),
	)
}

// Payload flattens the fields and adds formType, page and utm.
func (sub Submission) Payload() map[string]any {
	payload := make(map[string]any, len(sub.Fields)+3)
	for k, v := range sub.Fields {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		payload[k] = v
	}
	payload["formType"] = sub.formType()
	payload["page"] = sub.Page
	utm := map[string]string{}
	for k, v := range sub.UTM {
		utm[k] = v
	}
	payload["utm"] = utm
	return payload
}

func (sub Submission) formType() string {
	if t := strings.TrimSpace(sub.FormType); t != "" {
		return t
	}
	return FormLead
}

func (sub Submission) hasFields() bool {
	for _, v := range sub.Fields {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// MailtoDraft appends the body parameter to a mailto URL.
func MailtoDraft(mailto, body string) string {
	sep := "?"
	if strings.Contains(mailto, "?") {
		sep = "&"
	}
	return mailto + sep + "body=" + strings.ReplaceAll(url.QueryEscape(body), "+", "%20")
}

// parseMailto extracts the address and subject of a mailto URL.
func parseMailto(raw string) (addr, subject string) {
	if !strings.HasPrefix(strings.ToLower(raw), "mailto:") {
		return "", ""
	}
	rest := raw[len("mailto:"):]
	query := ""
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest, query = rest[:i], rest[i+1:]
	}
	if a, err := url.PathUnescape(rest); err == nil {
		addr = strings.TrimSpace(a)
	}
	for _, part := range strings.Split(query, "&") {
		key, value, _ := strings.Cut(part, "=")
		if !strings.EqualFold(key, "subject") {
			continue
		}
		if v, err := url.QueryUnescape(value); err == nil {
			subject = v
		} else {
			subject = value
		}
	}
	return addr, subject
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
