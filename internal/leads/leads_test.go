package leads

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"laserwave.studio/web/internal/analytics"
	"laserwave.studio/web/internal/attribution"
	"laserwave.studio/web/internal/content"
)

type webhook struct {
	mu      sync.Mutex
	status  int
	bodies  []map[string]any
	headers []http.Header
}

func (w *webhook) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = jsonAPI.Unmarshal(raw, &body)
	w.mu.Lock()
	w.bodies = append(w.bodies, body)
	w.headers = append(w.headers, r.Header.Clone())
	w.mu.Unlock()
	rw.WriteHeader(w.status)
}

type relayStub struct {
	err  error
	sent []*gomail.Message
}

func (r *relayStub) DialAndSend(m ...*gomail.Message) error {
	r.sent = append(r.sent, m...)
	return r.err
}

func sampleSubmission() Submission {
	return Submission{
		FormType: FormLead,
		Page:     "/prices",
		Fields:   map[string]string{"name": "Анна", "phone": "+7 900 000-00-00"},
		UTM:      attribution.Tags{"utm_source": "vk"},
	}
}

func TestSubmitPostsToWebhook(t *testing.T) {
	t.Parallel()

	hook := &webhook{status: http.StatusOK}
	srv := httptest.NewServer(hook)
	defer srv.Close()

	rec := &analytics.Recorder{}
	s := NewSubmitter(content.Forms{WebhookURL: srv.URL, MailtoFallback: "mailto:a@b.test"},
		WithHTTPClient(srv.Client()), WithTracker(rec))

	out, err := s.Submit(context.Background(), sampleSubmission())
	require.NoError(t, err)
	require.Equal(t, ChannelWebhook, out.Channel)
	require.NotEmpty(t, out.ID)
	require.Empty(t, out.MailtoURL)

	require.Len(t, hook.bodies, 1)
	body := hook.bodies[0]
	require.Equal(t, "Анна", body["name"])
	require.Equal(t, "lead", body["formType"])
	require.Equal(t, "/prices", body["page"])
	require.Equal(t, map[string]any{"utm_source": "vk"}, body["utm"])
	require.Equal(t, out.ID, hook.headers[0].Get("Idempotency-Key"))
	require.Equal(t, "application/json", hook.headers[0].Get("Content-Type"))
	require.Equal(t, []string{analytics.GoalFormSubmitLead}, rec.Goals())
}

func TestSubmitPlaceholderWebhookUsesMailtoWithoutNetwork(t *testing.T) {
	t.Parallel()

	rec := &analytics.Recorder{}
	transport := &countingTransport{}
	s := NewSubmitter(content.Forms{
		WebhookURL:     "[WEBHOOK_URL]",
		MailtoFallback: "mailto:hello@laserwave.studio?subject=Заявка",
	}, WithHTTPClient(&http.Client{Transport: transport}), WithTracker(rec))

	sub := sampleSubmission()
	sub.FormType = "question"
	out, err := s.Submit(context.Background(), sub)
	require.NoError(t, err)
	require.Equal(t, ChannelMailto, out.Channel)
	require.Zero(t, transport.calls)

	require.True(t, strings.HasPrefix(out.MailtoURL, "mailto:hello@laserwave.studio?subject=Заявка&body="))
	encoded := strings.TrimPrefix(out.MailtoURL, "mailto:hello@laserwave.studio?subject=Заявка&body=")
	require.NotContains(t, encoded, "+")
	decoded, err := url.PathUnescape(encoded)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, jsonAPI.UnmarshalFromString(decoded, &payload))
	require.Equal(t, "question", payload["formType"])
	require.Equal(t, "+7 900 000-00-00", payload["phone"])
	require.Contains(t, decoded, "\n  \"formType\"")
	require.Equal(t, []string{analytics.GoalFormSubmitQuestion}, rec.Goals())
}

type countingTransport struct{ calls int }

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls++
	return nil, errors.New("unexpected network call")
}

func TestSubmitFallsBackWhenWebhookFails(t *testing.T) {
	t.Parallel()

	hook := &webhook{status: http.StatusBadGateway}
	srv := httptest.NewServer(hook)
	defer srv.Close()

	s := NewSubmitter(content.Forms{WebhookURL: srv.URL, MailtoFallback: "mailto:a@b.test"}, WithHTTPClient(srv.Client()))
	out, err := s.Submit(context.Background(), sampleSubmission())
	require.NoError(t, err)
	require.Equal(t, ChannelMailto, out.Channel)
	require.Len(t, hook.bodies, 1, "webhook must not be retried")
	require.True(t, strings.HasPrefix(out.MailtoURL, "mailto:a@b.test?body="))
}

func TestSubmitTransportErrorFallsBack(t *testing.T) {
	t.Parallel()

	s := NewSubmitter(content.Forms{WebhookURL: "http://127.0.0.1:1/hook", MailtoFallback: "mailto:a@b.test"},
		WithHTTPClient(&http.Client{Transport: &countingTransport{}}))
	out, err := s.Submit(context.Background(), sampleSubmission())
	require.NoError(t, err)
	require.Equal(t, ChannelMailto, out.Channel)
}

func TestSubmitRelay(t *testing.T) {
	t.Parallel()

	relay := &relayStub{}
	s := NewSubmitter(content.Forms{WebhookURL: "[WEBHOOK_URL]", MailtoFallback: "mailto:hello@laserwave.studio?subject=Заявка с сайта"},
		WithRelay(relay, "site@laserwave.studio", ""))

	out, err := s.Submit(context.Background(), sampleSubmission())
	require.NoError(t, err)
	require.Equal(t, ChannelRelay, out.Channel)
	require.Len(t, relay.sent, 1)
	msg := relay.sent[0]
	require.Equal(t, []string{"hello@laserwave.studio"}, msg.GetHeader("To"))
	subject := msg.GetHeader("Subject")
	require.Len(t, subject, 1)
	decoded, err := new(mime.WordDecoder).DecodeHeader(subject[0])
	require.NoError(t, err)
	require.Equal(t, "Заявка с сайта", decoded)
	require.Equal(t, []string{out.ID}, msg.GetHeader("X-Submission-Id"))
}

func TestSubmitRelayFailureFallsBackToMailto(t *testing.T) {
	t.Parallel()

	relay := &relayStub{err: errors.New("smtp down")}
	s := NewSubmitter(content.Forms{MailtoFallback: "mailto:a@b.test"}, WithRelay(relay, "site@b.test", ""))
	out, err := s.Submit(context.Background(), sampleSubmission())
	require.NoError(t, err)
	require.Equal(t, ChannelMailto, out.Channel)
}

func TestSubmitFailures(t *testing.T) {
	t.Parallel()

	rec := &analytics.Recorder{}
	none := NewSubmitter(content.Forms{WebhookURL: "[WEBHOOK_URL]", MailtoFallback: "[УТОЧНИТЬ]"}, WithTracker(rec))
	require.False(t, none.Usable())
	_, err := none.Submit(context.Background(), sampleSubmission())
	require.ErrorIs(t, err, ErrNoEndpoint)

	relay := &relayStub{err: errors.New("smtp down")}
	relayOnly := NewSubmitter(content.Forms{}, WithRelay(relay, "site@b.test", "owner@b.test"), WithTracker(rec))
	require.True(t, relayOnly.Usable())
	_, err = relayOnly.Submit(context.Background(), sampleSubmission())
	require.ErrorIs(t, err, ErrUndelivered)

	_, err = relayOnly.Submit(context.Background(), Submission{Fields: map[string]string{"name": "  "}})
	require.ErrorIs(t, err, ErrEmpty)
	require.Empty(t, rec.Goals())
}

func TestMailtoDraft(t *testing.T) {
	t.Parallel()

	require.Equal(t, "mailto:a@b.test?body=a%20b", MailtoDraft("mailto:a@b.test", "a b"))
	require.Equal(t, "mailto:a@b.test?subject=x&body=%7B%7D", MailtoDraft("mailto:a@b.test?subject=x", "{}"))
}

func TestParseMailto(t *testing.T) {
	t.Parallel()

	addr, subject := parseMailto("mailto:hello@laserwave.studio?subject=%D0%97%D0%B0%D1%8F%D0%B2%D0%BA%D0%B0&cc=x@y")
	require.Equal(t, "hello@laserwave.studio", addr)
	require.Equal(t, "Заявка", subject)

	addr, subject = parseMailto("https://example.com")
	require.Empty(t, addr)
	require.Empty(t, subject)
}
