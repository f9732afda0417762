package analytics

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"laserwave.studio/web/internal/placeholder"
)

// GoalSink reports goals to a counter collector with a GET beacon:
// <endpoint>?id=<counter>&goal=<goal>&ts=<unix>&p.<key>=<value>...
type GoalSink struct {
	name     string
	id       string
	endpoint string
	http     *http.Client
}

// NewMetrikaSink reports reachGoal events for a Yandex Metrika counter.
func NewMetrikaSink(endpoint, counterID string, client *http.Client) *GoalSink {
	return newGoalSink("yandex_metrika", endpoint, counterID, client)
}

// NewVKPixelSink reports goal events for a VK pixel.
func NewVKPixelSink(endpoint, pixelID string, client *http.Client) *GoalSink {
	return newGoalSink("vk_pixel", endpoint, pixelID, client)
}

func newGoalSink(name, endpoint, id string, client *http.Client) *GoalSink {
	if client == nil {
		client = &http.Client{Timeout: sendTimeout}
	}
	return &GoalSink{
		name:     name,
		id:       strings.TrimSpace(id),
		endpoint: strings.TrimSpace(endpoint),
		http:     client,
	}
}

func (s *GoalSink) Name() string { return s.name }

// Available requires a collector endpoint and a configured, non-placeholder id.
func (s *GoalSink) Available() bool {
	return s != nil && s.endpoint != "" && !placeholder.IsPlaceholder(s.id)
}

// Send issues the beacon.
func (s *GoalSink) Send(ctx context.Context, ev Event) error {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("id", s.id)
	q.Set("goal", ev.Goal)
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	q.Set("ts", strconv.FormatInt(at.Unix(), 10))
	for k, v := range ev.Params {
		q.Set("p."+k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("analytics: %s status %d", s.name, resp.StatusCode)
	}
	return nil
}
