package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkglog "github.com/solacese/romo-robot/pkg/log"
)

const (
	headerDeliveryMode = "Solace-delivery-mode"
	deliveryModeDirect = "direct"

	DriverREST = "rest"
)

// RESTConfig holds the Solace REST messaging endpoint settings.
type RESTConfig struct {
	URI            string        `mapstructure:"uri"` // scheme + host, e.g. https://broker
	Port           int           `mapstructure:"port"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	TopicPrefix    string        `mapstructure:"topic_prefix"`
	Timeout        time.Duration `mapstructure:"timeout"` // 0 = no client timeout
	RequireSuccess bool          `mapstructure:"require_success"`
}

// RESTPublisher publishes events with one HTTP POST per event in direct
// delivery mode.
type RESTPublisher struct {
	client *http.Client
	cfg    RESTConfig
}

// NewRESTPublisher creates a REST publisher. A nil client gets a fresh
// http.Client using cfg.Timeout.
func NewRESTPublisher(cfg RESTConfig, client *http.Client) *RESTPublisher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &RESTPublisher{client: client, cfg: cfg}
}

// URL builds {uri}:{port}/{prefix}/{topic}. Each topic level is
// path-escaped, so '%', '#' and '?' in an object key stay part of the topic.
func (p *RESTPublisher) URL(topic string) string {
	base := fmt.Sprintf("%s:%d", strings.TrimRight(p.cfg.URI, "/"), p.cfg.Port)
	if prefix := strings.Trim(p.cfg.TopicPrefix, "/"); prefix != "" {
		return base + "/" + escapeLevels(prefix) + "/" + escapeLevels(topic)
	}
	return base + "/" + escapeLevels(topic)
}

func escapeLevels(topic string) string {
	levels := strings.Split(topic, "/")
	for i, lvl := range levels {
		levels[i] = url.PathEscape(lvl)
	}
	return strings.Join(levels, "/")
}

// Publish POSTs payload to the topic URL. Only transport failures are errors
// unless RequireSuccess is set; a non-2xx answer is otherwise logged.
func (p *RESTPublisher) Publish(ctx context.Context, topic string, payload json.RawMessage) error {
	l := pkglog.Ctx(ctx)
	target := p.URL(topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return &PublishError{Driver: DriverREST, Topic: topic, Err: err}
	}
	req.SetBasicAuth(p.cfg.Username, p.cfg.Password)
	req.Header.Set(headerDeliveryMode, deliveryModeDirect)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &PublishError{Driver: DriverREST, Topic: topic, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if p.cfg.RequireSuccess {
			return &PublishError{
				Driver:     DriverREST,
				Topic:      topic,
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("unexpected response %s", resp.Status),
			}
		}
		l.Warn().
			Str(pkglog.FieldURL, target).
			Int(pkglog.FieldStatus, resp.StatusCode).
			Msg("broker answered publish with non-success status")
		return nil
	}

	l.Debug().Str(pkglog.FieldURL, target).Int(pkglog.FieldStatus, resp.StatusCode).Msg("event published")
	return nil
}

// Close releases idle connections.
func (p *RESTPublisher) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
