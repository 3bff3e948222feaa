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

// SEMPConfig holds settings for provisioning the downstream queue through the
// SEMP v2 config API.
type SEMPConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Endpoint     string        `mapstructure:"endpoint"` // e.g. https://broker:943/SEMP/v2/config
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	MsgVPN       string        `mapstructure:"msg_vpn"`
	Queue        string        `mapstructure:"queue"`
	Subscription string        `mapstructure:"subscription"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Provisioner creates a queue and its topic subscription on a message VPN.
type Provisioner struct {
	client  *http.Client
	baseURL string
	cfg     SEMPConfig
}

// NewProvisioner creates a SEMP provisioner. A nil client gets a fresh
// http.Client using cfg.Timeout.
func NewProvisioner(cfg SEMPConfig, client *http.Client) *Provisioner {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Provisioner{
		client:  client,
		baseURL: strings.TrimRight(cfg.Endpoint, "/") + "/msgVpns/" + url.PathEscape(cfg.MsgVPN),
		cfg:     cfg,
	}
}

// Provision ensures the configured queue exists and is subscribed to the
// configured topic.
func (p *Provisioner) Provision(ctx context.Context) error {
	if err := p.EnsureQueue(ctx, p.cfg.Queue); err != nil {
		return err
	}
	return p.EnsureSubscription(ctx, p.cfg.Queue, p.cfg.Subscription)
}

// EnsureQueue creates or replaces queueName.
func (p *Provisioner) EnsureQueue(ctx context.Context, queueName string) error {
	l := pkglog.Ctx(ctx)
	l.Info().Str("queue", queueName).Msg("provisioning queue")

	body := map[string]any{
		"egressEnabled":  true,
		"ingressEnabled": true,
		"permission":     "consume",
		"queueName":      queueName,
	}
	if _, err := p.do(ctx, http.MethodPut, "/queues/"+url.PathEscape(queueName), body); err != nil {
		return fmt.Errorf("failed to provision queue %s: %w", queueName, err)
	}

	l.Info().Str("queue", queueName).Msg("queue provisioned")
	return nil
}

// EnsureSubscription adds topic to queueName unless the subscription already exists.
func (p *Provisioner) EnsureSubscription(ctx context.Context, queueName, topic string) error {
	l := pkglog.Ctx(ctx)
	subsPath := "/queues/" + url.PathEscape(queueName) + "/subscriptions"

	status, err := p.do(ctx, http.MethodGet, subsPath+"/"+url.PathEscape(topic), nil)
	if err == nil {
		l.Info().Str("queue", queueName).Str(pkglog.FieldTopic, topic).Msg("queue subscription already exists")
		return nil
	}
	if status == 0 {
		return fmt.Errorf("failed to look up subscription %s on %s: %w", topic, queueName, err)
	}

	if _, err := p.do(ctx, http.MethodPost, subsPath, map[string]any{"subscriptionTopic": topic}); err != nil {
		return fmt.Errorf("failed to add subscription %s to %s: %w", topic, queueName, err)
	}

	l.Info().Str("queue", queueName).Str(pkglog.FieldTopic, topic).Msg("queue subscription added")
	return nil
}

// do performs one SEMP call. The returned status is 0 on transport failure.
func (p *Provisioner) do(ctx context.Context, method, path string, body any) (int, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, r)
	if err != nil {
		return 0, err
	}
	req.SetBasicAuth(p.cfg.Username, p.cfg.Password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("SEMP %s %s returned %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	return resp.StatusCode, nil
}
