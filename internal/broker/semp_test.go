package broker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sempCall struct {
	Method string
	Path   string
	Body   map[string]any
}

type fakeSEMP struct {
	mu                 sync.Mutex
	calls              []sempCall
	subscriptionExists bool
}

func (f *fakeSEMP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := sempCall{Method: r.Method, Path: r.URL.EscapedPath()}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &call.Body)
	}
	f.calls = append(f.calls, call)

	if u, p, ok := r.BasicAuth(); !ok || u != "admin" || p != "pw" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if r.Method == http.MethodGet && !f.subscriptionExists {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"meta":{"error":{"status":"NOT_FOUND"}}}`))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func newTestProvisioner(t *testing.T, fake *fakeSEMP, user string) *Provisioner {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewProvisioner(SEMPConfig{
		Endpoint:     srv.URL + "/SEMP/v2/config/",
		Username:     user,
		Password:     "pw",
		MsgVPN:       "romo-vpn",
		Queue:        "emotion-controller",
		Subscription: "T/imageAnalysis/romo/>",
	}, srv.Client())
}

func TestProvisionCreatesQueueAndSubscription(t *testing.T) {
	fake := &fakeSEMP{}
	p := newTestProvisioner(t, fake, "admin")

	require.NoError(t, p.Provision(context.Background()))

	require.Len(t, fake.calls, 3)
	assert.Equal(t, http.MethodPut, fake.calls[0].Method)
	assert.Equal(t, "/SEMP/v2/config/msgVpns/romo-vpn/queues/emotion-controller", fake.calls[0].Path)
	assert.Equal(t, "consume", fake.calls[0].Body["permission"])
	assert.Equal(t, "emotion-controller", fake.calls[0].Body["queueName"])

	assert.Equal(t, http.MethodGet, fake.calls[1].Method)
	assert.Equal(t, "/SEMP/v2/config/msgVpns/romo-vpn/queues/emotion-controller/subscriptions/T%2FimageAnalysis%2Fromo%2F%3E", fake.calls[1].Path)

	assert.Equal(t, http.MethodPost, fake.calls[2].Method)
	assert.Equal(t, "/SEMP/v2/config/msgVpns/romo-vpn/queues/emotion-controller/subscriptions", fake.calls[2].Path)
	assert.Equal(t, "T/imageAnalysis/romo/>", fake.calls[2].Body["subscriptionTopic"])
}

func TestProvisionSkipsExistingSubscription(t *testing.T) {
	fake := &fakeSEMP{subscriptionExists: true}
	p := newTestProvisioner(t, fake, "admin")

	require.NoError(t, p.Provision(context.Background()))

	require.Len(t, fake.calls, 2)
	assert.Equal(t, http.MethodPut, fake.calls[0].Method)
	assert.Equal(t, http.MethodGet, fake.calls[1].Method)
}

func TestProvisionFailsOnRejectedQueue(t *testing.T) {
	fake := &fakeSEMP{}
	p := newTestProvisioner(t, fake, "intruder")

	err := p.Provision(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to provision queue")
	assert.Len(t, fake.calls, 1)
}
