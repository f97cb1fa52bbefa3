package watch

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
)

func sign(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func postHook(h http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/hooks/push", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) WebhookResponse {
	t.Helper()
	var resp WebhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestWebhookQueuesPushToBranch(t *testing.T) {
	q := NewQueue(func(context.Context, pipeline.Trigger) {}, nil)
	h := NewWebhookHandler(q, "main", "")

	rec := postHook(h, `{"ref":"refs/heads/main","after":"abc"}`, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "queued", decode(t, rec).Status)
	assert.True(t, q.Pending())

	rec = postHook(h, `{"ref":"refs/heads/main","after":"def"}`, nil)
	resp := decode(t, rec)
	assert.Equal(t, "coalesced", resp.Status)
	assert.True(t, resp.Coalesced)
}

func TestWebhookIgnoresOtherBranches(t *testing.T) {
	q := NewQueue(func(context.Context, pipeline.Trigger) {}, nil)
	h := NewWebhookHandler(q, "main", "")

	rec := postHook(h, `{"ref":"refs/heads/feature"}`, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "ignored", decode(t, rec).Status)
	assert.False(t, q.Pending())
}

func TestWebhookSignature(t *testing.T) {
	const body = `{"ref":"refs/heads/main"}`
	tests := map[string]struct {
		headers map[string]string
		status  int
	}{
		"missing":   {nil, http.StatusUnauthorized},
		"wrong":     {map[string]string{"X-Hub-Signature-256": sign(body, "other")}, http.StatusUnauthorized},
		"github":    {map[string]string{"X-Hub-Signature-256": sign(body, "s3cret")}, http.StatusAccepted},
		"forgejo":   {map[string]string{"X-Forgejo-Signature": strings.TrimPrefix(sign(body, "s3cret"), "sha256=")}, http.StatusAccepted},
		"malformed": {map[string]string{"X-Hub-Signature-256": "sha256=zz"}, http.StatusUnauthorized},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			q := NewQueue(func(context.Context, pipeline.Trigger) {}, nil)
			rec := postHook(NewWebhookHandler(q, "main", "s3cret"), body, tt.headers)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status == http.StatusAccepted, q.Pending())
		})
	}
}

func TestWebhookRejectsBadRequests(t *testing.T) {
	q := NewQueue(func(context.Context, pipeline.Trigger) {}, nil)
	h := NewWebhookHandler(q, "main", "")

	req := httptest.NewRequest(http.MethodGet, "/hooks/push", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusBadRequest, postHook(h, `not json`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, postHook(h, `{}`, nil).Code)
	assert.Equal(t, http.StatusOK, postHook(h, `{"zen":"hi"}`, map[string]string{"X-GitHub-Event": "ping"}).Code)
	assert.False(t, q.Pending())
}

type fakeRunner struct {
	runs chan pipeline.Trigger
}

func (f *fakeRunner) Run(_ context.Context, tr pipeline.Trigger) (*pipeline.RunResult, error) {
	f.runs <- tr
	return &pipeline.RunResult{ID: "r", State: pipeline.StatePublished}, nil
}

func (f *fakeRunner) State() pipeline.State { return pipeline.StateIdle }

func TestServiceServesWebhookAndHealth(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := &fakeRunner{runs: make(chan pipeline.Trigger, 4)}

	// reserve a free port, then hand it to the service
	probe, err := NewServer("127.0.0.1:0", http.NewServeMux())
	require.NoError(t, err)
	addr := probe.Addr()
	require.NoError(t, probe.listener.Close())

	svc := NewService(Options{Listen: addr, Branch: "main", RunOnStart: true}, runner)
	errc := make(chan error, 1)
	go func() { errc <- svc.Run(ctx) }()

	select {
	case tr := <-runner.runs:
		assert.Equal(t, "startup", tr.Detail)
	case <-time.After(5 * time.Second):
		t.Fatalf("startup run not executed")
	}

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Post("http://"+addr+"/hooks/push", "application/json", strings.NewReader(`{"ref":"refs/heads/main"}`))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case tr := <-runner.runs:
		assert.Equal(t, pipeline.TriggerWebhook, tr.Source)
	case <-time.After(5 * time.Second):
		t.Fatalf("webhook run not executed")
	}

	health, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	_ = health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)

	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("service did not stop")
	}
}
