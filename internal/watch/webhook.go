package watch

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	derrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
)

const maxWebhookBody = 1 << 20

// WebhookHandler accepts push notifications from a git forge and enqueues a
// run when the pushed ref is the watched branch.
type WebhookHandler struct {
	queue        *Queue
	branch       string
	secret       string
	errorAdapter *derrors.HTTPErrorAdapter
}

// NewWebhookHandler returns a handler for pushes to branch. When secret is
// set every request must carry a valid HMAC-SHA256 signature.
func NewWebhookHandler(q *Queue, branch, secret string) *WebhookHandler {
	return &WebhookHandler{
		queue:        q,
		branch:       branch,
		secret:       secret,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
	}
}

type pushPayload struct {
	Ref   string `json:"ref"`
	After string `json:"after"`
}

// WebhookResponse is the acknowledgement body.
type WebhookResponse struct {
	Status    string `json:"status"` // queued, coalesced, ignored or pong
	Ref       string `json:"ref,omitempty"`
	Coalesced bool   `json:"coalesced,omitempty"`
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		err := derrors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "POST").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, derrors.WrapError(err, derrors.CategoryValidation, "failed to read payload").Build())
		return
	}
	if len(body) > maxWebhookBody {
		h.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("payload too large").
			WithContext("limit", maxWebhookBody).Build())
		return
	}

	if h.secret != "" && !ValidSignature(body, signatureHeader(r), h.secret) {
		h.errorAdapter.WriteErrorResponse(w, r, derrors.AuthError("invalid webhook signature").Build())
		return
	}

	if eventType(r) == "ping" {
		writeJSON(w, http.StatusOK, WebhookResponse{Status: "pong"})
		return
	}

	var p pushPayload
	if err := json.Unmarshal(body, &p); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("invalid JSON payload").
			WithContext("content_type", r.Header.Get("Content-Type")).
			WithContext("error", err.Error()).
			Build())
		return
	}
	if p.Ref == "" {
		h.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("push payload has no ref").Build())
		return
	}

	if strings.TrimPrefix(p.Ref, "refs/heads/") != h.branch {
		slog.Debug("Ignoring push to unwatched ref", "ref", p.Ref, logfields.Branch(h.branch))
		writeJSON(w, http.StatusAccepted, WebhookResponse{Status: "ignored", Ref: p.Ref})
		return
	}

	coalesced := h.queue.Enqueue(pipeline.Trigger{Source: pipeline.TriggerWebhook, Detail: p.Ref + "@" + p.After})
	status := "queued"
	if coalesced {
		status = "coalesced"
	}
	writeJSON(w, http.StatusAccepted, WebhookResponse{Status: status, Ref: p.Ref, Coalesced: coalesced})
}

// ValidSignature checks an HMAC-SHA256 signature in either the GitHub form
// ("sha256=<hex>") or the bare hex form used by Gitea and Forgejo.
func ValidSignature(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	expected := strings.TrimPrefix(signature, "sha256=")
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	calc := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(strings.ToLower(expected)), []byte(calc))
}

func signatureHeader(r *http.Request) string {
	for _, h := range []string{"X-Hub-Signature-256", "X-Gitea-Signature", "X-Forgejo-Signature", "X-Sitepipe-Signature"} {
		if v := r.Header.Get(h); v != "" {
			return v
		}
	}
	return ""
}

func eventType(r *http.Request) string {
	for _, h := range []string{"X-GitHub-Event", "X-Gitea-Event", "X-Forgejo-Event"} {
		if v := r.Header.Get(h); v != "" {
			return v
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
