package v1

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/keygate/keygate/internal/config"
	ierr "github.com/keygate/keygate/internal/errors"
	"github.com/keygate/keygate/internal/logger"
)

// ChatHandler proxies chat completion requests to an upstream
// OpenAI-compatible API. The upstream credential never reaches the caller
// and the caller's payload passes through unmodified except for a default
// model.
type ChatHandler struct {
	cfg    *config.ChatProxyConfig
	client *retryablehttp.Client
	log    *logger.Logger
}

func NewChatHandler(cfg *config.Configuration, log *logger.Logger) *ChatHandler {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.ChatProxy.RetryMax
	client.HTTPClient.Timeout = cfg.ChatProxy.Timeout
	client.Logger = nil

	return &ChatHandler{
		cfg:    &cfg.ChatProxy,
		client: client,
		log:    log,
	}
}

// Completions forwards the request body to the upstream completion API and
// relays the response verbatim.
func (h *ChatHandler) Completions(c *gin.Context) {
	if !h.cfg.Enabled {
		c.Error(ierr.NewError("chat proxy disabled").
			WithHint("The chat completion proxy is not enabled").
			Mark(ierr.ErrInvalidOperation))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Failed to read request body").
			Mark(ierr.ErrValidation))
		return
	}

	body = h.withDefaultModel(body)

	req, err := retryablehttp.NewRequestWithContext(c.Request.Context(), http.MethodPost, h.cfg.UpstreamURL, body)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Failed to build upstream request").
			Mark(ierr.ErrSystem))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if h.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Error("Upstream chat completion call failed", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("The chat completion upstream is unavailable").
			Mark(ierr.ErrHTTPClient))
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Failed to read upstream response").
			Mark(ierr.ErrHTTPClient))
		return
	}

	c.Data(resp.StatusCode, "application/json", respBody)
}

// withDefaultModel injects the configured model when the caller omits one.
// A payload that does not parse is forwarded as-is and left to the upstream
// to reject.
func (h *ChatHandler) withDefaultModel(body []byte) []byte {
	if h.cfg.Model == "" {
		return body
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return body
	}
	if _, ok := payload["model"]; ok {
		return body
	}

	payload["model"] = h.cfg.Model
	patched, err := json.Marshal(payload)
	if err != nil {
		return body
	}
	return patched
}
