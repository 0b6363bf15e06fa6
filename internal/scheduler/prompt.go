package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/davidkych/cursus-backend/internal/jsonstore"
	"github.com/davidkych/cursus-backend/internal/models"
)

const defaultHTTPCallTimeout = 10 * time.Second

// Runner executes a prompt of a fired job.
type Runner interface {
	Run(ctx context.Context, promptType string, payload map[string]interface{}) (interface{}, error)
}

// PromptRunner dispatches on prompt type: log.append writes to the shared
// log store, http.call issues an outbound JSON POST.
type PromptRunner struct {
	Logs   *jsonstore.Store
	Client *http.Client
}

func NewPromptRunner(logs *jsonstore.Store) *PromptRunner {
	return &PromptRunner{
		Logs:   logs,
		Client: &http.Client{},
	}
}

func (r *PromptRunner) Run(ctx context.Context, promptType string, payload map[string]interface{}) (interface{}, error) {
	switch promptType {
	case models.PromptLogAppend:
		return r.logAppend(ctx, payload)
	case models.PromptHTTPCall:
		return r.httpCall(ctx, payload)
	default:
		return nil, fmt.Errorf("unsupported prompt_type %q", promptType)
	}
}

func (r *PromptRunner) logAppend(ctx context.Context, payload map[string]interface{}) (interface{}, error) {
	tag := stringValue(payload, "tag")
	if tag == "" {
		tag = "scheduler"
	}
	base := stringValue(payload, "base")
	if base == "" {
		base = "info"
	}

	logID, entries, err := r.Logs.AppendLog(ctx, tag, stringValue(payload, "tertiary_tag"), base, stringValue(payload, "message"))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"status":  "success",
		"log_id":  logID,
		"entries": entries,
	}, nil
}

func (r *PromptRunner) httpCall(ctx context.Context, payload map[string]interface{}) (interface{}, error) {
	url := stringValue(payload, "url")
	if url == "" {
		return nil, fmt.Errorf("http.call payload requires url")
	}

	timeout := defaultHTTPCallTimeout
	if secs, ok := numberValue(payload, "timeout"); ok && secs > 0 {
		timeout = time.Duration(secs * float64(time.Second))
	}

	body, err := json.Marshal(payload["body"])
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		decoded = string(raw)
	}
	return map[string]interface{}{
		"status_code": resp.StatusCode,
		"body":        decoded,
	}, nil
}

func stringValue(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func numberValue(m map[string]interface{}, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
