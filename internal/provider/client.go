package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pixrelay/api/internal/errs"
	"pixrelay/api/internal/logger"
)

const maxResponseBody = 1 << 20

// restClient is the JSON plumbing shared by every provider.
type restClient struct {
	name       string
	label      string
	baseURL    string
	httpClient *http.Client
}

func newRESTClient(name, label, baseURL string, httpClient *http.Client) restClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return restClient{
		name:       name,
		label:      label,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// doJSON sends body as JSON and decodes a 2xx answer into out.
// Non-2xx answers become *errs.ProviderError and are logged with the request.
func (c *restClient) doJSON(ctx context.Context, method, path string, headers map[string]string, body, out interface{}) error {
	var reqBody []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal: %w", c.name, err)
		}
		reqBody = b
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("%s: new request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: http: %w", c.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%s: read body: %w", c.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Errorf("[%s] Erro %s %s: status=%d request=%s response=%s",
			strings.ToUpper(c.name), method, path, resp.StatusCode, string(reqBody), string(respBody))
		return &errs.ProviderError{
			Provider: c.name,
			Status:   resp.StatusCode,
			Body:     string(respBody),
			Message:  errorMessage(respBody),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		logger.Errorf("[%s] Resposta inválida %s %s: %v body=%s", strings.ToUpper(c.name), method, path, err, string(respBody))
		return &errs.MalformedResponseError{Provider: c.label, Field: "Corpo JSON"}
	}
	return nil
}

// errorMessage extracts "message", then "error", from a provider error body.
func errorMessage(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg, ok := payload["message"].(string); ok && msg != "" {
			return msg
		}
		if msg, ok := payload["error"].(string); ok && msg != "" {
			return msg
		}
	}
	return "Erro ao criar pedido Pix"
}
