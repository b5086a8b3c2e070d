// client.go - JSON-RPC client executing page scripts through the bridge.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// ErrToolFailed is returned when the bridge reports isError on a tool call.
var ErrToolFailed = errors.New("bridge tool call failed")

// Client connects to the extension bridge.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	scriptTimeout time.Duration
	requestID     atomic.Int64
}

// NewClient creates a client for baseURL. scriptTimeout <= 0 uses ScriptTimeout.
func NewClient(baseURL string, scriptTimeout time.Duration) *Client {
	if scriptTimeout <= 0 {
		scriptTimeout = ScriptTimeout
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		scriptTimeout: scriptTimeout,
		httpClient: &http.Client{
			Timeout: scriptTimeout + httpSlack,
		},
	}
}

// Execute evaluates script in the page's main world and returns the raw
// JSON result text.
func (c *Client) Execute(ctx context.Context, script string) (json.RawMessage, error) {
	res, err := c.CallTool(ctx, "interact", map[string]any{
		"action":     "execute_js",
		"script":     script,
		"world":      "main",
		"timeout_ms": scriptTimeoutMS(c.scriptTimeout),
	})
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(res.Text())
	if res.IsError {
		return nil, fmt.Errorf("%w: %s", ErrToolFailed, text)
	}
	if text == "" {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(text), nil
}

// CallTool sends a tools/call request.
func (c *Client) CallTool(ctx context.Context, tool string, arguments map[string]any) (*ToolResult, error) {
	body, err := c.buildRequest(tool, arguments)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.doPost(ctx, body)
	if err != nil {
		if IsConnectionError(err) {
			return nil, fmt.Errorf("call tool %q: %w: %w", tool, ErrUnreachable, err)
		}
		return nil, fmt.Errorf("call tool %q: %w", tool, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp JSONRPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("server error [%d]: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	var result ToolResult
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return nil, fmt.Errorf("decode tool result: %w", err)
	}
	return &result, nil
}

// HealthCheck reports whether the bridge answers /health with 200.
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, DetectTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) buildRequest(tool string, arguments map[string]any) ([]byte, error) {
	argsJSON, err := json.Marshal(arguments)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments: %w", err)
	}
	params, err := json.Marshal(struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}{Name: tool, Arguments: argsJSON})
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	return json.Marshal(JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      c.nextID(),
		Method:  "tools/call",
		Params:  params,
	})
}

func (c *Client) doPost(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mcp", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

func (c *Client) nextID() int64 {
	return c.requestID.Add(1)
}
