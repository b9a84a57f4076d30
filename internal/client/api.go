package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"anygent/internal/domain"
	"anygent/internal/events"
)

type modelsResponse struct {
	Error   string         `json:"error,omitempty"`
	Models  []domain.Model `json:"models"`
	Success bool           `json:"success"`
}

type fileReadResponse struct {
	Content string `json:"content"`
}

// Chat starts an agent run and returns the raw event stream. The caller must
// close it. The request is bound to ctx; cancelling ctx aborts the stream.
func (c *Client) Chat(ctx context.Context, chatReq domain.ChatRequest) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/chat", chatReq)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// Agent runs are bounded only by the iteration ceiling, so the stream has no timeout
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &HTTPError{Body: string(bodyBytes), StatusCode: resp.StatusCode}
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, domain.ErrNoResponseBody
	}

	c.log().Info("Agent run started", "model", chatReq.Model)
	return resp.Body, nil
}

// StreamChat starts an agent run and decodes its events on a separate goroutine
func (c *Client) StreamChat(ctx context.Context, chatReq domain.ChatRequest) (<-chan events.Event, <-chan error, error) {
	body, err := c.Chat(ctx, chatReq)
	if err != nil {
		return nil, nil, err
	}

	eventCh, streamErrCh := events.Stream(ctx, body)
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		defer body.Close()
		if err := <-streamErrCh; err != nil {
			errCh <- err
		}
	}()

	return eventCh, errCh, nil
}

// Stop asks the backend to halt the current run
func (c *Client) Stop(ctx context.Context) (domain.Ack, error) {
	var ack domain.Ack
	if err := c.doRequest(ctx, http.MethodPost, "/api/chat/stop", nil, &ack); err != nil {
		return domain.Ack{}, fmt.Errorf("failed to stop agent: %w", err)
	}
	return ack, nil
}

// Reset clears the server-side session
func (c *Client) Reset(ctx context.Context) (domain.Ack, error) {
	var ack domain.Ack
	if err := c.doRequest(ctx, http.MethodPost, "/api/chat/reset", nil, &ack); err != nil {
		return domain.Ack{}, fmt.Errorf("failed to reset session: %w", err)
	}
	return ack, nil
}

// Models lists the models available for apiKey
func (c *Client) Models(ctx context.Context, apiKey string) ([]domain.Model, error) {
	var resp modelsResponse
	body := map[string]string{"api_key": apiKey}
	if err := c.doRequest(ctx, http.MethodPost, "/api/models", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch models: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("failed to fetch models: %s", resp.Error)
	}
	return resp.Models, nil
}

// FileTree returns the sandbox file tree
func (c *Client) FileTree(ctx context.Context) (*domain.FileNode, error) {
	var root domain.FileNode
	if err := c.doRequest(ctx, http.MethodGet, "/api/files", nil, &root); err != nil {
		return nil, fmt.Errorf("failed to fetch file tree: %w", err)
	}
	return &root, nil
}

// RefreshFileTree asks the backend to rescan the sandbox and returns the new tree
func (c *Client) RefreshFileTree(ctx context.Context) (*domain.FileNode, error) {
	var root domain.FileNode
	if err := c.doRequest(ctx, http.MethodPost, "/api/files/refresh", nil, &root); err != nil {
		return nil, fmt.Errorf("failed to refresh file tree: %w", err)
	}
	return &root, nil
}

// ReadFile returns the content of a sandbox file. Relative and sandbox-less
// paths are resolved under the sandbox home.
func (c *Client) ReadFile(ctx context.Context, path string) (string, error) {
	var resp fileReadResponse
	body := map[string]string{"file_path": SandboxPath(path)}
	if err := c.doRequest(ctx, http.MethodPost, "/api/files/read", body, &resp); err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return resp.Content, nil
}

// SandboxPath resolves path under the sandbox home
func SandboxPath(path string) string {
	if strings.HasPrefix(path, SandboxHome+"/") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return SandboxHome + path
}

// Memory returns the agent memory snapshot
func (c *Client) Memory(ctx context.Context) (*domain.Memory, error) {
	var memory domain.Memory
	if err := c.doRequest(ctx, http.MethodGet, "/api/memory", nil, &memory); err != nil {
		return nil, fmt.Errorf("failed to fetch memory: %w", err)
	}
	return &memory, nil
}

// SandboxStatus returns the sandbox state
func (c *Client) SandboxStatus(ctx context.Context) (domain.SandboxInfo, error) {
	var info domain.SandboxInfo
	if err := c.doRequest(ctx, http.MethodGet, "/api/sandbox/status", nil, &info); err != nil {
		return domain.SandboxInfo{}, fmt.Errorf("failed to fetch sandbox status: %w", err)
	}
	return info, nil
}

// Status returns the agent run state
func (c *Client) Status(ctx context.Context) (domain.AgentStatus, error) {
	var status domain.AgentStatus
	if err := c.doRequest(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return domain.AgentStatus{}, fmt.Errorf("failed to fetch status: %w", err)
	}
	return status, nil
}

// Health checks that the backend is reachable
func (c *Client) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	if resp.Status != "healthy" {
		return fmt.Errorf("backend unhealthy: %s", resp.Status)
	}
	return nil
}
