// Package events defines the agent event protocol and decodes it from a
// server-sent event stream.
package events

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"anygent/internal/domain"
)

// Type is the discriminator of an AgentEvent
type Type string

const (
	TypeCodeStreamChunk      Type = "code_stream_chunk"
	TypeCodeStreamEnd        Type = "code_stream_end"
	TypeCodeStreamStart      Type = "code_stream_start"
	TypeComplete             Type = "complete"
	TypeError                Type = "error"
	TypeIteration            Type = "iteration"
	TypeIterationStart       Type = "iteration_start"
	TypeMaxIterationsReached Type = "max_iterations_reached"
	TypeReadFileEnd          Type = "read_file_end"
	TypeReadFileStart        Type = "read_file_start"
	TypeSandboxCreating      Type = "sandbox_creating"
	TypeSandboxError         Type = "sandbox_error"
	TypeSandboxReady         Type = "sandbox_ready"
	TypeStreamEnd            Type = "stream_end"
	TypeThought              Type = "thought"
	TypeThoughtStreamChunk   Type = "thought_stream_chunk"
	TypeThoughtStreamEnd     Type = "thought_stream_end"
	TypeThoughtStreamStart   Type = "thought_stream_start"
	TypeToolCall             Type = "tool_call"
	TypeToolError            Type = "tool_error"
	TypeToolResult           Type = "tool_result"
)

// Tool names used by the agent
const (
	ToolFileRead  = "file_read"
	ToolFileWrite = "file_write"
)

// Event is one AgentEvent as received on the wire. Only Type is always present;
// the remaining fields depend on it.
type Event struct {
	Arguments       json.RawMessage `json:"arguments,omitempty"`
	Chunk           string          `json:"chunk,omitempty"`
	Content         string          `json:"content,omitempty"`
	Error           string          `json:"error,omitempty"`
	FilePath        string          `json:"file_path,omitempty"`
	Iteration       int             `json:"iteration,omitempty"`
	MaxIterations   int             `json:"max_iterations,omitempty"`
	Message         string          `json:"message,omitempty"`
	Result          json.RawMessage `json:"result,omitempty"`
	ToolID          string          `json:"tool_id,omitempty"`
	ToolName        string          `json:"tool_name,omitempty"`
	TotalIterations int             `json:"total_iterations,omitempty"`
	Type            Type            `json:"type"`
}

// ResultSuccess reports result.success
func (e Event) ResultSuccess() bool {
	return gjson.GetBytes(e.Result, "success").Bool()
}

// ResultError returns result.error, falling back to the event-level error
func (e Event) ResultError() string {
	if msg := gjson.GetBytes(e.Result, "error").String(); msg != "" {
		return msg
	}
	return e.Error
}

// ResultContent returns result.content
func (e Event) ResultContent() string {
	return gjson.GetBytes(e.Result, "content").String()
}

// ReadResult extracts the structured outcome of a file read
func (e Event) ReadResult() *domain.ReadResult {
	if len(e.Result) == 0 {
		return nil
	}
	r := gjson.ParseBytes(e.Result)
	return &domain.ReadResult{
		FileName:   r.Get("file_name").String(),
		FileSize:   r.Get("file_size").Int(),
		LinesRead:  int(r.Get("lines_read").Int()),
		Message:    r.Get("message").String(),
		TotalLines: int(r.Get("total_lines").Int()),
		Truncated:  r.Get("truncated").Bool(),
	}
}

// ArgumentString returns a string argument of a tool call
func (e Event) ArgumentString(key string) string {
	return gjson.GetBytes(e.Arguments, key).String()
}

// TargetPath is the file an event refers to: the explicit file_path, or the
// file_path argument / result of a tool call.
func (e Event) TargetPath() string {
	if e.FilePath != "" {
		return e.FilePath
	}
	if p := e.ArgumentString("file_path"); p != "" {
		return p
	}
	return gjson.GetBytes(e.Result, "file_path").String()
}

// IsTerminal reports whether the event ends the current run
func (e Event) IsTerminal() bool {
	switch e.Type {
	case TypeStreamEnd, TypeError, TypeMaxIterationsReached:
		return true
	}
	return false
}
