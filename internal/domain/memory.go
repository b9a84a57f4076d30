package domain

import (
	"slices"

	"github.com/tidwall/gjson"
)

// FileInContext describes a file the agent currently holds in context
type FileInContext struct {
	Extension string `json:"extension"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	Type      string `json:"type"`
}

// MemoryStats are the derived counters of a memory snapshot
type MemoryStats struct {
	FileTypes      map[string]int  `json:"file_types"`
	FilesCreated   int             `json:"files_created"`
	FilesInContext []FileInContext `json:"files_in_context"`
	ToolCalls      int             `json:"tool_calls"`
	TotalMessages  int             `json:"total_messages"`
}

// Memory is the server-reported session snapshot; treated as immutable until the next fetch
type Memory struct {
	CurrentIteration int              `json:"current_iteration"`
	IsRunning        bool             `json:"is_running"`
	MaxIterations    int              `json:"max_iterations"`
	Messages         []map[string]any `json:"messages"`
	SessionID        string           `json:"session_id"`
	Stats            MemoryStats      `json:"stats"`
}

// TimelineKind classifies a memory timeline row
type TimelineKind string

const (
	TimelineThought    TimelineKind = "thought"
	TimelineToolCall   TimelineKind = "tool_call"
	TimelineToolResult TimelineKind = "tool_result"
	TimelineUser       TimelineKind = "user"
)

// TimelineEntry is one row of the memory activity timeline
type TimelineEntry struct {
	Content  string
	Kind     TimelineKind
	OK       bool
	ToolName string
}

// Timeline derives activity rows from the raw conversation messages, newest first,
// keeping at most limit rows (limit <= 0 keeps all).
func (m *Memory) Timeline(limit int) []TimelineEntry {
	if m == nil {
		return nil
	}

	var rows []TimelineEntry
	for _, msg := range m.Messages {
		role, _ := msg["role"].(string)
		content, _ := msg["content"].(string)
		switch role {
		case "user":
			rows = append(rows, TimelineEntry{Kind: TimelineUser, Content: content, OK: true})
		case "assistant":
			if content != "" {
				rows = append(rows, TimelineEntry{Kind: TimelineThought, Content: truncateRunes(content, 100), OK: true})
			}
			calls, _ := msg["tool_calls"].([]any)
			for _, call := range calls {
				name := toolCallName(call)
				rows = append(rows, TimelineEntry{Kind: TimelineToolCall, Content: name, ToolName: name, OK: true})
			}
		case "tool":
			name, _ := msg["name"].(string)
			rows = append(rows, toolResultEntry(name, content))
		}
	}

	slices.Reverse(rows)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func toolCallName(call any) string {
	c, ok := call.(map[string]any)
	if !ok {
		return ""
	}
	fn, ok := c["function"].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := fn["name"].(string)
	return name
}

// toolResultEntry reads the JSON tool output; unparsable output counts as success
func toolResultEntry(name, content string) TimelineEntry {
	entry := TimelineEntry{Kind: TimelineToolResult, Content: name, ToolName: name, OK: true}
	if content == "" {
		content = "{}"
	}
	if !gjson.Valid(content) {
		return entry
	}
	result := gjson.Parse(content)
	entry.OK = result.Get("success").Bool()
	if path := result.Get("file_path").String(); path != "" {
		entry.Content = path
	}
	return entry
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s + "..."
	}
	return string(r[:n]) + "..."
}
