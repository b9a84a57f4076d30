package domain

// Tool labels shown in the computer panel
const (
	ToolEditor = "Editor"
	ToolReader = "Reader"
)

// CodeStreamingState mirrors whatever file the agent is currently touching
type CodeStreamingState struct {
	Action      string
	Content     string
	FilePath    string
	IsStreaming bool
	Tool        string
}

// CodeStreamingPatch is a partial update of CodeStreamingState; nil fields are left untouched
type CodeStreamingPatch struct {
	Action      *string
	Content     *string
	FilePath    *string
	IsStreaming *bool
	Tool        *string
}

// Apply merges the non-nil fields of p into s
func (p CodeStreamingPatch) Apply(s *CodeStreamingState) {
	if p.Action != nil {
		s.Action = *p.Action
	}
	if p.Content != nil {
		s.Content = *p.Content
	}
	if p.FilePath != nil {
		s.FilePath = *p.FilePath
	}
	if p.IsStreaming != nil {
		s.IsStreaming = *p.IsStreaming
	}
	if p.Tool != nil {
		s.Tool = *p.Tool
	}
}

// StopStreaming is the patch used by every terminal and error path
func StopStreaming() CodeStreamingPatch {
	f := false
	return CodeStreamingPatch{IsStreaming: &f}
}

// StartStreaming returns a patch that points the live mirror at a new file with an empty buffer
func StartStreaming(filePath, tool, action string) CodeStreamingPatch {
	t := true
	empty := ""
	return CodeStreamingPatch{
		Action:      &action,
		Content:     &empty,
		FilePath:    &filePath,
		IsStreaming: &t,
		Tool:        &tool,
	}
}
