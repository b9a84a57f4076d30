package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/tidwall/sjson"

	"anygent/internal/events"
	"anygent/internal/logging"
)

// Keywords in the user message that change the scripted run
const (
	KeywordCrash = "crash"
	KeywordFail  = "fail"
	KeywordLoop  = "loop"
)

const missingE2BKey = "E2B API key is required. Please add it in Settings."

// field is one path/value pair set on an event line
type field struct {
	path  string
	raw   bool
	value any
}

func set(key string, value any) field { return field{path: key, value: value} }

func setRaw(key, raw string) field { return field{path: key, raw: true, value: raw} }

// eventLine builds one JSON event object
func eventLine(typ events.Type, fields ...field) string {
	line, _ := sjson.Set("{}", "type", string(typ))
	for _, f := range fields {
		var err error
		if f.raw {
			line, err = sjson.SetRaw(line, f.path, f.value.(string))
		} else {
			line, err = sjson.Set(line, f.path, f.value)
		}
		if err != nil {
			logging.Logger.Error("Failed to build mock event", "type", typ, "path", f.path, "error", err)
		}
	}
	return line
}

// emitter writes event lines and honors stop requests and client disconnects
type emitter struct {
	delay   time.Duration
	done    <-chan struct{}
	flusher http.Flusher
	stop    <-chan struct{}
	w       http.ResponseWriter
}

// send writes one line. It reports false once the run should end.
func (e *emitter) send(line string) bool {
	select {
	case <-e.stop:
		return false
	case <-e.done:
		return false
	default:
	}
	if _, err := fmt.Fprintf(e.w, "%s%s\n\n", events.DataPrefix, line); err != nil {
		return false
	}
	e.flusher.Flush()
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-e.stop:
			return false
		case <-e.done:
			return false
		}
	}
	return true
}

// sendRaw writes a line that is not a valid event
func (e *emitter) sendRaw(line string) {
	fmt.Fprintf(e.w, "%s\n", line)
	e.flusher.Flush()
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey    string `json:"api_key"`
		E2BAPIKey string `json:"e2b_api_key"`
		Message   string `json:"message"`
		Model     string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeDetail(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	stopCh := make(chan struct{})
	s.mu.Lock()
	s.running = true
	s.stopCh = stopCh
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		if s.stopCh == stopCh {
			s.stopCh = nil
		}
		s.mu.Unlock()
	}()

	em := &emitter{
		delay:   s.delay,
		done:    r.Context().Done(),
		flusher: flusher,
		stop:    stopCh,
		w:       w,
	}

	if req.E2BAPIKey == "" {
		em.send(eventLine(events.TypeError, set("error", missingE2BKey)))
	} else {
		s.run(em, req.Message)
	}

	// stream_end is written even after a stop so the client always leaves the running state
	fmt.Fprintf(w, "%s%s\n\n", events.DataPrefix, eventLine(events.TypeStreamEnd))
	flusher.Flush()
}

// run plays the scripted agent loop for message
func (s *Server) run(em *emitter, message string) {
	lower := strings.ToLower(message)
	s.recordMessage("user", message)

	s.mu.Lock()
	needSandbox := !s.sandboxReady
	s.iteration = 0
	s.mu.Unlock()

	if needSandbox {
		if !em.send(eventLine(events.TypeSandboxCreating, set("message", "Creating sandbox..."))) {
			return
		}
		s.mu.Lock()
		s.sandboxReady = true
		s.mu.Unlock()
		if !em.send(eventLine(events.TypeSandboxReady, set("message", "Sandbox ready"))) {
			return
		}
	}

	if !em.send(eventLine(events.TypeIterationStart, set("iteration", 0), set("max_iterations", s.maxIterations))) {
		return
	}

	if strings.Contains(lower, KeywordLoop) {
		s.runUntilCeiling(em)
		return
	}

	// Iteration 1: think, then write a file
	if !s.nextIteration(em) {
		return
	}
	thought := fmt.Sprintf("I'll build this for you: %s", message)
	if !s.streamThought(em, thought) {
		return
	}

	if strings.Contains(lower, KeywordCrash) {
		em.sendRaw(events.DataPrefix + "{this is not json")
		em.send(eventLine("telemetry_ping", set("iteration", 1)))
		em.send(eventLine(events.TypeError, set("error", "Agent crashed while planning"), set("iteration", 1)))
		return
	}

	filePath := SandboxHome + "/index.html"
	content := fmt.Sprintf("<!DOCTYPE html>\n<html>\n<head><title>%s</title></head>\n<body>\n  <h1>Hello from the agent</h1>\n</body>\n</html>\n", htmlTitle(message))
	if !s.streamWrite(em, filePath, content, !strings.Contains(lower, KeywordFail)) {
		return
	}

	// Iteration 2: read the file back
	if !s.nextIteration(em) {
		return
	}
	if !s.readBack(em, filePath) {
		return
	}

	// Iteration 3: finish
	if !s.nextIteration(em) {
		return
	}
	summary := "The page is ready. Open index.html in the files panel to review it."
	if !em.send(eventLine(events.TypeThought, set("content", summary), set("iteration", s.currentIteration()))) {
		return
	}
	s.recordMessage("assistant", summary)
	em.send(eventLine(events.TypeComplete,
		set("content", summary),
		set("iteration", s.currentIteration()),
		set("total_iterations", s.currentIteration())))
}

func (s *Server) runUntilCeiling(em *emitter) {
	for s.currentIteration() < s.maxIterations {
		if !s.nextIteration(em) {
			return
		}
	}
	em.send(eventLine(events.TypeMaxIterationsReached,
		set("iteration", s.currentIteration()),
		set("max_iterations", s.maxIterations),
		set("message", "Maximum iterations reached. Stopping agent.")))
}

func (s *Server) currentIteration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iteration
}

func (s *Server) nextIteration(em *emitter) bool {
	s.mu.Lock()
	s.iteration++
	n := s.iteration
	s.mu.Unlock()
	return em.send(eventLine(events.TypeIteration, set("iteration", n), set("max_iterations", s.maxIterations)))
}

func (s *Server) recordMessage(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, map[string]any{"role": role, "content": content})
}

func (s *Server) streamThought(em *emitter, text string) bool {
	n := s.currentIteration()
	if !em.send(eventLine(events.TypeThoughtStreamStart, set("iteration", n))) {
		return false
	}
	for _, word := range strings.SplitAfter(text, " ") {
		if !em.send(eventLine(events.TypeThoughtStreamChunk, set("chunk", word))) {
			return false
		}
	}
	s.recordMessage("assistant", text)
	return em.send(eventLine(events.TypeThoughtStreamEnd, set("content", text), set("iteration", n)))
}

func (s *Server) streamWrite(em *emitter, filePath, content string, succeed bool) bool {
	n := s.currentIteration()
	if !em.send(eventLine(events.TypeCodeStreamStart, set("file_path", filePath), set("iteration", n))) {
		return false
	}
	for _, chunk := range chunks(content, 24) {
		if !em.send(eventLine(events.TypeCodeStreamChunk, set("chunk", chunk))) {
			return false
		}
	}
	if !em.send(eventLine(events.TypeCodeStreamEnd, set("file_path", filePath))) {
		return false
	}

	s.mu.Lock()
	s.toolCalls++
	if succeed {
		s.files[filePath] = content
	}
	s.mu.Unlock()

	result := `{"success":true}`
	if succeed {
		result, _ = sjson.Set(result, "file_path", filePath)
		result, _ = sjson.Set(result, "message", fmt.Sprintf("File written: %s", filePath))
	} else {
		result, _ = sjson.Set(result, "success", false)
		result, _ = sjson.Set(result, "error", "Permission denied")
	}
	return em.send(eventLine(events.TypeToolResult,
		set("tool_name", events.ToolFileWrite),
		set("tool_id", "call_write_1"),
		setRaw("result", result),
		set("iteration", n)))
}

func (s *Server) readBack(em *emitter, filePath string) bool {
	n := s.currentIteration()
	if !em.send(eventLine(events.TypeReadFileStart, set("file_path", filePath), set("iteration", n))) {
		return false
	}

	s.mu.Lock()
	content, ok := s.files[filePath]
	s.toolCalls++
	s.mu.Unlock()

	result := "{}"
	if ok {
		lines := strings.Count(content, "\n")
		result, _ = sjson.Set(result, "success", true)
		result, _ = sjson.Set(result, "content", content)
		result, _ = sjson.Set(result, "file_path", filePath)
		result, _ = sjson.Set(result, "file_name", path.Base(filePath))
		result, _ = sjson.Set(result, "file_extension", path.Ext(filePath))
		result, _ = sjson.Set(result, "file_size", len(content))
		result, _ = sjson.Set(result, "total_lines", lines)
		result, _ = sjson.Set(result, "lines_read", lines)
		result, _ = sjson.Set(result, "truncated", false)
		result, _ = sjson.Set(result, "message", fmt.Sprintf("Read %d lines from %s", lines, path.Base(filePath)))
	} else {
		result, _ = sjson.Set(result, "success", false)
		result, _ = sjson.Set(result, "error", fmt.Sprintf("File not found: %s", filePath))
	}

	return em.send(eventLine(events.TypeReadFileEnd,
		set("tool_name", events.ToolFileRead),
		set("file_path", filePath),
		setRaw("result", result),
		set("iteration", n)))
}

// chunks splits s into pieces of at most size runes
func chunks(s string, size int) []string {
	var out []string
	runes := []rune(s)
	for len(runes) > size {
		out = append(out, string(runes[:size]))
		runes = runes[size:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func htmlTitle(message string) string {
	title := []rune(strings.TrimSpace(message))
	if len(title) > 40 {
		title = title[:40]
	}
	return strings.NewReplacer("<", "", ">", "", "&", "").Replace(string(title))
}
