// Package mock serves a scripted stand-in for the agent backend. It speaks the
// same REST and event-stream protocol, which makes it usable for demos and tests.
package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"anygent/internal/domain"
	"anygent/internal/logging"
)

// SandboxHome is the root of the simulated sandbox
const SandboxHome = "/home/user"

// Server is the scripted backend. Create it with New and mount Handler().
type Server struct {
	delay         time.Duration
	maxIterations int
	models        []domain.Model

	mu           sync.Mutex
	files        map[string]string
	iteration    int
	messages     []map[string]any
	running      bool
	sandboxReady bool
	sessionID    string
	stopCh       chan struct{}
	toolCalls    int
}

// Option configures the server
type Option func(*Server)

// WithDelay pauses between events so the stream is visible in a terminal
func WithDelay(d time.Duration) Option {
	return func(s *Server) {
		s.delay = d
	}
}

// WithMaxIterations sets the reported iteration ceiling
func WithMaxIterations(n int) Option {
	return func(s *Server) {
		s.maxIterations = n
	}
}

// WithModels replaces the default model list
func WithModels(models []domain.Model) Option {
	return func(s *Server) {
		s.models = models
	}
}

// WithFile seeds the sandbox with a file
func WithFile(filePath, content string) Option {
	return func(s *Server) {
		s.files[sandboxPath(filePath)] = content
	}
}

// New creates a mock backend with an empty sandbox
func New(opts ...Option) *Server {
	s := &Server{
		files:         make(map[string]string),
		maxIterations: domain.DefaultMaxIterations,
		models: []domain.Model{
			{ID: domain.DefaultModel, Name: "Claude 3.5 Sonnet", ContextLength: 200000, Description: "Anthropic's balanced model"},
			{ID: "openai/gpt-4o", Name: "GPT-4o", ContextLength: 128000},
		},
		sessionID: uuid.New().String(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes of the backend
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("POST /api/models", s.modelsHandler)
	mux.HandleFunc("POST /api/chat", s.chatHandler)
	mux.HandleFunc("POST /api/chat/stop", s.stopHandler)
	mux.HandleFunc("POST /api/chat/reset", s.resetHandler)
	mux.HandleFunc("GET /api/memory", s.memoryHandler)
	mux.HandleFunc("GET /api/files", s.filesHandler)
	mux.HandleFunc("POST /api/files/refresh", s.filesHandler)
	mux.HandleFunc("POST /api/files/read", s.readFileHandler)
	mux.HandleFunc("GET /api/sandbox/status", s.sandboxStatusHandler)
	mux.HandleFunc("GET /api/status", s.statusHandler)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.Logger.Debug("Mock request", "method", r.Method, "path", r.URL.Path)
		mux.ServeHTTP(w, r)
	})
}

// Files returns a copy of the sandbox contents
func (s *Server) Files() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.files))
	for k, v := range s.files {
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) modelsHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.APIKey == "" {
		writeDetail(w, http.StatusBadRequest, "Invalid API key")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "models": s.models})
}

func (s *Server) stopHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running && s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Agent stopped"})
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.files = make(map[string]string)
	s.iteration = 0
	s.messages = nil
	s.sandboxReady = false
	s.sessionID = uuid.New().String()
	s.toolCalls = 0
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Agent reset and sandbox cleared"})
}

func (s *Server) memoryHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fileTypes := make(map[string]int)
	inContext := make([]domain.FileInContext, 0, len(s.files))
	for _, p := range s.sortedPaths() {
		ext := domain.FileExtension(p)
		if ext != "" {
			fileTypes[ext]++
		}
		inContext = append(inContext, domain.FileInContext{
			Extension: ext,
			Name:      path.Base(p),
			Path:      p,
			Type:      "created",
		})
	}

	messages := s.messages
	if messages == nil {
		messages = []map[string]any{}
	}

	writeJSON(w, http.StatusOK, domain.Memory{
		CurrentIteration: s.iteration,
		IsRunning:        s.running,
		MaxIterations:    s.maxIterations,
		Messages:         messages,
		SessionID:        s.sessionID,
		Stats: domain.MemoryStats{
			FileTypes:      fileTypes,
			FilesCreated:   len(s.files),
			FilesInContext: inContext,
			ToolCalls:      s.toolCalls,
			TotalMessages:  len(s.messages),
		},
	})
}

func (s *Server) filesHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	tree := buildTree(s.sortedPaths())
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) readFileHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FilePath string `json:"file_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	content, ok := s.files[req.FilePath]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("File not found: %s", req.FilePath))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "content": content, "file_path": req.FilePath})
}

func (s *Server) sandboxStatusHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"exists": s.sandboxReady, "is_running": s.sandboxReady})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := "idle"
	if s.running {
		status = "running"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"current_iteration": s.iteration,
		"is_running":        s.running,
		"max_iterations":    s.maxIterations,
		"sandbox":           map[string]any{"exists": s.sandboxReady, "is_running": s.sandboxReady},
		"session_id":        s.sessionID,
		"status":            status,
	})
}

// sortedPaths must be called with mu held
func (s *Server) sortedPaths() []string {
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func sandboxPath(p string) string {
	if strings.HasPrefix(p, SandboxHome+"/") {
		return p
	}
	return path.Join(SandboxHome, p)
}

// buildTree turns sorted absolute file paths into a FileNode tree rooted at the sandbox home
func buildTree(paths []string) *domain.FileNode {
	root := &domain.FileNode{Name: "user", Path: SandboxHome, Type: domain.NodeFolder, Children: []*domain.FileNode{}}
	folders := map[string]*domain.FileNode{SandboxHome: root}

	var folderFor func(dir string) *domain.FileNode
	folderFor = func(dir string) *domain.FileNode {
		if f, ok := folders[dir]; ok {
			return f
		}
		if !strings.HasPrefix(dir, SandboxHome+"/") {
			return root
		}
		parent := folderFor(path.Dir(dir))
		f := &domain.FileNode{Name: path.Base(dir), Path: dir, Type: domain.NodeFolder, Children: []*domain.FileNode{}}
		parent.Children = append(parent.Children, f)
		folders[dir] = f
		return f
	}

	for _, p := range paths {
		parent := folderFor(path.Dir(p))
		parent.Children = append(parent.Children, &domain.FileNode{Name: path.Base(p), Path: p, Type: domain.NodeFile})
	}
	return root
}
