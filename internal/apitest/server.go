// Package apitest provides an in-process fake of the indexing and chat backend
// for tests.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Upload records one received multipart upload.
type Upload struct {
	Name    string
	Content []byte
}

// Failure makes every endpoint reply with Status and, when Message is set,
// an {"error": Message} body.
type Failure struct {
	Status  int
	Message string
}

// Server is a fake backend. Zero-value knobs mean "succeed".
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	uploads   []Upload
	inputs    []string
	queries   []string
	reply     *string
	failure   *Failure
	chatGate  chan struct{}
	chatEnter chan struct{}
}

// New starts a fake backend that is closed when the test ends.
func New(t *testing.T) *Server {
	t.Helper()
	s := &Server{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/index/upload", s.handleUpload)
	mux.HandleFunc("/api/index/url-or-text", s.handleURLOrText)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Reply sets the chat response. Not calling it omits the field entirely.
func (s *Server) Reply(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reply = &text
}

// Fail makes every subsequent request fail.
func (s *Server) Fail(f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = &f
}

// HoldChat blocks chat requests until the returned release func is called.
// entered receives one value per request that reached the handler.
func (s *Server) HoldChat() (entered <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatGate = make(chan struct{})
	s.chatEnter = make(chan struct{}, 16)
	gate := s.chatGate
	var once sync.Once
	return s.chatEnter, func() { once.Do(func() { close(gate) }) }
}

func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

func (s *Server) Inputs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.inputs...)
}

func (s *Server) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// ========== Handlers ==========

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.queries = append(s.queries, req.Query)
	gate, enter := s.chatGate, s.chatEnter
	failure, reply := s.failure, s.reply
	s.mu.Unlock()

	if enter != nil {
		enter <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	if failure != nil {
		writeFailure(w, *failure)
		return
	}
	if reply == nil {
		jsonResp(w, map[string]string{})
		return
	}
	jsonResp(w, map[string]string{"response": *reply})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonErr(w, "Failed to parse upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		jsonErr(w, "No file uploaded", http.StatusBadRequest)
		return
	}

	src, err := files[0].Open()
	if err != nil {
		jsonErr(w, err.Error(), http.StatusInternalServerError)
		return
	}
	content, _ := io.ReadAll(src)
	src.Close()

	s.mu.Lock()
	s.uploads = append(s.uploads, Upload{Name: files[0].Filename, Content: content})
	failure := s.failure
	s.mu.Unlock()

	if failure != nil {
		writeFailure(w, *failure)
		return
	}
	jsonResp(w, map[string]string{"status": "ok"})
}

func (s *Server) handleURLOrText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Input string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.inputs = append(s.inputs, req.Input)
	failure := s.failure
	s.mu.Unlock()

	if failure != nil {
		writeFailure(w, *failure)
		return
	}
	jsonResp(w, map[string]string{"status": "ok"})
}

// ========== Helpers ==========

func writeFailure(w http.ResponseWriter, f Failure) {
	if f.Message == "" {
		w.WriteHeader(f.Status)
		return
	}
	jsonErr(w, f.Message, f.Status)
}

func jsonResp(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
