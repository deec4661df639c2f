// Package remotetest provides an in-process fake dec server for tests.
//
// The fake implements the wire contract of package remote, keeps staged
// files in memory, records every call, and can be told to fail or drop
// the connection on a given step.
package remotetest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/justapithecus/decomp/iox"
	"github.com/justapithecus/decomp/remote"
)

// Step identifies one endpoint of the wire contract.
type Step string

const (
	StepUpload    Step = "upload"
	StepDownload  Step = "download"
	StepDelete    Step = "delete"
	StepDecompose Step = "decompose"
	StepOptimize  Step = "optimize"
	StepEnhance   Step = "enhance"
)

// Call is one request the fake received.
type Call struct {
	Step   Step
	Method string
	// Name is the remote file name for file steps, or model_filename for operations.
	Name string
	// Data is data_filename for enhance.
	Data string
}

// fault makes a step answer with Status/Body, or drop the connection.
type fault struct {
	status int
	body   string
	drop   bool
}

// Server is a fake dec server.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	files   map[string][]byte
	calls   []Call
	faults  map[Step]fault
	outputs map[Step]any
}

// NewServer starts a fake server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		files:  make(map[string][]byte),
		faults: make(map[Step]fault),
		outputs: map[Step]any{
			StepDecompose: map[string]any{"status": "decomposed"},
			StepOptimize:  map[string]any{"total_cost": 10.0, "unit": "USD/h"},
			StepEnhance:   map[string]any{"status": "enhanced"},
		},
	}

	r := chi.NewRouter()
	r.Post("/file/{name}", s.handleUpload)
	r.Get("/file/{name}", s.handleDownload)
	r.Delete("/file/{name}", s.handleDelete)
	r.Patch("/dec-tool/{op}", s.handleOperation)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Fail makes every call to step answer with status and body.
func (s *Server) Fail(step Step, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[step] = fault{status: status, body: body}
}

// Drop makes every call to step close the connection without a response.
func (s *Server) Drop(step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[step] = fault{drop: true}
}

// SetOutput sets the JSON document an operation step answers with.
func (s *Server) SetOutput(step Step, out any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs[step] = out
}

// Calls returns every call received so far, in order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Count returns how many calls step received.
func (s *Server) Count(step Step) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Step == step {
			n++
		}
	}
	return n
}

// Files returns the names currently staged, sorted.
func (s *Server) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// File returns the staged content of name.
func (s *Server) File(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[name]
	return b, ok
}

// Processed returns what the fake stores after running step on content.
func Processed(step Step, content []byte) []byte {
	out := append([]byte(nil), content...)
	return append(out, []byte("\n# processed by "+string(step)+"\n")...)
}

// record logs the call and applies any configured fault.
// Returns false if the handler must stop.
func (s *Server) record(w http.ResponseWriter, c Call) bool {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	f, faulty := s.faults[c.Step]
	s.mu.Unlock()

	if !faulty {
		return true
	}
	if f.drop {
		hj, ok := w.(http.Hijacker)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return false
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			iox.DiscardClose(conn)
		}
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = io.WriteString(w, f.body)
	return false
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !s.record(w, Call{Step: StepUpload, Method: r.Method, Name: name}) {
		return
	}

	file, _, err := r.FormFile(remote.FormField)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "missing file field"})
		return
	}
	defer iox.DiscardClose(file)

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
		return
	}

	s.mu.Lock()
	s.files[name] = content
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"filename": name})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !s.record(w, Call{Step: StepDownload, Method: r.Method, Name: name}) {
		return
	}

	content, ok := s.File(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "file not found"})
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(content)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !s.record(w, Call{Step: StepDelete, Method: r.Method, Name: name}) {
		return
	}

	s.mu.Lock()
	_, ok := s.files[name]
	delete(s.files, name)
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "file not found"})
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request) {
	step := Step(chi.URLParam(r, "op"))
	model := r.URL.Query().Get("model_filename")
	data := r.URL.Query().Get("data_filename")
	if !s.record(w, Call{Step: step, Method: r.Method, Name: model, Data: data}) {
		return
	}

	switch step {
	case StepDecompose, StepOptimize, StepEnhance:
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "unknown operation"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	content, ok := s.files[model]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "model file not found"})
		return
	}
	if step == StepEnhance {
		if _, ok := s.files[data]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "data file not found"})
			return
		}
	}

	s.files[model] = Processed(step, content)
	writeJSON(w, http.StatusOK, s.outputs[step])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
