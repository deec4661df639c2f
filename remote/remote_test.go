package remote_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/justapithecus/decomp/failure"
	"github.com/justapithecus/decomp/remote"
	"github.com/justapithecus/decomp/remote/remotetest"
	"github.com/justapithecus/decomp/transport"
)

func newClient(t *testing.T) (*remote.Client, *remotetest.Server) {
	t.Helper()
	srv := remotetest.NewServer(t)
	tc, err := transport.New(transport.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("transport: %v", err)
	}
	return remote.New(tc), srv
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestUploadDownloadDelete(t *testing.T) {
	c, srv := newClient(t)
	path := writeFile(t, "service.tosca", "node_templates: {}")

	if _, err := c.Upload(t.Context(), path, "service_abc.tosca"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	got, ok := srv.File("service_abc.tosca")
	if !ok || string(got) != "node_templates: {}" {
		t.Fatalf("staged content = %q, %v", got, ok)
	}

	resp, err := c.Download(t.Context(), "service_abc.tosca")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(resp.Body) != "node_templates: {}" {
		t.Errorf("downloaded %q", resp.Body)
	}

	if _, err := c.Delete(t.Context(), "service_abc.tosca"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(srv.Files()) != 0 {
		t.Errorf("expected no staged files, got %v", srv.Files())
	}

	calls := srv.Calls()
	wantMethods := []string{http.MethodPost, http.MethodGet, http.MethodDelete}
	if len(calls) != len(wantMethods) {
		t.Fatalf("expected %d calls, got %d", len(wantMethods), len(calls))
	}
	for i, m := range wantMethods {
		if calls[i].Method != m {
			t.Errorf("call %d method = %s, want %s", i, calls[i].Method, m)
		}
	}
}

func TestUpload_MissingLocalFile(t *testing.T) {
	c, srv := newClient(t)

	_, err := c.Upload(t.Context(), filepath.Join(t.TempDir(), "absent.tosca"), "absent_x.tosca")
	if !errors.Is(err, failure.ErrLocalIO) {
		t.Fatalf("expected ErrLocalIO, got %v", err)
	}
	if n := srv.Count(remotetest.StepUpload); n != 0 {
		t.Errorf("expected no upload call, got %d", n)
	}
}

func TestUpload_ServerRejects(t *testing.T) {
	c, srv := newClient(t)
	srv.Fail(remotetest.StepUpload, http.StatusInsufficientStorage, `{"message":"disk full"}`)
	path := writeFile(t, "m.tosca", "x")

	_, err := c.Upload(t.Context(), path, "m_1.tosca")
	if !errors.Is(err, failure.ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
	var fe *failure.Error
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusInsufficientStorage {
		t.Errorf("unexpected error detail: %v", err)
	}
}

func TestDownload_DroppedConnection(t *testing.T) {
	c, srv := newClient(t)
	srv.Drop(remotetest.StepDownload)

	_, err := c.Download(t.Context(), "m_1.tosca")
	if !errors.Is(err, failure.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestOperations(t *testing.T) {
	c, srv := newClient(t)
	model := writeFile(t, "m.tosca", "model")
	data := writeFile(t, "m.csv", "t,latency\n0,12\n")

	if _, err := c.Upload(t.Context(), model, "m_1.tosca"); err != nil {
		t.Fatalf("upload model: %v", err)
	}
	if _, err := c.Upload(t.Context(), data, "m_1.csv"); err != nil {
		t.Fatalf("upload data: %v", err)
	}

	out, err := c.Decompose(t.Context(), "m_1.tosca")
	if err != nil {
		t.Fatalf("decompose: %v", err)
	}
	if out["status"] != "decomposed" {
		t.Errorf("decompose output = %v", out)
	}

	out, err = c.Optimize(t.Context(), "m_1.tosca")
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	cost, err := out.TotalCost()
	if err != nil || cost != 10 {
		t.Errorf("TotalCost() = %v, %v", cost, err)
	}

	if _, err := c.Enhance(t.Context(), "m_1.tosca", "m_1.csv"); err != nil {
		t.Fatalf("enhance: %v", err)
	}

	calls := srv.Calls()
	last := calls[len(calls)-1]
	if last.Step != remotetest.StepEnhance || last.Name != "m_1.tosca" || last.Data != "m_1.csv" {
		t.Errorf("unexpected enhance call %+v", last)
	}
	if last.Method != http.MethodPatch {
		t.Errorf("enhance method = %s, want PATCH", last.Method)
	}
}

func TestOperation_PropagatesServerError(t *testing.T) {
	c, srv := newClient(t)
	srv.Fail(remotetest.StepDecompose, http.StatusInternalServerError, `{"message":"solver crashed"}`)

	_, err := c.Decompose(t.Context(), "m_1.tosca")
	if !errors.Is(err, failure.ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
}

// stubSender answers every request with a fixed body.
type stubSender struct {
	body []byte
	last *transport.Request
}

func (s *stubSender) Send(_ context.Context, req *transport.Request) (*transport.Response, error) {
	s.last = req
	return &transport.Response{StatusCode: http.StatusOK, Body: s.body}, nil
}

func TestOperation_MalformedBody(t *testing.T) {
	c := remote.New(&stubSender{body: []byte("not json")})

	_, err := c.Optimize(t.Context(), "m_1.tosca")
	if !errors.Is(err, failure.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestOperation_NonObjectAndEmptyBodies(t *testing.T) {
	c := remote.New(&stubSender{body: []byte(`[1,2]`)})
	out, err := c.Decompose(t.Context(), "m")
	if err != nil {
		t.Fatalf("decompose: %v", err)
	}
	if _, ok := out["result"]; !ok {
		t.Errorf("expected non-object body under result, got %v", out)
	}

	c = remote.New(&stubSender{})
	out, err = c.Decompose(t.Context(), "m")
	if err != nil || len(out) != 0 {
		t.Errorf("empty body: out=%v err=%v", out, err)
	}
}

func TestEnhance_QueryOrder(t *testing.T) {
	s := &stubSender{body: []byte(`{}`)}
	c := remote.New(s)

	if _, err := c.Enhance(t.Context(), "a b.tosca", "d.csv"); err != nil {
		t.Fatalf("enhance: %v", err)
	}
	want := "/dec-tool/enhance?model_filename=a+b.tosca&data_filename=d.csv"
	if s.last.Path != want {
		t.Errorf("path = %q, want %q", s.last.Path, want)
	}
}

func TestOutput_TotalCost(t *testing.T) {
	tests := []struct {
		name    string
		out     remote.Output
		want    float64
		wantErr bool
	}{
		{"number", remote.Output{"total_cost": 2.5}, 2.5, false},
		{"missing", remote.Output{}, 0, true},
		{"string", remote.Output{"total_cost": "2.5"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.out.TotalCost()
			if (err != nil) != tt.wantErr {
				t.Fatalf("TotalCost() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("TotalCost() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilePath(t *testing.T) {
	if got := remote.FilePath("m_1.tosca"); got != "/file/m_1.tosca" {
		t.Errorf("FilePath = %q", got)
	}
}
