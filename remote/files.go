package remote

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/justapithecus/decomp/failure"
	"github.com/justapithecus/decomp/iox"
	"github.com/justapithecus/decomp/transport"
)

// FormField is the multipart field carrying uploaded file content.
const FormField = "file"

// Upload stages localPath on the server under remoteName, streaming the
// file as a multipart body. A local open/read failure is failure.ErrLocalIO.
func (c *Client) Upload(ctx context.Context, localPath, remoteName string) (*transport.Response, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, failure.LocalIO("open", localPath, err)
	}
	defer iox.DiscardClose(f)

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	src := &readRecorder{r: f}

	done := make(chan struct{})
	go func() {
		defer close(done)
		part, err := mw.CreateFormFile(FormField, filepath.Base(localPath))
		if err == nil {
			_, err = io.Copy(part, src)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	resp, err := c.sender.Send(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   FilePath(remoteName),
		Header: http.Header{"Content-Type": []string{mw.FormDataContentType()}},
		Body:   pr,
	})

	// Unblock the writer if the server answered without draining the body.
	pr.CloseWithError(io.ErrClosedPipe)
	<-done

	if src.err != nil {
		return nil, failure.LocalIO("read", localPath, src.err)
	}
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", remoteName, err)
	}
	return resp, nil
}

// Download retrieves remoteName. On success the body is the full artifact.
func (c *Client) Download(ctx context.Context, remoteName string) (*transport.Response, error) {
	resp, err := c.sender.Send(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   FilePath(remoteName),
	})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", remoteName, err)
	}
	return resp, nil
}

// Delete removes remoteName from the server. Callers treat it as
// best-effort cleanup.
func (c *Client) Delete(ctx context.Context, remoteName string) (*transport.Response, error) {
	resp, err := c.sender.Send(ctx, &transport.Request{
		Method: http.MethodDelete,
		Path:   FilePath(remoteName),
	})
	if err != nil {
		return nil, fmt.Errorf("delete %s: %w", remoteName, err)
	}
	return resp, nil
}

// readRecorder remembers the first non-EOF read error of r, so a failing
// local file is reported as failure.ErrLocalIO instead of a broken pipe.
type readRecorder struct {
	r   io.Reader
	err error
}

func (r *readRecorder) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil && err != io.EOF && r.err == nil {
		r.err = err
	}
	return n, err
}
