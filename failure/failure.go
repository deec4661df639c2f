// Package failure classifies the ways a workflow run can fail.
//
// Callers use errors.Is(err, ErrXxx) for classification and errors.As with
// *Error to reach the status code or the server payload.
package failure

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel kinds.
var (
	// ErrNetwork indicates no response was obtainable (refused, reset, DNS).
	ErrNetwork = errors.New("network error")

	// ErrServer indicates the server answered with a non-2xx status.
	ErrServer = errors.New("server error")

	// ErrLocalIO indicates a local file could not be opened, read, written or copied.
	ErrLocalIO = errors.New("local i/o error")

	// ErrPrecondition indicates a run was refused before any network call.
	ErrPrecondition = errors.New("precondition failed")

	// ErrMalformedResponse indicates a 2xx response whose body could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
)

// Error wraps an underlying error with its classification.
type Error struct {
	// Kind is one of the sentinel kinds above.
	Kind error
	// Op is the operation that failed (e.g. "POST /file/model_x.tosca", "backup").
	Op string
	// Path is the local path involved, if any.
	Path string
	// StatusCode is set for ErrServer.
	StatusCode int
	// Payload is the decoded server error body for ErrServer.
	// A body that is not JSON is kept as a string.
	Payload any
	// Err is the underlying error. May be nil for ErrServer.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %v: status %d: %s", e.Op, e.Kind, e.StatusCode, e.payloadString())
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

func (e *Error) payloadString() string {
	if s, ok := e.Payload.(string); ok {
		return s
	}
	b, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Sprintf("%v", e.Payload)
	}
	return string(b)
}

// Network classifies a transport-level failure.
func Network(op string, err error) *Error {
	return &Error{Kind: ErrNetwork, Op: op, Err: err}
}

// Server classifies a non-2xx response. The body is decoded as JSON when
// possible so the caller can show the server's own error payload.
func Server(op string, statusCode int, body []byte) *Error {
	return &Error{
		Kind:       ErrServer,
		Op:         op,
		StatusCode: statusCode,
		Payload:    DecodePayload(body),
	}
}

// LocalIO classifies a local filesystem failure.
func LocalIO(op, path string, err error) *Error {
	return &Error{Kind: ErrLocalIO, Op: op, Path: path, Err: err}
}

// Precondition classifies a refusal that happens before any network call.
// The cause is usually an exported sentinel of the calling package.
func Precondition(op, path string, cause error) *Error {
	return &Error{Kind: ErrPrecondition, Op: op, Path: path, Err: cause}
}

// Malformed classifies a success response with an undecodable body.
func Malformed(op string, err error) *Error {
	return &Error{Kind: ErrMalformedResponse, Op: op, Err: err}
}

// DecodePayload decodes body as JSON, falling back to the raw text.
// An empty body decodes to nil.
func DecodePayload(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}

// Kind returns the sentinel kind of err, or nil if err is unclassified.
func Kind(err error) error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return nil
}

// KindName returns a short machine-readable name for the kind of err.
func KindName(err error) string {
	switch Kind(err) {
	case ErrNetwork:
		return "network_error"
	case ErrServer:
		return "server_error"
	case ErrLocalIO:
		return "local_io_error"
	case ErrPrecondition:
		return "precondition_error"
	case ErrMalformedResponse:
		return "malformed_response_error"
	default:
		if err == nil {
			return ""
		}
		return "error"
	}
}

// Report is the serialized form of an error shown to the user.
type Report struct {
	Kind       string `json:"kind" yaml:"kind"`
	Message    string `json:"message" yaml:"message"`
	StatusCode int    `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Payload    any    `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// NewReport builds the serialized form of err. Returns nil for a nil error.
func NewReport(err error) *Report {
	if err == nil {
		return nil
	}
	r := &Report{Kind: KindName(err), Message: err.Error()}
	var fe *Error
	if errors.As(err, &fe) {
		r.StatusCode = fe.StatusCode
		r.Payload = fe.Payload
	}
	return r
}
