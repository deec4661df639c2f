// Package iox holds small close and cleanup helpers.
package iox

import "io"

// DiscardClose closes c and ignores the error. For read-only handles:
//
//	defer iox.DiscardClose(resp.Body)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc returns a func that closes c, for t.Cleanup registration:
//
//	t.Cleanup(iox.CloseFunc(client))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// CloseInto closes c and stores the close error in *errp unless *errp
// already holds an error. For written files, where a failed close means
// lost data:
//
//	defer iox.CloseInto(&err, f)
func CloseInto(errp *error, c io.Closer) {
	if cerr := c.Close(); cerr != nil && *errp == nil {
		*errp = cerr
	}
}

// DiscardErr calls fn and ignores the returned error.
func DiscardErr(fn func() error) { _ = fn() }
