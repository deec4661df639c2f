// Package remote speaks the dec server wire contract.
//
// File staging:
//
//	POST   /file/{name}   upload, multipart body (field "file")
//	GET    /file/{name}   download, raw body
//	DELETE /file/{name}   remove
//
// Operations (PATCH, empty body, JSON response):
//
//	/dec-tool/decompose?model_filename={m}
//	/dec-tool/optimize?model_filename={m}
//	/dec-tool/enhance?model_filename={m}&data_filename={d}
package remote

import (
	"context"
	"net/url"

	"github.com/justapithecus/decomp/transport"
)

// Sender performs a single exchange. *transport.Client implements it.
type Sender interface {
	Send(ctx context.Context, req *transport.Request) (*transport.Response, error)
}

// Client composes the transport with the dec server path conventions.
type Client struct {
	sender Sender
}

// New creates a client over the given sender.
func New(sender Sender) *Client {
	return &Client{sender: sender}
}

// FilePath returns the staging path for a remote name.
func FilePath(remoteName string) string {
	return "/file/" + url.PathEscape(remoteName)
}
