package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/justapithecus/decomp/failure"
	"github.com/justapithecus/decomp/transport"
)

// Output is the structured result of a dec-tool operation.
// Its fields are server-defined and echoed to the user verbatim.
type Output map[string]any

// TotalCost returns the numeric total_cost field an optimize run reports.
func (o Output) TotalCost() (float64, error) {
	raw, ok := o["total_cost"]
	if !ok {
		return 0, fmt.Errorf("total_cost missing from output")
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case json.Number:
		return v.Float64()
	default:
		return 0, fmt.Errorf("total_cost is %T, want number", raw)
	}
}

// Decompose runs the decomposition of a staged model.
func (c *Client) Decompose(ctx context.Context, model string) (Output, error) {
	return c.invoke(ctx, "decompose", model, "model_filename="+url.QueryEscape(model))
}

// Optimize runs the deployment optimization of a staged model.
// The output carries a numeric total_cost (per hour).
func (c *Client) Optimize(ctx context.Context, model string) (Output, error) {
	return c.invoke(ctx, "optimize", model, "model_filename="+url.QueryEscape(model))
}

// Enhance runs the enhancement of a staged model using a staged data file.
func (c *Client) Enhance(ctx context.Context, model, data string) (Output, error) {
	query := "model_filename=" + url.QueryEscape(model) + "&data_filename=" + url.QueryEscape(data)
	return c.invoke(ctx, "enhance", model, query)
}

func (c *Client) invoke(ctx context.Context, operation, model, query string) (Output, error) {
	req := &transport.Request{
		Method: http.MethodPatch,
		Path:   "/dec-tool/" + operation + "?" + query,
	}
	resp, err := c.sender.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", operation, model, err)
	}
	return decodeOutput(req.Op(), resp.Body)
}

// decodeOutput decodes a success body. An empty body is an empty output;
// a JSON value that is not an object is kept under "result".
func decodeOutput(op string, body []byte) (Output, error) {
	if len(body) == 0 {
		return Output{}, nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, failure.Malformed(op, err)
	}
	if m, ok := v.(map[string]any); ok {
		return Output(m), nil
	}
	return Output{"result": v}, nil
}
