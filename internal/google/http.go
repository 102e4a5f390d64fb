package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type requestOptions struct {
	body   any
	header http.Header
}

type requestOption func(*requestOptions)

func withBody(body any) requestOption {
	return func(args *requestOptions) {
		args.body = body
	}
}

func withAPIKey(key string) requestOption {
	return func(args *requestOptions) {
		args.header.Set("x-goog-api-key", key)
	}
}

// buildRequest creates a JSON request, encoding body when it is not nil.
func buildRequest(ctx context.Context, method, url string, setters ...requestOption) (*http.Request, error) {
	args := &requestOptions{
		header: make(http.Header),
	}
	for _, setter := range setters {
		setter(args)
	}

	var body io.Reader
	if args.body != nil {
		bts, err := json.Marshal(args.body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(bts)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	req.Header = args.header
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")
	return req, nil
}

func isFailureStatusCode(resp *http.Response) bool {
	return resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest
}

func decodeResponse(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
