package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Resource is a typed view of one REST collection. It satisfies
// crud.Operations[R, int64].
type Resource[R any] struct {
	client *Client
	path   string
}

func NewResource[R any](c *Client, path string) *Resource[R] {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return &Resource[R]{client: c, path: path}
}

func (r *Resource[R]) Path() string {
	return r.path
}

func (r *Resource[R]) itemPath(id int64) string {
	return r.path + strconv.FormatInt(id, 10) + "/"
}

// FetchAll returns every record, accepting both a plain JSON array and a
// paginated object with a results array.
func (r *Resource[R]) FetchAll(ctx context.Context) ([]R, error) {
	return r.list(ctx, nil)
}

// Search asks the backend to filter with its own ?search= parameter.
func (r *Resource[R]) Search(ctx context.Context, term string) ([]R, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.list(ctx, nil)
	}
	return r.list(ctx, map[string]string{"search": term})
}

func (r *Resource[R]) list(ctx context.Context, query map[string]string) ([]R, error) {
	body, err := r.client.doRequest(ctx, http.MethodGet, r.path, nil, query)
	if err != nil {
		return nil, err
	}
	return decodeList[R](body)
}

func decodeList[R any](body []byte) ([]R, error) {
	raw := body
	doc := gjson.ParseBytes(body)
	if doc.IsObject() {
		results := doc.Get("results")
		if !results.IsArray() {
			return nil, fmt.Errorf("unexpected list response: missing results array")
		}
		raw = []byte(results.Raw)
	}
	items := []R{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode list response: %w", err)
	}
	return items, nil
}

func (r *Resource[R]) Get(ctx context.Context, id int64) (R, error) {
	body, err := r.client.doRequest(ctx, http.MethodGet, r.itemPath(id), nil, nil)
	if err != nil {
		var zero R
		return zero, err
	}
	return decodeOne[R](body)
}

func (r *Resource[R]) Create(ctx context.Context, data R) (R, error) {
	body, err := r.client.doRequest(ctx, http.MethodPost, r.path, data, nil)
	if err != nil {
		var zero R
		return zero, err
	}
	return decodeOne[R](body)
}

func (r *Resource[R]) Update(ctx context.Context, id int64, data R) (R, error) {
	body, err := r.client.doRequest(ctx, http.MethodPut, r.itemPath(id), data, nil)
	if err != nil {
		var zero R
		return zero, err
	}
	return decodeOne[R](body)
}

func (r *Resource[R]) Remove(ctx context.Context, id int64) error {
	_, err := r.client.doRequest(ctx, http.MethodDelete, r.itemPath(id), nil, nil)
	return err
}

// decodeOne tolerates an empty body, which some endpoints send on success.
func decodeOne[R any](body []byte) (R, error) {
	var out R
	if len(strings.TrimSpace(string(body))) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}
