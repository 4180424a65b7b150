package helpers

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const (
	// TestToken is the token the fake backend issues and accepts.
	TestToken    = "test-token"
	TestUsername = "admin"
	TestPassword = "secret"
)

// Request is a request seen by the fake backend.
type Request struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

type failure struct {
	status int
	body   string
}

type collection struct {
	nextID int64
	items  []map[string]any
}

// Backend is an in-memory stand-in for the REST API. Collections are
// created on first use and keyed by their path segment, e.g. "buses".
type Backend struct {
	Server *httptest.Server

	mu          sync.Mutex
	collections map[string]*collection
	failures    map[string]failure
	requests    []Request
}

func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		collections: make(map[string]*collection),
		failures:    make(map[string]failure),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the API base URL to configure clients with.
func (b *Backend) URL() string {
	return b.Server.URL + "/api"
}

// Seed appends records to name, assigning ids to those without one.
func (b *Backend) Seed(name string, items ...map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.collection(name)
	for _, item := range items {
		c.insert(item)
	}
}

// Items returns a copy of the records stored in name.
func (b *Backend) Items(name string) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.collection(name)
	out := make([]map[string]any, len(c.items))
	copy(out, c.items)
	return out
}

// FailNext makes the next request with method on name answer status.
func (b *Backend) FailNext(method, name string, status int, body string) {
	b.mu.Lock()
	b.failures[method+" "+name] = failure{status: status, body: body}
	b.mu.Unlock()
}

func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

func (b *Backend) collection(name string) *collection {
	c, ok := b.collections[name]
	if !ok {
		c = &collection{nextID: 1}
		b.collections[name] = c
	}
	return c
}

func (c *collection) insert(item map[string]any) map[string]any {
	record := make(map[string]any, len(item)+1)
	for k, v := range item {
		record[k] = v
	}
	if id, ok := numericID(record["id"]); ok && id > 0 {
		if id >= c.nextID {
			c.nextID = id + 1
		}
	} else {
		record["id"] = c.nextID
		c.nextID++
	}
	c.items = append(c.items, record)
	return record
}

func (c *collection) find(id int64) int {
	for i, item := range c.items {
		if got, ok := numericID(item["id"]); ok && got == id {
			return i
		}
	}
	return -1
}

func numericID(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api"), "/")
	parts := strings.Split(path, "/")
	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	if body == nil {
		body = map[string]any{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: maps.Clone(body)})

	if len(parts) == 2 && parts[0] == "auth" {
		b.serveAuth(w, r, parts[1], body)
		return
	}
	if r.Header.Get("Authorization") != "Token "+TestToken {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"detail": "Las credenciales de autenticación no se proveyeron.",
		})
		return
	}
	name := parts[0]
	if f, ok := b.failures[r.Method+" "+name]; ok {
		delete(b.failures, r.Method+" "+name)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
		return
	}
	c := b.collection(name)
	if len(parts) == 1 {
		b.serveCollection(w, r, c, body)
		return
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "No encontrado."})
		return
	}
	b.serveItem(w, r, c, id, body)
}

func (b *Backend) serveAuth(w http.ResponseWriter, r *http.Request, action string, body map[string]any) {
	switch {
	case action == "login" && r.Method == http.MethodPost:
		if body["username"] != TestUsername || body["password"] != TestPassword {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"non_field_errors": []string{"Credenciales inválidas"},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token": TestToken,
			"user":  map[string]any{"username": TestUsername},
		})
	case action == "logout" && r.Method == http.MethodPost:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "No encontrado."})
	}
}

func (b *Backend) serveCollection(w http.ResponseWriter, r *http.Request, c *collection, body map[string]any) {
	switch r.Method {
	case http.MethodGet:
		term := strings.ToLower(r.URL.Query().Get("search"))
		out := make([]map[string]any, 0, len(c.items))
		for _, item := range c.items {
			if term == "" || matches(item, term) {
				out = append(out, item)
			}
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		delete(body, "id")
		writeJSON(w, http.StatusCreated, c.insert(body))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (b *Backend) serveItem(w http.ResponseWriter, r *http.Request, c *collection, id int64, body map[string]any) {
	idx := c.find(id)
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "No encontrado."})
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, c.items[idx])
	case http.MethodPut:
		body["id"] = id
		c.items[idx] = body
		writeJSON(w, http.StatusOK, body)
	case http.MethodDelete:
		c.items = append(c.items[:idx], c.items[idx+1:]...)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func matches(item map[string]any, term string) bool {
	keys := make([]string, 0, len(item))
	for k := range item {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(strings.ToLower(fmt.Sprint(item[k])), term) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
