package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/trezcool/campusdesk/core"
)

// Logger records log messages.
type Logger struct {
	mu       sync.Mutex
	Messages []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	l.Messages = append(l.Messages, level+": "+msg)
	l.mu.Unlock()
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("debug", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("info", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("warn", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("error", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("fatal", msg) }

// Errors returns the error level messages.
func (l *Logger) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	res := make([]string, 0)
	for _, m := range l.Messages {
		if strings.HasPrefix(m, "error: ") {
			res = append(res, strings.TrimPrefix(m, "error: "))
		}
	}
	return res
}

// Request is a call received by the Upstream.
type Request struct {
	Method string
	Path   string
	Query  string
	Token  string
	Body   []byte
}

// Upstream fakes the institute backend: collections of JSON objects keyed by "id",
// answered with the {success, data, message} envelope.
// Handlers registered with Handle take precedence over the collections.
type Upstream struct {
	*httptest.Server

	mu       sync.Mutex
	data     map[string][]map[string]interface{}
	handlers map[string]http.HandlerFunc
	requests []Request
	nextID   int
}

func NewUpstream(t *testing.T) *Upstream {
	up := &Upstream{
		data:     make(map[string][]map[string]interface{}),
		handlers: make(map[string]http.HandlerFunc),
	}
	up.Server = httptest.NewServer(http.HandlerFunc(up.serve))
	t.Cleanup(up.Close)
	return up
}

// Seed sets the objects of a collection, e.g. Seed("students", obj1, obj2).
func (up *Upstream) Seed(resource string, objs ...interface{}) {
	up.mu.Lock()
	defer up.mu.Unlock()
	items := make([]map[string]interface{}, 0, len(objs))
	for _, obj := range objs {
		items = append(items, toMap(obj))
	}
	up.data[strings.Trim(resource, "/")] = items
}

// Items returns the objects of a collection.
func (up *Upstream) Items(resource string) []map[string]interface{} {
	up.mu.Lock()
	defer up.mu.Unlock()
	return append([]map[string]interface{}(nil), up.data[strings.Trim(resource, "/")]...)
}

// Handle overrides "METHOD /path".
func (up *Upstream) Handle(method, path string, h http.HandlerFunc) {
	up.mu.Lock()
	defer up.mu.Unlock()
	up.handlers[method+" /"+strings.Trim(path, "/")] = h
}

// Requests returns the received calls in order.
func (up *Upstream) Requests() []Request {
	up.mu.Lock()
	defer up.mu.Unlock()
	return append([]Request(nil), up.requests...)
}

// RequestsTo returns the received calls to "METHOD /path".
func (up *Upstream) RequestsTo(method, path string) []Request {
	res := make([]Request, 0)
	for _, r := range up.Requests() {
		if r.Method == method && r.Path == "/"+strings.Trim(path, "/") {
			res = append(res, r)
		}
	}
	return res
}

func (up *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := "/" + strings.Trim(r.URL.Path, "/")

	up.mu.Lock()
	up.requests = append(up.requests, Request{
		Method: r.Method,
		Path:   path,
		Query:  r.URL.RawQuery,
		Token:  strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
		Body:   body,
	})
	h, ok := up.handlers[r.Method+" "+path]
	up.mu.Unlock()

	if ok {
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		h(w, r)
		return
	}

	up.mu.Lock()
	defer up.mu.Unlock()
	resource, id := up.resolve(path)
	items, known := up.data[resource]

	switch {
	case r.Method == http.MethodGet && id == "":
		if !known {
			Fail(w, http.StatusNotFound, "resource not found")
			return
		}
		OK(w, filter(items, r))
	case r.Method == http.MethodPost && id == "":
		obj := make(map[string]interface{})
		if err := json.Unmarshal(body, &obj); err != nil {
			Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		if _, ok := obj["id"]; !ok {
			up.nextID++
			obj["id"] = fmt.Sprintf("gen-%d", up.nextID)
		}
		up.data[resource] = append(up.data[resource], obj)
		OK(w, obj)
	case r.Method == http.MethodPut && id != "":
		patch := make(map[string]interface{})
		if err := json.Unmarshal(body, &patch); err != nil {
			Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		for _, obj := range items {
			if obj["id"] == id {
				for k, v := range patch {
					obj[k] = v
				}
				obj["id"] = id
				OK(w, obj)
				return
			}
		}
		Fail(w, http.StatusNotFound, "not found")
	case r.Method == http.MethodDelete && id != "":
		for i, obj := range items {
			if obj["id"] == id {
				up.data[resource] = append(items[:i:i], items[i+1:]...)
				OK(w, nil)
				return
			}
		}
		Fail(w, http.StatusNotFound, "not found")
	default:
		Fail(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// resolve splits path into a known collection and an optional object id.
func (up *Upstream) resolve(path string) (string, string) {
	trimmed := strings.Trim(path, "/")
	if _, ok := up.data[trimmed]; ok {
		return trimmed, ""
	}
	if i := strings.LastIndex(trimmed, "/"); i > 0 {
		if _, ok := up.data[trimmed[:i]]; ok {
			return trimmed[:i], trimmed[i+1:]
		}
	}
	return trimmed, ""
}

// filter keeps the objects whose fields equal every query parameter they carry.
func filter(items []map[string]interface{}, r *http.Request) []map[string]interface{} {
	q := r.URL.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := make([]map[string]interface{}, 0, len(items))
	for _, obj := range items {
		keep := true
		for _, k := range keys {
			if v, ok := obj[k]; ok && fmt.Sprint(v) != q.Get(k) {
				keep = false
				break
			}
		}
		if keep {
			res = append(res, obj)
		}
	}
	return res
}

func toMap(obj interface{}) map[string]interface{} {
	b, _ := json.Marshal(obj)
	m := make(map[string]interface{})
	_ = json.Unmarshal(b, &m)
	return m
}

// OK writes a successful envelope.
func OK(w http.ResponseWriter, data interface{}) {
	writeEnvelope(w, http.StatusOK, map[string]interface{}{"success": true, "data": data})
}

// Reject writes a 200 envelope with success=false.
func Reject(w http.ResponseWriter, msg string) {
	writeEnvelope(w, http.StatusOK, map[string]interface{}{"success": false, "message": msg})
}

// Fail writes an error envelope with status.
func Fail(w http.ResponseWriter, status int, msg string) {
	writeEnvelope(w, status, map[string]interface{}{"success": false, "message": msg})
}

func writeEnvelope(w http.ResponseWriter, status int, env map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
