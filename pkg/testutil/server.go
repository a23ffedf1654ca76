package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// Reply is one scripted answer from a JSONServer
type Reply struct {
	Status int
	Body   string
	// Drop closes the connection without writing a response
	Drop bool
}

// OK returns a 200 reply carrying body
func OK(body string) Reply {
	return Reply{Status: http.StatusOK, Body: body}
}

// Status returns a reply with the given status and an empty JSON body
func Status(code int) Reply {
	return Reply{Status: code, Body: "{}"}
}

// Drop returns a reply that simulates a transport failure
func Drop() Reply {
	return Reply{Drop: true}
}

// JSONServer answers requests from a script. Once the script is exhausted
// the last reply repeats.
type JSONServer struct {
	*httptest.Server

	mu      sync.Mutex
	replies []Reply
	hits    atomic.Int64
}

// NewJSONServer starts a server that plays replies in order. The server is
// closed when the test completes.
func NewJSONServer(t *testing.T, replies ...Reply) *JSONServer {
	t.Helper()
	if len(replies) == 0 {
		t.Fatal("JSONServer needs at least one reply")
	}

	s := &JSONServer{replies: replies}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Hits returns how many requests reached the server
func (s *JSONServer) Hits() int {
	return int(s.hits.Load())
}

func (s *JSONServer) next() Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return reply
}

func (s *JSONServer) handle(w http.ResponseWriter, _ *http.Request) {
	s.hits.Add(1)
	reply := s.next()

	if reply.Drop {
		hj, ok := w.(http.Hijacker)
		if !ok {
			http.Error(w, "hijack unsupported", http.StatusInternalServerError)
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.Status)
	_, _ = w.Write([]byte(reply.Body))
}
