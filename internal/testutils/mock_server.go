package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
)

// MockRatesServer serves rate tables the way the rates API does: GET /api/{date|latest}
type MockRatesServer struct {
	server *httptest.Server

	mu        sync.RWMutex
	responses map[string]interface{}
	status    int
	gate      chan struct{}

	requests atomic.Int64
}

// NewMockRatesServer creates a server with the latest and 2020-01-02 tables
func NewMockRatesServer() *MockRatesServer {
	mock := &MockRatesServer{
		responses: map[string]interface{}{
			"latest":     MockLatestRates(),
			"2020-01-02": MockHistoricalRates(),
		},
		status: http.StatusOK,
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handler))
	return mock
}

// URL returns the API base URL, without the date segment
func (m *MockRatesServer) URL() string {
	return m.server.URL + "/api"
}

func (m *MockRatesServer) Close() {
	m.Release()
	m.server.Close()
}

// SetResponse sets the body served for a date literal
func (m *MockRatesServer) SetResponse(date string, body interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[date] = body
}

// SetStatus forces every response to the given status code
func (m *MockRatesServer) SetStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

// Hold makes requests block until Release is called
func (m *MockRatesServer) Hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate == nil {
		m.gate = make(chan struct{})
	}
}

// Release unblocks held requests
func (m *MockRatesServer) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
}

// Requests returns how many requests reached the server
func (m *MockRatesServer) Requests() int {
	return int(m.requests.Load())
}

func (m *MockRatesServer) handler(w http.ResponseWriter, r *http.Request) {
	m.requests.Add(1)

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	m.mu.RLock()
	gate := m.gate
	status := m.status
	response, found := m.responses[strings.TrimPrefix(r.URL.Path, "/api/")]
	m.mu.RUnlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	if status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"unavailable"}`))
		return
	}
	if !found {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"time data does not match format"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if raw, ok := response.(string); ok {
		_, _ = w.Write([]byte(raw))
		return
	}
	_ = json.NewEncoder(w).Encode(response)
}
