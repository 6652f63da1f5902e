package ledgertest

import (
	"net/http/httptest"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up the node endpoints on r
func RegisterRoutes(r *mux.Router, h *Handler) {

	// JSON-RPC entry point, every method is posted to the root path
	r.HandleFunc("/", h.RPC).Methods("POST")

	// Liveness probe used by operators before sending
	r.HandleFunc("/health", h.Health).Methods("GET")
}

// Server is a running fake node. Close it when the test is done.
type Server struct {
	*Ledger
	http *httptest.Server
}

// NewServer starts a fake node on a loopback port
func NewServer() *Server {
	l := NewLedger()
	r := mux.NewRouter()
	RegisterRoutes(r, NewHandler(l))
	return &Server{Ledger: l, http: httptest.NewServer(r)}
}

// URL is the JSON-RPC endpoint of the node
func (s *Server) URL() string {
	return s.http.URL
}

// Close shuts the node down
func (s *Server) Close() {
	s.http.Close()
}
