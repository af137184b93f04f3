package httpapi

import (
	_ "embed"
	"net/http"
)

//go:embed console.html
var consoleHTML []byte

// handleConsole serves the embedded chat page at the root path.
func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(consoleHTML)
}
