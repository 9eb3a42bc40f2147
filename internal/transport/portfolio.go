package transport

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
)

// PortfolioInfo is the server metadata published at /portfolio.json.
type PortfolioInfo struct {
	Name      string           `json:"name"`
	Version   string           `json:"version"`
	Guides    []PortfolioGuide `json:"guides"`
	Tools     []string         `json:"tools"`
	Prompts   []string         `json:"prompts"`
	Endpoints []string         `json:"endpoints"`
}

// PortfolioGuide is one guide entry in the portfolio document.
type PortfolioGuide struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// portfolioDoc is the portfolio serialized once at startup with its ETag; the
// registry is static, so the document never changes for a process lifetime.
type portfolioDoc struct {
	body []byte
	etag string
}

func newPortfolioDoc(info *PortfolioInfo) *portfolioDoc {
	if info.Endpoints == nil {
		info.Endpoints = []string{"/mcp", "/mcp/messages", "/health", "/portfolio.json"}
	}
	body, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		// PortfolioInfo contains only marshal-safe fields.
		body = []byte("{}")
	}
	return &portfolioDoc{
		body: body,
		etag: fmt.Sprintf(`"%x"`, sha256.Sum256(body)),
	}
}

// serve answers GET with the document, honoring If-None-Match with a 304.
func (p *portfolioDoc) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("ETag", p.etag)
	w.Header().Set("Cache-Control", "public, max-age=300")
	if r.Header.Get("If-None-Match") == p.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(p.body)
}
