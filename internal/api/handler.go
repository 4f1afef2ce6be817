// Package api serves outlines and graphs over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"repoviewer/internal/outline"
	"repoviewer/internal/scanner"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 32 << 20

// Service is what the handlers need from the application.
type Service interface {
	Outline(ctx context.Context, path string) ([]outline.Module, error)
	Graph(ctx context.Context, path string) (string, error)
	Render(modules []outline.Module) string
}

// RepositoryPath is the body of /visualize and /graph.
type RepositoryPath struct {
	Path string `json:"path"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

// Handler routes the HTTP API.
type Handler struct {
	svc     Service
	mux     *http.ServeMux
	maxBody int64
}

// NewHandler registers the routes for svc.
func NewHandler(svc Service) *Handler {
	h := &Handler{svc: svc, mux: http.NewServeMux(), maxBody: DefaultMaxBodyBytes}
	h.mux.HandleFunc("POST /visualize", h.handleVisualize)
	h.mux.HandleFunc("POST /graph", h.handleGraph)
	h.mux.HandleFunc("POST /render", h.handleRender)
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleVisualize(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePath(w, r)
	if !ok {
		return
	}
	modules, err := h.svc.Outline(r.Context(), req.Path)
	if err != nil {
		writeScanError(w, req.Path, err)
		return
	}
	log.Printf("[api] outlined %s: %d modules", req.Path, len(modules))

	w.Header().Set("Content-Type", "application/json")
	if err := outline.Encode(w, modules); err != nil {
		log.Printf("[api] Warning: failed to write response: %v", err)
	}
}

func (h *Handler) handleGraph(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePath(w, r)
	if !ok {
		return
	}
	doc, err := h.svc.Graph(r.Context(), req.Path)
	if err != nil {
		writeScanError(w, req.Path, err)
		return
	}
	writeDOT(w, doc)
}

func (h *Handler) handleRender(w http.ResponseWriter, r *http.Request) {
	modules, err := outline.Decode(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		writeBodyError(w, err.Error(), err)
		return
	}
	writeDOT(w, h.svc.Render(modules))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"status":"ok"}`)
}

func (h *Handler) decodePath(w http.ResponseWriter, r *http.Request) (RepositoryPath, bool) {
	var req RepositoryPath
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody)).Decode(&req); err != nil {
		writeBodyError(w, "invalid request body: "+err.Error(), err)
		return req, false
	}
	return req, true
}

// writeBodyError answers 413 when the body hit the size limit and 400
// otherwise.
func writeBodyError(w http.ResponseWriter, detail string, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return
	}
	writeError(w, http.StatusBadRequest, detail)
}

func writeScanError(w http.ResponseWriter, path string, err error) {
	switch {
	case errors.Is(err, scanner.ErrInvalidPath):
		writeError(w, http.StatusBadRequest, "Invalid repository path")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		log.Printf("[api] Error: scanning %s failed: %v", path, err)
		writeError(w, http.StatusInternalServerError, "failed to analyze repository")
	}
}

func writeDOT(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = io.WriteString(w, doc)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Detail: detail})
}
