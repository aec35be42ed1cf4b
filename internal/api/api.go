// Package api serves JSON-LD documents over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/mfenderov/jsonld/internal/assembler"
	"github.com/mfenderov/jsonld/internal/builder"
	"github.com/mfenderov/jsonld/internal/content"
	"github.com/mfenderov/jsonld/internal/markup"
	"github.com/mfenderov/jsonld/internal/pipeline"
)

// Handler handles HTTP requests for structured data.
type Handler struct {
	pipeline *pipeline.Pipeline
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewHandler creates a new handler.
func NewHandler(p *pipeline.Pipeline) *Handler {
	return &Handler{pipeline: p}
}

// Routes returns the routes for documents, mounted under /jsonld.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{kind}/{id}", h.GetDocument)
	r.Delete("/{kind}/{id}", h.InvalidateDocument)

	return r
}

// NewRouter builds the complete HTTP surface.
func NewRouter(p *pipeline.Pipeline) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Mount("/jsonld", NewHandler(p).Routes())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	return r
}

// GetDocument writes the document for a page. With ?format=script the
// document is wrapped in its script element and served as HTML.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	doc, err := h.pipeline.Document(r.Context(), page)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "script" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, markup.Script(doc))
		return
	}

	w.Header().Set("Content-Type", markup.ScriptType)
	fmt.Fprint(w, doc)
}

// InvalidateDocument drops the cached document of a page.
func (h *Handler) InvalidateDocument(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.pipeline.Invalidate(r.Context(), page); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func pageFromRequest(r *http.Request) (assembler.Page, error) {
	kind, err := assembler.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return assembler.Page{}, err
	}
	return assembler.Page{Kind: kind, ID: chi.URLParam(r, "id")}, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, assembler.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, content.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, builder.ErrMissingRequiredData):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		slog.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: err.Error()})
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve HTTP: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
