// Package http exposes a pipeline session over a JSON API.
//
// The handler owns exactly one session. Requests are serialized with a mutex
// because stage handlers mutate the session and are not safe for concurrent
// use.
package http

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/ezoic/finml/datasource"
	"github.com/ezoic/finml/features"
	"github.com/ezoic/finml/pipeline"
	"github.com/ezoic/finml/pkg/log"
)

const dateLayout = "2006-01-02"

// FetchRequest is the body of POST /api/session/fetch. End defaults to today.
type FetchRequest struct {
	Ticker string `json:"ticker" default:"AAPL" validate:"required,max=16"`
	Start  string `json:"start" default:"2020-01-01" validate:"required,datetime=2006-01-02"`
	End    string `json:"end" validate:"omitempty,datetime=2006-01-02"`
}

// FeaturesRequest is the body of POST /api/session/features.
type FeaturesRequest struct {
	Features []string `json:"features" validate:"required,min=1,dive,required"`
	Target   string   `json:"target" validate:"required"`
}

// SplitRequest is the body of POST /api/session/split. A missing test_size
// falls back to the session's configured ratio.
type SplitRequest struct {
	TestSize *float64 `json:"test_size" validate:"omitempty,gte=0.1,lte=0.5"`
}

// Handler serves one pipeline session.
type Handler struct {
	mu        sync.Mutex
	session   *pipeline.Session
	provider  datasource.Provider
	maxUpload int64
	logger    log.Logger
	now       func() time.Time
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithMaxUploadBytes caps the size of uploaded files.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handler) { h.maxUpload = n }
}

// WithClock replaces time.Now, which supplies the default fetch end date.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) { h.now = now }
}

// NewHandler wraps session. provider serves fetch requests and may be nil,
// in which case fetches are rejected.
func NewHandler(session *pipeline.Session, provider datasource.Provider, opts ...HandlerOption) *Handler {
	h := &Handler{
		session:   session,
		provider:  provider,
		maxUpload: 32 << 20,
		logger:    log.GetLoggerWithName("http").With(log.SessionKey, session.ID),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts the session API on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/session", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/", h.status)
		r.Post("/upload", h.upload)
		r.Post("/fetch", h.fetch)
		r.Get("/preview", h.preview)
		r.Get("/export.csv", h.export)
		r.Post("/preprocess", h.preprocess)
		r.Get("/features/preview", h.previewFeatures)
		r.Post("/features", h.confirmFeatures)
		r.Post("/split", h.split)
		r.Post("/train", h.train)
		r.Post("/evaluate", h.evaluate)
		r.Get("/figures/{name}", h.figure)
	})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	st := h.session.Status()
	h.mu.Unlock()
	render.JSON(w, r, st)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.fail(w, r, err)
			return
		}
		h.renderError(w, r, newErrorResponse(http.StatusBadRequest, LevelError, CodeInvalidRequest,
			"expected a multipart form: "+err.Error()))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.renderError(w, r, newErrorResponse(http.StatusBadRequest, LevelError, CodeInvalidRequest,
			"multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	h.mu.Lock()
	report, err := h.session.LoadFile(header.Filename, file)
	h.mu.Unlock()
	h.respond(w, r, report, err)
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) {
	var req FetchRequest
	if resp := decodeAndValidate(r, &req); resp != nil {
		h.renderError(w, r, resp)
		return
	}
	if h.provider == nil {
		h.renderError(w, r, newErrorResponse(http.StatusServiceUnavailable, LevelError, CodeInternal,
			"no market data provider configured"))
		return
	}
	start, _ := time.Parse(dateLayout, req.Start)
	end := h.now().UTC().Truncate(24 * time.Hour)
	if req.End != "" {
		end, _ = time.Parse(dateLayout, req.End)
	}

	h.mu.Lock()
	report, err := h.session.Fetch(r.Context(), h.provider, req.Ticker, start, end)
	h.mu.Unlock()
	h.respond(w, r, report, err)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	report, err := h.session.Preview()
	h.mu.Unlock()
	h.respond(w, r, report, err)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	h.mu.Lock()
	err := h.session.ExportCSV(&buf)
	h.mu.Unlock()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+pipeline.ExportFilename)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("Export write failed", log.ErrorKey, err.Error())
	}
}

func (h *Handler) preprocess(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	report, err := h.session.Preprocess()
	h.mu.Unlock()
	h.respond(w, r, report, err)
}

func (h *Handler) previewFeatures(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	report, err := h.session.PreviewFeatures()
	h.mu.Unlock()
	h.respond(w, r, report, err)
}

func (h *Handler) confirmFeatures(w http.ResponseWriter, r *http.Request) {
	var req FeaturesRequest
	if resp := decodeAndValidate(r, &req); resp != nil {
		h.renderError(w, r, resp)
		return
	}
	h.mu.Lock()
	report, err := h.session.ConfirmFeatures(features.Selection{Features: req.Features, Target: req.Target})
	h.mu.Unlock()
	h.respond(w, r, report, err)
}

func (h *Handler) split(w http.ResponseWriter, r *http.Request) {
	var req SplitRequest
	if resp := decodeAndValidate(r, &req); resp != nil {
		h.renderError(w, r, resp)
		return
	}
	h.mu.Lock()
	testSize := h.session.Options().TestSize
	if req.TestSize != nil {
		testSize = *req.TestSize
	}
	report, err := h.session.Split(testSize)
	h.mu.Unlock()
	h.respond(w, r, report, err)
}

func (h *Handler) train(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	report, err := h.session.Train()
	h.mu.Unlock()
	h.respond(w, r, report, err)
}

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	report, err := h.session.Evaluate()
	h.mu.Unlock()
	h.respond(w, r, report, err)
}

func (h *Handler) figure(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	h.mu.Lock()
	f, ok := h.session.Figure(name)
	h.mu.Unlock()
	if !ok {
		h.renderError(w, r, newErrorResponse(http.StatusNotFound, LevelError, CodeNotFound,
			"no figure named "+name))
		return
	}
	png, err := f.PNG()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		h.logger.Warn("Figure write failed", log.ErrorKey, err.Error())
	}
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, v interface{}, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, v)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.renderError(w, r, errorFor(err))
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, resp *ErrorResponse) {
	if resp.Status() >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", r.URL.Path, "code", resp.Code, log.ErrorKey, resp.Message)
	}
	if err := render.Render(w, r, resp); err != nil {
		h.logger.Warn("Error response not written", log.ErrorKey, err.Error())
	}
}
