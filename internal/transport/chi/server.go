package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/domain"
	dombatch "github.com/kailas-cloud/lookbook/internal/domain/batch"
	"github.com/kailas-cloud/lookbook/internal/domain/search/order"
	"github.com/kailas-cloud/lookbook/internal/domain/search/request"
	domsession "github.com/kailas-cloud/lookbook/internal/domain/session"
	"github.com/kailas-cloud/lookbook/internal/logger"
	healthuc "github.com/kailas-cloud/lookbook/internal/usecase/health"
	inventoryuc "github.com/kailas-cloud/lookbook/internal/usecase/inventory"
	searchuc "github.com/kailas-cloud/lookbook/internal/usecase/search"
	tagginguc "github.com/kailas-cloud/lookbook/internal/usecase/tagging"
)

// Session transport names.
const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "lookbook_session"
)

const (
	maxPreviewLimit = 100
	// multipartOverhead covers form boundaries and part headers on top of the file bytes.
	multipartOverhead = 1 << 20
)

// Options tunes request limits and session cookies.
type Options struct {
	MaxFileBytes int64
	SessionTTL   time.Duration
}

// Server serves the lookbook HTTP API.
type Server struct {
	ingest        Ingester
	search        Searcher
	inventory     Previewer
	sessions      SessionStore
	health        HealthChecker
	opts          Options
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. Handlers log through the request-scoped logger.
func NewServer(
	ingest Ingester,
	search Searcher,
	inventory Previewer,
	sessions SessionStore,
	health HealthChecker,
	opts Options,
) *Server {
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = 10 << 20
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	return &Server{
		ingest:        ingest,
		search:        search,
		inventory:     inventory,
		sessions:      sessions,
		health:        health,
		opts:          opts,
		errorHandlers: defaultErrorHandlers(),
	}
}

// UploadItems handles POST /items.
func (s *Server) UploadItems(w http.ResponseWriter, r *http.Request) {
	maxFiles := int64(s.ingest.MaxFiles())
	r.Body = http.MaxBytesReader(w, r.Body, maxFiles*s.opts.MaxFileBytes+multipartOverhead)

	if err := r.ParseMultipartForm(s.opts.MaxFileBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.handleDomainError(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "expected multipart form with files")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) > int(maxFiles) {
		s.handleDomainError(w, r, fmt.Errorf("%w: got %d, limit %d", domain.ErrTooManyFiles, len(headers), maxFiles))
		return
	}

	uploads := make([]tagginguc.Upload, 0, len(headers))
	for _, fh := range headers {
		up, err := s.readUpload(fh)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		uploads = append(uploads, up)
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.ingest.Ingest(ctx, uploads)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	succeeded, failed := dombatch.Count(results)
	items := make([]uploadResult, len(results))
	for i, res := range results {
		items[i] = uploadResultFromDomain(res)
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, uploadResponse{Items: items, Succeeded: succeeded, Failed: failed})
}

func (s *Server) readUpload(fh *multipart.FileHeader) (tagginguc.Upload, error) {
	if fh.Size > s.opts.MaxFileBytes {
		return tagginguc.Upload{}, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidRequest, fh.Filename, s.opts.MaxFileBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return tagginguc.Upload{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return tagginguc.Upload{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return tagginguc.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// PreviewItems handles GET /items/preview.
func (s *Server) PreviewItems(w http.ResponseWriter, r *http.Request) {
	limit := inventoryuc.DefaultPreviewSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPreviewLimit {
			writeError(w, http.StatusBadRequest, codeInvalidRequest,
				fmt.Sprintf("limit must be an integer between 1 and %d", maxPreviewLimit))
			return
		}
		limit = n
	}

	preview, err := s.inventory.Preview(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]itemView, len(preview.Items))
	for i, it := range preview.Items {
		items[i] = itemView{ID: it.ID(), Tags: it.Tags(), Metadata: it.Metadata()}
	}
	writeJSON(w, http.StatusOK, previewResponse{Total: preview.Total, Items: items})
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return
	}
	s.runSearch(w, r, body.Query, body.searchParams)
}

// SearchByTags handles POST /search/tags.
func (s *Server) SearchByTags(w http.ResponseWriter, r *http.Request) {
	var body tagSearchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return
	}
	s.runSearch(w, r, searchuc.TagQuery(body.Tags), body.searchParams)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, query string, p searchParams) {
	req, err := request.New(query, p.K, order.Criterion(p.Sort), p.Filters)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	sess := s.loadSession(w, r)
	r = r.WithContext(logger.With(r.Context(), zap.String("session_id", sess.ID())))
	ctx, usage := domain.NewContextWithUsage(r.Context())
	outcome, sess, err := s.search.Search(ctx, sess, req)
	s.saveSession(r, sess)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]hitView, len(outcome.Hits))
	for i, h := range outcome.Hits {
		items[i] = hitView{
			Rank:       i + 1,
			ID:         h.ID(),
			Tags:       h.Content(),
			Metadata:   h.Metadata(),
			Distance:   h.Distance(),
			Confidence: h.Confidence(),
		}
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponse{
		Query: outcome.Query,
		Sort:  string(outcome.Criterion),
		Total: len(items),
		Items: items,
	})
}

// Suggestions handles GET /suggestions.
func (s *Server) Suggestions(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(w, r)
	sug := s.search.Suggestions(r.Context(), sess)
	writeJSON(w, http.StatusOK, suggestionsResponse{Tags: nonNil(sug.Tags), Recent: nonNil(sug.Recent)})
}

// Tags handles GET /tags.
func (s *Server) Tags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tagsResponse{Tags: nonNil(s.search.Vocabulary(r.Context()))})
}

// Session handles GET /session.
func (s *Server) Session(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(w, r)
	writeJSON(w, http.StatusOK, sessionResponse{
		ID:        sess.ID(),
		Recent:    nonNil([]string(sess.Recent())),
		LastQuery: sess.LastQuery(),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// loadSession resolves the session id from the header or cookie, minting one when absent,
// and echoes it back in both. Storage failures degrade to a fresh session.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) domsession.Context {
	id := sessionID(r)
	if id == "" {
		id = uuid.NewString()
	}

	w.Header().Set(SessionHeader, id)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	sess, err := s.sessions.Load(r.Context(), id)
	if err != nil {
		logger.FromContext(r.Context()).Warn("session load failed", zap.String("session_id", id), zap.Error(err))
	}
	return sess
}

func (s *Server) saveSession(r *http.Request, sess domsession.Context) {
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		logger.FromContext(r.Context()).Warn("session save failed", zap.Error(err))
	}
}

// sessionID returns a well-formed client session id, or empty.
func sessionID(r *http.Request) string {
	candidate := r.Header.Get(SessionHeader)
	if candidate == "" {
		if c, err := r.Cookie(SessionCookie); err == nil {
			candidate = c.Value
		}
	}
	if candidate == "" {
		return ""
	}
	if _, err := uuid.Parse(candidate); err != nil {
		return ""
	}
	return candidate
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.ModelUsage) {
	if usage == nil || !usage.Used {
		return
	}
	w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens))
	if usage.TaggingTokens > 0 {
		w.Header().Set("X-Tagging-Tokens", strconv.Itoa(usage.TaggingTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
