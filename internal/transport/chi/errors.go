package chi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/domain"
	"github.com/kailas-cloud/lookbook/internal/logger"
)

// Error codes returned in the JSON error body.
const (
	codeInvalidQuery      = "invalid_query"
	codeInvalidRequest    = "invalid_request"
	codeTooManyFiles      = "too_many_files"
	codeUnsupportedImage  = "unsupported_image"
	codeEmbeddingProvider = "embedding_provider_error"
	codeTaggingProvider   = "tagging_provider_error"
	codeVectorStore       = "vector_store_error"
	codeConfiguration     = "configuration_error"
	codeNotFound          = "not_found"
	codePayloadTooLarge   = "payload_too_large"
	codeUnauthorized      = "unauthorized"
	codeInternal          = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// sentinelMapping is checked in order; the first match wins.
var sentinelMapping = []struct {
	sentinel error
	status   int
	code     string
}{
	{domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery},
	{domain.ErrInvalidRequest, http.StatusBadRequest, codeInvalidRequest},
	{domain.ErrTooManyFiles, http.StatusRequestEntityTooLarge, codeTooManyFiles},
	{domain.ErrUnsupportedImage, http.StatusUnsupportedMediaType, codeUnsupportedImage},
	{domain.ErrNotFound, http.StatusNotFound, codeNotFound},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProvider},
	{domain.ErrTaggingProviderError, http.StatusBadGateway, codeTaggingProvider},
	{domain.ErrVectorStoreError, http.StatusBadGateway, codeVectorStore},
	{domain.ErrConfiguration, http.StatusInternalServerError, codeConfiguration},
}

func defaultErrorHandlers() []errorHandler {
	handlers := make([]errorHandler, 0, len(sentinelMapping)+1)
	handlers = append(handlers, payloadTooLargeHandler)
	for _, m := range sentinelMapping {
		handlers = append(handlers, sentinelHandler(m.sentinel, m.status, m.code))
	}
	return handlers
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, safeDomainMessage(err))
		return true
	}
}

func payloadTooLargeHandler(w http.ResponseWriter, err error) bool {
	var tooLarge *http.MaxBytesError
	if !errors.As(err, &tooLarge) {
		return false
	}
	writeError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge, "request body too large")
	return true
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Validation errors carry user-facing detail; provider and storage errors do not.
func safeDomainMessage(err error) string {
	for _, s := range []error{
		domain.ErrInvalidQuery,
		domain.ErrInvalidRequest,
		domain.ErrTooManyFiles,
		domain.ErrUnsupportedImage,
	} {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	for _, m := range sentinelMapping {
		if errors.Is(err, m.sentinel) {
			return m.sentinel.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			logger.FromContext(r.Context()).Warn("request failed", zap.Error(err))
			return
		}
	}
	logger.FromContext(r.Context()).Error("unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
