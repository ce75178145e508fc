package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/helixir/paper-retrieval-service/internal/domain"
	"github.com/helixir/paper-retrieval-service/internal/hunter"
	"github.com/helixir/paper-retrieval-service/internal/pdf"
)

// maxRequestBodySize caps request bodies at 1 MB. Batch size and identifier
// length caps live in the request struct validation tags.
const maxRequestBodySize = 1 << 20

var validate = validator.New()

// huntRequest is the JSON request body for a single paper hunt.
type huntRequest struct {
	Identifier string `json:"identifier" validate:"required,max=2048"`
}

// batchHuntRequest is the JSON request body for a batch hunt.
type batchHuntRequest struct {
	Identifiers    []string `json:"identifiers" validate:"required,min=1,max=500,dive,required,max=2048"`
	MaxConcurrency int64    `json:"max_concurrency,omitempty" validate:"omitempty,min=1,max=64"`
}

// downloadRequest is the JSON request body for a PDF download.
type downloadRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// batchHuntResponse wraps batch results.
type batchHuntResponse struct {
	Results []*domain.PaperResult `json:"results"`
	Total   int                   `json:"total"`
}

// statsResponse combines hunt counters with cache counters.
type statsResponse struct {
	Hunts hunter.StatsSnapshot `json:"hunts"`
	Cache interface{}          `json:"cache,omitempty"`
}

// decodeAndValidate reads a size-limited JSON body into dst and runs
// struct validation. It writes the error response itself and reports
// whether the handler may proceed.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			s.writeError(w, http.StatusBadRequest, validationMessage(verrs[0]))
			return false
		}
		s.writeError(w, http.StatusBadRequest, "invalid request")
		return false
	}

	return true
}

// validationMessage renders one field error as a client-facing message.
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s exceeds maximum of %s", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// huntPaper handles POST /api/v1/papers/hunt.
// A hunt never fails; garbage input degrades to a title query and yields a
// virtual result, so the response is always 200 with a PaperResult.
func (s *Server) huntPaper(w http.ResponseWriter, r *http.Request) {
	var req huntRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result := s.hunter.Hunt(r.Context(), req.Identifier)
	s.writeJSON(w, http.StatusOK, result)
}

// batchHunt handles POST /api/v1/papers/batch.
// Results come back in request order regardless of completion order.
func (s *Server) batchHunt(w http.ResponseWriter, r *http.Request) {
	var req batchHuntRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	results := s.hunter.BatchHunt(r.Context(), req.Identifiers, hunter.BatchOptions{
		MaxConcurrency: s.batchBound(req.MaxConcurrency),
	})

	s.writeJSON(w, http.StatusOK, batchHuntResponse{
		Results: results,
		Total:   len(results),
	})
}

// downloadPDF handles POST /api/v1/papers/download.
// On success the raw PDF bytes are returned with the content hash in a
// header; errors map onto the downloader's sentinel errors.
func (s *Server) downloadPDF(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.downloader.Download(r.Context(), req.URL)
	if err != nil {
		s.writeDownloadError(w, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(result.SizeBytes, 10))
	w.Header().Set("X-Content-SHA256", result.ContentHash)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Content)
}

// getStats handles GET /api/v1/stats.
func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{Hunts: s.hunter.Stats().Snapshot()}
	if s.cache != nil {
		resp.Cache = s.cache.Stats()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// resetStats handles POST /api/v1/stats/reset.
func (s *Server) resetStats(w http.ResponseWriter, r *http.Request) {
	s.hunter.Stats().Reset()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// batchBound resolves the batch concurrency: the request value wins, then
// the server default, then the hunter's own default.
func (s *Server) batchBound(requested int64) int64 {
	if requested > 0 {
		return requested
	}
	return s.batchConcurrency
}

// writeDownloadError maps downloader sentinel errors to HTTP status codes.
func (s *Server) writeDownloadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pdf.ErrSSRF):
		s.writeError(w, http.StatusBadRequest, "URL is not allowed")
	case errors.Is(err, pdf.ErrNotPDF):
		s.writeError(w, http.StatusUnprocessableEntity, "URL does not resolve to a PDF")
	case errors.Is(err, pdf.ErrTooLarge):
		s.writeError(w, http.StatusRequestEntityTooLarge, "file exceeds maximum size")
	case errors.Is(err, pdf.ErrDownloadFailed):
		s.writeError(w, http.StatusBadGateway, "download failed")
	default:
		s.writeDomainError(w, err)
	}
}

// writeDomainError maps domain errors to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			s.writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			s.writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrRateLimited):
		s.writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrCancelled):
		s.writeError(w, http.StatusConflict, "operation cancelled")
	default:
		s.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
