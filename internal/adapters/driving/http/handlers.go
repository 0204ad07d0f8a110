package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// ReadyResponse reports the state of every dependency checked by /ready
// @Description Readiness response
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks,omitempty"`
}

// RetrieveRequest is the body of /retrieve and /query
// @Description Retrieval request
type RetrieveRequest struct {
	Query            string   `json:"query" example:"what dataset was used"`
	K                int      `json:"k,omitempty" example:"5"`
	AllowDocumentIDs []string `json:"allow_document_ids,omitempty"`
	MinScore         float64  `json:"min_score,omitempty"`
}

func (r RetrieveRequest) options() domain.RetrieveOptions {
	return domain.RetrieveOptions{
		K:                r.K,
		AllowDocumentIDs: r.AllowDocumentIDs,
		MinScore:         r.MinScore,
	}
}

// IngestTextRequest is the body of /documents/text. Either the single
// document fields or Documents is set.
// @Description Text ingestion request
type IngestTextRequest struct {
	domain.IngestRequest
	Documents []domain.IngestRequest `json:"documents,omitempty"`
}

// DocumentListResponse is a page of documents
// @Description Document list
type DocumentListResponse struct {
	Documents []*domain.Document `json:"documents"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

const readyTimeout = 5 * time.Second

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the document store, vector index and cache
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, len(s.checks))}
	for name, check := range s.checks {
		if err := check.Ping(ctx); err != nil {
			resp.Status = "unavailable"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Auth endpoints

// handleIssueToken godoc
// @Summary      Issue token
// @Description  Exchange API client credentials for a JWT
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.TokenRequest  true  "Client credentials"
// @Success      200      {object}  domain.TokenResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid credentials"
// @Failure      404      {object}  ErrorResponse  "Authentication disabled"
// @Router       /api/v1/auth/token [post]
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	if s.services.Auth == nil {
		writeError(w, http.StatusNotFound, "authentication disabled")
		return
	}

	var req domain.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.services.Auth.IssueToken(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Document endpoints

// handleUploadDocuments godoc
// @Summary      Upload documents
// @Description  Upload one or more files as multipart form data under "files"
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        files  formData  file  true  "Documents to ingest"
// @Success      200    {object}  domain.BatchIngestResult
// @Failure      400    {object}  ErrorResponse  "Invalid upload"
// @Failure      413    {object}  ErrorResponse  "Upload too large"
// @Router       /api/v1/documents [post]
func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := append(r.MultipartForm.File["files"], r.MultipartForm.File["file"]...)
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	batch := &domain.BatchIngestResult{Results: []*domain.IngestResult{}}
	for _, fh := range files {
		result, err := s.ingestUpload(r.Context(), fh.Filename, fh.Header.Get("Content-Type"), fh.Open)
		if err != nil {
			if result == nil {
				result = &domain.IngestResult{Filename: fh.Filename, Status: domain.IngestStatusFailed}
			}
			result.Error = err.Error()
		}
		batch.Add(result)
	}

	writeJSON(w, http.StatusOK, batch)
}

func (s *Server) ingestUpload(ctx context.Context, filename, contentType string, open func() (multipart.File, error)) (*domain.IngestResult, error) {
	f, err := open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return s.services.Ingest.IngestFile(ctx, filename, contentType, data)
}

// handleIngestText godoc
// @Summary      Ingest text
// @Description  Ingest pre-extracted text annotated with [PAGE n] markers, one document or a "documents" list
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      IngestTextRequest  true  "Documents"
// @Success      201      {object}  domain.IngestResult
// @Success      200      {object}  domain.BatchIngestResult
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      409      {object}  ErrorResponse  "Duplicate filename"
// @Router       /api/v1/documents/text [post]
func (s *Server) handleIngestText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	var req IngestTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Documents) > 0 {
		writeJSON(w, http.StatusOK, s.services.Ingest.IngestBatch(r.Context(), req.Documents))
		return
	}

	result, err := s.services.Ingest.Ingest(r.Context(), req.IngestRequest)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleListDocuments godoc
// @Summary      List documents
// @Description  List ingested documents, newest first
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size (default 50, max 200)"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {object}  DocumentListResponse
// @Router       /api/v1/documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, 200)
	offset := queryInt(r, "offset", 0, -1)

	docs, err := s.services.Documents.List(r.Context(), limit, offset)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: docs, Limit: limit, Offset: offset})
}

// handleGetDocument godoc
// @Summary      Get document
// @Description  Get a document's metadata and section summary
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /api/v1/documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.services.Documents.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleGetPassages godoc
// @Summary      Get document passages
// @Description  Get a document with its passages in document order
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.DocumentWithPassages
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /api/v1/documents/{id}/passages [get]
func (s *Server) handleGetPassages(w http.ResponseWriter, r *http.Request) {
	doc, err := s.services.Documents.GetPassages(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument godoc
// @Summary      Delete document
// @Description  Remove a document from the vector index and the document store.
// @Description  A deletion that only partly succeeded answers 207 with a warning.
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.DeletionResult
// @Success      207  {object}  domain.DeletionResult
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Failure      500  {object}  domain.DeletionResult  "Nothing could be deleted"
// @Router       /api/v1/documents/{id} [delete]
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	result, err := s.services.Ingest.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		if result != nil && errors.Is(err, domain.ErrPartialDeletion) {
			writeJSON(w, http.StatusInternalServerError, result)
			return
		}
		s.writeServiceError(w, err)
		return
	}
	if result.Partial {
		writeJSON(w, http.StatusMultiStatus, result)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleStats godoc
// @Summary      Corpus statistics
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.CorpusStats
// @Router       /api/v1/stats [get]
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.services.Documents.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Retrieval endpoints

// handleRetrieve godoc
// @Summary      Retrieve passages
// @Description  Rank passages relevant to a query and return them with citations and a confidence
// @Tags         Retrieval
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      RetrieveRequest  true  "Query"
// @Success      200      {object}  domain.RetrievalResult
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      503      {object}  ErrorResponse  "Embedding or vector index unavailable"
// @Router       /api/v1/retrieve [post]
func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.services.Retrieval.Retrieve(r.Context(), req.Query, req.options())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleQuery godoc
// @Summary      Answer a question
// @Description  Retrieve context and generate a cited answer
// @Tags         Retrieval
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      RetrieveRequest  true  "Question"
// @Success      200      {object}  domain.Answer
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      503      {object}  ErrorResponse  "Generation unavailable"
// @Router       /api/v1/query [post]
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := s.services.Answer.Ask(r.Context(), req.Query, req.options())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

// Query log endpoints

// handleQueryHistory godoc
// @Summary      Query history
// @Tags         Analytics
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Number of queries (default 20, max 100)"
// @Success      200    {array}   domain.QueryRecord
// @Router       /api/v1/queries [get]
func (s *Server) handleQueryHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.services.Queries.History(r.Context(), queryInt(r, "limit", 20, 100))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// handlePopularQueries godoc
// @Summary      Popular queries
// @Tags         Analytics
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Number of queries (default 10, max 100)"
// @Success      200    {array}   domain.PopularQuery
// @Router       /api/v1/analytics/popular [get]
func (s *Server) handlePopularQueries(w http.ResponseWriter, r *http.Request) {
	popular, err := s.services.Queries.Popular(r.Context(), queryInt(r, "limit", 10, 100))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, popular)
}

// Admin endpoints

// handleRepair godoc
// @Summary      Repair orphans
// @Description  Remove indexed passages whose document is no longer stored (admin only)
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.RepairReport
// @Failure      403  {object}  ErrorResponse  "Forbidden - admin only"
// @Router       /api/v1/admin/repair [post]
func (s *Server) handleRepair(w http.ResponseWriter, r *http.Request) {
	report, err := s.services.Ingest.RepairOrphans(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Helper functions

// writeServiceError maps domain errors to HTTP status codes. Unexpected
// errors are logged and hidden from the client.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrExtractionFailed):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenInvalid):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// queryInt reads a non-negative integer query parameter. upper < 0 means unbounded.
func queryInt(r *http.Request, name string, def, upper int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return def
	}
	if name == "limit" && v == 0 {
		return def
	}
	if upper >= 0 && v > upper {
		return upper
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
