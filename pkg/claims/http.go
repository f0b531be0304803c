package claims

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/claimwise/platform/pkg/adjudication"
	"github.com/claimwise/platform/pkg/common/logger"
	"github.com/claimwise/platform/pkg/extraction"
	"github.com/claimwise/platform/pkg/policy"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// legacyFileField is the single-document field older clients send; it is
// treated as a medical bill.
const legacyFileField = "file"

const multipartMemory = 8 << 20

type HTTPHandler struct {
	service      *Service
	uploadFolder string
	maxBody      int64
	guard        func(http.Handler) http.Handler
}

// NewHTTPHandler builds the claim API. guard wraps the reviewer endpoints;
// nil leaves them open.
func NewHTTPHandler(service *Service, uploadFolder string, maxBody int64, guard func(http.Handler) http.Handler) *HTTPHandler {
	if guard == nil {
		guard = func(next http.Handler) http.Handler { return next }
	}
	return &HTTPHandler{service: service, uploadFolder: uploadFolder, maxBody: maxBody, guard: guard}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/validate-policy", h.handleValidatePolicy).Methods(http.MethodGet)
	router.HandleFunc("/process-claim", h.handleProcessClaim).Methods(http.MethodPost)
	router.HandleFunc("/extract-data", h.handleExtractData).Methods(http.MethodPost)

	router.Handle("/claims", h.guard(http.HandlerFunc(h.handleListClaims))).Methods(http.MethodGet)
	router.Handle("/claims/statistics", h.guard(http.HandlerFunc(h.handleStatistics))).Methods(http.MethodGet)
	router.Handle("/claims/{id}", h.guard(http.HandlerFunc(h.handleGetClaim))).Methods(http.MethodGet)
	router.Handle("/policies/{id}/utilization", h.guard(http.HandlerFunc(h.handleUtilization))).Methods(http.MethodGet)
	router.Handle("/policies/{id}/claims", h.guard(http.HandlerFunc(h.handlePolicyClaims))).Methods(http.MethodGet)
}

type processMetadata struct {
	OriginalFilenames map[string]string `json:"original_filenames"`
	ProcessedAt       string            `json:"processed_at"`
	FileSizeBytes     int64             `json:"file_size_bytes"`
}

type processResponse struct {
	*adjudication.Decision
	Metadata processMetadata `json:"metadata"`
}

func (h *HTTPHandler) handleProcessClaim(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		if r.ContentLength > h.maxBody {
			h.writeFormError(w, &http.MaxBytesError{Limit: h.maxBody})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.writeFormError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := collectDocuments(r.MultipartForm)
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No file provided", "Please upload at least one of: "+strings.Join(extraction.DocumentTypes, ", "))
		return
	}

	dir, err := h.requestDir()
	if err != nil {
		logger.Log.WithError(err).Error("Failed to create upload directory")
		writeError(w, http.StatusInternalServerError, "Processing failed", "Could not store uploads")
		return
	}
	defer removeUploads(dir)

	req := ProcessRequest{
		Documents: make(map[string]string, len(files)),
		ClaimDate: strings.TrimSpace(r.FormValue("claim_date")),
		PolicyID:  strings.TrimSpace(r.FormValue("policy_id")),
		MemberID:  strings.TrimSpace(r.FormValue("member_id")),
	}
	meta := processMetadata{OriginalFilenames: make(map[string]string, len(files))}
	for docType, fh := range files {
		if err := h.checkUpload(fh); err != nil {
			writeUploadError(w, err)
			return
		}
		path, err := saveUpload(dir, fh)
		if err != nil {
			logger.Log.WithError(err).WithField("document_type", docType).Error("Failed to save upload")
			writeError(w, http.StatusInternalServerError, "Processing failed", "Could not store uploads")
			return
		}
		req.Documents[docType] = path
		meta.OriginalFilenames[docType] = sanitizeFilename(fh.Filename)
		meta.FileSizeBytes += fh.Size
	}

	decision, err := h.service.ProcessClaim(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "Processing failed", err)
		return
	}

	meta.ProcessedAt = time.Now().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    processResponse{Decision: decision, Metadata: meta},
	})
}

func (h *HTTPHandler) handleExtractData(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.writeFormError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	fhs := r.MultipartForm.File[legacyFileField]
	if len(fhs) == 0 {
		writeError(w, http.StatusBadRequest, "No file provided", "Please upload a file")
		return
	}
	fh := fhs[0]
	if err := h.checkUpload(fh); err != nil {
		writeUploadError(w, err)
		return
	}

	docType := strings.TrimSpace(r.FormValue("document_type"))
	if docType == "" {
		docType = extraction.DocMedicalBill
	}
	if !extraction.IsDocumentType(docType) {
		writeError(w, http.StatusBadRequest, "Invalid document type", fmt.Sprintf("document_type must be one of: %s", strings.Join(extraction.DocumentTypes, ", ")))
		return
	}
	claimDate := strings.TrimSpace(r.FormValue("claim_date"))
	if claimDate == "" {
		claimDate = time.Now().Format(policy.DateLayout)
	}
	if err := ValidateDate(claimDate); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format", err.Error())
		return
	}

	dir, err := h.requestDir()
	if err != nil {
		logger.Log.WithError(err).Error("Failed to create upload directory")
		writeError(w, http.StatusInternalServerError, "Extraction failed", "Could not store upload")
		return
	}
	defer removeUploads(dir)

	path, err := saveUpload(dir, fh)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to save upload")
		writeError(w, http.StatusInternalServerError, "Extraction failed", "Could not store upload")
		return
	}

	doc, err := h.service.ExtractOnly(r.Context(), path, docType, claimDate)
	if err != nil {
		h.writeServiceError(w, "Extraction failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    doc,
		"metadata": map[string]interface{}{
			"original_filename": sanitizeFilename(fh.Filename),
			"document_type":     docType,
			"extracted_at":      time.Now().Format(time.RFC3339),
		},
	})
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"timestamp":        time.Now().Format(time.RFC3339),
		"policy_loaded":    h.service.Policy().PolicyID != "",
		"upload_folder":    h.uploadFolder,
		"max_file_size_mb": h.maxBody / (1024 * 1024),
	})
}

func (h *HTTPHandler) handleValidatePolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":     true,
		"policy":    h.service.PolicySummary(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *HTTPHandler) handleListClaims(w http.ResponseWriter, r *http.Request) {
	days := parsePositive(r, "days", 30)
	limit := parsePositive(r, "limit", 100)
	claims, err := h.service.RecentClaims(r.Context(), days, limit)
	if err != nil {
		h.writeServiceError(w, "Failed to list claims", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": claims, "count": len(claims)})
}

func (h *HTTPHandler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := StatisticsFilter{PolicyID: q.Get("policy_id")}
	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(policy.DateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format", fmt.Sprintf("%s must be in YYYY-MM-DD format", name))
			return
		}
		*dst = &t
	}

	stats, err := h.service.Statistics(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, "Failed to compute statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *HTTPHandler) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetClaim(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, "Failed to load claim", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *HTTPHandler) handleUtilization(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Utilization(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, "Failed to load utilization", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *HTTPHandler) handlePolicyClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.service.PolicyClaims(r.Context(), mux.Vars(r)["id"], parsePositive(r, "limit", 100))
	if err != nil {
		h.writeServiceError(w, "Failed to list claims", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": claims, "count": len(claims)})
}

// NotFound answers unknown routes with the API's JSON error shape.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Endpoint not found", "The requested API endpoint does not exist")
}

var errEmptyFilename = errors.New("please select a valid file")

func (h *HTTPHandler) checkUpload(fh *multipart.FileHeader) error {
	if strings.TrimSpace(fh.Filename) == "" {
		return errEmptyFilename
	}
	return h.service.validator.CheckFile(fh.Filename)
}

func writeUploadError(w http.ResponseWriter, err error) {
	if errors.Is(err, errEmptyFilename) {
		writeError(w, http.StatusBadRequest, "Empty filename", err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, "Invalid file type", err.Error())
}

func (h *HTTPHandler) requestDir() (string, error) {
	dir := filepath.Join(h.uploadFolder, uuid.NewString())
	return dir, os.MkdirAll(dir, 0o755)
}

func (h *HTTPHandler) writeFormError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large",
			fmt.Sprintf("Maximum file size is %dMB", h.maxBody/(1024*1024)))
		return
	}
	writeError(w, http.StatusBadRequest, "Invalid request", "Expected a multipart/form-data body")
}

func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, title string, err error) {
	switch {
	case IsValidationError(err):
		writeError(w, http.StatusBadRequest, title, err.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", err.Error())
	default:
		logger.Log.WithError(err).Error(title)
		writeError(w, http.StatusInternalServerError, title, err.Error())
	}
}

// collectDocuments maps document types to their uploaded file. The legacy
// single-file field fills in for a missing medical bill.
func collectDocuments(form *multipart.Form) map[string]*multipart.FileHeader {
	files := make(map[string]*multipart.FileHeader)
	for _, docType := range extraction.DocumentTypes {
		if fhs := form.File[docType]; len(fhs) > 0 {
			files[docType] = fhs[0]
		}
	}
	if _, ok := files[extraction.DocMedicalBill]; !ok {
		if fhs := form.File[legacyFileField]; len(fhs) > 0 {
			files[extraction.DocMedicalBill] = fhs[0]
		}
	}
	return files
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// sanitizeFilename strips path components and anything outside
// [A-Za-z0-9_.-] from a client-supplied file name.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}

func saveUpload(dir string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := time.Now().Format("20060102_150405") + "_" + sanitizeFilename(fh.Filename)
	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	return path, dst.Close()
}

func removeUploads(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logger.Log.WithError(err).WithField("dir", dir).Warn("Could not remove uploads")
	}
}

func parsePositive(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, title, message string) {
	writeJSON(w, status, map[string]string{
		"error":     title,
		"message":   message,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
