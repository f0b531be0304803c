package claims

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/claimwise/platform/pkg/adjudication"
	"github.com/claimwise/platform/pkg/extraction"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upload struct {
	field, name, content string
}

func multipartBody(t *testing.T, fields map[string]string, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func newTestRouter(t *testing.T, env *testEnv, maxBody int64, guard func(http.Handler) http.Handler) (*mux.Router, string) {
	t.Helper()
	dir := t.TempDir()
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(NotFound)
	NewHTTPHandler(env.service, dir, maxBody, guard).Register(router.PathPrefix("/api").Subrouter())
	return router, dir
}

func serve(router http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	var body map[string]interface{}
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	return rr, body
}

func TestProcessClaimEndpoint(t *testing.T) {
	env := newTestEnv(t, clinicDocuments())
	router, dir := newTestRouter(t, env, 1<<20, nil)

	body, contentType := multipartBody(t, map[string]string{"claim_date": "2024-11-15"},
		upload{extraction.DocPrescription, "rx scan.txt", "Dr. Anita Sharma"},
		upload{extraction.DocMedicalBill, "../bill.pdf", "%PDF-1.4"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/process-claim", body)
	req.Header.Set("Content-Type", contentType)

	rr, resp := serve(router, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, true, resp["success"])

	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, adjudication.DecisionApproved, data["decision"])
	assert.InDelta(t, 1200.0, data["approved_amount"], 0.001)

	meta := data["metadata"].(map[string]interface{})
	names := meta["original_filenames"].(map[string]interface{})
	assert.Equal(t, "rx_scan.txt", names[extraction.DocPrescription])
	assert.Equal(t, "bill.pdf", names[extraction.DocMedicalBill])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "uploads are removed after processing")

	require.Len(t, env.store.uploads, 2)
	for _, u := range env.store.uploads {
		assert.Regexp(t, `^\d{8}_\d{6}_`, u.FileName)
	}
}

func TestProcessClaimEndpointAcceptsLegacyFileField(t *testing.T) {
	env := newTestEnv(t, clinicDocuments())
	router, _ := newTestRouter(t, env, 1<<20, nil)

	body, contentType := multipartBody(t, map[string]string{"claim_date": "2024-11-15"},
		upload{"file", "bill.txt", "bill"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/process-claim", body)
	req.Header.Set("Content-Type", contentType)

	rr, resp := serve(router, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	data := resp["data"].(map[string]interface{})
	assert.NotEmpty(t, data["claim_id"])
	require.Len(t, env.store.uploads, 1)
	assert.Equal(t, extraction.DocMedicalBill, env.store.uploads[0].DocumentType)
}

func TestProcessClaimEndpointRejectsBadInput(t *testing.T) {
	cases := map[string]struct {
		fields map[string]string
		files  []upload
		status int
		title  string
	}{
		"no files": {
			fields: map[string]string{"claim_date": "2024-11-15"},
			status: http.StatusBadRequest,
			title:  "No file provided",
		},
		"bad extension": {
			files:  []upload{{extraction.DocMedicalBill, "bill.exe", "MZ"}},
			status: http.StatusBadRequest,
			title:  "Invalid file type",
		},
		"blank filename": {
			files:  []upload{{extraction.DocMedicalBill, " ", "bill"}},
			status: http.StatusBadRequest,
			title:  "Empty filename",
		},
		"bad date": {
			fields: map[string]string{"claim_date": "15-11-2024"},
			files:  []upload{{extraction.DocMedicalBill, "bill.txt", "bill"}},
			status: http.StatusBadRequest,
			title:  "Processing failed",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, clinicDocuments())
			router, _ := newTestRouter(t, env, 1<<20, nil)

			body, contentType := multipartBody(t, tc.fields, tc.files...)
			req := httptest.NewRequest(http.MethodPost, "/api/process-claim", body)
			req.Header.Set("Content-Type", contentType)

			rr, resp := serve(router, req)
			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.title, resp["error"])
			assert.NotEmpty(t, resp["timestamp"])
			assert.Empty(t, env.store.claims)
		})
	}
}

func TestCheckUploadRejectsEmptyFilename(t *testing.T) {
	env := newTestEnv(t, nil)
	h := NewHTTPHandler(env.service, t.TempDir(), 1<<20, nil)

	assert.ErrorIs(t, h.checkUpload(&multipart.FileHeader{Filename: ""}), errEmptyFilename)
	assert.NoError(t, h.checkUpload(&multipart.FileHeader{Filename: "bill.pdf"}))

	rr := httptest.NewRecorder()
	writeUploadError(rr, errEmptyFilename)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Empty filename", body["error"])
}

func TestProcessClaimEndpointRejectsOversizedUpload(t *testing.T) {
	env := newTestEnv(t, clinicDocuments())
	router, _ := newTestRouter(t, env, 1024, nil)

	body, contentType := multipartBody(t, nil,
		upload{extraction.DocMedicalBill, "bill.txt", strings.Repeat("x", 4096)},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/process-claim", body)
	req.Header.Set("Content-Type", contentType)

	rr, resp := serve(router, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Equal(t, "File too large", resp["error"])
}

func TestExtractDataEndpoint(t *testing.T) {
	env := newTestEnv(t, clinicDocuments())
	router, _ := newTestRouter(t, env, 1<<20, nil)

	body, contentType := multipartBody(t, map[string]string{"document_type": extraction.DocPrescription},
		upload{"file", "rx.txt", "rx"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/extract-data", body)
	req.Header.Set("Content-Type", contentType)

	rr, resp := serve(router, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "Rajesh Kumar", data["patient_name"])
	assert.Empty(t, env.store.claims)
}

func TestExtractDataEndpointRejectsUnknownDocumentType(t *testing.T) {
	env := newTestEnv(t, clinicDocuments())
	router, _ := newTestRouter(t, env, 1<<20, nil)

	body, contentType := multipartBody(t, map[string]string{"document_type": "xray"},
		upload{"file", "scan.png", "png"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/extract-data", body)
	req.Header.Set("Content-Type", contentType)

	rr, _ := serve(router, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealthAndPolicyEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	router, dir := newTestRouter(t, env, 16<<20, nil)

	rr, resp := serve(router, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, true, resp["policy_loaded"])
	assert.Equal(t, dir, resp["upload_folder"])
	assert.Equal(t, float64(16), resp["max_file_size_mb"])

	rr, resp = serve(router, httptest.NewRequest(http.MethodGet, "/api/validate-policy", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, resp["valid"])
	pol := resp["policy"].(map[string]interface{})
	assert.Equal(t, "PLUM_OPD_2024", pol["policy_id"])
}

func TestReviewerEndpointsAreGuarded(t *testing.T) {
	env := newTestEnv(t, nil)
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "A bearer token is required")
		})
	}
	router, _ := newTestRouter(t, env, 1<<20, deny)

	for _, path := range []string{"/api/claims", "/api/claims/statistics", "/api/claims/CLM_1", "/api/policies/PLUM_OPD_2024/utilization", "/api/policies/PLUM_OPD_2024/claims"} {
		rr, _ := serve(router, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}

	rr, _ := serve(router, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestClaimEndpoints(t *testing.T) {
	env := newTestEnv(t, clinicDocuments())
	router, _ := newTestRouter(t, env, 1<<20, nil)

	d, err := env.service.ProcessClaim(t.Context(), ProcessRequest{
		Documents: documentPaths(t, extraction.DocPrescription, extraction.DocMedicalBill),
		ClaimDate: "2024-11-15",
	})
	require.NoError(t, err)

	rr, resp := serve(router, httptest.NewRequest(http.MethodGet, "/api/claims/"+d.ClaimID, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, d.ClaimID, resp["claim_id"])
	assert.Len(t, resp["audit_log"], 2)

	rr, resp = serve(router, httptest.NewRequest(http.MethodGet, "/api/claims?days=7&limit=5", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1), resp["count"])

	rr, resp = serve(router, httptest.NewRequest(http.MethodGet, "/api/policies/PLUM_OPD_2024/claims", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1), resp["count"])

	rr, resp = serve(router, httptest.NewRequest(http.MethodGet, "/api/policies/OTHER/claims", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(0), resp["count"])

	rr, resp = serve(router, httptest.NewRequest(http.MethodGet, "/api/claims/statistics?policy_id=PLUM_OPD_2024", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1), resp["total_claims"])

	rr, _ = serve(router, httptest.NewRequest(http.MethodGet, "/api/claims/statistics?from=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, resp = serve(router, httptest.NewRequest(http.MethodGet, "/api/claims/CLM_UNKNOWN", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Not found", resp["error"])
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	env := newTestEnv(t, nil)
	router, _ := newTestRouter(t, env, 1<<20, nil)

	rr, resp := serve(router, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Endpoint not found", resp["error"])
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"bill.pdf":             "bill.pdf",
		"../../etc/passwd":     "passwd",
		`C:\scans\my bill.PNG`: "my_bill.PNG",
		"..hidden.txt":         "hidden.txt",
		"रसीद.pdf":             "pdf",
		"":                     "upload",
		"lab  report (1).jpeg": "lab_report_1.jpeg",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
}
