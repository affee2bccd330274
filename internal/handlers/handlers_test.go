package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/recruit-dashboard/internal/apperrors"
	"alfredoptarigan/recruit-dashboard/internal/models"
	"alfredoptarigan/recruit-dashboard/internal/services"
)

type fakeIngestion struct {
	jobID string
	files []services.UploadedFile
	err   error
}

func (f *fakeIngestion) Ingest(_ context.Context, jobID string, files []services.UploadedFile) (*models.IngestionResult, error) {
	f.jobID = jobID
	f.files = files
	if f.err != nil {
		return nil, f.err
	}
	result := models.NewIngestionResult()
	for _, file := range files {
		result.NewCVs = append(result.NewCVs, models.Candidate{ID: uuid.New(), FullName: file.Name})
	}
	return result, nil
}

type fakeResolver struct {
	items []models.ResolutionItem
}

func (f *fakeResolver) Resolve(_ context.Context, items []models.ResolutionItem) []models.ResolutionResult {
	f.items = items
	results := make([]models.ResolutionResult, 0, len(items))
	for _, item := range items {
		results = append(results, models.ResolutionResult{ExistingCVID: item.ExistingCVID, Status: models.ResolutionMerged})
	}
	return results
}

type fakeCandidates struct {
	services.CandidateService
	getErr error
}

func (f *fakeCandidates) Get(_ context.Context, id uuid.UUID) (*models.Candidate, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &models.Candidate{ID: id, FullName: "Jane"}, nil
}

func (f *fakeCandidates) List(_ context.Context, page, limit int) (*models.CandidateListResponse, error) {
	url := "/uploads/jane.pdf"
	return &models.CandidateListResponse{
		Candidates: []models.CandidateListItem{{Candidate: models.Candidate{FullName: "Jane"}, FileURL: &url}},
		Total:      1,
		Page:       page,
		Limit:      limit,
	}, nil
}

type fakeJobs struct {
	services.JobService
}

func (fakeJobs) Create(_ context.Context, input services.JobInput) (*models.Job, error) {
	if input.Title == "" {
		return nil, apperrors.NewValidationError("Missing title")
	}
	return &models.Job{ID: uuid.New(), Title: input.Title}, nil
}

type testApp struct {
	app        *fiber.App
	cv         *CVHandler
	ingestion  *fakeIngestion
	resolver   *fakeResolver
	candidates *fakeCandidates
}

func newTestApp() *testApp {
	t := &testApp{
		ingestion:  &fakeIngestion{},
		resolver:   &fakeResolver{},
		candidates: &fakeCandidates{},
	}
	t.cv = NewCVHandler(t.ingestion, t.resolver)
	t.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	Register(t.app.Group("/api/v1"), Handlers{
		CV:         t.cv,
		Candidates: NewCandidateHandler(t.candidates),
		Jobs:       NewJobHandler(fakeJobs{}),
	})
	return t
}

func multipartBody(t *testing.T, jobID string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if jobID != "" {
		require.NoError(t, w.WriteField("job_id", jobID))
	}
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func TestUpload_Success(t *testing.T) {
	ta := newTestApp()
	jobID := uuid.NewString()
	body, contentType := multipartBody(t, jobID, map[string]string{"jane.pdf": "%PDF-1.4"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cv/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := ta.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode(t, resp)
	assert.Len(t, out["new_cvs"], 1)
	assert.Equal(t, []any{}, out["duplicates"])
	assert.Equal(t, []any{}, out["errors"])

	assert.Equal(t, jobID, ta.ingestion.jobID)
	require.Len(t, ta.ingestion.files, 1)
	assert.Equal(t, "jane.pdf", ta.ingestion.files[0].Name)
	assert.Equal(t, "%PDF-1.4", string(ta.ingestion.files[0].Content))
}

func TestUpload_MissingJobID(t *testing.T) {
	ta := newTestApp()
	body, contentType := multipartBody(t, "", map[string]string{"a.pdf": "x"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cv/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := ta.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing job_id or files", decode(t, resp)["error"])
	assert.Nil(t, ta.ingestion.files)
}

func TestUpload_NotMultipart(t *testing.T) {
	ta := newTestApp()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cv/upload", strings.NewReader(`{"job_id":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := ta.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpload_UnknownJobIs404(t *testing.T) {
	ta := newTestApp()
	ta.ingestion.err = apperrors.NewJobNotFoundError("abc")
	body, contentType := multipartBody(t, "abc", map[string]string{"a.pdf": "x"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cv/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := ta.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	out := decode(t, resp)
	assert.Equal(t, "Job not found: abc", out["error"])
	assert.Equal(t, "JOB_NOT_FOUND", out["code"])
}

func TestUpload_UnreadableFilesAreReported(t *testing.T) {
	ta := newTestApp()
	ta.cv.readFile = func(fh *multipart.FileHeader) ([]byte, error) {
		return nil, errors.New("failed to read uploaded file: unexpected EOF")
	}
	body, contentType := multipartBody(t, uuid.NewString(), map[string]string{"a.pdf": "x", "b.pdf": "y"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cv/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := ta.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode(t, resp)
	assert.Equal(t, []any{}, out["new_cvs"])
	errs := out["errors"].([]any)
	require.Len(t, errs, 2)
	assert.Equal(t, "failed to read uploaded file: unexpected EOF", errs[0].(map[string]any)["message"])
	assert.Nil(t, ta.ingestion.files)
}

func TestUpload_PartialReadFailure(t *testing.T) {
	ta := newTestApp()
	ta.cv.readFile = func(fh *multipart.FileHeader) ([]byte, error) {
		if fh.Filename == "bad.pdf" {
			return nil, errors.New("failed to open uploaded file: gone")
		}
		return readUploadedFile(fh)
	}
	body, contentType := multipartBody(t, uuid.NewString(), map[string]string{"bad.pdf": "x", "good.pdf": "y"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cv/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := ta.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode(t, resp)
	assert.Len(t, out["new_cvs"], 1)
	errs := out["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "bad.pdf", errs[0].(map[string]any)["file_name"])
	require.Len(t, ta.ingestion.files, 1)
	assert.Equal(t, "good.pdf", ta.ingestion.files[0].Name)
}

func TestProcess(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantItems  int
	}{
		{name: "valid list", body: `{"duplicates":[{"existingCvId":"abc","mode":"merge","newData":{"skills":["Go"]}}]}`, wantStatus: http.StatusOK, wantItems: 1},
		{name: "empty list", body: `{"duplicates":[]}`, wantStatus: http.StatusOK, wantItems: 0},
		{name: "missing", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "not a list", body: `{"duplicates":{"existingCvId":"abc"}}`, wantStatus: http.StatusBadRequest},
		{name: "null", body: `{"duplicates":null}`, wantStatus: http.StatusBadRequest},
		{name: "malformed json", body: `{"duplicates":[`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/cv/process", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := ta.app.Test(req)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			out := decode(t, resp)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, "Missing or invalid duplicates data", out["error"])
				return
			}
			assert.Len(t, out["results"], tt.wantItems)
			assert.Len(t, ta.resolver.items, tt.wantItems)
		})
	}
}

func TestProcess_PassesItemsThrough(t *testing.T) {
	ta := newTestApp()
	body := `{"duplicates":[{"existingCvId":"11111111-1111-1111-1111-111111111111","mode":"create_new","newData":{"full_name":"Jane","fit_score":75}}]}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cv/process", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := ta.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, ta.resolver.items, 1)
	item := ta.resolver.items[0]
	assert.Equal(t, models.ModeCreateNew, item.Mode)
	assert.Equal(t, "Jane", *item.NewData.FullName)
	assert.Equal(t, 75.0, *item.NewData.FitScore)
}

func TestProcess_MalformedItemDoesNotFailBatch(t *testing.T) {
	ta := newTestApp()
	body := `{"duplicates":[
		{"existingCvId":"11111111-1111-1111-1111-111111111111","mode":"merge","newData":{"skills":["Go"]}},
		{"existingCvId":"22222222-2222-2222-2222-222222222222","mode":"merge","newData":{"experience":"5 years"}}
	]}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cv/process", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := ta.app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	results := decode(t, resp)["results"].([]any)
	require.Len(t, results, 2)

	first := results[0].(map[string]any)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", first["existingCvId"])
	assert.Equal(t, "merged", first["status"])

	second := results[1].(map[string]any)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", second["existingCvId"])
	assert.Equal(t, "error", second["status"])
	assert.Contains(t, second["message"], "experience")

	require.Len(t, ta.resolver.items, 1)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", ta.resolver.items[0].ExistingCVID)
}

func TestExistingCVIDOf(t *testing.T) {
	assert.Equal(t, "abc", existingCVIDOf(json.RawMessage(`{"existingCvId":"abc","mode":7}`)))
	assert.Equal(t, "42", existingCVIDOf(json.RawMessage(`{"existingCvId":42}`)))
	assert.Equal(t, "", existingCVIDOf(json.RawMessage(`{"mode":"merge"}`)))
	assert.Equal(t, "", existingCVIDOf(json.RawMessage(`"not an object"`)))
}

func TestCandidates_ListAndGet(t *testing.T) {
	ta := newTestApp()

	resp, err := ta.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/candidates?page=2&limit=5", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode(t, resp)
	assert.Equal(t, float64(2), out["page"])
	assert.Equal(t, float64(5), out["limit"])
	candidates := out["candidates"].([]any)
	require.Len(t, candidates, 1)
	assert.Equal(t, "/uploads/jane.pdf", candidates[0].(map[string]any)["file_url"])

	resp, err = ta.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/candidates/not-a-uuid", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ta.candidates.getErr = apperrors.NewNotFoundError("Candidate not found")
	resp, err = ta.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/candidates/"+uuid.NewString(), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode(t, resp)["code"])
}

func TestJobs_CreateValidation(t *testing.T) {
	ta := newTestApp()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(`{"title":""}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := ta.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(`{"title":"Backend Engineer","requirements":"Go"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = ta.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Backend Engineer", decode(t, resp)["title"])
}

func TestHealth(t *testing.T) {
	ta := newTestApp()

	resp, err := ta.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", decode(t, resp)["status"])
}
