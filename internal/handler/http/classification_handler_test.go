package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/domain"
	"github.com/yokitheyo/imageclassifier/internal/dto"
	"github.com/yokitheyo/imageclassifier/internal/handler/middleware"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

var sampleScores = domain.Classification{
	{Label: "tabby", Score: 60},
	{Label: "tiger cat", Score: 20},
	{Label: "Egyptian cat", Score: 10},
	{Label: "lynx", Score: 5},
	{Label: "Persian cat", Score: 1},
}

type fakeClassifier struct {
	images []string
	calls  [][2]string
}

func (f *fakeClassifier) Classify(_ context.Context, modelID, imageID string) (domain.Classification, error) {
	f.calls = append(f.calls, [2]string{modelID, imageID})
	if err := f.CheckModel(modelID); err != nil {
		return nil, err
	}
	if imageID == "ghost.jpg" {
		return nil, fmt.Errorf("%w: %s", domain.ErrImageNotFound, imageID)
	}
	return sampleScores, nil
}

func (f *fakeClassifier) CheckModel(modelID string) error {
	if modelID != "resnet18" && modelID != "alexnet" {
		return fmt.Errorf("%w: %s", domain.ErrUnknownModel, modelID)
	}
	return nil
}

func (f *fakeClassifier) KnownModels() []string {
	return []string{"resnet18", "alexnet"}
}

func (f *fakeClassifier) AvailableImages(context.Context) ([]string, error) {
	return f.images, nil
}

type fakeEditor struct {
	params domain.EnhanceParams
	edits  int
}

func (f *fakeEditor) EditImage(_ context.Context, imageID string, params domain.EnhanceParams) (string, error) {
	f.edits++
	f.params = params
	if imageID == "ghost.jpg" {
		return "", domain.ErrImageNotFound
	}
	return "cat_edited_abcd1234.jpg", nil
}

type fakeUploader struct {
	data    []byte
	uploads int
}

func (f *fakeUploader) Upload(_ context.Context, filename string, data []byte) (string, error) {
	f.uploads++
	if !bytes.HasPrefix(data, []byte("IMG")) {
		return "", fmt.Errorf("%w: bad bytes", domain.ErrDecodeFailed)
	}
	f.data = data
	return filename, nil
}

type fakeImages struct{}

func (fakeImages) Open(_ context.Context, imageID string) (io.ReadCloser, domain.Tier, error) {
	if imageID != "cat.jpg" {
		return nil, "", domain.ErrImageNotFound
	}
	return io.NopCloser(strings.NewReader("jpeg-bytes")), domain.TierUploaded, nil
}

type fakeJobs struct {
	jobs map[string]*domain.Job
}

func (f *fakeJobs) Submit(_ context.Context, modelID, imageID string) (*domain.Job, error) {
	job := &domain.Job{ID: "job-1", ModelID: modelID, ImageID: imageID, Status: domain.JobPending, CreatedAt: time.Now()}
	f.jobs[job.ID] = job
	return job, nil
}

func (f *fakeJobs) Get(_ context.Context, id string) (*domain.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

type testServer struct {
	engine     *ginext.Engine
	classifier *fakeClassifier
	editor     *fakeEditor
	uploader   *fakeUploader
	jobs       *fakeJobs
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		classifier: &fakeClassifier{images: []string{"a.JPEG", "b.JPEG"}},
		editor:     &fakeEditor{},
		uploader:   &fakeUploader{},
		jobs:       &fakeJobs{jobs: make(map[string]*domain.Job)},
	}
	s.engine = ginext.New("")
	s.engine.Use(middleware.RecoveryMiddleware(), middleware.CORSMiddleware())
	NewClassificationHandler(s.classifier, s.editor, s.uploader, fakeImages{}, s.jobs, 1).RegisterRoutes(s.engine)
	return s
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func TestInfo(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/info", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"models":["resnet18","alexnet"],"images":["a.JPEG","b.JPEG"]}`, rec.Body.String())
}

func TestClassify(t *testing.T) {
	s := newTestServer(t)

	rec := s.postJSON("/classifications", `{"image_id":"cat.jpg","model_id":"resnet18"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.ClassificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cat.jpg", resp.ImageID)
	assert.Equal(t, sampleScores, resp.ClassificationScores)
	assert.Contains(t, rec.Body.String(), `["tabby",60]`)
}

func TestClassifyErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "malformed json", body: `{`, status: http.StatusBadRequest, code: "invalid_request"},
		{name: "wrong field type", body: `{"image_id":7,"model_id":"resnet18"}`, status: http.StatusBadRequest, code: "invalid_request"},
		{name: "missing fields", body: `{"image_id":""}`, status: http.StatusBadRequest, code: "validation_failed"},
		{name: "unknown model", body: `{"image_id":"cat.jpg","model_id":"mobilenet"}`, status: http.StatusBadRequest, code: "unknown_model"},
		{name: "unknown image", body: `{"image_id":"ghost.jpg","model_id":"resnet18"}`, status: http.StatusNotFound, code: "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := s.postJSON("/classifications", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error)
		})
	}
}

func TestEdit(t *testing.T) {
	s := newTestServer(t)

	rec := s.postJSON("/editor", `{"image_id":"cat.jpg","model_id":"resnet18","color_value":250,"brightness_value":-20,"contrast_value":0,"sharpness_value":-300}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.EnhanceParams{Color: 100, Brightness: -20, Contrast: 0, Sharpness: -100}, s.editor.params)

	var resp dto.ClassificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cat_edited_abcd1234.jpg", resp.ImageID)
	assert.Equal(t, [][2]string{{"resnet18", "cat_edited_abcd1234.jpg"}}, s.classifier.calls)
}

func TestEditNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.postJSON("/editor", `{"image_id":"ghost.jpg","model_id":"resnet18"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, s.classifier.calls)
}

func TestEditUnknownModelSkipsEnhancement(t *testing.T) {
	s := newTestServer(t)

	rec := s.postJSON("/editor", `{"image_id":"cat.jpg","model_id":"mobilenet","color_value":50}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown_model")
	assert.Zero(t, s.editor.edits, "nothing may be written to the edited tier")
	assert.Empty(t, s.classifier.calls)
}

func multipartUpload(t *testing.T, filename string, data []byte, modelID string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.WriteField("model_id", modelID))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(multipartUpload(t, "cat.jpg", []byte("IMG-data"), "resnet18"))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []byte("IMG-data"), s.uploader.data)
	var resp dto.ClassificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cat.jpg", resp.ImageID)
	assert.Len(t, resp.ClassificationScores, domain.TopK)
}

func TestUploadErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(multipartUpload(t, "", nil, "resnet18"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(multipartUpload(t, "cat.jpg", []byte("IMG"), ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(multipartUpload(t, "cat.txt", []byte("text"), "resnet18"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	big := append([]byte("IMG"), make([]byte, 2*1024*1024)...)
	rec = s.do(multipartUpload(t, "big.jpg", big, "resnet18"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file_too_large")
}

func TestUploadUnknownModelStoresNothing(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(multipartUpload(t, "cat.jpg", []byte("IMG-data"), "not_a_real_model"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown_model")
	assert.Zero(t, s.uploader.uploads, "nothing may be written to the uploads tier")
	assert.Empty(t, s.classifier.calls)
}

func TestGetImage(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/images/cat.jpg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "uploaded", rec.Header().Get("X-Image-Tier"))
	assert.Equal(t, "jpeg-bytes", rec.Body.String())

	rec = s.do(httptest.NewRequest(http.MethodGet, "/images/dog.jpg", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobs(t *testing.T) {
	s := newTestServer(t)

	rec := s.postJSON("/jobs", `{"image_id":"cat.jpg","model_id":"resnet18"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var created dto.JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "job-1", created.ID)
	assert.Equal(t, "pending", created.Status)
	assert.True(t, strings.HasSuffix(created.URL, "/jobs/job-1"))

	rec = s.do(httptest.NewRequest(http.MethodGet, "/jobs/job-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/jobs/job-2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreflight(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodOptions, "/classifications", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("wrap: %w", domain.ErrImageNotFound), http.StatusNotFound},
		{domain.ErrJobNotFound, http.StatusNotFound},
		{domain.ErrUnknownModel, http.StatusBadRequest},
		{domain.ErrInvalidImageID, http.StatusBadRequest},
		{domain.ErrDecodeFailed, http.StatusUnprocessableEntity},
		{domain.ErrQueueFailed, http.StatusServiceUnavailable},
		{domain.ErrStorageFailed, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		status, _ := statusFor(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
	}
}
