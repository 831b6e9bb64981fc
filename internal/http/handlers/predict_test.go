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
	"testing"

	"github.com/rs/zerolog"

	"mediadetect/internal/domain"
	"mediadetect/internal/middleware"
)

type stubProcessor struct {
	res      domain.Result
	err      error
	filename string
	body     string
}

func (s *stubProcessor) Ingest(_ context.Context, filename string, src io.Reader) (domain.Result, error) {
	s.filename = filename
	b, _ := io.ReadAll(src)
	s.body = string(b)
	return s.res, s.err
}

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/predict", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func TestPredict_VideoSuccess(t *testing.T) {
	proc := &stubProcessor{res: domain.VideoSuccess("/outputs/transcoded_a.mp4", domain.DetectionSet{
		{BBox: [4]float64{1, 2, 3, 4}, Confidence: 0.5, ClassID: 2},
	})}
	app := &App{Pipeline: proc, Logger: zerolog.Nop()}

	rr := httptest.NewRecorder()
	app.Predict(rr, multipartRequest(t, "file", "clip.mp4", []byte("video-bytes")))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status code: got %d, want 200", rr.Code)
	}
	if proc.filename != "clip.mp4" || proc.body != "video-bytes" {
		t.Fatalf("processor got %q/%q", proc.filename, proc.body)
	}
	payload := decodeBody(t, rr)
	if payload["output_path"] != "/outputs/transcoded_a.mp4" || payload["message"] != "video processed successfully" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
	if dets, ok := payload["result"].([]any); !ok || len(dets) != 1 {
		t.Fatalf("expected one detection, got %#v", payload["result"])
	}
}

func TestPredict_PipelineFailureIsLocalized(t *testing.T) {
	proc := &stubProcessor{res: domain.Failure(domain.CodeArtifactNotFound, "detection result not found", "")}
	app := &App{Pipeline: proc, Logger: zerolog.Nop()}

	req := multipartRequest(t, "file", "clip.avi", []byte("x"))
	req = req.WithContext(context.WithValue(req.Context(), middleware.LocaleKey, "id"))
	rr := httptest.NewRecorder()
	app.Predict(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status code: got %d, want 200", rr.Code)
	}
	payload := decodeBody(t, rr)
	if payload["error"] != "Hasil deteksi tidak ditemukan" || payload["code"] != "artifact_not_found" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
	if _, ok := payload["result"]; ok {
		t.Fatalf("failure payload must not carry detections: %#v", payload)
	}
}

func TestPredict_RequestErrors(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		max      int64
		procErr  error
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing file field",
			req:      func(t *testing.T) *http.Request { return multipartRequest(t, "", "", nil) },
			wantCode: http.StatusBadRequest,
			wantErr:  "bad_request",
		},
		{
			name:     "not multipart",
			req:      func(t *testing.T) *http.Request { return httptest.NewRequest(http.MethodPost, "/predict", nil) },
			wantCode: http.StatusBadRequest,
			wantErr:  "bad_request",
		},
		{
			name:     "empty upload",
			req:      func(t *testing.T) *http.Request { return multipartRequest(t, "file", "a.jpg", nil) },
			wantCode: http.StatusBadRequest,
			wantErr:  "empty_upload",
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "file", "a.jpg", bytes.Repeat([]byte("x"), 4096))
			},
			max:      1024,
			wantCode: http.StatusRequestEntityTooLarge,
			wantErr:  "payload_too_large",
		},
		{
			name:     "staging failure",
			req:      func(t *testing.T) *http.Request { return multipartRequest(t, "file", "a.jpg", []byte("x")) },
			procErr:  errors.New("disk full"),
			wantCode: http.StatusInternalServerError,
			wantErr:  "internal",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := &App{Pipeline: &stubProcessor{err: tc.procErr}, MaxUploadBytes: tc.max, Logger: zerolog.Nop()}
			rr := httptest.NewRecorder()
			app.Predict(rr, tc.req(t))
			if rr.Code != tc.wantCode {
				t.Fatalf("unexpected status code: got %d, want %d", rr.Code, tc.wantCode)
			}
			if got := decodeBody(t, rr)["code"]; got != tc.wantErr {
				t.Fatalf("unexpected error code: got %v, want %s", got, tc.wantErr)
			}
		})
	}
}

type stubHealth struct{ err error }

func (s stubHealth) CheckHealth(context.Context) error { return s.err }

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		checker  HealthChecker
		wantCode int
		want     string
	}{
		{name: "no checker", wantCode: http.StatusOK, want: "ok"},
		{name: "healthy backend", checker: stubHealth{}, wantCode: http.StatusOK, want: "ok"},
		{name: "unreachable backend", checker: stubHealth{err: errors.New("connection refused")}, wantCode: http.StatusServiceUnavailable, want: "degraded"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := &App{DetectorName: "remote", DetectorHealth: tc.checker}
			rr := httptest.NewRecorder()
			app.Health(rr, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
			if rr.Code != tc.wantCode {
				t.Fatalf("unexpected status code: got %d, want %d", rr.Code, tc.wantCode)
			}
			payload := decodeBody(t, rr)
			if payload["status"] != tc.want || payload["detector"] != "remote" {
				t.Fatalf("unexpected payload: %#v", payload)
			}
		})
	}
}

func TestOpenAPIJSONDescribesPredict(t *testing.T) {
	rr := httptest.NewRecorder()
	(&App{}).OpenAPIJSON(rr, httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil))
	var doc struct {
		Paths map[string]any `json:"paths"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&doc); err != nil {
		t.Fatalf("decode openapi: %v", err)
	}
	if _, ok := doc.Paths["/predict"]; !ok {
		t.Fatalf("openapi document missing /predict: %v", doc.Paths)
	}
}
