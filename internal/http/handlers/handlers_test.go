package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"gameforge/internal/domain"
	"gameforge/internal/generators"
	"gameforge/internal/governor"
	"gameforge/internal/jobs"
	"gameforge/internal/orchestrator"
)

type stubStory struct {
	story *domain.StoryContent
	err   error
}

func (s *stubStory) Generate(context.Context, generators.StoryBrief) (*domain.StoryContent, error) {
	return s.story, s.err
}

type stubVisual struct {
	assets []domain.GeneratedAsset
	err    error
	calls  int
}

func (s *stubVisual) Generate(_ context.Context, brief generators.VisualBrief, onProgress generators.ProgressFunc) ([]domain.GeneratedAsset, []string, error) {
	s.calls++
	if onProgress != nil {
		for i := range brief.Items {
			onProgress(i, len(brief.Items), "working")
		}
	}
	return s.assets, nil, s.err
}

type stubAudio struct {
	assets []domain.GeneratedAsset
	err    error
}

func (s *stubAudio) Generate(context.Context, generators.AudioBrief, generators.ProgressFunc) ([]domain.GeneratedAsset, []string, error) {
	return s.assets, nil, s.err
}

type stubCode struct {
	result *generators.CodeResult
	err    error
}

func (s *stubCode) Generate(context.Context, generators.CodeBrief) (*generators.CodeResult, error) {
	return s.result, s.err
}

type stubComposer struct {
	artifact *domain.GameProjectArtifact
}

func (s *stubComposer) ComposeProject(context.Context, orchestrator.ProjectRequest) *domain.GameProjectArtifact {
	return s.artifact
}

type stubHealth struct{ healthy bool }

func (s *stubHealth) Healthy(context.Context) bool { return s.healthy }

func newTestApp() (*App, *governor.Governor) {
	gov := governor.New(governor.Config{RequestsPerMinute: 100, MaxConcurrent: 100}, zerolog.Nop())
	app := &App{
		Logger:         zerolog.Nop(),
		Governor:       gov,
		Tracker:        jobs.NewTracker(nil),
		Story:          &stubStory{},
		Visual:         &stubVisual{},
		Audio:          &stubAudio{},
		Code:           &stubCode{},
		Orchestrator:   &stubComposer{},
		ImageOrder:     []string{"assetgen", "huggingface", "replicate"},
		MaxBatch:       10,
		ProgressConfig: jobs.DefaultProgressConfig,
		BackgroundCtx:  context.Background(),
	}
	return app, gov
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope
}

func imageAssets(n int, provider string) []domain.GeneratedAsset {
	out := make([]domain.GeneratedAsset, n)
	for i := range out {
		out[i] = domain.GeneratedAsset{
			ID:   "asset",
			Type: domain.ModalityImage,
			URL:  "https://cdn.test/a.png",
			Metadata: domain.AssetMetadata{
				Provider: provider,
			},
		}
	}
	return out
}

func TestGenerateStorySuccess(t *testing.T) {
	app, _ := newTestApp()
	app.Story = &stubStory{story: &domain.StoryContent{ID: "s1", Title: "A Tale", Provider: "huggingface"}}

	rec := postJSON(t, app.GenerateStory, `{"prompt":"a tale"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	envelope := decodeEnvelope(t, rec)
	if envelope["success"] != true {
		t.Fatalf("envelope %v", envelope)
	}
	data := envelope["data"].(map[string]any)
	if data["id"] != "s1" {
		t.Fatalf("data %v", data)
	}
}

func TestGenerateStoryValidation(t *testing.T) {
	app, _ := newTestApp()
	rec := postJSON(t, app.GenerateStory, `{"prompt":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope["success"] != false {
		t.Fatalf("envelope %v", envelope)
	}
	errObj := envelope["error"].(map[string]any)
	if errObj["message"] == "" {
		t.Fatal("error message missing")
	}
}

func TestGenerateAssetsSyncWhenLocalInferenceUnhealthy(t *testing.T) {
	app, _ := newTestApp()
	app.LocalInference = &stubHealth{healthy: false}
	app.Visual = &stubVisual{assets: imageAssets(2, "huggingface")}

	rec := postJSON(t, app.GenerateAssets, `{"prompt":"goblin","assetType":"character","count":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	assets := data["assets"].([]any)
	if len(assets) != 2 {
		t.Fatalf("assets %v", assets)
	}
	meta := data["metadata"].(map[string]any)
	if meta["provider"] != "huggingface" {
		t.Fatalf("metadata %v", meta)
	}
}

func TestGenerateAssetsAsyncWhenLocalInferenceHealthy(t *testing.T) {
	app, _ := newTestApp()
	app.LocalInference = &stubHealth{healthy: true}
	visual := &stubVisual{assets: imageAssets(1, "assetgen")}
	app.Visual = visual

	rec := postJSON(t, app.GenerateAssets, `{"prompt":"goblin","assetType":"character"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	jobID, _ := data["jobId"].(string)
	if jobID == "" || data["status"] != "processing" {
		t.Fatalf("data %v", data)
	}
	if data["trackingUrl"] != "/api/ai/jobs/"+jobID {
		t.Fatalf("trackingUrl %v", data["trackingUrl"])
	}

	// The background goroutine completes the job.
	deadline := time.Now().Add(2 * time.Second)
	for {
		job, err := app.Tracker.Get(context.Background(), jobID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if job.Status == domain.JobStatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never completed: %+v", job)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestGenerateAssetsRejectsUnknownType(t *testing.T) {
	app, _ := newTestApp()
	rec := postJSON(t, app.GenerateAssets, `{"prompt":"x","assetType":"castle"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestGenerateAssetsAudioUsesAudioGenerator(t *testing.T) {
	app, _ := newTestApp()
	app.LocalInference = &stubHealth{healthy: true}
	app.Audio = &stubAudio{assets: []domain.GeneratedAsset{{
		ID: "m", Type: domain.ModalityAudio, URL: "https://cdn.test/m.mp3",
		Metadata: domain.AssetMetadata{Provider: "replicate"},
	}}}

	// Music is an audio asset, so the async image path does not apply even
	// with a healthy local service.
	rec := postJSON(t, app.GenerateAssets, `{"prompt":"battle theme","assetType":"music"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	if _, ok := data["assets"]; !ok {
		t.Fatalf("expected sync payload, got %v", data)
	}
}

func TestGenerateAssetsAllProvidersFailed(t *testing.T) {
	app, _ := newTestApp()
	app.Visual = &stubVisual{err: errors.New("all providers failed")}

	rec := postJSON(t, app.GenerateAssets, `{"prompt":"x","assetType":"item"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope["success"] != false {
		t.Fatalf("envelope %v", envelope)
	}
}

func TestGetJobLifecycle(t *testing.T) {
	app, _ := newTestApp()
	job := app.Tracker.Create(context.Background(), domain.AssetTypeCharacter, "a goblin")

	router := chi.NewRouter()
	router.Get("/api/ai/jobs/{jobID}", app.GetJob)

	req := httptest.NewRequest(http.MethodGet, "/api/ai/jobs/"+job.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["jobId"] != job.ID || data["status"] != "started" {
		t.Fatalf("data %v", data)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/ai/jobs/missing", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing job status %d", rec.Code)
	}
}

func TestGenerateCode(t *testing.T) {
	app, _ := newTestApp()
	app.Code = &stubCode{result: &generators.CodeResult{ID: "c1", Code: "print()", Language: "python", Provider: "huggingface"}}

	rec := postJSON(t, app.GenerateCode, `{"prompt":"hello","language":"python"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["code"] != "print()" {
		t.Fatalf("data %v", data)
	}
}

func TestComposeProjectReportsPartialFailure(t *testing.T) {
	app, _ := newTestApp()
	app.Orchestrator = &stubComposer{artifact: &domain.GameProjectArtifact{
		ID:           "p1",
		VisualAssets: imageAssets(2, "huggingface"),
		Report: domain.GenerationReport{
			Success: false,
			Errors:  []string{"audio generation failed: provider down"},
		},
	}}

	rec := postJSON(t, app.ComposeProject, `{"prompt":"a norse kingdom"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope["success"] != true {
		t.Fatalf("transport envelope should succeed: %v", envelope)
	}
}

func TestUsageEndpoint(t *testing.T) {
	app, gov := newTestApp()
	_ = gov.Reserve()
	gov.Release(0.5)

	req := httptest.NewRequest(http.MethodGet, "/api/ai/usage", nil)
	rec := httptest.NewRecorder()
	app.Usage(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["totalCostUsd"].(float64) != 0.5 {
		t.Fatalf("data %v", data)
	}
}

func TestRateLimitedChainMapsTo429(t *testing.T) {
	app, _ := newTestApp()
	app.Story = &stubStory{err: governor.ErrRateLimited}

	rec := postJSON(t, app.GenerateStory, `{"prompt":"x"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d", rec.Code)
	}
}
