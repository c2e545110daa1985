package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"gameforge/internal/domain"
	"gameforge/internal/generators"
)

type stubStory struct {
	story *domain.StoryContent
	err   error
	calls int
}

func (s *stubStory) Generate(_ context.Context, _ generators.StoryBrief) (*domain.StoryContent, error) {
	s.calls++
	return s.story, s.err
}

type stubVisual struct {
	assets   []domain.GeneratedAsset
	warnings []string
	err      error
	brief    generators.VisualBrief
	calls    int
}

func (s *stubVisual) Generate(_ context.Context, brief generators.VisualBrief, _ generators.ProgressFunc) ([]domain.GeneratedAsset, []string, error) {
	s.calls++
	s.brief = brief
	return s.assets, s.warnings, s.err
}

type stubAudio struct {
	assets   []domain.GeneratedAsset
	warnings []string
	err      error
	calls    int
}

func (s *stubAudio) Generate(_ context.Context, _ generators.AudioBrief, _ generators.ProgressFunc) ([]domain.GeneratedAsset, []string, error) {
	s.calls++
	return s.assets, s.warnings, s.err
}

func sampleStory() *domain.StoryContent {
	return &domain.StoryContent{
		ID:      "story-1",
		Title:   "The Hollow Crown",
		MainArc: "An heir returns.",
		World:   domain.WorldLore{Name: "Vexholm", Geography: "Fjords", Atmosphere: "grim"},
		Characters: []domain.Character{
			{Name: "Asta", Appearance: "Scarred shieldmaiden"},
		},
	}
}

func imageAssets(n int) []domain.GeneratedAsset {
	out := make([]domain.GeneratedAsset, n)
	for i := range out {
		out[i] = domain.GeneratedAsset{ID: "a", Type: domain.ModalityImage}
	}
	return out
}

func TestComposeProjectAllPipelines(t *testing.T) {
	story := &stubStory{story: sampleStory()}
	visual := &stubVisual{assets: imageAssets(2)}
	audio := &stubAudio{assets: []domain.GeneratedAsset{{ID: "m", Type: domain.ModalityAudio}}}
	o := New(story, visual, audio, zerolog.Nop())

	artifact := o.ComposeProject(context.Background(), ProjectRequest{
		Prompt:          "a norse kingdom",
		GenerateStory:   true,
		GenerateVisuals: true,
		GenerateAudio:   true,
	})
	if !artifact.Report.Success {
		t.Fatalf("expected success, errors: %v", artifact.Report.Errors)
	}
	if artifact.Name != "The Hollow Crown" {
		t.Errorf("Name = %q", artifact.Name)
	}
	if artifact.Story == nil || len(artifact.VisualAssets) != 2 || len(artifact.AudioAssets) != 1 {
		t.Fatalf("artifact incomplete: %+v", artifact)
	}
	counts := artifact.Report.AssetCounts
	if counts["story"] != 1 || counts["visual"] != 2 || counts["audio"] != 1 {
		t.Errorf("counts = %v", counts)
	}
	// The visual brief is synthesized from the story: the first character
	// becomes the character sprite request.
	if len(visual.brief.Items) == 0 || !strings.Contains(visual.brief.Items[0].Prompt, "Asta") {
		t.Errorf("visual brief not derived from story: %+v", visual.brief.Items)
	}
}

func TestComposeProjectAudioFailureIsIsolated(t *testing.T) {
	story := &stubStory{story: sampleStory()}
	visual := &stubVisual{assets: imageAssets(2)}
	audio := &stubAudio{err: errors.New("audio provider down")}
	o := New(story, visual, audio, zerolog.Nop())

	artifact := o.ComposeProject(context.Background(), ProjectRequest{
		Prompt:          "a norse kingdom",
		GenerateStory:   true,
		GenerateVisuals: true,
		GenerateAudio:   true,
	})
	if artifact.Report.Success {
		t.Fatal("expected failure report")
	}
	if len(artifact.VisualAssets) != 2 {
		t.Fatalf("visual assets lost: %d", len(artifact.VisualAssets))
	}
	if len(artifact.Report.Errors) != 1 || !strings.Contains(artifact.Report.Errors[0], "audio") {
		t.Fatalf("errors = %v", artifact.Report.Errors)
	}
}

func TestComposeProjectStoryFailureStillRunsOthers(t *testing.T) {
	story := &stubStory{err: errors.New("all text providers down")}
	visual := &stubVisual{assets: imageAssets(1)}
	audio := &stubAudio{assets: []domain.GeneratedAsset{{ID: "m"}}}
	o := New(story, visual, audio, zerolog.Nop())

	artifact := o.ComposeProject(context.Background(), ProjectRequest{
		Prompt:          "a desert saga",
		GenerateStory:   true,
		GenerateVisuals: true,
		GenerateAudio:   true,
	})
	if visual.calls != 1 || audio.calls != 1 {
		t.Fatal("remaining pipelines must still run")
	}
	if artifact.Story != nil {
		t.Error("story should be absent")
	}
	// Without story content the brief falls back to the raw prompt.
	if len(visual.brief.Items) == 0 || !strings.Contains(visual.brief.Items[0].Prompt, "a desert saga") {
		t.Errorf("visual brief = %+v", visual.brief.Items)
	}
	if artifact.Name == "" {
		t.Error("artifact name should be synthesized")
	}
}

func TestComposeProjectWarningsDoNotFailReport(t *testing.T) {
	story := &stubStory{story: sampleStory()}
	visual := &stubVisual{
		assets:   imageAssets(1),
		warnings: []string{"fell back to replicate for 1 item"},
	}
	audio := &stubAudio{
		assets:   []domain.GeneratedAsset{{ID: "m", Type: domain.ModalityAudio}},
		warnings: []string{"theme truncated to 30 seconds"},
	}
	o := New(story, visual, audio, zerolog.Nop())

	artifact := o.ComposeProject(context.Background(), ProjectRequest{
		Prompt:          "a norse kingdom",
		GenerateStory:   true,
		GenerateVisuals: true,
		GenerateAudio:   true,
	})
	if !artifact.Report.Success {
		t.Fatalf("warnings must not fail the report, errors: %v", artifact.Report.Errors)
	}
	if len(artifact.Report.Errors) != 0 {
		t.Fatalf("errors = %v", artifact.Report.Errors)
	}
	if len(artifact.Report.Warnings) != 2 {
		t.Fatalf("warnings = %v", artifact.Report.Warnings)
	}
}

func TestComposeProjectDisabledPipelines(t *testing.T) {
	story := &stubStory{story: sampleStory()}
	visual := &stubVisual{}
	audio := &stubAudio{}
	o := New(story, visual, audio, zerolog.Nop())

	artifact := o.ComposeProject(context.Background(), ProjectRequest{
		Prompt:        "story only",
		GenerateStory: true,
	})
	if visual.calls != 0 || audio.calls != 0 {
		t.Fatal("disabled pipelines must not run")
	}
	if !artifact.Report.Success {
		t.Fatalf("errors = %v", artifact.Report.Errors)
	}
	if artifact.Report.AssetCounts["visual"] != 0 || artifact.Report.AssetCounts["story"] != 1 {
		t.Errorf("counts = %v", artifact.Report.AssetCounts)
	}
}
