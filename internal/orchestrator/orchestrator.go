// Package orchestrator composes story, visual and audio generation into a
// single project artifact. Sub-pipelines run independently: a failure in one
// becomes a report entry and never stops the others.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gameforge/internal/domain"
	"gameforge/internal/generators"
)

// ProjectRequest describes one project composition.
type ProjectRequest struct {
	Name            string
	Prompt          string
	GameType        string
	Genre           string
	Tone            string
	ArtStyle        string
	Provider        string
	GenerateStory   bool
	GenerateVisuals bool
	GenerateAudio   bool
}

// StoryMaker, VisualMaker and AudioMaker are the narrow generator surfaces
// the orchestrator composes over.
type StoryMaker interface {
	Generate(ctx context.Context, brief generators.StoryBrief) (*domain.StoryContent, error)
}

type VisualMaker interface {
	Generate(ctx context.Context, brief generators.VisualBrief, onProgress generators.ProgressFunc) ([]domain.GeneratedAsset, []string, error)
}

type AudioMaker interface {
	Generate(ctx context.Context, brief generators.AudioBrief, onProgress generators.ProgressFunc) ([]domain.GeneratedAsset, []string, error)
}

// Orchestrator runs the project composition state machine.
type Orchestrator struct {
	story  StoryMaker
	visual VisualMaker
	audio  AudioMaker
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs an Orchestrator.
func New(story StoryMaker, visual VisualMaker, audio AudioMaker, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{story: story, visual: visual, audio: audio, logger: logger, now: time.Now}
}

// ComposeProject runs the enabled sub-pipelines in sequence: story first,
// since visual and audio briefs are synthesized from its output, then
// visuals, then audio. The artifact is always returned; the report carries
// whatever went wrong.
func (o *Orchestrator) ComposeProject(ctx context.Context, req ProjectRequest) *domain.GameProjectArtifact {
	start := o.now()
	artifact := &domain.GameProjectArtifact{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CreatedAt: start.UTC(),
	}
	report := &artifact.Report

	if req.GenerateStory {
		story, err := o.story.Generate(ctx, generators.StoryBrief{
			Prompt:   req.Prompt,
			GameType: req.GameType,
			Genre:    req.Genre,
			Tone:     req.Tone,
			Provider: req.Provider,
		})
		if err != nil {
			o.logger.Error().Err(err).Msg("story pipeline failed")
			report.Errors = append(report.Errors, fmt.Sprintf("story generation failed: %v", err))
		} else {
			artifact.Story = story
			report.Warnings = append(report.Warnings, story.Warnings...)
			if artifact.Name == "" {
				artifact.Name = story.Title
			}
		}
	}
	if artifact.Name == "" {
		artifact.Name = generators.SynthesizedTitle(req.Prompt)
	}

	if req.GenerateVisuals {
		brief := generators.VisualBrief{
			Items:    o.visualItems(req, artifact.Story),
			Provider: req.Provider,
		}
		assets, warnings, err := o.visual.Generate(ctx, brief, nil)
		report.Warnings = append(report.Warnings, warnings...)
		if err != nil {
			o.logger.Error().Err(err).Msg("visual pipeline failed")
			report.Errors = append(report.Errors, fmt.Sprintf("visual generation failed: %v", err))
		} else {
			artifact.VisualAssets = assets
		}
		artifact.StyleGuides = styleGuides(req)
	}

	if req.GenerateAudio {
		brief := generators.AudioBrief{
			Items:    o.audioItems(req, artifact.Story),
			Provider: req.Provider,
		}
		assets, warnings, err := o.audio.Generate(ctx, brief, nil)
		report.Warnings = append(report.Warnings, warnings...)
		if err != nil {
			o.logger.Error().Err(err).Msg("audio pipeline failed")
			report.Errors = append(report.Errors, fmt.Sprintf("audio generation failed: %v", err))
		} else {
			artifact.AudioAssets = assets
		}
	}

	o.finalize(artifact, start)
	return artifact
}

// visualItems synthesizes the visual brief, preferring story content over
// the raw prompt: the first generated character becomes the character
// sprite, the world becomes the environment shot.
func (o *Orchestrator) visualItems(req ProjectRequest, story *domain.StoryContent) []generators.AssetItem {
	style := req.ArtStyle
	if story != nil && len(story.Characters) > 0 {
		hero := story.Characters[0]
		items := []generators.AssetItem{
			{
				AssetType: domain.AssetTypeCharacter,
				Prompt:    fmt.Sprintf("character sprite of %s: %s", hero.Name, hero.Appearance),
				Style:     style,
				Priority:  domain.PriorityHigh,
			},
			{
				AssetType: domain.AssetTypeEnvironment,
				Prompt:    fmt.Sprintf("environment art of %s: %s", story.World.Name, story.World.Geography),
				Style:     style,
				Priority:  domain.PriorityMedium,
			},
		}
		return items
	}
	return []generators.AssetItem{
		{
			AssetType: domain.AssetTypeCharacter,
			Prompt:    "main character for: " + req.Prompt,
			Style:     style,
			Priority:  domain.PriorityHigh,
		},
		{
			AssetType: domain.AssetTypeEnvironment,
			Prompt:    "primary environment for: " + req.Prompt,
			Style:     style,
			Priority:  domain.PriorityMedium,
		},
	}
}

func (o *Orchestrator) audioItems(req ProjectRequest, story *domain.StoryContent) []generators.AssetItem {
	mood := req.Tone
	if mood == "" && story != nil {
		mood = story.World.Atmosphere
	}
	if mood == "" {
		mood = "adventurous"
	}
	return []generators.AssetItem{
		{
			AssetType: domain.AssetTypeMusic,
			Prompt:    fmt.Sprintf("%s theme music for: %s", mood, req.Prompt),
			Priority:  domain.PriorityHigh,
		},
	}
}

func styleGuides(req ProjectRequest) []string {
	style := req.ArtStyle
	if style == "" {
		style = "consistent original art direction"
	}
	return []string{
		fmt.Sprintf("Art direction: %s.", style),
		"Keep palette and proportions consistent across all generated assets.",
	}
}

func (o *Orchestrator) finalize(artifact *domain.GameProjectArtifact, start time.Time) {
	report := &artifact.Report
	report.Success = len(report.Errors) == 0
	report.AssetCounts = map[string]int{
		"visual": len(artifact.VisualAssets),
		"audio":  len(artifact.AudioAssets),
	}
	if artifact.Story != nil {
		report.AssetCounts["story"] = 1
	}
	if !report.Success {
		report.Suggestions = append(report.Suggestions,
			"Retry the failed pipelines individually; successful content is already part of the artifact.")
	}
	report.ElapsedMS = o.now().Sub(start).Milliseconds()
}
