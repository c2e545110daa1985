package generators

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"gameforge/internal/domain"
	"gameforge/internal/providers"
)

// scriptedCaller answers dispatch calls by matching a substring of the
// prompt, so each pipeline step can be scripted independently.
type scriptedCaller struct {
	responses map[string]string
	errs      map[string]error
	calls     []providers.Request
	orders    [][]string
}

func (c *scriptedCaller) Dispatch(_ context.Context, _ domain.Modality, req providers.Request, order []string) (*providers.RawResponse, error) {
	c.calls = append(c.calls, req)
	c.orders = append(c.orders, order)
	for key, err := range c.errs {
		if strings.Contains(req.Prompt, key) {
			return nil, err
		}
	}
	for key, text := range c.responses {
		if strings.Contains(req.Prompt, key) {
			return &providers.RawResponse{Provider: "stub", Text: text}, nil
		}
	}
	return &providers.RawResponse{Provider: "stub", Text: "unscripted"}, nil
}

func TestStoryGeneratorParsesSections(t *testing.T) {
	caller := &scriptedCaller{responses: map[string]string{
		"main story arc": "TITLE: The Hollow Crown\nARC: A fallen kingdom seeks its heir.",
		"Design the world": "NAME: Vexholm\nGEOGRAPHY: Fjords.\nCULTURE: Clans.\nHISTORY: War.\nATMOSPHERE: grim",
		"protagonist":      "NAME: Asta\nROLE: protagonist\nDESCRIPTION: A shieldmaiden.\nBACKSTORY: Exiled.\nAPPEARANCE: Scarred.",
		"List 3 factions":  "FACTION: Ironpact\nIDEOLOGY: Order\nDETAILS: Soldiers.\nFACTION: The Veil\nIDEOLOGY: Secrets\nDETAILS: Spies.",
		"Outline":          "CHAPTER: Landfall\nSUMMARY: Arrival.\nCHAPTER: The Thaw\nSUMMARY: Alliances form.",
	}}
	g := NewStoryGenerator(caller, []string{"stub"}, zerolog.Nop())

	story, err := g.Generate(context.Background(), StoryBrief{Prompt: "a norse kingdom", Length: "short"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if story.Title != "The Hollow Crown" {
		t.Errorf("Title = %q", story.Title)
	}
	if story.MainArc != "A fallen kingdom seeks its heir." {
		t.Errorf("MainArc = %q", story.MainArc)
	}
	if story.World.Name != "Vexholm" || story.World.Atmosphere != "grim" {
		t.Errorf("World = %+v", story.World)
	}
	if len(story.Characters) != 2 {
		t.Fatalf("expected 2 characters, got %d", len(story.Characters))
	}
	if story.Characters[0].Name != "Asta" {
		t.Errorf("protagonist = %+v", story.Characters[0])
	}
	if len(story.Factions) != 2 || story.Factions[0].Name != "Ironpact" {
		t.Errorf("Factions = %+v", story.Factions)
	}
	if len(story.Timeline) != 2 || story.Timeline[0].Title != "Landfall" {
		t.Errorf("Timeline = %+v", story.Timeline)
	}
	if len(story.Warnings) != 0 {
		t.Errorf("unexpected warnings %v", story.Warnings)
	}
}

func TestStoryGeneratorMainArcFailureIsFatal(t *testing.T) {
	caller := &scriptedCaller{errs: map[string]error{
		"main story arc": errors.New("all providers down"),
	}}
	g := NewStoryGenerator(caller, []string{"stub"}, zerolog.Nop())

	if _, err := g.Generate(context.Background(), StoryBrief{Prompt: "anything"}); err == nil {
		t.Fatal("expected error when main arc fails")
	}
}

func TestStoryGeneratorOptionalFailuresBecomeWarnings(t *testing.T) {
	caller := &scriptedCaller{
		responses: map[string]string{
			"main story arc": "ARC: The arc survives.",
		},
		errs: map[string]error{
			"Design the world": errors.New("world down"),
			"List 3 factions":  errors.New("factions down"),
			"Outline":          errors.New("timeline down"),
		},
	}
	g := NewStoryGenerator(caller, []string{"stub"}, zerolog.Nop())

	story, err := g.Generate(context.Background(), StoryBrief{Prompt: "a desert saga", Length: "short"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if story.MainArc != "The arc survives." {
		t.Errorf("MainArc = %q", story.MainArc)
	}
	// Defaults fill the gaps so the structure stays well-formed.
	if story.World.Name == "" {
		t.Error("expected default world name")
	}
	if len(story.Characters) != 2 {
		t.Errorf("expected default characters, got %d", len(story.Characters))
	}
	if len(story.Warnings) < 3 {
		t.Errorf("expected warnings for each failed section, got %v", story.Warnings)
	}
}

func TestStoryGeneratorProviderOverride(t *testing.T) {
	caller := &scriptedCaller{responses: map[string]string{
		"main story arc": "ARC: ok",
	}}
	g := NewStoryGenerator(caller, []string{"huggingface", "replicate"}, zerolog.Nop())

	_, err := g.Generate(context.Background(), StoryBrief{Prompt: "x", Provider: "replicate", Length: "short"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, order := range caller.orders {
		if len(order) != 1 || order[0] != "replicate" {
			t.Fatalf("expected pinned provider chain, got %v", order)
		}
	}
}
