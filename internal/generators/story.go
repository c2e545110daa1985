package generators

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gameforge/internal/dispatch"
	"gameforge/internal/domain"
	"gameforge/internal/providers"
)

// StoryBrief describes the narrative a caller wants generated.
type StoryBrief struct {
	Prompt   string
	GameType string
	Genre    string
	Tone     string
	Length   string // short, medium, long
	Provider string
}

// StoryGenerator produces world lore, a main arc, characters, factions and a
// chapter timeline. The main arc is required; everything else degrades to
// defaults with a warning.
type StoryGenerator struct {
	dispatcher dispatch.Caller
	order      []string
	logger     zerolog.Logger
}

// NewStoryGenerator constructs a StoryGenerator using the given text
// provider chain.
func NewStoryGenerator(dispatcher dispatch.Caller, order []string, logger zerolog.Logger) *StoryGenerator {
	return &StoryGenerator{dispatcher: dispatcher, order: order, logger: logger}
}

func (g *StoryGenerator) counts(length string) (characters, chapters int) {
	switch strings.ToLower(length) {
	case "short":
		return 2, 3
	case "long":
		return 4, 7
	default:
		return 3, 5
	}
}

// Generate runs the story pipeline. It returns an error only when the main
// arc cannot be produced; optional sections that fail come back as defaults
// with a warning recorded on the result.
func (g *StoryGenerator) Generate(ctx context.Context, brief StoryBrief) (*domain.StoryContent, error) {
	story := &domain.StoryContent{
		ID:    uuid.NewString(),
		Title: SynthesizedTitle(brief.Prompt),
	}
	characterCount, chapterCount := g.counts(brief.Length)

	arc, title, provider, err := g.mainArc(ctx, brief)
	if err != nil {
		return nil, fmt.Errorf("main story arc: %w", err)
	}
	story.MainArc = arc
	story.Provider = provider
	if title != "" {
		story.Title = title
	}

	if world, err := g.world(ctx, brief); err != nil {
		g.logger.Warn().Err(err).Msg("world lore generation failed, using defaults")
		story.Warnings = append(story.Warnings, "world lore unavailable, defaults used")
		story.World = defaultWorld(brief)
	} else {
		story.World = world
	}

	for i := 0; i < characterCount; i++ {
		ch, err := g.character(ctx, brief, story.World.Name, i)
		if err != nil {
			g.logger.Warn().Err(err).Int("index", i).Msg("character generation failed")
			story.Warnings = append(story.Warnings, fmt.Sprintf("character %d unavailable, default used", i+1))
			ch = defaultCharacter(brief, i)
		}
		story.Characters = append(story.Characters, ch)
	}

	if factions, err := g.factions(ctx, brief); err != nil {
		g.logger.Warn().Err(err).Msg("faction generation failed")
		story.Warnings = append(story.Warnings, "factions unavailable")
	} else {
		story.Factions = factions
	}

	if timeline, err := g.timeline(ctx, brief, story.MainArc, chapterCount); err != nil {
		g.logger.Warn().Err(err).Msg("timeline generation failed")
		story.Warnings = append(story.Warnings, "timeline unavailable")
	} else {
		story.Timeline = timeline
	}

	return story, nil
}

func (g *StoryGenerator) dispatchText(ctx context.Context, brief StoryBrief, prompt string) (string, string, error) {
	order := g.order
	if brief.Provider != "" {
		order = []string{brief.Provider}
	}
	resp, err := g.dispatcher.Dispatch(ctx, domain.ModalityText, providers.Request{Prompt: prompt}, order)
	if err != nil {
		return "", "", err
	}
	return resp.Text, resp.Provider, nil
}

func (g *StoryGenerator) mainArc(ctx context.Context, brief StoryBrief) (arc, title, provider string, err error) {
	prompt := fmt.Sprintf(
		"Write the main story arc for a %s %s game with a %s tone. Premise: %s. "+
			"Respond with a section labeled TITLE: and a section labeled ARC: containing 2-3 paragraphs.",
		orDefault(brief.Genre, "fantasy"), orDefault(brief.GameType, "adventure"),
		orDefault(brief.Tone, "balanced"), brief.Prompt)
	text, provider, err := g.dispatchText(ctx, brief, prompt)
	if err != nil {
		return "", "", "", err
	}
	sections := ParseLabeled(text, "ARC", "TITLE")
	arc = sections.Get("ARC", strings.TrimSpace(text))
	if arc == "" {
		return "", "", "", fmt.Errorf("%w: empty story arc", domain.ErrProviderFailure)
	}
	return arc, FirstLine(sections.Get("TITLE", "")), provider, nil
}

func (g *StoryGenerator) world(ctx context.Context, brief StoryBrief) (domain.WorldLore, error) {
	prompt := fmt.Sprintf(
		"Design the world for a %s game. Premise: %s. Respond with labeled sections "+
			"NAME:, GEOGRAPHY:, CULTURE:, HISTORY:, ATMOSPHERE:.",
		orDefault(brief.Genre, "fantasy"), brief.Prompt)
	text, _, err := g.dispatchText(ctx, brief, prompt)
	if err != nil {
		return domain.WorldLore{}, err
	}
	fallback := defaultWorld(brief)
	sections := ParseLabeled(text, "NAME", "GEOGRAPHY", "CULTURE", "HISTORY", "ATMOSPHERE")
	return domain.WorldLore{
		Name:       FirstLine(sections.Get("NAME", fallback.Name)),
		Geography:  sections.Get("GEOGRAPHY", fallback.Geography),
		Culture:    sections.Get("CULTURE", fallback.Culture),
		History:    sections.Get("HISTORY", fallback.History),
		Atmosphere: sections.Get("ATMOSPHERE", fallback.Atmosphere),
	}, nil
}

func (g *StoryGenerator) character(ctx context.Context, brief StoryBrief, worldName string, index int) (domain.Character, error) {
	role := "supporting character"
	if index == 0 {
		role = "protagonist"
	}
	prompt := fmt.Sprintf(
		"Create the %s for a %s game set in %s. Premise: %s. Respond with labeled sections "+
			"NAME:, ROLE:, DESCRIPTION:, BACKSTORY:, APPEARANCE:.",
		role, orDefault(brief.Genre, "fantasy"), orDefault(worldName, "an original world"), brief.Prompt)
	text, _, err := g.dispatchText(ctx, brief, prompt)
	if err != nil {
		return domain.Character{}, err
	}
	fallback := defaultCharacter(brief, index)
	sections := ParseLabeled(text, "NAME", "ROLE", "DESCRIPTION", "BACKSTORY", "APPEARANCE")
	return domain.Character{
		Name:        FirstLine(sections.Get("NAME", fallback.Name)),
		Role:        FirstLine(sections.Get("ROLE", fallback.Role)),
		Description: sections.Get("DESCRIPTION", fallback.Description),
		Backstory:   sections.Get("BACKSTORY", fallback.Backstory),
		Appearance:  sections.Get("APPEARANCE", fallback.Appearance),
	}, nil
}

func (g *StoryGenerator) factions(ctx context.Context, brief StoryBrief) ([]domain.Faction, error) {
	prompt := fmt.Sprintf(
		"List 3 factions for a %s game. Premise: %s. For each faction respond with labeled "+
			"sections FACTION:, IDEOLOGY:, DETAILS:.",
		orDefault(brief.Genre, "fantasy"), brief.Prompt)
	text, _, err := g.dispatchText(ctx, brief, prompt)
	if err != nil {
		return nil, err
	}
	var factions []domain.Faction
	for _, block := range splitOnLabel(text, "FACTION") {
		sections := ParseLabeled(block, "FACTION", "IDEOLOGY", "DETAILS")
		name := FirstLine(sections.Get("FACTION", ""))
		if name == "" {
			continue
		}
		factions = append(factions, domain.Faction{
			Name:        name,
			Ideology:    sections.Get("IDEOLOGY", "unknown"),
			Description: sections.Get("DETAILS", ""),
		})
	}
	return factions, nil
}

func (g *StoryGenerator) timeline(ctx context.Context, brief StoryBrief, arc string, chapters int) ([]domain.Chapter, error) {
	prompt := fmt.Sprintf(
		"Outline %d chapters for this story arc: %s. For each chapter respond with labeled "+
			"sections CHAPTER: and SUMMARY:.",
		chapters, FirstLine(arc))
	text, _, err := g.dispatchText(ctx, brief, prompt)
	if err != nil {
		return nil, err
	}
	var timeline []domain.Chapter
	for i, block := range splitOnLabel(text, "CHAPTER") {
		if i >= chapters {
			break
		}
		sections := ParseLabeled(block, "CHAPTER", "SUMMARY")
		title := FirstLine(sections.Get("CHAPTER", fmt.Sprintf("Chapter %d", i+1)))
		timeline = append(timeline, domain.Chapter{
			Title:   title,
			Summary: sections.Get("SUMMARY", ""),
		})
	}
	return timeline, nil
}

// splitOnLabel cuts text into blocks each starting at an occurrence of the
// label, so repeated labeled records can be parsed independently.
func splitOnLabel(text, label string) []string {
	re := labelStartRe(label)
	idx := re.FindAllStringIndex(text, -1)
	if len(idx) == 0 {
		return nil
	}
	blocks := make([]string, 0, len(idx))
	for i, m := range idx {
		end := len(text)
		if i+1 < len(idx) {
			end = idx[i+1][0]
		}
		blocks = append(blocks, text[m[0]:end])
	}
	return blocks
}

func defaultWorld(brief StoryBrief) domain.WorldLore {
	genre := orDefault(brief.Genre, "fantasy")
	return domain.WorldLore{
		Name:       SynthesizedTitle(brief.Prompt) + " World",
		Geography:  "Varied landscapes shaped by the story's central conflict.",
		Culture:    fmt.Sprintf("A society typical of %s settings.", genre),
		History:    "A long-ago upheaval whose consequences drive the present day.",
		Atmosphere: orDefault(brief.Tone, "balanced"),
	}
}

func defaultCharacter(brief StoryBrief, index int) domain.Character {
	if index == 0 {
		return domain.Character{
			Name:        "The Protagonist",
			Role:        "protagonist",
			Description: "The central figure of " + SynthesizedTitle(brief.Prompt) + ".",
			Backstory:   "An ordinary past interrupted by the story's inciting event.",
			Appearance:  "Distinctive enough to anchor the game's visual identity.",
		}
	}
	return domain.Character{
		Name:        fmt.Sprintf("Companion %d", index),
		Role:        "supporting character",
		Description: "An ally whose goals intersect the protagonist's.",
		Backstory:   "A history that ties them to the central conflict.",
		Appearance:  "Visually contrasted with the protagonist.",
	}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
