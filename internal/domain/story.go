package domain

// WorldLore is the structured description of the game world extracted from
// unstructured model output. Every field is always populated; sections the
// model omitted are filled with synthesized defaults.
type WorldLore struct {
	Name       string `json:"name"`
	Geography  string `json:"geography"`
	Culture    string `json:"culture"`
	History    string `json:"history"`
	Atmosphere string `json:"atmosphere"`
}

// Character is one cast member of the generated story.
type Character struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
	Backstory   string `json:"backstory"`
	Appearance  string `json:"appearance"`
}

// Chapter is one entry of the story timeline.
type Chapter struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Faction is an optional political or social group in the world.
type Faction struct {
	Name        string `json:"name"`
	Ideology    string `json:"ideology"`
	Description string `json:"description"`
}

// StoryContent aggregates everything the story pipeline produced. Factions and
// Timeline are optional sub-steps: when their generation fails the fields stay
// empty and a warning is recorded instead of an error.
type StoryContent struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	World      WorldLore   `json:"world"`
	MainArc    string      `json:"main_arc"`
	Characters []Character `json:"characters"`
	Factions   []Faction   `json:"factions,omitempty"`
	Timeline   []Chapter   `json:"timeline,omitempty"`
	Warnings   []string    `json:"warnings,omitempty"`
	Provider   string      `json:"provider"`
}
