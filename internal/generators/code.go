package generators

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gameforge/internal/dispatch"
	"gameforge/internal/domain"
	"gameforge/internal/providers"
)

// CodeBrief describes a code generation request.
type CodeBrief struct {
	Prompt     string
	Language   string
	Framework  string
	GameType   string
	Complexity string
	Provider   string
}

// CodeResult is generated game code plus how it was produced.
type CodeResult struct {
	ID       string
	Code     string
	Language string
	Provider string
}

// CodeGenerator produces game scripts through the text provider chain and
// extracts the code block from the model's answer.
type CodeGenerator struct {
	dispatcher dispatch.Caller
	order      []string
	logger     zerolog.Logger
}

// NewCodeGenerator constructs a CodeGenerator.
func NewCodeGenerator(dispatcher dispatch.Caller, order []string, logger zerolog.Logger) *CodeGenerator {
	return &CodeGenerator{dispatcher: dispatcher, order: order, logger: logger}
}

// Generate runs the request. Code is required output, so an empty or failed
// response is a hard error.
func (g *CodeGenerator) Generate(ctx context.Context, brief CodeBrief) (*CodeResult, error) {
	language := orDefault(brief.Language, "gdscript")
	prompt := fmt.Sprintf(
		"Write %s %s code for a %s game: %s. Target complexity: %s. "+
			"Answer with a single fenced code block.",
		orDefault(brief.Complexity, "simple"), language,
		orDefault(brief.GameType, "2d"), brief.Prompt,
		orDefault(brief.Complexity, "simple"))
	if brief.Framework != "" {
		prompt = fmt.Sprintf("%s Use the %s framework.", prompt, brief.Framework)
	}

	order := g.order
	if brief.Provider != "" {
		order = []string{brief.Provider}
	}
	resp, err := g.dispatcher.Dispatch(ctx, domain.ModalityCode, providers.Request{Prompt: prompt}, order)
	if err != nil {
		return nil, err
	}
	code := ExtractCode(resp.Text)
	if code == "" {
		return nil, fmt.Errorf("%w: model returned no code", domain.ErrProviderFailure)
	}
	return &CodeResult{
		ID:       uuid.NewString(),
		Code:     code,
		Language: language,
		Provider: resp.Provider,
	}, nil
}
