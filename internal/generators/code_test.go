package generators

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"gameforge/internal/domain"
	"gameforge/internal/providers"
)

type fixedCaller struct {
	text string
	err  error
}

func (c *fixedCaller) Dispatch(_ context.Context, _ domain.Modality, _ providers.Request, _ []string) (*providers.RawResponse, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &providers.RawResponse{Provider: "stub", Text: c.text}, nil
}

func TestCodeGeneratorExtractsFencedBlock(t *testing.T) {
	caller := &fixedCaller{text: "Here you go:\n```gdscript\nfunc jump():\n    velocity.y = -300\n```"}
	g := NewCodeGenerator(caller, []string{"stub"}, zerolog.Nop())

	result, err := g.Generate(context.Background(), CodeBrief{Prompt: "player jump", Language: "gdscript"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Code != "func jump():\n    velocity.y = -300" {
		t.Errorf("Code = %q", result.Code)
	}
	if result.Language != "gdscript" || result.Provider != "stub" || result.ID == "" {
		t.Errorf("result = %+v", result)
	}
}

func TestCodeGeneratorBareCode(t *testing.T) {
	caller := &fixedCaller{text: "def update(dt):\n    pass"}
	g := NewCodeGenerator(caller, []string{"stub"}, zerolog.Nop())

	result, err := g.Generate(context.Background(), CodeBrief{Prompt: "update loop", Language: "python"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Code != "def update(dt):\n    pass" {
		t.Errorf("Code = %q", result.Code)
	}
}

func TestCodeGeneratorDispatchFailure(t *testing.T) {
	caller := &fixedCaller{err: errors.New("chain exhausted")}
	g := NewCodeGenerator(caller, []string{"stub"}, zerolog.Nop())

	if _, err := g.Generate(context.Background(), CodeBrief{Prompt: "anything"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestCodeGeneratorEmptyOutput(t *testing.T) {
	caller := &fixedCaller{text: "   "}
	g := NewCodeGenerator(caller, []string{"stub"}, zerolog.Nop())

	if _, err := g.Generate(context.Background(), CodeBrief{Prompt: "anything"}); !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("expected ErrProviderFailure, got %v", err)
	}
}
