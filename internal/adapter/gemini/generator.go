package gemini

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"scholaria/backend/internal/prompt"
	"scholaria/backend/internal/stream"
	"scholaria/backend/internal/thread"
)

const defaultGenerationModel = "gemini-2.0-flash"

// Generator streams answers from a Gemini chat model.
type Generator struct {
	client *genai.Client
	model  string
}

func NewGenerator(ctx context.Context, apiKey string) (*Generator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Generator{client: client, model: defaultGenerationModel}, nil
}

func (g *Generator) Close() error {
	return g.client.Close()
}

// GenerateStream sends the assembled message list and returns a channel of
// incremental deltas. The channel is closed when generation completes; a
// backend failure is delivered as a final Delta carrying the error.
func (g *Generator) GenerateStream(ctx context.Context, msgs []prompt.Message) (<-chan stream.Delta, error) {
	if len(msgs) == 0 {
		return nil, errors.New("empty message list")
	}

	model := g.client.GenerativeModel(g.model)

	// Peel off a leading system message; Gemini takes it out of band.
	rest := msgs
	if rest[0].Role == "system" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(rest[0].Content)}}
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return nil, errors.New("no user message to send")
	}

	cs := model.StartChat()
	for _, m := range rest[:len(rest)-1] {
		cs.History = append(cs.History, &genai.Content{
			Role:  geminiRole(m.Role),
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	last := rest[len(rest)-1]

	iter := cs.SendMessageStream(ctx, genai.Text(last.Content))

	out := make(chan stream.Delta, 16)
	go func() {
		defer close(out)
		for {
			resp, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				slog.ErrorContext(ctx, "generation stream failed", "error", err)
				select {
				case out <- stream.Delta{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			for _, d := range responseText(resp) {
				select {
				case out <- stream.Delta{Text: d}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func geminiRole(role string) string {
	if role == thread.RoleAssistant {
		return "model"
	}
	return "user"
}

func responseText(resp *genai.GenerateContentResponse) []string {
	var parts []string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				parts = append(parts, string(t))
			}
		}
	}
	return parts
}
