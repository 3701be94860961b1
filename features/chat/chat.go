package chat

import (
	"context"
	"io"
	"log/slog"

	"scholaria/backend/internal/prompt"
	"scholaria/backend/internal/retrieval"
	"scholaria/backend/internal/stream"
	"scholaria/backend/internal/thread"
)

const systemPrompt = "You are a research assistant. Answer using the provided paper excerpts " +
	"and cite sources by their bracketed index. If the excerpts do not cover the question, say so."

const instruction = "Answer the question using the context below. Cite the excerpt numbers you rely on."

type Retriever interface {
	Search(ctx context.Context, tenant, query string, opts *retrieval.SearchOptions) ([]retrieval.Result, error)
}

type Generator interface {
	GenerateStream(ctx context.Context, msgs []prompt.Message) (<-chan stream.Delta, error)
}

type Threads interface {
	ForTenant(ctx context.Context, tenant string) (*thread.Manager, error)
}

type Service struct {
	retriever   Retriever
	generator   Generator
	threads     Threads
	tokenBudget int
	searchOpts  *retrieval.SearchOptions
}

func NewService(r Retriever, g Generator, t Threads, tokenBudget int) *Service {
	return &Service{retriever: r, generator: g, threads: t, tokenBudget: tokenBudget}
}

// WithSearchOptions overrides the retrieval defaults used by Ask.
func (s *Service) WithSearchOptions(opts *retrieval.SearchOptions) *Service {
	s.searchOpts = opts
	return s
}

// Answer holds what a single chat turn produced. Text is complete on success
// and partial when Err is set; Sources are the chunks the prompt carried.
type Answer struct {
	ThreadID string
	Text     string
	Sources  []retrieval.Result
	Err      error
}

// Ask runs one conversation turn: retrieve, assemble, generate, and stream
// deltas to sink as they arrive. Retrieval failure degrades to answering
// without context rather than failing the turn. A non-empty client-supplied
// history replaces the stored context window for this turn only; the server
// thread still records the new question and answer. Both the question and the
// answer (partial included) are appended to the tenant's thread.
func (s *Service) Ask(ctx context.Context, tenant, query string, history []thread.Message, sink io.Writer) (*Answer, error) {
	mgr, err := s.threads.ForTenant(ctx, tenant)
	if err != nil {
		return nil, err
	}

	chunks, err := s.retriever.Search(ctx, tenant, query, s.searchOpts)
	if err != nil {
		slog.WarnContext(ctx, "retrieval failed, answering without context", "error", err, "tenant", tenant)
		chunks = nil
	}

	if len(history) == 0 {
		history = mgr.ContextWindow()
	}

	pc := prompt.Assemble(prompt.Input{
		SystemPrompt: systemPrompt,
		History:      history,
		Chunks:       chunks,
		Instruction:  instruction,
		Query:        query,
		TokenBudget:  s.tokenBudget,
	})

	if err := mgr.Append(ctx, thread.Message{Role: thread.RoleUser, Content: query}); err != nil {
		slog.ErrorContext(ctx, "failed to persist user message", "error", err)
	}

	deltas, err := s.generator.GenerateStream(ctx, pc.Messages())
	if err != nil {
		return nil, err
	}

	text, relayErr := stream.Relay(ctx, deltas, sink)
	if text != "" {
		if err := mgr.Append(ctx, thread.Message{Role: thread.RoleAssistant, Content: text}); err != nil {
			slog.ErrorContext(ctx, "failed to persist assistant message", "error", err)
		}
	}

	return &Answer{
		ThreadID: mgr.ID(),
		Text:     text,
		Sources:  pc.Chunks,
		Err:      relayErr,
	}, nil
}

func (s *Service) History(ctx context.Context, tenant string) (string, []thread.Message, error) {
	mgr, err := s.threads.ForTenant(ctx, tenant)
	if err != nil {
		return "", nil, err
	}
	return mgr.ID(), mgr.History(), nil
}

func (s *Service) Clear(ctx context.Context, tenant string) (string, error) {
	mgr, err := s.threads.ForTenant(ctx, tenant)
	if err != nil {
		return "", err
	}
	if err := mgr.Clear(ctx); err != nil {
		return "", err
	}
	return mgr.ID(), nil
}
