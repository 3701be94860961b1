package prompt

import (
	"fmt"
	"strings"

	"scholaria/backend/internal/retrieval"
	"scholaria/backend/internal/text"
	"scholaria/backend/internal/thread"
)

// Message is one entry of the outbound prompt, ready for the generation
// backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Context is the assembled prompt for a single generation call. Transient,
// consumed once.
type Context struct {
	SystemPrompt string
	History      []thread.Message
	Chunks       []retrieval.Result
	Instruction  string
	Query        string
}

type Input struct {
	SystemPrompt string
	History      []thread.Message
	Chunks       []retrieval.Result // expected sorted by similarity descending
	Instruction  string
	Query        string
	TokenBudget  int
}

// Assemble builds the prompt context under the token budget. When the full
// assembly is too large, the oldest history entries go first, then the
// lowest-similarity chunks; the system prompt and the query are never
// dropped.
func Assemble(in Input) *Context {
	pc := &Context{
		SystemPrompt: in.SystemPrompt,
		History:      append([]thread.Message(nil), in.History...),
		Chunks:       retrieval.Rank(in.Chunks, len(in.Chunks), -1),
		Instruction:  in.Instruction,
		Query:        in.Query,
	}
	if in.TokenBudget <= 0 {
		return pc
	}

	for pc.TokenCount() > in.TokenBudget && len(pc.History) > 0 {
		pc.History = pc.History[1:]
	}
	for pc.TokenCount() > in.TokenBudget && len(pc.Chunks) > 0 {
		pc.Chunks = pc.Chunks[:len(pc.Chunks)-1]
	}
	return pc
}

// TokenCount is the word-token size of the rendered message list.
func (c *Context) TokenCount() int {
	total := 0
	for _, m := range c.Messages() {
		total += text.CountTokens(m.Content)
	}
	return total
}

// Messages renders the ordered outbound list:
// [system] + history + [instruction + chunks + query].
func (c *Context) Messages() []Message {
	msgs := make([]Message, 0, len(c.History)+2)
	if c.SystemPrompt != "" {
		msgs = append(msgs, Message{Role: "system", Content: c.SystemPrompt})
	}
	for _, m := range c.History {
		msgs = append(msgs, Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, Message{Role: thread.RoleUser, Content: c.userContent()})
	return msgs
}

func (c *Context) userContent() string {
	var b strings.Builder
	if c.Instruction != "" {
		b.WriteString(c.Instruction)
		b.WriteString("\n\n")
	}
	if len(c.Chunks) > 0 {
		b.WriteString("Context:\n")
		b.WriteString(FormatChunks(c.Chunks))
		b.WriteString("\n")
	}
	b.WriteString("Question: ")
	b.WriteString(c.Query)
	return b.String()
}

// FormatChunks renders retrieved chunks with an index and source identifier
// so answers can be traced back to their evidence.
func FormatChunks(chunks []retrieval.Result) string {
	var b strings.Builder
	for i, ch := range chunks {
		fmt.Fprintf(&b, "[%d] (source: %s, similarity %.2f)\n%s\n", i+1, ch.SourceID(), ch.Similarity, ch.Text)
	}
	return b.String()
}
