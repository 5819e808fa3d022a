package synthesize

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/pokerag/internal/domain/answer"
	"github.com/kailas-cloud/pokerag/internal/domain/search/mode"
	"github.com/kailas-cloud/pokerag/internal/text"
)

const preamble = `You are an assistant for question-answering tasks about Pokémon.
Use only the following context to answer the question.
If the context does not contain the answer, say that you don't know.`

const emptyContextNotice = `No context documents matched this question.
Say that you don't know instead of answering from memory.`

var instructions = map[mode.Mode]string{
	mode.Normal:  "Use five sentences maximum, at least three, and keep the answer concise.",
	mode.Engaged: "Give a detailed, structured answer: open with a direct reply, then cover each relevant fact from the context in its own short paragraph or bullet.",
}

// Budget caps the context text placed in a prompt. Zero disables a limit.
type Budget struct {
	Tokens int
	Chars  int
}

func (b Budget) fits(tokens, chars int) bool {
	return (b.Tokens <= 0 || tokens <= b.Tokens) && (b.Chars <= 0 || chars <= b.Chars)
}

// Prompt is a rendered prompt with the context window that went into it.
type Prompt struct {
	Text     string
	Included []answer.ContextDoc
	Dropped  []string
}

// BuildPrompt renders question and ranked context docs under budget.
// Documents are kept in rank order until the budget runs out; the rest are
// dropped. A top document that alone exceeds the budget is truncated.
func BuildPrompt(question string, m mode.Mode, docs []answer.ContextDoc, budget Budget) Prompt {
	included, dropped := pack(docs, budget)

	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n")
	b.WriteString(Instruction(m))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Question: %s\n\n", strings.TrimSpace(question))
	if len(included) == 0 {
		b.WriteString(emptyContextNotice)
		b.WriteString("\n\n")
	} else {
		b.WriteString("Context:\n")
		for i, d := range included {
			fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, d.Title, d.Text)
		}
	}
	b.WriteString("Answer:")

	return Prompt{Text: b.String(), Included: included, Dropped: dropped}
}

// Instruction returns the verbosity instruction for m. Unknown modes read as normal.
func Instruction(m mode.Mode) string {
	if s, ok := instructions[m]; ok {
		return s
	}
	return instructions[mode.Normal]
}

func pack(docs []answer.ContextDoc, budget Budget) (included []answer.ContextDoc, dropped []string) {
	var tokens, chars int
	for i, d := range docs {
		if strings.TrimSpace(d.Text) == "" {
			dropped = append(dropped, d.ID)
			continue
		}
		t, c := text.EstimateTokens(d.Text), len(d.Text)
		if budget.fits(tokens+t, chars+c) {
			included = append(included, d)
			tokens, chars = tokens+t, chars+c
			continue
		}
		if len(included) == 0 {
			d.Text = truncate(d.Text, budget)
			if d.Text != "" {
				included = append(included, d)
			} else {
				dropped = append(dropped, d.ID)
			}
		} else {
			dropped = append(dropped, d.ID)
		}
		for _, rest := range docs[i+1:] {
			dropped = append(dropped, rest.ID)
		}
		break
	}
	return included, dropped
}

// truncate cuts s at a word boundary so that it fits budget.
func truncate(s string, budget Budget) string {
	words := strings.Fields(s)
	var b strings.Builder
	for _, w := range words {
		next := w
		if b.Len() > 0 {
			next = " " + w
		}
		candidate := b.String() + next
		if !budget.fits(text.EstimateTokens(candidate), len(candidate)) {
			break
		}
		b.WriteString(next)
	}
	return b.String()
}
