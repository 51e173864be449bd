package rag

import (
	"fmt"
	"strings"

	"github.com/poiesic/quanta/core"
)

const systemPrompt = `You are a source-grounded research assistant. Your responses must be based ONLY on the provided context.

IMPORTANT RULES:
1. Only answer using information from the provided CONTEXT
2. If the answer is not found in the context, say "` + NotFoundResponse + `"
3. Always include inline citations like [1], [2], [3] that reference the source chunks
4. Be concise but thorough
5. If comparing multiple documents, create a clear comparison with citations
6. Do not make up or infer information not present in the context`

// historyTurns is how many trailing chat messages are carried into the prompt.
const historyTurns = 4

// Message is one prior turn of the conversation.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// BuildPrompt renders the grounded-answer prompt: numbered context blocks in
// hit order (the numbering the citation markers index into), the tail of the
// chat history, and the user's query.
func BuildPrompt(query string, hits []*core.SearchHit, history []Message) string {
	var context strings.Builder
	for i, hit := range hits {
		source := fmt.Sprintf("[%d] Source: ", i+1)
		if hit.Location.Page > 0 {
			source += fmt.Sprintf("Page %d", hit.Location.Page)
		}
		if len(hit.Headings) > 0 {
			source += " - " + strings.Join(hit.Headings, " > ")
		}
		context.WriteString(source)
		context.WriteString("\n")
		context.WriteString(hit.Text)
		context.WriteString("\n\n")
	}

	var conversation strings.Builder
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	for _, msg := range history {
		role := "Assistant"
		if msg.Role == "user" {
			role = "User"
		}
		conversation.WriteString(role)
		conversation.WriteString(": ")
		conversation.WriteString(msg.Content)
		conversation.WriteString("\n")
	}

	return fmt.Sprintf("%s\n\nCONTEXT:\n%s\n%sUser: %s\n\nAssistant: Based on the provided context, ",
		systemPrompt, context.String(), conversation.String(), query)
}
