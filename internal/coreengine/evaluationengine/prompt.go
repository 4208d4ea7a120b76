package evaluationengine

import (
	"fmt"
	"strings"

	"llm-compare-platform/backend/internal/coreengine/retrievaladapters"
)

const answerPromptTemplate = `Answer the following question based on the provided context.

Context:
%s

Question: %s

Answer:`

const bareAnswerPromptTemplate = `Answer the following question.

Question: %s

Answer:`

// BuildAnswerPrompt formats the generation prompt for a work unit. Without
// context the question is asked directly.
func BuildAnswerPrompt(question, contextText string) string {
	if contextText == "" {
		return fmt.Sprintf(bareAnswerPromptTemplate, question)
	}
	return fmt.Sprintf(answerPromptTemplate, contextText, question)
}

// JoinChunks concatenates retrieved passages into the prompt context block.
func JoinChunks(chunks []retrievaladapters.RetrievedChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Content)
	}
	return strings.Join(parts, "\n\n")
}
