package judgeengine

import (
	"fmt"
	"strings"
)

const rubricPromptTemplate = `You are an expert evaluator assessing the quality of an AI-generated answer.

Question:
%s

%sAnswer to Evaluate:
%s

Score the answer on each of the following criteria, from 0.0 (worst) to 1.0 (best):
1. **accuracy**: Is the answer factually correct with respect to the question and expected answer?
2. **faithfulness**: Is the answer grounded in the provided context, without fabricated claims?
3. **reasoning**: Is the answer logically coherent and well argued?
4. **context_utilization**: Does the answer make effective use of the provided context?

Provide your evaluation in the following JSON format:
{
  "accuracy": {"score": <0.0-1.0>, "explanation": "<brief justification>"},
  "faithfulness": {"score": <0.0-1.0>, "explanation": "<brief justification>"},
  "reasoning": {"score": <0.0-1.0>, "explanation": "<brief justification>"},
  "context_utilization": {"score": <0.0-1.0>, "explanation": "<brief justification>"}
}

Return ONLY the JSON object, no other text.`

const pairwisePromptTemplate = `You are an impartial expert evaluator comparing two AI model responses.

Question:
%s

%sModel A Response:
%s

Model B Response:
%s

Your task is to evaluate both responses based on the following criteria:
1. **Correctness**: Is the answer factually accurate?
2. **Relevance**: Does the answer address the question directly?
3. **Completeness**: Does the answer cover all important aspects?
4. **Clarity**: Is the answer well-structured and easy to understand?
5. **Conciseness**: Is the answer appropriately detailed without being verbose?

Provide your evaluation in the following JSON format:
{
  "winner": "model_a" | "model_b" | "tie",
  "score_a": <score 0-10 for Model A>,
  "score_b": <score 0-10 for Model B>,
  "reasoning": "<detailed explanation of your decision>",
  "confidence": <0-1, how confident you are in this judgment>,
  "criteria_scores": {
    "correctness": {"model_a": <0-10>, "model_b": <0-10>},
    "relevance": {"model_a": <0-10>, "model_b": <0-10>},
    "completeness": {"model_a": <0-10>, "model_b": <0-10>},
    "clarity": {"model_a": <0-10>, "model_b": <0-10>},
    "conciseness": {"model_a": <0-10>, "model_b": <0-10>}
  }
}

Important guidelines:
- Be objective and unbiased in your evaluation
- Consider accuracy as the most important factor
- A response that is correct but verbose is better than one that is concise but wrong
- Mark as "tie" only if both responses are truly equivalent in quality
- Explain your reasoning clearly

Return ONLY the JSON object, no other text.`

const reformatPromptTemplate = `Your previous response could not be parsed as JSON. Respond again with ONLY the JSON object requested below, no markdown fences and no other text.

%s`

// buildContextSection assembles the optional context and expected-answer
// block shared by both prompt templates.
func buildContextSection(context, expectedAnswer string) string {
	var sb strings.Builder
	if context != "" {
		sb.WriteString("Context/Retrieved Information:\n")
		sb.WriteString(context)
		sb.WriteString("\n\n")
	}
	if expectedAnswer != "" {
		sb.WriteString("Expected Answer (for reference):\n")
		sb.WriteString(expectedAnswer)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// BuildRubricPrompt formats the single-answer scoring prompt.
func BuildRubricPrompt(question, context, expectedAnswer, answer string) string {
	return fmt.Sprintf(rubricPromptTemplate, question, buildContextSection(context, expectedAnswer), answer)
}

// BuildPairwisePrompt formats the two-answer comparison prompt.
func BuildPairwisePrompt(question, context, expectedAnswer, answerA, answerB string) string {
	return fmt.Sprintf(pairwisePromptTemplate, question, buildContextSection(context, expectedAnswer), answerA, answerB)
}
