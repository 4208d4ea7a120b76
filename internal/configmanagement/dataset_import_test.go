package configmanagement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuestionsJSONL(t *testing.T) {
	data := []byte(`{"question": "What is Go?", "expected_answer": "A language.", "context": "Go is a programming language."}

{"question": "Who made it?"}
`)
	questions, err := ParseQuestionsJSONL(data)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	assert.Equal(t, "What is Go?", questions[0].Question)
	assert.Equal(t, "A language.", questions[0].ExpectedAnswer)
	assert.Equal(t, "Go is a programming language.", questions[0].Context)

	assert.Equal(t, "Who made it?", questions[1].Question)
	assert.Empty(t, questions[1].ExpectedAnswer)
	assert.Empty(t, questions[1].Context)
}

func TestParseQuestionsJSONLRejectsBadJSON(t *testing.T) {
	data := []byte(`{"question": "ok"}
{not json}
`)
	_, err := ParseQuestionsJSONL(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseQuestionsJSONLRequiresQuestion(t *testing.T) {
	data := []byte(`{"expected_answer": "orphaned answer"}`)
	_, err := ParseQuestionsJSONL(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing the question field")
}

func TestParseQuestionsJSONLEmptyUpload(t *testing.T) {
	_, err := ParseQuestionsJSONL([]byte("\n\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no questions found")
}

func TestParseQuestionsCSV(t *testing.T) {
	data := []byte(`question,expected_answer,context
"What is Go?","A language.","Go is a programming language."
"Who made it?",,
`)
	questions, err := ParseQuestionsCSV(data)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	assert.Equal(t, "What is Go?", questions[0].Question)
	assert.Equal(t, "A language.", questions[0].ExpectedAnswer)
	assert.Equal(t, "Go is a programming language.", questions[0].Context)
	assert.Empty(t, questions[1].ExpectedAnswer)
}

func TestParseQuestionsCSVHeaderIsCaseInsensitive(t *testing.T) {
	data := []byte("Question,Expected_Answer\nWhat is Go?,A language.\n")
	questions, err := ParseQuestionsCSV(data)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "A language.", questions[0].ExpectedAnswer)
}

func TestParseQuestionsCSVQuestionOnlyColumn(t *testing.T) {
	data := []byte("question\nWhat is Go?\n")
	questions, err := ParseQuestionsCSV(data)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Empty(t, questions[0].ExpectedAnswer)
	assert.Empty(t, questions[0].Context)
}

func TestParseQuestionsCSVMissingQuestionColumn(t *testing.T) {
	data := []byte("prompt,answer\nWhat is Go?,A language.\n")
	_, err := ParseQuestionsCSV(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing the question column")
}

func TestParseQuestionsCSVMissingQuestionValue(t *testing.T) {
	data := []byte("question,expected_answer\n,orphaned answer\n")
	_, err := ParseQuestionsCSV(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestParseQuestionsCSVEmptyUpload(t *testing.T) {
	_, err := ParseQuestionsCSV([]byte("question,expected_answer\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no questions found")
}
