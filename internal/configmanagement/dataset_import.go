package configmanagement

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ImportedQuestion is one parsed row from an uploaded dataset file.
type ImportedQuestion struct {
	Question       string `json:"question"`
	ExpectedAnswer string `json:"expected_answer"`
	Context        string `json:"context"`
}

// ParseQuestionsJSONL decodes a JSON-lines upload: one object per line with
// "question" (required), "expected_answer" and "context" (optional). Blank
// lines are skipped.
func ParseQuestionsJSONL(data []byte) ([]ImportedQuestion, error) {
	var questions []ImportedQuestion
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var q ImportedQuestion
		if err := json.Unmarshal([]byte(line), &q); err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d: %w", lineNo, err)
		}
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("line %d is missing the question field", lineNo)
		}
		questions = append(questions, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read JSONL data: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions found in upload")
	}
	return questions, nil
}

// ParseQuestionsCSV decodes a CSV upload. The header row must contain a
// "question" column; "expected_answer" and "context" columns are optional.
func ParseQuestionsCSV(data []byte) ([]ImportedQuestion, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := map[string]int{}
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	questionCol, ok := columns["question"]
	if !ok {
		return nil, fmt.Errorf("CSV header is missing the question column")
	}
	answerCol, hasAnswer := columns["expected_answer"]
	contextCol, hasContext := columns["context"]

	var questions []ImportedQuestion
	lineNo := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNo++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", lineNo, err)
		}
		if questionCol >= len(record) || strings.TrimSpace(record[questionCol]) == "" {
			return nil, fmt.Errorf("row %d is missing the question value", lineNo)
		}
		q := ImportedQuestion{Question: record[questionCol]}
		if hasAnswer && answerCol < len(record) {
			q.ExpectedAnswer = record[answerCol]
		}
		if hasContext && contextCol < len(record) {
			q.Context = record[contextCol]
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions found in upload")
	}
	return questions, nil
}
