package form

import (
	"strconv"
	"strings"

	"github.com/trezcool/maoni/core"
)

// isIntString reports whether s represents an integer.
func isIntString(s string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil
}

// classifyValues runs the two-pass type inference over every raw value
// observed for one header: the question is numeric only if every value is
// an integer or a string representing one.
func classifyValues(values []interface{}) bool {
	for _, v := range values {
		switch v := v.(type) {
		case int, int64:
		case float64:
			if v != float64(int64(v)) {
				return false
			}
		case string:
			if !isIntString(v) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// discoverQuestions infers new questions from a sheet's column headers.
// Headers that are reserved, or whose trimmed text already matches a known
// question of the course, are skipped; known questions are never re-typed.
// An empty row set yields nothing.
func discoverQuestions(courseID string, known map[string]Question, rows []core.Row) []Question {
	if len(rows) == 0 {
		return nil
	}

	// group raw header variants by their trimmed text, so that values from
	// every variant feed the same question's type inference
	variants := make(map[string][]string)
	for header := range core.RowHeaders(rows) {
		if header == core.TimestampHeader || header == core.EmailHeader {
			continue
		}
		text := core.CleanString(header)
		if text == "" {
			continue
		}
		if _, ok := known[text]; ok {
			continue
		}
		variants[text] = append(variants[text], header)
	}

	var news []Question
	for text, headers := range variants {
		values := make([]interface{}, 0, len(rows))
		for _, row := range rows {
			for _, header := range headers {
				if v, ok := row[header]; ok {
					values = append(values, v)
				}
			}
		}
		news = append(news, Question{
			Text:     text,
			IsInt:    classifyValues(values),
			CourseID: courseID,
		})
	}
	return news
}
