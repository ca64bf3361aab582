package form

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/maoni/core"
)

func Test_classifyValues(t *testing.T) {
	tests := []struct {
		name   string
		values []interface{}
		want   bool
	}{
		{name: "empty", values: nil, want: true},
		{name: "ints", values: []interface{}{1, 2, 3}, want: true},
		{name: "int64s", values: []interface{}{int64(4), int64(5)}, want: true},
		{name: "integral floats", values: []interface{}{4.0, 5.0}, want: true},
		{name: "fractional float", values: []interface{}{4.5}, want: false},
		{name: "int strings", values: []interface{}{"4", " 5 "}, want: true},
		{name: "free text", values: []interface{}{"Data Analyst"}, want: false},
		{name: "mixed int and text", values: []interface{}{4, "quatre"}, want: false},
		{name: "mixed int and int string", values: []interface{}{4, "5"}, want: true},
		{name: "unsupported type", values: []interface{}{true}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyValues(tt.values))
		})
	}
}

func Test_discoverQuestions(t *testing.T) {
	courseID := "crs1"

	t.Run("empty rows yield nothing", func(t *testing.T) {
		assert.Nil(t, discoverQuestions(courseID, nil, nil))
		assert.Nil(t, discoverQuestions(courseID, nil, []core.Row{}))
	})

	t.Run("reserved and blank headers are skipped", func(t *testing.T) {
		rows := []core.Row{
			{core.TimestampHeader: "01/03/2020 10:00:00", core.EmailHeader: "a@test.cd", "  ": "x"},
		}
		assert.Empty(t, discoverQuestions(courseID, nil, rows))
	})

	t.Run("known questions are not re-discovered", func(t *testing.T) {
		known := map[string]Question{
			"Note": {ID: "q1", Text: "Note", IsInt: true, CourseID: courseID},
		}
		rows := []core.Row{
			{"Note": "pas un nombre", "Commentaire": "RAS"},
		}
		news := discoverQuestions(courseID, known, rows)
		if assert.Len(t, news, 1) {
			assert.Equal(t, "Commentaire", news[0].Text)
			assert.False(t, news[0].IsInt)
		}
		// the known question keeps its original type
		assert.True(t, known["Note"].IsInt)
	})

	t.Run("headers equal after trimming are deduplicated", func(t *testing.T) {
		rows := []core.Row{
			{"Note": 4},
			{" Note ": 5},
		}
		news := discoverQuestions(courseID, nil, rows)
		if assert.Len(t, news, 1) {
			assert.Equal(t, "Note", news[0].Text)
			assert.True(t, news[0].IsInt)
		}
	})

	t.Run("type inference spans header variants", func(t *testing.T) {
		// one variant holds only int values, the other only text; the
		// merged question must still come out as text
		rows := []core.Row{
			{"Note": 4},
			{" Note ": "quatre"},
		}
		news := discoverQuestions(courseID, nil, rows)
		if assert.Len(t, news, 1) {
			assert.Equal(t, "Note", news[0].Text)
			assert.False(t, news[0].IsInt)
		}
	})

	t.Run("type inference spans all rows", func(t *testing.T) {
		rows := []core.Row{
			{"Note": 4, "Métier visé": "Data Analyst"},
			{"Note": "5", "Métier visé": "Data Scientist"},
		}
		news := discoverQuestions(courseID, nil, rows)
		assert.Len(t, news, 2)
		byText := make(map[string]Question, len(news))
		for _, qst := range news {
			byText[qst.Text] = qst
		}
		assert.True(t, byText["Note"].IsInt)
		assert.False(t, byText["Métier visé"].IsInt)
		for _, qst := range news {
			assert.Equal(t, courseID, qst.CourseID)
		}
	})
}
