package form

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/course"
)

// timestampLayout is the fixed format of the reserved timestamp column
// (DD/MM/YYYY HH:MM:SS).
const timestampLayout = "02/01/2006 15:04:05"

// answerKey identifies the single Answer a (Student, Question) pair may
// have within a Form.
type answerKey struct {
	studentID  string
	questionID string
}

// reconcileAnswers merges a form's freshly read rows into its answers with
// update-or-insert semantics. Both reserved headers must be present in the
// row set or the whole sheet fails with ErrHeaderMismatch before anything
// is touched. A problematic row (bad timestamp, unknown respondent) is
// reported as an issue and skipped; the remaining rows still reconcile.
func (svc *Service) reconcileAnswers(
	ctx context.Context,
	tx core.DBTransactor,
	frm Form,
	rows []core.Row,
	roster map[string]course.Student,
	questions map[string]Question,
	loc *time.Location,
) ([]string, error) {
	headers := core.RowHeaders(rows)
	if _, ok := headers[core.TimestampHeader]; !ok {
		return nil, errors.Wrapf(ErrHeaderMismatch, "missing %q column", core.TimestampHeader)
	}
	if _, ok := headers[core.EmailHeader]; !ok {
		return nil, errors.Wrapf(ErrHeaderMismatch, "missing %q column", core.EmailHeader)
	}

	existing, err := svc.repo.QueryFormAnswers(ctx, frm.ID, tx)
	if err != nil {
		return nil, errors.Wrap(err, "querying form answers")
	}
	byKey := make(map[answerKey]Answer, len(existing))
	for _, ans := range existing {
		byKey[answerKey{ans.StudentID, ans.QuestionID}] = ans
	}

	var issues []string
	for i, row := range rows {
		ts, err := time.ParseInLocation(timestampLayout, core.CleanString(row.Cell(core.TimestampHeader)), loc)
		if err != nil {
			issues = append(issues, fmt.Sprintf("row %d: bad timestamp %q", i+1, row.Cell(core.TimestampHeader)))
			continue
		}
		email := core.CleanString(row.Cell(core.EmailHeader), true /* lower */)
		std, ok := roster[email]
		if !ok {
			issues = append(issues, fmt.Sprintf("row %d: unknown respondent %q", i+1, email))
			continue
		}

		for header := range row {
			if header == core.TimestampHeader || header == core.EmailHeader {
				continue
			}
			qst, ok := questions[core.CleanString(header)]
			if !ok {
				// discovery runs first in the same pass; an unresolved header
				// means it produced no question for it (e.g. blank header)
				issues = append(issues, fmt.Sprintf("row %d: unknown question %q", i+1, header))
				continue
			}
			text := core.CleanString(row.Cell(header))

			key := answerKey{std.ID, qst.ID}
			if ans, ok := byKey[key]; ok {
				if ans.Text == text && ans.Timestamp.Equal(ts) {
					continue // unchanged; keep reconciliation idempotent
				}
				ans.Text = text
				ans.Timestamp = ts
				if _, err := svc.repo.UpdateAnswer(ctx, ans, tx); err != nil {
					return issues, errors.Wrap(err, "updating answer")
				}
				byKey[key] = ans
			} else {
				ans := Answer{
					Timestamp:  ts,
					Text:       text,
					FormID:     frm.ID,
					StudentID:  std.ID,
					QuestionID: qst.ID,
				}
				ans, err := svc.repo.CreateAnswer(ctx, ans, tx)
				if err != nil {
					return issues, errors.Wrap(err, "creating answer")
				}
				byKey[key] = ans
			}
		}
	}
	return issues, nil
}
