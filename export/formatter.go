package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/dice-app/dice/model"
	"github.com/dice-app/dice/utils"
	"github.com/pkg/errors"
)

var Header = []string{
	"session",
	"participant_code",
	"participant_label",
	"participant_in_session",
	"condition",
	"item_sequence",
	"scroll_sequence",
	"item_dwell_time",
	"likes",
	"replies",
}

// FileName is the name an export of the session is stored under.
func FileName(sessionCode string) string {
	return "dice_" + sessionCode + ".csv"
}

// Rows projects every participant to one row, in input order, after the
// header row. Nil values are exported as empty strings.
func Rows(participants []*model.Participant) [][]string {
	rows := make([][]string, 0, len(participants)+1)
	rows = append(rows, Header)
	for _, p := range participants {
		sessionCode := ""
		if p.Session != nil {
			sessionCode = p.Session.Code
		}
		rows = append(rows, []string{
			sessionCode,
			p.Code,
			utils.StringOrEmpty(p.Label),
			strconv.Itoa(p.IdInGroup),
			utils.StringOrEmpty(p.FeedCondition),
			p.Sequence,
			p.ScrollSequence,
			p.ViewportData,
			p.LikesData,
			p.RepliesData,
		})
	}
	return rows
}

func WriteCSV(w io.Writer, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		return errors.Wrap(err, "fail to write export")
	}
	return nil
}
