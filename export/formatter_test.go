package export

import (
	"bytes"
	"testing"

	"github.com/dice-app/dice/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRows(t *testing.T) {
	session := &model.Session{Code: "s3ss10n1"}
	label, control := "P123", "control"
	participants := []*model.Participant{
		{
			Session:        session,
			Code:           "b",
			Label:          &label,
			IdInGroup:      2,
			FeedCondition:  &control,
			Sequence:       "3, 1, 2",
			ScrollSequence: "1,2",
			ViewportData:   "{}",
			LikesData:      "[1]",
			RepliesData:    "[]",
		},
		{Code: "a", IdInGroup: 1},
	}

	rows := Rows(participants)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Len(t, rows[0], 10)
	assert.Equal(t, []string{"s3ss10n1", "b", "P123", "2", "control", "3, 1, 2", "1,2", "{}", "[1]", "[]"}, rows[1])
	assert.Equal(t, []string{"", "a", "", "1", "", "", "", "", "", ""}, rows[2])
}

func TestRowsEmpty(t *testing.T) {
	rows := Rows(nil)
	assert.Equal(t, [][]string{Header}, rows)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Rows([]*model.Participant{{Code: "a", IdInGroup: 1, Sequence: "x, y"}})))
	assert.Equal(t,
		"session,participant_code,participant_label,participant_in_session,condition,item_sequence,scroll_sequence,item_dwell_time,likes,replies\n"+
			",a,,1,,\"x, y\",,,,\n",
		buf.String())
}
