package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummary(t *testing.T) {
	var s Summary
	for _, ev := range []Event{
		{Action: ActionStatus, Status: StatusOK},
		{Action: ActionStatus, Status: StatusOK},
		{Action: ActionStatus, Status: StatusNoChange},
		{Action: ActionStatus, Status: StatusSkip},
		{Action: ActionStatus, Status: StatusError},
		{Action: ActionReport, Msg: "ignored"},
		{Action: ActionUpdate, Name: "nodes", Quantity: 2},
		{Action: ActionUpdate, Name: "nodes", Quantity: 3},
		{Action: ActionUpdate, Name: "calls", Quantity: 1},
		{Action: ActionFree},
	} {
		s.Add(ev)
	}

	assert.Equal(t, 2, s.OK)
	assert.Equal(t, 1, s.NoChange)
	assert.Equal(t, 1, s.Skip)
	assert.Equal(t, 1, s.Error)
	assert.Equal(t, 5, s.Total())
	assert.Equal(t, map[string]int{"nodes": 5, "calls": 1}, s.Stats)
	assert.Equal(t, []string{"calls", "nodes"}, s.StatNames())
}
