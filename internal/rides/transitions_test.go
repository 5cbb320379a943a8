package rides

import (
	"testing"

	"github.com/koulibalyamadou10/afrilyft-bolt/internal/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.RideStatus
		want     bool
	}{
		// happy-path forward transitions
		{models.StatusPending, models.StatusSearching, true},
		{models.StatusSearching, models.StatusAccepted, true},
		{models.StatusAccepted, models.StatusInProgress, true},
		{models.StatusInProgress, models.StatusCompleted, true},
		// cancel from every non-terminal state
		{models.StatusPending, models.StatusCancelled, true},
		{models.StatusSearching, models.StatusCancelled, true},
		{models.StatusAccepted, models.StatusCancelled, true},
		{models.StatusInProgress, models.StatusCancelled, true},
		// terminal states have no outgoing transitions
		{models.StatusCompleted, models.StatusPending, false},
		{models.StatusCompleted, models.StatusCancelled, false},
		{models.StatusCancelled, models.StatusSearching, false},
		{models.StatusCancelled, models.StatusCancelled, false},
		// skipping states is invalid
		{models.StatusPending, models.StatusAccepted, false},
		{models.StatusPending, models.StatusCompleted, false},
		{models.StatusSearching, models.StatusInProgress, false},
		{models.StatusAccepted, models.StatusCompleted, false},
		// no going backwards
		{models.StatusAccepted, models.StatusSearching, false},
		{models.StatusInProgress, models.StatusAccepted, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
