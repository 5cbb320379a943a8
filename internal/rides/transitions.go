package rides

import "github.com/koulibalyamadou10/afrilyft-bolt/internal/models"

// transitions is the fixed ride lifecycle graph. completed and cancelled are
// terminal. Built once at init and never mutated.
var transitions = map[models.RideStatus][]models.RideStatus{
	models.StatusPending:    {models.StatusSearching, models.StatusCancelled},
	models.StatusSearching:  {models.StatusAccepted, models.StatusCancelled},
	models.StatusAccepted:   {models.StatusInProgress, models.StatusCancelled},
	models.StatusInProgress: {models.StatusCompleted, models.StatusCancelled},
	models.StatusCompleted:  {},
	models.StatusCancelled:  {},
}

// CanTransition reports whether the lifecycle graph allows from → to.
func CanTransition(from, to models.RideStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// driverOnly lists targets only the assigned driver may request.
var driverOnly = map[models.RideStatus]string{
	models.StatusAccepted:   "only drivers can accept rides",
	models.StatusInProgress: "only drivers can start rides",
	models.StatusCompleted:  "only drivers can complete rides",
}
