package alloc

import "fmt"

// Location is a track slot or the waiting queue of a depot.
type Location struct {
	Waiting bool `json:"waiting"`
	Track   int  `json:"track,omitempty"`
}

// String renders the location for logs and history records.
func (l Location) String() string {
	if l.Waiting {
		return "waiting"
	}
	return fmt.Sprintf("track %d", l.Track)
}

// Modification is one atomic relocation of a vehicle produced by the
// optimizer: from a track or the waiting queue to another track or back.
type Modification struct {
	VehicleID   string   `json:"vehicle_id"`
	VehicleName string   `json:"vehicle_name"`
	Depot       string   `json:"depot"`
	From        Location `json:"from"`
	To          Location `json:"to"`
}
