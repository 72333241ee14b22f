package model

// Track is a linear parking resource inside a depot. Several vehicles may
// occupy it concurrently as long as their summed lengths stay within LengthM.
type Track struct {
	Depot       string  `json:"depot"`
	Number      int     `json:"number"`
	LengthM     float64 `json:"length_m"`
	Electrified bool    `json:"electrified"`
}

// Depot is a site holding an ordered set of tracks with unique numbers.
// Tracks are kept sorted by ascending number; allocation relies on that order.
type Depot struct {
	Name   string  `json:"name"`
	Tracks []Track `json:"tracks"`
	Lat    float64 `json:"lat,omitempty"`
	Lon    float64 `json:"lon,omitempty"`
}

// Track returns the track with the given number, if present.
func (d Depot) Track(number int) (Track, bool) {
	for _, t := range d.Tracks {
		if t.Number == number {
			return t, true
		}
	}
	return Track{}, false
}

// MaxTrackLength returns the longest track capacity of the depot.
func (d Depot) MaxTrackLength() float64 {
	var max float64
	for _, t := range d.Tracks {
		if t.LengthM > max {
			max = t.LengthM
		}
	}
	return max
}
