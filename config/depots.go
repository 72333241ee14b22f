package config

import "github.com/kilianp07/depotplan/core/model"

// TrackConfig describes one track of a depot.
type TrackConfig struct {
	Number      int     `json:"number"`
	LengthM     float64 `json:"length_m"`
	Electrified bool    `json:"electrified"`
}

// DepotConfig describes one depot of the catalog.
type DepotConfig struct {
	Name   string        `json:"name"`
	Lat    float64       `json:"lat"`
	Lon    float64       `json:"lon"`
	Tracks []TrackConfig `json:"tracks"`
}

// Model converts the config entry to the domain depot.
func (d DepotConfig) Model() model.Depot {
	out := model.Depot{Name: d.Name, Lat: d.Lat, Lon: d.Lon}
	for _, t := range d.Tracks {
		out.Tracks = append(out.Tracks, model.Track{
			Depot:       d.Name,
			Number:      t.Number,
			LengthM:     t.LengthM,
			Electrified: t.Electrified,
		})
	}
	return out
}

// Depots converts the whole catalog section.
func Depots(cfgs []DepotConfig) []model.Depot {
	out := make([]model.Depot, 0, len(cfgs))
	for _, d := range cfgs {
		out = append(out, d.Model())
	}
	return out
}

// DefaultDepots is the built-in catalog used when the configuration does not
// define one.
func DefaultDepots() []DepotConfig {
	return []DepotConfig{
		{Name: "Glostrup", Lat: 55.662194, Lon: 12.393508, Tracks: []TrackConfig{
			{Number: 7, LengthM: 290}, {Number: 8, LengthM: 340, Electrified: true},
			{Number: 9, LengthM: 400, Electrified: true}, {Number: 11, LengthM: 300},
		}},
		{Name: "Naestved", Lat: 55.194538, Lon: 11.822616, Tracks: []TrackConfig{
			{Number: 1, LengthM: 250}, {Number: 2, LengthM: 300, Electrified: true},
			{Number: 3, LengthM: 350}, {Number: 4, LengthM: 280},
		}},
		{Name: "Taulov", Lat: 55.546012, Lon: 9.632929, Tracks: []TrackConfig{{Number: 21, LengthM: 280}}},
		{Name: "KAC", Lat: 55.624757, Lon: 12.680361, Tracks: []TrackConfig{{Number: 22, LengthM: 280, Electrified: true}}},
		{Name: "Helgoland", Lat: 55.714857, Lon: 12.582771, Tracks: []TrackConfig{{Number: 23, LengthM: 280}}},
		{Name: "Padborg", Lat: 54.824899, Lon: 9.357716, Tracks: []TrackConfig{{Number: 24, LengthM: 280}}},
		{Name: "Langenfelde", Lat: 53.581551, Lon: 9.924246, Tracks: []TrackConfig{{Number: 25, LengthM: 280}}},
		{Name: "LMII", Lat: 40.537568, Lon: -3.887422, Tracks: []TrackConfig{
			{Number: 26, LengthM: 280}, {Number: 27, LengthM: 300},
		}},
		{Name: "Hendaya", Lat: 43.348556, Lon: -1.788629, Tracks: []TrackConfig{{Number: 28, LengthM: 320}}},
		{Name: "Rivabellosa", Lat: 42.699047, Lon: -2.917172, Tracks: []TrackConfig{{Number: 29, LengthM: 250}}},
		{Name: "KVO (CPH)", Lat: 55.662953, Lon: 12.546617, Tracks: []TrackConfig{
			{Number: 30, LengthM: 300, Electrified: true}, {Number: 31, LengthM: 280},
		}},
		{Name: "Elsinore", Lat: 56.030817, Lon: 12.608929, Tracks: []TrackConfig{{Number: 32, LengthM: 270}}},
	}
}
