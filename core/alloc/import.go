package alloc

import (
	"github.com/kilianp07/depotplan/core/model"
)

// ImportReport collects the per-record outcome of a bulk import.
type ImportReport struct {
	Imported []VehicleState
	Errors   []*model.ImportRowError
}

// Import feeds each record through the regular create path. Malformed rows
// are collected as ImportRowError and never abort the batch. Row numbers are
// 1-based to match the source document.
func (m *Manager) Import(records []VehicleInput) ImportReport {
	var rep ImportReport
	for i, rec := range records {
		res, err := m.Create(rec)
		if err != nil {
			rep.Errors = append(rep.Errors, &model.ImportRowError{Row: i + 1, Err: err})
			continue
		}
		rep.Imported = append(rep.Imported, res.State)
	}
	return rep
}
