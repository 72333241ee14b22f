package api

import (
	"errors"
	"net/http"

	"github.com/kilianp07/depotplan/core/alloc"
	"github.com/kilianp07/depotplan/core/metrics"
	"github.com/kilianp07/depotplan/core/model"
	"github.com/kilianp07/depotplan/core/optimizer"
)

// OptimizeResponse reports an optimization proposal.
type OptimizeResponse struct {
	Modifications   []alloc.Modification `json:"modifications"`
	WaitingBefore   int                  `json:"waiting_before"`
	WaitingAfter    int                  `json:"waiting_after"`
	BudgetExhausted bool                 `json:"budget_exhausted"`
	Adopted         bool                 `json:"adopted"`
}

// optimize returns a proposal without committing it.
func (s *Server) optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	res := optimizer.Optimize(s.mgr.Snapshot(), s.optBudget)
	s.recordOptimizer(res, false)
	s.writeJSON(w, r, http.StatusOK, optimizeResponse(res, false))
}

// adopt runs an optimization pass and commits the result. A mutation racing
// with the pass invalidates the snapshot and yields 409.
func (s *Server) adopt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	res := optimizer.Optimize(s.mgr.Snapshot(), s.optBudget)
	if err := s.mgr.Adopt(res.Snapshot, res.Modifications); err != nil {
		if errors.Is(err, model.ErrStaleSnapshot) {
			s.writeError(w, r, http.StatusConflict, err.Error())
			return
		}
		s.log.Errorf("adopt optimization: %v", err)
		s.writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.recordOptimizer(res, true)
	s.writeJSON(w, r, http.StatusOK, optimizeResponse(res, true))
}

func optimizeResponse(res optimizer.Result, adopted bool) OptimizeResponse {
	mods := res.Modifications
	if mods == nil {
		mods = []alloc.Modification{}
	}
	return OptimizeResponse{
		Modifications:   mods,
		WaitingBefore:   res.WaitingBefore,
		WaitingAfter:    res.WaitingAfter,
		BudgetExhausted: res.BudgetExhausted,
		Adopted:         adopted,
	}
}

func (s *Server) recordOptimizer(res optimizer.Result, adopted bool) {
	rec, ok := s.sink.(metrics.OptimizerRecorder)
	if !ok {
		return
	}
	ev := metrics.OptimizerEvent{
		Modifications:   len(res.Modifications),
		WaitingBefore:   res.WaitingBefore,
		WaitingAfter:    res.WaitingAfter,
		BudgetExhausted: res.BudgetExhausted,
		Adopted:         adopted,
	}
	if err := rec.RecordOptimizer(ev); err != nil {
		s.log.Warnf("record optimizer: %v", err)
	}
}
