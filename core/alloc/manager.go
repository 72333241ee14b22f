// Package alloc implements the track allocation engine: the compatibility
// checker, the first-fit interval allocator, the waiting queue and the
// mutable occupation table behind them.
package alloc

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/depotplan/core/events"
	"github.com/kilianp07/depotplan/core/history"
	"github.com/kilianp07/depotplan/core/logger"
	"github.com/kilianp07/depotplan/core/metrics"
	"github.com/kilianp07/depotplan/core/model"
	"github.com/kilianp07/depotplan/core/registry"
	"github.com/kilianp07/depotplan/internal/eventbus"
)

// Manager owns the occupation tables. Every mutation on a depot is serialized
// behind that depot's lock; depots never contend with each other. Reads for
// statistics and optimization go through deep snapshots.
type Manager struct {
	reg  *registry.Registry
	log  logger.Logger
	sink metrics.Sink
	bus  eventbus.EventBus
	hist history.Store
	now  func() time.Time

	mu     sync.Mutex // guards index and names
	index  map[string]string
	depots map[string]*depotState
}

type depotState struct {
	mu          sync.Mutex
	depot       model.Depot
	vehicles    map[string]*VehicleState
	occupations []model.Occupation
	version     uint64
}

// NewManager creates a manager for the given depot catalog.
func NewManager(reg *registry.Registry, log logger.Logger) (*Manager, error) {
	if reg == nil {
		return nil, fmt.Errorf("alloc: registry is required")
	}
	m := &Manager{
		reg:    reg,
		log:    log,
		sink:   metrics.NopSink{},
		now:    time.Now,
		index:  make(map[string]string),
		depots: make(map[string]*depotState),
	}
	for _, d := range reg.Depots() {
		m.depots[d.Name] = &depotState{depot: d, vehicles: make(map[string]*VehicleState)}
	}
	return m, nil
}

// SetMetricsSink configures the sink used to record allocation outcomes.
func (m *Manager) SetMetricsSink(s metrics.Sink) {
	if s == nil {
		s = metrics.NopSink{}
	}
	m.sink = s
}

// SetEventBus configures the bus placement and waiting events are published on.
func (m *Manager) SetEventBus(bus eventbus.EventBus) { m.bus = bus }

// SetHistoryStore configures the store mutations are appended to.
func (m *Manager) SetHistoryStore(h history.Store) { m.hist = h }

// SetClock overrides the time source. Used by tests and replay.
func (m *Manager) SetClock(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}

// VehicleInput carries the caller-supplied attributes of a vehicle.
type VehicleInput struct {
	Name           string    `json:"name"`
	Wagons         int       `json:"wagons"`
	Locomotives    int       `json:"locomotives"`
	LengthM        float64   `json:"length_m"`
	Electric       bool      `json:"electric"`
	Depot          string    `json:"depot"`
	Arrival        time.Time `json:"arrival"`
	Departure      time.Time `json:"departure"`
	Category       string    `json:"category"`
	LocomotiveSide string    `json:"locomotive_side"`
}

func (in VehicleInput) vehicle(id string) (model.Vehicle, error) {
	cat, ok := model.ParseCategory(in.Category)
	if !ok {
		return model.Vehicle{}, &model.ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", in.Category)}
	}
	side := in.LocomotiveSide
	if side == "" {
		side = "left"
	}
	v := model.Vehicle{
		ID:             id,
		Name:           in.Name,
		LengthM:        in.LengthM,
		Wagons:         in.Wagons,
		Locomotives:    in.Locomotives,
		Electric:       in.Electric,
		Depot:          in.Depot,
		Arrival:        in.Arrival,
		Departure:      in.Departure,
		Category:       cat,
		LocomotiveSide: side,
	}
	if err := v.Validate(); err != nil {
		return model.Vehicle{}, err
	}
	return v, nil
}

// PlacementResult is the outcome of a create or update.
type PlacementResult struct {
	State VehicleState
	// Suggested alternative depots, populated when the vehicle is waiting.
	Suggested []string
}

// Create validates the input, allocates a track or defers the vehicle to the
// waiting queue, and returns the resulting state. Validation failures leave
// the table untouched.
func (m *Manager) Create(in VehicleInput) (PlacementResult, error) {
	v, err := in.vehicle(uuid.NewString())
	if err != nil {
		return PlacementResult{}, err
	}
	ds, ok := m.depots[v.Depot]
	if !ok {
		return PlacementResult{}, &model.ValidationError{Field: "depot", Reason: fmt.Sprintf("unknown depot %q", v.Depot)}
	}

	m.mu.Lock()
	if err := m.checkNameOverlapLocked(v); err != nil {
		m.mu.Unlock()
		return PlacementResult{}, err
	}
	m.index[v.ID] = v.Depot
	ds.mu.Lock()
	m.mu.Unlock()

	st := m.allocateLocked(ds, v)
	ds.vehicles[v.ID] = &st
	ds.version++
	waiting := countWaitingLocked(ds)
	ds.mu.Unlock()

	m.emitPlacement(st, false)
	m.record(history.Record{Timestamp: m.now(), Action: history.ActionCreate, VehicleID: v.ID, Depot: v.Depot, Track: st.Track, Detail: st.Status.String()})
	m.sampleQueue(v.Depot, waiting)
	return m.result(st), nil
}

// Update applies new attributes to an existing vehicle. The old occupation is
// removed first and allocation re-runs with the new attributes; when the new
// placement fails where the old one held, the vehicle becomes waiting. The
// edit is authoritative, there is no rollback. Freed capacity triggers a
// waiting queue reattempt on every affected depot.
func (m *Manager) Update(id string, in VehicleInput) (PlacementResult, error) {
	v, err := in.vehicle(id)
	if err != nil {
		return PlacementResult{}, err
	}
	newDS, ok := m.depots[v.Depot]
	if !ok {
		return PlacementResult{}, &model.ValidationError{Field: "depot", Reason: fmt.Sprintf("unknown depot %q", v.Depot)}
	}

	m.mu.Lock()
	oldDepot, ok := m.index[id]
	if !ok {
		m.mu.Unlock()
		return PlacementResult{}, model.ErrVehicleNotFound
	}
	if err := m.checkNameOverlapLocked(v); err != nil {
		m.mu.Unlock()
		return PlacementResult{}, err
	}
	oldDS := m.depots[oldDepot]
	lockPair(oldDS, newDS)
	m.index[id] = v.Depot
	m.mu.Unlock()

	old := oldDS.vehicles[id]
	prevWaitStart, prevWaitEnd := old.WaitStart, old.WaitEnd
	removeOccupationLocked(oldDS, id)
	delete(oldDS.vehicles, id)
	oldDS.version++

	st := m.allocateLocked(newDS, v)
	// A vehicle that already waited keeps its completed wait on re-edit;
	// a vehicle still waiting keeps its original queue position.
	if st.Status == StatusWaiting && !prevWaitStart.IsZero() && prevWaitEnd.IsZero() {
		st.WaitStart = prevWaitStart
	}
	if st.Status == StatusPlaced && prevWaitEnd.After(prevWaitStart) {
		st.WaitStart, st.WaitEnd = prevWaitStart, prevWaitEnd
	}
	newDS.vehicles[id] = &st
	newDS.version++

	placed := m.reattemptLocked(oldDS)
	if newDS != oldDS {
		placed = append(placed, m.reattemptLocked(newDS)...)
	}
	oldWaiting := countWaitingLocked(oldDS)
	newWaiting := countWaitingLocked(newDS)
	unlockPair(oldDS, newDS)

	m.emitPlacement(st, false)
	for _, p := range placed {
		m.emitPlacement(p, true)
	}
	m.record(history.Record{Timestamp: m.now(), Action: history.ActionUpdate, VehicleID: id, Depot: v.Depot, Track: st.Track, Detail: st.Status.String()})
	m.sampleQueue(oldDepot, oldWaiting)
	if v.Depot != oldDepot {
		m.sampleQueue(v.Depot, newWaiting)
	}
	return m.result(st), nil
}

// Delete removes the vehicle and its occupation, then reattempts the depot's
// waiting queue since freed capacity may admit queued vehicles.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	depot, ok := m.index[id]
	if !ok {
		m.mu.Unlock()
		return model.ErrVehicleNotFound
	}
	delete(m.index, id)
	ds := m.depots[depot]
	ds.mu.Lock()
	m.mu.Unlock()

	removeOccupationLocked(ds, id)
	delete(ds.vehicles, id)
	ds.version++
	placed := m.reattemptLocked(ds)
	waiting := countWaitingLocked(ds)
	ds.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(events.RemovalEvent{VehicleID: id, Depot: depot})
	}
	for _, p := range placed {
		m.emitPlacement(p, true)
	}
	m.record(history.Record{Timestamp: m.now(), Action: history.ActionDelete, VehicleID: id, Depot: depot})
	m.sampleQueue(depot, waiting)
	return nil
}

// Get returns the current state of one vehicle.
func (m *Manager) Get(id string) (VehicleState, bool) {
	m.mu.Lock()
	depot, ok := m.index[id]
	m.mu.Unlock()
	if !ok {
		return VehicleState{}, false
	}
	ds := m.depots[depot]
	ds.mu.Lock()
	defer ds.mu.Unlock()
	st, ok := ds.vehicles[id]
	if !ok {
		return VehicleState{}, false
	}
	return *st, true
}

// List returns all vehicles with their placement status, sorted by arrival
// then ID.
func (m *Manager) List() []VehicleState {
	return m.Snapshot().Vehicles()
}

// Schedule returns the occupation table of one depot, or of all depots when
// depot is empty, suitable for timeline rendering.
func (m *Manager) Schedule(depot string) []model.Occupation {
	var out []model.Occupation
	for _, name := range m.reg.Names() {
		if depot != "" && name != depot {
			continue
		}
		ds := m.depots[name]
		ds.mu.Lock()
		out = append(out, ds.occupations...)
		ds.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depot != out[j].Depot {
			return out[i].Depot < out[j].Depot
		}
		if out[i].Track != out[j].Track {
			return out[i].Track < out[j].Track
		}
		return out[i].Begin.Before(out[j].Begin)
	})
	return out
}

// ReattemptAll re-evaluates every waiting vehicle once, per depot in FIFO
// order of wait start. It returns the vehicles that transitioned to placed.
// With no capacity change the call is a no-op.
func (m *Manager) ReattemptAll() []VehicleState {
	var placed []VehicleState
	for _, name := range m.reg.Names() {
		ds := m.depots[name]
		ds.mu.Lock()
		admitted := m.reattemptLocked(ds)
		waiting := countWaitingLocked(ds)
		ds.mu.Unlock()
		for _, p := range admitted {
			m.emitPlacement(p, true)
		}
		m.sampleQueue(name, waiting)
		placed = append(placed, admitted...)
	}
	return placed
}

// Reset clears all vehicles and waiting state for a fresh run.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.index = make(map[string]string)
	for _, name := range m.reg.Names() {
		ds := m.depots[name]
		ds.mu.Lock()
		ds.vehicles = make(map[string]*VehicleState)
		ds.occupations = nil
		ds.version++
		ds.mu.Unlock()
	}
	m.mu.Unlock()
	m.record(history.Record{Timestamp: m.now(), Action: history.ActionReset})
}

// Snapshot returns a deep copy of the whole engine state. Each depot is
// copied under its own lock.
func (m *Manager) Snapshot() Snapshot {
	snap := Snapshot{Depots: make(map[string]DepotSnapshot), TakenAt: m.now()}
	for _, name := range m.reg.Names() {
		snap.Depots[name] = m.snapshotDepot(name)
	}
	return snap
}

// SnapshotDepot returns a deep copy of one depot's state.
func (m *Manager) SnapshotDepot(name string) (DepotSnapshot, bool) {
	if _, ok := m.depots[name]; !ok {
		return DepotSnapshot{}, false
	}
	return m.snapshotDepot(name), true
}

func (m *Manager) snapshotDepot(name string) DepotSnapshot {
	ds := m.depots[name]
	ds.mu.Lock()
	defer ds.mu.Unlock()
	out := DepotSnapshot{
		Depot:       ds.depot,
		Occupations: append([]model.Occupation(nil), ds.occupations...),
		Version:     ds.version,
	}
	for _, st := range ds.vehicles {
		out.Vehicles = append(out.Vehicles, *st)
	}
	sort.Slice(out.Vehicles, func(i, j int) bool { return out.Vehicles[i].Vehicle.ID < out.Vehicles[j].Vehicle.ID })
	return out
}

// Adopt replaces the live occupation tables with the optimized snapshot. It
// fails with ErrStaleSnapshot when any depot mutated since the snapshot was
// taken, leaving the live tables untouched.
func (m *Manager) Adopt(snap Snapshot, mods []Modification) error {
	names := make([]string, 0, len(snap.Depots))
	for name := range snap.Depots {
		if _, ok := m.depots[name]; !ok {
			return fmt.Errorf("alloc: adopt references unknown depot %q", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m.depots[name].mu.Lock()
	}
	defer func() {
		for _, name := range names {
			m.depots[name].mu.Unlock()
		}
	}()
	for _, name := range names {
		if m.depots[name].version != snap.Depots[name].Version {
			return model.ErrStaleSnapshot
		}
	}
	waitingBefore := 0
	waitingAfter := 0
	for _, name := range names {
		ds := m.depots[name]
		waitingBefore += countWaitingLocked(ds)
		in := snap.Depots[name]
		ds.occupations = append([]model.Occupation(nil), in.Occupations...)
		ds.vehicles = make(map[string]*VehicleState, len(in.Vehicles))
		for _, vs := range in.Vehicles {
			st := vs
			ds.vehicles[st.Vehicle.ID] = &st
			if st.Status == StatusWaiting {
				waitingAfter++
			}
		}
		ds.version++
	}
	if m.bus != nil {
		m.bus.Publish(events.OptimizationEvent{Modifications: len(mods), WaitingBefore: waitingBefore, WaitingAfter: waitingAfter})
	}
	for _, mod := range mods {
		m.record(history.Record{
			Timestamp: m.now(),
			Action:    history.ActionAdopt,
			VehicleID: mod.VehicleID,
			Depot:     mod.Depot,
			Track:     mod.To.Track,
			Detail:    fmt.Sprintf("%s -> %s", mod.From, mod.To),
		})
	}
	return nil
}

// allocateLocked runs first-fit for v against the depot table and returns the
// resulting state. The depot lock must be held.
func (m *Manager) allocateLocked(ds *depotState, v model.Vehicle) VehicleState {
	if track, ok := firstFit(ds.depot, v, ds.occupations); ok {
		ds.occupations = append(ds.occupations, occupationFor(v, track.Number))
		return VehicleState{Vehicle: v, Status: StatusPlaced, Track: track.Number}
	}
	ws := m.now()
	// Replayed data arrives with a past arrival; its wait started then.
	if v.Arrival.Before(ws) {
		ws = v.Arrival
	}
	return VehicleState{Vehicle: v, Status: StatusWaiting, WaitStart: ws}
}

// reattemptLocked retries every waiting vehicle of the depot once, oldest
// wait first. A failure never blocks evaluation of younger vehicles.
func (m *Manager) reattemptLocked(ds *depotState) []VehicleState {
	var waiting []VehicleState
	for _, st := range ds.vehicles {
		if st.Status == StatusWaiting {
			waiting = append(waiting, *st)
		}
	}
	sortByWaitStart(waiting)
	var placed []VehicleState
	for _, w := range waiting {
		track, ok := firstFit(ds.depot, w.Vehicle, ds.occupations)
		if !ok {
			continue
		}
		st := ds.vehicles[w.Vehicle.ID]
		st.Status = StatusPlaced
		st.Track = track.Number
		st.WaitEnd = m.now()
		ds.occupations = append(ds.occupations, occupationFor(st.Vehicle, track.Number))
		ds.version++
		placed = append(placed, *st)
	}
	return placed
}

func (m *Manager) checkNameOverlapLocked(v model.Vehicle) error {
	for _, depot := range m.reg.Names() {
		ds := m.depots[depot]
		ds.mu.Lock()
		for _, st := range ds.vehicles {
			if st.Vehicle.ID == v.ID || st.Vehicle.Name != v.Name {
				continue
			}
			if st.Vehicle.Window().Overlaps(v.Window()) {
				ds.mu.Unlock()
				return &model.ValidationError{
					Field:  "name",
					Reason: fmt.Sprintf("vehicle %q is already scheduled from %s to %s at %s", v.Name, st.Vehicle.Arrival.Format(time.RFC3339), st.Vehicle.Departure.Format(time.RFC3339), st.Vehicle.Depot),
				}
			}
		}
		ds.mu.Unlock()
	}
	return nil
}

func (m *Manager) emitPlacement(st VehicleState, fromWaiting bool) {
	if m.bus != nil {
		if st.Status == StatusPlaced {
			m.bus.Publish(events.PlacementEvent{
				Vehicle:     st.Vehicle,
				Depot:       st.Vehicle.Depot,
				Track:       st.Track,
				Begin:       st.Vehicle.Arrival,
				End:         st.Vehicle.Departure,
				FromWaiting: fromWaiting,
			})
		} else {
			m.bus.Publish(events.WaitingEvent{
				Vehicle:   st.Vehicle,
				Depot:     st.Vehicle.Depot,
				Suggested: m.reg.Suggest(st.Vehicle),
			})
		}
	}
	res := metrics.AllocationResult{
		VehicleID:   st.Vehicle.ID,
		Depot:       st.Vehicle.Depot,
		Track:       st.Track,
		Placed:      st.Status == StatusPlaced,
		FromWaiting: fromWaiting,
		Wait:        st.WaitDuration(),
		Time:        m.now(),
	}
	if err := m.sink.RecordAllocation([]metrics.AllocationResult{res}); err != nil && m.log != nil {
		m.log.Warnf("record allocation: %v", err)
	}
	if m.log != nil {
		m.log.Debugw("allocation", map[string]any{
			"vehicle": st.Vehicle.ID,
			"depot":   st.Vehicle.Depot,
			"status":  st.Status.String(),
			"track":   st.Track,
		})
	}
}

func (m *Manager) sampleQueue(depot string, waiting int) {
	if rec, ok := m.sink.(metrics.QueueDepthRecorder); ok {
		if err := rec.RecordQueueDepth(metrics.QueueDepthEvent{Depot: depot, Waiting: waiting, Time: m.now()}); err != nil && m.log != nil {
			m.log.Warnf("record queue depth: %v", err)
		}
	}
}

func (m *Manager) record(rec history.Record) {
	if m.hist == nil {
		return
	}
	if err := m.hist.Append(context.Background(), rec); err != nil && m.log != nil {
		m.log.Warnf("append history: %v", err)
	}
}

func (m *Manager) result(st VehicleState) PlacementResult {
	res := PlacementResult{State: st}
	if st.Status == StatusWaiting {
		res.Suggested = m.reg.Suggest(st.Vehicle)
	}
	return res
}

func occupationFor(v model.Vehicle, track int) model.Occupation {
	return model.Occupation{
		VehicleID:   v.ID,
		VehicleName: v.Name,
		Depot:       v.Depot,
		Track:       track,
		LengthM:     v.EffectiveLength(),
		Electric:    v.Electric,
		Category:    v.Category,
		Begin:       v.Arrival,
		End:         v.Departure,
	}
}

func removeOccupationLocked(ds *depotState, vehicleID string) {
	for i, o := range ds.occupations {
		if o.VehicleID == vehicleID {
			ds.occupations = append(ds.occupations[:i], ds.occupations[i+1:]...)
			return
		}
	}
}

func countWaitingLocked(ds *depotState) int {
	n := 0
	for _, st := range ds.vehicles {
		if st.Status == StatusWaiting {
			n++
		}
	}
	return n
}

func lockPair(a, b *depotState) {
	if a == b {
		a.mu.Lock()
		return
	}
	if a.depot.Name < b.depot.Name {
		a.mu.Lock()
		b.mu.Lock()
	} else {
		b.mu.Lock()
		a.mu.Lock()
	}
}

func unlockPair(a, b *depotState) {
	if a == b {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()
	b.mu.Unlock()
}
