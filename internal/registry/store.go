package registry

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownEntity reports an update aimed at a name outside the fixed lists.
// Entity names come from closed lists, so hitting this is a programming error
// in the caller, not user input to be tolerated silently.
var ErrUnknownEntity = errors.New("unknown entity")

// Store holds the authoritative in-memory collections for one dashboard
// session. Reads hand out copies; updates replace whole collections. The
// store itself does no locking: callers serialize access.
type Store struct {
	precinctViolations map[string][]ViolationRow
	radarViolations    map[string][]ViolationRow
	stationViolations  map[string][]ViolationRow

	accidents  map[string]AccidentData
	closures   map[string][]RoadClosure
	activities map[string][]Activity

	precinctJudgments map[string][]JudgmentDecision
	stationJudgments  map[string][]JudgmentDecision
	radarJudgments    map[string][]JudgmentDecision

	vehicles []VehicleRegistryRow
	licenses []LicenseRegistryRow
}

func NewStore() *Store {
	s := &Store{
		precinctViolations: make(map[string][]ViolationRow, len(PrecinctNames)),
		radarViolations:    make(map[string][]ViolationRow, len(PrecinctNames)),
		stationViolations:  make(map[string][]ViolationRow, len(WeighStationNames)),
		accidents:          make(map[string]AccidentData, len(PrecinctNames)),
		closures:           make(map[string][]RoadClosure, len(PrecinctNames)),
		activities:         make(map[string][]Activity, len(PrecinctNames)),
		precinctJudgments:  make(map[string][]JudgmentDecision, len(PrecinctNames)),
		stationJudgments:   make(map[string][]JudgmentDecision, len(WeighStationNames)),
		radarJudgments:     make(map[string][]JudgmentDecision, len(RadarLocations)),
	}

	today := time.Now().Format("2006-01-02")
	for _, name := range PrecinctNames {
		s.precinctViolations[name] = ViolationTemplate(ViolationNames)
		s.radarViolations[name] = ViolationTemplate(RadarViolationNames)
		s.accidents[name] = AccidentData{ID: name, Analysis: []AccidentAnalysis{}}
		s.closures[name] = []RoadClosure{{ID: "closure-" + name}}
		s.activities[name] = []Activity{{ID: "activity-" + name, Date: today}}
		s.precinctJudgments[name] = []JudgmentDecision{}
	}
	for _, name := range WeighStationNames {
		s.stationViolations[name] = ViolationTemplate(WeighStationViolationNames)
		s.stationJudgments[name] = []JudgmentDecision{}
	}
	for _, name := range RadarLocations {
		s.radarJudgments[name] = []JudgmentDecision{}
	}

	s.vehicles = make([]VehicleRegistryRow, len(VehicleTypes))
	for i, t := range VehicleTypes {
		s.vehicles[i] = VehicleRegistryRow{Type: t}
	}
	s.licenses = make([]LicenseRegistryRow, len(LicenseTypes))
	for i, t := range LicenseTypes {
		s.licenses[i] = LicenseRegistryRow{Type: t}
	}
	return s
}

func copyRows[T any](rows []T) []T {
	out := make([]T, len(rows))
	copy(out, rows)
	return out
}

func readSlice[T any](m map[string][]T, name string) []T {
	rows, ok := m[name]
	if !ok {
		return []T{}
	}
	return copyRows(rows)
}

func replaceSlice[T any](m map[string][]T, name string, rows []T) error {
	if _, ok := m[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEntity, name)
	}
	m[name] = copyRows(rows)
	return nil
}

func (s *Store) PrecinctViolations(name string) []ViolationRow {
	return readSlice(s.precinctViolations, name)
}

func (s *Store) UpdatePrecinctViolations(name string, rows []ViolationRow) error {
	return replaceSlice(s.precinctViolations, name, rows)
}

func (s *Store) RadarViolations(precinct string) []ViolationRow {
	return readSlice(s.radarViolations, precinct)
}

func (s *Store) UpdateRadarViolations(precinct string, rows []ViolationRow) error {
	return replaceSlice(s.radarViolations, precinct, rows)
}

func (s *Store) StationViolations(name string) []ViolationRow {
	return readSlice(s.stationViolations, name)
}

func (s *Store) UpdateStationViolations(name string, rows []ViolationRow) error {
	return replaceSlice(s.stationViolations, name, rows)
}

func (s *Store) Accidents(precinct string) AccidentData {
	data, ok := s.accidents[precinct]
	if !ok {
		return AccidentData{ID: precinct, Analysis: []AccidentAnalysis{}}
	}
	data.Analysis = copyRows(data.Analysis)
	return data
}

func (s *Store) UpdateAccidents(precinct string, data AccidentData) error {
	if _, ok := s.accidents[precinct]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEntity, precinct)
	}
	data.Analysis = copyRows(data.Analysis)
	s.accidents[precinct] = data
	return nil
}

func (s *Store) Closures(precinct string) []RoadClosure {
	return readSlice(s.closures, precinct)
}

func (s *Store) UpdateClosures(precinct string, rows []RoadClosure) error {
	return replaceSlice(s.closures, precinct, rows)
}

func (s *Store) Activities(precinct string) []Activity {
	return readSlice(s.activities, precinct)
}

func (s *Store) UpdateActivities(precinct string, rows []Activity) error {
	return replaceSlice(s.activities, precinct, rows)
}

func (s *Store) PrecinctJudgments(name string) []JudgmentDecision {
	return readSlice(s.precinctJudgments, name)
}

func (s *Store) UpdatePrecinctJudgments(name string, rows []JudgmentDecision) error {
	return replaceSlice(s.precinctJudgments, name, rows)
}

func (s *Store) StationJudgments(name string) []JudgmentDecision {
	return readSlice(s.stationJudgments, name)
}

func (s *Store) UpdateStationJudgments(name string, rows []JudgmentDecision) error {
	return replaceSlice(s.stationJudgments, name, rows)
}

func (s *Store) RadarJudgments(name string) []JudgmentDecision {
	return readSlice(s.radarJudgments, name)
}

func (s *Store) UpdateRadarJudgments(name string, rows []JudgmentDecision) error {
	return replaceSlice(s.radarJudgments, name, rows)
}

func (s *Store) Vehicles() []VehicleRegistryRow {
	return copyRows(s.vehicles)
}

func (s *Store) UpdateVehicles(rows []VehicleRegistryRow) {
	s.vehicles = copyRows(rows)
}

func (s *Store) Licenses() []LicenseRegistryRow {
	return copyRows(s.licenses)
}

func (s *Store) UpdateLicenses(rows []LicenseRegistryRow) {
	s.licenses = copyRows(rows)
}

func collectViolations(m map[string][]ViolationRow, order []string) []EntityViolations {
	out := make([]EntityViolations, 0, len(order))
	for _, name := range order {
		out = append(out, EntityViolations{EntityName: name, Violations: copyRows(m[name])})
	}
	return out
}

// AllPrecinctViolations returns every precinct's slice in canonical order.
func (s *Store) AllPrecinctViolations() []EntityViolations {
	return collectViolations(s.precinctViolations, PrecinctNames)
}

func (s *Store) AllRadarViolations() []EntityViolations {
	return collectViolations(s.radarViolations, PrecinctNames)
}

func (s *Store) AllStationViolations() []EntityViolations {
	return collectViolations(s.stationViolations, WeighStationNames)
}

func (s *Store) AllAccidents() map[string]AccidentData {
	out := make(map[string]AccidentData, len(s.accidents))
	for name := range s.accidents {
		out[name] = s.Accidents(name)
	}
	return out
}

func (s *Store) AllClosures() map[string][]RoadClosure {
	out := make(map[string][]RoadClosure, len(s.closures))
	for name, rows := range s.closures {
		out[name] = copyRows(rows)
	}
	return out
}

func (s *Store) AllActivities() map[string][]Activity {
	out := make(map[string][]Activity, len(s.activities))
	for name, rows := range s.activities {
		out[name] = copyRows(rows)
	}
	return out
}

func collectJudgments(m map[string][]JudgmentDecision, order []string) map[string][]JudgmentDecision {
	out := make(map[string][]JudgmentDecision, len(order))
	for _, name := range order {
		out[name] = copyRows(m[name])
	}
	return out
}

func (s *Store) AllPrecinctJudgments() map[string][]JudgmentDecision {
	return collectJudgments(s.precinctJudgments, PrecinctNames)
}

func (s *Store) AllStationJudgments() map[string][]JudgmentDecision {
	return collectJudgments(s.stationJudgments, WeighStationNames)
}

func (s *Store) AllRadarJudgments() map[string][]JudgmentDecision {
	return collectJudgments(s.radarJudgments, RadarLocations)
}

// Snapshot captures the whole store for backup; Restore is its inverse.
// Both operate on copies so a held Snapshot never aliases live state.

type Snapshot struct {
	PrecinctViolations map[string][]ViolationRow     `json:"precinctViolations"`
	RadarViolations    map[string][]ViolationRow     `json:"radarViolations"`
	StationViolations  map[string][]ViolationRow     `json:"stationViolations"`
	Accidents          map[string]AccidentData       `json:"accidents"`
	Closures           map[string][]RoadClosure      `json:"closures"`
	Activities         map[string][]Activity         `json:"activities"`
	PrecinctJudgments  map[string][]JudgmentDecision `json:"precinctJudgments"`
	StationJudgments   map[string][]JudgmentDecision `json:"stationJudgments"`
	RadarJudgments     map[string][]JudgmentDecision `json:"radarJudgments"`
	Vehicles           []VehicleRegistryRow          `json:"vehicles"`
	Licenses           []LicenseRegistryRow          `json:"licenses"`
}

func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		PrecinctViolations: make(map[string][]ViolationRow, len(s.precinctViolations)),
		RadarViolations:    make(map[string][]ViolationRow, len(s.radarViolations)),
		StationViolations:  make(map[string][]ViolationRow, len(s.stationViolations)),
		Accidents:          s.AllAccidents(),
		Closures:           s.AllClosures(),
		Activities:         s.AllActivities(),
		PrecinctJudgments:  s.AllPrecinctJudgments(),
		StationJudgments:   s.AllStationJudgments(),
		RadarJudgments:     s.AllRadarJudgments(),
		Vehicles:           s.Vehicles(),
		Licenses:           s.Licenses(),
	}
	for name, rows := range s.precinctViolations {
		snap.PrecinctViolations[name] = copyRows(rows)
	}
	for name, rows := range s.radarViolations {
		snap.RadarViolations[name] = copyRows(rows)
	}
	for name, rows := range s.stationViolations {
		snap.StationViolations[name] = copyRows(rows)
	}
	return snap
}

// Restore applies a snapshot onto the fixed entity skeleton. Entries for
// names outside the fixed lists are dropped; missing entries keep their
// current value.
func (s *Store) Restore(snap Snapshot) {
	restoreMap := func(dst, src map[string][]ViolationRow) {
		for name := range dst {
			if rows, ok := src[name]; ok {
				dst[name] = copyRows(rows)
			}
		}
	}
	restoreMap(s.precinctViolations, snap.PrecinctViolations)
	restoreMap(s.radarViolations, snap.RadarViolations)
	restoreMap(s.stationViolations, snap.StationViolations)

	for name := range s.accidents {
		if data, ok := snap.Accidents[name]; ok {
			data.Analysis = copyRows(data.Analysis)
			s.accidents[name] = data
		}
	}
	for name := range s.closures {
		if rows, ok := snap.Closures[name]; ok {
			s.closures[name] = copyRows(rows)
		}
	}
	for name := range s.activities {
		if rows, ok := snap.Activities[name]; ok {
			s.activities[name] = copyRows(rows)
		}
	}
	for name := range s.precinctJudgments {
		if rows, ok := snap.PrecinctJudgments[name]; ok {
			s.precinctJudgments[name] = copyRows(rows)
		}
	}
	for name := range s.stationJudgments {
		if rows, ok := snap.StationJudgments[name]; ok {
			s.stationJudgments[name] = copyRows(rows)
		}
	}
	for name := range s.radarJudgments {
		if rows, ok := snap.RadarJudgments[name]; ok {
			s.radarJudgments[name] = copyRows(rows)
		}
	}
	if len(snap.Vehicles) > 0 {
		s.vehicles = copyRows(snap.Vehicles)
	}
	if len(snap.Licenses) > 0 {
		s.licenses = copyRows(snap.Licenses)
	}
}
