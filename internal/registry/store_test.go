package registry

import (
	"errors"
	"testing"
)

func TestNewStoreSeedsFixedEntities(t *testing.T) {
	s := NewStore()

	for _, precinct := range PrecinctNames {
		rows := s.PrecinctViolations(precinct)
		if len(rows) != len(ViolationNames) {
			t.Fatalf("precinct %s: expected %d rows, got %d", precinct, len(ViolationNames), len(rows))
		}
		for i, row := range rows {
			if row.ID != i+1 {
				t.Fatalf("precinct %s row %d: expected id %d, got %d", precinct, i, i+1, row.ID)
			}
			if row.Name != ViolationNames[i] {
				t.Fatalf("precinct %s row %d: expected name %q, got %q", precinct, i, ViolationNames[i], row.Name)
			}
			if row.MorningCount != 0 || row.EveningCount != 0 || row.MorningAmount != 0 || row.EveningAmount != 0 {
				t.Fatalf("precinct %s row %d: expected zeroed counters", precinct, i)
			}
		}
	}

	for _, station := range WeighStationNames {
		if got := len(s.StationViolations(station)); got != len(WeighStationViolationNames) {
			t.Fatalf("station %s: expected %d rows, got %d", station, len(WeighStationViolationNames), got)
		}
	}
	for _, precinct := range PrecinctNames {
		if got := len(s.RadarViolations(precinct)); got != len(RadarViolationNames) {
			t.Fatalf("radar set %s: expected %d rows, got %d", precinct, len(RadarViolationNames), got)
		}
	}
}

func TestViolationNamesAreUnique(t *testing.T) {
	seen := make(map[string]bool, len(ViolationNames))
	for _, name := range ViolationNames {
		if seen[name] {
			t.Fatalf("duplicate violation name %q", name)
		}
		seen[name] = true
	}
}

func TestUpdateAndReadPrecinctViolations(t *testing.T) {
	s := NewStore()
	precinct := PrecinctNames[0]

	rows := s.PrecinctViolations(precinct)
	rows[0].MorningCount = 5
	rows[0].MorningAmount = 125000

	if err := s.UpdatePrecinctViolations(precinct, rows); err != nil {
		t.Fatalf("update: %v", err)
	}

	got := s.PrecinctViolations(precinct)
	if got[0].MorningCount != 5 || got[0].MorningAmount != 125000 {
		t.Fatalf("expected updated counters, got %+v", got[0])
	}

	// The returned slice is a copy; mutating it must not touch the store.
	got[0].MorningCount = 99
	if s.PrecinctViolations(precinct)[0].MorningCount != 5 {
		t.Fatalf("store state leaked through returned slice")
	}
}

func TestUpdateUnknownEntity(t *testing.T) {
	s := NewStore()
	err := s.UpdatePrecinctViolations("قاطع غير موجود", ViolationTemplate(ViolationNames))
	if !errors.Is(err, ErrUnknownEntity) {
		t.Fatalf("expected ErrUnknownEntity, got %v", err)
	}
	if err := s.UpdateClosures("قاطع غير موجود", nil); !errors.Is(err, ErrUnknownEntity) {
		t.Fatalf("expected ErrUnknownEntity for closures, got %v", err)
	}
}

func TestReadUnknownEntityReturnsEmpty(t *testing.T) {
	s := NewStore()
	if rows := s.PrecinctViolations("قاطع غير موجود"); len(rows) != 0 {
		t.Fatalf("expected empty slice for unknown precinct, got %d rows", len(rows))
	}
}

func TestAllPrecinctViolationsCanonicalOrder(t *testing.T) {
	s := NewStore()
	collections := s.AllPrecinctViolations()
	if len(collections) != len(PrecinctNames) {
		t.Fatalf("expected %d collections, got %d", len(PrecinctNames), len(collections))
	}
	for i, entity := range collections {
		if entity.EntityName != PrecinctNames[i] {
			t.Fatalf("collection %d: expected %q, got %q", i, PrecinctNames[i], entity.EntityName)
		}
	}
}

func TestJudgmentsRoundTrip(t *testing.T) {
	s := NewStore()
	station := WeighStationNames[0]

	decision := JudgmentDecision{
		ID:            "2026-09-01T10:00:00Z",
		DecisionText:  "غرامة مالية",
		ViolatorName:  "سائق الشاحنة",
		FineAmount:    250000,
		ViolationDate: "2026-08-30",
	}
	if err := s.UpdateStationJudgments(station, []JudgmentDecision{decision}); err != nil {
		t.Fatalf("update judgments: %v", err)
	}

	got := s.StationJudgments(station)
	if len(got) != 1 || got[0] != decision {
		t.Fatalf("expected stored judgment, got %+v", got)
	}
}

func TestAccidentsReplaceWholeRecord(t *testing.T) {
	s := NewStore()
	precinct := PrecinctNames[2]

	data := s.Accidents(precinct)
	data.Types.Collision = 3
	data.Deaths.Men = 1
	data.Analysis = append(data.Analysis, AccidentAnalysis{
		ID:           "acc-1",
		AccidentType: "اصطدام",
		Date:         "2026-08-15",
		Deaths:       1,
	})
	if err := s.UpdateAccidents(precinct, data); err != nil {
		t.Fatalf("update accidents: %v", err)
	}

	got := s.Accidents(precinct)
	if got.Types.Collision != 3 || got.Deaths.Men != 1 || len(got.Analysis) != 1 {
		t.Fatalf("expected stored accident record, got %+v", got)
	}
}

func TestVehicleAndLicenseDerivedTotals(t *testing.T) {
	row := VehicleRegistryRow{Type: "صالون", Start: 100, Decision68: 10, Northern: 5, Deregistered: 3}
	if got := row.End(); got != 112 {
		t.Fatalf("expected vehicle end 112, got %d", got)
	}
	lic := LicenseRegistryRow{Type: "خصوصي", Previous: 50, Granted: 20, Changed: 4, Renewed: 9}
	if got := lic.End(); got != 66 {
		t.Fatalf("expected license end 66, got %d", got)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := NewStore()
	precinct := PrecinctNames[1]

	rows := s.PrecinctViolations(precinct)
	rows[3].EveningCount = 7
	if err := s.UpdatePrecinctViolations(precinct, rows); err != nil {
		t.Fatalf("update: %v", err)
	}
	vehicles := s.Vehicles()
	vehicles[0].Start = 1000
	s.UpdateVehicles(vehicles)

	snap := s.Snapshot()

	fresh := NewStore()
	fresh.Restore(snap)
	if got := fresh.PrecinctViolations(precinct); got[3].EveningCount != 7 {
		t.Fatalf("expected restored counter, got %+v", got[3])
	}
	if got := fresh.Vehicles(); got[0].Start != 1000 {
		t.Fatalf("expected restored vehicle row, got %+v", got[0])
	}
}

func TestRestoreDropsUnknownEntities(t *testing.T) {
	s := NewStore()
	snap := s.Snapshot()
	snap.PrecinctViolations["قاطع غير موجود"] = ViolationTemplate(ViolationNames)

	fresh := NewStore()
	fresh.Restore(snap)
	if rows := fresh.PrecinctViolations("قاطع غير موجود"); len(rows) != 0 {
		t.Fatalf("expected unknown precinct to be dropped on restore")
	}
}
