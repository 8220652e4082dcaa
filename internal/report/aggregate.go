package report

import (
	"errors"
	"time"

	"github.com/saif-almayahi/muroor/internal/registry"
)

// ErrInvalidDateRange is returned when a filter's start date falls after its
// end date. Callers keep their prior view; the filter is not applied.
var ErrInvalidDateRange = errors.New("start date must not be after end date")

type Totals struct {
	MorningCount  int   `json:"morningCount"`
	EveningCount  int   `json:"eveningCount"`
	TotalCount    int   `json:"totalCount"`
	MorningAmount int64 `json:"morningAmount"`
	EveningAmount int64 `json:"eveningAmount"`
	TotalAmount   int64 `json:"totalAmount"`
}

func (t *Totals) add(row registry.ViolationRow) {
	t.MorningCount += row.MorningCount
	t.EveningCount += row.EveningCount
	t.TotalCount += row.MorningCount + row.EveningCount
	t.MorningAmount += row.MorningAmount
	t.EveningAmount += row.EveningAmount
	t.TotalAmount += row.MorningAmount + row.EveningAmount
}

type RowTotals struct {
	Count  int   `json:"count"`
	Amount int64 `json:"amount"`
}

func RowTotal(row registry.ViolationRow) RowTotals {
	return RowTotals{
		Count:  row.MorningCount + row.EveningCount,
		Amount: row.MorningAmount + row.EveningAmount,
	}
}

// GrandTotal sums a row sequence. Zero-valued for the empty sequence.
func GrandTotal(rows []registry.ViolationRow) Totals {
	var t Totals
	for _, row := range rows {
		t.add(row)
	}
	return t
}

type NamedTotals struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Totals Totals `json:"totals"`
}

type CrossEntityReport struct {
	Rows       []NamedTotals `json:"rows"`
	GrandTotal Totals        `json:"grandTotal"`
}

// CrossEntityTotal sums each canonical violation name across every entity.
// A non-empty filter restricts which names appear in the output, but each
// retained name is still summed over all entities. Canonical template order
// is preserved.
func CrossEntityTotal(collections []registry.EntityViolations, canonicalNames []string, nameFilter []string) CrossEntityReport {
	perName := make(map[string]*Totals, len(canonicalNames))
	for _, name := range canonicalNames {
		perName[name] = &Totals{}
	}
	for _, entity := range collections {
		for _, row := range entity.Violations {
			if t, ok := perName[row.Name]; ok {
				t.add(row)
			}
		}
	}

	var keep map[string]bool
	if len(nameFilter) > 0 {
		keep = make(map[string]bool, len(nameFilter))
		for _, name := range nameFilter {
			keep[name] = true
		}
	}

	report := CrossEntityReport{Rows: make([]NamedTotals, 0, len(canonicalNames))}
	for _, name := range canonicalNames {
		if keep != nil && !keep[name] {
			continue
		}
		t := *perName[name]
		report.Rows = append(report.Rows, NamedTotals{ID: len(report.Rows) + 1, Name: name, Totals: t})
		report.GrandTotal.MorningCount += t.MorningCount
		report.GrandTotal.EveningCount += t.EveningCount
		report.GrandTotal.TotalCount += t.TotalCount
		report.GrandTotal.MorningAmount += t.MorningAmount
		report.GrandTotal.EveningAmount += t.EveningAmount
		report.GrandTotal.TotalAmount += t.TotalAmount
	}
	return report
}

// PerEntitySummary produces one grand-total row per entity, in input order.
func PerEntitySummary(collections []registry.EntityViolations) []NamedTotals {
	out := make([]NamedTotals, 0, len(collections))
	for i, entity := range collections {
		out = append(out, NamedTotals{ID: i + 1, Name: entity.EntityName, Totals: GrandTotal(entity.Violations)})
	}
	return out
}

const dateLayout = "2006-01-02"

// FilterAnalysisByDate retains rows dated within [start 00:00, end end-of-day].
// Rows without a date are excluded unconditionally. Dates are compared at
// day granularity, so a row on the end date is always retained.
func FilterAnalysisByDate(rows []registry.AccidentAnalysis, start, end time.Time) ([]registry.AccidentAnalysis, error) {
	startDay := midnight(start)
	endDay := midnight(end)
	if startDay.After(endDay) {
		return nil, ErrInvalidDateRange
	}

	out := make([]registry.AccidentAnalysis, 0, len(rows))
	for _, row := range rows {
		if row.Date == "" {
			continue
		}
		day, err := time.Parse(dateLayout, row.Date)
		if err != nil {
			continue
		}
		if day.Before(startDay) || day.After(endDay) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type AccidentTotals struct {
	Types    registry.AccidentTypeCounts `json:"types"`
	Deaths   registry.CasualtyCounts     `json:"deaths"`
	Injuries registry.CasualtyCounts     `json:"injuries"`
}

func (t AccidentTotals) TypeTotal() int {
	return t.Types.Pedestrian + t.Types.Collision + t.Types.Rollover + t.Types.Other
}

func (t AccidentTotals) DeathTotal() int {
	return t.Deaths.Men + t.Deaths.Women + t.Deaths.Children
}

func (t AccidentTotals) InjuryTotal() int {
	return t.Injuries.Men + t.Injuries.Women + t.Injuries.Children
}

// AccidentSummary sums type/death/injury counters across precincts.
func AccidentSummary(perPrecinct map[string]registry.AccidentData) AccidentTotals {
	var t AccidentTotals
	for _, data := range perPrecinct {
		t.Types.Pedestrian += data.Types.Pedestrian
		t.Types.Collision += data.Types.Collision
		t.Types.Rollover += data.Types.Rollover
		t.Types.Other += data.Types.Other
		t.Deaths.Men += data.Deaths.Men
		t.Deaths.Women += data.Deaths.Women
		t.Deaths.Children += data.Deaths.Children
		t.Injuries.Men += data.Injuries.Men
		t.Injuries.Women += data.Injuries.Women
		t.Injuries.Children += data.Injuries.Children
	}
	return t
}

type VehicleRegistryTotals struct {
	Start        int `json:"start"`
	Decision68   int `json:"decision68"`
	Northern     int `json:"northern"`
	Deregistered int `json:"deregistered"`
	End          int `json:"end"`
}

func VehicleRegistryTotal(rows []registry.VehicleRegistryRow) VehicleRegistryTotals {
	var t VehicleRegistryTotals
	for _, row := range rows {
		t.Start += row.Start
		t.Decision68 += row.Decision68
		t.Northern += row.Northern
		t.Deregistered += row.Deregistered
		t.End += row.End()
	}
	return t
}

type LicenseRegistryTotals struct {
	Previous int `json:"previous"`
	Granted  int `json:"granted"`
	Changed  int `json:"changed"`
	Renewed  int `json:"renewed"`
	End      int `json:"end"`
}

func LicenseRegistryTotal(rows []registry.LicenseRegistryRow) LicenseRegistryTotals {
	var t LicenseRegistryTotals
	for _, row := range rows {
		t.Previous += row.Previous
		t.Granted += row.Granted
		t.Changed += row.Changed
		t.Renewed += row.Renewed
		t.End += row.End()
	}
	return t
}
