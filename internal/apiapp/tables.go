package apiapp

import (
	"github.com/saif-almayahi/muroor/internal/export"
	"github.com/saif-almayahi/muroor/internal/registry"
	"github.com/saif-almayahi/muroor/internal/report"
)

// Table builders shared by the JSON report endpoints and the Excel export
// endpoints. Column titles match the directorate's printed forms.

func violationTotalsTable(name string, rep report.CrossEntityReport) export.Table {
	t := export.Table{
		Name: name,
		Headers: []string{
			"ت",
			"اسم المخالفة",
			"المجموع الصباحي",
			"المجموع المسائي",
			"المجموع الكلي",
			"المبلغ الكلي للمخالفة",
		},
	}
	for _, row := range rep.Rows {
		t.Rows = append(t.Rows, []any{
			row.ID, row.Name,
			row.Totals.MorningCount, row.Totals.EveningCount,
			row.Totals.TotalCount, row.Totals.TotalAmount,
		})
	}
	t.Rows = append(t.Rows, []any{
		"", "المجاميع النهائية",
		rep.GrandTotal.MorningCount, rep.GrandTotal.EveningCount,
		rep.GrandTotal.TotalCount, rep.GrandTotal.TotalAmount,
	})
	return t
}

func perEntitySummaryTable(name, entityHeader string, rows []report.NamedTotals) export.Table {
	t := export.Table{
		Name: name,
		Headers: []string{
			entityHeader,
			"الموقف الصباحي",
			"الموقف المسائي",
			"مجموع المخالفات",
			"مجموع المبالغ",
		},
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []any{
			row.Name,
			row.Totals.MorningCount, row.Totals.EveningCount,
			row.Totals.TotalCount, row.Totals.TotalAmount,
		})
	}
	return t
}

var categoryLabels = map[report.Category]string{
	report.CategorySeizedMotorcycles:     "دراجات محجوزة",
	report.CategorySeizedVehicles:        "مركبات محجوزة",
	report.CategoryMotorcycleViolations:  "مخالفات الدراجات",
	report.CategoryNoPlates:              "بدون لوحات",
	report.CategoryDrivingLicense:        "إجازة سوق",
	report.CategoryTintedGlass:           "زجاج مظلل",
	report.CategoryAgainstTraffic:        "عكس الاتجاه",
	report.CategoryPrivateAsTaxi:         "خصوصي أجرة",
	report.CategoryNoSeatbelt:            "حزام الامان",
	report.CategoryIllegalParking:        "وقوف ممنوع",
	report.CategoryTrafficLight:          "إشارة ضوئية",
	report.CategoryTruckOvernightParking: "مبيت الحمل",
	report.CategoryOther:                 "مخالفات أخرى",
}

func detailedSummaryTable(rep report.DetailedReport) export.Table {
	headers := []string{"اسم القاطع"}
	for _, cat := range report.AllCategories {
		headers = append(headers, categoryLabels[cat])
	}
	headers = append(headers, "مجموع القاطع", "مبلغ المخالفة")

	t := export.Table{Name: "الموقف التفصيلي للقواطع", Headers: headers}
	appendRow := func(row report.DetailedRow) {
		cells := []any{row.EntityName}
		for _, cat := range report.AllCategories {
			cells = append(cells, row.Counts[cat])
		}
		cells = append(cells, row.RowTotal, row.Amount)
		t.Rows = append(t.Rows, cells)
	}
	for _, row := range rep.Rows {
		appendRow(row)
	}
	appendRow(rep.GrandTotal)
	return t
}

func accidentTables(totals report.AccidentTotals, analysis []analysisRow) []export.Table {
	types := export.Table{
		Name:    "انواع الحوادث",
		Headers: []string{"دهس", "اصطدام", "انقلاب", "اخرى", "المجموع"},
		Rows: [][]any{{
			totals.Types.Pedestrian, totals.Types.Collision,
			totals.Types.Rollover, totals.Types.Other, totals.TypeTotal(),
		}},
	}
	deaths := export.Table{
		Name:    "الوفيات",
		Headers: []string{"رجال", "نساء", "اطفال", "المجموع"},
		Rows: [][]any{{
			totals.Deaths.Men, totals.Deaths.Women,
			totals.Deaths.Children, totals.DeathTotal(),
		}},
	}
	injuries := export.Table{
		Name:    "الاصابات",
		Headers: []string{"رجال", "نساء", "اطفال", "المجموع"},
		Rows: [][]any{{
			totals.Injuries.Men, totals.Injuries.Women,
			totals.Injuries.Children, totals.InjuryTotal(),
		}},
	}
	detail := export.Table{
		Name: "تحليل الحوادث",
		Headers: []string{
			"القاطع", "نوع الحادث", "نوع الطريق", "الوفيات", "الاصابات",
			"الاسباب", "الوقت", "التاريخ", "التحليل", "الاستنتاج",
		},
	}
	for _, row := range analysis {
		detail.Rows = append(detail.Rows, []any{
			row.PrecinctName, row.AccidentType, row.RoadType,
			row.Deaths, row.Injuries, row.Causes,
			row.Time, row.Date, row.Analysis, row.Conclusion,
		})
	}
	return []export.Table{types, deaths, injuries, detail}
}

func closuresTable(rows []closureRow) export.Table {
	t := export.Table{
		Name: "ملخص القطوعات",
		Headers: []string{
			"القاطع", "الموقع", "نوع القطع", "المدة", "المسافة", "السبب", "الطريق البديل",
		},
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []any{
			row.PrecinctName, row.Location, row.Type,
			row.Duration, row.Distance, row.Reason, row.Detour,
		})
	}
	return t
}

func activitiesTable(rows []activityRow) export.Table {
	t := export.Table{
		Name: "ملخص النشاطات",
		Headers: []string{
			"القاطع", "اسم النشاط", "النوع", "التاريخ", "الموقع", "الملاحظات",
		},
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []any{
			row.PrecinctName, row.Name, row.Type, row.Date, row.Location, row.Notes,
		})
	}
	return t
}

func judgmentsTable(rows []judgmentRow) export.Table {
	t := export.Table{
		Name: "ملخص قرارات الحكم",
		Headers: []string{
			"الجهة", "نص القرار", "اسم المخالف", "مبلغ الغرامة", "تاريخ المخالفة",
		},
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []any{
			row.SourceName, row.DecisionText, row.ViolatorName,
			row.FineAmount, row.ViolationDate,
		})
	}
	return t
}

func vehicleRegistryTable(rows []registry.VehicleRegistryRow, totals report.VehicleRegistryTotals) export.Table {
	t := export.Table{
		Name: "بيانات السيارات",
		Headers: []string{
			"النوع", "الموقف السابق", "قرار 68", "المحافظات الشمالية",
			"المرقنة قيودها", "الموقف النهائي",
		},
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []any{
			row.Type, row.Start, row.Decision68, row.Northern,
			row.Deregistered, row.End(),
		})
	}
	t.Rows = append(t.Rows, []any{
		"المجموع", totals.Start, totals.Decision68, totals.Northern,
		totals.Deregistered, totals.End,
	})
	return t
}

func licenseRegistryTable(rows []registry.LicenseRegistryRow, totals report.LicenseRegistryTotals) export.Table {
	t := export.Table{
		Name: "بيانات الإجازات",
		Headers: []string{
			"النوع", "الموقف السابق", "الممنوحة", "المحولة", "المجددة", "الموقف النهائي",
		},
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []any{
			row.Type, row.Previous, row.Granted, row.Changed, row.Renewed, row.End(),
		})
	}
	t.Rows = append(t.Rows, []any{
		"المجموع", totals.Previous, totals.Granted, totals.Changed,
		totals.Renewed, totals.End,
	})
	return t
}
