package report

import (
	"fmt"

	"github.com/saif-almayahi/muroor/internal/registry"
)

// Category is one of the semantic groupings used by the detailed precinct
// report. CategoryOther collects every violation name the static table does
// not claim.
type Category string

const (
	CategorySeizedMotorcycles     Category = "seizedMotorcycles"
	CategorySeizedVehicles        Category = "seizedVehicles"
	CategoryMotorcycleViolations  Category = "motorcycleViolations"
	CategoryNoPlates              Category = "noPlates"
	CategoryDrivingLicense        Category = "drivingLicense"
	CategoryTintedGlass           Category = "tintedGlass"
	CategoryAgainstTraffic        Category = "againstTraffic"
	CategoryPrivateAsTaxi         Category = "privateAsTaxi"
	CategoryNoSeatbelt            Category = "noSeatbelt"
	CategoryIllegalParking        Category = "illegalParking"
	CategoryTrafficLight          Category = "trafficLight"
	CategoryTruckOvernightParking Category = "truckOvernightParking"
	CategoryOther                 Category = "otherViolations"
)

// Categories lists the named groupings in report-column order, excluding the
// implicit other bucket.
var Categories = []Category{
	CategorySeizedMotorcycles,
	CategorySeizedVehicles,
	CategoryMotorcycleViolations,
	CategoryNoPlates,
	CategoryDrivingLicense,
	CategoryTintedGlass,
	CategoryAgainstTraffic,
	CategoryPrivateAsTaxi,
	CategoryNoSeatbelt,
	CategoryIllegalParking,
	CategoryTrafficLight,
	CategoryTruckOvernightParking,
}

// AllCategories is Categories plus the other bucket, in column order.
var AllCategories = append(append([]Category{}, Categories...), CategoryOther)

var categoryNames = map[Category][]string{
	CategorySeizedMotorcycles: {
		"م ب رقم ( 1 ) لسنة 2012 قيادة الدراجات النارية من الساعة 6 مساءً ولغاية 6 صباحا . استقلال الدراجة من قبل شخصين",
		"الدراجات المحجوزة",
	},
	CategorySeizedVehicles: {
		"حجز مركبات الفحص المؤقت",
		"المركبات المحجوزة",
	},
	CategoryMotorcycleViolations: {
		"قيادة الدراجات النارية سعة محركها تقل عن (40 cc ) في الشوارع الرئيسية",
	},
	CategoryNoPlates: {
		"عدم تثبيت لوحات مفردة او مزدوجة ( بدون لوحات تسجيل )",
	},
	CategoryDrivingLicense: {
		"قيادة مركبة بإجازة سوق غير مخصصة بنوع المركبة",
		"عدم حمل (إجازة سوق او سنوية) او الامتناع عن اعطائها",
		"عدم تجديد (إجازة سوق او السنوية ) بعد مرور (30) يوم",
	},
	CategoryTintedGlass: {
		"الزجاج المضلل والستائر",
	},
	CategoryAgainstTraffic: {
		"السير عكس الاتجاه",
	},
	CategoryPrivateAsTaxi: {
		"م0ب(3) لسنة 2019 استخدام السيارات الخصوصي للإجرة",
	},
	CategoryNoSeatbelt: {
		"عدم ارتداء حزام الامان ( للسائق او الراكب الذي بجانبه ) او جلوس الاطفال دون سن (8 سنوات ) في المقعد الامامي للسيارة",
	},
	CategoryIllegalParking: {
		"الوقوف الممنوع",
	},
	CategoryTrafficLight: {
		"عدم الامتثال للإشارة الضوئية او اشارة رجل المرور",
	},
	CategoryTruckOvernightParking: {
		"مخالفات مبيت الحمل او السيارات الكبيرة داخل الاحياء",
	},
}

// categoryByName is the inverted exact-match index. Built once; a violation
// name claimed by two categories would silently shadow the second, so the
// inversion fails loudly instead.
var categoryByName = invertCategoryNames()

func invertCategoryNames() map[string]Category {
	idx := make(map[string]Category)
	for _, cat := range Categories {
		for _, name := range categoryNames[cat] {
			if prev, ok := idx[name]; ok {
				panic(fmt.Sprintf("violation %q listed under both %s and %s", name, prev, cat))
			}
			idx[name] = cat
		}
	}
	return idx
}

// Classify maps a violation display name to its category. Total: unknown
// names land in CategoryOther.
func Classify(violationName string) Category {
	if cat, ok := categoryByName[violationName]; ok {
		return cat
	}
	return CategoryOther
}

// Shift selects which recording window a detailed-report cell reflects.
type Shift string

const (
	ShiftMorning Shift = "morning"
	ShiftEvening Shift = "evening"
	ShiftTotal   Shift = "total"
)

func ParseShift(raw string) (Shift, error) {
	switch Shift(raw) {
	case ShiftMorning, ShiftEvening, ShiftTotal:
		return Shift(raw), nil
	case "":
		return ShiftTotal, nil
	}
	return "", fmt.Errorf("unknown shift %q", raw)
}

// CategoryTotals accumulates one category's counts and amounts for one entity.
type CategoryTotals struct {
	Morning       int   `json:"morning"`
	Evening       int   `json:"evening"`
	MorningAmount int64 `json:"morningAmount"`
	EveningAmount int64 `json:"eveningAmount"`
}

func (c CategoryTotals) Count(shift Shift) int {
	switch shift {
	case ShiftMorning:
		return c.Morning
	case ShiftEvening:
		return c.Evening
	default:
		return c.Morning + c.Evening
	}
}

func (c CategoryTotals) Amount(shift Shift) int64 {
	switch shift {
	case ShiftMorning:
		return c.MorningAmount
	case ShiftEvening:
		return c.EveningAmount
	default:
		return c.MorningAmount + c.EveningAmount
	}
}

type DetailedRow struct {
	EntityName string           `json:"entityName"`
	Counts     map[Category]int `json:"counts"`
	RowTotal   int              `json:"rowTotal"`
	Amount     int64            `json:"amount"`
}

type DetailedReport struct {
	Shift      Shift         `json:"shift"`
	Rows       []DetailedRow `json:"rows"`
	GrandTotal DetailedRow   `json:"grandTotal"`
}

// DetailedSummary buckets every precinct's rows into categories and renders
// them under the selected shift. Recomputed per call; shift changes are never
// served from a cache.
func DetailedSummary(collections []registry.EntityViolations, shift Shift) DetailedReport {
	report := DetailedReport{
		Shift: shift,
		Rows:  make([]DetailedRow, 0, len(collections)),
		GrandTotal: DetailedRow{
			EntityName: "المجموع الكلي",
			Counts:     make(map[Category]int, len(AllCategories)),
		},
	}

	for _, entity := range collections {
		buckets := make(map[Category]*CategoryTotals, len(AllCategories))
		for _, cat := range AllCategories {
			buckets[cat] = &CategoryTotals{}
		}
		for _, v := range entity.Violations {
			b := buckets[Classify(v.Name)]
			b.Morning += v.MorningCount
			b.Evening += v.EveningCount
			b.MorningAmount += v.MorningAmount
			b.EveningAmount += v.EveningAmount
		}

		row := DetailedRow{
			EntityName: entity.EntityName,
			Counts:     make(map[Category]int, len(AllCategories)),
		}
		for _, cat := range AllCategories {
			count := buckets[cat].Count(shift)
			row.Counts[cat] = count
			row.RowTotal += count
			row.Amount += buckets[cat].Amount(shift)
		}
		report.Rows = append(report.Rows, row)

		for _, cat := range AllCategories {
			report.GrandTotal.Counts[cat] += row.Counts[cat]
		}
		report.GrandTotal.RowTotal += row.RowTotal
		report.GrandTotal.Amount += row.Amount
	}
	return report
}
