package registry

type ViolationRow struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	MorningCount  int    `json:"morningCount"`
	EveningCount  int    `json:"eveningCount"`
	MorningAmount int64  `json:"morningAmount"`
	EveningAmount int64  `json:"eveningAmount"`
}

type EntityViolations struct {
	EntityName string         `json:"entityName"`
	Violations []ViolationRow `json:"violations"`
}

type AccidentTypeCounts struct {
	Pedestrian int `json:"pedestrian"`
	Collision  int `json:"collision"`
	Rollover   int `json:"rollover"`
	Other      int `json:"other"`
}

type CasualtyCounts struct {
	Men      int `json:"men"`
	Women    int `json:"women"`
	Children int `json:"children"`
}

type AccidentAnalysis struct {
	ID           string `json:"id"`
	AccidentType string `json:"accidentType"`
	RoadType     string `json:"roadType"`
	Deaths       int    `json:"deaths"`
	Injuries     int    `json:"injuries"`
	Causes       string `json:"causes"`
	Time         string `json:"time"`
	Date         string `json:"date"`
	Analysis     string `json:"analysis"`
	Conclusion   string `json:"conclusion"`
}

type AccidentData struct {
	ID       string             `json:"id"`
	Types    AccidentTypeCounts `json:"types"`
	Deaths   CasualtyCounts     `json:"deaths"`
	Injuries CasualtyCounts     `json:"injuries"`
	Analysis []AccidentAnalysis `json:"analysis"`
}

type RoadClosure struct {
	ID       string `json:"id"`
	Location string `json:"location"`
	Type     string `json:"type"`
	Duration string `json:"duration"`
	Distance string `json:"distance"`
	Reason   string `json:"reason"`
	Detour   string `json:"detour"`
}

type Activity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Date     string `json:"date"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

type JudgmentDecision struct {
	ID            string `json:"id"`
	DecisionText  string `json:"decisionText"`
	ViolatorName  string `json:"violatorName"`
	FineAmount    int64  `json:"fineAmount"`
	ViolationDate string `json:"violationDate"`
	PhotoDataURI  string `json:"photoDataUri,omitempty"`
}

// VehicleRegistryRow tracks registered-vehicle movement for one vehicle type.
// The closing balance is derived, never stored.
type VehicleRegistryRow struct {
	Type         string `json:"type"`
	Start        int    `json:"start"`
	Decision68   int    `json:"decision68"`
	Northern     int    `json:"northern"`
	Deregistered int    `json:"deregistered"`
}

func (r VehicleRegistryRow) End() int {
	return r.Start + r.Decision68 + r.Northern - r.Deregistered
}

type LicenseRegistryRow struct {
	Type     string `json:"type"`
	Previous int    `json:"previous"`
	Granted  int    `json:"granted"`
	Changed  int    `json:"changed"`
	Renewed  int    `json:"renewed"`
}

func (r LicenseRegistryRow) End() int {
	return r.Previous + r.Granted - r.Changed
}

// ViolationTemplate builds the zeroed fixed-order row set for one entity.
// IDs are 1-based positions in the name list.
func ViolationTemplate(names []string) []ViolationRow {
	rows := make([]ViolationRow, len(names))
	for i, name := range names {
		rows[i] = ViolationRow{ID: i + 1, Name: name}
	}
	return rows
}
