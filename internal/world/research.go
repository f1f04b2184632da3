package world

// Technology is a researchable catalog entry. Prerequisites are other
// technology ids that must be completed first.
type Technology struct {
	ID            string   `db:"id" json:"id"`
	Name          string   `db:"name" json:"name"`
	Category      string   `db:"category" json:"category"`
	Cost          float64  `db:"cost" json:"cost"`
	Prerequisites []string `json:"prerequisites"`
}

// CompanyTechnology tracks one company's progress on one technology.
// Completed is a one-way latch; progress accrual stops once set.
type CompanyTechnology struct {
	ID           string  `db:"id" json:"id"`
	CompanyID    string  `db:"company_id" json:"companyId"`
	TechnologyID string  `db:"technology_id" json:"technologyId"`
	Progress     float64 `db:"progress" json:"progress"`
	Completed    bool    `db:"completed" json:"completed"`
	StartedTurn  int64   `db:"started_turn" json:"startedTurn"`
}

// QualityStandard is a company's inspection policy for one resource
// category.
type QualityStandard struct {
	ID            string  `db:"id" json:"id"`
	CompanyID     string  `db:"company_id" json:"companyId"`
	Category      string  `db:"category" json:"category"`
	MinAcceptable float64 `db:"min_acceptable" json:"minAcceptable"`
	TargetQuality float64 `db:"target_quality" json:"targetQuality"`
	Frequency     string  `db:"frequency" json:"frequency"`
	Rigor         float64 `db:"rigor" json:"rigor"`
	BonusEnabled  bool    `db:"bonus_enabled" json:"bonusEnabled"`
}

// QualityInspection records one inspection of a produced batch.
type QualityInspection struct {
	ID              string  `db:"id" json:"id"`
	StandardID      string  `db:"standard_id" json:"standardId"`
	UnitID          string  `db:"unit_id" json:"unitId"`
	ResourceID      string  `db:"resource_id" json:"resourceId"`
	SampleSize      float64 `db:"sample_size" json:"sampleSize"`
	MeasuredQuality float64 `db:"measured_quality" json:"measuredQuality"`
	ActualQuality   float64 `db:"actual_quality" json:"actualQuality"`
	Passed          bool    `db:"passed" json:"passed"`
	Detected        bool    `db:"detected" json:"detected"`
	BonusAwarded    bool    `db:"bonus_awarded" json:"bonusAwarded"`
	Turn            int64   `db:"turn" json:"turn"`
}

// TurnLogEntry is one append-only audit record of a phase outcome. ID is a
// ULID so the log sorts by insertion order.
type TurnLogEntry struct {
	ID      string `db:"id" json:"id"`
	Turn    int64  `db:"turn" json:"turn"`
	Phase   string `db:"phase" json:"phase"`
	Status  string `db:"status" json:"status"`
	Detail  string `db:"detail" json:"detail"`
}

// GameState is the singleton row holding the turn counter.
type GameState struct {
	ID          int   `db:"id" json:"id"`
	CurrentTurn int64 `db:"current_turn" json:"currentTurn"`
}
