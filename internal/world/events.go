package world

// BusinessEventType classifies notable business outcomes fed into the
// event bridge.
type BusinessEventType string

const (
	EventBankruptcy  BusinessEventType = "bankruptcy"
	EventMerger      BusinessEventType = "merger"
	EventMarketCrash BusinessEventType = "market_crash"
	EventExpansion   BusinessEventType = "expansion"
	EventLayoff      BusinessEventType = "layoff"
	EventInnovation  BusinessEventType = "innovation"
	EventScandal     BusinessEventType = "scandal"
	EventSuccess     BusinessEventType = "success"
)

// NarrativeCategory classifies world events on the narrative side of the
// bridge.
type NarrativeCategory string

const (
	NarrativeConflict      NarrativeCategory = "conflict"
	NarrativeNatural       NarrativeCategory = "natural"
	NarrativePolitical     NarrativeCategory = "political"
	NarrativeEconomic      NarrativeCategory = "economic"
	NarrativeTechnological NarrativeCategory = "technological"
	NarrativeSocial        NarrativeCategory = "social"
	NarrativeDiscovery     NarrativeCategory = "discovery"
)

// BusinessEvent is an outcome reported by the economic layer. ID is the
// idempotency key of the bridge: the same event id never propagates twice.
type BusinessEvent struct {
	ID        string            `db:"id" json:"id"`
	Type      BusinessEventType `db:"event_type" json:"type"`
	CompanyID string            `db:"company_id" json:"companyId"`
	CityID    string            `db:"city_id" json:"cityId,omitempty"`
	Magnitude float64           `db:"magnitude" json:"magnitude"`
	Details   string            `db:"details" json:"details"`
	Turn      int64             `db:"turn" json:"turn"`
}

// WorldEvent is a narrative event affecting cities and markets while active.
type WorldEvent struct {
	ID         string            `db:"id" json:"id"`
	Category   NarrativeCategory `db:"category" json:"category"`
	Title      string            `db:"title" json:"title"`
	Importance float64           `db:"importance" json:"importance"`
	CityID     string            `db:"city_id" json:"cityId,omitempty"`
	StartTurn  int64             `db:"start_turn" json:"startTurn"`
	EndTurn    int64             `db:"end_turn" json:"endTurn"`
	Active     bool              `db:"active" json:"active"`
}

// EventPropagation is the audit record linking a source event to what the
// bridge derived from it. ID is a ULID so records sort by creation order.
type EventPropagation struct {
	ID            string `db:"id" json:"id"`
	SourceEventID string `db:"source_event_id" json:"sourceEventId"`
	Direction     string `db:"direction" json:"direction"`
	ResultEventID string `db:"result_event_id" json:"resultEventId"`
	Turn          int64  `db:"turn" json:"turn"`
}

// ScheduledEvent fires a world event at TriggerTurn. Recurring events
// reschedule themselves by Interval after firing.
type ScheduledEvent struct {
	ID          string            `db:"id" json:"id"`
	Category    NarrativeCategory `db:"category" json:"category"`
	Title       string            `db:"title" json:"title"`
	Importance  float64           `db:"importance" json:"importance"`
	CityID      string            `db:"city_id" json:"cityId,omitempty"`
	TriggerTurn int64             `db:"trigger_turn" json:"triggerTurn"`
	Duration    int64             `db:"duration" json:"duration"`
	Recurring   bool              `db:"recurring" json:"recurring"`
	Interval    int64             `db:"interval" json:"interval"`
	Processed   bool              `db:"processed" json:"processed"`
}

// LocationEffects are the per-city modifiers derived from active events.
type LocationEffects struct {
	DangerLevel        float64 `json:"dangerLevel"`
	ShippingMultiplier float64 `json:"shippingMultiplier"`
	EfficiencyModifier float64 `json:"efficiencyModifier"`
}

// MarketEffect is the per-category price and demand shift a narrative event
// applies to affected listings, before importance scaling.
type MarketEffect struct {
	PriceModifier  float64 `json:"priceModifier"`
	DemandModifier float64 `json:"demandModifier"`
}
