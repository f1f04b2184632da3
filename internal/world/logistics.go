package world

// SupplyRoute connects two cities. Reliability is the per-turn delivery
// probability baseline before event and weather noise.
type SupplyRoute struct {
	ID           string  `db:"id" json:"id"`
	FromCityID   string  `db:"from_city_id" json:"fromCityId"`
	ToCityID     string  `db:"to_city_id" json:"toCityId"`
	Distance     float64 `db:"distance" json:"distance"`
	BaseRate     float64 `db:"base_rate" json:"baseRate"`
	Reliability  float64 `db:"reliability" json:"reliability"`
	TransitTurns int64   `db:"transit_turns" json:"transitTurns"`
}

// ShipmentStatus is the lifecycle of goods in motion. Lost and delivered are
// terminal.
type ShipmentStatus string

const (
	ShipmentPending   ShipmentStatus = "pending"
	ShipmentInTransit ShipmentStatus = "in_transit"
	ShipmentDelayed   ShipmentStatus = "delayed"
	ShipmentDelivered ShipmentStatus = "delivered"
	ShipmentLost      ShipmentStatus = "lost"
)

// Shipment moves a quantity of one resource between business units.
// DueTurn is when resolution is attempted; DelayCount bounds retries.
type Shipment struct {
	ID          string         `db:"id" json:"id"`
	CompanyID   string         `db:"company_id" json:"companyId"`
	FromUnitID  string         `db:"from_unit_id" json:"fromUnitId"`
	ToUnitID    string         `db:"to_unit_id" json:"toUnitId"`
	RouteID     string         `db:"route_id" json:"routeId,omitempty"`
	ResourceID  string         `db:"resource_id" json:"resourceId"`
	Quantity    float64        `db:"quantity" json:"quantity"`
	Quality     float64        `db:"quality" json:"quality"`
	Cost        float64        `db:"cost" json:"cost"`
	Status      ShipmentStatus `db:"status" json:"status"`
	ContractID  string         `db:"contract_id" json:"contractId,omitempty"`
	CreatedTurn int64          `db:"created_turn" json:"createdTurn"`
	DueTurn     int64          `db:"due_turn" json:"dueTurn"`
	DelayCount  int            `db:"delay_count" json:"delayCount"`
}

// TerminalShipment reports whether the shipment can no longer change state.
func TerminalShipment(s ShipmentStatus) bool {
	return s == ShipmentDelivered || s == ShipmentLost
}
