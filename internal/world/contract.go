package world

// ContractStatus is the contract lifecycle state. Transitions are validated
// by contracts.Transition; completed, cancelled, and breached are terminal.
type ContractStatus string

const (
	ContractDraft       ContractStatus = "draft"
	ContractProposed    ContractStatus = "proposed"
	ContractNegotiating ContractStatus = "negotiating"
	ContractActive      ContractStatus = "active"
	ContractCompleted   ContractStatus = "completed"
	ContractCancelled   ContractStatus = "cancelled"
	ContractBreached    ContractStatus = "breached"
)

// DeliveryFrequency schedules recurring contract deliveries against the
// turn counter.
type DeliveryFrequency string

const (
	DeliverPerTurn   DeliveryFrequency = "per_turn"
	DeliverWeekly    DeliveryFrequency = "weekly"
	DeliverMonthly   DeliveryFrequency = "monthly"
	DeliverQuarterly DeliveryFrequency = "quarterly"
	DeliverOneTime   DeliveryFrequency = "one_time"
)

// DeliveryDue reports whether a delivery of the given frequency falls on
// turn. StartTurn is the first turn processed after activation, so a
// one-time contract delivers on exactly that turn.
func DeliveryDue(f DeliveryFrequency, turn, startTurn int64) bool {
	switch f {
	case DeliverPerTurn:
		return true
	case DeliverWeekly:
		return turn%7 == 0
	case DeliverMonthly:
		return turn%30 == 0
	case DeliverQuarterly:
		return turn%90 == 0
	case DeliverOneTime:
		return turn == startTurn
	default:
		return false
	}
}

// Contract binds a seller to deliver items to a buyer on a schedule.
// ProposerID records which party sent the current proposal so the
// counter-party alone may accept it.
type Contract struct {
	ID           string            `db:"id" json:"id"`
	SellerID     string            `db:"seller_id" json:"sellerId"`
	BuyerID      string            `db:"buyer_id" json:"buyerId"`
	ProposerID   string            `db:"proposer_id" json:"proposerId"`
	Status       ContractStatus    `db:"status" json:"status"`
	Frequency    DeliveryFrequency `db:"frequency" json:"frequency"`
	PenaltyPct   float64           `db:"penalty_pct" json:"penaltyPercent"`
	BreachCount  int               `db:"breach_count" json:"breachCount"`
	StartTurn    int64             `db:"start_turn" json:"startTurn"`
	EndTurn      int64             `db:"end_turn" json:"endTurn"`
}

// ContractItem is one line of a contract. DeliveredQuantity never exceeds
// TotalQuantity.
type ContractItem struct {
	ID                string  `db:"id" json:"id"`
	ContractID        string  `db:"contract_id" json:"contractId"`
	ResourceID        string  `db:"resource_id" json:"resourceId"`
	TotalQuantity     float64 `db:"total_quantity" json:"totalQuantity"`
	DeliveredQuantity float64 `db:"delivered_quantity" json:"deliveredQuantity"`
	PerDelivery       float64 `db:"per_delivery" json:"perDelivery"`
	PricePerUnit      float64 `db:"price_per_unit" json:"pricePerUnit"`
	MinQuality        float64 `db:"min_quality" json:"minQuality"`
}

// DeliveryResult classifies one delivery attempt on a contract item.
type DeliveryResult string

const (
	DeliveryFulfilled DeliveryResult = "fulfilled"
	DeliveryShort     DeliveryResult = "short"
	DeliveryRejected  DeliveryResult = "rejected"
)

// ContractDelivery records one per-turn delivery attempt and its outcome.
type ContractDelivery struct {
	ID         string         `db:"id" json:"id"`
	ContractID string         `db:"contract_id" json:"contractId"`
	ItemID     string         `db:"item_id" json:"itemId"`
	ShipmentID string         `db:"shipment_id" json:"shipmentId,omitempty"`
	Quantity   float64        `db:"quantity" json:"quantity"`
	Quality    float64        `db:"quality" json:"quality"`
	Result     DeliveryResult `db:"result" json:"result"`
	Penalty    float64        `db:"penalty" json:"penalty"`
	Turn       int64          `db:"turn" json:"turn"`
}
