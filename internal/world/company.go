package world

// Company is an economic actor owning business units, employees, inventory,
// contracts, and technologies. Money is tracked in whole currency units.
type Company struct {
	ID      string  `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	CityID  string  `db:"city_id" json:"cityId"`
	Capital float64 `db:"capital" json:"capital"`
	Assets  float64 `db:"assets" json:"assets"`
}

// BusinessUnitType determines maintenance base cost and what the unit can do.
type BusinessUnitType string

const (
	UnitOffice     BusinessUnitType = "office"
	UnitStore      BusinessUnitType = "store"
	UnitFactory    BusinessUnitType = "factory"
	UnitMine       BusinessUnitType = "mine"
	UnitFarm       BusinessUnitType = "farm"
	UnitLaboratory BusinessUnitType = "laboratory"
)

// BusinessUnit is a production, commerce, or research site in one city.
// Size scales costs and taxes; Condition (0-100) decays without upkeep.
type BusinessUnit struct {
	ID            string           `db:"id" json:"id"`
	CompanyID     string           `db:"company_id" json:"companyId"`
	CityID        string           `db:"city_id" json:"cityId"`
	Type          BusinessUnitType `db:"unit_type" json:"type"`
	Name          string           `db:"name" json:"name"`
	Size          float64          `db:"size" json:"size"`
	Condition     float64          `db:"condition" json:"condition"`
	EquipmentCond float64          `db:"equipment_condition" json:"equipmentCondition"`
}

// Employee is an aggregate headcount entry on a business unit, not an agent.
type Employee struct {
	ID             string  `db:"id" json:"id"`
	UnitID         string  `db:"unit_id" json:"unitId"`
	Role           string  `db:"role" json:"role"`
	Count          int     `db:"count" json:"count"`
	Salary         float64 `db:"salary" json:"salary"`
	Qualification  float64 `db:"qualification" json:"qualification"`
	BonusEligible  bool    `db:"bonus_eligible" json:"bonusEligible"`
}

// City is a location with a tax rate and event-driven modifiers.
type City struct {
	ID      string  `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	Region  string  `db:"region" json:"region"`
	TaxRate float64 `db:"tax_rate" json:"taxRate"`
}

// ResourceType is a catalog entry for a tradable good.
type ResourceType struct {
	ID        string  `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	Category  string  `db:"category" json:"category"`
	BasePrice float64 `db:"base_price" json:"basePrice"`
}

// Inventory is a stack of one resource held by a business unit. Quality is
// the quantity-weighted average of everything merged into the stack.
type Inventory struct {
	ID         string  `db:"id" json:"id"`
	UnitID     string  `db:"unit_id" json:"unitId"`
	ResourceID string  `db:"resource_id" json:"resourceId"`
	Quantity   float64 `db:"quantity" json:"quantity"`
	Quality    float64 `db:"quality" json:"quality"`
}

// MergeQuality returns the quantity-weighted quality of combining two stacks.
func MergeQuality(q1, qty1, q2, qty2 float64) float64 {
	total := qty1 + qty2
	if total <= 0 {
		return 0
	}
	return (q1*qty1 + q2*qty2) / total
}

// MarketListing is a sell offer on a city market. PriceModifier and
// DemandModifier accumulate narrative-event effects additively.
type MarketListing struct {
	ID             string  `db:"id" json:"id"`
	CityID         string  `db:"city_id" json:"cityId"`
	CompanyID      string  `db:"company_id" json:"companyId"`
	ResourceID     string  `db:"resource_id" json:"resourceId"`
	Quantity       float64 `db:"quantity" json:"quantity"`
	PricePerUnit   float64 `db:"price_per_unit" json:"pricePerUnit"`
	Quality        float64 `db:"quality" json:"quality"`
	PriceModifier  float64 `db:"price_modifier" json:"priceModifier"`
	DemandModifier float64 `db:"demand_modifier" json:"demandModifier"`
}

// EffectivePrice applies the accumulated narrative modifier to the ask price.
func (l *MarketListing) EffectivePrice() float64 {
	p := l.PricePerUnit * (1 + l.PriceModifier)
	if p < 0 {
		return 0
	}
	return p
}

// TransactionKind classifies ledger entries.
type TransactionKind string

const (
	TxSalary      TransactionKind = "salary"
	TxMaintenance TransactionKind = "maintenance"
	TxTax         TransactionKind = "tax"
	TxPenalty     TransactionKind = "penalty"
	TxShipping    TransactionKind = "shipping"
	TxResearch    TransactionKind = "research"
	TxTrade       TransactionKind = "trade"
)

// Transaction is one signed ledger entry. IdempotencyKey is unique; posting
// the same key twice is a no-op, which makes phase retries safe.
type Transaction struct {
	ID             string          `db:"id" json:"id"`
	CompanyID      string          `db:"company_id" json:"companyId"`
	Kind           TransactionKind `db:"kind" json:"kind"`
	Amount         float64         `db:"amount" json:"amount"`
	Description    string          `db:"description" json:"description"`
	IdempotencyKey string          `db:"idempotency_key" json:"idempotencyKey"`
	Turn           int64           `db:"turn" json:"turn"`
}

// ProductionRecipe converts inputs into one output resource at a unit.
type ProductionRecipe struct {
	ID               string        `db:"id" json:"id"`
	Name             string        `db:"name" json:"name"`
	OutputResourceID string        `db:"output_resource_id" json:"outputResourceId"`
	OutputQuantity   float64       `db:"output_quantity" json:"outputQuantity"`
	TimeRequired     float64       `db:"time_required" json:"timeRequired"`
	LaborRequired    int           `db:"labor_required" json:"laborRequired"`
	RequiredTechID   string        `db:"required_tech_id" json:"requiredTechId,omitempty"`
	Inputs           []RecipeInput `json:"inputs"`
}

// RecipeInput is one consumed resource of a recipe.
type RecipeInput struct {
	ResourceID string  `json:"resourceId"`
	Quantity   float64 `json:"quantity"`
}

// ProductionOrder tracks an in-flight batch. Progress runs 0-100; inputs are
// consumed at start, output materializes at completion.
type ProductionOrder struct {
	ID           string  `db:"id" json:"id"`
	UnitID       string  `db:"unit_id" json:"unitId"`
	RecipeID     string  `db:"recipe_id" json:"recipeId"`
	Progress     float64 `db:"progress" json:"progress"`
	InputQuality float64 `db:"input_quality" json:"inputQuality"`
	StartedTurn  int64   `db:"started_turn" json:"startedTurn"`
	Completed    bool    `db:"completed" json:"completed"`
}

// Warehouse tracks aggregate in/out flow counters for reconciliation.
type Warehouse struct {
	ID            string  `db:"id" json:"id"`
	UnitID        string  `db:"unit_id" json:"unitId"`
	Capacity      float64 `db:"capacity" json:"capacity"`
	InboundCount  int64   `db:"inbound_count" json:"inboundCount"`
	OutboundCount int64   `db:"outbound_count" json:"outboundCount"`
}
