package contracts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/vorticog/internal/store"
	"github.com/talgya/vorticog/internal/world"
)

// Dispatcher is the slice of the shipping layer contract processing needs.
type Dispatcher interface {
	ShipGoods(ctx context.Context, companyID, fromUnitID, toUnitID, resourceID string, quantity float64, contractID string) (world.Shipment, error)
}

// Manager owns contract lifecycle operations and per-turn processing.
type Manager struct {
	store   *store.Store
	shipper Dispatcher
}

// NewManager creates a contract manager.
func NewManager(st *store.Store, shipper Dispatcher) *Manager {
	return &Manager{store: st, shipper: shipper}
}

// Create persists a new draft contract with its items.
func (m *Manager) Create(ctx context.Context, c world.Contract, items []world.ContractItem) (world.Contract, error) {
	if c.SellerID == c.BuyerID {
		return world.Contract{}, fmt.Errorf("create contract: seller and buyer identical: %w", world.ErrInvalidInput)
	}
	if len(items) == 0 {
		return world.Contract{}, fmt.Errorf("create contract: no items: %w", world.ErrInvalidInput)
	}

	c.ID = uuid.NewString()
	c.Status = world.ContractDraft
	c.BreachCount = 0

	err := m.store.WithTx(ctx, func(ts *store.Store) error {
		if err := ts.InsertContract(ctx, c); err != nil {
			return err
		}
		for i := range items {
			items[i].ID = uuid.NewString()
			items[i].ContractID = c.ID
			items[i].DeliveredQuantity = 0
			if err := ts.InsertContractItem(ctx, items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return world.Contract{}, fmt.Errorf("create contract: %w", err)
	}
	return c, nil
}

// Propose sends the contract to the counter-party. Only a party to the
// contract may propose.
func (m *Manager) Propose(ctx context.Context, contractID, byCompanyID string) (world.Contract, error) {
	c, err := m.store.GetContract(ctx, contractID)
	if err != nil {
		return world.Contract{}, err
	}
	if byCompanyID != c.SellerID && byCompanyID != c.BuyerID {
		return world.Contract{}, fmt.Errorf("propose: %s is not a party: %w", byCompanyID, world.ErrUnauthorized)
	}

	c, err = Transition(c, world.ContractProposed)
	if err != nil {
		return world.Contract{}, err
	}
	c.ProposerID = byCompanyID

	if err := m.store.UpdateContract(ctx, c); err != nil {
		return world.Contract{}, fmt.Errorf("propose: %w", err)
	}
	return c, nil
}

// Accept activates a proposed contract. The proposer cannot accept its own
// proposal.
func (m *Manager) Accept(ctx context.Context, contractID, byCompanyID string) (world.Contract, error) {
	c, err := m.store.GetContract(ctx, contractID)
	if err != nil {
		return world.Contract{}, err
	}
	if byCompanyID != c.SellerID && byCompanyID != c.BuyerID {
		return world.Contract{}, fmt.Errorf("accept: %s is not a party: %w", byCompanyID, world.ErrUnauthorized)
	}
	if byCompanyID == c.ProposerID {
		return world.Contract{}, fmt.Errorf("accept: proposer cannot accept own proposal: %w", world.ErrUnauthorized)
	}

	c, err = Transition(c, world.ContractActive)
	if err != nil {
		return world.Contract{}, err
	}

	turn, err := m.store.CurrentTurn(ctx)
	if err != nil {
		return world.Contract{}, err
	}
	// Deliveries begin on the next processed turn; the current turn has
	// already run its contract phase.
	c.StartTurn = turn + 1

	if err := m.store.UpdateContract(ctx, c); err != nil {
		return world.Contract{}, fmt.Errorf("accept: %w", err)
	}
	return c, nil
}

// Negotiate moves a proposed contract into negotiation. Only the
// counter-party of the current proposal may open negotiation.
func (m *Manager) Negotiate(ctx context.Context, contractID, byCompanyID string) (world.Contract, error) {
	c, err := m.store.GetContract(ctx, contractID)
	if err != nil {
		return world.Contract{}, err
	}
	if byCompanyID != c.SellerID && byCompanyID != c.BuyerID {
		return world.Contract{}, fmt.Errorf("negotiate: %s is not a party: %w", byCompanyID, world.ErrUnauthorized)
	}
	if byCompanyID == c.ProposerID {
		return world.Contract{}, fmt.Errorf("negotiate: proposer cannot counter own proposal: %w", world.ErrUnauthorized)
	}

	c, err = Transition(c, world.ContractNegotiating)
	if err != nil {
		return world.Contract{}, err
	}
	if err := m.store.UpdateContract(ctx, c); err != nil {
		return world.Contract{}, fmt.Errorf("negotiate: %w", err)
	}
	return c, nil
}

// Cancel withdraws a contract that has not yet activated.
func (m *Manager) Cancel(ctx context.Context, contractID, byCompanyID string) (world.Contract, error) {
	c, err := m.store.GetContract(ctx, contractID)
	if err != nil {
		return world.Contract{}, err
	}
	if byCompanyID != c.SellerID && byCompanyID != c.BuyerID {
		return world.Contract{}, fmt.Errorf("cancel: %s is not a party: %w", byCompanyID, world.ErrUnauthorized)
	}

	c, err = Transition(c, world.ContractCancelled)
	if err != nil {
		return world.Contract{}, err
	}
	if err := m.store.UpdateContract(ctx, c); err != nil {
		return world.Contract{}, fmt.Errorf("cancel: %w", err)
	}
	return c, nil
}

// Penalty computes the contract penalty for one missed or substandard
// delivery.
func Penalty(penaltyPct, quantity, pricePerUnit float64) float64 {
	return (penaltyPct / 100) * quantity * pricePerUnit
}

// Outcome counters returned by ProcessContracts.
type Outcome struct {
	Deliveries int
	Penalties  int
	Completed  int
	Breached   int
}

// ProcessContracts runs scheduled deliveries for every active contract.
// Delivered quantities are reconciled from shipment records, so the phase
// is safe to re-run; penalties post through idempotent transactions.
func (m *Manager) ProcessContracts(ctx context.Context, turn int64) (Outcome, error) {
	var out Outcome

	active, err := m.store.ListContracts(ctx, world.ContractActive)
	if err != nil {
		return out, fmt.Errorf("process contracts: %w", err)
	}

	for _, c := range active {
		if err := m.processOne(ctx, c, turn, &out); err != nil {
			slog.Error("contract processing failed", "contract", c.ID, "error", err)
		}
	}
	return out, nil
}

func (m *Manager) processOne(ctx context.Context, c world.Contract, turn int64, out *Outcome) error {
	items, err := m.store.ListContractItems(ctx, c.ID)
	if err != nil {
		return err
	}
	shipments, err := m.store.ListContractShipments(ctx, c.ID)
	if err != nil {
		return err
	}
	recorded, err := m.recordedShipments(ctx, c.ID)
	if err != nil {
		return err
	}

	// Reconcile delivered quantities from delivered shipments; shipments
	// resolved earlier this turn are visible here.
	for i := range items {
		delivered := 0.0
		for _, shp := range shipments {
			if shp.ResourceID == items[i].ResourceID && shp.Status == world.ShipmentDelivered {
				delivered += shp.Quantity
			}
		}
		if delivered > items[i].TotalQuantity {
			delivered = items[i].TotalQuantity
		}
		if delivered != items[i].DeliveredQuantity {
			items[i].DeliveredQuantity = delivered
			if err := m.store.UpdateContractItem(ctx, items[i]); err != nil {
				return err
			}
		}
	}

	// Lost shipments count as short deliveries against the seller.
	for _, shp := range shipments {
		if shp.Status != world.ShipmentLost || recorded[shp.ID] {
			continue
		}
		item := matchItem(items, shp.ResourceID)
		if item == nil {
			continue
		}
		if err := m.recordShort(ctx, &c, *item, shp.ID, shp.Quantity, turn, out); err != nil {
			return err
		}
	}

	if world.DeliveryDue(c.Frequency, turn, c.StartTurn) {
		if err := m.runDeliveries(ctx, &c, items, turn, out); err != nil {
			return err
		}
	}

	// Completion check: every item fully delivered.
	complete := len(items) > 0
	for _, it := range items {
		if it.DeliveredQuantity < it.TotalQuantity {
			complete = false
			break
		}
	}

	switch {
	case c.BreachCount > breachLimit:
		if c, err = Transition(c, world.ContractBreached); err != nil {
			return err
		}
		out.Breached++
		slog.Warn("contract breached", "contract", c.ID, "breaches", c.BreachCount)
	case complete:
		if c, err = Transition(c, world.ContractCompleted); err != nil {
			return err
		}
		out.Completed++
		slog.Info("contract completed", "contract", c.ID, "turn", turn)
	}

	return m.store.UpdateContract(ctx, c)
}

func (m *Manager) runDeliveries(ctx context.Context, c *world.Contract, items []world.ContractItem, turn int64, out *Outcome) error {
	for _, item := range items {
		remaining := item.TotalQuantity - item.DeliveredQuantity
		if remaining <= 0 {
			continue
		}
		qty := item.PerDelivery
		if qty > remaining {
			qty = remaining
		}

		fromUnit, inv, err := m.findStock(ctx, c.SellerID, item.ResourceID, qty)
		if err != nil {
			return err
		}
		toUnit, err := m.firstUnit(ctx, c.BuyerID)
		if err != nil {
			return err
		}

		if fromUnit == "" || toUnit == "" {
			if err := m.recordShort(ctx, c, item, "", qty, turn, out); err != nil {
				return err
			}
			continue
		}

		shp, err := m.shipper.ShipGoods(ctx, c.SellerID, fromUnit, toUnit, item.ResourceID, qty, c.ID)
		if err != nil {
			slog.Warn("contract dispatch failed", "contract", c.ID, "item", item.ID, "error", err)
			if err := m.recordShort(ctx, c, item, "", qty, turn, out); err != nil {
				return err
			}
			continue
		}

		penalty := 0.0
		if inv.Quality < item.MinQuality {
			penalty = Penalty(c.PenaltyPct, qty, item.PricePerUnit)
			if err := m.postPenalty(ctx, c, item, penalty, turn); err != nil {
				return err
			}
			c.BreachCount++
			out.Penalties++
		}

		if err := m.store.InsertDelivery(ctx, world.ContractDelivery{
			ID:         uuid.NewString(),
			ContractID: c.ID,
			ItemID:     item.ID,
			ShipmentID: shp.ID,
			Quantity:   qty,
			Quality:    inv.Quality,
			Result:     world.DeliveryFulfilled,
			Penalty:    penalty,
			Turn:       turn,
		}); err != nil {
			return err
		}
		out.Deliveries++
	}
	return nil
}

// recordShort books a failed delivery: a short delivery row, the penalty
// transaction, and one breach.
func (m *Manager) recordShort(ctx context.Context, c *world.Contract, item world.ContractItem, shipmentID string, qty float64, turn int64, out *Outcome) error {
	penalty := Penalty(c.PenaltyPct, qty, item.PricePerUnit)
	if err := m.postPenalty(ctx, c, item, penalty, turn); err != nil {
		return err
	}
	if err := m.store.InsertDelivery(ctx, world.ContractDelivery{
		ID:         uuid.NewString(),
		ContractID: c.ID,
		ItemID:     item.ID,
		ShipmentID: shipmentID,
		Quantity:   qty,
		Result:     world.DeliveryShort,
		Penalty:    penalty,
		Turn:       turn,
	}); err != nil {
		return err
	}
	c.BreachCount++
	out.Penalties++
	return nil
}

func (m *Manager) postPenalty(ctx context.Context, c *world.Contract, item world.ContractItem, penalty float64, turn int64) error {
	if penalty <= 0 {
		return nil
	}
	return m.store.PostTransaction(ctx, world.Transaction{
		ID:             uuid.NewString(),
		CompanyID:      c.SellerID,
		Kind:           world.TxPenalty,
		Amount:         -penalty,
		Description:    fmt.Sprintf("contract %s penalty on %s", c.ID, item.ResourceID),
		IdempotencyKey: fmt.Sprintf("penalty:%s:%s:%d", c.ID, item.ID, turn),
		Turn:           turn,
	})
}

// findStock returns the seller unit holding at least qty of the resource.
func (m *Manager) findStock(ctx context.Context, companyID, resourceID string, qty float64) (string, world.Inventory, error) {
	units, err := m.store.ListUnits(ctx, companyID)
	if err != nil {
		return "", world.Inventory{}, err
	}
	for _, u := range units {
		inv, err := m.store.GetInventory(ctx, u.ID, resourceID)
		if err != nil {
			continue
		}
		if inv.Quantity >= qty {
			return u.ID, inv, nil
		}
	}
	return "", world.Inventory{}, nil
}

func (m *Manager) firstUnit(ctx context.Context, companyID string) (string, error) {
	units, err := m.store.ListUnits(ctx, companyID)
	if err != nil {
		return "", err
	}
	if len(units) == 0 {
		return "", nil
	}
	return units[0].ID, nil
}

// recordedShipments returns the set of shipment ids that already have a
// delivery row, preventing double penalties for lost shipments.
func (m *Manager) recordedShipments(ctx context.Context, contractID string) (map[string]bool, error) {
	rows, err := m.store.ListDeliveries(ctx, contractID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(rows))
	for _, d := range rows {
		if d.ShipmentID != "" {
			seen[d.ShipmentID] = true
		}
	}
	return seen, nil
}

func matchItem(items []world.ContractItem, resourceID string) *world.ContractItem {
	for i := range items {
		if items[i].ResourceID == resourceID {
			return &items[i]
		}
	}
	return nil
}
