package contracts

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/talgya/vorticog/internal/store"
	"github.com/talgya/vorticog/internal/world"
)

// stubDispatcher records a delivered shipment per call so reconciliation can
// pick it up on the next processing pass.
type stubDispatcher struct {
	store *store.Store
	fail  bool
	calls int
}

func (d *stubDispatcher) ShipGoods(ctx context.Context, companyID, fromUnitID, toUnitID, resourceID string, quantity float64, contractID string) (world.Shipment, error) {
	d.calls++
	if d.fail {
		return world.Shipment{}, world.ErrInvalidInput
	}
	shp := world.Shipment{
		ID:         uuid.NewString(),
		CompanyID:  companyID,
		FromUnitID: fromUnitID,
		ToUnitID:   toUnitID,
		ResourceID: resourceID,
		Quantity:   quantity,
		Status:     world.ShipmentDelivered,
		ContractID: contractID,
	}
	if err := d.store.InsertShipment(ctx, shp); err != nil {
		return world.Shipment{}, err
	}
	return shp, nil
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedParties(t *testing.T, s *store.Store, sellerStock, stockQuality float64) {
	t.Helper()
	ctx := context.Background()
	for _, c := range []world.Company{
		{ID: "seller", Name: "Seller Co", CityID: "c1", Capital: 100000},
		{ID: "buyer", Name: "Buyer Co", CityID: "c1", Capital: 100000},
	} {
		if err := s.InsertCompany(ctx, c); err != nil {
			t.Fatalf("insert company: %v", err)
		}
	}
	for _, u := range []world.BusinessUnit{
		{ID: "u_seller", CompanyID: "seller", CityID: "c1", Type: world.UnitFactory, Name: "Plant", Size: 100, Condition: 100, EquipmentCond: 100},
		{ID: "u_buyer", CompanyID: "buyer", CityID: "c1", Type: world.UnitStore, Name: "Shop", Size: 50, Condition: 100, EquipmentCond: 100},
	} {
		if err := s.InsertUnit(ctx, u); err != nil {
			t.Fatalf("insert unit: %v", err)
		}
	}
	if sellerStock > 0 {
		if err := s.UpsertInventory(ctx, world.Inventory{
			ID: uuid.NewString(), UnitID: "u_seller", ResourceID: "res_iron",
			Quantity: sellerStock, Quality: stockQuality,
		}); err != nil {
			t.Fatalf("upsert inventory: %v", err)
		}
	}
}

func activeContract(t *testing.T, m *Manager, freq world.DeliveryFrequency, penaltyPct, total, perDelivery, minQuality float64) world.Contract {
	t.Helper()
	ctx := context.Background()
	c, err := m.Create(ctx, world.Contract{
		SellerID: "seller", BuyerID: "buyer", Frequency: freq, PenaltyPct: penaltyPct,
	}, []world.ContractItem{
		{ResourceID: "res_iron", TotalQuantity: total, PerDelivery: perDelivery, PricePerUnit: 10, MinQuality: minQuality},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c, err = m.Propose(ctx, c.ID, "seller"); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if c, err = m.Accept(ctx, c.ID, "buyer"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	return c
}

func TestLifecycleAuthorization(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedParties(t, s, 0, 0)
	m := NewManager(s, &stubDispatcher{store: s})

	c, err := m.Create(ctx, world.Contract{SellerID: "seller", BuyerID: "buyer", Frequency: world.DeliverPerTurn},
		[]world.ContractItem{{ResourceID: "res_iron", TotalQuantity: 10, PerDelivery: 10, PricePerUnit: 10}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != world.ContractDraft {
		t.Errorf("new contract status = %s, want draft", c.Status)
	}

	if _, err := m.Propose(ctx, c.ID, "outsider"); !errors.Is(err, world.ErrUnauthorized) {
		t.Errorf("outsider propose error = %v, want ErrUnauthorized", err)
	}

	c, err = m.Propose(ctx, c.ID, "seller")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	// The proposer cannot accept or counter its own proposal.
	if _, err := m.Accept(ctx, c.ID, "seller"); !errors.Is(err, world.ErrUnauthorized) {
		t.Errorf("self-accept error = %v, want ErrUnauthorized", err)
	}
	if _, err := m.Negotiate(ctx, c.ID, "seller"); !errors.Is(err, world.ErrUnauthorized) {
		t.Errorf("self-negotiate error = %v, want ErrUnauthorized", err)
	}

	c, err = m.Negotiate(ctx, c.ID, "buyer")
	if err != nil {
		t.Fatalf("negotiate: %v", err)
	}
	if c.Status != world.ContractNegotiating {
		t.Errorf("status = %s, want negotiating", c.Status)
	}

	// Counter-proposal flips the proposer, and the buyer's own counter
	// can then be accepted by the seller.
	c, err = m.Propose(ctx, c.ID, "buyer")
	if err != nil {
		t.Fatalf("counter-propose: %v", err)
	}
	c, err = m.Accept(ctx, c.ID, "seller")
	if err != nil {
		t.Fatalf("accept counter: %v", err)
	}
	if c.Status != world.ContractActive {
		t.Errorf("status = %s, want active", c.Status)
	}

	if _, err := m.Cancel(ctx, c.ID, "buyer"); !errors.Is(err, world.ErrInvalidState) {
		t.Errorf("cancel active error = %v, want ErrInvalidState", err)
	}
}

func TestCreateValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	m := NewManager(s, &stubDispatcher{store: s})

	_, err := m.Create(ctx, world.Contract{SellerID: "a", BuyerID: "a"},
		[]world.ContractItem{{ResourceID: "res_iron", TotalQuantity: 1}})
	if !errors.Is(err, world.ErrInvalidInput) {
		t.Errorf("self-dealing error = %v, want ErrInvalidInput", err)
	}

	_, err = m.Create(ctx, world.Contract{SellerID: "a", BuyerID: "b"}, nil)
	if !errors.Is(err, world.ErrInvalidInput) {
		t.Errorf("empty items error = %v, want ErrInvalidInput", err)
	}
}

func TestContractCompletesAfterDelivery(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedParties(t, s, 100, 0.9)
	dispatch := &stubDispatcher{store: s}
	m := NewManager(s, dispatch)

	c := activeContract(t, m, world.DeliverPerTurn, 5, 10, 10, 0.5)

	out, err := m.ProcessContracts(ctx, 1)
	if err != nil {
		t.Fatalf("process turn 1: %v", err)
	}
	if out.Deliveries != 1 || out.Penalties != 0 {
		t.Errorf("turn 1 outcome = %+v, want 1 delivery, 0 penalties", out)
	}
	if dispatch.calls != 1 {
		t.Errorf("dispatch calls = %d, want 1", dispatch.calls)
	}

	// The delivered shipment is reconciled on the next pass, which
	// completes the contract without dispatching again.
	out, err = m.ProcessContracts(ctx, 2)
	if err != nil {
		t.Fatalf("process turn 2: %v", err)
	}
	if out.Completed != 1 {
		t.Errorf("turn 2 outcome = %+v, want 1 completed", out)
	}
	if dispatch.calls != 1 {
		t.Errorf("dispatch calls after completion = %d, want still 1", dispatch.calls)
	}

	got, err := s.GetContract(ctx, c.ID)
	if err != nil {
		t.Fatalf("get contract: %v", err)
	}
	if got.Status != world.ContractCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}

	items, err := s.ListContractItems(ctx, c.ID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if items[0].DeliveredQuantity != 10 {
		t.Errorf("delivered quantity = %f, want 10", items[0].DeliveredQuantity)
	}
}

func TestOneTimeContractDeliversOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedParties(t, s, 100, 0.9)
	dispatch := &stubDispatcher{store: s}
	m := NewManager(s, dispatch)

	// Accepted at turn 0, so the single delivery falls on turn 1.
	c := activeContract(t, m, world.DeliverOneTime, 5, 10, 10, 0.5)
	if c.StartTurn != 1 {
		t.Fatalf("start turn = %d, want 1", c.StartTurn)
	}

	for turn := int64(1); turn <= 5; turn++ {
		if _, err := m.ProcessContracts(ctx, turn); err != nil {
			t.Fatalf("process turn %d: %v", turn, err)
		}
	}

	if dispatch.calls != 1 {
		t.Errorf("dispatch calls over five turns = %d, want exactly 1", dispatch.calls)
	}

	got, err := s.GetContract(ctx, c.ID)
	if err != nil {
		t.Fatalf("get contract: %v", err)
	}
	if got.Status != world.ContractCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	items, err := s.ListContractItems(ctx, c.ID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if items[0].DeliveredQuantity != 10 {
		t.Errorf("delivered quantity = %f, want 10", items[0].DeliveredQuantity)
	}
}

func TestSubstandardQualityPenalized(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedParties(t, s, 100, 0.4)
	m := NewManager(s, &stubDispatcher{store: s})

	c := activeContract(t, m, world.DeliverPerTurn, 5, 10, 10, 0.8)

	out, err := m.ProcessContracts(ctx, 1)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out.Deliveries != 1 || out.Penalties != 1 {
		t.Errorf("outcome = %+v, want delivery with penalty", out)
	}

	// Penalty(5, 10, 10) = 5 against the seller.
	txs, err := s.ListTransactions(ctx, "seller", world.TxPenalty)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 1 || txs[0].Amount != -5 {
		t.Errorf("penalty transactions = %+v, want one of -5", txs)
	}

	got, err := s.GetContract(ctx, c.ID)
	if err != nil {
		t.Fatalf("get contract: %v", err)
	}
	if got.BreachCount != 1 {
		t.Errorf("breach count = %d, want 1", got.BreachCount)
	}
}

func TestRepeatedShortfallsBreachContract(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	// Seller has no stock at all, so every due turn is a short delivery.
	seedParties(t, s, 0, 0)
	m := NewManager(s, &stubDispatcher{store: s})

	c := activeContract(t, m, world.DeliverPerTurn, 10, 50, 10, 0.5)

	var final world.Contract
	for turn := int64(1); turn <= 5; turn++ {
		if _, err := m.ProcessContracts(ctx, turn); err != nil {
			t.Fatalf("process turn %d: %v", turn, err)
		}
		var err error
		final, err = s.GetContract(ctx, c.ID)
		if err != nil {
			t.Fatalf("get contract: %v", err)
		}
		if final.Status == world.ContractBreached {
			break
		}
	}

	if final.Status != world.ContractBreached {
		t.Fatalf("status = %s, want breached", final.Status)
	}
	// Breach triggers once shortfalls exceed the tolerated count of 3.
	if final.BreachCount != 4 {
		t.Errorf("breach count = %d, want 4", final.BreachCount)
	}
}

func TestLostShipmentPenalizedOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedParties(t, s, 100, 0.9)
	m := NewManager(s, &stubDispatcher{store: s})

	// One-time contract delivering on turn 1, so turns 2 and 3 only run
	// the reconciliation path.
	c := activeContract(t, m, world.DeliverOneTime, 10, 10, 10, 0.5)

	if err := s.InsertShipment(ctx, world.Shipment{
		ID: "lost1", CompanyID: "seller", FromUnitID: "u_seller", ToUnitID: "u_buyer",
		ResourceID: "res_iron", Quantity: 10, Status: world.ShipmentLost, ContractID: c.ID,
	}); err != nil {
		t.Fatalf("insert shipment: %v", err)
	}

	if _, err := m.ProcessContracts(ctx, 2); err != nil {
		t.Fatalf("process turn 2: %v", err)
	}
	if _, err := m.ProcessContracts(ctx, 3); err != nil {
		t.Fatalf("process turn 3: %v", err)
	}

	got, err := s.GetContract(ctx, c.ID)
	if err != nil {
		t.Fatalf("get contract: %v", err)
	}
	// The same lost shipment must not accrue a second breach.
	if got.BreachCount != 1 {
		t.Errorf("breach count = %d, want 1", got.BreachCount)
	}

	deliveries, err := s.ListDeliveries(ctx, c.ID)
	if err != nil {
		t.Fatalf("list deliveries: %v", err)
	}
	short := 0
	for _, d := range deliveries {
		if d.Result == world.DeliveryShort && d.ShipmentID == "lost1" {
			short++
		}
	}
	if short != 1 {
		t.Errorf("short delivery rows for lost shipment = %d, want 1", short)
	}
}
