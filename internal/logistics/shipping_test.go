package logistics

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/talgya/vorticog/internal/store"
	"github.com/talgya/vorticog/internal/world"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedNetwork builds two cities joined by one route, a company with a unit
// in each city, stock at the origin, and warehouses at both ends.
func seedNetwork(t *testing.T, s *store.Store, reliability float64) {
	t.Helper()
	ctx := context.Background()

	for _, c := range []world.City{
		{ID: "c1", Name: "Veridia", TaxRate: 0.15},
		{ID: "c2", Name: "Ashport", TaxRate: 0.20},
	} {
		if err := s.InsertCity(ctx, c); err != nil {
			t.Fatalf("insert city: %v", err)
		}
	}
	if err := s.InsertRoute(ctx, world.SupplyRoute{
		ID: "r1", FromCityID: "c1", ToCityID: "c2",
		Distance: 500, BaseRate: 2, Reliability: reliability, TransitTurns: 1,
	}); err != nil {
		t.Fatalf("insert route: %v", err)
	}
	if err := s.InsertCompany(ctx, world.Company{ID: "co1", Name: "Testco", CityID: "c1", Capital: 100000}); err != nil {
		t.Fatalf("insert company: %v", err)
	}
	for _, u := range []world.BusinessUnit{
		{ID: "u1", CompanyID: "co1", CityID: "c1", Type: world.UnitFactory, Name: "Plant", Size: 100},
		{ID: "u2", CompanyID: "co1", CityID: "c2", Type: world.UnitStore, Name: "Shop", Size: 50},
		{ID: "u3", CompanyID: "co1", CityID: "c1", Type: world.UnitStore, Name: "Local Shop", Size: 50},
	} {
		if err := s.InsertUnit(ctx, u); err != nil {
			t.Fatalf("insert unit: %v", err)
		}
		if err := s.InsertWarehouse(ctx, world.Warehouse{ID: uuid.NewString(), UnitID: u.ID, Capacity: 10000}); err != nil {
			t.Fatalf("insert warehouse: %v", err)
		}
	}
	if err := s.UpsertInventory(ctx, world.Inventory{
		ID: uuid.NewString(), UnitID: "u1", ResourceID: "res_iron", Quantity: 100, Quality: 0.8,
	}); err != nil {
		t.Fatalf("upsert inventory: %v", err)
	}
}

func newShipper(s *store.Store) *Shipper {
	return NewShipper(s, nil, rand.New(rand.NewSource(1)), 1)
}

func TestShippingCost(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedNetwork(t, s, 0.9)
	sh := newShipper(s)

	// Same city is always free.
	cost, err := sh.CalculateShippingCost(ctx, "u1", "u3", 50)
	if err != nil {
		t.Fatalf("same-city cost: %v", err)
	}
	if cost != 0 {
		t.Errorf("same-city cost = %f, want 0", cost)
	}

	// 2 base * (500/100) * 10 units.
	cost, err = sh.CalculateShippingCost(ctx, "u1", "u2", 10)
	if err != nil {
		t.Fatalf("cross-city cost: %v", err)
	}
	if math.Abs(cost-100) > 1e-9 {
		t.Errorf("cross-city cost = %f, want 100", cost)
	}

	if _, err := sh.CalculateShippingCost(ctx, "u1", "u2", 0); !errors.Is(err, world.ErrInvalidInput) {
		t.Errorf("zero quantity error = %v, want ErrInvalidInput", err)
	}
}

func TestSameCityShipmentDeliversImmediately(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedNetwork(t, s, 0.9)
	sh := newShipper(s)

	shp, err := sh.ShipGoods(ctx, "co1", "u1", "u3", "res_iron", 30, "")
	if err != nil {
		t.Fatalf("ship: %v", err)
	}
	if shp.Status != world.ShipmentDelivered {
		t.Errorf("status = %s, want delivered", shp.Status)
	}
	if shp.Cost != 0 {
		t.Errorf("cost = %f, want 0", shp.Cost)
	}

	src, err := s.GetInventory(ctx, "u1", "res_iron")
	if err != nil {
		t.Fatalf("source inventory: %v", err)
	}
	if src.Quantity != 70 {
		t.Errorf("source quantity = %f, want 70", src.Quantity)
	}

	dst, err := s.GetInventory(ctx, "u3", "res_iron")
	if err != nil {
		t.Fatalf("dest inventory: %v", err)
	}
	if dst.Quantity != 30 || dst.Quality != 0.8 {
		t.Errorf("dest inventory = %+v, want qty 30 quality 0.8", dst)
	}

	out, err := s.GetWarehouse(ctx, "u1")
	if err != nil {
		t.Fatalf("source warehouse: %v", err)
	}
	if out.OutboundCount != 1 {
		t.Errorf("outbound count = %d, want 1", out.OutboundCount)
	}
	in, err := s.GetWarehouse(ctx, "u3")
	if err != nil {
		t.Fatalf("dest warehouse: %v", err)
	}
	if in.InboundCount != 1 {
		t.Errorf("inbound count = %d, want 1", in.InboundCount)
	}
}

func TestShipGoodsValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedNetwork(t, s, 0.9)
	sh := newShipper(s)

	if _, err := sh.ShipGoods(ctx, "other", "u1", "u2", "res_iron", 10, ""); !errors.Is(err, world.ErrUnauthorized) {
		t.Errorf("foreign unit error = %v, want ErrUnauthorized", err)
	}
	if _, err := sh.ShipGoods(ctx, "co1", "u1", "u2", "res_iron", 500, ""); !errors.Is(err, world.ErrInvalidState) {
		t.Errorf("insufficient inventory error = %v, want ErrInvalidState", err)
	}
}

func TestReliableRouteDelivers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	// Reliability far above 1 clamps the effective chance to certainty even
	// with the worst noise draw.
	seedNetwork(t, s, 2.0)
	sh := newShipper(s)

	shp, err := sh.ShipGoods(ctx, "co1", "u1", "u2", "res_iron", 20, "")
	if err != nil {
		t.Fatalf("ship: %v", err)
	}
	if shp.Status != world.ShipmentInTransit {
		t.Errorf("status = %s, want in_transit", shp.Status)
	}
	if shp.DueTurn != 1 {
		t.Errorf("due turn = %d, want 1", shp.DueTurn)
	}

	res, err := sh.ProcessShipments(ctx, 1)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Delivered != 1 || res.Delayed != 0 || res.Lost != 0 {
		t.Errorf("resolution = %+v, want 1 delivered", res)
	}

	dst, err := s.GetInventory(ctx, "u2", "res_iron")
	if err != nil {
		t.Fatalf("dest inventory: %v", err)
	}
	if dst.Quantity != 20 {
		t.Errorf("dest quantity = %f, want 20", dst.Quantity)
	}
}

func TestUnreliableRouteDelaysThenLoses(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	// Reliability far below 0 clamps the effective chance to zero.
	seedNetwork(t, s, -2.0)
	sh := newShipper(s)

	shp, err := sh.ShipGoods(ctx, "co1", "u1", "u2", "res_iron", 20, "")
	if err != nil {
		t.Fatalf("ship: %v", err)
	}

	for turn := int64(1); turn <= 2; turn++ {
		res, err := sh.ProcessShipments(ctx, turn)
		if err != nil {
			t.Fatalf("process turn %d: %v", turn, err)
		}
		if res.Delayed != 1 {
			t.Fatalf("turn %d resolution = %+v, want 1 delayed", turn, res)
		}
	}

	res, err := sh.ProcessShipments(ctx, 3)
	if err != nil {
		t.Fatalf("process turn 3: %v", err)
	}
	if res.Lost != 1 {
		t.Errorf("turn 3 resolution = %+v, want 1 lost", res)
	}

	got, err := s.GetShipment(ctx, shp.ID)
	if err != nil {
		t.Fatalf("get shipment: %v", err)
	}
	if got.Status != world.ShipmentLost || got.DelayCount != 2 {
		t.Errorf("shipment = status %s delays %d, want lost after 2 delays", got.Status, got.DelayCount)
	}

	// Lost goods never reach the destination.
	if _, err := s.GetInventory(ctx, "u2", "res_iron"); !errors.Is(err, world.ErrNotFound) {
		t.Errorf("dest inventory error = %v, want ErrNotFound", err)
	}
}
