// Package logistics prices, dispatches, and resolves shipments over the
// supply route network.
package logistics

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	opensimplex "github.com/ojrac/opensimplex-go"
	gocache "github.com/patrickmn/go-cache"

	"github.com/talgya/vorticog/internal/store"
	"github.com/talgya/vorticog/internal/world"
)

// maxDelays bounds how often one shipment may be delayed before it is lost.
const maxDelays = 2

// EffectsSource exposes event-derived per-city modifiers without coupling
// logistics to the event bridge.
type EffectsSource interface {
	LocationEffects(ctx context.Context, cityID string) (world.LocationEffects, error)
}

// Shipper prices and moves goods. Route lookups go through a short TTL
// cache; route conditions are modulated by smooth noise over (route, turn).
type Shipper struct {
	store   *store.Store
	effects EffectsSource
	rng     *rand.Rand
	noise   opensimplex.Noise
	routes  *gocache.Cache
}

// NewShipper creates a shipper. The seed drives both the noise field and
// random draws, so tests can fix outcomes.
func NewShipper(st *store.Store, effects EffectsSource, rng *rand.Rand, seed int64) *Shipper {
	return &Shipper{
		store:   st,
		effects: effects,
		rng:     rng,
		noise:   opensimplex.New(seed),
		routes:  gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// resolveRoute finds the route between two cities, consulting the cache
// first.
func (sh *Shipper) resolveRoute(ctx context.Context, fromCityID, toCityID string) (world.SupplyRoute, error) {
	key := fromCityID + "|" + toCityID
	if cached, ok := sh.routes.Get(key); ok {
		return cached.(world.SupplyRoute), nil
	}

	route, err := sh.store.FindRoute(ctx, fromCityID, toCityID)
	if err != nil {
		return world.SupplyRoute{}, err
	}
	sh.routes.Set(key, route, gocache.DefaultExpiration)
	return route, nil
}

// CalculateShippingCost prices moving quantity units between two business
// units. Same-city transfers are free; cross-city cost scales with the
// route base rate, distance, and the destination's event-driven shipping
// multiplier.
func (sh *Shipper) CalculateShippingCost(ctx context.Context, fromUnitID, toUnitID string, quantity float64) (float64, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("shipping cost: non-positive quantity: %w", world.ErrInvalidInput)
	}

	from, err := sh.store.GetUnit(ctx, fromUnitID)
	if err != nil {
		return 0, fmt.Errorf("shipping cost: from unit: %w", err)
	}
	to, err := sh.store.GetUnit(ctx, toUnitID)
	if err != nil {
		return 0, fmt.Errorf("shipping cost: to unit: %w", err)
	}

	if from.CityID == to.CityID {
		return 0, nil
	}

	route, err := sh.resolveRoute(ctx, from.CityID, to.CityID)
	if err != nil {
		return 0, fmt.Errorf("shipping cost: no route %s -> %s: %w", from.CityID, to.CityID, err)
	}

	multiplier := 1.0
	if sh.effects != nil {
		eff, err := sh.effects.LocationEffects(ctx, to.CityID)
		if err != nil {
			return 0, err
		}
		multiplier = eff.ShippingMultiplier
	}

	return route.BaseRate * (route.Distance / 100) * quantity * multiplier, nil
}

// ShipGoods validates and dispatches a shipment. Inventory decrement, cost
// posting, warehouse accounting, and shipment creation happen in one
// transaction. Same-city shipments deliver immediately.
func (sh *Shipper) ShipGoods(ctx context.Context, companyID, fromUnitID, toUnitID, resourceID string, quantity float64, contractID string) (world.Shipment, error) {
	if quantity <= 0 {
		return world.Shipment{}, fmt.Errorf("ship: non-positive quantity: %w", world.ErrInvalidInput)
	}

	from, err := sh.store.GetUnit(ctx, fromUnitID)
	if err != nil {
		return world.Shipment{}, fmt.Errorf("ship: from unit: %w", err)
	}
	if from.CompanyID != companyID {
		return world.Shipment{}, fmt.Errorf("ship: unit %s not owned by %s: %w", fromUnitID, companyID, world.ErrUnauthorized)
	}
	to, err := sh.store.GetUnit(ctx, toUnitID)
	if err != nil {
		return world.Shipment{}, fmt.Errorf("ship: to unit: %w", err)
	}

	cost, err := sh.CalculateShippingCost(ctx, fromUnitID, toUnitID, quantity)
	if err != nil {
		return world.Shipment{}, err
	}

	company, err := sh.store.GetCompany(ctx, companyID)
	if err != nil {
		return world.Shipment{}, fmt.Errorf("ship: company: %w", err)
	}
	if company.Capital < cost {
		return world.Shipment{}, fmt.Errorf("ship: insufficient funds (%f < %f): %w", company.Capital, cost, world.ErrInvalidState)
	}

	turn, err := sh.store.CurrentTurn(ctx)
	if err != nil {
		return world.Shipment{}, err
	}

	sameCity := from.CityID == to.CityID
	var routeID string
	transit := int64(0)
	if !sameCity {
		route, err := sh.resolveRoute(ctx, from.CityID, to.CityID)
		if err != nil {
			return world.Shipment{}, fmt.Errorf("ship: no route: %w", err)
		}
		routeID = route.ID
		transit = route.TransitTurns
	}

	shipment := world.Shipment{
		ID:          uuid.NewString(),
		CompanyID:   companyID,
		FromUnitID:  fromUnitID,
		ToUnitID:    toUnitID,
		RouteID:     routeID,
		ResourceID:  resourceID,
		Quantity:    quantity,
		Cost:        cost,
		Status:      world.ShipmentPending,
		ContractID:  contractID,
		CreatedTurn: turn,
		DueTurn:     turn + transit,
	}

	err = sh.store.WithTx(ctx, func(ts *store.Store) error {
		inv, err := ts.GetInventory(ctx, fromUnitID, resourceID)
		if err != nil {
			return fmt.Errorf("ship: source inventory: %w", err)
		}
		if inv.Quantity < quantity {
			return fmt.Errorf("ship: insufficient inventory (%f < %f): %w", inv.Quantity, quantity, world.ErrInvalidState)
		}
		shipment.Quality = inv.Quality

		inv.Quantity -= quantity
		if err := ts.UpsertInventory(ctx, inv); err != nil {
			return err
		}
		if err := ts.BumpWarehouse(ctx, fromUnitID, 0, 1); err != nil {
			return err
		}

		if cost > 0 {
			if err := ts.PostTransaction(ctx, world.Transaction{
				ID:             uuid.NewString(),
				CompanyID:      companyID,
				Kind:           world.TxShipping,
				Amount:         -cost,
				Description:    fmt.Sprintf("shipping %s x%g", resourceID, quantity),
				IdempotencyKey: "ship:" + shipment.ID,
				Turn:           turn,
			}); err != nil {
				return err
			}
		}

		if sameCity {
			shipment.Status = world.ShipmentDelivered
			if err := ts.InsertShipment(ctx, shipment); err != nil {
				return err
			}
			return deliverLocked(ctx, ts, shipment)
		}

		shipment.Status = world.ShipmentInTransit
		return ts.InsertShipment(ctx, shipment)
	})
	if err != nil {
		return world.Shipment{}, err
	}
	return shipment, nil
}

// deliverLocked merges shipment goods into the destination stack with
// quantity-weighted quality and bumps the inbound counter. Runs inside a
// store transaction.
func deliverLocked(ctx context.Context, ts *store.Store, shp world.Shipment) error {
	inv, err := ts.GetInventory(ctx, shp.ToUnitID, shp.ResourceID)
	if errors.Is(err, world.ErrNotFound) {
		inv = world.Inventory{
			ID:         uuid.NewString(),
			UnitID:     shp.ToUnitID,
			ResourceID: shp.ResourceID,
		}
	} else if err != nil {
		return fmt.Errorf("deliver: dest inventory: %w", err)
	}

	inv.Quality = world.MergeQuality(inv.Quality, inv.Quantity, shp.Quality, shp.Quantity)
	inv.Quantity += shp.Quantity
	if err := ts.UpsertInventory(ctx, inv); err != nil {
		return err
	}
	return ts.BumpWarehouse(ctx, shp.ToUnitID, 1, 0)
}

// Outcome counters returned by ProcessShipments.
type Resolution struct {
	Delivered int
	Delayed   int
	Lost      int
}

// ProcessShipments resolves every due shipment for the turn. Effective
// reliability is the route baseline shifted by noise over (route, turn)
// and by destination danger. Delayed shipments retry next turn until the
// delay budget runs out, after which they are lost.
func (sh *Shipper) ProcessShipments(ctx context.Context, turn int64) (Resolution, error) {
	var res Resolution

	due, err := sh.store.ListShipmentsDue(ctx, turn)
	if err != nil {
		return res, fmt.Errorf("process shipments: %w", err)
	}

	for _, shp := range due {
		if err := sh.resolveShipment(ctx, shp, turn, &res); err != nil {
			slog.Error("shipment resolution failed", "shipment", shp.ID, "error", err)
		}
	}
	return res, nil
}

func (sh *Shipper) resolveShipment(ctx context.Context, shp world.Shipment, turn int64, res *Resolution) error {
	reliability := 1.0
	danger := 0.0

	if shp.RouteID != "" {
		route, err := sh.store.GetRoute(ctx, shp.RouteID)
		if err != nil {
			return err
		}
		reliability = route.Reliability + 0.1*sh.routeNoise(shp.RouteID, turn)

		to, err := sh.store.GetUnit(ctx, shp.ToUnitID)
		if err != nil {
			return err
		}
		if sh.effects != nil {
			eff, err := sh.effects.LocationEffects(ctx, to.CityID)
			if err != nil {
				return err
			}
			danger = eff.DangerLevel
		}
	}

	effective := world.Clamp01(reliability - 0.05*(danger/100))

	if sh.rng.Float64() < effective {
		shp.Status = world.ShipmentDelivered
		err := sh.store.WithTx(ctx, func(ts *store.Store) error {
			if err := ts.UpdateShipment(ctx, shp); err != nil {
				return err
			}
			return deliverLocked(ctx, ts, shp)
		})
		if err != nil {
			return err
		}
		res.Delivered++
		return nil
	}

	if shp.DelayCount >= maxDelays {
		shp.Status = world.ShipmentLost
		if err := sh.store.UpdateShipment(ctx, shp); err != nil {
			return err
		}
		slog.Warn("shipment lost", "shipment", shp.ID, "route", shp.RouteID, "turn", turn)
		res.Lost++
		return nil
	}

	shp.Status = world.ShipmentDelayed
	shp.DelayCount++
	shp.DueTurn = turn + 1
	if err := sh.store.UpdateShipment(ctx, shp); err != nil {
		return err
	}
	res.Delayed++
	return nil
}

// routeNoise samples the smooth route-condition field in [-1, 1].
func (sh *Shipper) routeNoise(routeID string, turn int64) float64 {
	h := fnv.New32a()
	h.Write([]byte(routeID))
	x := float64(h.Sum32()%1000) / 10
	return sh.noise.Eval2(x, float64(turn)/10)
}
