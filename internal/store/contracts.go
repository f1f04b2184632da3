package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/vorticog/internal/world"
)

func (s *Store) GetContract(ctx context.Context, id string) (world.Contract, error) {
	var c world.Contract
	err := sqlx.GetContext(ctx, s.ext, &c, "SELECT * FROM contracts WHERE id = ?", id)
	return c, notFound(err)
}

func (s *Store) ListContracts(ctx context.Context, status world.ContractStatus) ([]world.Contract, error) {
	var out []world.Contract
	if status == "" {
		err := sqlx.SelectContext(ctx, s.ext, &out, "SELECT * FROM contracts ORDER BY id")
		return out, err
	}
	err := sqlx.SelectContext(ctx, s.ext, &out,
		"SELECT * FROM contracts WHERE status = ? ORDER BY id", status)
	return out, err
}

func (s *Store) InsertContract(ctx context.Context, c world.Contract) error {
	_, err := s.ext.ExecContext(ctx, `INSERT INTO contracts
		(id, seller_id, buyer_id, proposer_id, status, frequency, penalty_pct, breach_count, start_turn, end_turn)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.SellerID, c.BuyerID, c.ProposerID, c.Status, c.Frequency,
		c.PenaltyPct, c.BreachCount, c.StartTurn, c.EndTurn)
	return err
}

func (s *Store) UpdateContract(ctx context.Context, c world.Contract) error {
	_, err := s.ext.ExecContext(ctx, `UPDATE contracts SET
		proposer_id = ?, status = ?, frequency = ?, penalty_pct = ?,
		breach_count = ?, start_turn = ?, end_turn = ? WHERE id = ?`,
		c.ProposerID, c.Status, c.Frequency, c.PenaltyPct,
		c.BreachCount, c.StartTurn, c.EndTurn, c.ID)
	return err
}

func (s *Store) ListContractItems(ctx context.Context, contractID string) ([]world.ContractItem, error) {
	var out []world.ContractItem
	err := sqlx.SelectContext(ctx, s.ext, &out,
		"SELECT * FROM contract_items WHERE contract_id = ? ORDER BY id", contractID)
	return out, err
}

func (s *Store) InsertContractItem(ctx context.Context, it world.ContractItem) error {
	_, err := s.ext.ExecContext(ctx, `INSERT INTO contract_items
		(id, contract_id, resource_id, total_quantity, delivered_quantity, per_delivery, price_per_unit, min_quality)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.ContractID, it.ResourceID, it.TotalQuantity, it.DeliveredQuantity,
		it.PerDelivery, it.PricePerUnit, it.MinQuality)
	return err
}

func (s *Store) UpdateContractItem(ctx context.Context, it world.ContractItem) error {
	_, err := s.ext.ExecContext(ctx,
		"UPDATE contract_items SET delivered_quantity = ? WHERE id = ?",
		it.DeliveredQuantity, it.ID)
	return err
}

func (s *Store) InsertDelivery(ctx context.Context, d world.ContractDelivery) error {
	_, err := s.ext.ExecContext(ctx, `INSERT INTO contract_deliveries
		(id, contract_id, item_id, shipment_id, quantity, quality, result, penalty, turn)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ContractID, d.ItemID, d.ShipmentID, d.Quantity, d.Quality, d.Result, d.Penalty, d.Turn)
	return err
}

func (s *Store) ListDeliveries(ctx context.Context, contractID string) ([]world.ContractDelivery, error) {
	var out []world.ContractDelivery
	err := sqlx.SelectContext(ctx, s.ext, &out,
		"SELECT * FROM contract_deliveries WHERE contract_id = ? ORDER BY turn, id", contractID)
	return out, err
}
