package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/vorticog/internal/world"
)

// Snapshot is a point-in-time JSON export of the world, compressed with
// zstd on the wire.
type Snapshot struct {
	Turn      int64                `json:"turn"`
	Cities    []world.City         `json:"cities"`
	Companies []world.Company      `json:"companies"`
	Units     []world.BusinessUnit `json:"units"`
	Agents    []world.Agent        `json:"agents"`
	Contracts []world.Contract     `json:"contracts"`
	Routes    []world.SupplyRoute  `json:"routes"`
	Events    []world.WorldEvent   `json:"events"`
}

// ExportSnapshot writes a zstd-compressed JSON snapshot to w.
func (s *Store) ExportSnapshot(ctx context.Context, w io.Writer) error {
	snap, err := s.buildSnapshot(ctx)
	if err != nil {
		return err
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	if err := json.NewEncoder(zw).Encode(snap); err != nil {
		zw.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return zw.Close()
}

// ReadSnapshot decodes a zstd-compressed snapshot from r.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	zr, err := zstd.NewReader(r)
	if err != nil {
		return snap, fmt.Errorf("zstd reader: %w", err)
	}
	defer zr.Close()
	if err := json.NewDecoder(zr).Decode(&snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func (s *Store) buildSnapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Turn, err = s.CurrentTurn(ctx); err != nil {
		return snap, err
	}
	if snap.Cities, err = s.ListCities(ctx); err != nil {
		return snap, fmt.Errorf("snapshot cities: %w", err)
	}
	if snap.Companies, err = s.ListCompanies(ctx); err != nil {
		return snap, fmt.Errorf("snapshot companies: %w", err)
	}
	if snap.Units, err = s.ListAllUnits(ctx); err != nil {
		return snap, fmt.Errorf("snapshot units: %w", err)
	}
	if snap.Agents, err = s.ListAgents(ctx, ""); err != nil {
		return snap, fmt.Errorf("snapshot agents: %w", err)
	}
	if snap.Contracts, err = s.ListContracts(ctx, ""); err != nil {
		return snap, fmt.Errorf("snapshot contracts: %w", err)
	}
	if snap.Routes, err = s.ListRoutes(ctx); err != nil {
		return snap, fmt.Errorf("snapshot routes: %w", err)
	}
	if snap.Events, err = s.ListActiveEvents(ctx, ""); err != nil {
		return snap, fmt.Errorf("snapshot events: %w", err)
	}
	return snap, nil
}
