// Package research tracks company technology progress. Completion is a
// one-way latch; prerequisites gate what can be started.
package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/vorticog/internal/store"
	"github.com/talgya/vorticog/internal/world"
)

// pointsPerLabSize converts laboratory size into research points per turn.
const pointsPerLabSize = 0.1

// Lab accrues research points and manages the technology tree.
type Lab struct {
	store *store.Store
}

// NewLab creates the research subsystem.
func NewLab(st *store.Store) *Lab {
	return &Lab{store: st}
}

// StartResearch begins work on a technology for a company. Prerequisites
// must be complete and the same technology cannot be started twice.
func (l *Lab) StartResearch(ctx context.Context, companyID, techID string) (world.CompanyTechnology, error) {
	tech, err := l.store.GetTechnology(ctx, techID)
	if err != nil {
		return world.CompanyTechnology{}, fmt.Errorf("start research: %w", err)
	}

	for _, prereq := range tech.Prerequisites {
		ok, err := l.HasTechnology(ctx, companyID, prereq)
		if err != nil {
			return world.CompanyTechnology{}, err
		}
		if !ok {
			return world.CompanyTechnology{}, fmt.Errorf("start research: missing prerequisite %s: %w", prereq, world.ErrInvalidState)
		}
	}

	if _, err := l.store.GetCompanyTech(ctx, companyID, techID); err == nil {
		return world.CompanyTechnology{}, fmt.Errorf("start research: %s already started: %w", techID, world.ErrInvalidState)
	} else if !errors.Is(err, world.ErrNotFound) {
		return world.CompanyTechnology{}, err
	}

	turn, err := l.store.CurrentTurn(ctx)
	if err != nil {
		return world.CompanyTechnology{}, err
	}

	ct := world.CompanyTechnology{
		ID:           uuid.NewString(),
		CompanyID:    companyID,
		TechnologyID: techID,
		StartedTurn:  turn,
	}
	if err := l.store.InsertCompanyTech(ctx, ct); err != nil {
		return world.CompanyTechnology{}, fmt.Errorf("start research: %w", err)
	}
	return ct, nil
}

// HasTechnology reports whether the company has completed the technology.
func (l *Lab) HasTechnology(ctx context.Context, companyID, techID string) (bool, error) {
	ct, err := l.store.GetCompanyTech(ctx, companyID, techID)
	if errors.Is(err, world.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ct.Completed, nil
}

// AddProgress adds research points to an active project and latches
// completion once cost is met. Completed projects ignore further points.
func (l *Lab) AddProgress(ctx context.Context, ct world.CompanyTechnology, points float64) (world.CompanyTechnology, error) {
	if ct.Completed {
		return ct, nil
	}

	tech, err := l.store.GetTechnology(ctx, ct.TechnologyID)
	if err != nil {
		return ct, err
	}

	ct.Progress += points
	if ct.Progress >= tech.Cost {
		ct.Progress = tech.Cost
		ct.Completed = true
		slog.Info("research completed", "company", ct.CompanyID, "technology", ct.TechnologyID)
	}

	if err := l.store.UpdateCompanyTech(ctx, ct); err != nil {
		return ct, fmt.Errorf("add progress: %w", err)
	}
	return ct, nil
}

// ProcessResearch accrues one turn of research points for every active
// project, funded by the owning company's laboratories.
func (l *Lab) ProcessResearch(ctx context.Context) (int, error) {
	active, err := l.store.ListActiveResearch(ctx)
	if err != nil {
		return 0, fmt.Errorf("process research: %w", err)
	}

	completed := 0
	for _, ct := range active {
		points, err := l.labPoints(ctx, ct.CompanyID)
		if err != nil {
			slog.Error("research accrual failed", "company", ct.CompanyID, "error", err)
			continue
		}
		if points <= 0 {
			continue
		}
		updated, err := l.AddProgress(ctx, ct, points)
		if err != nil {
			slog.Error("research progress failed", "project", ct.ID, "error", err)
			continue
		}
		if updated.Completed {
			completed++
		}
	}
	return completed, nil
}

// labPoints sums research output across a company's laboratories, scaled
// by size and equipment condition.
func (l *Lab) labPoints(ctx context.Context, companyID string) (float64, error) {
	units, err := l.store.ListUnits(ctx, companyID)
	if err != nil {
		return 0, err
	}
	points := 0.0
	for _, u := range units {
		if u.Type == world.UnitLaboratory {
			points += u.Size * pointsPerLabSize * (u.EquipmentCond / 100)
		}
	}
	return points, nil
}
