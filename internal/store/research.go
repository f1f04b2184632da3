package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/vorticog/internal/world"
)

func (s *Store) GetTechnology(ctx context.Context, id string) (world.Technology, error) {
	row := struct {
		world.Technology
		PrereqJSON string `db:"prerequisites_json"`
	}{}
	if err := sqlx.GetContext(ctx, s.ext, &row, "SELECT * FROM technologies WHERE id = ?", id); err != nil {
		return world.Technology{}, notFound(err)
	}
	t := row.Technology
	if err := json.Unmarshal([]byte(row.PrereqJSON), &t.Prerequisites); err != nil {
		return world.Technology{}, fmt.Errorf("technology %s prerequisites: %w", id, err)
	}
	return t, nil
}

func (s *Store) ListTechnologies(ctx context.Context) ([]world.Technology, error) {
	rows := []struct {
		world.Technology
		PrereqJSON string `db:"prerequisites_json"`
	}{}
	if err := sqlx.SelectContext(ctx, s.ext, &rows, "SELECT * FROM technologies ORDER BY id"); err != nil {
		return nil, err
	}
	out := make([]world.Technology, 0, len(rows))
	for _, r := range rows {
		t := r.Technology
		if err := json.Unmarshal([]byte(r.PrereqJSON), &t.Prerequisites); err != nil {
			return nil, fmt.Errorf("technology %s prerequisites: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) InsertTechnology(ctx context.Context, t world.Technology) error {
	prereqs, err := json.Marshal(orEmpty(t.Prerequisites))
	if err != nil {
		return err
	}
	_, err = s.ext.ExecContext(ctx,
		"INSERT INTO technologies (id, name, category, cost, prerequisites_json) VALUES (?, ?, ?, ?, ?)",
		t.ID, t.Name, t.Category, t.Cost, string(prereqs))
	return err
}

func (s *Store) GetCompanyTech(ctx context.Context, companyID, techID string) (world.CompanyTechnology, error) {
	var ct world.CompanyTechnology
	err := sqlx.GetContext(ctx, s.ext, &ct,
		"SELECT * FROM company_technologies WHERE company_id = ? AND technology_id = ?",
		companyID, techID)
	return ct, notFound(err)
}

func (s *Store) ListCompanyTech(ctx context.Context, companyID string) ([]world.CompanyTechnology, error) {
	var out []world.CompanyTechnology
	err := sqlx.SelectContext(ctx, s.ext, &out,
		"SELECT * FROM company_technologies WHERE company_id = ? ORDER BY id", companyID)
	return out, err
}

// ListActiveResearch returns all incomplete research rows across companies.
func (s *Store) ListActiveResearch(ctx context.Context) ([]world.CompanyTechnology, error) {
	var out []world.CompanyTechnology
	err := sqlx.SelectContext(ctx, s.ext, &out,
		"SELECT * FROM company_technologies WHERE completed = 0 ORDER BY id")
	return out, err
}

func (s *Store) InsertCompanyTech(ctx context.Context, ct world.CompanyTechnology) error {
	_, err := s.ext.ExecContext(ctx, `INSERT INTO company_technologies
		(id, company_id, technology_id, progress, completed, started_turn)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ct.ID, ct.CompanyID, ct.TechnologyID, ct.Progress, ct.Completed, ct.StartedTurn)
	return err
}

func (s *Store) UpdateCompanyTech(ctx context.Context, ct world.CompanyTechnology) error {
	_, err := s.ext.ExecContext(ctx,
		"UPDATE company_technologies SET progress = ?, completed = ? WHERE id = ?",
		ct.Progress, ct.Completed, ct.ID)
	return err
}

func (s *Store) GetStandard(ctx context.Context, companyID, category string) (world.QualityStandard, error) {
	var q world.QualityStandard
	err := sqlx.GetContext(ctx, s.ext, &q,
		"SELECT * FROM quality_standards WHERE company_id = ? AND category = ?", companyID, category)
	return q, notFound(err)
}

func (s *Store) InsertStandard(ctx context.Context, q world.QualityStandard) error {
	_, err := s.ext.ExecContext(ctx, `INSERT INTO quality_standards
		(id, company_id, category, min_acceptable, target_quality, frequency, rigor, bonus_enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.CompanyID, q.Category, q.MinAcceptable, q.TargetQuality, q.Frequency, q.Rigor, q.BonusEnabled)
	return err
}

func (s *Store) InsertInspection(ctx context.Context, in world.QualityInspection) error {
	_, err := s.ext.ExecContext(ctx, `INSERT INTO quality_inspections
		(id, standard_id, unit_id, resource_id, sample_size, measured_quality, actual_quality,
		 passed, detected, bonus_awarded, turn)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.StandardID, in.UnitID, in.ResourceID, in.SampleSize, in.MeasuredQuality,
		in.ActualQuality, in.Passed, in.Detected, in.BonusAwarded, in.Turn)
	return err
}

func (s *Store) ListInspections(ctx context.Context, unitID string) ([]world.QualityInspection, error) {
	var out []world.QualityInspection
	err := sqlx.SelectContext(ctx, s.ext, &out,
		"SELECT * FROM quality_inspections WHERE unit_id = ? ORDER BY turn, id", unitID)
	return out, err
}
