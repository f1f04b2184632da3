// Package engine drives the turn processor: a fixed sequence of phases
// advancing production, logistics, contracts, finances, research, and
// events exactly once per turn.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/talgya/vorticog/internal/contracts"
	"github.com/talgya/vorticog/internal/logistics"
	"github.com/talgya/vorticog/internal/store"
	"github.com/talgya/vorticog/internal/world"
)

// Phase names in execution order.
var phaseOrder = []string{
	"start",
	"production",
	"shipments",
	"contracts",
	"salaries",
	"maintenance",
	"taxes",
	"events",
	"complete",
}

// Producer advances production orders for one turn.
type Producer interface {
	ProcessProduction(ctx context.Context, turn int64) (completed int, err error)
}

// ShipmentResolver resolves due shipments for one turn.
type ShipmentResolver interface {
	ProcessShipments(ctx context.Context, turn int64) (logistics.Resolution, error)
}

// ContractRunner executes scheduled contract deliveries for one turn.
type ContractRunner interface {
	ProcessContracts(ctx context.Context, turn int64) (contracts.Outcome, error)
}

// Treasurer posts the recurring money flows for one turn.
type Treasurer interface {
	PaySalaries(ctx context.Context, turn int64) (float64, error)
	PayMaintenance(ctx context.Context, turn int64) (float64, error)
	CollectTaxes(ctx context.Context, turn int64) (float64, error)
}

// Researcher accrues research progress for one turn.
type Researcher interface {
	ProcessResearch(ctx context.Context) (completed int, err error)
}

// EventProcessor fires scheduled events and expires finished ones.
type EventProcessor interface {
	ProcessScheduled(ctx context.Context, turn int64) (fired int, err error)
}

// TurnSummary reports what one turn accomplished.
type TurnSummary struct {
	Turn               int64   `json:"turn"`
	ProductionFinished int     `json:"productionFinished"`
	ShipmentsDelivered int     `json:"shipmentsDelivered"`
	ShipmentsDelayed   int     `json:"shipmentsDelayed"`
	ShipmentsLost      int     `json:"shipmentsLost"`
	ContractDeliveries int     `json:"contractDeliveries"`
	ContractPenalties  int     `json:"contractPenalties"`
	ContractsCompleted int     `json:"contractsCompleted"`
	ContractsBreached  int     `json:"contractsBreached"`
	SalariesPaid       float64 `json:"salariesPaid"`
	MaintenancePaid    float64 `json:"maintenancePaid"`
	TaxesCollected     float64 `json:"taxesCollected"`
	ResearchCompleted  int     `json:"researchCompleted"`
	EventsFired        int     `json:"eventsFired"`
	FailedPhases       int     `json:"failedPhases"`
	Elapsed            string  `json:"elapsed"`
}

// Processor runs turns. Every dependency is injected at construction.
type Processor struct {
	store      *store.Store
	producer   Producer
	shipments  ShipmentResolver
	contracts  ContractRunner
	finance    Treasurer
	research   Researcher
	events     EventProcessor
	onComplete func(TurnSummary)
}

// NewProcessor wires the turn processor. onComplete may be nil.
func NewProcessor(st *store.Store, producer Producer, shipments ShipmentResolver,
	contractRunner ContractRunner, finance Treasurer, research Researcher,
	eventProc EventProcessor, onComplete func(TurnSummary)) *Processor {
	return &Processor{
		store:      st,
		producer:   producer,
		shipments:  shipments,
		contracts:  contractRunner,
		finance:    finance,
		research:   research,
		events:     eventProc,
		onComplete: onComplete,
	}
}

// ProcessTurn runs every phase in order. A failing phase is logged and
// recorded; its siblings still run. The turn counter advances exactly once
// at the end, and only a failure there fails the whole call.
func (p *Processor) ProcessTurn(ctx context.Context) (TurnSummary, error) {
	started := time.Now()

	// Cancellation only rejects a turn that has not begun. Once phases
	// start, the turn runs to completion even if the caller goes away.
	if err := ctx.Err(); err != nil {
		return TurnSummary{}, err
	}
	ctx = context.WithoutCancel(ctx)

	turn, err := p.store.CurrentTurn(ctx)
	if err != nil {
		return TurnSummary{}, fmt.Errorf("process turn: %w", err)
	}
	processing := turn + 1

	summary := TurnSummary{Turn: processing}

	for _, phase := range phaseOrder {
		if err := p.runPhase(ctx, phase, processing, &summary); err != nil {
			if phase == "complete" {
				return summary, fmt.Errorf("turn %d: complete phase: %w", processing, err)
			}
			summary.FailedPhases++
			slog.Error("phase failed", "turn", processing, "phase", phase, "error", err)
			p.logPhase(ctx, processing, phase, "failed", err.Error())
			continue
		}
		p.logPhase(ctx, processing, phase, "completed", "")
	}

	summary.Elapsed = time.Since(started).String()
	slog.Info("turn complete",
		"turn", summary.Turn,
		"deliveries", summary.ContractDeliveries,
		"shipments_delivered", summary.ShipmentsDelivered,
		"failed_phases", summary.FailedPhases,
		"elapsed", summary.Elapsed)

	if p.onComplete != nil {
		p.onComplete(summary)
	}
	return summary, nil
}

func (p *Processor) runPhase(ctx context.Context, phase string, turn int64, summary *TurnSummary) error {
	switch phase {
	case "start":
		return nil
	case "production":
		n, err := p.producer.ProcessProduction(ctx, turn)
		summary.ProductionFinished = n

		// Laboratories accrue research alongside factory output.
		done, rerr := p.research.ProcessResearch(ctx)
		summary.ResearchCompleted = done
		if err != nil {
			return err
		}
		return rerr
	case "shipments":
		res, err := p.shipments.ProcessShipments(ctx, turn)
		summary.ShipmentsDelivered = res.Delivered
		summary.ShipmentsDelayed = res.Delayed
		summary.ShipmentsLost = res.Lost
		return err
	case "contracts":
		out, err := p.contracts.ProcessContracts(ctx, turn)
		summary.ContractDeliveries = out.Deliveries
		summary.ContractPenalties = out.Penalties
		summary.ContractsCompleted = out.Completed
		summary.ContractsBreached = out.Breached
		return err
	case "salaries":
		total, err := p.finance.PaySalaries(ctx, turn)
		summary.SalariesPaid = total
		return err
	case "maintenance":
		total, err := p.finance.PayMaintenance(ctx, turn)
		summary.MaintenancePaid = total
		return err
	case "taxes":
		total, err := p.finance.CollectTaxes(ctx, turn)
		summary.TaxesCollected = total
		return err
	case "events":
		fired, err := p.events.ProcessScheduled(ctx, turn)
		summary.EventsFired = fired
		return err
	case "complete":
		_, err := p.store.AdvanceTurn(ctx)
		return err
	default:
		return fmt.Errorf("unknown phase %q", phase)
	}
}

// logPhase appends an audit record; failures here are logged, never fatal.
func (p *Processor) logPhase(ctx context.Context, turn int64, phase, status, detail string) {
	err := p.store.AppendTurnLog(ctx, world.TurnLogEntry{
		ID:     ulid.Make().String(),
		Turn:   turn,
		Phase:  phase,
		Status: status,
		Detail: detail,
	})
	if err != nil {
		slog.Error("turn log append failed", "turn", turn, "phase", phase, "error", err)
	}
}
