package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

const tracerName = "github.com/neomorfeo/leaseiq/internal/adapter/otel"

// TracingContractStore wraps a domain.ContractStore with OpenTelemetry
// tracing. Each method creates a span with semantic attributes and records
// errors.
type TracingContractStore struct {
	next   domain.ContractStore
	tracer trace.Tracer
}

// Compile-time check: TracingContractStore implements domain.ContractStore.
var _ domain.ContractStore = (*TracingContractStore)(nil)

// NewTracingContractStore creates a tracing decorator around the given store.
func NewTracingContractStore(next domain.ContractStore) *TracingContractStore {
	return &TracingContractStore{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (s *TracingContractStore) Create(ctx context.Context, contract domain.Contract) error {
	ctx, span := s.tracer.Start(ctx, "ContractStore.Create",
		trace.WithAttributes(
			attribute.String("contract.id", contract.ID),
			attribute.String("contract.room_id", contract.RoomID),
		),
	)
	defer span.End()

	err := s.next.Create(ctx, contract)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *TracingContractStore) GetByID(ctx context.Context, id string) (domain.Contract, error) {
	ctx, span := s.tracer.Start(ctx, "ContractStore.GetByID",
		trace.WithAttributes(attribute.String("contract.id", id)),
	)
	defer span.End()

	contract, err := s.next.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return contract, err
}

func (s *TracingContractStore) List(ctx context.Context, filter domain.ContractFilter) ([]domain.Contract, error) {
	ctx, span := s.tracer.Start(ctx, "ContractStore.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}

	contracts, err := s.next.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(contracts)))
	}
	return contracts, err
}

func (s *TracingContractStore) ListBlockingByRoom(ctx context.Context, roomID string) ([]domain.Contract, error) {
	ctx, span := s.tracer.Start(ctx, "ContractStore.ListBlockingByRoom",
		trace.WithAttributes(attribute.String("room.id", roomID)),
	)
	defer span.End()

	contracts, err := s.next.ListBlockingByRoom(ctx, roomID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(contracts)))
	}
	return contracts, err
}

func (s *TracingContractStore) ListExpiring(ctx context.Context, before time.Time) ([]domain.Contract, error) {
	ctx, span := s.tracer.Start(ctx, "ContractStore.ListExpiring",
		trace.WithAttributes(attribute.String("before", before.Format("2006-01-02"))),
	)
	defer span.End()

	contracts, err := s.next.ListExpiring(ctx, before)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(contracts)))
	}
	return contracts, err
}

func (s *TracingContractStore) Update(ctx context.Context, contract domain.Contract) error {
	ctx, span := s.tracer.Start(ctx, "ContractStore.Update",
		trace.WithAttributes(
			attribute.String("contract.id", contract.ID),
			attribute.String("contract.status", string(contract.Status)),
		),
	)
	defer span.End()

	err := s.next.Update(ctx, contract)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *TracingContractStore) HardDelete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "ContractStore.HardDelete",
		trace.WithAttributes(attribute.String("contract.id", id)),
	)
	defer span.End()

	err := s.next.HardDelete(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
