package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
	"github.com/arklim/campus-records/internal/infra/telemetry"
)

// AccessPolicy decides what a principal may do with a record kind.
// Decisions are recomputed on every call from live role and ownership state.
type AccessPolicy struct {
	owners  port.OwnershipResolver
	metrics *telemetry.PolicyMetrics
	tracer  trace.Tracer
}

// NewAccessPolicy constructs an AccessPolicy backed by owners.
func NewAccessPolicy(owners port.OwnershipResolver) *AccessPolicy {
	return &AccessPolicy{
		owners: owners,
		tracer: otel.Tracer(telemetry.TracerName),
	}
}

// WithMetrics attaches decision counters.
func (p *AccessPolicy) WithMetrics(metrics *telemetry.PolicyMetrics) *AccessPolicy {
	p.metrics = metrics
	return p
}

// Decide evaluates action on the record of kind identified by targetID.
// targetID is ignored for LIST and CREATE. The only error returned is a
// StorageError from the ownership lookup.
func (p *AccessPolicy) Decide(ctx context.Context, principal domain.Principal, action domain.Action, kind domain.Kind, targetID string) (domain.AccessDecision, error) {
	ctx, span := p.tracer.Start(ctx, "AccessPolicy.Decide", trace.WithAttributes(
		attribute.String("records.role", principal.Role.String()),
		attribute.String("records.action", string(action)),
		attribute.String("records.kind", kind.String()),
		attribute.Bool("records.mutates", action.Mutates()),
	))
	defer span.End()

	decision, err := p.decide(ctx, principal, action, kind, targetID)
	if err != nil {
		span.RecordError(err)
		return domain.Deny("ownership lookup failed"), err
	}

	span.SetAttributes(
		attribute.Bool("records.allowed", decision.Allowed),
		attribute.String("records.reason", decision.Reason),
	)
	p.metrics.ObserveDecision(principal.Role.String(), string(action), kind.String(), decision.Allowed)
	return decision, nil
}

func (p *AccessPolicy) decide(ctx context.Context, principal domain.Principal, action domain.Action, kind domain.Kind, targetID string) (domain.AccessDecision, error) {
	if !principal.Enabled {
		return domain.Deny("principal disabled"), nil
	}

	switch principal.Role {
	case domain.RoleTeacher:
		return domain.Allow(domain.AllFields(), "teacher"), nil
	case domain.RoleStudent:
	default:
		return domain.Deny("unknown role"), nil
	}

	switch action {
	case domain.ActionList, domain.ActionView:
		return domain.Allow(domain.NoFields(), "read access"), nil
	case domain.ActionUpdate:
	default:
		return domain.Deny("students may not " + string(action)), nil
	}

	if !kind.Ownable() {
		return domain.Deny(kind.String() + " records are not ownable"), nil
	}

	ownedID, ok, err := p.owners.OwnedRecordID(ctx, kind, principal.ID)
	if err != nil {
		return domain.AccessDecision{}, &domain.StorageError{Op: "resolve owner", Err: err}
	}
	if !ok || ownedID != targetID {
		return domain.Deny("not the owner"), nil
	}

	return domain.Allow(kind.SelfServiceMask(), "owner"), nil
}

// Authorize runs Decide and converts a denial into ErrAccessDenied.
func (p *AccessPolicy) Authorize(ctx context.Context, principal domain.Principal, action domain.Action, kind domain.Kind, targetID string) (domain.AccessDecision, error) {
	decision, err := p.Decide(ctx, principal, action, kind, targetID)
	if err != nil {
		return decision, err
	}
	if !decision.Allowed {
		return decision, fmt.Errorf("%w: %s on %s (%s)", domain.ErrAccessDenied, action, kind, decision.Reason)
	}
	return decision, nil
}
