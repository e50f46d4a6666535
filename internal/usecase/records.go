package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
	"github.com/arklim/campus-records/internal/infra/logger"
	"github.com/arklim/campus-records/internal/infra/telemetry"
	"github.com/arklim/campus-records/internal/repository"
)

// DeleteOptions tunes record deletion.
type DeleteOptions struct {
	// CascadeOwner also removes the principal linked to a deleted student or teacher.
	CascadeOwner bool
}

// AccountInput carries login credentials created together with an owned record.
type AccountInput struct {
	Identifier string
	Password   string
}

// RecordOption customizes the record services.
type RecordOption func(*recordCore)

// WithEventPublisher announces committed mutations through publisher.
func WithEventPublisher(publisher port.RecordEventPublisher) RecordOption {
	return func(c *recordCore) {
		c.events = publisher
	}
}

// WithPasswordPolicy rejects weak passwords for accounts created alongside records.
func WithPasswordPolicy(policy port.PasswordPolicyValidator) RecordOption {
	return func(c *recordCore) {
		c.passwords = policy
	}
}

// WithMutationMetrics counts committed mutations.
func WithMutationMetrics(metrics *telemetry.PolicyMetrics) RecordOption {
	return func(c *recordCore) {
		c.metrics = metrics
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) RecordOption {
	return func(c *recordCore) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator overrides how record and principal ids are minted.
func WithIDGenerator(newID func() string) RecordOption {
	return func(c *recordCore) {
		if newID != nil {
			c.newID = newID
		}
	}
}

// recordCore is the authorize, load, mask and persist pipeline shared by every kind.
type recordCore struct {
	store     port.Store
	policy    *AccessPolicy
	hasher    port.PasswordHasher
	passwords port.PasswordPolicyValidator
	events    port.RecordEventPublisher
	metrics   *telemetry.PolicyMetrics
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

func newRecordCore(store port.Store, policy *AccessPolicy, hasher port.PasswordHasher, log *zap.Logger, opts []RecordOption) recordCore {
	if log == nil {
		log = zap.NewNop()
	}
	c := recordCore{
		store:  store,
		policy: policy,
		hasher: hasher,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// newAccount validates credentials and builds an enabled principal with a hashed password.
func (c *recordCore) newAccount(input AccountInput, role domain.Role) (*domain.Principal, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" {
		return nil, &domain.ValidationError{Field: string(domain.FieldIdentifier), Reason: "is required"}
	}
	if input.Password == "" {
		return nil, &domain.ValidationError{Field: "password", Reason: "is required"}
	}
	if c.passwords != nil {
		if err := c.passwords.Validate(input.Password, identifier); err != nil {
			return nil, &domain.ValidationError{Field: "password", Reason: err.Error()}
		}
	}
	if c.hasher == nil {
		return nil, &domain.StorageError{Op: "hash password", Err: errors.New("password hasher not configured")}
	}

	hash, err := c.hasher.Hash(input.Password)
	if err != nil {
		return nil, &domain.StorageError{Op: "hash password", Err: err}
	}

	return &domain.Principal{
		ID:           c.newID(),
		Identifier:   identifier,
		PasswordHash: hash,
		Role:         role,
		Enabled:      true,
		CreatedAt:    c.now(),
	}, nil
}

// createAccount inserts the principal inside the caller's unit of work.
func (c *recordCore) createAccount(ctx context.Context, repos port.Repositories, principal domain.Principal) error {
	exists, err := repos.Principals().ExistsByIdentifier(ctx, principal.Identifier)
	if err != nil {
		return classify("check identifier", err)
	}
	if exists {
		return &domain.ConflictError{Field: domain.FieldIdentifier}
	}
	return classify("create principal", repos.Principals().Create(ctx, principal))
}

// checkOwner verifies that principalID names a principal of the role matching
// kind and that no other record of kind is already linked to it.
func (c *recordCore) checkOwner(ctx context.Context, repos port.Repositories, kind domain.Kind, principalID, recordID string) error {
	principal, err := repos.Principals().GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.ValidationError{Field: string(domain.FieldOwnerPrincipalID), Reason: "referenced principal does not exist"}
		}
		return classify("load owner", err)
	}
	if principal.Role != ownerRole(kind) {
		return &domain.ValidationError{Field: string(domain.FieldOwnerPrincipalID), Reason: fmt.Sprintf("a %s record must be owned by a %s principal", kind, ownerRole(kind))}
	}

	ownedID, ok, err := ownedRecord(ctx, repos, kind, principalID)
	if err != nil {
		return err
	}
	if ok && ownedID != recordID {
		return &domain.ConflictError{Kind: kind, Field: domain.FieldOwnerPrincipalID}
	}
	return nil
}

// afterCommit logs, counts and announces a committed mutation.
func (c *recordCore) afterCommit(ctx context.Context, actor domain.Principal, kind domain.Kind, id string, change domain.RecordChangeType, fields []domain.Field, ownerRemoved bool) {
	c.metrics.ObserveMutation(kind.String(), string(change))

	c.logger.With(logger.ContextFields(ctx)...).Info("record "+string(change),
		zap.String("kind", kind.String()),
		zap.String("record_id", id),
		zap.String("actor_role", actor.Role.String()),
		zap.Strings("fields", fieldNames(fields)),
		zap.Bool("owner_removed", ownerRemoved),
	)

	if c.events == nil {
		return
	}
	event := domain.RecordChangedEvent{
		EventID:       c.newID(),
		Kind:          kind,
		RecordID:      id,
		Change:        change,
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		ChangedFields: fields,
		OwnerRemoved:  ownerRemoved,
		OccurredAt:    c.now(),
	}
	if err := c.events.PublishRecordChanged(ctx, event); err != nil {
		c.logger.Warn("publish record change failed",
			zap.String("kind", kind.String()),
			zap.String("record_id", id),
			zap.Error(err),
		)
	}
}

// removeOwner deletes the principal of a deleted record when cascading.
// A principal that is already gone is not an error; the actor's own
// principal is never removed.
func removeOwner(ctx context.Context, repos port.Repositories, actor domain.Principal, owner *string, opts DeleteOptions) (bool, error) {
	if !opts.CascadeOwner || owner == nil {
		return false, nil
	}
	if *owner == actor.ID {
		return false, &domain.ValidationError{Field: "cascade", Reason: "cannot remove the signed-in account"}
	}
	err := repos.Principals().Delete(ctx, *owner)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	default:
		return false, classify("delete owner", err)
	}
}

func ownedRecord(ctx context.Context, repos port.Repositories, kind domain.Kind, principalID string) (string, bool, error) {
	var (
		id  string
		err error
	)
	switch kind {
	case domain.KindStudent:
		var s *domain.Student
		if s, err = repos.Students().GetByOwner(ctx, principalID); err == nil {
			id = s.ID
		}
	case domain.KindTeacher:
		var t *domain.Teacher
		if t, err = repos.Teachers().GetByOwner(ctx, principalID); err == nil {
			id = t.ID
		}
	default:
		return "", false, nil
	}

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", false, nil
		}
		return "", false, classify("resolve owner", err)
	}
	return id, true, nil
}

func ownerRole(kind domain.Kind) domain.Role {
	if kind == domain.KindTeacher {
		return domain.RoleTeacher
	}
	return domain.RoleStudent
}

// ensureUnique reports a ConflictError when exists finds a record holding the value.
func ensureUnique(ctx context.Context, kind domain.Kind, field domain.Field, exists func(context.Context) (bool, error)) error {
	taken, err := exists(ctx)
	if err != nil {
		return classify("check "+string(field), err)
	}
	if taken {
		return &domain.ConflictError{Kind: kind, Field: field}
	}
	return nil
}

// classify places err in the record error taxonomy. Errors already
// classified pass through, a missing row becomes ErrNotFound and anything
// else is a StorageError.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case domain.IsClassified(err):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	default:
		return &domain.StorageError{Op: op, Err: err}
	}
}

func notFound(kind domain.Kind, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s %q", domain.ErrNotFound, kind, id)
	}
	return classify("load "+kind.String(), err)
}

func requireText(field domain.Field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &domain.ValidationError{Field: string(field), Reason: "is required"}
	}
	return nil
}

func requireEmail(value string) error {
	if err := requireText(domain.FieldEmail, value); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return &domain.ValidationError{Field: string(domain.FieldEmail), Reason: "must be a valid email address"}
	}
	return nil
}

func optionalText(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func fieldNames(fields []domain.Field) []string {
	return lo.Map(fields, func(f domain.Field, _ int) string { return string(f) })
}

func changedAny(changed []domain.Field, fields ...domain.Field) bool {
	return lo.Some(changed, fields)
}
