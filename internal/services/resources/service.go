package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/KshitijThareja/Orbyq/internal/auth"
	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/repository"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
	"github.com/KshitijThareja/Orbyq/internal/telemetry"
)

// ListQuery narrows a List call.
type ListQuery struct {
	// Where holds exact-match column conditions applied in the store.
	Where []repository.Condition
	// OrderBy overrides the default newest-first order.
	OrderBy []string
	Limit   int
	// Filter is a go-bexpr expression evaluated against the JSON form of each item.
	Filter string
}

// SaveCheck runs after validation on create and update, before the write.
type SaveCheck[T models.Owned] func(ctx context.Context, item T) error

// Service implements owner-scoped CRUD for one resource kind. Every operation
// resolves the caller first and every operation on an existing id checks
// ownership before anything else happens.
type Service[T models.Owned] struct {
	guard    *Guard
	repo     repository.OwnedRepository[T]
	filters  *auth.FilterEvaluator
	activity ActivityRecorder
	checks   []SaveCheck[T]
	now      func() time.Time
}

// Option configures a Service.
type Option[T models.Owned] func(*Service[T])

// WithActivity records create, update and delete events.
func WithActivity[T models.Owned](rec ActivityRecorder) Option[T] {
	return func(s *Service[T]) { s.activity = rec }
}

// WithSaveCheck adds a check run before every write.
func WithSaveCheck[T models.Owned](check SaveCheck[T]) Option[T] {
	return func(s *Service[T]) { s.checks = append(s.checks, check) }
}

// WithClock overrides time.Now for date validation.
func WithClock[T models.Owned](now func() time.Time) Option[T] {
	return func(s *Service[T]) { s.now = now }
}

// NewService creates the service for one kind. filters may be nil, in which
// case list filters are rejected.
func NewService[T models.Owned](guard *Guard, repo repository.OwnedRepository[T], filters *auth.FilterEvaluator, opts ...Option[T]) *Service[T] {
	s := &Service[T]{
		guard:   guard,
		repo:    repo,
		filters: filters,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service[T]) kind() models.Kind {
	var zero T
	return zero.Kind()
}

func (s *Service[T]) startSpan(ctx context.Context, op string, principal iam.Principal, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String(telemetry.AttrResourceKind, string(s.kind())),
		attribute.String(telemetry.AttrUserEmail, principal.Email),
	)
	return telemetry.StartSpan(ctx, telemetry.TracerResources, "resources."+op, attrs...)
}

// authorize resolves the caller and loads id, failing with ErrForbidden when
// the caller is not the owner.
func (s *Service[T]) authorize(ctx context.Context, principal iam.Principal, id string) (*models.User, T, error) {
	var zero T
	caller, err := s.guard.ResolveCaller(ctx, principal)
	if err != nil {
		return nil, zero, err
	}

	storeCtx, cancel := s.guard.storeCtx(ctx)
	item, err := s.repo.GetByID(storeCtx, id)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, zero, fmt.Errorf("%s %s: %w", s.kind(), id, ErrResourceNotFound)
		}
		return nil, zero, err
	}

	if err := AuthorizeOwner(caller, item.OwnerID()); err != nil {
		telemetry.AddEvent(trace.SpanFromContext(ctx), "ownership.denied",
			attribute.Bool(telemetry.AttrOwnerDecision, false),
			attribute.String(telemetry.AttrResourceID, id),
			attribute.String(telemetry.AttrUserID, caller.ID),
		)
		log.Printf("ownership denied: user %s on %s %s", caller.ID, s.kind(), id)
		return nil, zero, fmt.Errorf("%s %s: %w", s.kind(), id, err)
	}
	return caller, item, nil
}

// Get returns one resource owned by the caller.
func (s *Service[T]) Get(ctx context.Context, principal iam.Principal, id string) (_ T, err error) {
	ctx, span := s.startSpan(ctx, "Get", principal, attribute.String(telemetry.AttrResourceID, id))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	_, item, err := s.authorize(ctx, principal, id)
	return item, err
}

// List returns the caller's resources. Other owners' rows are never read.
func (s *Service[T]) List(ctx context.Context, principal iam.Principal, q ListQuery) (_ []T, err error) {
	ctx, span := s.startSpan(ctx, "List", principal)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if q.Filter != "" {
		if s.filters == nil {
			return nil, fmt.Errorf("%w: filters are not supported", ErrValidation)
		}
		if _, err := s.filters.Compile(q.Filter); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}

	caller, err := s.guard.ResolveCaller(ctx, principal)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := s.guard.storeCtx(ctx)
	items, err := s.repo.List(storeCtx, caller.ID, repository.ListOptions{
		Where:   q.Where,
		OrderBy: q.OrderBy,
		Limit:   q.Limit,
	})
	cancel()
	if err != nil {
		return nil, err
	}
	if q.Filter == "" {
		return items, nil
	}
	return s.filter(items, q.Filter)
}

func (s *Service[T]) filter(items []T, expr string) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		datum, err := asMap(item)
		if err != nil {
			return nil, err
		}
		ok, err := s.filters.Match(expr, datum)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// asMap gives filters the same field names clients see in JSON.
func asMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode for filter: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode for filter: %w", err)
	}
	return m, nil
}

// Create stores item owned by the caller. Any id, owner or version the
// client supplied is discarded.
func (s *Service[T]) Create(ctx context.Context, principal iam.Principal, item T) (_ T, err error) {
	ctx, span := s.startSpan(ctx, "Create", principal)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()
	var zero T

	caller, err := s.guard.ResolveCaller(ctx, principal)
	if err != nil {
		return zero, err
	}

	row := item.Row()
	*row = models.OwnedRow{UserID: caller.ID}
	item.ApplyDefaults()
	if err := s.validate(ctx, item); err != nil {
		return zero, err
	}

	storeCtx, cancel := s.guard.storeCtx(ctx)
	err = s.repo.Create(storeCtx, item)
	cancel()
	if err != nil {
		return zero, err
	}

	s.record(ctx, caller.ID, "created", item)
	return item, nil
}

// Update applies mutate to the caller's resource and saves it in one versioned
// write. When expectedVersion is set it must equal the stored version.
// mutate cannot change the id, owner, version or timestamps; any such change is reverted.
func (s *Service[T]) Update(ctx context.Context, principal iam.Principal, id string, expectedVersion *int64, mutate func(T) error) (_ T, err error) {
	ctx, span := s.startSpan(ctx, "Update", principal, attribute.String(telemetry.AttrResourceID, id))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()
	var zero T

	caller, item, err := s.authorize(ctx, principal, id)
	if err != nil {
		return zero, err
	}
	if expectedVersion != nil && *expectedVersion != item.Row().Version {
		return zero, fmt.Errorf("%s %s: %w", s.kind(), id, ErrStaleVersion)
	}

	saved := *item.Row()
	if err := mutate(item); err != nil {
		return zero, err
	}
	*item.Row() = saved

	if err := s.validate(ctx, item); err != nil {
		return zero, err
	}

	storeCtx, cancel := s.guard.storeCtx(ctx)
	err = s.repo.Update(storeCtx, item)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return zero, fmt.Errorf("%s %s: %w", s.kind(), id, ErrResourceNotFound)
		}
		return zero, err
	}

	s.record(ctx, caller.ID, "updated", item)
	return item, nil
}

// Delete removes the caller's resource.
func (s *Service[T]) Delete(ctx context.Context, principal iam.Principal, id string) error {
	return s.DeleteIf(ctx, principal, id, nil)
}

// DeleteIf removes the caller's resource after check accepts it. check may be nil.
func (s *Service[T]) DeleteIf(ctx context.Context, principal iam.Principal, id string, check func(T) error) (err error) {
	ctx, span := s.startSpan(ctx, "Delete", principal, attribute.String(telemetry.AttrResourceID, id))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	caller, item, err := s.authorize(ctx, principal, id)
	if err != nil {
		return err
	}
	if check != nil {
		if err := check(item); err != nil {
			return err
		}
	}

	storeCtx, cancel := s.guard.storeCtx(ctx)
	err = s.repo.Delete(storeCtx, id)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s %s: %w", s.kind(), id, ErrResourceNotFound)
		}
		return err
	}

	s.record(ctx, caller.ID, "deleted", item)
	return nil
}

func (s *Service[T]) validate(ctx context.Context, item T) error {
	if err := item.Validate(s.now()); err != nil {
		return err
	}
	for _, check := range s.checks {
		if err := check(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service[T]) record(ctx context.Context, ownerID, verb string, item T) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, ownerID, fmt.Sprintf("%s %s", item.Kind(), verb), item.Row().ID)
}
