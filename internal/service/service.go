package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/gradebook-backend/internal/apperror"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository"
	"github.com/stemsi/gradebook-backend/internal/validator"
)

type actorKey struct{}

// WithActor stores the identity performing the request, used in audit events.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored by WithActor, or "anonymous".
func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return "anonymous"
}

// validate runs the binding tags of req and returns a validation error on failure.
func validate(req interface{}) error {
	if fields := validator.Validate(req); fields != nil {
		return apperror.ValidationFields(fields)
	}
	return nil
}

// lookupErr turns a missing record into a not-found error naming it.
func lookupErr(err error, entity string, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFoundf("%s %d not found", entity, id)
	}
	return err
}

// writeErr translates constraint violations raised by the store on write.
func writeErr(err error, entity string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateKey):
		return apperror.Duplicate(fmt.Sprintf("%s already exists", entity), err)
	case errors.Is(err, repository.ErrForeignKeyViolation):
		return &apperror.Error{
			Kind:    apperror.KindIntegrity,
			Message: fmt.Sprintf("%s is still referenced by other records", entity),
			Err:     err,
		}
	default:
		return err
	}
}

// finish classifies any error that escaped a transaction without a kind as a
// persistence failure.
func finish(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.Persistence(err)
}

// auditor publishes audit events for committed mutations. Publishing never
// fails the caller; errors are logged.
type auditor struct {
	pub AuditPublisher
	log zerolog.Logger
}

func (a auditor) record(ctx context.Context, entity string, id int64, action string) {
	if a.pub == nil {
		return
	}
	event := model.AuditEvent{
		Entity:     entity,
		EntityID:   id,
		Action:     action,
		Actor:      ActorFrom(ctx),
		OccurredAt: time.Now().UTC(),
	}
	if err := a.pub.Publish(ctx, event); err != nil {
		a.log.Warn().Err(err).
			Str("entity", entity).
			Int64("entity_id", id).
			Str("action", action).
			Msg("Failed to publish audit event")
	}
}
