package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository/memstore"
)

func TestAuditService_PersistAndList(t *testing.T) {
	store := memstore.New()
	svc := NewAuditService(store, zerolog.Nop())
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var events []model.AuditEvent
	for i := 0; i < 25; i++ {
		entity := entityCourse
		if i%5 == 0 {
			entity = entityStudent
		}
		events = append(events, model.AuditEvent{
			Entity:     entity,
			EntityID:   int64(i + 1),
			Action:     model.AuditCreate,
			Actor:      fmt.Sprintf("op-%d", i),
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	n, err := svc.Persist(ctx, events)
	if err != nil || n != 25 {
		t.Fatalf("Persist = %d, %v", n, err)
	}

	logs, total, filter, err := svc.List(ctx, model.AuditFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 25 || filter.Page != 1 || filter.PerPage != defaultAuditPerPage || len(logs) != defaultAuditPerPage {
		t.Fatalf("got %d logs of %d (page %d per %d)", len(logs), total, filter.Page, filter.PerPage)
	}
	if logs[0].EntityID != 25 {
		t.Errorf("expected newest first, got entity id %d", logs[0].EntityID)
	}

	logs, total, _, err = svc.List(ctx, model.AuditFilter{Entity: entityStudent, PerPage: 500})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 5 || len(logs) != 5 {
		t.Errorf("student filter: got %d of %d", len(logs), total)
	}

	logs, _, _, err = svc.List(ctx, model.AuditFilter{Page: 3})
	if err != nil || len(logs) != 0 {
		t.Errorf("page past the end = %v, %v", logs, err)
	}
}

func TestStoreAuditPublisher_RecordsMutations(t *testing.T) {
	store := memstore.New()
	pub := NewStoreAuditPublisher(store)
	courses := NewCourseService(store, pub, zerolog.Nop())
	ctx := WithActor(context.Background(), "registrar@example.com")

	c, err := courses.Create(ctx, model.CourseRequest{Name: "Physics"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := courses.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	logs, total, _, err := NewAuditService(store, zerolog.Nop()).List(context.Background(), model.AuditFilter{Entity: entityCourse})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 audit logs, got %d", total)
	}
	for _, l := range logs {
		if l.Actor != "registrar@example.com" || l.EntityID != c.ID {
			t.Errorf("unexpected audit log %+v", l)
		}
	}
}
