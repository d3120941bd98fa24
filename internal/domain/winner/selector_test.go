package winner_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/venuedraw/internal/adapters/repository"
	"github.com/okian/venuedraw/internal/domain/apperr"
	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/internal/domain/winner"
	"github.com/okian/venuedraw/pkg/logger"
)

var (
	admin  = model.Caller{UserID: "admin-1", TenantID: "t1", Role: model.RoleTenantAdmin}
	other  = model.Caller{UserID: "admin-2", TenantID: "t2", Role: model.RoleTenantAdmin}
	super  = model.Caller{UserID: "root", Role: model.RoleSuperAdmin}
	staff  = model.Caller{UserID: "staff-1", TenantID: "t1", Role: model.RoleStaff}
	nobody = model.Caller{}
)

// firstPicker always picks index 0 so draws are deterministic.
type firstPicker struct{}

func (firstPicker) Pick(n int) (int, error) { return 0, nil }

func seedEvent(store *repository.MemoryStore, id string, status model.EventStatus, contacts int) {
	ctx := context.Background()
	_ = store.SaveEvent(ctx, model.Event{ID: id, TenantID: "t1", Code: "C-" + id, Name: id, Status: status, MaxDisplaySessions: 1})
	base := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	for i := 0; i < contacts; i++ {
		cid := fmt.Sprintf("%s-c%d", id, i)
		_ = store.SaveContact(ctx, model.Contact{ID: cid, TenantID: "t1", FirstName: "First", LastName: cid})
		_ = store.SaveRegistration(ctx, model.Registration{
			ID: fmt.Sprintf("%s-r%d", id, i), EventID: id, ContactID: cid, CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
}

func TestSelectPreconditions(t *testing.T) {
	Convey("Given events in different states", t, func() {
		store := repository.NewMemoryStore()
		seedEvent(store, "active", model.EventActive, 2)
		seedEvent(store, "closed", model.EventClosed, 2)
		seedEvent(store, "draft", model.EventDraft, 2)
		seedEvent(store, "archived", model.EventArchived, 2)
		sel := winner.NewSelector(store, winner.WithLogger(logger.NewNop()))
		ctx := context.Background()

		kind := func(caller model.Caller, eventID string, mode model.SelectionMode) error {
			_, err := sel.Select(ctx, caller, eventID, mode)
			return apperr.KindOf(err)
		}

		Convey("Then the role should be checked before the input", func() {
			So(kind(nobody, "", model.RandomDraw{}), ShouldEqual, apperr.ErrUnauthorized)
			So(kind(staff, "", model.RandomDraw{}), ShouldEqual, apperr.ErrForbidden)
			So(kind(staff, "active", model.ManualPick{}), ShouldEqual, apperr.ErrForbidden)
		})

		Convey("Then malformed input from an admin should fail validation", func() {
			So(kind(admin, "", model.RandomDraw{}), ShouldEqual, apperr.ErrValidation)
			So(kind(admin, "active", nil), ShouldEqual, apperr.ErrValidation)
			So(kind(admin, "active", model.ManualPick{}), ShouldEqual, apperr.ErrValidation)
		})

		Convey("Then the role should be checked before the event is loaded", func() {
			So(kind(nobody, "missing", model.RandomDraw{}), ShouldEqual, apperr.ErrUnauthorized)
			So(kind(staff, "missing", model.RandomDraw{}), ShouldEqual, apperr.ErrForbidden)
			So(kind(admin, "missing", model.RandomDraw{}), ShouldEqual, apperr.ErrNotFound)
		})

		Convey("Then the event status should be checked before the tenant", func() {
			So(kind(other, "draft", model.RandomDraw{}), ShouldEqual, apperr.ErrInvalidState)
			So(kind(admin, "archived", model.RandomDraw{}), ShouldEqual, apperr.ErrInvalidState)
			So(kind(other, "active", model.RandomDraw{}), ShouldEqual, apperr.ErrForbidden)
		})

		Convey("Then active and closed events should accept selections", func() {
			_, err := sel.Select(ctx, admin, "active", model.RandomDraw{})
			So(err, ShouldBeNil)
			_, err = sel.Select(ctx, super, "closed", model.RandomDraw{})
			So(err, ShouldBeNil)
		})
	})
}

func TestRandomDraw(t *testing.T) {
	Convey("Given an active event with three participants", t, func() {
		store := repository.NewMemoryStore()
		seedEvent(store, "gala", model.EventActive, 3)
		now := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
		ids := 0
		sel := winner.NewSelector(store,
			winner.WithPicker(firstPicker{}),
			winner.WithClock(func() time.Time { return now }),
			winner.WithIDGenerator(func() string { ids++; return fmt.Sprintf("w%d", ids) }),
			winner.WithLogger(logger.NewNop()),
		)
		ctx := context.Background()

		Convey("When every participant is drawn", func() {
			var got []model.WinnerRecord
			for i := 0; i < 3; i++ {
				rec, err := sel.Select(ctx, admin, "gala", model.RandomDraw{})
				So(err, ShouldBeNil)
				got = append(got, rec)
			}

			Convey("Then each contact should win once with increasing numbers", func() {
				seen := map[string]bool{}
				for i, rec := range got {
					So(seen[rec.ContactID], ShouldBeFalse)
					seen[rec.ContactID] = true
					So(rec.Number, ShouldEqual, i+1)
					So(rec.SelectedBy, ShouldEqual, "admin-1")
					So(rec.SelectedAt, ShouldEqual, now)
					So(rec.ID, ShouldEqual, fmt.Sprintf("w%d", i+1))
				}
			})

			Convey("Then another draw should report no eligible participants", func() {
				_, err := sel.Select(ctx, admin, "gala", model.RandomDraw{})
				So(apperr.KindOf(err), ShouldEqual, apperr.ErrConflict)
				So(apperr.Message(err), ShouldEqual, "no eligible participants")
			})

			Convey("Then the audit list should be in selection order", func() {
				list, err := sel.List(ctx, admin, "gala")
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 3)
				for i, rec := range list {
					So(rec.ID, ShouldEqual, got[i].ID)
					So(rec.Number, ShouldEqual, i+1)
				}
			})
		})
	})

	Convey("Given a contact registered twice", t, func() {
		store := repository.NewMemoryStore()
		ctx := context.Background()
		_ = store.SaveEvent(ctx, model.Event{ID: "gala", TenantID: "t1", Code: "GALA", Status: model.EventActive})
		_ = store.SaveContact(ctx, model.Contact{ID: "c1", TenantID: "t1", FirstName: "Ada"})
		_ = store.SaveRegistration(ctx, model.Registration{ID: "r1", EventID: "gala", ContactID: "c1", CreatedAt: time.Now()})
		_ = store.SaveRegistration(ctx, model.Registration{ID: "r2", EventID: "gala", ContactID: "c1", CreatedAt: time.Now()})
		sel := winner.NewSelector(store, winner.WithLogger(logger.NewNop()))

		Convey("Then the contact should only be drawable once", func() {
			_, err := sel.Select(ctx, admin, "gala", model.RandomDraw{})
			So(err, ShouldBeNil)
			_, err = sel.Select(ctx, admin, "gala", model.RandomDraw{})
			So(apperr.KindOf(err), ShouldEqual, apperr.ErrConflict)
		})
	})
}

// racingStore lets another selection win the contact the selector just
// picked, once.
type racingStore struct {
	*repository.MemoryStore
	raced atomic.Bool
}

func (s *racingStore) InsertWinner(ctx context.Context, w model.Winner) (model.WinnerRecord, error) {
	if s.raced.CompareAndSwap(false, true) {
		rival := w
		rival.ID = "rival"
		if _, err := s.MemoryStore.InsertWinner(ctx, rival); err != nil {
			return model.WinnerRecord{}, err
		}
	}
	return s.MemoryStore.InsertWinner(ctx, w)
}

func TestRandomDrawRetriesAfterLosingARace(t *testing.T) {
	Convey("Given a store where a concurrent draw takes the picked contact", t, func() {
		mem := repository.NewMemoryStore()
		seedEvent(mem, "gala", model.EventActive, 2)
		sel := winner.NewSelector(&racingStore{MemoryStore: mem}, winner.WithPicker(firstPicker{}), winner.WithLogger(logger.NewNop()))

		Convey("Then the draw should pick again among the remaining participants", func() {
			rec, err := sel.Select(context.Background(), admin, "gala", model.RandomDraw{})
			So(err, ShouldBeNil)
			So(rec.ContactID, ShouldEqual, "gala-c1")
			So(rec.Number, ShouldEqual, 2)
		})
	})
}

func TestManualPick(t *testing.T) {
	Convey("Given an active event", t, func() {
		store := repository.NewMemoryStore()
		seedEvent(store, "gala", model.EventActive, 2)
		seedEvent(store, "other", model.EventActive, 1)
		sel := winner.NewSelector(store, winner.WithLogger(logger.NewNop()))
		ctx := context.Background()

		Convey("When a registration is picked", func() {
			rec, err := sel.Select(ctx, admin, "gala", model.ManualPick{RegistrationID: "gala-r1"})
			So(err, ShouldBeNil)

			Convey("Then it should be recorded", func() {
				So(rec.RegistrationID, ShouldEqual, "gala-r1")
				So(rec.ContactID, ShouldEqual, "gala-c1")
				So(rec.Number, ShouldEqual, 1)
				So(rec.Contact.LastName, ShouldEqual, "gala-c1")
			})

			Convey("Then picking it again should conflict", func() {
				_, err := sel.Select(ctx, admin, "gala", model.ManualPick{RegistrationID: "gala-r1"})
				So(apperr.KindOf(err), ShouldEqual, apperr.ErrConflict)
				So(apperr.Message(err), ShouldEqual, "contact has already been selected as a winner")
			})

			Convey("Then a random draw should only consider the others", func() {
				rec, err := sel.Select(ctx, admin, "gala", model.RandomDraw{})
				So(err, ShouldBeNil)
				So(rec.ContactID, ShouldEqual, "gala-c0")
			})
		})

		Convey("Then registrations of another event should not be found", func() {
			_, err := sel.Select(ctx, admin, "gala", model.ManualPick{RegistrationID: "other-r0"})
			So(apperr.KindOf(err), ShouldEqual, apperr.ErrNotFound)
			_, err = sel.Select(ctx, admin, "gala", model.ManualPick{RegistrationID: "nope"})
			So(apperr.KindOf(err), ShouldEqual, apperr.ErrNotFound)
		})
	})
}

func TestConcurrentDraws(t *testing.T) {
	const participants, callers = 20, 50

	store := repository.NewMemoryStore()
	seedEvent(store, "gala", model.EventActive, participants)
	sel := winner.NewSelector(store, winner.WithLogger(logger.NewNop()))

	var (
		wg        sync.WaitGroup
		ok        atomic.Int64
		conflicts atomic.Int64
		mu        sync.Mutex
		contacts  = map[string]int{}
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := sel.Select(context.Background(), admin, "gala", model.RandomDraw{})
			switch {
			case err == nil:
				ok.Add(1)
				mu.Lock()
				contacts[rec.ContactID]++
				mu.Unlock()
			case errors.Is(err, apperr.ErrConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := ok.Load(); got != participants {
		t.Fatalf("successful draws = %d, want %d", got, participants)
	}
	if got := conflicts.Load(); got != callers-participants {
		t.Fatalf("conflicts = %d, want %d", got, callers-participants)
	}
	for c, n := range contacts {
		if n != 1 {
			t.Fatalf("contact %s won %d times", c, n)
		}
	}
	winners, _ := store.ListWinners(context.Background(), "gala")
	for i, w := range winners {
		if w.Number != i+1 {
			t.Fatalf("winner %d has number %d", i, w.Number)
		}
	}
}
