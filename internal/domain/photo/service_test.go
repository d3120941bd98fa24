package photo_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/venuedraw/internal/adapters/repository"
	"github.com/okian/venuedraw/internal/domain/apperr"
	"github.com/okian/venuedraw/internal/domain/model"
	"github.com/okian/venuedraw/internal/domain/photo"
	"github.com/okian/venuedraw/pkg/logger"
)

var (
	admin = model.Caller{UserID: "admin-1", TenantID: "t1", Role: model.RoleTenantAdmin}
	other = model.Caller{UserID: "admin-2", TenantID: "t2", Role: model.RoleTenantAdmin}
)

type recorder struct {
	mu      sync.Mutex
	changes []model.PhotoChange
}

func (r *recorder) PublishPhotoChange(_ context.Context, c model.PhotoChange) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
	return 1, nil
}

func (r *recorder) types() []model.PhotoChangeType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.PhotoChangeType, len(r.changes))
	for i, c := range r.changes {
		out[i] = c.Type
	}
	return out
}

func TestPhotoModeration(t *testing.T) {
	convey.Convey("Given a PhotoDrop event", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		_ = store.SaveEvent(ctx, model.Event{
			ID: "drop", TenantID: "t1", Code: "DROP", Type: model.EventTypePhotoDrop, Status: model.EventActive, MaxDisplaySessions: 1,
		})
		notes := &recorder{}
		seq := 0
		now := time.Date(2026, 6, 1, 22, 0, 0, 0, time.UTC)
		svc := photo.NewService(store, notes,
			photo.WithClock(func() time.Time {
				now = now.Add(time.Second)
				return now
			}),
			photo.WithIDGenerator(func() string {
				seq++
				return fmt.Sprintf("p%d", seq)
			}),
			photo.WithLogger(logger.NewNop()),
		)

		convey.Convey("Submissions need an absolute URL and an admin of the tenant", func() {
			for _, u := range []string{"", "not a url", "/relative/path.jpg", "cdn.example.com/x.jpg"} {
				_, err := svc.Submit(ctx, admin, photo.Submission{EventID: "drop", URL: u})
				convey.So(apperr.KindOf(err), convey.ShouldEqual, apperr.ErrValidation)
			}
			_, err := svc.Submit(ctx, admin, photo.Submission{URL: "https://cdn.example.com/a.jpg"})
			convey.So(apperr.KindOf(err), convey.ShouldEqual, apperr.ErrValidation)
			_, err = svc.Submit(ctx, other, photo.Submission{EventID: "drop", URL: "https://cdn.example.com/a.jpg"})
			convey.So(apperr.KindOf(err), convey.ShouldEqual, apperr.ErrForbidden)
			_, err = svc.Submit(ctx, admin, photo.Submission{EventID: "missing", URL: "https://cdn.example.com/a.jpg"})
			convey.So(apperr.KindOf(err), convey.ShouldEqual, apperr.ErrNotFound)
			convey.So(notes.types(), convey.ShouldBeEmpty)
		})

		convey.Convey("Every change is published", func() {
			p1, err := svc.Submit(ctx, admin, photo.Submission{EventID: "drop", URL: " https://cdn.example.com/1.jpg ", ContactID: "c1"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(p1.ID, convey.ShouldEqual, "p1")
			convey.So(p1.URL, convey.ShouldEqual, "https://cdn.example.com/1.jpg")
			convey.So(p1.Approved, convey.ShouldBeFalse)

			p2, err := svc.Submit(ctx, admin, photo.Submission{EventID: "drop", URL: "https://cdn.example.com/2.jpg", Approved: true})
			convey.So(err, convey.ShouldBeNil)

			approved, err := svc.SetApproval(ctx, admin, p1.ID, true)
			convey.So(err, convey.ShouldBeNil)
			convey.So(approved.Approved, convey.ShouldBeTrue)

			list, err := svc.ListApproved(ctx, "drop")
			convey.So(err, convey.ShouldBeNil)
			convey.So(list, convey.ShouldHaveLength, 2)
			convey.So(list[0].ID, convey.ShouldEqual, p1.ID)
			convey.So(list[1].ID, convey.ShouldEqual, p2.ID)

			convey.So(svc.Delete(ctx, admin, p2.ID), convey.ShouldBeNil)
			list, err = svc.ListApproved(ctx, "drop")
			convey.So(err, convey.ShouldBeNil)
			convey.So(list, convey.ShouldHaveLength, 1)

			convey.So(notes.types(), convey.ShouldResemble, []model.PhotoChangeType{
				model.PhotoInserted, model.PhotoInserted, model.PhotoUpdated, model.PhotoDeleted,
			})
			convey.So(notes.changes[3].Photo.ID, convey.ShouldEqual, p2.ID)
		})

		convey.Convey("Moderating a missing or foreign photo fails", func() {
			p, err := svc.Submit(ctx, admin, photo.Submission{EventID: "drop", URL: "https://cdn.example.com/1.jpg"})
			convey.So(err, convey.ShouldBeNil)

			_, err = svc.SetApproval(ctx, admin, "nope", true)
			convey.So(apperr.KindOf(err), convey.ShouldEqual, apperr.ErrNotFound)
			_, err = svc.SetApproval(ctx, admin, "", true)
			convey.So(apperr.KindOf(err), convey.ShouldEqual, apperr.ErrValidation)
			_, err = svc.SetApproval(ctx, other, p.ID, true)
			convey.So(apperr.KindOf(err), convey.ShouldEqual, apperr.ErrForbidden)

			convey.So(svc.Delete(ctx, admin, p.ID), convey.ShouldBeNil)
			convey.So(apperr.KindOf(svc.Delete(ctx, admin, p.ID)), convey.ShouldEqual, apperr.ErrNotFound)
		})

		convey.Convey("A nil notifier is allowed", func() {
			quiet := photo.NewService(store, nil, photo.WithLogger(logger.NewNop()))
			_, err := quiet.Submit(ctx, admin, photo.Submission{EventID: "drop", URL: "https://cdn.example.com/q.jpg"})
			convey.So(err, convey.ShouldBeNil)
		})
	})
}
