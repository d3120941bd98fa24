package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/venuedraw/internal/domain/apperr"
	. "github.com/smartystreets/goconvey/convey"
)

func TestErrorKinds(t *testing.T) {
	Convey("Given errors built with the kind helpers", t, func() {
		cause := errors.New("connection reset")

		Convey("When a kind is wrapped", func() {
			err := apperr.WrapKind("winner.select", apperr.ErrConflict, cause)

			Convey("Then both the kind and the cause should match", func() {
				So(errors.Is(err, apperr.ErrConflict), ShouldBeTrue)
				So(errors.Is(err, cause), ShouldBeTrue)
				So(errors.Is(err, apperr.ErrNotFound), ShouldBeFalse)
				So(apperr.KindOf(err), ShouldEqual, apperr.ErrConflict)
			})
		})

		Convey("When a message is attached", func() {
			err := apperr.Newf("winner.select", apperr.ErrConflict, "no eligible participants")

			Convey("Then the message should be caller facing", func() {
				So(apperr.Message(err), ShouldEqual, "no eligible participants")
				So(err.Error(), ShouldEqual, "winner.select: no eligible participants")
			})
		})

		Convey("When an internal failure is wrapped", func() {
			err := apperr.Internal("store.insert", cause)

			Convey("Then the cause should stay out of the caller message", func() {
				So(apperr.KindOf(err), ShouldEqual, apperr.ErrInternal)
				So(apperr.Message(err), ShouldEqual, "internal error")
				So(err.Error(), ShouldContainSubstring, "connection reset")
			})
		})

		Convey("When an already classified error is passed to Internal", func() {
			inner := apperr.NewKind("display.authorize", apperr.ErrNotFound)
			err := apperr.Internal("app.authorize", inner)

			Convey("Then its kind should be preserved", func() {
				So(apperr.KindOf(err), ShouldEqual, apperr.ErrNotFound)
			})
		})

		Convey("When an unclassified error is inspected", func() {
			err := fmt.Errorf("plain: %w", cause)

			Convey("Then it should be treated as internal", func() {
				So(apperr.KindOf(err), ShouldEqual, apperr.ErrInternal)
				So(apperr.Message(err), ShouldEqual, "internal error")
			})
		})

		Convey("When nil is wrapped", func() {
			Convey("Then nil should come back", func() {
				So(apperr.WrapKind("op", apperr.ErrInternal, nil), ShouldBeNil)
				So(apperr.Internal("op", nil), ShouldBeNil)
				So(apperr.KindOf(nil), ShouldBeNil)
			})
		})
	})
}
