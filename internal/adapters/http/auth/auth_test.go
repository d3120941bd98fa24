package auth

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/venuedraw/internal/domain/model"
)

func TestVerifier(t *testing.T) {
	Convey("Given a verifier with a fixed clock", t, func() {
		now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
		v, err := NewVerifier("s3cret")
		So(err, ShouldBeNil)
		v = v.WithClock(func() time.Time { return now })
		admin := model.Caller{UserID: "u1", TenantID: "t1", Role: model.RoleTenantAdmin}

		Convey("When a token is issued and verified", func() {
			token, err := v.Issue(admin, time.Hour)
			So(err, ShouldBeNil)
			got, err := v.Verify(token)

			Convey("Then the caller should round-trip", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, admin)
			})
		})

		Convey("When the token has expired", func() {
			token, _ := v.Issue(admin, time.Minute)
			later := v.WithClock(func() time.Time { return now.Add(2 * time.Minute) })
			_, err := later.Verify(token)
			So(err, ShouldEqual, ErrExpired)
		})

		Convey("When the token was signed with another secret", func() {
			other, _ := NewVerifier("other")
			token, _ := other.WithClock(func() time.Time { return now }).Issue(admin, time.Hour)
			_, err := v.Verify(token)
			So(err, ShouldEqual, ErrBadSignature)
		})

		Convey("When the claims are tampered with", func() {
			token, _ := v.Issue(admin, time.Hour)
			forged, _ := v.Issue(model.Caller{UserID: "u1", Role: model.RoleSuperAdmin}, time.Hour)
			mixed := strings.SplitN(forged, ".", 2)[0] + "." + strings.SplitN(token, ".", 2)[1]
			_, err := v.Verify(mixed)
			So(err, ShouldEqual, ErrBadSignature)
		})

		Convey("When the token is garbage", func() {
			for _, tok := range []string{"abc", "abc.", ".abc", "a.b!c"} {
				_, err := v.Verify(tok)
				So(err, ShouldNotBeNil)
			}
			_, err := v.Verify("")
			So(err, ShouldEqual, ErrMissingToken)
		})

		Convey("When reading from a request", func() {
			token, _ := v.Issue(admin, time.Hour)
			r := httptest.NewRequest("GET", "/", nil)
			_, err := v.FromRequest(r)
			So(err, ShouldEqual, ErrMissingToken)

			r.Header.Set("Authorization", "Bearer "+token)
			got, err := v.FromRequest(r)
			So(err, ShouldBeNil)
			So(got.UserID, ShouldEqual, "u1")
		})
	})
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	if _, err := NewVerifier(""); err != ErrNoSecret {
		t.Fatalf("NewVerifier(\"\") error = %v, want ErrNoSecret", err)
	}
}

func TestCallerContext(t *testing.T) {
	if _, ok := CallerFrom(context.Background()); ok {
		t.Fatal("empty context should carry no caller")
	}
	c := model.Caller{UserID: "u1", Role: model.RoleStaff}
	got, ok := CallerFrom(WithCaller(context.Background(), c))
	if !ok || got != c {
		t.Fatalf("CallerFrom = %+v, %v; want %+v, true", got, ok, c)
	}
}
