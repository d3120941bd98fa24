package pubsub

import (
	"encoding/json"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/venuedraw/internal/domain/model"
)

func envelope(eventID string, ch model.Channel) model.Envelope {
	return model.Envelope{EventID: eventID, Channel: ch, Payload: json.RawMessage(`{"mode":"IDLE"}`)}
}

func TestHub(t *testing.T) {
	Convey("Given a hub with subscribers on two events", t, func() {
		h := NewHub(WithBuffer(1))
		a1 := h.Subscribe("e1", model.ChannelState, "s1")
		a2 := h.Subscribe("e1", model.ChannelState, "s2")
		photos := h.Subscribe("e1", model.ChannelPhotos, "s1")
		other := h.Subscribe("e2", model.ChannelState, "s3")

		Convey("When a state message is published for e1", func() {
			delivered, dropped := h.Publish(envelope("e1", model.ChannelState))

			Convey("Then only e1 state subscribers should receive it", func() {
				So(delivered, ShouldEqual, 2)
				So(dropped, ShouldEqual, 0)
				So(len(a1.C()), ShouldEqual, 1)
				So(len(a2.C()), ShouldEqual, 1)
				So(len(photos.C()), ShouldEqual, 0)
				So(len(other.C()), ShouldEqual, 0)
			})
		})

		Convey("When a subscriber does not drain its queue", func() {
			h.Publish(envelope("e2", model.ChannelState))
			delivered, dropped := h.Publish(envelope("e2", model.ChannelState))

			Convey("Then the publish should not block and the message should be dropped", func() {
				So(delivered, ShouldEqual, 0)
				So(dropped, ShouldEqual, 1)
			})
		})

		Convey("When a session is evicted", func() {
			n := h.Evict("s1")

			Convey("Then all of its streams should be closed", func() {
				So(n, ShouldEqual, 2)
				_, open := <-a1.C()
				So(open, ShouldBeFalse)
				_, open = <-photos.C()
				So(open, ShouldBeFalse)
				So(h.Count("e1", model.ChannelState), ShouldEqual, 1)
				So(h.Total(), ShouldEqual, 2)
			})

			Convey("Then closing the evicted subscription again should be harmless", func() {
				a1.Close()
				So(h.Total(), ShouldEqual, 2)
			})
		})

		Convey("When the hub is closed", func() {
			h.Close()
			So(h.Total(), ShouldEqual, 0)
			_, open := <-other.C()
			So(open, ShouldBeFalse)
		})
	})
}

func TestHubConcurrentPublishAndClose(t *testing.T) {
	h := NewHub(WithBuffer(4))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := h.Subscribe("e1", model.ChannelState, "")
			for j := 0; j < 10; j++ {
				h.Publish(envelope("e1", model.ChannelState))
			}
			s.Close()
		}()
	}
	wg.Wait()
	if got := h.Total(); got != 0 {
		t.Fatalf("Total() = %d after all subscriptions closed, want 0", got)
	}
}
