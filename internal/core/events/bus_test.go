package events_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/frahmantamala/fault-tracker/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var (
		ctx context.Context
		bus *events.EventBus
	)

	BeforeEach(func() {
		ctx = context.Background()
		bus = events.NewEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	It("runs synchronous handlers before returning and joins their errors", func() {
		var calls int
		bus.Subscribe(events.EventTypeFaultCreated, func(context.Context, events.Event) error {
			calls++
			return nil
		})
		bus.Subscribe(events.EventTypeFaultCreated, func(context.Context, events.Event) error {
			calls++
			return fmt.Errorf("boom")
		})

		err := bus.PublishSync(ctx, events.NewFaultCreatedEvent(1, 1, 10, 2, "SUPERVISOR"))
		Expect(err).To(MatchError(ContainSubstring("boom")))
		Expect(calls).To(Equal(2))
	})

	It("lets Wait drain asynchronous deliveries", func() {
		var delivered atomic.Int32
		bus.Subscribe(events.EventTypeFaultRejected, func(context.Context, events.Event) error {
			time.Sleep(20 * time.Millisecond)
			delivered.Add(1)
			return nil
		})

		for i := 0; i < 3; i++ {
			Expect(bus.Publish(ctx, events.NewFaultRejectedEvent("PERMISSION_DENIED", 8, "TECHNICIAN"))).To(Succeed())
		}
		bus.Wait()
		Expect(delivered.Load()).To(Equal(int32(3)))
	})

	It("keeps delivering after the publishing request is cancelled", func() {
		reqCtx, cancel := context.WithCancel(ctx)
		var sawCancel atomic.Bool
		bus.Subscribe(events.EventTypeFaultRejected, func(hctx context.Context, _ events.Event) error {
			time.Sleep(10 * time.Millisecond)
			sawCancel.Store(hctx.Err() != nil)
			return nil
		})

		Expect(bus.Publish(reqCtx, events.NewFaultRejectedEvent("INVALID_STATE_TRANSITION", 7, "TECHNICIAN"))).To(Succeed())
		cancel()
		bus.Wait()
		Expect(sawCancel.Load()).To(BeFalse())
	})

	It("subscribes one handler to several types", func() {
		var calls atomic.Int32
		bus.SubscribeMany(events.FaultEventTypes, func(context.Context, events.Event) error {
			calls.Add(1)
			return nil
		})
		Expect(bus.PublishSync(ctx, events.NewFaultCreatedEvent(1, 1, 10, 2, "SUPERVISOR"))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewFaultDeletedEvent(1, 1))).To(Succeed())
		Expect(calls.Load()).To(Equal(int32(2)))
	})
})
