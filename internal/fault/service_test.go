package fault_test

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"sync"
	"time"

	errors "github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/frahmantamala/fault-tracker/internal/core/clock"
	"github.com/frahmantamala/fault-tracker/internal/core/events"
	"github.com/frahmantamala/fault-tracker/internal/fault"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Fault Service", func() {
	var (
		ctx       context.Context
		repo      *MockRepository
		publisher *RecordingPublisher
		sink      *RecordingSink
		service   *fault.Service
		now       time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = NewMockRepository()
		publisher = &RecordingPublisher{}
		sink = &RecordingSink{}
		now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = fault.NewService(repo, plantDirectory().References(), publisher, logger,
			fault.WithClock(func() time.Time { return now }),
			fault.WithSink(sink))
	})

	report := func() *fault.Fault {
		f, err := service.CreateFault(ctx, supervisor, fault.CreateFaultDTO{
			Description: "ruido anómalo",
			SectionID:   1,
			MachineID:   10,
		})
		Expect(err).NotTo(HaveOccurred())
		return f
	}

	Describe("CreateFault", func() {
		It("creates a pending, unassigned fault stamped in UTC-5", func() {
			f := report()
			Expect(f.ID).To(BeNumerically(">", 0))
			Expect(f.State).To(Equal(fault.StatePending))
			Expect(f.ReportedBy).To(Equal(int64(2)))
			Expect(f.AssignedTechnicianID).To(BeNil())
			Expect(f.UpdatedAt).To(BeNil())
			Expect(f.CreatedAt.Location()).To(Equal(clock.Zone))
			Expect(f.CreatedAt.Hour()).To(Equal(4))
			Expect(publisher.Types()).To(Equal([]string{events.EventTypeFaultCreated}))
		})

		It("refuses technicians", func() {
			_, err := service.CreateFault(ctx, tech7, fault.CreateFaultDTO{Description: "x", SectionID: 1, MachineID: 10})
			Expect(err).To(MatchError(errors.ErrPermissionDenied))
		})

		It("refuses a machine from another section", func() {
			_, err := service.CreateFault(ctx, chief, fault.CreateFaultDTO{Description: "x", SectionID: 1, MachineID: 20})
			Expect(err).To(MatchError(errors.ErrReferential))
			Expect(errors.ErrorKind(err)).To(Equal(errors.ErrCodeReferentialViolation))
		})

		It("refuses unknown sections", func() {
			_, err := service.CreateFault(ctx, chief, fault.CreateFaultDTO{Description: "x", SectionID: 9, MachineID: 10})
			Expect(err).To(MatchError(errors.ErrSectionNotFound))
		})

		It("validates the description", func() {
			_, err := service.CreateFault(ctx, chief, fault.CreateFaultDTO{Description: "   ", SectionID: 1, MachineID: 10})
			Expect(errors.ErrorKind(err)).To(Equal(errors.ErrCodeValidationFailed))
		})

		It("surfaces store failures unchanged", func() {
			storeErr := errors.NewStoreUnavailableError(stderrors.New("connection refused"))
			repo.SetShouldFail(storeErr)
			_, err := service.CreateFault(ctx, chief, fault.CreateFaultDTO{Description: "x", SectionID: 1, MachineID: 10})
			Expect(err).To(BeIdenticalTo(storeErr))
			Expect(err.Error()).To(ContainSubstring("connection refused"))
		})
	})

	Describe("round trip", func() {
		It("lists the new fault for its creator", func() {
			f := report()
			faults, err := service.ListVisibleFaults(ctx, supervisor, fault.ListFilters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(faults).To(HaveLen(1))
			Expect(faults[0].ID).To(Equal(f.ID))
			Expect(faults[0].State).To(Equal(fault.StatePending))
			Expect(faults[0].AssignedTechnicianID).To(BeNil())
		})
	})

	Describe("ListVisibleFaults", func() {
		It("orders newest first and applies filters", func() {
			first := report()
			now = now.Add(time.Hour)
			second, err := service.CreateFault(ctx, chief, fault.CreateFaultDTO{Description: "fuga", SectionID: 2, MachineID: 20})
			Expect(err).NotTo(HaveOccurred())

			all, err := service.ListVisibleFaults(ctx, chief, fault.ListFilters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
			Expect(all[0].ID).To(Equal(second.ID))
			Expect(all[1].ID).To(Equal(first.ID))

			bySection, err := service.ListVisibleFaults(ctx, chief, fault.ListFilters{SectionID: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(bySection).To(HaveLen(1))

			byMonth, err := service.ListVisibleFaults(ctx, chief, fault.ListFilters{Month: 2, Year: 2026})
			Expect(err).NotTo(HaveOccurred())
			Expect(byMonth).To(BeEmpty())
		})

		It("merges the open faults with the technician's own resolved ones", func() {
			f := report()
			_, err := service.TransitionFault(ctx, tech7, f.ID, fault.Patch{State: statePtr(fault.StateInProgress)})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.TransitionFault(ctx, tech7, f.ID, fault.Patch{State: statePtr(fault.StateResolved)})
			Expect(err).NotTo(HaveOccurred())
			report()

			mine, err := service.ListVisibleFaults(ctx, tech7, fault.ListFilters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).To(HaveLen(2))

			theirs, err := service.ListVisibleFaults(ctx, tech8, fault.ListFilters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(theirs).To(HaveLen(1))
		})
	})

	Describe("TransitionFault", func() {
		It("runs the Molienda scenario end to end", func() {
			f := report()
			Expect(f.State).To(Equal(fault.StatePending))

			claimed, err := service.TransitionFault(ctx, tech7, f.ID, fault.Patch{State: statePtr(fault.StateInProgress)})
			Expect(err).NotTo(HaveOccurred())
			Expect(*claimed.AssignedTechnicianID).To(Equal(int64(7)))
			Expect(claimed.Version).To(Equal(int64(2)))

			_, err = service.TransitionFault(ctx, tech8, f.ID, fault.Patch{State: statePtr(fault.StateResolved)})
			Expect(err).To(MatchError(errors.ErrPermissionDenied))

			resolved, err := service.TransitionFault(ctx, chief, f.ID, fault.Patch{State: statePtr(fault.StateResolved)})
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved.State).To(Equal(fault.StateResolved))
			Expect(*resolved.AssignedTechnicianID).To(Equal(int64(7)))
		})

		It("lets exactly one of two racing technicians claim a fault", func() {
			f := report()

			barrier := &sync.WaitGroup{}
			barrier.Add(2)
			repo.readBarrier = barrier

			var wg sync.WaitGroup
			errs := make([]error, 2)
			for i, who := range []actor.Actor{tech7, tech8} {
				wg.Add(1)
				go func(i int, who actor.Actor) {
					defer GinkgoRecover()
					defer wg.Done()
					_, errs[i] = service.TransitionFault(ctx, who, f.ID, fault.Patch{State: statePtr(fault.StateInProgress)})
				}(i, who)
			}
			wg.Wait()
			repo.readBarrier = nil

			successes, conflicts := 0, 0
			for _, err := range errs {
				switch {
				case err == nil:
					successes++
				case stderrors.Is(err, errors.ErrConcurrentModification):
					conflicts++
				}
			}
			Expect(successes).To(Equal(1))
			Expect(conflicts).To(Equal(1))

			stored, err := service.GetFault(ctx, chief, f.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.AssignedTechnicianID).NotTo(BeNil())
			Expect(stored.Version).To(Equal(int64(2)))
		})

		It("never lets a non-creator supervisor transition a fault", func() {
			f := report()
			patches := []fault.Patch{
				{Description: strPtr("otra cosa")},
				{State: statePtr(fault.StateInProgress)},
				{SectionID: idPtr(1), MachineID: idPtr(10)},
				{},
				{Description: strPtr("")},
			}
			for _, p := range patches {
				_, err := service.TransitionFault(ctx, supervisor3, f.ID, p)
				Expect(err).To(MatchError(errors.ErrPermissionDenied))
			}
		})

		It("checks the machine against the section on relocation", func() {
			f := report()
			_, err := service.TransitionFault(ctx, supervisor, f.ID, fault.Patch{SectionID: idPtr(2)})
			Expect(err).To(MatchError(errors.ErrReferential))

			moved, err := service.TransitionFault(ctx, supervisor, f.ID, fault.Patch{SectionID: idPtr(2), MachineID: idPtr(20)})
			Expect(err).NotTo(HaveOccurred())
			Expect(moved.MachineID).To(Equal(int64(20)))
		})

		It("does not touch the store when permission fails", func() {
			f := report()
			before, err := repo.GetByID(ctx, f.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.TransitionFault(ctx, supervisor3, f.ID, fault.Patch{Description: strPtr("x")})
			Expect(err).To(HaveOccurred())

			after, err := repo.GetByID(ctx, f.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(after.Version).To(Equal(before.Version))
			Expect(publisher.Types()).To(ContainElement(events.EventTypeFaultRejected))
		})

		It("bumps updated_at on every accepted mutation", func() {
			f := report()
			first, err := service.TransitionFault(ctx, supervisor, f.ID, fault.Patch{Description: strPtr("ruido anómalo")})
			Expect(err).NotTo(HaveOccurred())
			now = now.Add(time.Minute)
			second, err := service.TransitionFault(ctx, supervisor, f.ID, fault.Patch{Description: strPtr("ruido anómalo")})
			Expect(err).NotTo(HaveOccurred())
			Expect(second.UpdatedAt.After(*first.UpdatedAt)).To(BeTrue())
		})

		It("only assigns users that are technicians", func() {
			f := report()
			_, err := service.TransitionFault(ctx, chief, f.ID, fault.Patch{AssignedTechnicianID: idPtr(3)})
			Expect(err).To(MatchError(errors.ErrReferential))
		})
	})

	Describe("GetFault", func() {
		It("hides faults outside the actor's view", func() {
			f := report()
			_, err := service.GetFault(ctx, supervisor3, f.ID)
			Expect(err).To(MatchError(errors.ErrPermissionDenied))
		})

		It("reports unknown ids", func() {
			_, err := service.GetFault(ctx, chief, 42)
			Expect(err).To(MatchError(errors.ErrFaultNotFound))
		})
	})

	Describe("DeleteFault", func() {
		It("is reserved to chiefs", func() {
			f := report()
			Expect(service.DeleteFault(ctx, supervisor, f.ID)).To(MatchError(errors.ErrPermissionDenied))
			Expect(service.DeleteFault(ctx, chief, f.ID)).To(Succeed())
			Expect(publisher.Types()).To(ContainElement(events.EventTypeFaultDeleted))
		})
	})

	Describe("exports", func() {
		It("renders one fault with resolved names", func() {
			f := report()
			hint, err := service.ExportFault(ctx, supervisor, f.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(hint).To(Equal("averia_1"))
			Expect(sink.views).To(HaveLen(1))
			Expect(sink.views[0].Section).To(Equal("Molienda"))
			Expect(sink.views[0].Machine).To(Equal("Molino A"))
			Expect(sink.views[0].ReportedBy).To(Equal("Luis Paz"))
		})

		It("renders the visible list", func() {
			report()
			report()
			hint, err := service.ExportFaults(ctx, chief, fault.ListFilters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(hint).To(Equal("lista_averias"))
			Expect(sink.views).To(HaveLen(2))
		})

		It("reports sink failures", func() {
			f := report()
			sink.err = stderrors.New("disk full")
			_, err := service.ExportFault(ctx, chief, f.ID)
			Expect(err).To(MatchError(errors.ErrReportFailed))
		})
	})
})
