package fault_test

import (
	"time"

	errors "github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/frahmantamala/fault-tracker/internal/core/clock"
	"github.com/frahmantamala/fault-tracker/internal/fault"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func statePtr(s fault.State) *fault.State { return &s }
func strPtr(s string) *string             { return &s }
func idPtr(id int64) *int64               { return &id }

var (
	chief       = actor.Actor{UserID: 1, Role: actor.RoleChief}
	supervisor  = actor.Actor{UserID: 2, Role: actor.RoleSupervisor}
	supervisor3 = actor.Actor{UserID: 3, Role: actor.RoleSupervisor}
	tech7       = actor.Actor{UserID: 7, Role: actor.RoleTechnician}
	tech8       = actor.Actor{UserID: 8, Role: actor.RoleTechnician}
)

var _ = Describe("Access filter", func() {
	var pending, claimed, resolvedBy7, resolvedBy8 *fault.Fault

	BeforeEach(func() {
		pending = &fault.Fault{ID: 1, State: fault.StatePending, ReportedBy: 2}
		claimed = &fault.Fault{ID: 2, State: fault.StateInProgress, ReportedBy: 3, AssignedTechnicianID: idPtr(7)}
		resolvedBy7 = &fault.Fault{ID: 3, State: fault.StateResolved, ReportedBy: 2, AssignedTechnicianID: idPtr(7)}
		resolvedBy8 = &fault.Fault{ID: 4, State: fault.StateResolved, ReportedBy: 3, AssignedTechnicianID: idPtr(8)}
	})

	ids := func(fs []*fault.Fault) []int64 {
		var out []int64
		for _, f := range fs {
			out = append(out, f.ID)
		}
		return out
	}

	It("shows chiefs everything", func() {
		all := []*fault.Fault{pending, claimed, resolvedBy7, resolvedBy8}
		Expect(ids(fault.Visible(all, chief))).To(Equal([]int64{1, 2, 3, 4}))
	})

	It("shows supervisors only what they reported", func() {
		all := []*fault.Fault{pending, claimed, resolvedBy7, resolvedBy8}
		Expect(ids(fault.Visible(all, supervisor))).To(Equal([]int64{1, 3}))
		Expect(ids(fault.Visible(all, supervisor3))).To(Equal([]int64{2, 4}))
	})

	It("shows technicians open faults plus their own resolved ones", func() {
		all := []*fault.Fault{pending, claimed, resolvedBy7, resolvedBy8}
		Expect(ids(fault.Visible(all, tech7))).To(Equal([]int64{1, 2, 3}))
		Expect(ids(fault.Visible(all, tech8))).To(Equal([]int64{1, 2, 4}))
	})

	DescribeTable("CanEdit",
		func(pick func() *fault.Fault, a actor.Actor, expected bool) {
			Expect(fault.CanEdit(pick(), a)).To(Equal(expected))
		},
		Entry("chief on resolved", func() *fault.Fault { return resolvedBy8 }, chief, true),
		Entry("creator supervisor on pending", func() *fault.Fault { return pending }, supervisor, true),
		Entry("other supervisor on pending", func() *fault.Fault { return pending }, supervisor3, false),
		Entry("creator supervisor once in progress", func() *fault.Fault { return claimed }, supervisor3, false),
		Entry("technician on unclaimed pending", func() *fault.Fault { return pending }, tech8, true),
		Entry("assignee on in progress", func() *fault.Fault { return claimed }, tech7, true),
		Entry("other technician on claimed fault", func() *fault.Fault { return claimed }, tech8, false),
	)
})

var _ = Describe("Workflow engine", func() {
	var (
		now     time.Time
		pending *fault.Fault
	)

	BeforeEach(func() {
		now = time.Date(2026, 3, 14, 9, 30, 0, 0, clock.Zone)
		pending = &fault.Fault{
			ID:          1,
			Description: "ruido anómalo",
			State:       fault.StatePending,
			SectionID:   1,
			MachineID:   10,
			ReportedBy:  2,
			CreatedAt:   now.Add(-time.Hour),
			Version:     1,
		}
	})

	It("rejects an empty patch", func() {
		_, err := fault.Apply(pending, chief, fault.Patch{}, now)
		Expect(err).To(MatchError(errors.ErrEmptyPatch))
	})

	It("never mutates the input fault", func() {
		_, err := fault.Apply(pending, tech7, fault.Patch{State: statePtr(fault.StateInProgress)}, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(pending.State).To(Equal(fault.StatePending))
		Expect(pending.AssignedTechnicianID).To(BeNil())
		Expect(pending.UpdatedAt).To(BeNil())
	})

	Describe("technicians", func() {
		It("claim a pending fault when moving it forward", func() {
			next, err := fault.Apply(pending, tech7, fault.Patch{State: statePtr(fault.StateInProgress)}, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(next.State).To(Equal(fault.StateInProgress))
			Expect(*next.AssignedTechnicianID).To(Equal(int64(7)))
			Expect(*next.UpdatedAt).To(Equal(now))
		})

		It("claim a fault even when only editing the description", func() {
			next, err := fault.Apply(pending, tech8, fault.Patch{Description: strPtr("  rodamiento roto ")}, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(next.Description).To(Equal("rodamiento roto"))
			Expect(next.State).To(Equal(fault.StatePending))
			Expect(*next.AssignedTechnicianID).To(Equal(int64(8)))
		})

		It("cannot skip a state", func() {
			_, err := fault.Apply(pending, tech7, fault.Patch{State: statePtr(fault.StateResolved)}, now)
			Expect(err).To(MatchError(errors.ErrInvalidTransition))
		})

		It("cannot move a fault backward", func() {
			pending.State = fault.StateInProgress
			pending.AssignedTechnicianID = idPtr(7)
			_, err := fault.Apply(pending, tech7, fault.Patch{State: statePtr(fault.StatePending)}, now)
			Expect(err).To(MatchError(errors.ErrInvalidTransition))
		})

		It("cannot act on a fault claimed by someone else", func() {
			pending.State = fault.StateInProgress
			pending.AssignedTechnicianID = idPtr(7)
			_, err := fault.Apply(pending, tech8, fault.Patch{State: statePtr(fault.StateResolved)}, now)
			Expect(err).To(MatchError(errors.ErrPermissionDenied))
		})

		It("get a state error on their own resolved fault", func() {
			pending.State = fault.StateResolved
			pending.AssignedTechnicianID = idPtr(7)
			_, err := fault.Apply(pending, tech7, fault.Patch{Description: strPtr("reabrir")}, now)
			Expect(err).To(MatchError(errors.ErrInvalidTransition))
		})

		It("get a state error on any resolved fault, assigned or not", func() {
			pending.State = fault.StateResolved
			_, err := fault.Apply(pending, tech8, fault.Patch{State: statePtr(fault.StateInProgress)}, now)
			Expect(err).To(MatchError(errors.ErrInvalidTransition))

			pending.AssignedTechnicianID = idPtr(7)
			_, err = fault.Apply(pending, tech8, fault.Patch{}, now)
			Expect(err).To(MatchError(errors.ErrInvalidTransition))
		})

		It("cannot assign someone else", func() {
			_, err := fault.Apply(pending, tech7, fault.Patch{AssignedTechnicianID: idPtr(8)}, now)
			Expect(err).To(MatchError(errors.ErrPermissionDenied))
		})

		It("cannot move the fault to another machine", func() {
			_, err := fault.Apply(pending, tech7, fault.Patch{MachineID: idPtr(20), SectionID: idPtr(2)}, now)
			Expect(err).To(MatchError(errors.ErrPermissionDenied))
		})
	})

	Describe("supervisors", func() {
		It("edit location and description of their pending fault", func() {
			next, err := fault.Apply(pending, supervisor, fault.Patch{
				Description: strPtr("vibración"),
				SectionID:   idPtr(2),
				MachineID:   idPtr(20),
			}, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(next.SectionID).To(Equal(int64(2)))
			Expect(next.MachineID).To(Equal(int64(20)))
			Expect(next.AssignedTechnicianID).To(BeNil())
		})

		It("move their pending fault one step forward without assigning anyone", func() {
			next, err := fault.Apply(pending, supervisor, fault.Patch{State: statePtr(fault.StateInProgress)}, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(next.State).To(Equal(fault.StateInProgress))
			Expect(next.AssignedTechnicianID).To(BeNil())
			Expect(*next.UpdatedAt).To(Equal(now))
		})

		It("cannot skip straight to resolved", func() {
			_, err := fault.Apply(pending, supervisor, fault.Patch{State: statePtr(fault.StateResolved)}, now)
			Expect(err).To(MatchError(errors.ErrInvalidTransition))
		})

		It("lose edit rights once the fault left pending", func() {
			pending.State = fault.StateInProgress
			_, err := fault.Apply(pending, supervisor, fault.Patch{State: statePtr(fault.StateResolved)}, now)
			Expect(err).To(MatchError(errors.ErrPermissionDenied))
		})

		It("cannot assign a technician", func() {
			_, err := fault.Apply(pending, supervisor, fault.Patch{AssignedTechnicianID: idPtr(7)}, now)
			Expect(err).To(MatchError(errors.ErrPermissionDenied))
		})

		It("cannot touch faults they did not create", func() {
			for _, st := range fault.States {
				f := pending.Clone()
				f.State = st
				_, err := fault.Apply(f, supervisor3, fault.Patch{Description: strPtr("x")}, now)
				Expect(err).To(MatchError(errors.ErrPermissionDenied))
			}
		})

		It("are denied on faults they did not create even with a malformed patch", func() {
			for _, p := range []fault.Patch{
				{},
				{Description: strPtr("")},
				{State: statePtr("DONE")},
			} {
				_, err := fault.Apply(pending, supervisor3, p, now)
				Expect(errors.ErrorKind(err)).To(Equal(errors.ErrPermissionDenied.Code))
			}
		})
	})

	Describe("chiefs", func() {
		It("reopen resolved faults and reassign them", func() {
			pending.State = fault.StateResolved
			pending.AssignedTechnicianID = idPtr(7)
			next, err := fault.Apply(pending, chief, fault.Patch{
				State:                statePtr(fault.StatePending),
				AssignedTechnicianID: idPtr(8),
			}, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(next.State).To(Equal(fault.StatePending))
			Expect(*next.AssignedTechnicianID).To(Equal(int64(8)))
		})

		It("unassign a technician", func() {
			pending.AssignedTechnicianID = idPtr(7)
			next, err := fault.Apply(pending, chief, fault.Patch{Unassign: true}, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(next.AssignedTechnicianID).To(BeNil())
		})

		It("resolve directly from pending", func() {
			next, err := fault.Apply(pending, chief, fault.Patch{State: statePtr(fault.StateResolved)}, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(next.State).To(Equal(fault.StateResolved))
		})
	})

	It("validates the patch once permission is granted", func() {
		_, err := fault.Apply(pending, chief, fault.Patch{State: statePtr("DONE")}, now)
		Expect(errors.ErrorKind(err)).To(Equal(errors.ErrCodeValidationFailed))

		_, err = fault.Apply(pending, supervisor, fault.Patch{Description: strPtr("  ")}, now)
		Expect(errors.ErrorKind(err)).To(Equal(errors.ErrCodeValidationFailed))
	})
})
