package summary_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/frahmantamala/fault-tracker/internal/core/clock"
	faultDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/fault"
	machineDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/machine"
	sectionDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/section"
	userDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/fault-tracker/internal/core/events"
	"github.com/frahmantamala/fault-tracker/internal/fault"
	"github.com/frahmantamala/fault-tracker/internal/summary"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type sectionList []*sectionDatamodel.Section

func (l sectionList) GetAll(context.Context) ([]*sectionDatamodel.Section, error) { return l, nil }
func (l sectionList) GetByID(_ context.Context, id int64) (*sectionDatamodel.Section, error) {
	for _, s := range l {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, errors.ErrSectionNotFound
}

type machineList []*machineDatamodel.Machine

func (l machineList) GetAll(context.Context) ([]*machineDatamodel.Machine, error) { return l, nil }
func (l machineList) GetByID(_ context.Context, id int64) (*machineDatamodel.Machine, error) {
	for _, m := range l {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, errors.ErrMachineNotFound
}

type userList []*userDatamodel.User

func (l userList) GetAll(context.Context) ([]*userDatamodel.User, error) { return l, nil }
func (l userList) GetByID(_ context.Context, id int64) (*userDatamodel.User, error) {
	for _, u := range l {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.ErrUserNotFound
}

// racingReader hands out a copy of its rows and, on the first read only,
// changes the stored fault and invalidates the service before returning, as
// a transition committing mid-summary would.
type racingReader struct {
	rows   []*faultDatamodel.Fault
	reads  int
	onRead func()
}

func (r *racingReader) GetAll(context.Context) ([]*faultDatamodel.Fault, error) {
	r.reads++
	out := make([]*faultDatamodel.Fault, len(r.rows))
	for i, row := range r.rows {
		c := *row
		out[i] = &c
	}
	if r.reads == 1 && r.onRead != nil {
		r.onRead()
	}
	return out, nil
}

var _ = Describe("Summary cache", func() {
	var (
		ctx    context.Context
		reader *racingReader
		svc    *summary.Service
		chief  = actor.Actor{UserID: 1, Role: actor.RoleChief}
		window = summary.Window{Year: 2026, Month: time.March}
	)

	BeforeEach(func() {
		ctx = context.Background()
		seven := int64(7)
		reader = &racingReader{rows: []*faultDatamodel.Fault{{
			ID: 1, Description: "ruido anómalo", State: string(fault.StateInProgress),
			SectionID: 1, MachineID: 10, ReportedBy: 2, AssignedTechnicianID: &seven,
			CreatedAt: time.Date(2026, time.March, 10, 9, 0, 0, 0, clock.Zone), Version: 2,
		}}}
		refs := fault.References{
			Sections: sectionList{{ID: 1, Name: "Molienda"}},
			Machines: machineList{{ID: 10, Name: "Molino A", SectionID: 1}},
			Users: userList{
				{ID: 1, Name: "Ana", Surname: "Rojas", Role: "CHIEF"},
				{ID: 7, Name: "Juan", Surname: "Quispe", Role: "TECHNICIAN"},
			},
		}
		svc = summary.NewService(reader, refs, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	It("does not keep a result computed across an invalidation", func() {
		reader.onRead = func() {
			reader.rows[0].State = string(fault.StateResolved)
			Expect(svc.Invalidate(ctx, events.NewFaultTransitionedEvent(1, "IN_PROGRESS", "RESOLVED", 1, "CHIEF"))).To(Succeed())
		}

		stale, err := svc.Summarize(ctx, chief, window)
		Expect(err).NotTo(HaveOccurred())
		Expect(stale.ByState).To(Equal(summary.StateCounts{InProgress: 1}))

		fresh, err := svc.Summarize(ctx, chief, window)
		Expect(err).NotTo(HaveOccurred())
		Expect(fresh.ByState).To(Equal(summary.StateCounts{Resolved: 1}))
		Expect(reader.reads).To(Equal(2))
	})

	It("caches a result when nothing changed while computing", func() {
		_, err := svc.Summarize(ctx, chief, window)
		Expect(err).NotTo(HaveOccurred())
		_, err = svc.Summarize(ctx, chief, window)
		Expect(err).NotTo(HaveOccurred())
		Expect(reader.reads).To(Equal(1))
	})
})
