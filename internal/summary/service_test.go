package summary_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
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
	faultPostgres "github.com/frahmantamala/fault-tracker/internal/fault/postgres"
	machinePostgres "github.com/frahmantamala/fault-tracker/internal/machine/postgres"
	sectionPostgres "github.com/frahmantamala/fault-tracker/internal/section/postgres"
	"github.com/frahmantamala/fault-tracker/internal/summary"
	userPostgres "github.com/frahmantamala/fault-tracker/internal/user/postgres"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type countingObserver struct{ calls int }

func (o *countingObserver) ObserveSummary(time.Duration) { o.calls++ }

type capturingSink struct {
	hint string
	got  summary.Summary
}

func (s *capturingSink) WriteSummary(_ context.Context, sum summary.Summary, hint string) error {
	s.got, s.hint = sum, hint
	return nil
}

var _ = Describe("Summary Service", func() {
	var (
		ctx        context.Context
		db         *gorm.DB
		bus        *events.EventBus
		faults     *fault.Service
		summaries  *summary.Service
		observer   *countingObserver
		sink       *capturingSink
		now        = func() time.Time { return time.Date(2026, time.March, 10, 10, 0, 0, 0, clock.Zone) }
		chief      = actor.Actor{UserID: 1, Role: actor.RoleChief}
		supervisor = actor.Actor{UserID: 2, Role: actor.RoleSupervisor}
		tech7      = actor.Actor{UserID: 7, Role: actor.RoleTechnician}
		tech8      = actor.Actor{UserID: 8, Role: actor.RoleTechnician}
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(
			&sectionDatamodel.Section{}, &machineDatamodel.Machine{},
			&userDatamodel.User{}, &faultDatamodel.Fault{},
		)).To(Succeed())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		Expect(db.Create(&sectionDatamodel.Section{ID: 1, Name: "Molienda"}).Error).To(Succeed())
		Expect(db.Create(&sectionDatamodel.Section{ID: 2, Name: "Envasado"}).Error).To(Succeed())
		Expect(db.Create(&machineDatamodel.Machine{ID: 10, Name: "Molino A", SectionID: 1}).Error).To(Succeed())
		for _, u := range []userDatamodel.User{
			{ID: 1, Name: "Ana", Surname: "Rojas", EmployeeCode: "IBJ00001", Username: "arojas", Role: "CHIEF"},
			{ID: 2, Name: "Luis", Surname: "Paz", EmployeeCode: "IBE00002", Username: "lpaz", Role: "SUPERVISOR"},
			{ID: 7, Name: "Juan", Surname: "Quispe", EmployeeCode: "IBT00007", Username: "jquispe", Role: "TECHNICIAN"},
			{ID: 8, Name: "Pedro", Surname: "Huaman", EmployeeCode: "IBT00008", Username: "phuaman", Role: "TECHNICIAN"},
		} {
			u := u
			u.PasswordHash = "x"
			Expect(db.Create(&u).Error).To(Succeed())
		}

		refs := fault.References{
			Sections: sectionPostgres.NewSectionRepository(db),
			Machines: machinePostgres.NewMachineRepository(db),
			Users:    userPostgres.NewUserRepository(sqlx.NewDb(sqlDB, "sqlite3")),
		}
		repo := faultPostgres.NewFaultRepository(db)

		bus = events.NewEventBus(quiet)
		observer = &countingObserver{}
		sink = &capturingSink{}
		faults = fault.NewService(repo, refs, bus, quiet, fault.WithClock(now))
		summaries = summary.NewService(repo, refs, time.Minute, quiet,
			summary.WithClock(now), summary.WithObserver(observer), summary.WithSink(sink))
		bus.SubscribeMany(events.FaultEventTypes, summaries.Invalidate)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	state := func(s fault.State) *fault.State { return &s }
	section := func(s summary.Summary, id int64) summary.Bucket {
		b, ok := s.Section(id)
		Expect(ok).To(BeTrue())
		return b
	}

	It("follows a fault from report to resolution", func() {
		created, err := faults.CreateFault(ctx, supervisor, fault.CreateFaultDTO{
			Description: "Vibración anormal", SectionID: 1, MachineID: 10,
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = faults.TransitionFault(ctx, tech7, created.ID, fault.Patch{State: state(fault.StateInProgress)})
		Expect(err).NotTo(HaveOccurred())

		inProgress, err := summaries.SummarizeSpec(ctx, chief, "marzo", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(section(inProgress, 1).States).To(Equal(summary.StateCounts{InProgress: 1}))

		_, err = faults.TransitionFault(ctx, tech8, created.ID, fault.Patch{State: state(fault.StateResolved)})
		Expect(err).To(MatchError(errors.ErrPermissionDenied))

		_, err = faults.TransitionFault(ctx, chief, created.ID, fault.Patch{State: state(fault.StateResolved)})
		Expect(err).NotTo(HaveOccurred())

		resolved, err := summaries.SummarizeSpec(ctx, chief, "2", "2026")
		Expect(err).NotTo(HaveOccurred())
		Expect(section(resolved, 1).States).To(Equal(summary.StateCounts{Resolved: 1}))
		Expect(section(resolved, 1).Name).To(Equal("Molienda"))
		Expect(resolved.ByTechnician).To(ContainElement(HaveField("Name", "Juan Quispe")))
		Expect(observer.calls).To(Equal(2))
	})

	It("serves repeated requests from the cache until a fault changes", func() {
		_, err := summaries.SummarizeSpec(ctx, chief, "march", "")
		Expect(err).NotTo(HaveOccurred())
		_, err = summaries.SummarizeSpec(ctx, chief, "mar", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(observer.calls).To(Equal(1))

		_, err = faults.CreateFault(ctx, supervisor, fault.CreateFaultDTO{Description: "Fuga", SectionID: 1, MachineID: 10})
		Expect(err).NotTo(HaveOccurred())

		again, err := summaries.SummarizeSpec(ctx, chief, "march", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Total).To(Equal(1))
		Expect(observer.calls).To(Equal(2))
	})

	It("only counts what the caller can see", func() {
		_, err := faults.CreateFault(ctx, supervisor, fault.CreateFaultDTO{Description: "Fuga", SectionID: 1, MachineID: 10})
		Expect(err).NotTo(HaveOccurred())

		other, err := summaries.Summarize(ctx, actor.Actor{UserID: 3, Role: actor.RoleSupervisor}, summary.Window{Year: 2026, Month: time.March})
		Expect(err).NotTo(HaveOccurred())
		Expect(other.Total).To(Equal(0))
	})

	It("exports through the sink with the Spanish month name", func() {
		hint, err := summaries.ExportSummary(ctx, chief, summary.Window{Year: 2026, Month: time.March})
		Expect(err).NotTo(HaveOccurred())
		Expect(hint).To(Equal("Dashboard_Marzo"))
		Expect(sink.hint).To(Equal(hint))
	})

	Describe("Handler", func() {
		serve := func(target string) *httptest.ResponseRecorder {
			h := summary.NewHandler(summaries)
			req := httptest.NewRequest(http.MethodGet, target, nil)
			req = req.WithContext(errors.ContextWithActor(req.Context(), chief))
			w := httptest.NewRecorder()
			h.GetSummary(w, req)
			return w
		}

		It("returns the summary as JSON", func() {
			w := serve("/summary?month=marzo&year=2026")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"by_section"`))
		})

		It("rejects an unknown month", func() {
			w := serve("/summary?month=13")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring(string(errors.ErrCodeInvalidWindow)))
		})
	})
})
