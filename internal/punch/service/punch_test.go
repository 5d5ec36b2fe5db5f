package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/samtime/samtime-backend/internal/punch/domain"
	rosterdomain "github.com/samtime/samtime-backend/internal/roster/domain"
	"github.com/samtime/samtime-backend/pkg/errors"
	"github.com/samtime/samtime-backend/pkg/logger"
	"github.com/samtime/samtime-backend/pkg/messaging"
	"github.com/samtime/samtime-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePunches struct {
	mu      sync.Mutex
	punches []*domain.Punch
	locks   int
}

func (f *fakePunches) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakePunches) LockEmployee(context.Context, int64, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locks++
	return nil
}

func (f *fakePunches) Last(_ context.Context, companyID int64, employeeID string, from, to time.Time) (*domain.Punch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var last *domain.Punch
	for _, p := range f.punches {
		if p.CompanyID != companyID || p.EmployeeID != employeeID || p.RecordedAt.Before(from) || !p.RecordedAt.Before(to) {
			continue
		}
		if last == nil || !p.RecordedAt.Before(last.RecordedAt) {
			last = p
		}
	}
	return last, nil
}

func (f *fakePunches) Insert(_ context.Context, p *domain.Punch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.punches = append(f.punches, &cp)
	return nil
}

func (f *fakePunches) List(_ context.Context, companyID int64, from, to time.Time, employeeID string) ([]*domain.Punch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Punch{}
	for _, p := range f.punches {
		if p.CompanyID != companyID || p.RecordedAt.Before(from) || !p.RecordedAt.Before(to) {
			continue
		}
		if employeeID != "" && p.EmployeeID != employeeID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

type fakeRoster map[string]*rosterdomain.Employee

func (f fakeRoster) Get(_ context.Context, companyID int64, id string) (*rosterdomain.Employee, error) {
	e, ok := f[id]
	if !ok || e.CompanyID != companyID {
		return nil, errors.NotFoundWithKey("employee")
	}
	return e, nil
}

func (f fakeRoster) List(_ context.Context, companyID int64) ([]*rosterdomain.Employee, error) {
	out := []*rosterdomain.Employee{}
	for _, e := range f {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// windowDebouncer claims keys until released, like a window that never
// expires during a test
type windowDebouncer struct {
	mu      sync.Mutex
	claimed map[string]bool
	err     error
}

func (d *windowDebouncer) Acquire(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if d.claimed[key] {
		return false, nil
	}
	d.claimed[key] = true
	return true, nil
}

func (d *windowDebouncer) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.claimed, key)
	return nil
}

// expire simulates the window running out
func (d *windowDebouncer) expire() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.claimed = map[string]bool{}
}

type fixture struct {
	svc       *PunchService
	punches   *fakePunches
	debouncer *windowDebouncer
	publisher *testutil.MockPublisher
	clock     time.Time
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
	f.debouncer.expire()
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	roster := fakeRoster{
		"EMP-1-001": {ID: "EMP-1-001", CompanyID: 1, Name: "Ana", Department: "Vendas", DigitalSignature: true},
		"EMP-1-002": {ID: "EMP-1-002", CompanyID: 1, Name: "Bruno", Department: "Estoque"},
		"EMP-2-001": {ID: "EMP-2-001", CompanyID: 2, Name: "Carla", Department: "Vendas", DigitalSignature: true},
	}
	f := &fixture{
		punches:   &fakePunches{},
		debouncer: &windowDebouncer{claimed: map[string]bool{}},
		publisher: testutil.NewMockPublisher(),
		clock:     time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC),
	}
	f.svc = NewPunchService(f.punches, roster, f.debouncer, f.publisher, opts, logger.Nop())
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func record(f *fixture, employeeID, kind string) (*domain.Punch, error) {
	return f.svc.Record(context.Background(), RecordInput{
		CompanyID: 1, EmployeeID: employeeID, Kind: kind, Verified: true, DeviceID: "gate-1",
	})
}

func code(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return errors.FromError(err).Code
}

func TestRecord_FullDayWithBreakToggle(t *testing.T) {
	f := newFixture(t, Options{})

	p, err := record(f, "EMP-1-001", "clock_in")
	require.NoError(t, err)
	assert.Equal(t, domain.KindClockIn, p.Kind)
	assert.Equal(t, "gate-1", *p.DeviceID)

	f.advance(4 * time.Hour)
	p, err = record(f, "EMP-1-001", "break")
	require.NoError(t, err)
	assert.Equal(t, domain.KindBreakStart, p.Kind)

	f.advance(time.Hour)
	p, err = record(f, "EMP-1-001", "break")
	require.NoError(t, err)
	assert.Equal(t, domain.KindBreakEnd, p.Kind)

	f.advance(4 * time.Hour)
	p, err = record(f, "EMP-1-001", "clock_out")
	require.NoError(t, err)
	assert.Equal(t, domain.KindClockOut, p.Kind)

	f.advance(time.Minute)
	_, err = record(f, "EMP-1-001", "clock_out")
	assert.Equal(t, "PUNCH_INVALID_TRANSITION", code(t, err))

	assert.Len(t, f.publisher.Events(), 4)
	f.publisher.AssertEventPublished(t, messaging.EventPunchRecorded)
}

func TestRecord_ClockOutWhileClockedOut(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := record(f, "EMP-1-001", "clock_out")
	assert.Equal(t, "PUNCH_INVALID_TRANSITION", code(t, err))
	assert.Equal(t, "clocked_out", errors.FromError(err).Details["status"])

	_, err = record(f, "EMP-1-001", "break")
	assert.Equal(t, "PUNCH_INVALID_TRANSITION", code(t, err))

	f.publisher.AssertNoEventsPublished(t)
}

func TestRecord_RefusedPunchReleasesWindow(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := record(f, "EMP-1-001", "clock_out")
	require.Error(t, err)

	_, err = record(f, "EMP-1-001", "clock_in")
	assert.NoError(t, err)
}

func TestRecord_DuplicateInsideWindow(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := record(f, "EMP-1-001", "clock_in")
	require.NoError(t, err)

	f.clock = f.clock.Add(time.Second)
	_, err = record(f, "EMP-1-001", "break")
	assert.Equal(t, "PUNCH_DUPLICATE", code(t, err))
	assert.True(t, errors.Is(err, errors.ErrConflict))

	_, err = record(f, "EMP-1-002", "clock_in")
	assert.NoError(t, err, "other employees are not affected")
}

func TestRecord_DebounceOutageDoesNotBlock(t *testing.T) {
	f := newFixture(t, Options{})
	f.debouncer.err = fmt.Errorf("redis: connection refused")

	_, err := record(f, "EMP-1-001", "clock_in")
	assert.NoError(t, err)
}

func TestRecord_Validation(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.svc.Record(ctx, RecordInput{CompanyID: 1, Kind: "clock_in", Verified: true})
	assert.Equal(t, "VALIDATION_ERROR", code(t, err))

	_, err = f.svc.Record(ctx, RecordInput{CompanyID: 1, EmployeeID: "EMP-1-001", Kind: "lunch", Verified: true})
	assert.Equal(t, "PUNCH_INVALID_KIND", code(t, err))

	_, err = f.svc.Record(ctx, RecordInput{CompanyID: 1, EmployeeID: "EMP-1-001", Kind: "clock_in"})
	assert.Equal(t, "PUNCH_NOT_VERIFIED", code(t, err))

	_, err = f.svc.Record(ctx, RecordInput{CompanyID: 1, EmployeeID: "EMP-2-001", Kind: "clock_in", Verified: true})
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	assert.Empty(t, f.punches.punches)
}

func TestRecord_RequiresSignature(t *testing.T) {
	f := newFixture(t, Options{RequireSignature: true})

	_, err := record(f, "EMP-1-002", "clock_in")
	assert.Equal(t, "PUNCH_SIGNATURE_REQUIRED", code(t, err))

	_, err = record(f, "EMP-1-001", "clock_in")
	assert.NoError(t, err)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	st, err := f.svc.Status(ctx, 1, "EMP-1-001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClockedOut, st.Status)
	assert.Nil(t, st.LastPunch)

	_, err = record(f, "EMP-1-001", "clock_in")
	require.NoError(t, err)
	f.advance(time.Hour)
	_, err = record(f, "EMP-1-001", "break")
	require.NoError(t, err)

	st, err = f.svc.Status(ctx, 1, "EMP-1-001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOnBreak, st.Status)
	assert.Equal(t, domain.KindBreakStart, st.LastPunch.Kind)

	f.advance(24 * time.Hour)
	st, err = f.svc.Status(ctx, 1, "EMP-1-001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClockedOut, st.Status, "a new day starts clocked out")
}

func TestDailyReport(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	steps := []struct {
		after time.Duration
		kind  string
	}{
		{0, "clock_in"},
		{4 * time.Hour, "break_start"},
		{45 * time.Minute, "break_end"},
		{4 * time.Hour, "clock_out"},
	}
	for _, s := range steps {
		f.advance(s.after)
		_, err := record(f, "EMP-1-001", s.kind)
		require.NoError(t, err)
	}
	f.advance(time.Hour)

	report, err := f.svc.DailyReport(ctx, 1, "2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-09", report.Date)
	require.Len(t, report.Employees, 2)

	ana := report.Employees[0]
	assert.Equal(t, "EMP-1-001", ana.EmployeeID)
	assert.Len(t, ana.Punches, 4)
	assert.Equal(t, 8*60, ana.WorkedMinutes)
	assert.Equal(t, 45, ana.BreakMinutes)
	assert.Equal(t, domain.StatusClockedOut, ana.Status)

	bruno := report.Employees[1]
	assert.Empty(t, bruno.Punches)
	assert.Zero(t, bruno.WorkedMinutes)

	other, err := f.svc.DailyReport(ctx, 1, "2026-03-08")
	require.NoError(t, err)
	assert.Empty(t, other.Employees[0].Punches)

	_, err = f.svc.DailyReport(ctx, 1, "09/03/2026")
	assert.Equal(t, "PUNCH_INVALID_DATE", code(t, err))
}

func TestList(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := record(f, "EMP-1-001", "clock_in")
	require.NoError(t, err)
	_, err = record(f, "EMP-1-002", "clock_in")
	require.NoError(t, err)

	all, err := f.svc.List(context.Background(), 1, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := f.svc.List(context.Background(), 1, "2026-03-09", "EMP-1-002")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "EMP-1-002", one[0].EmployeeID)
}

func TestRedisDebouncer_DisabledWithoutClient(t *testing.T) {
	d := NewRedisDebouncer(nil, 5*time.Second)

	for i := 0; i < 2; i++ {
		ok, err := d.Acquire(context.Background(), debounceKey(1, "EMP-1-001"))
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.NoError(t, d.Release(context.Background(), debounceKey(1, "EMP-1-001")))
}
