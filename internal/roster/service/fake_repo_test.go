package service

import (
	"context"
	"regexp"
	"sort"
	"sync"

	"github.com/samtime/samtime-backend/internal/roster/domain"
	"github.com/samtime/samtime-backend/pkg/errors"
)

// fakeRepo keeps employees in memory. Transactions are serialized, which
// stands in for the per-company advisory lock, and roll back on error.
type fakeRepo struct {
	txMu sync.Mutex
	mu   sync.Mutex
	rows map[string]*domain.Employee

	// forcedConflicts makes the next n inserts report a taken id
	forcedConflicts int
	locks           []int64
}

func newFakeRepo(rows ...*domain.Employee) *fakeRepo {
	r := &fakeRepo{rows: map[string]*domain.Employee{}}
	for _, e := range rows {
		r.rows[e.ID] = e
	}
	return r
}

func (r *fakeRepo) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	snapshot := make(map[string]*domain.Employee, len(r.rows))
	for k, v := range r.rows {
		cp := *v
		snapshot[k] = &cp
	}
	r.mu.Unlock()

	if err := fn(ctx); err != nil {
		r.mu.Lock()
		r.rows = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *fakeRepo) LastID(_ context.Context, companyID int64) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best *domain.Employee
	for _, e := range r.rows {
		if e.CompanyID != companyID {
			continue
		}
		if best == nil || ranksAbove(e, best) {
			best = e
		}
	}
	if best == nil {
		return "", false, nil
	}
	return best.ID, true, nil
}

// ranksAbove mirrors ORDER BY seq DESC NULLS LAST, id DESC
func ranksAbove(a, b *domain.Employee) bool {
	switch {
	case a.Seq != nil && b.Seq == nil:
		return true
	case a.Seq == nil && b.Seq != nil:
		return false
	case a.Seq != nil && b.Seq != nil && *a.Seq != *b.Seq:
		return *a.Seq > *b.Seq
	default:
		return a.ID > b.ID
	}
}

func (r *fakeRepo) List(_ context.Context, companyID int64) ([]*domain.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*domain.Employee{}
	for _, e := range r.rows {
		if e.CompanyID == companyID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) Get(_ context.Context, companyID int64, id string) (*domain.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rows[id]
	if !ok || e.CompanyID != companyID {
		return nil, errors.NotFoundWithKey("employee")
	}
	cp := *e
	return &cp, nil
}

func (r *fakeRepo) Insert(_ context.Context, emp *domain.Employee) (domain.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.forcedConflicts > 0 {
		r.forcedConflicts--
		return domain.OutcomeConflict, nil
	}
	if _, taken := r.rows[emp.ID]; taken {
		return domain.OutcomeConflict, nil
	}
	cp := *emp
	r.rows[emp.ID] = &cp
	return domain.OutcomeUpdated, nil
}

func (r *fakeRepo) UpdateSignature(_ context.Context, companyID int64, id string, value bool) (domain.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rows[id]
	if !ok || e.CompanyID != companyID {
		return domain.OutcomeNotFound, nil
	}
	e.DigitalSignature = value
	return domain.OutcomeUpdated, nil
}

func (r *fakeRepo) Delete(_ context.Context, companyID int64, id string) (domain.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rows[id]
	if !ok || e.CompanyID != companyID {
		return domain.OutcomeNotFound, nil
	}
	delete(r.rows, id)
	return domain.OutcomeUpdated, nil
}

func (r *fakeRepo) LockCompanySequence(_ context.Context, companyID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks = append(r.locks, companyID)
	return nil
}

// legacyID mirrors the ListLegacy query filter
var legacyID = regexp.MustCompile(`^EMP[0-9]+$`)

func (r *fakeRepo) ListLegacy(_ context.Context) ([]*domain.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*domain.Employee{}
	for _, e := range r.rows {
		if legacyID.MatchString(e.ID) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompanyID != out[j].CompanyID {
			return out[i].CompanyID < out[j].CompanyID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeRepo) RenameID(_ context.Context, oldID, newID string, seq int) (domain.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.rows[newID]; taken {
		return domain.OutcomeConflict, nil
	}
	e, ok := r.rows[oldID]
	if !ok {
		return domain.OutcomeNotFound, nil
	}
	delete(r.rows, oldID)
	e.ID = newID
	e.Seq = &seq
	r.rows[newID] = e
	return domain.OutcomeUpdated, nil
}

func scoped(companyID int64, seq int, name string) *domain.Employee {
	s := seq
	return &domain.Employee{
		ID:         domain.FormatID(companyID, seq),
		CompanyID:  companyID,
		Seq:        &s,
		Name:       name,
		Position:   "Atendente",
		Department: "Vendas",
	}
}

func legacy(companyID int64, id, name string) *domain.Employee {
	return &domain.Employee{
		ID:         id,
		CompanyID:  companyID,
		Name:       name,
		Position:   "Atendente",
		Department: "Vendas",
	}
}
