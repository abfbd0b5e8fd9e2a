package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/stats"
)

// storeSide tells an in-memory fake which id shape it hands out: the
// document-store fake mints 24-hex ids, the relational fake numeric ones.
type storeSide int

const (
	sideMongo storeSide = iota
	sideMySQL
)

type idMint struct {
	side storeSide
	seq  uint
}

func (m *idMint) next() (hexID string, numID uint) {
	m.seq++
	if m.side == sideMongo {
		return fmt.Sprintf("%024x", m.seq), 0
	}
	return "", m.seq
}

func (m *idMint) matches(hexID string, numID uint, raw string) bool {
	if m.side == sideMongo {
		return hexID != "" && hexID == raw
	}
	return numID != 0 && strconv.FormatUint(uint64(numID), 10) == raw
}

// --- users ---

type fakeUserRepo struct {
	idMint
	mu        sync.Mutex
	users     []*domain.User
	createErr error
}

func newFakeUserRepo(side storeSide) *fakeUserRepo {
	return &fakeUserRepo{idMint: idMint{side: side}}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, existing := range r.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return nil, domain.ErrConflict
		}
	}
	cp := *u
	cp.MongoID, cp.MySQLID = r.next()
	r.users = append(r.users, &cp)
	out := cp
	return &out, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if r.matches(u.MongoID, u.MySQLID, id) {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) List(ctx context.Context, skip, limit int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pageOf(r.users, skip, limit), nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.users {
		if sameIDs(r.side, existing.MongoID, existing.MySQLID, u.MongoID, u.MySQLID) {
			cp := *u
			r.users[i] = &cp
			out := cp
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if r.matches(u.MongoID, u.MySQLID, id) {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func sameIDs(side storeSide, hexA string, numA uint, hexB string, numB uint) bool {
	if side == sideMongo {
		return hexA != "" && hexA == hexB
	}
	return numA != 0 && numA == numB
}

func pageOf[T any](rows []*T, skip, limit int) []T {
	if skip >= len(rows) {
		return nil
	}
	end := skip + limit
	if end > len(rows) {
		end = len(rows)
	}
	out := make([]T, 0, end-skip)
	for _, row := range rows[skip:end] {
		out = append(out, *row)
	}
	return out
}

// --- progress entries ---

type fakeProgressRepo struct {
	idMint
	mu        sync.Mutex
	entries   []*domain.ProgressEntry
	createErr error
}

func newFakeProgressRepo(side storeSide) *fakeProgressRepo {
	return &fakeProgressRepo{idMint: idMint{side: side}}
}

func (r *fakeProgressRepo) Create(ctx context.Context, e *domain.ProgressEntry) (*domain.ProgressEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	cp := *e
	cp.MongoID, cp.MySQLID = r.next()
	r.entries = append(r.entries, &cp)
	out := cp
	return &out, nil
}

func (r *fakeProgressRepo) GetByID(ctx context.Context, owner domain.StoreRef, id string) (*domain.ProgressEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if r.matches(e.MongoID, e.MySQLID, id) {
			out := *e
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeProgressRepo) List(ctx context.Context, owner domain.StoreRef, skip, limit int) ([]domain.ProgressEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pageOf(r.entries, skip, limit), nil
}

func (r *fakeProgressRepo) Count(ctx context.Context, owner domain.StoreRef) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.entries)), nil
}

func (r *fakeProgressRepo) FindByCreatedAt(ctx context.Context, owner domain.StoreRef, createdAt time.Time) ([]domain.ProgressEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ProgressEntry
	for _, e := range r.entries {
		if e.CreatedAt.Equal(createdAt) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeProgressRepo) Update(ctx context.Context, e *domain.ProgressEntry) (*domain.ProgressEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.entries {
		if sameIDs(r.side, existing.MongoID, existing.MySQLID, e.MongoID, e.MySQLID) {
			cp := *e
			r.entries[i] = &cp
			out := cp
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeProgressRepo) Delete(ctx context.Context, owner domain.StoreRef, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if r.matches(e.MongoID, e.MySQLID, id) {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- plans ---

type fakePlanRepo struct {
	idMint
	mu        sync.Mutex
	plans     []*domain.Plan
	createErr error
}

func newFakePlanRepo(side storeSide) *fakePlanRepo {
	return &fakePlanRepo{idMint: idMint{side: side}}
}

func (r *fakePlanRepo) Create(ctx context.Context, p *domain.Plan) (*domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, existing := range r.plans {
		if existing.Kind == p.Kind && existing.Name == p.Name {
			return nil, domain.ErrConflict
		}
	}
	cp := clonePlan(p)
	cp.MongoID, cp.MySQLID = r.next()
	for i := range cp.Days {
		cp.Days[i].MongoID, cp.Days[i].MySQLID = r.next()
		for j := range cp.Days[i].Items {
			cp.Days[i].Items[j].MongoID, cp.Days[i].Items[j].MySQLID = r.next()
		}
	}
	r.plans = append(r.plans, cp)
	return clonePlan(cp), nil
}

func clonePlan(p *domain.Plan) *domain.Plan {
	cp := *p
	cp.Days = make([]domain.Day, len(p.Days))
	for i, d := range p.Days {
		cp.Days[i] = d
		cp.Days[i].Items = append([]domain.Item(nil), d.Items...)
	}
	return &cp
}

func (r *fakePlanRepo) find(kind domain.PlanKind, id string) *domain.Plan {
	for _, p := range r.plans {
		if p.Kind == kind && r.matches(p.MongoID, p.MySQLID, id) {
			return p
		}
	}
	return nil
}

func (r *fakePlanRepo) GetByID(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, id string) (*domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.find(kind, id); p != nil {
		return clonePlan(p), nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakePlanRepo) GetByName(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, name string) (*domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.Kind == kind && p.Name == name {
			return clonePlan(p), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakePlanRepo) List(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, skip, limit int) ([]domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matching []*domain.Plan
	for _, p := range r.plans {
		if p.Kind == kind {
			matching = append(matching, p)
		}
	}
	return pageOf(matching, skip, limit), nil
}

func (r *fakePlanRepo) Count(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.plans {
		if p.Kind == kind {
			n++
		}
	}
	return n, nil
}

func (r *fakePlanRepo) FindByCreatedAt(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, createdAt time.Time) ([]domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Plan
	for _, p := range r.plans {
		if p.Kind == kind && p.CreatedAt.Equal(createdAt) {
			out = append(out, *clonePlan(p))
		}
	}
	return out, nil
}

func (r *fakePlanRepo) Update(ctx context.Context, p *domain.Plan) (*domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.plans {
		if existing.Kind == p.Kind && sameIDs(r.side, existing.MongoID, existing.MySQLID, p.MongoID, p.MySQLID) {
			r.plans[i] = clonePlan(p)
			return clonePlan(p), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakePlanRepo) Delete(ctx context.Context, owner domain.StoreRef, kind domain.PlanKind, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.plans {
		if p.Kind == kind && r.matches(p.MongoID, p.MySQLID, id) {
			r.plans = append(r.plans[:i], r.plans[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakePlanRepo) AddDay(ctx context.Context, p *domain.Plan, day *domain.Day) (*domain.Day, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.findStored(p)
	if stored == nil {
		return nil, domain.ErrNotFound
	}
	cp := *day
	cp.MongoID, cp.MySQLID = r.next()
	stored.Days = append(stored.Days, cp)
	out := cp
	return &out, nil
}

func (r *fakePlanRepo) findStored(p *domain.Plan) *domain.Plan {
	for _, existing := range r.plans {
		if existing.Kind == p.Kind && sameIDs(r.side, existing.MongoID, existing.MySQLID, p.MongoID, p.MySQLID) {
			return existing
		}
	}
	return nil
}

func (r *fakePlanRepo) RemoveDay(ctx context.Context, p *domain.Plan, dayID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.findStored(p)
	if stored == nil {
		return domain.ErrNotFound
	}
	for i, d := range stored.Days {
		if r.matches(d.MongoID, d.MySQLID, dayID) {
			stored.Days = append(stored.Days[:i], stored.Days[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakePlanRepo) AddItem(ctx context.Context, p *domain.Plan, dayID string, item *domain.Item) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.findStored(p)
	if stored == nil {
		return nil, domain.ErrNotFound
	}
	for i := range stored.Days {
		d := &stored.Days[i]
		if r.matches(d.MongoID, d.MySQLID, dayID) {
			cp := *item
			cp.MongoID, cp.MySQLID = r.next()
			d.Items = append(d.Items, cp)
			out := cp
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakePlanRepo) RemoveItem(ctx context.Context, p *domain.Plan, dayID, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.findStored(p)
	if stored == nil {
		return domain.ErrNotFound
	}
	for i := range stored.Days {
		d := &stored.Days[i]
		if !r.matches(d.MongoID, d.MySQLID, dayID) {
			continue
		}
		for j, it := range d.Items {
			if r.matches(it.MongoID, it.MySQLID, itemID) {
				d.Items = append(d.Items[:j], d.Items[j+1:]...)
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

// --- analyses ---

type fakeAnalysisRepo struct {
	idMint
	mu       sync.Mutex
	analyses []*domain.Analysis
}

func newFakeAnalysisRepo(side storeSide) *fakeAnalysisRepo {
	return &fakeAnalysisRepo{idMint: idMint{side: side}}
}

func (r *fakeAnalysisRepo) Create(ctx context.Context, a *domain.Analysis) (*domain.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.analyses {
		if existing.Kind == a.Kind && existing.Title == a.Title {
			return nil, domain.ErrConflict
		}
	}
	cp := *a
	cp.MongoID, cp.MySQLID = r.next()
	r.analyses = append(r.analyses, &cp)
	out := cp
	return &out, nil
}

func (r *fakeAnalysisRepo) GetByID(ctx context.Context, owner domain.StoreRef, id string) (*domain.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.analyses {
		if r.matches(a.MongoID, a.MySQLID, id) {
			out := *a
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeAnalysisRepo) GetByTitle(ctx context.Context, owner domain.StoreRef, kind domain.AnalysisKind, title string) (*domain.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.analyses {
		if a.Kind == kind && a.Title == title {
			out := *a
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeAnalysisRepo) List(ctx context.Context, owner domain.StoreRef, skip, limit int) ([]domain.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pageOf(r.analyses, skip, limit), nil
}

func (r *fakeAnalysisRepo) Count(ctx context.Context, owner domain.StoreRef) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.analyses)), nil
}

func (r *fakeAnalysisRepo) FindByCreatedAt(ctx context.Context, owner domain.StoreRef, createdAt time.Time) ([]domain.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Analysis
	for _, a := range r.analyses {
		if a.CreatedAt.Equal(createdAt) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAnalysisRepo) Update(ctx context.Context, a *domain.Analysis) (*domain.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.analyses {
		if sameIDs(r.side, existing.MongoID, existing.MySQLID, a.MongoID, a.MySQLID) {
			cp := *a
			r.analyses[i] = &cp
			out := cp
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeAnalysisRepo) Delete(ctx context.Context, owner domain.StoreRef, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.analyses {
		if r.matches(a.MongoID, a.MySQLID, id) {
			r.analyses = append(r.analyses[:i], r.analyses[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- indicator providers ---

type fakeProvider struct {
	series map[string]stats.Series
	err    error
}

func (f *fakeProvider) Series(ctx context.Context, indicator, country string, yearFrom, yearTo int) (stats.Series, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.series[indicator], nil
}

// --- archive storage ---

type fakeArchiveStorage struct {
	mu         sync.Mutex
	objects    map[string][]byte
	putErr     error
	presignErr error
}

func newFakeArchiveStorage() *fakeArchiveStorage {
	return &fakeArchiveStorage{objects: map[string][]byte{}}
}

func (s *fakeArchiveStorage) PutArchive(ctx context.Context, key, contentType string, body io.Reader) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *fakeArchiveStorage) DownloadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return "https://archives.test/" + key, nil
}

func (s *fakeArchiveStorage) DeleteArchive(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}
