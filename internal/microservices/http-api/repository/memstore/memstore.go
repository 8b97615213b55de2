// Package memstore is an in-memory repository.Store for tests. It keeps the same
// live/deleted partition and all-or-nothing transactions as the gorm store; a
// transaction holds the store lock for its whole run, which stands in for row locks.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"libhub/internal/microservices/http-api/models"
	"libhub/internal/microservices/http-api/repository"
	"libhub/internal/shared"
)

// Operation names accepted by FailOn.
const (
	OpMarkAuthors = "authors.mark"
	OpMarkSeries  = "series.mark"
	OpMarkBooks   = "books.mark"
	OpCreate      = "create"
)

type state struct {
	authors map[int64]models.Author
	series  map[int64]models.Series
	books   map[int64]models.Book
	nextID  int64
	fail    map[string]error
}

func (s *state) clone() *state {
	c := &state{
		authors: make(map[int64]models.Author, len(s.authors)),
		series:  make(map[int64]models.Series, len(s.series)),
		books:   make(map[int64]models.Book, len(s.books)),
		nextID:  s.nextID,
		fail:    s.fail,
	}
	for k, v := range s.authors {
		c.authors[k] = v
	}
	for k, v := range s.series {
		c.series[k] = v
	}
	for k, v := range s.books {
		c.books[k] = v
	}
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store implements repository.Store over maps.
type Store struct {
	mu   *sync.Mutex
	st   **state
	inTx bool
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	st := &state{
		authors: map[int64]models.Author{},
		series:  map[int64]models.Series{},
		books:   map[int64]models.Book{},
		fail:    map[string]error{},
	}
	return &Store{mu: &sync.Mutex{}, st: &st}
}

// FailOn makes the named operation return err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.lock()
	defer s.unlock()
	if err == nil {
		delete((*s.st).fail, op)
		return
	}
	(*s.st).fail[op] = err
}

func (s *Store) lock() {
	if !s.inTx {
		s.mu.Lock()
	}
}

func (s *Store) unlock() {
	if !s.inTx {
		s.mu.Unlock()
	}
}

func (s *Store) Authors() repository.AuthorRepository { return authors{s} }
func (s *Store) Series() repository.SeriesRepository  { return series{s} }
func (s *Store) Books() repository.BookRepository     { return books{s} }

func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := (*s.st).clone()
	if err := fn(&Store{mu: s.mu, st: s.st, inTx: true}); err != nil {
		*s.st = snapshot
		return err
	}
	// a context that ends before commit rolls back, as the database would
	if err := ctx.Err(); err != nil {
		*s.st = snapshot
		return err
	}
	return nil
}

// Seed helpers insert rows directly, bypassing validation. They return the stored id.

func (s *Store) SeedAuthor(a models.Author) int64 {
	s.lock()
	defer s.unlock()
	st := *s.st
	if a.ID == 0 {
		a.ID = st.id()
	} else if a.ID > st.nextID {
		st.nextID = a.ID
	}
	st.authors[a.ID] = a
	return a.ID
}

func (s *Store) SeedSeries(v models.Series) int64 {
	s.lock()
	defer s.unlock()
	st := *s.st
	if v.ID == 0 {
		v.ID = st.id()
	} else if v.ID > st.nextID {
		st.nextID = v.ID
	}
	st.series[v.ID] = v
	return v.ID
}

func (s *Store) SeedBook(b models.Book) int64 {
	s.lock()
	defer s.unlock()
	st := *s.st
	if b.ID == 0 {
		b.ID = st.id()
	} else if b.ID > st.nextID {
		st.nextID = b.ID
	}
	st.books[b.ID] = b
	return b.ID
}

// Author, SeriesRow and Book return the stored row regardless of view.
func (s *Store) Author(id int64) (models.Author, bool) {
	s.lock()
	defer s.unlock()
	a, ok := (*s.st).authors[id]
	return a, ok
}

func (s *Store) SeriesRow(id int64) (models.Series, bool) {
	s.lock()
	defer s.unlock()
	v, ok := (*s.st).series[id]
	return v, ok
}

func (s *Store) Book(id int64) (models.Book, bool) {
	s.lock()
	defer s.unlock()
	b, ok := (*s.st).books[id]
	return b, ok
}

// Counts returns the number of rows per table, live and deleted together.
func (s *Store) Counts() (authors, series, books int) {
	s.lock()
	defer s.unlock()
	st := *s.st
	return len(st.authors), len(st.series), len(st.books)
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%w: %s %d", shared.ErrNotFound, kind, id)
}

func sorted[T any](m map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type authors struct{ s *Store }

func (r authors) Create(_ context.Context, a *models.Author) error {
	if err := a.Validate(); err != nil {
		return err
	}
	r.s.lock()
	defer r.s.unlock()
	st := *r.s.st
	if err := st.fail[OpCreate]; err != nil {
		return err
	}
	a.ID, a.IsDeleted = st.id(), false
	a.CreatedAt, a.UpdatedAt = time.Now(), time.Now()
	st.authors[a.ID] = *a
	return nil
}

func (r authors) Update(_ context.Context, a *models.Author) error {
	if err := a.Validate(); err != nil {
		return err
	}
	r.s.lock()
	defer r.s.unlock()
	st := *r.s.st
	cur, ok := st.authors[a.ID]
	if !ok || cur.IsDeleted {
		return notFound("author", a.ID)
	}
	cur.Name, cur.UpdatedAt = a.Name, time.Now()
	st.authors[a.ID] = cur
	return nil
}

func (r authors) find(id int64, deleted bool) (*models.Author, error) {
	r.s.lock()
	defer r.s.unlock()
	a, ok := (*r.s.st).authors[id]
	if !ok || a.IsDeleted != deleted {
		return nil, notFound("author", id)
	}
	return &a, nil
}

func (r authors) FindLive(_ context.Context, id int64) (*models.Author, error) {
	return r.find(id, false)
}

func (r authors) FindDeleted(_ context.Context, id int64) (*models.Author, error) {
	return r.find(id, true)
}

func (r authors) LockLive(_ context.Context, id int64) (*models.Author, error) {
	return r.find(id, false)
}

func (r authors) ListLive(_ context.Context) ([]models.Author, error) {
	r.s.lock()
	defer r.s.unlock()
	return sorted((*r.s.st).authors, func(a models.Author) bool { return !a.IsDeleted }), nil
}

func (r authors) ListDeleted(_ context.Context) ([]models.Author, error) {
	r.s.lock()
	defer r.s.unlock()
	return sorted((*r.s.st).authors, func(a models.Author) bool { return a.IsDeleted }), nil
}

func (r authors) MarkDeleted(_ context.Context, ids ...int64) (int64, error) {
	r.s.lock()
	defer r.s.unlock()
	st := *r.s.st
	if err := st.fail[OpMarkAuthors]; err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		if a, ok := st.authors[id]; ok && !a.IsDeleted {
			a.IsDeleted = true
			st.authors[id] = a
			n++
		}
	}
	return n, nil
}

type series struct{ s *Store }

func (r series) Create(_ context.Context, v *models.Series) error {
	if err := v.Validate(); err != nil {
		return err
	}
	r.s.lock()
	defer r.s.unlock()
	st := *r.s.st
	if err := st.fail[OpCreate]; err != nil {
		return err
	}
	v.ID, v.IsDeleted = st.id(), false
	v.CreatedAt, v.UpdatedAt = time.Now(), time.Now()
	st.series[v.ID] = *v
	return nil
}

func (r series) Update(_ context.Context, v *models.Series) error {
	if err := v.Validate(); err != nil {
		return err
	}
	r.s.lock()
	defer r.s.unlock()
	st := *r.s.st
	cur, ok := st.series[v.ID]
	if !ok || cur.IsDeleted {
		return notFound("series", v.ID)
	}
	cur.Name, cur.Rating, cur.IsCompleted, cur.Description = v.Name, v.Rating, v.IsCompleted, v.Description
	cur.UpdatedAt = time.Now()
	st.series[v.ID] = cur
	return nil
}

func (r series) find(id int64, deleted bool) (*models.Series, error) {
	r.s.lock()
	defer r.s.unlock()
	v, ok := (*r.s.st).series[id]
	if !ok || v.IsDeleted != deleted {
		return nil, notFound("series", id)
	}
	return &v, nil
}

func (r series) FindLive(_ context.Context, id int64) (*models.Series, error) {
	return r.find(id, false)
}

func (r series) FindDeleted(_ context.Context, id int64) (*models.Series, error) {
	return r.find(id, true)
}

func (r series) LockLive(_ context.Context, id int64) (*models.Series, error) {
	return r.find(id, false)
}

func (r series) ListLiveByAuthor(_ context.Context, authorID int64) ([]models.Series, error) {
	r.s.lock()
	defer r.s.unlock()
	return sorted((*r.s.st).series, func(v models.Series) bool {
		return !v.IsDeleted && v.BelongsTo(authorID)
	}), nil
}

func (r series) LockLiveByAuthor(ctx context.Context, authorID int64) ([]models.Series, error) {
	return r.ListLiveByAuthor(ctx, authorID)
}

func (r series) ListDeleted(_ context.Context) ([]models.Series, error) {
	r.s.lock()
	defer r.s.unlock()
	return sorted((*r.s.st).series, func(v models.Series) bool { return v.IsDeleted }), nil
}

func (r series) MarkDeleted(_ context.Context, ids ...int64) (int64, error) {
	r.s.lock()
	defer r.s.unlock()
	st := *r.s.st
	if err := st.fail[OpMarkSeries]; err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		if v, ok := st.series[id]; ok && !v.IsDeleted {
			v.IsDeleted = true
			st.series[id] = v
			n++
		}
	}
	return n, nil
}

type books struct{ s *Store }

func (r books) Create(_ context.Context, b *models.Book) error {
	if err := b.Validate(); err != nil {
		return err
	}
	r.s.lock()
	defer r.s.unlock()
	st := *r.s.st
	if err := st.fail[OpCreate]; err != nil {
		return err
	}
	b.ID, b.IsDeleted = st.id(), false
	b.CreatedAt, b.UpdatedAt = time.Now(), time.Now()
	st.books[b.ID] = *b
	return nil
}

func (r books) Update(_ context.Context, b *models.Book) error {
	if err := b.Validate(); err != nil {
		return err
	}
	r.s.lock()
	defer r.s.unlock()
	st := *r.s.st
	cur, ok := st.books[b.ID]
	if !ok || cur.IsDeleted {
		return notFound("book", b.ID)
	}
	cur.Name, cur.Rating, cur.IsCompleted, cur.Description = b.Name, b.Rating, b.IsCompleted, b.Description
	cur.UpdatedAt = time.Now()
	st.books[b.ID] = cur
	return nil
}

func (r books) find(id int64, deleted bool) (*models.Book, error) {
	r.s.lock()
	defer r.s.unlock()
	b, ok := (*r.s.st).books[id]
	if !ok || b.IsDeleted != deleted {
		return nil, notFound("book", id)
	}
	return &b, nil
}

func (r books) FindLive(_ context.Context, id int64) (*models.Book, error) {
	return r.find(id, false)
}

func (r books) FindDeleted(_ context.Context, id int64) (*models.Book, error) {
	return r.find(id, true)
}

func (r books) LockLive(_ context.Context, id int64) (*models.Book, error) {
	return r.find(id, false)
}

func (r books) ListLiveBySeries(_ context.Context, seriesID int64) ([]models.Book, error) {
	r.s.lock()
	defer r.s.unlock()
	return sorted((*r.s.st).books, func(b models.Book) bool {
		return !b.IsDeleted && b.BelongsTo(seriesID)
	}), nil
}

func (r books) ListDeleted(_ context.Context) ([]models.Book, error) {
	r.s.lock()
	defer r.s.unlock()
	return sorted((*r.s.st).books, func(b models.Book) bool { return b.IsDeleted }), nil
}

func (r books) MarkDeleted(_ context.Context, ids ...int64) (int64, error) {
	return r.mark(func(b models.Book) bool { return contains(ids, b.ID) })
}

func (r books) MarkDeletedInSeries(_ context.Context, seriesIDs ...int64) (int64, error) {
	return r.mark(func(b models.Book) bool {
		return b.SeriesID != nil && contains(seriesIDs, *b.SeriesID)
	})
}

func (r books) mark(match func(models.Book) bool) (int64, error) {
	r.s.lock()
	defer r.s.unlock()
	st := *r.s.st
	if err := st.fail[OpMarkBooks]; err != nil {
		return 0, err
	}
	var n int64
	for id, b := range st.books {
		if !b.IsDeleted && match(b) {
			b.IsDeleted = true
			st.books[id] = b
			n++
		}
	}
	return n, nil
}
