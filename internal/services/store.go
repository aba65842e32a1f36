package services

import (
	"sync"
	"time"

	"settlecli/pkg/contracts/domain"
)

// Workbook is one uploaded file and its sheet contexts, in workbook order
type Workbook struct {
	ID         string
	FileName   string
	UploadedAt time.Time
	Sheets     []SheetContext
}

// SheetContext is the per-sheet state of an upload. Records never change
// after parsing; only the export fields are edited.
type SheetContext struct {
	ID           string
	Name         string
	Records      []domain.RawRecord
	Placement    string
	Denomination string
}

// sheet returns the index of the sheet with the given id
func (w *Workbook) sheet(sheetID string) int {
	for i := range w.Sheets {
		if w.Sheets[i].ID == sheetID {
			return i
		}
	}
	return -1
}

// snapshot copies the workbook so callers can read it without the store lock
func (w *Workbook) snapshot() *Workbook {
	cp := *w
	cp.Sheets = make([]SheetContext, len(w.Sheets))
	copy(cp.Sheets, w.Sheets)
	return &cp
}

// workbookStore keeps uploads in memory, bounded in count and age
type workbookStore struct {
	mu    sync.Mutex
	items map[string]*Workbook
	order []string
	max   int
	ttl   time.Duration
	now   func() time.Time
}

func newWorkbookStore(max int, ttl time.Duration) *workbookStore {
	return &workbookStore{
		items: make(map[string]*Workbook),
		max:   max,
		ttl:   ttl,
		now:   time.Now,
	}
}

// put stores wb and returns the ids evicted to make room for it
func (s *workbookStore) put(wb *Workbook) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := s.purgeExpiredLocked()
	for s.max > 0 && len(s.order) >= s.max {
		oldest := s.order[0]
		s.removeLocked(oldest)
		evicted = append(evicted, oldest)
	}

	s.items[wb.ID] = wb
	s.order = append(s.order, wb.ID)
	return evicted
}

func (s *workbookStore) get(id string) (*Workbook, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wb, ok := s.items[id]
	if !ok {
		return nil, false
	}
	if s.expiredLocked(wb) {
		s.removeLocked(id)
		return nil, false
	}
	return wb.snapshot(), true
}

// update runs fn on the stored workbook while holding the lock
func (s *workbookStore) update(id string, fn func(*Workbook) error) (*Workbook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wb, ok := s.items[id]
	if !ok || s.expiredLocked(wb) {
		if ok {
			s.removeLocked(id)
		}
		return nil, ErrWorkbookNotFound
	}
	if err := fn(wb); err != nil {
		return nil, err
	}
	return wb.snapshot(), nil
}

func (s *workbookStore) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false
	}
	s.removeLocked(id)
	return true
}

// list returns live workbooks, oldest first
func (s *workbookStore) list() []*Workbook {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked()
	result := make([]*Workbook, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.items[id].snapshot())
	}
	return result
}

func (s *workbookStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *workbookStore) expiredLocked(wb *Workbook) bool {
	return s.ttl > 0 && s.now().Sub(wb.UploadedAt) > s.ttl
}

func (s *workbookStore) purgeExpiredLocked() []string {
	var expired []string
	for _, id := range s.order {
		if s.expiredLocked(s.items[id]) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		s.removeLocked(id)
	}
	return expired
}

func (s *workbookStore) removeLocked(id string) {
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
