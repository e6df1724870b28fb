package scheduling

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/professional"
	"github.com/clinic/clinic/internal/platform/clock"
)

// 2030-06-03 is a Monday.
var (
	monday   = time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC)
	saturday = time.Date(2030, 6, 8, 0, 0, 0, 0, time.UTC)
	testNow  = time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC)
)

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func window(sh, sm, eh, em int) professional.Window {
	return professional.Window{Start: professional.NewClockTime(sh, sm), End: professional.NewClockTime(eh, em)}
}

// weekdayProfessional works Monday to Friday 08:00-18:00 with lunch 12:00-13:00.
func weekdayProfessional() *professional.Professional {
	shift := window(8, 0, 18, 0)
	return &professional.Professional{
		ID:     uuid.New(),
		Name:   "Dr. Ana",
		Active: true,
		Availability: professional.Availability{
			WorkingDays:  [7]bool{false, true, true, true, true, true, false},
			PrimaryShift: &shift,
			Breaks:       []professional.Window{window(12, 0, 13, 0)},
		},
	}
}

type mockDirectory struct {
	items map[uuid.UUID]*professional.Professional
	err   error
}

func newMockDirectory(ps ...*professional.Professional) *mockDirectory {
	m := &mockDirectory{items: make(map[uuid.UUID]*professional.Professional)}
	for _, p := range ps {
		m.items[p.ID] = p
	}
	return m
}

func (m *mockDirectory) GetProfessional(_ context.Context, id uuid.UUID) (*professional.Professional, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.items[id]
	if !ok {
		return nil, professional.ErrNotFound
	}
	return p, nil
}

type mockStore struct {
	mu        sync.Mutex
	items     map[uuid.UUID]*Appointment
	listErr   error
	saveErr   error
	listCalls int
}

func newMockStore() *mockStore {
	return &mockStore{items: make(map[uuid.UUID]*Appointment)}
}

func (m *mockStore) add(profID uuid.UUID, start, end time.Time) *Appointment {
	a := &Appointment{
		ID:             uuid.New(),
		ProfessionalID: profID,
		PatientID:      uuid.New(),
		StartTime:      start,
		EndTime:        end,
		Status:         StatusScheduled,
		VersionID:      1,
	}
	m.items[a.ID] = a
	return a
}

func (m *mockStore) ListForProfessionalOnDate(_ context.Context, professionalID uuid.UUID, day time.Time) ([]*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	end := day.AddDate(0, 0, 1)
	var result []*Appointment
	for _, a := range m.items {
		if a.ProfessionalID != professionalID || a.IsCancelled() {
			continue
		}
		if a.StartTime.Before(day) || !a.StartTime.Before(end) {
			continue
		}
		cp := *a
		result = append(result, &cp)
	}
	return result, nil
}

func (m *mockStore) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	a.ID = uuid.New()
	a.VersionID = 1
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *mockStore) Update(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	existing, ok := m.items[a.ID]
	if !ok {
		return ErrAppointmentNotFound
	}
	if existing.VersionID != a.VersionID {
		return ErrVersionConflict
	}
	a.VersionID++
	a.UpdatedAt = time.Now()
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *mockStore) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

type published struct {
	key     string
	payload interface{}
}

type recordingPublisher struct {
	events []published
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, payload interface{}) error {
	p.events = append(p.events, published{key: key, payload: payload})
	return p.err
}

type recordingObserver struct {
	validations []string
	failures    []string
}

func (o *recordingObserver) ObserveValidation(entry, stage, reason string, accepted bool, _ time.Duration) {
	o.validations = append(o.validations, entry+"/"+stage+"/"+reason)
}

func (o *recordingObserver) ObserveFailure(op string) {
	o.failures = append(o.failures, op)
}

// memLocker is an in-process Locker.
type memLocker struct {
	mu   sync.Mutex
	held map[string]string
	err  error
}

func newMemLocker() *memLocker { return &memLocker{held: make(map[string]string)} }

func (l *memLocker) TryLock(_ context.Context, key string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", false, l.err
	}
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	token := uuid.NewString()
	l.held[key] = token
	return token, true, nil
}

func (l *memLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] != token {
		return errors.New("not owner")
	}
	delete(l.held, key)
	return nil
}

type fixture struct {
	co       *Coordinator
	dir      *mockDirectory
	store    *mockStore
	events   *recordingPublisher
	observer *recordingObserver
	clock    *clock.Fixed
	prof     *professional.Professional
}

func newFixture() *fixture {
	prof := weekdayProfessional()
	f := &fixture{
		dir:      newMockDirectory(prof),
		store:    newMockStore(),
		events:   &recordingPublisher{},
		observer: &recordingObserver{},
		clock:    clock.NewFixed(testNow),
		prof:     prof,
	}
	f.co = NewCoordinator(f.dir, f.store, f.clock, Config{
		Location: time.UTC,
		Events:   f.events,
		Observer: f.observer,
	})
	return f
}

func (f *fixture) candidate(start, end time.Time) Candidate {
	return Candidate{
		ProfessionalID: f.prof.ID,
		PatientID:      uuid.New(),
		Start:          start,
		End:            end,
	}
}

func dateOf(t time.Time) professional.Date {
	return professional.DateOf(t, time.UTC)
}
