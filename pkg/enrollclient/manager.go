package enrollclient

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrMutationInFlight is returned when Enroll or Unenroll is called before the previous mutation resolved.
	ErrMutationInFlight = errors.New("enrollclient: a mutation is already in flight")
	// ErrNoActiveAnchor is returned by mutations while no dialog is open.
	ErrNoActiveAnchor = errors.New("enrollclient: no active anchor")
	// ErrNothingSelected is returned by Enroll with an empty selection.
	ErrNothingSelected = errors.New("enrollclient: no targets selected")
	// ErrStaleResponse is returned when a fetch resolved after its anchor stopped being active.
	ErrStaleResponse = errors.New("enrollclient: response for an inactive anchor was dropped")
)

// ManagerOption customises a Manager.
type ManagerOption func(*Manager)

// WithNotifier routes loading, success and error alerts to n.
func WithNotifier(n Notifier) ManagerOption {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithClock overrides the timestamp used for provisional entries.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager holds the dialog state of one enrollment context: the active anchor, whether
// the dialog is open, the selected targets and the cached partitions. It never holds its
// lock across a network call.
type Manager struct {
	mu       sync.Mutex
	ec       enrollmentContext
	cache    *QueryCache
	notifier Notifier
	now      func() time.Time
	newKey   func() string

	active     int64
	open       bool
	selected   []int64
	generation uint64
	inFlight   bool
}

// NewByCourse manages dialogs anchored on a course whose targets are students.
func NewByCourse(api *Client, opts ...ManagerOption) *Manager {
	return newManager(byCourse{api: api}, opts...)
}

// NewByStudent manages dialogs anchored on a student whose targets are courses.
func NewByStudent(api *Client, opts ...ManagerOption) *Manager {
	return newManager(byStudent{api: api}, opts...)
}

func newManager(ec enrollmentContext, opts ...ManagerOption) *Manager {
	m := &Manager{
		ec:       ec,
		cache:    NewQueryCache(),
		notifier: nopNotifier{},
		now:      time.Now,
		newKey:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Cache exposes the manager's query cache.
func (m *Manager) Cache() *QueryCache { return m.cache }

// ActiveAnchor returns the anchor id in focus, or zero.
func (m *Manager) ActiveAnchor() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// IsOpen reports whether the dialog is open.
func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Anchors returns the anchor list, fetching it when missing or invalidated.
func (m *Manager) Anchors(ctx context.Context) ([]Anchor, error) {
	key := m.ec.anchorsKey()
	if v, stale, ok := m.cache.Get(key); ok && !stale {
		return append([]Anchor(nil), v.([]Anchor)...), nil
	}
	anchors, err := m.ec.anchors(ctx)
	if err != nil {
		m.notifier.Error(err)
		return nil, err
	}
	m.cache.Set(key, anchors)
	return append([]Anchor(nil), anchors...), nil
}

// Open focuses anchorID, opens the dialog, clears the selection and fetches a fresh partition.
func (m *Manager) Open(ctx context.Context, anchorID int64) (*Partition, error) {
	m.mu.Lock()
	m.focus(anchorID)
	m.open = true
	m.mu.Unlock()
	return m.fetch(ctx)
}

// Close hides the dialog and forgets the active anchor and selection.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	m.active = 0
	m.selected = nil
	m.generation++
}

// SwitchAnchor moves focus to anchorID. The partition is fetched only while the dialog is
// open; a closed manager returns nil.
func (m *Manager) SwitchAnchor(ctx context.Context, anchorID int64) (*Partition, error) {
	m.mu.Lock()
	m.focus(anchorID)
	open := m.open
	m.mu.Unlock()
	if !open {
		return nil, nil
	}
	return m.fetch(ctx)
}

// focus must be called with mu held.
func (m *Manager) focus(anchorID int64) {
	m.active = anchorID
	m.selected = nil
	m.generation++
	m.cache.Invalidate(m.ec.partitionKey(anchorID))
}

// Toggle flips the selection of targetID and reports whether it is now selected.
func (m *Manager) Toggle(targetID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range m.selected {
		if id == targetID {
			m.selected = append(m.selected[:i:i], m.selected[i+1:]...)
			return false
		}
	}
	m.selected = append(m.selected, targetID)
	return true
}

// Selected returns the selected target ids in ascending order.
func (m *Manager) Selected() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]int64(nil), m.selected...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Partition returns the active anchor's partition, fetching when missing or stale.
// It returns nil while the dialog is closed.
func (m *Manager) Partition(ctx context.Context) (*Partition, error) {
	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return nil, nil
	}
	key := m.ec.partitionKey(m.active)
	m.mu.Unlock()

	if v, stale, ok := m.cache.Get(key); ok && !stale {
		return v.(*Partition).clone(), nil
	}
	return m.fetch(ctx)
}

// View returns the cached partition of the active anchor without fetching, stale or not.
func (m *Manager) View() *Partition {
	m.mu.Lock()
	active := m.active
	m.mu.Unlock()
	if active == 0 {
		return nil
	}
	v, _, ok := m.cache.Get(m.ec.partitionKey(active))
	if !ok {
		return nil
	}
	return v.(*Partition).clone()
}

func (m *Manager) fetch(ctx context.Context) (*Partition, error) {
	m.mu.Lock()
	anchor, gen := m.active, m.generation
	m.mu.Unlock()

	p, err := m.ec.partition(ctx, anchor)

	m.mu.Lock()
	current := gen == m.generation && anchor == m.active
	m.mu.Unlock()
	if !current {
		return nil, ErrStaleResponse
	}
	if err != nil {
		m.notifier.Error(err)
		return nil, err
	}
	m.cache.Set(m.ec.partitionKey(anchor), p)
	return p.clone(), nil
}

// Enroll attaches the selected targets to the active anchor. The targets appear as
// provisional enrolled entries until the request resolves; on failure the cached
// partition is restored exactly as it was. On success only the submitted targets leave
// the selection, so targets toggled while the request was pending stay selected.
func (m *Manager) Enroll(ctx context.Context) error {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return ErrMutationInFlight
	}
	if !m.open || m.active == 0 {
		m.mu.Unlock()
		return ErrNoActiveAnchor
	}
	if len(m.selected) == 0 {
		m.mu.Unlock()
		return ErrNothingSelected
	}
	anchor, gen := m.active, m.generation
	targets := append([]int64(nil), m.selected...)
	key := m.ec.partitionKey(anchor)
	snap, present := m.cache.snapshot(key)
	if present {
		m.cache.Set(key, m.withProvisional(snap.value.(*Partition), targets))
		if snap.stale {
			m.cache.Invalidate(key)
		}
	}
	m.inFlight = true
	m.mu.Unlock()

	m.notifier.Loading("Enrolling...")
	err := m.ec.enroll(ctx, anchor, targets)

	m.mu.Lock()
	m.inFlight = false
	if err != nil {
		m.cache.restore(key, snap, present)
		m.mu.Unlock()
		m.notifier.Error(err)
		return err
	}
	m.cache.Invalidate(key)
	if gen == m.generation {
		m.selected = without(m.selected, targets)
	}
	m.mu.Unlock()
	m.notifier.Success(m.ec.enrolledMessage())
	return nil
}

// Unenroll detaches targetID from the active anchor, hiding it from the enrolled list
// until the request resolves.
func (m *Manager) Unenroll(ctx context.Context, targetID int64) error {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return ErrMutationInFlight
	}
	if !m.open || m.active == 0 {
		m.mu.Unlock()
		return ErrNoActiveAnchor
	}
	anchor := m.active
	key := m.ec.partitionKey(anchor)
	snap, present := m.cache.snapshot(key)
	if present {
		next := snap.value.(*Partition).clone()
		if i := indexOf(next.Enrolled, targetID); i >= 0 {
			next.Enrolled = append(next.Enrolled[:i], next.Enrolled[i+1:]...)
		}
		m.cache.Set(key, next)
		if snap.stale {
			m.cache.Invalidate(key)
		}
	}
	m.inFlight = true
	m.mu.Unlock()

	m.notifier.Loading("Unenrolling...")
	err := m.ec.unenroll(ctx, anchor, targetID)

	m.mu.Lock()
	m.inFlight = false
	if err != nil {
		m.cache.restore(key, snap, present)
		m.mu.Unlock()
		m.notifier.Error(err)
		return err
	}
	m.cache.Invalidate(key)
	m.mu.Unlock()
	m.notifier.Success(m.ec.unenrolledMessage())
	return nil
}

// withProvisional moves targets from unenrolled to enrolled as provisional entries.
// Targets already enrolled are left alone.
func (m *Manager) withProvisional(p *Partition, targets []int64) *Partition {
	next := p.clone()
	at := m.now()
	for _, id := range targets {
		if indexOf(next.Enrolled, id) >= 0 {
			continue
		}
		entry := Entry{ID: id}
		if i := indexOf(next.Unenrolled, id); i >= 0 {
			entry = next.Unenrolled[i]
			next.Unenrolled = append(next.Unenrolled[:i], next.Unenrolled[i+1:]...)
		}
		entry.Key = m.newKey()
		entry.Provisional = true
		entry.EnrolledAt = &at
		next.Enrolled = append(next.Enrolled, entry)
	}
	return next
}

// without returns ids minus drop, keeping order.
func without(ids, drop []int64) []int64 {
	skip := make(map[int64]struct{}, len(drop))
	for _, id := range drop {
		skip[id] = struct{}{}
	}
	var out []int64
	for _, id := range ids {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
