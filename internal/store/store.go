package store

import (
	"bytes"
	"math/rand"
	"sync"
	"time"

	"github.com/fabricadesoftware/vumock/internal/domain"
)

// Default timing behavior of the simulated service. The real service takes
// a variable amount of time to process an uploaded image; the mock uses a
// short fixed delay so tests can wait it out deterministically.
const (
	DefaultProcessingDelay = 500 * time.Millisecond
	DefaultDeletionWindow  = 3 * time.Second
)

// Free-tier quota constants reported by the database summary endpoint.
const (
	TargetQuota   = 1000
	RequestQuota  = 100000
	RecoThreshold = 1000
)

// Config tunes one store. The zero value picks the defaults above, the
// wall clock and an unseeded rand source.
type Config struct {
	ProcessingDelay time.Duration
	DeletionWindow  time.Duration
	Clock           func() time.Time
	Rand            *rand.Rand
}

// Store owns the targets of a single database and every state transition
// they go through. It is the only mutable shared structure in the engine;
// one RWMutex serializes mutations while reads observe consistent
// snapshots. Status is never stored: it is derived from the injected clock
// on read, so there are no background timers.
type Store struct {
	mu sync.RWMutex

	db      *domain.Database
	targets []*domain.Target
	byID    map[string]*domain.Target

	processingDelay time.Duration
	deletionWindow  time.Duration
	now             func() time.Time
	rng             *rand.Rand

	requestCount int
}

func New(db *domain.Database, cfg Config) *Store {
	if cfg.ProcessingDelay == 0 {
		cfg.ProcessingDelay = DefaultProcessingDelay
	}
	if cfg.DeletionWindow == 0 {
		cfg.DeletionWindow = DefaultDeletionWindow
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Store{
		db:              db,
		byID:            make(map[string]*domain.Target),
		processingDelay: cfg.ProcessingDelay,
		deletionWindow:  cfg.DeletionWindow,
		now:             cfg.Clock,
		rng:             cfg.Rand,
	}
}

func (s *Store) Database() *domain.Database {
	return s.db
}

// Now returns the store's view of the current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// AddRequest counts one served request against the database.
func (s *Store) AddRequest() {
	s.mu.Lock()
	s.requestCount++
	s.mu.Unlock()
}

type CreateParams struct {
	Name       string
	Width      float64
	Image      []byte
	ActiveFlag bool
	Metadata   *string
}

// Create registers a new target. It starts in the processing status and
// becomes success or failed once the processing delay has elapsed; the
// rating drawn here decides which (zero fails, anything else succeeds).
func (s *Store) Create(p CreateParams) (domain.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db.State != domain.StateWorking {
		return domain.Target{}, domain.ErrProjectInactive
	}
	for _, t := range s.targets {
		if !t.Deleted() && t.Name == p.Name {
			return domain.Target{}, domain.ErrTargetNameExist
		}
	}

	now := s.now()
	t := &domain.Target{
		ID:                  domain.RandomHex(),
		Name:                p.Name,
		Width:               p.Width,
		Image:               p.Image,
		ActiveFlag:          p.ActiveFlag,
		ApplicationMetadata: p.Metadata,
		Rating:              s.rng.Intn(6),
		UploadDate:          now,
		LastModified:        now,
		ProcessDeadline:     now.Add(s.processingDelay),
	}
	s.targets = append(s.targets, t)
	s.byID[t.ID] = t
	return *t, nil
}

// Get returns a snapshot of a non-deleted target.
func (s *Store) Get(id string) (domain.Target, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.lookup(id)
	if err != nil {
		return domain.Target{}, err
	}
	return *t, nil
}

// List returns the IDs of all non-deleted targets in creation order.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.targets))
	for _, t := range s.targets {
		if !t.Deleted() {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

type UpdateParams struct {
	Name       *string
	Width      *float64
	ActiveFlag *bool
	Metadata   *string
	Image      []byte
}

// Update modifies a non-deleted target. Changing the image redraws the
// rating and puts the target back into processing for a full delay.
func (s *Store) Update(id string, p UpdateParams) (domain.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db.State != domain.StateWorking {
		return domain.Target{}, domain.ErrProjectInactive
	}
	t, err := s.lookup(id)
	if err != nil {
		return domain.Target{}, err
	}

	if p.Name != nil {
		for _, other := range s.targets {
			if other != t && !other.Deleted() && other.Name == *p.Name {
				return domain.Target{}, domain.ErrTargetNameExist
			}
		}
		t.Name = *p.Name
	}
	if p.Width != nil {
		t.Width = *p.Width
	}
	if p.ActiveFlag != nil {
		t.ActiveFlag = *p.ActiveFlag
	}
	if p.Metadata != nil {
		t.ApplicationMetadata = p.Metadata
	}
	now := s.now()
	if p.Image != nil {
		t.Image = p.Image
		t.Rating = s.rng.Intn(6)
		t.ProcessDeadline = now.Add(s.processingDelay)
	}
	t.LastModified = now
	return *t, nil
}

// Delete stamps the deletion time. The target disappears from management
// lookups immediately; the query endpoint keeps tripping over it for the
// deletion window.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db.State != domain.StateWorking {
		return domain.ErrProjectInactive
	}
	t, err := s.lookup(id)
	if err != nil {
		return err
	}
	now := s.now()
	t.DeleteDate = &now
	return nil
}

// Summary aggregates target counts by status, excluding deleted targets.
type Summary struct {
	Name             string
	ActiveImages     int
	InactiveImages   int
	FailedImages     int
	ProcessingImages int
	RequestUsage     int
}

func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	sum := Summary{Name: s.db.Name, RequestUsage: s.requestCount}
	for _, t := range s.targets {
		if t.Deleted() {
			continue
		}
		switch t.StatusAt(now) {
		case domain.StatusProcessing:
			sum.ProcessingImages++
		case domain.StatusFailed:
			sum.FailedImages++
		case domain.StatusSuccess:
			if t.ActiveFlag {
				sum.ActiveImages++
			} else {
				sum.InactiveImages++
			}
		}
	}
	return sum
}

// Duplicates returns the IDs of other targets holding an identical image.
// Failed targets never report duplicates, and a candidate only shows up
// once it is active and done processing.
func (s *Store) Duplicates(id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if t.StatusAt(now) == domain.StatusFailed {
		return []string{}, nil
	}

	similar := []string{}
	for _, other := range s.targets {
		if other == t || other.Deleted() || !other.ActiveFlag {
			continue
		}
		switch other.StatusAt(now) {
		case domain.StatusFailed, domain.StatusProcessing:
			continue
		}
		if bytes.Equal(other.Image, t.Image) {
			similar = append(similar, other.ID)
		}
	}
	return similar, nil
}

// Match finds the targets a query image matches. Recognition is exact byte
// equality; no computer vision is simulated. The second return value
// reports whether the query must answer with the simulated server error:
// that happens when a matching target is still processing, or was deleted
// less than the deletion window ago.
func (s *Store) Match(image []byte) ([]domain.Target, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	matches := []domain.Target{}
	for _, t := range s.targets {
		if !bytes.Equal(t.Image, image) {
			continue
		}
		if !t.Deleted() && t.StatusAt(now) == domain.StatusProcessing {
			return nil, true
		}
		if t.ActiveFlag && t.DeletedWithin(now, s.deletionWindow) {
			return nil, true
		}
		if t.ActiveFlag && !t.Deleted() && t.StatusAt(now) == domain.StatusSuccess {
			matches = append(matches, *t)
		}
	}
	return matches, false
}

// lookup requires the caller to hold at least a read lock.
func (s *Store) lookup(id string) (*domain.Target, error) {
	t, ok := s.byID[id]
	if !ok || t.Deleted() {
		return nil, domain.ErrUnknownTarget
	}
	return t, nil
}
