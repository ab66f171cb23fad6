package store

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabricadesoftware/vumock/internal/domain"
)

// fixedSource makes every rating draw deterministic: 0 yields a rating of
// zero (the target fails processing), 1<<32 yields a rating of one.
type fixedSource struct{ v int64 }

func (s fixedSource) Int63() int64 { return s.v }
func (s fixedSource) Seed(int64)   {}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, ratingSource int64) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)}
	st := New(domain.NewDatabase(), Config{
		ProcessingDelay: time.Second,
		DeletionWindow:  3 * time.Second,
		Clock:           clock.Now,
		Rand:            rand.New(fixedSource{v: ratingSource}),
	})
	return st, clock
}

func mustCreate(t *testing.T, st *Store, name string, image []byte) domain.Target {
	t.Helper()
	target, err := st.Create(CreateParams{
		Name:       name,
		Width:      1,
		Image:      image,
		ActiveFlag: true,
	})
	require.NoError(t, err)
	return target
}

func TestCreateLifecycle(t *testing.T) {
	st, clock := newTestStore(t, 1<<32)

	target := mustCreate(t, st, "my-target", []byte("image-bytes"))
	assert.Len(t, target.ID, 32)

	got, err := st.Get(target.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, got.StatusAt(clock.Now()))
	assert.Equal(t, -1, got.TrackingRatingAt(clock.Now()))

	clock.Advance(time.Second)
	got, err = st.Get(target.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, got.StatusAt(clock.Now()))
	assert.Equal(t, 1, got.TrackingRatingAt(clock.Now()))
}

func TestCreateZeroRatingFails(t *testing.T) {
	st, clock := newTestStore(t, 0)

	target := mustCreate(t, st, "my-target", []byte("image-bytes"))

	clock.Advance(time.Second)
	got, err := st.Get(target.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.StatusAt(clock.Now()))
	assert.Equal(t, 0, got.TrackingRatingAt(clock.Now()))
}

func TestCreateNameConflict(t *testing.T) {
	st, _ := newTestStore(t, 1<<32)

	target := mustCreate(t, st, "my-target", []byte("a"))

	_, err := st.Create(CreateParams{Name: "my-target", Width: 1, Image: []byte("b")})
	assert.ErrorIs(t, err, domain.ErrTargetNameExist)

	// Deleting frees the name.
	require.NoError(t, st.Delete(target.ID))
	_, err = st.Create(CreateParams{Name: "my-target", Width: 1, Image: []byte("b")})
	assert.NoError(t, err)
}

func TestCreateInactiveProject(t *testing.T) {
	st, _ := newTestStore(t, 1<<32)
	st.Database().State = domain.StateProjectInactive

	_, err := st.Create(CreateParams{Name: "my-target", Width: 1, Image: []byte("a")})
	assert.ErrorIs(t, err, domain.ErrProjectInactive)
}

func TestZeroConfigDefaults(t *testing.T) {
	st := New(domain.NewDatabase(), Config{})
	assert.Equal(t, DefaultProcessingDelay, st.processingDelay)
	assert.Equal(t, DefaultDeletionWindow, st.deletionWindow)
	assert.NotNil(t, st.now)
	assert.NotNil(t, st.rng)
}

func TestUpdateInactiveProject(t *testing.T) {
	st, _ := newTestStore(t, 1<<32)
	target := mustCreate(t, st, "my-target", []byte("a"))
	st.Database().State = domain.StateProjectInactive

	name := "renamed"
	_, err := st.Update(target.ID, UpdateParams{Name: &name})
	assert.ErrorIs(t, err, domain.ErrProjectInactive)
}

func TestGetUnknownTarget(t *testing.T) {
	st, _ := newTestStore(t, 1<<32)

	_, err := st.Get("no-such-id")
	assert.ErrorIs(t, err, domain.ErrUnknownTarget)

	target := mustCreate(t, st, "my-target", []byte("a"))
	require.NoError(t, st.Delete(target.ID))

	_, err = st.Get(target.ID)
	assert.ErrorIs(t, err, domain.ErrUnknownTarget)
}

func TestList(t *testing.T) {
	st, _ := newTestStore(t, 1<<32)

	assert.Empty(t, st.List())

	first := mustCreate(t, st, "first", []byte("a"))
	second := mustCreate(t, st, "second", []byte("b"))
	assert.Equal(t, []string{first.ID, second.ID}, st.List())

	require.NoError(t, st.Delete(first.ID))
	assert.Equal(t, []string{second.ID}, st.List())
}

func TestUpdate(t *testing.T) {
	st, clock := newTestStore(t, 1<<32)

	target := mustCreate(t, st, "my-target", []byte("a"))
	clock.Advance(time.Second)

	name := "renamed"
	width := 2.5
	flag := false
	metadata := "bWV0YQ=="
	updated, err := st.Update(target.ID, UpdateParams{
		Name:       &name,
		Width:      &width,
		ActiveFlag: &flag,
		Metadata:   &metadata,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, 2.5, updated.Width)
	assert.False(t, updated.ActiveFlag)
	require.NotNil(t, updated.ApplicationMetadata)
	assert.Equal(t, metadata, *updated.ApplicationMetadata)

	// A metadata-only update does not restart processing.
	assert.Equal(t, domain.StatusSuccess, updated.StatusAt(clock.Now()))
}

func TestUpdateImageRestartsProcessing(t *testing.T) {
	st, clock := newTestStore(t, 1<<32)

	target := mustCreate(t, st, "my-target", []byte("a"))
	clock.Advance(time.Second)

	updated, err := st.Update(target.ID, UpdateParams{Image: []byte("b")})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, updated.StatusAt(clock.Now()))

	clock.Advance(time.Second)
	got, err := st.Get(target.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, got.StatusAt(clock.Now()))
	assert.Equal(t, []byte("b"), got.Image)
}

func TestUpdateNameConflict(t *testing.T) {
	st, _ := newTestStore(t, 1<<32)

	mustCreate(t, st, "first", []byte("a"))
	second := mustCreate(t, st, "second", []byte("b"))

	name := "first"
	_, err := st.Update(second.ID, UpdateParams{Name: &name})
	assert.ErrorIs(t, err, domain.ErrTargetNameExist)

	// Keeping its own name is not a conflict.
	name = "second"
	_, err = st.Update(second.ID, UpdateParams{Name: &name})
	assert.NoError(t, err)
}

func TestSummary(t *testing.T) {
	st, clock := newTestStore(t, 1<<32)

	mustCreate(t, st, "active", []byte("a"))
	_, err := st.Create(CreateParams{Name: "inactive", Width: 1, Image: []byte("b")})
	require.NoError(t, err)

	sum := st.Summary()
	assert.Equal(t, 2, sum.ProcessingImages)
	assert.Equal(t, 0, sum.ActiveImages)

	clock.Advance(time.Second)
	mustCreate(t, st, "late", []byte("c"))

	sum = st.Summary()
	assert.Equal(t, 1, sum.ProcessingImages)
	assert.Equal(t, 1, sum.ActiveImages)
	assert.Equal(t, 1, sum.InactiveImages)
	assert.Equal(t, 0, sum.FailedImages)
	assert.Equal(t, st.Database().Name, sum.Name)
}

func TestSummaryRequestUsage(t *testing.T) {
	st, _ := newTestStore(t, 1<<32)

	assert.Equal(t, 0, st.Summary().RequestUsage)
	st.AddRequest()
	st.AddRequest()
	assert.Equal(t, 2, st.Summary().RequestUsage)
}

func TestDuplicates(t *testing.T) {
	st, clock := newTestStore(t, 1<<32)

	image := []byte("shared")
	first := mustCreate(t, st, "first", image)
	second := mustCreate(t, st, "second", image)
	mustCreate(t, st, "different", []byte("other"))

	// Candidates still processing do not show up.
	similar, err := st.Duplicates(first.ID)
	require.NoError(t, err)
	assert.Empty(t, similar)

	clock.Advance(time.Second)
	similar, err = st.Duplicates(first.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, similar)

	// Inactive candidates are invisible.
	flag := false
	_, err = st.Update(second.ID, UpdateParams{ActiveFlag: &flag})
	require.NoError(t, err)
	similar, err = st.Duplicates(first.ID)
	require.NoError(t, err)
	assert.Empty(t, similar)
}

func TestDuplicatesFailedTarget(t *testing.T) {
	st, clock := newTestStore(t, 0)

	image := []byte("shared")
	first := mustCreate(t, st, "first", image)
	mustCreate(t, st, "second", image)
	clock.Advance(time.Second)

	// Both failed processing; a failed target reports no duplicates.
	similar, err := st.Duplicates(first.ID)
	require.NoError(t, err)
	assert.Empty(t, similar)
}

func TestMatch(t *testing.T) {
	st, clock := newTestStore(t, 1<<32)

	image := []byte("query-me")
	target := mustCreate(t, st, "my-target", image)

	// A matching target mid-processing trips the simulated server error.
	matches, unstable := st.Match(image)
	assert.True(t, unstable)
	assert.Nil(t, matches)

	clock.Advance(time.Second)
	matches, unstable = st.Match(image)
	assert.False(t, unstable)
	require.Len(t, matches, 1)
	assert.Equal(t, target.ID, matches[0].ID)

	// No match for unknown bytes.
	matches, unstable = st.Match([]byte("unknown"))
	assert.False(t, unstable)
	assert.Empty(t, matches)
}

func TestMatchInactiveTarget(t *testing.T) {
	st, clock := newTestStore(t, 1<<32)

	image := []byte("query-me")
	target := mustCreate(t, st, "my-target", image)
	clock.Advance(time.Second)

	flag := false
	_, err := st.Update(target.ID, UpdateParams{ActiveFlag: &flag})
	require.NoError(t, err)

	matches, unstable := st.Match(image)
	assert.False(t, unstable)
	assert.Empty(t, matches)
}

func TestMatchDeletionWindow(t *testing.T) {
	st, clock := newTestStore(t, 1<<32)

	image := []byte("query-me")
	target := mustCreate(t, st, "my-target", image)
	clock.Advance(time.Second)
	require.NoError(t, st.Delete(target.ID))

	// Inside the window the query endpoint blows up.
	clock.Advance(time.Second)
	_, unstable := st.Match(image)
	assert.True(t, unstable)

	// Past the window the target is simply gone.
	clock.Advance(3 * time.Second)
	matches, unstable := st.Match(image)
	assert.False(t, unstable)
	assert.Empty(t, matches)
}

func TestConcurrentAccess(t *testing.T) {
	st, _ := newTestStore(t, 1<<32)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("target-%d", i)
			if _, err := st.Create(CreateParams{Name: name, Width: 1, Image: []byte(name)}); err != nil {
				t.Errorf("create %s: %v", name, err)
			}
			st.List()
			st.Summary()
			st.AddRequest()
		}(i)
	}
	wg.Wait()

	assert.Len(t, st.List(), 20)
	assert.Equal(t, 20, st.Summary().RequestUsage)
}
