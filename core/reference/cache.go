package reference

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/finance"
	"github.com/trezcool/campusdesk/core/store"
)

// Remotes are the backend endpoints of the reference collections.
type Remotes struct {
	Branches        store.Remote[Branch]
	AcademicYears   store.Remote[AcademicYear]
	Classes         store.Remote[Class]
	Sections        store.Remote[Section]
	Courses         store.Remote[Course]
	Subjects        store.Remote[Subject]
	FeeStructures   store.Remote[finance.FeeStructure]
	Taxes           store.Remote[finance.Tax]
	TransportRoutes store.Remote[TransportRoute]
	Hostels         store.Remote[Hostel]
}

// Cache holds the reference data of one scope.
type Cache struct {
	Branches        *store.Collection[Branch]
	AcademicYears   *store.Collection[AcademicYear]
	Classes         *store.Collection[Class]
	Sections        *store.Collection[Section]
	Courses         *store.Collection[Course]
	Subjects        *store.Collection[Subject]
	FeeStructures   *store.Collection[finance.FeeStructure]
	Taxes           *store.Collection[finance.Tax]
	TransportRoutes *store.Collection[TransportRoute]
	Hostels         *store.Collection[Hostel]

	scope     core.Scope
	snapshots store.SnapshotStore
	ttl       time.Duration
	logger    core.Logger

	mu     sync.Mutex // serializes loads
	yearID string

	generation   atomic.Uint64 // bumped by every mutation
	lastMutation atomic.Int64  // unix nanos of the last mutation
}

// snapshot is the persisted form of a Bundle.
type snapshot struct {
	LoadedAt time.Time `json:"loadedAt"` // when the load producing the bundle started
	Bundle   Bundle    `json:"bundle"`
}

func newCache(scope core.Scope, r Remotes, snapshots store.SnapshotStore, ttl time.Duration, logger core.Logger) *Cache {
	c := &Cache{
		scope:     scope,
		snapshots: snapshots,
		ttl:       ttl,
		logger:    logger,
	}
	invalidate := store.InvalidateOnMutate(scope.Portal.StorageKey(), snapshots, logger)
	onMutate := func(ctx context.Context, name string) {
		// marked before invalidating so a concurrent persist either sees the mark or is invalidated
		c.lastMutation.Store(time.Now().UnixNano())
		c.generation.Add(1)
		invalidate(ctx, name)
	}
	c.Branches = store.NewCollection[Branch]("branches", r.Branches, onMutate)
	c.AcademicYears = store.NewCollection[AcademicYear]("academic-years", r.AcademicYears, onMutate)
	c.Classes = store.NewCollection[Class]("classes", r.Classes, onMutate)
	c.Sections = store.NewCollection[Section]("sections", r.Sections, onMutate)
	c.Courses = store.NewCollection[Course]("courses", r.Courses, onMutate)
	c.Subjects = store.NewCollection[Subject]("subjects", r.Subjects, onMutate)
	c.FeeStructures = store.NewCollection[finance.FeeStructure]("fee-structures", r.FeeStructures, onMutate)
	c.Taxes = store.NewCollection[finance.Tax]("taxes", r.Taxes, onMutate)
	c.TransportRoutes = store.NewCollection[TransportRoute]("transport-routes", r.TransportRoutes, onMutate)
	c.Hostels = store.NewCollection[Hostel]("hostels", r.Hostels, onMutate)
	return c
}

// Resources lists the collections for the generic record handlers.
func (c *Cache) Resources() []store.Resource {
	return []store.Resource{
		c.Branches, c.AcademicYears, c.Classes, c.Sections, c.Courses, c.Subjects,
		c.FeeStructures, c.Taxes, c.TransportRoutes, c.Hostels,
	}
}

// YearID is the academic year of the last load.
func (c *Cache) YearID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.yearID
}

// Bundle returns the cached data.
func (c *Cache) Bundle() Bundle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bundleLocked()
}

func (c *Cache) snapshotKey(yearID string) string {
	return c.scope.SnapshotKey("reference", yearID)
}

// Load fills the cache for the academic year, or for the branch's active year when yearID is empty.
// A fresh snapshot is used unless force is set. After a full load the result is persisted.
func (c *Cache) Load(ctx context.Context, yearID string, force bool) (Bundle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.hydrate(ctx, yearID) {
		return c.bundleLocked(), nil
	}
	startedAt := time.Now()
	generation := c.generation.Load()

	branchQ := url.Values{}
	if c.scope.BranchID != "" {
		branchQ.Set("branchId", c.scope.BranchID)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Branches.Fetch(gctx, nil) })
	g.Go(func() error { return c.AcademicYears.Fetch(gctx, branchQ) })
	g.Go(func() error { return c.Sections.Fetch(gctx, branchQ) })
	g.Go(func() error { return c.Courses.Fetch(gctx, branchQ) })
	g.Go(func() error { return c.Subjects.Fetch(gctx, branchQ) })
	g.Go(func() error { return c.Taxes.Fetch(gctx, branchQ) })
	g.Go(func() error { return c.TransportRoutes.Fetch(gctx, branchQ) })
	g.Go(func() error { return c.Hostels.Fetch(gctx, branchQ) })
	if err := g.Wait(); err != nil {
		return Bundle{}, errors.Wrap(err, "loading reference data")
	}

	requested := yearID
	if yearID == "" {
		if year, ok := DefaultYear(c.AcademicYears.Items(), c.scope.BranchID); ok {
			yearID = year.ID
		}
	}

	yearQ := url.Values{}
	for k, v := range branchQ {
		yearQ[k] = v
	}
	if yearID != "" {
		yearQ.Set("academicYearId", yearID)
	}
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error { return c.Classes.Fetch(gctx, yearQ) })
	g.Go(func() error { return c.FeeStructures.Fetch(gctx, yearQ) })
	if err := g.Wait(); err != nil {
		return Bundle{}, errors.Wrap(err, "loading year reference data")
	}
	c.yearID = yearID

	bundle := c.bundleLocked()
	c.persist(ctx, requested, bundle, startedAt, generation)
	return bundle, nil
}

func (c *Cache) bundleLocked() Bundle {
	return Bundle{
		AcademicYearID:  c.yearID,
		Branches:        c.Branches.Items(),
		AcademicYears:   c.AcademicYears.Items(),
		Classes:         c.Classes.Items(),
		Sections:        c.Sections.Items(),
		Courses:         c.Courses.Items(),
		Subjects:        c.Subjects.Items(),
		FeeStructures:   c.FeeStructures.Items(),
		Taxes:           c.Taxes.Items(),
		TransportRoutes: c.TransportRoutes.Items(),
		Hostels:         c.Hostels.Items(),
	}
}

func (c *Cache) hydrate(ctx context.Context, yearID string) bool {
	if c.snapshots == nil {
		return false
	}
	payload, ok, err := c.snapshots.Load(ctx, c.snapshotKey(yearID))
	if err != nil {
		c.logger.Warn(errors.Wrap(err, "loading reference snapshot").Error(), err)
		return false
	}
	if !ok {
		return false
	}
	var snap snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		c.logger.Warn(errors.Wrap(err, "decoding reference snapshot").Error(), err)
		return false
	}
	if last := c.lastMutation.Load(); last != 0 && snap.LoadedAt.UnixNano() < last {
		// loaded before a mutation of this cache: the collections are newer
		return false
	}
	b := snap.Bundle
	c.Branches.Replace(b.Branches)
	c.AcademicYears.Replace(b.AcademicYears)
	c.Classes.Replace(b.Classes)
	c.Sections.Replace(b.Sections)
	c.Courses.Replace(b.Courses)
	c.Subjects.Replace(b.Subjects)
	c.FeeStructures.Replace(b.FeeStructures)
	c.Taxes.Replace(b.Taxes)
	c.TransportRoutes.Replace(b.TransportRoutes)
	c.Hostels.Replace(b.Hostels)
	c.yearID = b.AcademicYearID
	return true
}

// persist saves the bundle unless a mutation landed since the load started at generation.
func (c *Cache) persist(ctx context.Context, requested string, b Bundle, startedAt time.Time, generation uint64) {
	if c.snapshots == nil || c.generation.Load() != generation {
		return
	}
	payload, err := json.Marshal(snapshot{LoadedAt: startedAt, Bundle: b})
	if err != nil {
		c.logger.Warn(errors.Wrap(err, "encoding reference snapshot").Error(), err)
		return
	}
	// a load for the default year is also found under the year's own key
	keys := []string{c.snapshotKey(requested)}
	if requested != b.AcademicYearID {
		keys = append(keys, c.snapshotKey(b.AcademicYearID))
	}
	for _, key := range keys {
		if err := c.snapshots.Save(ctx, key, payload, c.ttl); err != nil {
			c.logger.Warn(errors.Wrap(err, "saving reference snapshot").Error(), err)
		}
	}
	if c.generation.Load() != generation {
		// a mutation invalidated before the save: drop what was just written
		for _, key := range keys {
			if err := c.snapshots.Invalidate(context.WithoutCancel(ctx), key); err != nil {
				c.logger.Warn(errors.Wrap(err, "invalidating reference snapshot").Error(), err)
			}
		}
	}
}

// Service keeps one Cache per scope.
type Service struct {
	remotes   Remotes
	snapshots store.SnapshotStore
	ttl       time.Duration
	logger    core.Logger

	mu     sync.Mutex
	caches map[core.Scope]*Cache
}

func NewService(remotes Remotes, snapshots store.SnapshotStore, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		remotes:   remotes,
		snapshots: snapshots,
		ttl:       conf.Cache.TTL,
		logger:    logger,
		caches:    make(map[core.Scope]*Cache),
	}
}

func (svc *Service) Cache(scope core.Scope) *Cache {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	c, ok := svc.caches[scope]
	if !ok {
		c = newCache(scope, svc.remotes, svc.snapshots, svc.ttl, svc.logger)
		svc.caches[scope] = c
	}
	return c
}

// Load loads the reference data of scope, see Cache.Load.
func (svc *Service) Load(ctx context.Context, scope core.Scope, yearID string, force bool) (Bundle, error) {
	return svc.Cache(scope).Load(ctx, yearID, force)
}

// Taxes returns the taxes of scope, fetching them when the cache is empty.
func (svc *Service) Taxes(ctx context.Context, scope core.Scope) ([]finance.Tax, error) {
	c := svc.Cache(scope)
	if !c.Taxes.Loaded() {
		q := url.Values{}
		if scope.BranchID != "" {
			q.Set("branchId", scope.BranchID)
		}
		if err := c.Taxes.Fetch(ctx, q); err != nil {
			return nil, errors.Wrap(err, "loading taxes")
		}
	}
	return c.Taxes.Items(), nil
}
