package guardianset

import (
	"math"
	"sort"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Persister durably records guardian set transitions before they become
// visible to readers.
type Persister interface {
	SaveTransition(superseded, installed *GuardianSet) error
}

// snapshot is an immutable view of every known set.
type snapshot struct {
	sets    map[uint32]*GuardianSet
	current *GuardianSet
}

// Registry is the versioned, append-only list of guardian sets.
//
// Readers load an immutable snapshot and never block. Install is serialized
// by a mutex and publishes a new snapshot only after it has been persisted.
type Registry struct {
	mu        sync.Mutex
	state     *atomic.Pointer[snapshot]
	persister Persister
	grace     time.Duration
	logger    *zap.Logger

	onInstall []func(*GuardianSet)
}

// NewRegistry creates an in-memory registry whose current set is genesis.
func NewRegistry(genesis *GuardianSet, grace time.Duration, logger *zap.Logger) (*Registry, error) {
	if err := genesis.Validate(); err != nil {
		return nil, err
	}

	current := genesis.Copy()
	current.ExpirationTime = 0

	return newRegistry([]*GuardianSet{current}, grace, nil, logger), nil
}

// LoadRegistry restores the registry from store. If the store is empty the
// genesis set is written to it first.
func LoadRegistry(store *Store, genesis *GuardianSet, grace time.Duration, logger *zap.Logger) (*Registry, error) {
	sets, err := store.ListGuardianSets()
	if err != nil {
		return nil, err
	}

	if len(sets) == 0 {
		if genesis == nil {
			return nil, errorsmod.Wrap(ErrGuardianSetNotFound, "store is empty and no genesis set is configured")
		}
		if err := genesis.Validate(); err != nil {
			return nil, err
		}
		g := genesis.Copy()
		g.ExpirationTime = 0
		if err := store.SaveTransition(nil, g); err != nil {
			return nil, err
		}
		logger.Info("stored genesis guardian set",
			zap.Uint32("guardian_set_index", g.Index),
			zap.Int("num_guardians", len(g.Keys)),
		)
		sets = []*GuardianSet{g}
	}

	return newRegistry(sets, grace, store, logger), nil
}

func newRegistry(sets []*GuardianSet, grace time.Duration, persister Persister, logger *zap.Logger) *Registry {
	snap := &snapshot{sets: make(map[uint32]*GuardianSet, len(sets))}
	for _, gs := range sets {
		snap.sets[gs.Index] = gs
		if snap.current == nil || gs.Index > snap.current.Index {
			snap.current = gs
		}
	}

	return &Registry{
		state:     atomic.NewPointer(snap),
		persister: persister,
		grace:     grace,
		logger:    logger,
	}
}

// Get returns the set with the given index, including superseded and
// expired ones.
func (r *Registry) Get(index uint32) (*GuardianSet, error) {
	gs, ok := r.state.Load().sets[index]
	if !ok {
		return nil, errorsmod.Wrapf(ErrGuardianSetNotFound, "index %d", index)
	}
	return gs, nil
}

// Current returns the active set.
func (r *Registry) Current() *GuardianSet {
	return r.state.Load().current
}

// GracePeriod is how long a superseded set keeps verifying.
func (r *Registry) GracePeriod() time.Duration {
	return r.grace
}

// OnInstall registers a callback invoked with every newly installed set.
// It must be called before the registry is shared.
func (r *Registry) OnInstall(fn func(*GuardianSet)) {
	r.onInstall = append(r.onInstall, fn)
}

// Install makes newSet the current set and starts the grace window of the
// previous one. newSet.Index must be exactly one above the current index.
// On any error the registry is left unchanged.
func (r *Registry) Install(newSet *GuardianSet, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.state.Load()
	prev := snap.current

	if prev.Index == math.MaxUint32 || newSet.Index != prev.Index+1 {
		r.logger.Error("rejected guardian set install with a non-sequential index",
			zap.Uint32("current_index", prev.Index),
			zap.Uint32("new_index", newSet.Index),
		)
		return errorsmod.Wrapf(ErrInvalidIndex, "current index is %d, got %d", prev.Index, newSet.Index)
	}
	if err := newSet.Validate(); err != nil {
		return err
	}

	superseded := prev.Copy()
	superseded.ExpirationTime = uint64(now.Add(r.grace).Unix())

	installed := newSet.Copy()
	installed.CreationTime = uint64(now.Unix())
	installed.ExpirationTime = 0

	if r.persister != nil {
		if err := r.persister.SaveTransition(superseded, installed); err != nil {
			return err
		}
	}

	next := &snapshot{
		sets:    make(map[uint32]*GuardianSet, len(snap.sets)+1),
		current: installed,
	}
	for idx, gs := range snap.sets {
		next.sets[idx] = gs
	}
	next.sets[superseded.Index] = superseded
	next.sets[installed.Index] = installed
	r.state.Store(next)

	r.logger.Info("installed new guardian set",
		zap.Uint32("guardian_set_index", installed.Index),
		zap.Int("num_guardians", len(installed.Keys)),
		zap.Uint32("superseded_index", superseded.Index),
		zap.Uint64("superseded_expiration", superseded.ExpirationTime),
	)

	for _, fn := range r.onInstall {
		fn(installed)
	}

	return nil
}

// Indices returns the indices of all known sets in ascending order.
func (r *Registry) Indices() []uint32 {
	snap := r.state.Load()
	out := make([]uint32, 0, len(snap.sets))
	for idx := range snap.sets {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
