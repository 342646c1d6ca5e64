// Package player owns the in-memory per-identity records shared by every
// service. Records are sharded by identity hash; there is no lock spanning
// more than one shard and never one spanning every player.
package player

import (
	"context"
	"hash/fnv"
	"sync"

	"mythic_prison/internal/domain"
)

const shardCount = 32

type shard struct {
	mu sync.RWMutex
	m  map[domain.Identity]*State
}

// Registry maps identities to their records.
type Registry struct {
	shards [shardCount]shard
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].m = make(map[domain.Identity]*State)
	}
	return r
}

func (r *Registry) shardFor(id domain.Identity) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &r.shards[h.Sum32()%shardCount]
}

// Register returns the record for id, creating an unhydrated one when absent.
// created tells the caller it is responsible for hydrating it.
func (r *Registry) Register(id domain.Identity) (st *State, created bool) {
	sh := r.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if st, ok := sh.m[id]; ok {
		return st, false
	}
	st = newState(id)
	sh.m[id] = st
	return st, true
}

// Get returns the record for id, hydrated or not.
func (r *Registry) Get(id domain.Identity) (*State, bool) {
	sh := r.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	st, ok := sh.m[id]
	return st, ok
}

// remove drops st only if it is still the record registered for its id.
func (r *Registry) remove(st *State) {
	sh := r.shardFor(st.id)
	sh.mu.Lock()
	if cur, ok := sh.m[st.id]; ok && cur == st {
		delete(sh.m, st.id)
	}
	sh.mu.Unlock()
}

// Discard drops a record that never finished hydrating.
func (r *Registry) Discard(st *State) {
	st.mu.Lock()
	st.evicted = true
	st.mu.Unlock()
	r.remove(st)
}

// Len counts registered records.
func (r *Registry) Len() int {
	n := 0
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.RLock()
		n += len(sh.m)
		sh.mu.RUnlock()
	}
	return n
}

// Range calls fn for every registered record until fn returns false. fn must
// not call back into the registry's write methods.
func (r *Registry) Range(fn func(*State) bool) {
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.RLock()
		states := make([]*State, 0, len(sh.m))
		for _, st := range sh.m {
			states = append(states, st)
		}
		sh.mu.RUnlock()
		for _, st := range states {
			if !fn(st) {
				return
			}
		}
	}
}

// Fn receives the live profile while the identity lock is held. It must not
// retain p or any map inside it after returning.
type Fn func(p *domain.Profile, sess Session) error

// With waits for id to be hydrated and runs fn inside its critical section.
func (r *Registry) With(ctx context.Context, id domain.Identity, fn Fn) error {
	st, ok := r.Get(id)
	if !ok {
		return domain.ErrPlayerNotLoaded
	}
	if err := st.Wait(ctx); err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.evicted || st.profile == nil {
		return domain.ErrPlayerNotLoaded
	}
	return fn(st.profile, Session{s: st})
}

// PairFn receives both live profiles while both identity locks are held.
type PairFn func(a, b *domain.Profile) error

// WithPair locks two distinct identities in lexicographic order and runs fn.
func (r *Registry) WithPair(ctx context.Context, a, b domain.Identity, fn PairFn) error {
	if a == b {
		return domain.ErrSelfTransfer
	}
	sa, ok := r.Get(a)
	if !ok {
		return domain.ErrPlayerNotLoaded
	}
	sb, ok := r.Get(b)
	if !ok {
		return domain.ErrPlayerNotLoaded
	}
	if err := sa.Wait(ctx); err != nil {
		return err
	}
	if err := sb.Wait(ctx); err != nil {
		return err
	}

	first, second := sa, sb
	if b < a {
		first, second = sb, sa
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if sa.evicted || sb.evicted || sa.profile == nil || sb.profile == nil {
		return domain.ErrPlayerNotLoaded
	}
	return fn(sa.profile, sb.profile)
}

// EvictIf runs cond under the identity lock and, when it returns true, marks
// the record evicted and unregisters it. Later With calls on a stale pointer
// fail with ErrPlayerNotLoaded.
func (r *Registry) EvictIf(id domain.Identity, cond func(Session) bool) (*State, bool) {
	st, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	st.mu.Lock()
	if st.evicted || !cond(Session{s: st}) {
		st.mu.Unlock()
		return st, false
	}
	st.evicted = true
	st.mu.Unlock()
	r.remove(st)
	return st, true
}
