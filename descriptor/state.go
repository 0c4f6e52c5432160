package descriptor

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// boundSlot is the contents of one binding slot: a resource identity plus the
// bound byte range. The same resource bound at a different range is a
// different binding.
type boundSlot struct {
	res    *Resource
	offset int
	length int
}

// kindState tracks what is bound for one (stage, kind) pair: the slot array,
// a validity flag, and the running hash over all bound identities. The hash
// is recomputed lazily, only when a bind or an identity change dirtied it.
type kindState struct {
	slots []boundSlot
	valid bool
	hash  uint64
	count int
}

func hashWrite(h *xxhash.Digest, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

func (s *kindState) recompute() {
	h := xxhash.New()
	count := 0
	for i := range s.slots {
		slot := &s.slots[i]
		if slot.res == nil {
			continue
		}
		count++
		hashWrite(h, uint64(i))
		hashWrite(h, uint64(slot.res.handle))
		hashWrite(h, uint64(slot.res.generation))
		hashWrite(h, uint64(slot.offset))
		hashWrite(h, uint64(slot.length))
	}
	s.count = count
	s.hash = h.Sum64()
	s.valid = true
}

// StateTracker maintains, per shader stage and descriptor kind, a hash of
// everything currently bound. It is mutated only by the recording goroutine
// and requires no synchronization by itself.
type StateTracker struct {
	states [NumStages][NumKinds]kindState
}

// Bind updates a slot and marks the (stage, kind) hash dirty. It returns the
// resource previously occupying the slot, if any.
func (t *StateTracker) Bind(stage Stage, kind Kind, slot int, res *Resource, offset, length int) *Resource {
	ks := &t.states[stage][kind]
	for len(ks.slots) <= slot {
		ks.slots = append(ks.slots, boundSlot{})
	}

	prev := ks.slots[slot].res
	ks.slots[slot] = boundSlot{res: res, offset: offset, length: length}
	ks.valid = false
	return prev
}

// Invalidate clears the validity flag for a (stage, kind) pair, forcing a
// hash recompute on the next read. Called when a bound resource's identity
// changes underneath the binding.
func (t *StateTracker) Invalidate(stage Stage, kind Kind) {
	t.states[stage][kind].valid = false
}

// StateHash returns the cached hash for a (stage, kind) pair, recomputing it
// only if dirty, along with the number of occupied slots.
func (t *StateTracker) StateHash(stage Stage, kind Kind) (uint64, int) {
	ks := &t.states[stage][kind]
	if !ks.valid {
		ks.recompute()
	}
	return ks.hash, ks.count
}

// stateKey identifies a full per-kind binding state across stages: which
// stages participate and each stage's state hash. Keys are comparable;
// element-wise equality is the cache-equality relation, so hash collisions in
// the merged value are never conflated.
type stateKey struct {
	exists [NumStages]bool
	hash   [NumStages]uint64
}

func (k stateKey) merged() uint64 {
	h := xxhash.New()
	for i := 0; i < NumStages; i++ {
		if !k.exists[i] {
			continue
		}
		hashWrite(h, uint64(i))
		hashWrite(h, k.hash[i])
	}
	return h.Sum64()
}

// ProgramKey assembles the cross-stage state key for one kind, for either the
// graphics stages or the compute stage. The bool result is false when nothing
// of this kind is bound at all.
func (t *StateTracker) ProgramKey(kind Kind, compute bool) (stateKey, uint64, bool) {
	var key stateKey
	any := false

	visit := func(stage Stage) {
		hash, count := t.StateHash(stage, kind)
		if count == 0 {
			return
		}
		key.exists[stage] = true
		key.hash[stage] = hash
		any = true
	}

	if compute {
		visit(StageCompute)
	} else {
		for stage := Stage(0); stage < NumGraphicsStages; stage++ {
			visit(stage)
		}
	}

	return key, key.merged(), any
}

// LayoutBindings synthesizes the layout binding tuples matching the current
// binding shape for one kind, ordered by stage then slot.
func (t *StateTracker) LayoutBindings(kind Kind, compute bool) []LayoutBinding {
	var bindings []LayoutBinding
	t.visitBound(kind, compute, func(stage Stage, slot int, _ *boundSlot) {
		bindings = append(bindings, LayoutBinding{
			Binding: bindingNumber(stage, slot),
			Type:    kind.NativeType(),
			Count:   1,
			Stages:  stage.Native(),
		})
	})
	return bindings
}

// visitBound walks every occupied slot of a kind in deterministic order.
func (t *StateTracker) visitBound(kind Kind, compute bool, visit func(stage Stage, slot int, s *boundSlot)) {
	walk := func(stage Stage) {
		ks := &t.states[stage][kind]
		for i := range ks.slots {
			if ks.slots[i].res != nil {
				visit(stage, i, &ks.slots[i])
			}
		}
	}

	if compute {
		walk(StageCompute)
		return
	}
	for stage := Stage(0); stage < NumGraphicsStages; stage++ {
		walk(stage)
	}
}
