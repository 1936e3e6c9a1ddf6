/*
	Package storage implements the chunked voxel store: copy-on-write chunk
	ownership, a bounded resident set with least-recently-used eviction, and
	a compressed cold tier so cache pressure never loses voxel data.
*/
package storage

import (
	"container/list"
	"fmt"
	"sort"
	"sync"

	"github.com/DmitriyVTitov/size"
	"github.com/coocood/freecache"
	"github.com/dustin/go-humanize"

	"github.com/voxelforge/voxwfc/vox"
)

// residentChunk tracks ownership state for one resident chunk.
type residentChunk struct {
	chunk *Chunk

	// shared is set once the chunk has been handed out via Get.  The next
	// GetMut must fork so prior holders observe no change.
	shared bool

	// exclusive is set while a GetMut holder is outstanding.  Eviction
	// skips exclusive chunks.
	exclusive bool

	elem *list.Element
}

// Store owns fixed-size voxel chunks keyed by chunk point.  Reads of absent
// regions cost nothing; writes allocate lazily; cold chunks are compressed
// rather than discarded.
//
// Concurrent Get calls are safe.  GetMut must be serialized per chunk point
// by the caller: the store guarantees the copy-on-write fork itself, not
// mutual exclusion of two writers racing on one chunk.
type Store struct {
	mu sync.Mutex

	shape    vox.Pow2Shape
	compress vox.Compression
	checksum vox.Checksum

	maxResident int
	maxEvict    int

	resident map[vox.ChunkPoint3d]*residentChunk
	lru      *list.List // front = most recently used chunk point
	cold     map[vox.ChunkPoint3d][]byte

	// coldCache fronts the cold tier with recently decompressed voxel
	// payloads.  It is best-effort: a miss or a dropped entry falls back to
	// the authoritative compressed blob.
	coldCache *freecache.Cache

	// emptyVoxels backs the synthetic all-empty chunks returned for reads
	// of never-written regions.
	emptyVoxels []vox.VoxelID
}

// NewStore returns a store for chunks of the configured shape.
func NewStore(c vox.Config) *Store {
	shape := c.ChunkShape()
	return &Store{
		shape:       shape,
		compress:    c.ChunkCompression(),
		checksum:    c.ChunkChecksum(),
		maxResident: c.Cache.MaxResidentChunks,
		maxEvict:    c.Cache.MaxEvictionsPerPass,
		resident:    make(map[vox.ChunkPoint3d]*residentChunk),
		lru:         list.New(),
		cold:        make(map[vox.ChunkPoint3d][]byte),
		coldCache:   freecache.NewCache(c.Cache.ColdCacheMB * 1024 * 1024),
		emptyVoxels: make([]vox.VoxelID, shape.Size()),
	}
}

// Shape returns the chunk shape used by this store.
func (s *Store) Shape() vox.Pow2Shape {
	return s.shape
}

// Get returns a read-only view of the chunk at the given chunk point.  If
// the chunk was evicted, it is decompressed; if it was never written, a
// synthetic all-empty chunk is returned and no storage is allocated.  The
// returned chunk must not be written: it may be shared with other readers.
//
// The copy-on-write fork happens on the next GetMut after a share, not on
// Get: a Get issued while another caller still holds the chunk via GetMut
// returns the chunk that writer is mutating, so such a reader observes
// in-progress writes until the hold is released.  Reads taken before a
// GetMut, or after Release, always see a stable snapshot.
func (s *Store) Get(cp vox.ChunkPoint3d) (*Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rc, found := s.resident[cp]; found {
		rc.shared = true
		s.lru.MoveToFront(rc.elem)
		return rc.chunk, nil
	}

	if blob, found := s.cold[cp]; found {
		return s.thawLocked(cp, blob)
	}

	// Never written.  Reads of empty space share one zeroed payload.
	return &Chunk{cp: cp, shape: s.shape, voxels: s.emptyVoxels}, nil
}

// thawLocked materializes a cold chunk for reading without promoting it to
// the resident set, going through the decompressed-payload cache first.
func (s *Store) thawLocked(cp vox.ChunkPoint3d, blob []byte) (*Chunk, error) {
	key := chunkKey(cp)
	if payload, err := s.coldCache.Get(key); err == nil && uint32(len(payload)) == s.shape.Size() {
		chunk := NewChunk(cp, s.shape)
		copy(chunk.voxels, bytesToVoxels(payload))
		return chunk, nil
	}

	chunk, err := s.decompress(cp, blob)
	if err != nil {
		return nil, err
	}
	// Best-effort: freecache may refuse oversized entries.
	if err := s.coldCache.Set(key, voxelsToBytes(chunk.voxels), 0); err != nil {
		vox.Debugf("cold cache refused chunk %s: %v\n", cp, err)
	}
	return chunk, nil
}

// GetMut returns the chunk at the given chunk point for exclusive write
// access.  A chunk currently shared with readers is forked first
// (copy-on-write), an evicted chunk is decompressed and made resident, and
// an absent chunk is created empty.  The caller must call Release when done
// writing so the chunk becomes evictable again.
func (s *Store) GetMut(cp vox.ChunkPoint3d) (*Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rc, found := s.resident[cp]; found {
		if rc.shared {
			// Fork: readers keep the old payload untouched.
			rc.chunk = rc.chunk.clone()
			rc.shared = false
		}
		rc.exclusive = true
		s.lru.MoveToFront(rc.elem)
		return rc.chunk, nil
	}

	var chunk *Chunk
	if blob, found := s.cold[cp]; found {
		var err error
		if chunk, err = s.decompress(cp, blob); err != nil {
			return nil, err
		}
		delete(s.cold, cp)
		s.coldCache.Del(chunkKey(cp))
	} else {
		chunk = NewChunk(cp, s.shape)
	}

	rc := &residentChunk{chunk: chunk, exclusive: true}
	rc.elem = s.lru.PushFront(cp)
	s.resident[cp] = rc
	return chunk, nil
}

// Release drops the exclusive hold on a chunk taken via GetMut.  Releasing
// a chunk that is not held is a no-op.
func (s *Store) Release(cp vox.ChunkPoint3d) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rc, found := s.resident[cp]; found {
		rc.exclusive = false
	}
}

// Touch updates the recency metadata used by eviction.
func (s *Store) Touch(cp vox.ChunkPoint3d) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rc, found := s.resident[cp]; found {
		s.lru.MoveToFront(rc.elem)
	}
}

// Maintain runs the eviction policy: while the resident count exceeds the
// configured bound, least-recently-used chunks without a live exclusive
// holder are compressed into the cold tier.  At most the configured number
// of chunks are compressed per call to bound the cost of a single pass.
// Best-effort: if every candidate is exclusively held, the bound may remain
// exceeded until the next pass.
func (s *Store) Maintain() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	elem := s.lru.Back()
	for elem != nil && len(s.resident) > s.maxResident && evicted < s.maxEvict {
		prev := elem.Prev()
		cp := elem.Value.(vox.ChunkPoint3d)
		rc := s.resident[cp]
		if rc.exclusive {
			elem = prev
			continue
		}
		blob, err := vox.SerializeData(voxelsToBytes(rc.chunk.voxels), s.compress, s.checksum)
		if err != nil {
			return fmt.Errorf("evicting chunk %s: %v", cp, err)
		}
		s.cold[cp] = blob
		s.lru.Remove(elem)
		delete(s.resident, cp)
		s.coldCache.Del(chunkKey(cp))
		evicted++
		elem = prev
	}
	if evicted > 0 {
		vox.Debugf("evicted %d chunks, %d resident, %d cold\n", evicted, len(s.resident), len(s.cold))
	}
	return nil
}

// decompress reconstitutes a chunk from its cold blob.  Failure is a store
// integrity error for that chunk; the rest of the store stays usable.
func (s *Store) decompress(cp vox.ChunkPoint3d, blob []byte) (*Chunk, error) {
	payload, err := vox.DeserializeData(blob)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", cp, err)
	}
	if uint32(len(payload)) != s.shape.Size() {
		return nil, fmt.Errorf("chunk %s decompressed to %d voxels, shape wants %d: %w",
			cp, len(payload), s.shape.Size(), vox.ErrStoreIntegrity)
	}
	chunk := NewChunk(cp, s.shape)
	copy(chunk.voxels, bytesToVoxels(payload))
	return chunk, nil
}

// ChunkPoints returns every chunk point with stored data, resident or cold,
// in the fixed lexicographic visitation order.
func (s *Store) ChunkPoints() []vox.ChunkPoint3d {
	s.mu.Lock()
	points := make([]vox.ChunkPoint3d, 0, len(s.resident)+len(s.cold))
	for cp := range s.resident {
		points = append(points, cp)
	}
	for cp := range s.cold {
		points = append(points, cp)
	}
	s.mu.Unlock()

	sortChunkPoints(points)
	return points
}

// Snapshot returns the serializable state of one stored chunk.
func (s *Store) Snapshot(cp vox.ChunkPoint3d) (ChunkSnapshot, error) {
	chunk, err := s.Get(cp)
	if err != nil {
		return ChunkSnapshot{}, err
	}
	return chunk.Snapshot(), nil
}

// Restore loads a chunk snapshot into the store, replacing any stored state
// at that chunk point.  Restoring over a chunk with an outstanding GetMut
// hold is rejected; the caller must Release first.
func (s *Store) Restore(snapshot ChunkSnapshot) error {
	chunk, err := ChunkFromSnapshot(snapshot)
	if err != nil {
		return err
	}
	if chunk.shape != s.shape {
		return fmt.Errorf("snapshot chunk shape %s does not match store %s", chunk.shape, s.shape)
	}
	cp := snapshot.ChunkPoint

	s.mu.Lock()
	defer s.mu.Unlock()
	if rc, found := s.resident[cp]; found && rc.exclusive {
		// Swapping the payload under a live writer would orphan its chunk and
		// silently drop its writes.
		return fmt.Errorf("cannot restore chunk %s: outstanding exclusive hold", cp)
	}
	delete(s.cold, cp)
	s.coldCache.Del(chunkKey(cp))
	if rc, found := s.resident[cp]; found {
		rc.chunk = chunk
		rc.shared = false
		s.lru.MoveToFront(rc.elem)
		return nil
	}
	rc := &residentChunk{chunk: chunk}
	rc.elem = s.lru.PushFront(cp)
	s.resident[cp] = rc
	return nil
}

// Stats describes the store's current occupancy.
type Stats struct {
	ResidentChunks int
	ColdChunks     int
	ResidentBytes  int
	ColdBytes      int
}

// Stats returns the store's current occupancy.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	coldBytes := 0
	for _, blob := range s.cold {
		coldBytes += len(blob)
	}
	return Stats{
		ResidentChunks: len(s.resident),
		ColdChunks:     len(s.cold),
		ResidentBytes:  size.Of(s.resident),
		ColdBytes:      coldBytes,
	}
}

func (st Stats) String() string {
	return fmt.Sprintf("%d resident chunks (%s), %d cold chunks (%s)",
		st.ResidentChunks, humanize.Bytes(uint64(st.ResidentBytes)),
		st.ColdChunks, humanize.Bytes(uint64(st.ColdBytes)))
}

func sortChunkPoints(points []vox.ChunkPoint3d) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].Less(points[j])
	})
}

func voxelsToBytes(voxels []vox.VoxelID) []byte {
	b := make([]byte, len(voxels))
	for i, v := range voxels {
		b[i] = byte(v)
	}
	return b
}

func bytesToVoxels(b []byte) []vox.VoxelID {
	voxels := make([]vox.VoxelID, len(b))
	for i, c := range b {
		voxels[i] = vox.VoxelID(c)
	}
	return voxels
}
