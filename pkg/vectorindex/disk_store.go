package vectorindex

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// DiskStore keeps one flat index file per user under dir, gob-encoded.
// Loaded indexes are cached in memory with a TTL so repeated searches do not
// re-read the file. Vectors are expected to be unit length, so cosine
// similarity reduces to a dot product.
type DiskStore struct {
	dir    string
	loaded *cache.Cache
}

var _ Store = &DiskStore{}

func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		dir = "user_indexes"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	return &DiskStore{
		dir:    dir,
		loaded: cache.New(1*time.Hour, 10*time.Minute),
	}, nil
}

// path derives the persisted location exclusively from the user id, which is
// the isolation boundary: no two users can collide on a path.
func (s *DiskStore) path(userId uuid.UUID) string {
	return filepath.Join(s.dir, fmt.Sprintf("user_%s.index", userId))
}

func (s *DiskStore) load(userId uuid.UUID) ([]Entry, error) {
	key := userId.String()
	if x, found := s.loaded.Get(key); found {
		return x.([]Entry), nil
	}

	file, err := os.Open(s.path(userId))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []Entry
	if err := gob.NewDecoder(file).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode index for user %s: %w", userId, err)
	}
	s.loaded.Set(key, entries, cache.DefaultExpiration)
	return entries, nil
}

// persist writes the full entry set to a temp file and renames it into
// place, so the on-disk index never reflects a partial insert.
func (s *DiskStore) persist(userId uuid.UUID, entries []Entry) error {
	tmp, err := os.CreateTemp(s.dir, fmt.Sprintf("user_%s.index.tmp-*", userId))
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(entries); err != nil {
		tmp.Close()
		return fmt.Errorf("encode index for user %s: %w", userId, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path(userId)); err != nil {
		return err
	}
	s.loaded.Set(userId.String(), entries, cache.DefaultExpiration)
	return nil
}

func (s *DiskStore) Insert(_ context.Context, userId uuid.UUID, entries []Entry) error {
	existing, err := s.load(userId)
	if err != nil {
		return err
	}

	superseded := make(map[string]bool, len(entries))
	for _, entry := range entries {
		superseded[entry.Chunk.Metadata.FileId] = true
	}

	merged := make([]Entry, 0, len(existing)+len(entries))
	for _, entry := range existing {
		if superseded[entry.Chunk.Metadata.FileId] {
			continue
		}
		merged = append(merged, entry)
	}
	merged = append(merged, entries...)
	return s.persist(userId, merged)
}

func (s *DiskStore) Search(_ context.Context, userId uuid.UUID, vector []float32, k int, minScore float64) ([]ScoredChunk, error) {
	entries, err := s.load(userId)
	if err != nil {
		return nil, err
	}

	var hits []ScoredChunk
	for _, entry := range entries {
		score := dot(vector, entry.Vector)
		if score > minScore {
			hits = append(hits, ScoredChunk{Chunk: entry.Chunk, Similarity: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *DiskStore) Clear(_ context.Context, userId uuid.UUID) error {
	return s.persist(userId, []Entry{})
}

func (s *DiskStore) Chunks(_ context.Context, userId uuid.UUID) ([]DocumentChunk, error) {
	entries, err := s.load(userId)
	if err != nil {
		return nil, err
	}
	chunks := make([]DocumentChunk, len(entries))
	for i, entry := range entries {
		chunks[i] = entry.Chunk
	}
	return chunks, nil
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
