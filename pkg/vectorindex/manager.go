package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"ai-agent-be/pkg/embedding"

	"github.com/google/uuid"
)

// Manager owns the lifecycle of per-user indexes: it embeds chunk and query
// text, serializes mutations per user, and shapes the upload inventory.
// Cross-user operations never contend on the same lock.
type Manager struct {
	embedder embedding.Provider
	store    Store

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewManager(embedder embedding.Provider, store Store) *Manager {
	return &Manager{
		embedder: embedder,
		store:    store,
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

func (m *Manager) userLock(userId uuid.UUID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[userId]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userId] = lock
	}
	return lock
}

// Add embeds every chunk and inserts them into the user's index in one
// persisted batch. Chunks carrying an already indexed file id supersede that
// file's previous chunks.
func (m *Manager) Add(ctx context.Context, userId uuid.UUID, chunks []DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	entries := make([]Entry, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := m.embedder.Generate(ctx, chunk.Content)
		if err != nil {
			return fmt.Errorf("embed chunk of %s: %w", chunk.Metadata.Filename, err)
		}
		entries = append(entries, Entry{
			Id:     uuid.New(),
			Vector: vector,
			Chunk:  chunk,
		})
	}

	lock := m.userLock(userId)
	lock.Lock()
	defer lock.Unlock()
	return m.store.Insert(ctx, userId, entries)
}

// Search embeds the query and returns up to k chunks whose similarity is
// strictly greater than minScore, best first. An empty index is an empty
// result, not an error.
func (m *Manager) Search(ctx context.Context, userId uuid.UUID, query string, k int, minScore float64) ([]ScoredChunk, error) {
	vector, err := m.embedder.Generate(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	lock := m.userLock(userId)
	lock.Lock()
	defer lock.Unlock()
	return m.store.Search(ctx, userId, vector, k, minScore)
}

// Clear replaces the user's index with an empty one. Prior content is gone
// for good.
func (m *Manager) Clear(ctx context.Context, userId uuid.UUID) error {
	lock := m.userLock(userId)
	lock.Lock()
	defer lock.Unlock()
	return m.store.Clear(ctx, userId)
}

// Summary renders the user's upload inventory as one line per file, for
// embedding into the live system message.
func (m *Manager) Summary(ctx context.Context, userId uuid.UUID) (string, error) {
	files, err := m.dedupedFiles(ctx, userId)
	if err != nil {
		return "", err
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].FolderPath != files[j].FolderPath {
			return files[i].FolderPath < files[j].FolderPath
		}
		return files[i].Name < files[j].Name
	})

	lines := make([]string, 0, len(files))
	for _, f := range files {
		folder := f.FolderPath
		if folder == "" {
			folder = "Top-level"
		}
		lines = append(lines, fmt.Sprintf("- %s (folder: %s)", f.Name, folder))
	}
	return strings.Join(lines, "\n"), nil
}

// Metadata groups the deduplicated inventory: files without a folder stay
// flat, the rest group under the top-level segment of their folder path.
func (m *Manager) Metadata(ctx context.Context, userId uuid.UUID) (*Inventory, error) {
	files, err := m.dedupedFiles(ctx, userId)
	if err != nil {
		return nil, err
	}

	inventory := &Inventory{
		Files:   []FileRecord{},
		Folders: []FolderGroup{},
	}
	grouped := make(map[string][]FileRecord)
	for _, f := range files {
		if f.FolderPath == "" {
			inventory.Files = append(inventory.Files, f)
			continue
		}
		root := strings.SplitN(f.FolderPath, "/", 2)[0]
		grouped[root] = append(grouped[root], f)
	}

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		group := grouped[name]
		sort.Slice(group, func(i, j int) bool {
			if group[i].FolderPath != group[j].FolderPath {
				return group[i].FolderPath < group[j].FolderPath
			}
			return group[i].Name < group[j].Name
		})
		inventory.Folders = append(inventory.Folders, FolderGroup{
			Id:    uuid.NewString(),
			Name:  name,
			Files: group,
		})
	}
	return inventory, nil
}

// dedupedFiles collapses chunks to files by file id, first occurrence wins.
func (m *Manager) dedupedFiles(ctx context.Context, userId uuid.UUID) ([]FileRecord, error) {
	lock := m.userLock(userId)
	lock.Lock()
	chunks, err := m.store.Chunks(ctx, userId)
	lock.Unlock()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var files []FileRecord
	for _, chunk := range chunks {
		meta := chunk.Metadata
		if seen[meta.FileId] {
			continue
		}
		seen[meta.FileId] = true
		files = append(files, FileRecord{
			Id:         meta.FileId,
			Name:       meta.Filename,
			FolderPath: meta.FolderPath,
		})
	}
	return files, nil
}
