// Package memory persists captured snippets (clipboard text, notes) with
// their embeddings and serves similarity search over them. This is the
// retrieval corpus behind clipboard-grounded answers.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Omkar399/project-z/internal/embedding"
	"github.com/Omkar399/project-z/internal/logging"
)

// Snippet is one captured item.
type Snippet struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Source    string    `json:"source,omitempty"` // app the text was captured from
	CreatedAt time.Time `json:"created_at"`
	Embedding []float32 `json:"-"`
}

// SearchResult pairs a snippet with its similarity to the query.
type SearchResult struct {
	Snippet    Snippet
	Similarity float64
}

// Store manages the snippet database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// NewStore creates or opens the snippet store under dataDir.
func NewStore(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "memory.db")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snippets (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		source TEXT,
		created_at DATETIME NOT NULL,
		embedding BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_snippets_created ON snippets(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Add stores a new snippet. The embedding may be nil; such snippets are
// returned by Recent but never matched by Search.
func (s *Store) Add(snippet *Snippet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snippet.ID == "" {
		snippet.ID = uuid.New().String()
	}
	if snippet.CreatedAt.IsZero() {
		snippet.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO snippets (id, content, source, created_at, embedding)
		VALUES (?, ?, ?, ?, ?)
	`, snippet.ID, snippet.Content, snippet.Source, snippet.CreatedAt,
		float32SliceToBytes(snippet.Embedding))

	if err != nil {
		return fmt.Errorf("failed to store snippet: %w", err)
	}

	logging.Memory("Stored snippet %s (%d chars, source=%q)", snippet.ID, len(snippet.Content), snippet.Source)
	return nil
}

// Delete removes a snippet by ID.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("snippet not found: %s", id)
	}
	return nil
}

// Recent retrieves the most recently captured snippets.
func (s *Store) Recent(limit int) ([]Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, content, source, created_at, embedding
		FROM snippets
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSnippets(rows)
}

// Count returns the number of stored snippets.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM snippets`).Scan(&count)
	return count, err
}

// Search ranks all embedded snippets against the query vector and returns
// the top K by cosine similarity.
func (s *Store) Search(queryVec []float32, topK int) ([]SearchResult, error) {
	timer := logging.StartTimer(logging.CategoryMemory, "Search")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, content, source, created_at, embedding
		FROM snippets
		WHERE embedding IS NOT NULL
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snippets, err := scanSnippets(rows)
	if err != nil {
		return nil, err
	}

	corpus := make([][]float32, len(snippets))
	for i := range snippets {
		corpus[i] = snippets[i].Embedding
	}

	ranked, err := embedding.FindTopK(queryVec, corpus, topK)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, SearchResult{
			Snippet:    snippets[r.Index],
			Similarity: r.Similarity,
		})
	}
	return results, nil
}

func scanSnippets(rows *sql.Rows) ([]Snippet, error) {
	var snippets []Snippet
	for rows.Next() {
		var sn Snippet
		var source sql.NullString
		var blob []byte
		if err := rows.Scan(&sn.ID, &sn.Content, &source, &sn.CreatedAt, &blob); err != nil {
			continue
		}
		sn.Source = source.String
		sn.Embedding = bytesToFloat32Slice(blob)
		snippets = append(snippets, sn)
	}
	return snippets, rows.Err()
}

// Helper functions for embedding serialization

func float32SliceToBytes(floats []float32) []byte {
	if floats == nil {
		return nil
	}
	bytes := make([]byte, len(floats)*4)
	for i, f := range floats {
		bits := math.Float32bits(f)
		bytes[i*4] = byte(bits)
		bytes[i*4+1] = byte(bits >> 8)
		bytes[i*4+2] = byte(bits >> 16)
		bytes[i*4+3] = byte(bits >> 24)
	}
	return bytes
}

func bytesToFloat32Slice(bytes []byte) []float32 {
	if len(bytes) == 0 {
		return nil
	}
	floats := make([]float32, len(bytes)/4)
	for i := range floats {
		bits := uint32(bytes[i*4]) | uint32(bytes[i*4+1])<<8 | uint32(bytes[i*4+2])<<16 | uint32(bytes[i*4+3])<<24
		floats[i] = math.Float32frombits(bits)
	}
	return floats
}

// Capture embeds content and stores it in one step. Embedding failures do
// not lose the snippet; it is stored without a vector.
func (s *Store) Capture(ctx context.Context, embedder embedding.Embedder, content, source string) (*Snippet, error) {
	snippet := &Snippet{
		Content: content,
		Source:  source,
	}

	vec, err := embedder.Embed(ctx, content)
	if err != nil {
		logging.Get(logging.CategoryMemory).Warn("Embedding failed for capture, storing without vector: %v", err)
	} else {
		snippet.Embedding = vec
	}

	if err := s.Add(snippet); err != nil {
		return nil, err
	}
	return snippet, nil
}
