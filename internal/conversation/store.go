package conversation

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrNotFound is returned when a conversation id resolves to no row.
var ErrNotFound = errors.New("conversation: not found")

// State is one conversation's persisted record.
type State struct {
	ID              string `json:"id"`
	ProjectPath     string `json:"project_path"`
	Branch          string `json:"branch"`
	Workflow        string `json:"workflow"`
	CurrentPhase    string `json:"current_phase"`
	RequireReviews  bool   `json:"require_reviews"`
	CommitBehaviour string `json:"commit_behaviour"`
	PlanFilePath    string `json:"plan_file_path"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// Interaction is one audit row: a tool call and what it returned.
type Interaction struct {
	ID             string  `json:"id"`
	ConversationID string  `json:"conversation_id"`
	ToolName       string  `json:"tool_name"`
	InputJSON      string  `json:"input_json"`
	OutputJSON     string  `json:"output_json"`
	Phase          string  `json:"phase"`
	CreatedAt      string  `json:"created_at"`
	IsReset        bool    `json:"is_reset"`
	ResetAt        *string `json:"reset_at,omitempty"`
}

// ResetResult reports what a reset removed and what it retained.
type ResetResult struct {
	ConversationDeleted bool `json:"conversation_deleted"`
	InteractionsFlagged int  `json:"interactions_flagged"`
}

// Config configures the store.
type Config struct {
	DataDir string
}

// DefaultConfig stores state under ~/.stepwise.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".stepwise")}
}

// Store persists conversations and their interaction audit log in SQLite.
type Store struct {
	db *sql.DB
}

// New creates the data directory if needed, opens SQLite with WAL mode, and
// runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("conversation: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "state.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("conversation: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("conversation: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("conversation: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	// interactions carries no foreign key on purpose: the audit trail
	// outlives its conversation after a reset.
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id               TEXT PRIMARY KEY,
			project_path     TEXT NOT NULL,
			branch           TEXT NOT NULL,
			workflow         TEXT NOT NULL,
			current_phase    TEXT NOT NULL,
			require_reviews  INTEGER NOT NULL DEFAULT 0,
			commit_behaviour TEXT NOT NULL DEFAULT 'end',
			plan_file_path   TEXT NOT NULL DEFAULT '',
			created_at       TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at       TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_conv_checkout ON conversations(project_path, branch);

		CREATE TABLE IF NOT EXISTS interactions (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			tool_name       TEXT NOT NULL,
			input_json      TEXT NOT NULL DEFAULT '{}',
			output_json     TEXT NOT NULL DEFAULT '',
			phase           TEXT NOT NULL DEFAULT '',
			created_at      TEXT NOT NULL DEFAULT (datetime('now')),
			is_reset        INTEGER NOT NULL DEFAULT 0,
			reset_at        TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_interactions_conv ON interactions(conversation_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_interactions_live ON interactions(conversation_id, is_reset);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// GetOrCreate returns the conversation for st.ID, inserting st as the new
// record when none exists. The second return reports whether a row was
// created.
func (s *Store) GetOrCreate(st State) (*State, bool, error) {
	res, err := s.db.Exec(`
		INSERT INTO conversations
			(id, project_path, branch, workflow, current_phase,
			 require_reviews, commit_behaviour, plan_file_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		st.ID, st.ProjectPath, st.Branch, st.Workflow, st.CurrentPhase,
		boolToInt(st.RequireReviews), st.CommitBehaviour, st.PlanFilePath)
	if err != nil {
		return nil, false, fmt.Errorf("conversation: insert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("conversation: rows affected: %w", err)
	}

	got, err := s.Get(st.ID)
	if err != nil {
		return nil, false, err
	}
	return got, n > 0, nil
}

// Get loads one conversation by id.
func (s *Store) Get(id string) (*State, error) {
	row := s.db.QueryRow(`
		SELECT id, project_path, branch, workflow, current_phase,
		       require_reviews, commit_behaviour, plan_file_path,
		       created_at, updated_at
		FROM conversations WHERE id = ?`, id)

	var st State
	var requireReviews int
	err := row.Scan(&st.ID, &st.ProjectPath, &st.Branch, &st.Workflow,
		&st.CurrentPhase, &requireReviews, &st.CommitBehaviour,
		&st.PlanFilePath, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: get %s: %w", id, err)
	}
	st.RequireReviews = requireReviews != 0
	return &st, nil
}

// UpdatePhaseFrom moves the conversation from one phase to another, but only
// if it still is in fromPhase. Returns false when a concurrent writer won
// the race; the caller re-reads and re-validates against the fresh state.
func (s *Store) UpdatePhaseFrom(id, fromPhase, toPhase string) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE conversations
		SET current_phase = ?, updated_at = datetime('now')
		WHERE id = ? AND current_phase = ?`,
		toPhase, id, fromPhase)
	if err != nil {
		return false, fmt.Errorf("conversation: update phase: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("conversation: rows affected: %w", err)
	}
	return n > 0, nil
}

// Reset deletes the conversation row and soft-flags its audit trail. The
// interaction rows stay behind with is_reset set so past activity remains
// inspectable.
func (s *Store) Reset(id string) (ResetResult, error) {
	var result ResetResult

	tx, err := s.db.Begin()
	if err != nil {
		return result, fmt.Errorf("conversation: begin reset: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE interactions
		SET is_reset = 1, reset_at = datetime('now')
		WHERE conversation_id = ? AND is_reset = 0`, id)
	if err != nil {
		return result, fmt.Errorf("conversation: flag interactions: %w", err)
	}
	flagged, err := res.RowsAffected()
	if err != nil {
		return result, fmt.Errorf("conversation: rows affected: %w", err)
	}

	res, err = tx.Exec(`DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return result, fmt.Errorf("conversation: delete: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return result, fmt.Errorf("conversation: rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("conversation: commit reset: %w", err)
	}

	result.InteractionsFlagged = int(flagged)
	result.ConversationDeleted = deleted > 0
	return result, nil
}

// RecordInteraction appends one audit row. A missing id gets a fresh UUID.
func (s *Store) RecordInteraction(in Interaction) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`
		INSERT INTO interactions
			(id, conversation_id, tool_name, input_json, output_json, phase)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, in.ConversationID, in.ToolName, in.InputJSON, in.OutputJSON, in.Phase)
	if err != nil {
		return fmt.Errorf("conversation: record interaction: %w", err)
	}
	return nil
}

// Interactions lists audit rows for a conversation, oldest first. Reset
// rows are excluded unless includeReset is set.
func (s *Store) Interactions(conversationID string, includeReset bool) ([]Interaction, error) {
	query := `
		SELECT id, conversation_id, tool_name, input_json, output_json,
		       phase, created_at, is_reset, reset_at
		FROM interactions
		WHERE conversation_id = ?`
	if !includeReset {
		query += ` AND is_reset = 0`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.Query(query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("conversation: list interactions: %w", err)
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var in Interaction
		var isReset int
		if err := rows.Scan(&in.ID, &in.ConversationID, &in.ToolName,
			&in.InputJSON, &in.OutputJSON, &in.Phase, &in.CreatedAt,
			&isReset, &in.ResetAt); err != nil {
			return nil, fmt.Errorf("conversation: scan interaction: %w", err)
		}
		in.IsReset = isReset != 0
		out = append(out, in)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
