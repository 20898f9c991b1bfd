package db

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// PredictionStore is the SQLite audit log of served predictions and
// artifact loads.
type PredictionStore struct {
	db *sql.DB
}

// PredictionRecord is one audited prediction.
type PredictionRecord struct {
	ID               string    `json:"id"`
	RequestID        string    `json:"request_id,omitempty"`
	Record           string    `json:"record"`
	Label            int       `json:"label"`
	ChurnProbability float64   `json:"churn_probability"`
	Confidence       float64   `json:"confidence"`
	ModelVersion     string    `json:"model_version"`
	Cached           bool      `json:"cached"`
	CreatedAt        time.Time `json:"created_at"`
}

// ArtifactLoad is one successful artifact bundle load.
type ArtifactLoad struct {
	Version   string    `json:"version"`
	ModelType string    `json:"model_type"`
	Columns   int       `json:"columns"`
	LoadedAt  time.Time `json:"loaded_at"`
}

var errClosed = errors.New("database not initialized")

// Open opens (or creates) the SQLite database and its tables.
func Open(path string) (*PredictionStore, error) {
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers; one connection avoids "database is locked".
	database.SetMaxOpenConns(1)

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id TEXT PRIMARY KEY,
        request_id TEXT,
        record TEXT NOT NULL,
        predicted_label INTEGER NOT NULL,
        churn_probability REAL NOT NULL,
        confidence REAL NOT NULL,
        model_version TEXT NOT NULL,
        cached INTEGER DEFAULT 0,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at);
    CREATE TABLE IF NOT EXISTS artifact_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        version TEXT NOT NULL,
        model_type TEXT NOT NULL,
        columns INTEGER NOT NULL,
        loaded_at DATETIME NOT NULL
    );
    `

	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, err
	}
	return &PredictionStore{db: database}, nil
}

// Close closes the underlying database.
func (s *PredictionStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SavePrediction appends one prediction to the audit log.
func (s *PredictionStore) SavePrediction(p PredictionRecord) error {
	if s == nil || s.db == nil {
		return errClosed
	}
	if p.ID == "" {
		return errors.New("prediction id required")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
        INSERT INTO predictions (
            id, request_id, record, predicted_label, churn_probability,
            confidence, model_version, cached, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `,
		p.ID,
		p.RequestID,
		p.Record,
		p.Label,
		p.ChurnProbability,
		p.Confidence,
		p.ModelVersion,
		p.Cached,
		p.CreatedAt,
	)
	return err
}

// RecentPredictions returns the newest predictions first.
func (s *PredictionStore) RecentPredictions(limit int) ([]PredictionRecord, error) {
	if s == nil || s.db == nil {
		return nil, errClosed
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
        SELECT id, request_id, record, predicted_label, churn_probability,
               confidence, model_version, cached, created_at
        FROM predictions
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]PredictionRecord, 0)
	for rows.Next() {
		var p PredictionRecord
		var requestID sql.NullString
		if err := rows.Scan(&p.ID, &requestID, &p.Record, &p.Label, &p.ChurnProbability,
			&p.Confidence, &p.ModelVersion, &p.Cached, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.RequestID = requestID.String
		records = append(records, p)
	}
	return records, rows.Err()
}

// LogArtifactLoad records a successfully loaded artifact bundle.
func (s *PredictionStore) LogArtifactLoad(load ArtifactLoad) error {
	if s == nil || s.db == nil {
		return errClosed
	}
	_, err := s.db.Exec(`
        INSERT INTO artifact_log (version, model_type, columns, loaded_at)
        VALUES (?, ?, ?, ?)`,
		load.Version, load.ModelType, load.Columns, load.LoadedAt.UTC())
	return err
}

// ArtifactLoads returns the load history, newest first.
func (s *PredictionStore) ArtifactLoads() ([]ArtifactLoad, error) {
	if s == nil || s.db == nil {
		return nil, errClosed
	}
	rows, err := s.db.Query(`
        SELECT version, model_type, columns, loaded_at
        FROM artifact_log
        ORDER BY id DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loads := make([]ArtifactLoad, 0)
	for rows.Next() {
		var l ArtifactLoad
		if err := rows.Scan(&l.Version, &l.ModelType, &l.Columns, &l.LoadedAt); err != nil {
			return nil, err
		}
		loads = append(loads, l)
	}
	return loads, rows.Err()
}
