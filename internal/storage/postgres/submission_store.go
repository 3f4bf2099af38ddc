package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/briannabogos1157/threadtwin/internal/dupe"
)

// SubmissionStore persists community dupe submissions in Postgres.
type SubmissionStore struct {
	pool  querier
	table string
}

// NewSubmissionStore connects a pool and returns a store over it.
func NewSubmissionStore(ctx context.Context, cfg Config) (*SubmissionStore, error) {
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newSubmissionStore(pool, cfg.SubmissionsTable)
}

// NewSubmissionStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewSubmissionStoreWithPool(pool querier, table string) (*SubmissionStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return newSubmissionStore(pool, table)
}

func newSubmissionStore(pool querier, table string) (*SubmissionStore, error) {
	if table == "" {
		table = "dupe_submissions"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SubmissionStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *SubmissionStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// CreateSubmission inserts a new submission row.
func (s *SubmissionStore) CreateSubmission(ctx context.Context, sub dupe.Submission) error {
	if sub.ID == "" {
		return fmt.Errorf("submission id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, original_product, dupe_product, price_comparison, similarity_reason, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, s.table)

	args := []any{sub.ID, sub.OriginalProduct, sub.DupeProduct, sub.PriceComparison,
		sub.SimilarityReason, string(sub.Status), sub.CreatedAt}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// ListSubmissions returns submissions in the given status, newest first.
// An empty status returns everything.
func (s *SubmissionStore) ListSubmissions(ctx context.Context, status dupe.SubmissionStatus) ([]dupe.Submission, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status == "" {
		query := fmt.Sprintf(`
SELECT id, original_product, dupe_product, price_comparison, similarity_reason, status, created_at
FROM %s ORDER BY created_at DESC`, s.table)
		rows, err = s.pool.Query(ctx, query)
	} else {
		query := fmt.Sprintf(`
SELECT id, original_product, dupe_product, price_comparison, similarity_reason, status, created_at
FROM %s WHERE status = $1 ORDER BY created_at DESC`, s.table)
		rows, err = s.pool.Query(ctx, query, string(status))
	}
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []dupe.Submission
	for rows.Next() {
		var (
			sub    dupe.Submission
			status string
		)
		if err := rows.Scan(&sub.ID, &sub.OriginalProduct, &sub.DupeProduct,
			&sub.PriceComparison, &sub.SimilarityReason, &status, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		sub.Status = dupe.SubmissionStatus(status)
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}

// UpdateSubmissionStatus moves a submission to a new review state.
func (s *SubmissionStore) UpdateSubmissionStatus(ctx context.Context, id string, status dupe.SubmissionStatus) error {
	if !dupe.ValidSubmissionStatus(status) {
		return fmt.Errorf("invalid submission status %q", status)
	}
	query := fmt.Sprintf(`UPDATE %s SET status = $1 WHERE id = $2`, s.table)
	tag, err := s.pool.Exec(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("submission %q not found", id)
	}
	return nil
}
