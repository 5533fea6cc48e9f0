package db

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"contesthub/internal/types"
)

// ContestRepository provides data access for the contests table.
//
// The natural identity of a contest is (platform, name); the table carries a
// UNIQUE constraint on that pair and every write from the ingestion pipeline
// is an ON CONFLICT upsert against it, making poll cycles idempotent.
type ContestRepository struct {
	db DBTX
}

// NewContestRepository creates a new ContestRepository backed by the given
// database connection (pool or transaction).
func NewContestRepository(db DBTX) *ContestRepository {
	return &ContestRepository{db: db}
}

// BulkUpsertResult reports the outcome of a best-effort bulk upsert.
type BulkUpsertResult struct {
	Attempted int
	Upserted  int
	Failed    int
	// Errs holds the per-item failures, at most one per failed contest.
	Errs []error
}

const upsertContestSQL = `
	INSERT INTO contests
	  (platform, name, url, start_time, end_time, duration_minutes, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	ON CONFLICT (platform, name) DO UPDATE SET
	  url = EXCLUDED.url,
	  start_time = EXCLUDED.start_time,
	  end_time = EXCLUDED.end_time,
	  duration_minutes = EXCLUDED.duration_minutes,
	  status = EXCLUDED.status,
	  updated_at = NOW()`

// BulkUpsert writes all contests keyed on (platform, name). Existing rows
// have their adapter fields overwritten; solution_video_id is deliberately
// left alone so re-ingestion never clobbers a matched solution link.
//
// The write is best-effort: a failed item is recorded in the result and does
// not block the remaining items. The happy path goes through one pipelined
// batch, but a pgx batch runs as a single implicit transaction, so any
// failure aborts the pipeline and rolls back every statement in it. On a
// batch error the whole set is retried item by item, which isolates the bad
// rows; the upsert is idempotent, so re-running the rolled-back items is
// safe. A non-nil error is returned only when no item could be written.
func (r *ContestRepository) BulkUpsert(ctx context.Context, contests []types.Contest) (BulkUpsertResult, error) {
	res := BulkUpsertResult{Attempted: len(contests)}
	if len(contests) == 0 {
		return res, nil
	}

	batch := &pgx.Batch{}
	for _, c := range contests {
		batch.Queue(upsertContestSQL, upsertArgs(c)...)
	}

	br := r.db.SendBatch(ctx, batch)
	var batchErr error
	for range contests {
		if _, err := br.Exec(); err != nil {
			// First failure poisons the rest of the pipeline; stop reading.
			batchErr = err
			break
		}
	}
	closeErr := br.Close()
	if batchErr == nil && closeErr == nil {
		res.Upserted = len(contests)
		return res, nil
	}
	if batchErr == nil {
		batchErr = closeErr
	}

	for _, c := range contests {
		if _, err := r.db.Exec(ctx, upsertContestSQL, upsertArgs(c)...); err != nil {
			res.Failed++
			res.Errs = append(res.Errs, fmt.Errorf("upsert %s: %w", c.NaturalKey(), err))
			continue
		}
		res.Upserted++
	}
	if res.Upserted == 0 {
		return res, types.NewAppError(types.ErrCodeInternalDB, "contest bulk upsert failed", batchErr)
	}
	return res, nil
}

// upsertArgs builds the positional arguments for upsertContestSQL.
func upsertArgs(c types.Contest) []any {
	return []any{
		string(c.Platform),
		c.Name,
		c.URL,
		c.StartTime.UTC(),
		c.EndTime.UTC(),
		c.DurationMinutes,
		string(c.Status),
	}
}

const contestColumns = `id, platform, name, url, start_time, end_time,
       duration_minutes, status, solution_video_id, created_at, updated_at`

// GetByID retrieves a single contest by its synthetic ID.
func (r *ContestRepository) GetByID(ctx context.Context, id string) (*types.Contest, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+contestColumns+` FROM contests WHERE id = $1`, id)
	c, err := scanContestRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundContest, "contest not found", err)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to get contest", err)
	}
	return c, nil
}

// GetByPlatformAndName retrieves a contest by its natural key. Returns
// (nil, nil) when no such contest exists.
func (r *ContestRepository) GetByPlatformAndName(ctx context.Context, platform types.Platform, name string) (*types.Contest, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+contestColumns+` FROM contests WHERE platform = $1 AND name = $2`,
		string(platform), name)
	c, err := scanContestRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to get contest by natural key", err)
	}
	return c, nil
}

// ListByStatus returns one page of contests with the given status, ordered by
// start time ascending, plus pagination metadata. page is 1-based.
func (r *ContestRepository) ListByStatus(ctx context.Context, status types.ContestStatus, page, limit int) (types.ContestPage, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM contests WHERE status = $1`, string(status),
	).Scan(&total); err != nil {
		return types.ContestPage{}, types.NewAppError(types.ErrCodeInternalDB, "failed to count contests", err)
	}

	offset := (page - 1) * limit
	rows, err := r.db.Query(ctx,
		`SELECT `+contestColumns+`
		 FROM contests
		 WHERE status = $1
		 ORDER BY start_time ASC, id
		 LIMIT $2 OFFSET $3`,
		string(status), limit, offset)
	if err != nil {
		return types.ContestPage{}, types.NewAppError(types.ErrCodeInternalDB, "failed to list contests", err)
	}
	contests, err := collectContests(rows)
	if err != nil {
		return types.ContestPage{}, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return types.ContestPage{
		Contests: contests,
		Pagination: types.Pagination{
			CurrentPage:   page,
			TotalPages:    totalPages,
			TotalContests: total,
			Limit:         limit,
			HasNextPage:   page < totalPages,
			HasPrevPage:   page > 1 && total > 0,
		},
	}, nil
}

// ListByPlatforms returns all contests belonging to any of the given
// platforms, ordered by start time ascending.
func (r *ContestRepository) ListByPlatforms(ctx context.Context, platforms []types.Platform) ([]types.Contest, error) {
	if len(platforms) == 0 {
		return nil, nil
	}
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+contestColumns+`
		 FROM contests
		 WHERE platform = ANY($1)
		 ORDER BY start_time ASC, id`,
		names)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list contests by platform", err)
	}
	return collectContests(rows)
}

// ListByPlatform returns every contest of one platform. Used by the
// solution-link matcher, which needs the full set in memory.
func (r *ContestRepository) ListByPlatform(ctx context.Context, platform types.Platform) ([]types.Contest, error) {
	return r.ListByPlatforms(ctx, []types.Platform{platform})
}

// ListStartingBetween returns contests with start_time in [start, end),
// ordered by start time ascending. Used by the notification dispatcher for
// the "tomorrow" window.
func (r *ContestRepository) ListStartingBetween(ctx context.Context, start, end time.Time) ([]types.Contest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+contestColumns+`
		 FROM contests
		 WHERE start_time >= $1 AND start_time < $2
		 ORDER BY start_time ASC, id`,
		start.UTC(), end.UTC())
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list contests in window", err)
	}
	return collectContests(rows)
}

// BulkUpdateSolutionLinks writes all matcher assignments in one pipelined
// batch. Like BulkUpsert, per-item failures do not abort the rest. Returns
// the number of rows actually updated.
func (r *ContestRepository) BulkUpdateSolutionLinks(ctx context.Context, updates []types.SolutionLinkUpdate) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(
			`UPDATE contests SET solution_video_id = $1, updated_at = NOW() WHERE id = $2`,
			u.VideoURL, u.ContestID)
	}

	br := r.db.SendBatch(ctx, batch)
	var updated int64
	var firstErr error
	for range updates {
		tag, err := br.Exec()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		updated += tag.RowsAffected()
	}
	if err := br.Close(); err != nil && updated == 0 {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "solution link bulk update failed", err)
	}
	if updated == 0 && firstErr != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "solution link bulk update failed", firstErr)
	}
	return updated, nil
}

// SetSolutionLink sets the solution link on a single contest and returns the
// updated record. Used by the manual admin endpoint.
func (r *ContestRepository) SetSolutionLink(ctx context.Context, id, videoURL string) (*types.Contest, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE contests SET solution_video_id = $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING `+contestColumns,
		videoURL, id)
	c, err := scanContestRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundContest, "contest not found", err)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to set solution link", err)
	}
	return c, nil
}

// UpdateManyStatus sets the status on every contest matching the filter and
// returns the number of rows changed. The WHERE clause is built dynamically
// from the non-nil filter bounds; NotStatus keeps the sweep from rewriting
// rows that already carry the target status.
func (r *ContestRepository) UpdateManyStatus(ctx context.Context, filter types.ContestStatusFilter, status types.ContestStatus) (int64, error) {
	var conditions []string
	args := []any{string(status)}
	argIdx := 2

	appendCond := func(cond string, v any) {
		conditions = append(conditions, fmt.Sprintf(cond, argIdx))
		args = append(args, v)
		argIdx++
	}

	if filter.StartAtOrBefore != nil {
		appendCond("start_time <= $%d", filter.StartAtOrBefore.UTC())
	}
	if filter.StartAfter != nil {
		appendCond("start_time > $%d", filter.StartAfter.UTC())
	}
	if filter.EndAfter != nil {
		appendCond("end_time > $%d", filter.EndAfter.UTC())
	}
	if filter.EndAtOrBefore != nil {
		appendCond("end_time <= $%d", filter.EndAtOrBefore.UTC())
	}
	if filter.NotStatus != "" {
		appendCond("status <> $%d", string(filter.NotStatus))
	}

	if len(conditions) == 0 {
		return 0, types.NewAppError(types.ErrCodeValidationMissingField,
			"status filter must constrain at least one field", nil)
	}

	query := fmt.Sprintf(
		`UPDATE contests SET status = $1, updated_at = NOW() WHERE %s`,
		strings.Join(conditions, " AND "))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to update contest statuses", err)
	}
	return tag.RowsAffected(), nil
}

// collectContests drains a pgx.Rows result set into a contest slice.
func collectContests(rows pgx.Rows) ([]types.Contest, error) {
	defer rows.Close()

	var out []types.Contest
	for rows.Next() {
		c, err := scanContestRow(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan contest row", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating contest rows", err)
	}
	return out, nil
}

// scanContestRow scans a single contests row. Handles the nullable
// solution_video_id column with a pointer type.
func scanContestRow(row pgx.Row) (*types.Contest, error) {
	var (
		c        types.Contest
		platform string
		status   string
		solution *string
	)
	err := row.Scan(
		&c.ID,
		&platform,
		&c.Name,
		&c.URL,
		&c.StartTime,
		&c.EndTime,
		&c.DurationMinutes,
		&status,
		&solution,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Platform = types.Platform(platform)
	c.Status = types.ContestStatus(status)
	if solution != nil {
		c.SolutionVideoID = *solution
	}
	return &c, nil
}
