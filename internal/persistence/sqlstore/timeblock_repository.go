package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/example/salon-scheduler/internal/persistence"
)

var timeBlockColumns = []string{
	"id", "user_id", "employee_id", "date", "start_time", "end_time",
	"task", "client_name", "created_at", "updated_at",
}

// TimeBlockRepository implements persistence.TimeBlockRepository.
type TimeBlockRepository struct {
	store *Store
}

// NewTimeBlockRepository returns a time block repository backed by store.
func NewTimeBlockRepository(store *Store) *TimeBlockRepository {
	return &TimeBlockRepository{store: store}
}

func (r *TimeBlockRepository) CreateTimeBlock(ctx context.Context, b persistence.TimeBlock) error {
	if b.ID == "" || b.UserID == "" || b.EmployeeID == "" || b.Date == "" {
		return persistence.ErrConstraintViolation
	}
	now := r.store.timestamp()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	_, err := r.store.exec(ctx, r.store.db, r.store.sb.Insert("time_blocks").
		Columns(timeBlockColumns...).
		Values(b.ID, b.UserID, b.EmployeeID, b.Date, b.StartTime, b.EndTime,
			nullString(b.Task), nullString(b.ClientName), formatTime(b.CreatedAt), formatTime(b.UpdatedAt)))
	return err
}

// UpdateTimeBlock rewrites every mutable column; the id, owner and creation
// time never change.
func (r *TimeBlockRepository) UpdateTimeBlock(ctx context.Context, b persistence.TimeBlock) error {
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = r.store.timestamp()
	}
	return r.store.execOne(ctx, r.store.db, r.store.sb.Update("time_blocks").
		Set("employee_id", b.EmployeeID).
		Set("date", b.Date).
		Set("start_time", b.StartTime).
		Set("end_time", b.EndTime).
		Set("task", nullString(b.Task)).
		Set("client_name", nullString(b.ClientName)).
		Set("updated_at", formatTime(b.UpdatedAt)).
		Where(sq.Eq{"id": b.ID}))
}

func (r *TimeBlockRepository) GetTimeBlock(ctx context.Context, id string) (persistence.TimeBlock, error) {
	row, err := r.store.queryRow(ctx, r.store.db, r.store.sb.Select(timeBlockColumns...).From("time_blocks").Where(sq.Eq{"id": id}))
	if err != nil {
		return persistence.TimeBlock{}, err
	}
	b, err := scanTimeBlock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.TimeBlock{}, persistence.ErrNotFound
	}
	return b, err
}

func (r *TimeBlockRepository) ListTimeBlocks(ctx context.Context, userID, date string) ([]persistence.TimeBlock, error) {
	rows, err := r.store.query(ctx, r.store.db, r.store.sb.Select(timeBlockColumns...).
		From("time_blocks").
		Where(sq.Eq{"user_id": userID, "date": date}).
		OrderBy("start_time ASC", "created_at ASC"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []persistence.TimeBlock
	for rows.Next() {
		b, err := scanTimeBlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *TimeBlockRepository) DeleteTimeBlock(ctx context.Context, id string) error {
	return r.store.execOne(ctx, r.store.db, r.store.sb.Delete("time_blocks").Where(sq.Eq{"id": id}))
}

func scanTimeBlock(row scanner) (persistence.TimeBlock, error) {
	var (
		b                    persistence.TimeBlock
		task, client         sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.EmployeeID, &b.Date, &b.StartTime, &b.EndTime,
		&task, &client, &createdAt, &updatedAt); err != nil {
		return persistence.TimeBlock{}, err
	}
	b.Task = stringPtr(task)
	b.ClientName = stringPtr(client)
	var err error
	if b.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.TimeBlock{}, err
	}
	if b.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.TimeBlock{}, err
	}
	return b, nil
}
