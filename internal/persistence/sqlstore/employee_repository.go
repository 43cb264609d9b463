package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/example/salon-scheduler/internal/persistence"
)

var employeeColumns = []string{"id", "user_id", "name", "color", "display_order", "created_at", "updated_at"}

// EmployeeRepository implements persistence.EmployeeRepository.
type EmployeeRepository struct {
	store *Store
}

// NewEmployeeRepository returns an employee repository backed by store.
func NewEmployeeRepository(store *Store) *EmployeeRepository {
	return &EmployeeRepository{store: store}
}

func (r *EmployeeRepository) CreateEmployee(ctx context.Context, e persistence.Employee) error {
	if e.ID == "" || e.UserID == "" || strings.TrimSpace(e.Name) == "" {
		return persistence.ErrConstraintViolation
	}
	now := r.store.timestamp()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	_, err := r.store.exec(ctx, r.store.db, r.store.sb.Insert("employees").
		Columns(employeeColumns...).
		Values(e.ID, e.UserID, e.Name, e.Color, e.DisplayOrder, formatTime(e.CreatedAt), formatTime(e.UpdatedAt)))
	return err
}

func (r *EmployeeRepository) UpdateEmployee(ctx context.Context, e persistence.Employee) error {
	if strings.TrimSpace(e.Name) == "" {
		return persistence.ErrConstraintViolation
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = r.store.timestamp()
	}
	return r.store.execOne(ctx, r.store.db, r.store.sb.Update("employees").
		Set("name", e.Name).
		Set("color", e.Color).
		Set("display_order", e.DisplayOrder).
		Set("updated_at", formatTime(e.UpdatedAt)).
		Where(sq.Eq{"id": e.ID}))
}

func (r *EmployeeRepository) GetEmployee(ctx context.Context, id string) (persistence.Employee, error) {
	row, err := r.store.queryRow(ctx, r.store.db, r.store.sb.Select(employeeColumns...).From("employees").Where(sq.Eq{"id": id}))
	if err != nil {
		return persistence.Employee{}, err
	}
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Employee{}, persistence.ErrNotFound
	}
	return e, err
}

func (r *EmployeeRepository) ListEmployees(ctx context.Context, userID string) ([]persistence.Employee, error) {
	rows, err := r.store.query(ctx, r.store.db, r.store.sb.Select(employeeColumns...).
		From("employees").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("display_order ASC", "created_at ASC", "id ASC"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []persistence.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EmployeeRepository) CountEmployees(ctx context.Context, userID string) (int, error) {
	row, err := r.store.queryRow(ctx, r.store.db, r.store.sb.Select("COUNT(*)").From("employees").Where(sq.Eq{"user_id": userID}))
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

// DeleteEmployee removes the employee and its time blocks in one transaction,
// so the cascade holds even where foreign keys are not enforced.
func (r *EmployeeRepository) DeleteEmployee(ctx context.Context, id string) error {
	return r.store.withTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.store.exec(ctx, tx, r.store.sb.Delete("time_blocks").Where(sq.Eq{"employee_id": id})); err != nil {
			return err
		}
		return r.store.execOne(ctx, tx, r.store.sb.Delete("employees").Where(sq.Eq{"id": id}))
	})
}

func scanEmployee(row scanner) (persistence.Employee, error) {
	var (
		e                    persistence.Employee
		createdAt, updatedAt string
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.Color, &e.DisplayOrder, &createdAt, &updatedAt); err != nil {
		return persistence.Employee{}, err
	}
	var err error
	if e.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Employee{}, err
	}
	if e.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Employee{}, err
	}
	return e, nil
}
