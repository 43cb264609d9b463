package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/salon-scheduler/internal/persistence"
)

// EmployeePalette is cycled through to colour new employees that do not pick one.
var EmployeePalette = []string{
	"hsl(220 90% 56%)",
	"hsl(142 76% 36%)",
	"hsl(38 92% 50%)",
	"hsl(262 83% 58%)",
	"hsl(340 82% 52%)",
}

// PaletteColor returns the default colour for the n-th employee.
func PaletteColor(n int) string {
	if n < 0 {
		n = -n
	}
	return EmployeePalette[n%len(EmployeePalette)]
}

const maxEmployeeName = 100

// EmployeeService manages the staff list of each user.
type EmployeeService struct {
	employees   persistence.EmployeeRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEmployeeService wires dependencies for employee operations.
func NewEmployeeService(employees persistence.EmployeeRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EmployeeService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &EmployeeService{employees: employees, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// ListEmployees returns the principal's employees in display order.
func (s *EmployeeService) ListEmployees(ctx context.Context, principal Principal) ([]Employee, error) {
	if s == nil {
		return nil, fmt.Errorf("EmployeeService is nil")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	records, err := s.employees.ListEmployees(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]Employee, 0, len(records))
	for _, r := range records {
		out = append(out, toEmployee(r))
	}
	return out, nil
}

// CreateEmployee adds an employee. Missing colour and order default from the
// current employee count.
func (s *EmployeeService) CreateEmployee(ctx context.Context, principal Principal, input EmployeeInput) (employee Employee, err error) {
	if s == nil {
		return Employee{}, fmt.Errorf("EmployeeService is nil")
	}
	if principal.UserID == "" {
		return Employee{}, ErrUnauthorized
	}
	logger := serviceLogger(ctx, s.logger, "EmployeeService", "CreateEmployee", "user_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "employee created", "employee_id", employee.ID)
	}()

	name := strings.TrimSpace(input.Name)
	color := strings.TrimSpace(input.Color)
	if vErr := validateEmployee(name, color); vErr != nil {
		return Employee{}, vErr
	}

	if color == "" || input.DisplayOrder == nil {
		count, cerr := s.employees.CountEmployees(ctx, principal.UserID)
		if cerr != nil {
			return Employee{}, cerr
		}
		if color == "" {
			color = PaletteColor(count)
		}
		if input.DisplayOrder == nil {
			input.DisplayOrder = &count
		}
	}

	now := s.now()
	record := persistence.Employee{
		ID:           s.idGenerator(),
		UserID:       principal.UserID,
		Name:         name,
		Color:        color,
		DisplayOrder: *input.DisplayOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err = s.employees.CreateEmployee(ctx, record); err != nil {
		return Employee{}, mapRepoError(err)
	}
	return toEmployee(record), nil
}

// UpdateEmployee changes name, colour or display order.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, principal Principal, id string, patch EmployeePatch) (employee Employee, err error) {
	if s == nil {
		return Employee{}, fmt.Errorf("EmployeeService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "EmployeeService", "UpdateEmployee", "user_id", principal.UserID, "employee_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "employee updated")
	}()

	record, err := s.owned(ctx, principal, id)
	if err != nil {
		return Employee{}, err
	}
	if patch.Name != nil {
		record.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Color != nil {
		record.Color = strings.TrimSpace(*patch.Color)
	}
	if patch.DisplayOrder != nil {
		record.DisplayOrder = *patch.DisplayOrder
	}
	if vErr := validateEmployee(record.Name, record.Color); vErr != nil {
		return Employee{}, vErr
	}
	if patch.Color != nil && record.Color == "" {
		return Employee{}, &ValidationError{FieldErrors: map[string]string{"color": "color must not be empty"}}
	}

	record.UpdatedAt = s.now()
	if err = s.employees.UpdateEmployee(ctx, record); err != nil {
		return Employee{}, mapRepoError(err)
	}
	return toEmployee(record), nil
}

// DeleteEmployee removes the employee and every block assigned to it.
func (s *EmployeeService) DeleteEmployee(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("EmployeeService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "EmployeeService", "DeleteEmployee", "user_id", principal.UserID, "employee_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "employee deleted")
	}()

	if _, err = s.owned(ctx, principal, id); err != nil {
		return err
	}
	return mapRepoError(s.employees.DeleteEmployee(ctx, id))
}

// owned loads an employee, reporting other users' employees as not found.
func (s *EmployeeService) owned(ctx context.Context, principal Principal, id string) (persistence.Employee, error) {
	if principal.UserID == "" {
		return persistence.Employee{}, ErrUnauthorized
	}
	record, err := s.employees.GetEmployee(ctx, id)
	if err != nil {
		return persistence.Employee{}, mapRepoError(err)
	}
	if record.UserID != principal.UserID {
		return persistence.Employee{}, ErrNotFound
	}
	return record, nil
}

func validateEmployee(name, color string) error {
	vErr := &ValidationError{}
	switch {
	case name == "":
		vErr.add("name", "name is required")
	case len([]rune(name)) > maxEmployeeName:
		vErr.add("name", fmt.Sprintf("name must be at most %d characters", maxEmployeeName))
	}
	if len(color) > 64 {
		vErr.add("color", "color must be at most 64 characters")
	}
	return vErr.orNil()
}

func toEmployee(r persistence.Employee) Employee {
	return Employee{ID: r.ID, Name: r.Name, Color: r.Color, DisplayOrder: r.DisplayOrder, CreatedAt: r.CreatedAt}
}

// mapRepoError converts persistence sentinels into service errors.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrNotFound
	}
	return err
}
