package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmployeeFixture(t *testing.T) (*EmployeeService, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	store.addUser("u1", "owner")
	store.addUser("u2", "stranger")
	return NewEmployeeService(store, sequence("emp"), func() time.Time { return fixedNow }, discardLogger()), store
}

func TestEmployeeService_CreateEmployee(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("defaults colour and order from the count", func(t *testing.T) {
		t.Parallel()
		svc, _ := newEmployeeFixture(t)

		for i := 0; i < len(EmployeePalette)+1; i++ {
			emp, err := svc.CreateEmployee(ctx, owner, EmployeeInput{Name: "  Staff  "})
			require.NoError(t, err)
			assert.Equal(t, "Staff", emp.Name)
			assert.Equal(t, i, emp.DisplayOrder)
			assert.Equal(t, EmployeePalette[i%len(EmployeePalette)], emp.Color)
		}
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		t.Parallel()
		svc, store := newEmployeeFixture(t)
		order := 7

		emp, err := svc.CreateEmployee(ctx, owner, EmployeeInput{Name: "Aoi", Color: "#ff0000", DisplayOrder: &order})
		require.NoError(t, err)
		assert.Equal(t, "#ff0000", emp.Color)
		assert.Equal(t, 7, store.employees[emp.ID].DisplayOrder)
		assert.Equal(t, "u1", store.employees[emp.ID].UserID)
	})

	t.Run("requires a name", func(t *testing.T) {
		t.Parallel()
		svc, _ := newEmployeeFixture(t)

		_, err := svc.CreateEmployee(ctx, owner, EmployeeInput{Name: "   "})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "name")
	})

	t.Run("requires a principal", func(t *testing.T) {
		t.Parallel()
		svc, _ := newEmployeeFixture(t)

		_, err := svc.CreateEmployee(ctx, Principal{}, EmployeeInput{Name: "Aoi"})
		require.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestEmployeeService_ScopedToOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, store := newEmployeeFixture(t)
	store.addEmployee("e1", "u1", 1)
	store.addEmployee("e0", "u1", 0)
	store.addEmployee("x1", "u2", 0)
	store.addBlock("b1", "u1", "e1", testDate, "10:00", "11:00")

	list, err := svc.ListEmployees(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "e0", list[0].ID)
	assert.Equal(t, "e1", list[1].ID)

	_, err = svc.UpdateEmployee(ctx, owner, "x1", EmployeePatch{Name: strPtr("Mine now")})
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, svc.DeleteEmployee(ctx, owner, "x1"), ErrNotFound)

	updated, err := svc.UpdateEmployee(ctx, owner, "e1", EmployeePatch{Name: strPtr("Ren")})
	require.NoError(t, err)
	assert.Equal(t, "Ren", updated.Name)
	assert.Equal(t, fixedNow, store.employees["e1"].UpdatedAt)

	_, err = svc.UpdateEmployee(ctx, owner, "e1", EmployeePatch{Color: strPtr(" ")})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	require.NoError(t, svc.DeleteEmployee(ctx, owner, "e1"))
	assert.NotContains(t, store.employees, "e1")
	assert.NotContains(t, store.blocks, "b1")
	require.ErrorIs(t, svc.DeleteEmployee(ctx, owner, "e1"), ErrNotFound)
}

func TestPaletteColor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, EmployeePalette[0], PaletteColor(0))
	assert.Equal(t, EmployeePalette[1], PaletteColor(len(EmployeePalette)+1))
	assert.Equal(t, EmployeePalette[2], PaletteColor(-2))
}
