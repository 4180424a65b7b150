package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistemabuses/busadmin/engine/fleet"
)

func testCatalog() *fleet.Catalog {
	return &fleet.Catalog{
		Workers: []fleet.Worker{{ID: 7, Nombre: "Ana", Apellido: "Pérez", Activo: true}},
		Roles:   []fleet.Role{{ID: 3, Nombre: "Conductor", Activo: true}},
		Buses:   []fleet.Bus{{ID: 9, Patente: "ABCD12", Modelo: "Citaro", Activo: true}},
	}
}

func TestBuilders(t *testing.T) {
	t.Run("Should keep numeric fields through the text buffers", func(t *testing.T) {
		form, apply := Bus("Nuevo bus", "", fleet.Bus{Patente: "XY", Anio: 2020, Capacidad: 45}, nil)
		require.NotNil(t, form)
		got := apply()
		assert.Equal(t, 2020, got.Anio)
		assert.Equal(t, 45, got.Capacidad)
		assert.Equal(t, "XY", got.Patente)
	})

	t.Run("Should default the role level into range", func(t *testing.T) {
		_, apply := Role("Nuevo rol", "", fleet.Role{NivelAcceso: 9}, nil)
		assert.Equal(t, 1, apply().NivelAcceso)
	})

	t.Run("Should preselect the first catalog entries for new assignments", func(t *testing.T) {
		_, apply := BusAssignment("Nueva asignación", "", fleet.BusAssignment{}, testCatalog())
		got := apply()
		assert.Equal(t, int64(7), got.Trabajador)
		assert.Equal(t, int64(9), got.Bus)
		assert.Equal(t, fleet.ShiftMorning, got.Turno)
	})

	t.Run("Should keep the current selection when editing", func(t *testing.T) {
		_, apply := RoleAssignment("Editar", "Error al guardar", fleet.RoleAssignment{Trabajador: 42, Rol: 3}, testCatalog())
		got := apply()
		assert.Equal(t, int64(42), got.Trabajador)
		assert.Equal(t, int64(3), got.Rol)
	})

	t.Run("Should keep references the catalog no longer offers", func(t *testing.T) {
		record := fleet.BusAssignment{Trabajador: 42, Bus: 11, Turno: fleet.ShiftNight}
		_, apply := BusAssignment("Editar", "", record, testCatalog())
		got := apply()
		assert.Equal(t, int64(42), got.Trabajador)
		assert.Equal(t, int64(11), got.Bus)
		assert.Equal(t, fleet.ShiftNight, got.Turno)
	})

	t.Run("Should offer an inactive current value as an option", func(t *testing.T) {
		current := int64(42)
		opts := selectable(&current, workerOptions(testCatalog()))
		require.Len(t, opts, 2)
		assert.Equal(t, int64(42), opts[1].Value)
		assert.Equal(t, "#42 (inactivo)", opts[1].Key)
		assert.Equal(t, int64(42), current)
	})

	t.Run("Should tolerate a missing catalog", func(t *testing.T) {
		form, apply := RoleAssignment("Nueva", "", fleet.RoleAssignment{}, nil)
		require.NotNil(t, form)
		assert.Zero(t, apply().Trabajador)
	})
}

func TestValidators(t *testing.T) {
	t.Run("Should check integer ranges", func(t *testing.T) {
		check := intInRange("La edad", 18, 70)
		assert.NoError(t, check(" 30 "))
		assert.Error(t, check("17"))
		assert.Error(t, check("treinta"))
	})

	t.Run("Should reject blank required values", func(t *testing.T) {
		assert.Error(t, required("El nombre")("   "))
		assert.NoError(t, required("El nombre")("Ana"))
	})
}

func TestCheckCatalog(t *testing.T) {
	t.Run("Should need workers and roles for role assignments", func(t *testing.T) {
		cat := testCatalog()
		assert.NoError(t, CheckCatalog(fleet.KindRoleAssignments, cat))
		cat.Roles = nil
		assert.ErrorIs(t, CheckCatalog(fleet.KindRoleAssignments, cat), ErrEmptyCatalog)
		assert.NoError(t, CheckCatalog(fleet.KindBusAssignments, cat))
	})

	t.Run("Should ignore plain resources", func(t *testing.T) {
		assert.NoError(t, CheckCatalog(fleet.KindWorkers, &fleet.Catalog{}))
		assert.NoError(t, CheckCatalog(fleet.KindBuses, nil))
	})
}
