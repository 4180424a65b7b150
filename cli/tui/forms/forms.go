// Package forms builds the huh forms used to create and edit records.
// Each builder binds the form fields to local buffers and returns a
// function that assembles the record once the form completes.
package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/sistemabuses/busadmin/engine/fleet"
)

// Builder creates the form for one record kind. note, when not empty, is
// shown above the fields; it carries the error of a failed save.
type Builder[R any] func(title, note string, record R, catalog *fleet.Catalog) (*huh.Form, func() R)

// ErrEmptyCatalog is returned by assignment builders when there is nothing
// to choose from.
var ErrEmptyCatalog = errors.New("no hay registros activos para asignar")

func required(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s es obligatorio", label)
		}
		return nil
	}
}

func intInRange(label string, lo, hi int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%s debe ser un número", label)
		}
		if n < lo || n > hi {
			return fmt.Errorf("%s debe estar entre %d y %d", label, lo, hi)
		}
		return nil
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func header(title, note string) *huh.Note {
	n := huh.NewNote().Title(title)
	if note != "" {
		n = n.Description("⚠ " + note)
	}
	return n
}

func activeField(value *bool) *huh.Confirm {
	return huh.NewConfirm().
		Title("Activo").
		Affirmative("Sí").
		Negative("No").
		Value(value)
}

func newForm(groups ...*huh.Group) *huh.Form {
	return huh.NewForm(groups...).WithShowHelp(true).WithShowErrors(true)
}

// Worker edits a trabajador.
func Worker(title, note string, record fleet.Worker, _ *fleet.Catalog) (*huh.Form, func() fleet.Worker) {
	edad := strconv.Itoa(record.Edad)
	form := newForm(huh.NewGroup(
		header(title, note),
		huh.NewInput().Title("Nombre").CharLimit(100).Value(&record.Nombre).Validate(required("El nombre")),
		huh.NewInput().Title("Apellido").CharLimit(100).Value(&record.Apellido).Validate(required("El apellido")),
		huh.NewInput().Title("Edad").CharLimit(2).Value(&edad).Validate(intInRange("La edad", 18, 70)),
		huh.NewInput().Title("Contacto").CharLimit(100).Value(&record.Contacto).Validate(required("El contacto")),
		huh.NewInput().Title("Dirección").CharLimit(255).Value(&record.Direccion).Validate(required("La dirección")),
		activeField(&record.Activo),
	))
	return form, func() fleet.Worker {
		record.Edad = atoi(edad)
		return record
	}
}

// Bus edits a bus. The year upper bound is checked again on save.
func Bus(title, note string, record fleet.Bus, _ *fleet.Catalog) (*huh.Form, func() fleet.Bus) {
	anio := strconv.Itoa(record.Anio)
	capacidad := strconv.Itoa(record.Capacidad)
	form := newForm(huh.NewGroup(
		header(title, note),
		huh.NewInput().Title("Patente").CharLimit(10).Value(&record.Patente).Validate(required("La patente")),
		huh.NewInput().Title("Marca").CharLimit(50).Value(&record.Marca).Validate(required("La marca")),
		huh.NewInput().Title("Modelo").CharLimit(50).Value(&record.Modelo).Validate(required("El modelo")),
		huh.NewInput().Title("Año").CharLimit(4).Value(&anio).Validate(intInRange("El año", fleet.MinBusYear, 9999)),
		huh.NewInput().Title("Capacidad").CharLimit(2).Value(&capacidad).Validate(intInRange("La capacidad", 10, 80)),
		activeField(&record.Activo),
	))
	return form, func() fleet.Bus {
		record.Anio = atoi(anio)
		record.Capacidad = atoi(capacidad)
		return record
	}
}

// Role edits a rol.
func Role(title, note string, record fleet.Role, _ *fleet.Catalog) (*huh.Form, func() fleet.Role) {
	if record.NivelAcceso < 1 || record.NivelAcceso > 5 {
		record.NivelAcceso = 1
	}
	levels := make([]huh.Option[int], 0, 5)
	for i := 1; i <= 5; i++ {
		levels = append(levels, huh.NewOption(fmt.Sprintf("Nivel %d", i), i))
	}
	form := newForm(huh.NewGroup(
		header(title, note),
		huh.NewInput().Title("Nombre").CharLimit(100).Value(&record.Nombre).Validate(required("El nombre")),
		huh.NewText().Title("Descripción").CharLimit(500).Lines(3).Value(&record.Descripcion),
		huh.NewSelect[int]().Title("Nivel de acceso").Options(levels...).Value(&record.NivelAcceso),
		activeField(&record.Activo),
	))
	return form, func() fleet.Role { return record }
}

func workerOptions(catalog *fleet.Catalog) []huh.Option[int64] {
	opts := make([]huh.Option[int64], 0, len(catalog.Workers))
	for _, w := range catalog.Workers {
		opts = append(opts, huh.NewOption(w.FullName(), w.ID))
	}
	return opts
}

// selectable preselects the first option for new records and keeps a
// current reference that the catalog no longer offers, so an untouched
// select submits the value it was opened with.
func selectable(current *int64, opts []huh.Option[int64]) []huh.Option[int64] {
	if *current == 0 {
		if len(opts) > 0 {
			*current = opts[0].Value
		}
		return opts
	}
	for _, o := range opts {
		if o.Value == *current {
			return opts
		}
	}
	return append(opts, huh.NewOption(fmt.Sprintf("#%d (inactivo)", *current), *current))
}

// RoleAssignment edits an asignación de rol. The catalog must hold the
// active workers and roles.
func RoleAssignment(
	title, note string,
	record fleet.RoleAssignment,
	catalog *fleet.Catalog,
) (*huh.Form, func() fleet.RoleAssignment) {
	if catalog == nil {
		catalog = &fleet.Catalog{}
	}
	workers := workerOptions(catalog)
	roles := make([]huh.Option[int64], 0, len(catalog.Roles))
	for _, r := range catalog.Roles {
		roles = append(roles, huh.NewOption(r.Nombre, r.ID))
	}
	workers = selectable(&record.Trabajador, workers)
	roles = selectable(&record.Rol, roles)
	form := newForm(huh.NewGroup(
		header(title, note),
		huh.NewSelect[int64]().Title("Trabajador").Options(workers...).Value(&record.Trabajador),
		huh.NewSelect[int64]().Title("Rol").Options(roles...).Value(&record.Rol),
		huh.NewText().Title("Notas").CharLimit(1000).Lines(3).Value(&record.Notas),
		activeField(&record.Activo),
	))
	return form, func() fleet.RoleAssignment { return record }
}

// BusAssignment edits an asignación de bus. The catalog must hold the
// active workers and buses.
func BusAssignment(
	title, note string,
	record fleet.BusAssignment,
	catalog *fleet.Catalog,
) (*huh.Form, func() fleet.BusAssignment) {
	if catalog == nil {
		catalog = &fleet.Catalog{}
	}
	workers := workerOptions(catalog)
	buses := make([]huh.Option[int64], 0, len(catalog.Buses))
	for _, b := range catalog.Buses {
		buses = append(buses, huh.NewOption(b.Label(), b.ID))
	}
	shifts := make([]huh.Option[fleet.Shift], 0, len(fleet.Shifts))
	for _, s := range fleet.Shifts {
		shifts = append(shifts, huh.NewOption(s.Label(), s))
	}
	workers = selectable(&record.Trabajador, workers)
	buses = selectable(&record.Bus, buses)
	if !record.Turno.Valid() {
		record.Turno = fleet.ShiftMorning
	}
	form := newForm(huh.NewGroup(
		header(title, note),
		huh.NewSelect[int64]().Title("Trabajador").Options(workers...).Value(&record.Trabajador),
		huh.NewSelect[int64]().Title("Bus").Options(buses...).Value(&record.Bus),
		huh.NewSelect[fleet.Shift]().Title("Turno").Options(shifts...).Value(&record.Turno),
		huh.NewText().Title("Notas").CharLimit(1000).Lines(3).Value(&record.Notas),
		activeField(&record.Activo),
	))
	return form, func() fleet.BusAssignment { return record }
}

// CheckCatalog reports ErrEmptyCatalog when an assignment form would have
// no options to offer.
func CheckCatalog(kind fleet.Kind, catalog *fleet.Catalog) error {
	switch kind {
	case fleet.KindRoleAssignments:
		if catalog == nil || len(catalog.Workers) == 0 || len(catalog.Roles) == 0 {
			return ErrEmptyCatalog
		}
	case fleet.KindBusAssignments:
		if catalog == nil || len(catalog.Workers) == 0 || len(catalog.Buses) == 0 {
			return ErrEmptyCatalog
		}
	}
	return nil
}

// Delete asks for confirmation before removing label.
func Delete(label string, confirmed *bool) *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("¿Eliminar %s?", label)).
			Description("Esta acción no se puede deshacer.").
			Affirmative("Eliminar").
			Negative("Cancelar").
			Value(confirmed),
	))
}
