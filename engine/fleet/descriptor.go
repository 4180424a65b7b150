package fleet

import (
	"strconv"
	"strings"
	"time"

	"github.com/sistemabuses/busadmin/pkg/crud"
)

// MinBusYear is the oldest model year accepted for a bus.
const MinBusYear = 1990

// Column is a table column header with a preferred width.
type Column struct {
	Title string
	Width int
}

// Descriptor bundles everything the CLI needs to list, search, create and
// edit one kind of record.
type Descriptor[R any] struct {
	Kind Kind
	// Singular is used in prompts ("Nuevo bus").
	Singular string
	Columns  []Column
	Row      func(R) []string
	// SearchFields are the text fields the list filter looks at.
	SearchFields []func(R) string
	Defaults     func(now time.Time) R
	// Normalize trims and canonicalizes user input before validation.
	Normalize func(R) R
	// Check runs rules that struct tags cannot express.
	Check   func(R, time.Time, *ValidationError)
	ID      func(R) int64
	Payload func(R) R
}

func (d Descriptor[R]) Matcher() crud.Matcher[R] {
	return crud.FieldMatcher(d.SearchFields...)
}

// CreateTitle labels the create form.
func (d Descriptor[R]) CreateTitle() string {
	if strings.HasPrefix(d.Singular, "asignación") {
		return "Nueva " + d.Singular
	}
	return "Nuevo " + d.Singular
}

func (d Descriptor[R]) EditTitle() string {
	return "Editar " + d.Singular
}

// Label names a record in confirmations, e.g. `bus #4 (ABCD12)`.
func (d Descriptor[R]) Label(record R) string {
	label := d.Singular + " #" + itoa(d.ID(record))
	if row := d.Row(record); len(row) > 1 && row[1] != "" {
		label += " (" + row[1] + ")"
	}
	return label
}

// Validate normalizes the record and checks it. The normalized record is
// returned even when validation fails.
func (d Descriptor[R]) Validate(record R, now time.Time) (R, error) {
	if d.Normalize != nil {
		record = d.Normalize(record)
	}
	verr := ValidateStruct(record)
	if d.Check != nil {
		d.Check(record, now, verr)
	}
	return record, verr.orNil()
}

// Prepare returns the wire payload for record after validation.
func (d Descriptor[R]) Prepare(record R, now time.Time) (R, error) {
	record, err := d.Validate(record, now)
	if err != nil {
		return record, err
	}
	if d.Payload != nil {
		record = d.Payload(record)
	}
	return record, nil
}

func status(active bool) string {
	if active {
		return "Activo"
	}
	return "Inactivo"
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

// FormatDate renders a backend timestamp as dd/mm/yyyy, leaving unknown
// formats untouched.
func FormatDate(raw string) string {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return raw
}

func Workers() Descriptor[Worker] {
	return Descriptor[Worker]{
		Kind:     KindWorkers,
		Singular: "trabajador",
		Columns: []Column{
			{Title: "ID", Width: 5}, {Title: "Nombre", Width: 16}, {Title: "Apellido", Width: 16},
			{Title: "Edad", Width: 5}, {Title: "Contacto", Width: 18}, {Title: "Estado", Width: 9},
		},
		Row: func(w Worker) []string {
			return []string{itoa(w.ID), w.Nombre, w.Apellido, strconv.Itoa(w.Edad), w.Contacto, status(w.Activo)}
		},
		SearchFields: []func(Worker) string{
			func(w Worker) string { return w.Nombre },
			func(w Worker) string { return w.Apellido },
		},
		Defaults: func(time.Time) Worker {
			return Worker{Edad: 18, Activo: true}
		},
		Normalize: func(w Worker) Worker {
			w.Nombre = strings.TrimSpace(w.Nombre)
			w.Apellido = strings.TrimSpace(w.Apellido)
			w.Contacto = strings.TrimSpace(w.Contacto)
			w.Direccion = strings.TrimSpace(w.Direccion)
			return w
		},
		ID: func(w Worker) int64 { return w.ID },
		Payload: func(w Worker) Worker {
			w.ID = 0
			return w
		},
	}
}

func Buses() Descriptor[Bus] {
	return Descriptor[Bus]{
		Kind:     KindBuses,
		Singular: "bus",
		Columns: []Column{
			{Title: "ID", Width: 5}, {Title: "Patente", Width: 10}, {Title: "Marca", Width: 16},
			{Title: "Modelo", Width: 14}, {Title: "Año", Width: 6}, {Title: "Capacidad", Width: 10},
			{Title: "Estado", Width: 9},
		},
		Row: func(b Bus) []string {
			return []string{
				itoa(b.ID), b.Patente, b.Marca, b.Modelo, strconv.Itoa(b.Anio),
				strconv.Itoa(b.Capacidad) + " pax", status(b.Activo),
			}
		},
		SearchFields: []func(Bus) string{
			func(b Bus) string { return b.Patente },
			func(b Bus) string { return b.Modelo },
			func(b Bus) string { return b.Marca },
		},
		Defaults: func(now time.Time) Bus {
			return Bus{Anio: now.Year(), Capacidad: 40, Activo: true}
		},
		Normalize: func(b Bus) Bus {
			b.Patente = strings.ToUpper(strings.TrimSpace(b.Patente))
			b.Marca = strings.TrimSpace(b.Marca)
			b.Modelo = strings.TrimSpace(b.Modelo)
			return b
		},
		Check: func(b Bus, now time.Time, verr *ValidationError) {
			if b.Anio > now.Year() {
				verr.add("año", "debe ser menor o igual a "+strconv.Itoa(now.Year()))
			}
		},
		ID: func(b Bus) int64 { return b.ID },
		Payload: func(b Bus) Bus {
			b.ID = 0
			return b
		},
	}
}

func Roles() Descriptor[Role] {
	return Descriptor[Role]{
		Kind:     KindRoles,
		Singular: "rol",
		Columns: []Column{
			{Title: "ID", Width: 5}, {Title: "Nombre", Width: 16}, {Title: "Descripción", Width: 28},
			{Title: "Nivel", Width: 8}, {Title: "Asignaciones", Width: 12}, {Title: "Estado", Width: 9},
		},
		Row: func(r Role) []string {
			desc := r.Descripcion
			if desc == "" {
				desc = "Sin descripción"
			}
			return []string{
				itoa(r.ID), r.Nombre, desc, "Nivel " + strconv.Itoa(r.NivelAcceso),
				strconv.Itoa(r.Asignaciones), status(r.Activo),
			}
		},
		SearchFields: []func(Role) string{
			func(r Role) string { return r.Nombre },
		},
		Defaults: func(time.Time) Role {
			return Role{NivelAcceso: 1, Activo: true}
		},
		Normalize: func(r Role) Role {
			r.Nombre = strings.TrimSpace(r.Nombre)
			r.Descripcion = strings.TrimSpace(r.Descripcion)
			return r
		},
		ID: func(r Role) int64 { return r.ID },
		Payload: func(r Role) Role {
			r.ID = 0
			r.Asignaciones = 0
			return r
		},
	}
}

func RoleAssignments() Descriptor[RoleAssignment] {
	return Descriptor[RoleAssignment]{
		Kind:     KindRoleAssignments,
		Singular: "asignación de rol",
		Columns: []Column{
			{Title: "ID", Width: 5}, {Title: "Trabajador", Width: 24}, {Title: "Rol", Width: 18},
			{Title: "Fecha", Width: 11}, {Title: "Estado", Width: 9},
		},
		Row: func(a RoleAssignment) []string {
			return []string{itoa(a.ID), a.WorkerName(), a.RolNombre, FormatDate(a.FechaAsignacion), status(a.Activo)}
		},
		SearchFields: []func(RoleAssignment) string{
			RoleAssignment.WorkerName,
			func(a RoleAssignment) string { return a.RolNombre },
			func(a RoleAssignment) string { return a.Notas },
		},
		Defaults: func(time.Time) RoleAssignment {
			return RoleAssignment{Activo: true}
		},
		Normalize: func(a RoleAssignment) RoleAssignment {
			a.Notas = strings.TrimSpace(a.Notas)
			return a
		},
		ID: func(a RoleAssignment) int64 { return a.ID },
		Payload: func(a RoleAssignment) RoleAssignment {
			return RoleAssignment{Trabajador: a.Trabajador, Rol: a.Rol, Activo: a.Activo, Notas: a.Notas}
		},
	}
}

func BusAssignments() Descriptor[BusAssignment] {
	return Descriptor[BusAssignment]{
		Kind:     KindBusAssignments,
		Singular: "asignación de bus",
		Columns: []Column{
			{Title: "ID", Width: 5}, {Title: "Trabajador", Width: 24}, {Title: "Bus", Width: 20},
			{Title: "Turno", Width: 8}, {Title: "Fecha", Width: 11}, {Title: "Estado", Width: 9},
		},
		Row: func(a BusAssignment) []string {
			bus := a.BusPatente
			if a.BusModelo != "" {
				bus += " - " + a.BusModelo
			}
			turno := a.TurnoDisplay
			if turno == "" {
				turno = a.Turno.Label()
			}
			return []string{itoa(a.ID), a.WorkerName(), bus, turno, FormatDate(a.FechaAsignacion), status(a.Activo)}
		},
		SearchFields: []func(BusAssignment) string{
			BusAssignment.WorkerName,
			func(a BusAssignment) string { return a.BusPatente },
			func(a BusAssignment) string { return a.Notas },
		},
		Defaults: func(time.Time) BusAssignment {
			return BusAssignment{Turno: ShiftMorning, Activo: true}
		},
		Normalize: func(a BusAssignment) BusAssignment {
			if shift, err := ParseShift(string(a.Turno)); err == nil {
				a.Turno = shift
			}
			a.Notas = strings.TrimSpace(a.Notas)
			return a
		},
		ID: func(a BusAssignment) int64 { return a.ID },
		Payload: func(a BusAssignment) BusAssignment {
			return BusAssignment{Trabajador: a.Trabajador, Bus: a.Bus, Turno: a.Turno, Activo: a.Activo, Notas: a.Notas}
		},
	}
}
