package fleet

import (
	"fmt"
	"strings"
)

// Worker is a trabajador.
type Worker struct {
	ID        int64  `json:"id,omitempty"        yaml:"id,omitempty"`
	Nombre    string `json:"nombre"              yaml:"nombre"              validate:"required,max=100"`
	Apellido  string `json:"apellido"            yaml:"apellido"            validate:"required,max=100"`
	Edad      int    `json:"edad"                yaml:"edad"                validate:"min=18,max=70"`
	Contacto  string `json:"contacto"            yaml:"contacto"            validate:"required,max=100"`
	Direccion string `json:"direccion"           yaml:"direccion"           validate:"required,max=255"`
	Activo    bool   `json:"activo"              yaml:"activo"`
}

func (w Worker) FullName() string {
	return strings.TrimSpace(w.Nombre + " " + w.Apellido)
}

// Bus is a vehicle of the fleet. Patente is stored upper-cased.
type Bus struct {
	ID        int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Patente   string `json:"patente"      yaml:"patente"   validate:"required,max=10"`
	Marca     string `json:"marca"        yaml:"marca"     validate:"required,max=50"`
	Modelo    string `json:"modelo"       yaml:"modelo"    validate:"required,max=50"`
	Anio      int    `json:"año"          yaml:"año"       validate:"min=1990"`
	Capacidad int    `json:"capacidad"    yaml:"capacidad" validate:"min=10,max=80"`
	Activo    bool   `json:"activo"       yaml:"activo"`
}

func (b Bus) Label() string {
	return fmt.Sprintf("%s - %s", b.Patente, b.Modelo)
}

// Role is a job role with an access level from 1 to 5.
type Role struct {
	ID           int64  `json:"id,omitempty"                    yaml:"id,omitempty"`
	Nombre       string `json:"nombre"                          yaml:"nombre"                          validate:"required,max=100"`
	Descripcion  string `json:"descripcion"                     yaml:"descripcion"                     validate:"max=500"`
	NivelAcceso  int    `json:"nivel_acceso"                    yaml:"nivel_acceso"                    validate:"min=1,max=5"`
	Activo       bool   `json:"activo"                          yaml:"activo"`
	Asignaciones int    `json:"cantidad_asignaciones,omitempty" yaml:"cantidad_asignaciones,omitempty"`
}

// RoleAssignment links a worker to a role. Fields after Notas are computed
// by the backend and never sent.
type RoleAssignment struct {
	ID                 int64  `json:"id,omitempty"                  yaml:"id,omitempty"`
	Trabajador         int64  `json:"trabajador"                    yaml:"trabajador" validate:"required,gt=0"`
	Rol                int64  `json:"rol"                           yaml:"rol"        validate:"required,gt=0"`
	Activo             bool   `json:"activo"                        yaml:"activo"`
	Notas              string `json:"notas"                         yaml:"notas"      validate:"max=1000"`
	TrabajadorNombre   string `json:"trabajador_nombre,omitempty"   yaml:"trabajador_nombre,omitempty"`
	TrabajadorApellido string `json:"trabajador_apellido,omitempty" yaml:"trabajador_apellido,omitempty"`
	RolNombre          string `json:"rol_nombre,omitempty"          yaml:"rol_nombre,omitempty"`
	FechaAsignacion    string `json:"fecha_asignacion,omitempty"    yaml:"fecha_asignacion,omitempty"`
}

func (a RoleAssignment) WorkerName() string {
	return strings.TrimSpace(a.TrabajadorNombre + " " + a.TrabajadorApellido)
}

// BusAssignment links a worker to a bus for a shift.
type BusAssignment struct {
	ID                 int64  `json:"id,omitempty"                  yaml:"id,omitempty"`
	Trabajador         int64  `json:"trabajador"                    yaml:"trabajador" validate:"required,gt=0"`
	Bus                int64  `json:"bus"                           yaml:"bus"        validate:"required,gt=0"`
	Turno              Shift  `json:"turno"                         yaml:"turno"      validate:"shift"`
	Activo             bool   `json:"activo"                        yaml:"activo"`
	Notas              string `json:"notas"                         yaml:"notas"      validate:"max=1000"`
	TrabajadorNombre   string `json:"trabajador_nombre,omitempty"   yaml:"trabajador_nombre,omitempty"`
	TrabajadorApellido string `json:"trabajador_apellido,omitempty" yaml:"trabajador_apellido,omitempty"`
	BusPatente         string `json:"bus_patente,omitempty"         yaml:"bus_patente,omitempty"`
	BusModelo          string `json:"bus_modelo,omitempty"          yaml:"bus_modelo,omitempty"`
	TurnoDisplay       string `json:"turno_display,omitempty"       yaml:"turno_display,omitempty"`
	FechaAsignacion    string `json:"fecha_asignacion,omitempty"    yaml:"fecha_asignacion,omitempty"`
}

func (a BusAssignment) WorkerName() string {
	return strings.TrimSpace(a.TrabajadorNombre + " " + a.TrabajadorApellido)
}

// Shift is a bus assignment turn.
type Shift string

const (
	ShiftMorning   Shift = "MAÑANA"
	ShiftAfternoon Shift = "TARDE"
	ShiftNight     Shift = "NOCHE"
)

// Shifts lists the valid shifts in display order.
var Shifts = []Shift{ShiftMorning, ShiftAfternoon, ShiftNight}

// ParseShift accepts the backend value, its label, or the unaccented form.
func ParseShift(s string) (Shift, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MAÑANA", "MANANA":
		return ShiftMorning, nil
	case "TARDE":
		return ShiftAfternoon, nil
	case "NOCHE":
		return ShiftNight, nil
	default:
		return "", fmt.Errorf("invalid shift %q: expected MAÑANA, TARDE or NOCHE", s)
	}
}

func (s Shift) Valid() bool {
	return s == ShiftMorning || s == ShiftAfternoon || s == ShiftNight
}

func (s Shift) Label() string {
	switch s {
	case ShiftMorning:
		return "Mañana"
	case ShiftAfternoon:
		return "Tarde"
	case ShiftNight:
		return "Noche"
	default:
		return string(s)
	}
}
