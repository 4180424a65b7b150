package fleet

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies one of the managed resources.
type Kind string

const (
	KindWorkers         Kind = "workers"
	KindBuses           Kind = "buses"
	KindRoles           Kind = "roles"
	KindRoleAssignments Kind = "role-assignments"
	KindBusAssignments  Kind = "bus-assignments"
)

// Kinds lists every resource kind in menu order.
var Kinds = []Kind{KindWorkers, KindBuses, KindRoles, KindRoleAssignments, KindBusAssignments}

var kindAliases = map[string]Kind{
	"workers":          KindWorkers,
	"worker":           KindWorkers,
	"trabajadores":     KindWorkers,
	"buses":            KindBuses,
	"bus":              KindBuses,
	"roles":            KindRoles,
	"role":             KindRoles,
	"rol":              KindRoles,
	"role-assignments": KindRoleAssignments,
	"asignaciones-rol": KindRoleAssignments,
	"bus-assignments":  KindBusAssignments,
	"asignaciones-bus": KindBusAssignments,
}

func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown resource %q", s)
}

// Path is the collection path relative to the API base URL.
func (k Kind) Path() string {
	switch k {
	case KindWorkers:
		return "/trabajadores/"
	case KindBuses:
		return "/buses/"
	case KindRoles:
		return "/roles/"
	case KindRoleAssignments:
		return "/asignaciones-rol/"
	case KindBusAssignments:
		return "/asignaciones-bus/"
	default:
		return ""
	}
}

// Title is the plural Spanish name shown to users.
func (k Kind) Title() string {
	switch k {
	case KindWorkers:
		return "Trabajadores"
	case KindBuses:
		return "Buses"
	case KindRoles:
		return "Roles"
	case KindRoleAssignments:
		return "Asignaciones de rol"
	case KindBusAssignments:
		return "Asignaciones de bus"
	default:
		return string(k)
	}
}

// Aliases returns the other names ParseKind accepts for k.
func (k Kind) Aliases() []string {
	out := make([]string, 0, 2)
	for alias, kind := range kindAliases {
		if kind == k && alias != string(k) {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}
