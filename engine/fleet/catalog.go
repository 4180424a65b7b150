package fleet

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Lister fetches every record of one kind.
type Lister[R any] interface {
	FetchAll(ctx context.Context) ([]R, error)
}

// Catalog holds the active workers, roles and buses offered when creating
// an assignment.
type Catalog struct {
	Workers []Worker
	Roles   []Role
	Buses   []Bus
}

// LoadCatalog fetches the three lists in parallel and keeps active records
// only. If any fetch fails the catalog is empty.
func LoadCatalog(ctx context.Context, workers Lister[Worker], roles Lister[Role], buses Lister[Bus]) (*Catalog, error) {
	var (
		ws []Worker
		rs []Role
		bs []Bus
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		all, err := workers.FetchAll(gctx)
		ws = activeOnly(all, func(w Worker) bool { return w.Activo })
		return err
	})
	g.Go(func() error {
		all, err := roles.FetchAll(gctx)
		rs = activeOnly(all, func(r Role) bool { return r.Activo })
		return err
	})
	g.Go(func() error {
		all, err := buses.FetchAll(gctx)
		bs = activeOnly(all, func(b Bus) bool { return b.Activo })
		return err
	})
	if err := g.Wait(); err != nil {
		return &Catalog{}, fmt.Errorf("failed to load catalogs: %w", err)
	}
	return &Catalog{Workers: ws, Roles: rs, Buses: bs}, nil
}

func activeOnly[R any](items []R, active func(R) bool) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		if active(item) {
			out = append(out, item)
		}
	}
	return out
}

func (c *Catalog) WorkerName(id int64) string {
	for _, w := range c.Workers {
		if w.ID == id {
			return w.FullName()
		}
	}
	return fmt.Sprintf("#%d", id)
}

func (c *Catalog) RoleName(id int64) string {
	for _, r := range c.Roles {
		if r.ID == id {
			return r.Nombre
		}
	}
	return fmt.Sprintf("#%d", id)
}

func (c *Catalog) BusLabel(id int64) string {
	for _, b := range c.Buses {
		if b.ID == id {
			return b.Label()
		}
	}
	return fmt.Sprintf("#%d", id)
}

// Empty reports whether there is nothing to assign.
func (c *Catalog) Empty() bool {
	return len(c.Workers) == 0 && len(c.Roles) == 0 && len(c.Buses) == 0
}
