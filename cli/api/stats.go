package api

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Stats are the dashboard counters.
type Stats struct {
	Trabajadores int `json:"trabajadores" yaml:"trabajadores"`
	Buses        int `json:"buses"        yaml:"buses"`
	Roles        int `json:"roles"        yaml:"roles"`
	Asignaciones int `json:"asignaciones" yaml:"asignaciones"`
}

// Stats counts workers, buses, roles and bus assignments in parallel. Any
// failure fails the whole call.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := c.Workers().FetchAll(gctx)
		s.Trabajadores = len(items)
		return err
	})
	g.Go(func() error {
		items, err := c.Buses().FetchAll(gctx)
		s.Buses = len(items)
		return err
	})
	g.Go(func() error {
		items, err := c.Roles().FetchAll(gctx)
		s.Roles = len(items)
		return err
	})
	g.Go(func() error {
		items, err := c.BusAssignments().FetchAll(gctx)
		s.Asignaciones = len(items)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}
	return &s, nil
}
