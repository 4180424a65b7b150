package crud

import (
	"context"
	"errors"
	"time"
)

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type gatedFetch struct {
	reply chan []person
}

// gatedOps parks every FetchAll until the test replies on its gate.
type gatedOps struct {
	*fakeOps
	gates chan gatedFetch
}

func (g *gatedOps) FetchAll(ctx context.Context) ([]person, error) {
	gate := gatedFetch{reply: make(chan []person, 1)}
	g.gates <- gate
	select {
	case items := <-gate.reply:
		return items, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type failAfterCreate struct {
	*fakeOps
	createdOnce bool
}

func (f *failAfterCreate) Create(ctx context.Context, data person) (person, error) {
	f.createdOnce = true
	return f.fakeOps.Create(ctx, data)
}

func (f *failAfterCreate) FetchAll(ctx context.Context) ([]person, error) {
	if f.createdOnce {
		return nil, errors.New("backend unavailable")
	}
	return f.fakeOps.FetchAll(ctx)
}

type blockingCreate struct {
	*fakeOps
	started chan struct{}
	release chan struct{}
}

func (b *blockingCreate) Create(ctx context.Context, data person) (person, error) {
	close(b.started)
	<-b.release
	return b.fakeOps.Create(ctx, data)
}
