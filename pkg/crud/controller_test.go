package crud

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistemabuses/busadmin/pkg/logger"
)

type person struct {
	ID     int
	Nombre string
}

type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string       { return fmt.Sprintf("status %d", e.status) }
func (e *statusError) UserMessage() string { return e.message }

// fakeOps is an in-memory Operations implementation with call counters and
// injectable failures.
type fakeOps struct {
	mu        sync.Mutex
	records   []person
	nextID    int
	fetchErr  error
	createErr error
	updateErr error
	removeErr error
	fetches   int
	created   []person
	updated   map[int]person
	removed   []int
}

func newFakeOps(records ...person) *fakeOps {
	next := 1
	for _, r := range records {
		if r.ID >= next {
			next = r.ID + 1
		}
	}
	return &fakeOps{records: records, nextID: next, updated: map[int]person{}}
}

func (f *fakeOps) FetchAll(_ context.Context) ([]person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]person(nil), f.records...), nil
}

func (f *fakeOps) Create(_ context.Context, data person) (person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, data)
	if f.createErr != nil {
		return person{}, f.createErr
	}
	data.ID = f.nextID
	f.nextID++
	f.records = append(f.records, data)
	return data, nil
}

func (f *fakeOps) Update(_ context.Context, id int, data person) (person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[id] = data
	if f.updateErr != nil {
		return person{}, f.updateErr
	}
	for i := range f.records {
		if f.records[i].ID == id {
			data.ID = id
			f.records[i] = data
			return data, nil
		}
	}
	return person{}, &statusError{status: 404, message: "No encontrado."}
}

func (f *fakeOps) Remove(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	if f.removeErr != nil {
		return f.removeErr
	}
	for i := range f.records {
		if f.records[i].ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeOps) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func newController(ops Operations[person, int], opts ...Option) *Controller[person, int] {
	opts = append([]Option{WithName("personas"), WithLogger(logger.NewForTests())}, opts...)
	return New(ops, func(p person) int { return p.ID },
		FieldMatcher(func(p person) string { return p.Nombre }), opts...)
}

func TestController_Load(t *testing.T) {
	t.Run("Should replace the list with the fetched records in order", func(t *testing.T) {
		ops := newFakeOps(person{ID: 1, Nombre: "Ana"}, person{ID: 2, Nombre: "Bob"})
		c := newController(ops)

		require.NoError(t, c.Load(t.Context()))

		assert.Equal(t, []person{{1, "Ana"}, {2, "Bob"}}, c.Items())
		assert.False(t, c.Loading())
	})

	t.Run("Should keep the previous list when fetch fails", func(t *testing.T) {
		ops := newFakeOps(person{ID: 1, Nombre: "Ana"})
		c := newController(ops)
		require.NoError(t, c.Load(t.Context()))
		ops.fetchErr = &statusError{status: 500, message: "Servidor caído"}

		err := c.Load(t.Context())

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrLoadFailed)
		assert.Equal(t, "Servidor caído", Message(err))
		assert.Equal(t, []person{{1, "Ana"}}, c.Items())
		assert.False(t, c.Loading())
	})

	t.Run("Should fall back to a generic message", func(t *testing.T) {
		ops := newFakeOps()
		ops.fetchErr = errors.New("dial tcp: connection refused")
		c := newController(ops)

		err := c.Load(t.Context())

		assert.Equal(t, "Error al cargar personas", Message(err))
		var target *statusError
		assert.False(t, errors.As(err, &target))
	})

	t.Run("Should discard a completion older than the applied one", func(t *testing.T) {
		slow := &gatedOps{fakeOps: newFakeOps(), gates: make(chan gatedFetch, 2)}
		c := newController(slow)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); assert.NoError(t, c.Load(t.Context())) }()
		first := <-slow.gates
		go func() { defer wg.Done(); assert.NoError(t, c.Load(t.Context())) }()
		second := <-slow.gates

		second.reply <- []person{{ID: 2, Nombre: "Nuevo"}}
		require.Eventually(t, func() bool { return len(c.Items()) == 1 }, timeout, tick)
		assert.True(t, c.Loading())
		first.reply <- []person{{ID: 1, Nombre: "Viejo"}}
		wg.Wait()

		assert.Equal(t, []person{{ID: 2, Nombre: "Nuevo"}}, c.Items())
		assert.False(t, c.Loading())
	})
}

func TestController_SetQuery(t *testing.T) {
	ops := newFakeOps(person{ID: 1, Nombre: "Ana"}, person{ID: 2, Nombre: "Bob"}, person{ID: 3, Nombre: "Ángela"})
	c := newController(ops)
	require.NoError(t, c.Load(t.Context()))

	t.Run("Should filter case-insensitively by substring", func(t *testing.T) {
		c.SetQuery("AN")
		assert.Equal(t, []person{{1, "Ana"}, {3, "Ángela"}}, c.Filtered())
	})

	t.Run("Should return the full list for an empty query", func(t *testing.T) {
		c.SetQuery("")
		assert.Equal(t, c.Items(), c.Filtered())
	})

	t.Run("Should return the full list for a whitespace query", func(t *testing.T) {
		c.SetQuery("   \t")
		assert.Equal(t, c.Items(), c.Filtered())
	})

	t.Run("Should keep filtering across reloads", func(t *testing.T) {
		c.SetQuery("bob")
		ops.mu.Lock()
		ops.records = append(ops.records, person{ID: 4, Nombre: "Bobby"})
		ops.mu.Unlock()

		require.NoError(t, c.Load(t.Context()))

		assert.Equal(t, []person{{2, "Bob"}, {4, "Bobby"}}, c.Filtered())
		assert.Equal(t, "bob", c.Query())
	})

	t.Run("Should only return matching subset", func(t *testing.T) {
		for _, q := range []string{"a", "ob", "x", "ÁN", " "} {
			c.SetQuery(q)
			filtered := c.Filtered()
			for _, p := range filtered {
				assert.Contains(t, c.Items(), p)
				if q != " " {
					assert.True(t, c.match(p, q), "query %q record %v", q, p)
				}
			}
		}
	})
}

func TestController_OpenEdit(t *testing.T) {
	t.Run("Should prefill the form with the record values", func(t *testing.T) {
		c := newController(newFakeOps(person{ID: 7, Nombre: "Carla"}))
		require.NoError(t, c.Load(t.Context()))

		require.NoError(t, c.OpenEdit(7))

		modal, ok := c.Modal()
		require.True(t, ok)
		assert.Equal(t, ModeEdit, modal.Mode)
		assert.Equal(t, 7, modal.ID)
		assert.Equal(t, person{ID: 7, Nombre: "Carla"}, modal.Values)
	})

	t.Run("Should report NotFound and stay closed for unknown ids", func(t *testing.T) {
		c := newController(newFakeOps(person{ID: 7, Nombre: "Carla"}))
		require.NoError(t, c.Load(t.Context()))

		err := c.OpenEdit(99)

		assert.ErrorIs(t, err, ErrNotFound)
		_, ok := c.Modal()
		assert.False(t, ok)
	})

	t.Run("Should report AlreadyOpen before NotFound and keep the open form", func(t *testing.T) {
		c := newController(newFakeOps(person{ID: 7, Nombre: "Carla"}))
		require.NoError(t, c.Load(t.Context()))
		require.NoError(t, c.OpenCreate(person{Nombre: "draft"}))

		err := c.OpenEdit(99)

		assert.ErrorIs(t, err, ErrAlreadyOpen)
		assert.NotErrorIs(t, err, ErrNotFound)
		modal, ok := c.Modal()
		require.True(t, ok)
		assert.Equal(t, "draft", modal.Values.Nombre)
	})

	t.Run("Should end with no form when replacing with an unknown id", func(t *testing.T) {
		c := newController(newFakeOps(person{ID: 7, Nombre: "Carla"}), WithDoubleOpen(ReplaceDoubleOpen))
		require.NoError(t, c.Load(t.Context()))
		require.NoError(t, c.OpenEdit(7))

		err := c.OpenEdit(99)

		assert.ErrorIs(t, err, ErrNotFound)
		_, ok := c.Modal()
		assert.False(t, ok)
	})
}

func TestController_DoubleOpen(t *testing.T) {
	t.Run("Should reject a second open by default", func(t *testing.T) {
		c := newController(newFakeOps())
		require.NoError(t, c.OpenCreate(person{Nombre: "first"}))

		err := c.OpenCreate(person{Nombre: "second"})

		assert.ErrorIs(t, err, ErrAlreadyOpen)
		modal, _ := c.Modal()
		assert.Equal(t, "first", modal.Values.Nombre)
	})

	t.Run("Should replace the pending form when configured", func(t *testing.T) {
		c := newController(newFakeOps(), WithDoubleOpen(ReplaceDoubleOpen))
		require.NoError(t, c.OpenCreate(person{Nombre: "first"}))

		require.NoError(t, c.OpenCreate(person{Nombre: "second"}))

		modal, _ := c.Modal()
		assert.Equal(t, "second", modal.Values.Nombre)
	})

	t.Run("Should allow reopening after close", func(t *testing.T) {
		c := newController(newFakeOps())
		require.NoError(t, c.OpenCreate(person{}))
		c.CloseModal()
		c.CloseModal()

		assert.NoError(t, c.OpenCreate(person{}))
	})
}

func TestController_Submit(t *testing.T) {
	t.Run("Should create once, close the form and reload", func(t *testing.T) {
		ops := newFakeOps()
		c := newController(ops)
		require.NoError(t, c.Load(t.Context()))
		require.NoError(t, c.OpenCreate(person{}))
		fetchesBefore := ops.fetchCount()

		saved, err := c.Submit(t.Context(), person{Nombre: "Dora"})

		require.NoError(t, err)
		assert.Equal(t, 1, saved.ID)
		assert.Equal(t, []person{{Nombre: "Dora"}}, ops.created)
		assert.Equal(t, fetchesBefore+1, ops.fetchCount())
		assert.Contains(t, c.Items(), person{ID: 1, Nombre: "Dora"})
		_, open := c.Modal()
		assert.False(t, open)
	})

	t.Run("Should update the edited record by id", func(t *testing.T) {
		ops := newFakeOps(person{ID: 3, Nombre: "Eva"})
		c := newController(ops)
		require.NoError(t, c.Load(t.Context()))
		require.NoError(t, c.OpenEdit(3))

		_, err := c.Submit(t.Context(), person{ID: 3, Nombre: "Eva María"})

		require.NoError(t, err)
		assert.Equal(t, person{ID: 3, Nombre: "Eva María"}, ops.updated[3])
		assert.Equal(t, []person{{3, "Eva María"}}, c.Items())
	})

	t.Run("Should keep the form open with the entered values on failure", func(t *testing.T) {
		ops := newFakeOps()
		ops.createErr = &statusError{status: 400, message: "nombre: Este campo es requerido."}
		c := newController(ops)
		require.NoError(t, c.OpenCreate(person{}))
		fetchesBefore := ops.fetchCount()

		_, err := c.Submit(t.Context(), person{Nombre: "  "})

		assert.ErrorIs(t, err, ErrSubmitFailed)
		assert.Equal(t, "nombre: Este campo es requerido.", Message(err))
		modal, open := c.Modal()
		require.True(t, open)
		assert.Equal(t, person{Nombre: "  "}, modal.Values)
		assert.False(t, modal.Submitting)
		assert.Equal(t, "nombre: Este campo es requerido.", modal.LastError)
		assert.Equal(t, fetchesBefore, ops.fetchCount())

		ops.createErr = nil
		_, err = c.Submit(t.Context(), person{Nombre: "Fede"})
		require.NoError(t, err)
	})

	t.Run("Should fail without an open form", func(t *testing.T) {
		c := newController(newFakeOps())

		_, err := c.Submit(t.Context(), person{})

		assert.ErrorIs(t, err, ErrNoModal)
	})

	t.Run("Should report a failed reload after a successful save", func(t *testing.T) {
		ops := &failAfterCreate{fakeOps: newFakeOps()}
		c := newController(ops)
		require.NoError(t, c.OpenCreate(person{}))

		saved, err := c.Submit(t.Context(), person{Nombre: "Gus"})

		assert.ErrorIs(t, err, ErrLoadFailed)
		assert.Equal(t, "Gus", saved.Nombre)
		_, open := c.Modal()
		assert.False(t, open)
	})

	t.Run("Should not close a form opened while saving", func(t *testing.T) {
		ops := &blockingCreate{fakeOps: newFakeOps(), started: make(chan struct{}), release: make(chan struct{})}
		c := newController(ops)
		require.NoError(t, c.OpenCreate(person{}))
		done := make(chan error, 1)
		go func() {
			_, err := c.Submit(t.Context(), person{Nombre: "Hugo"})
			done <- err
		}()
		<-ops.started

		_, busy := c.Submit(t.Context(), person{Nombre: "again"})
		assert.ErrorIs(t, busy, ErrBusy)
		c.CloseModal()
		require.NoError(t, c.OpenCreate(person{Nombre: "next"}))
		close(ops.release)

		require.NoError(t, <-done)
		modal, open := c.Modal()
		require.True(t, open)
		assert.Equal(t, "next", modal.Values.Nombre)
	})
}

func TestController_DeleteRecord(t *testing.T) {
	t.Run("Should remove and reload", func(t *testing.T) {
		ops := newFakeOps(person{ID: 1, Nombre: "Ana"}, person{ID: 2, Nombre: "Bob"})
		c := newController(ops)
		require.NoError(t, c.Load(t.Context()))

		require.NoError(t, c.DeleteRecord(t.Context(), 2))

		assert.Equal(t, []person{{1, "Ana"}}, c.Items())
		assert.Equal(t, 2, ops.fetchCount())
	})

	t.Run("Should leave the list unchanged and skip reload on failure", func(t *testing.T) {
		ops := newFakeOps(person{ID: 1, Nombre: "Ana"}, person{ID: 2, Nombre: "Bob"})
		ops.removeErr = &statusError{status: 500}
		c := newController(ops)
		require.NoError(t, c.Load(t.Context()))

		err := c.DeleteRecord(t.Context(), 2)

		assert.ErrorIs(t, err, ErrDeleteFailed)
		assert.Equal(t, "Error al eliminar", Message(err))
		assert.Equal(t, []int{2}, ops.removed)
		assert.Equal(t, 1, ops.fetchCount())
		assert.Len(t, c.Items(), 2)
		var se *statusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, 500, se.status)
	})
}

func TestController_Snapshot(t *testing.T) {
	t.Run("Should copy list and modal state", func(t *testing.T) {
		c := newController(newFakeOps(person{ID: 1, Nombre: "Ana"}))
		require.NoError(t, c.Load(t.Context()))
		require.NoError(t, c.OpenEdit(1))

		snap := c.Snapshot()
		snap.Items[0].Nombre = "mutated"
		snap.Modal.Values.Nombre = "mutated"

		assert.True(t, snap.Loaded)
		assert.Equal(t, "Ana", c.Items()[0].Nombre)
		modal, _ := c.Modal()
		assert.Equal(t, "Ana", modal.Values.Nombre)
	})
}

func TestParseDoubleOpenPolicy(t *testing.T) {
	t.Run("Should parse known policies", func(t *testing.T) {
		p, err := ParseDoubleOpenPolicy("replace")
		require.NoError(t, err)
		assert.Equal(t, ReplaceDoubleOpen, p)
		p, err = ParseDoubleOpenPolicy("")
		require.NoError(t, err)
		assert.Equal(t, RejectDoubleOpen, p)
		_, err = ParseDoubleOpenPolicy("merge")
		assert.Error(t, err)
	})
}
