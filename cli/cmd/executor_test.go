package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistemabuses/busadmin/cli/api"
	"github.com/sistemabuses/busadmin/cli/helpers"
	"github.com/sistemabuses/busadmin/cli/tui/models"
	"github.com/sistemabuses/busadmin/engine/fleet"
	"github.com/sistemabuses/busadmin/pkg/config"
	"github.com/sistemabuses/busadmin/pkg/crud"
	testhelpers "github.com/sistemabuses/busadmin/test/helpers"
)

func newTestCommand(ctx context.Context) *cobra.Command {
	c := &cobra.Command{Use: "test"}
	c.SetContext(ctx)
	c.SetOut(&bytes.Buffer{})
	c.SetErr(&bytes.Buffer{})
	return c
}

func TestNewCommandExecutor(t *testing.T) {
	t.Run("Should require a session when auth is needed", func(t *testing.T) {
		ctx := testhelpers.ConfigContext(t, nil)
		_, err := NewCommandExecutor(newTestCommand(ctx), ExecutorOptions{RequireAuth: true})
		require.Error(t, err)
		assert.True(t, helpers.IsAuthError(err))
	})

	t.Run("Should prefer an explicit token over the stored session", func(t *testing.T) {
		ctx := testhelpers.ConfigContext(t, map[string]any{"token": "explicit"})
		store, err := api.NewSessionStore(config.FromContext(ctx).Session.File)
		require.NoError(t, err)
		require.NoError(t, store.Save(&api.Session{Token: "stored"}))

		executor, err := NewCommandExecutor(newTestCommand(ctx), ExecutorOptions{RequireAuth: true})
		require.NoError(t, err)
		assert.Equal(t, "explicit", executor.GetSession().Token)
		require.NotNil(t, executor.GetClient())
		assert.Equal(t, models.ModeJSON, executor.GetMode())
	})

	t.Run("Should use the stored session", func(t *testing.T) {
		ctx := testhelpers.ConfigContext(t, nil)
		store, err := api.NewSessionStore(config.FromContext(ctx).Session.File)
		require.NoError(t, err)
		require.NoError(t, store.Save(&api.Session{Token: "stored", Username: "admin"}))

		executor, err := NewCommandExecutor(newTestCommand(ctx), ExecutorOptions{RequireAuth: true})
		require.NoError(t, err)
		assert.Equal(t, "admin", executor.GetSession().Username)
	})

	t.Run("Should skip the client when not requested", func(t *testing.T) {
		ctx := testhelpers.ConfigContext(t, nil)
		executor, err := NewCommandExecutor(newTestCommand(ctx), ExecutorOptions{})
		require.NoError(t, err)
		assert.Nil(t, executor.GetClient())
	})

	t.Run("Should clear the stored session when the backend rejects it", func(t *testing.T) {
		backend := testhelpers.NewBackend(t)
		ctx := testhelpers.ConfigContext(t, map[string]any{"api-url": backend.URL()})
		store, err := api.NewSessionStore(config.FromContext(ctx).Session.File)
		require.NoError(t, err)
		require.NoError(t, store.Save(&api.Session{Token: "expired"}))

		executor, err := NewCommandExecutor(newTestCommand(ctx), ExecutorOptions{RequireAuth: true})
		require.NoError(t, err)
		_, err = executor.GetClient().Buses().FetchAll(ctx)
		require.Error(t, err)
		assert.True(t, api.IsUnauthorized(err))

		sess, err := store.Load()
		require.NoError(t, err)
		assert.False(t, sess.Authenticated())
	})
}

func TestExecute(t *testing.T) {
	t.Run("Should dispatch to the JSON handler", func(t *testing.T) {
		ctx := testhelpers.ConfigContext(t, nil)
		called := ""
		err := ExecuteCommand(newTestCommand(ctx), ExecutorOptions{}, ModeHandlers{
			JSON: func(context.Context, *cobra.Command, *CommandExecutor, []string) error {
				called = "json"
				return nil
			},
			TUI: func(context.Context, *cobra.Command, *CommandExecutor, []string) error {
				called = "tui"
				return nil
			},
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "json", called)
	})

	t.Run("Should report missing handlers", func(t *testing.T) {
		ctx := testhelpers.ConfigContext(t, nil)
		c := newTestCommand(ctx)
		err := ExecuteCommand(c, ExecutorOptions{}, ModeHandlers{}, nil)
		require.Error(t, err)
		assert.Contains(t, c.ErrOrStderr().(*bytes.Buffer).String(), "JSON mode handler not implemented")
	})

	t.Run("Should print categorized errors as JSON", func(t *testing.T) {
		ctx := testhelpers.ConfigContext(t, nil)
		c := newTestCommand(ctx)
		err := ExecuteCommand(c, ExecutorOptions{}, ModeHandlers{
			JSON: func(context.Context, *cobra.Command, *CommandExecutor, []string) error {
				return &fleet.ValidationError{Fields: map[string]string{"patente": "es obligatorio"}}
			},
		}, nil)
		var cliErr *helpers.CliError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, "VALIDATION_ERROR", cliErr.Code)
		assert.Contains(t, c.ErrOrStderr().(*bytes.Buffer).String(), `"code": "VALIDATION_ERROR"`)
	})
}

func TestCategorizeError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"canceled", fmt.Errorf("wrap: %w", context.Canceled), "OPERATION_CANCELED"},
		{"timeout", context.DeadlineExceeded, "OPERATION_TIMEOUT"},
		{"auth", helpers.NewAuthError("sin sesión"), "AUTH_ERROR"},
		{"unauthorized", &api.NetworkError{Status: 401}, "AUTH_ERROR"},
		{"validation", &fleet.ValidationError{Fields: map[string]string{"edad": "mínimo 18"}}, "VALIDATION_ERROR"},
		{"bad request", &crud.Error{Op: crud.OpSubmit, Kind: crud.ErrSubmitFailed, Err: &api.NetworkError{Status: 400}}, "VALIDATION_ERROR"},
		{"not found", &api.NetworkError{Status: 404}, "NOT_FOUND"},
		{"missing record", &crud.Error{Op: crud.OpOpenEdit, Kind: crud.ErrNotFound}, "NOT_FOUND"},
		{"transport", &api.NetworkError{Cause: errors.New("connection refused")}, "NETWORK_ERROR"},
		{"delete failed", &crud.Error{Op: crud.OpDelete, Kind: crud.ErrDeleteFailed, Message: "Error al eliminar"}, "OPERATION_FAILED"},
		{"server error", &api.NetworkError{Status: 500}, "API_ERROR"},
	}
	for _, tc := range cases {
		t.Run("Should categorize "+tc.name, func(t *testing.T) {
			cliErr := categorizeError(tc.err)
			require.NotNil(t, cliErr)
			assert.Equal(t, tc.code, cliErr.Code)
		})
	}

	t.Run("Should leave unknown errors alone", func(t *testing.T) {
		assert.Nil(t, categorizeError(errors.New("boom")))
	})

	t.Run("Should keep the backend message of a failed save", func(t *testing.T) {
		cause := &api.NetworkError{Status: 400, Payload: []byte(`{"patente":["Ya existe un bus con esta patente."]}`)}
		err := &crud.Error{Op: crud.OpSubmit, Kind: crud.ErrSubmitFailed, Message: cause.UserMessage(), Err: cause}
		cliErr := categorizeError(err)
		require.NotNil(t, cliErr)
		assert.Contains(t, cliErr.Details, "Ya existe un bus con esta patente.")
	})
}

func TestValidateRequiredFlags(t *testing.T) {
	t.Run("Should reject missing and empty flags", func(t *testing.T) {
		c := &cobra.Command{Use: "x"}
		c.Flags().String("name", "", "")
		err := ValidateRequiredFlags(c, []string{"name"})
		var cliErr *helpers.CliError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, "MISSING_FLAG", cliErr.Code)

		require.NoError(t, c.Flags().Set("name", ""))
		require.ErrorAs(t, ValidateRequiredFlags(c, []string{"name"}), &cliErr)
		assert.Equal(t, "EMPTY_FLAG", cliErr.Code)
	})
}
