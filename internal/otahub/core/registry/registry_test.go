package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/otahub/internal/otahub/core"
	"github.com/autopeer-io/otahub/internal/otahub/store/memory"
)

func withRegistry(t *testing.T, s core.Store, fn func(ctx context.Context, r *Registry) error) error {
	t.Helper()
	return s.Atomic(context.Background(), core.FleetScope(), func(ctx context.Context, tx core.Tx) error {
		return fn(ctx, New(tx.Vehicles()))
	})
}

func TestRegister(t *testing.T) {
	s := memory.New()

	err := withRegistry(t, s, func(ctx context.Context, r *Registry) error {
		v, err := r.Register(ctx, "V1", "ModelX", "1.0", "active")
		require.NoError(t, err)
		assert.Equal(t, "V1", v.VehicleID)
		assert.Equal(t, "ModelX", v.Model)
		assert.Equal(t, "1.0", v.CurrentVersion)
		assert.Equal(t, "active", v.OperationalStatus)
		assert.False(t, v.CreatedAt.IsZero())
		return nil
	})
	require.NoError(t, err)

	err = withRegistry(t, s, func(ctx context.Context, r *Registry) error {
		_, err := r.Register(ctx, "V1", "Other", "9.9", "x")
		return err
	})
	assert.ErrorIs(t, err, core.ErrDuplicateVehicle)

	// Free-form fields are stored as given, empty strings included.
	require.NoError(t, withRegistry(t, s, func(ctx context.Context, r *Registry) error {
		_, err := r.Register(ctx, "V2", "", "", "")
		return err
	}))
}

func TestListAndGet(t *testing.T) {
	s := memory.New()
	for _, id := range []string{"B", "A", "C"} {
		id := id
		require.NoError(t, withRegistry(t, s, func(ctx context.Context, r *Registry) error {
			_, err := r.Register(ctx, id, "M", "1.0", "active")
			return err
		}))
	}

	require.NoError(t, withRegistry(t, s, func(ctx context.Context, r *Registry) error {
		list, err := r.List(ctx)
		require.NoError(t, err)
		var ids []string
		for _, v := range list {
			ids = append(ids, v.VehicleID)
		}
		assert.Equal(t, []string{"B", "A", "C"}, ids)

		_, err = r.Get(ctx, "Z")
		assert.ErrorIs(t, err, core.ErrVehicleNotFound)
		return nil
	}))
}

func TestApplyVersion(t *testing.T) {
	s := memory.New()
	require.NoError(t, withRegistry(t, s, func(ctx context.Context, r *Registry) error {
		_, err := r.Register(ctx, "V1", "M", "1.0", "active")
		return err
	}))

	require.NoError(t, withRegistry(t, s, func(ctx context.Context, r *Registry) error {
		return r.ApplyVersion(ctx, "V1", "2.0")
	}))
	err := withRegistry(t, s, func(ctx context.Context, r *Registry) error {
		return r.ApplyVersion(ctx, "nope", "2.0")
	})
	assert.ErrorIs(t, err, core.ErrVehicleNotFound)

	require.NoError(t, withRegistry(t, s, func(ctx context.Context, r *Registry) error {
		v, err := r.Get(ctx, "V1")
		require.NoError(t, err)
		assert.Equal(t, "2.0", v.CurrentVersion)
		return nil
	}))
}
