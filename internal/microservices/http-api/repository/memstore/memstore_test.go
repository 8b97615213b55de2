package memstore

import (
	"context"
	"testing"

	"libhub/internal/microservices/http-api/models"
	"libhub/internal/microservices/http-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_CancelledBeforeStartRunsNothing(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Transaction(ctx, func(tx repository.Store) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestTransaction_CancelledDuringRunRollsBack(t *testing.T) {
	store := New()
	id := store.SeedAuthor(models.Author{Name: "Octavia E. Butler"})
	ctx, cancel := context.WithCancel(context.Background())

	err := store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Authors().MarkDeleted(ctx, id); err != nil {
			return err
		}
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	a, ok := store.Author(id)
	require.True(t, ok)
	assert.False(t, a.IsDeleted)
}

func TestTransaction_ErrorRestoresSnapshot(t *testing.T) {
	store := New()
	id := store.SeedAuthor(models.Author{Name: "Octavia E. Butler"})
	store.FailOn(OpMarkSeries, assert.AnError)

	err := store.Transaction(context.Background(), func(tx repository.Store) error {
		if _, err := tx.Authors().MarkDeleted(context.Background(), id); err != nil {
			return err
		}
		_, err := tx.Series().MarkDeleted(context.Background(), 1)
		return err
	})

	assert.ErrorIs(t, err, assert.AnError)
	a, _ := store.Author(id)
	assert.False(t, a.IsDeleted)
}
