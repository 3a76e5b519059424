package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	productrepo "storefront-checkout/internal/repository/product"
)

func TestApplyIsIdempotent(t *testing.T) {
	repo := productrepo.NewMemory()
	ctx := context.Background()

	require.NoError(t, Apply(ctx, repo))
	first, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, len(Products))

	require.NoError(t, Apply(ctx, repo))
	second, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
