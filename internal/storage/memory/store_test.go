package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/briannabogos1157/threadtwin/internal/dupe"
)

func TestProductStoreUpsertAndGet(t *testing.T) {
	t.Parallel()

	store := NewProductStore()
	ctx := context.Background()

	_, ok, err := store.GetByURL(ctx, "https://a.example/p")
	require.NoError(t, err)
	require.False(t, ok)

	product := dupe.ProductAttributes{SourceURL: "https://a.example/p", Name: "Tank", Price: 19.99}
	require.NoError(t, store.Upsert(ctx, product))

	got, ok, err := store.GetByURL(ctx, "https://a.example/p")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, product, got)

	// Upsert replaces in place.
	product.Price = 9.99
	require.NoError(t, store.Upsert(ctx, product))
	got, _, _ = store.GetByURL(ctx, "https://a.example/p")
	require.InDelta(t, 9.99, got.Price, 1e-9)

	require.Error(t, store.Upsert(ctx, dupe.ProductAttributes{Name: "no url"}))
}

func TestProductStoreListAndSearch(t *testing.T) {
	t.Parallel()

	store := NewProductStore()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, dupe.ProductAttributes{SourceURL: "https://b.example/rib", Name: "Ribbed Tank"}))
	require.NoError(t, store.Upsert(ctx, dupe.ProductAttributes{SourceURL: "https://a.example/slip", Name: "Satin Slip Dress"}))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "https://a.example/slip", all[0].SourceURL)

	hits, err := store.Search(ctx, "ribbed")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "Ribbed Tank", hits[0].Name)

	hits, err = store.Search(ctx, "b.example")
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hits, err = store.Search(ctx, "  ")
	require.NoError(t, err)
	require.Len(t, hits, 2)
}

func TestSubmissionStoreLifecycle(t *testing.T) {
	t.Parallel()

	store := NewSubmissionStore()
	ctx := context.Background()
	now := time.Now()

	first := dupe.Submission{
		ID:              "sub-1",
		OriginalProduct: "https://a.example/p",
		DupeProduct:     "https://b.example/p",
		Status:          dupe.SubmissionPending,
		CreatedAt:       now,
	}
	second := first
	second.ID = "sub-2"
	second.CreatedAt = now.Add(time.Minute)

	require.NoError(t, store.CreateSubmission(ctx, first))
	require.NoError(t, store.CreateSubmission(ctx, second))
	require.Error(t, store.CreateSubmission(ctx, first), "duplicate id")
	require.Error(t, store.CreateSubmission(ctx, dupe.Submission{}), "missing id")

	pending, err := store.ListSubmissions(ctx, dupe.SubmissionPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "sub-2", pending[0].ID, "newest first")

	require.NoError(t, store.UpdateSubmissionStatus(ctx, "sub-1", dupe.SubmissionApproved))
	approved, err := store.ListSubmissions(ctx, dupe.SubmissionApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	require.Equal(t, "sub-1", approved[0].ID)

	all, err := store.ListSubmissions(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.ErrorIs(t, store.UpdateSubmissionStatus(ctx, "missing", dupe.SubmissionRejected), ErrSubmissionNotFound)
	require.Error(t, store.UpdateSubmissionStatus(ctx, "sub-1", "bogus"))
}
