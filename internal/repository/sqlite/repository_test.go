package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/julianbeese/estates/internal/domain"
	"github.com/julianbeese/estates/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "data", "estates.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestListingsRoundTripInCatalogOrder(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	listings := testutil.FiveListings()

	require.NoError(t, repo.ReplaceListings(ctx, listings))

	got, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(listings))
	for i := range listings {
		assert.Equal(t, listings[i].ID, got[i].ID)
		assert.Equal(t, listings[i].Address.City, got[i].Address.City)
		assert.Equal(t, listings[i].Price, got[i].Price)
	}

	n, err := repo.CountListings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestReplaceListingsDropsOldRows(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	require.NoError(t, repo.ReplaceListings(ctx, testutil.FiveListings()))
	require.NoError(t, repo.ReplaceListings(ctx, testutil.FiveListings()[:2]))

	got, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = repo.ByID(ctx, "5")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestByID(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	require.NoError(t, repo.ReplaceListings(ctx, testutil.FiveListings()))

	l, err := repo.ByID(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "Hackney", l.Address.District)

	_, err = repo.ByID(ctx, "404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSavedIDs(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	ids, err := repo.Load(ctx, "uk-estates-favorites")
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, repo.Save(ctx, "uk-estates-favorites", []string{"2", "1"}))
	require.NoError(t, repo.Save(ctx, "uk-estates-favorites", []string{"1", "2", "3"}))

	ids, err = repo.Load(ctx, "uk-estates-favorites")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids)

	require.NoError(t, repo.Save(ctx, "uk-estates-favorites", nil))
	ids, err = repo.Load(ctx, "uk-estates-favorites")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestInquiriesAndStats(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	require.NoError(t, repo.ReplaceListings(ctx, testutil.FiveListings()))

	q := &domain.Inquiry{
		ID:        "inq-1",
		ListingID: "1",
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		Phone:     "07700 900123",
		Message:   "Is the flat still available?",
	}
	require.NoError(t, repo.CreateInquiry(ctx, q))
	assert.Equal(t, domain.InquiryStatusPending, q.Status)
	require.NoError(t, repo.UpdateInquiryStatus(ctx, q.ID, domain.InquiryStatusSent, ""))

	failed := &domain.Inquiry{ID: "inq-2", ListingID: "1", Name: "Bob", Email: "b@example.com", Phone: "0123456789", Message: "Hello there agent"}
	require.NoError(t, repo.CreateInquiry(ctx, failed))
	require.NoError(t, repo.UpdateInquiryStatus(ctx, failed.ID, domain.InquiryStatusFailed, "telegram down"))

	inquiries, err := repo.InquiriesForListing(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, inquiries, 2)

	require.NoError(t, repo.LogActivity(ctx, &domain.ActivityLog{Action: domain.ActionFetchFailed, Details: "timeout"}))
	require.NoError(t, repo.LogActivity(ctx, &domain.ActivityLog{Action: domain.ActionCatalogLoaded, Details: "5 listings"}))

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Listings)
	assert.Equal(t, 1, stats.InquiriesSent)
	assert.Equal(t, 1, stats.InquiriesFailed)
	assert.Equal(t, 1, stats.FetchFailures)
	assert.NotNil(t, stats.LastCatalogLoad)
}

func TestStatsOnEmptyDatabase(t *testing.T) {
	stats, err := newRepo(t).GetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Listings)
	assert.Nil(t, stats.LastCatalogLoad)
}
