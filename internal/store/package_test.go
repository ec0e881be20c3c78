package store

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/swiftcourier/trackingserver/types"
)

var trackingPattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func sequence(values ...string) TrackingGenerator {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		v := values[i%len(values)]
		i++
		return v, nil
	}
}

func newPackageInput() types.NewPackage {
	return types.NewPackage{
		Status:          types.StatusInTransit,
		Sender:          types.Party{Name: "Ada", Address: "1 Loop St"},
		Receiver:        types.Party{Name: "Bob", Address: "2 Main Rd"},
		CurrentLocation: types.Location{Address: "Depot", Lat: 40.7, Lng: -74},
		PackageDetails:  types.PackageDetails{Type: "Box", Weight: "2 kg", Height: "30 cm", Color: "Brown"},
		AdminNotes:      "fragile",
	}
}

func TestRandomTrackingNumber_Shape(t *testing.T) {
	for range 200 {
		tn, err := RandomTrackingNumber()
		require.NoError(t, err)
		require.Regexp(t, trackingPattern, tn)
	}
}

func TestPackageRepository_CreateAssignsIdsAndTracking(t *testing.T) {
	ctx := context.Background()
	repo := NewPackageRepository(NewMemoryBackend())

	seen := map[string]bool{}
	for i := 1; i <= 20; i++ {
		pkg, err := repo.Create(ctx, newPackageInput())
		require.NoError(t, err)
		require.Equal(t, i, pkg.ID)
		require.Regexp(t, trackingPattern, pkg.TrackingNumber)
		require.False(t, seen[pkg.TrackingNumber])
		seen[pkg.TrackingNumber] = true
		require.Equal(t, pkg.CreatedAt, pkg.UpdatedAt)
	}
}

func TestPackageRepository_CreateUsesMaxPlusOne(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	coll := NewCollection[types.Package](backend, packagesCollection, nil)
	require.NoError(t, coll.Write(ctx, []types.Package{{ID: 7, TrackingNumber: "AAAAAAAA"}, {ID: 3, TrackingNumber: "BBBBBBBB"}}))

	pkg, err := NewPackageRepository(backend).Create(ctx, newPackageInput())
	require.NoError(t, err)
	require.Equal(t, 8, pkg.ID)
}

func TestPackageRepository_CreateRetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	repo := NewPackageRepository(NewMemoryBackend(),
		WithTrackingGenerator(sequence("AAAAAAAA", "AAAAAAAA", "AAAAAAAA", "BBBBBBBB")))

	first, err := repo.Create(ctx, newPackageInput())
	require.NoError(t, err)
	require.Equal(t, "AAAAAAAA", first.TrackingNumber)

	second, err := repo.Create(ctx, newPackageInput())
	require.NoError(t, err)
	require.Equal(t, "BBBBBBBB", second.TrackingNumber)
}

func TestPackageRepository_CreateFailsWhenGeneratorFails(t *testing.T) {
	boom := errors.New("entropy exhausted")
	repo := NewPackageRepository(NewMemoryBackend(),
		WithTrackingGenerator(func() (string, error) { return "", boom }))

	_, err := repo.Create(context.Background(), newPackageInput())
	require.ErrorIs(t, err, boom)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestPackageRepository_CreateDefaultsStatus(t *testing.T) {
	input := newPackageInput()
	input.Status = ""
	pkg, err := NewPackageRepository(NewMemoryBackend()).Create(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, types.StatusOnHold, pkg.Status)
}

func TestPackageRepository_UpdatePartial(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	now := created
	repo := NewPackageRepository(NewMemoryBackend(), WithClock(func() time.Time { return now }))

	pkg, err := repo.Create(ctx, newPackageInput())
	require.NoError(t, err)

	now = created.Add(time.Hour)
	status := types.StatusDelivered
	updated, err := repo.Update(ctx, pkg.ID, types.PackagePatch{Status: &status})
	require.NoError(t, err)

	require.Equal(t, types.StatusDelivered, updated.Status)
	require.Equal(t, pkg.Sender, updated.Sender)
	require.Equal(t, pkg.Receiver, updated.Receiver)
	require.Equal(t, pkg.CurrentLocation, updated.CurrentLocation)
	require.Equal(t, pkg.PackageDetails, updated.PackageDetails)
	require.Equal(t, pkg.AdminNotes, updated.AdminNotes)
	require.Equal(t, pkg.TrackingNumber, updated.TrackingNumber)
	require.True(t, updated.CreatedAt.Equal(created))
	require.True(t, updated.UpdatedAt.Equal(now))

	stored, err := repo.GetByID(ctx, pkg.ID)
	require.NoError(t, err)
	require.Equal(t, types.StatusDelivered, stored.Status)
}

func TestPackageRepository_UpdatedAtStrictlyIncreases(t *testing.T) {
	ctx := context.Background()
	repo := NewPackageRepository(NewMemoryBackend(), WithClock(fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))))

	pkg, err := repo.Create(ctx, newPackageInput())
	require.NoError(t, err)

	notes := "first"
	first, err := repo.Update(ctx, pkg.ID, types.PackagePatch{AdminNotes: &notes})
	require.NoError(t, err)
	require.True(t, first.UpdatedAt.After(pkg.UpdatedAt))

	notes = "second"
	second, err := repo.Update(ctx, pkg.ID, types.PackagePatch{AdminNotes: &notes})
	require.NoError(t, err)
	require.True(t, second.UpdatedAt.After(first.UpdatedAt))
	require.True(t, second.CreatedAt.Equal(pkg.CreatedAt))
}

func TestPackageRepository_UpdateMissing(t *testing.T) {
	notes := "x"
	_, err := NewPackageRepository(NewMemoryBackend()).Update(context.Background(), 42, types.PackagePatch{AdminNotes: &notes})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPackageRepository_DeleteMissingLeavesCollection(t *testing.T) {
	ctx := context.Background()
	repo := NewPackageRepository(NewMemoryBackend())
	pkg, err := repo.Create(ctx, newPackageInput())
	require.NoError(t, err)

	require.ErrorIs(t, repo.Delete(ctx, pkg.ID+1), ErrNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, repo.Delete(ctx, pkg.ID))
	_, err = repo.GetByID(ctx, pkg.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPackageRepository_TrackingLookupIsExact(t *testing.T) {
	ctx := context.Background()
	repo := NewPackageRepository(NewMemoryBackend(), WithTrackingGenerator(sequence("ABC12345")))
	_, err := repo.Create(ctx, newPackageInput())
	require.NoError(t, err)

	found, err := repo.GetByTrackingNumber(ctx, "ABC12345")
	require.NoError(t, err)
	require.Equal(t, "ABC12345", found.TrackingNumber)

	_, err = repo.GetByTrackingNumber(ctx, "abc12345")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPackageRepository_ConcurrentCreatesKeepEveryRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewPackageRepository(NewMemoryBackend())

	var wg sync.WaitGroup
	errs := make(chan error, 25)
	for range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, newPackageInput())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 25)

	ids := map[int]bool{}
	for _, pkg := range all {
		ids[pkg.ID] = true
	}
	require.Len(t, ids, 25)
}
