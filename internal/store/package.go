package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/swiftcourier/trackingserver/types"
)

const packagesCollection = "packages"

// PackageRepository handles persistence for packages. Mutations of one
// repository are serialized; separate processes sharing a backend are not
// coordinated and the last write wins.
type PackageRepository struct {
	mu       sync.Mutex
	packages *Collection[types.Package]
	opts     options
}

func NewPackageRepository(backend Backend, opts ...Option) *PackageRepository {
	return &PackageRepository{
		packages: NewCollection[types.Package](backend, packagesCollection, nil),
		opts:     newOptions(opts),
	}
}

// Init creates the empty packages collection if it does not exist.
func (r *PackageRepository) Init(ctx context.Context) error {
	return r.packages.Init(ctx)
}

func (r *PackageRepository) GetByID(ctx context.Context, id int) (types.Package, error) {
	for _, pkg := range r.packages.Read(ctx) {
		if pkg.ID == id {
			return pkg, nil
		}
	}
	return types.Package{}, ErrNotFound
}

// GetByTrackingNumber matches the tracking number exactly, case included.
func (r *PackageRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (types.Package, error) {
	for _, pkg := range r.packages.Read(ctx) {
		if pkg.TrackingNumber == trackingNumber {
			return pkg, nil
		}
	}
	return types.Package{}, ErrNotFound
}

// List returns all packages in insertion order.
func (r *PackageRepository) List(ctx context.Context) ([]types.Package, error) {
	return r.packages.Read(ctx), nil
}

// Create assigns an id, a fresh tracking number and timestamps, then appends
// the package. An empty status defaults to On Hold.
func (r *PackageRepository) Create(ctx context.Context, input types.NewPackage) (types.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	packages := r.packages.Read(ctx)

	maxID := 0
	for _, existing := range packages {
		maxID = max(maxID, existing.ID)
	}

	trackingNumber, err := r.allocateTrackingNumber(packages)
	if err != nil {
		return types.Package{}, err
	}

	status := input.Status
	if status == "" {
		status = types.StatusOnHold
	}

	now := r.opts.timestamp()
	pkg := types.Package{
		ID:              maxID + 1,
		TrackingNumber:  trackingNumber,
		Status:          status,
		Sender:          input.Sender,
		Receiver:        input.Receiver,
		CurrentLocation: input.CurrentLocation,
		PackageDetails:  input.PackageDetails,
		AdminNotes:      input.AdminNotes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := r.packages.Write(ctx, append(packages, pkg)); err != nil {
		return types.Package{}, err
	}
	return pkg, nil
}

// Update merges patch into the package with the given id and refreshes
// UpdatedAt. The id, tracking number and creation time never change.
func (r *PackageRepository) Update(ctx context.Context, id int, patch types.PackagePatch) (types.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	packages := r.packages.Read(ctx)
	index := slices.IndexFunc(packages, func(pkg types.Package) bool { return pkg.ID == id })
	if index == -1 {
		return types.Package{}, ErrNotFound
	}

	current := packages[index]
	updated := patch.Apply(current)
	updated.ID = current.ID
	updated.TrackingNumber = current.TrackingNumber
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = r.opts.timestamp()
	if !updated.UpdatedAt.After(current.UpdatedAt) {
		updated.UpdatedAt = current.UpdatedAt.Add(timestampStep)
	}
	packages[index] = updated

	if err := r.packages.Write(ctx, packages); err != nil {
		return types.Package{}, err
	}
	return updated, nil
}

// Delete removes the package with the given id.
func (r *PackageRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	packages := r.packages.Read(ctx)
	index := slices.IndexFunc(packages, func(pkg types.Package) bool { return pkg.ID == id })
	if index == -1 {
		return ErrNotFound
	}
	return r.packages.Write(ctx, slices.Delete(packages, index, index+1))
}

func (r *PackageRepository) allocateTrackingNumber(packages []types.Package) (string, error) {
	taken := make(map[string]struct{}, len(packages))
	for _, pkg := range packages {
		taken[pkg.TrackingNumber] = struct{}{}
	}
	for {
		candidate, err := r.opts.generate()
		if err != nil {
			return "", fmt.Errorf("generate tracking number: %w", err)
		}
		if _, exists := taken[candidate]; !exists {
			return candidate, nil
		}
	}
}
