package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/swiftcourier/trackingserver/types"
)

var (
	// ErrUnsupportedImage is returned when an uploaded photo is not one of
	// the accepted image formats.
	ErrUnsupportedImage = errors.New("unsupported image type")
	// ErrImageTooLarge is returned when an uploaded photo exceeds the size
	// limit.
	ErrImageTooLarge = errors.New("image too large")
)

// DefaultMaxPhotoBytes bounds photo uploads when no limit is configured.
const DefaultMaxPhotoBytes = 5 << 20

var allowedPhotoTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// PackageRepository defines persistence operations for packages.
type PackageRepository interface {
	GetByID(ctx context.Context, id int) (types.Package, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (types.Package, error)
	List(ctx context.Context) ([]types.Package, error)
	Create(ctx context.Context, input types.NewPackage) (types.Package, error)
	Update(ctx context.Context, id int, patch types.PackagePatch) (types.Package, error)
	Delete(ctx context.Context, id int) error
}

// PhotoStorage is where package photos are kept.
type PhotoStorage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Move(ctx context.Context, srcKey, dstKey string) error
	Delete(ctx context.Context, key string) error
}

// Photo is an uploaded image as received from the client.
type Photo struct {
	Filename string
	Content  io.Reader
}

type preparedPhoto struct {
	data        []byte
	contentType string
	ext         string
}

// PackageService encapsulates package use-cases.
type PackageService struct {
	repo          PackageRepository
	photos        PhotoStorage
	events        *EventPublisher
	maxPhotoBytes int64
}

func NewPackageService(repo PackageRepository, photos PhotoStorage, events *EventPublisher, maxPhotoBytes int64) *PackageService {
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = DefaultMaxPhotoBytes
	}
	return &PackageService{
		repo:          repo,
		photos:        photos,
		events:        events,
		maxPhotoBytes: maxPhotoBytes,
	}
}

// Track looks a package up by its exact tracking number.
func (s *PackageService) Track(ctx context.Context, trackingNumber string) (types.Package, error) {
	return s.repo.GetByTrackingNumber(ctx, trackingNumber)
}

func (s *PackageService) GetByID(ctx context.Context, id int) (types.Package, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PackageService) List(ctx context.Context) ([]types.Package, error) {
	return s.repo.List(ctx)
}

// Create registers a package. When photo is set it is checked before the
// package is created, then stored under the new tracking number.
func (s *PackageService) Create(ctx context.Context, input types.NewPackage, photo *Photo) (types.Package, error) {
	var prepared *preparedPhoto
	if photo != nil {
		p, err := s.preparePhoto(photo)
		if err != nil {
			return types.Package{}, err
		}
		prepared = &p
	}

	pkg, err := s.repo.Create(ctx, input)
	if err != nil {
		return types.Package{}, err
	}

	if prepared != nil {
		name, err := s.storePhoto(ctx, pkg.TrackingNumber, *prepared)
		if err != nil {
			return types.Package{}, err
		}
		pkg, err = s.repo.Update(ctx, pkg.ID, types.PackagePatch{Photo: &name})
		if err != nil {
			return types.Package{}, err
		}
	}

	s.events.packageEvent(ctx, EventPackageCreated, pkg)
	return pkg, nil
}

// Update applies patch to the package with the given id, storing photo first
// when one is supplied.
func (s *PackageService) Update(ctx context.Context, id int, patch types.PackagePatch, photo *Photo) (types.Package, error) {
	if photo != nil {
		prepared, err := s.preparePhoto(photo)
		if err != nil {
			return types.Package{}, err
		}
		existing, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return types.Package{}, err
		}
		name, err := s.storePhoto(ctx, existing.TrackingNumber, prepared)
		if err != nil {
			return types.Package{}, err
		}
		patch.Photo = &name
	}

	pkg, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return types.Package{}, err
	}
	s.events.packageEvent(ctx, EventPackageUpdated, pkg)
	return pkg, nil
}

// Delete removes the package. Its photo, if any, is left in storage.
func (s *PackageService) Delete(ctx context.Context, id int) error {
	pkg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.events.packageEvent(ctx, EventPackageDeleted, pkg)
	return nil
}

func (s *PackageService) preparePhoto(photo *Photo) (preparedPhoto, error) {
	data, err := io.ReadAll(io.LimitReader(photo.Content, s.maxPhotoBytes+1))
	if err != nil {
		return preparedPhoto{}, fmt.Errorf("read photo: %w", err)
	}
	if int64(len(data)) > s.maxPhotoBytes {
		return preparedPhoto{}, ErrImageTooLarge
	}

	detected := mimetype.Detect(data)
	if !mimetype.EqualsAny(detected.String(), allowedPhotoTypes...) {
		return preparedPhoto{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, detected.String())
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(photo.Filename)))
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		ext = detected.Extension()
	}

	return preparedPhoto{data: data, contentType: detected.String(), ext: ext}, nil
}

// storePhoto spools the image to a temporary object and moves it to
// <trackingNumber><ext>, replacing an earlier photo with the same name.
func (s *PackageService) storePhoto(ctx context.Context, trackingNumber string, photo preparedPhoto) (string, error) {
	tmpKey := ".spool-" + uuid.NewString()
	if err := s.photos.Put(ctx, tmpKey, bytes.NewReader(photo.data), int64(len(photo.data)), photo.contentType); err != nil {
		return "", fmt.Errorf("spool photo: %w", err)
	}

	name := trackingNumber + photo.ext
	if err := s.photos.Move(ctx, tmpKey, name); err != nil {
		if delErr := s.photos.Delete(ctx, tmpKey); delErr != nil {
			log.WithError(delErr).WithField("key", tmpKey).Warn("failed to remove spooled photo")
		}
		return "", fmt.Errorf("store photo: %w", err)
	}
	return name, nil
}
