package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/swiftcourier/trackingserver/internal/mq"
	"github.com/swiftcourier/trackingserver/internal/storage"
	"github.com/swiftcourier/trackingserver/internal/store"
	"github.com/swiftcourier/trackingserver/types"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type published struct {
	channel string
	event   Event
	attrs   map[string]string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{channel: channel, event: event, attrs: attrs})
	return "id", p.err
}

type fixture struct {
	packages *PackageService
	contacts *ContactService
	photos   *storage.Storage
	pub      *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	backend := store.NewMemoryBackend()
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	photos := storage.NewStorage(local)
	pub := &recordingPublisher{}
	events := NewEventPublisher(pub)
	return fixture{
		packages: NewPackageService(store.NewPackageRepository(backend), photos, events, 1024),
		contacts: NewContactService(store.NewContactRepository(backend), events),
		photos:   photos,
		pub:      pub,
	}
}

func input() types.NewPackage {
	return types.NewPackage{
		Status:          types.StatusOnHold,
		Sender:          types.Party{Name: "Ada", Address: "1 Loop St"},
		Receiver:        types.Party{Name: "Bob", Address: "2 Main Rd"},
		CurrentLocation: types.Location{Address: "Depot", Lat: 1, Lng: 2},
		PackageDetails:  types.PackageDetails{Type: "Box", Weight: "1 kg", Height: "1 m", Color: "Blue"},
	}
}

func storedBytes(t *testing.T, photos *storage.Storage, key string) []byte {
	t.Helper()
	rc, err := photos.Get(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func TestPackageService_CreateWithPhoto(t *testing.T) {
	f := newFixture(t)
	pkg, err := f.packages.Create(context.Background(), input(), &Photo{Filename: "Parcel.PNG", Content: bytes.NewReader(pngHeader)})
	require.NoError(t, err)

	require.Equal(t, pkg.TrackingNumber+".png", pkg.Photo)
	require.Equal(t, pngHeader, storedBytes(t, f.photos, pkg.Photo))

	require.Len(t, f.pub.events, 1)
	require.Equal(t, PackagesChannel, f.pub.events[0].channel)
	require.Equal(t, EventPackageCreated, f.pub.events[0].event.Type)
	require.Equal(t, pkg.TrackingNumber, f.pub.events[0].event.TrackingNumber)
}

func TestPackageService_CreateRejectsNonImage(t *testing.T) {
	f := newFixture(t)
	_, err := f.packages.Create(context.Background(), input(), &Photo{Filename: "notes.png", Content: strings.NewReader("just some text")})
	require.ErrorIs(t, err, ErrUnsupportedImage)

	all, err := f.packages.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
	require.Empty(t, f.pub.events)
}

func TestPackageService_CreateRejectsLargePhoto(t *testing.T) {
	f := newFixture(t)
	big := append(append([]byte{}, pngHeader...), make([]byte, 2048)...)
	_, err := f.packages.Create(context.Background(), input(), &Photo{Filename: "big.png", Content: bytes.NewReader(big)})
	require.ErrorIs(t, err, ErrImageTooLarge)
}

func TestPackageService_UpdateWithPhotoUsesExtensionFromContent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pkg, err := f.packages.Create(ctx, input(), nil)
	require.NoError(t, err)

	updated, err := f.packages.Update(ctx, pkg.ID, types.PackagePatch{}, &Photo{Filename: "upload", Content: bytes.NewReader(pngHeader)})
	require.NoError(t, err)
	require.Equal(t, pkg.TrackingNumber+".png", updated.Photo)
	require.Equal(t, pkg.Status, updated.Status)
}

func TestPackageService_UpdateMissingWithPhoto(t *testing.T) {
	f := newFixture(t)
	_, err := f.packages.Update(context.Background(), 99, types.PackagePatch{}, &Photo{Filename: "a.png", Content: bytes.NewReader(pngHeader)})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPackageService_DeleteEmitsEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pkg, err := f.packages.Create(ctx, input(), nil)
	require.NoError(t, err)

	require.NoError(t, f.packages.Delete(ctx, pkg.ID))
	require.ErrorIs(t, f.packages.Delete(ctx, pkg.ID), store.ErrNotFound)

	require.Len(t, f.pub.events, 2)
	require.Equal(t, EventPackageDeleted, f.pub.events[1].event.Type)
}

func TestEventPublisher_Attributes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pkg, err := f.packages.Create(ctx, input(), nil)
	require.NoError(t, err)
	_, err = f.contacts.Submit(ctx, types.NewContact{FirstName: "A", LastName: "B", Email: "a@b.co", Phone: "1", ServiceInterest: "x", Message: "m"})
	require.NoError(t, err)

	require.Len(t, f.pub.events, 2)
	created := f.pub.events[0]
	require.Equal(t, PackagesChannel, created.channel)
	require.Equal(t, "application/json", created.attrs[mq.AttrContentType])
	require.Equal(t, EventPackageCreated, created.attrs[mq.AttrEventType])
	require.Equal(t, pkg.TrackingNumber, created.attrs[mq.AttrOrderingKey])

	contact := f.pub.events[1]
	require.Equal(t, EventContactCreated, contact.attrs[mq.AttrEventType])
	require.NotContains(t, contact.attrs, mq.AttrOrderingKey)
}

func TestEventPublisher_FailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")

	contact, err := f.contacts.Submit(context.Background(), types.NewContact{FirstName: "A", LastName: "B", Email: "a@b.co", Phone: "1", ServiceInterest: "x", Message: "m"})
	require.NoError(t, err)
	require.Equal(t, 1, contact.ID)
	require.Equal(t, ContactsChannel, f.pub.events[0].channel)
}

func TestEventPublisher_NilIsNoop(t *testing.T) {
	var events *EventPublisher
	events.packageEvent(context.Background(), EventPackageCreated, types.Package{ID: 1})
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()
	hashed, err := HashPassword("s3cret")
	require.NoError(t, err)

	repo := store.NewUserRepository(store.NewMemoryBackend(), []types.User{
		{ID: 1, Username: "admin", Password: "admin123"},
		{ID: 2, Username: "ops", Password: hashed},
	})
	users := NewUserService(repo)

	user, err := users.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	require.Equal(t, 1, user.ID)

	_, err = users.Authenticate(ctx, "admin", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = users.Authenticate(ctx, "ops", "s3cret")
	require.NoError(t, err)

	_, err = users.Authenticate(ctx, "ghost", "x")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_RegisterHashes(t *testing.T) {
	ctx := context.Background()
	users := NewUserService(store.NewUserRepository(store.NewMemoryBackend(), nil))

	user, err := users.Register(ctx, " clerk ", "pw")
	require.NoError(t, err)
	require.Equal(t, "clerk", user.Username)
	require.NotEqual(t, "pw", user.Password)

	_, err = users.Authenticate(ctx, "clerk", "pw")
	require.NoError(t, err)
}

func TestDefaultUsers(t *testing.T) {
	seed, err := DefaultUsers()
	require.NoError(t, err)
	require.Len(t, seed, 1)
	require.Equal(t, "admin", seed[0].Username)
	require.True(t, passwordMatches(seed[0].Password, "admin123"))
}
