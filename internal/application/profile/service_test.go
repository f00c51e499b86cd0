package profile

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/edumon-sync/internal/application/session"
	"github.com/edumon-sync/internal/domain"
	"github.com/edumon-sync/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPhotoStore struct{ mock.Mock }

func (m *mockPhotoStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, r, contentType)
	return args.String(0), args.Error(1)
}
func (m *mockPhotoStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// failingUpdates lets reads through but rejects every write.
type failingUpdates struct{ *memory.PrefsRepo }

func (failingUpdates) Update(context.Context, map[string]string, []string) error {
	return errors.New("read-only")
}

func strPtr(s string) *string { return &s }

func seededRepo(t *testing.T) *memory.PrefsRepo {
	t.Helper()
	repo := memory.NewPrefsRepo()
	require.NoError(t, repo.Update(context.Background(), map[string]string{
		domain.KeyUserID:   "u-1",
		domain.KeyName:     "Ana",
		domain.KeyLastName: "Quispe",
		domain.KeyEmail:    "ana@edumon.ec",
		domain.KeyPhone:    "0991234567",
		domain.KeyRole:     "estudiante",
	}, nil))
	return repo
}

func TestUpdate_CompletesProfile(t *testing.T) {
	store := session.NewStore(seededRepo(t))
	svc := NewService(store, &mockPhotoStore{}, zap.NewNop())
	ctx := context.Background()

	u, err := svc.Update(ctx, domain.ProfileUpdate{Cedula: strPtr("1712345678")})
	require.NoError(t, err)
	assert.Equal(t, "1712345678", *u.Cedula)
	complete, err := svc.Completeness(ctx)
	require.NoError(t, err)
	assert.False(t, complete)

	_, err = svc.Update(ctx, domain.ProfileUpdate{Photo: strPtr("https://cdn.edumon.ec/ana.png")})
	require.NoError(t, err)
	complete, err = svc.Completeness(ctx)
	require.NoError(t, err)
	assert.True(t, complete)
}

func TestUpdate_Validation(t *testing.T) {
	svc := NewService(session.NewStore(seededRepo(t)), &mockPhotoStore{}, zap.NewNop())

	_, err := svc.Update(context.Background(), domain.ProfileUpdate{})
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = svc.Update(context.Background(), domain.ProfileUpdate{Cedula: strPtr("12ab")})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpdate_NoStoredUser(t *testing.T) {
	svc := NewService(session.NewStore(memory.NewPrefsRepo()), &mockPhotoStore{}, zap.NewNop())

	_, err := svc.Update(context.Background(), domain.ProfileUpdate{Phone: strPtr("0987654321")})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUploadPhoto_StoresURL(t *testing.T) {
	photos := &mockPhotoStore{}
	photos.On("Upload", mock.Anything, "profiles/u-1/mi_foto.png", mock.Anything, "image/png").
		Return("https://photos.s3.us-east-1.amazonaws.com/profiles/u-1/mi_foto.png", nil)
	svc := NewService(session.NewStore(seededRepo(t)), photos, zap.NewNop())

	u, err := svc.UploadPhoto(context.Background(), strings.NewReader("img"), "Mi Foto.PNG", "image/png")

	require.NoError(t, err)
	require.NotNil(t, u.Photo)
	assert.Equal(t, "https://photos.s3.us-east-1.amazonaws.com/profiles/u-1/mi_foto.png", *u.Photo)
	photos.AssertExpectations(t)
}

func TestUploadPhoto_UploadFailure(t *testing.T) {
	photos := &mockPhotoStore{}
	photos.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("denied"))
	svc := NewService(session.NewStore(seededRepo(t)), photos, zap.NewNop())

	_, err := svc.UploadPhoto(context.Background(), strings.NewReader("img"), "a.png", "")
	assert.ErrorContains(t, err, "upload photo: denied")
}

func TestUploadPhoto_StoreFailureRemovesObject(t *testing.T) {
	photos := &mockPhotoStore{}
	photos.On("Upload", mock.Anything, "profiles/u-1/a.png", mock.Anything, "").Return("https://x/a.png", nil)
	photos.On("Delete", mock.Anything, "profiles/u-1/a.png").Return(nil).Once()
	store := session.NewStore(failingUpdates{seededRepo(t)})
	svc := NewService(store, photos, zap.NewNop())

	_, err := svc.UploadPhoto(context.Background(), strings.NewReader("img"), "a.png", "")

	assert.ErrorContains(t, err, "read-only")
	photos.AssertExpectations(t)
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Mi Foto.PNG":          "mi_foto.png",
		"../../etc/passwd":     "passwd",
		`C:\Users\ana\yo.jpg`:  "yo.jpg",
		"":                     "photo",
		"..":                   "photo",
		"año-2026_final.jpeg":  "a_o-2026_final.jpeg",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}
