package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"lovebox-backend/internal/apperr"
	"lovebox-backend/internal/models"
	"lovebox-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	key         string
	contentType string
	expires     time.Duration
}

func (p *fakePresigner) PresignPut(_ context.Context, key, contentType string, expires time.Duration) (string, error) {
	p.key, p.contentType, p.expires = key, contentType, expires
	return "https://signed.example.com/" + key, nil
}

func TestAvatarUploadFlow(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	require.NoError(t, db.Users().Create(ctx, &models.User{ID: 5, Username: "e", Email: "e@x"}))

	presigner := &fakePresigner{}
	svc := NewAvatarService(db.Users(), presigner, "https://cdn.example.com/")

	_, err := svc.CreateUploadURL(ctx, 5, "image/gif")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	upload, err := svc.CreateUploadURL(ctx, 5, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(upload.Key, "avatars/5/"))
	assert.True(t, strings.HasSuffix(upload.Key, ".png"))
	assert.Equal(t, 300, upload.ExpiresIn)
	assert.Equal(t, "image/png", presigner.contentType)
	assert.Equal(t, 5*time.Minute, presigner.expires)

	_, err = svc.ConfirmUpload(ctx, 5, "avatars/6/x.png")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = svc.ConfirmUpload(ctx, 5, "avatars/5/../6/x.png")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	url, err := svc.ConfirmUpload(ctx, 5, upload.Key)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+upload.Key, url)

	user, err := db.Users().GetByID(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, user.AvatarURL)
	assert.Equal(t, url, *user.AvatarURL)
}
