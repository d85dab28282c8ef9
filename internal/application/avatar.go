package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-auth-boilerplate/internal/domain/entity"
	"github.com/oksasatya/go-auth-boilerplate/pkg/imaging"
)

// avatarKey is the fixed per-user object key. Re-uploads overwrite in place,
// so the bucket never accumulates orphaned avatars.
func avatarKey(userID string) string {
	return "users/" + userID + "/profile/avatar.jpg"
}

// UploadAvatar validates, transcodes, and stores a profile image, then
// records it on the user. The declared content type is checked before any
// decoding happens.
func (s *Service) UploadAvatar(ctx context.Context, userID string, data []byte, contentType string) (*entity.ProfileImage, error) {
	if !imaging.Allowed(contentType) {
		return nil, imaging.ErrUnsupportedType
	}
	if s.MaxUploadBytes > 0 && int64(len(data)) > s.MaxUploadBytes {
		return nil, ErrImageTooLarge
	}

	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	out, err := s.Transcoder.Transcode(data)
	if err != nil {
		return nil, err
	}

	key := avatarKey(userID)

	// A legacy image under a different key is removed best-effort; a failed
	// delete must not block the new upload.
	if u.ProfileImage != nil && u.ProfileImage.StorageKey != key {
		if rErr := s.Store.Remove(ctx, u.ProfileImage.StorageKey); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithFields(logrus.Fields{
				"user_id": userID,
				"key":     u.ProfileImage.StorageKey,
			}).Warn("old avatar delete failed")
		}
	}

	url, err := s.Store.Put(ctx, key, out, imaging.OutputContentType)
	if err != nil {
		return nil, err
	}

	img := &entity.ProfileImage{
		URL:        url,
		StorageKey: key,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.Repo.SetProfileImage(ctx, userID, img); err != nil {
		return nil, err
	}

	if s.Redis != nil {
		s.Redis.HSet(ctx, sessionKey(userID), map[string]any{
			"image_url":  img.URL,
			"updated_at": nowRFC3339(),
		})
	}
	u.ProfileImage = img
	_ = s.indexUser(ctx, u)
	return img, nil
}

// DeleteAvatar removes the stored object and clears the profile image field.
// Unlike replacement, a failed object delete here aborts the operation; the
// record only changes once the object is gone.
func (s *Service) DeleteAvatar(ctx context.Context, userID string) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}
	if u.ProfileImage == nil {
		return ErrNoProfileImage
	}
	if err := s.Store.Remove(ctx, u.ProfileImage.StorageKey); err != nil {
		return err
	}
	if err := s.Repo.SetProfileImage(ctx, userID, nil); err != nil {
		return err
	}
	if s.Redis != nil {
		s.Redis.HSet(ctx, sessionKey(userID), map[string]any{
			"image_url":  "",
			"updated_at": nowRFC3339(),
		})
	}
	u.ProfileImage = nil
	_ = s.indexUser(ctx, u)
	return nil
}
