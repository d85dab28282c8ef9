package application

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/oksasatya/go-auth-boilerplate/internal/domain/entity"
	repo "github.com/oksasatya/go-auth-boilerplate/internal/domain/repository"
	"github.com/oksasatya/go-auth-boilerplate/pkg/imaging"
)

// fakeRepo is an in-memory UserRepository used across the service tests.
type fakeRepo struct {
	mu    sync.Mutex
	next  int
	users map[string]*entity.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]*entity.User{}}
}

func (r *fakeRepo) clone(u *entity.User) *entity.User {
	cp := *u
	if u.ProfileImage != nil {
		img := *u.ProfileImage
		cp.ProfileImage = &img
	}
	return &cp
}

func (r *fakeRepo) emailTaken(email, exceptID string) bool {
	for id, u := range r.users {
		if u.Email == email && id != exceptID {
			return true
		}
	}
	return false
}

func (r *fakeRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(u.Email, "") {
		return repo.ErrDuplicateEmail
	}
	r.next++
	u.ID = "user-" + strconv.Itoa(r.next)
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = r.clone(u)
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return r.clone(u), nil
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return r.clone(u), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *fakeRepo) UpdateProfile(_ context.Context, id, name, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if r.emailTaken(email, id) {
		return nil, repo.ErrDuplicateEmail
	}
	u.Name = name
	u.Email = email
	u.UpdatedAt = time.Now().UTC()
	return r.clone(u), nil
}

func (r *fakeRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeRepo) SetTwoFactor(_ context.Context, id string, enabled bool, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.TwoFactorEnabled = enabled
	u.TwoFactorSecret = secret
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeRepo) SetProfileImage(_ context.Context, id string, img *entity.ProfileImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	if img == nil {
		u.ProfileImage = nil
	} else {
		cp := *img
		u.ProfileImage = &cp
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

type storedObject struct {
	data        []byte
	contentType string
}

// fakeStore is an in-memory ObjectStore. failRemove makes Remove error
// without touching state; removed records every Remove call regardless.
type fakeStore struct {
	mu         sync.Mutex
	objects    map[string]storedObject
	removed    []string
	failRemove bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]storedObject{}}
}

func (s *fakeStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[key] = storedObject{data: cp, contentType: contentType}
	return "http://store.local/bucket/" + key, nil
}

func (s *fakeStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, key)
	if s.failRemove {
		return errors.New("remove failed")
	}
	delete(s.objects, key)
	return nil
}

func newTestService(r repo.UserRepository, store ObjectStore) *Service {
	return &Service{
		Repo:           r,
		Store:          store,
		TOTPIssuer:     "AuthBoilerplate",
		Transcoder:     imaging.NewTranscoder(400, 80),
		MaxUploadBytes: 10 << 20,
	}
}
