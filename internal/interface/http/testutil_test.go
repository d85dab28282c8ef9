package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	userapp "github.com/oksasatya/go-auth-boilerplate/internal/application"
	"github.com/oksasatya/go-auth-boilerplate/internal/domain/entity"
	repo "github.com/oksasatya/go-auth-boilerplate/internal/domain/repository"
	"github.com/oksasatya/go-auth-boilerplate/internal/interface/middleware"
	"github.com/oksasatya/go-auth-boilerplate/pkg/helpers"
	"github.com/oksasatya/go-auth-boilerplate/pkg/imaging"
	"github.com/oksasatya/go-auth-boilerplate/pkg/validation"
)

// memRepo is an in-memory UserRepository backing the HTTP tests.
type memRepo struct {
	mu    sync.Mutex
	next  int
	users map[string]*entity.User
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]*entity.User{}}
}

func (r *memRepo) clone(u *entity.User) *entity.User {
	cp := *u
	if u.ProfileImage != nil {
		img := *u.ProfileImage
		cp.ProfileImage = &img
	}
	return &cp
}

func (r *memRepo) emailTaken(email, exceptID string) bool {
	for id, u := range r.users {
		if u.Email == email && id != exceptID {
			return true
		}
	}
	return false
}

func (r *memRepo) Create(_ context.Context, u *entity.User) error {
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

func (r *memRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return r.clone(u), nil
}

func (r *memRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return r.clone(u), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *memRepo) UpdateProfile(_ context.Context, id, name, email string) (*entity.User, error) {
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

func (r *memRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *memRepo) SetTwoFactor(_ context.Context, id string, enabled bool, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.TwoFactorEnabled = enabled
	u.TwoFactorSecret = secret
	return nil
}

func (r *memRepo) SetProfileImage(_ context.Context, id string, img *entity.ProfileImage) error {
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
	return nil
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[key] = cp
	return "http://store.local/bucket/" + key, nil
}

func (s *memStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

type testEnv struct {
	Engine *gin.Engine
	Repo   *memRepo
	Store  *memStore
	Svc    *userapp.Service
	Redis  *redis.Client
}

// newTestEnv builds the full route surface against in-memory infrastructure.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	r := newMemRepo()
	store := newMemStore()
	logger := logrus.New()
	jwt := helpers.NewJWTManager("test-access", "test-refresh", 15*time.Minute, 24*time.Hour)

	svc := &userapp.Service{
		Repo:           r,
		JWT:            jwt,
		Store:          store,
		Redis:          rdb,
		Logger:         logger,
		TOTPIssuer:     "AuthBoilerplate",
		Transcoder:     imaging.NewTranscoder(400, 80),
		MaxUploadBytes: 10 << 20,
	}

	authHandler := NewAuthHandler(svc, logger, "localhost", false)
	userHandler := NewUserHandler(svc, logger)
	twoFactorHandler := NewTwoFactorHandler(svc, logger)

	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware())
	api := engine.Group("/api")

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	auth := api.Group("/")
	auth.Use(middleware.Auth(rdb, jwt, svc))
	{
		auth.POST("/auth/logout", authHandler.Logout)
		auth.GET("/user/profile", userHandler.GetProfile)
		auth.PATCH("/user/profile", userHandler.UpdateProfile)
		auth.PATCH("/user/password", userHandler.ChangePassword)
		auth.POST("/user/profile-image", userHandler.UploadProfileImage)
		auth.DELETE("/user/profile-image", userHandler.DeleteProfileImage)
		auth.PUT("/user/2fa", twoFactorHandler.Setup)
		auth.POST("/user/2fa", twoFactorHandler.Confirm)
		auth.DELETE("/user/2fa", twoFactorHandler.Disable)
	}

	return &testEnv{Engine: engine, Repo: r, Store: store, Svc: svc, Redis: rdb}
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.Engine.ServeHTTP(rr, req)
	return rr
}

// register creates an account and returns its id.
func (e *testEnv) register(t *testing.T, name, email, password string) string {
	t.Helper()
	rr := e.doJSON(t, http.MethodPost, "/api/auth/register", gin.H{
		"name": name, "email": email, "password": password,
	}, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var body struct {
		Data struct {
			UserID string `json:"user_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Data.UserID
}

// login authenticates and returns the session cookies.
func (e *testEnv) login(t *testing.T, email, password string) []*http.Cookie {
	t.Helper()
	rr := e.doJSON(t, http.MethodPost, "/api/auth/login", gin.H{
		"email": email, "password": password,
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func pngUpload(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartImage builds a multipart body with a single "image" part.
func multipartImage(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}
