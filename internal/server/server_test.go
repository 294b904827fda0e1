package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"tastify/internal/config"
	"tastify/internal/models"
	"tastify/internal/repository"
	"tastify/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// memStore is an in-memory FileStore so handler tests never touch disk.
type memStore struct{}

func (memStore) Save(filename string, content []byte) (string, error) {
	return "/uploads/test-" + filename, nil
}

// newTestServer wires a Server over a fresh in-memory database with real
// repositories and services. Prometheus and Redis stay out of the picture.
func newTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}, &models.Like{}); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	s := &Server{
		config: &config.Config{
			Port:      "8080",
			Env:       "test",
			JWTSecret: "handler-test-secret",
		},
		db:             db,
		userRepo:       userRepo,
		postRepo:       postRepo,
		commentRepo:    commentRepo,
		postService:    service.NewPostService(postRepo, commentRepo),
		commentService: service.NewCommentService(commentRepo, postRepo),
		files:          memStore{},
	}
	return s, db
}

// newTestApp mounts the full route table on a bare Fiber app.
func newTestApp(t *testing.T) (*fiber.App, *Server, *gorm.DB) {
	t.Helper()
	s, db := newTestServer(t)
	app := fiber.New()
	s.SetupRoutes(app)
	return app, s, db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createPost(t *testing.T, db *gorm.DB, userID uint, restaurant string) *models.Post {
	t.Helper()
	post := &models.Post{
		UserID:         userID,
		RestaurantName: restaurant,
		Text:           "solid spot, would return",
		Rating:         4,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func bearer(t *testing.T, s *Server, userID uint) string {
	t.Helper()
	token, err := s.generateToken(userID, "access", accessTokenTTL)
	require.NoError(t, err)
	return "Bearer " + token
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// multipartRequest builds a multipart/form-data request from string fields and
// an optional image file.
func multipartRequest(t *testing.T, method, target string, fields map[string]string, imageName string, imageContent []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if imageName != "" {
		part, err := writer.CreateFormFile("image", imageName)
		require.NoError(t, err)
		_, err = part.Write(imageContent)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}
