// Package seed provides helpers to create demo data for development and
// testing.
package seed

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"tastify/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewFactory creates a Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser constructs and persists a sample user. All seeded accounts share
// the password "password123" so any of them can be used to sign in.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{
		Username:     gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:        gofakeit.Email(),
		Password:     string(hashed),
		FirstName:    gofakeit.FirstName(),
		LastName:     gofakeit.LastName(),
		ProfileImage: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost constructs and persists a restaurant review for the given user,
// with a created_at spread over the last 90 days so feeds look lived-in.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		UserID:         user.ID,
		RestaurantName: restaurantName(f.rand),
		Text:           gofakeit.Paragraph(1, 3, 8, " "),
		Rating:         randomRating(f.rand),
		ImageURL:       fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID()),
	}

	daysBack := f.rand.Intn(90)
	hoursBack := f.rand.Intn(24)
	post.CreatedAt = time.Now().
		Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)

	for _, override := range overrides {
		override(post)
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment attaches a short generated comment to the post.
func (f *Factory) CreateComment(user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		PostID: post.ID,
		UserID: user.ID,
		Text:   gofakeit.Sentence(f.rand.Intn(12) + 4),
	}

	for _, override := range overrides {
		override(comment)
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike records a like; duplicate (user, post) pairs are silently skipped
// by the unique index, matching the runtime set semantics.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	like := &models.Like{UserID: user.ID, PostID: post.ID}
	err := f.db.Create(like).Error
	if err != nil && isUniqueViolation(err) {
		return nil
	}
	return err
}

// randomRating picks a half-step rating in [1, 5], biased toward the upper
// half the way real review sites skew.
func randomRating(r *rand.Rand) float64 {
	steps := []float64{3, 3.5, 3.5, 4, 4, 4, 4.5, 4.5, 5, 5, 2.5, 2, 1.5, 1}
	return steps[r.Intn(len(steps))]
}

var cuisines = []string{
	"Trattoria", "Bistro", "Cantina", "Izakaya", "Taqueria",
	"Brasserie", "Osteria", "Diner", "Grill", "Noodle House",
}

func restaurantName(r *rand.Rand) string {
	return fmt.Sprintf("%s %s", gofakeit.LastName(), cuisines[r.Intn(len(cuisines))])
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
