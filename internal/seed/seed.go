package seed

import (
	"fmt"
	"log"

	"tastify/internal/models"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Seed populates the database with demo users, reviews, comments and likes.
func Seed(db *gorm.DB, opts Options) error {
	// Posts, comments and likes all need an author to pick from.
	if opts.NumUsers < 1 {
		return fmt.Errorf("at least one user is required, got %d", opts.NumUsers)
	}

	log.Printf("🌱 Seeding database with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return fmt.Errorf("failed to clear data: %w", err)
		}
	}

	f := NewFactory(db)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("✓ Created %d users", len(users))

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[f.rand.Intn(len(users))]
		post, err := f.CreatePost(author)
		if err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, post)
	}
	log.Printf("✓ Created %d posts", len(posts))

	var commentCount, likeCount int
	for _, post := range posts {
		for i := 0; i < f.rand.Intn(6); i++ {
			commenter := users[f.rand.Intn(len(users))]
			if _, err := f.CreateComment(commenter, post); err != nil {
				return fmt.Errorf("failed to create comment: %w", err)
			}
			commentCount++
		}
		for i := 0; i < f.rand.Intn(len(users)); i++ {
			liker := users[f.rand.Intn(len(users))]
			if err := f.CreateLike(liker, post); err != nil {
				return fmt.Errorf("failed to create like: %w", err)
			}
			likeCount++
		}
	}
	log.Printf("✓ Created %d comments and %d likes", commentCount, likeCount)

	log.Println("🎉 Seeding complete")
	return nil
}

// clearData removes all rows in dependency order so re-seeding starts clean.
func clearData(db *gorm.DB) error {
	log.Println("🧹 Clearing existing data...")

	tables := []interface{}{
		&models.Like{},
		&models.Comment{},
		&models.Post{},
		&models.User{},
	}
	for _, table := range tables {
		if err := db.Unscoped().Where("1 = 1").Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}
