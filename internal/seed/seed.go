package seed

import (
	"context"
	"fmt"
	"log"

	"simplesocial/internal/models"
	"simplesocial/internal/notifications"
	"simplesocial/internal/service"

	"gorm.io/gorm"
)

// Seeder populates the database with a realistic social mesh. Follow and
// like edges go through the toggle engine so the denormalized counters are
// correct without a repair pass.
type Seeder struct {
	db        *gorm.DB
	factory   *Factory
	relations *service.RelationService
}

// NewSeeder creates a new Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{
		db:        db,
		factory:   NewFactory(db),
		relations: service.NewRelationService(db, notifications.NewNotifier(nil)),
	}
}

// ClearAll removes all seeded data, children before parents.
func (s *Seeder) ClearAll() error {
	tables := []interface{}{
		&models.LikedComment{},
		&models.LikedPost{},
		&models.Following{},
		&models.CommentPicture{},
		&models.PostPicture{},
		&models.Comment{},
		&models.Post{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return fmt.Errorf("clearing %T: %w", table, err)
		}
	}
	return nil
}

// SeedSocialMesh creates users and a follow mesh between them. Each user
// follows a handful of random others.
func (s *Seeder) SeedSocialMesh(numUsers int) ([]*models.User, error) {
	ctx := context.Background()

	users := make([]*models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("creating user %d: %w", i, err)
		}
		users = append(users, user)
	}

	if len(users) < 2 {
		return users, nil
	}

	follows := 0
	for _, user := range users {
		targets := s.factory.rng.Intn(6) + 2
		for j := 0; j < targets; j++ {
			other := users[s.factory.rng.Intn(len(users))]
			if other.ID == user.ID {
				continue
			}
			result, err := s.relations.ToggleFollow(ctx, user.ID, other.ID)
			if err != nil {
				return nil, fmt.Errorf("following: %w", err)
			}
			// A repeated pair toggles the edge off again; flip it back.
			if !result.Active {
				if _, err := s.relations.ToggleFollow(ctx, user.ID, other.ID); err != nil {
					return nil, fmt.Errorf("re-following: %w", err)
				}
			}
			follows++
		}
	}

	log.Printf("Seeded %d users with %d follow edges", len(users), follows)
	return users, nil
}

// SeedEngagement creates posts, comments and likes for the given users.
func (s *Seeder) SeedEngagement(users []*models.User, numPosts int) (int, error) {
	if len(users) == 0 || numPosts == 0 {
		return 0, nil
	}
	ctx := context.Background()

	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		author := users[s.factory.rng.Intn(len(users))]
		posts = append(posts, s.factory.BuildPost(author, 90))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return 0, fmt.Errorf("creating posts: %w", err)
	}

	comments := 0
	for _, post := range posts {
		n := s.factory.rng.Intn(4)
		for j := 0; j < n; j++ {
			commenter := users[s.factory.rng.Intn(len(users))]
			comment := s.factory.BuildComment(commenter, post.ID)
			if err := s.db.Create(comment).Error; err != nil {
				return 0, fmt.Errorf("creating comment: %w", err)
			}
			comments++
		}
	}

	likes := 0
	for _, post := range posts {
		n := s.factory.rng.Intn(5)
		for j := 0; j < n; j++ {
			liker := users[s.factory.rng.Intn(len(users))]
			result, err := s.relations.TogglePostLike(ctx, liker.ID, post.ID)
			if err != nil {
				return 0, fmt.Errorf("liking post: %w", err)
			}
			if !result.Active {
				if _, err := s.relations.TogglePostLike(ctx, liker.ID, post.ID); err != nil {
					return 0, fmt.Errorf("re-liking post: %w", err)
				}
			}
			likes++
		}
	}

	log.Printf("Seeded %d posts, %d comments, %d likes", len(posts), comments, likes)
	return len(posts), nil
}
