package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"

	"github.com/UkralStul/pulse-social/internal/domain"
	apperrors "github.com/UkralStul/pulse-social/internal/errors"
	"github.com/UkralStul/pulse-social/internal/social"
)

// Seeder fills a fresh dataset with fake but consistent data. Everything goes
// through the service so counters and edges agree.
type Seeder struct {
	svc   *social.Service
	faker *gofakeit.Faker
	log   *zap.Logger
}

// Result lists what was created.
type Result struct {
	Users    []*domain.User
	Posts    []*domain.Post
	Comments int
	Likes    int
	Follows  int
}

// NewSeeder returns a seeder. The same seed produces the same data.
func NewSeeder(svc *social.Service, seed uint64, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{svc: svc, faker: gofakeit.New(seed), log: log.Named("seed")}
}

// Run creates users, posts, follows, likes and comments.
func (s *Seeder) Run(ctx context.Context, users, posts int) (*Result, error) {
	res := &Result{}
	if users <= 0 {
		return res, nil
	}

	s.log.Info("Creating users...", zap.Int("count", users))
	for i := 0; i < users; i++ {
		u, err := s.createUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to seed users: %w", err)
		}
		res.Users = append(res.Users, u)
	}

	s.log.Info("Creating follows...")
	for _, u := range res.Users {
		for _, other := range res.Users {
			if other.ID == u.ID || s.faker.Number(1, 100) > 40 {
				continue
			}
			if _, err := s.svc.Follow(ctx, u.ID, other.ID); err != nil {
				return nil, fmt.Errorf("failed to seed follows: %w", err)
			}
			res.Follows++
		}
	}

	s.log.Info("Creating posts...", zap.Int("count", posts))
	for i := 0; i < posts; i++ {
		author := res.Users[s.faker.IntRange(0, len(res.Users)-1)]
		p, err := s.svc.CreatePost(ctx, author.ID, s.postContent(), nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to seed posts: %w", err)
		}
		res.Posts = append(res.Posts, p)
	}

	s.log.Info("Creating likes and comments...")
	for _, p := range res.Posts {
		for _, u := range res.Users {
			if u.ID == p.AuthorID {
				continue
			}
			if s.faker.Number(1, 100) <= 30 {
				if _, err := s.svc.Like(ctx, p.ID, u.ID); err != nil {
					return nil, fmt.Errorf("failed to seed likes: %w", err)
				}
				res.Likes++
			}
			if s.faker.Number(1, 100) <= 15 {
				if _, err := s.svc.CreateComment(ctx, p.ID, u.ID, s.commentContent(), nil); err != nil {
					return nil, fmt.Errorf("failed to seed comments: %w", err)
				}
				res.Comments++
			}
		}
	}

	s.log.Info("Seed data filled successfully",
		zap.Int("users", len(res.Users)),
		zap.Int("posts", len(res.Posts)),
		zap.Int("follows", res.Follows),
		zap.Int("likes", res.Likes),
		zap.Int("comments", res.Comments),
	)
	return res, nil
}

func (s *Seeder) createUser(ctx context.Context) (*domain.User, error) {
	base := strings.ToLower(s.faker.Username())
	username := base
	for attempt := 1; ; attempt++ {
		u, err := s.svc.CreateUser(ctx, domain.User{
			Username:    username,
			DisplayName: s.faker.Name(),
			Bio:         fmt.Sprintf("%s fan, into %s", s.faker.Noun(), strings.ToLower(s.faker.Hobby())),
		})
		if err == nil {
			return u, nil
		}
		if !apperrors.IsValidation(err) || attempt >= 10 {
			return nil, err
		}
		username = fmt.Sprintf("%s%d", base, s.faker.Number(10, 9999))
	}
}

func (s *Seeder) postContent() string {
	words := make([]string, s.faker.IntRange(4, 10))
	for i := range words {
		words[i] = s.faker.Word()
	}
	return fmt.Sprintf("%s #%s", strings.Join(words, " "), strings.ToLower(s.faker.Noun()))
}

func (s *Seeder) commentContent() string {
	words := make([]string, s.faker.IntRange(2, 6))
	for i := range words {
		words[i] = s.faker.Word()
	}
	return strings.Join(words, " ")
}
