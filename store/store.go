package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/achievehub/achievehub/config"
	"github.com/achievehub/achievehub/models"
)

const (
	usersCollection    = "users"
	postsCollection    = "posts"
	commentsCollection = "comments"
)

// Store is the MongoDB persistence layer. It is constructed once at boot and
// closed at shutdown; handlers receive it through explicit injection.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect establishes the MongoDB connection, verifies it with a ping, and
// creates the unique indexes the data model relies on.
func Connect(ctx context.Context, cfg config.AppConfig) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	s := &Store{client: client, db: client.Database(cfg.MongoDB)}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) users() *mongo.Collection    { return s.db.Collection(usersCollection) }
func (s *Store) posts() *mongo.Collection    { return s.db.Collection(postsCollection) }
func (s *Store) comments() *mongo.Collection { return s.db.Collection(commentsCollection) }

// ensureIndexes enforces the uniqueness constraints of the data model: post
// titles, usernames, and emails. Comment lookups by post are indexed as well.
func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	_, err := s.users().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return err
	}

	_, err = s.posts().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return err
	}

	_, err = s.comments().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "postId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "parentCommentId", Value: 1}}},
	})
	return err
}

// UserStore is the persistence surface the identity and user handlers depend on.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	ListStudents(ctx context.Context, page int, search string) ([]models.User, int64, error)
	EnsureAdmin(ctx context.Context, email, username, passwordHash string) error
	FindAdminByEmail(ctx context.Context, email string) (*models.User, error)
}

// PostStore is the persistence surface the post lifecycle handlers depend on.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	RegisterView(ctx context.Context, id, viewerID string) error
	UpdatePost(ctx context.Context, id string, patch bson.M) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error
	ListPosts(ctx context.Context, filter PostFilter) ([]models.PostWithEmail, error)
	ListMyPosts(ctx context.Context, userID string, page, limit int, search string) ([]models.Post, int64, error)
	ListPending(ctx context.Context, page, limit int) ([]models.PostWithEmail, int64, error)
	LikePost(ctx context.Context, id string) (int64, error)
	UnlikePost(ctx context.Context, id string) (int64, error)
	ApprovePost(ctx context.Context, id string) (*models.Post, error)
	RejectPost(ctx context.Context, id, reason string) (*models.Post, error)
	BulkDeletePosts(ctx context.Context, ids []string) (int64, error)
}

// CommentStore is the persistence surface the comment handlers depend on.
type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	ListThreads(ctx context.Context, postID string) ([]models.CommentThread, error)
	UpdateCommentText(ctx context.Context, id, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

// StatsStore is the persistence surface the statistics handlers depend on.
type StatsStore interface {
	UserStats(ctx context.Context) (*models.UserStats, error)
	PostStats(ctx context.Context) (*models.PostStats, error)
	MonthlyPostCounts(ctx context.Context, month, year int) ([]models.MonthlyCount, int64, error)
}

var (
	_ UserStore    = (*Store)(nil)
	_ PostStore    = (*Store)(nil)
	_ CommentStore = (*Store)(nil)
	_ StatsStore   = (*Store)(nil)
)

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
