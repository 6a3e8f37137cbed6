package store

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/achievehub/achievehub/models"
)

// PostFilter selects which public listing variant to run. Search takes
// precedence over category/year when combined.
type PostFilter struct {
	Search   string
	Author   string
	Tag      string
	Category string
	Year     string
}

// CreatePost inserts a new post in the pending state with zeroed counters.
func (s *Store) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	ts := now()
	post.Status = models.StatusPending
	post.Likes = 0
	post.ViewCount = 0
	post.CreatedAt = ts
	post.UpdatedAt = ts
	if post.Tags == nil {
		post.Tags = []string{}
	}

	res, err := s.posts().InsertOne(ctx, post)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateTitle
		}
		return nil, err
	}
	post.ID = res.InsertedID.(primitive.ObjectID)
	return post, nil
}

// GetPost returns the post with the given hex id or ErrNotFound.
func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	var post models.Post
	if err := s.posts().FindOne(ctx, bson.M{"_id": oid}).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// RegisterView counts a view once per viewer: the filter excludes posts the
// viewer is already recorded on, so the $addToSet and $inc apply together in
// a single atomic update.
func (s *Store) RegisterView(ctx context.Context, id, viewerID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	_, err = s.posts().UpdateOne(ctx,
		bson.M{"_id": oid, "viewers": bson.M{"$ne": viewerID}},
		bson.M{
			"$addToSet": bson.M{"viewers": viewerID},
			"$inc":      bson.M{"viewCount": 1},
		},
	)
	return err
}

// UpdatePost applies a prebuilt sparse patch and returns the updated post.
func (s *Store) UpdatePost(ctx context.Context, id string, patch bson.M) (*models.Post, error) {
	if len(patch) == 0 {
		return nil, ErrEmptyPatch
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	patch["updatedAt"] = now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.Post
	err = s.posts().FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": patch}, opts).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateTitle
		}
		return nil, err
	}
	return &post, nil
}

// DeletePost removes a post and its comment threads.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	res, err := s.posts().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	_, _ = s.comments().DeleteMany(ctx, bson.M{"postId": oid})
	return nil
}

// ListPosts runs the public listing. All variants are restricted to approved
// posts, ordered newest first, with the author email joined in from users.
func (s *Store) ListPosts(ctx context.Context, filter PostFilter) ([]models.PostWithEmail, error) {
	match := bson.M{"status": models.StatusApproved}

	switch {
	case filter.Search != "":
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		match["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"username": pattern},
			bson.M{"author.email": pattern},
		}
	case filter.Author != "":
		match["username"] = filter.Author
	case filter.Tag != "":
		match["tags"] = filter.Tag
	case filter.Category != "" && filter.Year != "":
		match["tags"] = bson.M{"$all": bson.A{filter.Category, filter.Year}}
	case filter.Category != "":
		match["tags"] = filter.Category
	case filter.Year != "":
		match["tags"] = filter.Year
	}

	// The author lookup precedes the match so a search can also hit the
	// author's email address.
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "userId",
			"foreignField": "_id",
			"as":           "author",
		}}},
		{{Key: "$unwind", Value: "$author"}},
		{{Key: "$match", Value: match}},
		{{Key: "$addFields", Value: bson.M{"email": "$author.email"}}},
		{{Key: "$project", Value: bson.M{"author": 0}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}

	cur, err := s.posts().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var posts []models.PostWithEmail
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListMyPosts returns the author's own posts regardless of status, newest
// first, optionally filtered by a title search.
func (s *Store) ListMyPosts(ctx context.Context, userID string, page, limit int, search string) ([]models.Post, int64, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, 0, ErrInvalidID
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	filter := bson.M{"userId": oid}
	if search != "" {
		filter["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	}

	total, err := s.posts().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cur, err := s.posts().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ListPending returns one page of posts awaiting moderation with author
// emails joined in for the review queue.
func (s *Store) ListPending(ctx context.Context, page, limit int) ([]models.PostWithEmail, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	total, err := s.posts().CountDocuments(ctx, bson.M{"status": models.StatusPending})
	if err != nil {
		return nil, 0, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.StatusPending}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$skip", Value: int64((page - 1) * limit)}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "userId",
			"foreignField": "_id",
			"as":           "author",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$author", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$addFields", Value: bson.M{"email": bson.M{"$ifNull": bson.A{"$author.email", "N/A"}}}}},
		{{Key: "$project", Value: bson.M{"author": 0}}},
	}

	cur, err := s.posts().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	var posts []models.PostWithEmail
	if err := cur.All(ctx, &posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// LikePost atomically increments the like counter and returns the new value.
func (s *Store) LikePost(ctx context.Context, id string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, ErrInvalidID
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.Post
	err = s.posts().FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{"likes": 1}},
		opts,
	).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return post.Likes, nil
}

// UnlikePost atomically decrements the like counter, flooring at zero. The
// pipeline update makes the floor hold under any interleaving of likes and
// unlikes, unlike a read-then-write.
func (s *Store) UnlikePost(ctx context.Context, id string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, ErrInvalidID
	}
	update := bson.A{
		bson.M{"$set": bson.M{
			"likes": bson.M{"$max": bson.A{0, bson.M{"$subtract": bson.A{"$likes", 1}}}},
		}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.Post
	err = s.posts().FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return post.Likes, nil
}

// ApprovePost moves a post to the approved state.
func (s *Store) ApprovePost(ctx context.Context, id string) (*models.Post, error) {
	return s.UpdatePost(ctx, id, bson.M{"status": models.StatusApproved})
}

// RejectPost moves a post to the rejected state, recording the reason.
func (s *Store) RejectPost(ctx context.Context, id, reason string) (*models.Post, error) {
	return s.UpdatePost(ctx, id, bson.M{
		"status":          models.StatusRejected,
		"rejectionReason": reason,
	})
}

// BulkDeletePosts removes every post whose id is in the set and reports a
// single aggregate count; per-item outcomes are not tracked.
func (s *Store) BulkDeletePosts(ctx context.Context, ids []string) (int64, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return 0, ErrInvalidID
		}
		oids = append(oids, oid)
	}
	if len(oids) == 0 {
		return 0, nil
	}

	res, err := s.posts().DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return 0, err
	}
	_, _ = s.comments().DeleteMany(ctx, bson.M{"postId": bson.M{"$in": oids}})
	return res.DeletedCount, nil
}
