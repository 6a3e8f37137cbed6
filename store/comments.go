package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/achievehub/achievehub/models"
)

// effectiveParentID flattens a reply chain to one level: replying to a reply
// attaches the new comment to the grandparent, so stored parent ids always
// reference top-level comments.
func effectiveParentID(parent *models.Comment) primitive.ObjectID {
	if parent.ParentCommentID != nil {
		return *parent.ParentCommentID
	}
	return parent.ID
}

// CreateComment inserts a comment. When a parent is declared the effective
// parent is resolved first, so the insert is a single atomic operation and
// reply lists never need a second linking write.
func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	if comment.ParentCommentID != nil {
		var parent models.Comment
		err := s.comments().FindOne(ctx, bson.M{"_id": *comment.ParentCommentID}).Decode(&parent)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		effective := effectiveParentID(&parent)
		comment.ParentCommentID = &effective
	}

	ts := now()
	comment.CreatedAt = ts
	comment.UpdatedAt = ts

	res, err := s.comments().InsertOne(ctx, comment)
	if err != nil {
		return nil, err
	}
	comment.ID = res.InsertedID.(primitive.ObjectID)
	return comment, nil
}

// GetComment returns the comment with the given hex id or ErrNotFound.
func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	var comment models.Comment
	if err := s.comments().FindOne(ctx, bson.M{"_id": oid}).Decode(&comment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// ListThreads returns a post's top-level comments newest first, each with its
// replies resolved newest first. One query fetches everything; the tree is
// assembled in memory from the parent ids.
func (s *Store) ListThreads(ctx context.Context, postID string) ([]models.CommentThread, error) {
	oid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, ErrInvalidID
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.comments().Find(ctx, bson.M{"postId": oid}, opts)
	if err != nil {
		return nil, err
	}
	var comments []models.Comment
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}

	return buildThreads(comments), nil
}

// buildThreads groups a newest-first comment slice into top-level threads.
// Input order is preserved, so threads and their replies both come out newest
// first.
func buildThreads(comments []models.Comment) []models.CommentThread {
	threads := []models.CommentThread{}
	index := make(map[primitive.ObjectID]int)

	for _, c := range comments {
		if c.ParentCommentID == nil {
			index[c.ID] = len(threads)
			threads = append(threads, models.CommentThread{Comment: c, Replies: []models.Comment{}})
		}
	}
	for _, c := range comments {
		if c.ParentCommentID == nil {
			continue
		}
		if i, ok := index[*c.ParentCommentID]; ok {
			threads[i].Replies = append(threads[i].Replies, c)
		}
	}
	return threads
}

// UpdateCommentText replaces the text field only and returns the updated
// comment.
func (s *Store) UpdateCommentText(ctx context.Context, id, text string) (*models.Comment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var comment models.Comment
	err = s.comments().FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"text": text, "updatedAt": now()}},
		opts,
	).Decode(&comment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment and cascades to its replies, so no dangling
// reply references survive a parent deletion.
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	res, err := s.comments().DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"_id": oid},
		bson.M{"parentCommentId": oid},
	}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
