package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment belongs to one post and optionally replies to a top-level comment.
// ParentCommentID always references a top-level comment: replies to replies
// are re-parented to the grandparent on creation, so the tree never exceeds
// two levels. Reply lists are derived from ParentCommentID at read time.
type Comment struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	PostID          primitive.ObjectID  `bson:"postId" json:"postId"`
	UserID          primitive.ObjectID  `bson:"userId" json:"userId"`
	Username        string              `bson:"username" json:"username"`
	Text            string              `bson:"text" json:"text"`
	ParentCommentID *primitive.ObjectID `bson:"parentCommentId,omitempty" json:"parentCommentId,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// CommentThread is a top-level comment with its resolved replies, newest
// first, as returned by the listing endpoint.
type CommentThread struct {
	Comment `bson:",inline"`
	Replies []Comment `json:"replies"`
}
