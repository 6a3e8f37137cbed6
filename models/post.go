package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Moderation states for a post. A post is created pending and moves to
// approved or rejected by admin action only; neither terminal state reverts.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Fixed tag vocabularies used for categorization and statistics.
var (
	CategoryTags = []string{"Project", "Patent", "Paper", "Journal", "Competition", "Product", "Placement"}
	YearTags     = []string{"First Year", "Second Year", "Third Year", "Final Year"}
)

// Post is an achievement entry. UserID is authoritative for ownership checks;
// Username is denormalized for display only.
type Post struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Desc            string             `bson:"desc" json:"desc"`
	Photo           string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Video           string             `bson:"video,omitempty" json:"video,omitempty"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	Username        string             `bson:"username" json:"username"`
	Tags            []string           `bson:"tags" json:"tags"`
	Likes           int64              `bson:"likes" json:"likes"`
	Status          string             `bson:"status" json:"status"`
	RejectionReason string             `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	ViewCount       int64              `bson:"viewCount" json:"viewCount"`
	Viewers         []string           `bson:"viewers,omitempty" json:"-"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PostWithEmail is a listing row with the author's email joined in from the
// users collection for display.
type PostWithEmail struct {
	Post  `bson:",inline"`
	Email string `bson:"email" json:"email"`
}
