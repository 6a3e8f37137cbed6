package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/achievehub/achievehub/models"
)

func TestEffectiveParentIDTopLevel(t *testing.T) {
	parent := &models.Comment{ID: primitive.NewObjectID()}

	assert.Equal(t, parent.ID, effectiveParentID(parent))
}

func TestEffectiveParentIDFlattensReplyChain(t *testing.T) {
	grandparent := primitive.NewObjectID()
	reply := &models.Comment{
		ID:              primitive.NewObjectID(),
		ParentCommentID: &grandparent,
	}

	assert.Equal(t, grandparent, effectiveParentID(reply),
		"replying to a reply must attach to the top-level comment")
}

func TestBuildThreads(t *testing.T) {
	top1 := primitive.NewObjectID()
	top2 := primitive.NewObjectID()
	reply1 := primitive.NewObjectID()
	reply2 := primitive.NewObjectID()

	// Newest first, as the query returns them.
	comments := []models.Comment{
		{ID: reply2, ParentCommentID: &top1, Text: "newest reply"},
		{ID: top2, Text: "newer top"},
		{ID: reply1, ParentCommentID: &top1, Text: "older reply"},
		{ID: top1, Text: "older top"},
	}

	threads := buildThreads(comments)

	assert.Len(t, threads, 2)
	assert.Equal(t, top2, threads[0].Comment.ID)
	assert.Empty(t, threads[0].Replies)
	assert.Equal(t, top1, threads[1].Comment.ID)
	if assert.Len(t, threads[1].Replies, 2) {
		assert.Equal(t, reply2, threads[1].Replies[0].ID, "replies stay newest first")
		assert.Equal(t, reply1, threads[1].Replies[1].ID)
	}
}

func TestBuildThreadsIgnoresOrphanReplies(t *testing.T) {
	missing := primitive.NewObjectID()
	comments := []models.Comment{
		{ID: primitive.NewObjectID(), ParentCommentID: &missing, Text: "orphan"},
	}

	assert.Empty(t, buildThreads(comments))
}

func TestBuildThreadsEmpty(t *testing.T) {
	threads := buildThreads(nil)
	assert.NotNil(t, threads, "empty post serializes as [] not null")
	assert.Empty(t, threads)
}
