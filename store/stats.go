package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/achievehub/achievehub/models"
)

// statusCond builds a $sum over a conditional match on the given status.
func statusCond(status string) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$status", status}}, 1, 0}}}
}

// UserStats returns role counts plus every user's post counts by moderation
// status, merged in memory from a single group pipeline over posts.
func (s *Store) UserStats(ctx context.Context) (*models.UserStats, error) {
	students, err := s.users().CountDocuments(ctx, bson.M{"role": models.RoleStudent})
	if err != nil {
		return nil, err
	}
	admins, err := s.users().CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetProjection(bson.M{"username": 1, "email": 1, "role": 1})
	cur, err := s.users().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":      "$username",
			"approved": statusCond(models.StatusApproved),
			"rejected": statusCond(models.StatusRejected),
			"pending":  statusCond(models.StatusPending),
		}}},
	}
	agg, err := s.posts().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Username string `bson:"_id"`
		Approved int64  `bson:"approved"`
		Rejected int64  `bson:"rejected"`
		Pending  int64  `bson:"pending"`
	}
	if err := agg.All(ctx, &rows); err != nil {
		return nil, err
	}

	byUser := make(map[string][3]int64, len(rows))
	for _, r := range rows {
		byUser[r.Username] = [3]int64{r.Approved, r.Rejected, r.Pending}
	}

	out := make([]models.UserPostCounts, 0, len(users))
	for _, u := range users {
		counts := byUser[u.Username]
		out = append(out, models.UserPostCounts{
			Username:      u.Username,
			Email:         u.Email,
			Role:          u.Role,
			ApprovedPosts: counts[0],
			RejectedPosts: counts[1],
			PendingPosts:  counts[2],
		})
	}

	return &models.UserStats{Students: students, Admins: admins, Users: out}, nil
}

// countApprovedByTags unwinds tags on approved posts and counts occurrences
// of each value in the vocabulary.
func (s *Store) countApprovedByTags(ctx context.Context, vocabulary []string) ([]models.TagCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.StatusApproved}}},
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$match", Value: bson.M{"tags": bson.M{"$in": vocabulary}}}},
		{{Key: "$group", Value: bson.M{"_id": "$tags", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := s.posts().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	counts := []models.TagCount{}
	if err := cur.All(ctx, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// PostStats returns the approved-post total plus counts over the fixed
// category and year tag vocabularies.
func (s *Store) PostStats(ctx context.Context) (*models.PostStats, error) {
	total, err := s.posts().CountDocuments(ctx, bson.M{"status": models.StatusApproved})
	if err != nil {
		return nil, err
	}

	byEvent, err := s.countApprovedByTags(ctx, models.CategoryTags)
	if err != nil {
		return nil, err
	}
	byYear, err := s.countApprovedByTags(ctx, models.YearTags)
	if err != nil {
		return nil, err
	}

	return &models.PostStats{TotalPosts: total, ByEventType: byEvent, ByYear: byYear}, nil
}

// MonthlyPostCounts groups approved posts by creation month. A month or year
// of zero means unfiltered; the caller decorates rows with month names and
// percentages.
func (s *Store) MonthlyPostCounts(ctx context.Context, month, year int) ([]models.MonthlyCount, int64, error) {
	match := bson.M{"status": models.StatusApproved}
	var exprs bson.A
	if month > 0 {
		exprs = append(exprs, bson.M{"$eq": bson.A{bson.M{"$month": "$createdAt"}, month}})
	}
	if year > 0 {
		exprs = append(exprs, bson.M{"$eq": bson.A{bson.M{"$year": "$createdAt"}, year}})
	}
	if len(exprs) == 1 {
		match["$expr"] = exprs[0]
	} else if len(exprs) > 1 {
		match["$expr"] = bson.M{"$and": exprs}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$month": "$createdAt"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := s.posts().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	rows := []models.MonthlyCount{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}

	total, err := s.posts().CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
