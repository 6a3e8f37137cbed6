package models

// UserPostCounts summarizes one user's posts by moderation status for the
// admin dashboard.
type UserPostCounts struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	ApprovedPosts int64  `json:"approvedPosts"`
	RejectedPosts int64  `json:"rejectedPosts"`
	PendingPosts  int64  `json:"pendingPosts"`
}

// UserStats is the payload of GET /api/stats/users.
type UserStats struct {
	Students int64            `json:"students"`
	Admins   int64            `json:"admins"`
	Users    []UserPostCounts `json:"users"`
}

// TagCount is an approved-post count for a single tag value.
type TagCount struct {
	Tag   string `bson:"_id" json:"tag"`
	Count int64  `bson:"count" json:"count"`
}

// PostStats is the payload of GET /api/stats/posts.
type PostStats struct {
	TotalPosts  int64      `json:"totalPosts"`
	ByEventType []TagCount `json:"postsByEventType"`
	ByYear      []TagCount `json:"postsByYear"`
}

// MonthlyCount is one month's approved-post count with its share of the
// period total. Percentage is formatted with two decimals to match client
// expectations.
type MonthlyCount struct {
	Month      int    `bson:"_id" json:"month"`
	Count      int64  `bson:"count" json:"count"`
	MonthName  string `bson:"-" json:"monthName"`
	Percentage string `bson:"-" json:"percentage"`
}

// MonthlyStats is the payload of GET /api/stats/monthly-posts.
type MonthlyStats struct {
	Posts      []MonthlyCount `json:"posts"`
	TotalPosts int64          `json:"totalPosts"`
}
