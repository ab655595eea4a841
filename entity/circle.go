package entity

// Circle is the community metadata row under CIRCLE#<id> / METADATA.
// Memberships are stored as separate CircleMember and UserCircle rows so
// member lists and "circles of a user" are both single-partition queries.
type Circle struct {
	Base

	CircleID      string         `dynamodbav:"circleId" json:"circleId"`
	Name          string         `dynamodbav:"name" json:"name"`
	Description   string         `dynamodbav:"description,omitempty" json:"description,omitempty"`
	Type          string         `dynamodbav:"type,omitempty" json:"type,omitempty"`
	PrivacyLevel  string         `dynamodbav:"privacyLevel" json:"privacyLevel"`
	Settings      CircleSettings `dynamodbav:"settings" json:"settings"`
	Stats         CircleStats    `dynamodbav:"stats" json:"stats"`
	Tags          []string       `dynamodbav:"tags,omitempty" json:"tags,omitempty"`
	CoverImageURL string         `dynamodbav:"coverImageUrl,omitempty" json:"coverImageUrl,omitempty"`
	CreatedBy     string         `dynamodbav:"createdBy" json:"createdBy"`
	Moderators    []string       `dynamodbav:"moderators,omitempty" json:"moderators,omitempty"`
	Status        string         `dynamodbav:"status" json:"status"`
}

type CircleSettings struct {
	IsPrivate       bool     `dynamodbav:"isPrivate" json:"isPrivate"`
	RequireApproval bool     `dynamodbav:"requireApproval" json:"requireApproval"`
	MaxMembers      int      `dynamodbav:"maxMembers,omitempty" json:"maxMembers,omitempty"`
	CulturalFocus   []string `dynamodbav:"culturalFocus,omitempty" json:"culturalFocus,omitempty"`
	ModerationLevel string   `dynamodbav:"moderationLevel,omitempty" json:"moderationLevel,omitempty"`
}

type CircleStats struct {
	MemberCount    int     `dynamodbav:"memberCount" json:"memberCount"`
	ActiveMembers  int     `dynamodbav:"activeMembers" json:"activeMembers"`
	PostsThisWeek  int     `dynamodbav:"postsThisWeek" json:"postsThisWeek"`
	PostsThisMonth int     `dynamodbav:"postsThisMonth" json:"postsThisMonth"`
	EngagementRate float64 `dynamodbav:"engagementRate" json:"engagementRate"`
}

// CircleMember is the circle-side row of a membership pair, stored under
// CIRCLE#<id> / MEMBER#<userId>.
type CircleMember struct {
	Base

	CircleID      string `dynamodbav:"circleId" json:"circleId"`
	UserID        string `dynamodbav:"userId" json:"userId"`
	Role          string `dynamodbav:"role" json:"role"`
	JoinedAt      string `dynamodbav:"joinedAt" json:"joinedAt"`
	Status        string `dynamodbav:"status" json:"status"`
	Notifications bool   `dynamodbav:"notifications" json:"notifications"`
}

// UserCircle mirrors a membership from the user's partition, stored under
// USER#<id> / CIRCLE#<circleId>. Both rows of a pair are written in one
// transaction so neither side can exist without the other.
type UserCircle struct {
	Base

	UserID     string `dynamodbav:"userId" json:"userId"`
	CircleID   string `dynamodbav:"circleId" json:"circleId"`
	CircleName string `dynamodbav:"circleName,omitempty" json:"circleName,omitempty"`
	Role       string `dynamodbav:"role" json:"role"`
	JoinedAt   string `dynamodbav:"joinedAt" json:"joinedAt"`
	Status     string `dynamodbav:"status" json:"status"`
}
