package entity

// User is the profile record stored under USER#<id> / PROFILE. The email
// and tenant projections live on GSI1 and GSI4 respectively.
type User struct {
	Base

	UserID       string          `dynamodbav:"userId" json:"userId"`
	Email        string          `dynamodbav:"email" json:"email"`
	Profile      UserProfile     `dynamodbav:"profile" json:"profile"`
	Preferences  UserPreferences `dynamodbav:"preferences" json:"preferences"`
	Settings     UserSettings    `dynamodbav:"settings" json:"settings"`
	PrimaryGoals []string        `dynamodbav:"primaryGoals,omitempty" json:"primaryGoals,omitempty"`
	IsVerified   bool            `dynamodbav:"isVerified" json:"isVerified"`
	IsActive     bool            `dynamodbav:"isActive" json:"isActive"`
	Stats        UserStats       `dynamodbav:"stats" json:"stats"`
	TenantID     string          `dynamodbav:"tenantId,omitempty" json:"tenantId,omitempty"`
}

type UserProfile struct {
	FirstName          string    `dynamodbav:"firstName" json:"firstName"`
	LastName           string    `dynamodbav:"lastName" json:"lastName"`
	DisplayName        string    `dynamodbav:"displayName,omitempty" json:"displayName,omitempty"`
	Bio                string    `dynamodbav:"bio,omitempty" json:"bio,omitempty"`
	AvatarURL          string    `dynamodbav:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	CulturalBackground []string  `dynamodbav:"culturalBackground,omitempty" json:"culturalBackground,omitempty"`
	CommunicationStyle string    `dynamodbav:"communicationStyle,omitempty" json:"communicationStyle,omitempty"`
	DiagnosisStage     string    `dynamodbav:"diagnosisStage,omitempty" json:"diagnosisStage,omitempty"`
	SupportNeeds       []string  `dynamodbav:"supportNeeds,omitempty" json:"supportNeeds,omitempty"`
	Location           *Location `dynamodbav:"location,omitempty" json:"location,omitempty"`
	JoinDate           string    `dynamodbav:"joinDate,omitempty" json:"joinDate,omitempty"`
}

type Location struct {
	City    string `dynamodbav:"city,omitempty" json:"city,omitempty"`
	State   string `dynamodbav:"state,omitempty" json:"state,omitempty"`
	Country string `dynamodbav:"country,omitempty" json:"country,omitempty"`
}

type UserPreferences struct {
	ProfileVisibility   string   `dynamodbav:"profileVisibility" json:"profileVisibility"`
	ShowRealName        bool     `dynamodbav:"showRealName" json:"showRealName"`
	AllowDirectMessages bool     `dynamodbav:"allowDirectMessages" json:"allowDirectMessages"`
	ShareHealthJourney  bool     `dynamodbav:"shareHealthJourney" json:"shareHealthJourney"`
	EmailNotifications  bool     `dynamodbav:"emailNotifications" json:"emailNotifications"`
	PushNotifications   bool     `dynamodbav:"pushNotifications" json:"pushNotifications"`
	WeeklyDigest        bool     `dynamodbav:"weeklyDigest" json:"weeklyDigest"`
	CircleNotifications bool     `dynamodbav:"circleNotifications" json:"circleNotifications"`
	ContentPreferences  []string `dynamodbav:"contentPreferences,omitempty" json:"contentPreferences,omitempty"`
	CircleInterests     []string `dynamodbav:"circleInterests,omitempty" json:"circleInterests,omitempty"`
}

type UserSettings struct {
	Theme         string        `dynamodbav:"theme,omitempty" json:"theme,omitempty"`
	Language      string        `dynamodbav:"language,omitempty" json:"language,omitempty"`
	Timezone      string        `dynamodbav:"timezone,omitempty" json:"timezone,omitempty"`
	Accessibility Accessibility `dynamodbav:"accessibility" json:"accessibility"`
}

type Accessibility struct {
	FontSize      string `dynamodbav:"fontSize,omitempty" json:"fontSize,omitempty"`
	HighContrast  bool   `dynamodbav:"highContrast" json:"highContrast"`
	ScreenReader  bool   `dynamodbav:"screenReader" json:"screenReader"`
	ReducedMotion bool   `dynamodbav:"reducedMotion" json:"reducedMotion"`
}

type UserStats struct {
	StoriesShared  int `dynamodbav:"storiesShared" json:"storiesShared"`
	CirclesJoined  int `dynamodbav:"circlesJoined" json:"circlesJoined"`
	CommentsPosted int `dynamodbav:"commentsPosted" json:"commentsPosted"`
	HelpfulVotes   int `dynamodbav:"helpfulVotes" json:"helpfulVotes"`
	DaysActive     int `dynamodbav:"daysActive" json:"daysActive"`
	StreakDays     int `dynamodbav:"streakDays" json:"streakDays"`

	LastActiveAt string `dynamodbav:"lastActiveAt,omitempty" json:"lastActiveAt,omitempty"`
}
