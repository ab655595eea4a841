package entity

// Feedback is user feedback on an image, stored under
// FEEDBACK#IMAGE#<imageId> / FEEDBACK#<feedbackId> so all feedback for an
// image shares a partition. GSI1 projects feedback per user ordered by
// creation time.
type Feedback struct {
	Base

	FeedbackID   string `dynamodbav:"feedbackId" json:"feedbackId"`
	ImageID      string `dynamodbav:"imageId" json:"imageId"`
	UserID       string `dynamodbav:"userId" json:"userId"`
	Rating       int    `dynamodbav:"rating" json:"rating"`
	FeedbackType string `dynamodbav:"feedbackType" json:"feedbackType"`
	Comment      string `dynamodbav:"comment,omitempty" json:"comment,omitempty"`
	IsAnonymous  bool   `dynamodbav:"isAnonymous" json:"isAnonymous"`
	Status       string `dynamodbav:"status" json:"status"`
	Severity     string `dynamodbav:"severity,omitempty" json:"severity,omitempty"`
}

// Incident is an operational or content incident under INCIDENT#<id>,
// with a status+priority projection on GSI3 for queue-style listing.
type Incident struct {
	Base

	IncidentID       string           `dynamodbav:"incidentId" json:"incidentId"`
	Type             string           `dynamodbav:"type" json:"type"`
	Priority         string           `dynamodbav:"priority" json:"priority"`
	Status           string           `dynamodbav:"status" json:"status"`
	Title            string           `dynamodbav:"title" json:"title"`
	Description      string           `dynamodbav:"description,omitempty" json:"description,omitempty"`
	AffectedImageIDs []string         `dynamodbav:"affectedImageIds,omitempty" json:"affectedImageIds,omitempty"`
	ReportedBy       string           `dynamodbav:"reportedBy" json:"reportedBy"`
	AssignedTo       string           `dynamodbav:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	Resolution       *Resolution      `dynamodbav:"resolution,omitempty" json:"resolution,omitempty"`
	Metrics          *IncidentMetrics `dynamodbav:"metrics,omitempty" json:"metrics,omitempty"`
}

type Resolution struct {
	Action     string `dynamodbav:"action" json:"action"`
	Notes      string `dynamodbav:"notes,omitempty" json:"notes,omitempty"`
	ResolvedBy string `dynamodbav:"resolvedBy" json:"resolvedBy"`
	ResolvedAt string `dynamodbav:"resolvedAt" json:"resolvedAt"`
}

type IncidentMetrics struct {
	ReportCount   int      `dynamodbav:"reportCount" json:"reportCount"`
	UsersAffected int      `dynamodbav:"usersAffected" json:"usersAffected"`
	FeedbackIDs   []string `dynamodbav:"feedbackIds,omitempty" json:"feedbackIds,omitempty"`
}
