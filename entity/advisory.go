package entity

// AdvisoryReview is a content review queued for the advisory board. All
// reviews share the ADVISORY#QUEUE partition keyed by content, and GSI2
// projects the queue by review status ordered by creation time.
type AdvisoryReview struct {
	Base

	ReviewID          string           `dynamodbav:"reviewId" json:"reviewId"`
	ContentType       string           `dynamodbav:"contentType" json:"contentType"`
	ContentID         string           `dynamodbav:"contentId" json:"contentId"`
	Status            string           `dynamodbav:"status" json:"status"`
	Priority          string           `dynamodbav:"priority" json:"priority"`
	SubmittedBy       string           `dynamodbav:"submittedBy" json:"submittedBy"`
	AssignedReviewers []string         `dynamodbav:"assignedReviewers,omitempty" json:"assignedReviewers,omitempty"`
	Reviews           []ReviewDecision `dynamodbav:"reviews,omitempty" json:"reviews,omitempty"`
	ConsensusScore    float64          `dynamodbav:"consensusScore,omitempty" json:"consensusScore,omitempty"`
	FinalDecision     string           `dynamodbav:"finalDecision,omitempty" json:"finalDecision,omitempty"`
	DecisionRationale string           `dynamodbav:"decisionRationale,omitempty" json:"decisionRationale,omitempty"`
	DueDate           string           `dynamodbav:"dueDate,omitempty" json:"dueDate,omitempty"`
}

type ReviewDecision struct {
	ReviewerID       string  `dynamodbav:"reviewerId" json:"reviewerId"`
	Decision         string  `dynamodbav:"decision" json:"decision"`
	Comments         string  `dynamodbav:"comments,omitempty" json:"comments,omitempty"`
	CulturalAccuracy float64 `dynamodbav:"culturalAccuracy" json:"culturalAccuracy"`
	SensitivityScore float64 `dynamodbav:"sensitivityScore" json:"sensitivityScore"`
	ReviewedAt       string  `dynamodbav:"reviewedAt" json:"reviewedAt"`
}

// PremiumSource describes an external content source, stored under
// PREMIUM_SOURCE#<id> with a tier projection on GSI3 and a provider
// projection on GSI2.
type PremiumSource struct {
	Base

	SourceID       string         `dynamodbav:"sourceId" json:"sourceId"`
	Name           string         `dynamodbav:"name" json:"name"`
	Type           string         `dynamodbav:"type" json:"type"`
	Provider       string         `dynamodbav:"provider" json:"provider"`
	APIEndpoint    string         `dynamodbav:"apiEndpoint,omitempty" json:"apiEndpoint,omitempty"`
	LicenseInfo    LicenseInfo    `dynamodbav:"licenseInfo" json:"licenseInfo"`
	ContentFilters ContentFilters `dynamodbav:"contentFilters" json:"contentFilters"`
	QualityMetrics QualityMetrics `dynamodbav:"qualityMetrics" json:"qualityMetrics"`
	Cost           *SourceCost    `dynamodbav:"cost,omitempty" json:"cost,omitempty"`
	IsActive       bool           `dynamodbav:"isActive" json:"isActive"`
	Configuration  map[string]any `dynamodbav:"configuration,omitempty" json:"configuration,omitempty"`
}

type LicenseInfo struct {
	Type         string   `dynamodbav:"type" json:"type"`
	Restrictions []string `dynamodbav:"restrictions,omitempty" json:"restrictions,omitempty"`
	Attribution  string   `dynamodbav:"attribution,omitempty" json:"attribution,omitempty"`
}

type ContentFilters struct {
	CulturalRelevance float64  `dynamodbav:"culturalRelevance" json:"culturalRelevance"`
	SensitivityLevel  string   `dynamodbav:"sensitivityLevel,omitempty" json:"sensitivityLevel,omitempty"`
	Categories        []string `dynamodbav:"categories,omitempty" json:"categories,omitempty"`
}

type QualityMetrics struct {
	AverageRating         float64 `dynamodbav:"averageRating" json:"averageRating"`
	TotalImages           int     `dynamodbav:"totalImages" json:"totalImages"`
	ApprovalRate          float64 `dynamodbav:"approvalRate" json:"approvalRate"`
	CulturalAccuracyScore float64 `dynamodbav:"culturalAccuracyScore" json:"culturalAccuracyScore"`
}

type SourceCost struct {
	Model    string  `dynamodbav:"model" json:"model"`
	Amount   float64 `dynamodbav:"amount" json:"amount"`
	Currency string  `dynamodbav:"currency" json:"currency"`
}
