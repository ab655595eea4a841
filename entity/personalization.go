package entity

// Personalization is the per-user personalization profile stored in the
// user's partition under USER#<id> / PERSONALIZATION, with an optional
// cohort projection on GSI2.
type Personalization struct {
	Base

	UserID             string              `dynamodbav:"userId" json:"userId"`
	CulturalProfile    CulturalProfile     `dynamodbav:"culturalProfile" json:"culturalProfile"`
	ContentPreferences ContentPreferences  `dynamodbav:"contentPreferences" json:"contentPreferences"`
	EngagementHistory  EngagementHistory   `dynamodbav:"engagementHistory" json:"engagementHistory"`
	AIInsights         *PredictiveInsights `dynamodbav:"aiInsights,omitempty" json:"aiInsights,omitempty"`
	CohortID           string              `dynamodbav:"cohortId,omitempty" json:"cohortId,omitempty"`
}

type CulturalProfile struct {
	PrimaryCulture          string   `dynamodbav:"primaryCulture,omitempty" json:"primaryCulture,omitempty"`
	SecondaryCultures       []string `dynamodbav:"secondaryCultures,omitempty" json:"secondaryCultures,omitempty"`
	Region                  string   `dynamodbav:"region,omitempty" json:"region,omitempty"`
	Language                string   `dynamodbav:"language,omitempty" json:"language,omitempty"`
	ReligiousConsiderations []string `dynamodbav:"religiousConsiderations,omitempty" json:"religiousConsiderations,omitempty"`
	SensitiveTopics         []string `dynamodbav:"sensitiveTopics,omitempty" json:"sensitiveTopics,omitempty"`
}

type ContentPreferences struct {
	PreferredImageTypes       []string                  `dynamodbav:"preferredImageTypes,omitempty" json:"preferredImageTypes,omitempty"`
	AvoidedImageTypes         []string                  `dynamodbav:"avoidedImageTypes,omitempty" json:"avoidedImageTypes,omitempty"`
	ColorPreferences          []string                  `dynamodbav:"colorPreferences,omitempty" json:"colorPreferences,omitempty"`
	RepresentationPreferences RepresentationPreferences `dynamodbav:"representationPreferences" json:"representationPreferences"`
}

type RepresentationPreferences struct {
	AgePreference   string `dynamodbav:"agePreference,omitempty" json:"agePreference,omitempty"`
	StylePreference string `dynamodbav:"stylePreference,omitempty" json:"stylePreference,omitempty"`
}

type EngagementHistory struct {
	MostEngagedCategories  []string         `dynamodbav:"mostEngagedCategories,omitempty" json:"mostEngagedCategories,omitempty"`
	LeastEngagedCategories []string         `dynamodbav:"leastEngagedCategories,omitempty" json:"leastEngagedCategories,omitempty"`
	FeedbackPatterns       FeedbackPatterns `dynamodbav:"feedbackPatterns" json:"feedbackPatterns"`
}

type FeedbackPatterns struct {
	PositiveKeywords []string `dynamodbav:"positiveKeywords,omitempty" json:"positiveKeywords,omitempty"`
	NegativeKeywords []string `dynamodbav:"negativeKeywords,omitempty" json:"negativeKeywords,omitempty"`
}

type PredictiveInsights struct {
	PredictedPreferences []string `dynamodbav:"predictedPreferences,omitempty" json:"predictedPreferences,omitempty"`
	ConfidenceScore      float64  `dynamodbav:"confidenceScore" json:"confidenceScore"`
	LastAnalysis         string   `dynamodbav:"lastAnalysis,omitempty" json:"lastAnalysis,omitempty"`
	RecommendedContent   []string `dynamodbav:"recommendedContent,omitempty" json:"recommendedContent,omitempty"`
}
