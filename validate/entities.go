package validate

import "github.com/raywall/single-table-toolkit/entity"

// builtinRules returns the field rule sets for the built-in entity
// types. Callers may override any of these through Engine.Register.
func builtinRules() map[string][]Rule {
	return map[string][]Rule{
		entity.TypeUser:            userRules(),
		entity.TypeCircle:          circleRules(),
		entity.TypeCircleMember:    circleMemberRules(),
		entity.TypeUserCircle:      userCircleRules(),
		entity.TypeImageAsset:      imageAssetRules(),
		entity.TypeFeedback:        feedbackRules(),
		entity.TypeIncident:        incidentRules(),
		entity.TypeAdvisoryReview:  advisoryReviewRules(),
		entity.TypePremiumSource:   premiumSourceRules(),
		entity.TypePersonalization: personalizationRules(),
	}
}

func userRules() []Rule {
	return []Rule{
		{Field: "userId", Check: Required{}, Severity: SeverityError},
		{Field: "email", Check: Required{}, Severity: SeverityError},
		{Field: "email", Check: Email(), Severity: SeverityError},
		{Field: "profile.firstName", Check: Required{}, Severity: SeverityError},
		{Field: "profile.lastName", Check: Required{}, Severity: SeverityError},
		{Field: "profile.bio", Check: LengthBetween{Max: 500}, Severity: SeverityWarning},
		{Field: "profile.avatarUrl", Check: URL(), Severity: SeverityWarning},
		// A malformed culturalBackground is reported as a warning, not an
		// error, so legacy profiles imported before the field was
		// structured keep loading.
		{Field: "profile.culturalBackground", Check: IsArray{}, Severity: SeverityWarning},
		{Field: "profile.communicationStyle", Check: OneOf{Values: []string{
			"direct_supportive", "gentle_encouraging", "humor_based", "spiritual_grounded",
		}}, Severity: SeverityWarning},
		{Field: "profile.diagnosisStage", Check: OneOf{Values: []string{
			"newly_diagnosed", "adjusting", "managing_well", "experienced", "complications", "remission",
		}}, Severity: SeverityWarning},
		{Field: "preferences.profileVisibility", Check: OneOf{Values: []string{
			"public", "circles_only", "private",
		}}, Severity: SeverityError},
	}
}

func circleRules() []Rule {
	return []Rule{
		{Field: "circleId", Check: Required{}, Severity: SeverityError},
		{Field: "name", Check: Required{}, Severity: SeverityError},
		{Field: "name", Check: LengthBetween{Min: 3, Max: 100}, Severity: SeverityError},
		{Field: "description", Check: LengthBetween{Max: 500}, Severity: SeverityWarning},
		{Field: "privacyLevel", Check: OneOf{Values: []string{"public", "private", "invite_only"}}, Severity: SeverityError},
		{Field: "settings.maxMembers", Check: NumberBetween{Min: 2, Max: 10000}, Severity: SeverityWarning},
		{Field: "createdBy", Check: Required{}, Severity: SeverityError},
		{Field: "status", Check: OneOf{Values: []string{"active", "inactive", "archived"}}, Severity: SeverityError},
	}
}

func circleMemberRules() []Rule {
	return []Rule{
		{Field: "circleId", Check: Required{}, Severity: SeverityError},
		{Field: "userId", Check: Required{}, Severity: SeverityError},
		{Field: "role", Check: OneOf{Values: []string{"admin", "moderator", "member"}}, Severity: SeverityError},
		{Field: "status", Check: OneOf{Values: []string{"active", "inactive", "banned"}}, Severity: SeverityError},
		{Field: "joinedAt", Check: IsTimestamp{}, Severity: SeverityWarning},
	}
}

func userCircleRules() []Rule {
	return []Rule{
		{Field: "userId", Check: Required{}, Severity: SeverityError},
		{Field: "circleId", Check: Required{}, Severity: SeverityError},
		{Field: "role", Check: OneOf{Values: []string{"admin", "moderator", "member"}}, Severity: SeverityError},
		{Field: "joinedAt", Check: IsTimestamp{}, Severity: SeverityWarning},
	}
}

func imageAssetRules() []Rule {
	return []Rule{
		{Field: "imageId", Check: Required{}, Severity: SeverityError},
		{Field: "url", Check: Required{}, Severity: SeverityError},
		{Field: "url", Check: URL(), Severity: SeverityError},
		{Field: "altText", Check: Required{}, Severity: SeverityError},
		{Field: "category", Check: Required{}, Severity: SeverityError},
		{Field: "source", Check: OneOf{Values: []string{"upload", "stock", "generated"}}, Severity: SeverityError},
		{Field: "status", Check: OneOf{Values: []string{"active", "pending_review", "flagged", "removed"}}, Severity: SeverityError},
		{Field: "tags", Check: IsArray{}, Severity: SeverityWarning},
		{Field: "validation.culturalRelevanceScore", Check: NumberBetween{Min: 0, Max: 1}, Severity: SeverityWarning},
		{Field: "validation.sensitivityScore", Check: NumberBetween{Min: 0, Max: 1}, Severity: SeverityWarning},
		{Field: "validation.inclusivityScore", Check: NumberBetween{Min: 0, Max: 1}, Severity: SeverityWarning},
	}
}

func feedbackRules() []Rule {
	return []Rule{
		{Field: "feedbackId", Check: Required{}, Severity: SeverityError},
		{Field: "imageId", Check: Required{}, Severity: SeverityError},
		{Field: "userId", Check: Required{}, Severity: SeverityError},
		{Field: "rating", Check: NumberBetween{Min: 1, Max: 5}, Severity: SeverityError},
		{Field: "feedbackType", Check: OneOf{Values: []string{
			"cultural_concern", "inappropriate", "love_it", "not_relevant", "technical_issue",
		}}, Severity: SeverityError},
		{Field: "comment", Check: LengthBetween{Max: 1000}, Severity: SeverityWarning},
		{Field: "status", Check: OneOf{Values: []string{"pending", "reviewed", "actioned", "dismissed"}}, Severity: SeverityError},
		{Field: "severity", Check: OneOf{Values: []string{"low", "medium", "high", "critical"}}, Severity: SeverityWarning},
	}
}

func incidentRules() []Rule {
	return []Rule{
		{Field: "incidentId", Check: Required{}, Severity: SeverityError},
		{Field: "title", Check: Required{}, Severity: SeverityError},
		{Field: "reportedBy", Check: Required{}, Severity: SeverityError},
		{Field: "type", Check: OneOf{Values: []string{
			"cultural_insensitivity", "inappropriate_content", "technical_failure", "user_report",
		}}, Severity: SeverityError},
		{Field: "priority", Check: OneOf{Values: []string{"p1", "p2", "p3"}}, Severity: SeverityError},
		{Field: "status", Check: OneOf{Values: []string{"open", "investigating", "resolved", "closed"}}, Severity: SeverityError},
		{Field: "affectedImageIds", Check: IsArray{}, Severity: SeverityWarning},
	}
}

func advisoryReviewRules() []Rule {
	return []Rule{
		{Field: "reviewId", Check: Required{}, Severity: SeverityError},
		{Field: "contentId", Check: Required{}, Severity: SeverityError},
		{Field: "submittedBy", Check: Required{}, Severity: SeverityError},
		{Field: "contentType", Check: OneOf{Values: []string{"image", "story", "article", "resource"}}, Severity: SeverityError},
		{Field: "status", Check: OneOf{Values: []string{
			"queued", "in_review", "approved", "changes_requested", "rejected",
		}}, Severity: SeverityError},
		{Field: "priority", Check: OneOf{Values: []string{"low", "medium", "high", "urgent"}}, Severity: SeverityError},
		{Field: "dueDate", Check: IsTimestamp{}, Severity: SeverityWarning},
	}
}

func premiumSourceRules() []Rule {
	return []Rule{
		{Field: "sourceId", Check: Required{}, Severity: SeverityError},
		{Field: "name", Check: Required{}, Severity: SeverityError},
		{Field: "provider", Check: Required{}, Severity: SeverityError},
		{Field: "type", Check: OneOf{Values: []string{
			"stock_photos", "cultural_content", "medical_images", "community_generated",
		}}, Severity: SeverityError},
		{Field: "apiEndpoint", Check: URL(), Severity: SeverityWarning},
		{Field: "licenseInfo.type", Check: Required{}, Severity: SeverityError},
		{Field: "contentFilters.culturalRelevance", Check: NumberBetween{Min: 0, Max: 1}, Severity: SeverityWarning},
		{Field: "qualityMetrics.approvalRate", Check: NumberBetween{Min: 0, Max: 1}, Severity: SeverityWarning},
		{Field: "qualityMetrics.averageRating", Check: NumberBetween{Min: 0, Max: 5}, Severity: SeverityWarning},
	}
}

func personalizationRules() []Rule {
	return []Rule{
		{Field: "userId", Check: Required{}, Severity: SeverityError},
		{Field: "culturalProfile.primaryCulture", Check: Required{}, Severity: SeverityWarning},
		{Field: "aiInsights.confidenceScore", Check: NumberBetween{Min: 0, Max: 1}, Severity: SeverityWarning},
		{Field: "aiInsights.lastAnalysis", Check: IsTimestamp{}, Severity: SeverityWarning},
	}
}
