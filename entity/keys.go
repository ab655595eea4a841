package entity

import "fmt"

// Entity type discriminators stored in the entityType attribute.
const (
	TypeUser            = "USER"
	TypeCircle          = "CIRCLE"
	TypeCircleMember    = "CIRCLE_MEMBER"
	TypeUserCircle      = "USER_CIRCLE"
	TypeImageAsset      = "IMAGE_ASSET"
	TypeFeedback        = "FEEDBACK"
	TypeIncident        = "INCIDENT"
	TypeAdvisoryReview  = "ADVISORY_REVIEW"
	TypePremiumSource   = "PREMIUM_SOURCE"
	TypePersonalization = "PERSONALIZATION"
)

// Key naming for the single-table layout. Every accessor that touches the
// table goes through these builders so the conventions live in one place.

func UserProfileKey(userID string) (pk, sk string) {
	return "USER#" + userID, "PROFILE"
}

func UserEmailGSI(email, userID string) (gsi1pk, gsi1sk string) {
	return "EMAIL#" + email, "USER#" + userID
}

func UserTenantGSI(tenantID, userID string) (gsi4pk, gsi4sk string) {
	return "TENANT#" + tenantID + "#USERS", "USER#" + userID
}

func CircleMetadataKey(circleID string) (pk, sk string) {
	return "CIRCLE#" + circleID, "METADATA"
}

func CircleTypeGSI(circleType, circleID string) (gsi1pk, gsi1sk string) {
	return "CIRCLE_TYPE#" + circleType, "CIRCLE#" + circleID
}

// CircleMemberKey addresses the circle-side row of a membership pair.
func CircleMemberKey(circleID, userID string) (pk, sk string) {
	return "CIRCLE#" + circleID, "MEMBER#" + userID
}

// UserCircleKey addresses the user-side mirror row of a membership pair.
func UserCircleKey(userID, circleID string) (pk, sk string) {
	return "USER#" + userID, "CIRCLE#" + circleID
}

func ImageMetadataKey(imageID string) (pk, sk string) {
	return "IMAGE#" + imageID, "METADATA"
}

func ImageCategoryGSI(category, imageID string) (gsi2pk, gsi2sk string) {
	return "CATEGORY#" + category, "IMAGE#" + imageID
}

func ImageStatusGSI(status, imageID string) (gsi3pk, gsi3sk string) {
	return "IMAGE_STATUS#" + status, "IMAGE#" + imageID
}

func FeedbackKey(imageID, feedbackID string) (pk, sk string) {
	return "FEEDBACK#IMAGE#" + imageID, "FEEDBACK#" + feedbackID
}

func FeedbackUserGSI(userID, createdAt string) (gsi1pk, gsi1sk string) {
	return "USER#" + userID + "#FEEDBACK", createdAt
}

func IncidentKey(incidentID string) (pk, sk string) {
	return "INCIDENT#" + incidentID, "METADATA"
}

func IncidentStatusGSI(status, priority, createdAt string) (gsi3pk, gsi3sk string) {
	return "INCIDENT_STATUS#" + status, fmt.Sprintf("PRIORITY#%s#%s", priority, createdAt)
}

func AdvisoryReviewKey(contentID string) (pk, sk string) {
	return "ADVISORY#QUEUE", "CONTENT#" + contentID
}

func AdvisoryStatusGSI(status, createdAt string) (gsi2pk, gsi2sk string) {
	return "ADVISORY_STATUS#" + status, createdAt
}

func PremiumSourceKey(sourceID string) (pk, sk string) {
	return "PREMIUM_SOURCE#" + sourceID, "METADATA"
}

func PremiumSourceTierGSI(tier, sourceID string) (gsi3pk, gsi3sk string) {
	return "SOURCE_TIER#" + tier, "SOURCE#" + sourceID
}

func PremiumSourceProviderGSI(provider, sourceID string) (gsi2pk, gsi2sk string) {
	return "PROVIDER#" + provider, "SOURCE#" + sourceID
}

func PersonalizationKey(userID string) (pk, sk string) {
	return "USER#" + userID, "PERSONALIZATION"
}

func CohortGSI(cohortID, userID string) (gsi2pk, gsi2sk string) {
	return "COHORT#" + cohortID, "USER#" + userID
}
