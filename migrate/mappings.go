package migrate

import (
	"fmt"

	"github.com/raywall/single-table-toolkit/entity"
)

// str reads a row column as a string, tolerating NULLs and numeric ids.
func str(row Row, column string) string {
	v, found := row[column]
	if !found || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func strOr(row Row, column, fallback string) string {
	if s := str(row, column); s != "" {
		return s
	}
	return fallback
}

// UsersMapping migrates a relational users table into USER items. It
// assembles the nested profile, preferences and stats documents from
// the source's flat columns and projects the email and tenant indexes.
func UsersMapping() Mapping {
	return Mapping{
		SourceTable: "users",
		EntityType:  entity.TypeUser,
		Keys: KeyMapping{
			PK: func(row Row) string {
				pk, _ := entity.UserProfileKey(str(row, "id"))
				return pk
			},
			SK: func(row Row) string {
				_, sk := entity.UserProfileKey(str(row, "id"))
				return sk
			},
		},
		Fields: map[string]FieldSource{
			"userId":   {Column: "id"},
			"email":    {Column: "email"},
			"tenantId": {Column: "tenant_id"},
			"isActive": {Compute: func(row Row) any { return strOr(row, "status", "active") == "active" }},
			"profile": {Compute: func(row Row) any {
				return map[string]any{
					"firstName":          str(row, "first_name"),
					"lastName":           str(row, "last_name"),
					"displayName":        str(row, "display_name"),
					"bio":                str(row, "bio"),
					"culturalBackground": []any{},
					"languages":          []any{},
				}
			}},
			"preferences": {Compute: func(row Row) any {
				return map[string]any{
					"profileVisibility":  strOr(row, "profile_visibility", "circles_only"),
					"emailNotifications": true,
					"pushNotifications":  true,
				}
			}},
			"stats": {Compute: func(Row) any {
				return map[string]any{
					"storiesShared":  0,
					"circlesJoined":  0,
					"commentsPosted": 0,
					"helpfulVotes":   0,
					"daysActive":     0,
					"streakDays":     0,
				}
			}},
		},
		GSIs: map[string]func(Row) string{
			"GSI1PK": func(row Row) string {
				gsi1pk, _ := entity.UserEmailGSI(str(row, "email"), str(row, "id"))
				return gsi1pk
			},
			"GSI1SK": func(row Row) string {
				_, gsi1sk := entity.UserEmailGSI(str(row, "email"), str(row, "id"))
				return gsi1sk
			},
			"GSI4PK": func(row Row) string {
				if str(row, "tenant_id") == "" {
					return ""
				}
				gsi4pk, _ := entity.UserTenantGSI(str(row, "tenant_id"), str(row, "id"))
				return gsi4pk
			},
			"GSI4SK": func(row Row) string {
				if str(row, "tenant_id") == "" {
					return ""
				}
				_, gsi4sk := entity.UserTenantGSI(str(row, "tenant_id"), str(row, "id"))
				return gsi4sk
			},
		},
		Filter: func(row Row) bool {
			return str(row, "id") != "" && str(row, "email") != ""
		},
	}
}

// CirclesMapping migrates a relational circles table into CIRCLE
// metadata items. Membership rows are expected to migrate separately.
func CirclesMapping() Mapping {
	return Mapping{
		SourceTable: "circles",
		EntityType:  entity.TypeCircle,
		Keys: KeyMapping{
			PK: func(row Row) string {
				pk, _ := entity.CircleMetadataKey(str(row, "id"))
				return pk
			},
			SK: func(row Row) string {
				_, sk := entity.CircleMetadataKey(str(row, "id"))
				return sk
			},
		},
		Fields: map[string]FieldSource{
			"circleId":     {Column: "id"},
			"name":         {Column: "name"},
			"description":  {Column: "description"},
			"type":         {Compute: func(row Row) any { return strOr(row, "circle_type", "general") }},
			"privacyLevel": {Compute: func(row Row) any { return strOr(row, "privacy_level", "private") }},
			"createdBy":    {Column: "created_by"},
			"status":       {Compute: func(row Row) any { return strOr(row, "status", "active") }},
			"settings": {Compute: func(row Row) any {
				return map[string]any{
					"isPrivate":       strOr(row, "privacy_level", "private") != "public",
					"requireApproval": true,
					"maxMembers":      float64(100),
				}
			}},
			"stats": {Compute: func(Row) any {
				return map[string]any{
					"memberCount":    0,
					"activeMembers":  0,
					"postsThisWeek":  0,
					"postsThisMonth": 0,
					"engagementRate": float64(0),
				}
			}},
		},
		GSIs: map[string]func(Row) string{
			"GSI1PK": func(row Row) string {
				gsi1pk, _ := entity.CircleTypeGSI(strOr(row, "circle_type", "general"), str(row, "id"))
				return gsi1pk
			},
			"GSI1SK": func(row Row) string {
				_, gsi1sk := entity.CircleTypeGSI(strOr(row, "circle_type", "general"), str(row, "id"))
				return gsi1sk
			},
		},
		Filter: func(row Row) bool {
			return str(row, "id") != "" && str(row, "name") != ""
		},
	}
}
