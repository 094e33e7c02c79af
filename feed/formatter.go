package feed

import (
	"encoding/json"
	"fmt"

	"certgate/ledger"
	"certgate/models"
)

// FormatEvent maps a raw ledger event to a displayable activity. The mapping
// is total: unknown event names fall through to a generic system activity and
// missing argument fields get explicit defaults, so malformed payloads from
// the network never propagate downstream.
func FormatEvent(name string, args map[string]any, blockNumber int64, txHash string, timestamp int64) models.Activity {
	activity := models.Activity{
		Category:    models.CategorySystem,
		Title:       "Ledger Event",
		Description: fmt.Sprintf("Unrecognized event %q observed on chain", name),
		Details:     map[string]any{"event": name},
		Icon:        "cube",
		Color:       "gray",
		Priority:    models.PriorityLow,
		BlockNumber: blockNumber,
		TxHash:      txHash,
		Timestamp:   timestamp,
	}

	switch name {
	case ledger.EventCertificateIssued:
		activity.Category = models.CategoryCertificates
		activity.Title = "Certificate Issued"
		activity.Description = fmt.Sprintf("Certificate #%s issued to %s for %s",
			argNumber(args, "certificateId"), argString(args, "student"), argString(args, "courseName"))
		activity.Details = map[string]any{
			"certificateId": argInt(args, "certificateId"),
			"student":       argString(args, "student"),
			"institution":   argString(args, "institution"),
			"courseName":    argString(args, "courseName"),
		}
		activity.Icon = "award"
		activity.Color = "green"
		activity.Priority = models.PriorityMedium
	case ledger.EventCertificateVerified:
		activity.Category = models.CategoryCertificates
		activity.Title = "Certificate Verified"
		activity.Description = fmt.Sprintf("Certificate #%s verified by %s",
			argNumber(args, "certificateId"), argString(args, "verifier"))
		activity.Details = map[string]any{
			"certificateId": argInt(args, "certificateId"),
			"verifier":      argString(args, "verifier"),
		}
		activity.Icon = "check"
		activity.Color = "blue"
		activity.Priority = models.PriorityMedium
	case ledger.EventCertificateRevoked:
		activity.Category = models.CategoryCertificates
		activity.Title = "Certificate Revoked"
		activity.Description = fmt.Sprintf("Certificate #%s revoked: %s",
			argNumber(args, "certificateId"), argString(args, "reason"))
		activity.Details = map[string]any{
			"certificateId": argInt(args, "certificateId"),
			"reason":        argString(args, "reason"),
		}
		activity.Icon = "x-circle"
		activity.Color = "red"
		activity.Priority = models.PriorityHigh
	case ledger.EventCertificateStatus:
		activity.Category = models.CategoryCertificates
		activity.Title = "Certificate Status Changed"
		activity.Description = fmt.Sprintf("Certificate #%s status changed to %s",
			argNumber(args, "certificateId"), argString(args, "status"))
		activity.Details = map[string]any{
			"certificateId": argInt(args, "certificateId"),
			"status":        argString(args, "status"),
		}
		activity.Icon = "refresh"
		activity.Color = "blue"
		activity.Priority = models.PriorityLow
	case ledger.EventCertificateBurned:
		activity.Category = models.CategoryCertificates
		activity.Title = "Certificate Burned"
		activity.Description = fmt.Sprintf("Certificate #%s permanently burned by %s",
			argNumber(args, "certificateId"), argString(args, "by"))
		activity.Details = map[string]any{
			"certificateId": argInt(args, "certificateId"),
			"by":            argString(args, "by"),
			"reason":        argString(args, "reason"),
		}
		activity.Icon = "flame"
		activity.Color = "orange"
		activity.Priority = models.PriorityHigh
	case ledger.EventBurnRequested:
		activity.Category = models.CategoryCertificates
		activity.Title = "Burn Requested"
		activity.Description = fmt.Sprintf("Burn requested for certificate #%s: %s",
			argNumber(args, "certificateId"), argString(args, "reason"))
		activity.Details = map[string]any{
			"certificateId": argInt(args, "certificateId"),
			"requester":     argString(args, "requester"),
			"reason":        argString(args, "reason"),
		}
		activity.Icon = "flame"
		activity.Color = "orange"
		activity.Priority = models.PriorityHigh
	case ledger.EventBurnRequestCancelled:
		activity.Category = models.CategoryCertificates
		activity.Title = "Burn Request Cancelled"
		activity.Description = fmt.Sprintf("Burn request for certificate #%s withdrawn",
			argNumber(args, "certificateId"))
		activity.Details = map[string]any{
			"certificateId": argInt(args, "certificateId"),
		}
		activity.Icon = "undo"
		activity.Color = "gray"
		activity.Priority = models.PriorityMedium
	case ledger.EventInstitutionAuthorized:
		activity.Category = models.CategoryInstitutions
		activity.Title = "Institution Authorized"
		activity.Description = fmt.Sprintf("Institution %s authorized to issue certificates",
			argString(args, "institution"))
		activity.Details = map[string]any{
			"institution": argString(args, "institution"),
			"name":        argString(args, "name"),
		}
		activity.Icon = "building"
		activity.Color = "green"
		activity.Priority = models.PriorityMedium
	case ledger.EventInstitutionRevoked:
		activity.Category = models.CategoryInstitutions
		activity.Title = "Institution Revoked"
		activity.Description = fmt.Sprintf("Institution %s authorization revoked",
			argString(args, "institution"))
		activity.Details = map[string]any{
			"institution": argString(args, "institution"),
		}
		activity.Icon = "building"
		activity.Color = "red"
		activity.Priority = models.PriorityHigh
	case ledger.EventCourseRegistered:
		activity.Category = models.CategoryInstitutions
		activity.Title = "Course Registered"
		activity.Description = fmt.Sprintf("Course %s registered by %s",
			argString(args, "name"), argString(args, "institution"))
		activity.Details = map[string]any{
			"courseId":    argInt(args, "courseId"),
			"name":        argString(args, "name"),
			"institution": argString(args, "institution"),
		}
		activity.Icon = "book"
		activity.Color = "blue"
		activity.Priority = models.PriorityLow
	case ledger.EventRoleGranted:
		activity.Category = models.CategorySystem
		activity.Title = "Role Granted"
		activity.Description = fmt.Sprintf("Role %s granted to %s",
			argString(args, "role"), argString(args, "account"))
		activity.Details = map[string]any{
			"role":    argString(args, "role"),
			"account": argString(args, "account"),
		}
		activity.Icon = "shield"
		activity.Color = "purple"
		activity.Priority = models.PriorityMedium
	case ledger.EventRoleRevoked:
		activity.Category = models.CategorySystem
		activity.Title = "Role Revoked"
		activity.Description = fmt.Sprintf("Role %s revoked from %s",
			argString(args, "role"), argString(args, "account"))
		activity.Details = map[string]any{
			"role":    argString(args, "role"),
			"account": argString(args, "account"),
		}
		activity.Icon = "shield"
		activity.Color = "red"
		activity.Priority = models.PriorityMedium
	}

	return activity
}

// argString extracts a string field, defaulting to "Unknown" when absent or
// of the wrong type.
func argString(args map[string]any, key string) string {
	if args == nil {
		return "Unknown"
	}
	if s, ok := args[key].(string); ok && s != "" {
		return s
	}
	return "Unknown"
}

// argInt extracts a numeric field, returning nil when absent or not numeric.
// JSON decoding delivers numbers as float64; integer and string forms are
// accepted as well since the node is not consistent about them.
func argInt(args map[string]any, key string) *int64 {
	if args == nil {
		return nil
	}
	switch v := args[key].(type) {
	case float64:
		n := int64(v)
		return &n
	case int64:
		return &v
	case int:
		n := int64(v)
		return &n
	case uint:
		n := int64(v)
		return &n
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return &n
		}
	}
	return nil
}

// argNumber renders a numeric field for display, "?" when missing.
func argNumber(args map[string]any, key string) string {
	if n := argInt(args, key); n != nil {
		return fmt.Sprintf("%d", *n)
	}
	return "?"
}
