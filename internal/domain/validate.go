package domain

import (
	"regexp"
	"strings"
)

// canonical UUID: 8-4-4-4-12 hex groups, case-insensitive
var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// maxFreeTextLen bounds sanitized free-text fields.
const maxFreeTextLen = 200

// Validate checks identifier formats, the discharge date and the
// disposition, and sanitizes free-text fields in place. It must be called
// exactly once, before any data access; failures are fatal.
func (dc *DischargeContext) Validate() error {
	if !uuidPattern.MatchString(dc.PatientID) {
		return NewValidationError("patient_id", "must be a canonical UUID", dc.PatientID)
	}
	if !uuidPattern.MatchString(dc.TenantID) {
		return NewValidationError("tenant_id", "must be a canonical UUID", dc.TenantID)
	}
	if dc.DischargedAt.IsZero() {
		return NewValidationError("discharged_at", "must be a valid date", dc.DischargedAt)
	}
	if !dc.Disposition.Valid() {
		return NewValidationError("disposition", "must be one of home, home_health, snf, ltac, rehab, hospice", string(dc.Disposition))
	}
	if dc.LengthOfStayDays < 0 {
		return NewValidationError("length_of_stay_days", "must not be negative", dc.LengthOfStayDays)
	}

	dc.FacilityName = SanitizeFreeText(dc.FacilityName)
	dc.DiagnosisDescription = SanitizeFreeText(dc.DiagnosisDescription)
	return nil
}

var freeTextSanitizer = strings.NewReplacer(
	"<", "",
	">", "",
	`"`, "",
	"'", "",
	";", "",
	"--", "",
)

// SanitizeFreeText strips angle brackets, quotes, semicolons and "--"
// sequences and truncates to a bounded length. This is a character
// denylist, not a keyword filter.
func SanitizeFreeText(s string) string {
	s = freeTextSanitizer.Replace(s)
	s = strings.TrimSpace(s)
	if len(s) > maxFreeTextLen {
		s = s[:maxFreeTextLen]
	}
	return s
}
