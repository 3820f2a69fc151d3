package models

type UserRole string
type UserPlan string
type SubscriptionStatus string
type CorrectionStyle string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"

	UserPlanPro UserPlan = "PRO"

	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"

	CorrectionStyleCorrect  CorrectionStyle = "correct"
	CorrectionStyleFormal   CorrectionStyle = "formal"
	CorrectionStyleInformal CorrectionStyle = "informal"
	CorrectionStyleConcise  CorrectionStyle = "concise"
	CorrectionStyleDetailed CorrectionStyle = "detailed"
)

// ValidCorrectionStyle reports whether s is one of the supported styles.
func ValidCorrectionStyle(s string) bool {
	switch CorrectionStyle(s) {
	case CorrectionStyleCorrect, CorrectionStyleFormal, CorrectionStyleInformal,
		CorrectionStyleConcise, CorrectionStyleDetailed:
		return true
	}
	return false
}
