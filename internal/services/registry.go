package services

// ServiceContainer holds every service of the application.
type ServiceContainer struct {
	AuthService       AuthService
	UserService       UserService
	QuotaService      QuotaService
	CorrectionService CorrectionService
	BillingService    BillingService
}
