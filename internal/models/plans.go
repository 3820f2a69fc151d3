package models

// PlanConfig describes one paid tier. Additional tiers compose by adding
// entries to planConfigs without touching the quota logic.
type PlanConfig struct {
	Name         UserPlan
	DisplayName  string
	MonthlyLimit int
	PriceCents   int
	Currency     string
}

var planConfigs = map[UserPlan]PlanConfig{
	UserPlanPro: {
		Name:         UserPlanPro,
		DisplayName:  "Plano PRO",
		MonthlyLimit: 3000,
		PriceCents:   1990,
		Currency:     "BRL",
	},
}

// DefaultPlan is the plan users are created with.
const DefaultPlan = UserPlanPro

// GetPlanConfig returns the configuration for a plan, falling back to the
// default plan for unknown values so stale rows never break quota checks.
func GetPlanConfig(plan UserPlan) PlanConfig {
	if cfg, ok := planConfigs[plan]; ok {
		return cfg
	}
	return planConfigs[DefaultPlan]
}
