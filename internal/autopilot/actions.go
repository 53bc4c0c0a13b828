package autopilot

// Action identifies one automated optimization the autopilot can run.
type Action string

const (
	ActionScaleBudgetUp   Action = "scale_budget_up"
	ActionScaleBudgetDown Action = "scale_budget_down"
	ActionPauseCampaign   Action = "pause_campaign"
	ActionResumeCampaign  Action = "resume_campaign"
	ActionRotateCreative  Action = "rotate_creative"
	ActionAdjustAudience  Action = "adjust_audience"
)

// Catalog returns the full action catalog in canonical order.
func Catalog() []Action {
	return []Action{
		ActionScaleBudgetUp,
		ActionScaleBudgetDown,
		ActionPauseCampaign,
		ActionResumeCampaign,
		ActionRotateCreative,
		ActionAdjustAudience,
	}
}

// Partition splits the catalog into the allowed and restricted action
// sets for a mode. The two sets are always disjoint and together cover
// the whole catalog.
//
//   - normal: everything is allowed.
//   - limited: spend increases need a second confirmation pass, so
//     scale_budget_up is restricted; everything else runs.
//   - cuts_only: only spend-decreasing and pause actions run; anything
//     that raises spend or exposure is restricted.
//   - frozen: nothing runs unattended.
func Partition(m Mode) (allowed, restricted []Action) {
	for _, a := range Catalog() {
		if permitted(m, a) {
			allowed = append(allowed, a)
		} else {
			restricted = append(restricted, a)
		}
	}
	return allowed, restricted
}

func permitted(m Mode, a Action) bool {
	switch m {
	case ModeNormal:
		return true
	case ModeLimited:
		return a != ActionScaleBudgetUp
	case ModeCutsOnly:
		return a == ActionScaleBudgetDown || a == ActionPauseCampaign
	default: // frozen, or an unknown mode fails closed
		return false
	}
}
