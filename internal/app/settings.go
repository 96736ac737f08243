package app

import (
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"
)

// Settings keys steering automatic propagation of individual-level
// events into the group-direct bucket.
const (
	SettingPourManualAdjustments = "pour_manual_adjustments_to_group"
	SettingPourAddOnly           = "auto_pour_add_points_to_group"
	SettingPourApprovedRequests  = "pour_approved_requests_to_group"
)

// PropagationPolicy is the typed view over the three pour settings. The
// group total already re-sums member totals, so pouring mirrors an
// individual event into the direct bucket on top of that; operators pick
// whether they want the group to visually reflect individual changes.
type PropagationPolicy struct {
	PourManualAdjustments bool
	PourAddOnly           bool
	PourApprovedRequests  bool
}

// ShouldPourAdjustment decides whether a manual adjustment with the
// given action mirrors into the group's direct bucket.
// PourManualAdjustments wins over PourAddOnly so the event is never
// poured twice.
func (p PropagationPolicy) ShouldPourAdjustment(action string) bool {
	if p.PourManualAdjustments {
		return true
	}
	return p.PourAddOnly && action == ActionAdd
}

func (s *Service) propagationPolicy() PropagationPolicy {
	return PropagationPolicy{
		PourManualAdjustments: s.settingBool(SettingPourManualAdjustments),
		PourAddOnly:           s.settingBool(SettingPourAddOnly),
		PourApprovedRequests:  s.settingBool(SettingPourApprovedRequests),
	}
}

// settingBool reads a settings key as a boolean. Missing keys and read
// errors default to false; propagation is strictly opt-in.
func (s *Service) settingBool(key string) bool {
	value, err := s.Store.GetSetting(key)
	if err != nil {
		logger.Error.Printf("Failed to read setting %s: %v", key, err)
		return false
	}
	return parseSettingBool(value)
}

func parseSettingBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
