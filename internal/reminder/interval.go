package reminder

import "kratzbaum/internal/model"

// EffectiveInterval resolves the interval in days for (plant, t): the plant
// override if set, else the global default. ok is false when neither is set.
// Non-positive values count as unset.
func EffectiveInterval(p model.Plant, s model.Settings, t model.ReminderType) (days int, ok bool) {
	if v := p.Override(t); v != nil && *v > 0 {
		return *v, true
	}
	if v := s.Default(t); v != nil && *v > 0 {
		return *v, true
	}
	return 0, false
}
