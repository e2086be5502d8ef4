package entity

// NotificationPreference controls how buffered events are presented to the
// user. It is process-wide, mutable at any time by the user, and read by the
// notification presenter on every event.
type NotificationPreference struct {
	Enabled     bool              `json:"enabled"`     // Master switch; disables every presentation channel when false.
	Volume      float64           `json:"volume"`      // Sound volume in [0, 1]; scales playback regardless of severity.
	PerSeverity map[Severity]bool `json:"perSeverity"` // Per-severity sound gate.
}

// DefaultNotificationPreference enables every severity at full volume.
func DefaultNotificationPreference() NotificationPreference {
	return NotificationPreference{
		Enabled: true,
		Volume:  1.0,
		PerSeverity: map[Severity]bool{
			SeverityLow:      true,
			SeverityMedium:   true,
			SeverityHigh:     true,
			SeverityCritical: true,
		},
	}
}

// SoundEnabled reports whether sound should play for the given severity.
func (p NotificationPreference) SoundEnabled(severity Severity) bool {
	if !p.Enabled {
		return false
	}

	return p.PerSeverity[severity]
}

// Clone returns a deep copy so callers can mutate without racing readers.
func (p NotificationPreference) Clone() NotificationPreference {
	clone := p
	clone.PerSeverity = make(map[Severity]bool, len(p.PerSeverity))
	for severity, enabled := range p.PerSeverity {
		clone.PerSeverity[severity] = enabled
	}

	return clone
}
