// Package exportconfig models the persisted distribution policy: when the
// daily batch runs, which advisors receive leads, and how each advisor's
// quota is composed.
package exportconfig

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Send types. Masivo applies one shared quota template to every destination;
// avanzado carries a full per-destination configuration.
const (
	SendTypeMasivo   = "masivo"
	SendTypeAvanzado = "avanzado"
)

// Cancellation types. Today skips exactly one scheduled run and clears
// itself; indefinite holds runs until explicitly removed.
const (
	CancellationNone       = "none"
	CancellationToday      = "today"
	CancellationIndefinite = "indefinite"
)

// Mix splits a destination's quota between the fresh and reusable pools.
type Mix struct {
	Enabled  bool `json:"enabled"`
	FreshPct int  `json:"freshPct"`
}

// CategoryQuota reserves part of a quota for a specific obra social.
type CategoryQuota struct {
	ObraSocial string `json:"obraSocial"`
	Count      int    `json:"count"`
}

// AgeRange constrains a destination's leads to an age band. Nil bounds leave
// the side open.
type AgeRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// Destination is one advisor's slice of the daily batch.
type Destination struct {
	AdvisorID  uuid.UUID       `json:"advisorId"`
	Quantity   int             `json:"quantity"`
	Mix        Mix             `json:"mix"`
	Categories []CategoryQuota `json:"categories,omitempty"`
	AgeRange   *AgeRange       `json:"ageRange,omitempty"`
}

// Settings is the jsonb payload stored alongside a config row.
type Settings struct {
	Destinations []Destination `json:"destinations"`
}

// Config is the full distribution policy.
type Config struct {
	ID               uuid.UUID
	SendType         string
	ScheduledTime    string
	Settings         Settings
	CancellationType string
	SkipDate         *time.Time
	LastExecuted     *time.Time
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate checks the policy's internal consistency before it is saved.
func (c *Config) Validate() error {
	if c.SendType != SendTypeMasivo && c.SendType != SendTypeAvanzado {
		return fmt.Errorf("unknown send type %q", c.SendType)
	}
	if _, err := time.Parse("15:04", c.ScheduledTime); err != nil {
		return fmt.Errorf("scheduled time %q is not HH:mm", c.ScheduledTime)
	}
	switch c.CancellationType {
	case CancellationNone, CancellationToday, CancellationIndefinite:
	default:
		return fmt.Errorf("unknown cancellation type %q", c.CancellationType)
	}
	if len(c.Settings.Destinations) == 0 {
		return fmt.Errorf("at least one destination is required")
	}

	for i, dest := range c.Settings.Destinations {
		if err := validateDestination(dest); err != nil {
			return fmt.Errorf("destination %d: %w", i, err)
		}
	}

	return nil
}

func validateDestination(dest Destination) error {
	if dest.AdvisorID == uuid.Nil {
		return fmt.Errorf("advisor id is required")
	}
	if dest.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}

	if dest.Mix.Enabled && len(dest.Categories) > 0 {
		return fmt.Errorf("mix and category quotas cannot be combined")
	}

	if dest.Mix.Enabled {
		if dest.Mix.FreshPct < 0 || dest.Mix.FreshPct > 100 {
			return fmt.Errorf("fresh percentage must be between 0 and 100")
		}
	}

	if len(dest.Categories) > 0 {
		total := 0
		seen := make(map[string]bool)
		for _, cat := range dest.Categories {
			if cat.ObraSocial == "" {
				return fmt.Errorf("category obra social is required")
			}
			if seen[cat.ObraSocial] {
				return fmt.Errorf("duplicate category %q", cat.ObraSocial)
			}
			seen[cat.ObraSocial] = true
			if cat.Count <= 0 {
				return fmt.Errorf("category %q count must be positive", cat.ObraSocial)
			}
			total += cat.Count
		}
		if total != dest.Quantity {
			return fmt.Errorf("category counts sum to %d, want quantity %d", total, dest.Quantity)
		}
	}

	if dest.AgeRange != nil && dest.AgeRange.Min != nil && dest.AgeRange.Max != nil &&
		*dest.AgeRange.Min > *dest.AgeRange.Max {
		return fmt.Errorf("age range min exceeds max")
	}

	return nil
}

// ShouldSkip reports whether the policy's cancellation suppresses a run on
// the given day, and whether that cancellation is consumed by skipping.
func (c *Config) ShouldSkip(day time.Time) (skip, consume bool) {
	switch c.CancellationType {
	case CancellationIndefinite:
		return true, false
	case CancellationToday:
		if c.SkipDate != nil && sameDay(*c.SkipDate, day) {
			return true, true
		}
		// A stale today-cancellation from a previous day no longer applies.
		return false, false
	default:
		return false, false
	}
}

// ExecutedOn reports whether the policy already ran on the given day.
func (c *Config) ExecutedOn(day time.Time) bool {
	return c.LastExecuted != nil && sameDay(*c.LastExecuted, day)
}

// sameDay compares calendar days in b's location, so a UTC timestamp from the
// database lines up with the scheduler's local day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
