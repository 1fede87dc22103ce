package exportconfig

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func validConfig() *Config {
	return &Config{
		SendType:         SendTypeMasivo,
		ScheduledTime:    "09:30",
		CancellationType: CancellationNone,
		Settings: Settings{
			Destinations: []Destination{
				{AdvisorID: uuid.New(), Quantity: 50},
			},
		},
	}
}

func TestValidate(t *testing.T) {
	intp := func(v int) *int { return &v }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid masivo", mutate: func(*Config) {}},
		{
			name: "valid mix",
			mutate: func(c *Config) {
				c.Settings.Destinations[0].Mix = Mix{Enabled: true, FreshPct: 70}
			},
		},
		{
			name: "valid categories summing to quantity",
			mutate: func(c *Config) {
				c.Settings.Destinations[0].Quantity = 30
				c.Settings.Destinations[0].Categories = []CategoryQuota{
					{ObraSocial: "OSDE", Count: 20},
					{ObraSocial: "Swiss Medical", Count: 10},
				}
			},
		},
		{
			name:    "bad scheduled time",
			mutate:  func(c *Config) { c.ScheduledTime = "9:30am" },
			wantErr: true,
		},
		{
			name:    "unknown send type",
			mutate:  func(c *Config) { c.SendType = "directo" },
			wantErr: true,
		},
		{
			name:    "no destinations",
			mutate:  func(c *Config) { c.Settings.Destinations = nil },
			wantErr: true,
		},
		{
			name:    "zero quantity",
			mutate:  func(c *Config) { c.Settings.Destinations[0].Quantity = 0 },
			wantErr: true,
		},
		{
			name: "mix combined with categories",
			mutate: func(c *Config) {
				c.Settings.Destinations[0].Mix = Mix{Enabled: true, FreshPct: 50}
				c.Settings.Destinations[0].Categories = []CategoryQuota{
					{ObraSocial: "OSDE", Count: 50},
				}
			},
			wantErr: true,
		},
		{
			name: "fresh percentage out of range",
			mutate: func(c *Config) {
				c.Settings.Destinations[0].Mix = Mix{Enabled: true, FreshPct: 130}
			},
			wantErr: true,
		},
		{
			name: "category counts do not sum to quantity",
			mutate: func(c *Config) {
				c.Settings.Destinations[0].Quantity = 30
				c.Settings.Destinations[0].Categories = []CategoryQuota{
					{ObraSocial: "OSDE", Count: 10},
					{ObraSocial: "Swiss Medical", Count: 10},
				}
			},
			wantErr: true,
		},
		{
			name: "duplicate category",
			mutate: func(c *Config) {
				c.Settings.Destinations[0].Quantity = 20
				c.Settings.Destinations[0].Categories = []CategoryQuota{
					{ObraSocial: "OSDE", Count: 10},
					{ObraSocial: "OSDE", Count: 10},
				}
			},
			wantErr: true,
		},
		{
			name: "inverted age range",
			mutate: func(c *Config) {
				c.Settings.Destinations[0].AgeRange = &AgeRange{Min: intp(60), Max: intp(30)}
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestShouldSkip(t *testing.T) {
	today := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	t.Run("none never skips", func(t *testing.T) {
		cfg := validConfig()
		if skip, _ := cfg.ShouldSkip(today); skip {
			t.Fatal("expected no skip")
		}
	})

	t.Run("indefinite always skips without consuming", func(t *testing.T) {
		cfg := validConfig()
		cfg.CancellationType = CancellationIndefinite
		skip, consume := cfg.ShouldSkip(today)
		if !skip || consume {
			t.Fatalf("expected skip without consume, got skip=%v consume=%v", skip, consume)
		}
		skip, _ = cfg.ShouldSkip(tomorrow)
		if !skip {
			t.Fatal("expected skip to persist on the next day")
		}
	})

	t.Run("today skips only the marked day and consumes", func(t *testing.T) {
		cfg := validConfig()
		cfg.CancellationType = CancellationToday
		cfg.SkipDate = &today

		skip, consume := cfg.ShouldSkip(today)
		if !skip || !consume {
			t.Fatalf("expected skip and consume on the marked day, got skip=%v consume=%v", skip, consume)
		}

		skip, _ = cfg.ShouldSkip(tomorrow)
		if skip {
			t.Fatal("expected no skip the day after")
		}
	})
}

func TestExecutedOn(t *testing.T) {
	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 23:30 local on June 10 is 02:30 UTC on June 11. The guard must compare
	// days in the scheduler's timezone, not in UTC.
	executed := time.Date(2025, 6, 11, 2, 30, 0, 0, time.UTC)
	cfg := validConfig()
	cfg.LastExecuted = &executed

	localSameDay := time.Date(2025, 6, 10, 23, 45, 0, 0, loc)
	if !cfg.ExecutedOn(localSameDay) {
		t.Fatal("expected ExecutedOn to match the local day")
	}

	nextLocalDay := time.Date(2025, 6, 11, 9, 30, 0, 0, loc)
	if cfg.ExecutedOn(nextLocalDay) {
		t.Fatal("expected ExecutedOn to be false the next local day")
	}
}
