package config

import (
	"time"

	"github.com/rezkam/stackit/internal/domain"
)

// ScheduleConfig holds calendar and ordering defaults.
type ScheduleConfig struct {
	// Timezone is the zone calendar days are evaluated in.
	Timezone    *time.Location      `env:"STACKIT_TIMEZONE" default:"Local"`
	DefaultMode domain.ScheduleMode `env:"STACKIT_DEFAULT_MODE" default:"priority"`
}

// Validate validates the schedule configuration.
func (c *ScheduleConfig) Validate() error {
	mode, err := domain.ParseScheduleMode(string(c.DefaultMode))
	if err != nil {
		return err
	}
	c.DefaultMode = mode
	if c.Timezone == nil {
		c.Timezone = time.Local
	}
	return nil
}
