package watch

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the sweep configuration, loaded from a YAML file so the watched
// course list can change without a rebuild.
type Config struct {
	// Interval between sweep ticks, e.g. "15m".
	Interval string `yaml:"interval"`

	// GeneralCourse is the school-wide class id swept for everyone.
	GeneralCourse int `yaml:"general_course"`

	// Courses are the additionally watched class ids.
	Courses []int `yaml:"courses"`

	// Slots whitelists the period start times ("HH:MM") that produce
	// notifications. Cancellations outside these slots are ignored, which
	// keeps extracurricular periods out of the alerts.
	Slots []string `yaml:"slots"`
}

// LoadConfig reads and validates the sweep configuration.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read watch config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse watch config: %w", err)
	}

	if cfg.Interval == "" {
		cfg.Interval = "15m"
	}
	if _, err := time.ParseDuration(cfg.Interval); err != nil {
		return cfg, fmt.Errorf("watch interval %q: %w", cfg.Interval, err)
	}
	if len(cfg.Slots) == 0 {
		return cfg, fmt.Errorf("watch config: at least one period slot is required")
	}
	for _, s := range cfg.Slots {
		if _, err := time.Parse("15:04", s); err != nil {
			return cfg, fmt.Errorf("watch slot %q: %w", s, err)
		}
	}
	return cfg, nil
}

func (c Config) interval() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// watchedCourses is the general course first, then the configured list.
func (c Config) watchedCourses() []int {
	courses := make([]int, 0, len(c.Courses)+1)
	if c.GeneralCourse != 0 {
		courses = append(courses, c.GeneralCourse)
	}
	return append(courses, c.Courses...)
}
