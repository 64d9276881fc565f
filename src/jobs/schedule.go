package jobs

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_schedule.yaml
var defaultSchedule []byte

// Schedule is the cron configuration of the jobs.
type Schedule struct {
	Jobs []JobSchedule `yaml:"jobs"`
}

// JobSchedule binds a job to a cron spec with seconds precision.
type JobSchedule struct {
	Name     string `yaml:"name"`
	Cron     string `yaml:"cron"`
	Disabled bool   `yaml:"disabled"`
}

// LoadSchedule reads the schedule file at path, or the embedded default when
// path is empty.
func LoadSchedule(path string) (*Schedule, error) {
	data := defaultSchedule
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read job schedule: %w", err)
		}
	}
	return ParseSchedule(data)
}

// ParseSchedule decodes a YAML schedule.
func ParseSchedule(data []byte) (*Schedule, error) {
	s := &Schedule{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse job schedule: %w", err)
	}
	for i, j := range s.Jobs {
		if j.Name == "" || j.Cron == "" {
			return nil, fmt.Errorf("parse job schedule: entry %d needs a name and a cron spec", i+1)
		}
	}
	return s, nil
}
