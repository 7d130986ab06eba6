package flamapy

import "time"

type Config struct {
	Python          string        `yaml:"python" json:"python"`
	Args            []string      `yaml:"args,omitempty" json:"args,omitempty"`
	Driver          string        `yaml:"driver,omitempty" json:"driver,omitempty"`
	WorkDir         string        `yaml:"work_dir,omitempty" json:"work_dir,omitempty"`
	InitTimeout     time.Duration `yaml:"init_timeout" json:"init_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	Circuit         CircuitConfig `yaml:"circuit" json:"circuit"`
}

// DefaultConfig runs the embedded driver with python3 from PATH. A zero
// InitTimeout leaves model loading unbounded.
func DefaultConfig() Config {
	return Config{
		Python:          "python3",
		Args:            []string{"-u"},
		InitTimeout:     0,
		ShutdownTimeout: 3 * time.Second,
		Circuit:         DefaultCircuitConfig(),
	}
}
