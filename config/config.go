// Package config loads and validates the fuzzer's TOML configuration
// (spec.md 6.2) using viper for layered loading and pelletier's TOML
// codec for parsing, the combination the broader example pack reaches
// for whenever a project needs a typed config struct bound from a file.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/generator"
	"github.com/diffuzzer/diffuzzer/mutator"
)

// Config is the fully parsed, validated TOML configuration.
type Config struct {
	MaxWorkloadLength uint16 `mapstructure:"max_workload_length"`
	FSName            string `mapstructure:"fs_name"`
	DashEnabled       bool   `mapstructure:"dash_enabled"`
	HeartbeatInterval uint16 `mapstructure:"heartbeat_interval"`
	Timeout           uint8  `mapstructure:"timeout"`
	MetricsAddr       string `mapstructure:"metrics_addr"`

	Greybox          GreyboxConfig          `mapstructure:"greybox"`
	OperationWeights OperationWeightsConfig `mapstructure:"operation_weights"`
	MutationWeights  MutationWeightsConfig  `mapstructure:"mutation_weights"`
	QEMU             QEMUConfig             `mapstructure:"qemu"`
}

type GreyboxConfig struct {
	MaxMutations uint16 `mapstructure:"max_mutations"`
	SaveCorpus   bool   `mapstructure:"save_corpus"`
}

// WeightEntry is the (OperationKind|MutationKind, weight) pair the TOML
// tables list under operation_weights.weights / mutation_weights.weights.
type WeightEntry struct {
	Kind   string `mapstructure:"kind"`
	Weight uint32 `mapstructure:"weight"`
}

type OperationWeightsConfig struct {
	Weights []WeightEntry `mapstructure:"weights"`
}

type MutationWeightsConfig struct {
	Weights []WeightEntry `mapstructure:"weights"`
}

type QEMUConfig struct {
	LaunchScript      string `mapstructure:"launch_script"`
	SSHUser           string `mapstructure:"ssh_user"`
	SSHPrivateKeyPath string `mapstructure:"ssh_private_key_path"`
	SSHHost           string `mapstructure:"ssh_host"`
	OSImage           string `mapstructure:"os_image"`
	BootWaitTime      uint8  `mapstructure:"boot_wait_time"`
	LogPath           string `mapstructure:"log_path"`
	MonitorSocketPath string `mapstructure:"monitor_socket_path"`
	QMPSocketPath     string `mapstructure:"qmp_socket_path"`
	SSHPort           uint16 `mapstructure:"ssh_port"`
	MonitorPort       uint16 `mapstructure:"monitor_port"`
	ExecDir           string `mapstructure:"exec_dir"`
}

// Load reads and validates the TOML file at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that fs_name is set and that max_workload_length and
// timeout are non-zero. Every other field, dash_enabled and
// heartbeat_interval included, is accepted as loaded.
func (c *Config) Validate() error {
	if c.FSName == "" {
		return fmt.Errorf("config: fs_name is required")
	}
	if c.MaxWorkloadLength == 0 {
		return fmt.Errorf("config: max_workload_length must be non-zero")
	}
	if c.Timeout == 0 {
		return fmt.Errorf("config: timeout must be non-zero")
	}
	return nil
}

var operationKindNames = map[string]abstractfs.OperationKind{
	"MkDir": abstractfs.OpMkDir, "Create": abstractfs.OpCreate, "Remove": abstractfs.OpRemove,
	"Hardlink": abstractfs.OpHardlink, "Symlink": abstractfs.OpSymlink, "Rename": abstractfs.OpRename,
	"Open": abstractfs.OpOpen, "Close": abstractfs.OpClose, "Read": abstractfs.OpRead,
	"Write": abstractfs.OpWrite, "FSync": abstractfs.OpFSync,
}

// GeneratorWeights converts the TOML operation_weights.weights list into
// a generator.Weights map, falling back to generator.DefaultWeights for
// any kind the config omits.
func (c *Config) GeneratorWeights() generator.Weights {
	w := generator.DefaultWeights()
	for _, entry := range c.OperationWeights.Weights {
		if kind, ok := operationKindNames[entry.Kind]; ok {
			w[kind] = entry.Weight
		}
	}
	return w
}

// MutatorConfig converts the relevant TOML fields into a mutator.Config.
func (c *Config) MutatorConfig() mutator.Config {
	cfg := mutator.DefaultConfig()
	cfg.MaxWorkloadLength = int(c.MaxWorkloadLength)
	if c.Greybox.MaxMutations > 0 {
		cfg.MaxMutations = int(c.Greybox.MaxMutations)
	}
	for _, entry := range c.MutationWeights.Weights {
		switch entry.Kind {
		case "Insert":
			cfg.InsertWeight = entry.Weight
		case "Remove":
			cfg.RemoveWeight = entry.Weight
		}
	}
	return cfg
}
