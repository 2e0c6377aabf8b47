package akumuli

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/expenses/akumuli-go/errs"
)

// Defaults of DBConfig.
const (
	DefaultNumVolumes = 1
	DefaultAllocate   = true
	DefaultPageSize   = 4096
	DefaultSuffix     = "db"
)

// DBConfig describes a database instance to create.
type DBConfig struct {
	// NumVolumes is the number of storage volumes.
	NumVolumes int32 `yaml:"num_volumes"`
	// Allocate pre-allocates the volumes on disk.
	Allocate bool `yaml:"allocate"`
	// PageSize is the volume page size in bytes.
	PageSize uint64 `yaml:"page_size"`
	// Suffix is the base name of the instance files inside the database
	// directory.
	Suffix string `yaml:"suffix"`
}

// DefaultDBConfig returns one pre-allocated volume of 4096 byte pages named
// "db".
func DefaultDBConfig() DBConfig {
	return DBConfig{
		NumVolumes: DefaultNumVolumes,
		Allocate:   DefaultAllocate,
		PageSize:   DefaultPageSize,
		Suffix:     DefaultSuffix,
	}
}

// LoadDBConfig reads a YAML file. Keys missing from the file keep their
// default value.
func LoadDBConfig(path string) (DBConfig, error) {
	const op = "LoadDBConfig"

	data, err := os.ReadFile(path)
	if err != nil {
		return DBConfig{}, errs.Config(op, "%w", err)
	}

	cfg := DefaultDBConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DBConfig{}, errs.Config(op, "parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return DBConfig{}, err
	}

	return cfg, nil
}

// Validate reports a config error for values the engine cannot accept.
func (c DBConfig) Validate() error {
	const op = "DBConfig.Validate"

	switch {
	case c.Suffix == "":
		return errs.Config(op, "empty suffix")
	case hasNUL(c.Suffix):
		return errs.Config(op, "suffix %q contains a NUL byte", c.Suffix)
	case c.NumVolumes < 1:
		return errs.Config(op, "num_volumes must be at least 1, got %d", c.NumVolumes)
	case c.PageSize == 0:
		return errs.Config(op, "page_size must be positive")
	}

	return nil
}

// hasNUL reports whether s cannot be passed as a C string.
func hasNUL(s string) bool {
	return strings.IndexByte(s, 0) >= 0
}
