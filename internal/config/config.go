// Package config loads pine.yaml, the file cmd/pine and cmd/pine-ls read to
// learn a program's declared input columns, its series-retention bound, and
// where its rows come from. Validation runs before defaults are filled in.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kaigouthro/pine-lang/internal/types"
)

// ColumnSpec declares one input column in pine.yaml: its name and scalar
// kind. The Kind string is one of "float", "int", "bool", "string", "color",
// written in lower case or with a leading capital ("Float"); any other
// spelling fails validation.
type ColumnSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

// FeedSpec names which internal/feed backend a run reads rows from and the
// backend-specific settings it needs. At most one of Csv/Sqlite/Grpc may be
// set; which one is active is decided by which sub-struct is non-nil after
// validate, not by a separate "kind" discriminator, since yaml.v3 already
// leaves the others as zero values when absent.
type FeedSpec struct {
	Csv    *CsvFeedSpec    `yaml:"csv,omitempty"`
	Sqlite *SqliteFeedSpec `yaml:"sqlite,omitempty"`
	Grpc   *GrpcFeedSpec   `yaml:"grpc,omitempty"`
}

// CsvFeedSpec points at a CSV file whose header row names input columns.
type CsvFeedSpec struct {
	Path string `yaml:"path"`
}

// SqliteFeedSpec points at a modernc.org/sqlite database and the bars
// table to stream rows from, ordered by its time column.
type SqliteFeedSpec struct {
	Path      string `yaml:"path"`
	Table     string `yaml:"table"`
	TimeCol   string `yaml:"time_col"`
}

// GrpcFeedSpec points at a streaming bars service: the .proto file
// describing it (resolved the way jhump/protoreflect's protoparse.Parser
// resolves imports), the fully-qualified service name and the method name
// within it, and the address to dial.
type GrpcFeedSpec struct {
	ProtoFile   string `yaml:"proto_file"`
	ImportPaths []string `yaml:"import_paths,omitempty"`
	Service     string `yaml:"service"`
	Method      string `yaml:"method"`
	Address     string `yaml:"address"`
}

// Config is the top-level pine.yaml document.
type Config struct {
	Columns   []ColumnSpec `yaml:"columns"`
	Retention int          `yaml:"retention,omitempty"`
	Feed      FeedSpec     `yaml:"feed,omitempty"`
}

// DefaultRetention mirrors library.DefaultRetention; duplicated here (not
// imported) so package config does not depend on package library.
const DefaultRetention = 5000

// LoadConfig reads and parses a pine.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses pine.yaml content from bytes. path is used only for
// error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for pine.yaml starting from dir and walking up to
// parent directories.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, "pine.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		candidate = filepath.Join(dir, "pine.yml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *Config) validate(path string) error {
	if len(c.Columns) == 0 {
		return fmt.Errorf("%s: no columns defined", path)
	}
	seen := make(map[string]bool, len(c.Columns))
	for i, col := range c.Columns {
		if col.Name == "" {
			return fmt.Errorf("%s: columns[%d]: name is required", path, i)
		}
		if seen[col.Name] {
			return fmt.Errorf("%s: columns[%d]: duplicate column name %q", path, i, col.Name)
		}
		seen[col.Name] = true
		if _, err := kindFromString(col.Kind); err != nil {
			return fmt.Errorf("%s: columns[%d] (%s): %w", path, i, col.Name, err)
		}
	}

	feeds := 0
	if c.Feed.Csv != nil {
		feeds++
		if c.Feed.Csv.Path == "" {
			return fmt.Errorf("%s: feed.csv.path is required", path)
		}
	}
	if c.Feed.Sqlite != nil {
		feeds++
		if c.Feed.Sqlite.Path == "" || c.Feed.Sqlite.Table == "" {
			return fmt.Errorf("%s: feed.sqlite.path and table are required", path)
		}
	}
	if c.Feed.Grpc != nil {
		feeds++
		if c.Feed.Grpc.ProtoFile == "" || c.Feed.Grpc.Service == "" || c.Feed.Grpc.Method == "" || c.Feed.Grpc.Address == "" {
			return fmt.Errorf("%s: feed.grpc.proto_file, service, method, and address are all required", path)
		}
	}
	if feeds > 1 {
		return fmt.Errorf("%s: feed: only one of csv, sqlite, grpc may be set", path)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Retention <= 0 {
		c.Retention = DefaultRetention
	}
	if c.Feed.Sqlite != nil && c.Feed.Sqlite.TimeCol == "" {
		c.Feed.Sqlite.TimeCol = "time"
	}
}

// ColumnKind resolves a validated ColumnSpec's Kind string to a types.Kind.
// validate already rejected unrecognized kinds; for a Config built by hand
// rather than through ParseConfig/LoadConfig, an unrecognized kind resolves
// to types.KindNa.
func (cs ColumnSpec) ColumnKind() types.Kind {
	k, _ := kindFromString(cs.Kind)
	return k
}

func kindFromString(s string) (types.Kind, error) {
	switch s {
	case "float", "Float":
		return types.KindFloat, nil
	case "int", "Int":
		return types.KindInt, nil
	case "bool", "Bool":
		return types.KindBool, nil
	case "string", "String":
		return types.KindString, nil
	case "color", "Color":
		return types.KindColor, nil
	default:
		return types.KindNa, fmt.Errorf("unknown column kind %q", s)
	}
}
