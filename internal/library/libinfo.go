package library

import "github.com/kaigouthro/pine-lang/internal/types"

// ColumnSpec declares one driver-supplied input column: its name and the
// scalar kind of the Series it feeds.
type ColumnSpec struct {
	Name string
	Kind types.Kind
}

// LibInfo is everything analyse() needs about the outside world: the
// built-in function registry and the declared input columns, plus the
// series-retention bound every run is configured with.
type LibInfo struct {
	Builtins  *Registry
	Columns   []ColumnSpec
	Retention int
}

// DefaultRetention is the retention bound used when a config does not
// specify one.
const DefaultRetention = 5000
