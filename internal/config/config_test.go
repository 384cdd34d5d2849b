package config

import (
	"strings"
	"testing"

	"github.com/kaigouthro/pine-lang/internal/types"
)

func TestParseConfigFillsDefaults(t *testing.T) {
	data := []byte(`
columns:
  - name: close
    kind: float
  - name: volume
    kind: int
feed:
  sqlite:
    path: bars.db
    table: bars
`)
	cfg, err := ParseConfig(data, "pine.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Retention != DefaultRetention {
		t.Errorf("Retention = %d, want default %d", cfg.Retention, DefaultRetention)
	}
	if cfg.Feed.Sqlite.TimeCol != "time" {
		t.Errorf("TimeCol = %q, want default \"time\"", cfg.Feed.Sqlite.TimeCol)
	}
	if cfg.Columns[0].ColumnKind() != types.KindFloat {
		t.Errorf("close kind = %v, want float", cfg.Columns[0].ColumnKind())
	}
	if cfg.Columns[1].ColumnKind() != types.KindInt {
		t.Errorf("volume kind = %v, want int", cfg.Columns[1].ColumnKind())
	}
}

func TestParseConfigKeepsExplicitRetention(t *testing.T) {
	data := []byte("columns:\n  - name: close\n    kind: float\nretention: 250\n")
	cfg, err := ParseConfig(data, "pine.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Retention != 250 {
		t.Errorf("Retention = %d, want 250", cfg.Retention)
	}
}

func TestParseConfigRejections(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no columns",
			yaml:    "retention: 10\n",
			wantErr: "no columns",
		},
		{
			name:    "duplicate column",
			yaml:    "columns:\n  - name: close\n    kind: float\n  - name: close\n    kind: int\n",
			wantErr: "duplicate column",
		},
		{
			name:    "unknown kind",
			yaml:    "columns:\n  - name: close\n    kind: decimal\n",
			wantErr: "unknown column kind",
		},
		{
			name:    "missing column name",
			yaml:    "columns:\n  - kind: float\n",
			wantErr: "name is required",
		},
		{
			name: "two feeds",
			yaml: "columns:\n  - name: close\n    kind: float\n" +
				"feed:\n  csv:\n    path: a.csv\n  sqlite:\n    path: a.db\n    table: bars\n",
			wantErr: "only one of",
		},
		{
			name:    "csv without path",
			yaml:    "columns:\n  - name: close\n    kind: float\nfeed:\n  csv: {}\n",
			wantErr: "path is required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tc.yaml), "pine.yaml")
			if err == nil {
				t.Fatalf("expected an error containing %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}
