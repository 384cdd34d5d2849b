// Command pine-ls is Pine's language server: a stdio JSON-RPC loop
// implementing parse/diagnostics/completion/hover, Content-Length framed.
// stdout is reserved for JSON-RPC frames, so every log line goes to
// stderr with no leading metadata.
package main

import (
	"log"
	"os"

	"github.com/kaigouthro/pine-lang/internal/config"
	"github.com/kaigouthro/pine-lang/internal/driver"
	"github.com/kaigouthro/pine-lang/internal/library"
)

func main() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)

	libInfo := loadLibInfo()
	server := NewServer(os.Stdout, libInfo)
	server.Start()
}

// loadLibInfo looks for pine.yaml from the server's working directory so
// hover/completion see the same declared input columns a `pine run` of the
// open workspace would. A workspace with no pine.yaml still gets a fully
// working built-in registry — only the declared input columns are absent.
func loadLibInfo() library.LibInfo {
	reg := driver.StandardLibrary()
	path, err := config.FindConfig(".")
	if err != nil || path == "" {
		return library.LibInfo{Builtins: reg, Retention: config.DefaultRetention}
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Printf("pine.yaml: %v", err)
		return library.LibInfo{Builtins: reg, Retention: config.DefaultRetention}
	}
	columns := make([]library.ColumnSpec, len(cfg.Columns))
	for i, c := range cfg.Columns {
		columns[i] = library.ColumnSpec{Name: c.Name, Kind: c.ColumnKind()}
	}
	return library.LibInfo{Builtins: reg, Columns: columns, Retention: cfg.Retention}
}
