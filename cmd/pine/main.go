// Command pine is the CLI driver for the Pine streaming language: `pine
// run` executes a script against a configured feed, `pine check` runs
// parse+analyse only and reports diagnostics for CI use.
package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/kaigouthro/pine-lang/internal/config"
	"github.com/kaigouthro/pine-lang/internal/diagnostics"
	"github.com/kaigouthro/pine-lang/internal/driver"
	"github.com/kaigouthro/pine-lang/internal/feed/csv"
	"github.com/kaigouthro/pine-lang/internal/feed/grpcfeed"
	"github.com/kaigouthro/pine-lang/internal/feed/sqlite"
	"github.com/kaigouthro/pine-lang/internal/library"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runCmd(os.Args[2:]))
	case "check":
		os.Exit(checkCmd(os.Args[2:]))
	case "-help", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  pine run <script.pine> [--feed=csv:<path>|--feed=sqlite:<path>:<table>|--feed=grpc:<addr>:<proto>] [--format=json]
  pine check <script.pine> [--format=json]`)
}

// commonFlags holds the subcommand's positional script path plus the
// --format/--feed options shared between run and check. Flags are parsed
// by hand to keep -h/--help under this command's own control rather than
// the standard flag package's.
type commonFlags struct {
	scriptPath string
	jsonFormat bool
	feedSpec   string
}

func parseFlags(args []string) (commonFlags, error) {
	var f commonFlags
	for _, arg := range args {
		switch {
		case arg == "--format=json":
			f.jsonFormat = true
		case strings.HasPrefix(arg, "--feed="):
			f.feedSpec = strings.TrimPrefix(arg, "--feed=")
		case arg == "--feed":
			return f, fmt.Errorf("--feed requires a value, e.g. --feed=csv:bars.csv")
		case strings.HasPrefix(arg, "-"):
			return f, fmt.Errorf("unknown flag %q", arg)
		case f.scriptPath == "":
			f.scriptPath = arg
		default:
			return f, fmt.Errorf("unexpected argument %q", arg)
		}
	}
	if f.scriptPath == "" {
		return f, fmt.Errorf("missing script path")
	}
	return f, nil
}

func checkCmd(args []string) int {
	f, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	source, err := os.ReadFile(f.scriptPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	libInfo := loadLibInfo(f.scriptPath)
	ctx := driver.Analyse(f.scriptPath, string(source), libInfo)
	printDiagnostics(os.Stdout, ctx.Errors, f.jsonFormat)
	if ctx.HasErrors() {
		return 1
	}
	return 0
}

func runCmd(args []string) int {
	f, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	source, err := os.ReadFile(f.scriptPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cfg := loadConfig(f.scriptPath)
	libInfo := libInfoFromConfig(cfg)

	prog, ctx := driver.NewProgram(f.scriptPath, string(source), libInfo)
	if prog == nil {
		printDiagnostics(os.Stdout, ctx.Errors, f.jsonFormat)
		return 1
	}

	feedSpec := f.feedSpec
	rows, closeFeed, err := openFeed(feedSpec, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeFeed()

	exitCode := 0
	for {
		row, err := rows()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			exitCode = 1
			break
		}
		if rerr := prog.Run(row); rerr != nil {
			printDiagnostics(os.Stdout, []*diagnostics.Error{rerr}, f.jsonFormat)
			exitCode = 1
		}
	}

	for _, ns := range prog.Slots() {
		fmt.Printf("%s = %s\n", ns.Name, prog.Value(ns.Slot).String())
	}
	return exitCode
}

// rowReader pulls one row at a time from whichever feed backend was
// opened, hiding their differing Next() error sentinels (io.EOF for csv,
// sql.ErrNoRows for sqlite, io.EOF for grpcfeed) behind a single io.EOF.
type rowReader func() (map[string]library.Value, error)

func openFeed(spec string, cfg *config.Config) (rowReader, func(), error) {
	if spec == "" {
		return openConfiguredFeed(cfg)
	}
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("--feed must be kind:details, got %q", spec)
	}
	switch parts[0] {
	case "csv":
		fd, err := csv.Open(parts[1], cfg.Columns)
		if err != nil {
			return nil, nil, err
		}
		return fd.Next, func() { fd.Close() }, nil
	case "sqlite":
		sub := strings.SplitN(parts[1], ":", 2)
		if len(sub) != 2 {
			return nil, nil, fmt.Errorf("--feed=sqlite:<path>:<table>, got %q", spec)
		}
		fd, err := sqlite.Open(&config.SqliteFeedSpec{Path: sub[0], Table: sub[1], TimeCol: "time"}, cfg.Columns)
		if err != nil {
			return nil, nil, err
		}
		return wrapSqlite(fd), func() { fd.Close() }, nil
	case "grpc":
		sub := strings.SplitN(parts[1], ":", 2)
		if len(sub) != 2 {
			return nil, nil, fmt.Errorf("--feed=grpc:<addr>:<proto>, got %q", spec)
		}
		if cfg.Feed.Grpc == nil {
			return nil, nil, fmt.Errorf("--feed=grpc needs feed.grpc.service and feed.grpc.method set in pine.yaml")
		}
		grpcSpec := &config.GrpcFeedSpec{Address: sub[0], ProtoFile: sub[1], Service: cfg.Feed.Grpc.Service, Method: cfg.Feed.Grpc.Method}
		fd, err := grpcfeed.Open(grpcSpec, cfg.Columns)
		if err != nil {
			return nil, nil, err
		}
		return fd.Next, func() { fd.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown feed kind %q", parts[0])
	}
}

func openConfiguredFeed(cfg *config.Config) (rowReader, func(), error) {
	switch {
	case cfg.Feed.Csv != nil:
		fd, err := csv.Open(cfg.Feed.Csv.Path, cfg.Columns)
		if err != nil {
			return nil, nil, err
		}
		return fd.Next, func() { fd.Close() }, nil
	case cfg.Feed.Sqlite != nil:
		fd, err := sqlite.Open(cfg.Feed.Sqlite, cfg.Columns)
		if err != nil {
			return nil, nil, err
		}
		return wrapSqlite(fd), func() { fd.Close() }, nil
	case cfg.Feed.Grpc != nil:
		fd, err := grpcfeed.Open(cfg.Feed.Grpc, cfg.Columns)
		if err != nil {
			return nil, nil, err
		}
		return fd.Next, func() { fd.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("no feed configured: pass --feed or set pine.yaml's feed section")
	}
}

func wrapSqlite(fd *sqlite.Feed) rowReader {
	return func() (map[string]library.Value, error) {
		row, err := fd.Next()
		if err == sql.ErrNoRows {
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		return row, nil
	}
}

func loadConfig(scriptPath string) *config.Config {
	path, err := config.FindConfig(dirOf(scriptPath))
	if err != nil || path == "" {
		return &config.Config{Retention: config.DefaultRetention}
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return &config.Config{Retention: config.DefaultRetention}
	}
	return cfg
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

func libInfoFromConfig(cfg *config.Config) library.LibInfo {
	columns := make([]library.ColumnSpec, len(cfg.Columns))
	for i, c := range cfg.Columns {
		columns[i] = library.ColumnSpec{Name: c.Name, Kind: c.ColumnKind()}
	}
	return library.LibInfo{
		Builtins:  driver.StandardLibrary(),
		Columns:   columns,
		Retention: cfg.Retention,
	}
}

func loadLibInfo(scriptPath string) library.LibInfo {
	return libInfoFromConfig(loadConfig(scriptPath))
}

func printDiagnostics(w io.Writer, errs []*diagnostics.Error, jsonFormat bool) {
	if jsonFormat {
		enc := json.NewEncoder(w)
		for _, e := range errs {
			_ = enc.Encode(diagnosticJSON{
				Severity: e.Severity.String(),
				Code:     e.Code,
				Message:  e.Message,
				File:     e.File,
				Line:     e.Range.Start.Line,
				Column:   e.Range.Start.Column,
				Row:      e.Row,
			})
		}
		return
	}

	color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	for _, e := range errs {
		if color {
			fmt.Fprintf(w, "\033[31m%s\033[0m\n", e.Error())
		} else {
			fmt.Fprintln(w, e.Error())
		}
	}
}

type diagnosticJSON struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Row      *int   `json:"row,omitempty"`
}
