package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/codewithboateng/dockscout/internal/api"
	"github.com/codewithboateng/dockscout/internal/classify"
	"github.com/codewithboateng/dockscout/internal/gitsource"
	"github.com/codewithboateng/dockscout/internal/heuristics"
	"github.com/codewithboateng/dockscout/internal/ir"
	"github.com/codewithboateng/dockscout/internal/localsource"
	"github.com/codewithboateng/dockscout/internal/reporting"
	"github.com/codewithboateng/dockscout/internal/security"
	"github.com/codewithboateng/dockscout/internal/shared"
	"github.com/codewithboateng/dockscout/internal/storage"
)

func main() {
	_ = godotenv.Load() // .env is optional

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "discover":
		discoverCmd(os.Args[2:])
	case "triage":
		triageCmd(os.Args[2:])
	case "report":
		reportCmd(os.Args[2:])
	case "diff":
		diffCmd(os.Args[2:])
	case "serve":
		serveCmd(os.Args[2:])
	case "user":
		userCmd(os.Args[2:])
	case "version":
		fmt.Println("dockscout IR:", ir.Version, "catalog:", heuristics.CatalogVersion)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `dockscout – Dockerfile/Compose buildability triage

Usage:
  dockscout discover --query "language:go topic:docker" [--pages 2] [--per-page 30]
  dockscout triage --path <repos-dir> --out <reports-dir> [--db ./dockscout.db] [--config ./configs/dockscout.yaml]
  dockscout triage --github owner/repo,owner/repo --out <reports-dir> [--db ./dockscout.db]
  dockscout report --run <run-id> --out <reports-dir> [--db ./dockscout.db] [--suppressed]
  dockscout diff   --base <run-id> --head <run-id> --out <reports-dir> [--db ./dockscout.db]
  dockscout serve  [--addr :8080] [--db ./dockscout.db] [--config ./configs/dockscout.yaml]
  dockscout user   --name <username> --password <pw> [--role admin] [--db ./dockscout.db]
  dockscout version
`)
}

// discoverCmd searches GitHub for triage candidates and prints one
// owner/name per line, ready to feed into triage --github.
func discoverCmd(args []string) {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	query := fs.String("query", "", "GitHub repository search query")
	pages := fs.Int("pages", 1, "Search pages to fetch")
	perPage := fs.Int("per-page", 30, "Results per page")
	_ = fs.Parse(args)

	cfg, _ := shared.LoadConfig(*configPath)
	shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)

	if *query == "" {
		fmt.Fprintln(os.Stderr, "discover: --query is required")
		os.Exit(2)
	}

	client, err := gitsource.NewClient(cfg.Triage.GitHubAPI, cfg.Triage.GitHubToken, cfg.Triage.CacheSize)
	if err != nil {
		slog.Error("github client error", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	kept, seen := 0, 0
	for page := 1; page <= *pages; page++ {
		items, err := client.SearchRepos(ctx, *query, page, *perPage)
		if err != nil {
			slog.Error("search error", "page", page, "err", err)
			os.Exit(1)
		}
		if len(items) == 0 {
			break
		}
		for _, m := range items {
			seen++
			if !gitsource.GoodCandidate(m) {
				continue
			}
			kept++
			fmt.Println(m.FullName)
		}
	}
	slog.Info("discover complete", "seen", seen, "kept", kept)
}

func triageCmd(args []string) {
	fs := flag.NewFlagSet("triage", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	inPath := fs.String("path", "", "Directory of checked-out repositories")
	githubList := fs.String("github", "", "Comma-separated owner/repo list to fetch via the GitHub API")
	outDir := fs.String("out", "", "Output directory for reports")
	dbPath := fs.String("db", "", "SQLite database path")
	catalogFile := fs.String("catalog", "", "Heuristics catalog override file")
	_ = fs.Parse(args)

	cfg, _ := shared.LoadConfig(*configPath)
	shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)

	// precedence: flags > config > defaults
	if *inPath == "" && *githubList == "" && len(cfg.Triage.Sources) > 0 {
		*inPath = cfg.Triage.Sources[0]
	}
	if *outDir == "" {
		*outDir = cfg.Reporting.OutDir
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *catalogFile == "" {
		*catalogFile = cfg.Triage.CatalogFile
	}
	if *inPath == "" && *githubList == "" {
		fmt.Fprintln(os.Stderr, "triage: --path or --github (or triage.sources in config) is required")
		os.Exit(2)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "triage: cannot create out dir:", err)
		os.Exit(1)
	}

	cat, catVersion, err := heuristics.Load(*catalogFile)
	if err != nil {
		slog.Error("catalog load error", "err", err)
		os.Exit(1)
	}

	var loader gitsource.Loader
	if *githubList != "" {
		client, err := gitsource.NewClient(cfg.Triage.GitHubAPI, cfg.Triage.GitHubToken, cfg.Triage.CacheSize)
		if err != nil {
			slog.Error("github client error", "err", err)
			os.Exit(1)
		}
		loader = &gitsource.RepoLoader{
			Client:  client,
			Catalog: cat,
			Repos:   strings.Split(*githubList, ","),
		}
	} else {
		loader = &localsource.Loader{Root: *inPath, Catalog: cat}
	}

	inputs, err := loader.LoadAll(context.Background())
	if err != nil {
		slog.Error("load error", "err", err)
		os.Exit(1)
	}

	classifier := classify.New(cat)
	run := ir.Run{
		ID:             fmt.Sprintf("run-%d", time.Now().Unix()),
		StartedAt:      time.Now().UTC(),
		Source:         firstNonEmpty(*githubList, *inPath),
		IRVersion:      ir.Version,
		CatalogVersion: catVersion,
	}
	for _, in := range inputs {
		run.Verdicts = append(run.Verdicts, classifier.Evaluate(in))
	}

	db, err := storage.OpenSQLite(*dbPath)
	if err != nil {
		slog.Error("db open error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.CreateSchema(); err != nil {
		slog.Error("db schema error", "err", err)
		os.Exit(1)
	}
	if err := db.SaveRun(&run); err != nil {
		slog.Error("db save run error", "err", err)
		os.Exit(1)
	}

	jsonPath, err := reporting.WriteJSON(run.ID, *outDir, &run)
	if err != nil {
		slog.Error("write json report error", "err", err)
		os.Exit(1)
	}
	mdPath, err := reporting.WriteMarkdown(run.ID, *outDir, &run)
	if err != nil {
		slog.Error("write markdown report error", "err", err)
		os.Exit(1)
	}
	slog.Info("triage complete",
		"run", run.ID,
		"repos", len(run.Verdicts),
		"json", jsonPath,
		"markdown", mdPath,
		"db", filepath.Clean(*dbPath),
	)
	fmt.Printf("Triage OK\n  Run: %s\n  Repos: %d\n  JSON: %s\n  Markdown: %s\n  DB: %s\n",
		run.ID, len(run.Verdicts), jsonPath, mdPath, filepath.Clean(*dbPath))
}

func reportCmd(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	runID := fs.String("run", "", "Run ID")
	outDir := fs.String("out", "", "Output directory")
	dbPath := fs.String("db", "", "SQLite database path")
	suppressed := fs.Bool("suppressed", false, "Apply active suppressions before rendering")
	_ = fs.Parse(args)

	cfg, _ := shared.LoadConfig(*configPath)
	shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)

	if *outDir == "" {
		*outDir = cfg.Reporting.OutDir
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *runID == "" {
		fmt.Fprintln(os.Stderr, "report: --run is required")
		os.Exit(2)
	}

	db, err := storage.OpenSQLite(*dbPath)
	if err != nil {
		slog.Error("db open error", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	run, err := db.LoadRun(*runID)
	if err != nil {
		slog.Error("load run error", "err", err)
		os.Exit(1)
	}
	if *suppressed {
		sups, err := db.ListSuppressions(true)
		if err != nil {
			slog.Error("list suppressions error", "err", err)
			os.Exit(1)
		}
		var hidden int
		run, hidden = reporting.ApplySuppressions(run, sups)
		slog.Info("suppressions applied", "hidden", hidden)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		slog.Error("cannot create out dir", "err", err)
		os.Exit(1)
	}
	jsonPath, err := reporting.WriteJSON(run.ID, *outDir, &run)
	if err != nil {
		slog.Error("write json report error", "err", err)
		os.Exit(1)
	}
	mdPath, err := reporting.WriteMarkdown(run.ID, *outDir, &run)
	if err != nil {
		slog.Error("write markdown report error", "err", err)
		os.Exit(1)
	}
	fmt.Printf("Report OK\n  Run: %s\n  JSON: %s\n  Markdown: %s\n", run.ID, jsonPath, mdPath)
}

func diffCmd(args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	base := fs.String("base", "", "Base run ID")
	head := fs.String("head", "", "Head run ID")
	outDir := fs.String("out", "", "Output directory")
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	cfg, _ := shared.LoadConfig(*configPath)
	shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)

	if *outDir == "" {
		*outDir = cfg.Reporting.OutDir
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *base == "" || *head == "" {
		fmt.Fprintln(os.Stderr, "diff: --base and --head are required")
		os.Exit(2)
	}
	db, err := storage.OpenSQLite(*dbPath)
	if err != nil {
		slog.Error("db open error", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	br, err := db.LoadRun(*base)
	if err != nil {
		slog.Error("load base run error", "err", err)
		os.Exit(1)
	}
	hr, err := db.LoadRun(*head)
	if err != nil {
		slog.Error("load head run error", "err", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		slog.Error("cannot create out dir", "err", err)
		os.Exit(1)
	}
	path, err := reporting.WriteDiffJSON(*base, *head, *outDir, &br, &hr)
	if err != nil {
		slog.Error("write diff report error", "err", err)
		os.Exit(1)
	}
	fmt.Printf("Diff OK\n  %s\n", path)
}

func serveCmd(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	addr := fs.String("addr", "", "Listen address")
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	cfg, _ := shared.LoadConfig(*configPath)
	logger := shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)

	if *addr == "" {
		*addr = cfg.API.Addr
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}

	db, err := storage.OpenSQLite(*dbPath)
	if err != nil {
		slog.Error("db open error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.CreateSchema(); err != nil {
		slog.Error("db schema error", "err", err)
		os.Exit(1)
	}

	srv := &api.Server{
		DB:              db,
		UserStore:       db,
		Logger:          logger,
		AllowedOrigins:  cfg.API.AllowedOrigins,
		SessionDuration: time.Duration(cfg.API.SessionHours) * time.Hour,
	}
	slog.Info("api listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, srv.Routes()); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}

func userCmd(args []string) {
	fs := flag.NewFlagSet("user", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	name := fs.String("name", "", "Username")
	password := fs.String("password", "", "Password")
	role := fs.String("role", "viewer", "Role: viewer or admin")
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	cfg, _ := shared.LoadConfig(*configPath)
	shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)

	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *name == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "user: --name and --password are required")
		os.Exit(2)
	}
	if *role != "viewer" && *role != "admin" {
		fmt.Fprintln(os.Stderr, "user: --role must be viewer or admin")
		os.Exit(2)
	}

	db, err := storage.OpenSQLite(*dbPath)
	if err != nil {
		slog.Error("db open error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.CreateSchema(); err != nil {
		slog.Error("db schema error", "err", err)
		os.Exit(1)
	}

	hash, err := security.HashPassword(*password)
	if err != nil {
		slog.Error("hash error", "err", err)
		os.Exit(1)
	}
	id, err := db.CreateUser(*name, hash, *role)
	if err != nil {
		slog.Error("create user error", "err", err)
		os.Exit(1)
	}
	fmt.Printf("User OK\n  ID: %d\n  Name: %s\n  Role: %s\n", id, *name, *role)
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
