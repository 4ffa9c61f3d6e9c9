package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/tendant/simple-blog/pkg/simpleblog"
	"github.com/tendant/simple-blog/pkg/simpleblog/admin"
	"github.com/tendant/simple-blog/pkg/simpleblog/config"
	repopg "github.com/tendant/simple-blog/pkg/simpleblog/repo/postgres"
)

const usage = `Simple Blog Admin CLI

A lightweight admin tool for blog operations that only requires database access.

USAGE:
  admin <command> [options]

COMMANDS:
  migrate   Create the database schema (postgres) or indexes (mongo)
  schema    Print the PostgreSQL schema
  list      List posts with optional filtering
  count     Count posts with optional filtering
  stats     Get aggregated statistics
  seed      Create a user with sample posts

ENVIRONMENT VARIABLES:
  DATABASE_TYPE     Database type: memory, postgres or mongo (default: memory)
  DATABASE_URL      Connection string (required for postgres and mongo)
  MONGO_DATABASE    MongoDB database name (default: simpleblog)

  Configuration can be loaded from a .env file in the current directory.
  Command line environment variables override .env file values.

EXAMPLES:
  # List all posts
  admin list

  # List one author's posts tagged go
  admin list --author=<user-id> --tag=go

  # List with pagination
  admin list --limit=10 --offset=0

  # Statistics with the ten most viewed posts
  admin stats --top=10

  # Seed a demo user
  admin seed --name=demo --password=demo --posts=12

  # Output as JSON
  admin list --json

OPTIONS (for list/count/stats):
  --author=<id>      Filter by author ID
  --tag=<tag>        Filter by tag
  --limit=<n>        Maximum results (list only, default: 100)
  --offset=<n>       Pagination offset (list only, default: 0)
  --top=<n>          Most viewed posts to show (stats only, default: 5)
  --json             Output as JSON
`

type options struct {
	filters  admin.Filters
	top      int
	useJSON  bool
	name     string
	password string
	posts    int
}

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	// Check for help
	if command == "help" || command == "--help" || command == "-h" {
		fmt.Println(usage)
		os.Exit(0)
	}

	if command == "schema" {
		fmt.Println(repopg.Schema)
		return
	}

	cfg, err := config.Load(config.WithEnv(), config.WithEventLogging(false))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	stores, err := cfg.BuildStores(ctx)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer stores.Close()

	opts := parseOptions(os.Args[2:])
	adminSvc := admin.New(stores.Repository)

	switch command {
	case "migrate":
		// BuildStores applies the schema when AUTO_MIGRATE is on (the default)
		fmt.Printf("Database %s is ready\n", cfg.DatabaseType)
	case "list":
		handleList(ctx, adminSvc, opts)
	case "count":
		handleCount(ctx, adminSvc, opts)
	case "stats":
		handleStats(ctx, adminSvc, opts)
	case "seed":
		handleSeed(ctx, cfg, stores, opts)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func parseOptions(args []string) options {
	opts := options{
		filters: admin.Filters{Limit: 100},
		top:     5,
		name:    "demo",
		posts:   10,
	}

	for _, arg := range args {
		if arg == "--json" {
			opts.useJSON = true
			continue
		}

		// Parse key=value flags
		key, value := parseFlag(arg)

		switch key {
		case "author":
			opts.filters.AuthorID = value
		case "tag":
			opts.filters.Tag = value
		case "limit":
			if n, err := strconv.Atoi(value); err == nil {
				opts.filters.Limit = n
			}
		case "offset":
			if n, err := strconv.Atoi(value); err == nil {
				opts.filters.Offset = n
			}
		case "top":
			if n, err := strconv.Atoi(value); err == nil {
				opts.top = n
			}
		case "name":
			opts.name = value
		case "password":
			opts.password = value
		case "posts":
			if n, err := strconv.Atoi(value); err == nil {
				opts.posts = n
			}
		}
	}

	return opts
}

func parseFlag(arg string) (string, string) {
	if len(arg) > 2 && arg[:2] == "--" {
		arg = arg[2:]
		for i, c := range arg {
			if c == '=' {
				return arg[:i], arg[i+1:]
			}
		}
		return arg, "true"
	}
	return "", ""
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func handleList(ctx context.Context, adminSvc *admin.Service, opts options) {
	resp, err := adminSvc.ListPosts(ctx, opts.filters)
	if err != nil {
		log.Fatalf("Failed to list posts: %v", err)
	}

	if opts.useJSON {
		printJSON(resp)
		return
	}

	// Table output
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tTITLE\tTAG\tAUTHOR\tVIEWS\tCREATED\n")

	for _, post := range resp.Posts {
		author := post.Author.Name
		if author == "" {
			author = truncate(post.Author.ID, 12)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			truncate(post.ID, 12),
			truncate(post.Title, 30),
			truncate(post.Tag, 15),
			author,
			post.Views,
			post.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Printf("\nShowing %d of %d", len(resp.Posts), resp.Total)
	if resp.HasMore {
		fmt.Printf(" (has more, use --offset=%d to continue)", resp.Offset+len(resp.Posts))
	}
	fmt.Println()
}

func handleCount(ctx context.Context, adminSvc *admin.Service, opts options) {
	count, err := adminSvc.CountPosts(ctx, opts.filters)
	if err != nil {
		log.Fatalf("Failed to count posts: %v", err)
	}

	if opts.useJSON {
		printJSON(map[string]int{"count": count})
		return
	}

	fmt.Printf("Total count: %d\n", count)
}

func handleStats(ctx context.Context, adminSvc *admin.Service, opts options) {
	stats, err := adminSvc.GetStatistics(ctx, opts.filters, opts.top)
	if err != nil {
		log.Fatalf("Failed to get statistics: %v", err)
	}

	if opts.useJSON {
		printJSON(stats)
		return
	}

	fmt.Println("=== Blog Statistics ===")
	fmt.Printf("\nPosts:    %d\n", stats.TotalPosts)
	fmt.Printf("Views:    %d\n", stats.TotalViews)
	fmt.Printf("Comments: %d\n", stats.TotalComments)

	printCounts("By Tag", stats.ByTag)
	printCounts("By Author", stats.ByAuthor)

	if len(stats.MostViewed) > 0 {
		fmt.Println("\nMost Viewed:")
		for _, post := range stats.MostViewed {
			fmt.Printf("  %-30s %d\n", truncate(post.Title, 30), post.Views)
		}
	}

	if stats.OldestPost != nil && stats.NewestPost != nil {
		fmt.Println("\nTime Range:")
		fmt.Printf("  Oldest: %s\n", stats.OldestPost.Format(time.RFC3339))
		fmt.Printf("  Newest: %s\n", stats.NewestPost.Format(time.RFC3339))
	}

	fmt.Printf("\nComputed at: %s\n", stats.ComputedAt.Format(time.RFC3339))
}

func printCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("\n%s:\n", title)
	for _, k := range keys {
		fmt.Printf("  %-20s: %d\n", truncate(k, 20), counts[k])
	}
}

func handleSeed(ctx context.Context, cfg *config.ServerConfig, stores *config.Stores, opts options) {
	password := opts.password
	if password == "" {
		password = opts.name
	}

	user, err := cfg.BuildAccounts(stores, nil).SignUp(ctx, opts.name, password)
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	svc, err := cfg.BuildService(stores, nil)
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	tags := []string{"go", "databases", "notes"}
	for i := 0; i < opts.posts; i++ {
		_, err := svc.CreatePost(ctx, simpleblog.CreatePostRequest{
			AuthorID: user.ID,
			Title:    fmt.Sprintf("Sample post %d", i+1),
			Tag:      tags[i%len(tags)],
			Content:  fmt.Sprintf("Body of sample post %d.", i+1),
		})
		if err != nil {
			log.Fatalf("Failed to create post: %v", err)
		}
	}

	fmt.Printf("Created user %s (%s) with %d posts\n", user.Name, user.ID, opts.posts)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
