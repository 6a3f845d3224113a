// Command admin manages accounts, groups and posts from the command line.
// Groups have no web UI; this is the only way to create them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"inkwell/internal/bootstrap"
	"inkwell/internal/config"
)

const usageText = `Usage:
  admin create-user -username NAME -password PASS [-email E] [-first F] [-last L]
  admin delete-user USERNAME
  admin create-group -slug SLUG -title TITLE [-description D]
  admin import-groups [FILE.yml]   (built-in groups when FILE is omitted)
  admin list-groups
  admin delete-group SLUG
  admin delete-post ID
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipRedis: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	if err := newAdmin(db, os.Stdout).run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usageText)
			os.Exit(2)
		}
		os.Exit(1)
	}
}
