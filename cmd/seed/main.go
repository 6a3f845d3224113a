// Command seed fills a development database with fake blog content.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"inkwell/internal/bootstrap"
	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/seed"
)

func main() {
	users := flag.Int("users", 20, "Number of users to create")
	posts := flag.Int("posts", 10, "Posts per user")
	comments := flag.Int("comments", 2, "Comments per post")
	follows := flag.Int("follows", 5, "Follow attempts per user")
	days := flag.Int("days", 90, "Spread pub dates over this many days")
	password := flag.String("password", seed.DefaultPassword, "Password for every generated user")
	randSeed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	clean := flag.Bool("clean", false, "Delete existing users, posts and groups first")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	summary, err := seed.Run(ctx, db, seed.Options{
		Users:           *users,
		PostsPerUser:    *posts,
		CommentsPerPost: *comments,
		FollowsPerUser:  *follows,
		MaxDays:         *days,
		Password:        *password,
		Seed:            *randSeed,
		Clean:           *clean,
		Logger:          middleware.Logger,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %s", summary)
	log.Printf("All generated users have the password: %s", *password)
}
