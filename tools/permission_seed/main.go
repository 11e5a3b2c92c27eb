package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lekien2k2/viot/internal/audit"
	"github.com/lekien2k2/viot/internal/database/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type config struct {
	dbURL   string
	down    bool
	timeout time.Duration
	actor   string
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	db, err := sql.Open("pgx", cfg.dbURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "db open:", err)
		os.Exit(2)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	if cfg.down {
		result, err := seed.Rollback(ctx, db)
		if err != nil {
			fmt.Fprintln(os.Stderr, "rollback:", err)
			os.Exit(1)
		}
		logAudit(ctx, db, cfg.actor, "permissions.seed.rollback", result)
		fmt.Printf("rollback completed: links_deleted=%d permissions_deleted=%d\n",
			result.LinksDeleted, result.PermissionsDeleted)
		return
	}

	result, err := seed.Apply(ctx, db)
	if err != nil {
		fmt.Fprintln(os.Stderr, "apply:", err)
		os.Exit(1)
	}
	logAudit(ctx, db, cfg.actor, "permissions.seed.apply", result)
	fmt.Printf("seed completed: owner_roles=%d permissions_created=%d permissions_kept=%d links_created=%d\n",
		result.OwnerRoles, result.PermissionsCreated, result.PermissionsKept, result.LinksCreated)
}

func parseFlags() (config, error) {
	var cfg config
	flag.StringVar(&cfg.dbURL, "db", getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")), "Postgres DSN")
	flag.BoolVar(&cfg.down, "down", false, "roll the permission seed back instead of applying it")
	flag.DurationVar(&cfg.timeout, "timeout", 30*time.Second, "overall timeout")
	flag.StringVar(&cfg.actor, "actor", getenvDefault("SEED_ACTOR", "permission_seed"), "actor recorded in the audit log")
	flag.Parse()

	if cfg.dbURL == "" {
		return cfg, errors.New("missing --db or DATABASE_URL/PG_DSN")
	}
	return cfg, nil
}

func logAudit(ctx context.Context, db *sql.DB, actor, action string, result seed.Result) {
	meta, _ := json.Marshal(map[string]any{
		"owner_roles":         result.OwnerRoles,
		"permissions_created": result.PermissionsCreated,
		"permissions_kept":    result.PermissionsKept,
		"permissions_deleted": result.PermissionsDeleted,
		"links_created":       result.LinksCreated,
		"links_deleted":       result.LinksDeleted,
	})
	err := audit.NewRepository(db).Log(ctx, audit.Entry{
		TeamID:       "system",
		Actor:        actor,
		Action:       action,
		ResourceType: "permissions",
		Metadata:     meta,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "audit log:", err)
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
