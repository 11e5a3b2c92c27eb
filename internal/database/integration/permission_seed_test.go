package integration_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/lekien2k2/viot/internal/auth"
	"github.com/lekien2k2/viot/internal/database/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestPermissionSeedRoundTrip(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if !tableExists(db, "permissions") || !tableExists(db, "roles") {
		t.Skip("permission tables missing; run migrations")
	}

	ctx := context.Background()
	teamA := "team-seed-a"
	teamB := "team-seed-b"

	cleanup := func() {
		for _, permission := range auth.TeamRolePermissions() {
			_, _ = db.ExecContext(ctx, `
DELETE FROM role_permission
WHERE permission_id IN (SELECT id FROM permissions WHERE scope = $1)`, permission.Scope)
			_, _ = db.ExecContext(ctx, `DELETE FROM permissions WHERE scope = $1`, permission.Scope)
		}
		_, _ = db.ExecContext(ctx, `DELETE FROM roles WHERE team_id IN ($1, $2)`, teamA, teamB)
		_, _ = db.ExecContext(ctx, `DELETE FROM teams WHERE id IN ($1, $2)`, teamA, teamB)
	}
	cleanup()
	defer cleanup()

	insertTeamWithOwner(t, ctx, db, teamA)
	insertTeamWithOwner(t, ctx, db, teamB)
	if _, err := db.ExecContext(ctx, `
INSERT INTO roles (team_id, name) VALUES ($1, $2)`, teamA, "Analyst"); err != nil {
		t.Fatalf("insert analyst role: %v", err)
	}

	result, err := seed.Apply(ctx, db)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.PermissionsCreated != 3 {
		t.Fatalf("expected 3 permissions created, got %d", result.PermissionsCreated)
	}
	if result.OwnerRoles != 2 {
		t.Fatalf("expected 2 owner roles, got %d", result.OwnerRoles)
	}
	if result.LinksCreated != 6 {
		t.Fatalf("expected 6 links created, got %d", result.LinksCreated)
	}

	again, err := seed.Apply(ctx, db)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if again.PermissionsCreated != 0 || again.PermissionsKept != 3 {
		t.Fatalf("expected second apply to keep rows, got %+v", again)
	}
	if again.LinksCreated != 0 {
		t.Fatalf("expected no new links on second apply, got %d", again.LinksCreated)
	}

	var analystLinks int
	if err := db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM role_permission
WHERE role_id IN (SELECT id FROM roles WHERE name = 'Analyst')`).Scan(&analystLinks); err != nil {
		t.Fatalf("count analyst links: %v", err)
	}
	if analystLinks != 0 {
		t.Fatalf("expected analyst role untouched, got %d links", analystLinks)
	}

	down, err := seed.Rollback(ctx, db)
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if down.LinksDeleted != 6 {
		t.Fatalf("expected 6 links deleted, got %d", down.LinksDeleted)
	}
	if down.PermissionsDeleted != 3 {
		t.Fatalf("expected 3 permissions deleted, got %d", down.PermissionsDeleted)
	}

	var remaining int
	if err := db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM permissions
WHERE scope IN ($1, $2, $3)`, auth.ScopeTeamRoleRead, auth.ScopeTeamRoleManage, auth.ScopeTeamRoleDelete).Scan(&remaining); err != nil {
		t.Fatalf("count permissions: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected no seeded permissions after rollback, got %d", remaining)
	}

	empty, err := seed.Rollback(ctx, db)
	if err != nil {
		t.Fatalf("second rollback: %v", err)
	}
	if empty.LinksDeleted != 0 || empty.PermissionsDeleted != 0 {
		t.Fatalf("expected second rollback to be a no-op, got %+v", empty)
	}
}

func insertTeamWithOwner(t *testing.T, ctx context.Context, db *sql.DB, teamID string) {
	t.Helper()
	if _, err := db.ExecContext(ctx, `
INSERT INTO teams (id, name) VALUES ($1, $2)`, teamID, "Seed Team "+teamID); err != nil {
		t.Fatalf("insert team: %v", err)
	}
	if _, err := db.ExecContext(ctx, `
INSERT INTO roles (team_id, name) VALUES ($1, $2)`, teamID, auth.TeamRoleOwner); err != nil {
		t.Fatalf("insert owner role: %v", err)
	}
}

func tableExists(db *sql.DB, table string) bool {
	var exists bool
	err := db.QueryRow(`
SELECT EXISTS (
	SELECT 1
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = $1
)`, table).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}
