package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lekien2k2/viot/internal/auth"
)

// TransactionError reports a failed seed step. The surrounding
// transaction is rolled back as a whole, nothing is retried.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("permission seed: %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// Result summarizes what a seed run changed.
type Result struct {
	PermissionsCreated int
	PermissionsKept    int
	PermissionsDeleted int
	OwnerRoles         int
	LinksCreated       int
	LinksDeleted       int
}

// Apply installs the team-role permission catalog and links every
// permission to every owner role. Existing rows are kept, so repeated
// runs are safe.
func Apply(ctx context.Context, db *sql.DB) (Result, error) {
	if db == nil {
		return Result{}, errors.New("permission seed: nil db")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, &TransactionError{Op: "begin", Err: err}
	}

	result, err := applyTx(ctx, tx)
	if err != nil {
		_ = tx.Rollback()
		return Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{}, &TransactionError{Op: "commit", Err: err}
	}
	return result, nil
}

func applyTx(ctx context.Context, tx *sql.Tx) (Result, error) {
	var result Result

	permissionIDs := make([]int64, 0, 3)
	for _, permission := range auth.TeamRolePermissions() {
		var id int64
		err := tx.QueryRowContext(ctx, `
SELECT id FROM permissions WHERE scope = $1`, permission.Scope).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if err := tx.QueryRowContext(ctx, `
INSERT INTO permissions (scope, title, description)
VALUES ($1, $2, $3)
RETURNING id`, permission.Scope, permission.Title, permission.Description).Scan(&id); err != nil {
				return Result{}, &TransactionError{Op: "insert permission " + permission.Scope, Err: err}
			}
			result.PermissionsCreated++
		case err != nil:
			return Result{}, &TransactionError{Op: "select permission " + permission.Scope, Err: err}
		default:
			result.PermissionsKept++
		}
		permissionIDs = append(permissionIDs, id)
	}

	roleIDs, err := ownerRoleIDs(ctx, tx)
	if err != nil {
		return Result{}, err
	}
	result.OwnerRoles = len(roleIDs)

	for _, roleID := range roleIDs {
		for _, permissionID := range permissionIDs {
			var exists bool
			if err := tx.QueryRowContext(ctx, `
SELECT EXISTS (
	SELECT 1 FROM role_permission WHERE role_id = $1 AND permission_id = $2
)`, roleID, permissionID).Scan(&exists); err != nil {
				return Result{}, &TransactionError{Op: "check link", Err: err}
			}
			if exists {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO role_permission (role_id, permission_id)
VALUES ($1, $2)`, roleID, permissionID); err != nil {
				return Result{}, &TransactionError{Op: "insert link", Err: err}
			}
			result.LinksCreated++
		}
	}

	return result, nil
}

// Rollback removes the catalog installed by Apply: owner-role links
// first, then the permissions themselves.
func Rollback(ctx context.Context, db *sql.DB) (Result, error) {
	if db == nil {
		return Result{}, errors.New("permission seed: nil db")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, &TransactionError{Op: "begin", Err: err}
	}

	result, err := rollbackTx(ctx, tx)
	if err != nil {
		_ = tx.Rollback()
		return Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{}, &TransactionError{Op: "commit", Err: err}
	}
	return result, nil
}

func rollbackTx(ctx context.Context, tx *sql.Tx) (Result, error) {
	var result Result

	for _, permission := range auth.TeamRolePermissions() {
		res, err := tx.ExecContext(ctx, `
DELETE FROM role_permission
WHERE permission_id IN (SELECT id FROM permissions WHERE scope = $1)
	AND role_id IN (SELECT id FROM roles WHERE name = $2)`, permission.Scope, auth.TeamRoleOwner)
		if err != nil {
			return Result{}, &TransactionError{Op: "delete links " + permission.Scope, Err: err}
		}
		if n, err := res.RowsAffected(); err == nil {
			result.LinksDeleted += int(n)
		}

		res, err = tx.ExecContext(ctx, `
DELETE FROM permissions WHERE scope = $1`, permission.Scope)
		if err != nil {
			return Result{}, &TransactionError{Op: "delete permission " + permission.Scope, Err: err}
		}
		if n, err := res.RowsAffected(); err == nil {
			result.PermissionsDeleted += int(n)
		}
	}

	return result, nil
}

func ownerRoleIDs(ctx context.Context, tx *sql.Tx) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, `
SELECT id FROM roles WHERE name = $1 ORDER BY id ASC`, auth.TeamRoleOwner)
	if err != nil {
		return nil, &TransactionError{Op: "select owner roles", Err: err}
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, &TransactionError{Op: "scan owner role", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &TransactionError{Op: "select owner roles", Err: err}
	}
	return ids, nil
}
