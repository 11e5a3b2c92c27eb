package auth

import "context"

type contextKey string

const (
	contextKeyTeam    contextKey = "auth.team_id"
	contextKeyRole    contextKey = "auth.role"
	contextKeyScopes  contextKey = "auth.scopes"
	contextKeySubject contextKey = "auth.subject"
)

// WithIdentity stores auth identity details in context.
func WithIdentity(ctx context.Context, teamID, role string, scopes []string, subject string) context.Context {
	ctx = context.WithValue(ctx, contextKeyTeam, teamID)
	ctx = context.WithValue(ctx, contextKeyRole, role)
	ctx = context.WithValue(ctx, contextKeyScopes, scopes)
	ctx = context.WithValue(ctx, contextKeySubject, subject)
	return ctx
}

// TeamIDFromContext extracts team id from context.
func TeamIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyTeam)
	if teamID, ok := value.(string); ok {
		return teamID
	}
	return ""
}

// RoleFromContext extracts the team role name from context.
func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyRole)
	if role, ok := value.(string); ok {
		return role
	}
	return ""
}

// ScopesFromContext extracts granted scopes from context.
func ScopesFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	value := ctx.Value(contextKeyScopes)
	if scopes, ok := value.([]string); ok {
		return scopes
	}
	return nil
}

// SubjectFromContext extracts subject from context.
func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeySubject)
	if subject, ok := value.(string); ok {
		return subject
	}
	return ""
}
