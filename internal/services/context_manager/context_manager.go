package context_manager

import (
	"context"
)

type userKey struct{}
type channelKey struct{}
type rolesKey struct{}

// SetUserContext stores the id of the member who issued the command
func SetUserContext(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// GetUserContext retrieves the member id from context
func GetUserContext(ctx context.Context) string {
	id, ok := ctx.Value(userKey{}).(string)
	if !ok {
		return ""
	}
	return id
}

// SetChannelContext stores the channel the command was issued in
func SetChannelContext(ctx context.Context, channelID string) context.Context {
	return context.WithValue(ctx, channelKey{}, channelID)
}

func GetChannelContext(ctx context.Context) string {
	id, ok := ctx.Value(channelKey{}).(string)
	if !ok {
		return ""
	}
	return id
}

// SetRolesContext stores the role ids held by the member
func SetRolesContext(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, rolesKey{}, roles)
}

func GetRolesContext(ctx context.Context) []string {
	roles, _ := ctx.Value(rolesKey{}).([]string)
	return roles
}
