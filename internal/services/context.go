package services

import (
	"context"

	"github.com/mohanraja088/simple-chat-app-demo/pkg/logger"
)

// WithUserContext records the authenticated user id on ctx. The same key is
// read by the logger, so request logs carry the user id.
func WithUserContext(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, logger.UserIdKey, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(logger.UserIdKey).(string)
	return userID, ok && userID != ""
}
