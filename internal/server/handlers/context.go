package handlers

import "context"

// contextKey тип для ключей контекста
type contextKey string

const (
	// UserIDKey ключ для хранения user_id (uid) в контексте
	UserIDKey contextKey = "user_id"
	// ClientIDKey ключ для хранения client (устройства) в контексте
	ClientIDKey contextKey = "client_id"
)

// WithIdentity кладет в контекст пользователя и устройство, прошедшие проверку токена
func WithIdentity(ctx context.Context, userID, clientID string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, ClientIDKey, clientID)
}

// GetUserID извлекает user_id из контекста запроса
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// GetClientID извлекает client из контекста запроса
func GetClientID(ctx context.Context) (string, bool) {
	clientID, ok := ctx.Value(ClientIDKey).(string)
	return clientID, ok && clientID != ""
}
