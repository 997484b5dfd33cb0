package utils

import (
	"context"

	"github.com/google/uuid"
	"github.com/venturatrading/commerce_backend/appctx"
)

var (
	ContextKeyToken         = appctx.ContextKeyToken
	ContextKeyUserId        = appctx.ContextKeyUserId
	ContextKeyUserName      = appctx.ContextKeyUserName
	ContextKeyCustomerId    = appctx.ContextKeyCustomerId
	ContextKeyRole          = appctx.ContextKeyRole
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
)

func GetCustomerIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, appctx.ContextKeyCustomerId)
}

func SetCustomerIdInContext(ctx context.Context, customerId int) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyCustomerId, customerId)
}

func GetUserIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, appctx.ContextKeyUserId)
}

func SetUserIdInContext(ctx context.Context, userId int) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyUserId, userId)
}

func GetUserNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, appctx.ContextKeyUserName)
}

func SetUserNameInContext(ctx context.Context, name string) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyUserName, name)
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, appctx.ContextKeyRole)
}

func SetRoleInContext(ctx context.Context, role string) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyRole, role)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, appctx.ContextKeyCorrelationId)
}

// SetCorrelationIdInContext stores the correlation id, minting one when the
// caller has none.
func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	if correlationId == "" {
		correlationId = uuid.NewString()
	}
	return appctx.Set(ctx, appctx.ContextKeyCorrelationId, correlationId)
}
