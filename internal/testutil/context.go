package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/keygate/keygate/internal/types"
)

func SetupContext() context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, types.CtxRequestID, uuid.NewString())
	return ctx
}
