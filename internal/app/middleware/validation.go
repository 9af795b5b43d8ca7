package middleware

import (
	"context"

	"staysearch/internal/app/queries"
)

type Validator interface {
	Validate(ctx context.Context, message any) error
}

// QueryValidation rejects queries before they reach a handler.
func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := v.Validate(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
