package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context carries a request context together with an optional GORM
// transaction. Repos fall back to their own *gorm.DB when Tx is nil.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}
