package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	// AppKey carries the *application.Application through request contexts.
	AppKey ContextKey = "app"
	// PoolKey carries the shared *pgxpool.Pool.
	PoolKey ContextKey = "pool"
	// TxKey carries the active pgx transaction, set by transactional
	// middleware or by composables.InTx.
	TxKey ContextKey = "tx"
	// LoggerKey carries the per-request *logrus.Entry.
	LoggerKey ContextKey = "logger"
	// ParamsKey carries *composables.Params (request metadata).
	ParamsKey ContextKey = "params"
	// RequestStart marks the time the request entered the stack.
	RequestStart ContextKey = "request-start"
)

// Validate is the shared validator instance used by DTOs. Field names in
// validation errors follow the struct field names; services translate them
// to wire names when building field-level errors.
var Validate = validator.New()
