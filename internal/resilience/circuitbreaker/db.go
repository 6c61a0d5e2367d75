// Package circuitbreaker provides circuit breaker implementations for the embedded store.
// This file implements a store-specific wrapper that protects store calls from cascading failures.
package circuitbreaker

import (
	"context"
	"database/sql"
	"time"

	"github.com/sony/gobreaker"
)

// StoreCircuitBreaker wraps an embedded store connection with circuit breaker protection.
// It prevents cascading failures when the embedded store becomes locked or slow under migration contention.
type StoreCircuitBreaker struct {
	cb *CircuitBreaker
	db *sql.DB
}

// StoreCircuitConfig returns configuration optimized for the embedded store's
// single connection. Opens after 5 consecutive failures, 30 second timeout.
func StoreCircuitConfig() Config {
	return Config{
		Name:             "store",
		MaxRequests:      3, // Allow 3 test requests in half-open state
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 1.0, // Open on 100% failure (5+ consecutive failures)
		MinRequests:      5,   // Require 5 failures before tripping
	}
}

// NewStoreCircuitBreaker creates a new store circuit breaker.
// It wraps the provided embedded store connection with circuit breaker protection.
func NewStoreCircuitBreaker(db *sql.DB) *StoreCircuitBreaker {
	return &StoreCircuitBreaker{
		cb: New(StoreCircuitConfig()),
		db: db,
	}
}

// NewStoreCircuitBreakerWithConfig creates a new store circuit breaker with custom configuration.
func NewStoreCircuitBreakerWithConfig(db *sql.DB, cfg Config) *StoreCircuitBreaker {
	return &StoreCircuitBreaker{
		cb: New(cfg),
		db: db,
	}
}

// QueryContext executes a query with circuit breaker protection.
// If the circuit is open, it returns ErrOpenState immediately without hitting the database.
func (dcb *StoreCircuitBreaker) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	result, err := dcb.cb.Execute(func() (interface{}, error) {
		return dcb.db.QueryContext(ctx, query, args...)
	})

	if err != nil {
		return nil, err
	}

	return result.(*sql.Rows), nil
}

// ExecContext executes a statement with circuit breaker protection.
// If the circuit is open, it returns ErrOpenState immediately without hitting the database.
func (dcb *StoreCircuitBreaker) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	result, err := dcb.cb.Execute(func() (interface{}, error) {
		return dcb.db.ExecContext(ctx, query, args...)
	})

	if err != nil {
		return nil, err
	}

	return result.(sql.Result), nil
}

// QueryRowContext executes a query that returns at most one row with circuit breaker protection.
// Note: sql.Row doesn't return an error immediately, so circuit breaker protection is limited.
// The error is only returned when scanning the row.
func (dcb *StoreCircuitBreaker) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	// Note: We can't use circuit breaker effectively here because QueryRow doesn't return error
	// The error is deferred until Scan() is called
	return dcb.db.QueryRowContext(ctx, query, args...)
}

// State returns the current state of the circuit breaker.
func (dcb *StoreCircuitBreaker) State() gobreaker.State {
	return dcb.cb.State()
}

// IsOpen returns true if the circuit breaker is in the open state.
func (dcb *StoreCircuitBreaker) IsOpen() bool {
	return dcb.cb.IsOpen()
}

// DB returns the underlying database connection.
// This should only be used for operations that don't need circuit breaker protection.
func (dcb *StoreCircuitBreaker) DB() *sql.DB {
	return dcb.db
}
