package middleware

import "github.com/aretw0/donorline/pkg/ports"

// StoreMiddleware wraps a SessionStore to add behavior.
type StoreMiddleware func(ports.SessionStore) ports.SessionStore

// LedgerMiddleware wraps a Ledger to add behavior.
type LedgerMiddleware func(ports.Ledger) ports.Ledger
