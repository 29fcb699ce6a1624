// Package backend assembles the storage, cache, event and export
// collaborators selected by configuration.
package backend

import (
	"budgetledger/internal/ledger"
	"budgetledger/internal/worker"
)

// Store is a ledger store that also tracks notification export.
type Store interface {
	ledger.Store
	worker.ExportStore
}

type CleanupFunc func() error

// BackendResult is the store and the function releasing it.
type BackendResult struct {
	Store   Store
	Cleanup CleanupFunc
}

type Config struct {
	Type         BackendType
	SQLiteDBPath string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	return bt == SQLiteBackend || bt == MemoryBackend
}
