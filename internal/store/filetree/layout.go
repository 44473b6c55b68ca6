// Package filetree implements the recording layer: per-session, per-day
// line-delimited event logs plus per-wallet CSV sheets, and the loader that
// materializes them back into trade event sets.
package filetree

import (
	"path/filepath"
	"time"
)

const (
	eventLogName = "trades.jsonl"
	walletDir    = "wallets"
	dayFormat    = "2006-01-02"
)

// sessionDir returns root/<session>.
func sessionDir(root, sessionID string) string {
	return filepath.Join(root, sessionID)
}

// dayDir returns root/<session>/<YYYY-MM-DD>.
func dayDir(root, sessionID string, day time.Time) string {
	return filepath.Join(sessionDir(root, sessionID), day.UTC().Format(dayFormat))
}

// eventLogPath returns the line-delimited log for one session day.
func eventLogPath(root, sessionID string, day time.Time) string {
	return filepath.Join(dayDir(root, sessionID, day), eventLogName)
}

// walletSheetPath returns the per-wallet CSV sheet for one session day. The
// wallet must already be normalized.
func walletSheetPath(root, sessionID string, day time.Time, wallet string) string {
	return filepath.Join(dayDir(root, sessionID, day), walletDir, wallet+".csv")
}
