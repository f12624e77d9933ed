// Package repository implements MySQL persistence for accounts, events and
// seat assignments. Sentinel errors defined here are reused across
// repositories so handlers can distinguish failure scenarios; domain
// failures inside the allocation transaction surface as the arena
// package's error kinds instead.
package repository

import "strings"

// isDuplicateKey reports whether err is a MySQL duplicate-key violation
// (error 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
