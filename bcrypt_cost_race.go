//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

// race builds run bcrypt many times slower, account hashing drops to the
// library default so the suite stays within its timeouts
func passwordHashCost() int {
	return bcrypt.DefaultCost
}
