//go:build !race

package auth

// defaultBcryptCost is the work factor for stored password hashes
const defaultBcryptCost = 12

func passwordHashCost() int {
	return defaultBcryptCost
}
