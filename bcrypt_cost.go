//go:build !race

package usermanagement

func passwordHashCost() int {
	return 14
}
