package tests

import (
	"fmt"
	"math/rand"

	"github.com/payme/contracts/pkg/address"
)

var testHelperRand = rand.New(rand.NewSource(7))

// RandomAddress returns an address that no key in the test controls.
func RandomAddress() address.Address {
	var result address.Address
	for i := range result {
		result[i] = byte(testHelperRand.Intn(256))
	}
	return result
}

// RandomAmount returns an amount in [1, max].
func RandomAmount(max uint64) uint64 {
	return uint64(testHelperRand.Int63n(int64(max))) + 1
}

// RandomName returns a readable name for an employee or institution.
func RandomName() string {
	first := []string{"Ada", "Grace", "Linus", "Ken", "Barbara", "Edsger", "Frances", "Dennis"}
	last := []string{"Lovelace", "Hopper", "Torvalds", "Thompson", "Liskov", "Dijkstra", "Allen"}
	return fmt.Sprintf("%s %s", first[testHelperRand.Intn(len(first))],
		last[testHelperRand.Intn(len(last))])
}
