package orders

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NumberGenerator produces a candidate order number for the given instant.
type NumberGenerator func(at time.Time) string

// RandomNumber returns ORD-YYYYMMDD-NNNNNN with six random digits. Numbers are
// not unique by construction; the store rejects collisions.
func RandomNumber(at time.Time) string {
	return fmt.Sprintf("ORD-%s-%06d", at.UTC().Format("20060102"), rand.IntN(1_000_000))
}
