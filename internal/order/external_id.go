package order

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// IDGenerator produces external ids in the form ORD-<8 base36>-<unix millis>.
// They are not cryptographically unique; collisions need the same millisecond
// and the same 8 random characters.
type IDGenerator struct {
	now  func() time.Time
	intn func(n int) int
}

// NewIDGenerator returns a generator backed by the wall clock and math/rand.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now, intn: rand.Intn}
}

// Next returns a fresh external id.
func (g *IDGenerator) Next() string {
	var b strings.Builder
	b.Grow(4 + 8 + 1 + 13)
	b.WriteString("ORD-")
	for i := 0; i < 8; i++ {
		b.WriteByte(base36[g.intn(len(base36))])
	}
	b.WriteByte('-')
	b.WriteString(strconv.FormatInt(g.now().UnixMilli(), 10))
	return b.String()
}
