// rng/rng.go
package rng

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// Roller 骰子和随机事件的来源。骰子结果由外部传入引擎，
// 这样同一个 roll 可以被记录和回放。
type Roller interface {
	// RollDie returns a uniform result in [1,6].
	RollDie() int
	// Intn returns a uniform result in [0,n).
	Intn(n int) int
	// Pick returns an index chosen proportionally to weights.
	// A nil or all-zero weights slice falls back to a uniform pick.
	Pick(weights []int) int
}

type lockedRoller struct {
	r     *rand.Rand
	mutex sync.Mutex
}

// New 创建一个用系统熵播种的 Roller
func New() Roller {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		panic("rng: failed to read entropy: " + err.Error())
	}
	seed := int64(binary.BigEndian.Uint64(buf[:]))
	return &lockedRoller{r: rand.New(rand.NewSource(seed))}
}

// Seeded 创建一个固定种子的 Roller，测试和回放用
func Seeded(seed int64) Roller {
	return &lockedRoller{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRoller) RollDie() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.r.Intn(6) + 1
}

func (l *lockedRoller) Intn(n int) int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRoller) Pick(weights []int) int {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		if len(weights) == 0 {
			return 0
		}
		return l.r.Intn(len(weights))
	}

	n := l.r.Intn(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if n < w {
			return i
		}
		n -= w
	}
	return len(weights) - 1
}
