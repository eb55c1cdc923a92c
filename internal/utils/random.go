package utils

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Random 可注入的随机源，测试时传入固定种子
type Random interface {
	Float64() float64
	IntN(n int) int
}

// LockedRand 并发安全的随机源
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandom seed 为 0 时使用当前时间
func NewRandom(seed uint64) *LockedRand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &LockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Float64 [0,1)
func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// IntN [0,n)，n <= 0 时返回 0
func (l *LockedRand) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
