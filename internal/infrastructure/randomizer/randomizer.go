package randomizer

import (
	"math/rand"
	"sync"
	"time"
)

// Randomizer источник случайности для перестановок стимулов и ответов участника.
type Randomizer interface {
	// Intn возвращает число из [0, n). n > 0.
	Intn(n int) int
	// Shuffle переставляет n элементов через swap.
	Shuffle(n int, swap func(i, j int))
}

type randomizerImpl struct {
	mu  sync.Mutex // Защищает доступ к генератору случайных чисел
	rnd *rand.Rand
}

// New создаёт потокобезопасный randomizer, засеянный текущим временем.
func New() Randomizer {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded создаёт детерминированный randomizer с заданным seed.
// Нужен для воспроизводимых перестановок в тестах и симуляторе участника.
func NewSeeded(seed int64) Randomizer {
	return &randomizerImpl{
		rnd: rand.New(rand.NewSource(seed)), // #nosec G404
	}
}

// Intn возвращает случайное число из [0, n).
func (r *randomizerImpl) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

// Shuffle перемешивает элементы используя Fisher-Yates shuffle алгоритм.
// Граница неперемешанной части идёт от n к 0: на каждом шаге i = граница-1,
// j выбирается из [0, i] включительно, элементы i и j меняются местами.
func (r *randomizerImpl) Shuffle(n int, swap func(i, j int)) {
	if n <= 1 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := n - 1; i > 0; i-- {
		j := r.rnd.Intn(i + 1)
		swap(i, j)
	}
}
