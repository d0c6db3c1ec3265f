// Package shuffle перемешивает последовательности стимулов, проб и блоков эксперимента.
package shuffle

import "github.com/ewok-core/ewok-paper/internal/infrastructure/randomizer"

// Shuffle переставляет items на месте в равномерно случайном порядке и возвращает
// тот же срез (тот же базовый массив) для цепочек вызовов.
// Пустой срез и срез из одного элемента не изменяются.
func Shuffle[T any](r randomizer.Randomizer, items []T) []T {
	r.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
	return items
}

// Perm возвращает случайную перестановку индексов [0, n).
func Perm(r randomizer.Randomizer, n int) []int {
	if n <= 0 {
		return []int{}
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return Shuffle(r, idx)
}
