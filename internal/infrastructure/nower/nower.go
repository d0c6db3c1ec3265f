package nower

import "time"

// Nower источник текущего времени для репозитория.
type Nower interface {
	Now() time.Time
}

type nowerImpl struct{}

// New создаёт реализацию на базе системных часов. Время возвращается в UTC.
func New() Nower {
	return &nowerImpl{}
}

// Now возвращает текущее системное время.
func (n *nowerImpl) Now() time.Time {
	return time.Now().UTC()
}

type fixed time.Time

// Fixed возвращает Nower, который всегда отдаёт t.
func Fixed(t time.Time) Nower {
	return fixed(t)
}

func (f fixed) Now() time.Time {
	return time.Time(f)
}
