package service

import (
	"context"
	"sync"
	"time"
)

// SubmissionLimiter limita cuantas respuestas acepta una sesion dentro de una
// ventana deslizante. Una implementacion nil no limita.
type SubmissionLimiter interface {
	Allow(ctx context.Context, sessionID string) bool
}

type memorySubmissionLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
	now    func() time.Time
	// lastSweep marca la ultima pasada que elimino sesiones inactivas.
	lastSweep time.Time
}

func limiterDefaults(window time.Duration, max int) (time.Duration, int) {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return window, max
}

// NewSubmissionLimiter crea el limitador en proceso.
func NewSubmissionLimiter(window time.Duration, max int) SubmissionLimiter {
	window, max = limiterDefaults(window, max)
	return &memorySubmissionLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

func (l *memorySubmissionLimiter) Allow(_ context.Context, sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	cutoff := now.Add(-l.window)
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(cutoff)
		l.lastSweep = now
	}
	recent := prune(l.hits[sessionID], cutoff)
	if len(recent) == 0 {
		delete(l.hits, sessionID)
	}
	if len(recent) >= l.max {
		l.hits[sessionID] = recent
		return false
	}
	l.hits[sessionID] = append(recent, now)
	return true
}

// sweep elimina las sesiones sin envios dentro de la ventana. Corre como
// mucho una vez por ventana.
func (l *memorySubmissionLimiter) sweep(cutoff time.Time) {
	for key, hits := range l.hits {
		if recent := prune(hits, cutoff); len(recent) == 0 {
			delete(l.hits, key)
		} else {
			l.hits[key] = recent
		}
	}
}

// prune descarta los envios anteriores al corte; la lista esta ordenada.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}
