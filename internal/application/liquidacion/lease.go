package liquidacion

import "sync"

// LeaseLocal implementa Lease con un mapa en memoria. Cubre el despliegue de
// proceso único; detrás del mismo puerto puede montarse un advisory lock de
// PostgreSQL para despliegues multi-réplica.
type LeaseLocal struct {
	mu      sync.Mutex
	activos map[string]struct{}
}

// NewLeaseLocal construye el lease en memoria.
func NewLeaseLocal() *LeaseLocal {
	return &LeaseLocal{activos: make(map[string]struct{})}
}

// Acquire toma el lease del radicado. Devuelve false si ya hay una corrida activa.
func (l *LeaseLocal) Acquire(radicadoID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ocupado := l.activos[radicadoID]; ocupado {
		return false
	}
	l.activos[radicadoID] = struct{}{}
	return true
}

// Release libera el lease del radicado.
func (l *LeaseLocal) Release(radicadoID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.activos, radicadoID)
}
