package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medisalud/liquidacion-api/internal/domain"
	"github.com/medisalud/liquidacion-api/internal/domain/repository"
)

var _ repository.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore guarda reportes, anexos y actas como bytea. Los artefactos son
// pequeños (decenas de KB); un object store externo queda fuera del núcleo.
type ArtifactStore struct {
	q Querier
}

// NewArtifactStore construye el adaptador. Pasar pool o tx (Querier).
func NewArtifactStore(q Querier) *ArtifactStore {
	return &ArtifactStore{q: q}
}

// Store persiste el artefacto y devuelve su identificador.
func (s *ArtifactStore) Store(nombre, contentType string, contenido []byte) (string, error) {
	id := uuid.New().String()
	_, err := s.q.Exec(context.Background(), `
		INSERT INTO artefactos (id, nombre, content_type, contenido, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		id, nombre, contentType, contenido,
	)
	if err != nil {
		return "", fmt.Errorf("insert artefacto: %w", err)
	}
	return id, nil
}

// Fetch devuelve nombre, tipo y bytes del artefacto.
func (s *ArtifactStore) Fetch(id string) (string, string, []byte, error) {
	var nombre, contentType string
	var contenido []byte
	err := s.q.QueryRow(context.Background(), `
		SELECT nombre, content_type, contenido FROM artefactos WHERE id = $1`, id).Scan(
		&nombre, &contentType, &contenido,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", nil, fmt.Errorf("artefacto %s: %w", id, domain.ErrNotFound)
		}
		return "", "", nil, fmt.Errorf("get artefacto: %w", err)
	}
	return nombre, contentType, contenido, nil
}
