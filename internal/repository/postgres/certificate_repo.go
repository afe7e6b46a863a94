package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"nfecusto/internal/domain"
	"nfecusto/internal/port"
)

type certificateRepo struct {
	db *sqlx.DB
}

// NewCertificateRepo creates a new PostgreSQL-backed CertificateRepository.
func NewCertificateRepo(db *sqlx.DB) port.CertificateRepository {
	return &certificateRepo{db: db}
}

func (r *certificateRepo) Upsert(ctx context.Context, cert *domain.Certificate) error {
	now := time.Now().UTC()
	if cert.ID == uuid.Nil {
		cert.ID = uuid.New()
	}
	if cert.LastNSU == "" {
		cert.LastNSU = "0"
	}
	cert.CreatedAt = now
	cert.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `INSERT INTO certificates (
		id, tax_id, legal_name, expires_at, last_nsu, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (tax_id) DO UPDATE SET
		legal_name = EXCLUDED.legal_name,
		expires_at = EXCLUDED.expires_at,
		updated_at = EXCLUDED.updated_at`,
		cert.ID, cert.TaxID, cert.LegalName, cert.ExpiresAt, cert.LastNSU,
		cert.CreatedAt, cert.UpdatedAt)
	if err != nil {
		return fmt.Errorf("certificateRepo.Upsert: %w", err)
	}
	return nil
}

func (r *certificateRepo) GetByTaxID(ctx context.Context, taxID string) (*domain.Certificate, error) {
	var cert domain.Certificate
	err := r.db.GetContext(ctx, &cert, "SELECT * FROM certificates WHERE tax_id = $1", taxID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCertificateNotFound
		}
		return nil, fmt.Errorf("certificateRepo.GetByTaxID: %w", err)
	}
	return &cert, nil
}

func (r *certificateRepo) List(ctx context.Context) ([]domain.Certificate, error) {
	var certs []domain.Certificate
	err := r.db.SelectContext(ctx, &certs, "SELECT * FROM certificates ORDER BY tax_id")
	if err != nil {
		return nil, fmt.Errorf("certificateRepo.List: %w", err)
	}
	return certs, nil
}

func (r *certificateRepo) UpdateLastNSU(ctx context.Context, id uuid.UUID, lastNSU string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE certificates SET last_nsu = $1, updated_at = $2 WHERE id = $3",
		lastNSU, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("certificateRepo.UpdateLastNSU: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("certificateRepo.UpdateLastNSU rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCertificateNotFound
	}
	return nil
}
