package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/domain/repository"
)

var _ repository.FacilityRepository = (*FacilityRepo)(nil)

// FacilityRepo lectura de sucursales.
type FacilityRepo struct {
	q Querier
}

// NewFacilityRepository construye el adaptador.
func NewFacilityRepository(q Querier) *FacilityRepo {
	return &FacilityRepo{q: q}
}

const facilityColumns = `id, organization_id, name, address, receipt_prefix, created_at, updated_at`

func scanFacility(row pgx.Row) (*entity.Facility, error) {
	var f entity.Facility
	if err := row.Scan(&f.ID, &f.OrganizationID, &f.Name, &f.Address, &f.ReceiptPrefix, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByID obtiene una sucursal; (nil, nil) si no existe.
func (r *FacilityRepo) GetByID(ctx context.Context, id string) (*entity.Facility, error) {
	f, err := scanFacility(r.q.QueryRow(ctx, `SELECT `+facilityColumns+` FROM facilities WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get facility: %w", err)
	}
	return f, nil
}

// List devuelve todas las sucursales (usado por los procesos programados).
func (r *FacilityRepo) List(ctx context.Context) ([]*entity.Facility, error) {
	rows, err := r.q.Query(ctx, `SELECT `+facilityColumns+` FROM facilities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	defer rows.Close()
	var out []*entity.Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, fmt.Errorf("scan facility: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
