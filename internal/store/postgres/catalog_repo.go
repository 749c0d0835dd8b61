package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"tatutaller/backend/internal/domain"
	"tatutaller/backend/internal/store"
)

// CatalogRepo reads class offerings and users. The scheduling engine
// never writes either table; offerings are administered elsewhere and
// users belong to the identity subsystem.
type CatalogRepo struct {
	db *bun.DB
}

func NewCatalogRepo(db *bun.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

func (r *CatalogRepo) Get(ctx context.Context, id uuid.UUID) (domain.ClassOffering, error) {
	var off domain.ClassOffering
	err := r.db.NewSelect().
		Model(&off).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return domain.ClassOffering{}, store.ErrOfferingNotFound
		}
		return domain.ClassOffering{}, err
	}
	return off, nil
}

func (r *CatalogRepo) ListActive(ctx context.Context) ([]domain.ClassOffering, error) {
	var rows []domain.ClassOffering
	err := r.db.NewSelect().
		Model(&rows).
		Where("status = ?", domain.OfferingStatusActive).
		OrderExpr("weekday ASC, start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type userRow struct {
	bun.BaseModel `bun:"table:users"`

	ID    string      `bun:"id,pk"`
	Name  string      `bun:"name,notnull"`
	Email string      `bun:"email,notnull"`
	Role  domain.Role `bun:"role,notnull"`
}

type UserRepo struct {
	db *bun.DB
}

func NewUserRepo(db *bun.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Get(ctx context.Context, id string) (domain.User, error) {
	var row userRow
	err := r.db.NewSelect().
		Model(&row).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return domain.User{}, store.ErrUserNotFound
		}
		return domain.User{}, err
	}
	return domain.User{ID: row.ID, Name: row.Name, Email: row.Email, Role: row.Role}, nil
}
