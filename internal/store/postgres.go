package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/database"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
)

const candidatesQuery = `SELECT s.id, s.company_name, s.email, s.latitude, s.longitude, s.verification_status, s.subscription_tier, s.certifications, p.id, p.name, p.material_type, p.unit_price, p.embodied_carbon_kg, p.weight_kg FROM suppliers s JOIN products p ON p.supplier_id = s.id WHERE LOWER(p.material_type) = ANY($1) ORDER BY s.id, p.id`

// PostgresStore reads suppliers and their matching products from Postgres.
// Radius is not pushed down; the engine filters by distance.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &PostgresStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "postgres-candidate-store"}),
	}
}

func (s *PostgresStore) FetchCandidates(ctx context.Context, q models.CandidateQuery) ([]models.SupplierCandidate, error) {
	materials := normalizeMaterials(q.Materials)
	if len(materials) == 0 {
		return nil, nil
	}

	var pool []models.SupplierCandidate
	err := database.RetryWithBackoff(ctx, s.logger, "postgres-candidates", fetchAttempts, retryDelay, func(ctx context.Context) error {
		var err error
		pool, err = s.query(ctx, materials)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("candidates loaded", map[string]interface{}{
		"materials":  materials,
		"candidates": len(pool),
	})
	return pool, nil
}

func (s *PostgresStore) query(ctx context.Context, materials []string) ([]models.SupplierCandidate, error) {
	rows, err := s.db.QueryContext(ctx, candidatesQuery, pq.Array(materials))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var pool []models.SupplierCandidate
	index := make(map[string]int)

	for rows.Next() {
		var (
			supplierID, companyName, status, subTier string
			email                                    sql.NullString
			lat, lng                                 sql.NullFloat64
			certs                                    pq.StringArray
			productID, materialType                  string
			productName                              sql.NullString
			price, embodied, weight                  sql.NullFloat64
		)
		if err := rows.Scan(
			&supplierID, &companyName, &email, &lat, &lng, &status, &subTier, &certs,
			&productID, &productName, &materialType, &price, &embodied, &weight,
		); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrQueryFailed, err)
		}

		i, ok := index[supplierID]
		if !ok {
			cand := models.SupplierCandidate{
				ID:                 supplierID,
				CompanyName:        companyName,
				Email:              email.String,
				VerificationStatus: models.VerificationStatus(status),
				SubscriptionTier:   models.SubscriptionTier(subTier),
				Certifications:     []string(certs),
			}
			if lat.Valid && lng.Valid {
				cand.Location = models.Location{
					Latitude:  models.Float64Ptr(lat.Float64),
					Longitude: models.Float64Ptr(lng.Float64),
				}
			}
			pool = append(pool, cand)
			i = len(pool) - 1
			index[supplierID] = i
		}

		pool[i].Products = append(pool[i].Products, models.Product{
			ID:               productID,
			Name:             productName.String,
			MaterialType:     materialType,
			UnitPrice:        nullFloat(price),
			EmbodiedCarbonKg: nullFloat(embodied),
			WeightKg:         nullFloat(weight),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", ErrQueryFailed, err)
	}
	return pool, nil
}

// nullFloat maps NULL to NaN so the engine reports the product as malformed
// instead of scoring a silent zero.
func nullFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return nullableFloat(nil)
	}
	return v.Float64
}
