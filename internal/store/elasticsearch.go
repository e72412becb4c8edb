package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/database"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/geo"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
)

const defaultSearchSize = 500

// supplierDoc is the indexed supplier shape. materials holds the lowercased
// material types of all products; geo is a geo_point.
type supplierDoc struct {
	ID                 string       `json:"id"`
	CompanyName        string       `json:"companyName"`
	Email              string       `json:"email"`
	VerificationStatus string       `json:"verificationStatus"`
	SubscriptionTier   string       `json:"subscriptionTier"`
	Certifications     []string     `json:"certifications"`
	Geo                *geoPoint    `json:"geo"`
	Address            string       `json:"address"`
	Products           []productDoc `json:"products"`
}

type geoPoint struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type productDoc struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	MaterialType     string   `json:"materialType"`
	UnitPrice        *float64 `json:"unitPrice"`
	EmbodiedCarbonKg *float64 `json:"embodiedCarbonKg"`
	WeightKg         *float64 `json:"weightKg"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string      `json:"_id"`
			Source supplierDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// ElasticsearchStore filters suppliers by material and, when the request
// carries a location and radius, by geo_distance.
type ElasticsearchStore struct {
	client *elasticsearch.Client
	index  string
	size   int
	logger logger.Logger
}

func NewElasticsearchStore(client *elasticsearch.Client, index string, log logger.Logger) *ElasticsearchStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &ElasticsearchStore{
		client: client,
		index:  index,
		size:   defaultSearchSize,
		logger: log.WithFields(map[string]interface{}{"component": "elasticsearch-candidate-store", "index": index}),
	}
}

func (s *ElasticsearchStore) FetchCandidates(ctx context.Context, q models.CandidateQuery) ([]models.SupplierCandidate, error) {
	materials := normalizeMaterials(q.Materials)
	if len(materials) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(buildCandidateQuery(materials, q))
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrQueryFailed, err)
	}

	var pool []models.SupplierCandidate
	err = database.RetryWithBackoff(ctx, s.logger, "elasticsearch-candidates", fetchAttempts, retryDelay, func(ctx context.Context) error {
		var err error
		pool, err = s.search(ctx, body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func buildCandidateQuery(materials []string, q models.CandidateQuery) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{
			"terms": map[string]interface{}{"materials": materials},
		},
	}

	// Suppliers without coordinates sit at the unknown distance, so a radius
	// at or above it must not drop them.
	if lat, lng, ok := q.Location.Coordinates(); ok && q.RadiusMiles != nil && *q.RadiusMiles < geo.UnknownDistanceMiles {
		filters = append(filters, map[string]interface{}{
			"geo_distance": map[string]interface{}{
				"distance": fmt.Sprintf("%gmi", *q.RadiusMiles),
				"geo":      map[string]interface{}{"lat": lat, "lon": lng},
			},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": filters},
		},
		"sort": []interface{}{
			map[string]interface{}{"id": "asc"},
		},
	}
}

func (s *ElasticsearchStore) search(ctx context.Context, body []byte) ([]models.SupplierCandidate, error) {
	size := s.size
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, s.index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrQueryFailed, res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrQueryFailed, err)
	}

	pool := make([]models.SupplierCandidate, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		doc := hit.Source
		if doc.ID == "" {
			doc.ID = hit.ID
		}
		pool = append(pool, doc.toCandidate())
	}
	return pool, nil
}

func (d supplierDoc) toCandidate() models.SupplierCandidate {
	cand := models.SupplierCandidate{
		ID:                 d.ID,
		CompanyName:        d.CompanyName,
		Email:              d.Email,
		VerificationStatus: models.VerificationStatus(d.VerificationStatus),
		SubscriptionTier:   models.SubscriptionTier(d.SubscriptionTier),
		Certifications:     d.Certifications,
		Location:           models.Location{Address: d.Address},
	}
	if d.Geo != nil {
		cand.Location.Latitude = d.Geo.Lat
		cand.Location.Longitude = d.Geo.Lon
	}
	cand.Products = make([]models.Product, 0, len(d.Products))
	for _, p := range d.Products {
		cand.Products = append(cand.Products, models.Product{
			ID:               p.ID,
			Name:             p.Name,
			MaterialType:     p.MaterialType,
			UnitPrice:        nullableFloat(p.UnitPrice),
			EmbodiedCarbonKg: nullableFloat(p.EmbodiedCarbonKg),
			WeightKg:         nullableFloat(p.WeightKg),
		})
	}
	return cand
}
