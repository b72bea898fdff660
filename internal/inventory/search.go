// internal/inventory/search.go
package inventory

import (
	"context"
	"encoding/json"

	"garage-backoffice/internal/common/database"
)

const vehicleIndex = "vehicles"

// SearchIndex mirrors the sales inventory into Elasticsearch for the public
// listing's free-text search. The database stays the source of truth; a
// failed mirror write is logged by the caller and never fails the CRUD
// operation.
type SearchIndex struct {
	es *database.ElasticsearchClient
}

func NewSearchIndex(es *database.ElasticsearchClient) *SearchIndex {
	return &SearchIndex{es: es}
}

func (s *SearchIndex) IndexVehicle(ctx context.Context, v *Vehicle) error {
	return s.es.IndexDocument(ctx, vehicleIndex, v.ID, v)
}

func (s *SearchIndex) RemoveVehicle(ctx context.Context, id string) error {
	return s.es.DeleteDocument(ctx, vehicleIndex, id)
}

// SearchVehicles runs a free-text query over make, model, description and
// energy type. Sold vehicles are excluded.
func (s *SearchIndex) SearchVehicles(ctx context.Context, query string, limit int) ([]Vehicle, error) {
	if limit <= 0 {
		limit = 30
	}

	esQuery := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":     query,
						"fields":    []string{"make^2", "model^2", "description", "energyType"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"sold": false},
				},
			},
		},
	}

	sources, err := s.es.Search(ctx, vehicleIndex, esQuery)
	if err != nil {
		return nil, err
	}

	vehicles := make([]Vehicle, 0, len(sources))
	for _, src := range sources {
		var v Vehicle
		if err := json.Unmarshal(src, &v); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, nil
}
