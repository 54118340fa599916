package search

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"example.com/backstage/services/farm/config"
	"example.com/backstage/services/farm/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// readingsIndex is the base index name; the environment prefix from the
// configuration is prepended
const readingsIndex = "farm-readings"

// ElasticClient indexes reading documents for the dashboard. With search
// disabled in the configuration every call is a no-op so the service runs
// without a cluster.
type ElasticClient struct {
	client  *elasticsearch.Client
	config  config.ElasticConfig
	log     *logrus.Logger
	enabled bool
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig, log *logrus.Logger) (*ElasticClient, error) {
	if !cfg.Enabled {
		return &ElasticClient{config: cfg, log: log, enabled: false}, nil
	}

	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client:  client,
		config:  cfg,
		log:     log,
		enabled: true,
	}, nil
}

// Enabled reports whether indexing is active
func (c *ElasticClient) Enabled() bool {
	return c.enabled
}

// IndexReading indexes one reading document
func (c *ElasticClient) IndexReading(ctx context.Context, reading *models.Reading) error {
	if !c.enabled {
		return nil
	}

	// Build the document to be indexed
	doc := map[string]interface{}{
		"id":          reading.ID.String(),
		"device_uid":  reading.DeviceUID,
		"class":       reading.Class,
		"recorded_at": reading.RecordedAt.Format(time.RFC3339),
	}
	addIfSet(doc, "distance_cm", reading.DistanceCM)
	addIfSet(doc, "water_level_cm", reading.WaterLevelCM)
	addIfSet(doc, "fill_percent", reading.FillPercent)
	addIfSet(doc, "volume_liters", reading.VolumeLiters)
	addIfSet(doc, "moisture_pct", reading.MoisturePct)
	addIfSet(doc, "temperature_c", reading.TemperatureC)
	addIfSet(doc, "humidity_pct", reading.HumidityPct)

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal reading document")
	}

	indexName := config.FormatIndex(c.config, readingsIndex)
	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: reading.ID.String(),
		Body:       bytes.NewReader(docJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return errors.Errorf("Elasticsearch index error: %v", e)
	}

	c.log.WithFields(logrus.Fields{
		"reading_id": reading.ID.String(),
		"class":      reading.Class,
	}).Debug("reading indexed")
	return nil
}

// Ping checks cluster connectivity for health reporting
func (c *ElasticClient) Ping(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	res, err := c.client.Info(c.client.Info.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "failed to reach Elasticsearch")
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Errorf("Elasticsearch info error: %s", res.String())
	}
	return nil
}

func addIfSet(doc map[string]interface{}, key string, value *float64) {
	if value != nil {
		doc[key] = *value
	}
}
