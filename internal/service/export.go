package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"sensorhub/telemetry-api/internal/model"
)

// ObjectStore is satisfied by *aws.S3Client
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ReadingLister is satisfied by *store.Readings
type ReadingLister interface {
	ListReadings(ctx context.Context, userID string) ([]model.Reading, error)
}

type Export struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	Count     int       `json:"count"`
}

type Exporter struct {
	readings ReadingLister
	objects  ObjectStore
	ttl      time.Duration

	now func() time.Time
}

func NewExporter(r ReadingLister, o ObjectStore, urlTTL time.Duration) *Exporter {
	return &Exporter{readings: r, objects: o, ttl: urlTTL, now: time.Now}
}

var csvHeader = []string{"id", "created_at", "temperature", "humidity"}

// ExportReadings writes every reading of userID as CSV to object storage
// and returns a short lived download link
func (e *Exporter) ExportReadings(ctx context.Context, userID string) (*Export, error) {
	readings, err := e.readings.ListReadings(ctx, userID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := WriteReadingsCSV(&buf, readings); err != nil {
		return nil, err
	}

	now := e.now().UTC()
	key := fmt.Sprintf("exports/%s/%d.csv", userID, now.UnixMilli())

	if err := e.objects.Upload(ctx, key, "text/csv", &buf); err != nil {
		return nil, err
	}

	url, err := e.objects.PresignGet(ctx, key, e.ttl)
	if err != nil {
		return nil, err
	}

	return &Export{
		Key:       key,
		URL:       url,
		ExpiresAt: now.Add(e.ttl),
		Count:     len(readings),
	}, nil
}

func WriteReadingsCSV(w io.Writer, readings []model.Reading) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header, %w", err)
	}

	for _, r := range readings {
		err := cw.Write([]string{
			strconv.FormatUint(uint64(r.ID), 10),
			r.CreatedAt.UTC().Format(time.RFC3339Nano),
			strconv.FormatFloat(r.Temperature, 'f', -1, 64),
			strconv.FormatFloat(r.Humidity, 'f', -1, 64),
		})
		if err != nil {
			return fmt.Errorf("failed to write csv row, %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
