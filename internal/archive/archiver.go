package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"eicrcore/pkg/domain"
)

const (
	contentTypeJSON = "application/json"
	exportExpiry    = time.Hour
	maxKeyAttempts  = 5
)

// Export describes a written schedule export.
type Export struct {
	Key     string `json:"key"`
	URL     string `json:"url,omitempty"`
	Records int    `json:"records"`
}

// Archiver writes form scoped objects into a Store.
type Archiver struct {
	store Store
	now   func() time.Time
	log   *zap.Logger
}

// Option customises an Archiver.
type Option func(*Archiver)

// WithClock overrides the time source used to build keys.
func WithClock(now func() time.Time) Option {
	return func(a *Archiver) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Archiver) {
		if l != nil {
			a.log = l
		}
	}
}

// NewArchiver wraps store.
func NewArchiver(store Store, opts ...Option) *Archiver {
	a := &Archiver{store: store, now: time.Now, log: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Store returns the underlying object store.
func (a *Archiver) Store() Store { return a.store }

// ScanPrefix returns the key prefix holding a form's archived scans.
func ScanPrefix(formID string) string {
	return path.Join("forms", formID, "scans") + "/"
}

// ArchiveScan stores a raw extraction payload under
// forms/<formID>/scans/<kind>-<unix>.json.
func (a *Archiver) ArchiveScan(ctx context.Context, formID, kind string, payload []byte) (Info, error) {
	if strings.TrimSpace(formID) == "" {
		return Info{}, fmt.Errorf("archive scan: form id required")
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = "scan"
	}
	base := ScanPrefix(formID) + fmt.Sprintf("%s-%d", kind, a.now().Unix())
	info, err := a.put(ctx, base, payload, map[string]string{"form": formID, "kind": kind})
	if err != nil {
		return Info{}, fmt.Errorf("archive %s scan for %s: %w", kind, formID, err)
	}
	a.log.Debug("scan archived", zap.String("form", formID), zap.String("key", info.Key), zap.Int64("bytes", info.Size))
	return info, nil
}

// ListScans returns the archived scans of a form, oldest key first.
func (a *Archiver) ListScans(ctx context.Context, formID string) ([]Info, error) {
	return a.store.List(ctx, ScanPrefix(formID))
}

// ExportSchedule writes the collection as a JSON document and returns its
// key with a download URL when the backend can provide one.
func (a *Archiver) ExportSchedule(ctx context.Context, formID string, records []domain.TestResult) (Export, error) {
	if records == nil {
		records = []domain.TestResult{}
	}
	doc := struct {
		FormID      string              `json:"formId"`
		ExportedAt  time.Time           `json:"exportedAt"`
		TestResults []domain.TestResult `json:"testResults"`
	}{FormID: formID, ExportedAt: a.now().UTC(), TestResults: records}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Export{}, fmt.Errorf("encode export: %w", err)
	}
	base := path.Join("forms", formID, "exports", fmt.Sprintf("schedule-%d", a.now().Unix()))
	info, err := a.put(ctx, base, b, map[string]string{"form": formID, "kind": "export"})
	if err != nil {
		return Export{}, fmt.Errorf("export schedule for %s: %w", formID, err)
	}
	out := Export{Key: info.Key, URL: info.URL, Records: len(records)}
	url, err := a.store.PresignURL(ctx, info.Key, SignedURLOptions{Method: "GET", Expiry: exportExpiry})
	switch {
	case err == nil:
		out.URL = url
	case errors.Is(err, ErrUnsupported):
	default:
		a.log.Warn("presign export failed", zap.String("key", info.Key), zap.Error(err))
	}
	return out, nil
}

// put writes payload under base+".json", adding a numeric suffix when the
// key is already taken within the same second.
func (a *Archiver) put(ctx context.Context, base string, payload []byte, meta map[string]string) (Info, error) {
	var lastErr error
	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		key := base + ".json"
		if attempt > 0 {
			key = fmt.Sprintf("%s-%d.json", base, attempt)
		}
		info, err := a.store.Put(ctx, key, bytes.NewReader(payload), PutOptions{ContentType: contentTypeJSON, Metadata: meta})
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, ErrExists) {
			return Info{}, err
		}
		lastErr = err
	}
	return Info{}, lastErr
}
