// Package metadata records the provenance of an analysis run so results can
// be cited and reproduced.
package metadata

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Defaults written to every metadata record
const (
	DefaultVersion = "dev"
	DefaultLicense = "MIT"
	videoIDLength  = 8 // hex characters
)

// ErrNotFound is returned by Load when the metadata file does not exist
var ErrNotFound = errors.New("metadata file not found")

// Metadata describes one analysis run
type Metadata struct {
	SourceURL         string          `json:"source_url"`
	VideoID           string          `json:"video_id"`
	RunID             string          `json:"run_id"`
	FetchDate         time.Time       `json:"fetch_date"`
	AnalysisTimestamp time.Time       `json:"analysis_timestamp"`
	Config            json.RawMessage `json:"config"`
	ConfigHash        string          `json:"config_hash"`
	Version           string          `json:"version"`
	CitationRequired  bool            `json:"citation_required"`
	License           string          `json:"license"`

	NumEvents     *int     `json:"num_events,omitempty"`
	AudioDuration *float64 `json:"audio_duration,omitempty"` // seconds
}

// VideoID returns the first 8 hex characters of the MD5 of source
func VideoID(source string) string {
	sum := md5.Sum([]byte(source))
	return hex.EncodeToString(sum[:])[:videoIDLength]
}

// ConfigHash returns the MD5 of the JSON encoding of cfg and the encoding itself
func ConfigHash(cfg any) (string, json.RawMessage, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode config: %w", err)
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), data, nil
}

// New creates metadata for a run over source using cfg. Timestamps come from
// clock; a nil clock uses real time.
func New(source string, cfg any, clock clockwork.Clock) (*Metadata, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	hash, raw, err := ConfigHash(cfg)
	if err != nil {
		return nil, err
	}

	now := clock.Now()
	return &Metadata{
		SourceURL:         source,
		VideoID:           VideoID(source),
		RunID:             uuid.NewString(),
		FetchDate:         now,
		AnalysisTimestamp: now,
		Config:            raw,
		ConfigHash:        hash,
		Version:           DefaultVersion,
		CitationRequired:  true,
		License:           DefaultLicense,
	}, nil
}

// WithResults records the event count and analysed audio duration
func (m *Metadata) WithResults(numEvents int, audioDuration float64) *Metadata {
	m.NumEvents = &numEvents
	m.AudioDuration = &audioDuration
	return m
}

// Save writes m as indented JSON, creating parent directories
func Save(m *Metadata, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create metadata directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

// Load reads metadata written by Save
func Load(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	// Save indents the embedded config; hash input is the compact form
	if len(m.Config) > 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, m.Config); err != nil {
			return nil, fmt.Errorf("failed to parse metadata config: %w", err)
		}
		m.Config = buf.Bytes()
	}
	return &m, nil
}

// VerifyReproducibility reports whether both runs used the same configuration.
// Missing hashes never match.
func VerifyReproducibility(a, b *Metadata) bool {
	if a == nil || b == nil || a.ConfigHash == "" || b.ConfigHash == "" {
		return false
	}
	return a.ConfigHash == b.ConfigHash
}

// UsageTerms apply to every analysed recording
var UsageTerms = []string{
	"Research purposes only",
	"Respect copyright and terms of service",
	"No surveillance or privacy-invasive use",
}

// ComplianceNotice lists the source and the usage terms that apply to it
func ComplianceNotice(m *Metadata) []string {
	lines := []string{
		"Source: " + m.SourceURL,
		fmt.Sprintf("Citation required: %t", m.CitationRequired),
	}
	lines = append(lines, UsageTerms...)
	if m.CitationRequired {
		lines = append(lines, "Cite the original creator when publishing")
	}
	return lines
}
