package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/fragtrack/internal/metrics"
	"github.com/san-kum/fragtrack/internal/tracker"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile   = "metadata.json"
	tracksDB       = "tracks.db"
	tracksCSV      = "tracks.csv"
	histogramsFile = "histograms.json"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Config     string             `json:"config"`
	Timestamp  time.Time          `json:"timestamp"`
	Source     string             `json:"source"`
	Seed       int64              `json:"seed,omitempty"`
	Direction  string             `json:"direction"`
	Hypotheses []string           `json:"hypotheses"`
	Summary    tracker.Summary    `json:"summary"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Run is an open run directory. Tracks are written as they are produced.
type Run struct {
	ID  string
	dir string
	db  *DB
	csv *csv.Writer
	f   *os.File
}

// Create opens a new run directory named after the configuration.
func (s *Store) Create(config string) (*Run, error) {
	id := fmt.Sprintf("%s_%s_%s", config, time.Now().UTC().Format("20060102T150405"), uuid.NewString()[:8])
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := OpenDB(filepath.Join(dir, tracksDB))
	if err != nil {
		return nil, err
	}
	f, err := os.Create(filepath.Join(dir, tracksCSV))
	if err != nil {
		db.Close()
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		db.Close()
		return nil, err
	}
	return &Run{ID: id, dir: dir, db: db, csv: w, f: f}, nil
}

var csvHeader = []string{"event", "hypothesis", "side", "charge", "x", "y", "z", "px", "py", "pz", "p", "beta", "chi2", "ndf", "status"}

func (r *Run) Record(res tracker.Result) error {
	if err := r.db.InsertStats(res.Event, res.Stats); err != nil {
		return err
	}
	if len(res.Tracks) == 0 {
		return nil
	}
	if err := r.db.InsertTracks(res.Tracks); err != nil {
		return err
	}
	for _, t := range res.Tracks {
		row := []string{
			strconv.FormatInt(t.Event, 10),
			t.Hypothesis,
			t.Side.String(),
			strconv.Itoa(t.Charge),
			ff(t.Position.X), ff(t.Position.Y), ff(t.Position.Z),
			ff(t.Momentum.X), ff(t.Momentum.Y), ff(t.Momentum.Z),
			ff(t.P()),
			ff(t.Beta),
			ff(t.Chi2),
			strconv.Itoa(t.NDF),
			strconv.Itoa(t.Status),
		}
		if err := r.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Close writes the metadata and histograms and releases the files.
func (r *Run) Close(meta RunMetadata, hists []metrics.HistogramData) error {
	meta.ID = r.ID
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}

	r.csv.Flush()
	err := errors.Join(r.csv.Error(), r.f.Close(), r.db.Close())
	if err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(r.dir, histogramsFile), hists); err != nil {
		return err
	}
	return writeJSON(filepath.Join(r.dir, metadataFile), meta)
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	var meta RunMetadata
	if err := s.readJSON(runID, metadataFile, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadHistograms(runID string) ([]metrics.HistogramData, error) {
	var hists []metrics.HistogramData
	if err := s.readJSON(runID, histogramsFile, &hists); err != nil {
		return nil, err
	}
	return hists, nil
}

// LoadTracks reads the tracks of a run, optionally restricted to one
// hypothesis.
func (s *Store) LoadTracks(runID, hypothesis string) ([]tracker.Track, error) {
	path := filepath.Join(s.baseDir, runID, tracksDB)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.Tracks(hypothesis)
}

func (s *Store) readJSON(runID, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
