package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/algoviz/internal/algo"
	"github.com/san-kum/algoviz/internal/race"
)

const (
	racesDir  = "races"
	tracesDir = "traces"
)

// Store keeps race records and step traces under a base directory:
//
//	<base>/races/<id>.json
//	<base>/traces/<id>/metadata.json
//	<base>/traces/<id>/steps.csv
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	for _, dir := range []string{racesDir, tracesDir} {
		if err := os.MkdirAll(filepath.Join(s.baseDir, dir), 0755); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) SaveRace(rec race.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("race record has no id")
	}
	if err := os.MkdirAll(filepath.Join(s.baseDir, racesDir), 0755); err != nil {
		return err
	}
	return writeJSON(filepath.Join(s.baseDir, racesDir, rec.ID+".json"), rec)
}

// ListRaces returns the saved race records, newest first.
func (s *Store) ListRaces() ([]race.Record, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, racesDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []race.Record{}, nil
		}
		return nil, err
	}

	records := make([]race.Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		var rec race.Record
		if err := readJSON(filepath.Join(s.baseDir, racesDir, entry.Name()), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
	return records, nil
}

func (s *Store) LoadRace(id string) (*race.Record, error) {
	var rec race.Record
	if err := readJSON(filepath.Join(s.baseDir, racesDir, id+".json"), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

type TraceMetadata struct {
	ID        string             `json:"id"`
	Algorithm algo.ID            `json:"algorithm"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Speed     int                `json:"speed"`
	Input     []int              `json:"input"`
	Output    []int              `json:"output"`
	Target    *int               `json:"target,omitempty"`
	Found     int                `json:"found"`
	Steps     int                `json:"steps"`
	Canceled  bool               `json:"canceled"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// SaveTrace writes meta and the emitted steps, assigning an id when meta
// has none. It returns the id.
func (s *Store) SaveTrace(meta TraceMetadata, steps []algo.Step) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	meta.Steps = len(steps)

	runDir := filepath.Join(s.baseDir, tracesDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "steps.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"step", "progress", "active", "comparing", "sorted"}); err != nil {
		return "", err
	}
	for i, st := range steps {
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(st.Progress, 'f', 6, 64),
			joinIndices(st.Active),
			joinIndices(st.Comparing),
			joinIndices(st.Sorted),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	if err := csvFile.Close(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *Store) ListTraces() ([]TraceMetadata, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, tracesDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []TraceMetadata{}, nil
		}
		return nil, err
	}

	traces := make([]TraceMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		var meta TraceMetadata
		if err := readJSON(filepath.Join(s.baseDir, tracesDir, entry.Name(), "metadata.json"), &meta); err != nil {
			continue
		}
		traces = append(traces, meta)
	}

	sort.SliceStable(traces, func(i, j int) bool {
		return traces[i].Timestamp.After(traces[j].Timestamp)
	})
	return traces, nil
}

func (s *Store) LoadTrace(id string) (*TraceMetadata, error) {
	var meta TraceMetadata
	if err := readJSON(filepath.Join(s.baseDir, tracesDir, id, "metadata.json"), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSteps(id string) ([]algo.Step, error) {
	file, err := os.Open(filepath.Join(s.baseDir, tracesDir, id, "steps.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []algo.Step{}, nil
	}

	steps := make([]algo.Step, 0, len(records)-1)
	for i, record := range records[1:] {
		progress, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("steps.csv row %d: %w", i+1, err)
		}
		st := algo.Step{Progress: progress}
		if st.Active, err = splitIndices(record[2]); err != nil {
			return nil, fmt.Errorf("steps.csv row %d: %w", i+1, err)
		}
		if st.Comparing, err = splitIndices(record[3]); err != nil {
			return nil, fmt.Errorf("steps.csv row %d: %w", i+1, err)
		}
		if st.Sorted, err = splitIndices(record[4]); err != nil {
			return nil, fmt.Errorf("steps.csv row %d: %w", i+1, err)
		}
		steps = append(steps, st)
	}
	return steps, nil
}

func joinIndices(idx []int) string {
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ";")
}

func splitIndices(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ";")
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// writeJSON reports write and close failures alike.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
