package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/san-kum/ctrlib/internal/config"
	"github.com/san-kum/ctrlib/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
	configFile   = "config.yaml"
)

// ErrRunNotFound indicates an unknown run identifier.
var ErrRunNotFound = errors.New("storage: run not found")

// Store keeps one directory per run under baseDir.
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
	Robot      string             `json:"robot"`
	Joints     []string           `json:"joints"`
	Mode       string             `json:"mode"`
	Space      string             `json:"space"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Controller string             `json:"controller"`
	Steps      int                `json:"steps"`
	Metrics    map[string]float64 `json:"metrics"`
}

// MetadataFor describes a run of cfg.
func MetadataFor(cfg *config.Config, joints []string, result *sim.Result) RunMetadata {
	return RunMetadata{
		Robot:      cfg.Robot.Name,
		Joints:     slices.Clone(joints),
		Mode:       cfg.Mode,
		Space:      cfg.Impedance.Space,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Controller: cfg.Controller,
		Steps:      result.StepsTaken,
		Metrics:    result.Metrics,
	}
}

// Columns returns the CSV header of a run over joints: time, then the
// position, velocity and torque of every joint.
func Columns(joints []string) []string {
	header := []string{"time"}
	for _, prefix := range []string{"q", "dq", "tau"} {
		for _, j := range joints {
			header = append(header, prefix+"_"+j)
		}
	}
	return header
}

// Save writes the metadata, the configuration and the trajectory of a run and
// returns its identifier.
func (s *Store) Save(meta RunMetadata, cfg *config.Config, result *sim.Result) (string, error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%s_%d", meta.Robot, meta.Mode, now.UnixNano())
	meta.Timestamp = now
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if cfg != nil {
		if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
			return "", err
		}
	}

	csvFile, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()
	if err := writeStates(csvFile, meta.Joints, result); err != nil {
		return "", err
	}
	return meta.ID, csvFile.Close()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

func writeStates(out io.Writer, joints []string, result *sim.Result) error {
	w := csv.NewWriter(out)
	header := Columns(joints)
	if err := w.Write(header); err != nil {
		return err
	}

	n := len(joints)
	for i := range result.States {
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatFloat(result.Times[i], 'f', 6, 64))
		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		// the final state has no control applied
		if i < len(result.Controls) {
			for _, val := range result.Controls[i] {
				row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
			}
		} else {
			for j := 0; j < n; j++ {
				row = append(row, "0")
			}
		}
		if len(row) != len(header) {
			return fmt.Errorf("storage: row %d has %d columns, header has %d", i, len(row), len(header))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
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

	slices.SortFunc(runs, func(a, b RunMetadata) int { return a.Timestamp.Compare(b.Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: decode %s metadata: %w", runID, err)
	}
	return &meta, nil
}

// LoadConfig returns the configuration a run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// Trajectory is the tabular content of a run.
type Trajectory struct {
	Columns []string
	Times   []float64
	Rows    [][]float64
}

// Column returns the values of the named column over time.
func (t *Trajectory) Column(name string) ([]float64, error) {
	idx := slices.Index(t.Columns, name)
	if idx < 1 {
		return nil, fmt.Errorf("storage: no column %q in %v", name, t.Columns)
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx-1]
	}
	return out, nil
}

func (s *Store) LoadStates(runID string) (*Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("storage: %s has no header", runID)
	}

	traj := &Trajectory{
		Columns: records[0],
		Times:   make([]float64, 0, len(records)-1),
		Rows:    make([][]float64, 0, len(records)-1),
	}
	for i, record := range records[1:] {
		values := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s row %d column %s: %w", runID, i+1, traj.Columns[j], err)
			}
			values[j] = v
		}
		traj.Times = append(traj.Times, values[0])
		traj.Rows = append(traj.Rows, values[1:])
	}
	return traj, nil
}

type ExportData struct {
	RunMetadata
	Columns []string    `json:"columns"`
	Times   []float64   `json:"times"`
	Rows    [][]float64 `json:"rows"`
}

// Export writes a run as a single JSON document.
func (s *Store) Export(runID string, out io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	traj, err := s.LoadStates(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{
		RunMetadata: *meta,
		Columns:     traj.Columns[1:],
		Times:       traj.Times,
		Rows:        traj.Rows,
	})
}
