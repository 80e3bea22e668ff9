package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/san-kum/pathsim/internal/dynamo"
	"github.com/san-kum/pathsim/internal/trajectory"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv.zst"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

type RunMetadata struct {
	ID          string             `json:"id"`
	Model       string             `json:"model"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	FrameDt     float64            `json:"frame_dt"`
	Integrator  string             `json:"integrator"`
	Temperature float64            `json:"temperature"`
	Friction    float64            `json:"friction"`
	Ensemble    string             `json:"ensemble"`
	States      []string           `json:"states"`
	PathLength  int                `json:"path_length"`
	SeedLength  int                `json:"seed_length"`
	Attempts    int                `json:"attempts"`
	MaxLen      int                `json:"max_len"`
	Frames      int                `json:"frames"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes meta and the frames of traj into a new run directory and
// returns the run id. ID, Timestamp and Frames are filled in here. The
// metadata is written last, so List never sees a run whose frames are
// missing; on failure the run directory is removed.
func (s *Store) Save(meta RunMetadata, traj trajectory.Trajectory) (id string, err error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Model, now.UnixNano())
	meta.Timestamp = now
	meta.Frames = traj.Len()

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
		}
	}()

	if err = writeFrames(filepath.Join(runDir, framesFile), traj); err != nil {
		return "", fmt.Errorf("storage: write frames: %w", err)
	}
	if err = writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", fmt.Errorf("storage: write metadata: %w", err)
	}
	return meta.ID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeFrames(path string, traj trajectory.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		f.Close()
		return err
	}
	if err := encodeFrames(zw, traj); err != nil {
		zw.Close()
		f.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeFrames(out io.Writer, traj trajectory.Trajectory) error {
	w := csv.NewWriter(out)
	if !traj.IsEmpty() {
		dim := len(traj.First().State)
		header := []string{"time"}
		for i := 0; i < dim/2; i++ {
			header = append(header, fmt.Sprintf("q%d", i))
		}
		for i := 0; i < dim/2; i++ {
			header = append(header, fmt.Sprintf("p%d", i))
		}
		if err := w.Write(header); err != nil {
			return err
		}

		row := make([]string, dim+1)
		for _, frame := range traj.Frames() {
			row = row[:1]
			row[0] = strconv.FormatFloat(frame.Time, 'g', -1, 64)
			for _, val := range frame.State {
				row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the metadata of every run, oldest first. Directories without
// readable metadata are skipped.
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
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: decode metadata of %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadTrajectory reads the frames of a run back. Values round-trip exactly.
func (s *Store) LoadTrajectory(runID string) (trajectory.Trajectory, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return trajectory.Trajectory{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return trajectory.Trajectory{}, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return trajectory.Trajectory{}, err
	}
	defer zr.Close()

	r := csv.NewReader(zr)
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return trajectory.Trajectory{}, nil
		}
		return trajectory.Trajectory{}, err
	}

	var frames []trajectory.Snapshot
	for line := 2; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return trajectory.Trajectory{}, err
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return trajectory.Trajectory{}, fmt.Errorf("storage: line %d: %w", line, err)
		}
		state := make(dynamo.State, len(record)-1)
		for j := range state {
			if state[j], err = strconv.ParseFloat(record[j+1], 64); err != nil {
				return trajectory.Trajectory{}, fmt.Errorf("storage: line %d: %w", line, err)
			}
		}
		frames = append(frames, trajectory.Snapshot{State: state, Time: t})
	}
	return trajectory.Wrap(frames), nil
}
