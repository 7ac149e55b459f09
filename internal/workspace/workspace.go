// Package workspace persists loaded datasets and the active filter between
// CLI invocations.
package workspace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/adcorr-cli/internal/session"
	"github.com/KaramelBytes/adcorr-cli/internal/utils"
)

const dataDirName = "data"

// Workspace is a named analysis persisted on disk.
type Workspace struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Datasets    map[string]*Dataset `json:"datasets"`
	Period      string              `json:"period"`
	Metric      string              `json:"metric"`
	Settings    *Settings           `json:"settings"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`

	rootDir string
}

// Settings override global parsing defaults for this workspace. Empty fields inherit.
type Settings struct {
	DateOrder        string `json:"date_order,omitempty"`
	DecimalSeparator string `json:"decimal_separator,omitempty"`
}

// Dataset records one stored upload. The raw file is copied into the
// workspace so the analysis can be rebuilt later.
type Dataset struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Name     string    `json:"name"`
	File     string    `json:"file"`
	Origin   string    `json:"origin"`
	Rows     int       `json:"rows"`
	Skipped  int       `json:"skipped"`
	Columns  []string  `json:"columns,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}

// New constructs an in-memory workspace. Call Save to persist.
func New(name, description, rootDir string) *Workspace {
	now := time.Now()
	return &Workspace{
		Name:        name,
		Description: description,
		Datasets:    make(map[string]*Dataset),
		Period:      "all",
		Settings:    &Settings{},
		CreatedAt:   now,
		UpdatedAt:   now,
		rootDir:     rootDir,
	}
}

// Load reads workspace.json from dir.
func Load(dir string) (*Workspace, error) {
	path := filepath.Join(dir, utils.WorkspaceFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("workspace not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	var w Workspace
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("parse workspace: %w", err)
	}
	if w.Datasets == nil {
		w.Datasets = make(map[string]*Dataset)
	}
	if w.Settings == nil {
		w.Settings = &Settings{}
	}
	w.rootDir = dir
	return &w, nil
}

// RootDir returns the on-disk workspace directory.
func (w *Workspace) RootDir() string { return w.rootDir }

// Save writes workspace.json atomically.
func (w *Workspace) Save() error {
	if w.rootDir == "" {
		return errors.New("workspace root directory not set")
	}
	if err := utils.EnsureDir(w.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	w.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(w)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(w.rootDir, utils.WorkspaceFileName), data)
}

// AddDataset validates the file at path by loading it into s for source, then stores a
// copy and replaces any earlier dataset for that source. source is
// session.OrdersSource or a platform name.
func (w *Workspace) AddDataset(s *session.Session, source, path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	name := filepath.Base(path)
	if source != session.OrdersSource {
		source = s.CanonicalPlatform(source)
	}
	ds := &Dataset{ID: uuid.NewString(), Source: source, Name: name, Origin: path, LoadedAt: time.Now()}
	if err := loadInto(s, source, name, raw, ds); err != nil {
		return nil, err
	}

	dataDir := filepath.Join(w.rootDir, dataDirName)
	if err := utils.EnsureDir(dataDir); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	ds.File = filepath.Join(dataDirName, ds.ID+strings.ToLower(filepath.Ext(name)))
	if err := utils.SafeWriteFile(filepath.Join(w.rootDir, ds.File), raw); err != nil {
		return nil, fmt.Errorf("store dataset: %w", err)
	}
	if prev := w.Dataset(source); prev != nil {
		_ = os.Remove(filepath.Join(w.rootDir, prev.File))
		delete(w.Datasets, prev.ID)
	}
	w.Datasets[ds.ID] = ds
	w.UpdatedAt = time.Now()
	return ds, nil
}

func loadInto(s *session.Session, source, name string, raw []byte, ds *Dataset) error {
	if source == session.OrdersSource {
		res, err := s.LoadOrders(name, bytes.NewReader(raw))
		if err != nil {
			return err
		}
		ds.Rows, ds.Skipped = len(res.Rows), res.Skipped
		return nil
	}
	res, err := s.LoadPlatform(source, name, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	ds.Rows, ds.Skipped, ds.Columns = len(res.Rows), res.Skipped, res.Columns
	return nil
}

// Dataset returns the stored dataset for source, or nil.
func (w *Workspace) Dataset(source string) *Dataset {
	for _, ds := range w.Datasets {
		if strings.EqualFold(ds.Source, source) {
			return ds
		}
	}
	return nil
}

// Sorted lists datasets with orders first, then platforms by name.
func (w *Workspace) Sorted() []*Dataset {
	out := make([]*Dataset, 0, len(w.Datasets))
	for _, ds := range w.Datasets {
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := out[i].Source == session.OrdersSource, out[j].Source == session.OrdersSource
		if oi != oj {
			return oi
		}
		return out[i].Source < out[j].Source
	})
	return out
}

// Restore replays every stored dataset into s and applies the saved filter.
func (w *Workspace) Restore(s *session.Session) error {
	for _, ds := range w.Sorted() {
		raw, err := os.ReadFile(filepath.Join(w.rootDir, ds.File))
		if err != nil {
			return fmt.Errorf("read stored dataset %s: %w", ds.Name, err)
		}
		if err := loadInto(s, ds.Source, ds.Name, raw, ds); err != nil {
			return err
		}
	}
	s.SetPeriod(w.Period)
	if w.Metric != "" {
		s.SetMetric(w.Metric)
	}
	return nil
}
