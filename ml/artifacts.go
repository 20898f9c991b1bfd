package ml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Artifact kinds, in load order.
const (
	ArtifactModel   = "model"
	ArtifactScaler  = "scaler"
	ArtifactColumns = "column list"
)

// Default file names inside the artifact directory.
const (
	DefaultModelFile   = "churn_model.json"
	DefaultScalerFile  = "scaler.json"
	DefaultColumnsFile = "processed_columns.json"
)

// Paths locates the three artifacts.
type Paths struct {
	Dir       string
	Model     string
	Scaler    string
	Columns   string
	ModelType string
}

func DefaultPaths(dir string) Paths {
	return Paths{
		Dir:     dir,
		Model:   DefaultModelFile,
		Scaler:  DefaultScalerFile,
		Columns: DefaultColumnsFile,
	}
}

func (p Paths) resolve(name string) string {
	if filepath.IsAbs(name) || p.Dir == "" {
		return name
	}
	return filepath.Join(p.Dir, name)
}

func (p Paths) ModelPath() string   { return p.resolve(p.Model) }
func (p Paths) ScalerPath() string  { return p.resolve(p.Scaler) }
func (p Paths) ColumnsPath() string { return p.resolve(p.Columns) }

// Files lists the resolved artifact paths in load order.
func (p Paths) Files() []string {
	return []string{p.ModelPath(), p.ScalerPath(), p.ColumnsPath()}
}

// ArtifactError reports which artifact could not be loaded.
type ArtifactError struct {
	Artifact string
	Path     string
	Missing  bool
	Err      error
}

func (e *ArtifactError) Error() string {
	if e.Missing {
		return fmt.Sprintf("%s file '%s' not found. Please ensure it's in the artifact directory.",
			title(e.Artifact), filepath.Base(e.Path))
	}
	return fmt.Sprintf("Error loading %s '%s': %v", e.Artifact, filepath.Base(e.Path), e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Artifacts is the read-only context every prediction runs against.
// Nothing in it is mutated after LoadArtifacts returns.
type Artifacts struct {
	Model    Classifier
	Scaler   *Scaler
	Columns  []string
	Version  string
	LoadedAt time.Time
	Paths    Paths
}

// LoadArtifacts loads model, scaler and column list, in that order. The
// first failure is returned as an *ArtifactError and nothing else is kept.
func LoadArtifacts(paths Paths) (*Artifacts, error) {
	digest := xxhash.New()

	modelBytes, err := readArtifact(ArtifactModel, paths.ModelPath())
	if err != nil {
		return nil, err
	}
	model, err := DecodeModel(paths.ModelType, modelBytes)
	if err != nil {
		return nil, &ArtifactError{Artifact: ArtifactModel, Path: paths.ModelPath(), Err: err}
	}
	digest.Write(modelBytes)

	scalerBytes, err := readArtifact(ArtifactScaler, paths.ScalerPath())
	if err != nil {
		return nil, err
	}
	scaler, err := DecodeScaler(scalerBytes)
	if err != nil {
		return nil, &ArtifactError{Artifact: ArtifactScaler, Path: paths.ScalerPath(), Err: err}
	}
	digest.Write(scalerBytes)

	columnBytes, err := readArtifact(ArtifactColumns, paths.ColumnsPath())
	if err != nil {
		return nil, err
	}
	columns, err := DecodeColumns(columnBytes)
	if err != nil {
		return nil, &ArtifactError{Artifact: ArtifactColumns, Path: paths.ColumnsPath(), Err: err}
	}
	digest.Write(columnBytes)

	if err := checkScaler(scaler, columns); err != nil {
		return nil, &ArtifactError{Artifact: ArtifactScaler, Path: paths.ScalerPath(), Err: err}
	}
	if err := checkModel(model, columns); err != nil {
		return nil, &ArtifactError{Artifact: ArtifactModel, Path: paths.ModelPath(), Err: err}
	}

	return &Artifacts{
		Model:    model,
		Scaler:   scaler,
		Columns:  columns,
		Version:  fmt.Sprintf("%016x", digest.Sum64()),
		LoadedAt: time.Now().UTC(),
		Paths:    paths,
	}, nil
}

func readArtifact(kind, path string) ([]byte, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactError{
			Artifact: kind,
			Path:     path,
			Missing:  errors.Is(err, fs.ErrNotExist),
			Err:      err,
		}
	}
	return payload, nil
}

func checkScaler(scaler *Scaler, columns []string) error {
	known := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		known[col] = struct{}{}
	}
	for _, col := range scaler.Features() {
		if _, ok := known[col]; !ok {
			return fmt.Errorf("scaled column %q is not in the column list", col)
		}
	}
	return nil
}

func checkModel(model Classifier, columns []string) error {
	if names := model.Features(); names != nil {
		if len(names) != len(columns) {
			return fmt.Errorf("model fit on %d columns, column list has %d", len(names), len(columns))
		}
		for i := range names {
			if names[i] != columns[i] {
				return fmt.Errorf("model column %d is %q, column list has %q", i, names[i], columns[i])
			}
		}
		return nil
	}
	n := model.NumFeatures()
	if _, linear := model.(*LogisticRegression); linear && n != len(columns) {
		return fmt.Errorf("model has %d coefficients, column list has %d", n, len(columns))
	}
	if n > len(columns) {
		return fmt.Errorf("model expects %d features, column list has %d", n, len(columns))
	}
	return nil
}
