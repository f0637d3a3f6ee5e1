package scoring

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/cogscreen/internal/analysis"
)

// CalibrationProfile overrides entries of the default tables. Features not
// listed keep their default range and weight.
type CalibrationProfile struct {
	Description string                           `json:"description,omitempty"`
	Ranges      map[analysis.FeatureName]Range   `json:"ranges,omitempty"`
	Weights     map[analysis.FeatureName]float64 `json:"weights,omitempty"`
}

// CalibrationStore manages calibration profiles stored as JSON files
type CalibrationStore struct {
	dataDir string
}

// NewCalibrationStore creates a new calibration store
func NewCalibrationStore(dataDir string) *CalibrationStore {
	return &CalibrationStore{dataDir: dataDir}
}

// LoadTables merges the named profile into the default tables. An empty
// profile name or a missing file yields the defaults.
func (c *CalibrationStore) LoadTables(profile string) (Tables, error) {
	tables := DefaultTables()
	if profile == "" {
		return tables, nil
	}

	p, err := c.LoadProfile(profile)
	if err != nil {
		return Tables{}, err
	}
	if p == nil {
		return tables, nil
	}

	for name, r := range p.Ranges {
		tables.Ranges[name] = r
	}
	for name, w := range p.Weights {
		tables.Weights[name] = w
	}

	if err := tables.Validate(); err != nil {
		return Tables{}, fmt.Errorf("invalid calibration profile %s: %w", profile, err)
	}
	return tables, nil
}

// LoadProfile reads a profile; nil without error when it does not exist.
func (c *CalibrationStore) LoadProfile(profile string) (*CalibrationProfile, error) {
	filePath := c.profilePath(profile)

	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open calibration file: %w", err)
	}
	defer file.Close()

	var p CalibrationProfile
	if err := json.NewDecoder(file).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode calibration profile: %w", err)
	}

	return &p, nil
}

// SaveProfile writes a profile as indented JSON.
func (c *CalibrationStore) SaveProfile(profile string, p *CalibrationProfile) error {
	if err := os.MkdirAll(c.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create calibration directory: %w", err)
	}

	file, err := os.Create(c.profilePath(profile))
	if err != nil {
		return fmt.Errorf("failed to create calibration file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(p); err != nil {
		return fmt.Errorf("failed to encode calibration profile: %w", err)
	}

	return nil
}

func (c *CalibrationStore) profilePath(profile string) string {
	return filepath.Join(c.dataDir, fmt.Sprintf("%s.json", filepath.Base(profile)))
}
