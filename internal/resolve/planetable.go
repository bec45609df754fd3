package resolve

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/loftcad-labs/loftcad-go/internal/platform/env"
)

// StandardPlaneEntry maps one logical standard-plane name to the identifier
// the service recognizes for it.
type StandardPlaneEntry struct {
	Name string `yaml:"name"`
	ID   string `yaml:"id"`
}

// PlaneTable is the authoritative standard-plane identifier table. The
// source systems disagreed on these constants, so the table is configuration
// rather than code: the compiled-in defaults can be replaced wholesale from
// a yaml file. Order is significant: the first entry is the fallback
// selection when no plane was chosen at all.
type PlaneTable struct {
	Planes []StandardPlaneEntry `yaml:"planes"`
}

// DefaultPlaneTable returns the compiled-in TOP/FRONT/RIGHT table.
func DefaultPlaneTable() PlaneTable {
	return PlaneTable{Planes: []StandardPlaneEntry{
		{Name: "TOP", ID: "JHD"},
		{Name: "FRONT", ID: "JFD"},
		{Name: "RIGHT", ID: "JGD"},
	}}
}

// PlaneTableFromEnv loads the table from the file named by CAD_PLANE_TABLE,
// falling back to the compiled-in defaults when the variable is unset.
func PlaneTableFromEnv() (PlaneTable, error) {
	path := strings.TrimSpace(env.String("CAD_PLANE_TABLE", ""))
	if path == "" {
		return DefaultPlaneTable(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return PlaneTable{}, fmt.Errorf("read plane table: %w", err)
	}
	return ParsePlaneTable(raw)
}

func ParsePlaneTable(input []byte) (PlaneTable, error) {
	var table PlaneTable
	if err := yaml.Unmarshal(input, &table); err != nil {
		return PlaneTable{}, fmt.Errorf("decode plane table: %w", err)
	}
	if err := table.Validate(); err != nil {
		return PlaneTable{}, err
	}
	return table, nil
}

func (t PlaneTable) Validate() error {
	if len(t.Planes) == 0 {
		return errors.New("plane table must list at least one plane")
	}
	seen := make(map[string]bool, len(t.Planes))
	for _, entry := range t.Planes {
		name := strings.ToUpper(strings.TrimSpace(entry.Name))
		if name == "" {
			return errors.New("plane table entry name is required")
		}
		if strings.TrimSpace(entry.ID) == "" {
			return fmt.Errorf("plane table entry %q: id is required", entry.Name)
		}
		if seen[name] {
			return fmt.Errorf("plane table entry %q duplicated", entry.Name)
		}
		seen[name] = true
	}
	return nil
}

// Lookup returns the entry for a logical name, case-insensitively.
func (t PlaneTable) Lookup(name string) (StandardPlaneEntry, bool) {
	for _, entry := range t.Planes {
		if strings.EqualFold(entry.Name, strings.TrimSpace(name)) {
			return entry, true
		}
	}
	return StandardPlaneEntry{}, false
}
