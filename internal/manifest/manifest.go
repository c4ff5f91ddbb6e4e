// Package manifest decides which files feed which table.
//
// By default the CPDat release naming convention is used: DSSTox comes from
// DSSToxDump1.xlsx .. DSSToxDumpN.xlsx and every other table from
// <table>_<release>.csv. A YAML manifest can replace the convention:
//
//	tables:
//	  DSSTox: [DSSToxDump1.xlsx, DSSToxDump2.xlsx]
//	  HHE_data: [HHE_data_20201216.csv]
//
// Relative paths are resolved against the data directory.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/cpdsstox/internal/core"
)

// DefaultRelease is the file date stamp of the CPDat release.
const DefaultRelease = "20201216"

// DefaultDSSToxFiles is the number of DSSTox dump spreadsheets in a release.
const DefaultDSSToxFiles = 13

const dsstoxTable = "DSSTox"

// Manifest maps each table to its source files, relative to a data directory.
type Manifest struct {
	Tables map[string][]string `yaml:"tables"`
}

// Convention builds the manifest of a full release.
func Convention(release string, dsstoxFiles int) *Manifest {
	if release == "" {
		release = DefaultRelease
	}
	if dsstoxFiles <= 0 {
		dsstoxFiles = DefaultDSSToxFiles
	}

	m := &Manifest{Tables: make(map[string][]string, len(core.LoadOrder))}
	for _, table := range core.LoadOrder {
		if table == dsstoxTable {
			for i := 1; i <= dsstoxFiles; i++ {
				m.Tables[table] = append(m.Tables[table], fmt.Sprintf("DSSToxDump%d.xlsx", i))
			}
			continue
		}
		m.Tables[table] = []string{fmt.Sprintf("%s_%s.csv", table, release)}
	}
	return m
}

// Sample builds the manifest of the small sample data set.
func Sample() *Manifest {
	m := &Manifest{Tables: make(map[string][]string, len(core.LoadOrder))}
	for _, table := range core.LoadOrder {
		if table == dsstoxTable {
			m.Tables[table] = []string{"DSSTox_sample.xlsx"}
			continue
		}
		m.Tables[table] = []string{table + "_sample.csv"}
	}
	return m
}

// LoadFile reads a YAML manifest. Table names are not checked here; the
// pipeline rejects unknown tables before extraction.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse manifest %s: %v", core.ErrInvalidConfig, path, err)
	}
	if len(m.Tables) == 0 {
		return nil, fmt.Errorf("%w: manifest %s lists no tables", core.ErrInvalidConfig, path)
	}
	return &m, nil
}

// Files returns every relative file name in the manifest, in load order
// followed by any tables outside it.
func (m *Manifest) Files() []string {
	var files []string
	seen := make(map[string]bool)
	for _, table := range m.tableOrder() {
		for _, f := range m.Tables[table] {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files
}

// Resolve joins every file with dir and drops files that do not exist.
// It fails with core.ErrMissingInput when a table is left with no files.
// The dropped paths are returned so the caller can report them.
func (m *Manifest) Resolve(dir string) (core.Inputs, []string, error) {
	inputs := make(core.Inputs, len(m.Tables))
	var missing, empty []string

	for _, table := range m.tableOrder() {
		var present []string
		for _, f := range m.Tables[table] {
			path := f
			if !filepath.IsAbs(path) {
				path = filepath.Join(dir, f)
			}
			if _, err := os.Stat(path); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					missing = append(missing, path)
					continue
				}
				return nil, missing, &core.FatalError{Op: "plan", Path: path, Err: err}
			}
			present = append(present, path)
		}
		if len(present) == 0 {
			empty = append(empty, table)
			continue
		}
		inputs[table] = present
	}

	if len(empty) > 0 {
		return nil, missing, &core.FatalError{
			Op:  "plan",
			Err: fmt.Errorf("%w: no files for %s", core.ErrMissingInput, strings.Join(empty, ", ")),
		}
	}
	return inputs, missing, nil
}

// tableOrder lists LoadOrder tables present in the manifest, then any others
// sorted by name.
func (m *Manifest) tableOrder() []string {
	order := make([]string, 0, len(m.Tables))
	for _, t := range core.LoadOrder {
		if _, ok := m.Tables[t]; ok {
			order = append(order, t)
		}
	}

	var extra []string
	for t := range m.Tables {
		if !core.IsLoadable(t) {
			extra = append(extra, t)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}
