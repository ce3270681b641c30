package project

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// ErrNoInventory is returned when no inventory file could be found at all.
var ErrNoInventory = errors.New("no inventory files found")

// Extractor produces the per-module inventories of a build.
type Extractor interface {
	Extract(ctx context.Context) ([]*Info, error)
}

// Options shape the extracted inventories before submission.
type Options struct {
	IgnoredScopes []string
	Includes      []string
	Excludes      []string

	ProjectToken string
	ModuleTokens map[string]string

	AggregateModules      bool
	AggregateProjectName  string
	AggregateProjectToken string
}

// InventoryExtractor reads inventories written by the dependency scanner.
type InventoryExtractor struct {
	RootDir  string
	Files    []string // explicit files; when set, Patterns are not searched
	Patterns []string // globs relative to RootDir
	Options  Options
	Log      logrus.FieldLogger
}

// Extract loads every inventory file and applies the configured filters.
// The result keeps the order of the files, then the order within each file.
func (e *InventoryExtractor) Extract(ctx context.Context) ([]*Info, error) {
	files, err := e.collectFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoInventory
	}

	loaded := make([][]*Info, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			infos, err := LoadFile(path)
			if err != nil {
				return err
			}
			loaded[i] = infos
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var infos []*Info
	for i, batch := range loaded {
		if e.Log != nil {
			e.Log.Debugf("Read %d module(s) from %s", len(batch), files[i])
		}
		infos = append(infos, batch...)
	}
	return e.Options.Apply(infos), nil
}

// collectFiles returns the explicit files, or the files under RootDir
// matching Patterns, sorted.
func (e *InventoryExtractor) collectFiles() ([]string, error) {
	if len(e.Files) > 0 {
		return e.Files, nil
	}
	if len(e.Patterns) == 0 {
		return nil, nil
	}

	root := e.RootDir
	if root == "" {
		root = "."
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if matchAny(e.Patterns, filepath.ToSlash(rel)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching inventory files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// LoadFile decodes an inventory file holding either a single module or a
// list of modules. The format follows the extension: .json, .yaml/.yml, .toml.
func LoadFile(path string) ([]*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading inventory: %w", err)
	}

	var infos []*Info
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		infos, err = decodeJSON(data)
	case ".yaml", ".yml":
		infos, err = decodeYAML(data)
	case ".toml":
		infos, err = decodeTOML(data)
	default:
		return nil, fmt.Errorf("inventory %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("inventory %s: %w", path, err)
	}

	for i, info := range infos {
		if info == nil || info.Coordinates.ArtifactID == "" {
			return nil, fmt.Errorf("inventory %s: module %d has no artifact id", path, i)
		}
	}
	return infos, nil
}

func decodeJSON(data []byte) ([]*Info, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var infos []*Info
		if err := json.Unmarshal(trimmed, &infos); err != nil {
			return nil, err
		}
		return infos, nil
	}
	var info Info
	if err := json.Unmarshal(trimmed, &info); err != nil {
		return nil, err
	}
	return []*Info{&info}, nil
}

func decodeYAML(data []byte) ([]*Info, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	if node.Content[0].Kind == yaml.SequenceNode {
		var infos []*Info
		if err := node.Decode(&infos); err != nil {
			return nil, err
		}
		return infos, nil
	}
	var info Info
	if err := node.Decode(&info); err != nil {
		return nil, err
	}
	return []*Info{&info}, nil
}

// decodeTOML accepts either [[projects]] tables or a single top-level module.
func decodeTOML(data []byte) ([]*Info, error) {
	var doc struct {
		Projects []*Info `toml:"projects"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Projects) > 0 {
		return doc.Projects, nil
	}
	var info Info
	if err := toml.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return []*Info{&info}, nil
}
