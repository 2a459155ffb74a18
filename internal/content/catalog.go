package content

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"ochem-lab-service/internal/domain"
)

//go:embed catalog/*.yaml
var builtin embed.FS

// document is the layout of one catalog file. A file may carry activities,
// paths or both.
type document struct {
	Activities []domain.Activity     `yaml:"activities"`
	Paths      []domain.LearningPath `yaml:"paths"`
}

// Catalog is the validated authoring content: activities and learning paths.
type Catalog struct {
	activities map[string]domain.Activity
	order      []string
	paths      []domain.LearningPath
}

// Builtin loads the catalog embedded in the binary.
func Builtin(ctx context.Context) (*Catalog, error) {
	sub, err := fs.Sub(builtin, "catalog")
	if err != nil {
		return nil, err
	}
	return LoadFS(ctx, sub)
}

// LoadDir loads every *.yaml file of dir.
func LoadDir(ctx context.Context, dir string) (*Catalog, error) {
	return LoadFS(ctx, os.DirFS(dir))
}

// LoadFS parses the *.yaml files of fsys concurrently and validates the result.
// Any authoring defect fails the whole load.
func LoadFS(ctx context.Context, fsys fs.FS) (*Catalog, error) {
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	docs := make([]document, len(names))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := fs.ReadFile(fsys, name)
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			if err := yaml.Unmarshal(raw, &docs[i]); err != nil {
				return fmt.Errorf("parse %s: %w", path.Base(name), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return build(names, docs)
}

func build(names []string, docs []document) (*Catalog, error) {
	c := &Catalog{activities: make(map[string]domain.Activity)}
	seenPaths := make(map[string]struct{})
	for i, doc := range docs {
		for _, a := range doc.Activities {
			if err := a.Validate(); err != nil {
				return nil, fmt.Errorf("%s: %w", names[i], err)
			}
			if _, dup := c.activities[a.ID]; dup {
				return nil, fmt.Errorf("%s: %w: duplicate activity id %s", names[i], domain.ErrMalformedStep, a.ID)
			}
			c.activities[a.ID] = a
			c.order = append(c.order, a.ID)
		}
		for _, p := range doc.Paths {
			if p.ID == "" || len(p.Modules) == 0 {
				return nil, fmt.Errorf("%s: %w: learning path %q has no id or modules", names[i], domain.ErrMalformedStep, p.ID)
			}
			if _, dup := seenPaths[p.ID]; dup {
				return nil, fmt.Errorf("%s: %w: duplicate path id %s", names[i], domain.ErrMalformedStep, p.ID)
			}
			seenPaths[p.ID] = struct{}{}
			c.paths = append(c.paths, p)
		}
	}
	for _, a := range c.activities {
		if a.PathID == "" {
			continue
		}
		if !c.hasModule(a.PathID, a.ModuleID) {
			return nil, fmt.Errorf("%w: activity %s references unknown module %s/%s", domain.ErrMalformedStep, a.ID, a.PathID, a.ModuleID)
		}
	}
	return c, nil
}

func (c *Catalog) hasModule(pathID, moduleID string) bool {
	for _, p := range c.paths {
		if p.ID == pathID {
			return p.HasModule(moduleID)
		}
	}
	return false
}

// LoadActivity makes the catalog usable as an activity loader.
func (c *Catalog) LoadActivity(_ context.Context, activityID string) (domain.Activity, error) {
	a, ok := c.activities[activityID]
	if !ok {
		return domain.Activity{}, domain.ErrActivityNotFound
	}
	return a, nil
}

// Activities returns the activities in file order.
func (c *Catalog) Activities() []domain.Activity {
	out := make([]domain.Activity, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.activities[id])
	}
	return out
}

func (c *Catalog) Paths() []domain.LearningPath {
	return append([]domain.LearningPath(nil), c.paths...)
}
