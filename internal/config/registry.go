package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/ski-status/internal/resort"
	"github.com/pfrederiksen/ski-status/internal/strategy"
)

//go:embed resorts.yaml
var defaultRegistry []byte

var validate = validator.New()

// Registry is the resort list as written in the registry file
type Registry struct {
	Resorts []ResortConfig `yaml:"resorts" validate:"required,min=1,unique=ID,dive"`
}

// ResortConfig describes one resort
type ResortConfig struct {
	ID           string          `yaml:"id" validate:"required"`
	Name         string          `yaml:"name"`
	URL          string          `yaml:"url" validate:"required,url"`
	TotalCourses int             `yaml:"total_courses" validate:"gte=0"`
	Strategy     *StrategyConfig `yaml:"strategy,omitempty"`
}

// StrategyConfig is the declarative form of a site strategy
type StrategyConfig struct {
	Kind     string       `yaml:"kind" validate:"required,oneof=labeled_cell definition_list scoped"`
	Selector string       `yaml:"selector,omitempty"`
	Labels   LabelsConfig `yaml:"labels,omitempty"`
}

// LabelsConfig names the labels structural strategies look for
type LabelsConfig struct {
	Snow    string `yaml:"snow,omitempty"`
	Status  string `yaml:"status,omitempty"`
	Courses string `yaml:"courses,omitempty"`
}

// DefaultRegistry returns the built-in resort list.
func DefaultRegistry() (*Registry, error) {
	return ParseRegistry(defaultRegistry)
}

// LoadRegistry reads the registry file at path. An empty path selects the
// built-in resort list.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	reg, err := ParseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// ParseRegistry decodes and validates a registry document.
func ParseRegistry(data []byte) (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}

	for i := range reg.Resorts {
		r := &reg.Resorts[i]
		r.ID = strings.TrimSpace(r.ID)
		r.URL = strings.TrimSpace(r.URL)
	}

	if err := validate.Struct(reg); err != nil {
		return nil, fmt.Errorf("invalid registry: %w", describe(err))
	}

	// Catch malformed selectors and missing labels at load time
	if _, err := reg.Strategies(); err != nil {
		return nil, fmt.Errorf("invalid registry: %w", err)
	}
	return &reg, nil
}

// Sources returns the resorts as extraction sources, in file order.
func (r *Registry) Sources() []resort.Source {
	if r == nil {
		return nil
	}
	sources := make([]resort.Source, 0, len(r.Resorts))
	for _, rc := range r.Resorts {
		sources = append(sources, resort.Source{
			ID:           rc.ID,
			Name:         rc.Name,
			URL:          rc.URL,
			TotalCourses: rc.TotalCourses,
		})
	}
	return sources
}

// Strategies builds the site strategy registry: the built-in strategies,
// overridden by any strategy declared in the file.
func (r *Registry) Strategies() (*strategy.Registry, error) {
	sites := strategy.Builtin()
	if r == nil {
		return sites, nil
	}
	for _, rc := range r.Resorts {
		if rc.Strategy == nil {
			continue
		}
		site, err := strategy.NewSite(strategy.SiteSpec{
			Kind:     rc.Strategy.Kind,
			Selector: rc.Strategy.Selector,
			Labels: strategy.Labels{
				Snow:    rc.Strategy.Labels.Snow,
				Status:  rc.Strategy.Labels.Status,
				Courses: rc.Strategy.Labels.Courses,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("resort %s: %w", rc.ID, err)
		}
		sites.Register(rc.ID, site)
	}
	return sites, nil
}

// Find returns the resort with the given ID.
func (r *Registry) Find(id string) (ResortConfig, bool) {
	if r == nil {
		return ResortConfig{}, false
	}
	for _, rc := range r.Resorts {
		if rc.ID == id {
			return rc, true
		}
	}
	return ResortConfig{}, false
}

// describe turns validator errors into one readable line.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Registry.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
