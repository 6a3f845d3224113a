package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"gopkg.in/yaml.v3"
)

//go:embed groups.yml
var builtInGroups []byte

// GroupFixture is one entry of a groups YAML file.
type GroupFixture struct {
	Slug        string `yaml:"slug"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type groupFile struct {
	Groups []GroupFixture `yaml:"groups"`
}

// LoadGroups decodes a groups YAML document. Unknown keys are rejected.
func LoadGroups(r io.Reader) ([]models.Group, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file groupFile
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode groups: %w", err)
	}

	groups := make([]models.Group, 0, len(file.Groups))
	for _, g := range file.Groups {
		groups = append(groups, models.Group{Slug: g.Slug, Title: g.Title, Description: g.Description})
	}
	return groups, nil
}

// LoadGroupsFile reads groups from a YAML file on disk.
func LoadGroupsFile(path string) ([]models.Group, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return LoadGroups(f)
}

// BuiltInGroups returns the groups shipped with the binary.
func BuiltInGroups() []models.Group {
	groups, err := LoadGroups(bytes.NewReader(builtInGroups))
	if err != nil {
		panic(fmt.Sprintf("seed: embedded groups.yml is invalid: %v", err))
	}
	return groups
}

// Groups upserts the built-in groups by slug.
func Groups(ctx context.Context, groups *service.GroupService) error {
	return groups.ImportGroups(ctx, BuiltInGroups())
}
