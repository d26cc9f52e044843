package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/vorax/internal/errors"
	"gopkg.in/yaml.v3"
)

// AddProfile writes p into the profiles file at configPath, replacing a
// profile of the same name. The file and its directory are created when
// missing. Existing comments and ordering are preserved.
func AddProfile(configPath string, p Profile) error {
	if err := ValidateProfile(p); err != nil {
		return err
	}

	root, err := readDocument(configPath)
	if err != nil {
		return err
	}
	doc := root.Content[0]

	profiles := findMapValue(doc, "profiles")
	if profiles == nil || profiles.Kind != yaml.MappingNode {
		if profiles == nil {
			profiles = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			doc.Content = append(doc.Content, scalar("profiles"), profiles)
		} else {
			*profiles = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		}
	}

	var value yaml.Node
	if err := value.Encode(p); err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	if existing := findMapValue(profiles, p.Name); existing != nil {
		*existing = value
	} else {
		profiles.Content = append(profiles.Content, scalar(p.Name), &value)
	}

	if def := findMapValue(doc, "default"); def == nil {
		doc.Content = append(doc.Content, scalar("default"), scalar(p.Name))
	}

	return writeDocument(configPath, root)
}

// SetDefault makes name the default profile. The profile must already be in
// the file.
func SetDefault(configPath, name string) error {
	root, err := readDocument(configPath)
	if err != nil {
		return err
	}
	doc := root.Content[0]

	profiles := findMapValue(doc, "profiles")
	if profiles == nil || findMapValue(profiles, name) == nil {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Profile '%s' not found in %s", name, configPath),
			"Add it first with 'vorax profile add "+name+"'.")
	}

	if def := findMapValue(doc, "default"); def != nil {
		*def = *scalar(name)
	} else {
		doc.Content = append(doc.Content, scalar("default"), scalar(name))
	}
	return writeDocument(configPath, root)
}

// RemoveProfile deletes the named profile. It reports whether the profile
// existed. Removing the default profile also clears the default.
func RemoveProfile(configPath, name string) (bool, error) {
	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	root, err := readDocument(configPath)
	if err != nil {
		return false, err
	}
	doc := root.Content[0]

	profiles := findMapValue(doc, "profiles")
	if profiles == nil || !deleteMapKey(profiles, name) {
		return false, nil
	}

	if def := findMapValue(doc, "default"); def != nil && def.Value == name {
		deleteMapKey(doc, "default")
	}

	return true, writeDocument(configPath, root)
}

// readDocument parses configPath into a document node with a mapping at its
// root. A missing or empty file yields a fresh document.
func readDocument(configPath string) (*yaml.Node, error) {
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var root yaml.Node
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to parse profiles file",
				"Check the YAML syntax in "+configPath)
		}
	}

	if root.Kind == 0 {
		root = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{{
				Kind: yaml.MappingNode,
				Tag:  "!!map",
				Content: []*yaml.Node{
					scalar("version"),
					{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(CurrentConfigVersion)},
				},
			}},
		}
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("invalid YAML document structure")
	}
	if root.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New(errors.ErrConfig,
			"Profiles file does not hold a mapping",
			"The top level of "+configPath+" should have 'version', 'default' and 'profiles' keys.")
	}
	return &root, nil
}

func writeDocument(configPath string, root *yaml.Node) error {
	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(buf.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		if k := node.Content[i]; k.Kind == yaml.ScalarNode && k.Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func deleteMapKey(node *yaml.Node, key string) bool {
	if node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		if k := node.Content[i]; k.Kind == yaml.ScalarNode && k.Value == key {
			node.Content = append(node.Content[:i], node.Content[i+2:]...)
			return true
		}
	}
	return false
}
