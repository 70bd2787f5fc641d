package localization

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File and directory names of a localization directory.
const (
	ReadmeFile    = "readme.md"
	AnswersFile   = "answers.yaml"
	SpaceFile     = "space.md"
	NodeDirectory = "nodes"
)

// WriteDir writes b as a localization directory at dir. The directory must
// not exist yet.
func WriteDir(dir string, b *Bundle) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("localization directory %q already exists", dir)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %q: %w", dir, err)
	}
	if err := os.MkdirAll(filepath.Join(dir, NodeDirectory), 0o755); err != nil {
		return fmt.Errorf("failed to create localization directory: %w", err)
	}

	if err := writeFile(filepath.Join(dir, ReadmeFile), b.Readme()); err != nil {
		return err
	}

	answers := yaml.Node{Kind: yaml.MappingNode}
	for _, a := range b.Answers {
		answers.Content = append(answers.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: a.ID, Style: yaml.DoubleQuotedStyle},
			&yaml.Node{Kind: yaml.ScalarNode, Value: a.Text, Style: yaml.DoubleQuotedStyle},
		)
	}
	data, err := yaml.Marshal(&answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}
	if err := writeFile(filepath.Join(dir, AnswersFile), string(data)); err != nil {
		return err
	}

	var space strings.Builder
	for _, e := range b.Space {
		fmt.Fprintf(&space, "# %s\n%s\n\n", e.ID, e.Text)
	}
	if err := writeFile(filepath.Join(dir, SpaceFile), space.String()); err != nil {
		return err
	}

	for _, e := range b.Nodes {
		name := strings.NewReplacer("/", "_", `\`, "_").Replace(e.ID) + ".md"
		if err := writeFile(filepath.Join(dir, NodeDirectory, name), e.Text); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
