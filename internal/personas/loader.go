package personas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/brandtalk/internal/models"
)

// personaFrontmatter is the YAML header of a persona markdown file. The
// markdown body below the header is the system prompt.
type personaFrontmatter struct {
	ID              string `yaml:"id"`
	Name            string `yaml:"name"`
	Title           string `yaml:"title"`
	About           string `yaml:"about"`
	Needs           string `yaml:"needs"`
	Characteristics string `yaml:"characteristics"`
	Quotes          string `yaml:"quotes"`
	Challenges      string `yaml:"challenges"`
}

// LoadDir reads persona definitions from every .md file in dir, sorted by
// persona id. A missing directory yields no personas and no error.
func LoadDir(dir string) ([]models.Persona, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read personas dir: %w", err)
	}

	var out []models.Persona
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		p, err := loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load persona %s: %w", entry.Name(), err)
		}
		out = append(out, p)
	}
	sortByID(out)
	return out, nil
}

// loadFile parses one persona markdown file: YAML frontmatter between
// "---" fences, system prompt below.
func loadFile(path string) (models.Persona, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Persona{}, err
	}

	content := string(raw)
	if !strings.HasPrefix(content, "---\n") {
		return models.Persona{}, fmt.Errorf("missing frontmatter")
	}
	endIdx := strings.Index(content[4:], "\n---")
	if endIdx < 0 {
		return models.Persona{}, fmt.Errorf("unterminated frontmatter")
	}

	var fm personaFrontmatter
	if err := yaml.Unmarshal([]byte(content[4:4+endIdx]), &fm); err != nil {
		return models.Persona{}, fmt.Errorf("parse frontmatter: %w", err)
	}

	body := strings.TrimPrefix(content[4+endIdx+4:], "\n")
	prompt := strings.TrimSpace(body)

	if fm.ID == "" {
		// Fall back to the filename, matching how built-in ids look.
		fm.ID = strings.TrimSuffix(filepath.Base(path), ".md")
	}
	if fm.Name == "" {
		return models.Persona{}, fmt.Errorf("missing name")
	}
	if prompt == "" {
		return models.Persona{}, fmt.Errorf("missing system prompt body")
	}

	return models.Persona{
		ID:              fm.ID,
		Name:            fm.Name,
		Title:           fm.Title,
		About:           fm.About,
		Needs:           fm.Needs,
		Characteristics: fm.Characteristics,
		Quotes:          fm.Quotes,
		Challenges:      fm.Challenges,
		SystemPrompt:    prompt,
	}, nil
}
