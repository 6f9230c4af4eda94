package pipeline

import (
	"bytes"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/enex2md/internal/model"
)

// frontMatter is the YAML header written above a note body.
type frontMatter struct {
	Title   string   `yaml:"title"`
	Created string   `yaml:"created,omitempty"`
	Updated string   `yaml:"updated,omitempty"`
	Tags    []string `yaml:"tags,omitempty"`
}

// renderFrontMatter returns the "---" delimited YAML block for note,
// followed by a blank line.
func renderFrontMatter(note model.Note) (string, error) {
	fm := frontMatter{
		Title:   note.Title,
		Created: formatTime(note.Created),
		Updated: formatTime(note.Updated),
		Tags:    note.Tags,
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(fm); err != nil {
		return "", err
	}
	if err := encoder.Close(); err != nil {
		return "", err
	}
	buf.WriteString("---\n\n")

	return buf.String(), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
