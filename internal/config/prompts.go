package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/prompts.yaml
var defaultPromptsYAML []byte

// Prompt names.
const (
	PromptLiveness = "liveness"
	PromptQuestion = "question"
	PromptAnalysis = "analysis"
	PromptRAG      = "rag"
	PromptCareers  = "careers"
	PromptChat     = "chat"
)

// PromptsYAML is the on-disk shape of a prompts file.
type PromptsYAML struct {
	Liveness string `yaml:"liveness"`
	Question string `yaml:"question"`
	Analysis string `yaml:"analysis"`
	RAG      string `yaml:"rag"`
	Careers  string `yaml:"careers"`
	Chat     string `yaml:"chat"`
}

func (p PromptsYAML) byName() map[string]string {
	return map[string]string{
		PromptLiveness: p.Liveness,
		PromptQuestion: p.Question,
		PromptAnalysis: p.Analysis,
		PromptRAG:      p.RAG,
		PromptCareers:  p.Careers,
		PromptChat:     p.Chat,
	}
}

// Prompts holds the parsed prompt templates.
type Prompts struct {
	tpl map[string]*template.Template
}

// LoadPrompts parses the embedded defaults and, when path is set, overlays every
// non-empty entry of the YAML file at path.
func LoadPrompts(path string) (*Prompts, error) {
	var base PromptsYAML
	if err := yaml.Unmarshal(defaultPromptsYAML, &base); err != nil {
		return nil, fmt.Errorf("op=config.LoadPrompts: parse defaults: %w", err)
	}
	texts := base.byName()
	if path != "" {
		// #nosec G304 -- operator supplied path
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("op=config.LoadPrompts: read %s: %w", path, err)
		}
		var override PromptsYAML
		if err := yaml.Unmarshal(raw, &override); err != nil {
			return nil, fmt.Errorf("op=config.LoadPrompts: parse %s: %w", path, err)
		}
		for name, text := range override.byName() {
			if strings.TrimSpace(text) != "" {
				texts[name] = text
			}
		}
	}
	p := &Prompts{tpl: make(map[string]*template.Template, len(texts))}
	for name, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("op=config.LoadPrompts: prompt %q is empty", name)
		}
		t, err := template.New(name).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("op=config.LoadPrompts: prompt %q: %w", name, err)
		}
		p.tpl[name] = t
	}
	return p, nil
}

// Render executes the named template with data.
func (p *Prompts) Render(name string, data any) (string, error) {
	t, ok := p.tpl[name]
	if !ok {
		return "", fmt.Errorf("op=config.Prompts.Render: unknown prompt %q", name)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("op=config.Prompts.Render: %s: %w", name, err)
	}
	return b.String(), nil
}

// MustDefaultPrompts returns the embedded prompts and panics if they do not parse.
// Intended for tests and tools.
func MustDefaultPrompts() *Prompts {
	p, err := LoadPrompts("")
	if err != nil {
		panic(err)
	}
	return p
}
