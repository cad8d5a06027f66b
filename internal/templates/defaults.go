package templates

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/fathima-sithara/ticket-notification-service/internal/model"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type defaultTemplate struct {
	Type    model.EventType `yaml:"type"`
	Variant model.Variant   `yaml:"variant"`
	Title   string          `yaml:"title"`
	Body    string          `yaml:"body"`
}

// Defaults is the canonical template set keyed by (type, variant).
type Defaults struct {
	byKey map[model.TemplateKey]Fields
	keys  []model.TemplateKey
}

func ParseDefaults(raw []byte) (*Defaults, error) {
	var doc struct {
		Templates []defaultTemplate `yaml:"templates"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse default templates: %w", err)
	}
	d := &Defaults{byKey: make(map[model.TemplateKey]Fields)}
	for _, t := range doc.Templates {
		if !t.Type.Valid() || !t.Variant.Valid() {
			return nil, fmt.Errorf("default template %s/%s: unknown type or variant", t.Type, t.Variant)
		}
		key := model.TemplateKey{Type: t.Type, Variant: t.Variant}
		if _, dup := d.byKey[key]; dup {
			return nil, fmt.Errorf("default template %s/%s defined twice", t.Type, t.Variant)
		}
		d.byKey[key] = Fields{TitleTemplate: t.Title, BodyTemplate: t.Body}
		d.keys = append(d.keys, key)
	}
	return d, nil
}

// BuiltinDefaults parses the embedded default set.
func BuiltinDefaults() *Defaults {
	d, err := ParseDefaults(defaultsYAML)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Defaults) Get(key model.TemplateKey) (Fields, bool) {
	f, ok := d.byKey[key]
	return f, ok
}

// Keys returns the keys in file order.
func (d *Defaults) Keys() []model.TemplateKey {
	return append([]model.TemplateKey(nil), d.keys...)
}
