// Package pagespec loads YAML documents describing a paginated table under
// test and compiles them into gridwalk collections and traversals.
//
// A document names the row locator, the optional navigation controls, an
// optional page-token locator and per-table wait overrides:
//
//	name: invoices
//	url: https://app.example.com/invoices
//	rows: {by: xpath, value: '//table[@id="invoices"]/tbody/tr'}
//	nav:
//	  previous: {by: id, value: nav-previous}
//	  next: {by: id, value: nav-next}
//	page_token: {by: css selector, value: 'span#page-label'}
//	waits: {first: 8s}
//	max_pages: 50
package pagespec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/gridwalk/gridwalk"
)

// LocatorSpec names one element the way gridwalk.By accepts it.
type LocatorSpec struct {
	By    string `yaml:"by" json:"by"`
	Value string `yaml:"value" json:"value"`
}

// NavSpec names the four navigation controls; each is independently
// optional.
type NavSpec struct {
	First    *LocatorSpec `yaml:"first,omitempty" json:"first,omitempty"`
	Previous *LocatorSpec `yaml:"previous,omitempty" json:"previous,omitempty"`
	Next     *LocatorSpec `yaml:"next,omitempty" json:"next,omitempty"`
	Last     *LocatorSpec `yaml:"last,omitempty" json:"last,omitempty"`
}

// WaitSpec overrides parts of the base wait policy with duration strings.
type WaitSpec struct {
	First string `yaml:"first,omitempty" json:"first,omitempty"`
	Other string `yaml:"other,omitempty" json:"other,omitempty"`
	Poll  string `yaml:"poll,omitempty" json:"poll,omitempty"`
}

// Spec describes a paginated table under test.
type Spec struct {
	Name      string       `yaml:"name" json:"name"`
	URL       string       `yaml:"url,omitempty" json:"url,omitempty"`
	Rows      LocatorSpec  `yaml:"rows" json:"rows"`
	Nav       NavSpec      `yaml:"nav,omitempty" json:"nav,omitempty"`
	PageToken *LocatorSpec `yaml:"page_token,omitempty" json:"page_token,omitempty"`
	Waits     *WaitSpec    `yaml:"waits,omitempty" json:"waits,omitempty"`
	MaxPages  int          `yaml:"max_pages,omitempty" json:"max_pages,omitempty"`
}

const schemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"title": "gridwalk page spec",
	"type": "object",
	"required": ["name", "rows"],
	"additionalProperties": false,
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"url": {"type": "string"},
		"rows": {"$ref": "#/$defs/locator"},
		"nav": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"first": {"$ref": "#/$defs/locator"},
				"previous": {"$ref": "#/$defs/locator"},
				"next": {"$ref": "#/$defs/locator"},
				"last": {"$ref": "#/$defs/locator"}
			}
		},
		"page_token": {"$ref": "#/$defs/locator"},
		"waits": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"first": {"type": "string", "minLength": 2},
				"other": {"type": "string", "minLength": 2},
				"poll": {"type": "string", "minLength": 2}
			}
		},
		"max_pages": {"type": "integer", "minimum": 1}
	},
	"$defs": {
		"locator": {
			"type": "object",
			"required": ["by", "value"],
			"additionalProperties": false,
			"properties": {
				"by": {"enum": [
					"id", "name", "class name", "tag name",
					"xpath", "css selector", "link text", "partial link text"
				]},
				"value": {"type": "string", "minLength": 1}
			}
		}
	}
}`

var schema = jsonschema.MustCompileString("gridwalk-pagespec.json", schemaJSON)

// Load reads and parses the spec document at path.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page spec: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("page spec %s: %w", path, err)
	}
	return s, nil
}

// Parse parses a YAML spec document, validating it against the package
// schema before decoding.
func Parse(data []byte) (*Spec, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	// Round-trip through JSON so the schema validator sees the value shapes
	// it understands.
	doc, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	var v interface{}
	if err := json.Unmarshal(doc, &v); err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var s Spec
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &s, nil
}

// waitPolicy overlays the spec's wait overrides on base.
func (s *Spec) waitPolicy(base gridwalk.WaitPolicy) (gridwalk.WaitPolicy, error) {
	p := base
	if s.Waits == nil {
		return p, nil
	}
	overrides := []struct {
		field string
		value string
		dst   *time.Duration
	}{
		{"waits.first", s.Waits.First, &p.FirstTimeout},
		{"waits.other", s.Waits.Other, &p.OtherTimeout},
		{"waits.poll", s.Waits.Poll, &p.PollInterval},
	}
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		d, err := time.ParseDuration(o.value)
		if err != nil {
			return p, fmt.Errorf("%s: %w", o.field, err)
		}
		*o.dst = d
	}
	return p, nil
}

// Collection compiles the spec's row locator against e, with the spec's wait
// overrides applied on top of base.
func (s *Spec) Collection(e gridwalk.Engine, base gridwalk.WaitPolicy) (*gridwalk.Collection, error) {
	rows, err := gridwalk.By(s.Rows.By, s.Rows.Value)
	if err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	policy, err := s.waitPolicy(base)
	if err != nil {
		return nil, err
	}
	c, err := gridwalk.NewCollection(e, rows, policy)
	if err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return c, nil
}

func navProbe(e gridwalk.Engine, ls *LocatorSpec, field string, interval time.Duration) (*gridwalk.Probe, error) {
	if ls == nil {
		return nil, nil
	}
	loc, err := gridwalk.By(ls.By, ls.Value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return gridwalk.NewProbe(e, loc, interval), nil
}

// Traversal compiles the whole spec against e: rows, navigation controls and
// page token. defaultMaxPages applies when the document does not set
// max_pages.
func (s *Spec) Traversal(e gridwalk.Engine, base gridwalk.WaitPolicy, defaultMaxPages int) (*gridwalk.Traversal, error) {
	rows, err := s.Collection(e, base)
	if err != nil {
		return nil, err
	}
	policy := rows.Policy()

	var nav gridwalk.NavigationControls
	if nav.First, err = navProbe(e, s.Nav.First, "nav.first", policy.PollInterval); err != nil {
		return nil, err
	}
	if nav.Previous, err = navProbe(e, s.Nav.Previous, "nav.previous", policy.PollInterval); err != nil {
		return nil, err
	}
	if nav.Next, err = navProbe(e, s.Nav.Next, "nav.next", policy.PollInterval); err != nil {
		return nil, err
	}
	if nav.Last, err = navProbe(e, s.Nav.Last, "nav.last", policy.PollInterval); err != nil {
		return nil, err
	}

	var token gridwalk.TokenFunc
	if s.PageToken != nil {
		loc, err := gridwalk.By(s.PageToken.By, s.PageToken.Value)
		if err != nil {
			return nil, fmt.Errorf("page_token: %w", err)
		}
		token = gridwalk.PageToken(e, loc)
	}

	maxPages := s.MaxPages
	if maxPages == 0 {
		maxPages = defaultMaxPages
	}
	t, err := gridwalk.NewTraversal(rows, nav, token, maxPages)
	if err != nil {
		return nil, fmt.Errorf("traversal: %w", err)
	}
	return t, nil
}
