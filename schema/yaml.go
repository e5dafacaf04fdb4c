package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/wldfrag/errs"
	"github.com/arloliu/wldfrag/field"
	"github.com/arloliu/wldfrag/format"
	"github.com/arloliu/wldfrag/internal/options"
)

// catalogDoc is the YAML document read by LoadYAML:
//
//	fragments:
//	  - id: 0x01
//	    name: Example
//	    fields:
//	      - {name: flags, kind: u32}
//	      - {name: count, kind: u32}
//	      - {name: values, kind: u32, count: count}
//	      - {name: extra, kind: f32, when: "flags & 0x01"}
type catalogDoc struct {
	Fragments []fragmentDoc `yaml:"fragments"`
}

type fragmentDoc struct {
	ID     uint32     `yaml:"id"`
	Name   string     `yaml:"name"`
	Fields []fieldDoc `yaml:"fields"`
}

type fieldDoc struct {
	Name        string     `yaml:"name"`
	Kind        string     `yaml:"kind"`
	Count       string     `yaml:"count,omitempty"`
	When        string     `yaml:"when,omitempty"`
	AbsentCount string     `yaml:"absent_count,omitempty"`
	Fields      []fieldDoc `yaml:"fields,omitempty"`
}

// LoadOption configures YAML catalog loading.
type LoadOption = options.Option[*loadConfig]

type loadConfig struct {
	codecs *field.Set
}

// WithLoadCodecs validates catalog kinds against set instead of
// field.DefaultSet. Custom kinds registered on set are declared in YAML by
// their numeric value, for example "kind: 0x20".
func WithLoadCodecs(set *field.Set) LoadOption {
	return options.New(func(c *loadConfig) error {
		if set == nil {
			return fmt.Errorf("%w: nil codec set", errs.ErrInvalidSchema)
		}
		c.codecs = set

		return nil
	})
}

// LoadYAML reads a schema catalog.
//
// Parameters:
//   - r: YAML source
//   - opts: Loading options
//
// Returns:
//   - []*Schema: Schemas in document order
//   - error: Syntax errors, or every schema problem of the catalog aggregated
//     with multierr
func LoadYAML(r io.Reader, opts ...LoadOption) ([]*Schema, error) {
	cfg := &loadConfig{codecs: field.DefaultSet()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc catalogDoc
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: catalog: %w", errs.ErrInvalidSchema, err)
	}

	var (
		out  = make([]*Schema, 0, len(doc.Fragments))
		err  error
		ids  = make(map[uint32]string, len(doc.Fragments))
		seen = make(map[string]bool, len(doc.Fragments))
	)
	for _, fd := range doc.Fragments {
		if prev, ok := ids[fd.ID]; ok {
			err = multierr.Append(err, fmt.Errorf("%w: %s(0x%02x) reuses the id of %s", errs.ErrDuplicateFragmentType, fd.Name, fd.ID, prev))
			continue
		}
		ids[fd.ID] = fd.Name

		if seen[fd.Name] {
			err = multierr.Append(err, fmt.Errorf("%w: %q", errs.ErrDuplicateFragmentName, fd.Name))
			continue
		}
		seen[fd.Name] = true

		b := New(TypeID(fd.ID), fd.Name).Codecs(cfg.codecs)
		addFields(b, fd.Fields, cfg.codecs)

		s, berr := b.Build()
		if berr != nil {
			err = multierr.Append(err, berr)
			continue
		}
		out = append(out, s)
	}

	if err != nil {
		return nil, err
	}

	return out, nil
}

// LoadYAMLFile reads a schema catalog from path.
func LoadYAMLFile(path string, opts ...LoadOption) ([]*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	schemas, err := LoadYAML(bytes.NewReader(data), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return schemas, nil
}

func addFields(b *Builder, docs []fieldDoc, codecs *field.Set) {
	for _, fd := range docs {
		var opts []FieldOption
		if fd.Count != "" {
			opts = append(opts, CountExpr(fd.Count))
		}
		if fd.When != "" {
			opts = append(opts, WhenExpr(fd.When))
		}
		if fd.AbsentCount != "" {
			policy, err := parseAbsentCount(fd.AbsentCount)
			if err != nil {
				b.err = multierr.Append(b.err, fmt.Errorf("field %q: %w", fd.Name, err))
			}
			opts = append(opts, OnAbsentCount(policy))
		}

		kind, err := parseKind(fd.Kind)
		if err != nil {
			b.err = multierr.Append(b.err, fmt.Errorf("field %q: %w", fd.Name, err))
		}

		if kind != format.KindGroup {
			if len(fd.Fields) > 0 {
				b.err = multierr.Append(b.err, fmt.Errorf("%w: field %q of kind %s has nested fields", errs.ErrInvalidSchema, fd.Name, kind))
			}
			b.Field(fd.Name, kind, opts...)

			continue
		}

		gb := NewGroup(fd.Name).Codecs(codecs)
		addFields(gb, fd.Fields, codecs)
		sub, gerr := gb.Build()
		if gerr != nil {
			b.err = multierr.Append(b.err, gerr)
		}
		b.Group(fd.Name, sub, opts...)
	}
}

func parseKind(name string) (format.ValueKind, error) {
	if kind, ok := format.ParseValueKind(name); ok {
		return kind, nil
	}

	if n, err := strconv.ParseUint(strings.TrimSpace(name), 0, 8); err == nil {
		return format.ValueKind(n), nil
	}

	return format.KindInvalid, fmt.Errorf("%w: unknown kind %q", errs.ErrUnsupportedValueKind, name)
}

func parseAbsentCount(name string) (AbsentCountPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fail":
		return AbsentCountFails, nil
	case "zero":
		return AbsentCountIsZero, nil
	default:
		return AbsentCountFails, fmt.Errorf("%w: absent_count %q, want fail or zero", errs.ErrInvalidSchema, name)
	}
}
