package fragment

import (
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/wldfrag/field"
	"github.com/arloliu/wldfrag/schema"
)

// Fragment is a decoded fragment of any handler: a generic *Record or a
// typed struct returned by a DecodeFunc.
type Fragment interface {
	TypeID() schema.TypeID
	TypeName() string
}

// Record is the result of decoding a payload with a schema.
//
// Fields holds one value per schema field in declaration order. Counted
// fields are field.Sequence values and conditional fields are field.Optional
// values, present iff their predicate held.
type Record struct {
	Type   schema.TypeID
	Name   string
	Fields field.Fields
}

func (r *Record) TypeID() schema.TypeID {
	return r.Type
}

func (r *Record) TypeName() string {
	return r.Name
}

// Get returns the named field value or nil.
func (r *Record) Get(name string) field.Value {
	return r.Fields.Get(name)
}

func (r *Record) String() string {
	return r.Name + "(" + r.Type.String() + ")" + field.Group{Fields: r.Fields}.String()
}

// MarshalYAML renders the record as an ordered mapping:
//
//	type: 0x01
//	name: TestFragment
//	fields:
//	  flags: 1
//	  values: [10, 20]
//	  extra: 1
func (r *Record) MarshalYAML() (any, error) {
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			scalarNode("type"), scalarNode(r.Type.String()),
			scalarNode("name"), scalarNode(r.Name),
			scalarNode("fields"), fieldsNode(r.Fields),
		},
	}, nil
}

func fieldsNode(fields field.Fields) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for name, v := range fields.All() {
		n.Content = append(n.Content, scalarNode(name), valueNode(v))
	}

	return n
}

func valueNode(v field.Value) *yaml.Node {
	switch x := v.(type) {
	case field.Sequence:
		n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, item := range x.Items {
			n.Content = append(n.Content, valueNode(item))
		}

		return n
	case field.Optional:
		if !x.Present() {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		}

		return valueNode(x.Inner)
	case field.Group:
		return fieldsNode(x.Fields)
	case field.StringRef:
		return scalarNode(strconv.FormatInt(int64(x), 10))
	default:
		return scalarNode(v.String())
	}
}

func scalarNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: s}
}
