package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ResultFilter decides whether a collected flight is acceptable. A filter may
// prune the flight's ticket inventories before returning its verdict; callers
// must not share the flight with concurrent evaluations.
type ResultFilter interface {
	Kind() string
	Filter(f *Flight) (bool, error)
}

var (
	filterMu    sync.RWMutex
	filterKinds = make(map[string]func() ResultFilter)
)

// RegisterFilter makes a filter kind available to the document codecs. The
// factory must return a pointer that the decoders can fill in. Registering
// the same kind twice panics.
func RegisterFilter(kind string, factory func() ResultFilter) {
	filterMu.Lock()
	defer filterMu.Unlock()

	if factory == nil {
		panic("models: RegisterFilter factory is nil")
	}
	if _, dup := filterKinds[kind]; dup {
		panic("models: RegisterFilter called twice for " + kind)
	}
	filterKinds[kind] = factory
}

func NewFilter(kind string) (ResultFilter, error) {
	filterMu.RLock()
	factory, ok := filterKinds[kind]
	filterMu.RUnlock()

	if !ok {
		return nil, eris.Errorf("unknown filter type %q", kind)
	}
	return factory(), nil
}

// FilterKinds lists the registered kinds, sorted.
func FilterKinds() []string {
	filterMu.RLock()
	defer filterMu.RUnlock()

	kinds := make([]string, 0, len(filterKinds))
	for k := range filterKinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// validateFilter runs the filter's own Validate, when it has one, once the
// decoders have filled it in.
func validateFilter(f ResultFilter) error {
	if v, ok := f.(interface{ Validate() error }); ok {
		return v.Validate()
	}
	return nil
}

// Filters is an ordered filter list encoded as a tagged list, each entry
// carrying its kind under "type".
type Filters []ResultFilter

const filterTypeKey = "type"

func (fs Filters) MarshalYAML() (interface{}, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, f := range fs {
		var body yaml.Node
		if err := body.Encode(f); err != nil {
			return nil, eris.Wrapf(err, "encode filter %s", f.Kind())
		}
		if body.Kind != yaml.MappingNode {
			return nil, eris.Errorf("filter %s must encode as a mapping", f.Kind())
		}
		entry := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		entry.Content = append(entry.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: filterTypeKey},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Kind()},
		)
		entry.Content = append(entry.Content, body.Content...)
		seq.Content = append(seq.Content, entry)
	}
	return seq, nil
}

func (fs *Filters) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return eris.New("filters must be a list")
	}

	out := make(Filters, 0, len(value.Content))
	for i, entry := range value.Content {
		if entry.Kind != yaml.MappingNode {
			return eris.Errorf("filter %d must be a mapping", i)
		}
		kind := ""
		body := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for j := 0; j+1 < len(entry.Content); j += 2 {
			if entry.Content[j].Value == filterTypeKey {
				kind = entry.Content[j+1].Value
				continue
			}
			body.Content = append(body.Content, entry.Content[j], entry.Content[j+1])
		}
		f, err := NewFilter(kind)
		if err != nil {
			return eris.Wrapf(err, "filter %d", i)
		}

		// Node.Decode ignores KnownFields, so the body goes through a
		// strict decoder of its own.
		raw, err := yaml.Marshal(body)
		if err != nil {
			return eris.Wrapf(err, "filter %d (%s)", i, kind)
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(f); err != nil {
			return eris.Wrapf(err, "decode filter %d (%s)", i, kind)
		}
		if err := validateFilter(f); err != nil {
			return eris.Wrapf(err, "filter %d", i)
		}
		out = append(out, f)
	}
	*fs = out
	return nil
}

func (fs Filters) MarshalJSON() ([]byte, error) {
	entries := make([]map[string]json.RawMessage, 0, len(fs))
	for _, f := range fs {
		body, err := json.Marshal(f)
		if err != nil {
			return nil, eris.Wrapf(err, "encode filter %s", f.Kind())
		}
		entry := make(map[string]json.RawMessage)
		if err := json.Unmarshal(body, &entry); err != nil {
			return nil, eris.Wrapf(err, "filter %s must encode as an object", f.Kind())
		}
		kind, _ := json.Marshal(f.Kind())
		entry[filterTypeKey] = kind
		entries = append(entries, entry)
	}
	return json.Marshal(entries)
}

func (fs *Filters) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "filters must be a list")
	}

	out := make(Filters, 0, len(raw))
	for i, entry := range raw {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err != nil {
			return eris.Wrapf(err, "filter %d must be an object", i)
		}
		var kind string
		if rawKind, ok := fields[filterTypeKey]; ok {
			if err := json.Unmarshal(rawKind, &kind); err != nil {
				return eris.Wrapf(err, "filter %d type", i)
			}
		}
		delete(fields, filterTypeKey)

		f, err := NewFilter(kind)
		if err != nil {
			return eris.Wrapf(err, "filter %d", i)
		}
		body, err := json.Marshal(fields)
		if err != nil {
			return eris.Wrapf(err, "filter %d (%s)", i, kind)
		}
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(f); err != nil {
			return eris.Wrapf(err, "decode filter %d (%s)", i, kind)
		}
		if err := validateFilter(f); err != nil {
			return eris.Wrapf(err, "filter %d", i)
		}
		out = append(out, f)
	}
	*fs = out
	return nil
}
