package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Raw wire shapes. They mirror the JSON document loosely; Decode converts them
// into the tagged model immediately.

type rawDocument struct {
	Flows        []rawFlow        `json:"flows"`
	Narratives   []rawFlow        `json:"narratives"`
	Messages     []rawMessage     `json:"messages"`
	Integrations []rawIntegration `json:"integrations"`
}

type rawIntegration struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

type rawMessage struct {
	Kind        string     `json:"kind"`
	Type        string     `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Fields      []rawField `json:"fields"`
}

type rawField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    *bool  `json:"required"`
	Description string `json:"description"`
}

type rawFlow struct {
	Name   string     `json:"name"`
	Slices []rawSlice `json:"slices"`
}

type rawSlice struct {
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Request     string    `json:"request"`
	Via         []string  `json:"via"`
	Server      rawServer `json:"server"`
}

type rawServer struct {
	Description string       `json:"description"`
	Request     string       `json:"request"`
	Data        []rawData    `json:"data"`
	Specs       *rawSpecs    `json:"specs"`
	GWT         []rawExample `json:"gwt"`
}

type rawSpecs struct {
	Name  string    `json:"name"`
	Rules []rawRule `json:"rules"`
}

type rawRule struct {
	Description string       `json:"description"`
	Examples    []rawExample `json:"examples"`
}

type rawExample struct {
	Description string          `json:"description"`
	Given       json.RawMessage `json:"given"`
	When        json.RawMessage `json:"when"`
	Then        json.RawMessage `json:"then"`
}

type rawData struct {
	Target      rawTarget    `json:"target"`
	Destination *rawEndpoint `json:"destination"`
	Origin      *rawEndpoint `json:"origin"`
}

type rawTarget struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type rawEndpoint struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
	Value   string `json:"value"`
	IDField string `json:"idField"`
}

type rawItem struct {
	EventRef    string         `json:"eventRef"`
	CommandRef  string         `json:"commandRef"`
	StateRef    string         `json:"stateRef"`
	ErrorType   string         `json:"errorType"`
	Message     string         `json:"message"`
	Description string         `json:"description"`
	ExampleData map[string]any `json:"exampleData"`
}

// Decode parses a JSON flow document into the canonical model. Structural
// problems inside examples (missing refs, unknown item shapes) are dropped
// silently; only a document that is not JSON at all is an error.
func Decode(data []byte) (*Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding flow document: %w", err)
	}

	doc := &Document{}
	flows := raw.Flows
	if len(flows) == 0 {
		flows = raw.Narratives
	}
	for _, rf := range flows {
		doc.Flows = append(doc.Flows, convertFlow(rf))
	}
	for _, rm := range raw.Messages {
		if m, ok := convertMessage(rm); ok {
			doc.Messages = append(doc.Messages, m)
		}
	}
	for _, ri := range raw.Integrations {
		if ri.Name == "" {
			continue
		}
		doc.Integrations = append(doc.Integrations, Integration{Name: ri.Name, Source: ri.Source})
	}
	return doc, nil
}

func convertMessage(rm rawMessage) (Message, bool) {
	kind := rm.Kind
	if kind == "" {
		kind = rm.Type
	}
	m := Message{
		Kind:        Kind(strings.ToLower(kind)),
		Name:        rm.Name,
		Description: rm.Description,
	}
	switch m.Kind {
	case KindCommand, KindEvent, KindState:
	default:
		return Message{}, false
	}
	if m.Name == "" {
		return Message{}, false
	}
	for _, rf := range rm.Fields {
		if rf.Name == "" {
			continue
		}
		f := Field{
			Name:        rf.Name,
			Type:        strings.TrimSpace(rf.Type),
			Required:    true,
			Description: rf.Description,
		}
		if rf.Required != nil {
			f.Required = *rf.Required
		}
		if f.Type == "" {
			f.Type = "unknown"
		}
		m.Fields = append(m.Fields, f)
	}
	return m, true
}

func convertFlow(rf rawFlow) Flow {
	f := Flow{Name: rf.Name}
	for _, rs := range rf.Slices {
		if s, ok := convertSlice(rs); ok {
			f.Slices = append(f.Slices, s)
		}
	}
	return f
}

func convertSlice(rs rawSlice) (Slice, bool) {
	s := Slice{
		Type:        SliceType(strings.ToLower(rs.Type)),
		Name:        rs.Name,
		Description: rs.Description,
		Request:     rs.Request,
		Via:         rs.Via,
	}
	switch s.Type {
	case SliceCommand, SliceQuery, SliceReact:
	default:
		// experience/UI slices carry no server behavior
		return Slice{}, false
	}
	if s.Request == "" {
		s.Request = rs.Server.Request
	}
	if s.Description == "" {
		s.Description = rs.Server.Description
	}
	for _, rd := range rs.Server.Data {
		s.Data = append(s.Data, DataItem{
			Target:      Target{Type: rd.Target.Type, Name: rd.Target.Name},
			Destination: convertEndpoint(rd.Destination),
			Origin:      convertEndpoint(rd.Origin),
		})
	}

	switch {
	case rs.Server.Specs != nil:
		for _, rr := range rs.Server.Specs.Rules {
			r := Rule{Description: rr.Description}
			for _, re := range rr.Examples {
				r.Examples = append(r.Examples, convertExample(re))
			}
			s.Rules = append(s.Rules, r)
		}
	case len(rs.Server.GWT) > 0:
		// Legacy flat gwt list: one anonymous rule holding every row.
		r := Rule{Description: s.Name}
		for _, re := range rs.Server.GWT {
			r.Examples = append(r.Examples, convertExample(re))
		}
		s.Rules = append(s.Rules, r)
	}
	return s, true
}

func convertEndpoint(re *rawEndpoint) *Endpoint {
	if re == nil {
		return nil
	}
	pattern := re.Pattern
	if pattern == "" {
		pattern = re.Value
	}
	return &Endpoint{
		Type:    strings.ToLower(re.Type),
		Name:    re.Name,
		Pattern: pattern,
		IDField: re.IDField,
	}
}

func convertExample(re rawExample) Example {
	return Example{
		Description: re.Description,
		Given:       convertItems(re.Given),
		When:        convertItems(re.When),
		Then:        convertItems(re.Then),
	}
}

// convertItems accepts either a single item object or an array of them. Each
// entry is decoded on its own so a malformed entry drops only itself.
func convertItems(raw json.RawMessage) []Item {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	entries := []json.RawMessage{raw}
	if raw[0] == '[' {
		entries = nil
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil
		}
	}

	var items []Item
	for _, e := range entries {
		var ri rawItem
		if err := json.Unmarshal(e, &ri); err != nil {
			continue
		}
		if it, ok := classifyItem(ri); ok {
			items = append(items, it)
		}
	}
	return items
}

// classifyItem turns a key-presence discriminated entry into a tagged Item.
func classifyItem(ri rawItem) (Item, bool) {
	it := Item{Data: ri.ExampleData, Description: ri.Description}
	switch {
	case ri.EventRef != "":
		it.Kind, it.Ref = ItemEvent, ri.EventRef
	case ri.CommandRef != "":
		it.Kind, it.Ref = ItemCommand, ri.CommandRef
	case ri.StateRef != "":
		it.Kind, it.Ref = ItemState, ri.StateRef
	case ri.ErrorType != "":
		it.Kind, it.ErrorType, it.Message = ItemError, ri.ErrorType, ri.Message
	default:
		return Item{}, false
	}
	if it.Data == nil {
		it.Data = map[string]any{}
	}
	return it, true
}
