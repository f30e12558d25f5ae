package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/flowgen/internal/model"
)

const jsonDoc = `{
  "flows": [{
    "name": "Listing Management",
    "slices": [{
      "type": "command",
      "name": "Create Listing",
      "server": {"specs": {"rules": [{"description": "creates", "examples": [{
        "description": "ok",
        "when": {"commandRef": "CreateListing", "exampleData": {"title": "Loft"}},
        "then": [{"eventRef": "ListingCreated", "exampleData": {"title": "Loft"}}]
      }]}]}}
    }]
  }],
  "messages": [
    {"kind": "command", "name": "CreateListing", "fields": [{"name": "title", "type": "string"}]},
    {"kind": "event", "name": "ListingCreated", "fields": [{"name": "title", "type": "string"}]}
  ]
}`

func assertListing(t *testing.T, doc *model.Document) {
	t.Helper()
	require.Len(t, doc.Flows, 1)
	require.Len(t, doc.Flows[0].Slices, 1)
	s := doc.Flows[0].Slices[0]
	assert.Equal(t, model.SliceCommand, s.Type)
	ex := s.Examples()
	require.Len(t, ex, 1)
	cmd, ok := ex[0].Command()
	require.True(t, ok)
	assert.Equal(t, "CreateListing", cmd.Ref)
	assert.Equal(t, "Loft", cmd.Data["title"])
	assert.Len(t, doc.Messages, 2)
}

func TestParse_JSON(t *testing.T) {
	doc, err := Parse("model.json", []byte(jsonDoc), Options{})
	require.NoError(t, err)
	assertListing(t, doc)
}

func TestParse_YAML(t *testing.T) {
	src := `
flows:
  - name: Listing Management
    slices:
      - type: command
        name: Create Listing
        server:
          specs:
            rules:
              - examples:
                  - when:
                      commandRef: CreateListing
                      exampleData: {title: Loft}
                    then:
                      - eventRef: ListingCreated
messages:
  - {kind: command, name: CreateListing, fields: [{name: title, type: string}]}
  - {kind: event, name: ListingCreated, fields: [{name: title, type: string}]}
`
	doc, err := Parse("model.yaml", []byte(src), Options{})
	require.NoError(t, err)
	assertListing(t, doc)
}

func TestParse_CUEWithPath(t *testing.T) {
	src := `
#title: "Loft"
model: {
	flows: [{
		name: "Listing Management"
		slices: [{
			type: "command"
			name: "Create Listing"
			server: specs: rules: [{examples: [{
				when: {commandRef: "CreateListing", exampleData: title: #title}
				then: [{eventRef: "ListingCreated"}]
			}]}]
		}]
	}]
	messages: [
		{kind: "command", name: "CreateListing", fields: [{name: "title", type: "string"}]},
		{kind: "event", name: "ListingCreated", fields: [{name: "title", type: "string"}]},
	]
}
`
	doc, err := Parse("model.cue", []byte(src), Options{Path: "model"})
	require.NoError(t, err)
	assertListing(t, doc)

	_, err = Parse("model.cue", []byte(src), Options{Path: "missing"})
	assert.Error(t, err)
}

func TestParse_IncompleteCUE(t *testing.T) {
	_, err := Parse("model.cue", []byte(`flows: [...{name: string}], flows: [{}]`), Options{})
	assert.Error(t, err)
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse("model.toml", []byte(""), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParse_MalformedJSON(t *testing.T) {
	_, err := Parse("model.json", []byte(`{"flows": [`), Options{})
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(jsonDoc), 0644))
	doc, err := Load(path, Options{})
	require.NoError(t, err)
	assertListing(t, doc)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"), Options{})
	assert.Error(t, err)
}
