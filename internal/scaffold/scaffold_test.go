package scaffold

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/flowgen/internal/enums"
	"github.com/matthewbaird/flowgen/internal/model"
	"github.com/matthewbaird/flowgen/internal/typeexpr"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

var messages = []model.Message{
	{Kind: model.KindCommand, Name: "CreateListing", Fields: []model.Field{
		{Name: "listingId", Type: "ID", Required: true},
		{Name: "title", Type: "string", Required: true},
	}},
	{Kind: model.KindEvent, Name: "ListingCreated", Fields: []model.Field{
		{Name: "listingId", Type: "ID", Required: true},
		{Name: "title", Type: "string", Required: true},
		{Name: "status", Type: `"draft" | "published"`, Required: true},
	}},
	{Kind: model.KindCommand, Name: "NotifyOwner", Fields: []model.Field{
		{Name: "listingId", Type: "ID", Required: true},
		{Name: "channel", Type: "string", Required: true},
	}},
	{Kind: model.KindState, Name: "ListingView", Fields: []model.Field{
		{Name: "listingId", Type: "ID", Required: true},
		{Name: "status", Type: `"draft" | "published"`},
	}},
}

func create(data map[string]any) model.Item {
	return model.Item{Kind: model.ItemCommand, Ref: "CreateListing", Data: data}
}

func created(data map[string]any) model.Item {
	return model.Item{Kind: model.ItemEvent, Ref: "ListingCreated", Data: data}
}

func failure(errorType, msg string) model.Item {
	return model.Item{Kind: model.ItemError, ErrorType: errorType, Message: msg}
}

func assemble(flows ...model.Flow) *Assembler {
	doc := &model.Document{Flows: flows, Messages: messages}
	catalog := model.NewCatalog(doc.Messages)
	reg := enums.Derive(catalog.Messages(), typeexpr.NewClassifier(0))
	return New(doc, catalog, reg, Options{OutDir: "src/domain/flows", SharedTypes: "src/domain/shared/types.ts"}, quiet)
}

func TestAssemble_DecisionsPickFirstCleanSuccess(t *testing.T) {
	slice := model.Slice{Type: model.SliceCommand, Name: "Create Listing", Rules: []model.Rule{{
		Description: "listings",
		Examples: []model.Example{
			{
				Description: "blank title",
				When:        []model.Item{create(map[string]any{"listingId": "l-1", "title": ""})},
				Then:        []model.Item{failure("ValidationError", "title is required")},
			},
			{
				Description: "duplicate",
				When:        []model.Item{create(map[string]any{"listingId": "l-2", "title": "Dup"})},
				Then:        []model.Item{created(map[string]any{"listingId": "l-2", "title": "Dup", "status": "draft"})},
			},
			{
				Description: "duplicate rejected",
				When:        []model.Item{create(map[string]any{"listingId": "l-2", "title": "Dup"})},
				Then:        []model.Item{failure("IllegalStateError", "already exists")},
			},
			{
				Description: "created",
				When:        []model.Item{create(map[string]any{"listingId": "l-1", "title": "Loft"})},
				Then:        []model.Item{created(map[string]any{"listingId": "l-1", "title": "Loft", "status": "draft"})},
			},
		},
	}}}
	flow := model.Flow{Name: "Listing Management", Slices: []model.Slice{slice}}
	a := assemble(flow)

	rec := a.Assemble(flow, slice)
	decisions, ok := rec["decisions"].([]Decision)
	require.True(t, ok)
	require.Len(t, decisions, 1)
	d := decisions[0]
	assert.Equal(t, "CreateListing", d.Command.Name)
	require.Len(t, d.Conditions, 3)

	merged := d.Conditions[1]
	assert.True(t, merged.IsError, "a row with an error outcome is an error row even when it also emits")
	assert.Equal(t, "IllegalStateError", merged.ErrorType)
	assert.Len(t, merged.Events, 1)

	require.Len(t, d.Errors, 2)
	assert.Equal(t, "ValidationError", d.Errors[0].ErrorType)
	assert.Equal(t, "IllegalStateError", d.Errors[1].ErrorType)

	require.NotNil(t, d.Success)
	assert.Equal(t, "created", d.Success.Description)
	require.Len(t, d.Success.Events, 1)
	assigned := d.Success.Events[0].Assignments
	require.Len(t, assigned, 3)
	assert.Equal(t, Assignment{Key: "listingId", FromTrigger: true, Value: "l-1", Type: "ID"}, assigned[0])
	assert.Equal(t, "title", assigned[1].Key)
	assert.True(t, assigned[1].FromTrigger)
	assert.Equal(t, Assignment{Key: "status", Value: "draft", Type: `"draft" | "published"`}, assigned[2])

	assert.Equal(t, []string{"IllegalStateError", "ValidationError"}, rec["usedErrors"])
	assert.Equal(t, []string{"IllegalStateError", "ValidationError"}, rec["emmettErrors"])
	assert.Empty(t, rec["customErrors"])
}

func TestAssemble_NoSuccessWithoutCleanRow(t *testing.T) {
	slice := model.Slice{Type: model.SliceCommand, Name: "Create Listing", Rules: []model.Rule{{
		Examples: []model.Example{{
			When: []model.Item{create(map[string]any{"listingId": "l-1"})},
			Then: []model.Item{
				created(map[string]any{"listingId": "l-1"}),
				failure("ListingExists", ""),
			},
		}},
	}}}
	flow := model.Flow{Name: "F", Slices: []model.Slice{slice}}
	a := assemble(flow)

	decisions := a.Assemble(flow, slice)["decisions"].([]Decision)
	require.Len(t, decisions, 1)
	assert.Nil(t, decisions[0].Success)
	assert.Len(t, decisions[0].Errors, 1)
}

func TestSplitErrors(t *testing.T) {
	known, custom := splitErrors([]string{"Error", "ListingExists", "TypeError", "ValidationError"})
	assert.Equal(t, []string{"ValidationError"}, known)
	assert.Equal(t, []string{"ListingExists"}, custom)

	known, custom = splitErrors(nil)
	assert.Empty(t, known)
	assert.Empty(t, custom)
}

func TestAssemble_BuiltinErrorIsNotDeclared(t *testing.T) {
	slice := model.Slice{Type: model.SliceCommand, Name: "Create Listing", Rules: []model.Rule{{
		Examples: []model.Example{{
			When: []model.Item{create(map[string]any{"listingId": "l-1", "title": ""})},
			Then: []model.Item{failure("Error", "nope")},
		}},
	}}}
	flow := model.Flow{Name: "F", Slices: []model.Slice{slice}}
	a := assemble(flow)

	rec := a.Assemble(flow, slice)
	assert.Equal(t, []string{"Error"}, rec["usedErrors"])
	assert.Empty(t, rec["customErrors"])
	assert.Empty(t, rec["emmettErrors"])

	examples := rec["examples"].([]Example)
	require.Len(t, examples, 1)
	assert.True(t, examples[0].IsError)
	assert.Equal(t, "Error", examples[0].ErrorType)
	assert.Equal(t, "nope", examples[0].ErrorMessage)
}

func TestAssemble_ReactionsUseFirstExamplePerTrigger(t *testing.T) {
	trigger := created(map[string]any{"listingId": "l-1", "title": "Loft", "status": "draft"})
	slice := model.Slice{Type: model.SliceReact, Name: "Notify Owner", Rules: []model.Rule{{
		Examples: []model.Example{
			{
				When: []model.Item{trigger},
				Then: []model.Item{{Kind: model.ItemCommand, Ref: "NotifyOwner", Data: map[string]any{"listingId": "l-1", "channel": "email"}}},
			},
			{
				When: []model.Item{trigger},
				Then: []model.Item{{Kind: model.ItemCommand, Ref: "CreateListing", Data: map[string]any{}}},
			},
		},
	}}}
	flow := model.Flow{Name: "Notifications", Slices: []model.Slice{slice}}
	a := assemble(flow)

	rec := a.Assemble(flow, slice)
	reactions := rec["reactions"].([]Reaction)
	require.Len(t, reactions, 1)
	assert.Equal(t, "ListingCreated", reactions[0].Event)
	require.Len(t, reactions[0].Commands, 1)

	cmd := reactions[0].Commands[0]
	assert.Equal(t, "NotifyOwner", cmd.Ref)
	assert.Equal(t, []Assignment{
		{Key: "listingId", FromTrigger: true, Value: "l-1", Type: "ID"},
		{Key: "channel", Value: "email", Type: "string"},
	}, cmd.Assignments)

	assert.Empty(t, rec["decisions"])
	assert.Equal(t, []string{"ListingCreatedStatus"}, rec["eventEnums"])
	assert.Empty(t, rec["commandEnums"])
}

func TestAssemble_QueryStateNameAndIDField(t *testing.T) {
	view := model.Slice{Type: model.SliceQuery, Name: "View Listings", Data: []model.DataItem{{
		Target: model.Target{Type: "State", Name: "ListingView"},
		Origin: &model.Endpoint{Type: "projection", Name: "Listings", IDField: "listingId"},
	}}}
	browse := model.Slice{Type: model.SliceQuery, Name: "Browse"}
	flow := model.Flow{Name: "Listing Management", Slices: []model.Slice{view, browse}}
	a := assemble(flow)

	rec := a.Assemble(flow, view)
	assert.Equal(t, "ListingView", rec["stateName"])
	assert.Equal(t, "listingView", rec["collection"])
	assert.Equal(t, "listingId", rec["projectionIdField"])
	assert.Equal(t, []string{"ListingCreatedStatus"}, rec["stateEnums"])
	assert.Equal(t, "../../../shared/types", rec["sharedTypesPath"])

	rec = a.Assemble(flow, browse)
	assert.Equal(t, "BrowseState", rec["stateName"])
	assert.Equal(t, "id", rec["projectionIdField"])
	assert.Empty(t, rec["stateEnums"])
}

func TestWithAssignments_UndeclaredKeysSorted(t *testing.T) {
	target := Item{
		Data:   map[string]any{"b": 2, "a": 1, "x": "declared"},
		Fields: []model.Field{{Name: "x", Type: "string"}},
	}
	trigger := Item{Data: map[string]any{"a": 0}}

	got := withAssignments(target, trigger)
	require.Len(t, got.Assignments, 3)
	assert.Equal(t, "x", got.Assignments[0].Key)
	assert.False(t, got.Assignments[0].FromTrigger)
	assert.Equal(t, "a", got.Assignments[1].Key)
	assert.True(t, got.Assignments[1].FromTrigger)
	assert.Equal(t, "b", got.Assignments[2].Key)
}
