package generator

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/flowgen/internal/config"
	"github.com/matthewbaird/flowgen/internal/eventbus"
	"github.com/matthewbaird/flowgen/internal/format"
	"github.com/matthewbaird/flowgen/internal/model"
	"github.com/matthewbaird/flowgen/internal/plan"
)

const sharedPath = "src/domain/shared/types.ts"

func loadFixture(t *testing.T) *model.Document {
	t.Helper()
	data, err := os.ReadFile("testdata/flows.json")
	require.NoError(t, err)
	doc, err := model.Decode(data)
	require.NoError(t, err)
	return doc
}

func testOptions() Options {
	return Options{
		OutDir:        "src/domain/flows",
		SharedTypes:   sharedPath,
		SpecsFilename: "decide.specs.ts",
		Concurrency:   4,
	}
}

type recorder struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (r *recorder) Publish(_ context.Context, evt eventbus.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) count(kind eventbus.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func fileByPath(t *testing.T, files []plan.File, path string) string {
	t.Helper()
	for _, f := range files {
		if f.Path == path {
			return string(f.Contents)
		}
	}
	require.Failf(t, "file not planned", "%s", path)
	return ""
}

func paths(files []plan.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestGenerate_PlansEverySliceFile(t *testing.T) {
	gen := New(testOptions(), format.WhitespaceFormatter{}, nil, nil, nil)
	res, err := gen.Generate(context.Background(), loadFixture(t))
	require.NoError(t, err)

	create := "src/domain/flows/listing-management/create-listing/"
	view := "src/domain/flows/listing-management/view-listings/"
	notify := "src/domain/flows/notifications/notify-owner/"
	want := []string{
		create + "commands.ts",
		create + "decide.specs.ts",
		create + "decide.ts",
		create + "events.ts",
		create + "evolve.ts",
		create + "handle.ts",
		create + "mutation.resolver.ts",
		create + "register.ts",
		create + "state.ts",
		view + "projection.specs.ts",
		view + "projection.ts",
		view + "query.resolver.ts",
		view + "state.ts",
		notify + "react.specs.ts",
		notify + "react.ts",
		notify + "register.ts",
		sharedPath,
	}
	assert.Equal(t, want, paths(res.Files))
	assert.NotEmpty(t, res.RunID)

	for _, f := range res.Files {
		assert.True(t, strings.HasSuffix(string(f.Contents), "\n"), f.Path)
		assert.False(t, strings.HasSuffix(string(f.Contents), "\n\n"), f.Path)
	}
}

func TestGenerate_CreatesSharedModule(t *testing.T) {
	gen := New(testOptions(), nil, nil, nil, nil)
	res, err := gen.Generate(context.Background(), loadFixture(t))
	require.NoError(t, err)

	require.Len(t, res.Enums, 1)
	assert.Equal(t, "ListingCreatedStatus", res.Enums[0].Name)
	assert.Equal(t, res.Enums, res.NewEnums)

	shared := fileByPath(t, res.Files, sharedPath)
	assert.Contains(t, shared, "import { registerEnumType } from 'type-graphql';")
	assert.Contains(t, shared, "export enum ListingCreatedStatus {")
	assert.Contains(t, shared, "DRAFT = 'draft',")
	assert.Contains(t, shared, "registerEnumType(ListingCreatedStatus, { name: 'ListingCreatedStatus' });")
}

func TestGenerate_ExistingEnumIsNotRewritten(t *testing.T) {
	existing := fstest.MapFS{
		sharedPath: {Data: []byte(`import { registerEnumType } from 'type-graphql';

export enum ListingCreatedStatus {
  DRAFT = 'draft',
  PUBLISHED = 'published',
}
registerEnumType(ListingCreatedStatus, { name: 'ListingCreatedStatus' });
`)},
	}
	gen := New(testOptions(), nil, existing, nil, nil)
	res, err := gen.Generate(context.Background(), loadFixture(t))
	require.NoError(t, err)

	assert.Empty(t, res.NewEnums)
	assert.NotContains(t, paths(res.Files), sharedPath)
}

func TestGenerate_AppendsToExistingModule(t *testing.T) {
	existing := fstest.MapFS{
		sharedPath: {Data: []byte("export type Money = { amount: number };\n")},
	}
	gen := New(testOptions(), nil, existing, nil, nil)
	res, err := gen.Generate(context.Background(), loadFixture(t))
	require.NoError(t, err)

	shared := fileByPath(t, res.Files, sharedPath)
	assert.True(t, strings.HasPrefix(shared, "import { registerEnumType } from 'type-graphql';\n"))
	assert.Contains(t, shared, "export type Money = { amount: number };")
	assert.Contains(t, shared, "export enum ListingCreatedStatus {")
}

func TestGenerate_UnreadableExistingModule(t *testing.T) {
	existing := fstest.MapFS{
		sharedPath: {Data: []byte("export enum Broken { A = 'unterminated }")},
	}
	gen := New(testOptions(), nil, existing, nil, nil)
	_, err := gen.Generate(context.Background(), loadFixture(t))
	assert.Error(t, err)
}

func TestGenerate_Deterministic(t *testing.T) {
	doc := loadFixture(t)
	first, err := New(testOptions(), nil, nil, nil, nil).Generate(context.Background(), doc)
	require.NoError(t, err)

	opts := testOptions()
	opts.Concurrency = 1
	second, err := New(opts, nil, nil, nil, nil).Generate(context.Background(), doc)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Files, second.Files)
}

func TestGenerate_CrossFlowImport(t *testing.T) {
	res, err := New(testOptions(), nil, nil, nil, nil).Generate(context.Background(), loadFixture(t))
	require.NoError(t, err)

	react := fileByPath(t, res.Files, "src/domain/flows/notifications/notify-owner/react.ts")
	assert.Contains(t, react, "import type { ListingCreated } from '../../listing-management/create-listing/events';")
	assert.Contains(t, react, "export type NotifyOwner = Command<'NotifyOwner', {")
	assert.NotContains(t, react, "export type ListingCreated =")
	assert.Contains(t, react, "case 'ListingCreated':")
	assert.Contains(t, react, "type: 'NotifyOwner',")
	assert.Contains(t, react, "listingId: event.data.listingId")
	assert.Contains(t, react, "channel: 'email'")
}

func TestGenerate_SameFlowImport(t *testing.T) {
	res, err := New(testOptions(), nil, nil, nil, nil).Generate(context.Background(), loadFixture(t))
	require.NoError(t, err)

	projection := fileByPath(t, res.Files, "src/domain/flows/listing-management/view-listings/projection.ts")
	assert.Contains(t, projection, "import type { ListingCreated } from '../create-listing/events';")
	assert.Contains(t, projection, "pongoMultiStreamProjection")
	assert.Contains(t, projection, "listingId")
}

func TestGenerate_DecideGuard(t *testing.T) {
	res, err := New(testOptions(), nil, nil, nil, nil).Generate(context.Background(), loadFixture(t))
	require.NoError(t, err)

	decide := fileByPath(t, res.Files, "src/domain/flows/listing-management/create-listing/decide.ts")
	assert.Contains(t, decide, "import { ValidationError } from '@event-driven-io/emmett';")
	assert.Contains(t, decide, "if (!command.data.title) {")
	assert.Contains(t, decide, "throw new ValidationError('title is required');")
	assert.Contains(t, decide, "type: 'ListingCreated',")
	assert.Contains(t, decide, "status: ListingCreatedStatus.DRAFT")
	assert.NotContains(t, decide, "class ValidationError")
}

func TestGenerate_SpecsUseDateAndEnumLiterals(t *testing.T) {
	res, err := New(testOptions(), nil, nil, nil, nil).Generate(context.Background(), loadFixture(t))
	require.NoError(t, err)

	specs := fileByPath(t, res.Files, "src/domain/flows/listing-management/create-listing/decide.specs.ts")
	assert.Contains(t, specs, "publishedAt: new Date('2025-01-15T10:00:00Z')")
	assert.Contains(t, specs, "status: ListingCreatedStatus.DRAFT")
	assert.Contains(t, specs, "import { ListingCreatedStatus } from '../../../shared/types';")
	assert.Contains(t, specs, ".thenThrows(")
	assert.Contains(t, specs, "error instanceof ValidationError && error.message === 'title is required'")
}

func TestGenerate_EnumImportsFollowFileContents(t *testing.T) {
	res, err := New(testOptions(), nil, nil, nil, nil).Generate(context.Background(), loadFixture(t))
	require.NoError(t, err)

	const create = "src/domain/flows/listing-management/create-listing/"
	const view = "src/domain/flows/listing-management/view-listings/"
	const imp = "import { ListingCreatedStatus } from '../../../shared/types';"

	assert.Contains(t, fileByPath(t, res.Files, create+"events.ts"), imp)
	assert.Contains(t, fileByPath(t, res.Files, create+"decide.ts"), imp)
	assert.NotContains(t, fileByPath(t, res.Files, create+"state.ts"), "ListingCreatedStatus")
	assert.NotContains(t, fileByPath(t, res.Files, create+"commands.ts"), "ListingCreatedStatus")
	assert.NotContains(t, fileByPath(t, res.Files, create+"mutation.resolver.ts"), "ListingCreatedStatus")

	assert.Contains(t, fileByPath(t, res.Files, view+"state.ts"), imp)
	assert.NotContains(t, fileByPath(t, res.Files, view+"projection.ts"), "ListingCreatedStatus")
}

func TestGenerate_StreamID(t *testing.T) {
	res, err := New(testOptions(), nil, nil, nil, nil).Generate(context.Background(), loadFixture(t))
	require.NoError(t, err)

	handle := fileByPath(t, res.Files, "src/domain/flows/listing-management/create-listing/handle.ts")
	assert.Contains(t, handle, "// e.g. listing-l-1")
	assert.Contains(t, handle, "`listing-${command.data.listingId}`")
}

func TestGenerate_LegacySpecsFilename(t *testing.T) {
	opts := testOptions()
	opts.SpecsFilename = "specs.ts"
	res, err := New(opts, nil, nil, nil, nil).Generate(context.Background(), loadFixture(t))
	require.NoError(t, err)

	all := paths(res.Files)
	assert.Contains(t, all, "src/domain/flows/listing-management/create-listing/specs.ts")
	assert.NotContains(t, all, "src/domain/flows/listing-management/create-listing/decide.specs.ts")
}

func TestGenerate_FlowFilterKeepsCrossFlowResolution(t *testing.T) {
	opts := testOptions()
	opts.Flows = config.Config{Flows: []string{"Notifications"}}
	res, err := New(opts, nil, nil, nil, nil).Generate(context.Background(), loadFixture(t))
	require.NoError(t, err)

	for _, f := range res.Files {
		if f.Path == sharedPath {
			continue
		}
		assert.Equal(t, "Notifications", f.Flow)
	}
	react := fileByPath(t, res.Files, "src/domain/flows/notifications/notify-owner/react.ts")
	assert.Contains(t, react, "'../../listing-management/create-listing/events'")
}

func TestGenerate_PublishesLifecycle(t *testing.T) {
	rec := &recorder{}
	res, err := New(testOptions(), nil, nil, rec, nil).Generate(context.Background(), loadFixture(t))
	require.NoError(t, err)

	assert.Equal(t, 1, rec.count(eventbus.RunStarted))
	assert.Equal(t, 1, rec.count(eventbus.EnumsRegistered))
	assert.Equal(t, 3, rec.count(eventbus.SliceRendered))
	assert.Equal(t, len(res.Files), rec.count(eventbus.FilePlanned))
	assert.Equal(t, 1, rec.count(eventbus.RunFinished))
	assert.Zero(t, rec.count(eventbus.RunFailed))
	for _, e := range rec.events {
		assert.Equal(t, res.RunID, e.RunID)
	}
}

type failingFormatter struct{}

func (failingFormatter) Format(context.Context, string, []byte) ([]byte, error) {
	return nil, errors.New("formatter exploded")
}

func TestGenerate_FormatterErrorAbortsRun(t *testing.T) {
	rec := &recorder{}
	res, err := New(testOptions(), failingFormatter{}, nil, rec, nil).Generate(context.Background(), loadFixture(t))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "formatter exploded")
	assert.Equal(t, 1, rec.count(eventbus.RunFailed))
	assert.Zero(t, rec.count(eventbus.RunFinished))
}

func TestGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(testOptions(), nil, nil, nil, nil).Generate(ctx, loadFixture(t))
	assert.ErrorIs(t, err, context.Canceled)
}
