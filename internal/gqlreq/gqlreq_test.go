package gqlreq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Query(t *testing.T) {
	req, err := Parse(`query AvailableListings($location: String, $maxPrice: Float!, $tags: [String!]!) {
  availableListings(location: $location, maxPrice: $maxPrice, tags: $tags) {
    propertyId
    title
  }
}`)
	require.NoError(t, err)
	assert.Equal(t, "query", req.Operation)
	assert.Equal(t, "AvailableListings", req.Name)
	assert.Equal(t, "availableListings", req.Field)
	assert.Equal(t, "AvailableListings", req.ReturnType)

	require.Len(t, req.Args, 3)
	assert.Equal(t, Arg{Name: "location", GQLType: "String", Named: "String", Nullable: true, TSType: "string"}, req.Args[0])
	assert.Equal(t, Arg{Name: "maxPrice", GQLType: "Float!", Named: "Float", TSType: "number"}, req.Args[1])
	assert.Equal(t, Arg{Name: "tags", GQLType: "[String!]!", Named: "String", List: true, TSType: "string[]"}, req.Args[2])
}

func TestParse_Mutation(t *testing.T) {
	req, err := Parse(`mutation CreateListing($input: CreateListingInput!) { createListing(input: $input) { success } }`)
	require.NoError(t, err)
	assert.Equal(t, "mutation", req.Operation)
	assert.Equal(t, "CreateListing", req.ReturnType)
	require.Len(t, req.Args, 1)
	assert.Equal(t, "CreateListingInput", req.Args[0].TSType)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(`query {`)
	assert.Error(t, err)

	_, err = Parse(`fragment F on T { a }`)
	assert.ErrorIs(t, err, ErrNoOperation)
}
