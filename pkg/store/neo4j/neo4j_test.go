package neo4j

import (
	"errors"
	"fmt"
	"testing"

	"github.com/OFFIS-RIT/papertext/backend/pkg/store"

	neo4jdriver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURI(t *testing.T) {
	assert.Equal(t, "neo4j://localhost:7687", NewGraphDBStorageParams{Host: "localhost"}.URI())
	assert.Equal(t, "bolt://db:7688", NewGraphDBStorageParams{Scheme: "bolt", Host: "db", Port: 7688}.URI())
}

func TestQuote(t *testing.T) {
	q, err := quote("syntax_link")
	require.NoError(t, err)
	assert.Equal(t, "`syntax_link`", q)

	for _, bad := range []string{"", "a b", "x`) DETACH DELETE (n", "1abc"} {
		_, err := quote(bad)
		assert.Error(t, err, bad)
	}
}

func TestWhereClause(t *testing.T) {
	params := map[string]any{}
	where, err := whereClause("n", map[string]any{"org_id": "o1", "corp_id": "c1"}, params)
	require.NoError(t, err)
	assert.Equal(t, "WHERE n.`corp_id` = $p0 AND n.`org_id` = $p1", where)
	assert.Equal(t, map[string]any{"p0": "c1", "p1": "o1"}, params)

	where, err = whereClause("n", nil, params)
	require.NoError(t, err)
	assert.Empty(t, where)
}

func TestTranslateConstraintViolation(t *testing.T) {
	nerr := &neo4jdriver.Neo4jError{
		Code: constraintViolationCode,
		Msg:  "Node(12) already exists with label `document` and property `doc_id` = 'd1'",
	}
	err := translate(fmt.Errorf("error committing transaction: %w", nerr))

	require.ErrorIs(t, err, store.ErrConstraint)
	var cErr *store.ConstraintError
	require.True(t, errors.As(err, &cErr))
	assert.Equal(t, "document", cErr.Label)
	assert.Equal(t, "doc_id", cErr.Property)
}

func TestTranslatePassesOtherErrors(t *testing.T) {
	other := &neo4jdriver.Neo4jError{Code: "Neo.ClientError.Statement.SyntaxError", Msg: "bad"}
	assert.Same(t, error(other), translate(other))
	assert.Nil(t, translate(nil))
}

func TestCleanProps(t *testing.T) {
	assert.Equal(t, map[string]any{"a": 1}, cleanProps(map[string]any{"a": 1, "b": nil}))
}
