// Package neo4j implements store.GraphStorage on top of a Neo4j database.
package neo4j

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/OFFIS-RIT/papertext/backend/pkg/logger"
	"github.com/OFFIS-RIT/papertext/backend/pkg/store"

	neo4jdriver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphDBStorage implements store.GraphStorage using the Neo4j bolt driver.
// Each transaction runs in its own write session.
type GraphDBStorage struct {
	driver   neo4jdriver.DriverWithContext
	database string
}

// NewGraphDBStorageParams contains connection settings.
type NewGraphDBStorageParams struct {
	Scheme   string
	Host     string
	Port     int
	Username string
	Password string
	Database string
}

// URI renders the bolt/neo4j connection string.
func (p NewGraphDBStorageParams) URI() string {
	scheme := p.Scheme
	if scheme == "" {
		scheme = "neo4j"
	}
	port := p.Port
	if port == 0 {
		port = 7687
	}
	return fmt.Sprintf("%s://%s:%d", scheme, p.Host, port)
}

// NewGraphDBStorage creates the driver. Connectivity is checked separately via
// VerifyConnectivity so callers can decide how to retry.
func NewGraphDBStorage(params NewGraphDBStorageParams) (*GraphDBStorage, error) {
	auth := neo4jdriver.BasicAuth(params.Username, params.Password, "")
	driver, err := neo4jdriver.NewDriverWithContext(params.URI(), auth)
	if err != nil {
		return nil, fmt.Errorf("error creating Neo4j driver: %w", err)
	}
	return NewGraphDBStorageWithDriver(driver, params.Database), nil
}

// NewGraphDBStorageWithDriver wraps an existing driver.
func NewGraphDBStorageWithDriver(driver neo4jdriver.DriverWithContext, database string) *GraphDBStorage {
	return &GraphDBStorage{driver: driver, database: database}
}

func (s *GraphDBStorage) VerifyConnectivity(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

func (s *GraphDBStorage) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *GraphDBStorage) session(ctx context.Context) neo4jdriver.SessionWithContext {
	return s.driver.NewSession(ctx, neo4jdriver.SessionConfig{
		AccessMode:   neo4jdriver.AccessModeWrite,
		DatabaseName: s.database,
	})
}

func (s *GraphDBStorage) Begin(ctx context.Context) (store.Tx, error) {
	session := s.session(ctx)
	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		session.Close(ctx)
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	return &neoTx{session: session, tx: tx}, nil
}

// EnsureUniqueConstraint creates a named uniqueness constraint if it does not
// exist yet.
func (s *GraphDBStorage) EnsureUniqueConstraint(ctx context.Context, label, property string) error {
	l, err := quote(label)
	if err != nil {
		return err
	}
	p, err := quote(property)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("%s_%s_unique", label, property)
	query := fmt.Sprintf("CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE", name, l, p)

	session := s.session(ctx)
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4jdriver.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return translate(fmt.Errorf("create constraint %s: %w", name, err))
	}
	logger.Debug("[Neo4j][EnsureUniqueConstraint] Constraint present", "label", label, "property", property)
	return nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quote backtick-quotes a label, relationship type or property key. Only plain
// identifiers are accepted since they are interpolated into Cypher.
func quote(name string) (string, error) {
	if !identifier.MatchString(name) {
		return "", fmt.Errorf("invalid graph identifier %q", name)
	}
	return "`" + name + "`", nil
}

const constraintViolationCode = "Neo.ClientError.Schema.ConstraintValidationFailed"

var constraintMessage = regexp.MustCompile("label `([^`]+)` and property `([^`]+)`")

// translate turns Neo4j constraint violations into store.ConstraintError.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var nerr *neo4jdriver.Neo4jError
	if !errors.As(err, &nerr) || nerr.Code != constraintViolationCode {
		return err
	}
	cErr := &store.ConstraintError{Cause: err}
	if m := constraintMessage.FindStringSubmatch(nerr.Msg); m != nil {
		cErr.Label, cErr.Property = m[1], m[2]
	}
	return cErr
}

func cleanProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

// whereClause renders "WHERE n.`k` = $p0 AND ..." for match.
func whereClause(variable string, match map[string]any, params map[string]any) (string, error) {
	if len(match) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(match))
	for k := range match {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for i, k := range keys {
		q, err := quote(k)
		if err != nil {
			return "", err
		}
		name := fmt.Sprintf("p%d", i)
		params[name] = match[k]
		parts = append(parts, fmt.Sprintf("%s.%s = $%s", variable, q, name))
	}
	return "WHERE " + strings.Join(parts, " AND "), nil
}
