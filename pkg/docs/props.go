package docs

import (
	"time"

	"github.com/OFFIS-RIT/papertext/backend/pkg/common"
	"github.com/OFFIS-RIT/papertext/backend/pkg/graph"
	"github.com/OFFIS-RIT/papertext/backend/pkg/store"
)

// Property readers accept both the in-memory types and what the Neo4j driver
// returns (int64, []any).

func propString(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

func propStringPtr(props map[string]any, key string) *string {
	s, ok := props[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func propBool(props map[string]any, key string) bool {
	b, _ := props[key].(bool)
	return b
}

func propStrings(props map[string]any, key string) []string {
	switch v := props[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

func propTime(props map[string]any, key string) time.Time {
	switch v := props[key].(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t
		}
	case time.Time:
		return v
	}
	return time.Time{}
}

func corpusFromNode(n store.Node) common.Corpus {
	return common.Corpus{
		ID:      propString(n.Props, "corp_id"),
		Name:    propStringPtr(n.Props, "name"),
		Private: propBool(n.Props, "private"),
	}
}

func documentFromNode(n store.Node, withText bool) common.Document {
	doc := common.Document{
		ID:           propString(n.Props, "doc_id"),
		ParentCorpID: propString(n.Props, "parent_corp_id"),
		Private:      propBool(n.Props, "private"),
		Name:         propStringPtr(n.Props, "name"),
		Author:       propString(n.Props, "author"),
		Created:      propTime(n.Props, "created"),
		Tags:         propStrings(n.Props, "tags"),
	}
	if withText {
		doc.Text = propString(n.Props, "text")
	}
	return doc
}

// issuerNode returns the label and key property an issuer type resolves to.
func issuerNode(issuerType string) (label, key string, ok bool) {
	switch issuerType {
	case common.IssuerUser:
		return graph.LabelUser, "user_id", true
	case common.IssuerOrg:
		return graph.LabelOrg, "org_id", true
	}
	return "", "", false
}
