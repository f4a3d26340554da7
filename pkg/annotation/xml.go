package annotation

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

type xmlElement struct {
	XMLName  xml.Name
	Attrs    []xml.Attr   `xml:",any,attr"`
	Children []xmlElement `xml:",any"`
}

func (e xmlElement) attrMap() map[string]string {
	m := make(map[string]string, len(e.Attrs))
	for _, a := range e.Attrs {
		m[a.Name.Local] = a.Value
	}
	return m
}

func (e xmlElement) intAttr(name string) (int, error) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			n, err := strconv.Atoi(a.Value)
			if err != nil {
				return 0, fmt.Errorf("<%s> attribute %s: %q is not an integer", e.XMLName.Local, name, a.Value)
			}
			return n, nil
		}
	}
	return 0, fmt.Errorf("<%s> is missing attribute %s", e.XMLName.Local, name)
}

// ParseXML decodes the service's XML rendering. Every child of the document
// element is a sentence; sentence children are <clause> or <role> elements,
// clause children are words and role children are arguments.
func ParseXML(r io.Reader) (*Tree, error) {
	var root xmlElement
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("decode annotation xml: %w", err)
	}

	tree := &Tree{Sentences: make([]Sentence, 0, len(root.Children))}
	for si, sentEl := range root.Children {
		sent, err := parseSentence(sentEl)
		if err != nil {
			return nil, fmt.Errorf("sentence %d: %w", si, err)
		}
		tree.Sentences = append(tree.Sentences, sent)
	}
	return tree, nil
}

func parseSentence(el xmlElement) (Sentence, error) {
	attrs, err := CoerceAttrs(el.attrMap())
	if err != nil {
		return Sentence{}, err
	}
	sent := Sentence{Attrs: attrs}

	for _, child := range el.Children {
		switch child.XMLName.Local {
		case "clause":
			clause, err := parseClause(child)
			if err != nil {
				return Sentence{}, err
			}
			sent.Clauses = append(sent.Clauses, clause)
		case "role":
			role, err := parseRole(child)
			if err != nil {
				return Sentence{}, err
			}
			sent.Roles = append(sent.Roles, role)
		}
	}
	return sent, nil
}

func parseClause(el xmlElement) (Clause, error) {
	attrs, err := CoerceAttrs(el.attrMap())
	if err != nil {
		return Clause{}, err
	}
	clause := Clause{Attrs: attrs, Words: make([]Word, 0, len(el.Children))}
	for _, wordEl := range el.Children {
		w, err := NewWord(wordEl.attrMap())
		if err != nil {
			return Clause{}, err
		}
		clause.Words = append(clause.Words, w)
	}
	return clause, nil
}

func parseRole(el xmlElement) (Role, error) {
	idx, err := el.intAttr("word_idx")
	if err != nil {
		return Role{}, err
	}
	role := Role{WordIdx: idx}
	for _, argEl := range el.Children {
		argIdx, err := argEl.intAttr("word_idx")
		if err != nil {
			return Role{}, err
		}
		roleID, err := argEl.intAttr("role_id")
		if err != nil {
			return Role{}, err
		}
		role.Arguments = append(role.Arguments, Argument{WordIdx: argIdx, RoleID: roleID})
	}
	return role, nil
}
