// Package annotation defines the annotation tree produced by the external
// linguistic analysis service and the client contract used to obtain it.
package annotation

import (
	"context"
	"fmt"
	"strconv"
)

// Annotator converts raw text into an annotation tree.
type Annotator interface {
	Annotate(ctx context.Context, text string) (*Tree, error)
}

// Tree is the analysis of one text: ordered sentences.
type Tree struct {
	Sentences []Sentence
}

// Sentence holds its ordered clauses and the predicate-argument roles whose
// word indices refer to words of this sentence.
type Sentence struct {
	Attrs   map[string]any
	Clauses []Clause
	Roles   []Role
}

type Clause struct {
	Attrs map[string]any
	Words []Word
}

// Word carries the typed fields the graph mapper relies on. Attrs holds every
// attribute of the element, typed ones included, after coercion.
type Word struct {
	Idx             int
	SyntaxParentIdx *int
	SyntaxLinkName  string
	BeginOffset     *int
	EndOffset       *int
	Attrs           map[string]any
}

// IsSyntacticRoot reports whether the word has no governor to link from.
func (w Word) IsSyntacticRoot() bool {
	return w.SyntaxParentIdx == nil || *w.SyntaxParentIdx == w.Idx
}

// Role is a predicate word plus its tagged argument words.
type Role struct {
	WordIdx   int
	Arguments []Argument
}

type Argument struct {
	WordIdx int
	RoleID  int
}

// WordCount returns the number of words across all clauses of the sentence.
func (s Sentence) WordCount() int {
	n := 0
	for _, c := range s.Clauses {
		n += len(c.Words)
	}
	return n
}

var (
	intFields = map[string]struct{}{
		"idx":               {},
		"dwInfo":            {},
		"dwId":              {},
		"ucType":            {},
		"syntax_parent_idx": {},
		"begin_offset":      {},
		"end_offset":        {},
	}
	boolFields = map[string]struct{}{
		"bGeo": {},
	}
)

// CoerceAttrs converts the declared integer and boolean fields of raw and
// passes every other attribute through as a string.
func CoerceAttrs(raw map[string]string) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if _, ok := intFields[k]; ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("attribute %s: %q is not an integer", k, v)
			}
			out[k] = n
			continue
		}
		if _, ok := boolFields[k]; ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("attribute %s: %q is not a boolean", k, v)
			}
			out[k] = b
			continue
		}
		out[k] = v
	}
	return out, nil
}

// NewWord builds a Word from raw element attributes. idx is mandatory.
func NewWord(raw map[string]string) (Word, error) {
	attrs, err := CoerceAttrs(raw)
	if err != nil {
		return Word{}, err
	}
	idx, ok := attrs["idx"].(int)
	if !ok {
		return Word{}, fmt.Errorf("word without idx attribute")
	}

	w := Word{
		Idx:             idx,
		SyntaxParentIdx: intPtr(attrs, "syntax_parent_idx"),
		BeginOffset:     intPtr(attrs, "begin_offset"),
		EndOffset:       intPtr(attrs, "end_offset"),
		Attrs:           attrs,
	}
	if name, ok := attrs["syntax_link_name"].(string); ok {
		w.SyntaxLinkName = name
	}
	return w, nil
}

func intPtr(attrs map[string]any, key string) *int {
	v, ok := attrs[key].(int)
	if !ok {
		return nil
	}
	return &v
}
