package common

import "time"

// RootCorpusID is the corp_id of the corpus every top-level corpus and
// unparented document hangs off.
const RootCorpusID = "root"

// Issuer types accepted when creating corpora and documents.
const (
	IssuerUser = "user"
	IssuerOrg  = "org"
)

// Organization mirrors an organisation of the identity directory.
type Organization struct {
	ID   string `json:"org_id"`
	Name string `json:"org_name"`
}

// User mirrors a user of the identity directory. Every user belongs to exactly
// one organization.
type User struct {
	ID            string `json:"user_id"`
	Name          string `json:"user_name"`
	Email         string `json:"email"`
	LevelOfAccess int    `json:"level_of_access"`
	MemberOf      string `json:"member_of"`
}

// Corpus is a named container of documents. Corpora form a forest rooted at
// the corpus with id RootCorpusID.
type Corpus struct {
	ID      string  `json:"corp_id"`
	Name    *string `json:"name"`
	Private bool    `json:"private"`
}

// MinimalCorpus is the listing representation of a corpus.
type MinimalCorpus struct {
	ID   string  `json:"corp_id"`
	Name *string `json:"name"`
}

// CorpusDetails is a corpus together with the ids of what it directly contains.
type CorpusDetails struct {
	Corpus
	Corpora   []string `json:"corpora"`
	Documents []string `json:"documents"`
}

// Document is the persisted representation of an ingested text. Text is left
// empty in listings.
type Document struct {
	ID           string    `json:"doc_id"`
	ParentCorpID string    `json:"parent_corp_id"`
	Text         string    `json:"text,omitempty"`
	Private      bool      `json:"private"`
	Name         *string   `json:"name"`
	Author       string    `json:"author"`
	Created      time.Time `json:"created"`
	Tags         []string  `json:"tags"`
}
