package sparql

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"ArticleRecommender/internal/domain"
)

const prefixes = `PREFIX schema: <http://schema.org/>
PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>
`

// matchMode joins filter conditions: every one must hold, or any one.
type matchMode string

const (
	matchAll matchMode = " && "
	matchAny matchMode = " || "
)

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// literal renders s as a quoted SPARQL string literal.
func literal(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}

// iriRef renders raw as <raw>, rejecting characters that cannot appear in an IRI reference.
func iriRef(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("empty iri")
	}
	if i := strings.IndexAny(raw, "<>\"{}|^`\\ \t\n\r"); i >= 0 {
		return "", fmt.Errorf("invalid character %q in iri %q", raw[i], raw)
	}
	return "<" + raw + ">", nil
}

func dateTimeLiteral(t time.Time) string {
	return literal(t.UTC().Format(time.RFC3339)) + "^^xsd:dateTime"
}

// describeQuery expands a subject two hops: its own statements and those of its non-literal objects.
func describeQuery(subject string) string {
	return prefixes + `SELECT ?p ?o ?subP ?subO
WHERE {
  ` + subject + ` ?p ?o .
  OPTIONAL {
    FILTER (!isLiteral(?o))
    ?o ?subP ?subO
  }
}`
}

// conditions turns filters into EXISTS clauses over ?article.
func conditions(f domain.SearchFilters) []string {
	var conds []string

	for _, kw := range strings.Fields(f.Keywords) {
		conds = append(conds, fmt.Sprintf(
			`EXISTS { ?article schema:keywords ?kw . FILTER(CONTAINS(LCASE(STR(?kw)), %s)) }`,
			literal(strings.ToLower(kw))))
	}
	if f.WordCount != nil {
		conds = append(conds, fmt.Sprintf(
			`EXISTS { ?article schema:wordCount ?wc . FILTER(xsd:integer(?wc) = %d) }`, *f.WordCount))
	}
	if f.WordCountMin != nil && f.WordCountMax != nil {
		conds = append(conds, fmt.Sprintf(
			`EXISTS { ?article schema:wordCount ?wc . FILTER(xsd:integer(?wc) >= %d && xsd:integer(?wc) <= %d) }`,
			*f.WordCountMin, *f.WordCountMax))
	}
	if f.InLanguage != "" {
		conds = append(conds, fmt.Sprintf(
			`EXISTS { ?article schema:inLanguage ?lang . FILTER(LCASE(STR(?lang)) = %s) }`,
			literal(strings.ToLower(f.InLanguage))))
	}
	if f.AuthorName != "" {
		conds = append(conds, fmt.Sprintf(
			`EXISTS { ?article schema:author/schema:name ?an . FILTER(STR(?an) = %s) }`, literal(f.AuthorName)))
	}
	if f.AuthorNationality != "" {
		conds = append(conds, fmt.Sprintf(
			`EXISTS { ?article schema:author/schema:nationality ?nat . FILTER(STR(?nat) = %s) }`, literal(f.AuthorNationality)))
	}
	if f.Publisher != "" {
		conds = append(conds, fmt.Sprintf(
			`EXISTS { ?article schema:publisher/schema:name ?pn . FILTER(STR(?pn) = %s) }`, literal(f.Publisher)))
	}
	if f.DatePublished != nil {
		conds = append(conds, fmt.Sprintf(
			`EXISTS { ?article schema:datePublished ?dp . FILTER(xsd:dateTime(?dp) = %s) }`, dateTimeLiteral(*f.DatePublished)))
	}
	if f.DatePublishedMin != nil && f.DatePublishedMax != nil {
		conds = append(conds, fmt.Sprintf(
			`EXISTS { ?article schema:datePublished ?dp . FILTER(xsd:dateTime(?dp) >= %s && xsd:dateTime(?dp) <= %s) }`,
			dateTimeLiteral(*f.DatePublishedMin), dateTimeLiteral(*f.DatePublishedMax)))
	}

	return conds
}

// articlesQuery selects up to limit articles and expands each of them two hops.
// Articles are subjects carrying a headline; rows are ordered by article.
func articlesQuery(conds []string, mode matchMode, limit int) string {
	var filter string
	if len(conds) > 0 {
		filter = "\n      FILTER(" + strings.Join(conds, string(mode)) + ")"
	}

	return prefixes + `SELECT ?article ?p ?o ?subP ?subO
WHERE {
  {
    SELECT DISTINCT ?article
    WHERE {
      ?article schema:headline ?headline .` + filter + `
    }
    ORDER BY ?article
    LIMIT ` + strconv.Itoa(limit) + `
  }
  ?article ?p ?o .
  OPTIONAL {
    FILTER (!isLiteral(?o))
    ?o ?subP ?subO
  }
}
ORDER BY ?article`
}

// deleteUpdate removes an article's statements and the second-hop statements of its
// non-agent objects. Author, editor and publisher nodes are kept for other articles.
func deleteUpdate(subject string) string {
	return prefixes + `DELETE { ?o ?subP ?subO }
WHERE {
  ` + subject + ` ?p ?o .
  FILTER (!isLiteral(?o) && ?p NOT IN (schema:author, schema:publisher, schema:editor))
  ?o ?subP ?subO .
} ;
DELETE WHERE { ` + subject + ` ?p ?o . }`
}
