// Package search implements the match job engine and the cooperative
// search scheduler: a free-text query is decomposed into an ordered list
// of match strategies per document, and the strategies run either in one
// synchronous pass or incrementally, one job per scheduling tick.
package search

import (
	"strings"

	"github.com/hupe1980/treemirror/tree"
)

// Kind identifies one match strategy. The set is closed; dispatch happens
// in Job.Run.
type Kind int

const (
	// KindExactID matches a single node by identifier attribute equality.
	KindExactID Kind = iota + 1
	// KindExactClassNames matches elements via the class-name index.
	KindExactClassNames
	// KindExactTagNames matches elements via the tag-name index.
	KindExactTagNames
	// KindSelector delegates to the structural-selector capability.
	KindSelector
	// KindPath delegates to the path-query capability.
	KindPath
	// KindPlainText is a path query specialized to text/comment content
	// containing the query substring.
	KindPlainText
)

// String returns the strategy name.
func (k Kind) String() string {
	switch k {
	case KindExactID:
		return "exact-id"
	case KindExactClassNames:
		return "exact-class-names"
	case KindExactTagNames:
		return "exact-tag-names"
	case KindSelector:
		return "selector"
	case KindPath:
		return "path"
	case KindPlainText:
		return "plain-text"
	default:
		return "unknown"
	}
}

// Job is one match strategy queued against one document. Jobs are
// stateless; they read the live tree at execution time and may observe a
// tree that changed since they were queued.
type Job struct {
	Kind     Kind
	Document tree.Document
	Query    string
}

// Run executes the job and returns the matched nodes in document order.
// Capability errors (malformed selectors, rejected path expressions) are
// treated as "no matches", never as faults.
func (j Job) Run() []tree.Node {
	if j.Query == "" {
		return nil
	}
	switch j.Kind {
	case KindExactID:
		if el := j.Document.ElementByID(j.Query); el != nil {
			return []tree.Node{el}
		}
		return nil
	case KindExactClassNames:
		return j.Document.ElementsByClassName(j.Query)
	case KindExactTagNames:
		return j.Document.ElementsByTagName(j.Query)
	case KindSelector:
		nodes, err := j.Document.QuerySelectorAll(j.Query)
		if err != nil {
			return nil
		}
		return nodes
	case KindPath:
		nodes, err := j.Document.QueryPath(j.Query)
		if err != nil {
			return nil
		}
		return nodes
	case KindPlainText:
		nodes, err := j.Document.QueryPath(plainTextExpr(j.Query))
		if err != nil {
			return nil
		}
		return nodes
	default:
		return nil
	}
}

// plainTextExpr builds the path expression matching text and comment
// nodes containing the (already escaped) query substring.
func plainTextExpr(escaped string) string {
	return "//text()[contains(., '" + escaped + "')] | //comment()[contains(., '" + escaped + "')]"
}

// escapeQuery escapes single quotes for embedding in a path expression
// string literal.
func escapeQuery(q string) string {
	return strings.ReplaceAll(q, "'", `\'`)
}

// Decompose turns a whitespace-trimmed free-text query into the ordered
// job list for the given documents. Rules are applied per document; the
// first matching rule wins and only its jobs are queued for that
// document.
func Decompose(query string, docs ...tree.Document) []Job {
	query = strings.TrimSpace(query)

	startTagFound := strings.HasPrefix(query, "<")
	endTagFound := strings.HasSuffix(query, ">")

	tagQuery := query
	if startTagFound || endTagFound {
		start := 0
		end := len(tagQuery)
		if startTagFound {
			start = 1
		}
		if endTagFound {
			end--
		}
		tagQuery = tagQuery[start:end]
	}
	if !tree.IsValidName(tagQuery) {
		tagQuery = ""
	}

	attrQuery := query
	if !tree.IsValidName(attrQuery) {
		attrQuery = ""
	}

	escaped := escapeQuery(query)
	escapedTag := escapeQuery(tagQuery)

	var jobs []Job
	for _, doc := range docs {
		switch {
		case startTagFound && endTagFound:
			jobs = append(jobs,
				Job{Kind: KindExactTagNames, Document: doc, Query: tagQuery},
				Job{Kind: KindPlainText, Document: doc, Query: escaped},
			)
		case startTagFound:
			jobs = append(jobs,
				Job{Kind: KindPath, Document: doc, Query: "//*[starts-with(name(), '" + escapedTag + "')]"},
				Job{Kind: KindPlainText, Document: doc, Query: escaped},
			)
		case endTagFound:
			// Path engines support starts-with and contains, but not
			// ends-with; contains is the closest match.
			jobs = append(jobs,
				Job{Kind: KindPath, Document: doc, Query: "//*[contains(name(), '" + escapedTag + "')]"},
				Job{Kind: KindPlainText, Document: doc, Query: escaped},
			)
		case query == "*" || query == "//*":
			// These would match every node. Matching everything is not
			// useful and can be slow for large trees, so limit the jobs
			// to attribute and plain-text matching.
			jobs = append(jobs,
				Job{Kind: KindPath, Document: doc, Query: "//*[contains(@*, '" + escaped + "')]"},
				Job{Kind: KindPlainText, Document: doc, Query: escaped},
			)
		default:
			jobs = append(jobs,
				Job{Kind: KindExactID, Document: doc, Query: query},
				Job{Kind: KindExactClassNames, Document: doc, Query: query},
			)
			if tagQuery != "" {
				jobs = append(jobs, Job{Kind: KindExactTagNames, Document: doc, Query: tagQuery})
			}
			if attrQuery != "" {
				jobs = append(jobs, Job{Kind: KindSelector, Document: doc, Query: "[" + attrQuery + "]"})
			}
			jobs = append(jobs,
				Job{Kind: KindSelector, Document: doc, Query: query},
				Job{Kind: KindPath, Document: doc, Query: "//*[contains(@*, '" + escaped + "')]"},
			)
			if tagQuery != "" {
				jobs = append(jobs, Job{Kind: KindPath, Document: doc, Query: "//*[contains(name(), '" + escapedTag + "')]"})
			}
			jobs = append(jobs,
				Job{Kind: KindPlainText, Document: doc, Query: escaped},
				Job{Kind: KindPath, Document: doc, Query: query},
			)
		}
	}
	return jobs
}
