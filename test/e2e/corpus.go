// Package e2e provides end-to-end tests over a generated payload-weighted corpus.
package e2e

import (
	"fmt"
	"strconv"

	"github.com/hyperjump/omomi/internal/models"
)

// Document is one corpus entry. Payloads holds "term|weight" tokens.
type Document struct {
	ID       string
	Title    string
	Body     string
	Payloads string
}

// QueryTestCase is a query and the document that must rank first.
type QueryTestCase struct {
	Query       string
	ExpectedTop string
	Description string
}

// Corpus holds documents and query test cases.
type Corpus struct {
	Documents []Document
	TestCases []QueryTestCase
}

// PerTopic is the number of documents generated for each topic.
const PerTopic = 5

var topics = []struct {
	tag   string
	title string
	body  string
}{
	{"python", "Python Guide", "Python is a high-level programming language used for data science."},
	{"kubernetes", "Kubernetes Docs", "Kubernetes orchestrates containers across a cluster."},
	{"react", "React Tutorial", "React hooks and components build user interfaces."},
	{"golang", "Go Language", "Go concurrency is achieved with goroutines and channels."},
	{"postgres", "PostgreSQL Manual", "PostgreSQL is a relational database with full-text search."},
	{"docker", "Docker Handbook", "Docker images are portable across environments."},
	{"learning", "Machine Learning", "Machine learning algorithms learn patterns from data."},
	{"network", "Neural Networks", "Neural networks power modern image recognition."},
	{"terraform", "Terraform Intro", "Terraform describes infrastructure as code."},
	{"kafka", "Kafka Streams", "Kafka is a distributed log for event streaming."},
}

// BuildCorpus returns PerTopic documents per topic. Within a topic every
// document has the same payload terms and differs only in weight, so the
// keyword score ties and the payload weight decides the order.
func BuildCorpus() *Corpus {
	c := &Corpus{}
	for _, tp := range topics {
		for i := 1; i <= PerTopic; i++ {
			w := strconv.Itoa(i)
			c.Documents = append(c.Documents, Document{
				ID:       fmt.Sprintf("%s-%d", tp.tag, i),
				Title:    fmt.Sprintf("%s part %d", tp.title, i),
				Body:     tp.body,
				Payloads: fmt.Sprintf("%s|%s stock|%s", tp.tag, w, w),
			})
		}
		top := fmt.Sprintf("%s-%d", tp.tag, PerTopic)
		c.TestCases = append(c.TestCases,
			QueryTestCase{
				Query:       "payloads:" + tp.tag,
				ExpectedTop: top,
				Description: tp.tag + " term",
			},
			QueryTestCase{
				Query:       fmt.Sprintf(`payloads:"%s stock"`, tp.tag),
				ExpectedTop: top,
				Description: tp.tag + " phrase",
			},
		)
	}
	return c
}

// Input converts d into an indexer input.
func (d Document) Input() *models.DocumentInput {
	return &models.DocumentInput{
		ID: d.ID,
		Fields: map[string]string{
			"title":    d.Title,
			"body":     d.Body,
			"payloads": d.Payloads,
		},
	}
}
