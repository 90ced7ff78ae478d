// Package export writes pipeline results in dataset file formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/duynguyendang/evogen/pkg/evol"
)

// Format names a supported output format.
type Format string

const (
	// FormatJSON writes the Result struct as one indented JSON document.
	FormatJSON Format = "json"
	// FormatJSONL writes one training record per line, the shape
	// fine-tuning toolchains ingest directly.
	FormatJSONL Format = "jsonl"
	// FormatCSV writes question/answer/type columns for spreadsheet review.
	FormatCSV Format = "csv"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatJSONL:
		return FormatJSONL, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown format %q (json, jsonl, csv)", s)
}

// Record is one flattened question/answer/context row. Questions with no
// answer are exported with an empty answer field rather than dropped, so
// the dataset stays aligned with the run.
type Record struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Answer        string   `json:"answer,omitempty"`
	Contexts      []string `json:"contexts,omitempty"`
	EvolutionType string   `json:"evolution_type"`
}

// Flatten joins the result's parallel slices into per-question records,
// in evolved-question order.
func Flatten(result *evol.Result) []Record {
	answers := make(map[string]string, len(result.Answers))
	for _, a := range result.Answers {
		answers[a.QuestionID] = a.Answer
	}
	contexts := make(map[string][]string, len(result.ContextBundles))
	for _, b := range result.ContextBundles {
		contexts[b.QuestionID] = b.Contexts
	}

	records := make([]Record, 0, len(result.EvolvedQuestions))
	for _, q := range result.EvolvedQuestions {
		records = append(records, Record{
			ID:            q.ID,
			Question:      q.Question,
			Answer:        answers[q.ID],
			Contexts:      contexts[q.ID],
			EvolutionType: string(q.EvolutionType),
		})
	}
	return records
}

// Write renders the result to w in the given format.
func Write(w io.Writer, result *evol.Result, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)

	case FormatJSONL:
		enc := json.NewEncoder(w)
		for _, rec := range Flatten(result) {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil

	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"id", "evolution_type", "question", "answer", "contexts"}); err != nil {
			return err
		}
		for _, rec := range Flatten(result) {
			row := []string{
				rec.ID,
				rec.EvolutionType,
				rec.Question,
				rec.Answer,
				strings.Join(rec.Contexts, "\n---\n"),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	}
	return fmt.Errorf("unknown format %q", format)
}
