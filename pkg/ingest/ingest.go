// Package ingest normalizes source files into pipeline documents.
// Plain text, markdown, CSV and PDF inputs all come out as
// evol.Document values with provenance metadata.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/duynguyendang/evogen/internal/logging"
	apperrors "github.com/duynguyendang/evogen/pkg/common/errors"
	"github.com/duynguyendang/evogen/pkg/evol"
)

// MaxFileSize bounds how much of one input file we read.
const MaxFileSize = 10 << 20

// FromFile reads one file and converts it to a document. The extension
// picks the extraction path; unknown extensions are treated as plain
// text.
func FromFile(path string) (evol.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return evol.Document{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		return evol.Document{}, fmt.Errorf("file %s exceeds %d bytes: %w", path, int64(MaxFileSize), apperrors.ErrInvalidInput)
	}

	var content string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		content, err = extractPDF(path)
	case ".csv":
		content, err = extractCSV(path)
	default:
		var data []byte
		data, err = os.ReadFile(path)
		content = string(data)
	}
	if err != nil {
		return evol.Document{}, fmt.Errorf("extract %s: %w", path, err)
	}

	return evol.Document{
		Content: content,
		Metadata: map[string]any{
			"source":   filepath.Base(path),
			"filetype": strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		},
	}, nil
}

// NormalizeFiles converts a batch of files to documents, skipping files
// that fail extraction or come out empty. It fails only when no file
// yields a usable document.
func NormalizeFiles(paths []string) ([]evol.Document, error) {
	logger := logging.New("ingest")
	docs := make([]evol.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := FromFile(path)
		if err != nil {
			logger.Warn("skipping file", "path", path, "error", err)
			continue
		}
		if strings.TrimSpace(doc.Content) == "" {
			logger.Warn("skipping empty file", "path", path)
			continue
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no usable documents among %d files: %w", len(paths), apperrors.ErrInvalidInput)
	}
	return docs, nil
}

// extractPDF concatenates the plain text of every page.
func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractCSV flattens rows into lines so tabular content still reads as
// prose for the generation prompts. The first row is kept as a header
// prefix on every line.
func extractCSV(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var header []string
	var sb strings.Builder
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if header == nil {
			header = record
			continue
		}
		pairs := make([]string, 0, len(record))
		for i, field := range record {
			if strings.TrimSpace(field) == "" {
				continue
			}
			name := fmt.Sprintf("col%d", i+1)
			if i < len(header) {
				name = header[i]
			}
			pairs = append(pairs, fmt.Sprintf("%s: %s", name, field))
		}
		sb.WriteString(strings.Join(pairs, ", "))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
