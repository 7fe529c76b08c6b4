// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFText extracts the whole document's plain text in one pass.
type PDFText struct{}

// Name returns the method identifier.
func (PDFText) Name() string { return "pdf-plain" }

// Convert reads raw as a PDF and returns its plain text.
func (PDFText) Convert(ctx context.Context, raw []byte) (string, error) {
	r, err := openPDF(raw)
	if err != nil {
		return "", err
	}
	rd, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("reading plain text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rd); err != nil {
		return "", fmt.Errorf("reading plain text: %w", err)
	}
	return buf.String(), nil
}

// PDFRows rebuilds text page by page from positioned text rows. It is
// slower than PDFText but survives documents whose content streams confuse
// the whole-document reader.
type PDFRows struct{}

// Name returns the method identifier.
func (PDFRows) Name() string { return "pdf-rows" }

// Convert walks every page and joins row fragments into lines.
func (PDFRows) Convert(ctx context.Context, raw []byte) (string, error) {
	r, err := openPDF(raw)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var firstErr error
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("page %d: %w", i, err)
			}
			continue
		}
		for _, row := range rows {
			writeRow(&b, row.Content)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	if b.Len() == 0 && firstErr != nil {
		return "", firstErr
	}
	return b.String(), nil
}

// writeRow appends the fragments of one row, inserting a space where the
// horizontal gap between fragments suggests a word boundary.
func writeRow(b *strings.Builder, frags pdf.TextHorizontal) {
	var end float64
	for j, t := range frags {
		if j > 0 && t.X > end+0.15*t.FontSize && !strings.HasPrefix(t.S, " ") {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		end = t.X + t.W
	}
}

func openPDF(raw []byte) (*pdf.Reader, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty PDF: %w", ErrCorrupted)
	}
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	return r, nil
}
