// Package docs renders a fallback payment document when the provider's
// printable instrument is unavailable at issuance time.
package docs

import (
	"bytes"
	"context"
	"fmt"

	storemodels "collectionsync/internal/pkg/store/models"
)

type Pipeline struct{}

func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// GenerateCollectionDocument produces a minimal single-page PDF with
// the installment's billing details.
func (p *Pipeline) GenerateCollectionDocument(ctx context.Context, installment *storemodels.Installment) ([]byte, error) {
	if installment == nil {
		return nil, fmt.Errorf("installment is required")
	}

	text := fmt.Sprintf(
		"Loan %s / installment %d - amount due %d.%02d - due %s",
		installment.ProposalID,
		installment.Number,
		installment.AmountDueCents/100,
		installment.AmountDueCents%100,
		installment.DueDate.Format("2006-01-02"),
	)
	return renderPDF(text), nil
}

// renderPDF assembles a one-page PDF by hand. Enough for readers and
// archival; no library needed for a fixed single text block.
func renderPDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 12 Tf 50 750 Td (%s) Tj ET", escapePDFString(text))

	var buf bytes.Buffer
	var offsets []int

	write := func(s string) {
		buf.WriteString(s)
	}
	object := func(body string) {
		offsets = append(offsets, buf.Len())
		write(body)
	}

	write("%PDF-1.4\n")
	object("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	object("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	object("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")
	object(fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(content), content))
	object("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xrefStart := buf.Len()
	write(fmt.Sprintf("xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1))
	for _, off := range offsets {
		write(fmt.Sprintf("%010d 00000 n \n", off))
	}
	write(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefStart))

	return buf.Bytes()
}

func escapePDFString(s string) string {
	var out bytes.Buffer
	for _, r := range s {
		switch r {
		case '(', ')', '\\':
			out.WriteByte('\\')
			out.WriteRune(r)
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}
