package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth  = 210 // A4 width in mm
	pdfMargin     = 10  // Margin in mm
	pdfLineHeight = 5   // Line height in mm
	pdfFontSize   = 9
	pdfTabWidth   = 4 // Number of spaces for a tab
)

// generatePDF writes the result of a read to outputPath, syntax-highlighted
// with the lexer matching sourcePath.
func generatePDF(result, sourcePath string, category FileCategory, outputPath string) error {
	logf("Generating PDF output at: %s\n", outputPath)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()

	style := styles.Get("github")
	if style == nil {
		style = styles.Fallback
	}

	pdf.SetFont("Helvetica", "B", pdfFontSize+1)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(pdfPageWidth-2*pdfMargin, pdfLineHeight, fmt.Sprintf("File: %s", sourcePath), "", "L", false)
	pdf.Ln(pdfLineHeight / 2)
	pdf.Line(pdfMargin, pdf.GetY(), pdfPageWidth-pdfMargin, pdf.GetY())
	pdf.Ln(pdfLineHeight / 2)

	if err := writeHighlightedCode(pdf, style, result, selectLexer(result, sourcePath, category)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Syntax highlighting failed for %s: %v. Writing plain text.\n", sourcePath, err)
		pdf.SetFont("Courier", "", pdfFontSize)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(pdfPageWidth-2*pdfMargin, pdfLineHeight, result, "", "L", false)
	}

	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return fmt.Errorf("failed to save PDF to %s: %w", outputPath, err)
	}

	fmt.Fprintf(os.Stderr, "Saved PDF to %s\n", outputPath)
	return nil
}

// selectLexer picks a lexer for the (possibly transformed) content.
// TOON output is indentation based, so it is highlighted as YAML.
func selectLexer(content, sourcePath string, category FileCategory) chroma.Lexer {
	var lexer chroma.Lexer
	switch category {
	case CategoryJSON, CategoryJSONL:
		lexer = lexers.Get("yaml")
	case CategoryMarkdown:
		lexer = lexers.Get("markdown")
	default:
		lexer = lexers.Match(sourcePath)
	}
	if lexer == nil {
		lexer = lexers.Analyse(content)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// writeHighlightedCode tokenizes content and writes it to the PDF with the style's colours.
func writeHighlightedCode(pdf *gofpdf.Fpdf, style *chroma.Style, content string, lexer chroma.Lexer) error {
	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}

	pdf.SetFont("Courier", "", pdfFontSize)

	for token := iterator(); token != chroma.EOF; token = iterator() {
		entry := style.Get(token.Type)
		styleStr := ""
		if entry.Bold == chroma.Yes {
			styleStr += "B"
		}
		if entry.Italic == chroma.Yes {
			styleStr += "I"
		}
		pdf.SetFontStyle(styleStr)

		if entry.Colour.IsSet() {
			pdf.SetTextColor(int(entry.Colour.Red()), int(entry.Colour.Green()), int(entry.Colour.Blue()))
		} else if fg := style.Get(chroma.Text).Colour; fg.IsSet() {
			pdf.SetTextColor(int(fg.Red()), int(fg.Green()), int(fg.Blue()))
		} else {
			pdf.SetTextColor(0, 0, 0)
		}

		// gofpdf's Write wraps at the cell width; tabs are expanded first
		pdf.Write(pdfLineHeight, strings.ReplaceAll(token.Value, "\t", strings.Repeat(" ", pdfTabWidth)))
	}
	pdf.Ln(-1)

	return nil
}
