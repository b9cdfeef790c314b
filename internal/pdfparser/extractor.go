package pdfparser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"fjacquet/statement-ledger/internal/logging"
	"fjacquet/statement-ledger/internal/parsererror"
)

// DefaultPdftotextPath is looked up on PATH when no explicit binary is configured.
const DefaultPdftotextPath = "pdftotext"

// TextExtractor defines the interface for extracting page text from PDF bytes.
// This interface allows for dependency injection and makes the parser testable
// by providing different implementations for production and testing.
type TextExtractor interface {
	// ExtractPages returns the layout-preserving text of each page, in page order.
	ExtractPages(ctx context.Context, data []byte) ([]string, error)
}

// PdftotextExtractor implements TextExtractor with poppler's pdftotext in layout mode.
type PdftotextExtractor struct {
	path   string
	logger logging.Logger
}

// NewPdftotextExtractor creates an extractor running the pdftotext binary at path.
func NewPdftotextExtractor(path string, logger logging.Logger) *PdftotextExtractor {
	if path == "" {
		path = DefaultPdftotextPath
	}
	return &PdftotextExtractor{path: path, logger: logging.OrDiscard(logger)}
}

// ExtractPages writes data to a temporary file and runs pdftotext on it.
// Pages are separated by form feeds in the pdftotext output.
func (e *PdftotextExtractor) ExtractPages(ctx context.Context, data []byte) ([]string, error) {
	tempFile, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary PDF file: %w", err)
	}
	defer func() {
		if err := os.Remove(tempFile.Name()); err != nil {
			e.logger.WithError(err).Warn("Failed to remove temporary file",
				logging.Field{Key: logging.FieldFile, Value: tempFile.Name()})
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return nil, fmt.Errorf("failed to write temporary PDF file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temporary PDF file: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.path, "-layout", "-enc", "UTF-8", tempFile.Name(), "-") // #nosec G204 -- binary path comes from configuration
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s: %v", parsererror.ErrExtractorUnavailable, e.path, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e.logger.WithError(err).Error("Failed to run pdftotext command",
			logging.Field{Key: "stderr", Value: strings.TrimSpace(stderr.String())})
		return nil, fmt.Errorf("error running pdftotext: %w", err)
	}

	return SplitPages(stdout.String()), nil
}

// SplitPages splits pdftotext output on form feeds. The empty tail after the
// final form feed is not a page.
func SplitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

// StaticExtractor implements TextExtractor for testing purposes.
// It returns predefined pages instead of reading the PDF bytes.
type StaticExtractor struct {
	Pages []string
	Err   error
}

// NewStaticExtractor creates a StaticExtractor returning the given pages.
func NewStaticExtractor(pages ...string) *StaticExtractor {
	return &StaticExtractor{Pages: pages}
}

// ExtractPages returns the predefined pages or error.
func (e *StaticExtractor) ExtractPages(ctx context.Context, _ []byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.Err != nil {
		return nil, e.Err
	}
	pages := make([]string, len(e.Pages))
	copy(pages, e.Pages)
	return pages, nil
}

var _ TextExtractor = (*PdftotextExtractor)(nil)
var _ TextExtractor = (*StaticExtractor)(nil)
