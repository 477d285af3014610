package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/akolanti/GoPDFChat/pkg/logger_i"
	"github.com/dslipak/pdf"
)

type rawPage struct {
	Number  int
	Content string
}

var errPageTimeout = errors.New("page extraction timed out")

// writeTemp stores the upload on disk for the pdf reader. The caller must run
// the returned cleanup on every path.
func writeTemp(log *logger_i.Logger, dir string, content []byte) (string, func(), error) {
	f, err := os.CreateTemp(dir, "upload-*.pdf")
	if err != nil {
		return "", func() {}, fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	cleanup := func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Error("Error removing temp file", "path", path, "error", rmErr)
		}
	}

	if _, err = f.Write(content); err != nil {
		_ = f.Close()
		return path, cleanup, fmt.Errorf("writing temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return path, cleanup, fmt.Errorf("closing temp file: %w", err)
	}
	return path, cleanup, nil
}

func extractPDF(ctx context.Context, log *logger_i.Logger, path string, pageTimeout time.Duration) (pages []rawPage, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat pdf: %w", err)
	}

	// the reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	numPages := reader.NumPage()
	log.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			log.Debug("extractPDF", "page value is null", i)
			continue
		}

		content, pageErr := protectExtract(page, pageTimeout)
		if pageErr != nil {
			// one bad page does not fail the document
			log.Warn("Error parsing page content", "page", i, "error", pageErr)
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}

		pages = append(pages, rawPage{
			Number:  i,
			Content: content,
		})
	}
	return pages, nil
}

func protectExtract(page pdf.Page, timeout time.Duration) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-timer.C:
		return "", errPageTimeout
	}
}
