// Package extract turns raw document bytes into plain text.
//
// Two formats are supported: plain text (UTF-8) and docx. Extraction is
// deliberately lossless-or-fail: invalid input produces an error, never a
// silently substituted or truncated result.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupportedFormat is returned for any format other than txt/docx.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrCorruptDocument is returned when the bytes cannot be decoded as the
	// declared format.
	ErrCorruptDocument = errors.New("corrupt document")
)

// Extract converts raw bytes of the declared format into plain text.
func Extract(data []byte, format string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "txt":
		return extractText(data)
	case "docx":
		return extractDocx(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func extractText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: invalid UTF-8", ErrCorruptDocument)
	}
	return string(data), nil
}

// extractDocx pulls paragraph text out of the main document part of a docx
// archive. Paragraph order is preserved, paragraphs are joined by newline,
// and all styling is discarded.
func extractDocx(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a docx archive: %v", ErrCorruptDocument, err)
	}

	var docPart *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			docPart = f
			break
		}
	}
	if docPart == nil {
		return "", fmt.Errorf("%w: missing word/document.xml", ErrCorruptDocument)
	}

	rc, err := docPart.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open document part: %v", ErrCorruptDocument, err)
	}
	defer rc.Close()

	text, err := paragraphText(rc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return text, nil
}

// paragraphText streams the WordprocessingML token-by-token, collecting the
// character data of <w:t> runs and emitting one line per <w:p> paragraph.
func paragraphText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inRun      bool
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inRun = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inRun = false
			case "p":
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		case xml.CharData:
			if inRun {
				current.Write(t)
			}
		}
	}

	return strings.Join(paragraphs, "\n"), nil
}
