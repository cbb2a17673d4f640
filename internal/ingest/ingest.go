// Package ingest 读取上传文件并提取纯文本。
package ingest

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const DefaultMaxBytes = 10 * 1024 * 1024

const mimePDF = "application/pdf"

var allowedExtensions = map[string]struct{}{
	".txt":  {},
	".csv":  {},
	".json": {},
	".md":   {},
	".pdf":  {},
}

var allowedMIME = []string{"text/plain", "text/csv", "application/json", mimePDF}

type ErrorKind string

const (
	KindTooLarge    ErrorKind = "file_too_large"
	KindEmpty       ErrorKind = "file_empty"
	KindUnsupported ErrorKind = "unsupported_file_type"
	KindDecode      ErrorKind = "decode_failed"
)

// Error 文件读取失败
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Reader struct {
	maxBytes int64
}

func NewReader(maxBytes int64) *Reader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Reader{maxBytes: maxBytes}
}

// Read 读取文件内容并返回文本，PDF 提取纯文本，其余类型必须为 UTF-8
func (r *Reader) Read(filename, contentType string, src io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(src, r.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("读取上传文件失败: %w", err)
	}
	if int64(len(data)) > r.maxBytes {
		return "", &Error{
			Kind:   KindTooLarge,
			Detail: fmt.Sprintf("File too large. Maximum size is %gMB", float64(r.maxBytes)/(1024*1024)),
		}
	}
	if len(data) == 0 {
		return "", &Error{Kind: KindEmpty, Detail: "File is empty"}
	}

	detected := mimetype.Detect(data)
	if !allowed(filename, contentType, detected) {
		return "", &Error{
			Kind:   KindUnsupported,
			Detail: fmt.Sprintf("Unsupported file type %q. Allowed: .txt, .csv, .json, .md, .pdf", displayType(filename, contentType, detected)),
		}
	}

	if detected.Is(mimePDF) {
		return extractPDF(data)
	}

	if !utf8.Valid(data) {
		return "", &Error{Kind: KindDecode, Detail: "Could not decode file as UTF-8. Please upload a text file."}
	}
	return normalize(string(data)), nil
}

// allowed 扩展名或声明类型在白名单内，且实际内容是文本或 PDF
func allowed(filename, contentType string, detected *mimetype.MIME) bool {
	if !detected.Is(mimePDF) && !isText(detected) {
		return false
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; ok {
		return true
	}

	declared := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	for _, m := range allowedMIME {
		if declared == m {
			return true
		}
	}
	return false
}

func isText(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func displayType(filename, contentType string, detected *mimetype.MIME) string {
	if ext := filepath.Ext(filename); ext != "" {
		return ext
	}
	if contentType != "" {
		return contentType
	}
	return detected.String()
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &Error{Kind: KindDecode, Detail: "Could not read PDF file.", Err: err}
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", &Error{Kind: KindDecode, Detail: "Could not extract text from PDF file.", Err: err}
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", &Error{Kind: KindDecode, Detail: "Could not extract text from PDF file.", Err: err}
	}

	text := normalize(buf.String())
	if strings.TrimSpace(text) == "" {
		return "", &Error{Kind: KindEmpty, Detail: "PDF file contains no extractable text"}
	}
	return text, nil
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
