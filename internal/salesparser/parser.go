// =============================================================================
// Sales Analytics - Record Parser Module
// =============================================================================
//
// This module turns the raw sales export into RawRecords. It handles:
//   - Byte decoding (UTF-8, with latin-1 / cp1252 fallbacks)
//   - Blank lines and the header line
//   - Splitting on the configured delimiter (pipe by default)
//   - Normalizing thousands separators and currency artifacts
//
// The parser never rejects content. A line with the wrong number of fields
// is passed on unnormalized so the validator counts it as invalid. Only I/O
// failures are returned as errors.
//
// =============================================================================

package salesparser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// Encodings the parser understands.
const (
	EncodingAuto   = "auto"
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin-1"
	EncodingCP1252 = "cp1252"
)

var ErrUnknownEncoding = errors.New("unknown encoding")

// utf8BOM is stripped from the start of the input when present.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// =============================================================================
// OPTIONS AND RESULT
// =============================================================================

// Options controls how the input is decoded and split.
type Options struct {
	// Delimiter separates fields. Default: '|'
	Delimiter rune

	// Encoding is one of the Encoding* constants.
	Encoding string

	// HasHeader drops the first non-blank line.
	HasHeader bool
}

// DefaultOptions matches the standard sales export.
func DefaultOptions() Options {
	return Options{
		Delimiter: '|',
		Encoding:  EncodingAuto,
		HasHeader: true,
	}
}

// OptionsFromConfig builds parser options from the input section of the config.
func OptionsFromConfig(cfg config.InputConfig) (Options, error) {
	delim, err := config.DelimiterRune(cfg.Delimiter)
	if err != nil {
		return Options{}, err
	}
	enc, err := canonicalEncoding(cfg.Encoding)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Delimiter: delim,
		Encoding:  enc,
		HasHeader: cfg.HasHeader,
	}, nil
}

// Result is the parsed file.
type Result struct {
	// Header holds the header fields, nil when the file had none.
	Header []string

	// Records has one entry per non-blank data line, in file order.
	Records []types.RawRecord

	// Lines is the number of physical lines read, including blanks and header.
	Lines int

	// Blank is the number of blank lines skipped.
	Blank int

	// Malformed counts records whose arity is not types.InputArity.
	Malformed int

	// Encoding is the decoding that was actually applied.
	Encoding string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseFile opens path and parses it with Parse, or with ParseWorkbook when
// path is an xlsx file.
func ParseFile(path string, opts Options) (*Result, error) {
	if IsWorkbook(path) {
		return ParseWorkbook(path, opts)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer file.Close()

	return Parse(file, opts)
}

// Parse reads all of r and splits it into RawRecords.
//
// PARSING PROCESS:
//  1. Decode the bytes to UTF-8 text
//  2. Walk the lines, skipping blanks and the header
//  3. Split each line on the delimiter
//  4. Normalize well-formed records field by field
func Parse(r io.Reader, opts Options) (*Result, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = '|'
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	text, used, err := decode(data, opts.Encoding)
	if err != nil {
		return nil, err
	}

	result := &Result{Encoding: used}
	headerPending := opts.HasHeader

	for i, line := range splitLines(text) {
		result.Lines++
		lineNo := i + 1

		if strings.TrimSpace(line) == "" {
			result.Blank++
			continue
		}

		fields := splitLine(line, opts.Delimiter)

		if headerPending {
			headerPending = false
			result.Header = trimAll(fields)
			continue
		}

		rec := types.RawRecord{Line: lineNo, Fields: fields}
		if rec.Arity() == types.InputArity {
			rec.Fields = NormalizeFields(fields)
		} else {
			result.Malformed++
		}
		result.Records = append(result.Records, rec)
	}

	return result, nil
}

// splitLine splits one line on every occurrence of delim. Quotes carry no
// meaning, so a delimiter inside a quoted field still adds a field and the
// record fails the arity check.
func splitLine(line string, delim rune) []string {
	return strings.Split(line, string(delim))
}

// splitLines splits on \n and drops a trailing \r from each line. A final
// empty segment after the last newline is not a line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func trimAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}

// =============================================================================
// DECODING
// =============================================================================

// decode converts data to UTF-8 text. auto keeps valid UTF-8 and otherwise
// falls back to latin-1, which accepts every byte.
func decode(data []byte, enc string) (string, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	name, err := canonicalEncoding(enc)
	if err != nil {
		return "", "", err
	}

	switch name {
	case EncodingAuto:
		if utf8.Valid(data) {
			return string(data), EncodingUTF8, nil
		}
		text, err := decodeWith(data, charmap.ISO8859_1)
		return text, EncodingLatin1, err
	case EncodingUTF8:
		return strings.ToValidUTF8(string(data), "�"), EncodingUTF8, nil
	case EncodingLatin1:
		text, err := decodeWith(data, charmap.ISO8859_1)
		return text, EncodingLatin1, err
	default:
		text, err := decodeWith(data, charmap.Windows1252)
		return text, EncodingCP1252, err
	}
}

func decodeWith(data []byte, enc encoding.Encoding) (string, error) {
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("failed to decode input: %w", err)
	}
	return string(out), nil
}

func canonicalEncoding(enc string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "auto":
		return EncodingAuto, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "latin-1", "latin1", "iso-8859-1":
		return EncodingLatin1, nil
	case "cp1252", "windows-1252":
		return EncodingCP1252, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
	}
}
