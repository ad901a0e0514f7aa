package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// Calculator computes digests of query text.
type Calculator interface {
	// CalculateRaw computes a checksum of the raw, unmodified content.
	CalculateRaw(content []byte) string

	// CalculateNormalized computes a checksum of normalized content.
	CalculateNormalized(content []byte) string
}

// SHA256 implements Calculator with SHA-256.
// SHA256 is a zero-size type and is safe for concurrent use.
type SHA256 struct{}

var _ Calculator = SHA256{}

// New creates a new SHA-256 based calculator.
func New() SHA256 {
	return SHA256{}
}

// CalculateRaw computes SHA-256 of raw content.
func (c SHA256) CalculateRaw(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// CalculateNormalized computes SHA-256 of Normalize(content).
func (c SHA256) CalculateNormalized(content []byte) string {
	hash := sha256.Sum256([]byte(Normalize(string(content))))
	return hex.EncodeToString(hash[:])
}

// File streams the file at path through SHA-256.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for checksum: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read %s for checksum: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Short returns the first 12 hex digits of a digest, for log lines.
func Short(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}

// IsBlank reports whether query holds nothing but comments and whitespace.
func IsBlank(query string) bool {
	return Normalize(query) == ""
}

// Normalize lowercases query, strips comments and collapses whitespace to single spaces.
func Normalize(query string) string {
	cleaned := StripComments(query)

	var b strings.Builder
	b.Grow(len(cleaned))

	lastWasSpace := false
	for _, r := range cleaned {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			b.WriteRune(unicode.ToLower(r))
			lastWasSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

type commentState int

const (
	csNormal commentState = iota
	csLineComment
	csBlockComment
	csQuoted
)

// StripComments removes T-SQL comments, replacing each with a space.
// Quoted literals and delimited identifiers are preserved verbatim.
func StripComments(query string) string {
	var b strings.Builder
	b.Grow(len(query))

	state := csNormal
	blockDepth := 0
	var closer byte
	i := 0

	for i < len(query) {
		ch := query[i]
		var next byte
		if i+1 < len(query) {
			next = query[i+1]
		}

		switch state {
		case csNormal:
			switch {
			case ch == '-' && next == '-':
				state = csLineComment
				b.WriteByte(' ')
				i += 2
			case ch == '/' && next == '*':
				state = csBlockComment
				blockDepth = 1
				b.WriteByte(' ')
				i += 2
			case ch == '\'' || ch == '"' || ch == '[':
				state = csQuoted
				closer = closingQuote(ch)
				b.WriteByte(ch)
				i++
			default:
				b.WriteByte(ch)
				i++
			}

		case csLineComment:
			if ch == '\n' {
				b.WriteByte(ch)
				state = csNormal
			}
			i++

		case csBlockComment:
			switch {
			case ch == '/' && next == '*':
				blockDepth++
				i += 2
			case ch == '*' && next == '/':
				blockDepth--
				i += 2
				if blockDepth == 0 {
					state = csNormal
				}
			default:
				i++
			}

		case csQuoted:
			b.WriteByte(ch)
			if ch != closer {
				i++
				continue
			}
			// A doubled closer is an escaped character, not the end.
			if next == closer {
				b.WriteByte(next)
				i += 2
				continue
			}
			state = csNormal
			i++
		}
	}

	return b.String()
}

func closingQuote(open byte) byte {
	if open == '[' {
		return ']'
	}
	return open
}
