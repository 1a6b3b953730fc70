package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// Call is one line of a script
type Call struct {
	Line   int
	Method string
	Args   []interface{}
	Text   string
}

// Commands handled by the CLI itself rather than by the storage
const (
	cmdReset = "reset"
	cmdDump  = "dump"
)

// ParseScript reads one call per line. Blank lines and lines starting with
// '#' are skipped. Arguments are separated by whitespace and may be written
// as Go string literals ("a b", "\n"). A bare null becomes a nil argument,
// which is present but of no type, so the storage rejects it as not a string.
// Arguments to key are numbers when they parse as one.
func ParseScript(r io.Reader) ([]Call, error) {
	var calls []Call

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		tokens, err := tokenize(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		call := Call{Line: line, Method: tokens[0].value, Text: text}
		for _, tok := range tokens[1:] {
			call.Args = append(call.Args, tok.arg(call.Method))
		}
		calls = append(calls, call)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}

	return calls, nil
}

type token struct {
	value  string
	quoted bool
}

func (t token) arg(method string) interface{} {
	if t.quoted {
		return t.value
	}
	if t.value == "null" {
		return nil
	}
	if method == "key" {
		if n, err := strconv.ParseFloat(t.value, 64); err == nil {
			return n
		}
	}
	return t.value
}

func tokenize(line string) ([]token, error) {
	var tokens []token

	rest := line
	for {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		if rest == "" {
			return tokens, nil
		}

		if rest[0] == '"' {
			end := closingQuote(rest)
			if end < 0 {
				return nil, fmt.Errorf("unterminated string: %s", rest)
			}
			value, err := strconv.Unquote(rest[:end+1])
			if err != nil {
				return nil, fmt.Errorf("invalid string %s: %w", rest[:end+1], err)
			}
			tokens = append(tokens, token{value: value, quoted: true})
			rest = rest[end+1:]
			continue
		}

		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			end = len(rest)
		}
		tokens = append(tokens, token{value: rest[:end]})
		rest = rest[end:]
	}
}

// closingQuote returns the index of the quote ending the literal that starts s
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
