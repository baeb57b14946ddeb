package obj8

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

const (
	TOKEN_WORD = iota
	TOKEN_NEWLINE
	TOKEN_COMMENT
)

var lexer *lexmachine.Lexer

func init() {
	lexer = lexmachine.NewLexer()
	lexer.Add([]byte(`[^ \t\r\n#]+`), getToken(TOKEN_WORD))
	lexer.Add([]byte(`(\n|\r|\r\n)+`), getToken(TOKEN_NEWLINE))
	lexer.Add([]byte(`#[^\n\r]*`), getToken(TOKEN_COMMENT))
	lexer.Add([]byte(`[ \t]+`), skip)
}

func getToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skip(scan *lexmachine.Scanner, match *machines.Match) (interface{}, error) {
	return nil, nil
}

// Tokenize splits text into records. Comment lines are attached
// to following record. '#' glued to word is part of that word,
// '#' after whitespace starts trailing comment of record.
func Tokenize(text []byte) ([]*Record, error) {
	scanner, err := lexer.Scanner(text)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create lexer scanner")
	}

	result := make([]*Record, 0, 256)

	var current *Record
	var comments []string
	// end offset of last word of current record
	wordEnd := -1
	for Itok, err, eos := scanner.Next(); !eos; Itok, err, eos = scanner.Next() {
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to parse token")
		}
		tok := Itok.(*lexmachine.Token)
		lexeme := tok.Value.(string)

		switch tok.Type {
		case TOKEN_WORD:
			if current == nil {
				current = &Record{Line: tok.StartLine}
				if len(comments) != 0 {
					current.Comment = strings.Join(comments, "\n")
					comments = comments[:0]
				}
				result = append(result, current)
			}
			current.Fields = append(current.Fields, lexeme)
			wordEnd = tok.TC + len(tok.Lexeme)
		case TOKEN_COMMENT:
			if current != nil {
				if tok.TC == wordEnd {
					glueComment(current, lexeme)
				} else {
					current.Trailing = strings.TrimSpace(lexeme)
				}
				wordEnd = -1
			} else {
				comments = append(comments, strings.TrimSpace(strings.TrimPrefix(lexeme, "#")))
			}
		case TOKEN_NEWLINE:
			// blank line detaches comments from next record
			if strings.Count(strings.ReplaceAll(lexeme, "\r\n", "\n"), "\n") > 1 {
				comments = comments[:0]
			}
			current = nil
			wordEnd = -1
		}
	}

	return result, nil
}

// glueComment continues last field with comment token lexeme,
// words after it are fields until next whitespace separated '#'
func glueComment(r *Record, lexeme string) {
	parts := strings.Fields(lexeme)
	if len(parts) == 0 {
		return
	}
	r.Fields[len(r.Fields)-1] += parts[0]
	for i, part := range parts[1:] {
		if strings.HasPrefix(part, "#") {
			r.Trailing = strings.Join(parts[1+i:], " ")
			return
		}
		r.Fields = append(r.Fields, part)
	}
}
