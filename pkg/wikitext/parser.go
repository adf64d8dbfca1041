package wikitext

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Parser turns raw description text into a simplified [Sequence].
// Implementations must be total: every input yields a sequence.
type Parser interface {
	ParseAndSimplify(text string) Sequence
}

// ParserFunc adapts an ordinary function to the [Parser] interface.
type ParserFunc func(text string) Sequence

// ParseAndSimplify calls f(text).
func (f ParserFunc) ParseAndSimplify(text string) Sequence { return f(text) }

// Decode parses the JSON node list emitted by the simplified wikitext parser.
func Decode(data []byte) (Sequence, error) {
	var seq Sequence
	if err := json.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("decode node sequence: %w", err)
	}
	return seq, nil
}

// LineParser is the built-in fallback parser. It only understands line
// structure: one or more blank lines become a paragraph break, a single line
// break becomes a newline, and every other line is a text run. Leading and
// trailing blank lines are dropped.
type LineParser struct{}

// ParseAndSimplify implements [Parser].
func (LineParser) ParseAndSimplify(text string) Sequence {
	var (
		seq   Sequence
		blank bool
	)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(seq) > 0 {
				blank = true
			}
			continue
		}
		if len(seq) > 0 {
			if blank {
				seq = append(seq, ParagraphBreak())
			} else {
				seq = append(seq, Newline())
			}
		}
		blank = false
		seq = append(seq, Text(line))
	}
	return seq
}

// CommandParser pipes text through an external parser executable and decodes
// its JSON output with [Decode]. When the command is missing or fails, the
// text is handed to Fallback instead (a [LineParser] if nil).
type CommandParser struct {
	Command  string
	Args     []string
	Fallback Parser
}

// Parse runs the external command and returns its decoded output.
func (p CommandParser) Parse(ctx context.Context, text string) (Sequence, error) {
	if _, err := exec.LookPath(p.Command); err != nil {
		return nil, fmt.Errorf("wikitext parser %q not found: %w", p.Command, err)
	}

	cmd := exec.CommandContext(ctx, p.Command, p.Args...)
	cmd.Stdin = strings.NewReader(text)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %v: %s", p.Command, err, errBuf.String())
	}
	return Decode(out.Bytes())
}

// ParseAndSimplify implements [Parser].
func (p CommandParser) ParseAndSimplify(text string) Sequence {
	seq, err := p.Parse(context.Background(), text)
	if err == nil {
		return seq
	}
	if p.Fallback != nil {
		return p.Fallback.ParseAndSimplify(text)
	}
	return LineParser{}.ParseAndSimplify(text)
}

// InnerText flattens a sequence into plain text. Text runs are concatenated,
// nested payload is recursed into, a newline becomes "\n" and a paragraph
// break becomes "\n\n". The result is trimmed.
func InnerText(seq Sequence) string {
	var b strings.Builder
	writeInnerText(&b, seq)
	return strings.TrimSpace(b.String())
}

func writeInnerText(b *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		switch n.Type {
		case TypeText:
			b.WriteString(n.Text)
		case TypeNewline:
			b.WriteByte('\n')
		case TypeParagraphBreak:
			b.WriteString("\n\n")
		case TypeLink:
			if len(n.Children) == 0 {
				b.WriteString(n.Target)
				continue
			}
			writeInnerText(b, n.Children)
		default:
			writeInnerText(b, n.Children)
		}
	}
}
