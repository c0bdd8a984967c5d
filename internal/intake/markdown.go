package intake

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor handles Markdown files using goldmark. It walks the AST
// and re-emits headings as #-prefixed lines so the downstream analyzer sees
// the document's structure regardless of the original heading syntax.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Extract(r io.Reader, filename string) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	var sb strings.Builder
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(strings.Repeat("#", node.Level))
			sb.WriteString(" ")
			sb.WriteString(string(node.Text(src)))
		case *ast.FencedCodeBlock:
			// Re-fence code so it survives as an example candidate.
			if sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString("```\n")
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				sb.Write(line.Value(src))
			}
			sb.WriteString("```")
		default:
			t := blockText(n, src)
			if t != "" {
				if sb.Len() > 0 {
					sb.WriteString("\n\n")
				}
				sb.WriteString(t)
			}
		}
	}
	return sb.String(), nil
}

// blockText gets the text content of a goldmark AST node. Leaf blocks carry
// their raw source lines; container blocks and inline nodes are walked.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		sub := blockText(c, src)
		if sub == "" {
			continue
		}
		if c.Type() == ast.TypeBlock && buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(sub)
	}
	return strings.TrimSpace(buf.String())
}
