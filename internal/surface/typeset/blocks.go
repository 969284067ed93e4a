package typeset

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jackzampolin/pagefit/internal/types"
)

type blockStyle int

const (
	styleBody blockStyle = iota
	styleH1
	styleH2
	styleH3
	styleCode
)

// scale returns the font-size multiplier for a block style.
func (s blockStyle) scale() float64 {
	switch s {
	case styleH1:
		return 1.6
	case styleH2:
		return 1.3
	case styleH3:
		return 1.15
	case styleCode:
		return 0.9
	default:
		return 1
	}
}

// block is one laid-out unit of section content: a heading, paragraph,
// list item or code line.
type block struct {
	text   string
	style  blockStyle
	indent float64
}

const listIndent = 15.0

func parseBlocks(sec types.Section) []block {
	switch sec.Format {
	case types.FormatHTML:
		return parseHTML(sec.Content)
	case types.FormatText:
		return parseText(sec.Content)
	default:
		return parseMarkdown(sec.Content)
	}
}

func headingStyle(level int) blockStyle {
	switch level {
	case 1:
		return styleH1
	case 2:
		return styleH2
	default:
		return styleH3
	}
}

func parseMarkdown(source string) []block {
	src := []byte(source)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	var out []block
	walkMarkdown(doc, src, 0, &out)
	return out
}

func walkMarkdown(node ast.Node, src []byte, indent float64, out *[]block) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Heading:
			appendBlock(out, block{text: inlineText(n, src), style: headingStyle(n.Level), indent: indent})
		case *ast.Paragraph, *ast.TextBlock:
			appendBlock(out, block{text: inlineText(n, src), indent: indent})
		case *ast.List:
			walkMarkdown(n, src, indent+listIndent, out)
		case *ast.ListItem:
			walkMarkdown(n, src, indent, out)
		case *ast.Blockquote:
			walkMarkdown(n, src, indent+listIndent, out)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				line := strings.TrimRight(string(seg.Value(src)), "\n")
				if line == "" {
					line = " "
				}
				*out = append(*out, block{text: line, style: styleCode, indent: indent})
			}
		default:
			walkMarkdown(n, src, indent, out)
		}
	}
}

// inlineText flattens the inline children of a block node.
func inlineText(node ast.Node, src []byte) string {
	var sb strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				sb.Write(t.Segment.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					sb.WriteByte(' ')
				}
			case *ast.String:
				sb.Write(t.Value)
			default:
				walk(c)
			}
		}
	}
	walk(node)
	return sb.String()
}

func parseHTML(source string) []block {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		// html.Parse only fails on reader errors; treat as plain text
		return parseText(source)
	}
	var out []block
	walkHTML(doc, 0, &out)
	return out
}

func walkHTML(n *html.Node, indent float64, out *[]block) {
	switch n.Type {
	case html.TextNode:
		appendBlock(out, block{text: n.Data, indent: indent})
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.H1:
			appendBlock(out, block{text: htmlText(n), style: styleH1, indent: indent})
			return
		case atom.H2:
			appendBlock(out, block{text: htmlText(n), style: styleH2, indent: indent})
			return
		case atom.H3, atom.H4, atom.H5, atom.H6:
			appendBlock(out, block{text: htmlText(n), style: styleH3, indent: indent})
			return
		case atom.P, atom.Li, atom.Dt, atom.Dd, atom.Td, atom.Th:
			appendBlock(out, block{text: htmlText(n), indent: indent})
			return
		case atom.Pre:
			for _, line := range strings.Split(strings.TrimRight(htmlText(n), "\n"), "\n") {
				if line == "" {
					line = " "
				}
				*out = append(*out, block{text: line, style: styleCode, indent: indent})
			}
			return
		case atom.Ul, atom.Ol, atom.Blockquote, atom.Dl:
			indent += listIndent
		case atom.Script, atom.Style, atom.Head:
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTML(c, indent, out)
	}
}

func htmlText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Br {
			sb.WriteByte('\n')
			continue
		}
		sb.WriteString(htmlText(c))
	}
	return sb.String()
}

func parseText(source string) []block {
	var out []block
	for _, para := range strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n\n") {
		appendBlock(&out, block{text: para})
	}
	return out
}

// appendBlock skips blocks without visible text.
func appendBlock(out *[]block, b block) {
	if strings.TrimSpace(b.text) == "" {
		return
	}
	*out = append(*out, b)
}
