package lyricdeck

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// NodeKind identifies the variant held by a Node.
type NodeKind int

const (
	ElementNode NodeKind = iota
	TextNode
	CommentNode
	ProcInstNode
	DirectiveNode
)

// Node is a generic XML tree node. Element names and attribute names keep the
// prefixes used by the source document so a part re-serializes with the same
// namespace declarations it was read with.
type Node struct {
	Kind NodeKind

	// Element fields.
	Prefix   string
	Local    string
	Space    string // namespace URI the prefix resolved to
	Attrs    []xml.Attr
	Children []*Node

	// Text, comment and directive content; processing instruction body.
	Text string
	// Processing instruction target.
	Target string
}

// Document is a parsed XML part: the top-level nodes in order (declaration,
// comments, root element).
type Document struct {
	Nodes []*Node
}

// NewElement returns an element node with the given prefixed name.
func NewElement(qname string, attrs ...xml.Attr) *Node {
	prefix, local := splitQName(qname)
	return &Node{Kind: ElementNode, Prefix: prefix, Local: local, Attrs: attrs}
}

// NewText returns a text node.
func NewText(s string) *Node {
	return &Node{Kind: TextNode, Text: s}
}

// Attr builds an attribute from a prefixed name.
func Attr(qname, value string) xml.Attr {
	prefix, local := splitQName(qname)
	return xml.Attr{Name: xml.Name{Space: prefix, Local: local}, Value: value}
}

func splitQName(qname string) (string, string) {
	if i := strings.IndexByte(qname, ':'); i >= 0 {
		return qname[:i], qname[i+1:]
	}
	return "", qname
}

// QName returns the element name as written in the source, e.g. "p:sldId".
func (n *Node) QName() string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

// Is reports whether n is an element with the given prefixed name.
func (n *Node) Is(qname string) bool {
	if n == nil || n.Kind != ElementNode {
		return false
	}
	prefix, local := splitQName(qname)
	return n.Local == local && n.Prefix == prefix
}

// GetAttr returns the value of the attribute with the given prefixed name.
func (n *Node) GetAttr(qname string) (string, bool) {
	prefix, local := splitQName(qname)
	for _, a := range n.Attrs {
		if a.Name.Local == local && a.Name.Space == prefix {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or adds an attribute.
func (n *Node) SetAttr(qname, value string) {
	prefix, local := splitQName(qname)
	for i, a := range n.Attrs {
		if a.Name.Local == local && a.Name.Space == prefix {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Space: prefix, Local: local}, Value: value})
}

// AppendChild adds child as the last child of n.
func (n *Node) AppendChild(child *Node) {
	n.Children = append(n.Children, child)
}

// Child returns the first child element with the given prefixed name.
func (n *Node) Child(qname string) *Node {
	for _, c := range n.Children {
		if c.Is(qname) {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all child elements with the given prefixed name.
func (n *Node) ChildrenNamed(qname string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Is(qname) {
			out = append(out, c)
		}
	}
	return out
}

// InnerText concatenates the text of every text node directly under n.
func (n *Node) InnerText() string {
	var sb strings.Builder
	for _, c := range n.Children {
		if c.Kind == TextNode {
			sb.WriteString(c.Text)
		}
	}
	return sb.String()
}

// SetInnerText replaces all text children of n with a single text node,
// keeping non-text children.
func (n *Node) SetInnerText(s string) {
	kept := n.Children[:0]
	for _, c := range n.Children {
		if c.Kind != TextNode {
			kept = append(kept, c)
		}
	}
	n.Children = append(kept, NewText(s))
}

// Clone returns a deep copy of n sharing no nodes or attribute slices.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Attrs != nil {
		c.Attrs = make([]xml.Attr, len(n.Attrs))
		copy(c.Attrs, n.Attrs)
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// Walk visits n and its descendants depth-first. Returning false from fn skips
// the children of the visited node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Root returns the document element.
func (d *Document) Root() *Node {
	for _, n := range d.Nodes {
		if n.Kind == ElementNode {
			return n
		}
	}
	return nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := &Document{Nodes: make([]*Node, len(d.Nodes))}
	for i, n := range d.Nodes {
		c.Nodes[i] = n.Clone()
	}
	return c
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseXML parses an XML part into a Document. Non UTF-8 encodings declared in
// the XML header are transcoded; the output of Bytes is always UTF-8.
func ParseXML(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	doc := &Document{}
	var stack []*Node
	var scopes []map[string]string

	resolve := func(prefix string) string {
		for i := len(scopes) - 1; i >= 0; i-- {
			if uri, ok := scopes[i][prefix]; ok {
				return uri
			}
		}
		return ""
	}
	add := func(n *Node) {
		if len(stack) == 0 {
			doc.Nodes = append(doc.Nodes, n)
			return
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, n)
	}

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			scope := map[string]string{}
			for _, a := range t.Attr {
				switch {
				case a.Name.Space == "xmlns":
					scope[a.Name.Local] = a.Value
				case a.Name.Space == "" && a.Name.Local == "xmlns":
					scope[""] = a.Value
				}
			}
			scopes = append(scopes, scope)

			n := &Node{
				Kind:   ElementNode,
				Prefix: t.Name.Space,
				Local:  t.Name.Local,
				Space:  resolve(t.Name.Space),
			}
			if len(t.Attr) > 0 {
				n.Attrs = make([]xml.Attr, len(t.Attr))
				copy(n.Attrs, t.Attr)
			}
			add(n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("failed to parse xml: unexpected end element %s", t.Name.Local)
			}
			top := stack[len(stack)-1]
			if top.Local != t.Name.Local || top.Prefix != t.Name.Space {
				return nil, fmt.Errorf("failed to parse xml: element <%s> closed by </%s>", top.QName(), qualify(t.Name))
			}
			stack = stack[:len(stack)-1]
			scopes = scopes[:len(scopes)-1]
		case xml.CharData:
			if len(stack) == 0 {
				// whitespace between the prolog and the root element
				continue
			}
			add(&Node{Kind: TextNode, Text: string(t)})
		case xml.Comment:
			add(&Node{Kind: CommentNode, Text: string(t)})
		case xml.ProcInst:
			add(&Node{Kind: ProcInstNode, Target: t.Target, Text: string(t.Inst)})
		case xml.Directive:
			add(&Node{Kind: DirectiveNode, Text: string(t)})
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("failed to parse xml: unclosed element <%s>", stack[len(stack)-1].QName())
	}
	if doc.Root() == nil {
		return nil, errors.New("failed to parse xml: no root element")
	}
	return doc, nil
}

func qualify(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

// Bytes serializes the document as UTF-8.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = d.WriteTo(&buf)
	return buf.Bytes()
}

// WriteTo serializes the document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := &xmlWriter{w: cw}
	for _, n := range d.Nodes {
		bw.node(n)
		if n.Kind == ProcInstNode && n.Target == "xml" {
			bw.str("\n")
		}
	}
	return cw.n, bw.err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

type xmlWriter struct {
	w   io.Writer
	err error
}

func (x *xmlWriter) str(s string) {
	if x.err != nil {
		return
	}
	_, x.err = io.WriteString(x.w, s)
}

func (x *xmlWriter) node(n *Node) {
	switch n.Kind {
	case ElementNode:
		x.str("<" + n.QName())
		for _, a := range n.Attrs {
			x.str(" " + qualify(a.Name) + `="`)
			x.escape(a.Value, true)
			x.str(`"`)
		}
		if len(n.Children) == 0 {
			x.str("/>")
			return
		}
		x.str(">")
		for _, c := range n.Children {
			x.node(c)
		}
		x.str("</" + n.QName() + ">")
	case TextNode:
		x.escape(n.Text, false)
	case CommentNode:
		x.str("<!--" + n.Text + "-->")
	case ProcInstNode:
		if n.Target == "xml" {
			// content is re-encoded as UTF-8 whatever the source declared
			x.str(xmlDeclaration(n.Text))
			return
		}
		x.str("<?" + n.Target)
		if n.Text != "" {
			x.str(" " + n.Text)
		}
		x.str("?>")
	case DirectiveNode:
		x.str("<!" + n.Text + ">")
	}
}

func xmlDeclaration(inst string) string {
	decl := `<?xml version="1.0" encoding="UTF-8"`
	if strings.Contains(inst, "standalone") {
		if strings.Contains(inst, `standalone="no"`) || strings.Contains(inst, `standalone='no'`) {
			decl += ` standalone="no"`
		} else {
			decl += ` standalone="yes"`
		}
	}
	return decl + "?>"
}

// escape writes s as character data. Runes XML 1.0 does not allow and
// invalid UTF-8 are written as U+FFFD.
func (x *xmlWriter) escape(s string, attr bool) {
	last := 0
	for i := 0; i < len(s); {
		r, width := utf8.DecodeRuneInString(s[i:])
		var esc string
		switch r {
		case '&':
			esc = "&amp;"
		case '<':
			esc = "&lt;"
		case '>':
			esc = "&gt;"
		case '"':
			if attr {
				esc = "&quot;"
			}
		case '\r':
			esc = "&#xD;"
		case '\n':
			if attr {
				esc = "&#xA;"
			}
		case '\t':
			if attr {
				esc = "&#x9;"
			}
		default:
			if (r == utf8.RuneError && width == 1) || !isXMLChar(r) {
				esc = "\uFFFD"
			}
		}
		if esc != "" {
			x.str(s[last:i])
			x.str(esc)
			last = i + width
		}
		i += width
	}
	x.str(s[last:])
}

// isXMLChar reports whether r is in the XML 1.0 Char production.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}
