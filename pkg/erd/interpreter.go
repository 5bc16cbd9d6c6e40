package erd

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/duynguyendang/gerd/pkg/xmldoc"
)

// Event document element names.
const (
	TagEvent      = "GBREvent"
	TagVarDecl    = "GBRVAR"
	TagAssign     = "GBRASSIGN"
	TagStatement  = "GBRSLBF"
	TagComment    = "GBRCOMMENT"
	TagFileIO     = "GBRFileIOOp"
	TagCriteria   = "GBRCRIT"
	TagBizFunc    = "GBRBF"
	TagEndIf      = "GBREndIf"
	TagEndWhile   = "GBREndWhile"
	TagElse       = "GBRElse"
	TagCompNode   = "CRE_NODE"
	TagSubject    = "zSubject"
	TagPredicate  = "zPredicate"
	AttrEventKey  = "szEventSpecKey"
	AttrCritType  = "type"
	AttrCritDesc  = "lpszCritDesc"
	AttrCompType  = "eCompType"
	AttrAssignTxt = "textString"
)

// Block keywords.
const (
	KeywordIf    = "If"
	KeywordWhile = "While"
	KeywordAnd   = "and"
	KeywordOr    = "or"
)

// Comparison types carried by CRE_NODE@eCompType.
const (
	CompEqual       = "EQUAL"
	CompNotEqual    = "NOT_EQ"
	CompLessOrEqual = "LE_OR_EQ"
	CompGreater     = "GR"
	CompEqualEmpty  = "EQ_OR_EMPTY"
)

var comparisonPhrases = map[string]string{
	CompEqual:       "is equal to",
	CompNotEqual:    "is not equal to",
	CompLessOrEqual: "is less than or equal to",
	CompGreater:     "is greater than",
	CompEqualEmpty:  "is equal to or empty",
}

var comparisonPatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(comparisonPhrases))
	for k, phrase := range comparisonPhrases {
		m[k] = regexp.MustCompile(`(?i)` + strings.ReplaceAll(regexp.QuoteMeta(phrase), " ", `\s+`))
	}
	return m
}()

// ComparisonPhrase maps a comparison type to its English phrase. Unknown or
// missing types read as EQUAL.
func ComparisonPhrase(compType string) string {
	if p, ok := comparisonPhrases[normalizeCompType(compType)]; ok {
		return p
	}
	return comparisonPhrases[CompEqual]
}

func normalizeCompType(compType string) string {
	t := strings.ToUpper(strings.TrimSpace(compType))
	if _, ok := comparisonPhrases[t]; !ok {
		return CompEqual
	}
	return t
}

// replay walks the top-level children of an event document in order.
func (d *Decompiler) replay(ctx context.Context, root *xmldoc.Node) {
	for _, n := range root.Children {
		d.visit(ctx, n)
	}
}

func (d *Decompiler) visit(ctx context.Context, n *xmldoc.Node) {
	switch n.Name {
	case TagEvent:
		// root marker; the key is read before replay
	case TagVarDecl:
		d.declareVariable(n)
	case TagAssign:
		d.emit(d.formatAssignment(ctx, n))
	case TagStatement:
		d.emit(html.UnescapeString(n.Attr("summary_text")))
	case TagComment:
		d.emit(stripLineBreaks(n.Attr("comment_text")))
	case TagFileIO:
		d.fileIO(ctx, n)
	case TagCriteria:
		d.criteria(ctx, n)
	case TagBizFunc:
		d.businessFunction(ctx, n)
	case TagEndIf:
		d.dedent()
		d.emit("End If")
	case TagEndWhile:
		d.dedent()
		d.emit("End While")
	case TagElse:
		d.dedent()
		d.emit("Else")
		d.indent++
	default:
		d.logger.Debug("ignoring element", "tag", n.Name)
	}
}

func (d *Decompiler) emit(text string) {
	d.out.Append(d.indent, text)
}

func (d *Decompiler) emitNested(text string) {
	d.out.Append(d.indent+1, text)
}

func (d *Decompiler) dedent() {
	if d.indent > 0 {
		d.indent--
	}
}

func stripLineBreaks(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

// declareVariable registers the variable described by a GBRVAR node.
func (d *Decompiler) declareVariable(n *xmldoc.Node) {
	v := n.Find(TagVariable)
	if v == nil {
		v = n
	}
	id := v.Attr("idVariable")
	if id == "" {
		d.logger.Debug("variable declaration without id")
		return
	}
	alias := v.Attr("szDict")
	name := n.Attr("szVarName", "szName")
	if name == "" {
		name = v.Attr("szVarName", "szName")
	}
	if name == "" {
		name = alias
	}
	display := name
	if alias != "" {
		display = fmt.Sprintf("%s [%s]", name, alias)
	}
	d.vars.Declare(id, display, alias)
}

// criteria emits the condition lines of an If/While block and opens the
// block.
func (d *Decompiler) criteria(ctx context.Context, n *xmldoc.Node) {
	keyword := KeywordIf
	if strings.Contains(strings.ToUpper(n.Attr(AttrCritType)), "WHILE") {
		keyword = KeywordWhile
	}

	clauses := SplitCriteria(n.Attr(AttrCritDesc))
	nodes := n.FindAll(TagCompNode)
	count := min(len(clauses), len(nodes))
	if len(clauses) != len(nodes) {
		d.logger.Debug("criteria clause count mismatch", "clauses", len(clauses), "nodes", len(nodes))
	}
	for i := 0; i < count; i++ {
		d.emit(d.formatCondition(ctx, keyword, clauses[i], nodes[i]))
	}
	d.indent++
}

// formatCondition renders one clause against its comparison node. A clause
// that does not contain the node's comparison phrase is returned verbatim.
func (d *Decompiler) formatCondition(ctx context.Context, keyword, clause string, node *xmldoc.Node) string {
	compType := normalizeCompType(node.Attr(AttrCompType))
	phrase := comparisonPhrases[compType]
	loc := comparisonPatterns[compType].FindStringIndex(clause)
	if loc == nil {
		return clause
	}

	prefix, subjectText := splitKeyword(strings.TrimSpace(clause[:loc[0]]), keyword)
	predicateText := strings.TrimSpace(clause[loc[1]:])

	subject := d.resolveOperand(ctx, operandIn(node.Child(TagSubject)), subjectText, "", false)
	predicate := d.resolveOperand(ctx, operandIn(node.Child(TagPredicate)), predicateText, "", true)
	return strings.TrimRight(fmt.Sprintf("%s %s %s %s", prefix, subject, phrase, predicate), " ")
}

var clauseKeywords = []string{KeywordIf, KeywordWhile, KeywordAnd, KeywordOr}

// splitKeyword strips a leading If/While/and/or from subject. When none is
// present the block keyword is used.
func splitKeyword(subject, blockKeyword string) (keyword, rest string) {
	for _, kw := range clauseKeywords {
		if len(subject) < len(kw) || !strings.EqualFold(subject[:len(kw)], kw) {
			continue
		}
		if len(subject) == len(kw) {
			return kw, ""
		}
		if subject[len(kw)] == ' ' || subject[len(kw)] == '\t' {
			return kw, strings.TrimSpace(subject[len(kw):])
		}
	}
	return blockKeyword, subject
}
