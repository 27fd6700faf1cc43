package ariahtml

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/sirupsen/logrus"
	"github.com/speedata/css/scanner"
)

// tokenstream is a list of rule sheet tokens
type tokenstream []*scanner.Token

// qrule is a single declaration such as "pressed: false"
type qrule struct {
	key   tokenstream
	value tokenstream
}

// sBlock is a block with a selector
type sBlock struct {
	name            string      // only set if this is an at-rule
	componentValues tokenstream // the "selector"
	childAtRules    []*sBlock   // the block's at-rules, if any
	blocks          []*sBlock   // the nested blocks, if any
	rules           []qrule     // the key-value pairs
}

// Rules holds parsed rule sheets. A rule sheet uses CSS syntax to bind
// selectors to ARIA declarations:
//
//	button.toggle { pressed: false; aria-label: "Submit"; }
//	nav a         { role: menuitem; }
//	#dialog       { -aria-modal: open; }
//	#status       { -aria-alert: "Saved"; }
//	.stale        { -aria-remove: pressed label; }
//
// The keys role, -aria-modal, -aria-alert and -aria-remove map to the
// corresponding operations of this package, every other key is set as an
// aria-* attribute (the "aria-" prefix is optional).
type Rules struct {
	FileFinder func(string) (string, error)
	dirstack   []string
	sheets     []sBlock
}

// NewRules returns an empty rule set.
func NewRules() *Rules {
	return &Rules{}
}

// PushDir adds a directory to the dir stack. Rule sheets and @import targets
// are opened relative to the top of the stack.
func (r *Rules) PushDir(dir string) {
	if filepath.IsAbs(dir) {
		r.dirstack = append(r.dirstack, dir)
		return
	}
	var newEntry string
	if len(r.dirstack) > 0 {
		lastEntry := r.dirstack[len(r.dirstack)-1]
		newEntry = filepath.Join(lastEntry, dir)
	} else {
		newEntry = dir
	}
	r.dirstack = append(r.dirstack, newEntry)
}

// PopDir removes the last entry from the dir stack.
func (r *Rules) PopDir() {
	r.dirstack = r.dirstack[:len(r.dirstack)-1]
}

// findFile returns the location of filename. Rules.FileFinder is asked first,
// then the name is resolved against the top of the dir stack.
func (r *Rules) findFile(filename string) (string, error) {
	if r.FileFinder != nil {
		if loc, err := r.FileFinder(filename); loc != "" && err == nil {
			return loc, nil
		}
	}
	if len(r.dirstack) == 0 || filepath.IsAbs(filename) {
		return filename, nil
	}
	return filepath.Join(r.dirstack[len(r.dirstack)-1], filename), nil
}

// tokenizeRulesString returns the tokens of a rule sheet without comments.
// Input the scanner rejects (unclosed strings or comments, escaped quotes)
// is an error.
func tokenizeRulesString(str string) (tokenstream, error) {
	var toks tokenstream
	s := scanner.New(str)
	for {
		t := s.Next()
		switch t.Type {
		case scanner.EOF:
			return toks, nil
		case scanner.Error:
			return nil, fmt.Errorf("rule sheet line %d, column %d: %s", t.Line, t.Column, t.Value)
		case scanner.Comment:
			continue
		}
		toks = append(toks, t)
	}
}

func (r *Rules) tokenizeRulesFile(filename string) (tokenstream, error) {
	dir, fn := filepath.Split(filename)
	r.PushDir(dir)
	defer r.PopDir()

	loc, err := r.findFile(fn)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(loc)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("read rule sheet %s", loc)
	return r.tokenizeAndApplyImport(string(data))
}

// tokenizeAndApplyImport tokenizes the fragment and replaces each @import
// statement with the tokens of the imported sheet.
func (r *Rules) tokenizeAndApplyImport(fragment string) (tokenstream, error) {
	toks, err := tokenizeRulesString(fragment)
	if err != nil {
		return nil, err
	}
	var ret tokenstream
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Type != scanner.AtKeyword || t.Value != "import" {
			ret = append(ret, t)
			continue
		}
		var target string
		j := i + 1
	statement:
		for ; j < len(toks); j++ {
			switch toks[j].Type {
			case scanner.String, scanner.URI:
				target = unquote(toks[j].Value)
			case scanner.Delim:
				if toks[j].Value == ";" {
					break statement
				}
			}
		}
		if target == "" {
			return nil, fmt.Errorf("@import without a target")
		}
		imported, err := r.tokenizeRulesFile(target)
		if err != nil {
			return nil, fmt.Errorf("@import %q: %w", target, err)
		}
		ret = append(ret, imported...)
		i = j
	}
	return ret, nil
}

// Return the position after the matching closing brace "}" or -1 if the
// block is not closed.
func findClosingBrace(toks tokenstream) int {
	level := 1
	for i, t := range toks {
		if t.Type == scanner.Delim {
			switch t.Value {
			case "{":
				level++
			case "}":
				level--
				if level == 0 {
					return i + 1
				}
			}
		}
	}
	return -1
}

func trimSpace(toks tokenstream) tokenstream {
	start, end := 0, len(toks)
	for start < end && toks[start].Type == scanner.S {
		start++
	}
	for end > start && toks[end-1].Type == scanner.S {
		end--
	}
	return toks[start:end]
}

// consumeBlock splits toks into declarations (only if inblock is set), nested
// blocks and at-rules.
func consumeBlock(toks tokenstream, inblock bool) sBlock {
	b := sBlock{}
	start := 0
	colon := -1
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Type != scanner.Delim {
			continue
		}
		switch t.Value {
		case ":":
			if inblock && colon < 0 {
				colon = i
			}
		case ";":
			if colon >= 0 {
				b.rules = append(b.rules, qrule{key: trimSpace(toks[start:colon]), value: trimSpace(toks[colon+1 : i])})
			} else if head := trimSpace(toks[start:i]); len(head) > 0 && head[0].Type == scanner.AtKeyword {
				b.childAtRules = append(b.childAtRules, &sBlock{name: head[0].Value, componentValues: trimSpace(head[1:])})
			}
			start = i + 1
			colon = -1
		case "{":
			head := trimSpace(toks[start:i])
			var subblock tokenstream
			l := findClosingBrace(toks[i+1:])
			if l < 0 {
				// unclosed block, take everything up to the end
				subblock = toks[i+1:]
				i = len(toks)
			} else {
				// subblock is without the enclosing curly braces
				subblock = toks[i+1 : i+l]
				i = i + l
			}
			nb := consumeBlock(subblock, true)
			if len(head) > 0 && head[0].Type == scanner.AtKeyword {
				nb.name = head[0].Value
				nb.componentValues = trimSpace(head[1:])
				b.childAtRules = append(b.childAtRules, &nb)
			} else {
				nb.componentValues = head
				b.blocks = append(b.blocks, &nb)
			}
			start = i + 1
			colon = -1
		}
	}
	if colon >= 0 {
		b.rules = append(b.rules, qrule{key: trimSpace(toks[start:colon]), value: trimSpace(toks[colon+1:])})
	}
	return b
}

// selector returns the tokens as a selector string. The scanner strips
// syntax such as "(" from functions or the "^=" operator, Emit writes it back.
func (t tokenstream) selector() string {
	var sb strings.Builder
	for _, tok := range t {
		_ = tok.Emit(&sb)
	}
	return strings.TrimSpace(sb.String())
}

// tokenText returns the source text of a token. Unlike Token.Emit it does not
// escape identifiers, so values keep their characters.
func tokenText(tok *scanner.Token) string {
	switch tok.Type {
	case scanner.Hash:
		return "#" + tok.Value
	case scanner.AtKeyword:
		return "@" + tok.Value
	case scanner.String:
		return `"` + strings.ReplaceAll(tok.Value, `"`, `\"`) + `"`
	case scanner.Percentage:
		return tok.Value + "%"
	case scanner.Function:
		return tok.Value + "("
	case scanner.URI:
		return "url(" + tok.Value + ")"
	case scanner.Local:
		return "local(" + tok.Value + ")"
	case scanner.Format:
		return "format(" + tok.Value + ")"
	case scanner.Tech:
		return "tech(" + tok.Value + ")"
	case scanner.Includes:
		return "~="
	case scanner.DashMatch:
		return "|="
	case scanner.PrefixMatch:
		return "^="
	case scanner.SuffixMatch:
		return "$="
	case scanner.SubstringMatch:
		return "*="
	case scanner.CDO:
		return "<!--"
	case scanner.CDC:
		return "-->"
	}
	return tok.Value
}

// stringValue returns the tokens of a declaration value as text. Quoted
// strings lose their quotes, everything else is kept as written.
func stringValue(toks tokenstream) string {
	var sb strings.Builder
	for _, tok := range toks {
		if tok.Type == scanner.String {
			sb.WriteString(tok.Value)
		} else {
			sb.WriteString(tokenText(tok))
		}
	}
	return strings.TrimSpace(sb.String())
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// AddRulesText parses a rule sheet and appends it to the previously read
// sheets. Relative @import targets are resolved against the dir stack.
func (r *Rules) AddRulesText(fragment string) error {
	toks, err := r.tokenizeAndApplyImport(fragment)
	if err != nil {
		return err
	}
	r.sheets = append(r.sheets, consumeBlock(toks, false))
	return nil
}

// AddRulesFile reads a rule sheet from a file and appends it to the
// previously read sheets.
func (r *Rules) AddRulesFile(filename string) error {
	toks, err := r.tokenizeRulesFile(filename)
	if err != nil {
		return err
	}
	r.sheets = append(r.sheets, consumeBlock(toks, false))
	return nil
}

// ApplyRules applies all sheets in the order they were added. The options
// are passed to every operation, so WithContext restricts all rules to a
// subtree.
func (r *Rules) ApplyRules(doc *goquery.Document, opts ...Option) error {
	for _, sheet := range r.sheets {
		for _, atrule := range sheet.childAtRules {
			logrus.Warnf("rule sheet: unknown at-rule @%s", atrule.name)
		}
		for _, blk := range sheet.blocks {
			if err := applyBlock(doc, blk, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyBlock(doc *goquery.Document, blk *sBlock, opts []Option) error {
	selector := blk.componentValues.selector()
	if _, err := cascadia.Compile(selector); err != nil {
		return fmt.Errorf("rule sheet selector %q: %w", selector, err)
	}
	logrus.Debugf("apply %d declaration(s) to %q", len(blk.rules), selector)
	for _, rule := range blk.rules {
		if err := applyDeclaration(doc, selector, rule, opts); err != nil {
			return fmt.Errorf("rule sheet selector %q: %w", selector, err)
		}
	}
	if len(blk.blocks) > 0 || len(blk.childAtRules) > 0 {
		logrus.Warnf("rule sheet: nested blocks in %q are ignored", selector)
	}
	return nil
}

func applyDeclaration(doc *goquery.Document, selector string, rule qrule, opts []Option) error {
	key := strings.ToLower(strings.TrimSpace(rule.key.String()))
	value := stringValue(rule.value)
	switch key {
	case "role":
		return SetAriaRole(doc, selector, value, opts...)
	case "-aria-modal":
		switch strings.ToLower(value) {
		case "open", "true":
			return SetAriaModal(doc, selector, true, opts...)
		case "closed", "false":
			return SetAriaModal(doc, selector, false, opts...)
		}
		return fmt.Errorf("-aria-modal: unknown value %q", value)
	case "-aria-alert":
		return SetAriaAlert(doc, selector, value, opts...)
	case "-aria-remove":
		names := strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
		return RemoveAriaAttributes(doc, selector, names, opts...)
	}
	if strings.HasPrefix(key, "-aria-") {
		logrus.Warnf("rule sheet: unknown command %s", key)
		return nil
	}
	return SetAriaAttributes(doc, selector, Attrs(strings.TrimPrefix(key, ariaPrefix), value), opts...)
}
