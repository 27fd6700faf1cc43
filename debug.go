package ariahtml

import (
	"fmt"
	"strings"
)

func indent(s string) string {
	ret := []string{}
	for _, line := range strings.Split(s, "\n") {
		ret = append(ret, "    "+line)
	}
	return strings.Join(ret, "\n")
}

func (b sBlock) String() string {
	ret := []string{}
	var firstline string
	if b.name != "" {
		firstline = fmt.Sprintf("@%s ", b.name)
	}
	firstline = firstline + b.componentValues.selector() + " {"
	ret = append(ret, firstline)
	for _, v := range b.rules {
		ret = append(ret, "    "+v.key.String()+": "+stringValue(v.value)+";")
	}
	for _, v := range b.childAtRules {
		ret = append(ret, indent(v.String()))
	}
	for _, v := range b.blocks {
		ret = append(ret, indent(v.String()))
	}
	ret = append(ret, "}")
	return strings.Join(ret, "\n")
}

func (t tokenstream) String() string {
	ret := []string{}
	for _, tok := range t {
		ret = append(ret, tokenText(tok))
	}
	return strings.Join(ret, "")
}

// String returns all parsed rule sheets in a normalized form.
func (r *Rules) String() string {
	ret := []string{}
	for _, sheet := range r.sheets {
		for _, blk := range sheet.blocks {
			ret = append(ret, blk.String())
		}
	}
	return strings.Join(ret, "\n")
}

// String returns the attributes as they appear on an element.
func (a Attributes) String() string {
	ret := make([]string, 0, len(a))
	for _, attr := range a {
		ret = append(ret, fmt.Sprintf("%s%s=%q", ariaPrefix, attr.Key, attr.Val))
	}
	return strings.Join(ret, " ")
}
