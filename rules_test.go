package ariahtml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestConsumeBlock(t *testing.T) {
	str := `
	/* toggle buttons */
	button.toggle, #btn1 {
		pressed: false;
		aria-label: "Submit";
	}
	@media print {
		nav { role: none }
	}
	nav a { role: menuitem }`
	toks, err := tokenizeRulesString(str)
	if err != nil {
		t.Fatal(err)
	}
	bl := consumeBlock(toks, false)
	if got, want := len(bl.blocks), 2; got != want {
		t.Fatalf("len(blocks) = %d, want %d", got, want)
	}
	if got, want := len(bl.childAtRules), 1; got != want {
		t.Fatalf("len(childAtRules) = %d, want %d", got, want)
	}
	first := bl.blocks[0]
	if got, want := first.componentValues.selector(), "button.toggle, #btn1"; got != want {
		t.Errorf("selector = %q, want %q", got, want)
	}
	if got, want := len(first.rules), 2; got != want {
		t.Fatalf("len(rules) = %d, want %d", got, want)
	}
	if got, want := stringValue(first.rules[1].value), "Submit"; got != want {
		t.Errorf("value = %q, want %q", got, want)
	}
	// last declaration without a semicolon
	if got, want := len(bl.blocks[1].rules), 1; got != want {
		t.Errorf("len(rules) = %d, want %d", got, want)
	}
}

func TestSelectorText(t *testing.T) {
	for _, sel := range []string{
		`button:nth-child(2)`,
		`li:nth-child(2n+1)`,
		`a:not(.x)`,
		`[id^="btn"]`,
		`[id$="2"]`,
		`[id*="tn"]`,
		`[class~="x"]`,
		`[lang|="en"]`,
		`div > p + a ~ span`,
		`nav *`,
		`#btn1, button.toggle`,
	} {
		toks, err := tokenizeRulesString(sel + " { role: x; }")
		if err != nil {
			t.Fatal(err)
		}
		bl := consumeBlock(toks, false)
		if got := bl.blocks[0].componentValues.selector(); got != sel {
			t.Errorf("selector() = %q, want %q", got, sel)
		}
	}
}

func TestValueText(t *testing.T) {
	for _, tc := range []struct {
		value string
		want  string
	}{
		{`50%`, `50%`},
		{`url(foo)`, `url(foo)`},
		{`"Submit form"`, `Submit form`},
		{`#fff`, `#fff`},
		{`2em`, `2em`},
		{`-1.5`, `-1.5`},
		{`calc(1 + 2)`, `calc(1 + 2)`},
		{`pressed label`, `pressed label`},
		{`Größe`, `Größe`},
	} {
		toks, err := tokenizeRulesString("x { k: " + tc.value + "; }")
		if err != nil {
			t.Fatal(err)
		}
		bl := consumeBlock(toks, false)
		if got := stringValue(bl.blocks[0].rules[0].value); got != tc.want {
			t.Errorf("stringValue(%s) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestApplyRulesSelectors(t *testing.T) {
	doc := newDoc(t)
	r := NewRules()
	err := r.AddRulesText(`
	#container button:nth-child(2) { pressed: true; }
	[id^="btn"] { valuetext: 50%; }
	`)
	if err != nil {
		t.Fatal(err)
	}
	if err = r.ApplyRules(doc); err != nil {
		t.Fatal(err)
	}
	if got, want := doc.Find("#btn2").AttrOr("aria-pressed", "<unset>"), "true"; got != want {
		t.Errorf("#btn2 aria-pressed = %s, want %s", got, want)
	}
	if _, ok := doc.Find("#btn1").Attr("aria-pressed"); ok {
		t.Error("#btn1 matched button:nth-child(2)")
	}
	doc.Find("button").Each(func(i int, sel *goquery.Selection) {
		if got, want := sel.AttrOr("aria-valuetext", "<unset>"), "50%"; got != want {
			t.Errorf("button %d aria-valuetext = %s, want %s", i, got, want)
		}
	})
}

func TestScannerError(t *testing.T) {
	for _, sheet := range []string{
		`#alert { -aria-alert: "unclosed; }`,
		`button { role: none; } /* unclosed`,
	} {
		r := NewRules()
		if err := r.AddRulesText(sheet); err == nil {
			t.Errorf("AddRulesText(%q): want error", sheet)
		}
	}
}

func TestApplyRules(t *testing.T) {
	doc := newDoc(t)
	r := NewRules()
	err := r.AddRulesText(`
	button { pressed: true; aria-label: "Submit"; role: switch; }
	#btn2 { -aria-remove: pressed, label; }
	#modal { -aria-modal: closed; }
	#alert { -aria-alert: "Saved"; }
	`)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := strings.Count(r.String(), "{"), 4; got != want {
		t.Errorf("r.String() has %d blocks, want %d:\n%s", got, want, r.String())
	}
	if err = r.ApplyRules(doc); err != nil {
		t.Fatal(err)
	}
	btn1 := doc.Find("#btn1")
	for attr, want := range map[string]string{
		"aria-pressed": "true",
		"aria-label":   "Submit",
		"role":         "switch",
	} {
		if got := btn1.AttrOr(attr, "<unset>"); got != want {
			t.Errorf("#btn1 %s = %s, want %s", attr, got, want)
		}
	}
	if _, ok := doc.Find("#btn2").Attr("aria-pressed"); ok {
		t.Error("#btn2 still has aria-pressed")
	}
	if got, want := doc.Find("#modal").AttrOr("aria-hidden", ""), "true"; got != want {
		t.Errorf("#modal aria-hidden = %s, want %s", got, want)
	}
	if got, want := doc.Find("#alert").Text(), "Saved"; got != want {
		t.Errorf("#alert text = %q, want %q", got, want)
	}
}

func TestApplyRulesErrors(t *testing.T) {
	for _, sheet := range []string{
		`#modal { -aria-modal: maybe; }`,
		`button[ { role: none; }`,
	} {
		r := NewRules()
		if err := r.AddRulesText(sheet); err != nil {
			t.Fatal(err)
		}
		if err := r.ApplyRules(newDoc(t)); err == nil {
			t.Errorf("ApplyRules(%q): want error", sheet)
		}
	}
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "buttons.aria"), []byte(`button { pressed: false; }`), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewRules()
	r.PushDir(dir)
	if err := r.AddRulesText(`@import "buttons.aria"; #modal { -aria-modal: open; }`); err != nil {
		t.Fatal(err)
	}
	r.PopDir()
	doc := newDoc(t)
	if err := r.ApplyRules(doc); err != nil {
		t.Fatal(err)
	}
	has, err := HasAriaAttribute(doc, "button", "pressed")
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Error("imported rule was not applied")
	}
	if got, want := doc.Find("#modal").AttrOr("aria-hidden", ""), "false"; got != want {
		t.Errorf("#modal aria-hidden = %s, want %s", got, want)
	}
}

func TestImportMissing(t *testing.T) {
	r := NewRules()
	r.PushDir(t.TempDir())
	if err := r.AddRulesText(`@import "missing.aria";`); err == nil {
		t.Error("import of a missing file: want error")
	}
}

func TestProcessHTMLFile(t *testing.T) {
	dir := t.TempDir()
	page := `<html><head><link rel="aria-rules" href="page.aria"></head>
<body><div id="status">loading</div></body></html>`
	if err := os.WriteFile(filepath.Join(dir, "page.html"), []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "page.aria"), []byte(`#status { -aria-alert: "ready"; live: polite; }`), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewRules()
	doc, err := r.ProcessHTMLFile(filepath.Join(dir, "page.html"))
	if err != nil {
		t.Fatal(err)
	}
	out, err := Render(doc)
	if err != nil {
		t.Fatal(err)
	}
	if want := `<div id="status" role="alert" aria-live="polite">ready</div>`; !strings.Contains(out, want) {
		t.Errorf("Render() = %s, want it to contain %s", out, want)
	}
}

func TestProcessHTMLChunkMissingSheet(t *testing.T) {
	r := NewRules()
	r.PushDir(t.TempDir())
	_, err := r.ProcessHTMLChunk(`<html><head><link rel="aria-rules" href="nope.aria"></head><body></body></html>`)
	if err == nil {
		t.Error("missing rule sheet: want error")
	}
}
