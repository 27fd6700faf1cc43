package ariahtml

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// linkSelector finds rule sheets referenced from the document head.
const linkSelector = `head link[rel~="aria-rules"]`

// ParseHTML reads an HTML document.
func ParseHTML(r io.Reader) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(r)
}

// Render serializes the document as HTML.
func Render(doc *goquery.Document) (string, error) {
	var sb strings.Builder
	for _, n := range doc.Nodes {
		if err := html.Render(&sb, n); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// ProcessHTMLFile opens an HTML file, reads the linked rule sheets, applies
// all rules and returns the DOM structure. Rule sheets are located relative
// to the HTML file.
func (r *Rules) ProcessHTMLFile(filename string) (*goquery.Document, error) {
	dir, fn := filepath.Split(filename)
	r.PushDir(dir)
	defer r.PopDir()

	filename, err := r.findFile(fn)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := ParseHTML(f)
	if err != nil {
		return nil, err
	}
	if err = r.processDocument(doc); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return doc, nil
}

// ProcessHTMLChunk reads the HTML text. If there are linked rule sheets
// (<link rel="aria-rules" href=...>) these are also read. After reading, all
// rules are applied to the HTML DOM which is returned.
func (r *Rules) ProcessHTMLChunk(htmltext string) (*goquery.Document, error) {
	doc, err := ParseHTML(strings.NewReader(htmltext))
	if err != nil {
		return nil, err
	}
	if err = r.processDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *Rules) processDocument(doc *goquery.Document) error {
	var errcond error
	doc.Find(linkSelector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if href, attExists := sel.Attr("href"); attExists {
			if err := r.AddRulesFile(href); err != nil {
				errcond = err
				return false
			}
		}
		return true
	})
	if errcond != nil {
		return errcond
	}
	return r.ApplyRules(doc)
}
