package ariahtml

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

const ariaPrefix = "aria-"

type options struct {
	context *goquery.Selection
}

// Option configures a single ARIA operation.
type Option func(*options)

// WithContext limits selector matching to the descendants of the nodes in
// sel, which must belong to the document passed to the operation. Without
// this option (or with a nil selection) the whole document is searched.
// Matches are visited in document order even if sel holds several nodes.
func WithContext(sel *goquery.Selection) Option {
	return func(o *options) {
		o.context = sel
	}
}

// scope returns the selection matching starts from.
func scope(doc *goquery.Document, opts []Option) *goquery.Selection {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.context != nil {
		return o.context
	}
	return doc.Selection
}

// find resolves selector in the scope given by opts. The error of an invalid
// selector is returned as reported by cascadia.
func find(doc *goquery.Document, selector string, opts []Option) (*goquery.Selection, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, err
	}
	ctx := scope(doc, opts)
	if ctx.Length() < 2 {
		return ctx.FindMatcher(sel), nil
	}
	// FindMatcher concatenates the matches per context node
	return doc.FindMatcher(sel).FilterFunction(func(_ int, elt *goquery.Selection) bool {
		return elt.Parents().IsSelection(ctx)
	}), nil
}

// apply calls action for every element matching selector, in document order.
func apply(doc *goquery.Document, selector string, action func(*goquery.Selection), opts []Option) error {
	found, err := find(doc, selector, opts)
	if err != nil {
		return err
	}
	found.Each(func(_ int, elt *goquery.Selection) {
		action(elt)
	})
	return nil
}

// SetAriaAttributes sets aria-<key> to value for every entry of attrs on each
// element matching selector. Existing attributes are overwritten.
func SetAriaAttributes(doc *goquery.Document, selector string, attrs Attributes, opts ...Option) error {
	return apply(doc, selector, func(elt *goquery.Selection) {
		for _, a := range attrs {
			elt.SetAttr(ariaPrefix+a.Key, a.Val)
		}
	}, opts)
}

// SetAriaRole sets the role attribute of each element matching selector.
func SetAriaRole(doc *goquery.Document, selector string, role string, opts ...Option) error {
	return apply(doc, selector, func(elt *goquery.Selection) {
		elt.SetAttr("role", role)
	}, opts)
}

// RemoveAriaAttributes removes aria-<name> for all names from each element
// matching selector. Missing attributes are ignored.
func RemoveAriaAttributes(doc *goquery.Document, selector string, names []string, opts ...Option) error {
	return apply(doc, selector, func(elt *goquery.Selection) {
		for _, name := range names {
			elt.RemoveAttr(ariaPrefix + name)
		}
	}, opts)
}

// HasAriaAttribute reports whether all elements matching selector carry the
// attribute aria-<name>. It returns false if nothing matches.
func HasAriaAttribute(doc *goquery.Document, selector string, name string, opts ...Option) (bool, error) {
	found, err := find(doc, selector, opts)
	if err != nil {
		return false, err
	}
	if found.Length() == 0 {
		return false, nil
	}
	all := true
	found.Each(func(_ int, elt *goquery.Selection) {
		if _, ok := elt.Attr(ariaPrefix + name); !ok {
			all = false
		}
	})
	return all, nil
}

// SetAriaModal marks each element matching selector as a modal dialog.
// aria-hidden reflects isOpen, aria-modal is always "true".
func SetAriaModal(doc *goquery.Document, selector string, isOpen bool, opts ...Option) error {
	hidden := "true"
	if isOpen {
		hidden = "false"
	}
	return apply(doc, selector, func(elt *goquery.Selection) {
		elt.SetAttr("aria-hidden", hidden)
		elt.SetAttr("role", "dialog")
		elt.SetAttr("aria-modal", "true")
	}, opts)
}

// SetAriaAlert gives each element matching selector the alert role and
// replaces its contents with message.
func SetAriaAlert(doc *goquery.Document, selector string, message string, opts ...Option) error {
	return apply(doc, selector, func(elt *goquery.Selection) {
		elt.SetAttr("role", "alert")
		elt.SetText(message)
	}, opts)
}
