// Package ariahtml sets and queries ARIA attributes on all elements of an
// HTML document that match a CSS selector.
//
// Each operation takes a goquery document, a selector and an optional scope
// (see WithContext). Elements are changed in document order, a selector that
// matches nothing is not an error. Rule sheets (see Rules) describe the same
// operations in CSS syntax and can be linked from the HTML head with
// <link rel="aria-rules" href="...">.
package ariahtml
