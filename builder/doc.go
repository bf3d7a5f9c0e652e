// Package builder provides the stock builders applied to element classes:
// attribute and property fields, DOM event listeners, template rendering,
// methods and delegation of fields to descendants.
//
// Every builder is configured through fluent calls and consumed once by
// element.Composer.
package builder
