// Package template adapts the go-template engine to the TemplateRenderer
// interface used by the HTML renderer.
package template
