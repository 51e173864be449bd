// Package rag assembles grounded answers from retrieved units.
//
// The prompt numbers each retrieved unit as a context block; the generator
// is instructed to cite those numbers inline as [n] markers. After
// generation, ExtractCitations maps the markers back to the units in the
// order they were supplied, and FormatSources reduces citations to their
// presentable fields.
package rag
