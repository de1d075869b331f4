// Package perception implements the RG 5329 VAT perception rules: who is
// eligible, which rate applies to a line, when the 100,000 threshold is
// crossed, and how the perception tax assignments of a document are kept
// in line with that decision across edits and confirmation.
package perception
