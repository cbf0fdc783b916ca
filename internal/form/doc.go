// Package form holds wizard field values across steps. It stores heterogeneous
// values (text, booleans, file references, string lists), tracks which fields
// were edited, and keeps the field errors produced by the last validation run.
// Nothing in this package validates; see package validate for the rules.
package form
