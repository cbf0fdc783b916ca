// Package validate evaluates declarative per-step rule tables against wizard
// field values. Each Step lists its Rules; a Rule names one field and the
// constraints it must satisfy, optionally gated by a boolean sibling field.
package validate
