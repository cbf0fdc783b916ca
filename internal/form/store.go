package form

import (
	"sort"
	"sync"
)

// FieldError is a validation failure attached to one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Values is a detached copy of every field value in a store.
type Values map[string]Value

// Get returns the value for field, or the zero Value.
func (v Values) Get(field string) Value {
	return v[field]
}

// Text returns the text of field.
func (v Values) Text(field string) string {
	val, ok := v[field]
	if !ok || val.Kind() != KindText {
		return ""
	}
	return val.text
}

// Bool returns the flag of field.
func (v Values) Bool(field string) bool {
	return v[field].Bool()
}

// List returns the items of field.
func (v Values) List(field string) []string {
	return v[field].List()
}

// File returns the document attached to field.
func (v Values) File(field string) (FileRef, bool) {
	return v[field].File()
}

// Fields returns the field names in sorted order.
func (v Values) Fields() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone deep-copies the map.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for name, val := range v {
		out[name] = val.clone()
	}
	return out
}

// Store keeps field values for the lifetime of one wizard session.
type Store struct {
	mu     sync.RWMutex
	values Values
	dirty  map[string]bool
	errors map[string]string
}

// NewStore returns a store seeded with defaults. Defaults are not marked dirty.
func NewStore(defaults Values) *Store {
	s := &Store{}
	s.reset(defaults)
	return s
}

// Get returns the value for field, or the zero Value when unset.
func (s *Store) Get(field string) Value {
	v, _ := s.Lookup(field)
	return v
}

// Lookup returns the value for field and whether it was ever set.
func (s *Store) Lookup(field string) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[field]
	if !ok {
		return Value{}, false
	}
	return v.clone(), true
}

// Set stores a value, marks the field dirty and clears its error.
func (s *Store) Set(field string, value Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[field] = value.clone()
	s.dirty[field] = true
	delete(s.errors, field)
}

// Dirty reports whether the user edited field.
func (s *Store) Dirty(field string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty[field]
}

// SetErrors replaces the current error set.
func (s *Store) SetErrors(errs []FieldError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = make(map[string]string, len(errs))
	for _, fe := range errs {
		if _, exists := s.errors[fe.Field]; exists {
			continue
		}
		s.errors[fe.Field] = fe.Message
	}
}

// ClearErrors drops every stored field error.
func (s *Store) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = map[string]string{}
}

// Error returns the message attached to field.
func (s *Store) Error(field string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.errors[field]
	return msg, ok
}

// Errors returns the current errors sorted by field name.
func (s *Store) Errors() []FieldError {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]FieldError, 0, len(s.errors))
	for field, msg := range s.errors {
		out = append(out, FieldError{Field: field, Message: msg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// Snapshot returns a deep copy of all values.
func (s *Store) Snapshot() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Clone()
}

// Reset discards all values, errors and dirty marks and reapplies defaults.
func (s *Store) Reset(defaults Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(defaults)
}

func (s *Store) reset(defaults Values) {
	if defaults == nil {
		s.values = Values{}
	} else {
		s.values = defaults.Clone()
	}
	s.dirty = map[string]bool{}
	s.errors = map[string]string{}
}
