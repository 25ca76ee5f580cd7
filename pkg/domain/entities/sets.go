package entities

import "strings"

// MaterialTypeOther is a sentinel, not a material: choosing it forces a
// custom non-empty value at validation time.
const MaterialTypeOther = "Other"

// CategoryOther is the catch-all model category. Deleting a category
// reassigns its models here.
const CategoryOther = "Other"

// DefaultMaterialTypes seeds the dynamic material-type set.
func DefaultMaterialTypes() []string {
	return []string{"PLA", "PETG", "ABS", "TPU"}
}

// DefaultCategories seeds the dynamic category set.
func DefaultCategories() []string {
	return []string{"Functional", "Decorative", "Toys & Games", "Tools", CategoryOther}
}

// StringSet keeps an ordered list of labels, unique case-insensitively.
// Lookup preserves the spelling the label was first added with.
type StringSet struct {
	values []string
}

// NewStringSet creates a set seeded with the given labels.
func NewStringSet(seed ...string) *StringSet {
	s := &StringSet{}
	for _, v := range seed {
		s.Add(v)
	}
	return s
}

// Values returns the labels in insertion order.
func (s *StringSet) Values() []string {
	return append([]string(nil), s.values...)
}

// Contains reports whether the label is present, ignoring case.
func (s *StringSet) Contains(v string) bool {
	for _, existing := range s.values {
		if strings.EqualFold(existing, v) {
			return true
		}
	}
	return false
}

// Add inserts a label; it reports false if an equivalent label already
// exists or the label is blank.
func (s *StringSet) Add(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || s.Contains(v) {
		return false
	}
	s.values = append(s.values, v)
	return true
}

// Remove deletes a label, ignoring case; it reports whether one was removed.
func (s *StringSet) Remove(v string) bool {
	for i, existing := range s.values {
		if strings.EqualFold(existing, v) {
			s.values = append(s.values[:i], s.values[i+1:]...)
			return true
		}
	}
	return false
}

// Rename replaces a label in place, keeping its position. It reports false
// when the old label is absent or the new one already exists elsewhere.
func (s *StringSet) Rename(old, updated string) bool {
	updated = strings.TrimSpace(updated)
	if updated == "" {
		return false
	}
	for i, existing := range s.values {
		if strings.EqualFold(existing, old) {
			for j, other := range s.values {
				if j != i && strings.EqualFold(other, updated) {
					return false
				}
			}
			s.values[i] = updated
			return true
		}
	}
	return false
}

// Len returns the number of labels.
func (s *StringSet) Len() int {
	return len(s.values)
}
