package ir

import "strings"

// Ability is a capability a type carries, gating what operations are
// legal on its values.
type Ability uint8

const (
	abilityNone Ability = iota
	AbilityCopy
	AbilityDrop
	AbilityStore
	AbilityKey
)

func (a Ability) String() string {
	switch a {
	case AbilityCopy:
		return "copy"
	case AbilityDrop:
		return "drop"
	case AbilityStore:
		return "store"
	case AbilityKey:
		return "key"
	}
	return "?"
}

// Structural reports whether the ability of a struct instantiation is
// derived from its fields (copy, drop) rather than from the struct's
// own declaration (store, key).
func (a Ability) Structural() bool {
	return a == AbilityCopy || a == AbilityDrop
}

// AbilitySet is a set of abilities packed into a bitmask.
type AbilitySet uint8

func NewAbilitySet(abilities ...Ability) AbilitySet {
	s := AbilitySet(0)
	for _, a := range abilities {
		s = s.With(a)
	}
	return s
}

func (s AbilitySet) With(a Ability) AbilitySet {
	return s | 1<<a
}

func (s AbilitySet) Without(a Ability) AbilitySet {
	return s &^ (1 << a)
}

func (s AbilitySet) Has(a Ability) bool {
	return s&(1<<a) != 0
}

func (s AbilitySet) Union(o AbilitySet) AbilitySet {
	return s | o
}

func (s AbilitySet) Intersect(o AbilitySet) AbilitySet {
	return s & o
}

// Contains reports whether every ability of o is present in s.
func (s AbilitySet) Contains(o AbilitySet) bool {
	return s&o == o
}

func (s AbilitySet) IsEmpty() bool {
	return s == 0
}

func (s AbilitySet) List() []Ability {
	var result []Ability
	for _, a := range []Ability{AbilityCopy, AbilityDrop, AbilityStore, AbilityKey} {
		if s.Has(a) {
			result = append(result, a)
		}
	}
	return result
}

func (s AbilitySet) String() string {
	parts := make([]string, 0, 4)
	for _, a := range s.List() {
		parts = append(parts, a.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
