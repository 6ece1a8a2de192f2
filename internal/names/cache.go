package names

import (
	"context"
	"fmt"
	"strings"
)

// Gender is the gender associated with a given name.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	// GenderUnisex marks a known given name with no single gender. It is
	// stored as NULL in first_name_genders.
	GenderUnisex Gender = "UNISEX"
)

// ParseGender maps stored or oracle values onto a Gender. Empty, NULL and
// unknown values are UNISEX.
func ParseGender(value string) Gender {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case string(GenderMale):
		return GenderMale
	case string(GenderFemale):
		return GenderFemale
	default:
		return GenderUnisex
	}
}

// Specific reports whether g is MALE or FEMALE.
func (g Gender) Specific() bool {
	return g == GenderMale || g == GenderFemale
}

// Store persists the first-name table. An empty gender is written as NULL.
type Store interface {
	FirstNameGenders(ctx context.Context) (map[string]string, error)
	InsertFirstNameGender(ctx context.Context, name, gender string) error
}

// Cache maps lowercased, unquoted given names to their gender. Entries are
// only ever added. A Cache is not safe for concurrent use.
type Cache struct {
	entries map[string]Gender
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Gender)}
}

// LoadCache reads every row of the first-name table.
func LoadCache(ctx context.Context, store Store) (*Cache, error) {
	rows, err := store.FirstNameGenders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load first name genders: %w", err)
	}
	cache := NewCache()
	for name, gender := range rows {
		cache.Add(name, ParseGender(gender))
	}
	return cache, nil
}

// Lookup returns the gender recorded for token.
func (c *Cache) Lookup(token string) (Gender, bool) {
	key := cacheKey(token)
	gender, ok := c.entries[key]
	return gender, ok
}

// Add records token and reports whether it was new. Existing entries are
// never overwritten.
func (c *Cache) Add(token string, gender Gender) bool {
	key := cacheKey(token)
	if key == "" {
		return false
	}
	if _, ok := c.entries[key]; ok {
		return false
	}
	c.entries[key] = gender
	return true
}

// Len returns the number of cached names.
func (c *Cache) Len() int {
	return len(c.entries)
}

func cacheKey(token string) string {
	return strings.ToLower(cleanToken(token))
}
