package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Gender answers for a first name.
const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
	GenderUnisex = "UNISEX"
)

const genderSystemPrompt = `You classify given names (first names) by the gender they are typically used for.
Consider worldwide usage, not a single country.
Answer with JSON only: {"gender":"MALE"}, {"gender":"FEMALE"} or {"gender":"UNISEX"}.
Use UNISEX when the name is used by both men and women or when it is ambiguous.`

const firstNameSystemPrompt = `You decide whether a single word is a given name (a person's first name).
Surnames, common nouns and words that are not personal names are not given names.
Answer with JSON only: {"first_name":true} or {"first_name":false}.`

// Gender asks whether name is typically MALE, FEMALE or UNISEX. Any other
// answer is reported as UNISEX.
func (c *Client) Gender(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("llm gender: name required")
	}
	content, err := c.CompleteJSON(ctx, genderSystemPrompt, fmt.Sprintf("Given name: %q", name))
	if err != nil {
		return "", fmt.Errorf("llm gender: %w", err)
	}
	var parsed struct {
		Gender string `json:"gender"`
	}
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return "", fmt.Errorf("llm gender: parse payload: %w", err)
	}
	switch answer := strings.ToUpper(strings.TrimSpace(parsed.Gender)); {
	case strings.HasPrefix(answer, GenderFemale):
		return GenderFemale, nil
	case strings.HasPrefix(answer, GenderMale):
		return GenderMale, nil
	default:
		return GenderUnisex, nil
	}
}

// IsFirstName asks whether word is a given name rather than a surname or a
// common word.
func (c *Client) IsFirstName(ctx context.Context, word string) (bool, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return false, errors.New("llm first name: word required")
	}
	content, err := c.CompleteJSON(ctx, firstNameSystemPrompt, fmt.Sprintf("Word: %q", word))
	if err != nil {
		return false, fmt.Errorf("llm first name: %w", err)
	}
	var parsed struct {
		FirstName bool `json:"first_name"`
	}
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return false, fmt.Errorf("llm first name: parse payload: %w", err)
	}
	return parsed.FirstName, nil
}
