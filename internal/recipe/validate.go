package recipe

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/forkful/forkful/backend/pkg/apperrors"
)

const (
	TitleMin        = 3
	TitleMax        = 100
	MaxIngredients  = 20
	IngredientMax   = 150
	MaxInstructions = 15
	InstructionMax  = 300
	MaxTags         = 10
	CommentMax      = 500
	RatingMin       = 1
	RatingMax       = 5
)

// RawPayload is a create/update request as received. List fields hold their
// serialized JSON form since multipart bodies carry them as plain strings.
type RawPayload struct {
	Title        string
	Description  string
	Ingredients  string
	Instructions string
	Tags         string
}

// Draft is a validated, normalized recipe body.
type Draft struct {
	Title        string
	Description  string
	Ingredients  []string
	Instructions []string
	Tags         []string
}

// Validate normalizes p into a Draft. It has no side effects.
func Validate(p RawPayload) (Draft, error) {
	var d Draft

	d.Title = strings.TrimSpace(p.Title)
	if n := utf8.RuneCountInString(d.Title); n < TitleMin || n > TitleMax {
		return Draft{}, apperrors.InvalidInput("title must be between %d and %d characters", TitleMin, TitleMax)
	}
	d.Description = strings.TrimSpace(p.Description)

	var err error
	if d.Ingredients, err = parseEntries("ingredients", p.Ingredients, MaxIngredients, IngredientMax); err != nil {
		return Draft{}, err
	}
	if d.Instructions, err = parseEntries("instructions", p.Instructions, MaxInstructions, InstructionMax); err != nil {
		return Draft{}, err
	}
	if d.Tags, err = parseTags(p.Tags); err != nil {
		return Draft{}, err
	}
	return d, nil
}

func decodeList(field, raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, apperrors.InvalidInput("%s must be a list of strings", field)
	}
	return out, nil
}

func parseEntries(field, raw string, maxCount, maxLen int) ([]string, error) {
	items, err := decodeList(field, raw)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperrors.InvalidInput("at least one entry in %s is required", field)
	}
	if len(items) > maxCount {
		return nil, apperrors.InvalidInput("%s may have at most %d entries", field, maxCount)
	}
	out := make([]string, len(items))
	for i, it := range items {
		it = strings.TrimSpace(it)
		if n := utf8.RuneCountInString(it); n == 0 || n > maxLen {
			return nil, apperrors.InvalidInput("%s entry %d must be between 1 and %d characters", field, i+1, maxLen)
		}
		out[i] = it
	}
	return out, nil
}

func parseTags(raw string) ([]string, error) {
	items, err := decodeList("tags", raw)
	if err != nil {
		return nil, err
	}
	return NormalizeTags(items), nil
}

// NormalizeTags lowercases, trims and deduplicates tags, dropping empty ones
// and keeping at most MaxTags in first-seen order.
func NormalizeTags(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, t := range items {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}

// ValidateRating accepts integers 1..5.
func ValidateRating(v int) error {
	if v < RatingMin || v > RatingMax {
		return apperrors.InvalidInput("rating must be an integer between %d and %d", RatingMin, RatingMax)
	}
	return nil
}

// ValidateComment trims text and enforces 1..500 characters.
func ValidateComment(text string) (string, error) {
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n == 0 || n > CommentMax {
		return "", apperrors.InvalidInput("comment must be between 1 and %d characters", CommentMax)
	}
	return text, nil
}

// CanModify is the single ownership predicate: only the owner may change a
// resource, and an anonymous actor never can.
func CanModify(owner, actor primitive.ObjectID) bool {
	return !actor.IsZero() && owner == actor
}

// ParseID converts a path parameter to an ObjectID.
func ParseID(raw, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperrors.InvalidInput("invalid %s id", what)
	}
	return id, nil
}
