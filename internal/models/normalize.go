package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/wlx/internal/shared"
)

// Rating source names used by the metadata API's Ratings list.
const (
	SourceIMDb       = "Internet Movie Database"
	SourceRotten     = "Rotten Tomatoes"
	SourceMetacritic = "Metacritic"
)

var (
	leadingNumber = regexp.MustCompile(`^-?\d+(\.\d+)?`)
	nonDigit      = regexp.MustCompile(`\D`)
)

// record is a raw metadata object with case-insensitive field access.
type record map[string]any

func newRecord(raw map[string]any) record {
	r := make(record, len(raw))
	for k, v := range raw {
		r[strings.ToLower(k)] = v
	}
	return r
}

// get returns the first alias present with a non-placeholder value.
func (r record) get(aliases ...string) (any, bool) {
	for _, a := range aliases {
		v, ok := r[a]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && blank(s) {
			continue
		}
		return v, true
	}
	return nil, false
}

func (r record) str(aliases ...string) string {
	v, ok := r.get(aliases...)
	if !ok {
		return ""
	}
	return toString(v)
}

func (r record) strPtr(aliases ...string) *string {
	if s := r.str(aliases...); s != "" {
		return &s
	}
	return nil
}

func (r record) float(aliases ...string) *float64 {
	v, ok := r.get(aliases...)
	if !ok {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		return leadingFloat(n)
	}
	return nil
}

// leadingFloat reads "7.8/10" as 7.8.
func leadingFloat(s string) *float64 {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &f
}

// leadingInt reads "148 min" as 148.
func (r record) leadingInt(aliases ...string) *int {
	f := r.float(aliases...)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

// digits reads "1,234,567" as 1234567.
func (r record) digits(aliases ...string) *int {
	v, ok := r.get(aliases...)
	if !ok {
		return nil
	}
	if f, isNum := v.(float64); isNum {
		n := int(f)
		return &n
	}
	s := nonDigit.ReplaceAllString(toString(v), "")
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func (r record) list(aliases ...string) []string {
	v, ok := r.get(aliases...)
	if !ok {
		return nil
	}
	switch items := v.(type) {
	case []any:
		var out []string
		for _, item := range items {
			if s := strings.TrimSpace(toString(item)); !blank(s) {
				out = append(out, s)
			}
		}
		return out
	default:
		return splitList(toString(v))
	}
}

func (r record) boolean(aliases ...string) bool {
	v, ok := r.get(aliases...)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, _ := strconv.ParseBool(strings.TrimSpace(b))
		return parsed
	}
	return false
}

// sourceRatings reads the metadata API's [{Source, Value}] list.
func (r record) sourceRatings() map[string]string {
	v, ok := r.get("ratings")
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rr := newRecord(obj)
		src, val := rr.str("source"), rr.str("value")
		if src != "" && val != "" {
			out[src] = val
		}
	}
	return out
}

// NormalizeRecord converts a raw metadata or import record into an [Entry].
//
// Field names are matched case-insensitively across the shapes produced by the
// metadata API (Title, imdbID, Actors, Runtime, imdbVotes, Ratings) and by
// exported lists (title, id, cast, runtimeMinutes, voteCount). A record with
// neither id nor title is rejected with [shared.ErrValidation]; a record with
// only a title gets a generated local id.
func NormalizeRecord(raw map[string]any) (Entry, error) {
	r := newRecord(raw)

	e := Entry{
		ID:               r.str("id", "imdbid"),
		Title:            r.str("title", "name"),
		Year:             r.str("year"),
		Genres:           strings.Join(r.list("genres", "genre"), ", "),
		Type:             strings.ToLower(r.str("type")),
		RuntimeMinutes:   r.leadingInt("runtimeminutes", "runtime"),
		IMDbRating:       r.float("imdbrating", "rating"),
		RTRating:         r.strPtr("rtrating"),
		MetacriticRating: r.strPtr("metacriticrating"),
		VoteCount:        r.digits("votecount", "imdbvotes"),
		Cast:             r.list("cast", "actors"),
		Directors:        r.list("directors", "director"),
		Plot:             r.str("plot"),
		Poster:           r.str("poster"),
		Link:             r.str("link", "url"),
		Seen:             r.boolean("seen"),
		AddedAt:          r.str("addedat"),
		ReleaseDate:      r.str("releasedate", "released"),
	}

	if e.IMDbRating == nil {
		e.IMDbRating = r.float("imdbdisplay")
	}

	if ratings := r.sourceRatings(); ratings != nil {
		if v, ok := ratings[SourceIMDb]; ok && e.IMDbRating == nil {
			e.IMDbRating = leadingFloat(v)
		}
		if v, ok := ratings[SourceRotten]; ok && e.RTRating == nil {
			e.RTRating = String(v)
		}
		if v, ok := ratings[SourceMetacritic]; ok && e.MetacriticRating == nil {
			e.MetacriticRating = String(v)
		}
	}
	if e.MetacriticRating == nil {
		if m := r.str("metascore"); m != "" {
			e.MetacriticRating = String(m + "/100")
		}
	}

	if e.ID == "" && e.Title == "" {
		return Entry{}, fmt.Errorf("%w: record has neither id nor title", shared.ErrValidation)
	}
	if e.ID == "" {
		e.ID = LocalID(e.Title, e.Year)
	}
	if e.Link == "" {
		e.Link = IMDbLink(e.ID)
	}
	return e, nil
}

// LocalID derives the id of an entry that has no external id from its title and
// year, so importing the same record twice yields the same entry.
func LocalID(title, year string) string {
	key := strings.ToLower(strings.TrimSpace(title)) + "|" + strings.TrimSpace(year)
	return "local-" + shared.DeriveID(key)
}

// NormalizeRecords parses data as a JSON array of entry objects. The batch is
// rejected as a whole when the top-level value is not an array, any element is
// not an object, or any element fails [NormalizeRecord].
func NormalizeRecords(data []byte) ([]Entry, error) {
	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %w", shared.ErrValidation, err)
	}

	items, ok := top.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON array of entries", shared.ErrValidation)
	}

	entries := make([]Entry, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is not an object", shared.ErrValidation, i)
		}
		e, err := NormalizeRecord(obj)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func blank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "N/A")
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if blank(s) {
			return ""
		}
		return s
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
