// Package query translates untrusted request query parameters into a fully
// specified, not-yet-executed MongoDB find description. Building an Options
// performs no I/O; execution happens in the repository layer.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultLimit caps result sets when the caller does not paginate.
	DefaultLimit = 100
)

// reserved keys drive sort/projection/pagination and never become filters.
var reserved = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
}

// operators maps the query-string comparison suffixes to their MongoDB form.
var operators = map[string]string{
	"gte": "$gte",
	"gt":  "$gt",
	"lte": "$lte",
	"lt":  "$lt",
}

// hidden fields are never returned, regardless of the fields parameter.
var hidden = []string{"password", "passwordChangedAt", "passwordResetToken", "passwordResetExpires"}

// Options describes a find over a collection. Stages were applied in fixed
// order: filter, sort, field limit, paginate.
type Options struct {
	Filter     bson.M
	Sort       bson.D
	Projection bson.M
	Skip       int64
	Limit      int64
}

// Parse builds Options from a flat query-parameter map. Unknown bracket
// operators are ignored and their filter clause dropped.
func Parse(values url.Values) *Options {
	o := &Options{Filter: bson.M{}}
	o.applyFilter(values)
	o.applySort(values.Get("sort"))
	o.applyFields(values.Get("fields"))
	o.applyPagination(values.Get("page"), values.Get("limit"))
	return o
}

// Merge overlays a preset scoping filter onto the parsed one. Scope entries
// win over caller-supplied ones so a nested route cannot be escaped.
func (o *Options) Merge(scope bson.M) *Options {
	for k, v := range scope {
		o.Filter[k] = v
	}
	return o
}

// FindOptions renders the sort/projection/pagination stages as driver options.
func (o *Options) FindOptions() *options.FindOptions {
	opts := options.Find()
	if len(o.Sort) > 0 {
		opts.SetSort(o.Sort)
	}
	if len(o.Projection) > 0 {
		opts.SetProjection(o.Projection)
	}
	opts.SetSkip(o.Skip)
	opts.SetLimit(o.Limit)
	return opts
}

func (o *Options) applyFilter(values url.Values) {
	for key := range values {
		if reserved[key] {
			continue
		}
		raw := values.Get(key)
		field, op, bracketed := splitKey(key)
		if !bracketed {
			o.Filter[field] = coerce(raw)
			continue
		}
		mongoOp, known := operators[op]
		if !known {
			continue
		}
		sub, ok := o.Filter[field].(bson.M)
		if !ok {
			sub = bson.M{}
			o.Filter[field] = sub
		}
		sub[mongoOp] = coerce(raw)
	}
}

func (o *Options) applySort(raw string) {
	if raw == "" {
		// Creation order with an id tiebreak keeps pagination deterministic.
		o.Sort = bson.D{{Key: "createdAt", Value: -1}, {Key: "id", Value: 1}}
		return
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dir := 1
		if strings.HasPrefix(part, "-") {
			dir = -1
			part = part[1:]
		}
		if part != "" {
			o.Sort = append(o.Sort, bson.E{Key: part, Value: dir})
		}
	}
}

func (o *Options) applyFields(raw string) {
	if raw == "" {
		o.Projection = bson.M{}
		for _, f := range hidden {
			o.Projection[f] = 0
		}
		return
	}
	o.Projection = bson.M{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || isHidden(part) {
			continue
		}
		o.Projection[part] = 1
	}
}

func (o *Options) applyPagination(rawPage, rawLimit string) {
	page, err := strconv.ParseInt(rawPage, 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.ParseInt(rawLimit, 10, 64)
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	o.Skip = (page - 1) * limit
	o.Limit = limit
}

// splitKey parses "price[gte]" into ("price", "gte", true); a key without
// brackets comes back unchanged with bracketed false.
func splitKey(key string) (field, op string, bracketed bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, "", false
	}
	return key[:open], key[open+1 : len(key)-1], true
}

func isHidden(field string) bool {
	for _, f := range hidden {
		if f == field {
			return true
		}
	}
	return false
}

// coerce interprets a raw query value as a number or boolean when possible,
// falling back to the literal string.
func coerce(raw string) interface{} {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
