package services

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jai-platform/jai-api/databases"
)

// memCollection is an in-memory stand-in for one mongo collection. It
// understands the filter and update shapes the services issue: equality on
// dotted paths, $ne, $in, $gte, $regex, $or and $set.
type memCollection struct {
	mu   sync.Mutex
	docs []bson.M

	// failures injected per method name
	fail map[string]error
	// beforeUpdate runs before UpdateOne applies, used to simulate races
	beforeUpdate func()
}

func newMemCollection() *memCollection {
	return &memCollection{fail: map[string]error{}}
}

type memInsertResult struct{ id interface{} }

func (r memInsertResult) Decode() interface{} { return r.id }

// memDB adapts a memCollection to the typed database interfaces
type memDB[T any] struct {
	c *memCollection
}

func (m memDB[T]) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) (*T, error) {
	if err := m.c.fail["FindOne"]; err != nil {
		return nil, err
	}
	docs := m.c.match(filter)
	if len(docs) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	out := new(T)
	if err := convert(docs[0], out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m memDB[T]) Find(_ context.Context, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	if err := m.c.fail["Find"]; err != nil {
		return nil, err
	}
	docs := m.c.match(filter)
	for _, o := range opts {
		if o == nil {
			continue
		}
		if o.Sort != nil {
			sortDocs(docs, o.Sort.(bson.D))
		}
		if o.Skip != nil {
			if int64(len(docs)) <= *o.Skip {
				docs = nil
			} else {
				docs = docs[*o.Skip:]
			}
		}
		if o.Limit != nil && int64(len(docs)) > *o.Limit {
			docs = docs[:*o.Limit]
		}
	}
	var out []T
	for _, d := range docs {
		var v T
		if err := convert(d, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m memDB[T]) InsertOne(_ context.Context, document interface{}, _ ...*options.InsertOneOptions) (databases.InsertOneResultHelper, error) {
	if err := m.c.fail["InsertOne"]; err != nil {
		return nil, err
	}
	var doc bson.M
	if err := convert(document, &doc); err != nil {
		return nil, err
	}
	m.c.mu.Lock()
	m.c.docs = append(m.c.docs, doc)
	m.c.mu.Unlock()
	return memInsertResult{id: doc["_id"]}, nil
}

func (m memDB[T]) UpdateOne(_ context.Context, filter interface{}, update interface{}, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	if err := m.c.fail["UpdateOne"]; err != nil {
		return nil, err
	}
	if m.c.beforeUpdate != nil {
		hook := m.c.beforeUpdate
		m.c.beforeUpdate = nil
		hook()
	}
	return m.c.update(filter, update, 1)
}

func (m memDB[T]) UpdateMany(_ context.Context, filter interface{}, update interface{}, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	if err := m.c.fail["UpdateMany"]; err != nil {
		return nil, err
	}
	return m.c.update(filter, update, -1)
}

func (m memDB[T]) DeleteOne(_ context.Context, filter interface{}, _ ...*options.DeleteOptions) (int64, error) {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	f := toM(filter)
	for i, d := range m.c.docs {
		if matches(d, f) {
			m.c.docs = append(m.c.docs[:i], m.c.docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m memDB[T]) CountDocuments(_ context.Context, filter interface{}, _ ...*options.CountOptions) (int64, error) {
	return int64(len(m.c.match(filter))), nil
}

func (m memDB[T]) all() []T {
	docs := m.c.match(bson.M{})
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := convert(d, &v); err != nil {
			panic(err)
		}
		out = append(out, v)
	}
	return out
}

func (c *memCollection) match(filter interface{}) []bson.M {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := toM(filter)
	var out []bson.M
	for _, d := range c.docs {
		if matches(d, f) {
			out = append(out, d)
		}
	}
	return out
}

func (c *memCollection) update(filter interface{}, update interface{}, limit int) (*mongo.UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := toM(filter)
	set, _ := toM(update)["$set"].(bson.M)
	res := &mongo.UpdateResult{}
	for _, d := range c.docs {
		if limit >= 0 && res.MatchedCount >= int64(limit) {
			break
		}
		if !matches(d, f) {
			continue
		}
		res.MatchedCount++
		changed := false
		for path, v := range set {
			nv := normalize(v)
			if old, ok := lookup(d, path); !ok || !reflect.DeepEqual(old, nv) {
				changed = true
			}
			assign(d, path, nv)
		}
		if changed {
			res.ModifiedCount++
		}
	}
	return res, nil
}

func convert(in, out interface{}) error {
	b, err := bson.Marshal(in)
	if err != nil {
		return err
	}
	return bson.Unmarshal(b, out)
}

// normalize round-trips a value through bson so it compares equal to stored values
func normalize(v interface{}) interface{} {
	var m bson.M
	if err := convert(bson.M{"v": v}, &m); err != nil {
		panic(err)
	}
	return m["v"]
}

func toM(v interface{}) bson.M {
	switch t := v.(type) {
	case bson.M:
		return t
	case nil:
		return bson.M{}
	}
	var m bson.M
	if err := convert(v, &m); err != nil {
		panic(err)
	}
	return m
}

func lookup(doc bson.M, path string) (interface{}, bool) {
	var cur interface{} = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(bson.M)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func assign(doc bson.M, path string, v interface{}) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(bson.M)
		if !ok {
			next = bson.M{}
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = v
}

func matches(doc bson.M, filter bson.M) bool {
	for key, want := range filter {
		if key == "$or" {
			hit := false
			for _, sub := range want.([]bson.M) {
				if matches(doc, sub) {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
			continue
		}
		got, ok := lookup(doc, key)
		if ops, isOps := want.(bson.M); isOps {
			if !matchOps(got, ok, ops) {
				return false
			}
			continue
		}
		if !ok || !equal(got, normalize(want)) {
			return false
		}
	}
	return true
}

func matchOps(got interface{}, present bool, ops bson.M) bool {
	for op, arg := range ops {
		switch op {
		case "$ne":
			if present && equal(got, normalize(arg)) {
				return false
			}
		case "$in":
			found := false
			for _, candidate := range normalize(arg).(primitive.A) {
				if present && equal(got, candidate) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case "$gte":
			if !present || compare(got, normalize(arg)) < 0 {
				return false
			}
		case "$regex":
			flags := ""
			if o, ok := ops["$options"].(string); ok && strings.Contains(o, "i") {
				flags = "(?i)"
			}
			re := regexp.MustCompile(flags + arg.(string))
			if !present || !regexMatch(re, got) {
				return false
			}
		case "$options":
		default:
			panic(fmt.Sprintf("memCollection: unsupported operator %s", op))
		}
	}
	return true
}

func regexMatch(re *regexp.Regexp, v interface{}) bool {
	switch t := v.(type) {
	case string:
		return re.MatchString(t)
	case primitive.A:
		for _, e := range t {
			if s, ok := e.(string); ok && re.MatchString(s) {
				return true
			}
		}
	}
	return false
}

func equal(a, b interface{}) bool {
	if arr, ok := a.(primitive.A); ok {
		if _, bIsArr := b.(primitive.A); !bIsArr {
			for _, e := range arr {
				if reflect.DeepEqual(e, b) {
					return true
				}
			}
			return false
		}
	}
	return reflect.DeepEqual(a, b)
}

func compare(a, b interface{}) int {
	af, aok := number(a)
	bf, bok := number(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func number(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case primitive.DateTime:
		return float64(t), true
	}
	return 0, false
}

func sortDocs(docs []bson.M, keys bson.D) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, k := range keys {
			a, _ := lookup(docs[i], k.Key)
			b, _ := lookup(docs[j], k.Key)
			c := compare(a, b)
			if c == 0 {
				continue
			}
			if k.Value.(int) < 0 {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}
