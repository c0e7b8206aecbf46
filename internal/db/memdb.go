package db

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
)

// MemCollection is an in-memory stand-in for a mongo collection, used
// by tests: no server, same call sites. It interprets the filter and
// update operators this codebase generates ($or, $regex, $gte, $ne,
// $set, $inc) and nothing more.
type MemCollection struct {
	mu   sync.Mutex
	docs []bson.M

	// Err, when set, makes every operation fail with it.
	Err error
}

// NewMemCollection returns an empty in-memory collection.
func NewMemCollection() *MemCollection {
	return &MemCollection{}
}

// Docs returns a deep copy of the stored documents.
func (c *MemCollection) Docs() []bson.M {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]bson.M, 0, len(c.docs))
	for _, d := range c.docs {
		out = append(out, copyDoc(d))
	}
	return out
}

// normalize round-trips a value through bson so structs, maps and
// numbers all land in the same representation the driver would store.
func normalize(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func copyDoc(doc bson.M) bson.M {
	cp, err := normalize(doc)
	if err != nil {
		return bson.M{}
	}
	return cp
}

func (c *MemCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if c.Err != nil {
		return nil, c.Err
	}

	doc, err := normalize(document)
	if err != nil {
		return nil, err
	}
	if _, ok := doc["_id"]; !ok {
		doc["_id"] = primitive.NewObjectID()
	}

	c.mu.Lock()
	c.docs = append(c.docs, doc)
	c.mu.Unlock()

	return &mongo.InsertOneResult{InsertedID: doc["_id"]}, nil
}

func (c *MemCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	if c.Err != nil {
		return nil, c.Err
	}

	matched, err := c.matching(filter)
	if err != nil {
		return nil, err
	}

	var sortSpec interface{}
	var skip, limit int64
	for _, o := range opts {
		if o == nil {
			continue
		}
		if o.Sort != nil {
			sortSpec = o.Sort
		}
		if o.Skip != nil {
			skip = *o.Skip
		}
		if o.Limit != nil {
			limit = *o.Limit
		}
	}

	applySort(matched, sortSpec)

	if skip > 0 {
		if skip >= int64(len(matched)) {
			matched = nil
		} else {
			matched = matched[skip:]
		}
	}
	if limit > 0 && int64(len(matched)) > limit {
		matched = matched[:limit]
	}

	out := make([]interface{}, 0, len(matched))
	for _, d := range matched {
		out = append(out, d)
	}
	return mongo.NewCursorFromDocuments(out, nil, nil)
}

func (c *MemCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	if c.Err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, c.Err, nil)
	}

	matched, err := c.matching(filter)
	if err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
	}
	if len(matched) == 0 {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}

	doc := matched[0]
	for _, o := range opts {
		if o != nil && o.Projection != nil {
			doc = project(doc, o.Projection)
		}
	}
	return mongo.NewSingleResultFromDocument(doc, nil, nil)
}

func (c *MemCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	if c.Err != nil {
		return nil, c.Err
	}

	f, err := normalize(filter)
	if err != nil {
		return nil, err
	}
	u, err := normalize(update)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, doc := range c.docs {
		ok, err := matchFilter(doc, f)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		updated := copyDoc(doc)
		if err := applyUpdate(updated, u); err != nil {
			return nil, err
		}

		modified := int64(0)
		if !reflect.DeepEqual(doc, updated) {
			c.docs[i] = updated
			modified = 1
		}
		return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: modified}, nil
	}
	return &mongo.UpdateResult{}, nil
}

func (c *MemCollection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	if c.Err != nil {
		return nil, c.Err
	}

	f, err := normalize(filter)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, doc := range c.docs {
		ok, err := matchFilter(doc, f)
		if err != nil {
			return nil, err
		}
		if ok {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return &mongo.DeleteResult{DeletedCount: 1}, nil
		}
	}
	return &mongo.DeleteResult{}, nil
}

func (c *MemCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	if c.Err != nil {
		return 0, c.Err
	}

	matched, err := c.matching(filter)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (c *MemCollection) Distinct(ctx context.Context, fieldName string, filter interface{}, opts ...*options.DistinctOptions) ([]interface{}, error) {
	if c.Err != nil {
		return nil, c.Err
	}

	matched, err := c.matching(filter)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var values []interface{}
	for _, doc := range matched {
		v, ok := lookupPath(doc, fieldName)
		if !ok || v == nil {
			continue
		}
		key := fmt.Sprintf("%T:%v", v, v)
		if !seen[key] {
			seen[key] = true
			values = append(values, v)
		}
	}
	return values, nil
}

func (c *MemCollection) matching(filter interface{}) ([]bson.M, error) {
	f := bson.M{}
	if filter != nil {
		var err error
		f, err = normalize(filter)
		if err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var matched []bson.M
	for _, doc := range c.docs {
		ok, err := matchFilter(doc, f)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, copyDoc(doc))
		}
	}
	return matched, nil
}

// matchFilter evaluates the supported filter subset against doc.
func matchFilter(doc bson.M, filter bson.M) (bool, error) {
	for key, cond := range filter {
		if key == "$or" {
			branches, ok := cond.(primitive.A)
			if !ok {
				return false, fmt.Errorf("unsupported $or operand %T", cond)
			}
			anyMatch := false
			for _, b := range branches {
				sub, ok := b.(bson.M)
				if !ok {
					return false, fmt.Errorf("unsupported $or branch %T", b)
				}
				m, err := matchFilter(doc, sub)
				if err != nil {
					return false, err
				}
				if m {
					anyMatch = true
					break
				}
			}
			if !anyMatch {
				return false, nil
			}
			continue
		}

		value, _ := lookupPath(doc, key)

		if ops, ok := cond.(bson.M); ok && hasOperator(ops) {
			m, err := matchOperators(value, ops)
			if err != nil {
				return false, err
			}
			if !m {
				return false, nil
			}
			continue
		}

		if !valuesEqual(value, cond) {
			return false, nil
		}
	}
	return true, nil
}

func hasOperator(m bson.M) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

func matchOperators(value interface{}, ops bson.M) (bool, error) {
	for op, arg := range ops {
		switch op {
		case "$regex":
			pattern, _ := arg.(string)
			if opt, ok := ops["$options"].(string); ok && strings.Contains(opt, "i") {
				pattern = "(?i)" + pattern
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return false, err
			}
			s, ok := value.(string)
			if !ok || !re.MatchString(s) {
				return false, nil
			}
		case "$options":
			// handled with $regex
		case "$gte":
			a, aok := toFloat(value)
			b, bok := toFloat(arg)
			if !aok || !bok || a < b {
				return false, nil
			}
		case "$ne":
			if valuesEqual(value, arg) {
				return false, nil
			}
		case "$nin":
			list, ok := arg.(primitive.A)
			if !ok {
				return false, fmt.Errorf("unsupported $nin operand %T", arg)
			}
			for _, item := range list {
				if valuesEqual(value, item) {
					return false, nil
				}
			}
		default:
			return false, fmt.Errorf("unsupported operator %s", op)
		}
	}
	return true, nil
}

// lookupPath resolves a possibly dotted field path in doc.
func lookupPath(doc bson.M, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var current interface{} = doc
	for _, p := range parts {
		m, ok := current.(bson.M)
		if !ok {
			return nil, false
		}
		current, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func valuesEqual(a, b interface{}) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	if aid, ok := a.(primitive.ObjectID); ok {
		bid, ok := b.(primitive.ObjectID)
		return ok && aid == bid
	}
	return reflect.DeepEqual(a, b)
}

func applyUpdate(doc bson.M, update bson.M) error {
	for op, arg := range update {
		fields, ok := arg.(bson.M)
		if !ok {
			return fmt.Errorf("unsupported update operand %T", arg)
		}
		switch op {
		case "$set":
			for k, v := range fields {
				doc[k] = v
			}
		case "$inc":
			for k, v := range fields {
				delta, ok := toFloat(v)
				if !ok {
					return fmt.Errorf("non-numeric $inc for %s", k)
				}
				current, _ := toFloat(doc[k])
				doc[k] = toSameKind(doc[k], current+delta)
			}
		default:
			return fmt.Errorf("unsupported update operator %s", op)
		}
	}
	return nil
}

// toSameKind keeps integer-typed fields integral after an $inc.
func toSameKind(original interface{}, result float64) interface{} {
	switch original.(type) {
	case int, int32, int64:
		return int64(result)
	default:
		return result
	}
}

func applySort(docs []bson.M, sortSpec interface{}) {
	spec, ok := sortSpec.(bson.D)
	if !ok || len(spec) == 0 {
		return
	}

	sort.SliceStable(docs, func(i, j int) bool {
		for _, field := range spec {
			dir, _ := toFloat(field.Value)
			a, _ := lookupPath(docs[i], field.Key)
			b, _ := lookupPath(docs[j], field.Key)
			cmp := compareValues(a, b)
			if cmp == 0 {
				continue
			}
			if dir < 0 {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareValues(a, b interface{}) int {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs)
		}
	}
	if aid, ok := a.(primitive.ObjectID); ok {
		if bid, ok := b.(primitive.ObjectID); ok {
			return strings.Compare(aid.Hex(), bid.Hex())
		}
	}
	return 0
}

// project applies an include-style projection to doc.
func project(doc bson.M, projection interface{}) bson.M {
	p, err := normalize(projection)
	if err != nil || len(p) == 0 {
		return doc
	}

	out := bson.M{}
	includeID := true
	for field, v := range p {
		f, _ := toFloat(v)
		if field == "_id" {
			includeID = f != 0
			continue
		}
		if f != 0 {
			if val, ok := lookupPath(doc, field); ok {
				out[field] = val
			}
		}
	}
	if includeID {
		if id, ok := doc["_id"]; ok {
			out["_id"] = id
		}
	}
	return out
}
