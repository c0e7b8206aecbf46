package crud

import (
	"errors"

	"github.com/dkang/foodlane-backend/internal/response"
	"github.com/dkang/foodlane-backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Operation names the verbs the dispatcher understands.
type Operation string

const (
	OpCreate  Operation = "create"
	OpRead    Operation = "read"
	OpReadOne Operation = "readOne"
	OpUpdate  Operation = "update"
	OpDelete  Operation = "delete"
)

// Options configures a single dispatch. All fields are optional; a nil
// Filter matches every document.
type Options struct {
	// Entity names the record kind in response messages ("food",
	// "order"). Empty means the generic "record".
	Entity string

	Filter interface{}

	// Sort and Limit apply to read.
	Sort  bson.D
	Limit int64

	// Page activates pagination for read.
	Page PageRequest

	// Projection applies to readOne only.
	Projection interface{}
}

func (o Options) entity() string {
	if o.Entity == "" {
		return "record"
	}
	return o.Entity
}

func (o Options) filter() interface{} {
	if o.Filter == nil {
		return bson.M{}
	}
	return o.Filter
}

// Dispatch executes one operation against col and writes the response
// envelope exactly once, on every path including store failures.
func Dispatch(c *gin.Context, op Operation, col Collection, payload interface{}, opts Options) {
	switch op {
	case OpCreate:
		dispatchCreate(c, col, payload, opts)
	case OpRead:
		dispatchRead(c, col, opts)
	case OpReadOne:
		dispatchReadOne(c, col, opts)
	case OpUpdate:
		dispatchUpdate(c, col, payload, opts)
	case OpDelete:
		dispatchDelete(c, col, opts)
	default:
		logger.Warn("Unrecognized CRUD operation", map[string]interface{}{
			"operation": string(op),
			"entity":    opts.entity(),
		})
		response.BadRequest(c, "Unrecognized operation")
	}
}

func dispatchCreate(c *gin.Context, col Collection, payload interface{}, opts Options) {
	res, err := col.InsertOne(c.Request.Context(), payload)
	if err != nil {
		logger.Error("Failed to insert document", err, map[string]interface{}{
			"entity": opts.entity(),
		})
		response.InternalError(c, "Failed to create "+opts.entity())
		return
	}
	if res.InsertedID == nil {
		response.BadRequest(c, "Could not create "+opts.entity())
		return
	}

	response.Created(c, opts.entity()+" created successfully", gin.H{
		"insertedId": res.InsertedID,
	})
}

func dispatchRead(c *gin.Context, col Collection, opts Options) {
	ctx := c.Request.Context()

	var (
		items []bson.M
		info  *PageInfo
		err   error
	)
	if opts.Page.active() {
		items, info, err = Paginate(ctx, col, opts.filter(), opts.Sort, opts.Page)
	} else {
		findOpts := options.Find()
		if opts.Sort != nil {
			findOpts.SetSort(opts.Sort)
		} else {
			findOpts.SetSort(defaultSort)
		}
		if opts.Limit > 0 {
			findOpts.SetLimit(opts.Limit)
		}

		var cur *mongo.Cursor
		cur, err = col.Find(ctx, opts.filter(), findOpts)
		if err == nil {
			defer cur.Close(ctx)
			err = cur.All(ctx, &items)
		}
	}
	if err != nil {
		logger.Error("Failed to read documents", err, map[string]interface{}{
			"entity": opts.entity(),
		})
		response.InternalError(c, "Failed to fetch "+opts.entity()+" records")
		return
	}

	if len(items) == 0 {
		response.NotFound(c, "No matching "+opts.entity()+" found")
		return
	}

	if info != nil {
		response.OK(c, "", gin.H{"items": items, "pageInfo": info})
		return
	}
	response.OK(c, "", items)
}

func dispatchReadOne(c *gin.Context, col Collection, opts Options) {
	findOpts := options.FindOne()
	if opts.Projection != nil {
		findOpts.SetProjection(opts.Projection)
	}

	var doc bson.M
	err := col.FindOne(c.Request.Context(), opts.filter(), findOpts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			response.NotFound(c, opts.entity()+" not found")
			return
		}
		logger.Error("Failed to read document", err, map[string]interface{}{
			"entity": opts.entity(),
		})
		response.InternalError(c, "Failed to fetch "+opts.entity())
		return
	}

	response.OK(c, "", doc)
}

func dispatchUpdate(c *gin.Context, col Collection, payload interface{}, opts Options) {
	doc := stripID(payload)
	if len(doc) == 0 {
		response.BadRequest(c, "Nothing to update")
		return
	}

	res, err := col.UpdateOne(c.Request.Context(), opts.filter(), bson.M{"$set": doc})
	if err != nil {
		logger.Error("Failed to update document", err, map[string]interface{}{
			"entity": opts.entity(),
		})
		response.InternalError(c, "Failed to update "+opts.entity())
		return
	}
	if res.ModifiedCount == 0 {
		response.NotFound(c, opts.entity()+" not found")
		return
	}

	response.OK(c, opts.entity()+" updated successfully", gin.H{
		"modifiedCount": res.ModifiedCount,
	})
}

func dispatchDelete(c *gin.Context, col Collection, opts Options) {
	res, err := col.DeleteOne(c.Request.Context(), opts.filter())
	if err != nil {
		logger.Error("Failed to delete document", err, map[string]interface{}{
			"entity": opts.entity(),
		})
		response.InternalError(c, "Failed to delete "+opts.entity())
		return
	}
	if res.DeletedCount == 0 {
		response.NotFound(c, opts.entity()+" not found")
		return
	}

	response.OK(c, opts.entity()+" deleted successfully", gin.H{
		"deletedCount": res.DeletedCount,
	})
}

// stripID copies a map payload without its identifier field, which is
// never writable through update.
func stripID(payload interface{}) bson.M {
	var src map[string]interface{}
	switch p := payload.(type) {
	case bson.M:
		src = p
	case map[string]interface{}:
		src = p
	default:
		return nil
	}

	doc := bson.M{}
	for k, v := range src {
		if k == "_id" || k == "id" {
			continue
		}
		doc[k] = v
	}
	return doc
}
