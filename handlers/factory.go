package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"tourify/database/query"
	"tourify/database/repository"
	"tourify/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Factory builds the uniform CRUD handlers for one entity kind. T is the
// stored document, U the partial-update payload with its own validation
// tags. Supplying a model and a repository is all a new entity kind needs;
// the control logic here is never duplicated.
type Factory[T any, U any] struct {
	Coll repository.Collection[T]

	// Name appears in error messages, e.g. "tour".
	Name string

	// Scope, when set, merges a preset filter under the caller's query so a
	// nested route ("reviews of tour X") cannot be escaped.
	Scope func(c *gin.Context) bson.M

	// Sanitize, when set, adjusts a bound document before create (derived
	// field resets, slugs).
	Sanitize func(c *gin.Context, doc *T)

	// PatchHook, when set, adjusts the update patch before the write.
	PatchHook func(patch bson.M)

	// Lookup, when set, appends expansion stages to single-document reads
	// (the related-entity populate directive).
	Lookup mongo.Pipeline
}

// GetAll lists entities matching the merged scope and query parameters.
// An empty result set is success, not error.
func (f *Factory[T, U]) GetAll(c *gin.Context) {
	opts := query.Parse(c.Request.URL.Query())
	if f.Scope != nil {
		opts.Merge(f.Scope(c))
	}

	docs, err := f.Coll.Find(c.Request.Context(), opts)
	if err != nil {
		f.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(docs),
		"data":    docs,
	})
}

// GetOne fetches a single entity by id, expanding related entities when the
// factory carries a lookup directive.
func (f *Factory[T, U]) GetOne(c *gin.Context) {
	id := c.Param("id")

	var doc *T
	if len(f.Lookup) > 0 {
		pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.M{"id": id}}}}
		pipeline = append(pipeline, f.Lookup...)

		var docs []T
		if err := f.Coll.Aggregate(c.Request.Context(), pipeline, &docs); err != nil {
			f.fail(c, err)
			return
		}
		if len(docs) == 0 {
			f.fail(c, repository.ErrNotFound)
			return
		}
		doc = &docs[0]
	} else {
		var err error
		doc, err = f.Coll.GetByID(c.Request.Context(), id)
		if err != nil {
			f.fail(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": doc})
}

// CreateOne validates the payload and persists it with a server-assigned id
// and timestamps.
func (f *Factory[T, U]) CreateOne(c *gin.Context) {
	var doc T
	if err := c.ShouldBindJSON(&doc); err != nil {
		utils.Fail(c, utils.BadRequest(err.Error()))
		return
	}
	if f.Sanitize != nil {
		f.Sanitize(c, &doc)
	}

	if err := f.Coll.Create(c.Request.Context(), &doc); err != nil {
		f.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": doc})
}

// UpdateOne applies a validated partial payload. Immutable fields (id,
// derived aggregates) never reach the write.
func (f *Factory[T, U]) UpdateOne(c *gin.Context) {
	var upd U
	if err := c.ShouldBindJSON(&upd); err != nil {
		utils.Fail(c, utils.BadRequest(err.Error()))
		return
	}

	patch, err := repository.Patch(upd)
	if err != nil {
		f.fail(c, err)
		return
	}
	if f.PatchHook != nil {
		f.PatchHook(patch)
	}
	if len(patch) == 0 {
		utils.Fail(c, utils.BadRequest("No updatable fields provided"))
		return
	}

	doc, err := f.Coll.UpdateByID(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		f.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": doc})
}

// DeleteOne removes an entity and returns no content.
func (f *Factory[T, U]) DeleteOne(c *gin.Context) {
	if err := f.Coll.DeleteByID(c.Request.Context(), c.Param("id")); err != nil {
		f.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// fail classifies repository errors into the shared error contract and
// hands them to the boundary handler.
func (f *Factory[T, U]) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.Fail(c, utils.NotFound(fmt.Sprintf("No %s found with that ID", f.Name)))
	case errors.Is(err, repository.ErrDuplicateKey):
		utils.Fail(c, utils.Conflict("Duplicate field value: please use another value"))
	default:
		utils.Fail(c, err)
	}
}
