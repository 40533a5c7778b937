package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tourify/database/query"
	"tourify/database/repository"
	"tourify/models"
	"tourify/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memReviews is an in-memory Collection used to exercise the factory without
// a database.
type memReviews struct {
	docs     map[string]models.Review
	order    []string
	lastOpts *query.Options
}

func newMemReviews(docs ...models.Review) *memReviews {
	m := &memReviews{docs: map[string]models.Review{}}
	for _, d := range docs {
		m.docs[d.ID] = d
		m.order = append(m.order, d.ID)
	}
	return m
}

func (m *memReviews) Find(ctx context.Context, opts *query.Options) ([]models.Review, error) {
	m.lastOpts = opts
	out := []models.Review{}
	for _, id := range m.order {
		doc := m.docs[id]
		if tour, ok := opts.Filter["tour"].(string); ok && doc.Tour != tour {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func (m *memReviews) GetByID(ctx context.Context, id string) (*models.Review, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &doc, nil
}

func (m *memReviews) Create(ctx context.Context, doc *models.Review) error {
	doc.SetID("generated-id")
	m.docs[doc.ID] = *doc
	m.order = append(m.order, doc.ID)
	return nil
}

func (m *memReviews) UpdateByID(ctx context.Context, id string, patch bson.M) (*models.Review, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if text, ok := patch["review"].(string); ok {
		doc.Review = text
	}
	if rating, ok := patch["rating"]; ok {
		switch v := rating.(type) {
		case int:
			doc.Rating = v
		case int32:
			doc.Rating = int(v)
		case int64:
			doc.Rating = int(v)
		}
	}
	m.docs[id] = doc
	return &doc, nil
}

func (m *memReviews) DeleteByID(ctx context.Context, id string) error {
	if _, ok := m.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *memReviews) Aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	return nil
}

func newFactoryRouter(f *Factory[models.Review, models.ReviewUpdate]) *gin.Engine {
	r := gin.New()
	r.Use(utils.ErrorHandler())
	r.GET("/reviews", f.GetAll)
	r.GET("/reviews/:id", f.GetOne)
	r.POST("/reviews", f.CreateOne)
	r.PATCH("/reviews/:id", f.UpdateOne)
	r.DELETE("/reviews/:id", f.DeleteOne)
	return r
}

func perform(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func seedReview(id, tour, text string, rating int) models.Review {
	rev := models.Review{Review: text, Rating: rating, Tour: tour, User: "user-1"}
	rev.ID = id
	return rev
}

func TestFactoryGetAll(t *testing.T) {
	coll := newMemReviews(
		seedReview("r1", "t1", "Great trip", 5),
		seedReview("r2", "t2", "Decent", 3),
	)
	f := &Factory[models.Review, models.ReviewUpdate]{Coll: coll, Name: "review"}
	r := newFactoryRouter(f)

	w := perform(r, http.MethodGet, "/reviews", "")
	assert.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(2), body["results"])
}

func TestFactoryGetAllEmptyIsSuccess(t *testing.T) {
	f := &Factory[models.Review, models.ReviewUpdate]{Coll: newMemReviews(), Name: "review"}
	r := newFactoryRouter(f)

	w := perform(r, http.MethodGet, "/reviews", "")
	assert.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(0), body["results"])
	assert.NotNil(t, body["data"])
}

func TestFactoryScopeCannotBeEscaped(t *testing.T) {
	coll := newMemReviews(
		seedReview("r1", "t1", "Great trip", 5),
		seedReview("r2", "t2", "Decent", 3),
	)
	f := &Factory[models.Review, models.ReviewUpdate]{
		Coll: coll,
		Name: "review",
		Scope: func(c *gin.Context) bson.M {
			return bson.M{"tour": "t1"}
		},
	}
	r := newFactoryRouter(f)

	w := perform(r, http.MethodGet, "/reviews?tour=t2", "")
	assert.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(1), body["results"])
	assert.Equal(t, "t1", coll.lastOpts.Filter["tour"])
}

func TestFactoryGetOneNotFound(t *testing.T) {
	f := &Factory[models.Review, models.ReviewUpdate]{Coll: newMemReviews(), Name: "review"}
	r := newFactoryRouter(f)

	w := perform(r, http.MethodGet, "/reviews/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	body := decode(t, w)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "No review found with that ID", body["message"])
}

func TestFactoryCreateOne(t *testing.T) {
	coll := newMemReviews()
	f := &Factory[models.Review, models.ReviewUpdate]{Coll: coll, Name: "review"}
	r := newFactoryRouter(f)

	w := perform(r, http.MethodPost, "/reviews", `{"review":"Wonderful guides","rating":5,"tour":"t1","user":"u1"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "generated-id", data["id"])
}

func TestFactoryCreateOneRejectsInvalidPayload(t *testing.T) {
	f := &Factory[models.Review, models.ReviewUpdate]{Coll: newMemReviews(), Name: "review"}
	r := newFactoryRouter(f)

	// rating outside 1..5 fails validation before any write.
	w := perform(r, http.MethodPost, "/reviews", `{"review":"Too good","rating":9}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := decode(t, w)
	assert.Equal(t, "fail", body["status"])
}

func TestFactoryUpdateOne(t *testing.T) {
	coll := newMemReviews(seedReview("r1", "t1", "Fine", 3))
	f := &Factory[models.Review, models.ReviewUpdate]{Coll: coll, Name: "review"}
	r := newFactoryRouter(f)

	w := perform(r, http.MethodPatch, "/reviews/r1", `{"rating":5}`)
	assert.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(5), data["rating"])
	assert.Equal(t, "Fine", data["review"])
}

func TestFactoryUpdateOneEmptyPatch(t *testing.T) {
	coll := newMemReviews(seedReview("r1", "t1", "Fine", 3))
	f := &Factory[models.Review, models.ReviewUpdate]{Coll: coll, Name: "review"}
	r := newFactoryRouter(f)

	w := perform(r, http.MethodPatch, "/reviews/r1", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := decode(t, w)
	assert.Equal(t, "No updatable fields provided", body["message"])
}

func TestFactoryDeleteOne(t *testing.T) {
	coll := newMemReviews(seedReview("r1", "t1", "Fine", 3))
	f := &Factory[models.Review, models.ReviewUpdate]{Coll: coll, Name: "review"}
	r := newFactoryRouter(f)

	w := perform(r, http.MethodDelete, "/reviews/r1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = perform(r, http.MethodDelete, "/reviews/r1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
