package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intranet-backend/internal/domains/taxonomy"
	"intranet-backend/internal/domains/taxonomy/model"
	"intranet-backend/internal/domains/taxonomy/service"
	"intranet-backend/internal/infrastructure/strapi"
	"intranet-backend/internal/infrastructure/woocommerce"
)

// End-to-end create flows through the real service and HTTP clients,
// against in-memory Strapi and WooCommerce servers.

type strapiServer struct {
	mu     sync.Mutex
	items  map[string]map[string]any // "collection/documentId"
	nextID int
	v4     bool // answer with {id, attributes} and no documentId
	calls  []string
}

func (s *strapiServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, r.Method+" "+r.URL.Path)
	if r.Header.Get("Authorization") != "Bearer token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/") // api, collection[, key]

	switch {
	case len(parts) == 2 && r.Method == http.MethodPost:
		item := map[string]any{}
		for k, v := range body["data"].(map[string]any) {
			item[k] = v
		}
		doc := fmt.Sprintf("doc%d", s.nextID)
		if s.v4 {
			doc = strconv.Itoa(s.nextID)
			item = map[string]any{"attributes": item}
		} else {
			item["documentId"] = doc
		}
		item["id"] = float64(s.nextID)
		s.items[parts[1]+"/"+doc] = item
		s.nextID++
		_ = json.NewEncoder(w).Encode(map[string]any{"data": item})
	case len(parts) == 2 && r.Method == http.MethodGet:
		list := []map[string]any{}
		for key, item := range s.items {
			if strings.HasPrefix(key, parts[1]+"/") {
				list = append(list, item)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": list})
	case len(parts) == 3:
		key := parts[1] + "/" + parts[2]
		item, ok := s.items[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"data":null,"error":{"status":404,"name":"NotFoundError","message":"Not Found"}}`))
			return
		}
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{"data": item})
		case http.MethodPut:
			target := item
			if attrs, ok := item["attributes"].(map[string]any); ok {
				target = attrs
			}
			for k, v := range body["data"].(map[string]any) {
				target[k] = v
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"data": item})
		case http.MethodDelete:
			delete(s.items, key)
			w.WriteHeader(http.StatusNoContent)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *strapiServer) count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.items {
		if strings.HasPrefix(key, collection+"/") {
			n++
		}
	}
	return n
}

func (s *strapiServer) called(call string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c == call {
			return true
		}
	}
	return false
}

type wooServer struct {
	mu         sync.Mutex
	attributes []map[string]any
	terms      map[int64]map[string]any
	nextTerm   int64
	createFail func(w http.ResponseWriter) bool // writes a failure and returns true
	calls      []string
}

func (s *wooServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	path := strings.TrimPrefix(r.URL.Path, "/wp-json/wc/v3/products/attributes")
	parts := strings.Split(strings.Trim(path, "/"), "/") // "", or id, terms[, termId]

	switch {
	case path == "" && r.Method == http.MethodGet:
		slug := r.URL.Query().Get("slug")
		out := []map[string]any{}
		for _, a := range s.attributes {
			if slug == "" || a["slug"] == slug {
				out = append(out, a)
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	case len(parts) == 2 && parts[1] == "terms" && r.Method == http.MethodPost:
		if s.createFail != nil && s.createFail(w) {
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		term := map[string]any{"id": s.nextTerm, "name": body["name"], "slug": body["slug"]}
		s.terms[s.nextTerm] = term
		s.nextTerm++
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(term)
	case len(parts) == 3 && parts[1] == "terms":
		id, _ := strconv.ParseInt(parts[2], 10, 64)
		term, ok := s.terms[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":"woocommerce_rest_term_invalid","message":"Resource does not exist.","data":{"status":404}}`))
			return
		}
		if r.Method == http.MethodDelete {
			delete(s.terms, id)
		}
		_ = json.NewEncoder(w).Encode(term)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *wooServer) termCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if strings.Contains(c, "/terms") {
			n++
		}
	}
	return n
}

type scenario struct {
	strapi *strapiServer
	woo    *wooServer
	router *gin.Engine
}

func newScenario(t *testing.T, attributes ...map[string]any) *scenario {
	t.Helper()
	sc := &scenario{
		strapi: &strapiServer{items: map[string]map[string]any{}, nextID: 1},
		woo:    &wooServer{attributes: attributes, terms: map[int64]map[string]any{}, nextTerm: 100},
	}
	strapiSrv := httptest.NewServer(sc.strapi)
	wooSrv := httptest.NewServer(sc.woo)
	t.Cleanup(strapiSrv.Close)
	t.Cleanup(wooSrv.Close)

	records := strapi.NewClient(strapi.Config{BaseURL: strapiSrv.URL, Token: "token"})
	store := woocommerce.NewClient(woocommerce.StoreConfig{
		Platform:       model.PlatformMoraleja,
		BaseURL:        wooSrv.URL,
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
	})
	coupons := map[string]taxonomy.CouponStore{model.PlatformMoraleja: store}
	svc := service.NewTaxonomyService(records, store, model.PlatformMoraleja, coupons, nil, nil)

	sc.router = newRouter(svc)
	return sc
}

func attribute(id int64, name, slug string) map[string]any {
	return map[string]any{"id": id, "name": name, "slug": slug}
}

type createData struct {
	Record  model.TaxonomyRecord `json:"record"`
	Derived *model.DerivedTerm   `json:"derived"`
	State   model.RunState       `json:"state"`
}

func TestScenario_BrandCreateLinksSlugToDocumentID(t *testing.T) {
	sc := newScenario(t, attribute(5, "Marca", "pa_marca"))

	w, env := perform(t, sc.router, http.MethodPost, "/api/v1/taxonomies/marcas",
		jsonBody(map[string]any{"data": map[string]any{"nombre_marca": "Acme"}}), "application/json")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data createData
	require.NoError(t, json.Unmarshal(env.Data, &data))

	assert.Equal(t, "doc1", data.Record.LinkingKey)
	require.NotNil(t, data.Derived)
	assert.Equal(t, data.Record.LinkingKey, data.Derived.Slug)
	assert.Equal(t, "Acme", data.Derived.Name)
	assert.Equal(t, model.RunLinked, data.State)

	// link-back stored the term id on the record
	sc.strapi.mu.Lock()
	assert.Equal(t, float64(100), sc.strapi.items["marcas/doc1"]["woocommerce_id"])
	sc.strapi.mu.Unlock()
}

func TestScenario_MissingNameMakesNoCalls(t *testing.T) {
	sc := newScenario(t, attribute(6, "Sello", "pa_sello"))

	w, env := perform(t, sc.router, http.MethodPost, "/api/v1/taxonomies/sellos",
		jsonBody(map[string]any{"data": map[string]any{"nombre_sello": "  "}}), "application/json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "El nombre del sello es obligatorio", env.Error)
	assert.Empty(t, sc.strapi.calls)
	assert.Empty(t, sc.woo.calls)
}

func TestScenario_TermFailureCompensatesRecord(t *testing.T) {
	sc := newScenario(t, attribute(5, "Marca", "pa_marca"))
	sc.woo.createFail = func(w http.ResponseWriter) bool {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"internal_error","message":"Error de base de datos","data":{"status":500}}`))
		return true
	}

	w, env := perform(t, sc.router, http.MethodPost, "/api/v1/taxonomies/brand",
		jsonBody(map[string]any{"data": map[string]any{"name": "Acme"}}), "application/json")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Error al crear en WooCommerce: Error de base de datos", env.Error)
	assert.Equal(t, true, env.Details["compensated"])
	assert.Equal(t, 0, sc.strapi.count("marcas"))
	assert.True(t, sc.strapi.called("DELETE /api/marcas/doc1"))
}

func TestScenario_TermExistsRecovers(t *testing.T) {
	sc := newScenario(t, attribute(9, "Etiqueta", "pa_etiqueta"))
	sc.woo.terms[77] = map[string]any{"id": 77, "name": "Clásicos", "slug": "doc1"}
	sc.woo.createFail = func(w http.ResponseWriter) bool {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"term_exists","message":"A term with the name provided already exists.","data":{"status":400,"resource_id":77}}`))
		return true
	}

	w, env := perform(t, sc.router, http.MethodPost, "/api/v1/taxonomies/tags",
		jsonBody(map[string]any{"data": map[string]any{"name": "Clásicos"}}), "application/json")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data createData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotNil(t, data.Derived)
	assert.Equal(t, int64(77), data.Derived.DerivedID)
	assert.Equal(t, 1, sc.strapi.count("etiquetas"))
	if env.Meta != nil {
		assert.Empty(t, env.Meta.Warnings)
	}
}

func TestScenario_MissingAttributeCompensatesRecord(t *testing.T) {
	sc := newScenario(t, attribute(5, "Marca", "pa_marca"))

	w, env := perform(t, sc.router, http.MethodPost, "/api/v1/taxonomies/serie-coleccion",
		jsonBody(map[string]any{"data": map[string]any{"nombre_coleccion": "Clásicos juveniles"}}), "application/json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, model.ErrCodeConfiguration, env.Code)
	assert.Contains(t, env.Error, `No se encontró el atributo "pa_serie_coleccion"`)
	assert.True(t, sc.strapi.called("POST /api/colecciones"))
	assert.True(t, sc.strapi.called("DELETE /api/colecciones/doc1"))
	assert.Equal(t, 0, sc.strapi.count("colecciones"))
	assert.Zero(t, sc.woo.termCalls())
}

func TestScenario_V4RecordIsKeyedByID(t *testing.T) {
	sc := newScenario(t, attribute(5, "Marca", "pa_marca"))
	sc.strapi.v4 = true

	w, env := perform(t, sc.router, http.MethodPost, "/api/v1/taxonomies/marcas",
		jsonBody(map[string]any{"data": map[string]any{"nombre_marca": "Acme"}}), "application/json")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data createData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "1", data.Record.LinkingKey)
	require.NotNil(t, data.Derived)
	assert.Equal(t, "1", data.Derived.Slug)
	assert.True(t, sc.strapi.called("PUT /api/marcas/1"))
}

func TestScenario_V4RecordIsCompensatedOnTermFailure(t *testing.T) {
	sc := newScenario(t, attribute(5, "Marca", "pa_marca"))
	sc.strapi.v4 = true
	sc.woo.createFail = func(w http.ResponseWriter) bool {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"internal_error","message":"Error de base de datos","data":{"status":500}}`))
		return true
	}

	w, env := perform(t, sc.router, http.MethodPost, "/api/v1/taxonomies/marcas",
		jsonBody(map[string]any{"data": map[string]any{"nombre_marca": "Acme"}}), "application/json")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, true, env.Details["compensated"])
	assert.True(t, sc.strapi.called("DELETE /api/marcas/1"))
	assert.Equal(t, 0, sc.strapi.count("marcas"))
}
