package devapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jask/adminpanel/internal/database/repository"
	"github.com/jask/adminpanel/internal/fetch"
	"github.com/jask/adminpanel/internal/query"
)

const maxPerPage = 100

type listResponse struct {
	Items []repository.Record `json:"items"`
	Meta  fetch.Meta          `json:"meta"`
}

// GET /<table>?search=&sort=col:dir&page=&per_page=&<filter>=
func (s *Server) list(t repository.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, ok := positive(c, query.ParamPage, 1)
		if !ok {
			return
		}
		perPage, ok := positive(c, query.ParamPerPage, query.DefaultPageSize)
		if !ok {
			return
		}
		perPage = min(perPage, maxPerPage)

		q := repository.ListQuery{
			Search:  c.Query(query.ParamSearch),
			Sort:    query.DecodeSort(c.Query(query.ParamSort)),
			Page:    page,
			PerPage: perPage,
			Filters: map[string]string{},
		}
		for _, f := range t.Fields {
			if f.Filter == "" {
				continue
			}
			if v := c.Query(f.Name); v != "" {
				q.Filters[f.Name] = v
			}
		}

		items, total, err := s.store.List(c.Request.Context(), t, q)
		if err != nil {
			s.respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, listResponse{
			Items: items,
			Meta: fetch.Meta{
				TotalPages:  (total + perPage - 1) / perPage,
				TotalItems:  total,
				CurrentPage: page,
				PerPage:     perPage,
			},
		})
	}
}

func positive(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		respondError(c, http.StatusBadRequest, "invalid_query", key+" must be a positive integer")
		return 0, false
	}
	return n, true
}

func (s *Server) get(t repository.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := s.store.Get(c.Request.Context(), t, c.Param("id"))
		if err != nil {
			s.respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func (s *Server) create(t repository.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body repository.Record
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, "invalid_payload", "invalid payload")
			return
		}
		rec, err := s.store.Insert(c.Request.Context(), t, body)
		if err != nil {
			s.respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rec)
	}
}

func (s *Server) update(t repository.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body repository.Record
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, "invalid_payload", "invalid payload")
			return
		}
		rec, err := s.store.Update(c.Request.Context(), t, c.Param("id"), body)
		if err != nil {
			s.respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func (s *Server) remove(t repository.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.store.Delete(c.Request.Context(), t, c.Param("id")); err != nil {
			s.respondStoreError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
