package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"

	"github.com/opentoolhub/search-agent/internal/api/middleware"
	"github.com/opentoolhub/search-agent/internal/models"
)

func RegisterRoutes(container *restful.Container, handler *Handler, searchFilters ...restful.FilterFunction) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	ws.
		Route(ws.GET("/health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	searchGET := ws.GET("/search").
		To(handler.Search).
		Doc("Search for tool recommendations").
		Metadata(restfulspec.KeyOpenAPITags, []string{"search"}).
		Param(ws.QueryParameter("query", "Free-text description of the software need").DataType("string")).
		Param(ws.QueryParameter("language", "Requester UI language (zh or en); both languages are always generated").DataType("string").Required(false)).
		Param(ws.QueryParameter("type", "search (default) or recommend").DataType("string").Required(false)).
		Writes(models.SearchResponse{}).
		Returns(200, "OK", models.SearchResponse{}).
		Returns(400, "Bad Request", middleware.ErrorResponse{}).
		Returns(429, "Too Many Requests", middleware.ErrorResponse{}).
		Returns(500, "Internal Server Error", middleware.ErrorResponse{})

	searchPOST := ws.POST("/search").
		To(handler.Search).
		Doc("Search for tool recommendations").
		Metadata(restfulspec.KeyOpenAPITags, []string{"search"}).
		Param(ws.QueryParameter("type", "search (default) or recommend").DataType("string").Required(false)).
		Reads(searchRequest{}).
		Writes(models.SearchResponse{}).
		Returns(200, "OK", models.SearchResponse{}).
		Returns(400, "Bad Request", middleware.ErrorResponse{}).
		Returns(429, "Too Many Requests", middleware.ErrorResponse{}).
		Returns(500, "Internal Server Error", middleware.ErrorResponse{})

	for _, f := range searchFilters {
		searchGET = searchGET.Filter(f)
		searchPOST = searchPOST.Filter(f)
	}

	ws.Route(searchGET)
	ws.Route(searchPOST)

	container.Add(ws)
}
