package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/psds-microservice/search-facade/api"
	"github.com/psds-microservice/search-facade/internal/handler"
	"github.com/psds-microservice/search-facade/internal/metrics"
	"github.com/psds-microservice/search-facade/internal/middleware"
	"github.com/psds-microservice/search-facade/internal/service"
	"github.com/psds-microservice/search-facade/internal/validator"
)

const (
	PathHealth  = "/health"
	PathReady   = "/ready"
	PathSwagger = "/swagger"
	pathMetrics = "/metrics"
)

type Options struct {
	Logger *zap.Logger
	// Metrics is optional; without it no request metrics are recorded and /metrics is not served.
	Metrics     *metrics.Metrics
	MetricsPath string
}

func New(svc *service.Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	v := validator.New()

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(logger), middleware.Recovery(logger))
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
		path := opts.MetricsPath
		if path == "" {
			path = pathMetrics
		}
		r.GET(path, gin.WrapH(opts.Metrics.Handler()))
	}

	health := handler.NewHealthHandler(svc)
	r.GET(PathHealth, health.Health)
	r.GET(PathReady, health.Ready)
	r.GET(PathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, PathSwagger+"/") })
	r.GET(PathSwagger+"/*any", swagger)

	rest := r.Group("/api")

	index := handler.NewIndexHandler(svc, v)
	rest.DELETE("/index", index.DeleteFirst)
	rest.GET("/index/:scheme", index.Recreate)
	rest.POST("/index/:scheme", index.Index)
	rest.PUT("/index/:scheme", index.Replace)
	rest.PATCH("/index/:scheme", index.Merge)
	rest.DELETE("/index/:scheme", index.Drop)
	rest.GET("/index/:scheme/mapping", index.Mapping)
	rest.GET("/index/:scheme/:id", index.Get)
	rest.DELETE("/index/:scheme/:id", index.Delete)

	bulk := handler.NewBulkHandler(svc, v)
	rest.POST("/bulkoperation", bulk.Bulk)
	rest.DELETE("/bulkoperation", bulk.DeleteDemo)
	rest.POST("/bulkoperation/bulkInsert", bulk.Insert)
	rest.GET("/bulkoperation/bulkUpdate", bulk.Rename)
	rest.POST("/bulkoperation/bulkAll", bulk.All)
	rest.POST("/bulkoperation/multiDoc", bulk.MultiDoc)
	rest.POST("/bulkoperation/mulitDoc", bulk.MultiDoc)

	search := handler.NewSearchHandler(svc, v)
	rest.GET("/search", search.All)
	rest.GET("/search/test", search.Test)
	rest.POST("/search/sort", search.Sort)
	rest.POST("/search/pagination", search.Pagination)
	rest.POST("/search/records", search.Records)
	rest.GET("/search/order/:orderId", search.Order)

	q := handler.NewQueryHandler(svc)
	rest.POST("/query", q.Query)
	rest.GET("/query/structured", q.Structured)
	rest.GET("/query/unstructured", q.Unstructured)
	rest.GET("/query/unstructurednested", q.UnstructuredNested)
	rest.GET("/query/compound", q.Compound)

	agg := handler.NewAggregationHandler(svc, v)
	rest.GET("/aggregation/bucket/matrix", agg.Matrix)
	rest.GET("/aggregation/bucket/autodatehistogram/:bucketSize", agg.AutoDateHistogram)

	return r
}

var swaggerUI = ginSwagger.WrapHandler(swaggerFiles.Handler,
	ginSwagger.URL(PathSwagger+"/openapi.json"),
	ginSwagger.DeepLinking(true),
	ginSwagger.DocExpansion("list"),
)

func swagger(c *gin.Context) {
	switch strings.TrimPrefix(c.Param("any"), "/") {
	case "openapi.json":
		c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
		return
	case "":
		c.Request.URL.Path = PathSwagger + "/index.html"
		c.Request.RequestURI = PathSwagger + "/index.html"
	}
	swaggerUI(c)
}
