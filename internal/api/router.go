package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/LJTian/RedTrend/internal/converter"
	"github.com/LJTian/RedTrend/internal/hackernews"
	"github.com/LJTian/RedTrend/internal/pipeline"
	"github.com/gin-gonic/gin"
)

// Service 是展示层消费的读接口，由 pipeline.Pipeline 实现
type Service interface {
	ListPage(ctx context.Context, count, offset int) ([]pipeline.Summary, error)
	GetPost(ctx context.Context, id int) (converter.Post, error)
	Regenerate(ctx context.Context, id int) (converter.Post, error)
	RefreshCatalog(ctx context.Context) ([]int, error)
}

type Server struct {
	svc       Service
	adminUser string
	adminPass string
}

func NewServer(svc Service, adminUser, adminPass string) *Server {
	return &Server{svc: svc, adminUser: adminUser, adminPass: adminPass}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/posts", s.listPosts)
		v1.GET("/posts/:id", s.getPost)

		admin := v1.Group("/")
		if s.adminUser != "" && s.adminPass != "" {
			admin.Use(basicAuthMiddleware(s.adminUser, s.adminPass))
		}
		admin.POST("/posts/:id/regenerate", s.regenerate)
		admin.POST("/catalog/refresh", s.refreshCatalog)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listPosts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 10
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	items, err := s.svc.ListPage(c.Request.Context(), limit, offset)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    items,
	})
}

func (s *Server) getPost(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	post, err := s.svc.GetPost(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    post,
	})
}

func (s *Server) regenerate(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	post, err := s.svc.Regenerate(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "regenerated",
		"data":    post,
	})
}

func (s *Server) refreshCatalog(c *gin.Context) {
	ids, err := s.svc.RefreshCatalog(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "catalog refreshed",
		"data":    gin.H{"count": len(ids)},
	})
}

func (s *Server) pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "bad_request",
			"message": "invalid id",
		})
		return 0, false
	}
	return id, true
}

// fail 把错误分类映射为 HTTP 状态；细节只进日志，不回给终端用户
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pipeline.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_found",
			"message": "post not found",
		})
	case errors.Is(err, hackernews.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    "upstream_unavailable",
			"message": "upstream unavailable",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
	}
}

// basicAuthMiddleware 为管理接口加一层简单的访问密码
func basicAuthMiddleware(user, pass string) gin.HandlerFunc {
	uBytes := []byte(user)
	pBytes := []byte(pass)

	return func(c *gin.Context) {
		u, p, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), uBytes) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), pBytes) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="Restricted"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
