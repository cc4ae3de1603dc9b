package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mxpv/ytlink/pkg/link"
	"github.com/mxpv/ytlink/pkg/model"
)

type resolver interface {
	Resolve(ctx context.Context, rawLink string) (*model.Video, error)
	Convert(ctx context.Context, rawLink string, to link.Variant) (string, *model.Video, error)
	Get(ctx context.Context, code string) (*model.Video, error)
	List(ctx context.Context) ([]*model.Video, error)
	Delete(ctx context.Context, code string) error
}

type Server struct {
	http.Server
}

func New(cfg Config, resolver resolver) *Server {
	port := cfg.Port
	if port == 0 {
		port = model.DefaultServerPort
	}

	bindAddress := cfg.BindAddress
	if bindAddress == "*" {
		bindAddress = ""
	}

	srv := Server{}

	srv.Addr = fmt.Sprintf("%s:%d", bindAddress, port)
	log.Debugf("using address: %s", srv.Addr)

	srv.Handler = MakeHandlers(resolver, cfg)
	srv.ReadHeaderTimeout = 10 * time.Second

	return &srv
}

func MakeHandlers(resolver resolver, cfg Config) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	prefix := "/"
	if cfg.Path != "" {
		prefix = fmt.Sprintf("/%s/", cfg.Path)
	}

	log.Debugf("handle path: %s", prefix)
	api := r.Group(prefix + "api")

	// Absolute link to a stored video, e.g. http://localhost:8080/api/video/rbCbho7aLYw
	videoURL := func(code string) string {
		return strings.TrimSuffix(cfg.Hostname, "/") + prefix + "api/video/" + url.PathEscape(code)
	}

	api.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api.GET("/code", func(c *gin.Context) {
		video, err := resolver.Resolve(c.Request.Context(), c.Query("link"))
		if err != nil {
			c.JSON(toResponse(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"code": video.Code, "variant": video.Variant, "url": videoURL(video.Code)})
	})

	api.GET("/convert/:variant", func(c *gin.Context) {
		variant, err := link.ParseVariant(c.Param("variant"))
		if err != nil {
			c.JSON(badRequest(err))
			return
		}

		out, video, err := resolver.Convert(c.Request.Context(), c.Query("link"), variant)
		if err != nil {
			c.JSON(toResponse(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"code": video.Code, "link": out, "url": videoURL(video.Code)})
	})

	api.GET("/videos", func(c *gin.Context) {
		videos, err := resolver.List(c.Request.Context())
		if err != nil {
			c.JSON(internalError(err))
			return
		}

		if videos == nil {
			videos = []*model.Video{}
		}

		c.JSON(http.StatusOK, videos)
	})

	api.GET("/video/:code", func(c *gin.Context) {
		video, err := resolver.Get(c.Request.Context(), c.Param("code"))
		if err != nil {
			c.JSON(toResponse(err))
			return
		}

		c.JSON(http.StatusOK, video)
	})

	api.DELETE("/video/:code", func(c *gin.Context) {
		if err := resolver.Delete(c.Request.Context(), c.Param("code")); err != nil {
			c.JSON(toResponse(err))
			return
		}

		c.Status(http.StatusNoContent)
	})

	return r
}

func toResponse(err error) (int, interface{}) {
	switch {
	case errors.Is(err, model.ErrUnsupportedLink), errors.Is(err, model.ErrNotFound):
		return notFound(err)
	case errors.Is(err, link.ErrMalformedLink), errors.Is(err, link.ErrUnknownVariant):
		return badRequest(err)
	default:
		log.WithError(err).Error("request failed")
		return internalError(err)
	}
}

func badRequest(err error) (int, interface{}) {
	return http.StatusBadRequest, gin.H{"error": err.Error()}
}

func notFound(err error) (int, interface{}) {
	return http.StatusNotFound, gin.H{"error": err.Error()}
}

func internalError(err error) (int, interface{}) {
	return http.StatusInternalServerError, gin.H{"error": err.Error()}
}
