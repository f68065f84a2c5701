package controllers

import (
	"net/http"

	"github.com/qyve/storefront/api/responses"
	"github.com/qyve/storefront/api/validators"
	"github.com/qyve/storefront/internal/crawler"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
	"github.com/qyve/storefront/pkg/logger"
)

func ArticleList(svc crawler.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("article"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// AdminCrawlerRun crawls every configured source synchronously. Source errors
// are reported in the result; the call only fails when nothing was fetched.
func AdminCrawlerRun(svc crawler.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("crawler"))
			return
		}
		result, err := svc.Run(r.Context())
		if err != nil {
			if result == nil || result.Fetched == 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "crawl failed"))
				return
			}
			logg.Warn(logg.WithField(r.Context(), "errors", len(result.Errors)), "crawler run finished with errors")
		}
		responses.WriteSuccess(w, result)
	}
}
