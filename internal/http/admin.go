package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/vaultmeet/vaultmeet/internal/config"
	"github.com/vaultmeet/vaultmeet/internal/metrics"
	"github.com/vaultmeet/vaultmeet/internal/model"
	"github.com/vaultmeet/vaultmeet/internal/repository"
	"github.com/vaultmeet/vaultmeet/internal/service/review"
	"golang.org/x/crypto/bcrypt"
)

type loginReq struct {
	Password string `json:"password" form:"password"`
}

// adminLoginHandler exchanges the reviewer password for a short-lived
// Bearer token. The password itself is never stored server-side, only
// its bcrypt hash from config.
func adminLoginHandler(cfg config.AdminConfig) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		if cfg.PasswordHash == "" || cfg.JWTSecret == "" {
			log.Error("admin login attempted without password_hash/jwt_secret configured")
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "admin login not configured"})
		}

		if err := bcrypt.CompareHashAndPassword([]byte(cfg.PasswordHash), []byte(req.Password)); err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		}

		ttl := cfg.TokenTTL
		if ttl <= 0 {
			ttl = 12 * time.Hour
		}
		now := time.Now()
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		})
		signed, err := tok.SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			log.Errorf("token signing failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "token error"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"token":      signed,
			"expires_in": int(ttl.Seconds()),
		})
	}
}

func listApplicationsHandler(reviewSvc *review.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		kind, ok := model.ParseKind(c.Param("kind"))
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown application kind"})
		}

		status, ok := model.ParseStatus(c.QueryParam("status"))
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
		}

		limit, offset := pageParams(c)

		res, err := reviewSvc.List(c.Request().Context(), kind, status, limit, offset)
		if err != nil {
			c.Logger().Errorf("list applications failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(res.Applicants),
			"counts":  res.Counts,
			"results": res.Applicants,
		})
	}
}

type decisionReq struct {
	Outcome string `json:"outcome" form:"outcome"` // "approved" | "rejected"
}

func decisionHandler(reviewSvc *review.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		kind, ok := model.ParseKind(c.Param("kind"))
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown application kind"})
		}
		id := c.Param("id")

		var req decisionReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		outcome := model.Status(req.Outcome)
		a, err := reviewSvc.Decide(c.Request().Context(), kind, id, outcome)
		if err != nil {
			switch {
			case errors.Is(err, review.ErrInvalidOutcome):
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "outcome must be approved or rejected"})
			case errors.Is(err, review.ErrNotFound):
				return c.JSON(http.StatusNotFound, map[string]string{"error": "application not found"})
			default:
				log.Errorf("decision failed: %v", err)
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
			}
		}

		metrics.DecisionsTotal.WithLabelValues(kind.String(), outcome.String()).Inc()

		return c.JSON(http.StatusOK, map[string]any{
			"id":     a.ID,
			"kind":   kind.String(),
			"status": a.Status.String(),
		})
	}
}

func deleteApplicationHandler(reviewSvc *review.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		kind, ok := model.ParseKind(c.Param("kind"))
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown application kind"})
		}
		id := c.Param("id")

		if err := reviewSvc.Delete(c.Request().Context(), kind, id); err != nil {
			if errors.Is(err, review.ErrNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "application not found"})
			}
			log.Errorf("delete failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		metrics.DecisionsTotal.WithLabelValues(kind.String(), "deleted").Inc()

		return c.JSON(http.StatusOK, map[string]any{"deleted": true, "id": id})
	}
}

// decisionsReportHandler reads the ClickHouse audit log of review
// decisions and their notification fate.
func decisionsReportHandler(chRepo repository.CHDecisionsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		var kind model.Kind
		if raw := c.QueryParam("kind"); raw != "" {
			k, ok := model.ParseKind(raw)
			if !ok {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid kind filter"})
			}
			kind = k
		}

		var outcome model.Template
		if raw := c.QueryParam("outcome"); raw != "" {
			t := model.Template(raw)
			if !t.Valid() {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid outcome filter"})
			}
			outcome = t
		}

		limit, offset := pageParams(c)

		rows, err := chRepo.List(c.Request().Context(), kind, outcome, limit, offset)
		if err != nil {
			c.Logger().Errorf("clickhouse list failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(rows),
			"results": rows,
		})
	}
}

func pageParams(c echo.Context) (limit, offset int) {
	limit = 50
	offset = 0
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
