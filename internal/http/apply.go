package http

import (
	"errors"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/vaultmeet/vaultmeet/internal/metrics"
	"github.com/vaultmeet/vaultmeet/internal/model"
	"github.com/vaultmeet/vaultmeet/internal/service/intake"
	"github.com/vaultmeet/vaultmeet/internal/validate"
)

// applyHandler accepts the multipart application form for either kind.
// The proof image goes up under the "payment_proof" part.
func applyHandler(intakeSvc *intake.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		kind, ok := model.ParseKind(c.Param("kind"))
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown application kind"})
		}

		metrics.ApplicationsTotal.WithLabelValues(kind.String(), "received").Inc()

		sub := validate.Submission{
			FullName:      c.FormValue("full_name"),
			Email:         c.FormValue("email"),
			Age:           c.FormValue("age"),
			Location:      c.FormValue("location"),
			Bio:           c.FormValue("bio"),
			SponsorType:   c.FormValue("sponsor_type"),
			SeekerType:    c.FormValue("seeker_type"),
			MonthlyBudget: c.FormValue("monthly_budget"),
		}

		var proof intake.Proof
		if fh, err := c.FormFile("payment_proof"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable payment proof"})
			}
			defer f.Close()
			proof = intake.Proof{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Reader:      f,
			}
		}

		id, err := intakeSvc.Submit(c.Request().Context(), kind, sub, proof)
		if err != nil {
			var verr *intake.ValidationError
			switch {
			case errors.As(err, &verr):
				metrics.ApplicationsTotal.WithLabelValues(kind.String(), "invalid").Inc()
				return c.JSON(http.StatusBadRequest, map[string]any{"errors": verr.Fields})

			case errors.Is(err, intake.ErrUpload):
				metrics.ApplicationsTotal.WithLabelValues(kind.String(), "upload_failed").Inc()
				log.Errorf("proof upload failed: %v", err)
				return c.JSON(http.StatusBadGateway, map[string]string{"error": "proof upload failed"})

			default:
				log.Errorf("application submit failed: %v", err)
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
			}
		}

		metrics.ApplicationsTotal.WithLabelValues(kind.String(), "created").Inc()

		return c.JSON(http.StatusCreated, map[string]any{
			"submitted": true,
			"id":        id,
			"kind":      kind.String(),
			"status":    model.StatusPending.String(),
		})
	}
}
