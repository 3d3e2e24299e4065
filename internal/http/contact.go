package http

import (
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/vaultmeet/vaultmeet/internal/model"
	"github.com/vaultmeet/vaultmeet/internal/repository"
	"github.com/vaultmeet/vaultmeet/internal/util"
	"github.com/vaultmeet/vaultmeet/internal/validate"
)

type contactReq struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Message string `json:"message" form:"message"`
}

func contactHandler(contacts repository.ContactsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req contactReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		if errs := validate.Contact(req.Name, req.Email, req.Message); len(errs) > 0 {
			return c.JSON(http.StatusBadRequest, map[string]any{"errors": errs})
		}

		m := model.ContactMessage{
			ID:      util.NewID(),
			Name:    strings.TrimSpace(req.Name),
			Email:   strings.TrimSpace(req.Email),
			Message: strings.TrimSpace(req.Message),
		}
		if err := contacts.Insert(c.Request().Context(), m); err != nil {
			log.Errorf("contact insert failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusCreated, map[string]any{"received": true, "id": m.ID})
	}
}
