package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"crm-api/dashboard"
	"crm-api/domain"
	"crm-api/reminder"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Store, settings SettingsStore, sched Scheduler, auth Authenticator, deduper Deduper, broker *UpdateBroker, logger *log.Logger) {
	e.GET("/api/board", getBoard(store, auth, logger))
	e.POST("/api/clients", postClient(store, auth, deduper), GzipRequestMiddleware())
	e.PUT("/api/clients/:id", putClient(store, auth), GzipRequestMiddleware())
	e.POST("/api/clients/:id/move", moveClient(store, auth))
	e.DELETE("/api/clients/:id", deleteClient(store, auth))
	e.GET("/api/clients/export", exportClients(store, auth))
	e.POST("/api/clients/:id/reminders", postReminder(store, sched, auth))
	e.GET("/api/settings", getSettings(settings, auth))
	e.PUT("/api/settings", putSettings(settings, auth))
	e.GET("/api/dashboard", getDashboard(auth))
	e.GET("/api/stream", streamBoard(store, auth, broker))
	e.GET("/healthz", healthz(store))
}

func healthz(_ Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		//TODO: implement healthcheck
		return c.NoContent(http.StatusOK)
	}
}

// getBoard pushes the projected board view: per-stage buckets filtered by the
// search term plus aggregate stats over the full list.
func getBoard(store Store, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newBoardRequestMetrics(ctx, logger)
		if spanCtx != nil {
			req := c.Request().WithContext(spanCtx)
			c.SetRequest(req)
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		userID, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		term := c.QueryParam("q")
		metrics.SetTermProvided(term != "")

		fetchStart := time.Now()
		clients, fetchErr := store.List(ctx, userID)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.String(http.StatusInternalServerError, fetchErr.Error())
			return err
		}
		metrics.SetClientsReturned(len(clients))

		board := domain.Project(clients, term)
		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, board)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

// decodeClientRequest reads and validates the create/edit form body.
func decodeClientRequest(c echo.Context) (domain.ClientFields, error) {
	lr := io.LimitReader(c.Request().Body, clientBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()

	var req clientRequest
	if err := dec.Decode(&req); err != nil {
		return domain.ClientFields{}, errors.New("invalid body")
	}

	fields := domain.ClientFields{Name: req.Name, Email: req.Email, Phone: req.Phone}
	if req.Category != nil {
		cat, ok := domain.ParseCategory(*req.Category)
		if !ok {
			return domain.ClientFields{}, fmt.Errorf("invalid category %q", *req.Category)
		}
		fields.Category = &cat
	}
	fields.Trim()
	return fields, nil
}

func postClient(store Store, auth Authenticator, deduper Deduper) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		fields, err := decodeClientRequest(c)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		key := strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))
		claimed := false
		if key != "" && deduper != nil {
			added, dedupeErr := deduper.Add(ctx, userID, key)
			if dedupeErr != nil {
				// Dedupe is best effort; an unavailable Redis must not block writes.
				c.Logger().Warnf("dedupe unavailable: %v", dedupeErr)
			} else if !added {
				return c.JSON(http.StatusOK, messageResponse{Message: "duplicate submission ignored"})
			} else {
				claimed = true
			}
		}

		client, err := store.Insert(ctx, userID, fields)
		if err != nil {
			if claimed {
				if rerr := deduper.Remove(ctx, userID, key); rerr != nil {
					c.Logger().Errorf("dedupe rollback failed: %v", rerr)
				}
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusCreated, client)
	}
}

func putClient(store Store, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		fields, err := decodeClientRequest(c)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		client, err := store.Update(ctx, userID, c.Param("id"), fields)
		if err != nil {
			var notFound NotFoundError
			if errors.As(err, &notFound) {
				return c.JSON(http.StatusNotFound, messageResponse{Message: "client not found"})
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, client)
	}
}

// moveClient applies a drag-and-drop stage change. Dropping a card on its
// current column is a no-op: nothing is persisted and no message is shown.
func moveClient(store Store, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		var req moveRequest
		if err := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, clientBodyMaxSize)).Decode(&req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		target, ok := domain.ParseCategory(req.Category)
		if !ok {
			return c.String(http.StatusBadRequest, fmt.Sprintf("invalid category %q", req.Category))
		}

		current, err := store.Get(ctx, userID, c.Param("id"))
		if err != nil {
			var notFound NotFoundError
			if errors.As(err, &notFound) {
				return c.JSON(http.StatusNotFound, messageResponse{Message: "client not found"})
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		if current.Category == target {
			return c.NoContent(http.StatusNoContent)
		}

		client, err := store.Update(ctx, userID, c.Param("id"), domain.ClientFields{Category: &target})
		if err != nil {
			var notFound NotFoundError
			if errors.As(err, &notFound) {
				return c.JSON(http.StatusNotFound, messageResponse{Message: "client not found"})
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, client)
	}
}

// deleteClient removes a record after explicit confirmation. The first call
// without confirm=true answers with a prompt naming the record; re-sending
// with confirm=true performs the delete. Deleting an absent id is a no-op.
func deleteClient(store Store, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		id := c.Param("id")
		if c.QueryParam("confirm") != "true" {
			client, err := store.Get(ctx, userID, id)
			if err != nil {
				var notFound NotFoundError
				if errors.As(err, &notFound) {
					return c.NoContent(http.StatusNoContent)
				}
				c.Logger().Error(err)
				return c.String(http.StatusInternalServerError, err.Error())
			}
			return c.JSON(http.StatusConflict, confirmResponse{
				Message: fmt.Sprintf("Delete client %q? This action cannot be undone.", client.DisplayName()),
				Confirm: "true",
			})
		}

		if err := store.Delete(ctx, userID, id); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// exportClients serializes the full, unfiltered record list as the CSV
// artifact with its fixed download filename.
func exportClients(store Store, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		clients, err := store.List(ctx, userID)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		if len(clients) == 0 {
			return c.JSON(http.StatusConflict, messageResponse{Message: "no clients to export"})
		}

		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", domain.ExportFilename))
		return c.Blob(http.StatusOK, "text/csv; charset=utf-8", domain.ExportCSV(clients))
	}
}

// postReminder arms a one-shot reminder for a card. Non-positive or malformed
// delays abort silently, matching a cancelled prompt.
func postReminder(store Store, sched Scheduler, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		var req reminderRequest
		if err := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, clientBodyMaxSize)).Decode(&req); err != nil {
			return c.NoContent(http.StatusNoContent)
		}

		client, err := store.Get(ctx, userID, c.Param("id"))
		if err != nil {
			var notFound NotFoundError
			if errors.As(err, &notFound) {
				return c.JSON(http.StatusNotFound, messageResponse{Message: "client not found for reminder"})
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}

		task, err := sched.Schedule(ctx, userID, client, req.Minutes)
		if err != nil {
			switch {
			case errors.Is(err, reminder.ErrInvalidDelay):
				return c.NoContent(http.StatusNoContent)
			case errors.Is(err, reminder.ErrPermissionDenied):
				return c.JSON(http.StatusForbidden, messageResponse{Message: "notification permission denied"})
			default:
				c.Logger().Error(err)
				return c.String(http.StatusInternalServerError, err.Error())
			}
		}
		return c.JSON(http.StatusAccepted, task)
	}
}

func getSettings(settings SettingsStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		s, err := settings.FetchSettings(ctx, userID)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, s)
	}
}

func putSettings(settings SettingsStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		var s domain.Settings
		if err := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, clientBodyMaxSize)).Decode(&s); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := settings.SaveSettings(ctx, userID, s); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, s)
	}
}

// getDashboard pushes the canned bundle for the selected time frame. Unknown
// or missing tokens fall back to the default frame.
func getDashboard(auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization")); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		bundle, _ := dashboard.Lookup(dashboard.TimeFrame(c.QueryParam("timeFrame")))
		return c.JSON(http.StatusOK, bundle)
	}
}
