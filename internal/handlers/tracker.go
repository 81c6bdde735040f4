package handlers

import (
	"errors"
	"net/http"

	"github.com/surgeseven/settlement/internal/apperrors"
	"github.com/surgeseven/settlement/internal/handlers/render"
	"github.com/surgeseven/settlement/internal/handlers/userctx"
	"github.com/surgeseven/settlement/internal/logger"
)

func handleTrackerPosition(service trackerService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		trackerID := r.PathValue("trackerID")
		if trackerID == "" {
			render.ServiceError(w, "Tracker id is required", http.StatusUnprocessableEntity)
			return
		}

		view, err := service.Position(r.Context(), trackerID, user)

		switch {
		case err == nil:
			render.JSON(w, view)
		case errors.Is(err, apperrors.ErrTruckNotFound):
			render.ServiceError(w, "Truck not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrNoPositionData):
			render.ServiceError(w, "No position data for tracker", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrInvalidPositionData):
			render.ServiceError(w, "Tracker returned unusable position data", http.StatusBadGateway)
		case errors.Is(err, apperrors.ErrAuthUnavailable):
			render.ServiceError(w, "Tracking provider is unavailable", http.StatusBadGateway)
		default:
			l.Error("Failed to get tracker position", "error", err, "tracker_id", trackerID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleTrackerCommand(service trackerService, l logger.Logger) http.Handler {
	type request struct {
		Action string `json:"action" validate:"required"`
	}

	type response struct {
		Status string `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		trackerID := r.PathValue("trackerID")
		if trackerID == "" {
			render.ServiceError(w, "Tracker id is required", http.StatusUnprocessableEntity)
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = service.Command(r.Context(), trackerID, user, req.Action)

		switch {
		case err == nil:
			render.JSON(w, response{Status: "sent"})
		case errors.Is(err, apperrors.ErrInvalidAction):
			render.ServiceError(w, "Unknown tracker action", http.StatusUnprocessableEntity)
		case errors.Is(err, apperrors.ErrTruckNotFound):
			render.ServiceError(w, "Truck not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrCommandFailed):
			render.ServiceError(w, "Tracker did not confirm the command", http.StatusBadGateway)
		case errors.Is(err, apperrors.ErrAuthUnavailable):
			render.ServiceError(w, "Tracking provider is unavailable", http.StatusBadGateway)
		default:
			l.Error("Failed to send tracker command", "error", err, "tracker_id", trackerID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
