package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-booking-api/internal/middleware"
	"github.com/noah-isme/tutor-booking-api/internal/models"
)

// actorFromContext returns the caller set by the JWT middleware. Public
// routes yield the zero Actor, which every role check rejects.
func actorFromContext(c *gin.Context) models.Actor {
	return models.ActorFromClaims(middleware.Claims(c))
}
