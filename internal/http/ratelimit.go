package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const importBurst = 5

// importRateLimit rejects import requests beyond perMinute with 429. The limit is
// shared by every client, imports are serialized anyway.
func importRateLimit(perMinute int) gin.HandlerFunc {
	burst := importBurst
	if perMinute < burst {
		burst = perMinute
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "Too many import requests, try again later",
				Code:  "rate_limited",
			})
			return
		}
		c.Next()
	}
}
