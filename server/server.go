// Package server exposes a loaded scorer over HTTP with gin.
//
// Routes:
//
//	POST /predict   one observation as JSON -> 201 {"prediction": <float>}
//	GET  /health    liveness
//
// Anything else answers 404 {"error": "Not found"}.
package server

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YuminosukeSato/housing"
	"github.com/YuminosukeSato/housing/pkg/errors"
	"github.com/YuminosukeSato/housing/pkg/log"
)

// Predictor scores a single raw observation.
type Predictor interface {
	PredictObservation(obs housing.Observation) (float64, error)
}

// predictRequest uses pointers so an absent field is distinguishable from
// zero.
type predictRequest struct {
	Longitude        *float64 `json:"longitude" binding:"required"`
	Latitude         *float64 `json:"latitude" binding:"required"`
	HousingMedianAge *float64 `json:"housing_median_age" binding:"required"`
	TotalRooms       *float64 `json:"total_rooms" binding:"required"`
	TotalBedrooms    *float64 `json:"total_bedrooms" binding:"required"`
	Population       *float64 `json:"population" binding:"required"`
	Households       *float64 `json:"households" binding:"required"`
	MedianIncome     *float64 `json:"median_income" binding:"required"`
	OceanProximity   *string  `json:"ocean_proximity" binding:"required"`
}

func (r predictRequest) observation() housing.Observation {
	return housing.Observation{
		Longitude:        *r.Longitude,
		Latitude:         *r.Latitude,
		HousingMedianAge: *r.HousingMedianAge,
		TotalRooms:       *r.TotalRooms,
		TotalBedrooms:    *r.TotalBedrooms,
		Population:       *r.Population,
		Households:       *r.Households,
		MedianIncome:     *r.MedianIncome,
		OceanProximity:   *r.OceanProximity,
	}
}

// NewRouter builds the gin engine serving p.
func NewRouter(p Predictor, logger log.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/predict", predictHandler(p, logger))
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return router
}

func predictHandler(p Predictor, logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req predictRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		obs := req.observation()
		if err := obs.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		v, err := p.PredictObservation(obs)
		if err != nil {
			status := http.StatusInternalServerError
			var (
				ve *errors.ValueError
				se *errors.SchemaError
			)
			if errors.As(err, &ve) || errors.As(err, &se) {
				status = http.StatusBadRequest
			}
			logger.Error("prediction failed", err, log.OperationKey, log.OperationPredict)
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "prediction is not a finite number"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"prediction": v})
	}
}

func requestLogger(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			log.PathKey, c.Request.URL.Path,
			"status", c.Writer.Status(),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}
}

// Serve runs h on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, logger log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrapf(err, "listen on %s", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
