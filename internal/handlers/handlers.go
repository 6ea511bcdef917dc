package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/dermascan/internal/model"
	"github.com/example/dermascan/internal/pipeline"
	"github.com/example/dermascan/internal/repository"
)

// MaxUploadSize mirrors the pipeline ceiling for the multipart reader.
const MaxUploadSize = pipeline.MaxUploadSize

// Fixed response messages; clients match on them verbatim.
const (
	oversizeMessage         = "Payload content length greater than maximum allowed: 1000000"
	noFileMessage           = "No file uploaded"
	invalidFileTypeMessage  = "Invalid file type. Please upload an image."
	predictionFailedMessage = "Terjadi kesalahan dalam melakukan prediksi"
)

// RegisterRoutes wires the HTTP handlers to the Gin router. assetDir, when
// set, is served statically under the asset namespace so returned imageUrl
// values dereference.
func RegisterRoutes(router *gin.Engine, pipe *pipeline.Pipeline, predictor model.Predictor, assetDir string) {
	router.GET("/healthz", func(c *gin.Context) {
		if !predictor.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "model_ready": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "model_ready": true})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if assetDir != "" {
		router.Static("/uploaded_images", assetDir)
	}

	router.POST("/predict", func(c *gin.Context) {
		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": noFileMessage})
			return
		}
		if file.Size > MaxUploadSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"status": "fail", "message": oversizeMessage})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": noFileMessage})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "fail", "message": predictionFailedMessage})
			return
		}

		record, err := pipe.Handle(c.Request.Context(), pipeline.Upload{
			Data:        data,
			ContentType: file.Header.Get("Content-Type"),
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Model is predicted successfully",
			"data":    record,
		})
	})

	router.GET("/predict/histories", func(c *gin.Context) {
		records, err := pipe.Histories(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		if records == nil {
			records = []*repository.PredictionRecord{}
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": records})
	})

	router.GET("/predict/metrics", func(c *gin.Context) {
		summary, err := pipe.GetSummary(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": summary})
	})
}

// respondError maps the pipeline's error taxonomy onto HTTP responses.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, pipeline.ErrPayloadTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"status": "fail", "message": oversizeMessage})
		return
	}

	var pipeErr *pipeline.Error
	if errors.As(err, &pipeErr) {
		switch pipeErr.Kind {
		case pipeline.KindValidation:
			c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": validationMessage(err)})
			return
		case pipeline.KindDecode:
			c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": predictionFailedMessage})
			return
		case pipeline.KindInference, pipeline.KindStorage:
			c.JSON(http.StatusInternalServerError, gin.H{"status": "fail", "message": predictionFailedMessage})
			return
		}
	}

	c.JSON(http.StatusInternalServerError, gin.H{"status": "fail", "message": predictionFailedMessage})
}

func validationMessage(err error) string {
	if errors.Is(err, pipeline.ErrInvalidFileType) {
		return invalidFileTypeMessage
	}
	return noFileMessage
}
