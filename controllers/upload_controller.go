package controllers

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tastemichigan/api-go/config"
)

const (
	heroImagePrefix  = "places/hero/"
	heroImageMaxSize = 10 * 1024 * 1024
	presignExpiry    = 15 * time.Minute
)

var heroImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// UploadController hands out presigned R2 URLs so hero images go straight to the bucket.
type UploadController struct {
	R2Client *s3.Client
	R2Config config.R2Config
}

type HeroImageRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	FileSize    int64  `json:"fileSize" binding:"required,min=1"`
}

type HeroImageConfirmRequest struct {
	Key string `json:"key" binding:"required"`
}

type PresignedURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}

func NewUploadController(client *s3.Client, cfg config.R2Config) *UploadController {
	return &UploadController{R2Client: client, R2Config: cfg}
}

func (uc *UploadController) configured(c *gin.Context) bool {
	if uc.R2Client == nil {
		c.JSON(http.StatusInternalServerError, StandardResponse{Success: false, Error: "Image storage is not configured"})
		return false
	}
	return true
}

// GetHeroImageURL returns a presigned PUT for a new hero image. The client
// stores the returned fileUrl in the place's hero_image_url.
func (uc *UploadController) GetHeroImageURL(c *gin.Context) {
	if !uc.configured(c) {
		return
	}

	var req HeroImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if !heroImageTypes[req.ContentType] {
		c.JSON(http.StatusBadRequest, StandardResponse{Success: false, Error: "Hero images must be JPEG, PNG or WebP"})
		return
	}
	if req.FileSize > heroImageMaxSize {
		c.JSON(http.StatusBadRequest, StandardResponse{Success: false, Error: "File size exceeds limit"})
		return
	}

	key := uc.generateHeroKey(req.FileName)
	presignedURL, err := uc.createPresignedURL(c.Request.Context(), key, req.ContentType)
	if err != nil {
		respondError(c, fmt.Errorf("presign %s: %w", key, err))
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data: PresignedURLResponse{
			UploadURL: presignedURL,
			FileURL:   uc.publicURL(key),
			Key:       key,
			ExpiresIn: int(presignExpiry.Seconds()),
		},
		Message: "Presigned URL generated successfully",
	})
}

// ConfirmHeroImage checks that the browser's upload actually landed.
func (uc *UploadController) ConfirmHeroImage(c *gin.Context) {
	if !uc.configured(c) {
		return
	}

	var req HeroImageConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !strings.HasPrefix(req.Key, heroImagePrefix) {
		c.JSON(http.StatusBadRequest, StandardResponse{Success: false, Error: "Invalid hero image key"})
		return
	}

	info, err := uc.R2Client.HeadObject(c.Request.Context(), &s3.HeadObjectInput{
		Bucket: aws.String(uc.R2Config.BucketName),
		Key:    aws.String(req.Key),
	})
	if err != nil {
		c.JSON(http.StatusNotFound, StandardResponse{Success: false, Error: "File not found in storage"})
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data: gin.H{
			"key":      req.Key,
			"fileUrl":  uc.publicURL(req.Key),
			"fileSize": aws.ToInt64(info.ContentLength),
		},
		Message: "Upload confirmed successfully",
	})
}

func (uc *UploadController) DeleteHeroImage(c *gin.Context) {
	if !uc.configured(c) {
		return
	}

	key := strings.TrimPrefix(c.Param("key"), "/")
	if !strings.HasPrefix(key, heroImagePrefix) {
		c.JSON(http.StatusBadRequest, StandardResponse{Success: false, Error: "Invalid hero image key"})
		return
	}

	_, err := uc.R2Client.DeleteObject(c.Request.Context(), &s3.DeleteObjectInput{
		Bucket: aws.String(uc.R2Config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		respondError(c, fmt.Errorf("delete %s: %w", key, err))
		return
	}

	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "File deleted successfully"})
}

func (uc *UploadController) generateHeroKey(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s%d_%s%s", heroImagePrefix, time.Now().Unix(), uuid.New().String(), ext)
}

func (uc *UploadController) publicURL(key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(uc.R2Config.PublicURL, "/"), key)
}

func (uc *UploadController) createPresignedURL(ctx context.Context, key, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(uc.R2Config.BucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}

	presigner := s3.NewPresignClient(uc.R2Client)
	req, err := presigner.PresignPutObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = presignExpiry
	})
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
