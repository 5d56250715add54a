package controllers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tastemichigan/api-go/config"
	"github.com/tastemichigan/api-go/importer"
	"github.com/tastemichigan/api-go/services"
	"golang.org/x/crypto/bcrypt"
)

func adminRouter(repo *fakePlaces) *gin.Engine {
	ac := NewAdminController(repo, services.NewPlaceSnapshot(repo, time.Minute), importer.NewImporter(repo))
	vc := NewValidationController(repo)

	r := gin.New()
	r.GET("/api/admin/places", ac.ListPlaces)
	r.POST("/api/admin/places", ac.UpsertPlace)
	r.POST("/api/admin/places/import", ac.ImportCSV)
	r.DELETE("/api/admin/places/:id", ac.DeletePlace)
	r.GET("/api/admin/dashboard", ac.Dashboard)
	r.GET("/api/admin/validation/slug", vc.ValidateSlug)
	return r
}

func TestListPlacesPagination(t *testing.T) {
	repo := &fakePlaces{places: samplePlaces()}
	r := adminRouter(repo)

	w := perform(r, http.MethodGet, "/api/admin/places?status=draft&page=2&pageSize=2", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	env := decode(t, w)
	if env.Pagination == nil || env.Pagination.TotalItems != 3 || env.Pagination.TotalPages != 2 || env.Pagination.CurrentPage != 2 {
		t.Errorf("pagination = %+v", env.Pagination)
	}
	if repo.lastOffset != 2 || repo.lastLimit != 2 || repo.lastStatus != "draft" {
		t.Errorf("ListAll(status=%q, limit=%d, offset=%d)", repo.lastStatus, repo.lastLimit, repo.lastOffset)
	}
}

func TestListPlacesRejectsUnknownStatus(t *testing.T) {
	r := adminRouter(&fakePlaces{})

	w := perform(r, http.MethodGet, "/api/admin/places?status=deleted", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpsertPlace(t *testing.T) {
	repo := &fakePlaces{}
	r := adminRouter(repo)

	w := perform(r, http.MethodPost, "/api/admin/places", []byte(`{"name":"Buddy's Pizza","location":{"lat":42.42,"lng":-83.03}}`), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(repo.upserted) != 1 || repo.upserted[0].Slug != "buddys-pizza" {
		t.Errorf("upserted = %+v", repo.upserted)
	}

	w = perform(r, http.MethodPost, "/api/admin/places", []byte(`{"name":"No Location"}`), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing location: status = %d, want 400", w.Code)
	}
}

func TestDeletePlace(t *testing.T) {
	repo := &fakePlaces{places: samplePlaces()}
	r := adminRouter(repo)

	if w := perform(r, http.MethodDelete, "/api/admin/places/p2", nil, nil); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if w := perform(r, http.MethodDelete, "/api/admin/places/missing", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("missing id: status = %d, want 404", w.Code)
	}
}

func multipartCSV(t *testing.T, content string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "places.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return buf.Bytes(), mw.FormDataContentType()
}

func TestImportCSV(t *testing.T) {
	repo := &fakePlaces{}
	r := adminRouter(repo)

	body, contentType := multipartCSV(t, "name,latitude,longitude,county\n"+
		"Lafayette Coney Island,42.3316,-83.0478,Wayne\n"+
		"Nowhere Diner,95,-83.0,Wayne\n")

	w := perform(r, http.MethodPost, "/api/admin/places/import", body, map[string]string{"Content-Type": contentType})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	env := decode(t, w)
	if env.Success {
		t.Error("success should be false when a row failed")
	}
	var report importer.ImportReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Total != 2 || report.Succeeded != 1 || report.Failed != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Errors) != 1 || report.Errors[0].Row != 2 {
		t.Errorf("row errors = %+v", report.Errors)
	}
	if len(repo.upserted) != 1 || repo.upserted[0].Name != "Lafayette Coney Island" {
		t.Errorf("upserted = %+v", repo.upserted)
	}
}

func TestImportCSVRequiresFile(t *testing.T) {
	r := adminRouter(&fakePlaces{})

	w := perform(r, http.MethodPost, "/api/admin/places/import", []byte("{}"), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestValidateSlug(t *testing.T) {
	r := adminRouter(&fakePlaces{places: samplePlaces()})

	tests := []struct {
		query  string
		status int
		slug   string
		exists bool
	}{
		{"slug=supino-pizzeria", http.StatusOK, "supino-pizzeria", true},
		{"name=Supino%20Pizzeria", http.StatusOK, "supino-pizzeria", true},
		{"name=Brand+New+Spot", http.StatusOK, "brand-new-spot", false},
		{"", http.StatusBadRequest, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := perform(r, http.MethodGet, "/api/admin/validation/slug?"+tt.query, nil, nil)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}
			var got struct {
				Slug   string `json:"slug"`
				Exists bool   `json:"exists"`
			}
			if err := json.Unmarshal(decode(t, w).Data, &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Slug != tt.slug || got.Exists != tt.exists {
				t.Errorf("got %+v, want slug %q exists %v", got, tt.slug, tt.exists)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("great-lakes"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	ac := NewAuthController(config.AdminConfig{
		Username:     "admin",
		PasswordHash: string(hash),
		JWTSecret:    "secret",
		TokenTTL:     time.Hour,
	})
	r := gin.New()
	r.POST("/api/admin/login", ac.Login)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"username":"admin","password":"great-lakes"}`, http.StatusOK},
		{"wrong password", `{"username":"admin","password":"lake-erie"}`, http.StatusUnauthorized},
		{"wrong username", `{"username":"root","password":"great-lakes"}`, http.StatusUnauthorized},
		{"missing password", `{"username":"admin"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, http.MethodPost, "/api/admin/login", []byte(tt.body), nil)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want != http.StatusOK {
				return
			}
			var token struct {
				AccessToken string `json:"access_token"`
				TokenType   string `json:"token_type"`
			}
			if err := json.Unmarshal(decode(t, w).Data, &token); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if token.AccessToken == "" || token.TokenType != "Bearer" {
				t.Errorf("token = %+v", token)
			}
		})
	}
}

func TestLoginNotConfigured(t *testing.T) {
	r := gin.New()
	r.POST("/api/admin/login", NewAuthController(config.AdminConfig{Username: "admin"}).Login)

	w := perform(r, http.MethodPost, "/api/admin/login", []byte(`{"username":"admin","password":"x"}`), nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
