package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/sfomuseum/go-csvdict/v2"
	"github.com/tastemichigan/api-go/metrics"
	"github.com/tastemichigan/api-go/models"
	"github.com/tastemichigan/api-go/types"
)

// Upserter is the write half of the place repository.
type Upserter interface {
	Upsert(ctx context.Context, place *models.Place) (*models.Place, error)
}

// RowError records why a single data row was rejected. Row 1 is the first line after the header.
type RowError struct {
	Row     int    `json:"row"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

type ImportReport struct {
	Total     int        `json:"total"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Errors    []RowError `json:"errors"`
}

func (r *ImportReport) fail(row int, name string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, RowError{Row: row, Name: name, Message: err.Error()})
	metrics.ImportRows.WithLabelValues("failed").Inc()
}

// placeRow is one parsed CSV line before it becomes a models.Place.
type placeRow struct {
	Name       string   `csv:"name" validate:"required"`
	Address    string   `csv:"address"`
	City       string   `csv:"city"`
	County     string   `csv:"county"`
	State      string   `csv:"state" validate:"omitempty,len=2"`
	Zip        string   `csv:"zip"`
	Latitude   *float64 `csv:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude  *float64 `csv:"longitude" validate:"required,gte=-180,lte=180"`
	Cuisines   []string `csv:"cuisines"`
	Tags       []string `csv:"tags"`
	PriceLevel *int     `csv:"price_level" validate:"omitempty,gte=1,lte=4"`
	Rating     *float64 `csv:"rating" validate:"omitempty,gte=0,lte=5"`
	Website    string   `csv:"website" validate:"omitempty,url"`
	Phone      string   `csv:"phone"`
	Instagram  string   `csv:"ig_url" validate:"omitempty,url"`
	IsFeatured bool     `csv:"is_featured"`
	IsVerified bool     `csv:"is_verified"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			return f.Tag.Get("csv")
		})
	})
	return validate
}

// Importer upserts places from a CSV export, one row at a time.
type Importer struct {
	store Upserter
}

func NewImporter(store Upserter) *Importer {
	return &Importer{store: store}
}

// Import reads every row of r. A bad row is reported and skipped; only an unreadable
// header or a cancelled context aborts the run.
func (i *Importer) Import(ctx context.Context, r io.Reader) (*ImportReport, error) {
	reader, err := csvdict.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	report := &ImportReport{Errors: []RowError{}}
	rowNum := 0

	for row, err := range reader.Iterate() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		rowNum++
		report.Total++

		if err != nil {
			report.fail(rowNum, "", err)
			continue
		}

		parsed, err := parseRow(row)
		if err != nil {
			report.fail(rowNum, row["name"], err)
			continue
		}
		if err := validateRow(parsed); err != nil {
			report.fail(rowNum, parsed.Name, err)
			continue
		}

		if _, err := i.store.Upsert(ctx, parsed.toPlace()); err != nil {
			report.fail(rowNum, parsed.Name, err)
			continue
		}
		report.Succeeded++
		metrics.ImportRows.WithLabelValues("succeeded").Inc()
	}

	log.Ctx(ctx).Info().
		Int("total", report.Total).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Msg("CSV import finished")

	return report, nil
}

func parseRow(row map[string]string) (*placeRow, error) {
	p := &placeRow{
		Name:      cell(row, "name"),
		Address:   cell(row, "address"),
		City:      cell(row, "city"),
		County:    cell(row, "county"),
		State:     strings.ToUpper(cell(row, "state")),
		Zip:       cell(row, "zip"),
		Cuisines:  splitList(cell(row, "cuisines")),
		Tags:      splitList(cell(row, "tags")),
		Website:   cell(row, "website"),
		Phone:     cell(row, "phone"),
		Instagram: cell(row, "ig_url"),
	}

	var err error
	if p.Latitude, err = parseFloat(row, "latitude"); err != nil {
		return nil, err
	}
	if p.Longitude, err = parseFloat(row, "longitude"); err != nil {
		return nil, err
	}
	if p.Rating, err = parseFloat(row, "rating"); err != nil {
		return nil, err
	}
	if raw := cell(row, "price_level"); raw != "" {
		level, convErr := parsePriceLevel(raw)
		if convErr != nil {
			return nil, &types.ValidationError{Field: "price_level", Message: convErr.Error()}
		}
		p.PriceLevel = &level
	}
	if p.IsFeatured, err = parseBool(row, "is_featured"); err != nil {
		return nil, err
	}
	if p.IsVerified, err = parseBool(row, "is_verified"); err != nil {
		return nil, err
	}
	return p, nil
}

func validateRow(p *placeRow) error {
	err := getValidator().Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return &types.ValidationError{Field: fe.Field(), Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "len":
		return "must be " + fe.Param() + " characters"
	case "url":
		return "must be a valid URL"
	}
	return "failed " + fe.Tag()
}

func (p *placeRow) toPlace() *models.Place {
	place := &models.Place{
		Name:         p.Name,
		Address:      p.Address,
		City:         p.City,
		County:       p.County,
		State:        p.State,
		Zip:          p.Zip,
		Latitude:     *p.Latitude,
		Longitude:    *p.Longitude,
		Cuisines:     pq.StringArray(p.Cuisines),
		Tags:         pq.StringArray(p.Tags),
		Rating:       p.Rating,
		Website:      p.Website,
		Phone:        p.Phone,
		InstagramURL: p.Instagram,
		IsFeatured:   p.IsFeatured,
		IsVerified:   p.IsVerified,
	}
	if p.PriceLevel != nil {
		place.PriceLevel = *p.PriceLevel
	}
	types.ApplyPlaceDefaults(place)
	return place
}

func cell(row map[string]string, key string) string {
	return strings.TrimSpace(row[key])
}

// splitList accepts "a; b" or "a, b".
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == ',' })
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseFloat(row map[string]string, key string) (*float64, error) {
	raw := cell(row, key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &types.ValidationError{Field: key, Message: fmt.Sprintf("%q is not a number", raw)}
	}
	return &v, nil
}

// parsePriceLevel accepts "2" or "$$".
func parsePriceLevel(raw string) (int, error) {
	if strings.Trim(raw, "$") == "" {
		return len(raw), nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not a price level", raw)
	}
	return v, nil
}

func parseBool(row map[string]string, key string) (bool, error) {
	switch strings.ToLower(cell(row, key)) {
	case "", "0", "false", "no", "n":
		return false, nil
	case "1", "true", "yes", "y":
		return true, nil
	}
	return false, &types.ValidationError{Field: key, Message: fmt.Sprintf("%q is not a boolean", row[key])}
}
