package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tastemichigan/api-go/models"
)

type fakeUpserter struct {
	saved []*models.Place
	fail  map[string]error
}

func (f *fakeUpserter) Upsert(_ context.Context, place *models.Place) (*models.Place, error) {
	if err, ok := f.fail[place.Name]; ok {
		return nil, err
	}
	f.saved = append(f.saved, place)
	return place, nil
}

const header = "name,address,city,county,state,zip,latitude,longitude,cuisines,tags,price_level,rating,website,phone,ig_url,is_featured,is_verified\n"

func TestImportValidRows(t *testing.T) {
	csv := header +
		"Lov-A Burger Grill & Cafe,1 Main St,Detroit,Wayne,,48201,42.33,-83.04,Burgers; American,late night,$$,4.5,https://lova.example.com,,,yes,1\n" +
		"Pasty Central,2 Elm,Marquette,Marquette,mi,,46.54,-87.39,\"Pasties,British\",,3,,,,,false,no\n"

	store := &fakeUpserter{}
	report, err := NewImporter(store).Import(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if report.Total != 2 || report.Succeeded != 2 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(store.saved) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(store.saved))
	}

	first := store.saved[0]
	if first.Slug != "lov-a-burger-grill-cafe" {
		t.Errorf("slug = %q", first.Slug)
	}
	if first.State != models.DefaultState || first.Status != models.StatusPublished {
		t.Errorf("defaults not applied: state=%q status=%q", first.State, first.Status)
	}
	if first.PriceLevel != 2 {
		t.Errorf("price level = %d, want 2", first.PriceLevel)
	}
	if first.Rating == nil || *first.Rating != 4.5 {
		t.Errorf("rating = %v", first.Rating)
	}
	if len(first.Cuisines) != 2 || first.Cuisines[0] != "Burgers" || first.Cuisines[1] != "American" {
		t.Errorf("cuisines = %v", first.Cuisines)
	}
	if !first.IsFeatured || !first.IsVerified {
		t.Errorf("flags not parsed: featured=%v verified=%v", first.IsFeatured, first.IsVerified)
	}

	second := store.saved[1]
	if second.State != "MI" {
		t.Errorf("state = %q, want MI", second.State)
	}
	if second.Rating != nil {
		t.Errorf("blank rating should stay nil, got %v", *second.Rating)
	}
	if second.PriceLevel != 3 {
		t.Errorf("price level = %d, want 3", second.PriceLevel)
	}
	if len(second.Cuisines) != 2 || second.Cuisines[1] != "British" {
		t.Errorf("cuisines = %v", second.Cuisines)
	}
}

func TestImportReportsBadRows(t *testing.T) {
	csv := header +
		",1 Main,Detroit,Wayne,MI,,42.3,-83.0,,,1,,,,,,\n" +
		"No Lat,1 Main,Detroit,Wayne,MI,,,-83.0,,,1,,,,,,\n" +
		"Far North,1 Main,Detroit,Wayne,MI,,95,-83.0,,,1,,,,,,\n" +
		"Bad Price,1 Main,Detroit,Wayne,MI,,42.3,-83.0,,,7,,,,,,\n" +
		"Bad Rating,1 Main,Detroit,Wayne,MI,,42.3,-83.0,,,1,9,,,,,\n" +
		"Bad Bool,1 Main,Detroit,Wayne,MI,,42.3,-83.0,,,1,,,,,maybe,\n" +
		"Store Down,1 Main,Detroit,Wayne,MI,,42.3,-83.0,,,1,,,,,,\n" +
		"Fine,1 Main,Detroit,Wayne,MI,,42.3,-83.0,,,1,,,,,,\n"

	store := &fakeUpserter{fail: map[string]error{"Store Down": errors.New("connection refused")}}
	report, err := NewImporter(store).Import(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if report.Total != 8 || report.Succeeded != 1 || report.Failed != 7 {
		t.Fatalf("unexpected report: %+v", report)
	}

	wantFields := []struct {
		row  int
		text string
	}{
		{1, "name"},
		{2, "latitude"},
		{3, "latitude"},
		{4, "price_level"},
		{5, "rating"},
		{6, "is_featured"},
		{7, "connection refused"},
	}
	for i, want := range wantFields {
		got := report.Errors[i]
		if got.Row != want.row {
			t.Errorf("error %d: row = %d, want %d", i, got.Row, want.row)
		}
		if !strings.Contains(got.Message, want.text) {
			t.Errorf("error %d: message %q does not mention %q", i, got.Message, want.text)
		}
	}
	if len(store.saved) != 1 || store.saved[0].Name != "Fine" {
		t.Errorf("only the valid row should be stored, got %v", store.saved)
	}
}

func TestImportStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	csv := header + "Fine,1 Main,Detroit,Wayne,MI,,42.3,-83.0,,,1,,,,,,\n"
	store := &fakeUpserter{}
	if _, err := NewImporter(store).Import(ctx, strings.NewReader(csv)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(store.saved) != 0 {
		t.Error("nothing should be stored after cancel")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" Thai ;Lao,, Vietnamese ")
	want := []string{"Thai", "Lao", "Vietnamese"}
	if len(got) != len(want) {
		t.Fatalf("splitList = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if splitList("") != nil {
		t.Error("empty cell should be nil")
	}
}
