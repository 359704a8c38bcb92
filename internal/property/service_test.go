package property

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evcraddock/listing-desk/internal/geo"
)

func TestCreateSanitizesFields(t *testing.T) {
	repo := testRepo(t)
	svc := NewService(repo, nil)

	p, err := svc.Create("  Lakeview <i>Cottage</i> ", "body", StatusPublished, map[Field]string{
		FieldAgent: " Jane\tDoe ",
		FieldPrice: "250000",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if p.Title != "Lakeview Cottage" {
		t.Errorf("title = %q, want %q", p.Title, "Lakeview Cottage")
	}
	if p.Get(FieldAgent) != "Jane Doe" {
		t.Errorf("agent = %q, want %q", p.Get(FieldAgent), "Jane Doe")
	}
	if p.Bedrooms != nil {
		t.Error("expected bedrooms to stay unset")
	}
}

func TestFillLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/us/90211":
			writeResp(t, w, `{"country": "United States", "places": [
				{"place name": "Beverly Hills", "state": "California", "state abbreviation": "CA"}
			]}`)
		case "/us/00000":
			writeResp(t, w, `{"country": "United States", "places": []}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			writeResp(t, w, `{}`)
		}
	}))
	defer server.Close()

	repo := testRepo(t)
	svc := NewService(repo, testGeoClient(t, server.URL))
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		p := insertFull(t, repo, &Property{Title: "A", Attributes: Attributes{ZIP: strPtr("90211-1234")}})

		loc, err := svc.FillLocation(ctx, p.ID)
		if err != nil {
			t.Fatalf("fill location: %v", err)
		}
		if !loc.Found {
			t.Fatal("expected location to be found")
		}

		got, err := repo.GetByID(p.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Get(FieldCity) != "Beverly Hills" {
			t.Errorf("city = %q", got.Get(FieldCity))
		}
		if got.Get(FieldState) != "CA (California)" {
			t.Errorf("state = %q", got.Get(FieldState))
		}
		if got.Get(FieldCountry) != "United States" {
			t.Errorf("country = %q", got.Get(FieldCountry))
		}
		if got.Get(FieldZIP) != "90211-1234" {
			t.Errorf("zip = %q, want unchanged", got.Get(FieldZIP))
		}
	})

	t.Run("no places leaves listing unchanged", func(t *testing.T) {
		p := insertFull(t, repo, &Property{Title: "B", Attributes: Attributes{ZIP: strPtr("00000"), City: strPtr("Keep")}})

		loc, err := svc.FillLocation(ctx, p.ID)
		if err != nil {
			t.Fatalf("fill location: %v", err)
		}
		if loc.Found {
			t.Error("expected Found = false")
		}

		got, err := repo.GetByID(p.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Get(FieldCity) != "Keep" {
			t.Errorf("city = %q, want unchanged", got.Get(FieldCity))
		}
	})

	t.Run("not found", func(t *testing.T) {
		p := insertFull(t, repo, &Property{Title: "C", Attributes: Attributes{ZIP: strPtr("99999")}})

		_, err := svc.FillLocation(ctx, p.ID)
		if !errors.Is(err, geo.ErrNotFound) {
			t.Errorf("err = %v, want geo.ErrNotFound", err)
		}
	})

	t.Run("invalid zip", func(t *testing.T) {
		p := insertFull(t, repo, &Property{Title: "D"})

		_, err := svc.FillLocation(ctx, p.ID)
		if !errors.Is(err, geo.ErrInvalidZIP) {
			t.Errorf("err = %v, want geo.ErrInvalidZIP", err)
		}
	})

	t.Run("missing listing", func(t *testing.T) {
		_, err := svc.FillLocation(ctx, 9999)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func testGeoClient(t *testing.T, baseURL string) *geo.Client {
	t.Helper()
	c := geo.NewClient(geo.Options{RatePerSecond: 1000})
	geo.SetTestURL(c, baseURL)
	return c
}

// writeResp writes a string to an http.ResponseWriter in tests.
func writeResp(t *testing.T, w http.ResponseWriter, s string) {
	t.Helper()
	if _, err := fmt.Fprint(w, s); err != nil {
		t.Errorf("write response: %v", err)
	}
}
