package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func queryContext(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/json?"+rawQuery, nil)
	return c
}

func TestValidateDateParts(t *testing.T) {
	year, month, day := 2026, 3, 15
	if err := validateDateParts(&year, &month, &day); err != nil {
		t.Fatalf("expected valid date, got %v", err)
	}
	if err := validateDateParts(nil, nil, nil); err != nil {
		t.Fatalf("expected nil parts to pass, got %v", err)
	}

	badYear := 1800
	if err := validateDateParts(&badYear, nil, nil); err == nil {
		t.Fatal("expected error for year 1800")
	}
	badMonth := 13
	if err := validateDateParts(&year, &badMonth, nil); err == nil {
		t.Fatal("expected error for month 13")
	}
	badDay := 32
	if err := validateDateParts(&year, &month, &badDay); err == nil {
		t.Fatal("expected error for day 32")
	}
}

func TestKeyFromQueryBuildsFullKey(t *testing.T) {
	c := queryContext(t, "tag=log&secondary_tag=lcsd&tertiary_tag=probe&year=2026&month=3&day=7")

	key, err := keyFromQuery(c)
	if err != nil {
		t.Fatalf("keyFromQuery returned error: %v", err)
	}
	if got := key.ID(); got != "log_lcsd_probe_2026_3_7" {
		t.Fatalf("unexpected key id %q", got)
	}
}

func TestKeyFromQueryRequiresTag(t *testing.T) {
	c := queryContext(t, "secondary_tag=lcsd")
	if _, err := keyFromQuery(c); err == nil {
		t.Fatal("expected error when tag is missing")
	}
}

func TestKeyFromQueryRejectsNonIntegerDate(t *testing.T) {
	c := queryContext(t, "tag=log&year=twenty")
	if _, err := keyFromQuery(c); err == nil {
		t.Fatal("expected error for non-integer year")
	}
}

func TestJSONPayloadKeyRoundTrip(t *testing.T) {
	year, month, day := 2026, 8, 31
	payload := JSONPayload{
		Tag:          "weather",
		SecondaryTag: "hko",
		Year:         &year,
		Month:        &month,
		Day:          &day,
		Data:         map[string]interface{}{"temp": 31},
	}
	if got := payload.key().ID(); got != "weather_hko_2026_8_31" {
		t.Fatalf("unexpected key id %q", got)
	}
}
