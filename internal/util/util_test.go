package util

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "0532 123 45 67", want: "+905321234567"},
		{in: "5321234567", want: "+905321234567"},
		{in: "+90 (532) 123-45-67", want: "+905321234567"},
		{in: "0049 30 1234567", want: "+49301234567"},
		{in: "", wantErr: true},
		{in: "12ab", wantErr: true},
		{in: "+123", wantErr: true},
	}
	for _, tt := range tests {
		got, err := NormalizePhone(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NormalizePhone(%q) expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestNormalizeIBAN(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "TR33 0006 1005 1978 6457 8413 26", want: "TR330006100519786457841326"},
		{in: "gb82west12345698765432", want: "GB82WEST12345698765432"},
		{in: "TR330006100519786457841327", wantErr: true},
		{in: "TR3300061005197864578413", wantErr: true},
		{in: "1233000610051978645784", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := NormalizeIBAN(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NormalizeIBAN(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalizeIBAN(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestPassword(t *testing.T) {
	for _, pw := range []string{"short1", "onlyletters", "1234567890"} {
		if err := ValidatePassword(pw); err == nil {
			t.Errorf("ValidatePassword(%q) expected error", pw)
		}
	}
	if err := ValidatePassword("s3cretpass"); err != nil {
		t.Fatalf("ValidatePassword: %v", err)
	}
	hash, err := HashPassword("s3cretpass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !ComparePassword(hash, "s3cretpass") {
		t.Error("ComparePassword should accept the right password")
	}
	if ComparePassword(hash, "wrongpass1") {
		t.Error("ComparePassword should reject a wrong password")
	}
}

func TestDateJSON(t *testing.T) {
	var v struct {
		On Date `json:"on"`
	}
	if err := json.Unmarshal([]byte(`{"on":"2026-03-15"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.On.Year() != 2026 || v.On.Month() != time.March || v.On.Day() != 15 {
		t.Fatalf("parsed %v", v.On)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"on":"2026-03-15"}` {
		t.Errorf("marshal = %s", out)
	}
	if err := json.Unmarshal([]byte(`{"on":"15.03.2026"}`), &v); err == nil {
		t.Error("expected error for non ISO date")
	}
	if err := json.Unmarshal([]byte(`{"on":"2026-03-15T23:30:00+03:00"}`), &v); err != nil || v.On.String() != "2026-03-15" {
		t.Errorf("rfc3339 = %v, %v", v.On, err)
	}
}

func TestDateScan(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2025, 12, 31, 15, 0, 0, 0, time.UTC)); err != nil || d.String() != "2025-12-31" {
		t.Fatalf("scan time = %v, %v", d, err)
	}
	if err := d.Scan("2024-02-29"); err != nil || d.String() != "2024-02-29" {
		t.Fatalf("scan string = %v, %v", d, err)
	}
	if err := d.Scan(42); err == nil {
		t.Fatal("expected error for int")
	}
}

func TestPageFromQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query string
		want  Page
	}{
		{query: "", want: Page{Page: 1, Limit: 50, Offset: 0}},
		{query: "?page=3&limit=20", want: Page{Page: 3, Limit: 20, Offset: 40}},
		{query: "?page=-1&limit=100000", want: Page{Page: 1, Limit: 500, Offset: 0}},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/items"+tt.query, nil)
		if got := PageFromQuery(c); got != tt.want {
			t.Errorf("PageFromQuery(%q) = %+v, want %+v", tt.query, got, tt.want)
		}
	}
}
