// Package integration exercises the assembled gateway over HTTP: real
// middleware chain, real converter, real normalization pipeline. Only the
// network listener is replaced by httptest.
package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthbridge/hl7-fhir-gateway/internal/domain/conversion"
	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/auth"
	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/converter"
	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/middleware"
	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/normalizer"
)

const sampleADT = "MSH|^~\\&|HIS|TRINITY|FHIRSRV|TRINITY|20230101120000||ADT^A04|MSG0001|P|2.5.1\r" +
	"EVN|A04|20230101113000\r" +
	"PID|1||12345^^^MRN||DOE^JOHN^A||198001011230|M||2106-3||7015551234||EN|ENG|1013\r" +
	"NK1|1|DOE^JANE|SPO^Spouse|||7015555678\r" +
	"PV1|1|I|WARD1^ROOM2^BED3|A|||004777^AARON^ATTEND|||SUR||||7||||ACC001|V12345\r" +
	"AL1|1||^PENICILLIN||HIVES\r" +
	"IN1|1||BCBS123|BLUE CROSS||||GRP789\r" +
	"GT1|1||DOE^ROBERT||7015559999"

var testSecret = []byte("integration-secret")

func newGateway(t *testing.T) *httptest.Server {
	t.Helper()
	log := zerolog.Nop()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(1 << 20))
	e.Use(auth.Bearer(auth.Config{Secret: testSecret, Skipper: auth.Skipper}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	svc := conversion.NewService(converter.NewBaseline(log), normalizer.New(log), log)
	conversion.NewHandler(svc, log).RegisterRoutes(e.Group("/api"))

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func bearerToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Client: "integration",
	}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func postMessage(t *testing.T, srv *httptest.Server, message, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/convert", strings.NewReader(message))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return resp
}

func TestHealthzIsPublic(t *testing.T) {
	srv := newGateway(t)
	resp, err := srv.Client().Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 without credentials", resp.StatusCode)
	}
}

func TestConvertRequiresToken(t *testing.T) {
	srv := newGateway(t)
	resp := postMessage(t, srv, sampleADT, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestConvertFullMessage(t *testing.T) {
	srv := newGateway(t)
	resp := postMessage(t, srv, sampleADT, bearerToken(t))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var bundle map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if bundle["type"] != "message" {
		t.Errorf("bundle type = %v, want message", bundle["type"])
	}

	entries, _ := bundle["entry"].([]interface{})
	if len(entries) == 0 {
		t.Fatal("empty bundle")
	}

	counts := map[string]int{}
	for _, v := range entries {
		e, _ := v.(map[string]interface{})
		url, _ := e["fullUrl"].(string)
		if !strings.HasPrefix(url, "urn:uuid:") || strings.HasPrefix(url, "urn:uuid:urn:uuid:") {
			t.Errorf("bad fullUrl %q", url)
		}
		res, _ := e["resource"].(map[string]interface{})
		kind, _ := res["resourceType"].(string)
		counts[kind]++
	}

	first, _ := entries[0].(map[string]interface{})
	header, _ := first["resource"].(map[string]interface{})
	if header["resourceType"] != "MessageHeader" {
		t.Errorf("first entry = %v, want MessageHeader", header["resourceType"])
	}

	want := map[string]int{
		"MessageHeader":      1,
		"Patient":            1,
		"Encounter":          1,
		"Location":           1,
		"Practitioner":       1,
		"AllergyIntolerance": 1,
		"Organization":       1,
		"Coverage":           1,
		"RelatedPerson":      1,
		"Account":            1,
	}
	for kind, n := range want {
		if counts[kind] != n {
			t.Errorf("%s count = %d, want %d", kind, counts[kind], n)
		}
	}
}

func TestConvertEmptyBody(t *testing.T) {
	srv := newGateway(t)
	resp := postMessage(t, srv, "", bearerToken(t))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestConvertOversizedBody(t *testing.T) {
	srv := newGateway(t)
	resp := postMessage(t, srv, strings.Repeat("X", 2<<20), bearerToken(t))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}
