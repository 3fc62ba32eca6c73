package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestAthleteTokenRoundTrip(t *testing.T) {
	token, err := GenerateAthleteToken(12345, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAthleteToken returned error: %v", err)
	}

	claims, err := ValidateToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if claims.AthleteID != 12345 {
		t.Errorf("athlete id = %d", claims.AthleteID)
	}
	if claims.Admin {
		t.Error("athlete token must not carry the admin flag")
	}
	if claims.Subject != "12345" || claims.Issuer != "stridestats" {
		t.Errorf("registered claims = %+v", claims.RegisteredClaims)
	}
}

func TestAdminTokenRoundTrip(t *testing.T) {
	token, err := GenerateAdminToken(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAdminToken returned error: %v", err)
	}

	claims, err := ValidateToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if !claims.Admin || claims.AthleteID != 0 {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateTokenRejections(t *testing.T) {
	t.Run("wrong secret", func(t *testing.T) {
		token, _ := GenerateAthleteToken(1, testSecret, time.Hour)
		if _, err := ValidateToken(token, "other-secret"); err == nil {
			t.Error("expected validation to fail with the wrong secret")
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token, _ := GenerateAthleteToken(1, testSecret, -time.Minute)
		if _, err := ValidateToken(token, testSecret); err == nil {
			t.Error("expected validation to fail for an expired token")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := ValidateToken("not-a-jwt", testSecret); err == nil {
			t.Error("expected validation to fail for garbage input")
		}
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if !CheckPassword("correct horse battery staple", hash) {
		t.Error("correct password should verify")
	}
	if CheckPassword("wrong password", hash) {
		t.Error("wrong password should not verify")
	}
}

func TestAthleteMiddleware(t *testing.T) {
	config := Config{JWTSecret: testSecret, SessionTTL: time.Hour}

	handler := AthleteMiddleware(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		athleteID, ok := AthleteIDFromContext(r.Context())
		if !ok || athleteID != 77 {
			t.Errorf("context athlete id = %d, %v", athleteID, ok)
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d", rr.Code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d", rr.Code)
		}
	})

	t.Run("admin token on an athlete route", func(t *testing.T) {
		token, _ := GenerateAdminToken(testSecret, time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d", rr.Code)
		}
	})

	t.Run("valid athlete token", func(t *testing.T) {
		token, _ := GenerateAthleteToken(77, testSecret, time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d", rr.Code)
		}
	})
}

func TestAdminMiddleware(t *testing.T) {
	config := Config{JWTSecret: testSecret, SessionTTL: time.Hour}

	handler := AdminMiddleware(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			t.Error("context should carry the admin flag")
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("athlete token on an admin route", func(t *testing.T) {
		token, _ := GenerateAthleteToken(77, testSecret, time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d", rr.Code)
		}
	})

	t.Run("valid admin token", func(t *testing.T) {
		token, _ := GenerateAdminToken(testSecret, time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d", rr.Code)
		}
	})
}
