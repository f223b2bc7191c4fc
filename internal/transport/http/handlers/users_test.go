package handlers_test

import (
	"net/http"
	"testing"
)

func TestRegisterValidationMessages(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name    string
		payload map[string]string
		message string
	}{
		{
			name:    "short username",
			payload: map[string]string{"username": "ab", "email": "ab@shop.io", "password": "secret1"},
			message: "username must be at least 3 characters",
		},
		{
			name:    "bad email",
			payload: map[string]string{"username": "carol", "email": "carol-at-shop", "password": "secret1"},
			message: "invalid email address",
		},
		{
			name:    "short password",
			payload: map[string]string{"username": "carol", "email": "carol@shop.io", "password": "five5"},
			message: "password must be at least 6 characters",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.doJSON(t, http.MethodPost, "/api/users/register", tc.payload)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body = %s", w.Code, w.Body.String())
			}
			body := decodeResponse(t, w)
			if body["success"] != false {
				t.Fatalf("success = %v, want false", body["success"])
			}
			if body["message"] != tc.message {
				t.Fatalf("message = %q, want %q", body["message"], tc.message)
			}
		})
	}
}

func TestRegisterAcceptsDottedLocalPartEmail(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/users/register", map[string]string{
		"username": "helen",
		"email":    "a.b@c",
		"password": "secret1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	body := decodeResponse(t, w)
	if body["success"] != true {
		t.Fatalf("success = %v, want true", body["success"])
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "dave", "dave@shop.io", "secret1")

	w := env.doJSON(t, http.MethodPost, "/api/users/register", map[string]string{
		"username": "dave",
		"email":    "other@shop.io",
		"password": "secret2",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", w.Code, w.Body.String())
	}
	body := decodeResponse(t, w)
	if body["success"] != false {
		t.Fatalf("success = %v, want false", body["success"])
	}
	if body["message"] != "username already taken" {
		t.Fatalf("message = %q", body["message"])
	}
}

func TestLoginFlowIssuesUsableToken(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "erin", "erin@shop.io", "hunter22")
	env.seedChallenge(t, "session-9", "WXYZ")

	w := env.doJSON(t, http.MethodPost, "/api/users/login", map[string]string{
		"username":  "erin",
		"password":  "hunter22",
		"captcha":   "wxyz",
		"sessionId": "session-9",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	body := decodeResponse(t, w)
	if body["success"] != true {
		t.Fatalf("success = %v, want true", body["success"])
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("expected a bearer token in the response")
	}
	claims, err := env.codec.Parse(token)
	if err != nil {
		t.Fatalf("Parse(issued token): %v", err)
	}
	if claims.Subject != "erin" {
		t.Fatalf("token subject = %q, want erin", claims.Subject)
	}
	user, _ := body["user"].(map[string]any)
	if user["username"] != "erin" {
		t.Fatalf("user = %v, want public record for erin", body["user"])
	}
	if _, leaked := user["PasswordHash"]; leaked {
		t.Fatal("response leaked credential material")
	}

	// The issued token clears the bearer tier on a protected route.
	userPath := "/api/users/" + user["id"].(string)
	w2 := env.do(t, http.MethodGet, userPath, "", nil)
	if w2.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated protected read: status = %d, want 401", w2.Code)
	}
	w3 := env.doAuth(t, http.MethodGet, userPath, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("authenticated protected read: status = %d, body = %s", w3.Code, w3.Body.String())
	}
}

func TestLoginWrongCaptchaKeepsChallengeLive(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "frank", "frank@shop.io", "hunter22")
	env.seedChallenge(t, "session-3", "QRST")

	payload := map[string]string{
		"username":  "frank",
		"password":  "hunter22",
		"captcha":   "wrong",
		"sessionId": "session-3",
	}
	w := env.doJSON(t, http.MethodPost, "/api/users/login", payload)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", w.Code, w.Body.String())
	}
	body := decodeResponse(t, w)
	if body["message"] != "captcha verification failed" {
		t.Fatalf("message = %q", body["message"])
	}

	// The same challenge answers a corrected retry.
	payload["captcha"] = "qrst"
	w = env.doJSON(t, http.MethodPost, "/api/users/login", payload)
	if w.Code != http.StatusOK {
		t.Fatalf("retry status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestLoginCredentialFailures(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "grace", "grace@shop.io", "hunter22")

	cases := []struct {
		name     string
		username string
		password string
		message  string
	}{
		{"unknown account", "nobody", "hunter22", "account does not exist"},
		{"wrong password", "grace", "wrong-pass", "incorrect username or password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sessionID := "cred-session-" + tc.name
			env.seedChallenge(t, sessionID, "AAAA")
			w := env.doJSON(t, http.MethodPost, "/api/users/login", map[string]string{
				"username":  tc.username,
				"password":  tc.password,
				"captcha":   "aaaa",
				"sessionId": sessionID,
			})
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401; body = %s", w.Code, w.Body.String())
			}
			body := decodeResponse(t, w)
			if body["message"] != tc.message {
				t.Fatalf("message = %q, want %q", body["message"], tc.message)
			}
		})
	}
}
