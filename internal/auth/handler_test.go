package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AuthHandler", func() {
	var (
		directory *mockDirectory
		service   *Service
		handler   *Handler
	)

	BeforeEach(func() {
		directory = newMockDirectory()
		store := NewStore(2 * time.Minute)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = NewService(directory, store, logger)
		handler = NewHandler(service)
	})

	login := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)
		return rec
	}

	Describe("Login", func() {
		It("sets the session cookie and returns the permission snapshot", func() {
			rec := login(`{"employeeId":"MA001","password":"test123"}`)
			Expect(rec.Code).To(Equal(http.StatusOK))

			cookies := rec.Result().Cookies()
			Expect(cookies).To(HaveLen(1))
			Expect(cookies[0].Name).To(Equal(SessionCookieName))
			Expect(cookies[0].Value).ToNot(BeEmpty())
			Expect(cookies[0].HttpOnly).To(BeTrue())
			Expect(cookies[0].MaxAge).To(Equal(120))

			var body LoginResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Success).To(BeTrue())
			Expect(body.EmployeeID).To(Equal("MA001"))
			Expect(body.Permissions.Allows("timeTracking", "edit")).To(BeTrue())
		})

		It("answers 401 with the failure envelope on a wrong password", func() {
			rec := login(`{"employeeId":"MA001","password":"nope"}`)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))

			var body map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body["success"]).To(BeFalse())
			Expect(body["message"]).To(Equal("Falsches Passwort"))
		})

		It("answers 401 for an unknown employee", func() {
			rec := login(`{"employeeId":"MA999","password":"test123"}`)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))

			var body map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body["message"]).To(Equal("Mitarbeiter nicht gefunden"))
		})

		It("answers 400 when credentials are missing", func() {
			rec := login(`{}`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Session", func() {
		It("answers 401 without a token", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
			rec := httptest.NewRecorder()
			handler.Session(rec, req)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			var body SessionResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Authenticated).To(BeFalse())
			Expect(body.Message).To(Equal("Session ungültig"))
		})

		It("resolves the cookie token", func() {
			loginRec := login(`{"employeeId":"MA001","password":"test123"}`)
			cookie := loginRec.Result().Cookies()[0]

			req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
			req.AddCookie(cookie)
			rec := httptest.NewRecorder()
			handler.Session(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			var body SessionResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Authenticated).To(BeTrue())
			Expect(body.User.EmployeeID).To(Equal("MA001"))
		})

		It("accepts a Bearer token as fallback", func() {
			_, token, err := service.Login(LoginDTO{EmployeeID: "MA001", Password: "test123"})
			Expect(err).ToNot(HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.Session(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("Logout", func() {
		It("destroys the session and expires the cookie", func() {
			loginRec := login(`{"employeeId":"MA001","password":"test123"}`)
			cookie := loginRec.Result().Cookies()[0]

			req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
			req.AddCookie(cookie)
			rec := httptest.NewRecorder()
			handler.Logout(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			expired := rec.Result().Cookies()
			Expect(expired).To(HaveLen(1))
			Expect(expired[0].MaxAge).To(BeNumerically("<", 0))

			check := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
			check.AddCookie(cookie)
			checkRec := httptest.NewRecorder()
			handler.Session(checkRec, check)
			Expect(checkRec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("AuthMiddleware and Authorization", func() {
		var next http.Handler

		BeforeEach(func() {
			next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
		})

		It("rejects requests without a session", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/inventory/items", nil)
			rec := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("passes authenticated requests through the permission gate", func() {
			loginRec := login(`{"employeeId":"MA001","password":"test123"}`)
			cookie := loginRec.Result().Cookies()[0]

			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
			authz := NewAuthorization(service, logger)
			protected := handler.AuthMiddleware(authz.Require("timeTracking", "view")(next))

			req := httptest.NewRequest(http.MethodGet, "/api/time/locations", nil)
			req.AddCookie(cookie)
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusNoContent))
		})

		It("answers 403 when the action is not permitted", func() {
			loginRec := login(`{"employeeId":"MA001","password":"test123"}`)
			cookie := loginRec.Result().Cookies()[0]

			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
			authz := NewAuthorization(service, logger)
			protected := handler.AuthMiddleware(authz.Require("inventory", "edit")(next))

			req := httptest.NewRequest(http.MethodGet, "/api/inventory/items", nil)
			req.AddCookie(cookie)
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			var body map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body["message"]).To(Equal("Keine Berechtigung für diese Aktion"))
		})
	})
})
