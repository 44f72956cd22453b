package core

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/hsuden/wellatlas/db"
	"golang.org/x/crypto/bcrypt"
)

const sessionCookie = "wa_session"

func hashPassword(p string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
}

// validPassword enforces the minimum strength: eight characters with at least
// one letter and one digit.
func validPassword(p string) bool {
	if len(p) < 8 {
		return false
	}
	hasLetter, hasDigit := false, false
	for _, c := range p {
		switch {
		case c >= '0' && c <= '9':
			hasDigit = true
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			hasLetter = true
		}
	}
	return hasLetter && hasDigit
}

func generateToken(length int) string {
	const letters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	result := make([]byte, length)
	for i := range result {
		num, _ := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		result[i] = letters[num.Int64()]
	}
	return string(result)
}

// signSessionID signs the server-side session id so a tampered cookie is
// rejected before touching the database.
func signSessionID(secret, id string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(id))
	return id + "." + hex.EncodeToString(mac.Sum(nil))
}

// verifySessionCookie splits and checks the signed value; returns the bare
// session id.
func verifySessionCookie(secret, value string) (string, bool) {
	idx := strings.LastIndex(value, ".")
	if idx <= 0 {
		return "", false
	}
	id := value[:idx]
	if !hmac.Equal([]byte(signSessionID(secret, id)), []byte(value)) {
		return "", false
	}
	return id, true
}

// SignupForm renders the registration page.
func (a *App) SignupForm(w http.ResponseWriter, r *http.Request) {
	RenderTemplate(w, "signup.html", map[string]interface{}{
		"Title": "Sign Up",
	})
}

func (a *App) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		Debugf("signup: bad form: %v", err)
	}
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")

	renderErr := func(msg string) {
		RenderTemplate(w, "signup.html", map[string]interface{}{
			"Title": "Sign Up",
			"Error": msg,
			"Name":  name,
			"Email": email,
		})
	}

	if name == "" || email == "" || password == "" {
		renderErr("All fields are required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		renderErr("Invalid email address")
		return
	}
	if !validPassword(password) {
		renderErr("Password must be at least 8 characters with a letter and a digit")
		return
	}

	exists, err := a.DB.ExistsUserByEmail(email)
	if err != nil {
		Errorf("signup: checking email: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if exists {
		renderErr("Email already registered")
		return
	}

	hash, err := hashPassword(password)
	if err != nil {
		Errorf("signup: hashing password: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// The first account on a fresh database becomes the admin.
	count, err := a.DB.CountUsers()
	if err != nil {
		Errorf("signup: counting users: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user := &db.User{Name: name, Email: email, Password: hash, IsAdmin: count == 0}
	id, err := a.DB.InsertUser(user)
	if err != nil {
		Errorf("signup: inserting user: %v", err)
		renderErr("Could not create the account")
		return
	}
	user.ID = id
	Infof("user created: %s (id %d, admin %v)", email, id, user.IsAdmin)

	a.startSession(w, r, user, false)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.CurrentUser(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	RenderTemplate(w, "login.html", map[string]interface{}{
		"Title": "Login",
		"Next":  r.URL.Query().Get("next"),
	})
}

func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		Debugf("login: bad form: %v", err)
	}
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")
	remember := r.FormValue("remember") == "on"

	if email == "" || password == "" {
		RenderTemplate(w, "login.html", map[string]interface{}{
			"Title": "Login",
			"Error": "Email and password are required",
		})
		return
	}

	user, err := a.DB.AuthenticateUser(email, password)
	if err != nil {
		Debugf("login failed for %s: %v", email, err)
		RenderTemplate(w, "login.html", map[string]interface{}{
			"Title": "Login",
			"Error": "Invalid email or password",
		})
		return
	}
	Infof("login: %s (id %d)", user.Email, user.ID)

	a.startSession(w, r, user, remember)

	next := r.FormValue("next")
	if !safeRedirectPath(next) {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// safeRedirectPath accepts only local absolute paths. "//host" and "/\host"
// are protocol-relative in browsers and must not pass.
func safeRedirectPath(next string) bool {
	if next == "" || next[0] != '/' {
		return false
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return false
	}
	return true
}

func (a *App) startSession(w http.ResponseWriter, r *http.Request, user *db.User, remember bool) {
	sessionID := generateToken(32)
	expiry := time.Now().UTC().Add(24 * time.Hour)
	if remember {
		expiry = time.Now().UTC().Add(7 * 24 * time.Hour)
	}

	if err := a.DB.SaveSession(sessionID, user.ID, expiry.Format("2006-01-02 15:04:05")); err != nil {
		Errorf("saving session: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if err := a.DB.PurgeExpiredSessions(); err != nil {
		Debugf("purging sessions: %v", err)
	}

	secure := true
	sameSite := http.SameSiteStrictMode
	if strings.ToLower(a.Cfg.Env) == "development" {
		secure = r.TLS != nil
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    signSessionID(a.Cfg.SecretKey, sessionID),
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

// CurrentUser resolves the session cookie into a user, or reports false.
func (a *App) CurrentUser(r *http.Request) (*db.User, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	sessionID, ok := verifySessionCookie(a.Cfg.SecretKey, cookie.Value)
	if !ok {
		Debugf("session cookie failed signature check")
		return nil, false
	}
	user, err := a.DB.GetSessionUser(sessionID)
	if err != nil {
		return nil, false
	}
	return user, true
}

// requireUser is the guard every protected handler starts with; it redirects
// anonymous requests to the login page.
func (a *App) requireUser(w http.ResponseWriter, r *http.Request) (*db.User, bool) {
	user, ok := a.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
		return nil, false
	}
	return user, true
}

// requireAdmin gates the schema and backup endpoints.
func (a *App) requireAdmin(w http.ResponseWriter, r *http.Request) (*db.User, bool) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return nil, false
	}
	if !user.IsAdmin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil, false
	}
	return user, true
}

func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookie)
	if err == nil && cookie.Value != "" {
		if sessionID, ok := verifySessionCookie(a.Cfg.SecretKey, cookie.Value); ok {
			if err := a.DB.DeleteSession(sessionID); err != nil {
				Errorf("logout: deleting session: %v", err)
			}
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
