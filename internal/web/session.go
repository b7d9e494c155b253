package web

import (
	"net/http"
	"strings"

	"github.com/camuig/trader-console/internal/console"
)

// requireSession sends signed-out browsers to the sign-in page and answers
// API calls with 401.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.console.Auth.SignedIn() {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/console/") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not signed in"})
			return
		}
		http.Redirect(w, r, "/signin", http.StatusSeeOther)
	})
}

// confirmation carries ?confirm=yes into the request context for the
// destructive-action gate.
func confirmation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok := r.URL.Query().Get("confirm") == "yes"
		next.ServeHTTP(w, r.WithContext(console.WithConfirmation(r.Context(), ok)))
	})
}

type signInPage struct {
	Username string
	Error    string
}

func (s *Server) handleSignInPage(w http.ResponseWriter, r *http.Request) {
	if s.console.Auth.SignedIn() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "signin.html", signInPage{Username: s.config.Backend.Username})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, "signin.html", signInPage{Username: s.config.Backend.Username, Error: "Invalid form"})
		return
	}

	if err := s.console.Auth.SignIn(r.Context(), r.PostForm.Get("password")); err != nil {
		s.logger.Warn("sign in failed", "error", err)
		s.render(w, http.StatusUnauthorized, "signin.html", signInPage{
			Username: s.config.Backend.Username,
			Error:    console.Message(err, "Sign in failed"),
		})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.console.Auth.SignOut()
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.pages.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("execute template", "template", name, "error", err)
	}
}
