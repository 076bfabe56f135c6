package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"regexp"
	"unicode/utf8"

	"github.com/ChutneyCheeseball/blabber/internal/common"
)

// usernamePattern matches the same word characters the mention scanner
// recognizes, so every registered name is taggable with @name.
var usernamePattern = regexp.MustCompile(`^\w{2,32}$`)

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createBlabRequest struct {
	Content string `json:"content"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !usernamePattern.MatchString(req.Username) {
		writeMessage(w, http.StatusBadRequest, "Invalid username")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if len(req.Password) < 8 {
		writeMessage(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	_, err := s.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUsernameTaken):
			writeMessage(w, http.StatusBadRequest, "Username is already taken.")
		case errors.Is(err, common.ErrEmailTaken):
			writeMessage(w, http.StatusBadRequest, "Email address is already taken.")
		default:
			s.logger.Error(r.Context(), "user registration failed", "error", err)
			writeMessage(w, http.StatusInternalServerError, "Could not create user.")
		}
		return
	}

	writeMessage(w, http.StatusOK, "User created.")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Exactly one of username/email identifies the account.
	if (req.Username == "") == (req.Email == "") {
		writeMessage(w, http.StatusBadRequest, "Supply either username or email")
		return
	}
	if len(req.Password) < 8 {
		writeMessage(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	token, err := s.users.Login(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			writeMessage(w, http.StatusNotFound, "User not found.")
		case errors.Is(err, common.ErrInvalidCredentials):
			writeMessage(w, http.StatusBadRequest, "Invalid credentials.")
		default:
			s.logger.Error(r.Context(), "login failed", "error", err)
			writeMessage(w, http.StatusInternalServerError, "Could not log in.")
		}
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleCreateBlab(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication error")
		return
	}

	var req createBlabRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if n := utf8.RuneCountInString(req.Content); n < 1 || n > 280 {
		writeMessage(w, http.StatusBadRequest, "Content must be 1-280 characters")
		return
	}

	if _, err := s.blabs.CreateBlab(r.Context(), user, req.Content); err != nil {
		s.logger.Error(r.Context(), "blab creation failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Could not create blab.")
		return
	}

	writeMessage(w, http.StatusOK, "Blab created.")
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	items, err := s.blabs.GlobalFeed(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "feed query failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, feedResponse(items))
}

func (s *Server) handleMentioned(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication error")
		return
	}

	items, err := s.blabs.MentionedFeed(r.Context(), user.ID)
	if err != nil {
		s.logger.Error(r.Context(), "mentioned query failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, feedResponse(items))
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication error")
		return
	}

	items, err := s.blabs.Timeline(r.Context(), user.ID)
	if err != nil {
		s.logger.Error(r.Context(), "timeline query failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, feedResponse(items))
}
