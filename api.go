package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(cfg *Config, w http.ResponseWriter, status int, detail string) {
	writeJSON(cfg, w, status, map[string]string{"detail": detail})
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))

	return decoder.Decode(v)
}

// bearerToken pulls the admin session token from the Authorization header,
// falling back to a query parameter for websocket-adjacent clients.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}

	return r.URL.Query().Get("token")
}

// requireAdmin resolves the request's session, writing a 401 on failure.
func requireAdmin(cfg *Config, admins *AdminStore, w http.ResponseWriter, r *http.Request) (token, username string, ok bool) {
	token = bearerToken(r)
	username, ok = admins.SessionAdmin(token)
	if !ok {
		writeDetail(cfg, w, http.StatusUnauthorized, "Not authenticated.")
	}

	return token, username, ok
}

func registerGameRoutes(cfg *Config, mux *httprouter.Router, directory *RoomDirectory, admins *AdminStore, bank *QuestionBank) {
	prefix := cfg.prefix

	mux.POST(prefix+"/api/rooms", createRoom(cfg, directory, admins))
	mux.GET(prefix+"/api/rooms/:code", roomInfo(cfg, directory))
	mux.GET(prefix+"/api/rooms/:code/exists", roomExists(cfg, directory))
	mux.GET(prefix+"/api/rooms/:code/qr", roomQR(cfg, directory))
	mux.POST(prefix+"/api/rooms/:code/join", joinRoom(cfg, directory))

	mux.POST(prefix+"/api/rooms/:code/team-mode", setTeamMode(cfg, directory, admins))
	mux.POST(prefix+"/api/rooms/:code/teams", createTeam(cfg, directory, admins))
	mux.PUT(prefix+"/api/rooms/:code/teams/:teamid", updateTeam(cfg, directory, admins))
	mux.DELETE(prefix+"/api/rooms/:code/teams/:teamid", deleteTeam(cfg, directory, admins))
	mux.POST(prefix+"/api/rooms/:code/teams/assign", assignTeam(cfg, directory, admins))
	mux.POST(prefix+"/api/rooms/:code/teams/auto-assign", autoAssignTeams(cfg, directory, admins))

	mux.GET(prefix+"/api/categories", listCategories(cfg, bank))

	mux.POST(prefix+"/api/admin/login", adminLogin(cfg, admins))
	mux.POST(prefix+"/api/admin/signup", adminSignup(cfg, admins))
	mux.POST(prefix+"/api/admin/logout", adminLogout(cfg, admins))
	mux.GET(prefix+"/api/admin/me", adminMe(cfg, admins))
	mux.GET(prefix+"/api/admin/session", adminSession(cfg, directory, admins))
	mux.POST(prefix+"/api/admin/session/close", adminSessionClose(cfg, directory, admins))

	mux.GET(prefix+"/api/admin/questions", listQuestions(cfg, admins, bank))
	mux.POST(prefix+"/api/admin/questions", replaceQuestions(cfg, admins, bank))
	mux.POST(prefix+"/api/admin/category", addCategory(cfg, admins, bank))
	mux.POST(prefix+"/api/admin/question", addQuestion(cfg, admins, bank))
	mux.PUT(prefix+"/api/admin/question/:id", updateQuestion(cfg, admins, bank))
	mux.DELETE(prefix+"/api/admin/question/:id", deleteQuestion(cfg, admins, bank))

	mux.GET(prefix+"/ws/host/:code", serveHostSocket(cfg, directory, admins))
	mux.GET(prefix+"/ws/player/:code/:player", servePlayerSocket(cfg, directory))
}

// ─────────────────────────── Rooms ─────────────────────────── //

func createRoom(cfg *Config, directory *RoomDirectory, admins *AdminStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		token, username, ok := requireAdmin(cfg, admins, w, r)
		if !ok {
			return
		}

		if code, hosting := admins.HostingRoom(token); hosting {
			if _, live := directory.Get(code); live {
				writeJSON(cfg, w, http.StatusConflict, map[string]string{
					"detail":    "You are already hosting a room.",
					"room_code": code,
				})

				return
			}
			admins.ClearHosting(token)
		}

		room, err := directory.Create()
		if err != nil {
			writeDetail(cfg, w, http.StatusInternalServerError, err.Error())

			return
		}

		admins.SetHosting(token, room.Code())

		logf(cfg, "API: %s created room %s from %s", username, room.Code(), realIP(r))

		writeJSON(cfg, w, http.StatusCreated, map[string]string{"room_code": room.Code()})
	}
}

func roomInfo(cfg *Config, directory *RoomDirectory) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		room, ok := directory.Get(params.ByName("code"))
		if !ok {
			writeDetail(cfg, w, http.StatusNotFound, "Room not found.")

			return
		}

		writeJSON(cfg, w, http.StatusOK, room.Snapshot())
	}
}

func roomExists(cfg *Config, directory *RoomDirectory) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		_, ok := directory.Get(params.ByName("code"))

		writeJSON(cfg, w, http.StatusOK, map[string]bool{"exists": ok})
	}
}

func roomQR(cfg *Config, directory *RoomDirectory) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		room, ok := directory.Get(params.ByName("code"))
		if !ok {
			writeDetail(cfg, w, http.StatusNotFound, "Room not found.")

			return
		}

		size := 256
		if requested, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && requested >= 64 && requested <= 2048 {
			size = requested
		}

		joinURL := cfg.scheme() + "://" + r.Host + cfg.prefix + "/join/" + room.Code()

		png, err := qrcode.Encode(joinURL, qrcode.Medium, size)
		if err != nil {
			writeDetail(cfg, w, http.StatusInternalServerError, err.Error())

			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)

		logf(cfg, "API: Served QR for %s (%s) to %s", room.Code(), humanReadableSize(int64(len(png))), realIP(r))
	}
}

func joinRoom(cfg *Config, directory *RoomDirectory) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		room, ok := directory.Get(params.ByName("code"))
		if !ok {
			writeDetail(cfg, w, http.StatusNotFound, "Room not found.")

			return
		}

		var body struct {
			Name string `json:"name"`
		}
		if err := readJSON(r, &body); err != nil {
			writeDetail(cfg, w, http.StatusBadRequest, "Invalid request body.")

			return
		}

		player, err := room.AddPlayer(body.Name)
		switch {
		case errors.Is(err, errGameInProgress):
			writeDetail(cfg, w, http.StatusConflict, "The game has already started.")

			return
		case errors.Is(err, errNameTaken), errors.Is(err, errEmptyName):
			writeDetail(cfg, w, http.StatusBadRequest, err.Error())

			return
		case err != nil:
			writeDetail(cfg, w, http.StatusInternalServerError, err.Error())

			return
		}

		writeJSON(cfg, w, http.StatusOK, map[string]string{
			"player_id":   player.ID,
			"player_name": player.Name,
			"room_code":   room.Code(),
		})
	}
}

// ─────────────────────────── Teams ─────────────────────────── //

// adminRoom resolves the room for an admin-only room operation.
func adminRoom(cfg *Config, directory *RoomDirectory, admins *AdminStore, w http.ResponseWriter, r *http.Request, params httprouter.Params) (*Room, bool) {
	if _, _, ok := requireAdmin(cfg, admins, w, r); !ok {
		return nil, false
	}

	room, ok := directory.Get(params.ByName("code"))
	if !ok {
		writeDetail(cfg, w, http.StatusNotFound, "Room not found.")

		return nil, false
	}

	return room, true
}

func setTeamMode(cfg *Config, directory *RoomDirectory, admins *AdminStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		room, ok := adminRoom(cfg, directory, admins, w, r, params)
		if !ok {
			return
		}

		var body struct {
			Enabled bool `json:"enabled"`
		}
		if err := readJSON(r, &body); err != nil {
			writeDetail(cfg, w, http.StatusBadRequest, "Invalid request body.")

			return
		}

		room.SetTeamMode(body.Enabled)

		writeJSON(cfg, w, http.StatusOK, room.Snapshot())
	}
}

func createTeam(cfg *Config, directory *RoomDirectory, admins *AdminStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		room, ok := adminRoom(cfg, directory, admins, w, r, params)
		if !ok {
			return
		}

		var body struct {
			Name  string `json:"name"`
			Color string `json:"color"`
		}
		if err := readJSON(r, &body); err != nil {
			writeDetail(cfg, w, http.StatusBadRequest, "Invalid request body.")

			return
		}

		team := room.CreateTeam(body.Name, body.Color)

		writeJSON(cfg, w, http.StatusCreated, team)
	}
}

func updateTeam(cfg *Config, directory *RoomDirectory, admins *AdminStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		room, ok := adminRoom(cfg, directory, admins, w, r, params)
		if !ok {
			return
		}

		var body struct {
			Name  string `json:"name"`
			Color string `json:"color"`
		}
		if err := readJSON(r, &body); err != nil {
			writeDetail(cfg, w, http.StatusBadRequest, "Invalid request body.")

			return
		}

		team, err := room.UpdateTeam(params.ByName("teamid"), body.Name, body.Color)
		if err != nil {
			writeDetail(cfg, w, http.StatusNotFound, err.Error())

			return
		}

		writeJSON(cfg, w, http.StatusOK, team)
	}
}

func deleteTeam(cfg *Config, directory *RoomDirectory, admins *AdminStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		room, ok := adminRoom(cfg, directory, admins, w, r, params)
		if !ok {
			return
		}

		if err := room.DeleteTeam(params.ByName("teamid")); err != nil {
			writeDetail(cfg, w, http.StatusNotFound, err.Error())

			return
		}

		writeJSON(cfg, w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

func assignTeam(cfg *Config, directory *RoomDirectory, admins *AdminStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		room, ok := adminRoom(cfg, directory, admins, w, r, params)
		if !ok {
			return
		}

		var body struct {
			PlayerID string `json:"player_id"`
			TeamID   string `json:"team_id"`
		}
		if err := readJSON(r, &body); err != nil {
			writeDetail(cfg, w, http.StatusBadRequest, "Invalid request body.")

			return
		}

		if err := room.AssignPlayer(body.PlayerID, body.TeamID); err != nil {
			writeDetail(cfg, w, http.StatusNotFound, err.Error())

			return
		}

		writeJSON(cfg, w, http.StatusOK, map[string]bool{"assigned": true})
	}
}

func autoAssignTeams(cfg *Config, directory *RoomDirectory, admins *AdminStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		room, ok := adminRoom(cfg, directory, admins, w, r, params)
		if !ok {
			return
		}

		var body struct {
			NumTeams int `json:"num_teams"`
		}
		if err := readJSON(r, &body); err != nil {
			writeDetail(cfg, w, http.StatusBadRequest, "Invalid request body.")

			return
		}

		if err := room.AutoAssignTeams(body.NumTeams); err != nil {
			writeDetail(cfg, w, http.StatusBadRequest, err.Error())

			return
		}

		writeJSON(cfg, w, http.StatusOK, room.Snapshot())
	}
}

// ─────────────────────────── Categories ─────────────────────────── //

func listCategories(cfg *Config, bank *QuestionBank) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		categories, err := bank.Categories()
		if err != nil {
			writeDetail(cfg, w, http.StatusInternalServerError, err.Error())

			return
		}

		writeJSON(cfg, w, http.StatusOK, map[string]any{"categories": categories})
	}
}

// ─────────────────────────── Admin ─────────────────────────── //

func adminLogin(cfg *Config, admins *AdminStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := readJSON(r, &body); err != nil {
			writeDetail(cfg, w, http.StatusBadRequest, "Invalid request body.")

			return
		}

		token, err := admins.Login(body.Username, body.Password)
		if err != nil {
			writeDetail(cfg, w, http.StatusUnauthorized, "Invalid username or password.")

			return
		}

		writeJSON(cfg, w, http.StatusOK, map[string]string{
			"token":    token,
			"username": body.Username,
			"name":     admins.AdminName(body.Username),
		})
	}
}

func adminSignup(cfg *Config, admins *AdminStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Name     string `json:"name"`
		}
		if err := readJSON(r, &body); err != nil {
			writeDetail(cfg, w, http.StatusBadRequest, "Invalid request body.")

			return
		}

		if err := admins.Signup(strings.TrimSpace(body.Username), body.Password, strings.TrimSpace(body.Name)); err != nil {
			writeDetail(cfg, w, http.StatusBadRequest, err.Error())

			return
		}

		logf(cfg, "API: Admin account %q created from %s", body.Username, realIP(r))

		writeJSON(cfg, w, http.StatusCreated, map[string]bool{"created": true})
	}
}

func adminLogout(cfg *Config, admins *AdminStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		admins.Logout(bearerToken(r))

		writeJSON(cfg, w, http.StatusOK, map[string]bool{"logged_out": true})
	}
}

func adminMe(cfg *Config, admins *AdminStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		_, username, ok := requireAdmin(cfg, admins, w, r)
		if !ok {
			return
		}

		writeJSON(cfg, w, http.StatusOK, map[string]string{
			"username": username,
			"name":     admins.AdminName(username),
		})
	}
}

func adminSession(cfg *Config, directory *RoomDirectory, admins *AdminStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		token, _, ok := requireAdmin(cfg, admins, w, r)
		if !ok {
			return
		}

		code, hosting := admins.HostingRoom(token)
		if hosting {
			if _, live := directory.Get(code); !live {
				admins.ClearHosting(token)
				hosting = false
				code = ""
			}
		}

		writeJSON(cfg, w, http.StatusOK, map[string]any{
			"active":    hosting,
			"room_code": code,
		})
	}
}

func adminSessionClose(cfg *Config, directory *RoomDirectory, admins *AdminStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		token, username, ok := requireAdmin(cfg, admins, w, r)
		if !ok {
			return
		}

		code, hosting := admins.HostingRoom(token)
		if !hosting {
			writeDetail(cfg, w, http.StatusNotFound, "No active hosting session.")

			return
		}

		directory.Remove(code, SimpleMessage{Type: "session_closed", Message: "The host closed this session."})
		admins.ClearHosting(token)

		logf(cfg, "API: %s closed session for room %s", username, code)

		writeJSON(cfg, w, http.StatusOK, map[string]bool{"closed": true})
	}
}

// ─────────────────────────── Question admin ─────────────────────────── //

func listQuestions(cfg *Config, admins *AdminStore, bank *QuestionBank) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if _, _, ok := requireAdmin(cfg, admins, w, r); !ok {
			return
		}

		catalog, err := bank.All()
		if err != nil {
			writeDetail(cfg, w, http.StatusInternalServerError, err.Error())

			return
		}

		writeJSON(cfg, w, http.StatusOK, catalog)
	}
}

func replaceQuestions(cfg *Config, admins *AdminStore, bank *QuestionBank) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if _, _, ok := requireAdmin(cfg, admins, w, r); !ok {
			return
		}

		var body catalog
		if err := readJSON(r, &body); err != nil {
			writeDetail(cfg, w, http.StatusBadRequest, "Invalid question catalog: "+err.Error())

			return
		}

		if err := bank.ReplaceAll(&body); err != nil {
			writeDetail(cfg, w, http.StatusInternalServerError, err.Error())

			return
		}

		writeJSON(cfg, w, http.StatusOK, map[string]bool{"saved": true})
	}
}

func addCategory(cfg *Config, admins *AdminStore, bank *QuestionBank) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if _, _, ok := requireAdmin(cfg, admins, w, r); !ok {
			return
		}

		var body struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		if err := readJSON(r, &body); err != nil || body.ID == "" || body.Name == "" {
			writeDetail(cfg, w, http.StatusBadRequest, "Category id and name are required.")

			return
		}

		if err := bank.AddCategory(body.ID, body.Name); err != nil {
			writeDetail(cfg, w, http.StatusConflict, err.Error())

			return
		}

		writeJSON(cfg, w, http.StatusCreated, map[string]bool{"created": true})
	}
}

func addQuestion(cfg *Config, admins *AdminStore, bank *QuestionBank) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		_, username, ok := requireAdmin(cfg, admins, w, r)
		if !ok {
			return
		}

		var body struct {
			CategoryID string    `json:"category_id"`
			Question   *Question `json:"question"`
		}
		if err := readJSON(r, &body); err != nil || body.Question == nil {
			writeDetail(cfg, w, http.StatusBadRequest, "Invalid question payload.")

			return
		}

		body.Question.CreatedBy = username
		if err := bank.AddQuestion(body.CategoryID, body.Question); err != nil {
			writeDetail(cfg, w, http.StatusNotFound, err.Error())

			return
		}

		writeJSON(cfg, w, http.StatusCreated, body.Question)
	}
}

func updateQuestion(cfg *Config, admins *AdminStore, bank *QuestionBank) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		if _, _, ok := requireAdmin(cfg, admins, w, r); !ok {
			return
		}

		var body Question
		if err := readJSON(r, &body); err != nil {
			writeDetail(cfg, w, http.StatusBadRequest, "Invalid question payload.")

			return
		}

		if err := bank.UpdateQuestion(params.ByName("id"), &body); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, errQuestionNotFound) {
				status = http.StatusNotFound
			}
			writeDetail(cfg, w, status, err.Error())

			return
		}

		writeJSON(cfg, w, http.StatusOK, &body)
	}
}

func deleteQuestion(cfg *Config, admins *AdminStore, bank *QuestionBank) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		if _, _, ok := requireAdmin(cfg, admins, w, r); !ok {
			return
		}

		if err := bank.DeleteQuestion(params.ByName("id")); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, errQuestionNotFound) {
				status = http.StatusNotFound
			}
			writeDetail(cfg, w, status, err.Error())

			return
		}

		writeJSON(cfg, w, http.StatusOK, map[string]bool{"deleted": true})
	}
}
