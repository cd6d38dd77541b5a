package conn

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/minsql/minsql/internal/auth"
	"github.com/minsql/minsql/internal/catalog"
	"github.com/minsql/minsql/internal/engine"
	"github.com/minsql/minsql/internal/parser"
	"github.com/minsql/minsql/internal/storage"
	"github.com/minsql/minsql/pkg"
)

type QueryRequest struct {
	Query string `json:"query"`
}

var upgrader = websocket.Upgrader{
	WriteBufferSize: 1024 * 10,
	ReadBufferSize:  1024 * 10,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server exposes the engine over websocket and plain HTTP. The engine
// itself has no locking, so the server serializes all statements behind
// one lock. When a store is attached that lock is the store's own, so
// background flushes read a consistent catalog snapshot.
type Server struct {
	executor *engine.Executor
	store    *storage.Store
	users    []*auth.User

	locker *sync.RWMutex
}

func NewServer(c *catalog.Catalog, store *storage.Store, users []*auth.User) *Server {
	locker := &sync.RWMutex{}
	if store != nil {
		locker = store.GetLocker()
	}
	return &Server{
		executor: engine.NewExecutor(c),
		store:    store,
		users:    users,
		locker:   locker,
	}
}

// requiredRole maps a statement kind to the clearance needed to run it:
// reads for everyone, row mutations for writers, schema changes for
// admins only.
func requiredRole(stmt parser.Statement) auth.UserRole {
	switch stmt.(type) {
	case *parser.SelectStmt, *parser.ShowStmt, *parser.UseStmt:
		return auth.UserRoleReadOnly
	case *parser.InsertStmt, *parser.UpdateStmt, *parser.DeleteStmt:
		return auth.UserRoleReadWrite
	}
	return auth.UserRoleAdmin
}

// execute runs one statement for an authenticated user. The second
// return is false when the user's role does not clear the statement;
// the envelope still carries the failure message.
func (s *Server) execute(query string, user *auth.User) (engine.Result, bool) {
	stmt, err := parser.Parse(query)
	if err != nil {
		return engine.Result{Success: false, Error: err.Error()}, true
	}
	if user != nil && !user.HasClearance(requiredRole(stmt)) {
		return engine.Result{
			Success: false,
			Error:   fmt.Sprintf("user %s is not allowed to run this statement", user.Name),
		}, false
	}

	s.locker.Lock()
	defer s.locker.Unlock()
	res := s.executor.ExecuteStmt(stmt)
	if res.Success && s.store != nil {
		s.store.MarkChanged()
	}
	return res, true
}

// authenticate accepts basic auth or username/password query params and
// returns the matched user. A server with no configured users is open.
func (s *Server) authenticate(r *http.Request) (*auth.User, bool) {
	if len(s.users) == 0 {
		return nil, true
	}
	username, password, ok := r.BasicAuth()
	if !ok {
		username = r.URL.Query().Get("username")
		password = r.URL.Query().Get("password")
	}
	for _, u := range s.users {
		if u.Name == username && u.ValidatePassword(password) {
			return u, true
		}
	}
	return nil, false
}

func (s *Server) HandleWs(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(r)
	if !ok {
		http.Error(w, "Invalid auth", http.StatusUnauthorized)
		return
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		pkg.ErrorLog("ws upgrade failed", err)
		return
	}
	defer ws.Close()
	defer pkg.InfoLog("Connection closed from", ws.RemoteAddr())
	pkg.InfoLog("Connection opened from", ws.RemoteAddr())

	for {
		var req QueryRequest
		if err := ws.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				pkg.ErrorLog("ws read error", err)
			}
			return
		}
		res, _ := s.execute(req.Query, user)
		if err := ws.WriteJSON(res); err != nil {
			pkg.ErrorLog("ws write error", err)
			return
		}
	}
}

func (s *Server) HandleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	user, ok := s.authenticate(r)
	if !ok {
		http.Error(w, "Invalid auth", http.StatusUnauthorized)
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, permitted := s.execute(req.Query, user)
	w.Header().Set("Content-Type", "application/json")
	if !permitted {
		w.WriteHeader(http.StatusForbidden)
	} else if !res.Success {
		w.WriteHeader(http.StatusBadRequest)
	}
	if err := json.NewEncoder(w).Encode(res); err != nil {
		pkg.ErrorLog("response write error", err)
	}
}

func (s *Server) Listen(port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWs)
	mux.HandleFunc("/query", s.HandleQuery)

	pkg.InfoLog("Listening on port", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
