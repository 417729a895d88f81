package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pelltigre/sketchparty/database"
	"github.com/pelltigre/sketchparty/game"
	"github.com/pelltigre/sketchparty/recognition"
	"github.com/pelltigre/sketchparty/schema"
	"github.com/pelltigre/sketchparty/server/containers"
	"github.com/pelltigre/sketchparty/words"
)

const tokenLifetime = 12 * time.Hour

type Server struct {
	Mux        *mux.Router
	DB         *gorm.DB
	Token      Token
	Pool       *words.Pool
	Classifier recognition.Classifier
	Rooms      map[string]*roomEntry
	Mutex      *sync.RWMutex
	Upgrader   websocket.Upgrader
}

func New(db *gorm.DB, pool *words.Pool, classifier recognition.Classifier) *Server {
	return &Server{
		DB:         db,
		Mux:        mux.NewRouter(),
		Token:      NewToken(32),
		Pool:       pool,
		Classifier: classifier,
		Rooms:      make(map[string]*roomEntry),
		Mutex:      &sync.RWMutex{},
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			//TODO: restrict the upgrade origin once the client origin is fixed.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (s *Server) Connect(address string, allowedOrigins []string) error {
	authRouter := s.Mux.NewRoute().Subrouter()
	authRouter.Use(s.authHandler)
	authRouter.HandleFunc("/api/user", s.handleUserGet).Methods("POST")
	authRouter.HandleFunc("/api/user/change", s.handleUserChange).Methods("POST")
	authRouter.HandleFunc("/api/stat", s.handleStat).Methods("GET")
	authRouter.HandleFunc("/api/rooms", s.handleRooms).Methods("GET")

	s.Mux.HandleFunc("/api/login", s.handleUserLogin).Methods("POST")
	s.Mux.HandleFunc("/api/register", s.handleUserRegister).Methods("POST")
	s.Mux.HandleFunc("/api/words", s.handleWords).Methods("GET")
	s.Mux.HandleFunc("/api/host/{sessionToken}", s.handleHost)
	s.Mux.HandleFunc("/api/join/{sessionToken}/{id}", s.handleJoin)
	s.Mux.Use(mux.CORSMethodMiddleware(s.Mux))
	log.Printf("Starting server on %s\n", address)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	origins := handlers.AllowedOrigins(allowedOrigins)
	methods := handlers.AllowedMethods([]string{"POST", "OPTIONS", "GET"})
	headers := handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization"})

	if err := http.ListenAndServe(
		address,
		handlers.LoggingHandler(os.Stderr, handlers.CORS(origins, methods, headers)(s.Mux))); err != nil {
		return fmt.Errorf("error serving on %s: %w", address, err)
	}
	return nil
}

func (s *Server) authHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, err := s.Token.CheckTokenRequest(w, r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserID, payload.Id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type ctxKey int

const ctxUserID ctxKey = iota

func (s *Server) handleUserLogin(w http.ResponseWriter, r *http.Request) {
	user, err := containers.ParseLoginUser(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Bad user json."))
		return
	}
	dbUser, derr := database.GetUserByEmail(s.DB, user.Email)
	if derr != nil {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Wrong email or password."))
		return
	}
	if err := bcrypt.CompareHashAndPassword(dbUser.Password, []byte(user.Password)); err != nil {
		log.Printf("%s\n", err.Error())
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Wrong email or password."))
		return
	}

	token, err := s.Token.CreateToken(dbUser.ID, tokenLifetime)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Could not create authentication token."))
		return
	}

	resp := map[string]interface{}{
		"sessionToken": token,
		"user":         dbUser,
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleUserRegister(w http.ResponseWriter, r *http.Request) {
	user, err := containers.ParseLoginUser(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Bad user json."))
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Could not encode password"))
		return
	}

	schemaUser := &schema.User{
		Email:    user.Email,
		Password: hashedPassword,
		Username: user.Username,
	}

	id, derr := database.AddUser(s.DB, schemaUser)
	if derr != nil {
		if derr.ErrorType == database.ConflictError {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(derr.Error()))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(derr.Error()))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf("%d", id)))
}

func (s *Server) handleUserGet(w http.ResponseWriter, r *http.Request) {
	id, ok := r.Context().Value(ctxUserID).(uint)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	dbUser, derr := database.GetUserByID(s.DB, id)
	if derr != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Could not fetch from database."))
		return
	}

	resp := map[string]interface{}{
		"sessionToken": ExtractToken(r),
		"user":         dbUser,
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleUserChange(w http.ResponseWriter, r *http.Request) {
	id, ok := r.Context().Value(ctxUserID).(uint)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	user, err := containers.ParseLoginUser(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Bad user json."))
		return
	}

	if user.Password != "" {
		newPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Could not encrypt password."))
			return
		}
		if derr := database.UpdateUser(s.DB, id, newPassword, user.Username); derr != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	} else {
		if derr := database.UpdateUserUsername(s.DB, id, user.Username); derr != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStat(w http.ResponseWriter, r *http.Request) {
	id, ok := r.Context().Value(ctxUserID).(uint)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	stat, derr := database.GetUserStatistics(s.DB, id)
	if derr != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stat)
}

func (s *Server) handleWords(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"poolSize": s.Pool.Size(),
	})
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	s.Mutex.RLock()
	ids := make([]string, 0, len(s.Rooms))
	for id := range s.Rooms {
		ids = append(ids, id)
	}
	s.Mutex.RUnlock()

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{"rooms": ids})
}

// handleHost creates a fresh room and admits the caller as its host.
func (s *Server) handleHost(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	payload, err := s.Token.CheckTokenVars(vars)
	if err != nil {
		log.Printf("[handleHost] Could not validate token: %s", err.Error())
		return
	}
	user, derr := database.GetUserByID(s.DB, payload.Id)
	if derr != nil {
		log.Printf("[handleHost] Could not get user info for user: %d\n", payload.Id)
		return
	}

	roomID := uuid.NewString()
	room := game.NewRoom(roomID, s.Pool, s.Classifier)
	entry := &roomEntry{
		room:  room,
		conns: make(map[uint]*playerConn),
	}

	s.Mutex.Lock()
	s.Rooms[roomID] = entry
	s.Mutex.Unlock()

	go room.Run()
	go s.fanout(entry)

	ws, err := s.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[handleHost] Could not upgrade to ws: %s", err.Error())
		s.removeRoom(roomID)
		return
	}

	s.serve(entry, ws, user.ID, user.Username)
}

// handleJoin admits a player, or re-admits one reconnecting with the
// same identity.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roomID, ok := vars["id"]
	if !ok {
		log.Printf("[handleJoin] Missing room id")
		return
	}

	payload, err := s.Token.CheckTokenVars(vars)
	if err != nil {
		log.Printf("[handleJoin] Could not validate token: %s", err.Error())
		return
	}
	user, derr := database.GetUserByID(s.DB, payload.Id)
	if derr != nil {
		log.Printf("[handleJoin] Could not get user info for user: %d\n", payload.Id)
		return
	}

	s.Mutex.RLock()
	entry, exists := s.Rooms[roomID]
	s.Mutex.RUnlock()
	if !exists {
		log.Printf("[handleJoin] No room with id: %s\n", roomID)
		w.WriteHeader(http.StatusNotFound)
		return
	}

	ws, err := s.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[handleJoin] Could not upgrade to ws: %s", err.Error())
		return
	}

	s.serve(entry, ws, user.ID, user.Username)
}

func (s *Server) removeRoom(roomID string) {
	s.Mutex.Lock()
	entry, ok := s.Rooms[roomID]
	delete(s.Rooms, roomID)
	s.Mutex.Unlock()
	if ok {
		entry.room.Stop()
	}
}

// fanout drains a room's notifications to the addressed players and
// persists what needs persisting along the way.
func (s *Server) fanout(entry *roomEntry) {
	for event := range entry.room.Events {
		data, err := containers.EncodeEvent(event)
		if err != nil {
			log.Printf("[fanout] failed to marshal event payload: %s", err)
			continue
		}
		for _, id := range event.Receivers {
			entry.send(id, data)
		}
		s.record(event)
	}
}

// record mirrors game outcomes into the database. Failures are logged
// and never block play.
func (s *Server) record(event game.Event) {
	switch msg := event.Msg.(type) {
	case game.WordOptionsMsg:
		if derr := database.RecordWordOffered(s.DB, msg.Options); derr != nil {
			log.Printf("[record] word usage: %s", derr)
		}
	case game.RoundEndedMsg:
		if len(msg.CorrectGuesses) > 0 || msg.Recognized {
			if derr := database.RecordWordGuessed(s.DB, msg.Word); derr != nil {
				log.Printf("[record] word usage: %s", derr)
			}
		}
	case game.SessionEndedMsg:
		winners := make(map[uint]bool, len(msg.Winners))
		for _, id := range msg.Winners {
			winners[id] = true
		}
		derr := database.SaveFinishedSession(
			s.DB, event.RoomID, msg.HostID, msg.Rounds, msg.TimeLimit,
			msg.Reason, msg.Results, winners)
		if derr != nil {
			log.Printf("[record] session save: %s", derr)
		}
	}
}
